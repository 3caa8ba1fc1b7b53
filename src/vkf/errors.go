// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"fmt"

	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"
)

var (
	// ErrNoSuitableDevice is returned when no physical device passes selection
	ErrNoSuitableDevice = errors.New("no suitable physical device")

	// ErrSwapchainOutOfDate is returned by presentation when the swapchain
	// no longer matches the surface and has to be recreated
	ErrSwapchainOutOfDate = errors.New("swapchain is out of date")
)

// DriverError is a non-success result returned by the driver.
type DriverError struct {
	Op     string
	Result vk.Result
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, VerbaliseResult(e.Result))
}

// CallerError reports a violated contract: a null or unregistered handle,
// an illegal layout, an unrecognised access bit and so on.
type CallerError struct {
	Op     string
	Reason string
}

func (e *CallerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func newCallerError(op, format string, args ...interface{}) error {
	return errors.WithStack(&CallerError{Op: op, Reason: fmt.Sprintf(format, args...)})
}

// Severity of a validation diagnostic
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// ValidationDiagnostic is a message emitted by the validation layers.
type ValidationDiagnostic struct {
	Severity Severity
	Layer    string
	Code     int32
	Message  string
}

func (d *ValidationDiagnostic) Error() string {
	return fmt.Sprintf("validation %s [%s] %d: %s", d.Severity, d.Layer, d.Code, d.Message)
}

// VerbaliseResult returns a human readable description of a vk.Result
func VerbaliseResult(result vk.Result) string {
	switch result {
	case vk.Success:
		return "Success"
	case vk.NotReady:
		return "A fence or query has not yet completed"
	case vk.Timeout:
		return "A wait operation has not completed in the specified time"
	case vk.EventSet:
		return "An event is signaled"
	case vk.EventReset:
		return "An event is unsignaled"
	case vk.Incomplete:
		return "A return array was too small for the result"
	case vk.Suboptimal:
		return "A swapchain no longer matches the surface properties exactly"
	case vk.ErrorOutOfHostMemory:
		return "A host memory allocation has failed"
	case vk.ErrorOutOfDeviceMemory:
		return "A device memory allocation has failed"
	case vk.ErrorInitializationFailed:
		return "Initialization of an object could not be completed for implementation-specific reasons"
	case vk.ErrorDeviceLost:
		return "The logical or physical device has been lost"
	case vk.ErrorMemoryMapFailed:
		return "Mapping of a memory object has failed"
	case vk.ErrorLayerNotPresent:
		return "A requested layer is not present or could not be loaded"
	case vk.ErrorExtensionNotPresent:
		return "A requested extension is not supported"
	case vk.ErrorFeatureNotPresent:
		return "A requested feature is not supported"
	case vk.ErrorIncompatibleDriver:
		return "The requested version of Vulkan is not supported by the driver or is otherwise incompatible"
	case vk.ErrorTooManyObjects:
		return "Too many objects of the type have already been created"
	case vk.ErrorFormatNotSupported:
		return "A requested format is not supported on this device"
	case vk.ErrorFragmentedPool:
		return "A pool allocation has failed due to fragmentation of the pool's memory"
	case vk.ErrorOutOfPoolMemory:
		return "A pool memory allocation has failed"
	case vk.ErrorSurfaceLost:
		return "A surface is no longer available"
	case vk.ErrorNativeWindowInUse:
		return "The requested window is already in use by Vulkan or another API"
	case vk.ErrorOutOfDate:
		return "A surface has changed in such a way that it is no longer compatible with the swapchain"
	default:
		return fmt.Sprintf("Unknown Vulkan result (%d)", int32(result))
	}
}
