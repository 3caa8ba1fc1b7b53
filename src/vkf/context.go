// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

// ErrorCallback receives a formatted message
type ErrorCallback func(message string)

// Context owns every side table kept about Vulkan objects created through it,
// together with the error hooks and configuration. Handles created through
// one Context must be destroyed through the same Context.
type Context struct {
	driver        Driver
	configuration Configuration
	logger        *log.Logger

	errorCallback             ErrorCallback
	validationErrorCallback   ErrorCallback
	validationWarningCallback ErrorCallback

	extraLayers    []string
	debugCallbacks map[vk.Instance]vk.DebugReportCallback

	pending      Registry[vk.PhysicalDevice, *DeviceRecord]
	devices      Registry[vk.Device, *DeviceRecord]
	swapchains   Registry[vk.Swapchain, *SwapchainRecord]
	framebuffers Registry[vk.Framebuffer, *FramebufferRecord]
}

// NewContext creates a Context. A nil logger is replaced by a logrus
// logger writing to stderr at the configured level.
func NewContext(driver Driver, cfg Configuration, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.New()
		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			logger.SetLevel(level)
		}
	}
	if cfg.DescriptorPoolCapacity == 0 {
		cfg.DescriptorPoolCapacity = 511
	}
	if cfg.DescriptorsPerType == 0 {
		cfg.DescriptorsPerType = 1024
	}
	return &Context{
		driver:         driver,
		configuration:  cfg,
		logger:         logger,
		debugCallbacks: make(map[vk.Instance]vk.DebugReportCallback),
	}
}

// Driver returns the underlying driver
func (c *Context) Driver() Driver {
	return c.driver
}

// Configuration returns the active configuration
func (c *Context) Configuration() Configuration {
	return c.configuration
}

// Logger returns the logger used by the Context
func (c *Context) Logger() *log.Logger {
	return c.logger
}

// SetErrorCallback installs the hook that receives driver and caller errors.
// A nil callback restores logging.
func (c *Context) SetErrorCallback(cb ErrorCallback) {
	c.errorCallback = cb
}

// SetValidationErrorCallback installs the hook for validation errors
func (c *Context) SetValidationErrorCallback(cb ErrorCallback) {
	c.validationErrorCallback = cb
}

// SetValidationWarningCallback installs the hook for validation warnings
func (c *Context) SetValidationWarningCallback(cb ErrorCallback) {
	c.validationWarningCallback = cb
}

// check turns a non-success result into a DriverError, reports it
// and terminates the process when configured to do so.
func (c *Context) check(op string, result vk.Result) error {
	if result == vk.Success {
		return nil
	}
	err := &DriverError{Op: op, Result: result}
	c.reportError(err)
	if c.configuration.FatalErrors {
		c.logger.WithFields(log.Fields{
			"op":     op,
			"result": int32(result),
		}).Fatal(err.Error())
	}
	return err
}

func (c *Context) callerError(op, format string, args ...interface{}) error {
	err := newCallerError(op, format, args...)
	c.reportError(err)
	return err
}

func (c *Context) reportError(err error) {
	if c.errorCallback != nil {
		c.errorCallback(err.Error())
		return
	}
	c.logger.Error(err.Error())
}

func (c *Context) reportValidation(diag *ValidationDiagnostic) {
	switch diag.Severity {
	case SeverityError:
		if c.validationErrorCallback != nil {
			c.validationErrorCallback(diag.Message)
			return
		}
		c.logger.WithFields(log.Fields{
			"layer": diag.Layer,
			"code":  diag.Code,
		}).Error(diag.Message)
	default:
		if c.validationWarningCallback != nil {
			c.validationWarningCallback(diag.Message)
			return
		}
		c.logger.WithFields(log.Fields{
			"layer": diag.Layer,
			"code":  diag.Code,
		}).Warn(diag.Message)
	}
}

// Release forgets every record still held by the Context. Records left
// at this point belong to handles that were never destroyed and are
// reported as leaks. No Vulkan objects are destroyed.
func (c *Context) Release() {
	for _, device := range c.devices.Handles() {
		c.logger.WithField("device", handleString(unsafe.Pointer(device))).Warn("device was not destroyed")
	}
	for _, swapchain := range c.swapchains.Handles() {
		c.logger.WithField("swapchain", handleString(unsafe.Pointer(swapchain))).Warn("swapchain was not destroyed")
	}
	for _, framebuffer := range c.framebuffers.Handles() {
		c.logger.WithField("framebuffer", handleString(unsafe.Pointer(framebuffer))).Warn("framebuffer was not destroyed")
	}
	c.pending.Clear()
	c.devices.Clear()
	c.swapchains.Clear()
	c.framebuffers.Clear()
}

// handleString formats a Vulkan handle for logging. Dispatchable handles
// point to types the Go runtime must not reflect on, so they are never
// handed to the logger as is.
func handleString(handle unsafe.Pointer) string {
	return fmt.Sprintf("%#x", uintptr(handle))
}
