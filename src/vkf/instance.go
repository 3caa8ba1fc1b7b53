// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

const debugReportExtensionName = "VK_EXT_debug_report"

// AddLayer requests an additional validation layer for instances created
// afterwards. Layers are only enabled when validation is.
func (c *Context) AddLayer(name string) {
	c.extraLayers = append(c.extraLayers, name)
}

// CreateInstance creates a Vulkan instance with the given extensions enabled.
// With validation on, the configured layers that are present are enabled
// and the debug report callback is attached. Missing layers and a missing
// debug report extension only produce warnings.
func (c *Context) CreateInstance(extensions []string) (vk.Instance, error) {
	var (
		layers       []string
		debugReport  bool
		enabledExts  = append([]string{}, extensions...)
		requested    = append(append([]string{}, c.configuration.ValidationLayers...), c.extraLayers...)
		validationOn = c.configuration.EnableValidation
	)

	if validationOn {
		available, ret := c.driver.InstanceLayers()
		if err := c.check("vk.EnumerateInstanceLayerProperties()", ret); err != nil {
			return nil, err
		}
		for _, name := range requested {
			if !containsName(available, name) {
				c.logger.WithField("layer", name).Warn("validation layer is not available")
				continue
			}
			layers = append(layers, name)
		}

		instanceExts, ret := c.driver.InstanceExtensions()
		if err := c.check("vk.EnumerateInstanceExtensionProperties()", ret); err != nil {
			return nil, err
		}
		if containsName(instanceExts, debugReportExtensionName) {
			debugReport = true
			if !containsName(enabledExts, debugReportExtensionName) {
				enabledExts = append(enabledExts, debugReportExtensionName)
			}
		} else {
			c.logger.Warn(debugReportExtensionName + " is not available, validation messages will not be reported")
		}
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PApplicationName:   safeString(c.configuration.ApplicationName),
		PEngineName:        safeString("kvf"),
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(enabledExts)),
		PpEnabledExtensionNames: safeStrings(enabledExts),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	instance, ret := c.driver.CreateInstance(&instanceInfo)
	if err := c.check("vk.CreateInstance()", ret); err != nil {
		return nil, err
	}

	c.logger.WithFields(log.Fields{
		"extensions": enabledExts,
		"layers":     layers,
	}).Debug("instance created")

	if debugReport {
		dbgInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: c.debugReport,
		}
		callback, ret := c.driver.CreateDebugReportCallback(instance, &dbgInfo)
		if ret != vk.Success {
			c.logger.WithField("result", VerbaliseResult(ret)).Warn("vk.CreateDebugReportCallback() failed")
		} else {
			c.debugCallbacks[instance] = callback
		}
	}
	return instance, nil
}

// DestroyInstance destroys an instance and its debug report callback.
// A nil instance is ignored.
func (c *Context) DestroyInstance(instance vk.Instance) {
	if instance == nil {
		return
	}
	if callback, ok := c.debugCallbacks[instance]; ok {
		c.driver.DestroyDebugReportCallback(instance, callback)
		delete(c.debugCallbacks, instance)
	}
	c.driver.DestroyInstance(instance)
}

func (c *Context) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint, location uint,
	messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	diag := &ValidationDiagnostic{
		Severity: SeverityWarning,
		Layer:    pLayerPrefix,
		Code:     messageCode,
		Message:  pMessage,
	}
	if flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0 {
		diag.Severity = SeverityError
	}
	c.reportValidation(diag)
	return vk.Bool32(vk.False)
}
