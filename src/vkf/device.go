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

// QueueType names a queue role of a device
type QueueType int

const (
	GraphicsQueue QueueType = iota
	PresentQueue
	ComputeQueue
)

func (q QueueType) String() string {
	switch q {
	case GraphicsQueue:
		return "graphics"
	case PresentQueue:
		return "present"
	case ComputeQueue:
		return "compute"
	}
	return "unknown"
}

// DeviceRecord is what the Context knows about a device. It is provisional,
// keyed by the physical device, from selection until CreateDevice moves
// it under the logical device.
type DeviceRecord struct {
	Physical    vk.PhysicalDevice
	Device      vk.Device
	CommandPool vk.CommandPool
	Queues      QueueFamilyIndices
	Pools       []*DescriptorPoolRecord
}

func (r *DeviceRecord) family(queue QueueType) OptionalIndex {
	switch queue {
	case PresentQueue:
		return r.Queues.Present
	case ComputeQueue:
		return r.Queues.Compute
	default:
		return r.Queues.Graphics
	}
}

// CreateDevice creates a logical device on a physical device previously
// returned by one of the Pick functions. One queue is created per distinct
// queue family, and a resettable command pool on the graphics family.
func (c *Context) CreateDevice(physical vk.PhysicalDevice, extensions []string, features *vk.PhysicalDeviceFeatures) (vk.Device, error) {
	if physical == nil {
		return nil, c.callerError("CreateDevice", "null physical device")
	}
	record, ok := c.pending.Find(physical)
	if !ok {
		return nil, c.callerError("CreateDevice", "physical device was not picked through this context")
	}
	if !record.Queues.Graphics.Assigned {
		return nil, c.callerError("CreateDevice", "physical device has no graphics queue family")
	}

	var queueInfos []vk.DeviceQueueCreateInfo
	for _, family := range record.Queues.Unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}
	if features != nil {
		dci.PEnabledFeatures = []vk.PhysicalDeviceFeatures{*features}
	}

	device, ret := c.driver.CreateDevice(physical, &dci)
	if err := c.check("vk.CreateDevice()", ret); err != nil {
		return nil, err
	}

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: record.Queues.Graphics.Index,
	}
	pool, ret := c.driver.CreateCommandPool(device, &cpci)
	if err := c.check("vk.CreateCommandPool()", ret); err != nil {
		c.driver.DestroyDevice(device)
		return nil, err
	}

	record.Device = device
	record.CommandPool = pool
	if err := c.devices.Insert(device, record); err != nil {
		record.Device, record.CommandPool = nil, nil
		c.driver.DestroyCommandPool(device, pool)
		c.driver.DestroyDevice(device)
		return nil, err
	}
	c.pending.Remove(physical)

	c.logger.WithFields(log.Fields{
		"graphics": record.Queues.Graphics.Index,
		"present":  record.Queues.Present.Index,
		"compute":  record.Queues.Compute.Index,
	}).Info("logical device created")
	return device, nil
}

// CreateDefaultDevice creates a device with the swapchain extension and
// no optional features.
func (c *Context) CreateDefaultDevice(physical vk.PhysicalDevice) (vk.Device, error) {
	return c.CreateDevice(physical, []string{vk.KhrSwapchainExtensionName}, nil)
}

// DestroyDevice waits for the device to idle, releases the command pool and
// descriptor pools owned by it and destroys it. A nil device is ignored.
// Swapchains and framebuffers of the device must be destroyed first; any
// still recorded are forgotten here and reported, but not destroyed.
func (c *Context) DestroyDevice(device vk.Device) {
	if device == nil {
		return
	}
	for _, swapchain := range c.swapchains.Handles() {
		if record, _ := c.swapchains.Find(swapchain); record.Device == device {
			c.swapchains.Remove(swapchain)
			c.logger.WithField("swapchain", handleString(unsafe.Pointer(swapchain))).Warn("swapchain outlived its device")
		}
	}
	for _, framebuffer := range c.framebuffers.Handles() {
		if record, _ := c.framebuffers.Find(framebuffer); record.Device == device {
			c.framebuffers.Remove(framebuffer)
			c.logger.WithField("framebuffer", handleString(unsafe.Pointer(framebuffer))).Warn("framebuffer outlived its device")
		}
	}
	if record, ok := c.devices.Remove(device); ok {
		c.driver.DeviceWaitIdle(device)
		for _, pool := range record.Pools {
			c.driver.DestroyDescriptorPool(device, pool.Pool)
		}
		record.Pools = nil
		if record.CommandPool != nil {
			c.driver.DestroyCommandPool(device, record.CommandPool)
		}
	}
	c.driver.DestroyDevice(device)
}

// DeviceRecord returns the record of a live device
func (c *Context) DeviceRecord(device vk.Device) (*DeviceRecord, bool) {
	return c.devices.Find(device)
}

func (c *Context) deviceRecord(op string, device vk.Device) (*DeviceRecord, error) {
	if device == nil {
		return nil, c.callerError(op, "null device")
	}
	record, ok := c.devices.Find(device)
	if !ok {
		return nil, c.callerError(op, "device was not created through this context")
	}
	return record, nil
}

// DeviceQueueFamily returns the family index serving queue on device
func (c *Context) DeviceQueueFamily(device vk.Device, queue QueueType) (uint32, error) {
	record, err := c.deviceRecord("DeviceQueueFamily", device)
	if err != nil {
		return 0, err
	}
	family := record.family(queue)
	if !family.Assigned {
		return 0, c.callerError("DeviceQueueFamily", "device has no %s queue family", queue)
	}
	return family.Index, nil
}

// DeviceQueue returns the first queue of the family serving queue on device
func (c *Context) DeviceQueue(device vk.Device, queue QueueType) (vk.Queue, error) {
	family, err := c.DeviceQueueFamily(device, queue)
	if err != nil {
		return nil, err
	}
	return c.driver.DeviceQueue(device, family, 0), nil
}
