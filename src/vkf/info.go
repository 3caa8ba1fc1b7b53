// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	vk "github.com/devblok/vulkan"
)

// PhysicalDeviceInfo is a summary of a physical device
type PhysicalDeviceInfo struct {
	ID            int                `json:"id"`
	VendorID      int                `json:"vendorId"`
	DriverVersion int                `json:"driverVersion"`
	Name          string             `json:"name"`
	Discrete      bool               `json:"discrete"`
	Invalid       bool               `json:"invalid"`
	Extensions    []string           `json:"extensions"`
	Layers        []string           `json:"layers"`
	Memory        uint64             `json:"memory"`
	Queues        QueueFamilyIndices `json:"queues"`
}

// PhysicalDevicesInfo describes every physical device of instance.
// A device whose extensions or layers can not be listed is marked Invalid.
func (c *Context) PhysicalDevicesInfo(instance vk.Instance) ([]PhysicalDeviceInfo, error) {
	if instance == nil {
		return nil, c.callerError("PhysicalDevicesInfo", "null instance")
	}
	devices, ret := c.driver.PhysicalDevices(instance)
	if err := c.check("vk.EnumeratePhysicalDevices()", ret); err != nil {
		return nil, err
	}

	pdi := make([]PhysicalDeviceInfo, len(devices))
	for i, physical := range devices {
		var ret vk.Result
		if pdi[i].Extensions, ret = c.driver.DeviceExtensions(physical); ret != vk.Success {
			pdi[i].Invalid = true
		}
		if pdi[i].Layers, ret = c.driver.DeviceLayers(physical); ret != vk.Success {
			pdi[i].Invalid = true
		}

		for _, heap := range c.driver.PhysicalDeviceMemoryHeaps(physical) {
			pdi[i].Memory += uint64(heap.Size)
		}

		properties := c.driver.PhysicalDeviceProperties(physical)
		pdi[i].ID = int(properties.DeviceID)
		pdi[i].VendorID = int(properties.VendorID)
		pdi[i].Name = vk.ToString(properties.DeviceName[:])
		pdi[i].DriverVersion = int(properties.DriverVersion)
		pdi[i].Discrete = properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu

		queues, err := c.FindQueueFamilies(physical, nil)
		if err != nil {
			return nil, err
		}
		pdi[i].Queues = queues
	}
	return pdi, nil
}
