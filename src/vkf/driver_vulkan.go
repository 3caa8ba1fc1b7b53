// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"
)

// NewVulkanDriver loads the Vulkan loader and returns a Driver backed by it.
// procAddr is the windowing layer's vkGetInstanceProcAddr, when nil the
// system default loader is used.
func NewVulkanDriver(procAddr unsafe.Pointer) (Driver, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}
	return vulkanDriver{}, nil
}

type vulkanDriver struct{}

func (vulkanDriver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, vk.Result) {
	var instance vk.Instance
	ret := vk.CreateInstance(info, nil, &instance)
	if ret == vk.Success {
		if err := vk.InitInstance(instance); err != nil {
			vk.DestroyInstance(instance, nil)
			return nil, vk.ErrorInitializationFailed
		}
	}
	return instance, ret
}

func (vulkanDriver) DestroyInstance(instance vk.Instance) {
	vk.DestroyInstance(instance, nil)
}

func (vulkanDriver) InstanceLayers() ([]string, vk.Result) {
	var count uint32
	if ret := vk.EnumerateInstanceLayerProperties(&count, nil); ret != vk.Success {
		return nil, ret
	}
	properties := make([]vk.LayerProperties, count)
	if ret := vk.EnumerateInstanceLayerProperties(&count, properties); ret != vk.Success {
		return nil, ret
	}
	layers := make([]string, 0, count)
	for _, layer := range properties[:count] {
		layer.Deref()
		layers = append(layers, vk.ToString(layer.LayerName[:]))
	}
	return layers, vk.Success
}

func (vulkanDriver) InstanceExtensions() ([]string, vk.Result) {
	var count uint32
	if ret := vk.EnumerateInstanceExtensionProperties("", &count, nil); ret != vk.Success {
		return nil, ret
	}
	properties := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateInstanceExtensionProperties("", &count, properties); ret != vk.Success {
		return nil, ret
	}
	return extensionNames(properties[:count]), vk.Success
}

func (vulkanDriver) CreateDebugReportCallback(instance vk.Instance, info *vk.DebugReportCallbackCreateInfo) (vk.DebugReportCallback, vk.Result) {
	var callback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(instance, info, nil, &callback)
	return callback, ret
}

func (vulkanDriver) DestroyDebugReportCallback(instance vk.Instance, callback vk.DebugReportCallback) {
	vk.DestroyDebugReportCallback(instance, callback, nil)
}

func (vulkanDriver) PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, vk.Result) {
	var count uint32
	if ret := vk.EnumeratePhysicalDevices(instance, &count, nil); ret != vk.Success {
		return nil, ret
	}
	devices := make([]vk.PhysicalDevice, count)
	if ret := vk.EnumeratePhysicalDevices(instance, &count, devices); ret != vk.Success {
		return nil, ret
	}
	return devices[:count], vk.Success
}

func (vulkanDriver) PhysicalDeviceProperties(physical vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(physical, &properties)
	properties.Deref()
	properties.Limits.Deref()
	return properties
}

func (vulkanDriver) PhysicalDeviceFeatures(physical vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(physical, &features)
	features.Deref()
	return features
}

func (vulkanDriver) PhysicalDeviceMemoryHeaps(physical vk.PhysicalDevice) []vk.MemoryHeap {
	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(physical, &memory)
	memory.Deref()
	heaps := make([]vk.MemoryHeap, 0, memory.MemoryHeapCount)
	for idx := uint32(0); idx < memory.MemoryHeapCount; idx++ {
		memory.MemoryHeaps[idx].Deref()
		heaps = append(heaps, memory.MemoryHeaps[idx])
	}
	return heaps
}

func (vulkanDriver) DeviceExtensions(physical vk.PhysicalDevice) ([]string, vk.Result) {
	var count uint32
	if ret := vk.EnumerateDeviceExtensionProperties(physical, "", &count, nil); ret != vk.Success {
		return nil, ret
	}
	properties := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateDeviceExtensionProperties(physical, "", &count, properties); ret != vk.Success {
		return nil, ret
	}
	return extensionNames(properties[:count]), vk.Success
}

func (vulkanDriver) DeviceLayers(physical vk.PhysicalDevice) ([]string, vk.Result) {
	var count uint32
	if ret := vk.EnumerateDeviceLayerProperties(physical, &count, nil); ret != vk.Success {
		return nil, ret
	}
	properties := make([]vk.LayerProperties, count)
	if ret := vk.EnumerateDeviceLayerProperties(physical, &count, properties); ret != vk.Success {
		return nil, ret
	}
	layers := make([]string, 0, count)
	for _, layer := range properties[:count] {
		layer.Deref()
		layers = append(layers, vk.ToString(layer.LayerName[:]))
	}
	return layers, vk.Success
}

func (vulkanDriver) QueueFamilies(physical vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &count, families)
	for idx := range families {
		families[idx].Deref()
	}
	return families
}

func (vulkanDriver) SurfaceSupport(physical vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, vk.Result) {
	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(physical, family, surface, &supported)
	return supported.B(), ret
}

func (vulkanDriver) SurfaceCapabilities(physical vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, vk.Result) {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(physical, surface, &caps)
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, ret
}

func (vulkanDriver) SurfaceFormats(physical vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, vk.Result) {
	var count uint32
	if ret := vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &count, nil); ret != vk.Success {
		return nil, ret
	}
	formats := make([]vk.SurfaceFormat, count)
	if ret := vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &count, formats); ret != vk.Success {
		return nil, ret
	}
	for idx := range formats {
		formats[idx].Deref()
	}
	return formats[:count], vk.Success
}

func (vulkanDriver) SurfacePresentModes(physical vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, vk.Result) {
	var count uint32
	if ret := vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &count, nil); ret != vk.Success {
		return nil, ret
	}
	modes := make([]vk.PresentMode, count)
	if ret := vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &count, modes); ret != vk.Success {
		return nil, ret
	}
	return modes[:count], vk.Success
}

func (vulkanDriver) CreateDevice(physical vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, vk.Result) {
	var device vk.Device
	ret := vk.CreateDevice(physical, info, nil, &device)
	return device, ret
}

func (vulkanDriver) DestroyDevice(device vk.Device) {
	vk.DestroyDevice(device, nil)
}

func (vulkanDriver) DeviceWaitIdle(device vk.Device) vk.Result {
	return vk.DeviceWaitIdle(device)
}

func (vulkanDriver) DeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(device, family, index, &queue)
	return queue
}

func (vulkanDriver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, vk.Result) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, info, nil, &pool)
	return pool, ret
}

func (vulkanDriver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	vk.DestroyCommandPool(device, pool, nil)
}

func (vulkanDriver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, vk.Result) {
	buffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	ret := vk.AllocateCommandBuffers(device, info, buffers)
	return buffers, ret
}

func (vulkanDriver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) {
	vk.FreeCommandBuffers(device, pool, uint32(len(buffers)), buffers)
}

func (vulkanDriver) BeginCommandBuffer(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result {
	return vk.BeginCommandBuffer(buffer, info)
}

func (vulkanDriver) EndCommandBuffer(buffer vk.CommandBuffer) vk.Result {
	return vk.EndCommandBuffer(buffer)
}

func (vulkanDriver) CmdPipelineBarrier(buffer vk.CommandBuffer, src, dst vk.PipelineStageFlags, dependency vk.DependencyFlags, barriers []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(buffer, src, dst, dependency, 0, nil, 0, nil, uint32(len(barriers)), barriers)
}

func (vulkanDriver) QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
	return vk.QueueSubmit(queue, uint32(len(submits)), submits, fence)
}

func (vulkanDriver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	return vk.QueuePresent(queue, info)
}

func (vulkanDriver) CreateFence(device vk.Device, info *vk.FenceCreateInfo) (vk.Fence, vk.Result) {
	var fence vk.Fence
	ret := vk.CreateFence(device, info, nil, &fence)
	return fence, ret
}

func (vulkanDriver) DestroyFence(device vk.Device, fence vk.Fence) {
	vk.DestroyFence(device, fence, nil)
}

func (vulkanDriver) WaitForFences(device vk.Device, fences []vk.Fence, waitAll bool, timeout uint) vk.Result {
	all := vk.False
	if waitAll {
		all = vk.True
	}
	return vk.WaitForFences(device, uint32(len(fences)), fences, vk.Bool32(all), timeout)
}

func (vulkanDriver) ResetFences(device vk.Device, fences []vk.Fence) vk.Result {
	return vk.ResetFences(device, uint32(len(fences)), fences)
}

func (vulkanDriver) CreateSemaphore(device vk.Device, info *vk.SemaphoreCreateInfo) (vk.Semaphore, vk.Result) {
	var semaphore vk.Semaphore
	ret := vk.CreateSemaphore(device, info, nil, &semaphore)
	return semaphore, ret
}

func (vulkanDriver) DestroySemaphore(device vk.Device, semaphore vk.Semaphore) {
	vk.DestroySemaphore(device, semaphore, nil)
}

func (vulkanDriver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, vk.Result) {
	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(device, info, nil, &swapchain)
	return swapchain, ret
}

func (vulkanDriver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	vk.DestroySwapchain(device, swapchain, nil)
}

func (vulkanDriver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, vk.Result) {
	var count uint32
	if ret := vk.GetSwapchainImages(device, swapchain, &count, nil); ret != vk.Success {
		return nil, ret
	}
	images := make([]vk.Image, count)
	if ret := vk.GetSwapchainImages(device, swapchain, &count, images); ret != vk.Success {
		return nil, ret
	}
	return images[:count], vk.Success
}

func (vulkanDriver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, vk.Result) {
	var framebuffer vk.Framebuffer
	ret := vk.CreateFramebuffer(device, info, nil, &framebuffer)
	return framebuffer, ret
}

func (vulkanDriver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(device, framebuffer, nil)
}

func (vulkanDriver) CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, vk.Result) {
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(device, info, nil, &pool)
	return pool, ret
}

func (vulkanDriver) DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool) {
	vk.DestroyDescriptorPool(device, pool, nil)
}

func (vulkanDriver) ResetDescriptorPool(device vk.Device, pool vk.DescriptorPool) vk.Result {
	return vk.ResetDescriptorPool(device, pool, 0)
}

func (vulkanDriver) AllocateDescriptorSet(device vk.Device, info *vk.DescriptorSetAllocateInfo) (vk.DescriptorSet, vk.Result) {
	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(device, info, &set)
	return set, ret
}

func extensionNames(properties []vk.ExtensionProperties) []string {
	names := make([]string, 0, len(properties))
	for _, ext := range properties {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names
}
