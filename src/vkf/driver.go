// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	vk "github.com/devblok/vulkan"
)

// Driver is the set of raw Vulkan entry points the framework depends on.
// Enumerations are collapsed into single calls and returned structures
// are already dereferenced.
type Driver interface {
	CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, vk.Result)
	DestroyInstance(instance vk.Instance)
	InstanceLayers() ([]string, vk.Result)
	InstanceExtensions() ([]string, vk.Result)
	CreateDebugReportCallback(instance vk.Instance, info *vk.DebugReportCallbackCreateInfo) (vk.DebugReportCallback, vk.Result)
	DestroyDebugReportCallback(instance vk.Instance, callback vk.DebugReportCallback)

	PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, vk.Result)
	PhysicalDeviceProperties(physical vk.PhysicalDevice) vk.PhysicalDeviceProperties
	PhysicalDeviceFeatures(physical vk.PhysicalDevice) vk.PhysicalDeviceFeatures
	PhysicalDeviceMemoryHeaps(physical vk.PhysicalDevice) []vk.MemoryHeap
	DeviceExtensions(physical vk.PhysicalDevice) ([]string, vk.Result)
	DeviceLayers(physical vk.PhysicalDevice) ([]string, vk.Result)
	QueueFamilies(physical vk.PhysicalDevice) []vk.QueueFamilyProperties
	SurfaceSupport(physical vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, vk.Result)
	SurfaceCapabilities(physical vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, vk.Result)
	SurfaceFormats(physical vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, vk.Result)
	SurfacePresentModes(physical vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, vk.Result)

	CreateDevice(physical vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, vk.Result)
	DestroyDevice(device vk.Device)
	DeviceWaitIdle(device vk.Device) vk.Result
	DeviceQueue(device vk.Device, family, index uint32) vk.Queue

	CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, vk.Result)
	DestroyCommandPool(device vk.Device, pool vk.CommandPool)
	AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, vk.Result)
	FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer)
	BeginCommandBuffer(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result
	EndCommandBuffer(buffer vk.CommandBuffer) vk.Result
	CmdPipelineBarrier(buffer vk.CommandBuffer, src, dst vk.PipelineStageFlags, dependency vk.DependencyFlags, barriers []vk.ImageMemoryBarrier)
	QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) vk.Result
	QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result

	CreateFence(device vk.Device, info *vk.FenceCreateInfo) (vk.Fence, vk.Result)
	DestroyFence(device vk.Device, fence vk.Fence)
	WaitForFences(device vk.Device, fences []vk.Fence, waitAll bool, timeout uint) vk.Result
	ResetFences(device vk.Device, fences []vk.Fence) vk.Result
	CreateSemaphore(device vk.Device, info *vk.SemaphoreCreateInfo) (vk.Semaphore, vk.Result)
	DestroySemaphore(device vk.Device, semaphore vk.Semaphore)

	CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, vk.Result)
	DestroySwapchain(device vk.Device, swapchain vk.Swapchain)
	SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, vk.Result)

	CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, vk.Result)
	DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer)

	CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, vk.Result)
	DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool)
	ResetDescriptorPool(device vk.Device, pool vk.DescriptorPool) vk.Result
	AllocateDescriptorSet(device vk.Device, info *vk.DescriptorSetAllocateInfo) (vk.DescriptorSet, vk.Result)
}
