// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"bytes"
	"unsafe"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

// fakePhysical describes a physical device served by fakeDriver
type fakePhysical struct {
	name       string
	discrete   bool
	maxImage   uint32
	maxSets    uint32
	geometry   bool
	extensions []string
	families   []vk.QueueFlagBits
	present    []bool
	formats    []vk.SurfaceFormat
	modes      []vk.PresentMode
	caps       vk.SurfaceCapabilities
}

func goodPhysical(name string, discrete bool) *fakePhysical {
	return &fakePhysical{
		name:       name,
		discrete:   discrete,
		maxImage:   4096,
		maxSets:    8,
		geometry:   true,
		extensions: []string{vk.KhrSwapchainExtensionName},
		families:   []vk.QueueFlagBits{vk.QueueGraphicsBit | vk.QueueComputeBit},
		present:    []bool{true},
		formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		modes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		caps: vk.SurfaceCapabilities{
			MinImageCount:           2,
			MaxImageCount:           3,
			CurrentExtent:           vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent:          vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:          vk.Extent2D{Width: 4096, Height: 4096},
			SupportedCompositeAlpha: vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit),
			SupportedUsageFlags:     vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
			CurrentTransform:        vk.SurfaceTransformIdentityBit,
		},
	}
}

type recordedBarrier struct {
	cmd      vk.CommandBuffer
	src, dst vk.PipelineStageFlags
	barriers []vk.ImageMemoryBarrier
}

// fakeDriver implements Driver in memory. Handles are made up addresses
// outside the Go heap, the same way vk.SurfaceFromPointer wraps a foreign
// pointer, so they are unique, non nil and comparable.
type fakeDriver struct {
	next uintptr

	// nullHandles makes the named create method succeed with a nil handle
	nullHandles map[string]bool

	devices  []vk.PhysicalDevice
	physical map[vk.PhysicalDevice]*fakePhysical

	instanceLayers     []string
	instanceExtensions []string

	// fail forces a result out of the named method
	fail map[string]vk.Result

	calls               map[string]int
	surfaceSupportCalls int
	swapchainImages     int
	presentResult       vk.Result

	instanceInfos   []*vk.InstanceCreateInfo
	deviceInfos     []*vk.DeviceCreateInfo
	swapchainInfos  []*vk.SwapchainCreateInfo
	poolInfos       []*vk.DescriptorPoolCreateInfo
	setAllocations  []vk.DescriptorPool
	barriers        []recordedBarrier
	submits         []vk.SubmitInfo
	submitFences    []vk.Fence
	begun           []vk.CommandBuffer
	ended           []vk.CommandBuffer
	waitedFences    []vk.Fence
	waitTimeouts    []uint
	destroyedFences []vk.Fence
	destroyedPools  []vk.DescriptorPool
	destroyed       map[string]int
}

func newFakeDriver(devices ...*fakePhysical) *fakeDriver {
	f := &fakeDriver{
		physical:        make(map[vk.PhysicalDevice]*fakePhysical),
		fail:            make(map[string]vk.Result),
		nullHandles:     make(map[string]bool),
		calls:           make(map[string]int),
		destroyed:       make(map[string]int),
		swapchainImages: -1,
		presentResult:   vk.Success,
	}
	for _, d := range devices {
		handle := vk.PhysicalDevice(f.handle())
		f.devices = append(f.devices, handle)
		f.physical[handle] = d
	}
	return f
}

const fakeHandleBase = 0x10000

func (f *fakeDriver) handle() unsafe.Pointer {
	f.next++
	return unsafe.Pointer(fakeHandleBase + f.next*0x10)
}

func (f *fakeDriver) result(method string) vk.Result {
	f.calls[method]++
	if ret, ok := f.fail[method]; ok {
		return ret
	}
	return vk.Success
}

func newTestContext(driver Driver) (*Context, *bytes.Buffer) {
	out := &bytes.Buffer{}
	logger := log.New()
	logger.Out = out
	logger.SetLevel(log.DebugLevel)
	return NewContext(driver, DefaultConfiguration(), logger), out
}

func (f *fakeDriver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, vk.Result) {
	f.instanceInfos = append(f.instanceInfos, info)
	if ret := f.result("CreateInstance"); ret != vk.Success {
		return nil, ret
	}
	return vk.Instance(f.handle()), vk.Success
}

func (f *fakeDriver) DestroyInstance(instance vk.Instance) {
	f.destroyed["instance"]++
}

func (f *fakeDriver) InstanceLayers() ([]string, vk.Result) {
	return f.instanceLayers, f.result("InstanceLayers")
}

func (f *fakeDriver) InstanceExtensions() ([]string, vk.Result) {
	return f.instanceExtensions, f.result("InstanceExtensions")
}

func (f *fakeDriver) CreateDebugReportCallback(instance vk.Instance, info *vk.DebugReportCallbackCreateInfo) (vk.DebugReportCallback, vk.Result) {
	if ret := f.result("CreateDebugReportCallback"); ret != vk.Success {
		return nil, ret
	}
	return vk.DebugReportCallback(f.handle()), vk.Success
}

func (f *fakeDriver) DestroyDebugReportCallback(instance vk.Instance, callback vk.DebugReportCallback) {
	f.destroyed["debugReport"]++
}

func (f *fakeDriver) PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, vk.Result) {
	return f.devices, f.result("PhysicalDevices")
}

func (f *fakeDriver) PhysicalDeviceProperties(physical vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	d := f.physical[physical]
	var properties vk.PhysicalDeviceProperties
	copy(properties.DeviceName[:], d.name)
	properties.DeviceType = vk.PhysicalDeviceTypeIntegratedGpu
	if d.discrete {
		properties.DeviceType = vk.PhysicalDeviceTypeDiscreteGpu
	}
	properties.Limits.MaxImageDimension2D = d.maxImage
	properties.Limits.MaxBoundDescriptorSets = d.maxSets
	return properties
}

func (f *fakeDriver) PhysicalDeviceFeatures(physical vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	if f.physical[physical].geometry {
		features.GeometryShader = vk.True
	}
	return features
}

func (f *fakeDriver) PhysicalDeviceMemoryHeaps(physical vk.PhysicalDevice) []vk.MemoryHeap {
	return []vk.MemoryHeap{{Size: 1 << 30}, {Size: 1 << 28}}
}

func (f *fakeDriver) DeviceExtensions(physical vk.PhysicalDevice) ([]string, vk.Result) {
	return f.physical[physical].extensions, f.result("DeviceExtensions")
}

func (f *fakeDriver) DeviceLayers(physical vk.PhysicalDevice) ([]string, vk.Result) {
	return nil, f.result("DeviceLayers")
}

func (f *fakeDriver) QueueFamilies(physical vk.PhysicalDevice) []vk.QueueFamilyProperties {
	d := f.physical[physical]
	families := make([]vk.QueueFamilyProperties, len(d.families))
	for i, flags := range d.families {
		families[i].QueueFlags = vk.QueueFlags(flags)
		families[i].QueueCount = 1
	}
	return families
}

func (f *fakeDriver) SurfaceSupport(physical vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, vk.Result) {
	f.surfaceSupportCalls++
	d := f.physical[physical]
	return int(family) < len(d.present) && d.present[family], f.result("SurfaceSupport")
}

func (f *fakeDriver) SurfaceCapabilities(physical vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, vk.Result) {
	return f.physical[physical].caps, f.result("SurfaceCapabilities")
}

func (f *fakeDriver) SurfaceFormats(physical vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, vk.Result) {
	return f.physical[physical].formats, f.result("SurfaceFormats")
}

func (f *fakeDriver) SurfacePresentModes(physical vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, vk.Result) {
	return f.physical[physical].modes, f.result("SurfacePresentModes")
}

func (f *fakeDriver) CreateDevice(physical vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, vk.Result) {
	f.deviceInfos = append(f.deviceInfos, info)
	if ret := f.result("CreateDevice"); ret != vk.Success {
		return nil, ret
	}
	if f.nullHandles["CreateDevice"] {
		return nil, vk.Success
	}
	return vk.Device(f.handle()), vk.Success
}

func (f *fakeDriver) DestroyDevice(device vk.Device) {
	f.destroyed["device"]++
}

func (f *fakeDriver) DeviceWaitIdle(device vk.Device) vk.Result {
	return f.result("DeviceWaitIdle")
}

func (f *fakeDriver) DeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	f.calls["DeviceQueue"]++
	return vk.Queue(f.handle())
}

func (f *fakeDriver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, vk.Result) {
	if ret := f.result("CreateCommandPool"); ret != vk.Success {
		return nil, ret
	}
	return vk.CommandPool(f.handle()), vk.Success
}

func (f *fakeDriver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	f.destroyed["commandPool"]++
}

func (f *fakeDriver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, vk.Result) {
	if ret := f.result("AllocateCommandBuffers"); ret != vk.Success {
		return nil, ret
	}
	buffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	for i := range buffers {
		buffers[i] = vk.CommandBuffer(f.handle())
	}
	return buffers, vk.Success
}

func (f *fakeDriver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) {
	f.destroyed["commandBuffer"] += len(buffers)
}

func (f *fakeDriver) BeginCommandBuffer(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result {
	f.begun = append(f.begun, buffer)
	return f.result("BeginCommandBuffer")
}

func (f *fakeDriver) EndCommandBuffer(buffer vk.CommandBuffer) vk.Result {
	f.ended = append(f.ended, buffer)
	return f.result("EndCommandBuffer")
}

func (f *fakeDriver) CmdPipelineBarrier(buffer vk.CommandBuffer, src, dst vk.PipelineStageFlags, dependency vk.DependencyFlags, barriers []vk.ImageMemoryBarrier) {
	f.barriers = append(f.barriers, recordedBarrier{cmd: buffer, src: src, dst: dst, barriers: barriers})
}

func (f *fakeDriver) QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
	f.submits = append(f.submits, submits...)
	f.submitFences = append(f.submitFences, fence)
	return f.result("QueueSubmit")
}

func (f *fakeDriver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	f.calls["QueuePresent"]++
	return f.presentResult
}

func (f *fakeDriver) CreateFence(device vk.Device, info *vk.FenceCreateInfo) (vk.Fence, vk.Result) {
	if ret := f.result("CreateFence"); ret != vk.Success {
		return nil, ret
	}
	return vk.Fence(f.handle()), vk.Success
}

func (f *fakeDriver) DestroyFence(device vk.Device, fence vk.Fence) {
	f.destroyedFences = append(f.destroyedFences, fence)
}

func (f *fakeDriver) WaitForFences(device vk.Device, fences []vk.Fence, waitAll bool, timeout uint) vk.Result {
	f.waitedFences = append(f.waitedFences, fences...)
	f.waitTimeouts = append(f.waitTimeouts, timeout)
	return f.result("WaitForFences")
}

func (f *fakeDriver) ResetFences(device vk.Device, fences []vk.Fence) vk.Result {
	return f.result("ResetFences")
}

func (f *fakeDriver) CreateSemaphore(device vk.Device, info *vk.SemaphoreCreateInfo) (vk.Semaphore, vk.Result) {
	if ret := f.result("CreateSemaphore"); ret != vk.Success {
		return nil, ret
	}
	return vk.Semaphore(f.handle()), vk.Success
}

func (f *fakeDriver) DestroySemaphore(device vk.Device, semaphore vk.Semaphore) {
	f.destroyed["semaphore"]++
}

func (f *fakeDriver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, vk.Result) {
	f.swapchainInfos = append(f.swapchainInfos, info)
	if ret := f.result("CreateSwapchain"); ret != vk.Success {
		return nil, ret
	}
	if f.nullHandles["CreateSwapchain"] {
		return nil, vk.Success
	}
	return vk.Swapchain(f.handle()), vk.Success
}

func (f *fakeDriver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	f.destroyed["swapchain"]++
}

func (f *fakeDriver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, vk.Result) {
	count := f.swapchainImages
	if count < 0 {
		count = int(f.swapchainInfos[len(f.swapchainInfos)-1].MinImageCount)
	}
	images := make([]vk.Image, count)
	for i := range images {
		images[i] = vk.Image(f.handle())
	}
	return images, f.result("SwapchainImages")
}

func (f *fakeDriver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, vk.Result) {
	if ret := f.result("CreateFramebuffer"); ret != vk.Success {
		return nil, ret
	}
	if f.nullHandles["CreateFramebuffer"] {
		return nil, vk.Success
	}
	return vk.Framebuffer(f.handle()), vk.Success
}

func (f *fakeDriver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	f.destroyed["framebuffer"]++
}

func (f *fakeDriver) CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, vk.Result) {
	f.poolInfos = append(f.poolInfos, info)
	if ret := f.result("CreateDescriptorPool"); ret != vk.Success {
		return nil, ret
	}
	return vk.DescriptorPool(f.handle()), vk.Success
}

func (f *fakeDriver) DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool) {
	f.destroyedPools = append(f.destroyedPools, pool)
}

func (f *fakeDriver) ResetDescriptorPool(device vk.Device, pool vk.DescriptorPool) vk.Result {
	return f.result("ResetDescriptorPool")
}

func (f *fakeDriver) AllocateDescriptorSet(device vk.Device, info *vk.DescriptorSetAllocateInfo) (vk.DescriptorSet, vk.Result) {
	f.setAllocations = append(f.setAllocations, info.DescriptorPool)
	if ret := f.result("AllocateDescriptorSet"); ret != vk.Success {
		return nil, ret
	}
	return vk.DescriptorSet(f.handle()), vk.Success
}

// fakeSurface returns a surface handle that is never dereferenced
func (f *fakeDriver) fakeSurface() vk.Surface {
	return vk.Surface(f.handle())
}
