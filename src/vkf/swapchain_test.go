// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"math"
	"testing"

	vk "github.com/devblok/vulkan"
	qt "github.com/frankban/quicktest"
)

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)

	all := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate}
	c.Assert(ChoosePresentMode(all, false), qt.Equals, vk.PresentModeImmediate)
	c.Assert(ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo}, false), qt.Equals, vk.PresentModeImmediate)
	c.Assert(ChoosePresentMode(all, true), qt.Equals, vk.PresentModeMailbox)
	c.Assert(ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, true), qt.Equals, vk.PresentModeFifo)
	c.Assert(ChoosePresentMode(nil, true), qt.Equals, vk.PresentModeFifo)
}

func TestChooseImageCount(t *testing.T) {
	c := qt.New(t)

	c.Assert(ChooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(ChooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}), qt.Equals, uint32(3))
	c.Assert(ChooseImageCount(vk.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(ChooseImageCount(vk.SurfaceCapabilities{MinImageCount: 1, MaxImageCount: 8}), qt.Equals, uint32(2))
}

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	formats := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	c.Assert(ChooseSurfaceFormat(formats).Format, qt.Equals, vk.FormatR8g8b8a8Srgb)
	c.Assert(ChooseSurfaceFormat(formats[:1]).Format, qt.Equals, vk.FormatB8g8r8a8Unorm)
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)

	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 640, Height: 480},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1000, Height: 1000},
	}
	c.Assert(ChooseExtent(caps, vk.Extent2D{Width: 10, Height: 10}), qt.Equals, vk.Extent2D{Width: 640, Height: 480})

	caps.CurrentExtent = vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	c.Assert(ChooseExtent(caps, vk.Extent2D{Width: 10, Height: 5000}), qt.Equals, vk.Extent2D{Width: 100, Height: 1000})
	c.Assert(ChooseExtent(caps, vk.Extent2D{Width: 300, Height: 200}), qt.Equals, vk.Extent2D{Width: 300, Height: 200})
}

func createTestDevice(c *qt.C, driver *fakeDriver) (*Context, vk.Device, vk.Surface) {
	ctx, _ := newTestContext(driver)
	surface := driver.fakeSurface()
	physical, err := ctx.PickGoodDefaultPhysicalDevice(vk.Instance(driver.handle()), surface)
	c.Assert(err, qt.IsNil)
	device, err := ctx.CreateDefaultDevice(physical)
	c.Assert(err, qt.IsNil)
	return ctx, device, surface
}

func TestCreateSwapchain(t *testing.T) {
	c := qt.New(t)

	driver := newFakeDriver(goodPhysical("gpu", true))
	ctx, device, surface := createTestDevice(c, driver)

	swapchain, err := ctx.CreateSwapchain(device, driver.devices[0], surface, SwapchainOptions{Vsync: true})
	c.Assert(err, qt.IsNil)

	info := driver.swapchainInfos[0]
	c.Assert(info.MinImageCount, qt.Equals, uint32(3))
	c.Assert(info.ImageUsage, qt.Equals, vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransferDstBit))
	c.Assert(info.PresentMode, qt.Equals, vk.PresentModeMailbox)
	c.Assert(info.ImageFormat, qt.Equals, vk.FormatR8g8b8a8Srgb)
	c.Assert(info.ImageSharingMode, qt.Equals, vk.SharingModeExclusive)

	count, err := ctx.SwapchainImagesCount(swapchain)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint32(3))

	format, err := ctx.SwapchainImagesFormat(swapchain)
	c.Assert(err, qt.IsNil)
	c.Assert(format, qt.Equals, vk.FormatR8g8b8a8Srgb)

	size, err := ctx.SwapchainImagesSize(swapchain)
	c.Assert(err, qt.IsNil)
	c.Assert(size, qt.Equals, vk.Extent2D{Width: 800, Height: 600})

	attachment, err := ctx.BuildSwapchainAttachmentDescription(swapchain, true)
	c.Assert(err, qt.IsNil)
	c.Assert(attachment.Format, qt.Equals, vk.FormatR8g8b8a8Srgb)
	c.Assert(attachment.LoadOp, qt.Equals, vk.AttachmentLoadOpClear)
	c.Assert(attachment.FinalLayout, qt.Equals, vk.ImageLayoutPresentSrc)

	ctx.DestroySwapchain(device, swapchain)
	_, err = ctx.SwapchainImagesCount(swapchain)
	c.Assert(err, qt.ErrorMatches, ".*not created through this context")
	c.Assert(ctx.swapchains.Capacity(), qt.Equals, 0)
	c.Assert(driver.destroyed["swapchain"], qt.Equals, 1)
}

func TestCreateSwapchainRecordsActualImageCount(t *testing.T) {
	c := qt.New(t)

	driver := newFakeDriver(goodPhysical("gpu", true))
	driver.swapchainImages = 4
	ctx, device, surface := createTestDevice(c, driver)

	swapchain, err := ctx.CreateSwapchain(device, driver.devices[0], surface, SwapchainOptions{})
	c.Assert(err, qt.IsNil)
	c.Assert(driver.swapchainInfos[0].PresentMode, qt.Equals, vk.PresentModeImmediate)

	count, err := ctx.SwapchainImagesCount(swapchain)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint32(4))
}

func TestCreateSwapchainConcurrentSharing(t *testing.T) {
	c := qt.New(t)

	d := goodPhysical("gpu", true)
	d.families = []vk.QueueFlagBits{vk.QueueGraphicsBit | vk.QueueComputeBit, vk.QueueTransferBit}
	d.present = []bool{false, true}
	driver := newFakeDriver(d)
	ctx, device, surface := createTestDevice(c, driver)

	_, err := ctx.CreateSwapchain(device, driver.devices[0], surface, SwapchainOptions{})
	c.Assert(err, qt.IsNil)

	info := driver.swapchainInfos[0]
	c.Assert(info.ImageSharingMode, qt.Equals, vk.SharingModeConcurrent)
	c.Assert(info.PQueueFamilyIndices, qt.DeepEquals, []uint32{0, 1})
}

func TestDestroySwapchainIgnoresNull(t *testing.T) {
	c := qt.New(t)

	driver := newFakeDriver(goodPhysical("gpu", true))
	ctx, _ := newTestContext(driver)
	ctx.DestroySwapchain(nil, nil)
	c.Assert(driver.destroyed["swapchain"], qt.Equals, 0)
}

func TestSwapchainLookupUnknown(t *testing.T) {
	c := qt.New(t)

	driver := newFakeDriver(goodPhysical("gpu", true))
	ctx, _ := newTestContext(driver)

	var errs []string
	ctx.SetErrorCallback(func(message string) {
		errs = append(errs, message)
	})

	_, err := ctx.SwapchainImagesSize(vk.Swapchain(driver.handle()))
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(errs, qt.HasLen, 1)
}

func TestCreateSwapchainImageUsageFollowsSurface(t *testing.T) {
	c := qt.New(t)

	d := goodPhysical("gpu", true)
	d.caps.SupportedUsageFlags = vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit)
	driver := newFakeDriver(d)
	ctx, device, surface := createTestDevice(c, driver)

	_, err := ctx.CreateSwapchain(device, driver.devices[0], surface, SwapchainOptions{})
	c.Assert(err, qt.IsNil)
	c.Assert(driver.swapchainInfos[0].ImageUsage, qt.Equals, vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit))

	d.caps.SupportedUsageFlags = vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	swapchain, err := ctx.CreateSwapchain(device, driver.devices[0], surface, SwapchainOptions{})
	c.Assert(swapchain == nil, qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, ".*does not support color attachment usage")
	c.Assert(driver.swapchainInfos, qt.HasLen, 1)
}

func TestCreateSwapchainNullHandleIsDestroyed(t *testing.T) {
	c := qt.New(t)

	driver := newFakeDriver(goodPhysical("gpu", true))
	ctx, device, surface := createTestDevice(c, driver)
	driver.nullHandles["CreateSwapchain"] = true

	swapchain, err := ctx.CreateSwapchain(device, driver.devices[0], surface, SwapchainOptions{})
	c.Assert(swapchain == nil, qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, ".*null handle")
	c.Assert(driver.destroyed["swapchain"], qt.Equals, 1)
	c.Assert(ctx.swapchains.Len(), qt.Equals, 0)
}
