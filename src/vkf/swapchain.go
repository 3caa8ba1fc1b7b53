// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"math"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

// SwapchainSupport is what a surface offers on a physical device
type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SwapchainRecord describes a swapchain as it was created. The support
// snapshot is not refreshed afterwards.
type SwapchainRecord struct {
	Device      vk.Device
	Swapchain   vk.Swapchain
	Support     SwapchainSupport
	Format      vk.Format
	ColorSpace  vk.ColorSpace
	PresentMode vk.PresentMode
	ImagesCount uint32
	Extent      vk.Extent2D
}

// SwapchainOptions are the caller's wishes for a new swapchain
type SwapchainOptions struct {
	// Extent is used only when the surface leaves the extent to the swapchain
	Extent vk.Extent2D

	// OldSwapchain is handed to the driver when recreating
	OldSwapchain vk.Swapchain

	Vsync bool
}

// QuerySwapchainSupport queries capabilities, formats and present modes
func (c *Context) QuerySwapchainSupport(physical vk.PhysicalDevice, surface vk.Surface) (SwapchainSupport, error) {
	var support SwapchainSupport
	if physical == nil || surface == nil {
		return support, c.callerError("QuerySwapchainSupport", "null physical device or surface")
	}

	var ret vk.Result
	support.Capabilities, ret = c.driver.SurfaceCapabilities(physical, surface)
	if err := c.check("vk.GetPhysicalDeviceSurfaceCapabilities()", ret); err != nil {
		return support, err
	}
	support.Formats, ret = c.driver.SurfaceFormats(physical, surface)
	if err := c.check("vk.GetPhysicalDeviceSurfaceFormats()", ret); err != nil {
		return support, err
	}
	support.PresentModes, ret = c.driver.SurfacePresentModes(physical, surface)
	if err := c.check("vk.GetPhysicalDeviceSurfacePresentModes()", ret); err != nil {
		return support, err
	}
	return support, nil
}

// ChooseSurfaceFormat prefers sRGB RGBA8 in the sRGB nonlinear color space
// and falls back to the first format offered.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatR8g8b8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	if len(formats) == 0 {
		return vk.SurfaceFormat{}
	}
	return formats[0]
}

// ChoosePresentMode returns immediate without vsync. With vsync, mailbox is
// used when offered and FIFO, which is always available, otherwise.
func ChoosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if !vsync {
		return vk.PresentModeImmediate
	}
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// ChooseImageCount asks for one image above the minimum, bounded by the
// maximum when there is one.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseExtent uses the surface's current extent when it has one, otherwise
// requested clamped to the supported range.
func ChooseExtent(caps vk.SurfaceCapabilities, requested vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if supported&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// swapchainImageUsage asks for color attachment usage, plus transfer
// destination when the surface allows it. Zero means the surface cannot
// be rendered to.
func swapchainImageUsage(supported vk.ImageUsageFlags) vk.ImageUsageFlags {
	color := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	if supported&color == 0 {
		return 0
	}
	return color | supported&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
}

// CreateSwapchain creates a swapchain for surface on device and records it.
func (c *Context) CreateSwapchain(device vk.Device, physical vk.PhysicalDevice, surface vk.Surface, opts SwapchainOptions) (vk.Swapchain, error) {
	record, err := c.deviceRecord("CreateSwapchain", device)
	if err != nil {
		return nil, err
	}
	if !record.Queues.Present.Assigned {
		return nil, c.callerError("CreateSwapchain", "device has no present queue family")
	}

	support, err := c.QuerySwapchainSupport(physical, surface)
	if err != nil {
		return nil, err
	}
	if len(support.Formats) == 0 {
		return nil, c.callerError("CreateSwapchain", "surface offers no formats")
	}

	usage := swapchainImageUsage(support.Capabilities.SupportedUsageFlags)
	if usage == 0 {
		return nil, c.callerError("CreateSwapchain", "surface does not support color attachment usage")
	}

	var (
		surfaceFormat = ChooseSurfaceFormat(support.Formats)
		presentMode   = ChoosePresentMode(support.PresentModes, opts.Vsync)
		imageCount    = ChooseImageCount(support.Capabilities)
		extent        = ChooseExtent(support.Capabilities, opts.Extent)
	)

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   chooseCompositeAlpha(support.Capabilities.SupportedCompositeAlpha),
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     opts.OldSwapchain,
	}
	if graphics, present := record.Queues.Graphics.Index, record.Queues.Present.Index; graphics != present {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = 2
		scci.PQueueFamilyIndices = []uint32{graphics, present}
	}

	swapchain, ret := c.driver.CreateSwapchain(device, &scci)
	if err := c.check("vk.CreateSwapchain()", ret); err != nil {
		return nil, err
	}

	images, ret := c.driver.SwapchainImages(device, swapchain)
	if err := c.check("vk.GetSwapchainImages()", ret); err != nil {
		c.driver.DestroySwapchain(device, swapchain)
		return nil, err
	}

	if err := c.swapchains.Insert(swapchain, &SwapchainRecord{
		Device:      device,
		Swapchain:   swapchain,
		Support:     support,
		Format:      surfaceFormat.Format,
		ColorSpace:  surfaceFormat.ColorSpace,
		PresentMode: presentMode,
		ImagesCount: uint32(len(images)),
		Extent:      extent,
	}); err != nil {
		c.driver.DestroySwapchain(device, swapchain)
		return nil, err
	}

	c.logger.WithFields(log.Fields{
		"images": len(images),
		"extent": extent,
		"mode":   presentMode,
		"format": surfaceFormat.Format,
	}).Info("swapchain created")
	return swapchain, nil
}

// DestroySwapchain forgets and destroys a swapchain. A nil swapchain is ignored.
func (c *Context) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	if swapchain == nil {
		return
	}
	c.swapchains.Remove(swapchain)
	c.driver.DestroySwapchain(device, swapchain)
}

func (c *Context) swapchainRecord(op string, swapchain vk.Swapchain) (*SwapchainRecord, error) {
	if swapchain == nil {
		return nil, c.callerError(op, "null swapchain")
	}
	record, ok := c.swapchains.Find(swapchain)
	if !ok {
		return nil, c.callerError(op, "swapchain was not created through this context")
	}
	return record, nil
}

// SwapchainRecord returns the record of a live swapchain
func (c *Context) SwapchainRecord(swapchain vk.Swapchain) (*SwapchainRecord, error) {
	return c.swapchainRecord("SwapchainRecord", swapchain)
}

// SwapchainImagesCount returns how many images the driver created
func (c *Context) SwapchainImagesCount(swapchain vk.Swapchain) (uint32, error) {
	record, err := c.swapchainRecord("SwapchainImagesCount", swapchain)
	if err != nil {
		return 0, err
	}
	return record.ImagesCount, nil
}

// SwapchainImagesFormat returns the format of swapchain images
func (c *Context) SwapchainImagesFormat(swapchain vk.Swapchain) (vk.Format, error) {
	record, err := c.swapchainRecord("SwapchainImagesFormat", swapchain)
	if err != nil {
		return vk.FormatUndefined, err
	}
	return record.Format, nil
}

// SwapchainImagesSize returns the extent of swapchain images
func (c *Context) SwapchainImagesSize(swapchain vk.Swapchain) (vk.Extent2D, error) {
	record, err := c.swapchainRecord("SwapchainImagesSize", swapchain)
	if err != nil {
		return vk.Extent2D{}, err
	}
	return record.Extent, nil
}

// SwapchainSupportOf returns the support snapshot taken at creation
func (c *Context) SwapchainSupportOf(swapchain vk.Swapchain) (SwapchainSupport, error) {
	record, err := c.swapchainRecord("SwapchainSupportOf", swapchain)
	if err != nil {
		return SwapchainSupport{}, err
	}
	return record.Support, nil
}

// SwapchainImages returns the images owned by swapchain
func (c *Context) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	if _, err := c.swapchainRecord("SwapchainImages", swapchain); err != nil {
		return nil, err
	}
	images, ret := c.driver.SwapchainImages(device, swapchain)
	if err := c.check("vk.GetSwapchainImages()", ret); err != nil {
		return nil, err
	}
	return images, nil
}

// BuildSwapchainAttachmentDescription describes a color attachment that
// renders into swapchain images and leaves them ready for presentation.
func (c *Context) BuildSwapchainAttachmentDescription(swapchain vk.Swapchain, clearOnLoad bool) (vk.AttachmentDescription, error) {
	record, err := c.swapchainRecord("BuildSwapchainAttachmentDescription", swapchain)
	if err != nil {
		return vk.AttachmentDescription{}, err
	}
	loadOp := vk.AttachmentLoadOpLoad
	initialLayout := vk.ImageLayoutPresentSrc
	if clearOnLoad {
		loadOp = vk.AttachmentLoadOpClear
		initialLayout = vk.ImageLayoutUndefined
	}
	return vk.AttachmentDescription{
		Format:         record.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         loadOp,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  initialLayout,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}, nil
}
