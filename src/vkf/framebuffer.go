// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	vk "github.com/devblok/vulkan"
)

// FramebufferRecord remembers the size a framebuffer was created with
type FramebufferRecord struct {
	Device      vk.Device
	Framebuffer vk.Framebuffer
	Extent      vk.Extent2D
}

// CreateFramebuffer creates a single layer framebuffer of extent for renderPass
func (c *Context) CreateFramebuffer(device vk.Device, renderPass vk.RenderPass, attachments []vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	if device == nil || renderPass == nil {
		return nil, c.callerError("CreateFramebuffer", "null device or render pass")
	}
	if len(attachments) == 0 {
		return nil, c.callerError("CreateFramebuffer", "no attachments")
	}

	fbci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}
	framebuffer, ret := c.driver.CreateFramebuffer(device, &fbci)
	if err := c.check("vk.CreateFramebuffer()", ret); err != nil {
		return nil, err
	}

	if err := c.framebuffers.Insert(framebuffer, &FramebufferRecord{
		Device:      device,
		Framebuffer: framebuffer,
		Extent:      extent,
	}); err != nil {
		c.driver.DestroyFramebuffer(device, framebuffer)
		return nil, err
	}
	return framebuffer, nil
}

// FramebufferSize returns the extent framebuffer was created with
func (c *Context) FramebufferSize(framebuffer vk.Framebuffer) (vk.Extent2D, error) {
	if framebuffer == nil {
		return vk.Extent2D{}, c.callerError("FramebufferSize", "null framebuffer")
	}
	record, ok := c.framebuffers.Find(framebuffer)
	if !ok {
		return vk.Extent2D{}, c.callerError("FramebufferSize", "framebuffer was not created through this context")
	}
	return record.Extent, nil
}

// DestroyFramebuffer forgets and destroys framebuffer. A nil framebuffer is ignored.
func (c *Context) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	if framebuffer == nil {
		return
	}
	c.framebuffers.Remove(framebuffer)
	c.driver.DestroyFramebuffer(device, framebuffer)
}
