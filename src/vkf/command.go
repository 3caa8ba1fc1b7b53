// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"math"

	vk "github.com/devblok/vulkan"
)

// CreateCommandBuffer allocates a primary command buffer from the device's pool
func (c *Context) CreateCommandBuffer(device vk.Device) (vk.CommandBuffer, error) {
	return c.CreateCommandBufferLeveled(device, vk.CommandBufferLevelPrimary)
}

// CreateCommandBufferLeveled allocates a command buffer of the given level
// from the device's pool
func (c *Context) CreateCommandBufferLeveled(device vk.Device, level vk.CommandBufferLevel) (vk.CommandBuffer, error) {
	record, err := c.deviceRecord("CreateCommandBuffer", device)
	if err != nil {
		return nil, err
	}

	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              level,
		CommandPool:        record.CommandPool,
		CommandBufferCount: 1,
	}
	buffers, ret := c.driver.AllocateCommandBuffers(device, &cbai)
	if err := c.check("vk.AllocateCommandBuffers()", ret); err != nil {
		return nil, err
	}
	return buffers[0], nil
}

// FreeCommandBuffer returns cmd to the device's pool. A nil buffer is ignored.
func (c *Context) FreeCommandBuffer(device vk.Device, cmd vk.CommandBuffer) {
	if cmd == nil {
		return
	}
	if record, ok := c.devices.Find(device); ok {
		c.driver.FreeCommandBuffers(device, record.CommandPool, []vk.CommandBuffer{cmd})
	}
}

// BeginCommandBuffer starts recording into cmd
func (c *Context) BeginCommandBuffer(cmd vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	if cmd == nil {
		return c.callerError("BeginCommandBuffer", "null command buffer")
	}
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	}
	return c.check("vk.BeginCommandBuffer()", c.driver.BeginCommandBuffer(cmd, &cbbi))
}

// EndCommandBuffer finishes recording into cmd
func (c *Context) EndCommandBuffer(cmd vk.CommandBuffer) error {
	if cmd == nil {
		return c.callerError("EndCommandBuffer", "null command buffer")
	}
	return c.check("vk.EndCommandBuffer()", c.driver.EndCommandBuffer(cmd))
}

// SubmitCommandBuffer submits cmd to queue on device. signal and wait are
// optional, stages are the wait destination stages and must be given when
// wait is. fence, if not nil, is signalled on completion.
func (c *Context) SubmitCommandBuffer(device vk.Device, cmd vk.CommandBuffer, queue QueueType, signal, wait vk.Semaphore, fence vk.Fence, stages []vk.PipelineStageFlags) error {
	if cmd == nil {
		return c.callerError("SubmitCommandBuffer", "null command buffer")
	}
	if wait != nil && len(stages) == 0 {
		return c.callerError("SubmitCommandBuffer", "waiting on a semaphore requires destination stages")
	}
	q, err := c.DeviceQueue(device, queue)
	if err != nil {
		return err
	}

	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	if wait != nil {
		si.WaitSemaphoreCount = 1
		si.PWaitSemaphores = []vk.Semaphore{wait}
		si.PWaitDstStageMask = stages
	}
	if signal != nil {
		si.SignalSemaphoreCount = 1
		si.PSignalSemaphores = []vk.Semaphore{signal}
	}
	return c.check("vk.QueueSubmit()", c.driver.QueueSubmit(q, []vk.SubmitInfo{si}, fence))
}

// SubmitSingleTimeCommandBuffer submits cmd and blocks until it completed.
// When fence is nil a transient fence is used.
func (c *Context) SubmitSingleTimeCommandBuffer(device vk.Device, cmd vk.CommandBuffer, queue QueueType, fence vk.Fence) error {
	if fence == nil {
		fci := vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
		}
		transient, ret := c.driver.CreateFence(device, &fci)
		if err := c.check("vk.CreateFence()", ret); err != nil {
			return err
		}
		defer c.driver.DestroyFence(device, transient)
		fence = transient
	}

	if err := c.SubmitCommandBuffer(device, cmd, queue, nil, nil, fence, nil); err != nil {
		return err
	}
	return c.WaitForFence(device, fence)
}

// QueuePresent presents image imageIndex of swapchain once signal is
// signalled. ErrSwapchainOutOfDate is returned when the swapchain has to
// be recreated.
func (c *Context) QueuePresent(device vk.Device, signal vk.Semaphore, swapchain vk.Swapchain, imageIndex uint32) error {
	if _, err := c.swapchainRecord("QueuePresent", swapchain); err != nil {
		return err
	}
	q, err := c.DeviceQueue(device, PresentQueue)
	if err != nil {
		return err
	}

	pi := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{swapchain},
		PImageIndices:  []uint32{imageIndex},
	}
	if signal != nil {
		pi.WaitSemaphoreCount = 1
		pi.PWaitSemaphores = []vk.Semaphore{signal}
	}

	switch ret := c.driver.QueuePresent(q, &pi); ret {
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return ErrSwapchainOutOfDate
	default:
		return c.check("vk.QueuePresent()", ret)
	}
}

// CreateFence creates a fence in the signalled state
func (c *Context) CreateFence(device vk.Device) (vk.Fence, error) {
	if device == nil {
		return nil, c.callerError("CreateFence", "null device")
	}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	fence, ret := c.driver.CreateFence(device, &fci)
	if err := c.check("vk.CreateFence()", ret); err != nil {
		return nil, err
	}
	return fence, nil
}

// WaitForFence blocks until fence is signalled and resets it
func (c *Context) WaitForFence(device vk.Device, fence vk.Fence) error {
	if fence == nil {
		return c.callerError("WaitForFence", "null fence")
	}
	fences := []vk.Fence{fence}
	if err := c.check("vk.WaitForFences()", c.driver.WaitForFences(device, fences, true, math.MaxUint64)); err != nil {
		return err
	}
	return c.check("vk.ResetFences()", c.driver.ResetFences(device, fences))
}

// DestroyFence destroys fence. A nil fence is ignored.
func (c *Context) DestroyFence(device vk.Device, fence vk.Fence) {
	if fence == nil {
		return
	}
	c.driver.DestroyFence(device, fence)
}

// CreateSemaphore creates a binary semaphore
func (c *Context) CreateSemaphore(device vk.Device) (vk.Semaphore, error) {
	if device == nil {
		return nil, c.callerError("CreateSemaphore", "null device")
	}
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	semaphore, ret := c.driver.CreateSemaphore(device, &sci)
	if err := c.check("vk.CreateSemaphore()", ret); err != nil {
		return nil, err
	}
	return semaphore, nil
}

// DestroySemaphore destroys semaphore. A nil semaphore is ignored.
func (c *Context) DestroySemaphore(device vk.Device, semaphore vk.Semaphore) {
	if semaphore == nil {
		return
	}
	c.driver.DestroySemaphore(device, semaphore)
}
