// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"math/bits"

	vk "github.com/devblok/vulkan"
)

// ImageKind selects the aspects a layout transition applies to
type ImageKind int

const (
	ImageColor ImageKind = iota
	ImageDepth
	ImageDepthArray
	ImageCube
	ImageOther
)

// GraphicsShaderStages are the stages that may read shader resources in a
// graphics pipeline.
const GraphicsShaderStages = vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit |
	vk.PipelineStageTessellationControlShaderBit |
	vk.PipelineStageTessellationEvaluationShaderBit |
	vk.PipelineStageGeometryShaderBit |
	vk.PipelineStageFragmentShaderBit)

// LayoutToAccessMask returns the memory accesses an image in layout is
// exposed to. Undefined and preinitialized are only legal as the source
// of a transition.
func LayoutToAccessMask(layout vk.ImageLayout, isDestination bool) (vk.AccessFlags, error) {
	var access vk.AccessFlagBits
	switch layout {
	case vk.ImageLayoutUndefined:
		if isDestination {
			return 0, newCallerError("LayoutToAccessMask", "undefined layout can not be a destination")
		}
		return 0, nil
	case vk.ImageLayoutGeneral:
		access = vk.AccessShaderReadBit | vk.AccessShaderWriteBit
	case vk.ImageLayoutColorAttachmentOptimal:
		access = vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		access = vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit
	case vk.ImageLayoutDepthStencilReadOnlyOptimal:
		access = vk.AccessDepthStencilAttachmentReadBit | vk.AccessShaderReadBit
	case vk.ImageLayoutShaderReadOnlyOptimal:
		access = vk.AccessShaderReadBit
	case vk.ImageLayoutTransferSrcOptimal:
		access = vk.AccessTransferReadBit
	case vk.ImageLayoutTransferDstOptimal:
		access = vk.AccessTransferWriteBit
	case vk.ImageLayoutPreinitialized:
		if isDestination {
			return 0, newCallerError("LayoutToAccessMask", "preinitialized layout can not be a destination")
		}
		access = vk.AccessHostWriteBit
	case vk.ImageLayoutPresentSrc:
		access = vk.AccessMemoryReadBit
	default:
		return 0, newCallerError("LayoutToAccessMask", "unsupported image layout %d", layout)
	}
	return vk.AccessFlags(access), nil
}

// AccessFlagsToPipelineStage expands every access bit into the stages that
// perform it. Shader accesses map to shaderStages plus the compute stage.
func AccessFlagsToPipelineStage(access vk.AccessFlags, shaderStages vk.PipelineStageFlags) (vk.PipelineStageFlags, error) {
	var stages vk.PipelineStageFlags
	for access != 0 {
		bit := vk.AccessFlagBits(1 << uint(bits.TrailingZeros32(uint32(access))))
		access &^= vk.AccessFlags(bit)

		switch bit {
		case vk.AccessIndirectCommandReadBit:
			stages |= vk.PipelineStageFlags(vk.PipelineStageDrawIndirectBit)
		case vk.AccessIndexReadBit, vk.AccessVertexAttributeReadBit:
			stages |= vk.PipelineStageFlags(vk.PipelineStageVertexInputBit)
		case vk.AccessUniformReadBit, vk.AccessShaderReadBit, vk.AccessShaderWriteBit:
			stages |= shaderStages | vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
		case vk.AccessInputAttachmentReadBit:
			stages |= vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
		case vk.AccessColorAttachmentReadBit, vk.AccessColorAttachmentWriteBit:
			stages |= vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
		case vk.AccessDepthStencilAttachmentReadBit, vk.AccessDepthStencilAttachmentWriteBit:
			stages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
		case vk.AccessTransferReadBit, vk.AccessTransferWriteBit:
			stages |= vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		case vk.AccessHostReadBit, vk.AccessHostWriteBit:
			stages |= vk.PipelineStageFlags(vk.PipelineStageHostBit)
		default:
			return 0, newCallerError("AccessFlagsToPipelineStage", "unknown access flag %#x", uint32(bit))
		}
	}
	return stages, nil
}

func aspectMask(kind ImageKind, format vk.Format) vk.ImageAspectFlags {
	if kind == ImageDepth || kind == ImageDepthArray || IsDepthFormat(format) {
		aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if IsStencilFormat(format) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
		return aspect
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

func layerCount(kind ImageKind) uint32 {
	if kind == ImageCube {
		return 6
	}
	return 1
}

// ImageBarrier describes a single synthesized layout transition
type ImageBarrier struct {
	Barrier  vk.ImageMemoryBarrier
	SrcStage vk.PipelineStageFlags
	DstStage vk.PipelineStageFlags
}

// BuildImageBarrier derives access masks and stages for moving image from
// oldLayout to newLayout.
//
// Leaving the present layout waits on bottom of pipe, entering it is
// made visible at top of pipe. Otherwise stages come from the access masks,
// defaulting to top of pipe for the source and bottom of pipe for the
// destination when a mask is empty.
func BuildImageBarrier(image vk.Image, kind ImageKind, format vk.Format, oldLayout, newLayout vk.ImageLayout) (ImageBarrier, error) {
	srcAccess, err := LayoutToAccessMask(oldLayout, false)
	if err != nil {
		return ImageBarrier{}, err
	}
	dstAccess, err := LayoutToAccessMask(newLayout, true)
	if err != nil {
		return ImageBarrier{}, err
	}

	var srcStage, dstStage vk.PipelineStageFlags
	switch {
	case oldLayout == vk.ImageLayoutPresentSrc:
		srcStage = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	case srcAccess != 0:
		if srcStage, err = AccessFlagsToPipelineStage(srcAccess, GraphicsShaderStages); err != nil {
			return ImageBarrier{}, err
		}
	default:
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}

	switch {
	case newLayout == vk.ImageLayoutPresentSrc:
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	case dstAccess != 0:
		if dstStage, err = AccessFlagsToPipelineStage(dstAccess, GraphicsShaderStages); err != nil {
			return ImageBarrier{}, err
		}
	default:
		dstStage = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}

	return ImageBarrier{
		Barrier: vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     aspectMask(kind, format),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     layerCount(kind),
			},
		},
		SrcStage: srcStage,
		DstStage: dstStage,
	}, nil
}

// TransitionImageLayout records a barrier moving image from oldLayout to
// newLayout into cmd. Equal layouts record nothing.
//
// With singleTime set, cmd is begun for one time submission beforehand and
// afterwards ended, submitted to the graphics queue and waited on.
func (c *Context) TransitionImageLayout(device vk.Device, image vk.Image, kind ImageKind, cmd vk.CommandBuffer, format vk.Format, oldLayout, newLayout vk.ImageLayout, singleTime bool) error {
	if oldLayout == newLayout {
		return nil
	}
	if image == nil || cmd == nil {
		return c.callerError("TransitionImageLayout", "null image or command buffer")
	}

	barrier, err := BuildImageBarrier(image, kind, format, oldLayout, newLayout)
	if err != nil {
		c.reportError(err)
		return err
	}

	if singleTime {
		if err := c.BeginCommandBuffer(cmd, vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)); err != nil {
			return err
		}
	}

	c.driver.CmdPipelineBarrier(cmd, barrier.SrcStage, barrier.DstStage, 0, []vk.ImageMemoryBarrier{barrier.Barrier})

	if singleTime {
		if err := c.EndCommandBuffer(cmd); err != nil {
			return err
		}
		return c.SubmitSingleTimeCommandBuffer(device, cmd, GraphicsQueue, nil)
	}
	return nil
}
