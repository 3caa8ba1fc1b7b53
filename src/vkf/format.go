// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	vk "github.com/devblok/vulkan"
)

var formatSizes = map[vk.Format]uint32{
	vk.FormatR8Unorm: 1,
	vk.FormatR8Snorm: 1,
	vk.FormatR8Uint:  1,
	vk.FormatR8Sint:  1,
	vk.FormatR8Srgb:  1,
	vk.FormatS8Uint:  1,

	vk.FormatR8g8Unorm:         2,
	vk.FormatR8g8Snorm:         2,
	vk.FormatR8g8Uint:          2,
	vk.FormatR8g8Sint:          2,
	vk.FormatR8g8Srgb:          2,
	vk.FormatR16Unorm:          2,
	vk.FormatR16Snorm:          2,
	vk.FormatR16Uint:           2,
	vk.FormatR16Sint:           2,
	vk.FormatR16Sfloat:         2,
	vk.FormatD16Unorm:          2,
	vk.FormatR5g6b5UnormPack16: 2,

	vk.FormatR8g8b8Unorm:    3,
	vk.FormatR8g8b8Srgb:     3,
	vk.FormatB8g8r8Unorm:    3,
	vk.FormatB8g8r8Srgb:     3,
	vk.FormatD16UnormS8Uint: 3,

	vk.FormatR8g8b8a8Unorm:          4,
	vk.FormatR8g8b8a8Snorm:          4,
	vk.FormatR8g8b8a8Uint:           4,
	vk.FormatR8g8b8a8Sint:           4,
	vk.FormatR8g8b8a8Srgb:           4,
	vk.FormatB8g8r8a8Unorm:          4,
	vk.FormatB8g8r8a8Srgb:           4,
	vk.FormatA2b10g10r10UnormPack32: 4,
	vk.FormatR16g16Unorm:            4,
	vk.FormatR16g16Sfloat:           4,
	vk.FormatR32Uint:                4,
	vk.FormatR32Sint:                4,
	vk.FormatR32Sfloat:              4,
	vk.FormatD32Sfloat:              4,
	vk.FormatX8D24UnormPack32:       4,
	vk.FormatD24UnormS8Uint:         4,
	vk.FormatB10g11r11UfloatPack32:  4,

	vk.FormatD32SfloatS8Uint: 5,

	vk.FormatR16g16b16Sfloat:    6,
	vk.FormatR16g16b16a16Unorm:  8,
	vk.FormatR16g16b16a16Sfloat: 8,
	vk.FormatR32g32Uint:         8,
	vk.FormatR32g32Sint:         8,
	vk.FormatR32g32Sfloat:       8,

	vk.FormatR32g32b32Uint:   12,
	vk.FormatR32g32b32Sint:   12,
	vk.FormatR32g32b32Sfloat: 12,

	vk.FormatR32g32b32a32Uint:   16,
	vk.FormatR32g32b32a32Sint:   16,
	vk.FormatR32g32b32a32Sfloat: 16,
}

// FormatSize returns the size in bytes of one texel of format,
// or zero for unknown and block compressed formats.
func FormatSize(format vk.Format) uint32 {
	return formatSizes[format]
}

// IsDepthFormat reports whether format has a depth component
func IsDepthFormat(format vk.Format) bool {
	switch format {
	case vk.FormatD16Unorm,
		vk.FormatX8D24UnormPack32,
		vk.FormatD32Sfloat,
		vk.FormatD16UnormS8Uint,
		vk.FormatD24UnormS8Uint,
		vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

// IsStencilFormat reports whether format has a stencil component
func IsStencilFormat(format vk.Format) bool {
	switch format {
	case vk.FormatS8Uint,
		vk.FormatD16UnormS8Uint,
		vk.FormatD24UnormS8Uint,
		vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}
