// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// unsafePointer adapts a typed pNext extension struct pointer to the
// unsafe.Pointer pNext field vulkan-go expects.
func unsafePointer[T any](p *T) unsafe.Pointer {
	return unsafe.Pointer(p)
}

// formatTable is index-aligned with rhi.Format; its length is
// asserted against rhi.FormatCount at package init, the way the
// teacher's driver/vk package asserts its own conversion tables
// against driver.PixelFmt's range.
var formatTable = [...]vk.Format{
	rhi.FormatRGBA8Unorm:     vk.FormatR8g8b8a8Unorm,
	rhi.FormatRGBA8Norm:      vk.FormatR8g8b8a8Snorm,
	rhi.FormatRGBA8sRGB:      vk.FormatR8g8b8a8Srgb,
	rhi.FormatBGRA8Unorm:     vk.FormatB8g8r8a8Unorm,
	rhi.FormatBGRA8sRGB:      vk.FormatB8g8r8a8Srgb,
	rhi.FormatRG8Unorm:       vk.FormatR8g8Unorm,
	rhi.FormatRG8Norm:        vk.FormatR8g8Snorm,
	rhi.FormatR8Unorm:        vk.FormatR8Unorm,
	rhi.FormatR8Norm:         vk.FormatR8Snorm,
	rhi.FormatRGBA16Float:    vk.FormatR16g16b16a16Sfloat,
	rhi.FormatRG16Float:      vk.FormatR16g16Sfloat,
	rhi.FormatR16Float:       vk.FormatR16Sfloat,
	rhi.FormatRGBA32Float:    vk.FormatR32g32b32a32Sfloat,
	rhi.FormatRG32Float:      vk.FormatR32g32Sfloat,
	rhi.FormatR32Float:       vk.FormatR32Sfloat,
	rhi.FormatR32Uint:        vk.FormatR32Uint,
	rhi.FormatR32Sint:        vk.FormatR32Sint,
	rhi.FormatD16Unorm:       vk.FormatD16Unorm,
	rhi.FormatD32Float:       vk.FormatD32Sfloat,
	rhi.FormatS8Uint:         vk.FormatS8Uint,
	rhi.FormatD24UnormS8Uint: vk.FormatD24UnormS8Uint,
	rhi.FormatD32FloatS8Uint: vk.FormatD32SfloatS8Uint,
}

func init() {
	if len(formatTable) != rhi.FormatCount {
		panic("rhi/vk: formatTable length does not match rhi.FormatCount")
	}
}

func convFormat(f rhi.Format) vk.Format { return formatTable[f] }
