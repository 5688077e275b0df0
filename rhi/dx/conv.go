// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import (
	"unsafe"

	"github.com/argent-engine/rhi"
)

func unsafePtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// formatTable is index-aligned with rhi.Format, asserted against
// rhi.FormatCount at package init — mirrors rhi/vk's formatTable.
var formatTable = [...]dxgiFormat{
	rhi.FormatRGBA8Unorm:     fmtR8G8B8A8Unorm,
	rhi.FormatRGBA8Norm:      fmtR8G8B8A8Snorm,
	rhi.FormatRGBA8sRGB:      fmtR8G8B8A8UnormSRGB,
	rhi.FormatBGRA8Unorm:     fmtB8G8R8A8Unorm,
	rhi.FormatBGRA8sRGB:      fmtB8G8R8A8UnormSRGB,
	rhi.FormatRG8Unorm:       fmtR8G8Unorm,
	rhi.FormatRG8Norm:        fmtR8G8Snorm,
	rhi.FormatR8Unorm:        fmtR8Unorm,
	rhi.FormatR8Norm:         fmtR8Snorm,
	rhi.FormatRGBA16Float:    fmtR16G16B16A16Float,
	rhi.FormatRG16Float:      fmtR16G16Float,
	rhi.FormatR16Float:       fmtR16Float,
	rhi.FormatRGBA32Float:    fmtR32G32B32A32Float,
	rhi.FormatRG32Float:      fmtR32G32Float,
	rhi.FormatR32Float:       fmtR32Float,
	rhi.FormatR32Uint:        fmtR32Uint,
	rhi.FormatR32Sint:        fmtR32Sint,
	rhi.FormatD16Unorm:       fmtD16Unorm,
	rhi.FormatD32Float:       fmtD32Float,
	rhi.FormatS8Uint:         fmtR8Unorm, // D3D12 has no standalone stencil-only format; paired formats carry it instead
	rhi.FormatD24UnormS8Uint: fmtD24UnormS8Uint,
	rhi.FormatD32FloatS8Uint: fmtD32FloatS8Uint,
}

func init() {
	if len(formatTable) != rhi.FormatCount {
		panic("rhi/dx: formatTable length does not match rhi.FormatCount")
	}
}

func convFormat(f rhi.Format) dxgiFormat { return formatTable[f] }

func convVertexFormat(f rhi.VertexFormat) dxgiFormat {
	switch f {
	case rhi.VFFloat32:
		return fmtR32Float
	case rhi.VFFloat32x2:
		return fmtR32G32Float
	case rhi.VFFloat32x3:
		return fmtR32G32B32Float
	case rhi.VFFloat32x4:
		return fmtR32G32B32A32Float
	case rhi.VFUint32:
		return fmtR32Uint
	case rhi.VFUint32x2:
		return fmtR32G32Uint
	case rhi.VFUint32x3:
		return fmtR32G32B32Uint
	case rhi.VFUint32x4:
		return fmtR32G32B32A32Uint
	case rhi.VFInt32:
		return fmtR32Sint
	case rhi.VFInt32x2:
		return fmtR32G32Sint
	case rhi.VFInt32x3:
		return fmtR32G32B32Sint
	case rhi.VFInt32x4:
		return fmtR32G32B32A32Sint
	case rhi.VFUint8x4:
		return fmtR8G8B8A8Uint
	case rhi.VFInt8x4:
		return fmtR8G8B8A8Sint
	default:
		return fmtR32G32B32A32Float
	}
}

func convCullMode(c rhi.CullMode) int32 {
	switch c {
	case rhi.CullFront:
		return 2
	case rhi.CullBack:
		return 3
	default:
		return 1 // D3D12_CULL_MODE_NONE
	}
}

func convStencilOp(op rhi.StencilOp) int32 {
	switch op {
	case rhi.StencilZero:
		return 2
	case rhi.StencilReplace:
		return 3
	case rhi.StencilIncClamp:
		return 4
	case rhi.StencilDecClamp:
		return 5
	case rhi.StencilInvert:
		return 6
	case rhi.StencilIncWrap:
		return 7
	case rhi.StencilDecWrap:
		return 8
	default:
		return 1 // KEEP
	}
}

func convBlendOp(op rhi.BlendOp) int32 {
	switch op {
	case rhi.BlendSubtract:
		return 2
	case rhi.BlendRevSubtract:
		return 3
	case rhi.BlendMin:
		return 4
	case rhi.BlendMax:
		return 5
	default:
		return 1 // ADD
	}
}

func convBlendFactor(f rhi.BlendFactor) int32 {
	switch f {
	case rhi.BlendOne:
		return 2
	case rhi.BlendSrcColor:
		return 3
	case rhi.BlendInvSrcColor:
		return 4
	case rhi.BlendSrcAlpha:
		return 5
	case rhi.BlendInvSrcAlpha:
		return 6
	case rhi.BlendDstAlpha:
		return 7
	case rhi.BlendInvDstAlpha:
		return 8
	case rhi.BlendDstColor:
		return 9
	case rhi.BlendInvDstColor:
		return 10
	case rhi.BlendSrcAlphaSaturated:
		return 11
	case rhi.BlendConstColor:
		return 14
	case rhi.BlendInvConstColor:
		return 15
	default:
		return 1 // ZERO
	}
}

func convColorMask(m rhi.ColorMask) uint8 {
	var f uint8
	if m&rhi.ColorRed != 0 {
		f |= 1
	}
	if m&rhi.ColorGreen != 0 {
		f |= 2
	}
	if m&rhi.ColorBlue != 0 {
		f |= 4
	}
	if m&rhi.ColorAlpha != 0 {
		f |= 8
	}
	return f
}
