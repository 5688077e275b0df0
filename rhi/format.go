// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// Format identifies a pixel/block format. It is the single
// backend-agnostic enumeration both rhi/vk and rhi/dx translate into
// their native format enum, index-aligned with the table below (see
// FormatInfo and each backend's translation table, asserted equal
// length at package init).
type Format int

// Formats.
const (
	FormatRGBA8Unorm Format = iota
	FormatRGBA8Norm
	FormatRGBA8sRGB
	FormatBGRA8Unorm
	FormatBGRA8sRGB
	FormatRG8Unorm
	FormatRG8Norm
	FormatR8Unorm
	FormatR8Norm
	FormatRGBA16Float
	FormatRG16Float
	FormatR16Float
	FormatRGBA32Float
	FormatRG32Float
	FormatR32Float
	FormatR32Uint
	FormatR32Sint
	FormatD16Unorm
	FormatD32Float
	FormatS8Uint
	FormatD24UnormS8Uint
	FormatD32FloatS8Uint

	formatCount // sentinel: number of entries in the table
)

// FormatKind classifies the numeric interpretation of a Format.
type FormatKind int

// Format kinds.
const (
	KindInt FormatKind = iota
	KindNormalized
	KindFloat
	KindDepthStencil
)

// FormatInfo is the static per-Format record: size, block shape,
// numeric kind and channel presence.
type FormatInfo struct {
	Name          string
	BytesPerBlock int
	BlockSize     int // block edge length in texels; 1 for non-block formats
	Kind          FormatKind
	HasRed        bool
	HasGreen      bool
	HasBlue       bool
	HasAlpha      bool
	HasDepth      bool
	HasStencil    bool
	IsSigned      bool
	IsSRGB        bool
}

// formatTable is index-aligned with the Format enum. Lookup is O(1).
var formatTable = [formatCount]FormatInfo{
	FormatRGBA8Unorm:     {"RGBA8Unorm", 4, 1, KindNormalized, true, true, true, true, false, false, false, false},
	FormatRGBA8Norm:      {"RGBA8Norm", 4, 1, KindNormalized, true, true, true, true, false, false, true, false},
	FormatRGBA8sRGB:      {"RGBA8sRGB", 4, 1, KindNormalized, true, true, true, true, false, false, false, true},
	FormatBGRA8Unorm:     {"BGRA8Unorm", 4, 1, KindNormalized, true, true, true, true, false, false, false, false},
	FormatBGRA8sRGB:      {"BGRA8sRGB", 4, 1, KindNormalized, true, true, true, true, false, false, false, true},
	FormatRG8Unorm:       {"RG8Unorm", 2, 1, KindNormalized, true, true, false, false, false, false, false, false},
	FormatRG8Norm:        {"RG8Norm", 2, 1, KindNormalized, true, true, false, false, false, false, true, false},
	FormatR8Unorm:        {"R8Unorm", 1, 1, KindNormalized, true, false, false, false, false, false, false, false},
	FormatR8Norm:         {"R8Norm", 1, 1, KindNormalized, true, false, false, false, false, false, true, false},
	FormatRGBA16Float:    {"RGBA16Float", 8, 1, KindFloat, true, true, true, true, false, false, true, false},
	FormatRG16Float:      {"RG16Float", 4, 1, KindFloat, true, true, false, false, false, false, true, false},
	FormatR16Float:       {"R16Float", 2, 1, KindFloat, true, false, false, false, false, false, true, false},
	FormatRGBA32Float:    {"RGBA32Float", 16, 1, KindFloat, true, true, true, true, false, false, true, false},
	FormatRG32Float:      {"RG32Float", 8, 1, KindFloat, true, true, false, false, false, false, true, false},
	FormatR32Float:       {"R32Float", 4, 1, KindFloat, true, false, false, false, false, false, true, false},
	FormatR32Uint:        {"R32Uint", 4, 1, KindInt, true, false, false, false, false, false, false, false},
	FormatR32Sint:        {"R32Sint", 4, 1, KindInt, true, false, false, false, false, false, true, false},
	FormatD16Unorm:       {"D16Unorm", 2, 1, KindDepthStencil, false, false, false, false, true, false, false, false},
	FormatD32Float:       {"D32Float", 4, 1, KindDepthStencil, false, false, false, false, true, false, true, false},
	FormatS8Uint:         {"S8Uint", 1, 1, KindDepthStencil, false, false, false, false, false, true, false, false},
	FormatD24UnormS8Uint: {"D24UnormS8Uint", 4, 1, KindDepthStencil, false, false, false, false, true, true, false, false},
	FormatD32FloatS8Uint: {"D32FloatS8Uint", 8, 1, KindDepthStencil, false, false, false, false, true, true, true, false},
}

// Info returns the static descriptor for f.
func (f Format) Info() FormatInfo { return formatTable[f] }

func (f Format) String() string { return formatTable[f].Name }

// FormatCount is the number of entries in the format table. Backend
// translation tables must have exactly this many entries, each
// reporting the same enum value in its source field.
const FormatCount = int(formatCount)
