// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// QueueType identifies one of the GPU's logical queues.
type QueueType int

// Logical queues.
const (
	QueueDirect QueueType = iota
	QueueCopy
	QueueCompute
)

// Usage is a bit set of valid uses for a Buffer.
type Usage int

// Buffer usage flags.
const (
	UsageVertexBuffer Usage = 1 << iota
	UsageIndexBuffer
	UsageConstantBuffer
	UsageUnorderedAccess
	UsageShaderResource
	UsageIndirectCommands
	UsageShaderTable
	UsageAccelStructStorage
	UsageAccelStructBuildInput
)

// TextureUsage is a bit set of valid uses for a Texture.
type TextureUsage int

// Texture usage flags.
const (
	TexUsageShaderResource TextureUsage = 1 << iota
	TexUsageRenderTarget
	TexUsageDepthStencil
	TexUsageUnorderedAccess
	TexUsageShadingRateSource
)

// HeapUsage is the kind of resource a ResourceHeap may back.
type HeapUsage int

// Heap usages.
const (
	HeapUsageBuffer HeapUsage = iota
	HeapUsageTexture
)

// HeapType determines the CPU visibility and initial-state semantics
// of resources placed in a ResourceHeap.
type HeapType int

// Heap types.
const (
	HeapDeviceLocal HeapType = iota
	HeapUpload
	HeapReadback
)

// Access is a bit set of memory-access scopes used when synthesizing
// a resource barrier.
type Access int

// Access scopes.
const (
	AccessVertexBufferRead Access = 1 << iota
	AccessIndexBufferRead
	AccessConstantBufferRead
	AccessColorRead
	AccessColorWrite
	AccessDepthStencilRead
	AccessDepthStencilWrite
	AccessCopyRead
	AccessCopyWrite
	AccessShaderRead
	AccessShaderWrite
	AccessAccelStructRead
	AccessAccelStructWrite
	AccessPresent
	AccessAnyRead
	AccessAnyWrite
	AccessNone Access = 0
)

// Layout is the layout (a Vulkan term, mapped onto equivalent
// DirectX resource states) an Image/Texture subresource is in.
type Layout int

// Resource layouts.
const (
	LayoutUndefined Layout = iota
	LayoutCommon
	LayoutGenericRead
	LayoutColorTarget
	LayoutDepthStencilTarget
	LayoutDepthStencilRead
	LayoutShaderRead
	LayoutUnorderedAccess
	LayoutCopySrc
	LayoutCopyDst
	LayoutAccelStruct
	LayoutPresent
)

// State is the pair (Access, Layout) tracked per subresource.
type State struct {
	Access Access
	Layout Layout
}

// PrimitiveType selects how vertex data assembles into primitives.
type PrimitiveType int

// Primitive types.
const (
	PrimitivePoint PrimitiveType = iota
	PrimitiveLine
	PrimitiveLineStrip
	PrimitiveTriangle
	PrimitiveTriangleStrip
)

// IndexFormat describes the width of index-buffer elements.
type IndexFormat int

// Index formats.
const (
	Index16 IndexFormat = 2
	Index32 IndexFormat = 4
)

// CmpFunc is the type of comparison functions used by depth/stencil
// tests and comparison samplers.
type CmpFunc int

// Comparison functions.
const (
	CmpNever CmpFunc = iota
	CmpLess
	CmpEqual
	CmpLessEqual
	CmpGreater
	CmpNotEqual
	CmpGreaterEqual
	CmpAlways
)

// StencilOp is the type of stencil operations.
type StencilOp int

// Stencil operations.
const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncClamp
	StencilDecClamp
	StencilInvert
	StencilIncWrap
	StencilDecWrap
)

// StencilFace defines the stencil-test parameters for one facing
// direction.
type StencilFace struct {
	FailOp      StencilOp
	DepthFailOp StencilOp
	PassOp      StencilOp
	ReadMask    uint32
	WriteMask   uint32
	Cmp         CmpFunc
}

// DepthStencilState defines the depth/stencil state of a graphics
// pipeline.
type DepthStencilState struct {
	DepthTest   bool
	DepthWrite  bool
	DepthCmp    CmpFunc
	StencilTest bool
	Front       StencilFace
	Back        StencilFace
}

// BlendOp is the type of blend operations.
type BlendOp int

// Blend operations.
const (
	BlendAdd BlendOp = iota
	BlendSubtract
	BlendRevSubtract
	BlendMin
	BlendMax
)

// BlendFactor is the type of blend factors.
type BlendFactor int

// Blend factors.
const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstColor
	BlendInvDstColor
	BlendDstAlpha
	BlendInvDstAlpha
	BlendSrcAlphaSaturated
	BlendConstColor
	BlendInvConstColor
)

// ColorMask is a bit set selecting color channels to write.
type ColorMask int

// Color write masks.
const (
	ColorRed ColorMask = 1 << iota
	ColorGreen
	ColorBlue
	ColorAlpha
	ColorAll ColorMask = ColorRed | ColorGreen | ColorBlue | ColorAlpha
)

// RenderTargetBlend defines one render target's blend parameters.
type RenderTargetBlend struct {
	Blend     bool
	WriteMask ColorMask
	// Index 0 is color, index 1 is alpha.
	Op     [2]BlendOp
	SrcFac [2]BlendFactor
	DstFac [2]BlendFactor
}

// BlendState defines the color-blend state of a graphics pipeline.
type BlendState struct {
	IndependentBlend bool
	Targets          []RenderTargetBlend
}

// CullMode selects which triangle faces to discard.
type CullMode int

// Cull modes.
const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FillMode selects the rasterizer's fill mode.
type FillMode int

// Fill modes.
const (
	FillSolid FillMode = iota
	FillWireframe
)

// RasterState defines the rasterization state of a graphics pipeline.
type RasterState struct {
	Clockwise bool
	Cull      CullMode
	Fill      FillMode
	DepthBias bool
	BiasValue float32
	BiasSlope float32
	BiasClamp float32
}

// Viewport defines the bounds of one viewport.
type Viewport struct {
	X, Y, Width, Height, MinDepth, MaxDepth float32
}

// Rect defines a scissor/clip rectangle.
type Rect struct {
	X, Y, Width, Height int
}

// ClearValue defines clear values for the color or depth/stencil
// aspects of a render target.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// Off3D is a three-dimensional offset.
type Off3D struct {
	X, Y, Z int
}

// TextureDim is the dimensionality of a Texture.
type TextureDim int

// Texture dimensions.
const (
	TexDim2D TextureDim = iota
	TexDim2DArray
	TexDim3D
	TexDimCube
)

// BufferRange identifies a sub-resource of a Buffer as a byte range.
type BufferRange struct {
	Offset int64
	Size   int64
}

// TextureRange identifies a sub-resource range of a Texture: a
// mip-level range crossed with an array-layer range. The sentinel
// AllSubresources denotes the full resource.
type TextureRange struct {
	FirstMip   int
	NumMips    int
	FirstLayer int
	NumLayers  int
}

// MaxSubresources is used as NumMips/NumLayers in AllSubresources to
// mean "every remaining level/layer".
const MaxSubresources = 1<<31 - 1

// AllSubresources is the sentinel TextureRange meaning "full
// resource". It is always present as a fallback entry in a
// Texture's sub-resource state map.
var AllSubresources = TextureRange{0, MaxSubresources, 0, MaxSubresources}
