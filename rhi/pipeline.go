// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// VertexFormat describes the format of one vertex input component.
type VertexFormat int

// Vertex formats.
const (
	VFInt8 VertexFormat = iota
	VFInt8x2
	VFInt8x3
	VFInt8x4
	VFInt16
	VFInt16x2
	VFInt16x3
	VFInt16x4
	VFInt32
	VFInt32x2
	VFInt32x3
	VFInt32x4
	VFUint8
	VFUint8x2
	VFUint8x3
	VFUint8x4
	VFUint16
	VFUint16x2
	VFUint16x3
	VFUint16x4
	VFUint32
	VFUint32x2
	VFUint32x3
	VFUint32x4
	VFFloat32
	VFFloat32x2
	VFFloat32x3
	VFFloat32x4
)

// VertexInput describes one vertex-buffer binding. Consecutive
// vertices are Stride bytes apart; each VertexInput is a separate
// buffer binding — interleaved inputs are not supported.
type VertexInput struct {
	Format VertexFormat
	Stride int
	Slot   int
	Name   string
}

// ShaderFunc pairs a ShaderCode object with an entry-point name.
type ShaderFunc struct {
	Code  ShaderCode
	Entry string
}

// GraphicsState defines the combination of programmable and
// fixed-function stages of a graphics pipeline (vertex+hull+domain+
// geometry+pixel, or mesh+amplification+pixel — VertFunc/MeshFunc are
// mutually exclusive).
type GraphicsState struct {
	VertFunc    ShaderFunc
	HullFunc    ShaderFunc
	DomainFunc  ShaderFunc
	GeomFunc    ShaderFunc
	MeshFunc    ShaderFunc
	AmpFunc     ShaderFunc
	FragFunc    ShaderFunc
	Layout      BindingLayout
	Input       []VertexInput
	Topology    PrimitiveType
	Raster      RasterState
	Samples     int
	DepthStencil DepthStencilState
	Blend       BlendState
	Pass        RenderPass
	Subpass     int
	Name        string
}

// ComputeState defines a compute pipeline: a single compute shader
// plus the binding layout describing its accessible resources.
type ComputeState struct {
	Func   ShaderFunc
	Layout BindingLayout
	Name   string
}

// MeshState defines a mesh-shading pipeline (mesh [+ amplification]
// + pixel) sharing the fixed-function state of GraphicsState.
type MeshState struct {
	AmpFunc      ShaderFunc
	MeshFunc     ShaderFunc
	FragFunc     ShaderFunc
	Layout       BindingLayout
	Raster       RasterState
	Samples      int
	DepthStencil DepthStencilState
	Blend        BlendState
	Pass         RenderPass
	Subpass      int
	Name         string
}

// RayTracingStage describes one shader stage of a ray-tracing
// pipeline and its hit-group association, if any.
type RayTracingStage struct {
	Func  ShaderFunc
	Group int // hit-group index, or -1 for raygen/miss/callable
}

// RayTracingState defines a ray-tracing pipeline: raygen, miss,
// hit-group (closest-hit/any-hit/intersection) and callable shaders
// plus the binding layout and maximum recursion depth.
type RayTracingState struct {
	RayGen        ShaderFunc
	Miss          []ShaderFunc
	ClosestHit    []ShaderFunc
	AnyHit        []ShaderFunc
	Intersection  []ShaderFunc
	Callable      []ShaderFunc
	Layout        BindingLayout
	MaxRecursion  int
	MaxPayloadSize int
	MaxAttribSize  int
	Name          string
}

// Pipeline is a compiled, frozen GPU pipeline (C12). Its binding
// layout reference and pipeline-desc are immutable after creation.
type Pipeline interface {
	Destroyer
}
