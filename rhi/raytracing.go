// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// AccelStructureType distinguishes a bottom-level (BLAS, built from
// geometry) from a top-level (TLAS, built from instances)
// acceleration structure (C17).
type AccelStructureType int

// Acceleration-structure types.
const (
	BottomLevel AccelStructureType = iota
	TopLevel
)

// GeometryKind selects the interpretation of one BLAS geometry entry.
type GeometryKind int

// Geometry kinds.
const (
	GeometryTriangles GeometryKind = iota
	GeometryAABBs
)

// TriangleGeometry describes a triangle-mesh BLAS geometry entry.
// Vertex/index buffer addresses are native GPU virtual addresses
// resolved by the backend from the Buffer at build-descriptor time.
type TriangleGeometry struct {
	VertexBuffer       Buffer
	VertexStride       int64
	VertexFormat       Format
	VertexCount        int
	IndexBuffer        Buffer // nil for non-indexed geometry
	IndexFormat        IndexFormat
	IndexCount         int
	Transform3x4Buffer Buffer // optional per-geometry transform, nil if unused
	Opaque             bool
}

// AABBGeometry describes a procedural-primitive BLAS geometry entry.
type AABBGeometry struct {
	Buffer Buffer
	Stride int64
	Count  int
	Opaque bool
}

// Geometry is one entry of a bottom-level acceleration structure's
// geometry list.
type Geometry struct {
	Kind      GeometryKind
	Triangles TriangleGeometry
	AABBs     AABBGeometry
}

// InstanceFlags is a bit set of per-instance TLAS flags.
type InstanceFlags uint8

// Instance flags.
const (
	InstanceTriangleCullDisable InstanceFlags = 1 << iota
	InstanceTriangleFrontCCW
	InstanceForceOpaque
	InstanceForceNonOpaque
)

// AccelInstanceDesc is the TLAS instance descriptor, packed exactly
// as the native layout: a row-major 3x4 transform, a 24-bit instance
// ID, 8-bit mask, 24-bit hit-group offset, 8-bit flags, and a 64-bit
// BLAS address. Both backends interpret this struct's bytes
// directly, with no translation.
type AccelInstanceDesc struct {
	Transform      [12]float32
	idMask         uint32 // bits 0:24 instance id, 24:32 mask
	offsetFlags    uint32 // bits 0:24 hit-group offset, 24:32 flags
	BLASAddress    uint64
}

// NewAccelInstanceDesc packs an instance descriptor from its logical
// fields.
func NewAccelInstanceDesc(transform [12]float32, instanceID uint32, mask uint8, hitGroupOffset uint32, flags InstanceFlags, blasAddr uint64) AccelInstanceDesc {
	return AccelInstanceDesc{
		Transform:   transform,
		idMask:      instanceID&0xFFFFFF | uint32(mask)<<24,
		offsetFlags: hitGroupOffset&0xFFFFFF | uint32(flags)<<24,
		BLASAddress: blasAddr,
	}
}

func (d AccelInstanceDesc) InstanceID() uint32     { return d.idMask & 0xFFFFFF }
func (d AccelInstanceDesc) Mask() uint8             { return uint8(d.idMask >> 24) }
func (d AccelInstanceDesc) HitGroupOffset() uint32 { return d.offsetFlags & 0xFFFFFF }
func (d AccelInstanceDesc) Flags() InstanceFlags    { return InstanceFlags(d.offsetFlags >> 24) }

// AccelStructureDesc describes an acceleration structure to be built
// via Device.NewAccelStructure.
type AccelStructureDesc struct {
	Type       AccelStructureType
	Geometries []Geometry  // BottomLevel
	Instances  []Buffer    // TopLevel: one upload buffer of AccelInstanceDesc entries
	InstanceCount int
	Name       string
}

// AccelStructure is a built BLAS or TLAS plus its backing storage
// buffer (C17).
type AccelStructure interface {
	Destroyer

	Type() AccelStructureType

	// ScratchBufferSize returns the scratchDataSize the backend's
	// prebuild-info query reported at creation.
	ScratchBufferSize() int64

	// NewScratchBuffer allocates a transient buffer sized
	// ScratchBufferSize with UnorderedAccess usage, suitable for one
	// CmdList.BuildAccelStructure call.
	NewScratchBuffer() (Buffer, error)

	// DeviceAddress returns the native GPU address of the backing
	// storage buffer, for use as an AccelInstanceDesc.BLASAddress or
	// ResourceSet binding.
	DeviceAddress() uint64
}

// ShaderRecord identifies one record's location within a
// ShaderTable's single backing buffer.
type ShaderRecord struct {
	StartAddress uint64
	Stride       uint64
	Size         uint64
}

// ShaderTableDesc describes a shader binding table to be created via
// Device.NewShaderTable. Each *Identifiers slice holds one packed
// shader identifier (plus any local root arguments) per record.
type ShaderTableDesc struct {
	RayGenIdentifier    []byte
	MissIdentifiers     [][]byte
	HitGroupIdentifiers [][]byte
	CallableIdentifiers [][]byte
	Name                string
}

// ShaderTable lays out raygen/miss/hit-group/callable records into a
// single buffer, in that order, with a stride of
// align(shaderIdentifierSize, 64) (C17).
type ShaderTable struct {
	Buffer    Buffer
	RayGen    ShaderRecord
	Miss      ShaderRecord
	HitGroup  ShaderRecord
	Callable  ShaderRecord
}

// ShaderTableAlignment is the shader-record stride alignment
// required by both backends' ray-dispatch calls.
const ShaderTableAlignment = 64

// ShaderRecordStride returns the shader-table record stride for a
// shader identifier of the given size: max(identifierSize,
// ShaderTableAlignment), rounded up to ShaderTableAlignment.
func ShaderRecordStride(identifierSize int) int {
	if identifierSize < ShaderTableAlignment {
		return ShaderTableAlignment
	}
	return (identifierSize + ShaderTableAlignment - 1) &^ (ShaderTableAlignment - 1)
}
