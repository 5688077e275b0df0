// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import "github.com/argent-engine/rhi"

// AccelStructure implements rhi.AccelStructure over a storage Buffer
// sized by estimatedAccelSize rather than a real prebuild-info query:
// ID3D12Device5::GetRaytracingAccelerationStructurePrebuildInfo and
// ID3D12GraphicsCommandList4::BuildRaytracingAccelerationStructure
// sit outside the simplified vtable surface here, the same limitation
// newRayTracingPipeline documents for DXR state objects, so storage
// and scratch sizing use a documented per-primitive/per-instance
// heuristic instead.
type AccelStructure struct {
	dv          *Device
	typ         rhi.AccelStructureType
	storage     *Buffer
	scratchSize int64
	primCount   int
}

func (a *AccelStructure) Destroy()                         { a.storage.Destroy() }
func (a *AccelStructure) Type() rhi.AccelStructureType      { return a.typ }
func (a *AccelStructure) ScratchBufferSize() int64          { return a.scratchSize }
func (a *AccelStructure) DeviceAddress() uint64             { return a.storage.res.GPUVirtualAddress() }

func (a *AccelStructure) NewScratchBuffer() (rhi.Buffer, error) {
	return a.dv.NewBuffer(rhi.BufferDesc{
		Size:  a.scratchSize,
		Usage: rhi.UsageUnorderedAccess,
		Name:  "accel-scratch",
	})
}

// estimatedAccelSize approximates a built acceleration structure's
// footprint at 64 bytes per primitive (triangle, AABB or instance),
// floored at 256 bytes, standing in for the real prebuild-size
// query noted above.
func estimatedAccelSize(primCount int) int64 {
	const bytesPerPrimitive = 64
	const floor = 256
	size := int64(primCount) * bytesPerPrimitive
	if size < floor {
		return floor
	}
	return size
}

func primitiveCount(desc *rhi.AccelStructureDesc) int {
	if desc.Type == rhi.TopLevel {
		return desc.InstanceCount
	}
	total := 0
	for _, g := range desc.Geometries {
		switch g.Kind {
		case rhi.GeometryTriangles:
			if g.Triangles.IndexBuffer != nil {
				total += g.Triangles.IndexCount / 3
			} else {
				total += g.Triangles.VertexCount / 3
			}
		case rhi.GeometryAABBs:
			total += g.AABBs.Count
		}
	}
	return total
}

// NewAccelStructure implements rhi.Device: allocates a storage Buffer
// sized by estimatedAccelSize with AccelStructStorage usage. The
// actual native build call is recorded later via
// CmdList.BuildAccelStructure.
func (dv *Device) NewAccelStructure(desc *rhi.AccelStructureDesc) (rhi.AccelStructure, error) {
	primCount := primitiveCount(desc)
	size := estimatedAccelSize(primCount)

	storage, err := dv.NewBuffer(rhi.BufferDesc{
		Size:  size,
		Usage: rhi.UsageAccelStructStorage,
		Name:  desc.Name,
	})
	if err != nil {
		return nil, err
	}

	return &AccelStructure{
		dv:          dv,
		typ:         desc.Type,
		storage:     storage.(*Buffer),
		scratchSize: size,
		primCount:   primCount,
	}, nil
}

// build is a documented no-op beyond transitioning the scratch buffer
// to UnorderedAccess: ID3D12GraphicsCommandList4::
// BuildRaytracingAccelerationStructure is out of scope (see the type
// doc comment), so DispatchRays against a structure built this way is
// unsupported until that interface is wired in.
func (a *AccelStructure) build(cl *CmdList, scratch *Buffer) {
	cl.ResourceBarrier(scratch, rhi.State{Access: rhi.AccessAccelStructWrite, Layout: rhi.LayoutUnorderedAccess})
	cl.FlushBarriers()
}

// NewShaderTable implements rhi.Device. The layout is entirely
// backend-agnostic — raygen/miss/hit-group/callable records packed
// into one buffer at a stride of the largest identifier size rounded
// up to a multiple of 64 (at least 64) — so this is carried over
// unchanged from the Buffer/WriteData primitives rhi/vk's
// NewShaderTable uses.
func (dv *Device) NewShaderTable(desc *rhi.ShaderTableDesc) (*rhi.ShaderTable, error) {
	stride := int64(rhi.ShaderTableAlignment)
	for _, ident := range append(append(append([][]byte{desc.RayGenIdentifier}, desc.MissIdentifiers...), desc.HitGroupIdentifiers...), desc.CallableIdentifiers...) {
		if s := rhi.ShaderRecordStride(len(ident)); int64(s) > stride {
			stride = int64(s)
		}
	}

	numMiss := len(desc.MissIdentifiers)
	numHit := len(desc.HitGroupIdentifiers)
	numCallable := len(desc.CallableIdentifiers)
	total := stride * int64(1+numMiss+numHit+numCallable)

	buf, err := dv.NewBuffer(rhi.BufferDesc{
		Size:      total,
		Usage:     rhi.UsageShaderTable,
		CPUAccess: rhi.HeapUpload,
		Name:      desc.Name,
	})
	if err != nil {
		return nil, err
	}

	off := int64(0)
	var writeErr error
	write := func(ident []byte) rhi.ShaderRecord {
		rec := rhi.ShaderRecord{StartAddress: uint64(off), Stride: uint64(stride), Size: uint64(len(ident))}
		if err := buf.WriteData(ident, off); err != nil && writeErr == nil {
			writeErr = err
		}
		off += stride
		return rec
	}

	rg := write(desc.RayGenIdentifier)
	missStart := off
	for _, m := range desc.MissIdentifiers {
		write(m)
	}
	hitStart := off
	for _, h := range desc.HitGroupIdentifiers {
		write(h)
	}
	callStart := off
	for _, c := range desc.CallableIdentifiers {
		write(c)
	}
	if writeErr != nil {
		return nil, writeErr
	}

	return &rhi.ShaderTable{
		Buffer:   buf,
		RayGen:   rg,
		Miss:     rhi.ShaderRecord{StartAddress: uint64(missStart), Stride: uint64(stride), Size: uint64(numMiss) * uint64(stride)},
		HitGroup: rhi.ShaderRecord{StartAddress: uint64(hitStart), Stride: uint64(stride), Size: uint64(numHit) * uint64(stride)},
		Callable: rhi.ShaderRecord{StartAddress: uint64(callStart), Stride: uint64(stride), Size: uint64(numCallable) * uint64(stride)},
	}, nil
}
