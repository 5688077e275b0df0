// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/argent-engine/rhi"
)

var (
	modD3D12 = windows.NewLazySystemDLL("d3d12.dll")
	modDXGI  = windows.NewLazySystemDLL("dxgi.dll")

	procD3D12CreateDevice       = modD3D12.NewProc("D3D12CreateDevice")
	procD3D12SerializeRootSig   = modD3D12.NewProc("D3D12SerializeRootSignature")
	procD3D12GetDebugInterface  = modD3D12.NewProc("D3D12GetDebugInterface")
	procCreateDXGIFactory2      = modDXGI.NewProc("CreateDXGIFactory2")
)

// Command-list / queue types.
type cmdListType int32

const (
	cmdListTypeDirect  cmdListType = 0
	cmdListTypeCopy    cmdListType = 3
	cmdListTypeCompute cmdListType = 2
)

func convQueueType(q rhi.QueueType) cmdListType {
	switch q {
	case rhi.QueueCopy:
		return cmdListTypeCopy
	case rhi.QueueCompute:
		return cmdListTypeCompute
	default:
		return cmdListTypeDirect
	}
}

// Heap types (D3D12_HEAP_TYPE).
type heapType int32

const (
	heapTypeDefault  heapType = 1
	heapTypeUpload   heapType = 2
	heapTypeReadback heapType = 3
)

func convHeapType(t rhi.HeapType) heapType {
	switch t {
	case rhi.HeapUpload:
		return heapTypeUpload
	case rhi.HeapReadback:
		return heapTypeReadback
	default:
		return heapTypeDefault
	}
}

// Resource states (D3D12_RESOURCE_STATES), a bit set.
type resourceStates uint32

const (
	stateCommon                resourceStates = 0
	stateVertexAndConstant     resourceStates = 0x1
	stateIndexBuffer           resourceStates = 0x2
	stateRenderTarget          resourceStates = 0x4
	stateUnorderedAccess       resourceStates = 0x8
	stateDepthWrite            resourceStates = 0x10
	stateDepthRead             resourceStates = 0x20
	stateNonPixelShaderRes     resourceStates = 0x40
	statePixelShaderRes        resourceStates = 0x80
	stateIndirectArgument      resourceStates = 0x200
	stateCopyDest              resourceStates = 0x400
	stateCopySource            resourceStates = 0x800
	stateRaytracingAccelStruct resourceStates = 0x400000
	statePresent               resourceStates = 0
	stateGenericRead           resourceStates = stateVertexAndConstant | stateIndexBuffer | stateNonPixelShaderRes | statePixelShaderRes | stateIndirectArgument | stateCopySource
)

// convState maps an rhi.State's (Access, Layout) pair onto the
// nearest D3D12_RESOURCE_STATES bit set; Layout carries the intent
// (D3D12 has no separate image-layout concept), Access refines which
// read/write bits apply when more than one candidate state shares a
// layout.
func convState(s rhi.State) resourceStates {
	switch s.Layout {
	case rhi.LayoutColorTarget:
		return stateRenderTarget
	case rhi.LayoutDepthStencilTarget:
		return stateDepthWrite
	case rhi.LayoutDepthStencilRead:
		return stateDepthRead
	case rhi.LayoutShaderRead:
		return statePixelShaderRes | stateNonPixelShaderRes
	case rhi.LayoutUnorderedAccess:
		return stateUnorderedAccess
	case rhi.LayoutCopySrc:
		return stateCopySource
	case rhi.LayoutCopyDst:
		return stateCopyDest
	case rhi.LayoutGenericRead:
		return stateGenericRead
	case rhi.LayoutAccelStruct:
		return stateRaytracingAccelStruct
	case rhi.LayoutPresent:
		return statePresent
	default:
		return stateCommon
	}
}

// Descriptor heap types (D3D12_DESCRIPTOR_HEAP_TYPE).
type descHeapKind int32

const (
	descHeapKindCBVSRVUAV descHeapKind = 0
	descHeapKindSampler   descHeapKind = 1
	descHeapKindRTV       descHeapKind = 2
	descHeapKindDSV       descHeapKind = 3
)

func convDescHeapType(t rhi.DescHeapType) descHeapKind {
	switch t {
	case rhi.DescHeapSampler:
		return descHeapKindSampler
	case rhi.DescHeapRTV:
		return descHeapKindRTV
	case rhi.DescHeapDSV:
		return descHeapKindDSV
	default:
		return descHeapKindCBVSRVUAV
	}
}

// Primitive topology types (D3D12_PRIMITIVE_TOPOLOGY_TYPE, for PSOs)
// and the runtime topology (D3D_PRIMITIVE_TOPOLOGY, for IASetPrimitiveTopology).
type topologyType int32

const (
	topoTypePoint    topologyType = 1
	topoTypeLine     topologyType = 2
	topoTypeTriangle topologyType = 3
)

func convTopologyType(t rhi.PrimitiveType) topologyType {
	switch t {
	case rhi.PrimitivePoint:
		return topoTypePoint
	case rhi.PrimitiveLine, rhi.PrimitiveLineStrip:
		return topoTypeLine
	default:
		return topoTypeTriangle
	}
}

type primitiveTopology uint32

const (
	topoPointList     primitiveTopology = 1
	topoLineList      primitiveTopology = 2
	topoLineStrip     primitiveTopology = 3
	topoTriangleList  primitiveTopology = 4
	topoTriangleStrip primitiveTopology = 5
)

func convTopology(t rhi.PrimitiveType) primitiveTopology {
	switch t {
	case rhi.PrimitivePoint:
		return topoPointList
	case rhi.PrimitiveLine:
		return topoLineList
	case rhi.PrimitiveLineStrip:
		return topoLineStrip
	case rhi.PrimitiveTriangleStrip:
		return topoTriangleStrip
	default:
		return topoTriangleList
	}
}

// DXGI_FORMAT subset used by formatTable in conv.go.
type dxgiFormat uint32

const (
	fmtUnknown           dxgiFormat = 0
	fmtR32G32B32A32Float dxgiFormat = 2
	fmtR32G32Float       dxgiFormat = 16
	fmtR32Float          dxgiFormat = 41
	fmtR32Uint           dxgiFormat = 42
	fmtR32Sint           dxgiFormat = 43
	fmtR16G16B16A16Float dxgiFormat = 10
	fmtR16G16Float       dxgiFormat = 34
	fmtR16Float          dxgiFormat = 54
	fmtR8G8B8A8Unorm     dxgiFormat = 28
	fmtR8G8B8A8UnormSRGB dxgiFormat = 29
	fmtR8G8B8A8Snorm     dxgiFormat = 31
	fmtB8G8R8A8Unorm     dxgiFormat = 87
	fmtB8G8R8A8UnormSRGB dxgiFormat = 91
	fmtR8G8Unorm         dxgiFormat = 49
	fmtR8G8Snorm         dxgiFormat = 51
	fmtR8Unorm           dxgiFormat = 61
	fmtR8Snorm           dxgiFormat = 63
	fmtD16Unorm          dxgiFormat = 55
	fmtD32Float          dxgiFormat = 40
	fmtD24UnormS8Uint    dxgiFormat = 45
	fmtD32FloatS8Uint    dxgiFormat = 20
	fmtR32G32B32A32Uint  dxgiFormat = 3
	fmtR32G32B32Uint     dxgiFormat = 7
	fmtR32G32Uint        dxgiFormat = 17
	fmtR32G32B32A32Sint  dxgiFormat = 4
	fmtR32G32B32Sint     dxgiFormat = 8
	fmtR32G32Sint        dxgiFormat = 18
	fmtR32G32B32Float    dxgiFormat = 6
	fmtR8G8B8A8Uint      dxgiFormat = 30
	fmtR8G8B8A8Sint      dxgiFormat = 32
)

// Resource flags (D3D12_RESOURCE_FLAGS).
type resourceFlags uint32

const (
	resFlagNone           resourceFlags = 0
	resFlagRenderTarget   resourceFlags = 0x1
	resFlagDepthStencil   resourceFlags = 0x2
	resFlagUnorderedAccess resourceFlags = 0x4
)

func convTextureResFlags(u rhi.TextureUsage) resourceFlags {
	var f resourceFlags
	if u&rhi.TexUsageRenderTarget != 0 {
		f |= resFlagRenderTarget
	}
	if u&rhi.TexUsageDepthStencil != 0 {
		f |= resFlagDepthStencil
	}
	if u&rhi.TexUsageUnorderedAccess != 0 {
		f |= resFlagUnorderedAccess
	}
	return f
}

func convBufferResFlags(u rhi.Usage) resourceFlags {
	if u&rhi.UsageUnorderedAccess != 0 {
		return resFlagUnorderedAccess
	}
	return resFlagNone
}

// Resource dimension (D3D12_RESOURCE_DIMENSION).
type resourceDimension int32

const (
	resDimBuffer resourceDimension = 1
	resDimTex1D  resourceDimension = 2
	resDimTex2D  resourceDimension = 3
	resDimTex3D  resourceDimension = 4
)

func convResourceDimension(d rhi.TextureDim) resourceDimension {
	if d == rhi.TexDim3D {
		return resDimTex3D
	}
	return resDimTex2D
}

// rect/box/viewport native layouts.
type nativeViewport struct {
	TopLeftX, TopLeftY, Width, Height, MinDepth, MaxDepth float32
}

type nativeRect struct {
	Left, Top, Right, Bottom int32
}

// Common GUIDs for the interfaces rhi/dx queries/creates against.
var (
	iidIDXGIFactory4       = mkguid(0x1bc6ea02, 0xef36, 0x464f, 0xbf, 0x0c, 0x21, 0xca, 0x39, 0xe5, 0x16, 0x8a)
	iidID3D12Device        = mkguid(0x189819f1, 0x1db6, 0x4b57, 0xbe, 0x54, 0x18, 0x21, 0x33, 0x9b, 0x85, 0xf7)
	iidID3D12CommandQueue  = mkguid(0x0ec870a6, 0x5d7e, 0x4c22, 0x8c, 0xfc, 0x5b, 0xaa, 0xe0, 0x76, 0x16, 0xed)
	iidID3D12Fence         = mkguid(0x0a753dcf, 0xc4d8, 0x4b91, 0xad, 0xf6, 0xbe, 0x5a, 0x60, 0xd9, 0x5a, 0x76)
	iidID3D12Resource      = mkguid(0x696442be, 0xa29f, 0x4685, 0xa8, 0xf7, 0xf4, 0x1e, 0x6f, 0xab, 0x50, 0x3b)
	iidID3D12Heap          = mkguid(0x6b3b2502, 0x6e51, 0x45b3, 0x90, 0xee, 0x98, 0x84, 0x26, 0x5e, 0x8d, 0xf3)
	iidID3D12DescriptorHeap = mkguid(0x8efb471d, 0x616c, 0x4f49, 0x90, 0xf7, 0x12, 0x7b, 0xb7, 0x63, 0xfa, 0x51)
	iidID3D12CommandAllocator = mkguid(0x6102dee4, 0xaf59, 0x4b09, 0xb9, 0x99, 0xb4, 0x4d, 0x73, 0xf0, 0x9b, 0x24)
	iidID3D12GraphicsCommandList = mkguid(0x5b160d0f, 0xac1b, 0x4185, 0x8b, 0xa8, 0xb3, 0xae, 0x42, 0xa5, 0xa4, 0x55)
	iidID3D12RootSignature = mkguid(0xc54a6b66, 0x72df, 0x4ee8, 0x8b, 0xe5, 0xa9, 0x46, 0xa1, 0x42, 0x92, 0x14)
	iidID3D12PipelineState = mkguid(0x765a30f3, 0xf624, 0x4c6f, 0xa8, 0x28, 0xac, 0xe9, 0x48, 0x62, 0x24, 0x45)
	iidIDXGISwapChain4     = mkguid(0x3d585d5a, 0xbd4a, 0x489e, 0xb1, 0xf4, 0x3d, 0xbc, 0xb6, 0x45, 0x2f, 0xfb)
	iidID3D12Device5       = mkguid(0x8b4f173b, 0x2fea, 0x4b80, 0x8f, 0x58, 0x43, 0x07, 0x19, 0x1a, 0xb9, 0x5d)
)

func hresultOf(r uintptr) HRESULT { return HRESULT(r) }

func unsafeGUID(g *guid) unsafe.Pointer { return unsafe.Pointer(g) }
