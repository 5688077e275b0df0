// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import (
	"unsafe"

	"github.com/argent-engine/rhi"
	"github.com/argent-engine/rhi/internal/descalloc"
)

// cpuDescriptorHandle is a D3D12_CPU_DESCRIPTOR_HANDLE: a literal
// pointer-sized value into a descriptor heap's CPU-visible range.
// Unlike rhi/vk, which resolves a DescriptorHandle back to a native
// VkImageView through a side table, rhi/dx stores these directly:
// the handle value itself is all a later CreateXxxView or
// OMSetRenderTargets call needs.
type cpuDescriptorHandle uintptr

// gpuDescriptorHandle is a D3D12_GPU_DESCRIPTOR_HANDLE, valid only
// for shader-visible heaps; used by SetGraphicsRootDescriptorTable.
type gpuDescriptorHandle uint64

type descriptorHeapDesc struct {
	Type           int32
	NumDescriptors uint32
	Flags          uint32
	NodeMask       uint32
}

// descriptorHeap wraps ID3D12DescriptorHeap.
type descriptorHeap struct{ unknown }

const (
	slotHeapGetCPUHandleForHeapStart uintptr = 9
	slotHeapGetGPUHandleForHeapStart uintptr = 10
)

func (h *descriptorHeap) cpuStart() cpuDescriptorHandle {
	r, _ := vcall(h.this(), slotHeapGetCPUHandleForHeapStart)
	return cpuDescriptorHandle(r)
}

func (h *descriptorHeap) gpuStart() gpuDescriptorHandle {
	r, _ := vcall(h.this(), slotHeapGetGPUHandleForHeapStart)
	return gpuDescriptorHandle(r)
}

// nativeHeap is the descalloc.Factory handle type for rhi/dx: one
// ID3D12DescriptorHeap plus the per-descriptor stride D3D12 requires
// callers to track themselves (GetDescriptorHandleIncrementSize).
type nativeHeap struct {
	heap          *descriptorHeap
	kind          descHeapKind
	stride        uint32
	cpuBase       cpuDescriptorHandle
	gpuBase       gpuDescriptorHandle
	shaderVisible bool
}

type heapFactory struct {
	dv   *Device
	kind descHeapKind
}

func (f *heapFactory) NewHeap(capacity int, shaderVisible bool) (*nativeHeap, error) {
	flags := uint32(0)
	if shaderVisible {
		flags = 1 // D3D12_DESCRIPTOR_HEAP_FLAG_SHADER_VISIBLE
	}
	desc := &descriptorHeapDesc{
		Type:           int32(f.kind),
		NumDescriptors: uint32(capacity),
		Flags:          flags,
	}
	h, err := f.dv.dev.CreateDescriptorHeap(desc)
	if err != nil {
		return nil, err
	}
	stride := f.dv.dev.GetDescriptorHandleIncrementSize(f.kind)
	nh := &nativeHeap{heap: h, kind: f.kind, stride: stride, cpuBase: h.cpuStart(), shaderVisible: shaderVisible}
	if shaderVisible {
		nh.gpuBase = h.gpuStart()
	}
	return nh, nil
}

func (f *heapFactory) DestroyHeap(h *nativeHeap) { h.heap.Release() }

func (h *nativeHeap) cpuHandle(slot int) cpuDescriptorHandle {
	return h.cpuBase + cpuDescriptorHandle(uint32(slot)*h.stride)
}

func (h *nativeHeap) gpuHandle(slot int) gpuDescriptorHandle {
	return h.gpuBase + gpuDescriptorHandle(uint32(slot)*h.stride)
}

// descHeap implements rhi.DescHeap as a thin handle back into the
// owning descriptorManager's bookkeeping, mirroring rhi/vk's descHeap
// but additionally carrying the heap index needed to resolve a CPU
// descriptor handle.
type descHeap struct {
	typ           rhi.DescHeapType
	heapIndex     int // -1 selects the pinned shader-visible heap
	capacity      int
	shaderVisible bool
}

func (h *descHeap) Destroy()              {}
func (h *descHeap) Type() rhi.DescHeapType { return h.typ }
func (h *descHeap) Capacity() int          { return h.capacity }
func (h *descHeap) DescriptorSize() int    { return 1 }
func (h *descHeap) ShaderVisible() bool    { return h.shaderVisible }

// descriptorManager implements rhi.DescriptorManager over four
// descalloc.Manager instances, one per DescHeapType, exactly as
// rhi/vk does — but unlike vk, CopyDescriptors and
// BindShaderVisibleHeaps are real operations here rather than no-ops,
// since D3D12 requires descriptor-table contents to be copied into a
// shader-visible heap and that heap to be bound explicitly.
type descriptorManager struct {
	dv       *Device
	managers [4]*descalloc.Manager[*nativeHeap]
}

func newDescriptorManager(dv *Device) *descriptorManager {
	kinds := [4]descHeapKind{descHeapKindCBVSRVUAV, descHeapKindSampler, descHeapKindRTV, descHeapKindDSV}
	dm := &descriptorManager{dv: dv}
	for i, k := range kinds {
		dm.managers[i] = descalloc.New[*nativeHeap](&heapFactory{dv: dv, kind: k})
	}
	return dm
}

func (m *descriptorManager) Allocate(typ rhi.DescHeapType, count int) (rhi.DescriptorHandle, error) {
	s, err := m.managers[typ].Allocate(count)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	return rhi.DescriptorHandle{Heap: &descHeap{typ: typ, heapIndex: s.HeapIndex, capacity: count}, Slot: s.Offset}, nil
}

func (m *descriptorManager) Free(h rhi.DescriptorHandle, count int) {
	dh, ok := h.Heap.(*descHeap)
	if !ok {
		return
	}
	m.managers[dh.typ].Free(descalloc.Slot{HeapIndex: dh.heapIndex, Offset: h.Slot, Count: count})
}

func (m *descriptorManager) AllocateShaderVisible(typ rhi.DescHeapType, count int) (rhi.DescriptorHandle, error) {
	s, err := m.managers[typ].AllocateShaderVisible(count)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	return rhi.DescriptorHandle{Heap: &descHeap{typ: typ, heapIndex: -1, capacity: count, shaderVisible: true}, Slot: s.Offset}, nil
}

func (m *descriptorManager) FreeShaderVisible(h rhi.DescriptorHandle, count int) {
	dh, ok := h.Heap.(*descHeap)
	if !ok {
		return
	}
	m.managers[dh.typ].FreeShaderVisible(descalloc.Slot{HeapIndex: -1, Offset: h.Slot, Count: count})
}

// CopyDescriptors implements rhi.DescriptorManager: the only path by
// which a staging descriptor becomes visible to a shader, via
// ID3D12Device::CopyDescriptorsSimple.
func (m *descriptorManager) CopyDescriptors(dst rhi.DescriptorHandle, count int, src rhi.DescriptorHandle) {
	dstH, ok1 := dst.Heap.(*descHeap)
	srcH, ok2 := src.Heap.(*descHeap)
	if !ok1 || !ok2 {
		return
	}
	dstNative := m.nativeHeapOf(dstH)
	srcNative := m.nativeHeapOf(srcH)
	if dstNative == nil || srcNative == nil {
		return
	}
	m.dv.dev.CopyDescriptorsSimple(uint32(count), dstNative.cpuHandle(dst.Slot), srcNative.cpuHandle(src.Slot), dstNative.kind)
}

// BindShaderVisibleHeaps implements rhi.DescriptorManager via
// ID3D12GraphicsCommandList::SetDescriptorHeaps against the two
// pinned heaps (CBV/SRV/UAV and Sampler); RTV/DSV heaps are never
// shader-visible and so are never bound this way.
func (m *descriptorManager) BindShaderVisibleHeaps(cl rhi.CmdList) {
	c, ok := cl.(*CmdList)
	if !ok {
		return
	}
	heaps := make([]*descriptorHeap, 0, 2)
	if h := m.managers[rhi.DescHeapCBVSRVUAV].PinnedHeap(); h != nil {
		heaps = append(heaps, h.heap)
	}
	if h := m.managers[rhi.DescHeapSampler].PinnedHeap(); h != nil {
		heaps = append(heaps, h.heap)
	}
	c.list.SetDescriptorHeaps(heaps)
}

func (m *descriptorManager) cpuHandle(h rhi.DescriptorHandle) cpuDescriptorHandle {
	dh, ok := h.Heap.(*descHeap)
	if !ok {
		return 0
	}
	n := m.nativeHeapOf(dh)
	if n == nil {
		return 0
	}
	return n.cpuHandle(h.Slot)
}

func (m *descriptorManager) gpuHandle(h rhi.DescriptorHandle) gpuDescriptorHandle {
	dh, ok := h.Heap.(*descHeap)
	if !ok {
		return 0
	}
	n := m.nativeHeapOf(dh)
	if n == nil {
		return 0
	}
	return n.gpuHandle(h.Slot)
}

func (m *descriptorManager) nativeHeapOf(dh *descHeap) *nativeHeap {
	mgr := m.managers[dh.typ]
	if dh.heapIndex == -1 {
		return mgr.PinnedHeap()
	}
	return mgr.Heap(dh.heapIndex)
}

// Sampler implements rhi.Sampler.
type Sampler struct {
	dv *Device
	h  rhi.DescriptorHandle
}

func (s *Sampler) Destroy() { s.dv.descs.Free(s.h, 1) }

// NewSampler implements rhi.Device.
func (dv *Device) NewSampler(s *rhi.Sampling) (rhi.Sampler, error) {
	h, err := dv.descs.Allocate(rhi.DescHeapSampler, 1)
	if err != nil {
		return nil, err
	}
	desc := samplerDesc{
		Filter:   convDXFilter(s.Min, s.Mag, s.Mipmap),
		AddressU: convDXAddrMode(s.AddrU),
		AddressV: convDXAddrMode(s.AddrV),
		AddressW: convDXAddrMode(s.AddrW),
		MinLOD:   s.MinLOD,
		MaxLOD:   s.MaxLOD,
		MaxAnisotropy: uint32(s.MaxAniso),
		ComparisonFunc: convDXCmpFunc(s.Cmp),
	}
	dv.dev.CreateSampler(unsafe.Pointer(&desc), dv.descs.cpuHandle(h))
	return &Sampler{dv: dv, h: h}, nil
}

type samplerDesc struct {
	Filter         uint32
	AddressU       int32
	AddressV       int32
	AddressW       int32
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc int32
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

func convDXFilter(min, mag, mip rhi.Filter) uint32 {
	if min == rhi.FilterLinear && mag == rhi.FilterLinear && mip == rhi.FilterLinear {
		return 0x15 // D3D12_FILTER_MIN_MAG_MIP_LINEAR
	}
	return 0 // D3D12_FILTER_MIN_MAG_MIP_POINT
}

func convDXAddrMode(a rhi.AddrMode) int32 {
	switch a {
	case rhi.AddrMirror:
		return 2
	case rhi.AddrClamp:
		return 3
	default:
		return 1 // WRAP
	}
}

func convDXCmpFunc(f rhi.CmpFunc) int32 {
	switch f {
	case rhi.CmpNever:
		return 1
	case rhi.CmpLess:
		return 2
	case rhi.CmpEqual:
		return 3
	case rhi.CmpLessEqual:
		return 4
	case rhi.CmpGreater:
		return 5
	case rhi.CmpNotEqual:
		return 6
	case rhi.CmpGreaterEqual:
		return 7
	case rhi.CmpAlways:
		return 8
	default:
		return 8
	}
}

// rootSignature wraps ID3D12RootSignature.
type rootSignature struct{ unknown }

// rootParamKind distinguishes the two root-parameter shapes this
// backend emits.
type rootParamKind int

const (
	rootParamTable rootParamKind = iota
	rootParamCBV
)

// rootParamInfo records, per item index into bindingLayout.items, how
// that item was bound into the root signature: as descriptor-table
// root parameter rootIndex (heapType selects which shader-visible heap
// the table's base handle comes from), or as an inline CBV root
// descriptor at rootIndex.
type rootParamInfo struct {
	kind     rootParamKind
	rootIndex int
	heapType  rhi.DescHeapType
}

// bindingLayout implements rhi.BindingLayout by compiling items into a
// serialized root signature: D3D12 has no per-space descriptor-set
// model the way rhi/vk does, so every non-promoted item becomes its
// own single-range descriptor-table root parameter, and lone
// ConstantBuffer items are promoted to inline CBV root descriptors up
// to rhi.MaxInlineCBVs, capped overall at rhi.MaxRootSignatureDWords.
type bindingLayout struct {
	dv         *Device
	sig        *rootSignature
	items      []rhi.BindingItem
	flags      rhi.BindingLayoutFlags
	rootParams []rootParamInfo
}

func (b *bindingLayout) Destroy()                     { b.sig.Release() }
func (b *bindingLayout) Items() []rhi.BindingItem      { return b.items }
func (b *bindingLayout) Flags() rhi.BindingLayoutFlags { return b.flags }

func heapTypeFor(t rhi.ResourceType) rhi.DescHeapType {
	if t == rhi.ResSampler {
		return rhi.DescHeapSampler
	}
	return rhi.DescHeapCBVSRVUAV
}

// NewBindingLayout implements rhi.Device.
func (dv *Device) NewBindingLayout(items []rhi.BindingItem, flags rhi.BindingLayoutFlags) (rhi.BindingLayout, error) {
	rootParams := make([]rootParamInfo, len(items))
	inlineCBVs := 0
	numTables := 0
	for i, it := range items {
		if it.Type == rhi.ResConstantBuffer && it.NumResources == 1 && inlineCBVs < rhi.MaxInlineCBVs {
			rootParams[i] = rootParamInfo{kind: rootParamCBV, rootIndex: i}
			inlineCBVs++
			continue
		}
		rootParams[i] = rootParamInfo{kind: rootParamTable, rootIndex: i, heapType: heapTypeFor(it.Type)}
		numTables++
	}

	dwords := inlineCBVs*2 + numTables*1
	if dwords > rhi.MaxRootSignatureDWords {
		return nil, rhi.NewError("NewBindingLayout", rhi.InvalidArgument, nil)
	}

	blob := serializeRootSignature(items, rootParams, flags)
	sig, err := dv.dev.CreateRootSignature(blob)
	if err != nil {
		return nil, err
	}
	return &bindingLayout{dv: dv, sig: sig, items: items, flags: flags, rootParams: rootParams}, nil
}

// blob wraps ID3DBlob, the output of D3D12SerializeRootSignature.
type blob struct{ unknown }

const (
	slotBlobGetBufferPointer uintptr = 3
	slotBlobGetBufferSize    uintptr = 4
)

func (b *blob) bytes() []byte {
	p, _ := vcall(b.this(), slotBlobGetBufferPointer)
	n, _ := vcall(b.this(), slotBlobGetBufferSize)
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

// descriptorRange mirrors D3D12_DESCRIPTOR_RANGE. One item always maps
// to exactly one range (NumDescriptors may be > 1 for an array item).
type descriptorRange struct {
	RangeType                         int32
	NumDescriptors                    uint32
	BaseShaderRegister                uint32
	RegisterSpace                     uint32
	OffsetInDescriptorsFromTableStart uint32
}

const offsetAppend uint32 = 0xffffffff

func rangeTypeFor(t rhi.ResourceType) int32 {
	switch t {
	case rhi.ResSampler:
		return 3 // SAMPLER
	case rhi.ResConstantBuffer:
		return 2 // CBV
	case rhi.ResImage, rhi.ResAccelStruct:
		return 1 // UAV
	default:
		return 0 // SRV (ResBuffer, ResTexture)
	}
}

// rootParameter mirrors D3D12_ROOT_PARAMETER: ParameterType selects
// which half of the 16-byte union is populated (DescriptorTable:
// NumRanges+pad+pointer; Descriptor: ShaderRegister+RegisterSpace),
// the same conservative-padding-union idiom image.go's view-desc
// types use for unions this code never needs to read back natively.
type rootParameter struct {
	ParameterType    uint32
	_                uint32
	union            [16]byte
	ShaderVisibility uint32
	_                uint32
}

func tableRootParam(ranges *descriptorRange, numRanges uint32) rootParameter {
	p := rootParameter{ParameterType: 0 /* DESCRIPTOR_TABLE */, ShaderVisibility: 0 /* ALL */}
	*(*uint32)(unsafe.Pointer(&p.union[0])) = numRanges
	*(*uintptr)(unsafe.Pointer(&p.union[8])) = uintptr(unsafe.Pointer(ranges))
	return p
}

func cbvRootParam(shaderRegister, space uint32) rootParameter {
	p := rootParameter{ParameterType: 2 /* CBV */, ShaderVisibility: 0 /* ALL */}
	*(*uint32)(unsafe.Pointer(&p.union[0])) = shaderRegister
	*(*uint32)(unsafe.Pointer(&p.union[4])) = space
	return p
}

// serializeRootSignature builds a D3D12_ROOT_SIGNATURE_DESC with one
// root parameter per entry in rootParams — a descriptor table over a
// single range for rootParamTable items, an inline CBV root
// descriptor for rootParamCBV items — and invokes
// D3D12SerializeRootSignature, returning the resulting blob's bytes.
func serializeRootSignature(items []rhi.BindingItem, rootParams []rootParamInfo, flags rhi.BindingLayoutFlags) []byte {
	ranges := make([]descriptorRange, len(items))
	params := make([]rootParameter, len(items))
	for i, it := range items {
		n := it.NumResources
		if it.Bindless || n <= 0 {
			n = 1
		}
		ranges[i] = descriptorRange{
			RangeType:                         rangeTypeFor(it.Type),
			NumDescriptors:                    uint32(n),
			BaseShaderRegister:                uint32(it.BaseRegister),
			RegisterSpace:                     uint32(it.Space),
			OffsetInDescriptorsFromTableStart: offsetAppend,
		}
		rp := rootParams[i]
		if rp.kind == rootParamCBV {
			params[i] = cbvRootParam(uint32(it.BaseRegister), uint32(it.Space))
		} else {
			params[i] = tableRootParam(&ranges[i], 1)
		}
	}

	desc := struct {
		NumParameters     uint32
		Parameters        uintptr
		NumStaticSamplers uint32
		StaticSamplers    uintptr
		Flags             uint32
	}{}
	if len(params) > 0 {
		desc.NumParameters = uint32(len(params))
		desc.Parameters = uintptr(unsafe.Pointer(&params[0]))
	}
	if flags&rhi.LayoutAllowInputAssembler != 0 {
		desc.Flags |= 0x1
	}
	var out *blob
	var errBlob *blob
	r, _, _ := procD3D12SerializeRootSig.Call(uintptr(unsafe.Pointer(&desc)), 1 /* ROOT_SIGNATURE_VERSION_1 */, uintptr(unsafe.Pointer(&out)), uintptr(unsafe.Pointer(&errBlob)))
	if HRESULT(r).Failed() || out == nil {
		return nil
	}
	defer out.Release()
	return out.bytes()
}
