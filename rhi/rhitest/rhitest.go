// Copyright 2024 The Argent Engine Authors. All rights reserved.

// Package rhitest implements rhi.Driver/rhi.Device entirely in
// process memory: every native handle is a plain Go value, every
// resource's backing store is a []byte slice. It exists so the
// invariants and end-to-end scenarios in spec.md §8 can be exercised
// without a real GPU, the same way the teacher's driver_test.go drives
// driver.GPU directly through a fake implementation rather than a real
// Vulkan instance.
//
// rhitest registers itself as a driver named "rhitest" from init, for
// callers that want to go through rhi.Drivers()/rhi.Register like any
// other backend; most tests instead call NewDevice directly.
package rhitest

import (
	"errors"

	"github.com/argent-engine/rhi"
	"github.com/argent-engine/rhi/internal/descalloc"
	"github.com/argent-engine/rhi/internal/suballoc"
)

func init() {
	rhi.Register(&driver{})
}

type driver struct {
	dev *device
}

func (d *driver) Name() string { return "rhitest" }

func (d *driver) Open() (rhi.Device, error) {
	if d.dev == nil {
		d.dev = newDevice(d)
	}
	return d.dev, nil
}

func (d *driver) Close() { d.dev = nil }

// NewDevice returns a standalone fake Device, bypassing the driver
// registry, for tests that just need something implementing
// rhi.Device.
func NewDevice() rhi.Device {
	d := &driver{}
	d.dev = newDevice(d)
	return d.dev
}

type device struct {
	drv     *driver
	descMgr *descMgr
}

func newDevice(drv *driver) *device {
	return &device{drv: drv, descMgr: newDescMgr()}
}

func (d *device) Driver() rhi.Driver { return d.drv }

func (d *device) Limits() rhi.Limits {
	return rhi.Limits{
		MaxTexture1D:           16384,
		MaxTexture2D:           16384,
		MaxTextureCube:         16384,
		MaxTexture3D:           2048,
		MaxLayers:              2048,
		MaxRenderTargets:       rhi.MaxRenderTargets,
		MaxFBSize:              [2]int{16384, 16384},
		MaxFBLayers:            2048,
		MaxViewports:           16,
		MaxRootSignatureDWords: rhi.MaxRootSignatureDWords,
		MaxInlineCBVs:          rhi.MaxInlineCBVs,
		MaxDispatch:            [3]int{65535, 65535, 65535},
		RayTracingSupported:    true,
		MeshShadingSupported:   true,
	}
}

func (d *device) Descriptors() rhi.DescriptorManager { return d.descMgr }

var (
	errNotVirtual         = errors.New("rhitest: BindMemory called on a non-virtual resource")
	errAlreadyBound       = errors.New("rhitest: BindMemory called more than once")
	errWrongHeapUsage     = errors.New("rhitest: heap usage does not match resource kind")
	errHeapTypeMismatch   = errors.New("rhitest: heap type incompatible with CPUAccess")
	errHeapFull           = errors.New("rhitest: heap has no range large enough for this allocation")
	errNotClosed          = errors.New("rhitest: Commit called with a command list that is not Closed")
	errUnknownPipelineState = errors.New("rhitest: NewPipeline: state must be one of the four pipeline-state types")
	errAttachmentCountMismatch = errors.New("rhitest: NewFrameBuffer: view count does not match the render pass' attachment count")
	errMissingUsage       = errors.New("rhitest: view creation requires a usage flag the resource was not created with")
	errUnsupportedDimension = errors.New("rhitest: this view type is not valid for the texture's dimension")
)

// ---- Heap (C7) ----

// Heap implements rhi.Heap over an internal/suballoc.Heap, the same
// chunk allocator rhi/vk and rhi/dx wrap their native heap objects
// around.
type Heap struct {
	typ   rhi.HeapType
	usage rhi.HeapUsage
	alloc *suballoc.Heap
}

func (h *Heap) Destroy()                               {}
func (h *Heap) Type() rhi.HeapType                      { return h.typ }
func (h *Heap) Usage() rhi.HeapUsage                    { return h.usage }
func (h *Heap) Size() int64                             { return h.alloc.Size() }
func (h *Heap) Alignment() int64                        { return h.alloc.Alignment() }
func (h *Heap) TryAllocate(size int64) (int64, bool)    { return h.alloc.TryAllocate(size) }
func (h *Heap) Free(offset, size int64)                 { h.alloc.Free(offset, size) }
func (h *Heap) IsEmpty() bool                           { return h.alloc.IsEmpty() }

func (d *device) NewHeap(typ rhi.HeapType, usage rhi.HeapUsage, size, alignment int64) (rhi.Heap, error) {
	return &Heap{typ: typ, usage: usage, alloc: suballoc.New(size, alignment)}, nil
}

func initialStateForHeapType(t rhi.HeapType) rhi.State {
	switch t {
	case rhi.HeapUpload:
		return rhi.State{Access: rhi.AccessAnyRead, Layout: rhi.LayoutGenericRead}
	case rhi.HeapReadback:
		return rhi.State{Access: rhi.AccessCopyWrite, Layout: rhi.LayoutCopyDst}
	default:
		return rhi.State{Access: rhi.AccessNone, Layout: rhi.LayoutCommon}
	}
}

func align256(n int64) int64 { return (n + 255) &^ 255 }

// ---- Sync (C6) ----

// Sampler (C10).
type sampler struct{}

func (s *sampler) Destroy() {}

func (d *device) NewSampler(s *rhi.Sampling) (rhi.Sampler, error) { return &sampler{}, nil }

// ShaderCode (C4/§6).
type shaderCode struct {
	stage rhi.ShaderStage
	entry string
}

func (s *shaderCode) Destroy()                   {}
func (s *shaderCode) Stage() rhi.ShaderStage      { return s.stage }
func (s *shaderCode) EntryPoint() string          { return s.entry }

func (d *device) NewShaderCode(stage rhi.ShaderStage, code *rhi.Blob, entry string) (rhi.ShaderCode, error) {
	if entry == "" {
		entry = "main"
	}
	return &shaderCode{stage: stage, entry: entry}, nil
}

// BindingLayout (C11).
type bindingLayout struct {
	items []rhi.BindingItem
	flags rhi.BindingLayoutFlags
}

func (l *bindingLayout) Destroy()                             {}
func (l *bindingLayout) Items() []rhi.BindingItem              { return l.items }
func (l *bindingLayout) Flags() rhi.BindingLayoutFlags         { return l.flags }

func (d *device) NewBindingLayout(items []rhi.BindingItem, flags rhi.BindingLayoutFlags) (rhi.BindingLayout, error) {
	return &bindingLayout{items: append([]rhi.BindingItem(nil), items...), flags: flags}, nil
}

// Pipeline (C12).
type pipeline struct{ desc any }

func (p *pipeline) Destroy() {}

func (d *device) NewPipeline(state any) (rhi.Pipeline, error) {
	switch state.(type) {
	case *rhi.GraphicsState, *rhi.ComputeState, *rhi.MeshState, *rhi.RayTracingState:
		return &pipeline{desc: state}, nil
	default:
		return nil, rhi.NewError("NewPipeline", rhi.InvalidArgument, errUnknownPipelineState)
	}
}

// RenderPass/FrameBuffer (C13).
type renderPass struct {
	att []rhi.Attachment
}

func (p *renderPass) Destroy() {}

func (p *renderPass) NewFrameBuffer(views []rhi.DescriptorHandle, width, height, layers int) (rhi.FrameBuffer, error) {
	if len(views) != len(p.att) {
		return nil, rhi.NewError("NewFrameBuffer", rhi.InvalidArgument, errAttachmentCountMismatch)
	}
	return &frameBuffer{width: width, height: height, n: len(views)}, nil
}

func (d *device) NewRenderPass(att []rhi.Attachment, sub []rhi.Subpass) (rhi.RenderPass, error) {
	return &renderPass{att: append([]rhi.Attachment(nil), att...)}, nil
}

type frameBuffer struct {
	width, height, n int
}

func (f *frameBuffer) Destroy()               {}
func (f *frameBuffer) Width() int             { return f.width }
func (f *frameBuffer) Height() int            { return f.height }
func (f *frameBuffer) NumRenderTargets() int  { return f.n }

// ResourceSet (C14).
type rsKey struct{ register, space int }

type bufferBinding struct {
	buf      rhi.Buffer
	off, sz  int64
}

type resourceSet struct {
	layout   rhi.BindingLayout
	buffers  map[rsKey]bufferBinding
	textures map[rsKey]rhi.DescriptorHandle
	samplers map[rsKey]rhi.Sampler
	accel    map[rsKey]rhi.AccelStructure
}

func (d *device) NewResourceSet(layout rhi.BindingLayout) (rhi.ResourceSet, error) {
	return &resourceSet{
		layout:   layout,
		buffers:  map[rsKey]bufferBinding{},
		textures: map[rsKey]rhi.DescriptorHandle{},
		samplers: map[rsKey]rhi.Sampler{},
		accel:    map[rsKey]rhi.AccelStructure{},
	}, nil
}

func (r *resourceSet) Destroy()                       {}
func (r *resourceSet) Layout() rhi.BindingLayout       { return r.layout }

func (r *resourceSet) BindBuffer(register, space int, buf rhi.Buffer, off, size int64) {
	r.buffers[rsKey{register, space}] = bufferBinding{buf, off, size}
}

func (r *resourceSet) BindBufferArray(base, space int, buf []rhi.Buffer, off, size []int64) {
	for i := range buf {
		r.BindBuffer(base+i, space, buf[i], off[i], size[i])
	}
}

func (r *resourceSet) BindTexture(register, space int, h rhi.DescriptorHandle) {
	r.textures[rsKey{register, space}] = h
}

func (r *resourceSet) BindTextureArray(base, space int, h []rhi.DescriptorHandle) {
	for i := range h {
		r.BindTexture(base+i, space, h[i])
	}
}

func (r *resourceSet) BindSampler(register, space int, s rhi.Sampler) {
	r.samplers[rsKey{register, space}] = s
}

func (r *resourceSet) BindSamplerArray(base, space int, s []rhi.Sampler) {
	for i := range s {
		r.BindSampler(base+i, space, s[i])
	}
}

func (r *resourceSet) BindAccelStruct(register, space int, as rhi.AccelStructure) {
	r.accel[rsKey{register, space}] = as
}

func (r *resourceSet) SetGraphicsRootArguments(cl rhi.CmdList) {}
func (r *resourceSet) SetComputeRootArguments(cl rhi.CmdList)  {}

// SwapChain (C16).
type swapChain struct {
	dev  *device
	desc rhi.SwapChainDesc
	width, height int
	bufs []*Texture
	idx  int
}

func (d *device) NewSwapChain(desc rhi.SwapChainDesc) (rhi.SwapChain, error) {
	n := desc.BufferCount
	if n <= 0 {
		n = 2
	}
	sc := &swapChain{dev: d, desc: desc, width: desc.Width, height: desc.Height}
	for i := 0; i < n; i++ {
		sc.bufs = append(sc.bufs, newBackBuffer(d, desc))
	}
	return sc, nil
}

func newBackBuffer(d *device, desc rhi.SwapChainDesc) *Texture {
	td := rhi.TextureDesc{
		Dimension: rhi.TexDim2D,
		Format:    desc.Format,
		Width:     desc.Width,
		Height:    desc.Height,
		Depth:     1,
		ArraySize: 1,
		MipLevels: 1,
		SampleCount: 1,
		Usage:     rhi.TexUsageRenderTarget,
	}
	t := newTexture(d, td)
	t.data = make([]byte, textureByteSize(td))
	t.initial = rhi.State{Access: rhi.AccessPresent, Layout: rhi.LayoutPresent}
	return t
}

func (s *swapChain) Destroy() {
	for _, t := range s.bufs {
		t.Destroy()
	}
}

func (s *swapChain) Width() int         { return s.width }
func (s *swapChain) Height() int        { return s.height }
func (s *swapChain) BufferCount() int   { return len(s.bufs) }
func (s *swapChain) CurrentIndex() int  { return s.idx }
func (s *swapChain) BackBuffer(i int) rhi.Texture { return s.bufs[i] }

func (s *swapChain) Present() error {
	s.idx = (s.idx + 1) % len(s.bufs)
	return nil
}

func (s *swapChain) Resize(width, height int) error {
	s.width, s.height = width, height
	for i, t := range s.bufs {
		td := t.desc
		td.Width, td.Height = width, height
		nt := newTexture(s.dev, td)
		nt.data = make([]byte, textureByteSize(td))
		nt.initial = t.initial
		s.bufs[i] = nt
	}
	return nil
}

// AccelStructure + ShaderTable (C17).
type accelStructure struct {
	dev         *device
	typ         rhi.AccelStructureType
	storage     rhi.Buffer
	scratchSize int64
	addr        uint64
}

var nextAccelAddr uint64 = 0x10000

func (d *device) NewAccelStructure(desc *rhi.AccelStructureDesc) (rhi.AccelStructure, error) {
	var size int64 = 1024
	switch desc.Type {
	case rhi.BottomLevel:
		size = int64(len(desc.Geometries))*4096 + 1024
	case rhi.TopLevel:
		size = int64(desc.InstanceCount)*64 + 1024
	}
	storage, err := d.NewBuffer(rhi.BufferDesc{Size: size, Usage: rhi.UsageAccelStructStorage, Name: desc.Name})
	if err != nil {
		return nil, err
	}
	nextAccelAddr += uint64(size)
	return &accelStructure{dev: d, typ: desc.Type, storage: storage, scratchSize: size/2 + 256, addr: nextAccelAddr}, nil
}

func (a *accelStructure) Destroy()                             { a.storage.Destroy() }
func (a *accelStructure) Type() rhi.AccelStructureType          { return a.typ }
func (a *accelStructure) ScratchBufferSize() int64              { return a.scratchSize }
func (a *accelStructure) DeviceAddress() uint64                 { return a.addr }

func (a *accelStructure) NewScratchBuffer() (rhi.Buffer, error) {
	return a.dev.NewBuffer(rhi.BufferDesc{Size: a.scratchSize, Usage: rhi.UsageUnorderedAccess})
}

func (d *device) NewShaderTable(desc *rhi.ShaderTableDesc) (*rhi.ShaderTable, error) {
	maxID := len(desc.RayGenIdentifier)
	for _, m := range desc.MissIdentifiers {
		if len(m) > maxID {
			maxID = len(m)
		}
	}
	for _, h := range desc.HitGroupIdentifiers {
		if len(h) > maxID {
			maxID = len(h)
		}
	}
	for _, c := range desc.CallableIdentifiers {
		if len(c) > maxID {
			maxID = len(c)
		}
	}
	stride := int64(rhi.ShaderRecordStride(maxID))
	missCount := int64(len(desc.MissIdentifiers))
	hitCount := int64(len(desc.HitGroupIdentifiers))
	callCount := int64(len(desc.CallableIdentifiers))
	total := stride * (1 + missCount + hitCount + callCount)

	buf, err := d.NewBuffer(rhi.BufferDesc{Size: total, Usage: rhi.UsageShaderTable, Name: desc.Name})
	if err != nil {
		return nil, err
	}

	off := int64(0)
	rg := rhi.ShaderRecord{StartAddress: uint64(off), Stride: uint64(stride), Size: uint64(stride)}
	off += stride
	ms := rhi.ShaderRecord{StartAddress: uint64(off), Stride: uint64(stride), Size: uint64(stride * missCount)}
	off += stride * missCount
	hg := rhi.ShaderRecord{StartAddress: uint64(off), Stride: uint64(stride), Size: uint64(stride * hitCount)}
	off += stride * hitCount
	cb := rhi.ShaderRecord{StartAddress: uint64(off), Stride: uint64(stride), Size: uint64(stride * callCount)}

	return &rhi.ShaderTable{Buffer: buf, RayGen: rg, Miss: ms, HitGroup: hg, Callable: cb}, nil
}

// ---- DescriptorManager (C9) ----

type fakeHeapHandle struct{ id int }

type heapFactory struct{ counter *int }

func (f *heapFactory) NewHeap(capacity int, shaderVisible bool) (*fakeHeapHandle, error) {
	*f.counter++
	return &fakeHeapHandle{id: *f.counter}, nil
}

func (f *heapFactory) DestroyHeap(h *fakeHeapHandle) {}

// descHeap implements rhi.DescHeap as a thin (type, staging-index)
// pair; -1 denotes the pinned shader-visible heap, matching the
// HeapIndex convention descalloc.Slot already uses.
type descHeap struct {
	typ rhi.DescHeapType
	idx int
}

func (h *descHeap) Destroy()                    {}
func (h *descHeap) Type() rhi.DescHeapType       { return h.typ }
func (h *descHeap) Capacity() int                { return 0 }
func (h *descHeap) DescriptorSize() int          { return 1 }
func (h *descHeap) ShaderVisible() bool          { return h.idx == -1 }

type descMgr struct {
	mgrs     [4]*descalloc.Manager[*fakeHeapHandle]
	counters [4]int
	heaps    map[descHeap]*descHeap
}

// heap returns the one *descHeap for (typ, idx), so handles into the
// same heap compare equal.
func (m *descMgr) heap(typ rhi.DescHeapType, idx int) *descHeap {
	k := descHeap{typ: typ, idx: idx}
	if h, ok := m.heaps[k]; ok {
		return h
	}
	if m.heaps == nil {
		m.heaps = map[descHeap]*descHeap{}
	}
	h := &descHeap{typ: typ, idx: idx}
	m.heaps[k] = h
	return h
}

func newDescMgr() *descMgr {
	m := &descMgr{}
	for i := range m.mgrs {
		m.mgrs[i] = descalloc.New[*fakeHeapHandle](&heapFactory{counter: &m.counters[i]})
	}
	return m
}

func (m *descMgr) Allocate(typ rhi.DescHeapType, count int) (rhi.DescriptorHandle, error) {
	s, err := m.mgrs[typ].Allocate(count)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	return rhi.DescriptorHandle{Heap: m.heap(typ, s.HeapIndex), Slot: s.Offset}, nil
}

func (m *descMgr) Free(h rhi.DescriptorHandle, count int) {
	dh, ok := h.Heap.(*descHeap)
	if !ok {
		return
	}
	m.mgrs[dh.typ].Free(descalloc.Slot{HeapIndex: dh.idx, Offset: h.Slot, Count: count})
}

func (m *descMgr) AllocateShaderVisible(typ rhi.DescHeapType, count int) (rhi.DescriptorHandle, error) {
	s, err := m.mgrs[typ].AllocateShaderVisible(count)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	return rhi.DescriptorHandle{Heap: m.heap(typ, -1), Slot: s.Offset}, nil
}

func (m *descMgr) FreeShaderVisible(h rhi.DescriptorHandle, count int) {
	dh, ok := h.Heap.(*descHeap)
	if !ok {
		return
	}
	m.mgrs[dh.typ].FreeShaderVisible(descalloc.Slot{HeapIndex: -1, Offset: h.Slot, Count: count})
}

func (m *descMgr) CopyDescriptors(dst rhi.DescriptorHandle, count int, src rhi.DescriptorHandle) {}
func (m *descMgr) BindShaderVisibleHeaps(cl rhi.CmdList)                                          {}
