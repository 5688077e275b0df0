// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import (
	"sync"
	"unsafe"

	"github.com/argent-engine/rhi"
)

const driverName = "d3d12"

// Driver implements rhi.Driver over Direct3D12.
type Driver struct {
	factory *factory
}

func init() {
	rhi.Register(&Driver{})
}

func (d *Driver) Name() string { return driverName }

// Open implements rhi.Driver: creates a DXGI factory (if not already
// open), walks hardware adapters in enumeration order, and opens the
// first one D3D12CreateDevice accepts at feature level 11_0.
func (d *Driver) Open() (rhi.Device, error) {
	if err := modD3D12.Load(); err != nil {
		return nil, rhi.ErrNotInstalled
	}
	if err := modDXGI.Load(); err != nil {
		return nil, rhi.ErrNotInstalled
	}
	if d.factory == nil {
		f, err := createDXGIFactory2(0)
		if err != nil {
			return nil, err
		}
		d.factory = f
	}

	var chosen *adapter
	for i := uint32(0); ; i++ {
		a, err := d.factory.EnumAdapters1(i)
		if err != nil {
			break
		}
		if err := d3D12CreateDeviceTest(a); err != nil {
			a.Release()
			continue
		}
		chosen = a
		break
	}
	if chosen == nil {
		return nil, rhi.ErrNoDevice
	}

	dev, err := d3D12CreateDevice(chosen)
	if err != nil {
		return nil, err
	}

	device := &Device{
		driver:  d,
		adapter: chosen,
		dev:     dev,
	}
	for q := rhi.QueueDirect; q <= rhi.QueueCompute; q++ {
		cq, err := dev.CreateCommandQueue(convQueueType(q))
		if err != nil {
			return nil, err
		}
		device.queues[q] = cq
	}
	device.descs = newDescriptorManager(device)
	device.limits = rhi.Limits{
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
	return device, nil
}

func (d *Driver) Close() {
	if d.factory != nil {
		d.factory.Release()
		d.factory = nil
	}
}

// Device implements rhi.Device over one ID3D12Device and its three
// native command queues (Direct, Copy, Compute) — unlike rhi/vk,
// whose single queue family serves every rhi.QueueType, D3D12
// exposes genuinely independent hardware queues and the driver maps
// rhi.QueueType onto them one-to-one.
type Device struct {
	driver  *Driver
	adapter *adapter
	dev     *d3dDevice
	queues  [3]*commandQueue
	limits  rhi.Limits

	submitMu sync.Mutex
	descs    *descriptorManager
	indirect indirectSignatures
}

func (dv *Device) Driver() rhi.Driver                 { return dv.driver }
func (dv *Device) Limits() rhi.Limits                 { return dv.limits }
func (dv *Device) Descriptors() rhi.DescriptorManager { return dv.descs }

// Commit implements rhi.Device: any recorded queue waits are issued
// first (D3D12 has no batched wait-before-submit the way
// vkQueueSubmit's waitSemaphore list does, so each is its own
// CommandQueue::Wait call), then one ExecuteCommandLists call for
// every list, then the recorded queue signals and finally signal if
// non-nil.
func (dv *Device) Commit(queue rhi.QueueType, cl []rhi.CmdList, signal rhi.Fence) error {
	dv.submitMu.Lock()
	defer dv.submitMu.Unlock()

	lists := make([]*graphicsCommandList, 0, len(cl))
	var waits, signals []*Semaphore
	for _, l := range cl {
		c := l.(*CmdList)
		lists = append(lists, c.list)
		waits = append(waits, c.waits...)
		signals = append(signals, c.signals...)
	}
	q := dv.queues[queue]

	for _, s := range waits {
		if err := q.Wait(s.native, s.value); err != nil {
			return err
		}
	}
	if err := q.ExecuteCommandLists(lists); err != nil {
		return err
	}
	for _, s := range signals {
		s.value++
		if err := q.Signal(s.native, s.value); err != nil {
			return err
		}
	}
	if signal != nil {
		f := signal.(*Fence)
		v, _ := f.Value()
		if err := q.Signal(f.native, v+1); err != nil {
			return err
		}
	}
	return nil
}

func createDXGIFactory2(flags uint32) (*factory, error) {
	var out *factory
	r, _, _ := procCreateDXGIFactory2.Call(uintptr(flags), uintptr(unsafeGUID(&iidIDXGIFactory4)), uintptr(unsafe.Pointer(&out)))
	if hr := hresultOf(r); hr.Failed() {
		return nil, dxError("CreateDXGIFactory2", hr)
	}
	return out, nil
}

func d3D12CreateDeviceTest(a *adapter) error {
	r, _, _ := procD3D12CreateDevice.Call(uintptr(unsafe.Pointer(a)), 0xb000 /* D3D_FEATURE_LEVEL_11_0 */, uintptr(unsafeGUID(&iidID3D12Device)), 0)
	return dxCheck("D3D12CreateDevice", hresultOf(r))
}

func d3D12CreateDevice(a *adapter) (*d3dDevice, error) {
	var out *d3dDevice
	r, _, _ := procD3D12CreateDevice.Call(uintptr(unsafe.Pointer(a)), 0xb000, uintptr(unsafeGUID(&iidID3D12Device)), uintptr(unsafe.Pointer(&out)))
	if hr := hresultOf(r); hr.Failed() {
		return nil, dxError("D3D12CreateDevice", hr)
	}
	return out, nil
}

// factory wraps IDXGIFactory4.
type factory struct{ unknown }

func (f *factory) EnumAdapters1(index uint32) (*adapter, error) {
	var out *adapter
	r, err := vcall(f.this(), 7, uintptr(index), uintptr(unsafe.Pointer(&out)))
	_ = err
	if hr := hresultOf(r); hr.Failed() {
		return nil, dxError("EnumAdapters1", hr)
	}
	return out, nil
}

// adapter wraps IDXGIAdapter1.
type adapter struct{ unknown }

// d3dDevice wraps ID3D12Device.
type d3dDevice struct{ unknown }

const (
	slotDeviceCreateCommandQueue       uintptr = 8
	slotDeviceCreateCommandAllocator   uintptr = 9
	slotDeviceCreateGraphicsPipeline   uintptr = 10
	slotDeviceCreateComputePipeline    uintptr = 11
	slotDeviceCreateCommandList        uintptr = 12
	slotDeviceCreateDescriptorHeap     uintptr = 14
	slotDeviceGetDescriptorHandleIncr  uintptr = 15
	slotDeviceCreateRootSignature      uintptr = 16
	slotDeviceCreateConstantBufferView uintptr = 17
	slotDeviceCreateShaderResourceView uintptr = 18
	slotDeviceCreateUnorderedAccessView uintptr = 19
	slotDeviceCreateRenderTargetView   uintptr = 20
	slotDeviceCreateDepthStencilView   uintptr = 21
	slotDeviceCreateSampler            uintptr = 22
	slotDeviceCopyDescriptors          uintptr = 23
	slotDeviceGetResourceAllocationInfo uintptr = 25
	slotDeviceCreateCommittedResource  uintptr = 27
	slotDeviceCreateHeap               uintptr = 28
	slotDeviceCreatePlacedResource     uintptr = 29
	slotDeviceCreateFence              uintptr = 36
)

func (d *d3dDevice) CreateCommandQueue(typ cmdListType) (*commandQueue, error) {
	desc := struct {
		Type     int32
		Priority int32
		Flags    uint32
		NodeMask uint32
	}{Type: int32(typ)}
	var out *commandQueue
	hr := hrcall(d.this(), slotDeviceCreateCommandQueue, ptr(desc), uintptr(unsafeGUID(&iidID3D12CommandQueue)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateCommandQueue", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateCommandAllocator(typ cmdListType) (*commandAllocator, error) {
	var out *commandAllocator
	hr := hrcall(d.this(), slotDeviceCreateCommandAllocator, uintptr(typ), uintptr(unsafeGUID(&iidID3D12CommandAllocator)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateCommandAllocator", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateCommandList(typ cmdListType, alloc *commandAllocator) (*graphicsCommandList, error) {
	var out *graphicsCommandList
	hr := hrcall(d.this(), slotDeviceCreateCommandList, 0, uintptr(typ), uintptr(unsafe.Pointer(alloc)), 0, uintptr(unsafeGUID(&iidID3D12GraphicsCommandList)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateCommandList", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateFence(initial uint64) (*fence, error) {
	var out *fence
	hr := hrcall(d.this(), slotDeviceCreateFence, uintptr(initial), 0, uintptr(unsafeGUID(&iidID3D12Fence)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateFence", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateDescriptorHeap(desc *descriptorHeapDesc) (*descriptorHeap, error) {
	var out *descriptorHeap
	hr := hrcall(d.this(), slotDeviceCreateDescriptorHeap, uintptr(unsafe.Pointer(desc)), uintptr(unsafeGUID(&iidID3D12DescriptorHeap)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateDescriptorHeap", hr)
	}
	return out, nil
}

func (d *d3dDevice) GetDescriptorHandleIncrementSize(kind descHeapKind) uint32 {
	r, _ := vcall(d.this(), slotDeviceGetDescriptorHandleIncr, uintptr(kind))
	return uint32(r)
}

func (d *d3dDevice) CreateRootSignature(blob []byte) (*rootSignature, error) {
	var out *rootSignature
	hr := hrcall(d.this(), slotDeviceCreateRootSignature, 0, uintptr(unsafe.Pointer(&blob[0])), uintptr(len(blob)), uintptr(unsafeGUID(&iidID3D12RootSignature)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateRootSignature", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateGraphicsPipelineState(desc unsafe.Pointer) (*pipelineState, error) {
	var out *pipelineState
	hr := hrcall(d.this(), slotDeviceCreateGraphicsPipeline, uintptr(desc), uintptr(unsafeGUID(&iidID3D12PipelineState)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateGraphicsPipelineState", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateComputePipelineState(desc unsafe.Pointer) (*pipelineState, error) {
	var out *pipelineState
	hr := hrcall(d.this(), slotDeviceCreateComputePipeline, uintptr(desc), uintptr(unsafeGUID(&iidID3D12PipelineState)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateComputePipelineState", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateCommittedResource(heapType heapType, desc *resourceDesc, state resourceStates) (*resource, error) {
	heapProps := struct {
		Type                 int32
		CPUPageProperty      int32
		MemoryPoolPreference int32
		CreationNodeMask     uint32
		VisibleNodeMask      uint32
	}{Type: int32(heapType)}
	var out *resource
	hr := hrcall(d.this(), slotDeviceCreateCommittedResource, ptr(heapProps), 0, uintptr(unsafe.Pointer(desc)), uintptr(state), 0, uintptr(unsafeGUID(&iidID3D12Resource)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateCommittedResource", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateHeap(size int64, alignment int64) (*nativeHeapHandle, error) {
	desc := struct {
		Size       uint64
		Props      [5]uint32
		Alignment  uint64
		Flags      uint32
		_          uint32
	}{Size: uint64(size), Alignment: uint64(alignment)}
	var out *nativeHeapHandle
	hr := hrcall(d.this(), slotDeviceCreateHeap, uintptr(unsafe.Pointer(&desc)), uintptr(unsafeGUID(&iidID3D12Heap)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreateHeap", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreatePlacedResource(h *nativeHeapHandle, offset int64, desc *resourceDesc, state resourceStates) (*resource, error) {
	var out *resource
	hr := hrcall(d.this(), slotDeviceCreatePlacedResource, uintptr(unsafe.Pointer(h)), uintptr(offset), uintptr(unsafe.Pointer(desc)), uintptr(state), 0, uintptr(unsafeGUID(&iidID3D12Resource)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("CreatePlacedResource", hr)
	}
	return out, nil
}

func (d *d3dDevice) CreateConstantBufferView(desc unsafe.Pointer, dst cpuDescriptorHandle) {
	vcall(d.this(), slotDeviceCreateConstantBufferView, uintptr(desc), uintptr(dst))
}

func (d *d3dDevice) CreateShaderResourceView(res *resource, desc unsafe.Pointer, dst cpuDescriptorHandle) {
	vcall(d.this(), slotDeviceCreateShaderResourceView, uintptr(unsafe.Pointer(res)), uintptr(desc), uintptr(dst))
}

func (d *d3dDevice) CreateUnorderedAccessView(res *resource, desc unsafe.Pointer, dst cpuDescriptorHandle) {
	vcall(d.this(), slotDeviceCreateUnorderedAccessView, uintptr(unsafe.Pointer(res)), 0, uintptr(desc), uintptr(dst))
}

func (d *d3dDevice) CreateRenderTargetView(res *resource, desc unsafe.Pointer, dst cpuDescriptorHandle) {
	vcall(d.this(), slotDeviceCreateRenderTargetView, uintptr(unsafe.Pointer(res)), uintptr(desc), uintptr(dst))
}

func (d *d3dDevice) CreateDepthStencilView(res *resource, desc unsafe.Pointer, dst cpuDescriptorHandle) {
	vcall(d.this(), slotDeviceCreateDepthStencilView, uintptr(unsafe.Pointer(res)), uintptr(desc), uintptr(dst))
}

func (d *d3dDevice) CreateSampler(desc unsafe.Pointer, dst cpuDescriptorHandle) {
	vcall(d.this(), slotDeviceCreateSampler, uintptr(desc), uintptr(dst))
}

func (d *d3dDevice) CopyDescriptorsSimple(count uint32, dst, src cpuDescriptorHandle, kind descHeapKind) {
	vcall(d.this(), slotDeviceCopyDescriptors, uintptr(count), uintptr(dst), uintptr(src), uintptr(kind))
}

// resourceAllocationInfo mirrors D3D12_RESOURCE_ALLOCATION_INFO.
type resourceAllocationInfo struct {
	sizeInBytes int64
	alignment   int64
}

// GetResourceAllocationInfo returns the size/alignment a placed
// resource of desc requires within a heap, used by BindMemory to size
// its ID3D12Heap sub-allocation request. ID3D12Device::
// GetResourceAllocationInfo returns its result by value (a
// caller-allocated hidden return pointer in the native x64 ABI, since
// the struct exceeds two registers); the hidden pointer is passed as
// the first real argument, ahead of the visible parameters.
func (d *d3dDevice) GetResourceAllocationInfo(desc *resourceDesc) resourceAllocationInfo {
	var out struct {
		Size      uint64
		Alignment uint64
	}
	vcall(d.this(), slotDeviceGetResourceAllocationInfo, uintptr(unsafe.Pointer(&out)), 0, 1, uintptr(unsafe.Pointer(desc)))
	return resourceAllocationInfo{sizeInBytes: int64(out.Size), alignment: int64(out.Alignment)}
}
