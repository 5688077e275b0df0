// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

// Package dx implements rhi.Driver and rhi.Device over Direct3D12,
// dispatching every native call through hand-rolled COM vtables on
// top of golang.org/x/sys/windows — the same approach the ebiten and
// gio DirectX backends take, since no maintained Go D3D12 binding
// exists in the wider ecosystem.
package dx

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/argent-engine/rhi"
)

// HRESULT is the native Direct3D/DXGI result code; negative values
// are failures.
type HRESULT int32

func (hr HRESULT) Failed() bool  { return hr < 0 }
func (hr HRESULT) String() string { return fmt.Sprintf("0x%08X", uint32(hr)) }

// guid mirrors a Win32 GUID's memory layout exactly, for passing
// interface identifiers by pointer to QueryInterface-style calls.
type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func mkguid(d1 uint32, d2, d3 uint16, d4_0, d4_1, d4_2, d4_3, d4_4, d4_5, d4_6, d4_7 byte) guid {
	return guid{d1, d2, d3, [8]byte{d4_0, d4_1, d4_2, d4_3, d4_4, d4_5, d4_6, d4_7}}
}

// unknown is embedded (by convention, as the first pointer-sized
// field) in every COM wrapper type: the object's memory layout is a
// pointer to a vtable, same as any native COM interface pointer.
type unknown struct {
	vtbl uintptr
}

func (u *unknown) this() unsafe.Pointer { return unsafe.Pointer(u) }

// vcall invokes the method at the given vtable slot index (0-based,
// counting from IUnknown's three methods), passing obj as the
// implicit "this" argument the native calling convention expects.
func vcall(obj unsafe.Pointer, index uintptr, args ...uintptr) (uintptr, error) {
	vtbl := *(*uintptr)(obj)
	slot := *(*uintptr)(unsafe.Pointer(vtbl + index*unsafe.Sizeof(uintptr(0))))
	all := make([]uintptr, 0, len(args)+1)
	all = append(all, uintptr(obj))
	all = append(all, args...)
	r, _, _ := syscall.SyscallN(slot, all...)
	return r, nil
}

// hrcall is vcall for methods returning an HRESULT.
func hrcall(obj unsafe.Pointer, index uintptr, args ...uintptr) HRESULT {
	r, _ := vcall(obj, index, args...)
	return HRESULT(r)
}

// IUnknown vtable slots, present at the head of every interface.
const (
	slotQueryInterface uintptr = 0
	slotAddRef         uintptr = 1
	slotRelease        uintptr = 2
)

func (u *unknown) Release() uint32 {
	if u == nil {
		return 0
	}
	r, _ := vcall(u.this(), slotRelease)
	return uint32(r)
}

func (u *unknown) AddRef() uint32 {
	r, _ := vcall(u.this(), slotAddRef)
	return uint32(r)
}

// queryInterface upgrades a COM pointer to the interface identified by
// iid, needed where a creation call only hands back a base interface
// (IDXGIFactory2::CreateSwapChainForHwnd returns IDXGISwapChain1)
// but the rest of this package wants the richer one.
func (u *unknown) queryInterface(iid *guid) (unsafe.Pointer, error) {
	var out unsafe.Pointer
	hr := hrcall(u.this(), slotQueryInterface, uintptr(unsafeGUID(iid)), uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("QueryInterface", hr)
	}
	return out, nil
}

func ptr[T any](v T) uintptr { return uintptr(unsafe.Pointer(&v)) }

func dxError(op string, hr HRESULT) error {
	return rhi.NewNativeError(op, int64(hr), nil)
}

func dxCheck(op string, hr HRESULT) error {
	if hr.Failed() {
		return dxError(op, hr)
	}
	return nil
}
