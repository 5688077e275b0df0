// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import (
	"context"
	"time"

	"golang.org/x/sys/windows"

	"github.com/argent-engine/rhi"
)

// fence wraps ID3D12Fence.
type fence struct{ unknown }

const (
	slotFenceGetCompletedValue   uintptr = 8
	slotFenceSetEventOnComplete  uintptr = 9
	slotFenceSignal              uintptr = 10
)

func (f *fence) completedValue() uint64 {
	r, _ := vcall(f.this(), slotFenceGetCompletedValue)
	return uint64(r)
}

func (f *fence) setEventOnCompletion(value uint64, event windows.Handle) HRESULT {
	return hrcall(f.this(), slotFenceSetEventOnComplete, uintptr(value), uintptr(event))
}

func (f *fence) signal(value uint64) HRESULT {
	return hrcall(f.this(), slotFenceSignal, uintptr(value))
}

// Fence implements rhi.Fence over one ID3D12Fence and a Win32 manual
// reset event, waited on in bounded slices the same way rhi/vk's
// CPUWait polls vkWaitSemaphores in 50ms steps, since
// SetEventOnCompletion plus WaitForSingleObject has no
// context.Context-aware cancellation path of its own.
type Fence struct {
	dv     *Device
	native *fence
	event  windows.Handle
}

// NewFence implements rhi.Device.
func (dv *Device) NewFence(initialValue uint64) (rhi.Fence, error) {
	f, err := dv.dev.CreateFence(initialValue)
	if err != nil {
		return nil, err
	}
	ev, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		return nil, rhi.NewNativeError("CreateEvent", 0, err)
	}
	return &Fence{dv: dv, native: f, event: ev}, nil
}

func (f *Fence) Destroy() {
	windows.CloseHandle(f.event)
	f.native.Release()
}

func (f *Fence) Value() (uint64, error) { return f.native.completedValue(), nil }

func (f *Fence) Signal(value uint64) error {
	return dxCheck("ID3D12Fence::Signal", f.native.signal(value))
}

// CPUWait implements rhi.Fence.
func (f *Fence) CPUWait(ctx context.Context, value uint64) error {
	if f.native.completedValue() >= value {
		return nil
	}
	if hr := f.native.setEventOnCompletion(value, f.event); hr.Failed() {
		return dxError("SetEventOnCompletion", hr)
	}
	const slice = 50 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r, err := windows.WaitForSingleObject(f.event, uint32(slice/time.Millisecond))
		if err != nil {
			return rhi.NewNativeError("WaitForSingleObject", 0, err)
		}
		if r == windows.WAIT_OBJECT_0 {
			return nil
		}
	}
}

// Semaphore implements rhi.Semaphore. D3D12 has no binary-semaphore
// primitive distinct from a fence; queue-to-queue ordering here is
// modeled with a dedicated single-use fence signaled/waited at the
// values CmdList.AddQueueSignal/AddQueueWait record, the same way a
// timeline semaphore value pair stands in for a binary semaphore on
// rhi/vk when an extension is unavailable.
type Semaphore struct {
	dv     *Device
	native *fence
	value  uint64
}

// NewSemaphore implements rhi.Device.
func (dv *Device) NewSemaphore() (rhi.Semaphore, error) {
	f, err := dv.dev.CreateFence(0)
	if err != nil {
		return nil, err
	}
	return &Semaphore{dv: dv, native: f}, nil
}

func (s *Semaphore) Destroy() { s.native.Release() }
