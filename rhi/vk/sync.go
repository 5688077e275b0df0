// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	"context"
	"time"

	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// Fence implements rhi.Fence over a VkSemaphore of type Timeline.
type Fence struct {
	dv *Device
	h  vk.Semaphore
}

// NewFence implements rhi.Device.
func (dv *Device) NewFence(initialValue uint64) (rhi.Fence, error) {
	typeInfo := vk.SemaphoreTypeCreateInfo{
		SType:         vk.StructureTypeSemaphoreTypeCreateInfo,
		SemaphoreType: vk.SemaphoreTypeTimeline,
		InitialValue:  initialValue,
	}
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: unsafePointer(&typeInfo),
	}
	var h vk.Semaphore
	if res := vk.CreateSemaphore(dv.dev, &info, nil, &h); res != vk.Success {
		return nil, vkError("vkCreateSemaphore", res)
	}
	return &Fence{dv: dv, h: h}, nil
}

func (f *Fence) Destroy() { vk.DestroySemaphore(f.dv.dev, f.h, nil) }

func (f *Fence) Value() (uint64, error) {
	var v uint64
	if res := vk.GetSemaphoreCounterValue(f.dv.dev, f.h, &v); res != vk.Success {
		return 0, vkError("vkGetSemaphoreCounterValue", res)
	}
	return v, nil
}

func (f *Fence) Signal(value uint64) error {
	info := vk.SemaphoreSignalInfo{
		SType:     vk.StructureTypeSemaphoreSignalInfo,
		Semaphore: f.h,
		Value:     value,
	}
	if res := vk.SignalSemaphore(f.dv.dev, &info); res != vk.Success {
		return vkError("vkSignalSemaphore", res)
	}
	return nil
}

// CPUWait blocks until f reaches value, or until ctx is done. There
// is no native infinite-with-cancellation wait, so an unbounded ctx
// polls vkWaitSemaphores in short slices instead of blocking forever
// inside the driver call.
func (f *Fence) CPUWait(ctx context.Context, value uint64) error {
	info := vk.SemaphoreWaitInfo{
		SType:          vk.StructureTypeSemaphoreWaitInfo,
		SemaphoreCount: 1,
		PSemaphores:    []vk.Semaphore{f.h},
		PValues:        []uint64{value},
	}
	const slice = 50 * time.Millisecond
	for {
		res := vk.WaitSemaphores(f.dv.dev, &info, uint64(slice.Nanoseconds()))
		if res == vk.Success {
			return nil
		}
		if res != vk.Timeout {
			return vkError("vkWaitSemaphores", res)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Semaphore implements rhi.Semaphore over a binary VkSemaphore.
type Semaphore struct {
	dv *Device
	h  vk.Semaphore
}

// NewSemaphore implements rhi.Device.
func (dv *Device) NewSemaphore() (rhi.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var h vk.Semaphore
	if res := vk.CreateSemaphore(dv.dev, &info, nil, &h); res != vk.Success {
		return nil, vkError("vkCreateSemaphore", res)
	}
	return &Semaphore{dv: dv, h: h}, nil
}

func (s *Semaphore) Destroy() { vk.DestroySemaphore(s.dv.dev, s.h, nil) }
