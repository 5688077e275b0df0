// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// WindowHandle is the opaque (window handle, module handle) pair
// consumed at swap-chain creation. The module handle is unused/zero
// outside Windows.
type WindowHandle struct {
	Window uintptr
	Module uintptr
}

// PresentMode selects the swap chain's presentation mode.
type PresentMode int

// Present modes.
const (
	PresentFIFO PresentMode = iota // vsync'd, a.k.a. SequentialFlip
	PresentImmediate                // tearing allowed when available
)

// SwapChainDesc describes a swap chain to be created via
// Device.NewSwapChain.
type SwapChainDesc struct {
	Window      WindowHandle
	Width       int
	Height      int
	BufferCount int
	Format      Format
	VSync       bool
}

// SwapChain is windowed presentation (C16): a back-buffer set, the
// current index, resize, and vsync/tearing selection.
type SwapChain interface {
	Destroyer

	Width() int
	Height() int
	BufferCount() int
	CurrentIndex() int

	// BackBuffer returns the unmanaged Texture wrapping back-buffer
	// i (0 <= i < BufferCount()).
	BackBuffer(i int) Texture

	// Present advances the current index: (i+1)%N on rhi/dx, or
	// vkQueuePresentKHR followed by vkAcquireNextImageKHR on rhi/vk.
	// It implicitly waits for the image-available semaphore
	// (rhi/vk) or the driver-inserted fence (rhi/dx).
	Present() error

	// Resize waits the direct queue to idle, drops the back-buffer
	// wrappers, resizes the native swap chain, and recreates the
	// wrappers at the new dimensions.
	Resize(width, height int) error
}
