// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build !windows && !(linux && !android)

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// createSurface has no platform backend on this GOOS; NewSwapChain
// reports it as an unsupported feature rather than failing at link
// time.
func createSurface(d *Driver, w rhi.WindowHandle) (vk.Surface, error) {
	return nil, rhi.NewError("NewSwapChain", rhi.Unsupported, nil)
}
