// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build linux && !android

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// createSurface builds a VkSurfaceKHR from an Xlib window handle. The
// Wayland path the teacher's driver/vk/present_linux.go also stubs
// out (initWaylandSurface is TODO/panic there) is left unimplemented
// here for the same reason: no windowing system context beyond the
// raw window handle is plumbed through rhi.WindowHandle.
func createSurface(d *Driver, w rhi.WindowHandle) (vk.Surface, error) {
	info := vk.XlibSurfaceCreateInfo{
		SType:  vk.StructureTypeXlibSurfaceCreateInfo,
		Window: vk.XlibWindow(w.Window),
	}
	var surface vk.Surface
	if res := vk.CreateXlibSurface(d.inst, &info, nil, &surface); res != vk.Success {
		return nil, vkError("vkCreateXlibSurfaceKHR", res)
	}
	return surface, nil
}
