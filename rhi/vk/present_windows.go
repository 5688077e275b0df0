// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

func createSurface(d *Driver, w rhi.WindowHandle) (vk.Surface, error) {
	info := vk.Win32SurfaceCreateInfo{
		SType:     vk.StructureTypeWin32SurfaceCreateInfo,
		Hinstance: w.Module,
		Hwnd:      w.Window,
	}
	var surface vk.Surface
	if res := vk.CreateWin32Surface(d.inst, &info, nil, &surface); res != vk.Success {
		return nil, vkError("vkCreateWin32SurfaceKHR", res)
	}
	return surface, nil
}
