// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// SwapChain implements rhi.SwapChain over a VkSwapchainKHR. Surface
// creation itself is platform-specific the way the teacher's
// driver/vk/present_{linux,windows,android}.go split it; rhi/vk
// likewise defines a createSurface hook per platform, in
// present_linux.go, present_windows.go and present_generic.go.
type SwapChain struct {
	dv      *Device
	surface vk.Surface
	sc      vk.Swapchain
	desc    rhi.SwapChainDesc
	format  vk.Format
	present vk.PresentMode
	images  []*Texture
	cur     uint32
	avail   vk.Semaphore
}

// NewSwapChain implements rhi.Device.
func (dv *Device) NewSwapChain(desc rhi.SwapChainDesc) (rhi.SwapChain, error) {
	surface, err := createSurface(dv.driver, desc.Window)
	if err != nil {
		return nil, err
	}

	var supported vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(dv.pdev, dv.queueFam, surface, &supported)
	if supported == vk.False {
		return nil, rhi.NewError("NewSwapChain", rhi.Unsupported, nil)
	}

	var caps vk.SurfaceCapabilities
	vk.GetPhysicalDeviceSurfaceCapabilities(dv.pdev, surface, &caps)
	caps.Deref()

	var fmtCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(dv.pdev, surface, &fmtCount, nil)
	fmts := make([]vk.SurfaceFormat, fmtCount)
	vk.GetPhysicalDeviceSurfaceFormats(dv.pdev, surface, &fmtCount, fmts)
	want := convFormat(desc.Format)
	chosen := fmts[0]
	for _, f := range fmts {
		f.Deref()
		if f.Format == want {
			chosen = f
			break
		}
	}
	chosen.Deref()

	presentMode := vk.PresentModeFifo
	if !desc.VSync {
		var pmCount uint32
		vk.GetPhysicalDeviceSurfacePresentModes(dv.pdev, surface, &pmCount, nil)
		pms := make([]vk.PresentMode, pmCount)
		vk.GetPhysicalDeviceSurfacePresentModes(dv.pdev, surface, &pmCount, pms)
		for _, pm := range pms {
			if pm == vk.PresentModeImmediate {
				presentMode = vk.PresentModeImmediate
				break
			}
		}
	}

	count := uint32(desc.BufferCount)
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}

	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    count,
		ImageFormat:      chosen.Format,
		ImageColorSpace:  chosen.ColorSpace,
		ImageExtent:      vk.Extent2D{Width: uint32(desc.Width), Height: uint32(desc.Height)},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}
	var sc vk.Swapchain
	if res := vk.CreateSwapchain(dv.dev, &info, nil, &sc); res != vk.Success {
		return nil, vkError("vkCreateSwapchainKHR", res)
	}

	var imgCount uint32
	vk.GetSwapchainImages(dv.dev, sc, &imgCount, nil)
	imgs := make([]vk.Image, imgCount)
	vk.GetSwapchainImages(dv.dev, sc, &imgCount, imgs)

	wrapped := make([]*Texture, imgCount)
	for i, img := range imgs {
		wrapped[i] = wrapBackBuffer(dv, img, desc, chosen.Format)
	}

	semInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var avail vk.Semaphore
	vk.CreateSemaphore(dv.dev, &semInfo, nil, &avail)

	s := &SwapChain{dv: dv, surface: surface, sc: sc, desc: desc, format: chosen.Format, present: presentMode, images: wrapped, avail: avail}
	vk.AcquireNextImage(dv.dev, sc, vk.MaxUint64, avail, nil, &s.cur)
	return s, nil
}

// wrapBackBuffer creates an unmanaged Texture (no owned VkDeviceMemory,
// no destruction of img on Destroy) wrapping one swap-chain image.
func wrapBackBuffer(dv *Device, img vk.Image, desc rhi.SwapChainDesc, format vk.Format) *Texture {
	t := &Texture{
		dv: dv,
		desc: rhi.TextureDesc{
			Dimension: rhi.TexDim2D,
			Format:    desc.Format,
			Width:     desc.Width,
			Height:    desc.Height,
			MipLevels: 1,
			ArraySize: 1,
			Usage:     rhi.TexUsageRenderTarget,
		},
		img:    img,
		states: map[rhi.TextureRange]rhi.State{},
		rtv:    map[rhi.TextureRange]rhi.DescriptorHandle{},
		dsv:    map[rhi.TextureRange]rhi.DescriptorHandle{},
		srv:    map[rhi.TextureRange]rhi.DescriptorHandle{},
		uav:    map[rhi.TextureRange]rhi.DescriptorHandle{},
	}
	t.states[rhi.AllSubresources] = rhi.State{Access: rhi.AccessNone, Layout: rhi.LayoutUndefined}
	return t
}

func (s *SwapChain) Destroy() {
	vk.DestroySemaphore(s.dv.dev, s.avail, nil)
	vk.DestroySwapchain(s.dv.dev, s.sc, nil)
	vk.DestroySurface(s.dv.driver.inst, s.surface, nil)
}

func (s *SwapChain) Width() int        { return s.desc.Width }
func (s *SwapChain) Height() int       { return s.desc.Height }
func (s *SwapChain) BufferCount() int  { return len(s.images) }
func (s *SwapChain) CurrentIndex() int { return int(s.cur) }

func (s *SwapChain) BackBuffer(i int) rhi.Texture { return s.images[i] }

// Present implements rhi.SwapChain: vkQueuePresentKHR followed by
// vkAcquireNextImageKHR for the next frame, waiting on the
// image-available semaphore signaled by the prior acquire.
func (s *SwapChain) Present() error {
	idx := s.cur
	info := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{s.sc},
		PImageIndices:  []uint32{idx},
	}
	if res := vk.QueuePresent(s.dv.queue, &info); res != vk.Success && res != vk.Suboptimal {
		return vkError("vkQueuePresentKHR", res)
	}
	if res := vk.AcquireNextImage(s.dv.dev, s.sc, vk.MaxUint64, s.avail, nil, &s.cur); res != vk.Success && res != vk.Suboptimal {
		return vkError("vkAcquireNextImageKHR", res)
	}
	return nil
}

// Resize implements rhi.SwapChain: idles the direct queue, drops the
// back-buffer wrappers and the old swapchain, and recreates both at
// the new dimensions.
func (s *SwapChain) Resize(width, height int) error {
	vk.QueueWaitIdle(s.dv.queue)
	vk.DestroySwapchain(s.dv.dev, s.sc, nil)

	s.desc.Width, s.desc.Height = width, height
	newS, err := s.dv.NewSwapChain(s.desc)
	if err != nil {
		return err
	}
	other := newS.(*SwapChain)
	s.sc, s.images, s.cur, s.avail = other.sc, other.images, other.cur, other.avail
	return nil
}
