// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// RenderPass implements rhi.RenderPass: a native VkRenderPass whose
// attachment descriptions match the formats/sample counts the caller
// declared, plus the Attachment list for NewFrameBuffer's view
// validation.
type RenderPass struct {
	dv   *Device
	pass vk.RenderPass
	att  []rhi.Attachment
	sub  []rhi.Subpass
}

func (p *RenderPass) Destroy() { vk.DestroyRenderPass(p.dv.dev, p.pass, nil) }

// NewRenderPass implements rhi.Device.
func (dv *Device) NewRenderPass(att []rhi.Attachment, sub []rhi.Subpass) (rhi.RenderPass, error) {
	descs := make([]vk.AttachmentDescription, len(att))
	for i, a := range att {
		descs[i] = vk.AttachmentDescription{
			Format:         convFormat(a.Format),
			Samples:        sampleCountFlag(a.Samples),
			LoadOp:         convLoadOp(a.Load[0]),
			StoreOp:        convStoreOp(a.Store[0]),
			StencilLoadOp:  convLoadOp(a.Load[1]),
			StencilStoreOp: convStoreOp(a.Store[1]),
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutGeneral,
		}
	}

	subpasses := make([]vk.SubpassDescription, len(sub))
	// Keep attachment-reference slices alive across the CreateRenderPass
	// call; vulkan-go marshals by pointer.
	colorRefs := make([][]vk.AttachmentReference, len(sub))
	dsRefs := make([]vk.AttachmentReference, len(sub))
	for i, s := range sub {
		refs := make([]vk.AttachmentReference, len(s.Color))
		for j, idx := range s.Color {
			refs[j] = vk.AttachmentReference{Attachment: uint32(idx), Layout: vk.ImageLayoutColorAttachmentOptimal}
		}
		colorRefs[i] = refs
		subpasses[i] = vk.SubpassDescription{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(refs)),
			PColorAttachments:    refs,
		}
		if s.DS >= 0 {
			dsRefs[i] = vk.AttachmentReference{Attachment: uint32(s.DS), Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
			subpasses[i].PDepthStencilAttachment = &dsRefs[i]
		}
	}

	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descs)),
		PAttachments:    descs,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
	}
	var pass vk.RenderPass
	if res := vk.CreateRenderPass(dv.dev, &info, nil, &pass); res != vk.Success {
		return nil, vkError("vkCreateRenderPass", res)
	}
	return &RenderPass{dv: dv, pass: pass, att: att, sub: sub}, nil
}

func convLoadOp(op rhi.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case rhi.LoadClear:
		return vk.AttachmentLoadOpClear
	case rhi.LoadLoad:
		return vk.AttachmentLoadOpLoad
	default:
		return vk.AttachmentLoadOpDontCare
	}
}

func convStoreOp(op rhi.StoreOp) vk.AttachmentStoreOp {
	if op == rhi.StoreKeep {
		return vk.AttachmentStoreOpStore
	}
	return vk.AttachmentStoreOpDontCare
}

// FrameBuffer implements rhi.FrameBuffer over a VkFramebuffer.
type FrameBuffer struct {
	dv      *Device
	fb      vk.Framebuffer
	pass    *RenderPass
	width   int
	height  int
	layers  int
	views   []vk.ImageView
	numRTs  int
}

func (f *FrameBuffer) Destroy() { vk.DestroyFramebuffer(f.dv.dev, f.fb, nil) }

func (f *FrameBuffer) Width() int            { return f.width }
func (f *FrameBuffer) Height() int           { return f.height }
func (f *FrameBuffer) NumRenderTargets() int { return f.numRTs }

// NewFrameBuffer implements rhi.RenderPass. views must correspond,
// one-to-one, to the render pass' attachment list; the resolved
// native view handles are looked up from each DescriptorHandle issued
// by the caller's originating Texture.CreateRTV/CreateDSV call —
// rhi/vk does not expose raw VkImageView pointers in a
// DescriptorHandle, so NewFrameBuffer re-derives the view from the
// viewCache populated by image.go's createDescriptor, keyed by the
// whole DescriptorHandle.
func (p *RenderPass) NewFrameBuffer(views []rhi.DescriptorHandle, width, height, layers int) (rhi.FrameBuffer, error) {
	if len(views) != len(p.att) {
		return nil, rhi.NewError("NewFrameBuffer", rhi.InvalidArgument, nil)
	}
	nativeViews := make([]vk.ImageView, len(views))
	for i, h := range views {
		v, ok := viewCache.lookup(h)
		if !ok {
			return nil, rhi.NewError("NewFrameBuffer", rhi.InvalidArgument, nil)
		}
		nativeViews[i] = v
	}
	if layers <= 0 {
		layers = 1
	}
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      p.pass,
		AttachmentCount: uint32(len(nativeViews)),
		PAttachments:    nativeViews,
		Width:           uint32(width),
		Height:          uint32(height),
		Layers:          uint32(layers),
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(p.dv.dev, &info, nil, &fb); res != vk.Success {
		return nil, vkError("vkCreateFramebuffer", res)
	}
	numRTs := len(p.att)
	hasDS := false
	for _, s := range p.sub {
		if s.DS >= 0 {
			hasDS = true
		}
	}
	if hasDS {
		numRTs--
	}
	return &FrameBuffer{dv: p.dv, fb: fb, pass: p, width: width, height: height, layers: layers, views: nativeViews, numRTs: numRTs}, nil
}
