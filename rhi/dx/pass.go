// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import "github.com/argent-engine/rhi"

// RenderPass implements rhi.RenderPass. D3D12 has no render-pass
// object in the classic sense — render targets are bound directly
// via OMSetRenderTargets and cleared explicitly in CmdList — so
// RenderPass here is purely the attachment/subpass declaration kept
// for NewFrameBuffer's view-count validation and for CmdList to know
// which attachment index carries the depth-stencil view.
type RenderPass struct {
	dv  *Device
	att []rhi.Attachment
	sub []rhi.Subpass
}

func (p *RenderPass) Destroy() {}

// NewRenderPass implements rhi.Device.
func (dv *Device) NewRenderPass(att []rhi.Attachment, sub []rhi.Subpass) (rhi.RenderPass, error) {
	return &RenderPass{dv: dv, att: att, sub: sub}, nil
}

// FrameBuffer implements rhi.FrameBuffer by retaining the resolved
// native CPU descriptor handles directly — no VkFramebuffer-style
// native object exists to create.
type FrameBuffer struct {
	pass   *RenderPass
	width  int
	height int
	layers int
	views  []cpuDescriptorHandle
	dsView cpuDescriptorHandle
	hasDS  bool
	numRTs int
}

func (f *FrameBuffer) Destroy()              {}
func (f *FrameBuffer) Width() int            { return f.width }
func (f *FrameBuffer) Height() int           { return f.height }
func (f *FrameBuffer) NumRenderTargets() int { return f.numRTs }

// NewFrameBuffer implements rhi.RenderPass. views must correspond,
// one-to-one, to the render pass' attachment list; since a D3D12 CPU
// descriptor handle is a literal pointer-sized value, it is stored
// directly rather than resolved through a side table the way rhi/vk's
// viewCache is required to.
func (p *RenderPass) NewFrameBuffer(views []rhi.DescriptorHandle, width, height, layers int) (rhi.FrameBuffer, error) {
	if len(views) != len(p.att) {
		return nil, rhi.NewError("NewFrameBuffer", rhi.InvalidArgument, nil)
	}
	if layers <= 0 {
		layers = 1
	}
	dm := p.dv.descs
	hasDS := false
	dsIndex := -1
	for _, s := range p.sub {
		if s.DS >= 0 {
			hasDS = true
			dsIndex = s.DS
		}
	}
	nativeViews := make([]cpuDescriptorHandle, 0, len(views))
	fb := &FrameBuffer{pass: p, width: width, height: height, layers: layers, hasDS: hasDS}
	for i, h := range views {
		cpu := dm.cpuHandle(h)
		if hasDS && i == dsIndex {
			fb.dsView = cpu
			continue
		}
		nativeViews = append(nativeViews, cpu)
	}
	fb.views = nativeViews
	fb.numRTs = len(nativeViews)
	return fb, nil
}
