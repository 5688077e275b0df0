// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// LoadOp is the type of an attachment's load operation.
type LoadOp int

// Load operations.
const (
	LoadDontCare LoadOp = iota
	LoadClear
	LoadLoad
)

// StoreOp is the type of an attachment's store operation.
type StoreOp int

// Store operations.
const (
	StoreDontCare StoreOp = iota
	StoreKeep
)

// Attachment describes the configuration of a single render target
// for use in a render pass.
type Attachment struct {
	Format  Format
	Samples int
	// Index 0 is the color/depth load-store pair, index 1 is the
	// stencil load-store pair (ignored for color attachments).
	Load  [2]LoadOp
	Store [2]StoreOp
}

// Subpass defines a subpass of a render pass: Color/DS/Resolve index
// into the render pass' attachment list.
type Subpass struct {
	Color []int
	DS    int // -1 if unused
	MSR   []int
	// Wait controls whether this subpass stalls waiting for
	// previous work to finish.
	Wait bool
}

// RenderPass is a collection of attachment descriptions bound for
// rasterization (C13). On rhi/vk it owns a native render-pass object
// whose attachment descriptions match Attachment's formats/sample
// counts; on rhi/dx it is a thin grouping object consumed only at
// FrameBuffer/pipeline creation.
type RenderPass interface {
	Destroyer

	// NewFrameBuffer creates a new framebuffer. Each view in views
	// corresponds to the render pass' attachment of the same index;
	// a view's format and sample count must match the attachment's.
	// width/height are used as given; they are not derived from the
	// attachments.
	NewFrameBuffer(views []DescriptorHandle, width, height, layers int) (FrameBuffer, error)
}

// FrameBuffer is a collection of attachments bound for rasterization
// (C13): render-targets[0..N), an optional depth-stencil, and the
// dimensions passed to NewFrameBuffer.
type FrameBuffer interface {
	Destroyer

	Width() int
	Height() int
	NumRenderTargets() int
}
