// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// CmdListState is the recording-state machine a CmdList moves
// through.
type CmdListState int

// Command-list states.
const (
	CmdInitial CmdListState = iota
	CmdRecording
	CmdClosed
)

// BufferCopy describes a Buffer-to-Buffer copy command.
type BufferCopy struct {
	Src, Dst         Buffer
	SrcOff, DstOff   int64
	Size             int64
}

// TextureCopy describes a Texture-to-Texture copy command, full
// resource or one mip/array slice.
type TextureCopy struct {
	Src, Dst             Texture
	SrcOff, DstOff       Off3D
	SrcLayer, DstLayer   int
	SrcLevel, DstLevel   int
	Size                 Dim3D
	Layers               int
}

// BufferTextureCopy describes a copy between a Buffer and a Texture.
// BufOff must be aligned to 512 bytes; Stride[0] must be aligned to
// 256 bytes.
type BufferTextureCopy struct {
	Buf    Buffer
	BufOff int64
	// Stride[0] is the row length, Stride[1] is the image height,
	// both given in pixels.
	Stride    [2]int64
	Tex       Texture
	TexOff    Off3D
	Layer     int
	Level     int
	Size      Dim3D
	// DepthCopy selects the depth (false) or stencil (true) aspect
	// when Tex has a combined depth/stencil format.
	DepthCopy bool
}

// SyncScope is a bit set of pipeline synchronization scopes used by
// Barrier.
type SyncScope int

// Synchronization scopes.
const (
	SyncVertexInput SyncScope = 1 << iota
	SyncVertexShading
	SyncFragmentShading
	SyncComputeShading
	SyncColorOutput
	SyncDSOutput
	SyncDraw
	SyncResolve
	SyncCopy
	SyncAll
	SyncNone SyncScope = 0
)

// Barrier represents a synchronization barrier with no layout
// transition (a global/buffer barrier).
type Barrier struct {
	SyncBefore, SyncAfter     SyncScope
	AccessBefore, AccessAfter Access
}

// Transition represents a layout transition on a specific Texture
// sub-resource, synthesized by CmdList.ResourceBarrier from the
// resource's tracked CurrentState.
type Transition struct {
	Barrier
	LayoutBefore, LayoutAfter Layout
	Texture                   Texture
	Sub                       TextureRange
}

// IndirectDraw matches the native indirect-argument layout
// bit-for-bit.
type IndirectDraw struct {
	VertexCount, InstanceCount, FirstVertex, FirstInstance uint32
}

// IndirectDrawIndexed matches the native indexed indirect-argument
// layout bit-for-bit.
type IndirectDrawIndexed struct {
	IndexCount, InstanceCount   uint32
	FirstIndex                 uint32
	VertexOffset                int32
	FirstInstance               uint32
}

// IndirectDispatch matches the native dispatch indirect-argument
// layout bit-for-bit.
type IndirectDispatch struct{ X, Y, Z uint32 }

// IndirectDispatchMesh matches the native dispatch-mesh
// indirect-argument layout bit-for-bit.
type IndirectDispatchMesh struct{ X, Y, Z uint32 }

// CmdList records draw/dispatch/copy/barrier commands and batches
// pending transitions until a flush point (C15). Lifecycle: Initial
// -(Begin)-> Recording -(End)-> Closed -(Begin)-> Recording ...
// Submission (Device.Commit) is only valid in Closed. Every mutating
// method called outside Recording is a no-op that logs a warning.
type CmdList interface {
	Destroyer

	State() CmdListState
	Queue() QueueType

	// Begin resets the command allocator/buffer and moves the list
	// into Recording.
	Begin() error

	// BeginRenderPass validates clear count against fb, ends any
	// active render pass, flushes pending barriers, then either
	// issues clear-RTV/DSV commands (rhi/dx) or begins a render-pass
	// instance (rhi/vk).
	BeginRenderPass(pass RenderPass, fb FrameBuffer, clear []ClearValue)
	// EndRenderPass flushes barriers and closes the render-pass
	// instance (rhi/vk) or is a flush-only no-op (rhi/dx).
	EndRenderPass()

	BeginCompute(wait bool)
	EndCompute()

	BeginCopy(wait bool)
	EndCopy()

	SetPipeline(p Pipeline)
	SetViewports(vp []Viewport)
	SetScissors(r []Rect)
	SetBlendColor(r, g, b, a float32)
	SetStencilRef(value uint32)
	SetVertexBuffers(start int, buf []Buffer, off []int64)
	SetIndexBuffer(format IndexFormat, buf Buffer, off int64)

	Draw(vertCount, instCount, baseVert, baseInst int)
	DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int)
	DrawIndirect(buf Buffer, off int64, count int, stride int64)
	DrawIndexedIndirect(buf Buffer, off int64, count int, stride int64)
	Dispatch(groupX, groupY, groupZ int)
	DispatchIndirect(buf Buffer, off int64)
	DispatchMesh(groupX, groupY, groupZ int)
	// DispatchRays forwards the four SBT regions verbatim to the
	// native ray-dispatch call.
	DispatchRays(w, h, d int, table *ShaderTable)

	CopyBuffer(p *BufferCopy)
	CopyTexture(p *TextureCopy)
	CopyBufferToTexture(p *BufferTextureCopy)
	CopyTextureToBuffer(p *BufferTextureCopy)
	// Fill fills [off, off+size) with copies of value. off and size
	// must be 4-byte aligned.
	Fill(buf Buffer, off int64, value byte, size int64)

	// ResourceBarrier looks up resource's current state, constructs
	// the backend barrier struct, appends it to the pending batch,
	// and updates the resource's recorded state immediately
	// (optimistic: subsequent barrier requests observe the new
	// state). Barrier applies to a Buffer (whole resource); use
	// TextureBarrier for a specific sub-resource.
	ResourceBarrier(buf Buffer, after State)
	TextureBarrier(tex Texture, after State, sub TextureRange)
	// FlushBarriers issues the pending batch in one native call
	// (srcStage=ALL,dstStage=ALL on rhi/vk; ResourceBarrier(N, ...)
	// on rhi/dx) then clears it. Flushing is implicit before
	// BeginRenderPass, EndRenderPass and End.
	FlushBarriers()

	// AddQueueWait/AddQueueSignal declare cross-queue ordering via a
	// Semaphore; they must be called before submission.
	AddQueueWait(s Semaphore)
	AddQueueSignal(s Semaphore)

	BuildAccelStructure(as AccelStructure, scratch Buffer)

	// End ends recording, flushing pending barriers and closing any
	// active render pass first, and moves the list to Closed. On
	// failure the list is reset.
	End() error
	// Reset discards all recorded commands.
	Reset() error
}
