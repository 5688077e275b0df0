// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhitest

import (
	"context"
	"errors"
	"log"

	"github.com/argent-engine/rhi"
)

// ---- Fence/Semaphore (C6) ----

type fence struct {
	value uint64
}

func (d *device) NewFence(initialValue uint64) (rhi.Fence, error) {
	return &fence{value: initialValue}, nil
}

func (f *fence) Destroy() {}

func (f *fence) Value() (uint64, error) { return f.value, nil }

func (f *fence) Signal(value uint64) error {
	f.value = value
	return nil
}

// CPUWait never actually blocks: Commit on the fake device executes
// every command list synchronously and signals the fence before
// returning, so by the time a caller reaches CPUWait the value has
// already been reached.
func (f *fence) CPUWait(ctx context.Context, value uint64) error {
	if f.value >= value {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return rhi.NewError("CPUWait", rhi.InvalidState, errFenceNeverReached)
	}
}

type semaphore struct{}

func (s *semaphore) Destroy() {}

func (d *device) NewSemaphore() (rhi.Semaphore, error) { return &semaphore{}, nil }

var errFenceNeverReached = errors.New("rhitest: fence value will never be reached by a synchronous fake device")

// BarrierRecord is a pending-batch entry captured by FlushBarriers,
// exposed for test assertions on what a flush actually contained.
type BarrierRecord struct {
	Buffer  rhi.Buffer
	Texture rhi.Texture
	Sub     rhi.TextureRange
	Before  rhi.State
	After   rhi.State
}

// CmdList implements rhi.CmdList, tracking the Initial/Recording/Closed
// state machine and batching barriers exactly as spec.md §4.6/§8
// describe: ResourceBarrier/TextureBarrier update the resource's
// recorded state immediately (optimistic), and the batch is only
// visible to the outside world once FlushBarriers runs.
type CmdList struct {
	dev   *device
	queue rhi.QueueType
	state rhi.CmdListState

	pending []BarrierRecord

	// LastFlush captures the batch most recently passed to the native
	// flush call; FlushCount counts how many times a flush actually
	// ran (a no-op flush with an empty batch still counts, matching
	// the "Flushing is implicit before BeginRenderPass/EndRenderPass/
	// End" contract).
	LastFlush  []BarrierRecord
	FlushCount int

	inRenderPass bool
	inCompute    bool
	inCopy       bool

	waits   []rhi.Semaphore
	signals []rhi.Semaphore
}

func (d *device) NewCmdList(queue rhi.QueueType) (rhi.CmdList, error) {
	return &CmdList{dev: d, queue: queue, state: rhi.CmdInitial}, nil
}

func (c *CmdList) Destroy() {}

func (c *CmdList) State() rhi.CmdListState { return c.state }
func (c *CmdList) Queue() rhi.QueueType    { return c.queue }

func (c *CmdList) Begin() error {
	c.pending = c.pending[:0]
	c.inRenderPass, c.inCompute, c.inCopy = false, false, false
	c.waits, c.signals = nil, nil
	c.state = rhi.CmdRecording
	return nil
}

func (c *CmdList) warnNotRecording(op string) bool {
	if c.state != rhi.CmdRecording {
		log.Printf("rhitest: CmdList.%s called outside Recording (state=%d)", op, c.state)
		return true
	}
	return false
}

func (c *CmdList) BeginRenderPass(pass rhi.RenderPass, fb rhi.FrameBuffer, clear []rhi.ClearValue) {
	if c.warnNotRecording("BeginRenderPass") {
		return
	}
	c.FlushBarriers()
	c.inRenderPass = true
}

func (c *CmdList) EndRenderPass() {
	if c.warnNotRecording("EndRenderPass") {
		return
	}
	c.FlushBarriers()
	c.inRenderPass = false
}

func (c *CmdList) BeginCompute(wait bool) {
	if c.warnNotRecording("BeginCompute") {
		return
	}
	c.inCompute = true
}

func (c *CmdList) EndCompute() { c.inCompute = false }

func (c *CmdList) BeginCopy(wait bool) {
	if c.warnNotRecording("BeginCopy") {
		return
	}
	c.inCopy = true
}

func (c *CmdList) EndCopy() { c.inCopy = false }

func (c *CmdList) SetPipeline(p rhi.Pipeline)                            {}
func (c *CmdList) SetViewports(vp []rhi.Viewport)                        {}
func (c *CmdList) SetScissors(r []rhi.Rect)                              {}
func (c *CmdList) SetBlendColor(r, g, b, a float32)                      {}
func (c *CmdList) SetStencilRef(value uint32)                            {}
func (c *CmdList) SetVertexBuffers(start int, buf []rhi.Buffer, off []int64) {}
func (c *CmdList) SetIndexBuffer(format rhi.IndexFormat, buf rhi.Buffer, off int64) {}

func (c *CmdList) Draw(vertCount, instCount, baseVert, baseInst int)                     {}
func (c *CmdList) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int)        {}
func (c *CmdList) DrawIndirect(buf rhi.Buffer, off int64, count int, stride int64)        {}
func (c *CmdList) DrawIndexedIndirect(buf rhi.Buffer, off int64, count int, stride int64) {}
func (c *CmdList) Dispatch(groupX, groupY, groupZ int)                                    {}
func (c *CmdList) DispatchIndirect(buf rhi.Buffer, off int64)                             {}
func (c *CmdList) DispatchMesh(groupX, groupY, groupZ int)                                {}
func (c *CmdList) DispatchRays(w, h, d int, table *rhi.ShaderTable)                       {}

func (c *CmdList) CopyBuffer(p *rhi.BufferCopy) {
	if c.warnNotRecording("CopyBuffer") {
		return
	}
	src, ok1 := p.Src.(*Buffer)
	dst, ok2 := p.Dst.(*Buffer)
	if !ok1 || !ok2 {
		return
	}
	copy(dst.data[p.DstOff:p.DstOff+p.Size], src.data[p.SrcOff:p.SrcOff+p.Size])
}

func (c *CmdList) CopyTexture(p *rhi.TextureCopy) {}

func (c *CmdList) CopyBufferToTexture(p *rhi.BufferTextureCopy) {}
func (c *CmdList) CopyTextureToBuffer(p *rhi.BufferTextureCopy) {}

func (c *CmdList) Fill(buf rhi.Buffer, off int64, value byte, size int64) {
	if c.warnNotRecording("Fill") {
		return
	}
	b, ok := buf.(*Buffer)
	if !ok {
		return
	}
	region := b.data[off : off+size]
	for i := range region {
		region[i] = value
	}
}

// ResourceBarrier appends the transition to the pending batch and
// immediately updates the buffer's recorded state, so a subsequent
// ResourceBarrier call in the same unflushed batch observes the new
// state rather than the pre-batch one (spec.md §8 invariant: the
// recorded state transition is optimistic, not deferred to flush).
func (c *CmdList) ResourceBarrier(buf rhi.Buffer, after rhi.State) {
	if c.warnNotRecording("ResourceBarrier") {
		return
	}
	before := buf.CurrentState()
	c.pending = append(c.pending, BarrierRecord{Buffer: buf, Before: before, After: after})
	buf.ChangeState(after)
}

func (c *CmdList) TextureBarrier(tex rhi.Texture, after rhi.State, sub rhi.TextureRange) {
	if c.warnNotRecording("TextureBarrier") {
		return
	}
	before := tex.CurrentState(sub)
	c.pending = append(c.pending, BarrierRecord{Texture: tex, Sub: sub, Before: before, After: after})
	tex.ChangeState(after, sub)
}

func (c *CmdList) FlushBarriers() {
	c.LastFlush = c.pending
	c.FlushCount++
	c.pending = nil
}

func (c *CmdList) AddQueueWait(s rhi.Semaphore)   { c.waits = append(c.waits, s) }
func (c *CmdList) AddQueueSignal(s rhi.Semaphore) { c.signals = append(c.signals, s) }

func (c *CmdList) BuildAccelStructure(as rhi.AccelStructure, scratch rhi.Buffer) {}

func (c *CmdList) End() error {
	if c.state != rhi.CmdRecording {
		log.Printf("rhitest: CmdList.End called outside Recording (state=%d)", c.state)
		return nil
	}
	c.FlushBarriers()
	c.inRenderPass = false
	c.state = rhi.CmdClosed
	return nil
}

func (c *CmdList) Reset() error {
	c.pending = nil
	c.inRenderPass, c.inCompute, c.inCopy = false, false, false
	c.state = rhi.CmdInitial
	return nil
}

// Commit "submits" by doing nothing beyond validating every list is
// Closed and signaling the fence: there is no real queue to execute
// against, the effects of each recorded command already happened
// synchronously when it was called.
func (d *device) Commit(queue rhi.QueueType, cl []rhi.CmdList, signal rhi.Fence) error {
	for _, l := range cl {
		if l.State() != rhi.CmdClosed {
			return rhi.NewError("Commit", rhi.InvalidState, errNotClosed)
		}
	}
	if signal != nil {
		v, _ := signal.Value()
		signal.Signal(v + 1)
	}
	return nil
}
