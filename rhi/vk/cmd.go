// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// CmdList implements rhi.CmdList over a single VkCommandBuffer
// allocated from a per-list VkCommandPool. Pending barriers are
// batched exactly as §4.8 specifies: ResourceBarrier/TextureBarrier
// append to pendingBuffer/pendingImage and optimistically update the
// resource's tracked state; FlushBarriers issues one
// vkCmdPipelineBarrier(srcStage=ALL, dstStage=ALL) call and clears
// both lists.
type CmdList struct {
	dv    *Device
	pool  vk.CommandPool
	buf   vk.CommandBuffer
	queue rhi.QueueType
	state rhi.CmdListState

	pendingBuffer []vk.BufferMemoryBarrier
	pendingImage  []vk.ImageMemoryBarrier

	curPass *RenderPass
	curFB   *FrameBuffer
	inPass  bool

	waits   []vk.Semaphore
	signals []vk.Semaphore
}

// NewCmdList implements rhi.Device.
func (dv *Device) NewCmdList(queue rhi.QueueType) (rhi.CmdList, error) {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: dv.queueFam,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(dv.dev, &poolInfo, nil, &pool); res != vk.Success {
		return nil, vkError("vkCreateCommandPool", res)
	}
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	bufs := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(dv.dev, &allocInfo, bufs); res != vk.Success {
		vk.DestroyCommandPool(dv.dev, pool, nil)
		return nil, vkError("vkAllocateCommandBuffers", res)
	}
	return &CmdList{dv: dv, pool: pool, buf: bufs[0], queue: queue, state: rhi.CmdInitial}, nil
}

func (c *CmdList) Destroy() {
	vk.FreeCommandBuffers(c.dv.dev, c.pool, 1, []vk.CommandBuffer{c.buf})
	vk.DestroyCommandPool(c.dv.dev, c.pool, nil)
}

func (c *CmdList) State() rhi.CmdListState { return c.state }
func (c *CmdList) Queue() rhi.QueueType    { return c.queue }

func (c *CmdList) Begin() error {
	if res := vk.ResetCommandBuffer(c.buf, 0); res != vk.Success {
		return vkError("vkResetCommandBuffer", res)
	}
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(c.buf, &info); res != vk.Success {
		return vkError("vkBeginCommandBuffer", res)
	}
	c.pendingBuffer = c.pendingBuffer[:0]
	c.pendingImage = c.pendingImage[:0]
	c.waits = c.waits[:0]
	c.signals = c.signals[:0]
	c.inPass = false
	c.state = rhi.CmdRecording
	return nil
}

func (c *CmdList) mustRecord() bool { return c.state == rhi.CmdRecording }

// BeginRenderPass implements rhi.CmdList.
func (c *CmdList) BeginRenderPass(pass rhi.RenderPass, fb rhi.FrameBuffer, clear []rhi.ClearValue) {
	if !c.mustRecord() {
		return
	}
	if c.inPass {
		c.EndRenderPass()
	}
	c.FlushBarriers()

	p := pass.(*RenderPass)
	f := fb.(*FrameBuffer)
	if len(clear) != len(p.att) {
		return
	}
	values := make([]vk.ClearValue, len(clear))
	for i, cv := range clear {
		if p.att[i].Format.Info().Kind == rhi.KindDepthStencil {
			values[i].SetDepthStencil(cv.Depth, cv.Stencil)
		} else {
			values[i].SetColor([]float32{cv.Color[0], cv.Color[1], cv.Color[2], cv.Color[3]})
		}
	}
	info := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  p.pass,
		Framebuffer: f.fb,
		RenderArea:  vk.Rect2D{Extent: vk.Extent2D{Width: uint32(f.width), Height: uint32(f.height)}},
		ClearValueCount: uint32(len(values)),
		PClearValues:    values,
	}
	vk.CmdBeginRenderPass(c.buf, &info, vk.SubpassContentsInline)
	c.curPass, c.curFB, c.inPass = p, f, true
}

// EndRenderPass implements rhi.CmdList.
func (c *CmdList) EndRenderPass() {
	if !c.mustRecord() || !c.inPass {
		return
	}
	c.FlushBarriers()
	vk.CmdEndRenderPass(c.buf)
	c.inPass = false
	c.curPass, c.curFB = nil, nil
}

// Vulkan has no bracketing object for compute or copy work the way
// vkCmdBeginRenderPass brackets rasterization, so these are no-ops
// kept only to satisfy rhi.CmdList's symmetry with
// BeginRenderPass/EndRenderPass. Dispatch and CopyBuffer do not flush
// pending barriers; texture copies do, through transitionForCopy.
func (c *CmdList) BeginCompute(wait bool) {}
func (c *CmdList) EndCompute()             {}
func (c *CmdList) BeginCopy(wait bool)     {}
func (c *CmdList) EndCopy()                {}

func (c *CmdList) SetPipeline(p rhi.Pipeline) {
	if !c.mustRecord() {
		return
	}
	pipe := p.(*Pipeline)
	// Only binds the pipeline: an open render pass is not closed or
	// reopened, whichever framebuffer it was begun with.
	vk.CmdBindPipeline(c.buf, pipe.bindPoint, pipe.pipe)
}

func (c *CmdList) SetViewports(vp []rhi.Viewport) {
	if !c.mustRecord() {
		return
	}
	vps := make([]vk.Viewport, len(vp))
	for i, v := range vp {
		vps[i] = vk.Viewport{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height, MinDepth: v.MinDepth, MaxDepth: v.MaxDepth}
	}
	vk.CmdSetViewport(c.buf, 0, uint32(len(vps)), vps)
}

func (c *CmdList) SetScissors(r []rhi.Rect) {
	if !c.mustRecord() {
		return
	}
	rects := make([]vk.Rect2D, len(r))
	for i, v := range r {
		rects[i] = vk.Rect2D{Offset: vk.Offset2D{X: int32(v.X), Y: int32(v.Y)}, Extent: vk.Extent2D{Width: uint32(v.Width), Height: uint32(v.Height)}}
	}
	vk.CmdSetScissor(c.buf, 0, uint32(len(rects)), rects)
}

func (c *CmdList) SetBlendColor(r, g, b, a float32) {
	if !c.mustRecord() {
		return
	}
	vk.CmdSetBlendConstants(c.buf, [4]float32{r, g, b, a})
}

func (c *CmdList) SetStencilRef(value uint32) {
	if !c.mustRecord() {
		return
	}
	vk.CmdSetStencilReference(c.buf, vk.StencilFaceFlags(vk.StencilFrontAndBack), value)
}

func (c *CmdList) SetVertexBuffers(start int, buf []rhi.Buffer, off []int64) {
	if !c.mustRecord() {
		return
	}
	bufs := make([]vk.Buffer, len(buf))
	offs := make([]vk.DeviceSize, len(buf))
	for i, b := range buf {
		bufs[i] = b.(*Buffer).buf
		offs[i] = vk.DeviceSize(off[i])
	}
	vk.CmdBindVertexBuffers(c.buf, uint32(start), uint32(len(bufs)), bufs, offs)
}

func (c *CmdList) SetIndexBuffer(format rhi.IndexFormat, buf rhi.Buffer, off int64) {
	if !c.mustRecord() {
		return
	}
	typ := vk.IndexTypeUint16
	if format == rhi.Index32 {
		typ = vk.IndexTypeUint32
	}
	vk.CmdBindIndexBuffer(c.buf, buf.(*Buffer).buf, vk.DeviceSize(off), typ)
}

func (c *CmdList) Draw(vertCount, instCount, baseVert, baseInst int) {
	if !c.mustRecord() {
		return
	}
	vk.CmdDraw(c.buf, uint32(vertCount), uint32(instCount), uint32(baseVert), uint32(baseInst))
}

func (c *CmdList) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	if !c.mustRecord() {
		return
	}
	vk.CmdDrawIndexed(c.buf, uint32(idxCount), uint32(instCount), uint32(baseIdx), int32(vertOff), uint32(baseInst))
}

func (c *CmdList) DrawIndirect(buf rhi.Buffer, off int64, count int, stride int64) {
	if !c.mustRecord() {
		return
	}
	vk.CmdDrawIndirect(c.buf, buf.(*Buffer).buf, vk.DeviceSize(off), uint32(count), uint32(stride))
}

func (c *CmdList) DrawIndexedIndirect(buf rhi.Buffer, off int64, count int, stride int64) {
	if !c.mustRecord() {
		return
	}
	vk.CmdDrawIndexedIndirect(c.buf, buf.(*Buffer).buf, vk.DeviceSize(off), uint32(count), uint32(stride))
}

func (c *CmdList) Dispatch(groupX, groupY, groupZ int) {
	if !c.mustRecord() {
		return
	}
	vk.CmdDispatch(c.buf, uint32(groupX), uint32(groupY), uint32(groupZ))
}

func (c *CmdList) DispatchIndirect(buf rhi.Buffer, off int64) {
	if !c.mustRecord() {
		return
	}
	vk.CmdDispatchIndirect(c.buf, buf.(*Buffer).buf, vk.DeviceSize(off))
}

func (c *CmdList) DispatchMesh(groupX, groupY, groupZ int) {
	if !c.mustRecord() {
		return
	}
	vk.CmdDrawMeshTasksNV(c.buf, uint32(groupX*groupY*groupZ), 0)
}

// DispatchRays implements rhi.CmdList, forwarding the four SBT
// regions verbatim to vkCmdTraceRaysNV.
func (c *CmdList) DispatchRays(w, h, d int, table *rhi.ShaderTable) {
	if !c.mustRecord() || table == nil {
		return
	}
	buf := table.Buffer.(*Buffer).buf
	vk.CmdTraceRaysNV(c.buf,
		buf, vk.DeviceSize(table.RayGen.StartAddress),
		buf, vk.DeviceSize(table.Miss.StartAddress), vk.DeviceSize(table.Miss.Stride),
		buf, vk.DeviceSize(table.HitGroup.StartAddress), vk.DeviceSize(table.HitGroup.Stride),
		buf, vk.DeviceSize(table.Callable.StartAddress), vk.DeviceSize(table.Callable.Stride),
		uint32(w), uint32(h), uint32(d))
}

func (c *CmdList) CopyBuffer(p *rhi.BufferCopy) {
	if !c.mustRecord() {
		return
	}
	region := vk.BufferCopy{SrcOffset: vk.DeviceSize(p.SrcOff), DstOffset: vk.DeviceSize(p.DstOff), Size: vk.DeviceSize(p.Size)}
	vk.CmdCopyBuffer(c.buf, p.Src.(*Buffer).buf, p.Dst.(*Buffer).buf, 1, []vk.BufferCopy{region})
}

// transitionForCopy ensures tex is in CopySrc/CopyDst layout before a
// copy, inserting the barrier immediately (not batched) the way §4.8
// requires for copy-source/destination transitions.
func (c *CmdList) transitionForCopy(tex rhi.Texture, sub rhi.TextureRange, dst bool) {
	after := rhi.State{Access: rhi.AccessCopyRead, Layout: rhi.LayoutCopySrc}
	if dst {
		after = rhi.State{Access: rhi.AccessCopyWrite, Layout: rhi.LayoutCopyDst}
	}
	c.TextureBarrier(tex, after, sub)
	c.FlushBarriers()
}

func (c *CmdList) CopyTexture(p *rhi.TextureCopy) {
	if !c.mustRecord() {
		return
	}
	layers := maxInt(p.Layers, 1)
	srcSub := rhi.TextureRange{FirstMip: p.SrcLevel, NumMips: 1, FirstLayer: p.SrcLayer, NumLayers: layers}
	dstSub := rhi.TextureRange{FirstMip: p.DstLevel, NumMips: 1, FirstLayer: p.DstLayer, NumLayers: layers}
	c.transitionForCopy(p.Src, srcSub, false)
	c.transitionForCopy(p.Dst, dstSub, true)

	st := p.Src.(*Texture)
	dt := p.Dst.(*Texture)
	region := vk.ImageCopy{
		SrcSubresource: vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(st.aspectMask()), MipLevel: uint32(p.SrcLevel), BaseArrayLayer: uint32(p.SrcLayer), LayerCount: uint32(layers)},
		SrcOffset:      vk.Offset3D{X: int32(p.SrcOff.X), Y: int32(p.SrcOff.Y), Z: int32(p.SrcOff.Z)},
		DstSubresource: vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(dt.aspectMask()), MipLevel: uint32(p.DstLevel), BaseArrayLayer: uint32(p.DstLayer), LayerCount: uint32(layers)},
		DstOffset:      vk.Offset3D{X: int32(p.DstOff.X), Y: int32(p.DstOff.Y), Z: int32(p.DstOff.Z)},
		Extent:         vk.Extent3D{Width: uint32(p.Size.Width), Height: uint32(maxInt(p.Size.Height, 1)), Depth: uint32(maxInt(p.Size.Depth, 1))},
	}
	vk.CmdCopyImage(c.buf, st.img, vk.ImageLayoutTransferSrcOptimal, dt.img, vk.ImageLayoutTransferDstOptimal, 1, []vk.ImageCopy{region})
}

func (c *CmdList) CopyBufferToTexture(p *rhi.BufferTextureCopy) {
	c.copyBufTex(p, true)
}

func (c *CmdList) CopyTextureToBuffer(p *rhi.BufferTextureCopy) {
	c.copyBufTex(p, false)
}

func (c *CmdList) copyBufTex(p *rhi.BufferTextureCopy, toTexture bool) {
	if !c.mustRecord() {
		return
	}
	sub := rhi.TextureRange{FirstMip: p.Level, NumMips: 1, FirstLayer: p.Layer, NumLayers: 1}
	c.transitionForCopy(p.Tex, sub, toTexture)

	t := p.Tex.(*Texture)
	aspect := t.aspectMask()
	if p.DepthCopy {
		aspect = vk.ImageAspectStencilBit
	} else if aspect&vk.ImageAspectDepthBit != 0 {
		aspect = vk.ImageAspectDepthBit
	}
	region := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(p.BufOff),
		BufferRowLength:   uint32(p.Stride[0]),
		BufferImageHeight: uint32(p.Stride[1]),
		ImageSubresource:  vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(aspect), MipLevel: uint32(p.Level), BaseArrayLayer: uint32(p.Layer), LayerCount: 1},
		ImageOffset:       vk.Offset3D{X: int32(p.TexOff.X), Y: int32(p.TexOff.Y), Z: int32(p.TexOff.Z)},
		ImageExtent:       vk.Extent3D{Width: uint32(p.Size.Width), Height: uint32(maxInt(p.Size.Height, 1)), Depth: uint32(maxInt(p.Size.Depth, 1))},
	}
	buf := p.Buf.(*Buffer).buf
	if toTexture {
		vk.CmdCopyBufferToImage(c.buf, buf, t.img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
	} else {
		vk.CmdCopyImageToBuffer(c.buf, t.img, vk.ImageLayoutTransferSrcOptimal, buf, 1, []vk.BufferImageCopy{region})
	}
}

func (c *CmdList) Fill(buf rhi.Buffer, off int64, value byte, size int64) {
	if !c.mustRecord() {
		return
	}
	word := uint32(value) * 0x01010101
	vk.CmdFillBuffer(c.buf, buf.(*Buffer).buf, vk.DeviceSize(off), vk.DeviceSize(size), word)
}

// ResourceBarrier implements rhi.CmdList for whole-Buffer
// transitions.
func (c *CmdList) ResourceBarrier(buf rhi.Buffer, after rhi.State) {
	if !c.mustRecord() {
		return
	}
	b := buf.(*Buffer)
	before := b.CurrentState()
	c.pendingBuffer = append(c.pendingBuffer, vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(convAccess(before.Access)),
		DstAccessMask:       vk.AccessFlags(convAccess(after.Access)),
		Buffer:              b.buf,
		Offset:              0,
		Size:                vk.DeviceSize(vk.WholeSize),
	})
	b.ChangeState(after)
}

// TextureBarrier implements rhi.CmdList for one Texture sub-resource.
func (c *CmdList) TextureBarrier(tex rhi.Texture, after rhi.State, sub rhi.TextureRange) {
	if !c.mustRecord() {
		return
	}
	t := tex.(*Texture)
	before := t.CurrentState(sub)
	c.pendingImage = append(c.pendingImage, vk.ImageMemoryBarrier{
		SType:         vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask: vk.AccessFlags(convAccess(before.Access)),
		DstAccessMask: vk.AccessFlags(convAccess(after.Access)),
		OldLayout:     convLayout(before.Layout),
		NewLayout:     convLayout(after.Layout),
		Image:         t.img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(t.aspectMask()),
			BaseMipLevel:   uint32(sub.FirstMip),
			LevelCount:     uint32(clampCount(sub.NumMips, t.desc.MipLevels)),
			BaseArrayLayer: uint32(sub.FirstLayer),
			LayerCount:     uint32(clampCount(sub.NumLayers, maxInt(t.desc.ArraySize, 1))),
		},
	})
	t.ChangeState(after, sub)
}

// FlushBarriers implements rhi.CmdList: one vkCmdPipelineBarrier call
// with srcStage=ALL_COMMANDS, dstStage=ALL_COMMANDS, then the batch is
// cleared.
func (c *CmdList) FlushBarriers() {
	if !c.mustRecord() {
		return
	}
	if len(c.pendingBuffer) == 0 && len(c.pendingImage) == 0 {
		return
	}
	vk.CmdPipelineBarrier(c.buf,
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		0, 0, nil,
		uint32(len(c.pendingBuffer)), c.pendingBuffer,
		uint32(len(c.pendingImage)), c.pendingImage)
	c.pendingBuffer = c.pendingBuffer[:0]
	c.pendingImage = c.pendingImage[:0]
}

func (c *CmdList) AddQueueWait(s rhi.Semaphore)   { c.waits = append(c.waits, s.(*Semaphore).h) }
func (c *CmdList) AddQueueSignal(s rhi.Semaphore) { c.signals = append(c.signals, s.(*Semaphore).h) }

func (c *CmdList) BuildAccelStructure(as rhi.AccelStructure, scratch rhi.Buffer) {
	if !c.mustRecord() {
		return
	}
	a := as.(*AccelStructure)
	a.build(c, scratch.(*Buffer))
}

func (c *CmdList) End() error {
	if c.state != rhi.CmdRecording {
		return rhi.NewError("End", rhi.InvalidState, nil)
	}
	if c.inPass {
		c.EndRenderPass()
	}
	c.FlushBarriers()
	if res := vk.EndCommandBuffer(c.buf); res != vk.Success {
		c.state = rhi.CmdInitial
		return vkError("vkEndCommandBuffer", res)
	}
	c.state = rhi.CmdClosed
	return nil
}

func (c *CmdList) Reset() error {
	if res := vk.ResetCommandBuffer(c.buf, vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit)); res != vk.Success {
		return vkError("vkResetCommandBuffer", res)
	}
	c.pendingBuffer = c.pendingBuffer[:0]
	c.pendingImage = c.pendingImage[:0]
	c.inPass = false
	c.state = rhi.CmdInitial
	return nil
}

func convAccess(a rhi.Access) vk.AccessFlagBits {
	var f vk.AccessFlagBits
	if a&rhi.AccessVertexBufferRead != 0 {
		f |= vk.AccessVertexAttributeReadBit
	}
	if a&rhi.AccessIndexBufferRead != 0 {
		f |= vk.AccessIndexReadBit
	}
	if a&rhi.AccessConstantBufferRead != 0 {
		f |= vk.AccessUniformReadBit
	}
	if a&rhi.AccessColorRead != 0 {
		f |= vk.AccessColorAttachmentReadBit
	}
	if a&rhi.AccessColorWrite != 0 {
		f |= vk.AccessColorAttachmentWriteBit
	}
	if a&rhi.AccessDepthStencilRead != 0 {
		f |= vk.AccessDepthStencilAttachmentReadBit
	}
	if a&rhi.AccessDepthStencilWrite != 0 {
		f |= vk.AccessDepthStencilAttachmentWriteBit
	}
	if a&rhi.AccessCopyRead != 0 {
		f |= vk.AccessTransferReadBit
	}
	if a&rhi.AccessCopyWrite != 0 {
		f |= vk.AccessTransferWriteBit
	}
	if a&rhi.AccessShaderRead != 0 {
		f |= vk.AccessShaderReadBit
	}
	if a&rhi.AccessShaderWrite != 0 {
		f |= vk.AccessShaderWriteBit
	}
	if a&rhi.AccessAccelStructRead != 0 {
		f |= vk.AccessAccelerationStructureReadBitKhr
	}
	if a&rhi.AccessAccelStructWrite != 0 {
		f |= vk.AccessAccelerationStructureWriteBitKhr
	}
	return f
}

func convLayout(l rhi.Layout) vk.ImageLayout {
	switch l {
	case rhi.LayoutGenericRead:
		return vk.ImageLayoutGeneral
	case rhi.LayoutColorTarget:
		return vk.ImageLayoutColorAttachmentOptimal
	case rhi.LayoutDepthStencilTarget:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case rhi.LayoutDepthStencilRead:
		return vk.ImageLayoutDepthStencilReadOnlyOptimal
	case rhi.LayoutShaderRead:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case rhi.LayoutUnorderedAccess:
		return vk.ImageLayoutGeneral
	case rhi.LayoutCopySrc:
		return vk.ImageLayoutTransferSrcOptimal
	case rhi.LayoutCopyDst:
		return vk.ImageLayoutTransferDstOptimal
	case rhi.LayoutPresent:
		return vk.ImageLayoutPresentSrc
	case rhi.LayoutUndefined:
		return vk.ImageLayoutUndefined
	default:
		return vk.ImageLayoutGeneral
	}
}

// Commit implements rhi.Device. It submits cl in order to the one
// queue this backend exposes and, if signal is non-nil, attaches a
// timeline-semaphore signal the caller can CPUWait on.
func (dv *Device) Commit(queue rhi.QueueType, cl []rhi.CmdList, signal rhi.Fence) error {
	dv.submitMu.Lock()
	defer dv.submitMu.Unlock()

	bufs := make([]vk.CommandBuffer, len(cl))
	var waits []vk.Semaphore
	var signals []vk.Semaphore
	for i, l := range cl {
		c := l.(*CmdList)
		bufs[i] = c.buf
		waits = append(waits, c.waits...)
		signals = append(signals, c.signals...)
	}

	var fenceVal uint64
	var timelineInfo *vk.TimelineSemaphoreSubmitInfo
	if signal != nil {
		f := signal.(*Fence)
		v, _ := f.Value()
		fenceVal = v + 1
		signals = append(signals, f.h)
		timelineInfo = &vk.TimelineSemaphoreSubmitInfo{
			SType:                     vk.StructureTypeTimelineSemaphoreSubmitInfo,
			SignalSemaphoreValueCount: 1,
			PSignalSemaphoreValues:    []uint64{fenceVal},
		}
	}

	info := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   uint32(len(bufs)),
		PCommandBuffers:      bufs,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    signals,
		WaitSemaphoreCount:   uint32(len(waits)),
		PWaitSemaphores:      waits,
	}
	if timelineInfo != nil {
		info.PNext = unsafePointer(timelineInfo)
	}
	if res := vk.QueueSubmit(dv.queue, 1, []vk.SubmitInfo{info}, nil); res != vk.Success {
		return vkError("vkQueueSubmit", res)
	}
	return nil
}
