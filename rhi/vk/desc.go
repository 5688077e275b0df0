// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
	"github.com/argent-engine/rhi/internal/descalloc"
)

// nativeHeap is the descalloc.Factory handle type for rhi/vk: a
// descriptor pool together with the descriptor type it was sized for.
// It holds no descriptor sets.
type nativeHeap struct {
	pool vk.DescriptorPool
	typ  vk.DescriptorType
}

type poolFactory struct {
	dv  *Device
	typ vk.DescriptorType
}

func (f *poolFactory) NewHeap(capacity int, shaderVisible bool) (*nativeHeap, error) {
	size := vk.DescriptorPoolSize{
		Type:            f.typ,
		DescriptorCount: uint32(capacity),
	}
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(capacity),
		PoolSizeCount: 1,
		PPoolSizes:    []vk.DescriptorPoolSize{size},
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(f.dv.dev, &info, nil, &pool); res != vk.Success {
		return nil, vkError("vkCreateDescriptorPool", res)
	}
	return &nativeHeap{pool: pool, typ: f.typ}, nil
}

func (f *poolFactory) DestroyHeap(h *nativeHeap) {
	vk.DestroyDescriptorPool(f.dv.dev, h.pool, nil)
}

// descHeap implements rhi.DescHeap as a thin wrapper reporting one
// descalloc-managed heap type's metadata; rhi/vk does not expose
// per-slot CPU descriptor handles the way rhi/dx does; a
// DescriptorHandle's Slot is an index into the owning
// descriptorManager's pool/set bookkeeping instead.
type descHeap struct {
	typ           rhi.DescHeapType
	capacity      int
	shaderVisible bool
}

func (h *descHeap) Destroy()                    {}
func (h *descHeap) Type() rhi.DescHeapType       { return h.typ }
func (h *descHeap) Capacity() int                { return h.capacity }
func (h *descHeap) DescriptorSize() int          { return 1 }
func (h *descHeap) ShaderVisible() bool          { return h.shaderVisible }

// descriptorManager implements rhi.DescriptorManager by keeping one
// descalloc.Manager per descriptor-heap type, each backed by its own
// pool factory.
type descriptorManager struct {
	dv       *Device
	managers [4]*descalloc.Manager[*nativeHeap]
}

func newDescriptorManager(dv *Device) *descriptorManager {
	types := [4]vk.DescriptorType{
		vk.DescriptorTypeStorageBuffer,
		vk.DescriptorTypeSampler,
		vk.DescriptorTypeStorageImage, // stands in for RTV: color attachments are tracked by image view, not descriptor
		vk.DescriptorTypeStorageImage, // stands in for DSV, likewise
	}
	dm := &descriptorManager{dv: dv}
	for i, t := range types {
		dm.managers[i] = descalloc.New[*nativeHeap](&poolFactory{dv: dv, typ: t})
	}
	return dm
}

func (m *descriptorManager) Allocate(typ rhi.DescHeapType, count int) (rhi.DescriptorHandle, error) {
	s, err := m.managers[typ].Allocate(count)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	return rhi.DescriptorHandle{Heap: &descHeap{typ: typ, capacity: count}, Slot: s.Offset}, nil
}

func (m *descriptorManager) Free(h rhi.DescriptorHandle, count int) {
	dh, ok := h.Heap.(*descHeap)
	if !ok {
		return
	}
	m.managers[dh.typ].Free(descalloc.Slot{HeapIndex: 0, Offset: h.Slot, Count: count})
}

func (m *descriptorManager) AllocateShaderVisible(typ rhi.DescHeapType, count int) (rhi.DescriptorHandle, error) {
	s, err := m.managers[typ].AllocateShaderVisible(count)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	return rhi.DescriptorHandle{Heap: &descHeap{typ: typ, capacity: count, shaderVisible: true}, Slot: s.Offset}, nil
}

func (m *descriptorManager) FreeShaderVisible(h rhi.DescriptorHandle, count int) {
	dh, ok := h.Heap.(*descHeap)
	if !ok {
		return
	}
	m.managers[dh.typ].FreeShaderVisible(descalloc.Slot{HeapIndex: -1, Offset: h.Slot, Count: count})
}

// CopyDescriptors is a no-op on rhi/vk: descriptor writes are made
// directly against the destination set by ResourceSet.Bind* calls,
// there is no separate staging-to-shader-visible copy step the way
// rhi/dx's CopyDescriptorsSimple requires.
func (m *descriptorManager) CopyDescriptors(dst rhi.DescriptorHandle, count int, src rhi.DescriptorHandle) {
}

// BindShaderVisibleHeaps is a no-op on rhi/vk: descriptor sets are
// bound per-draw via vkCmdBindDescriptorSets in ResourceSet, not via
// a global heap-binding call as on rhi/dx.
func (m *descriptorManager) BindShaderVisibleHeaps(cl rhi.CmdList) {}

// Sampler implements rhi.Sampler.
type Sampler struct {
	dv *Device
	h  vk.Sampler
}

func (s *Sampler) Destroy() { vk.DestroySampler(s.dv.dev, s.h, nil) }

// NewSampler implements rhi.Device.
func (dv *Device) NewSampler(s *rhi.Sampling) (rhi.Sampler, error) {
	info := vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        convFilter(s.Mag),
		MinFilter:        convFilter(s.Min),
		MipmapMode:       convMipmapMode(s.Mipmap),
		AddressModeU:     convAddrMode(s.AddrU),
		AddressModeV:     convAddrMode(s.AddrV),
		AddressModeW:     convAddrMode(s.AddrW),
		MinLod:           s.MinLOD,
		MaxLod:           s.MaxLOD,
		MaxAnisotropy:    float32(s.MaxAniso),
		AnisotropyEnable: vkBool(s.MaxAniso > 1),
		CompareOp:        convCmpFunc(s.Cmp),
	}
	var h vk.Sampler
	if res := vk.CreateSampler(dv.dev, &info, nil, &h); res != vk.Success {
		return nil, vkError("vkCreateSampler", res)
	}
	return &Sampler{dv: dv, h: h}, nil
}

func convFilter(f rhi.Filter) vk.Filter {
	if f == rhi.FilterLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

func convMipmapMode(f rhi.Filter) vk.SamplerMipmapMode {
	if f == rhi.FilterLinear {
		return vk.SamplerMipmapModeLinear
	}
	return vk.SamplerMipmapModeNearest
}

func convAddrMode(a rhi.AddrMode) vk.SamplerAddressMode {
	switch a {
	case rhi.AddrWrap:
		return vk.SamplerAddressModeRepeat
	case rhi.AddrMirror:
		return vk.SamplerAddressModeMirroredRepeat
	case rhi.AddrClamp:
		return vk.SamplerAddressModeClampToEdge
	default:
		return vk.SamplerAddressModeRepeat
	}
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

// bindingLayout implements rhi.BindingLayout: one VkDescriptorSetLayout
// per distinct binding space plus the VkPipelineLayout combining them,
// mirroring the teacher's per-space descHeap split.
type bindingLayout struct {
	dv       *Device
	setLayouts map[int]vk.DescriptorSetLayout
	spaces     []int // sorted space indices, for deterministic set numbering
	pipeLayout vk.PipelineLayout
	items      []rhi.BindingItem
	flags      rhi.BindingLayoutFlags
}

func (b *bindingLayout) Destroy() {
	vk.DestroyPipelineLayout(b.dv.dev, b.pipeLayout, nil)
	for _, l := range b.setLayouts {
		vk.DestroyDescriptorSetLayout(b.dv.dev, l, nil)
	}
}

func (b *bindingLayout) Items() []rhi.BindingItem       { return b.items }
func (b *bindingLayout) Flags() rhi.BindingLayoutFlags { return b.flags }

// NewBindingLayout implements rhi.Device. Items are grouped by Space
// into one VkDescriptorSetLayout each, then combined into a single
// VkPipelineLayout, set-numbered in ascending Space order.
func (dv *Device) NewBindingLayout(items []rhi.BindingItem, flags rhi.BindingLayoutFlags) (rhi.BindingLayout, error) {
	bySpace := map[int][]rhi.BindingItem{}
	for _, it := range items {
		bySpace[it.Space] = append(bySpace[it.Space], it)
	}
	spaces := make([]int, 0, len(bySpace))
	for sp := range bySpace {
		spaces = append(spaces, sp)
	}
	for i := 1; i < len(spaces); i++ {
		for j := i; j > 0 && spaces[j-1] > spaces[j]; j-- {
			spaces[j-1], spaces[j] = spaces[j], spaces[j-1]
		}
	}

	setLayouts := make(map[int]vk.DescriptorSetLayout, len(spaces))
	layoutHandles := make([]vk.DescriptorSetLayout, 0, len(spaces))
	for _, sp := range spaces {
		binds := make([]vk.DescriptorSetLayoutBinding, len(bySpace[sp]))
		for i, it := range bySpace[sp] {
			binds[i] = vk.DescriptorSetLayoutBinding{
				Binding:         uint32(it.BaseRegister),
				DescriptorType:  convResourceType(it.Type),
				DescriptorCount: uint32(maxInt(it.NumResources, 1)),
				StageFlags:      vk.ShaderStageFlags(convStageMask(it.Stages)),
			}
		}
		info := vk.DescriptorSetLayoutCreateInfo{
			SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
			BindingCount: uint32(len(binds)),
			PBindings:    binds,
		}
		var l vk.DescriptorSetLayout
		if res := vk.CreateDescriptorSetLayout(dv.dev, &info, nil, &l); res != vk.Success {
			for _, prior := range layoutHandles {
				vk.DestroyDescriptorSetLayout(dv.dev, prior, nil)
			}
			return nil, vkError("vkCreateDescriptorSetLayout", res)
		}
		setLayouts[sp] = l
		layoutHandles = append(layoutHandles, l)
	}

	plInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(layoutHandles)),
		PSetLayouts:    layoutHandles,
	}
	var pl vk.PipelineLayout
	if res := vk.CreatePipelineLayout(dv.dev, &plInfo, nil, &pl); res != vk.Success {
		for _, l := range layoutHandles {
			vk.DestroyDescriptorSetLayout(dv.dev, l, nil)
		}
		return nil, vkError("vkCreatePipelineLayout", res)
	}

	return &bindingLayout{dv: dv, setLayouts: setLayouts, spaces: spaces, pipeLayout: pl, items: items, flags: flags}, nil
}

func convResourceType(t rhi.ResourceType) vk.DescriptorType {
	switch t {
	case rhi.ResBuffer:
		return vk.DescriptorTypeStorageBuffer
	case rhi.ResTexture:
		return vk.DescriptorTypeSampledImage
	case rhi.ResImage:
		return vk.DescriptorTypeStorageImage
	case rhi.ResConstantBuffer:
		return vk.DescriptorTypeUniformBuffer
	case rhi.ResSampler:
		return vk.DescriptorTypeSampler
	case rhi.ResAccelStruct:
		return vk.DescriptorTypeAccelerationStructureNv
	default:
		return vk.DescriptorTypeStorageBuffer
	}
}

func convStageMask(s rhi.Stage) vk.ShaderStageFlagBits {
	var f vk.ShaderStageFlagBits
	if s&rhi.StageVertex != 0 {
		f |= vk.ShaderStageVertexBit
	}
	if s&rhi.StageFragment != 0 {
		f |= vk.ShaderStageFragmentBit
	}
	if s&rhi.StageCompute != 0 {
		f |= vk.ShaderStageComputeBit
	}
	if s&rhi.StageRayGen != 0 {
		f |= vk.ShaderStageRaygenBitNv
	}
	if s&rhi.StageMiss != 0 {
		f |= vk.ShaderStageMissBitNv
	}
	if s&rhi.StageClosestHit != 0 {
		f |= vk.ShaderStageClosestHitBitNv
	}
	if f == 0 {
		f = vk.ShaderStageAll
	}
	return f
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func convCmpFunc(f rhi.CmpFunc) vk.CompareOp {
	switch f {
	case rhi.CmpNever:
		return vk.CompareOpNever
	case rhi.CmpLess:
		return vk.CompareOpLess
	case rhi.CmpEqual:
		return vk.CompareOpEqual
	case rhi.CmpLessEqual:
		return vk.CompareOpLessOrEqual
	case rhi.CmpGreater:
		return vk.CompareOpGreater
	case rhi.CmpNotEqual:
		return vk.CompareOpNotEqual
	case rhi.CmpGreaterEqual:
		return vk.CompareOpGreaterOrEqual
	case rhi.CmpAlways:
		return vk.CompareOpAlways
	default:
		return vk.CompareOpAlways
	}
}
