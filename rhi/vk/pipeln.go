// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// Pipeline implements rhi.Pipeline over one of the four native
// pipeline kinds (graphics/compute/mesh share VkPipeline +
// VkPipelineBindPoint; ray tracing additionally carries the shader
// group handles needed to build a ShaderTable).
type Pipeline struct {
	dv         *Device
	pipe       vk.Pipeline
	bindPoint  vk.PipelineBindPoint
	layout     *bindingLayout
	groupCount int // ray tracing: number of shader groups, for GetRayTracingShaderGroupHandles
}

func (p *Pipeline) Destroy() { vk.DestroyPipeline(p.dv.dev, p.pipe, nil) }

// NewPipeline implements rhi.Device.
func (dv *Device) NewPipeline(state any) (rhi.Pipeline, error) {
	switch s := state.(type) {
	case *rhi.GraphicsState:
		return dv.newGraphicsPipeline(s)
	case *rhi.ComputeState:
		return dv.newComputePipeline(s)
	case *rhi.MeshState:
		return dv.newMeshPipeline(s)
	case *rhi.RayTracingState:
		return dv.newRayTracingPipeline(s)
	default:
		return nil, rhi.NewError("NewPipeline", rhi.InvalidArgument, nil)
	}
}

func (dv *Device) newComputePipeline(s *rhi.ComputeState) (rhi.Pipeline, error) {
	layout := s.Layout.(*bindingLayout)
	info := vk.ComputePipelineCreateInfo{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  shaderStageInfo(s.Func),
		Layout: layout.pipeLayout,
	}
	pipes := make([]vk.Pipeline, 1)
	if res := vk.CreateComputePipelines(dv.dev, nil, 1, []vk.ComputePipelineCreateInfo{info}, nil, pipes); res != vk.Success {
		return nil, vkError("vkCreateComputePipelines", res)
	}
	return &Pipeline{dv: dv, pipe: pipes[0], bindPoint: vk.PipelineBindPointCompute, layout: layout}, nil
}

func (dv *Device) newGraphicsPipeline(s *rhi.GraphicsState) (rhi.Pipeline, error) {
	layout := s.Layout.(*bindingLayout)
	pass := s.Pass.(*RenderPass)

	var stages []vk.PipelineShaderStageCreateInfo
	if s.MeshFunc.Code != nil {
		if s.AmpFunc.Code != nil {
			stages = append(stages, shaderStageInfo(s.AmpFunc))
		}
		stages = append(stages, shaderStageInfo(s.MeshFunc))
	} else {
		stages = append(stages, shaderStageInfo(s.VertFunc))
		if s.HullFunc.Code != nil {
			stages = append(stages, shaderStageInfo(s.HullFunc))
		}
		if s.DomainFunc.Code != nil {
			stages = append(stages, shaderStageInfo(s.DomainFunc))
		}
		if s.GeomFunc.Code != nil {
			stages = append(stages, shaderStageInfo(s.GeomFunc))
		}
	}
	if s.FragFunc.Code != nil {
		stages = append(stages, shaderStageInfo(s.FragFunc))
	}

	bindings := make([]vk.VertexInputBindingDescription, len(s.Input))
	attrs := make([]vk.VertexInputAttributeDescription, len(s.Input))
	for i, in := range s.Input {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   uint32(in.Slot),
			Stride:    uint32(in.Stride),
			InputRate: vk.VertexInputRateVertex,
		}
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  uint32(in.Slot),
			Format:   convVertexFormat(in.Format),
		}
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}

	assembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: convTopology(s.Topology),
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	raster := convRasterState(s.Raster)
	ms := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: sampleCountFlag(s.Samples),
	}
	ds := convDepthStencilState(s.DepthStencil)
	blend := convBlendState(s.Blend)

	dynStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dyn := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynStates)),
		PDynamicStates:    dynStates,
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:           uint32(len(stages)),
		PStages:              stages,
		PVertexInputState:    &vertexInput,
		PInputAssemblyState:  &assembly,
		PViewportState:       &viewportState,
		PRasterizationState:  &raster,
		PMultisampleState:    &ms,
		PDepthStencilState:   &ds,
		PColorBlendState:     &blend,
		PDynamicState:        &dyn,
		Layout:               layout.pipeLayout,
		RenderPass:           pass.pass,
		Subpass:              uint32(s.Subpass),
	}
	pipes := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(dv.dev, nil, 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pipes); res != vk.Success {
		return nil, vkError("vkCreateGraphicsPipelines", res)
	}
	return &Pipeline{dv: dv, pipe: pipes[0], bindPoint: vk.PipelineBindPointGraphics, layout: layout}, nil
}

// newMeshPipeline reuses newGraphicsPipeline's fixed-function path by
// repacking MeshState into the equivalent GraphicsState shape: both
// backends specify mesh pipelines with the same rasterizer/blend/DS
// state, differing only in which programmable stages feed the
// rasterizer.
func (dv *Device) newMeshPipeline(s *rhi.MeshState) (rhi.Pipeline, error) {
	gs := &rhi.GraphicsState{
		MeshFunc:     s.MeshFunc,
		AmpFunc:      s.AmpFunc,
		FragFunc:     s.FragFunc,
		Layout:       s.Layout,
		Raster:       s.Raster,
		Samples:      s.Samples,
		DepthStencil: s.DepthStencil,
		Blend:        s.Blend,
		Pass:         s.Pass,
		Subpass:      s.Subpass,
		Name:         s.Name,
	}
	return dv.newGraphicsPipeline(gs)
}

// newRayTracingPipeline builds a VkPipeline with
// VK_NV_ray_tracing's group structure: one group per
// raygen/miss/callable entry and one triangles-or-procedural group
// per hit-group (closest-hit [+ any-hit] [+ intersection]).
func (dv *Device) newRayTracingPipeline(s *rhi.RayTracingState) (rhi.Pipeline, error) {
	layout := s.Layout.(*bindingLayout)

	var stages []vk.PipelineShaderStageCreateInfo
	var groups []vk.RayTracingShaderGroupCreateInfoNv

	addGeneral := func(f rhi.ShaderFunc) {
		idx := uint32(len(stages))
		stages = append(stages, shaderStageInfo(f))
		groups = append(groups, vk.RayTracingShaderGroupCreateInfoNv{
			SType:              vk.StructureTypeRayTracingShaderGroupCreateInfoNv,
			Type:               vk.RayTracingShaderGroupTypeGeneralNv,
			GeneralShader:      idx,
			ClosestHitShader:   vk.ShaderUnusedNv,
			AnyHitShader:       vk.ShaderUnusedNv,
			IntersectionShader: vk.ShaderUnusedNv,
		})
	}
	addGeneral(s.RayGen)
	for _, m := range s.Miss {
		addGeneral(m)
	}

	for i := range s.ClosestHit {
		grp := vk.RayTracingShaderGroupCreateInfoNv{
			SType:              vk.StructureTypeRayTracingShaderGroupCreateInfoNv,
			Type:               vk.RayTracingShaderGroupTypeTrianglesHitGroupNv,
			GeneralShader:      vk.ShaderUnusedNv,
			ClosestHitShader:   vk.ShaderUnusedNv,
			AnyHitShader:       vk.ShaderUnusedNv,
			IntersectionShader: vk.ShaderUnusedNv,
		}
		if s.ClosestHit[i].Code != nil {
			grp.ClosestHitShader = uint32(len(stages))
			stages = append(stages, shaderStageInfo(s.ClosestHit[i]))
		}
		if i < len(s.AnyHit) && s.AnyHit[i].Code != nil {
			grp.AnyHitShader = uint32(len(stages))
			stages = append(stages, shaderStageInfo(s.AnyHit[i]))
		}
		if i < len(s.Intersection) && s.Intersection[i].Code != nil {
			grp.Type = vk.RayTracingShaderGroupTypeProceduralHitGroupNv
			grp.IntersectionShader = uint32(len(stages))
			stages = append(stages, shaderStageInfo(s.Intersection[i]))
		}
		groups = append(groups, grp)
	}
	for _, c := range s.Callable {
		addGeneral(c)
	}

	info := vk.RayTracingPipelineCreateInfoNv{
		SType:             vk.StructureTypeRayTracingPipelineCreateInfoNv,
		StageCount:        uint32(len(stages)),
		PStages:           stages,
		GroupCount:        uint32(len(groups)),
		PGroups:           groups,
		MaxRecursionDepth: uint32(s.MaxRecursion),
		Layout:            layout.pipeLayout,
	}
	pipes := make([]vk.Pipeline, 1)
	if res := vk.CreateRayTracingPipelinesNv(dv.dev, nil, 1, []vk.RayTracingPipelineCreateInfoNv{info}, nil, pipes); res != vk.Success {
		return nil, vkError("vkCreateRayTracingPipelinesNV", res)
	}
	return &Pipeline{dv: dv, pipe: pipes[0], bindPoint: vk.PipelineBindPointRayTracingNv, layout: layout, groupCount: len(groups)}, nil
}

func convTopology(t rhi.PrimitiveType) vk.PrimitiveTopology {
	switch t {
	case rhi.PrimitivePoint:
		return vk.PrimitiveTopologyPointList
	case rhi.PrimitiveLine:
		return vk.PrimitiveTopologyLineList
	case rhi.PrimitiveLineStrip:
		return vk.PrimitiveTopologyLineStrip
	case rhi.PrimitiveTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	default:
		return vk.PrimitiveTopologyTriangleList
	}
}

func convVertexFormat(f rhi.VertexFormat) vk.Format {
	switch f {
	case rhi.VFFloat32:
		return vk.FormatR32Sfloat
	case rhi.VFFloat32x2:
		return vk.FormatR32g32Sfloat
	case rhi.VFFloat32x3:
		return vk.FormatR32g32b32Sfloat
	case rhi.VFFloat32x4:
		return vk.FormatR32g32b32a32Sfloat
	case rhi.VFUint32:
		return vk.FormatR32Uint
	case rhi.VFUint32x2:
		return vk.FormatR32g32Uint
	case rhi.VFUint32x3:
		return vk.FormatR32g32b32Uint
	case rhi.VFUint32x4:
		return vk.FormatR32g32b32a32Uint
	case rhi.VFInt32:
		return vk.FormatR32Sint
	case rhi.VFInt32x2:
		return vk.FormatR32g32Sint
	case rhi.VFInt32x3:
		return vk.FormatR32g32b32Sint
	case rhi.VFInt32x4:
		return vk.FormatR32g32b32a32Sint
	case rhi.VFUint8x4:
		return vk.FormatR8g8b8a8Uint
	case rhi.VFInt8x4:
		return vk.FormatR8g8b8a8Sint
	default:
		return vk.FormatR32g32b32a32Sfloat
	}
}

func convCullMode(c rhi.CullMode) vk.CullModeFlagBits {
	switch c {
	case rhi.CullFront:
		return vk.CullModeFrontBit
	case rhi.CullBack:
		return vk.CullModeBackBit
	default:
		return vk.CullModeNone
	}
}

func convRasterState(r rhi.RasterState) vk.PipelineRasterizationStateCreateInfo {
	front := vk.FrontFaceCounterClockwise
	if r.Clockwise {
		front = vk.FrontFaceClockwise
	}
	fill := vk.PolygonModeFill
	if r.Fill == rhi.FillWireframe {
		fill = vk.PolygonModeLine
	}
	return vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode:             fill,
		CullMode:                vk.CullModeFlags(convCullMode(r.Cull)),
		FrontFace:               front,
		DepthBiasEnable:         vkBool(r.DepthBias),
		DepthBiasConstantFactor: r.BiasValue,
		DepthBiasSlopeFactor:    r.BiasSlope,
		DepthBiasClamp:          r.BiasClamp,
		LineWidth:               1,
	}
}

func convStencilOp(op rhi.StencilOp) vk.StencilOp {
	switch op {
	case rhi.StencilZero:
		return vk.StencilOpZero
	case rhi.StencilReplace:
		return vk.StencilOpReplace
	case rhi.StencilIncClamp:
		return vk.StencilOpIncrementAndClamp
	case rhi.StencilDecClamp:
		return vk.StencilOpDecrementAndClamp
	case rhi.StencilInvert:
		return vk.StencilOpInvert
	case rhi.StencilIncWrap:
		return vk.StencilOpIncrementAndWrap
	case rhi.StencilDecWrap:
		return vk.StencilOpDecrementAndWrap
	default:
		return vk.StencilOpKeep
	}
}

func convStencilFace(f rhi.StencilFace) vk.StencilOpState {
	return vk.StencilOpState{
		FailOp:    convStencilOp(f.FailOp),
		PassOp:    convStencilOp(f.PassOp),
		DepthFailOp: convStencilOp(f.DepthFailOp),
		CompareOp: convCmpFunc(f.Cmp),
		CompareMask: f.ReadMask,
		WriteMask:   f.WriteMask,
	}
}

func convDepthStencilState(d rhi.DepthStencilState) vk.PipelineDepthStencilStateCreateInfo {
	return vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(d.DepthTest),
		DepthWriteEnable:      vkBool(d.DepthWrite),
		DepthCompareOp:        convCmpFunc(d.DepthCmp),
		StencilTestEnable:     vkBool(d.StencilTest),
		Front:                 convStencilFace(d.Front),
		Back:                  convStencilFace(d.Back),
	}
}

func convBlendOp(op rhi.BlendOp) vk.BlendOp {
	switch op {
	case rhi.BlendSubtract:
		return vk.BlendOpSubtract
	case rhi.BlendRevSubtract:
		return vk.BlendOpReverseSubtract
	case rhi.BlendMin:
		return vk.BlendOpMin
	case rhi.BlendMax:
		return vk.BlendOpMax
	default:
		return vk.BlendOpAdd
	}
}

func convBlendFactor(f rhi.BlendFactor) vk.BlendFactor {
	switch f {
	case rhi.BlendOne:
		return vk.BlendFactorOne
	case rhi.BlendSrcColor:
		return vk.BlendFactorSrcColor
	case rhi.BlendInvSrcColor:
		return vk.BlendFactorOneMinusSrcColor
	case rhi.BlendSrcAlpha:
		return vk.BlendFactorSrcAlpha
	case rhi.BlendInvSrcAlpha:
		return vk.BlendFactorOneMinusSrcAlpha
	case rhi.BlendDstColor:
		return vk.BlendFactorDstColor
	case rhi.BlendInvDstColor:
		return vk.BlendFactorOneMinusDstColor
	case rhi.BlendDstAlpha:
		return vk.BlendFactorDstAlpha
	case rhi.BlendInvDstAlpha:
		return vk.BlendFactorOneMinusDstAlpha
	case rhi.BlendSrcAlphaSaturated:
		return vk.BlendFactorSrcAlphaSaturate
	case rhi.BlendConstColor:
		return vk.BlendFactorConstantColor
	case rhi.BlendInvConstColor:
		return vk.BlendFactorOneMinusConstantColor
	default:
		return vk.BlendFactorZero
	}
}

func convColorMask(m rhi.ColorMask) vk.ColorComponentFlagBits {
	var f vk.ColorComponentFlagBits
	if m&rhi.ColorRed != 0 {
		f |= vk.ColorComponentRBit
	}
	if m&rhi.ColorGreen != 0 {
		f |= vk.ColorComponentGBit
	}
	if m&rhi.ColorBlue != 0 {
		f |= vk.ColorComponentBBit
	}
	if m&rhi.ColorAlpha != 0 {
		f |= vk.ColorComponentABit
	}
	return f
}

func convBlendState(b rhi.BlendState) vk.PipelineColorBlendStateCreateInfo {
	atts := make([]vk.PipelineColorBlendAttachmentState, len(b.Targets))
	for i, t := range b.Targets {
		atts[i] = vk.PipelineColorBlendAttachmentState{
			BlendEnable:         vkBool(t.Blend),
			SrcColorBlendFactor: convBlendFactor(t.SrcFac[0]),
			DstColorBlendFactor: convBlendFactor(t.DstFac[0]),
			ColorBlendOp:        convBlendOp(t.Op[0]),
			SrcAlphaBlendFactor: convBlendFactor(t.SrcFac[1]),
			DstAlphaBlendFactor: convBlendFactor(t.DstFac[1]),
			AlphaBlendOp:        convBlendOp(t.Op[1]),
			ColorWriteMask:      vk.ColorComponentFlags(convColorMask(t.WriteMask)),
		}
	}
	return vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(atts)),
		PAttachments:    atts,
	}
}
