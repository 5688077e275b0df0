// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

// ShaderCode implements rhi.ShaderCode: a VkShaderModule created from
// a SPIR-V blob.
type ShaderCode struct {
	dv    *Device
	mod   vk.ShaderModule
	stage rhi.ShaderStage
	entry string
}

func (s *ShaderCode) Destroy() { vk.DestroyShaderModule(s.dv.dev, s.mod, nil) }

func (s *ShaderCode) Stage() rhi.ShaderStage { return s.stage }
func (s *ShaderCode) EntryPoint() string     { return s.entry }

// NewShaderCode implements rhi.Device. code must be SPIR-V; entry
// defaults to "main" when empty.
func (dv *Device) NewShaderCode(stage rhi.ShaderStage, code *rhi.Blob, entry string) (rhi.ShaderCode, error) {
	if entry == "" {
		entry = "main"
	}
	data := code.Bytes()
	if len(data)%4 != 0 {
		return nil, rhi.NewError("NewShaderCode", rhi.InvalidArgument, nil)
	}
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    (*uint32)(unsafe.Pointer(&data[0])),
	}
	var mod vk.ShaderModule
	if res := vk.CreateShaderModule(dv.dev, &info, nil, &mod); res != vk.Success {
		return nil, vkError("vkCreateShaderModule", res)
	}
	return &ShaderCode{dv: dv, mod: mod, stage: stage, entry: entry}, nil
}

func convShaderStage(s rhi.ShaderStage) vk.ShaderStageFlagBits {
	switch s {
	case rhi.StageCodeVertex:
		return vk.ShaderStageVertexBit
	case rhi.StageCodeHull:
		return vk.ShaderStageTessellationControlBit
	case rhi.StageCodeDomain:
		return vk.ShaderStageTessellationEvaluationBit
	case rhi.StageCodeGeometry:
		return vk.ShaderStageGeometryBit
	case rhi.StageCodeFragment:
		return vk.ShaderStageFragmentBit
	case rhi.StageCodeCompute:
		return vk.ShaderStageComputeBit
	case rhi.StageCodeMesh:
		return vk.ShaderStageMeshBitNv
	case rhi.StageCodeAmplification:
		return vk.ShaderStageTaskBitNv
	case rhi.StageCodeRayGen:
		return vk.ShaderStageRaygenBitNv
	case rhi.StageCodeMiss:
		return vk.ShaderStageMissBitNv
	case rhi.StageCodeClosestHit:
		return vk.ShaderStageClosestHitBitNv
	case rhi.StageCodeAnyHit:
		return vk.ShaderStageAnyHitBitNv
	case rhi.StageCodeIntersection:
		return vk.ShaderStageIntersectionBitNv
	case rhi.StageCodeCallable:
		return vk.ShaderStageCallableBitNv
	default:
		return vk.ShaderStageAll
	}
}

func shaderStageInfo(f rhi.ShaderFunc) vk.PipelineShaderStageCreateInfo {
	sc := f.Code.(*ShaderCode)
	entry := f.Entry
	if entry == "" {
		entry = sc.entry
	}
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  convShaderStage(sc.stage),
		Module: sc.mod,
		PName:  safeCString(entry),
	}
}

func safeCString(s string) string {
	// vulkan-go passes a Go string's bytes through unchanged for
	// *char fields, so the trailing NUL is appended here.
	return s + "\x00"
}
