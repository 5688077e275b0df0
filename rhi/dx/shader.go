// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import "github.com/argent-engine/rhi"

// ShaderCode implements rhi.ShaderCode. Unlike rhi/vk, which creates
// a VkShaderModule object up front, D3D12 PSOs reference DXIL
// bytecode directly by pointer/length, so there is no native object
// to create here — the Blob is simply retained for later PSO
// creation.
type ShaderCode struct {
	stage rhi.ShaderStage
	entry string
	code  *rhi.Blob
}

func (s *ShaderCode) Destroy()               {}
func (s *ShaderCode) Stage() rhi.ShaderStage { return s.stage }
func (s *ShaderCode) EntryPoint() string     { return s.entry }

// NewShaderCode implements rhi.Device.
func (dv *Device) NewShaderCode(stage rhi.ShaderStage, code *rhi.Blob, entry string) (rhi.ShaderCode, error) {
	if entry == "" {
		entry = "main"
	}
	return &ShaderCode{stage: stage, entry: entry, code: code}, nil
}

type shaderBytecode struct {
	ptr uintptr
	len uintptr
}

func (s *ShaderCode) bytecode() shaderBytecode {
	b := s.code.Bytes()
	if len(b) == 0 {
		return shaderBytecode{}
	}
	return shaderBytecode{ptr: uintptr(unsafePtr(b)), len: uintptr(len(b))}
}
