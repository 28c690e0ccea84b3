// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"unsafe"

	vkc "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
)

// shaderCode wraps a SPIR-V module. Unlike the GL backend,
// compilation happens eagerly here: SPIR-V is already binary
// and vkCreateShaderModule does not need to know the target
// stage up front.
type shaderCode struct {
	dev    *device
	module vkc.ShaderModule
}

func (d *device) NewShaderCode(data []byte) (gpu.ShaderCode, error) {
	if len(data)%4 != 0 {
		return nil, gpu.NewError("new_shader_code", gpu.InvalidData, nil)
	}
	ci := vkc.ShaderModuleCreateInfo{
		SType:    vkc.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    (*uint32)(unsafe.Pointer(&data[0])),
	}
	var mod vkc.ShaderModule
	if err := chk(vkc.CreateShaderModule(d.dev, &ci, nil, &mod)); err != nil {
		return nil, gpu.NewError("new_shader_code", gpu.InvalidData, err)
	}
	return &shaderCode{dev: d, module: mod}, nil
}

func (s *shaderCode) Destroy() {
	if s.module != vkc.NullShaderModule {
		vkc.DestroyShaderModule(s.dev.dev, s.module, nil)
		s.module = vkc.NullShaderModule
	}
}

func stageBits(st gpu.Stage) vkc.ShaderStageFlagBits {
	var f vkc.ShaderStageFlagBits
	if st&gpu.SVertex != 0 {
		f |= vkc.ShaderStageVertexBit
	}
	if st&gpu.SFragment != 0 {
		f |= vkc.ShaderStageFragmentBit
	}
	if st&gpu.SCompute != 0 {
		f |= vkc.ShaderStageComputeBit
	}
	return f
}
