// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vkc "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
)

// stageFlagsVK translates a synchronization scope mask into
// the set of pipeline stages it spans, for vkCmdPipelineBarrier.
// Unlike the GL backend's single glMemoryBarrier bitmask (GL
// has no concept of pipeline stage, only memory visibility),
// Vulkan barriers need both a stage mask and an access mask.
func stageFlagsVK(s gpu.Sync) vkc.PipelineStageFlagBits {
	if s == gpu.SNone {
		return vkc.PipelineStageTopOfPipeBit
	}
	var f vkc.PipelineStageFlagBits
	if s&gpu.SVertexInput != 0 {
		f |= vkc.PipelineStageVertexInputBit
	}
	if s&gpu.SVertexShading != 0 {
		f |= vkc.PipelineStageVertexShaderBit
	}
	if s&gpu.SFragmentShading != 0 {
		f |= vkc.PipelineStageFragmentShaderBit
	}
	if s&gpu.SComputeShading != 0 {
		f |= vkc.PipelineStageComputeShaderBit
	}
	if s&gpu.SColorOutput != 0 {
		f |= vkc.PipelineStageColorAttachmentOutputBit
	}
	if s&gpu.SDSOutput != 0 {
		f |= vkc.PipelineStageEarlyFragmentTestsBit | vkc.PipelineStageLateFragmentTestsBit
	}
	if s&gpu.SDraw != 0 {
		f |= vkc.PipelineStageDrawIndirectBit
	}
	if s&gpu.SResolve != 0 {
		f |= vkc.PipelineStageTransferBit
	}
	if s&gpu.SCopy != 0 {
		f |= vkc.PipelineStageTransferBit
	}
	if s&gpu.SAll != 0 {
		f |= vkc.PipelineStageAllCommandsBit
	}
	if f == 0 {
		f = vkc.PipelineStageTopOfPipeBit
	}
	return f
}

func accessFlagsVK(a gpu.Access) vkc.AccessFlagBits {
	var f vkc.AccessFlagBits
	if a&gpu.AVertexBufRead != 0 {
		f |= vkc.AccessVertexAttributeReadBit
	}
	if a&gpu.AIndexBufRead != 0 {
		f |= vkc.AccessIndexReadBit
	}
	if a&gpu.AColorRead != 0 {
		f |= vkc.AccessColorAttachmentReadBit
	}
	if a&gpu.AColorWrite != 0 {
		f |= vkc.AccessColorAttachmentWriteBit
	}
	if a&gpu.ADSRead != 0 {
		f |= vkc.AccessDepthStencilAttachmentReadBit
	}
	if a&gpu.ADSWrite != 0 {
		f |= vkc.AccessDepthStencilAttachmentWriteBit
	}
	if a&gpu.AResolveRead != 0 {
		f |= vkc.AccessTransferReadBit
	}
	if a&gpu.AResolveWrite != 0 {
		f |= vkc.AccessTransferWriteBit
	}
	if a&gpu.ACopyRead != 0 {
		f |= vkc.AccessTransferReadBit
	}
	if a&gpu.ACopyWrite != 0 {
		f |= vkc.AccessTransferWriteBit
	}
	if a&gpu.AShaderRead != 0 {
		f |= vkc.AccessShaderReadBit
	}
	if a&gpu.AShaderWrite != 0 {
		f |= vkc.AccessShaderWriteBit
	}
	if a&gpu.AAnyRead != 0 {
		f |= vkc.AccessMemoryReadBit
	}
	if a&gpu.AAnyWrite != 0 {
		f |= vkc.AccessMemoryWriteBit
	}
	return f
}

func imageLayoutVK(l gpu.Layout) vkc.ImageLayout {
	switch l {
	case gpu.LCommon:
		return vkc.ImageLayoutGeneral
	case gpu.LColorTarget:
		return vkc.ImageLayoutColorAttachmentOptimal
	case gpu.LDSTarget:
		return vkc.ImageLayoutDepthStencilAttachmentOptimal
	case gpu.LDSRead:
		return vkc.ImageLayoutDepthStencilReadOnlyOptimal
	case gpu.LResolveSrc, gpu.LCopySrc:
		return vkc.ImageLayoutTransferSrcOptimal
	case gpu.LResolveDst, gpu.LCopyDst:
		return vkc.ImageLayoutTransferDstOptimal
	case gpu.LShaderRead:
		return vkc.ImageLayoutShaderReadOnlyOptimal
	case gpu.LPresent:
		return vkc.ImageLayoutPresentSrc
	default:
		return vkc.ImageLayoutUndefined
	}
}
