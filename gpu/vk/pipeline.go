// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vkc "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
)

// pipeline is the Vulkan PipelineHandle, wrapping either a
// VkPipeline created through vkCreateGraphicsPipelines or one
// created through vkCreateComputePipelines. Viewport, scissor,
// stencil reference and blend constants are all declared
// dynamic, since the façade's Context.SetViewport et al. set
// them per draw rather than baking them into pipeline state
// (mirroring the GL backend's stateCache, which reissues the
// equivalent calls lazily).
type pipeline struct {
	dev      *device
	handle   vkc.Pipeline
	isComp   bool
	layout   vkc.PipelineLayout
	topology vkc.PrimitiveTopology
}

func vertexFmtVK(f gpu.VertexFmt) (format vkc.Format, size uint32) {
	switch f {
	case gpu.Int8:
		return vkc.FormatR8Sint, 1
	case gpu.Int8x2:
		return vkc.FormatR8g8Sint, 2
	case gpu.Int8x3:
		return vkc.FormatR8g8b8Sint, 3
	case gpu.Int8x4:
		return vkc.FormatR8g8b8a8Sint, 4
	case gpu.UInt8:
		return vkc.FormatR8Uint, 1
	case gpu.UInt8x2:
		return vkc.FormatR8g8Uint, 2
	case gpu.UInt8x3:
		return vkc.FormatR8g8b8Uint, 3
	case gpu.UInt8x4:
		return vkc.FormatR8g8b8a8Uint, 4
	case gpu.Int16:
		return vkc.FormatR16Sint, 2
	case gpu.Int16x2:
		return vkc.FormatR16g16Sint, 4
	case gpu.Int16x3:
		return vkc.FormatR16g16b16Sint, 6
	case gpu.Int16x4:
		return vkc.FormatR16g16b16a16Sint, 8
	case gpu.UInt16:
		return vkc.FormatR16Uint, 2
	case gpu.UInt16x2:
		return vkc.FormatR16g16Uint, 4
	case gpu.UInt16x3:
		return vkc.FormatR16g16b16Uint, 6
	case gpu.UInt16x4:
		return vkc.FormatR16g16b16a16Uint, 8
	case gpu.Int32:
		return vkc.FormatR32Sint, 4
	case gpu.Int32x2:
		return vkc.FormatR32g32Sint, 8
	case gpu.Int32x3:
		return vkc.FormatR32g32b32Sint, 12
	case gpu.Int32x4:
		return vkc.FormatR32g32b32a32Sint, 16
	case gpu.UInt32:
		return vkc.FormatR32Uint, 4
	case gpu.UInt32x2:
		return vkc.FormatR32g32Uint, 8
	case gpu.UInt32x3:
		return vkc.FormatR32g32b32Uint, 12
	case gpu.UInt32x4:
		return vkc.FormatR32g32b32a32Uint, 16
	case gpu.Float32:
		return vkc.FormatR32Sfloat, 4
	case gpu.Float32x2:
		return vkc.FormatR32g32Sfloat, 8
	case gpu.Float32x3:
		return vkc.FormatR32g32b32Sfloat, 12
	default:
		return vkc.FormatR32g32b32a32Sfloat, 16
	}
}

func topologyVK(t gpu.Topology) vkc.PrimitiveTopology {
	switch t {
	case gpu.TPoint:
		return vkc.PrimitiveTopologyPointList
	case gpu.TLine:
		return vkc.PrimitiveTopologyLineList
	case gpu.TLnStrip:
		return vkc.PrimitiveTopologyLineStrip
	case gpu.TTriStrip:
		return vkc.PrimitiveTopologyTriangleStrip
	default:
		return vkc.PrimitiveTopologyTriangleList
	}
}

func cullModeVK(c gpu.CullMode) vkc.CullModeFlagBits {
	switch c {
	case gpu.CFront:
		return vkc.CullModeFrontBit
	case gpu.CBack:
		return vkc.CullModeBackBit
	default:
		return vkc.CullModeNone
	}
}

func cmpOpVK(c gpu.CmpFunc) vkc.CompareOp {
	switch c {
	case gpu.CNever:
		return vkc.CompareOpNever
	case gpu.CLess:
		return vkc.CompareOpLess
	case gpu.CEqual:
		return vkc.CompareOpEqual
	case gpu.CLessEqual:
		return vkc.CompareOpLessOrEqual
	case gpu.CGreater:
		return vkc.CompareOpGreater
	case gpu.CNotEqual:
		return vkc.CompareOpNotEqual
	case gpu.CGreaterEqual:
		return vkc.CompareOpGreaterOrEqual
	default:
		return vkc.CompareOpAlways
	}
}

func stencilOpVK(s gpu.StencilOp) vkc.StencilOp {
	switch s {
	case gpu.SZero:
		return vkc.StencilOpZero
	case gpu.SReplace:
		return vkc.StencilOpReplace
	case gpu.SIncClamp:
		return vkc.StencilOpIncrementAndClamp
	case gpu.SDecClamp:
		return vkc.StencilOpDecrementAndClamp
	case gpu.SInvert:
		return vkc.StencilOpInvert
	case gpu.SIncWrap:
		return vkc.StencilOpIncrementAndWrap
	case gpu.SDecWrap:
		return vkc.StencilOpDecrementAndWrap
	default:
		return vkc.StencilOpKeep
	}
}

func stencilStateVK(s gpu.StencilT) vkc.StencilOpState {
	return vkc.StencilOpState{
		FailOp:      stencilOpVK(s.DSFail[0]),
		DepthFailOp: stencilOpVK(s.DSFail[1]),
		PassOp:      stencilOpVK(s.Pass),
		CompareOp:   cmpOpVK(s.Cmp),
		CompareMask: s.ReadMask,
		WriteMask:   s.WriteMask,
	}
}

func blendFacVK(f gpu.BlendFac) vkc.BlendFactor {
	switch f {
	case gpu.BOne:
		return vkc.BlendFactorOne
	case gpu.BSrcColor:
		return vkc.BlendFactorSrcColor
	case gpu.BInvSrcColor:
		return vkc.BlendFactorOneMinusSrcColor
	case gpu.BSrcAlpha:
		return vkc.BlendFactorSrcAlpha
	case gpu.BInvSrcAlpha:
		return vkc.BlendFactorOneMinusSrcAlpha
	case gpu.BDstColor:
		return vkc.BlendFactorDstColor
	case gpu.BInvDstColor:
		return vkc.BlendFactorOneMinusDstColor
	case gpu.BDstAlpha:
		return vkc.BlendFactorDstAlpha
	case gpu.BInvDstAlpha:
		return vkc.BlendFactorOneMinusDstAlpha
	case gpu.BSrcAlphaSaturated:
		return vkc.BlendFactorSrcAlphaSaturate
	case gpu.BBlendColor:
		return vkc.BlendFactorConstantColor
	case gpu.BInvBlendColor:
		return vkc.BlendFactorOneMinusConstantColor
	default:
		return vkc.BlendFactorZero
	}
}

func blendOpVK(o gpu.BlendOp) vkc.BlendOp {
	switch o {
	case gpu.BSubtract:
		return vkc.BlendOpSubtract
	case gpu.BRevSubtract:
		return vkc.BlendOpReverseSubtract
	case gpu.BMin:
		return vkc.BlendOpMin
	case gpu.BMax:
		return vkc.BlendOpMax
	default:
		return vkc.BlendOpAdd
	}
}

func colorWriteMaskVK(m gpu.ColorMask) vkc.ColorComponentFlags {
	var f vkc.ColorComponentFlagBits
	if m&gpu.CRed != 0 {
		f |= vkc.ColorComponentRBit
	}
	if m&gpu.CGreen != 0 {
		f |= vkc.ColorComponentGBit
	}
	if m&gpu.CBlue != 0 {
		f |= vkc.ColorComponentBBit
	}
	if m&gpu.CAlpha != 0 {
		f |= vkc.ColorComponentABit
	}
	return vkc.ColorComponentFlags(f)
}

func (d *device) NewPipeline(state any) (gpu.PipelineHandle, error) {
	switch s := state.(type) {
	case *gpu.CompState:
		code := s.Func.Code.(*shaderCode)
		dt, _ := s.Desc.(*descTable)
		var layout vkc.PipelineLayout
		if dt != nil {
			layout = dt.layout
		}
		stageCI := vkc.PipelineShaderStageCreateInfo{
			SType:  vkc.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vkc.ShaderStageComputeBit,
			Module: code.module,
			PName:  cstr(entryName(s.Func.Name)),
		}
		ci := vkc.ComputePipelineCreateInfo{
			SType:  vkc.StructureTypeComputePipelineCreateInfo,
			Stage:  stageCI,
			Layout: layout,
		}
		handles := make([]vkc.Pipeline, 1)
		if err := chk(vkc.CreateComputePipelines(d.dev, vkc.NullPipelineCache, 1,
			[]vkc.ComputePipelineCreateInfo{ci}, nil, handles)); err != nil {
			return nil, gpu.NewError("new_pipeline", gpu.External, err)
		}
		return &pipeline{dev: d, handle: handles[0], isComp: true, layout: layout}, nil

	case *gpu.GraphState:
		return d.newGraphicsPipeline(s)

	default:
		return nil, gpu.NewError("new_pipeline", gpu.InvalidArg, nil)
	}
}

func entryName(name string) string {
	if name == "" {
		return "main"
	}
	return name
}

func (d *device) newGraphicsPipeline(s *gpu.GraphState) (gpu.PipelineHandle, error) {
	vcode := s.VertFunc.Code.(*shaderCode)
	fcode := s.FragFunc.Code.(*shaderCode)
	stages := []vkc.PipelineShaderStageCreateInfo{
		{
			SType:  vkc.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vkc.ShaderStageVertexBit,
			Module: vcode.module,
			PName:  cstr(entryName(s.VertFunc.Name)),
		},
		{
			SType:  vkc.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vkc.ShaderStageFragmentBit,
			Module: fcode.module,
			PName:  cstr(entryName(s.FragFunc.Name)),
		},
	}

	bindings := make([]vkc.VertexInputBindingDescription, len(s.Input))
	attrs := make([]vkc.VertexInputAttributeDescription, len(s.Input))
	offsets := map[int]uint32{}
	for i, in := range s.Input {
		format, size := vertexFmtVK(in.Format)
		off := offsets[in.Nr]
		bindings[i] = vkc.VertexInputBindingDescription{Binding: uint32(in.Nr), Stride: uint32(in.Stride), InputRate: vkc.VertexInputRateVertex}
		attrs[i] = vkc.VertexInputAttributeDescription{Location: uint32(i), Binding: uint32(in.Nr), Format: format, Offset: off}
		offsets[in.Nr] = off + size
	}
	vertexCI := vkc.PipelineVertexInputStateCreateInfo{
		SType:                           vkc.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}

	topology := topologyVK(s.Topology)
	assemblyCI := vkc.PipelineInputAssemblyStateCreateInfo{
		SType:    vkc.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: topology,
	}

	viewportCI := vkc.PipelineViewportStateCreateInfo{
		SType:         vkc.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	frontFace := vkc.FrontFaceClockwise
	if !s.Raster.Clockwise {
		frontFace = vkc.FrontFaceCounterClockwise
	}
	polygonMode := vkc.PolygonModeFill
	if s.Raster.Fill == gpu.FLines {
		polygonMode = vkc.PolygonModeLine
	}
	rasterCI := vkc.PipelineRasterizationStateCreateInfo{
		SType:                   vkc.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode:             polygonMode,
		CullMode:                vkc.CullModeFlags(cullModeVK(s.Raster.Cull)),
		FrontFace:               frontFace,
		DepthBiasEnable:         boolVK(s.Raster.DepthBias),
		DepthBiasConstantFactor: s.Raster.BiasValue,
		DepthBiasSlopeFactor:    s.Raster.BiasSlope,
		DepthBiasClamp:          s.Raster.BiasClamp,
		LineWidth:               1,
	}

	msCI := vkc.PipelineMultisampleStateCreateInfo{
		SType:                vkc.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: sampleCountFlag(s.Samples),
	}

	dsCI := vkc.PipelineDepthStencilStateCreateInfo{
		SType:                 vkc.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       boolVK(s.DS.DepthTest),
		DepthWriteEnable:      boolVK(s.DS.DepthWrite),
		DepthCompareOp:        cmpOpVK(s.DS.DepthCmp),
		StencilTestEnable:     boolVK(s.DS.StencilTest),
		Front:                 stencilStateVK(s.DS.Front),
		Back:                  stencilStateVK(s.DS.Back),
	}

	nTargets := 1
	if s.Blend.IndependentBlend {
		nTargets = len(s.Blend.Color)
	}
	if nTargets < 1 {
		nTargets = 1
	}
	attachments := make([]vkc.PipelineColorBlendAttachmentState, nTargets)
	for i := range attachments {
		cb := gpu.ColorBlend{WriteMask: gpu.CAll}
		if i < len(s.Blend.Color) {
			if s.Blend.IndependentBlend {
				cb = s.Blend.Color[i]
			} else {
				cb = s.Blend.Color[0]
			}
		}
		attachments[i] = vkc.PipelineColorBlendAttachmentState{
			BlendEnable:         boolVK(cb.Blend),
			SrcColorBlendFactor: blendFacVK(cb.SrcFac[0]),
			DstColorBlendFactor: blendFacVK(cb.DstFac[0]),
			ColorBlendOp:        blendOpVK(cb.Op[0]),
			SrcAlphaBlendFactor: blendFacVK(cb.SrcFac[1]),
			DstAlphaBlendFactor: blendFacVK(cb.DstFac[1]),
			AlphaBlendOp:        blendOpVK(cb.Op[1]),
			ColorWriteMask:      colorWriteMaskVK(cb.WriteMask),
		}
	}
	blendCI := vkc.PipelineColorBlendStateCreateInfo{
		SType:           vkc.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
	}

	dynStates := []vkc.DynamicState{
		vkc.DynamicStateViewport, vkc.DynamicStateScissor,
		vkc.DynamicStateStencilReference, vkc.DynamicStateBlendConstants,
	}
	dynCI := vkc.PipelineDynamicStateCreateInfo{
		SType:             vkc.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynStates)),
		PDynamicStates:    dynStates,
	}

	dt, _ := s.Desc.(*descTable)
	var layout vkc.PipelineLayout
	if dt != nil {
		layout = dt.layout
	}
	rp, _ := s.Pass.(*renderPass)
	var rpHandle vkc.RenderPass
	if rp != nil {
		rpHandle = rp.handle
	}

	ci := vkc.GraphicsPipelineCreateInfo{
		SType:               vkc.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexCI,
		PInputAssemblyState: &assemblyCI,
		PViewportState:      &viewportCI,
		PRasterizationState: &rasterCI,
		PMultisampleState:   &msCI,
		PDepthStencilState:  &dsCI,
		PColorBlendState:    &blendCI,
		PDynamicState:       &dynCI,
		Layout:              layout,
		RenderPass:          rpHandle,
		Subpass:             uint32(s.Subpass),
	}
	handles := make([]vkc.Pipeline, 1)
	if err := chk(vkc.CreateGraphicsPipelines(d.dev, vkc.NullPipelineCache, 1,
		[]vkc.GraphicsPipelineCreateInfo{ci}, nil, handles)); err != nil {
		return nil, gpu.NewError("new_pipeline", gpu.External, err)
	}
	return &pipeline{dev: d, handle: handles[0], layout: layout, topology: topology}, nil
}

func boolVK(b bool) vkc.Bool32 {
	if b {
		return vkc.True
	}
	return vkc.False
}

func (p *pipeline) Destroy() {
	if p.handle != vkc.NullPipeline {
		vkc.DestroyPipeline(p.dev.dev, p.handle, nil)
		p.handle = vkc.NullPipeline
	}
}
