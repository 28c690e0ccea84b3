// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vkc "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
)

// ReadColorTexture implements gpu.PixelReader, backing
// Context's offscreen capture path the same way gpu/gl's
// readback.go does, but through a real staging buffer instead
// of glReadPixels: tex is assumed to already hold color
// attachment contents (the capture path only ever targets a
// texture just rendered to), so the transfer step treats
// ColorAttachmentOptimal as the source layout and restores it
// afterward.
func (d *device) ReadColorTexture(tex gpu.Texture, w, h int, dst []byte) error {
	t, ok := tex.(*texture)
	if !ok {
		return gpu.NewError("read_color_texture", gpu.InvalidArg, nil)
	}
	need := 4 * w * h
	if len(dst) < need {
		return gpu.NewError("read_color_texture", gpu.InvalidArg, nil)
	}

	stage, err := d.NewBuffer(int64(need), true, 0)
	if err != nil {
		return gpu.NewError("read_color_texture", gpu.External, err)
	}
	sb := stage.(*buffer)
	defer sb.Destroy()

	ai := vkc.CommandBufferAllocateInfo{
		SType:              vkc.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.cmdPool,
		Level:              vkc.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	bufs := make([]vkc.CommandBuffer, 1)
	if err := chk(vkc.AllocateCommandBuffers(d.dev, &ai, bufs)); err != nil {
		return gpu.NewError("read_color_texture", gpu.External, err)
	}
	cb := bufs[0]
	defer vkc.FreeCommandBuffers(d.dev, d.cmdPool, 1, bufs)

	bi := vkc.CommandBufferBeginInfo{
		SType: vkc.StructureTypeCommandBufferBeginInfo,
		Flags: vkc.CommandBufferUsageFlags(vkc.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := chk(vkc.BeginCommandBuffer(cb, &bi)); err != nil {
		return gpu.NewError("read_color_texture", gpu.External, err)
	}

	toTransferSrc := vkc.ImageMemoryBarrier{
		SType:               vkc.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vkc.AccessFlags(vkc.AccessColorAttachmentWriteBit),
		DstAccessMask:       vkc.AccessFlags(vkc.AccessTransferReadBit),
		OldLayout:           vkc.ImageLayoutColorAttachmentOptimal,
		NewLayout:           vkc.ImageLayoutTransferSrcOptimal,
		SrcQueueFamilyIndex: vkc.QueueFamilyIgnored,
		DstQueueFamilyIndex: vkc.QueueFamilyIgnored,
		Image:               t.handle,
		SubresourceRange: vkc.ImageSubresourceRange{
			AspectMask:     vkc.ImageAspectFlags(t.aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vkc.CmdPipelineBarrier(cb, vkc.PipelineStageFlags(vkc.PipelineStageColorAttachmentOutputBit),
		vkc.PipelineStageFlags(vkc.PipelineStageTransferBit), 0, 0, nil, 0, nil, 1,
		[]vkc.ImageMemoryBarrier{toTransferSrc})

	region := vkc.BufferImageCopy{
		BufferOffset: 0,
		ImageSubresource: vkc.ImageSubresourceLayers{
			AspectMask:     vkc.ImageAspectFlags(t.aspect),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageExtent: vkc.Extent3D{Width: uint32(w), Height: uint32(h), Depth: 1},
	}
	vkc.CmdCopyImageToBuffer(cb, t.handle, vkc.ImageLayoutTransferSrcOptimal, sb.handle, 1,
		[]vkc.BufferImageCopy{region})

	backToColor := toTransferSrc
	backToColor.SrcAccessMask = vkc.AccessFlags(vkc.AccessTransferReadBit)
	backToColor.DstAccessMask = vkc.AccessFlags(vkc.AccessColorAttachmentWriteBit)
	backToColor.OldLayout = vkc.ImageLayoutTransferSrcOptimal
	backToColor.NewLayout = vkc.ImageLayoutColorAttachmentOptimal
	vkc.CmdPipelineBarrier(cb, vkc.PipelineStageFlags(vkc.PipelineStageTransferBit),
		vkc.PipelineStageFlags(vkc.PipelineStageColorAttachmentOutputBit), 0, 0, nil, 0, nil, 1,
		[]vkc.ImageMemoryBarrier{backToColor})

	if err := chk(vkc.EndCommandBuffer(cb)); err != nil {
		return gpu.NewError("read_color_texture", gpu.External, err)
	}

	fenceCI := vkc.FenceCreateInfo{SType: vkc.StructureTypeFenceCreateInfo}
	var fence vkc.Fence
	vkc.CreateFence(d.dev, &fenceCI, nil, &fence)
	defer vkc.DestroyFence(d.dev, fence, nil)

	submit := vkc.SubmitInfo{
		SType:              vkc.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vkc.CommandBuffer{cb},
	}
	if err := chk(vkc.QueueSubmit(d.queue, 1, []vkc.SubmitInfo{submit}, fence)); err != nil {
		return gpu.NewError("read_color_texture", gpu.External, err)
	}
	vkc.WaitForFences(d.dev, 1, []vkc.Fence{fence}, vkc.True, vkc.MaxUint64)

	copy(dst[:need], sb.mapped[:need])
	return nil
}
