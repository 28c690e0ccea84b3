// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vkc "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
)

// cmdBuffer wraps a real VkCommandBuffer. Unlike the GL
// backend, which has no command-buffer object of its own and
// has to synthesize one out of recorded closures, every method
// here issues its vkCmd* call directly against buf: recording
// and replay are the same step.
type cmdBuffer struct {
	dev *device
	buf vkc.CommandBuffer

	curPass *renderPass
	curFB   *framebuf
	subpass int

	graphPipe *pipeline
	compPipe  *pipeline
}

func (d *device) NewCmdBuffer() (gpu.CmdBuffer, error) {
	ai := vkc.CommandBufferAllocateInfo{
		SType:              vkc.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.cmdPool,
		Level:              vkc.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	bufs := make([]vkc.CommandBuffer, 1)
	if err := chk(vkc.AllocateCommandBuffers(d.dev, &ai, bufs)); err != nil {
		return nil, gpu.NewError("new_cmd_buffer", gpu.External, err)
	}
	return &cmdBuffer{dev: d, buf: bufs[0]}, nil
}

func (c *cmdBuffer) Begin() error {
	bi := vkc.CommandBufferBeginInfo{
		SType: vkc.StructureTypeCommandBufferBeginInfo,
		Flags: vkc.CommandBufferUsageFlags(vkc.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := chk(vkc.BeginCommandBuffer(c.buf, &bi)); err != nil {
		return gpu.NewError("begin", gpu.External, err)
	}
	return nil
}

func (c *cmdBuffer) BeginPass(pass gpu.RenderPass, fb gpu.Framebuf, clear []gpu.ClearValue) {
	rp := pass.(*renderPass)
	f := fb.(*framebuf)
	c.curPass, c.curFB, c.subpass = rp, f, 0

	clears := make([]vkc.ClearValue, len(clear))
	for i, cv := range clear {
		isColor := true
		if i < len(rp.att) {
			isColor = isColorAttachmentVK(rp.att[i].Format)
		}
		if isColor {
			clears[i] = vkc.NewClearValue([]float32{cv.Color[0], cv.Color[1], cv.Color[2], cv.Color[3]})
		} else {
			clears[i] = vkc.NewClearDepthStencil(cv.Depth, uint32(cv.Stencil))
		}
	}
	bi := vkc.RenderPassBeginInfo{
		SType:       vkc.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.handle,
		Framebuffer: f.handle,
		RenderArea:  vkc.Rect2D{Extent: vkc.Extent2D{Width: uint32(f.width), Height: uint32(f.height)}},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}
	vkc.CmdBeginRenderPass(c.buf, &bi, vkc.SubpassContentsInline)
}

func isColorAttachmentVK(pf gpu.PixelFmt) bool {
	switch pf {
	case gpu.D16un, gpu.D32f, gpu.S8ui, gpu.D24unS8ui, gpu.D32fS8ui:
		return false
	default:
		return true
	}
}

func (c *cmdBuffer) NextSubpass() {
	c.subpass++
	vkc.CmdNextSubpass(c.buf, vkc.SubpassContentsInline)
}

func (c *cmdBuffer) EndPass() {
	vkc.CmdEndRenderPass(c.buf)
	c.curPass, c.curFB = nil, nil
}

func (c *cmdBuffer) BeginWork(wait bool) {}
func (c *cmdBuffer) EndWork()            {}
func (c *cmdBuffer) BeginBlit(wait bool) {}
func (c *cmdBuffer) EndBlit()            {}

func (c *cmdBuffer) SetPipeline(pl gpu.PipelineHandle) {
	p := pl.(*pipeline)
	if p.isComp {
		c.compPipe = p
		vkc.CmdBindPipeline(c.buf, vkc.PipelineBindPointCompute, p.handle)
	} else {
		c.graphPipe = p
		vkc.CmdBindPipeline(c.buf, vkc.PipelineBindPointGraphics, p.handle)
	}
}

func (c *cmdBuffer) SetViewport(vp []gpu.Viewport) {
	if len(vp) == 0 {
		return
	}
	vps := make([]vkc.Viewport, len(vp))
	for i, v := range vp {
		vps[i] = vkc.Viewport{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height, MinDepth: v.Znear, MaxDepth: v.Zfar}
	}
	vkc.CmdSetViewport(c.buf, 0, uint32(len(vps)), vps)
}

func (c *cmdBuffer) SetScissor(sciss []gpu.Scissor) {
	if len(sciss) == 0 {
		return
	}
	scs := make([]vkc.Rect2D, len(sciss))
	for i, s := range sciss {
		scs[i] = vkc.Rect2D{Offset: vkc.Offset2D{X: int32(s.X), Y: int32(s.Y)}, Extent: vkc.Extent2D{Width: uint32(s.Width), Height: uint32(s.Height)}}
	}
	vkc.CmdSetScissor(c.buf, 0, uint32(len(scs)), scs)
}

func (c *cmdBuffer) SetBlendColor(r, g, b, a float32) {
	vkc.CmdSetBlendConstants(c.buf, [4]float32{r, g, b, a})
}

func (c *cmdBuffer) SetStencilRef(value uint32) {
	vkc.CmdSetStencilReference(c.buf, vkc.StencilFaceFrontAndBack, value)
}

func (c *cmdBuffer) SetVertexBuf(start int, buf []gpu.Buffer, off []int64) {
	handles := make([]vkc.Buffer, len(buf))
	offs := make([]vkc.DeviceSize, len(buf))
	for i, b := range buf {
		bb, _ := b.(*buffer)
		if bb != nil {
			handles[i] = bb.handle
		}
		offs[i] = vkc.DeviceSize(off[i])
	}
	if len(handles) > 0 {
		vkc.CmdBindVertexBuffers(c.buf, uint32(start), uint32(len(handles)), handles, offs)
	}
}

func (c *cmdBuffer) SetIndexBuf(format gpu.IndexFmt, buf gpu.Buffer, off int64) {
	b, _ := buf.(*buffer)
	if b == nil {
		return
	}
	idxType := vkc.IndexTypeUint16
	if format == gpu.Index32 {
		idxType = vkc.IndexTypeUint32
	}
	vkc.CmdBindIndexBuffer(c.buf, b.handle, vkc.DeviceSize(off), idxType)
}

// SetDescTableGraph binds one VkDescriptorSet per descriptor
// heap in table, passing heapCopy through as dynamic buffer
// offsets. As in the GL backend, the façade's third parameter
// is named heapCopy in the interface but is interpreted as
// dynOffsets, matching Context.SetBindGroup's actual call
// pattern.
func (c *cmdBuffer) SetDescTableGraph(table gpu.DescTable, start int, heapCopy []int) {
	c.bindDescTable(table, start, heapCopy, vkc.PipelineBindPointGraphics)
}

func (c *cmdBuffer) SetDescTableComp(table gpu.DescTable, start int, heapCopy []int) {
	c.bindDescTable(table, start, heapCopy, vkc.PipelineBindPointCompute)
}

func (c *cmdBuffer) bindDescTable(table gpu.DescTable, start int, dynOffsets []int, bindPoint vkc.PipelineBindPoint) {
	t, _ := table.(*descTable)
	if t == nil {
		return
	}
	sets := bindSets(t)
	if len(sets) == 0 {
		return
	}
	offs := make([]uint32, len(dynOffsets))
	for i, o := range dynOffsets {
		offs[i] = uint32(o)
	}
	var layout vkc.PipelineLayout
	if bindPoint == vkc.PipelineBindPointGraphics && c.graphPipe != nil {
		layout = c.graphPipe.layout
	} else if c.compPipe != nil {
		layout = c.compPipe.layout
	} else {
		layout = t.layout
	}
	vkc.CmdBindDescriptorSets(c.buf, bindPoint, layout, uint32(start), uint32(len(sets)), sets, uint32(len(offs)), offs)
}

func (c *cmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	vkc.CmdDraw(c.buf, uint32(vertCount), uint32(instCount), uint32(baseVert), uint32(baseInst))
}

func (c *cmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	vkc.CmdDrawIndexed(c.buf, uint32(idxCount), uint32(instCount), uint32(baseIdx), int32(vertOff), uint32(baseInst))
}

func (c *cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	vkc.CmdDispatch(c.buf, uint32(grpCountX), uint32(grpCountY), uint32(grpCountZ))
}

func (c *cmdBuffer) CopyBuffer(param *gpu.BufferCopy) {
	from, _ := param.From.(*buffer)
	to, _ := param.To.(*buffer)
	if from == nil || to == nil {
		return
	}
	region := vkc.BufferCopy{SrcOffset: vkc.DeviceSize(param.FromOff), DstOffset: vkc.DeviceSize(param.ToOff), Size: vkc.DeviceSize(param.Size)}
	vkc.CmdCopyBuffer(c.buf, from.handle, to.handle, 1, []vkc.BufferCopy{region})
}

func subresourceLayers(t *texture, layer, layers, level int) vkc.ImageSubresourceLayers {
	if layers < 1 {
		layers = 1
	}
	return vkc.ImageSubresourceLayers{
		AspectMask:     vkc.ImageAspectFlags(t.aspect),
		MipLevel:       uint32(level),
		BaseArrayLayer: uint32(layer),
		LayerCount:     uint32(layers),
	}
}

func (c *cmdBuffer) CopyImage(param *gpu.ImageCopy) {
	from, _ := param.From.(*texture)
	to, _ := param.To.(*texture)
	if from == nil || to == nil {
		return
	}
	layers := param.Layers
	if layers < 1 {
		layers = 1
	}
	region := vkc.ImageCopy{
		SrcSubresource: subresourceLayers(from, param.FromLayer, layers, param.FromLevel),
		SrcOffset:      vkc.Offset3D{X: int32(param.FromOff.X), Y: int32(param.FromOff.Y), Z: int32(param.FromOff.Z)},
		DstSubresource: subresourceLayers(to, param.ToLayer, layers, param.ToLevel),
		DstOffset:      vkc.Offset3D{X: int32(param.ToOff.X), Y: int32(param.ToOff.Y), Z: int32(param.ToOff.Z)},
		Extent:         vkc.Extent3D{Width: uint32(param.Size.Width), Height: uint32(param.Size.Height), Depth: uint32(maxInt(param.Size.Depth, 1))},
	}
	vkc.CmdCopyImage(c.buf, from.handle, vkc.ImageLayoutTransferSrcOptimal, to.handle, vkc.ImageLayoutTransferDstOptimal, 1, []vkc.ImageCopy{region})
}

func (c *cmdBuffer) CopyBufToImg(param *gpu.BufImgCopy) {
	buf, _ := param.Buf.(*buffer)
	img, _ := param.Img.(*texture)
	if buf == nil || img == nil {
		return
	}
	region := vkc.BufferImageCopy{
		BufferOffset:      vkc.DeviceSize(param.BufOff),
		BufferRowLength:   uint32(param.Stride[0]),
		BufferImageHeight: uint32(param.Stride[1]),
		ImageSubresource:  subresourceLayers(img, param.Layer, 1, param.Level),
		ImageOffset:       vkc.Offset3D{X: int32(param.ImgOff.X), Y: int32(param.ImgOff.Y), Z: int32(param.ImgOff.Z)},
		ImageExtent:       vkc.Extent3D{Width: uint32(param.Size.Width), Height: uint32(param.Size.Height), Depth: uint32(maxInt(param.Size.Depth, 1))},
	}
	vkc.CmdCopyBufferToImage(c.buf, buf.handle, img.handle, vkc.ImageLayoutTransferDstOptimal, 1, []vkc.BufferImageCopy{region})
}

func (c *cmdBuffer) CopyImgToBuf(param *gpu.BufImgCopy) {
	buf, _ := param.Buf.(*buffer)
	img, _ := param.Img.(*texture)
	if buf == nil || img == nil {
		return
	}
	region := vkc.BufferImageCopy{
		BufferOffset:      vkc.DeviceSize(param.BufOff),
		BufferRowLength:   uint32(param.Stride[0]),
		BufferImageHeight: uint32(param.Stride[1]),
		ImageSubresource:  subresourceLayers(img, param.Layer, 1, param.Level),
		ImageOffset:       vkc.Offset3D{X: int32(param.ImgOff.X), Y: int32(param.ImgOff.Y), Z: int32(param.ImgOff.Z)},
		ImageExtent:       vkc.Extent3D{Width: uint32(param.Size.Width), Height: uint32(param.Size.Height), Depth: uint32(maxInt(param.Size.Depth, 1))},
	}
	vkc.CmdCopyImageToBuffer(c.buf, img.handle, vkc.ImageLayoutTransferSrcOptimal, buf.handle, 1, []vkc.BufferImageCopy{region})
}

func (c *cmdBuffer) Fill(buf gpu.Buffer, off int64, value byte, size int64) {
	b, _ := buf.(*buffer)
	if b == nil {
		return
	}
	word := uint32(value) | uint32(value)<<8 | uint32(value)<<16 | uint32(value)<<24
	vkc.CmdFillBuffer(c.buf, b.handle, vkc.DeviceSize(off), vkc.DeviceSize(size), word)
}

func (c *cmdBuffer) Barrier(b []gpu.Barrier) {
	if len(b) == 0 {
		return
	}
	var srcStage, dstStage vkc.PipelineStageFlagBits
	mem := make([]vkc.MemoryBarrier, len(b))
	for i, bb := range b {
		srcStage |= stageFlagsVK(bb.SyncBefore)
		dstStage |= stageFlagsVK(bb.SyncAfter)
		mem[i] = vkc.MemoryBarrier{
			SType:         vkc.StructureTypeMemoryBarrier,
			SrcAccessMask: vkc.AccessFlags(accessFlagsVK(bb.AccessBefore)),
			DstAccessMask: vkc.AccessFlags(accessFlagsVK(bb.AccessAfter)),
		}
	}
	vkc.CmdPipelineBarrier(c.buf, vkc.PipelineStageFlags(srcStage), vkc.PipelineStageFlags(dstStage), 0, uint32(len(mem)), mem, 0, nil, 0, nil)
}

func (c *cmdBuffer) Transition(t []gpu.Transition) {
	for _, tt := range t {
		v, _ := tt.IView.(*textureView)
		if v == nil {
			continue
		}
		srcStage := stageFlagsVK(tt.SyncBefore)
		dstStage := stageFlagsVK(tt.SyncAfter)
		barrier := vkc.ImageMemoryBarrier{
			SType:               vkc.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vkc.AccessFlags(accessFlagsVK(tt.AccessBefore)),
			DstAccessMask:       vkc.AccessFlags(accessFlagsVK(tt.AccessAfter)),
			OldLayout:           imageLayoutVK(tt.LayoutBefore),
			NewLayout:           imageLayoutVK(tt.LayoutAfter),
			SrcQueueFamilyIndex: vkc.QueueFamilyIgnored,
			DstQueueFamilyIndex: vkc.QueueFamilyIgnored,
			Image:               v.tex.handle,
			SubresourceRange: vkc.ImageSubresourceRange{
				AspectMask:     vkc.ImageAspectFlags(v.tex.aspect),
				BaseMipLevel:   uint32(v.level),
				LevelCount:     uint32(maxInt(v.levels, 1)),
				BaseArrayLayer: uint32(v.layer),
				LayerCount:     uint32(maxInt(v.layers, 1)),
			},
		}
		vkc.CmdPipelineBarrier(c.buf, vkc.PipelineStageFlags(srcStage), vkc.PipelineStageFlags(dstStage), 0, 0, nil, 0, nil, 1, []vkc.ImageMemoryBarrier{barrier})
	}
}

func (c *cmdBuffer) End() error {
	if err := chk(vkc.EndCommandBuffer(c.buf)); err != nil {
		return gpu.NewError("end", gpu.External, err)
	}
	return nil
}

func (c *cmdBuffer) Reset() error {
	if err := chk(vkc.ResetCommandBuffer(c.buf, vkc.CommandBufferResetFlags(0))); err != nil {
		return gpu.NewError("reset", gpu.External, err)
	}
	return nil
}

func (c *cmdBuffer) Destroy() {
	if c.buf != nil {
		vkc.FreeCommandBuffers(c.dev.dev, c.dev.cmdPool, 1, []vkc.CommandBuffer{c.buf})
		c.buf = nil
	}
}
