// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gputest

import "github.com/nope-engine/ngl/gpu"

// cmdBuffer records commands into a simple in-memory log.
// It tracks begin/end flags without rejecting bad nesting.
// Buffer copies, buffer/texture copies and fills are executed
// immediately on the fake resources' bytes; everything else
// only logs or does nothing.
type cmdBuffer struct {
	recording bool
	passOpen  bool
	workOpen  bool
	blitOpen  bool
	executed  bool

	log []string
}

func (c *cmdBuffer) Destroy() {}

func (c *cmdBuffer) Begin() error {
	c.recording = true
	c.log = c.log[:0]
	return nil
}

func (c *cmdBuffer) BeginPass(pass gpu.RenderPass, fb gpu.Framebuf, clear []gpu.ClearValue) {
	c.passOpen = true
	c.log = append(c.log, "begin_pass")
}

func (c *cmdBuffer) NextSubpass() { c.log = append(c.log, "next_subpass") }

func (c *cmdBuffer) EndPass() {
	c.passOpen = false
	c.log = append(c.log, "end_pass")
}

func (c *cmdBuffer) BeginWork(wait bool) { c.workOpen = true }
func (c *cmdBuffer) EndWork()            { c.workOpen = false }
func (c *cmdBuffer) BeginBlit(wait bool) { c.blitOpen = true }
func (c *cmdBuffer) EndBlit()            { c.blitOpen = false }

func (c *cmdBuffer) SetPipeline(p gpu.PipelineHandle)                 { c.log = append(c.log, "set_pipeline") }
func (c *cmdBuffer) SetViewport(vp []gpu.Viewport)              {}
func (c *cmdBuffer) SetScissor(sciss []gpu.Scissor)             {}
func (c *cmdBuffer) SetBlendColor(r, g, b, a float32)           {}
func (c *cmdBuffer) SetStencilRef(value uint32)                 {}
func (c *cmdBuffer) SetVertexBuf(start int, buf []gpu.Buffer, off []int64) {
	c.log = append(c.log, "set_vertex_buf")
}
func (c *cmdBuffer) SetIndexBuf(format gpu.IndexFmt, buf gpu.Buffer, off int64) {
	c.log = append(c.log, "set_index_buf")
}
func (c *cmdBuffer) SetDescTableGraph(table gpu.DescTable, start int, heapCopy []int) {
	c.log = append(c.log, "set_desc_table_graph")
}
func (c *cmdBuffer) SetDescTableComp(table gpu.DescTable, start int, heapCopy []int) {
	c.log = append(c.log, "set_desc_table_comp")
}

func (c *cmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	c.log = append(c.log, "draw")
}
func (c *cmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	c.log = append(c.log, "draw_indexed")
}
func (c *cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	c.log = append(c.log, "dispatch")
}

func (c *cmdBuffer) CopyBuffer(param *gpu.BufferCopy) {
	copy(param.To.(*buffer).data[param.ToOff:], param.From.(*buffer).data[param.FromOff:param.FromOff+param.Size])
}

func (c *cmdBuffer) CopyImage(param *gpu.ImageCopy) {}

func (c *cmdBuffer) CopyBufToImg(param *gpu.BufImgCopy) {
	tx := param.Img.(*texture)
	idx := param.Layer*tx.levels + param.Level
	copy(tx.data[idx], param.Buf.(*buffer).data[param.BufOff:])
}

func (c *cmdBuffer) CopyImgToBuf(param *gpu.BufImgCopy) {
	tx := param.Img.(*texture)
	idx := param.Layer*tx.levels + param.Level
	copy(param.Buf.(*buffer).data[param.BufOff:], tx.data[idx])
}

func (c *cmdBuffer) Fill(buf gpu.Buffer, off int64, value byte, size int64) {
	b := buf.(*buffer)
	for i := off; i < off+size; i++ {
		b.data[i] = value
	}
}

func (c *cmdBuffer) Barrier(b []gpu.Barrier)         {}
func (c *cmdBuffer) Transition(t []gpu.Transition)   {}

func (c *cmdBuffer) End() error {
	c.recording = false
	return nil
}

func (c *cmdBuffer) Reset() error {
	c.log = c.log[:0]
	return nil
}
