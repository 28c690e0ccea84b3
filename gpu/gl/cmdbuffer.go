// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	"unsafe"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nope-engine/ngl/gpu"
)

// cmdBuffer records a sequence of closures and replays them
// against the current context on Commit. GL has no separate
// command-buffer object of its own, so recording is the only
// place where the CmdBuffer contract (begin/record/end, then
// submit) has to be synthesized; this mirrors how gputest
// defers "execution" to Commit for unit tests, except here
// replay actually issues GL calls.
type cmdBuffer struct {
	ops   []func(*device) error
	vaos  map[vaoKey]uint32
	state recordState
}

type vaoKey struct {
	pipeline *pipeline
	buffers  [8]uint32
}

// recordState tracks just enough recording-time context to
// translate Set*/Draw* calls into GL closures: the bound
// pipeline (for vertex-attribute/topology info), vertex
// buffers by slot, and the table+dynamic-offsets of the last
// bound descriptor table.
type recordState struct {
	pipeline   *pipeline
	vtxBuffers map[int]boundVtx
	idxBuffer  gpu.Buffer
	idxFormat  gpu.IndexFmt
	idxOff     int64
	descTable  *descTable
	dynOffsets []int
	isCompDesc bool

	curPass *renderPass
	curFB   *framebuf
}

type boundVtx struct {
	buf gpu.Buffer
	off int64
}

func (d *device) NewCmdBuffer() (gpu.CmdBuffer, error) {
	return &cmdBuffer{vaos: make(map[vaoKey]uint32)}, nil
}

func (c *cmdBuffer) Begin() error {
	c.ops = c.ops[:0]
	c.state = recordState{vtxBuffers: make(map[int]boundVtx)}
	return nil
}

func (c *cmdBuffer) record(f func(*device) error) { c.ops = append(c.ops, f) }

func (c *cmdBuffer) BeginPass(pass gpu.RenderPass, fb gpu.Framebuf, clear []gpu.ClearValue) {
	rp := pass.(*renderPass)
	f := fb.(*framebuf)
	c.state.curPass, c.state.curFB = rp, f
	c.record(func(d *device) error {
		glcore.BindFramebuffer(glcore.FRAMEBUFFER, f.fbo)
		d.state.fbo = f.fbo
		glcore.Viewport(0, 0, int32(f.width), int32(f.height))
		colorIdx := 0
		for i, a := range rp.att {
			if a.Load[0] == gpu.LClear && i < len(clear) {
				cv := clear[i]
				if isColorAttachment(a.Format) {
					glcore.ColorMaski(uint32(colorIdx), true, true, true, true)
					glcore.ClearBufferfv(glcore.COLOR, int32(colorIdx), &cv.Color[0])
				} else {
					glcore.ClearBufferfi(glcore.DEPTH_STENCIL, 0, cv.Depth, int32(cv.Stencil))
				}
			}
			if isColorAttachment(a.Format) {
				colorIdx++
			}
		}
		return nil
	})
}

func isColorAttachment(pf gpu.PixelFmt) bool {
	switch pf {
	case gpu.D16un, gpu.D32f, gpu.S8ui, gpu.D24unS8ui, gpu.D32fS8ui:
		return false
	default:
		return true
	}
}

func (c *cmdBuffer) NextSubpass() {}

// EndPass resolves any multisample attachments into their
// MSR targets, invalidates DONT_CARE attachments
// and unbinds the framebuffer. Resolve and invalidate share
// the same framebuffer object: color and MSR attachments are
// both bound to it at distinct attachment points, so the
// resolve blit only needs to toggle glReadBuffer/glDrawBuffer
// between them.
func (c *cmdBuffer) EndPass() {
	rp, f := c.state.curPass, c.state.curFB
	c.record(func(d *device) error {
		if rp != nil && f != nil {
			resolveMSAA(rp, f)
			invalidateDontCare(rp, f, d)
		}
		glcore.BindFramebuffer(glcore.FRAMEBUFFER, 0)
		d.state.fbo = 0
		return nil
	})
	c.state.curPass, c.state.curFB = nil, nil
}

func resolveMSAA(rp *renderPass, f *framebuf) {
	for _, sub := range rp.sub {
		if len(sub.MSR) == 0 {
			continue
		}
		glcore.BindFramebuffer(glcore.READ_FRAMEBUFFER, f.fbo)
		glcore.BindFramebuffer(glcore.DRAW_FRAMEBUFFER, f.fbo)
		for i, dstIdx := range sub.MSR {
			if dstIdx < 0 || i >= len(sub.Color) {
				continue
			}
			srcIdx := sub.Color[i]
			glcore.ReadBuffer(glcore.COLOR_ATTACHMENT0 + uint32(srcIdx))
			glcore.DrawBuffer(glcore.COLOR_ATTACHMENT0 + uint32(dstIdx))
			glcore.BlitFramebuffer(0, 0, int32(f.width), int32(f.height), 0, 0, int32(f.width), int32(f.height), glcore.COLOR_BUFFER_BIT, glcore.NEAREST)
		}
	}
}

// invalidateDontCare issues glInvalidateFramebuffer for every
// attachment whose store op is DONT_CARE, when the context
// probed FeatureInvalidateSubdata.
func invalidateDontCare(rp *renderPass, f *framebuf, d *device) {
	if d.features&gpu.FeatureInvalidateSubdata == 0 {
		return
	}
	var attachments []uint32
	colorIdx := uint32(0)
	for _, a := range rp.att {
		point := glcore.COLOR_ATTACHMENT0 + colorIdx
		isDS := !isColorAttachment(a.Format)
		if isDS {
			point = dsAttachPoint(a.Format)
		}
		if a.Store[0] == gpu.SDontCare {
			attachments = append(attachments, point)
		}
		if !isDS {
			colorIdx++
		}
	}
	if len(attachments) == 0 {
		return
	}
	glcore.BindFramebuffer(glcore.FRAMEBUFFER, f.fbo)
	glcore.InvalidateFramebuffer(glcore.FRAMEBUFFER, int32(len(attachments)), &attachments[0])
}

func (c *cmdBuffer) BeginWork(wait bool) {}
func (c *cmdBuffer) EndWork()            {}
func (c *cmdBuffer) BeginBlit(wait bool) {}
func (c *cmdBuffer) EndBlit()            {}

func (c *cmdBuffer) SetPipeline(pl gpu.PipelineHandle) {
	p := pl.(*pipeline)
	c.state.pipeline = p
	c.record(func(d *device) error {
		glcore.UseProgram(p.prog)
		d.state.program = p.prog
		if !p.isComp {
			d.state.applyBlend(p.graph.Blend)
			d.state.applyDS(p.graph.DS)
			d.state.applyCull(p.graph.Raster.Cull)
		}
		return nil
	})
}

func (c *cmdBuffer) SetViewport(vp []gpu.Viewport) {
	if len(vp) == 0 {
		return
	}
	v := vp[0]
	c.record(func(d *device) error { d.state.applyViewport(v); return nil })
}

func (c *cmdBuffer) SetScissor(sciss []gpu.Scissor) {
	if len(sciss) == 0 {
		c.record(func(d *device) error { d.state.applyScissor(nil); return nil })
		return
	}
	s := sciss[0]
	c.record(func(d *device) error { d.state.applyScissor(&s); return nil })
}

func (c *cmdBuffer) SetBlendColor(r, g, b, a float32) {
	c.record(func(d *device) error { glcore.BlendColor(r, g, b, a); return nil })
}

func (c *cmdBuffer) SetStencilRef(value uint32) {
	c.record(func(d *device) error { d.state.applyStencilRef(value); return nil })
}

func (c *cmdBuffer) SetVertexBuf(start int, buf []gpu.Buffer, off []int64) {
	for i, b := range buf {
		c.state.vtxBuffers[start+i] = boundVtx{buf: b, off: off[i]}
	}
}

func (c *cmdBuffer) SetIndexBuf(format gpu.IndexFmt, buf gpu.Buffer, off int64) {
	c.state.idxBuffer, c.state.idxFormat, c.state.idxOff = buf, format, off
}

func (c *cmdBuffer) SetDescTableGraph(table gpu.DescTable, start int, heapCopy []int) {
	c.state.descTable, c.state.dynOffsets, c.state.isCompDesc = table.(*descTable), heapCopy, false
	t := c.state.descTable
	offs := append([]int(nil), heapCopy...)
	c.record(func(d *device) error { bindDescTable(t, offs); return nil })
}

func (c *cmdBuffer) SetDescTableComp(table gpu.DescTable, start int, heapCopy []int) {
	c.state.descTable, c.state.dynOffsets, c.state.isCompDesc = table.(*descTable), heapCopy, true
	t := c.state.descTable
	offs := append([]int(nil), heapCopy...)
	c.record(func(d *device) error { bindDescTable(t, offs); return nil })
}

// vaoFor returns (creating if necessary) the VAO matching
// the current pipeline and bound vertex buffers.
func (c *cmdBuffer) vaoFor(p *pipeline) uint32 {
	var key vaoKey
	key.pipeline = p
	for _, a := range p.attrs {
		if a.bufferNr < len(key.buffers) {
			if vb, ok := c.state.vtxBuffers[a.bufferNr]; ok {
				if b, ok := vb.buf.(*buffer); ok {
					key.buffers[a.bufferNr] = b.id
				}
			}
		}
	}
	if id, ok := c.vaos[key]; ok {
		return id
	}
	var vao uint32
	glcore.GenVertexArrays(1, &vao)
	glcore.BindVertexArray(vao)
	for _, a := range p.attrs {
		vb, ok := c.state.vtxBuffers[a.bufferNr]
		if !ok {
			continue
		}
		b, ok := vb.buf.(*buffer)
		if !ok {
			continue
		}
		glcore.BindBuffer(glcore.ARRAY_BUFFER, b.id)
		xtype, count, norm, isInt := vertexGLType(a.format)
		glcore.EnableVertexAttribArray(a.location)
		ptrOff := unsafe.Pointer(uintptr(uint32(vb.off) + a.offset))
		if isInt {
			glcore.VertexAttribIPointer(a.location, count, xtype, a.stride, ptrOff)
		} else {
			glcore.VertexAttribPointer(a.location, count, xtype, norm, a.stride, ptrOff)
		}
	}
	glcore.BindVertexArray(0)
	c.vaos[key] = vao
	return vao
}

func (c *cmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	p := c.state.pipeline
	if p == nil {
		return
	}
	vao := c.vaoFor(p)
	c.record(func(d *device) error {
		glcore.BindVertexArray(vao)
		glcore.DrawArraysInstancedBaseInstance(p.topology, int32(baseVert), int32(vertCount), int32(instCount), uint32(baseInst))
		return nil
	})
}

func (c *cmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	p := c.state.pipeline
	idx, _ := c.state.idxBuffer.(*buffer)
	if p == nil || idx == nil {
		return
	}
	vao := c.vaoFor(p)
	fmtSize := 2
	glType := uint32(glcore.UNSIGNED_SHORT)
	if c.state.idxFormat == gpu.Index32 {
		fmtSize = 4
		glType = glcore.UNSIGNED_INT
	}
	idxBase := uint32(c.state.idxOff) + uint32(baseIdx*fmtSize)
	c.record(func(d *device) error {
		glcore.BindVertexArray(vao)
		glcore.BindBuffer(glcore.ELEMENT_ARRAY_BUFFER, idx.id)
		glcore.DrawElementsInstancedBaseVertexBaseInstance(p.topology, int32(idxCount), glType, unsafe.Pointer(uintptr(idxBase)), int32(instCount), int32(vertOff), uint32(baseInst))
		return nil
	})
}

func (c *cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	c.record(func(d *device) error {
		glcore.DispatchCompute(uint32(grpCountX), uint32(grpCountY), uint32(grpCountZ))
		return nil
	})
}

func (c *cmdBuffer) CopyBuffer(param *gpu.BufferCopy) {
	from, _ := param.From.(*buffer)
	to, _ := param.To.(*buffer)
	fromOff, toOff, size := param.FromOff, param.ToOff, param.Size
	c.record(func(d *device) error {
		if from == nil || to == nil {
			return nil
		}
		glcore.BindBuffer(glcore.COPY_READ_BUFFER, from.id)
		glcore.BindBuffer(glcore.COPY_WRITE_BUFFER, to.id)
		glcore.CopyBufferSubData(glcore.COPY_READ_BUFFER, glcore.COPY_WRITE_BUFFER, int(fromOff), int(toOff), int(size))
		return nil
	})
}

func (c *cmdBuffer) CopyImage(param *gpu.ImageCopy) {
	from, _ := param.From.(*texture)
	to, _ := param.To.(*texture)
	p := *param
	c.record(func(d *device) error {
		if from == nil || to == nil {
			return nil
		}
		glcore.CopyImageSubData(
			from.id, from.target, int32(p.FromLevel), int32(p.FromOff.X), int32(p.FromOff.Y), int32(p.FromOff.Z+p.FromLayer),
			to.id, to.target, int32(p.ToLevel), int32(p.ToOff.X), int32(p.ToOff.Y), int32(p.ToOff.Z+p.ToLayer),
			int32(p.Size.Width), int32(p.Size.Height), int32(maxInt(p.Size.Depth, p.Layers)))
		return nil
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (c *cmdBuffer) CopyBufToImg(param *gpu.BufImgCopy) {
	buf, _ := param.Buf.(*buffer)
	img, _ := param.Img.(*texture)
	p := *param
	c.record(func(d *device) error {
		if buf == nil || img == nil {
			return nil
		}
		if img.wrapped {
			return gpu.NewError("copy_buf_to_img", gpu.InvalidUsage, nil)
		}
		glcore.BindBuffer(glcore.PIXEL_UNPACK_BUFFER, buf.id)
		glcore.PixelStorei(glcore.UNPACK_ROW_LENGTH, int32(p.Stride[0]))
		glcore.BindTexture(img.target, img.id)
		switch img.target {
		case glcore.TEXTURE_2D:
			glcore.TexSubImage2D(img.target, int32(p.Level), int32(p.ImgOff.X), int32(p.ImgOff.Y), int32(p.Size.Width), int32(p.Size.Height), img.gf.format, img.gf.xtype, unsafe.Pointer(uintptr(p.BufOff)))
		default:
			glcore.TexSubImage3D(img.target, int32(p.Level), int32(p.ImgOff.X), int32(p.ImgOff.Y), int32(p.ImgOff.Z+p.Layer), int32(p.Size.Width), int32(p.Size.Height), int32(maxInt(p.Size.Depth, 1)), img.gf.format, img.gf.xtype, unsafe.Pointer(uintptr(p.BufOff)))
		}
		glcore.PixelStorei(glcore.UNPACK_ROW_LENGTH, 0)
		glcore.BindBuffer(glcore.PIXEL_UNPACK_BUFFER, 0)
		return nil
	})
}

func (c *cmdBuffer) CopyImgToBuf(param *gpu.BufImgCopy) {
	buf, _ := param.Buf.(*buffer)
	img, _ := param.Img.(*texture)
	p := *param
	c.record(func(d *device) error {
		if buf == nil || img == nil {
			return nil
		}
		glcore.BindBuffer(glcore.PIXEL_PACK_BUFFER, buf.id)
		glcore.PixelStorei(glcore.PACK_ROW_LENGTH, int32(p.Stride[0]))
		glcore.BindTexture(img.target, img.id)
		glcore.GetTexImage(img.target, int32(p.Level), img.gf.format, img.gf.xtype, unsafe.Pointer(uintptr(p.BufOff)))
		glcore.PixelStorei(glcore.PACK_ROW_LENGTH, 0)
		glcore.BindBuffer(glcore.PIXEL_PACK_BUFFER, 0)
		return nil
	})
}

func (c *cmdBuffer) Fill(buf gpu.Buffer, off int64, value byte, size int64) {
	b, _ := buf.(*buffer)
	c.record(func(d *device) error {
		if b == nil {
			return nil
		}
		glcore.BindBuffer(glcore.ARRAY_BUFFER, b.id)
		glcore.ClearBufferSubData(glcore.ARRAY_BUFFER, glcore.R8UI, int(off), int(size), glcore.RED_INTEGER, glcore.UNSIGNED_BYTE, unsafe.Pointer(&value))
		glcore.BindBuffer(glcore.ARRAY_BUFFER, 0)
		return nil
	})
}

// Barrier issues glMemoryBarrier with the bits corresponding
// to b's access scopes. Transition is a no-op: GL has no
// explicit image-layout model, so layout transitions only
// matter to backends that do (Vulkan).
func (c *cmdBuffer) Barrier(b []gpu.Barrier) {
	var bits uint32
	for _, bb := range b {
		bits |= barrierBits(bb.AccessBefore | bb.AccessAfter)
	}
	if bits == 0 {
		return
	}
	c.record(func(d *device) error { glcore.MemoryBarrier(bits); return nil })
}

func (c *cmdBuffer) Transition(t []gpu.Transition) {}

func barrierBits(a gpu.Access) uint32 {
	var bits uint32
	if a&(gpu.AVertexBufRead) != 0 {
		bits |= glcore.VERTEX_ATTRIB_ARRAY_BARRIER_BIT
	}
	if a&gpu.AIndexBufRead != 0 {
		bits |= glcore.ELEMENT_ARRAY_BARRIER_BIT
	}
	if a&(gpu.AColorRead|gpu.AColorWrite|gpu.ADSRead|gpu.ADSWrite) != 0 {
		bits |= glcore.FRAMEBUFFER_BARRIER_BIT
	}
	if a&(gpu.AShaderRead|gpu.AShaderWrite) != 0 {
		bits |= glcore.SHADER_IMAGE_ACCESS_BARRIER_BIT | glcore.SHADER_STORAGE_BARRIER_BIT
	}
	if a&(gpu.ACopyRead|gpu.ACopyWrite) != 0 {
		bits |= glcore.BUFFER_UPDATE_BARRIER_BIT | glcore.TEXTURE_UPDATE_BARRIER_BIT
	}
	if a&(gpu.AAnyRead|gpu.AAnyWrite) != 0 {
		bits |= glcore.ALL_BARRIER_BITS
	}
	return bits
}

func (c *cmdBuffer) End() error { return nil }

func (c *cmdBuffer) Reset() error {
	c.ops = c.ops[:0]
	return nil
}

func (c *cmdBuffer) Destroy() {
	for _, id := range c.vaos {
		id := id
		glcore.DeleteVertexArrays(1, &id)
	}
	c.vaos = nil
}

// replay executes every recorded closure in order and
// reports the first error encountered, matching the
// façade's expectation that a failed Commit surfaces as
// Error{Code: External}.
func (c *cmdBuffer) replay(d *device) error {
	var firstErr error
	for _, op := range c.ops {
		if err := op(d); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
