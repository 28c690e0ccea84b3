// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	"unsafe"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nope-engine/ngl/gpu"
)

// ReadColorTexture implements gpu.PixelReader, backing
// Context's offscreen capture path (spec testable property
// #8): it binds tex to a scratch FBO, reads it back with
// glReadPixels as tight RGBA8 and flips rows, since GL's
// origin is bottom-left and the rest of the façade assumes
// top-left row order.
func (d *device) ReadColorTexture(tex gpu.Texture, w, h int, dst []byte) error {
	t, ok := tex.(*texture)
	if !ok {
		return gpu.NewError("read_color_texture", gpu.InvalidArg, nil)
	}
	need := 4 * w * h
	if len(dst) < need {
		return gpu.NewError("read_color_texture", gpu.InvalidArg, nil)
	}

	var fbo uint32
	glcore.GenFramebuffers(1, &fbo)
	glcore.BindFramebuffer(glcore.READ_FRAMEBUFFER, fbo)
	glcore.FramebufferTexture2D(glcore.READ_FRAMEBUFFER, glcore.COLOR_ATTACHMENT0, t.target, t.id, 0)
	if status := glcore.CheckFramebufferStatus(glcore.READ_FRAMEBUFFER); status != glcore.FRAMEBUFFER_COMPLETE {
		glcore.BindFramebuffer(glcore.READ_FRAMEBUFFER, 0)
		glcore.DeleteFramebuffers(1, &fbo)
		return gpu.NewError("read_color_texture", gpu.External, errFBIncomplete(status))
	}

	glcore.PixelStorei(glcore.PACK_ALIGNMENT, 1)
	glcore.PixelStorei(glcore.PACK_ROW_LENGTH, 0)
	glcore.ReadBuffer(glcore.COLOR_ATTACHMENT0)
	glcore.ReadPixels(0, 0, int32(w), int32(h), glcore.RGBA, glcore.UNSIGNED_BYTE, unsafe.Pointer(&dst[0]))

	glcore.BindFramebuffer(glcore.READ_FRAMEBUFFER, 0)
	glcore.DeleteFramebuffers(1, &fbo)

	if err := glError("read_color_texture"); err != nil {
		return err
	}

	flipRowsInPlace(dst, w*4, h)
	return nil
}

// flipRowsInPlace reverses row order in a tightly packed
// w*4-byte-stride RGBA8 image, converting glReadPixels'
// bottom-left origin into the top-left origin the rest of
// the engine assumes for captured buffers.
func flipRowsInPlace(buf []byte, stride, h int) {
	tmp := make([]byte, stride)
	for i, j := 0, h-1; i < j; i, j = i+1, j-1 {
		a := buf[i*stride : i*stride+stride]
		b := buf[j*stride : j*stride+stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
