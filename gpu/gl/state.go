// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nope-engine/ngl/gpu"
)

// stateCache shadows the hot GL state: a change
// is only issued when it differs from what was last set, so
// that repeated binds of the same pipeline/bind group across
// draws in a pass are cheap.
type stateCache struct {
	valid bool

	program uint32
	fbo     uint32
	vao     uint32

	blend   gpu.BlendState
	ds      gpu.DSState
	cull    gpu.CullMode
	mask    [4]bool

	viewport gpu.Viewport
	scissorEnabled bool
	scissor  gpu.Scissor

	stencilRef uint32
}

func (s *stateCache) reset() {
	*s = stateCache{valid: true, mask: [4]bool{true, true, true, true}}
	glcore.Enable(glcore.FRAMEBUFFER_SRGB)
	glcore.Disable(glcore.SCISSOR_TEST)
	glcore.PixelStorei(glcore.UNPACK_ALIGNMENT, 1)
	glcore.PixelStorei(glcore.PACK_ALIGNMENT, 1)
}

func cmpFunc(c gpu.CmpFunc) uint32 {
	switch c {
	case gpu.CNever:
		return glcore.NEVER
	case gpu.CLess:
		return glcore.LESS
	case gpu.CEqual:
		return glcore.EQUAL
	case gpu.CLessEqual:
		return glcore.LEQUAL
	case gpu.CGreater:
		return glcore.GREATER
	case gpu.CNotEqual:
		return glcore.NOTEQUAL
	case gpu.CGreaterEqual:
		return glcore.GEQUAL
	default:
		return glcore.ALWAYS
	}
}

func stencilOp(op gpu.StencilOp) uint32 {
	switch op {
	case gpu.SZero:
		return glcore.ZERO
	case gpu.SReplace:
		return glcore.REPLACE
	case gpu.SIncClamp:
		return glcore.INCR
	case gpu.SDecClamp:
		return glcore.DECR
	case gpu.SInvert:
		return glcore.INVERT
	case gpu.SIncWrap:
		return glcore.INCR_WRAP
	case gpu.SDecWrap:
		return glcore.DECR_WRAP
	default:
		return glcore.KEEP
	}
}

func blendFactor(f gpu.BlendFac) uint32 {
	switch f {
	case gpu.BOne:
		return glcore.ONE
	case gpu.BSrcColor:
		return glcore.SRC_COLOR
	case gpu.BInvSrcColor:
		return glcore.ONE_MINUS_SRC_COLOR
	case gpu.BDstColor:
		return glcore.DST_COLOR
	case gpu.BInvDstColor:
		return glcore.ONE_MINUS_DST_COLOR
	case gpu.BSrcAlpha:
		return glcore.SRC_ALPHA
	case gpu.BInvSrcAlpha:
		return glcore.ONE_MINUS_SRC_ALPHA
	case gpu.BDstAlpha:
		return glcore.DST_ALPHA
	case gpu.BInvDstAlpha:
		return glcore.ONE_MINUS_DST_ALPHA
	case gpu.BSrcAlphaSaturated:
		return glcore.SRC_ALPHA_SATURATE
	case gpu.BBlendColor:
		return glcore.CONSTANT_COLOR
	case gpu.BInvBlendColor:
		return glcore.ONE_MINUS_CONSTANT_COLOR
	default:
		return glcore.ZERO
	}
}

func blendOp(op gpu.BlendOp) uint32 {
	switch op {
	case gpu.BSubtract:
		return glcore.FUNC_SUBTRACT
	case gpu.BRevSubtract:
		return glcore.FUNC_REVERSE_SUBTRACT
	case gpu.BMin:
		return glcore.MIN
	case gpu.BMax:
		return glcore.MAX
	default:
		return glcore.FUNC_ADD
	}
}

func cullFace(cm gpu.CullMode) (enable bool, face uint32) {
	switch cm {
	case gpu.CFront:
		return true, glcore.FRONT
	case gpu.CBack:
		return true, glcore.BACK
	default:
		return false, glcore.BACK
	}
}

// applyDS diffs and applies depth/stencil state against the
// cache.
func (s *stateCache) applyDS(ds gpu.DSState) {
	if ds == s.ds {
		return
	}
	if ds.DepthTest {
		glcore.Enable(glcore.DEPTH_TEST)
		glcore.DepthFunc(cmpFunc(ds.DepthCmp))
	} else {
		glcore.Disable(glcore.DEPTH_TEST)
	}
	glcore.DepthMask(ds.DepthWrite)
	if ds.StencilTest {
		glcore.Enable(glcore.STENCIL_TEST)
		s.applyStencilFace(glcore.FRONT, ds.Front)
		s.applyStencilFace(glcore.BACK, ds.Back)
	} else {
		glcore.Disable(glcore.STENCIL_TEST)
	}
	s.ds = ds
}

// applyStencilFace issues the func/mask/op triple for one
// face. The comparison reference value is not part of
// gpu.StencilT: it is a separate piece of dynamic state set
// through CmdBuffer.SetStencilRef, cached here so that a
// later ref change can be reapplied without needing the rest
// of the stencil state again (see applyStencilRef).
func (s *stateCache) applyStencilFace(face uint32, st gpu.StencilT) {
	glcore.StencilFuncSeparate(face, cmpFunc(st.Cmp), int32(s.stencilRef), st.ReadMask)
	glcore.StencilMaskSeparate(face, st.WriteMask)
	glcore.StencilOpSeparate(face, stencilOp(st.DSFail[0]), stencilOp(st.DSFail[1]), stencilOp(st.Pass))
}

// applyStencilRef reissues glStencilFuncSeparate for both
// faces with the new reference value, using the currently
// bound pipeline's cached comparison state.
func (s *stateCache) applyStencilRef(value uint32) {
	if value == s.stencilRef {
		return
	}
	s.stencilRef = value
	if !s.ds.StencilTest {
		return
	}
	s.applyStencilFace(glcore.FRONT, s.ds.Front)
	s.applyStencilFace(glcore.BACK, s.ds.Back)
}

// applyBlend applies the blend state and write mask of every
// entry of bs.Color to the matching draw buffer, whatever
// IndependentBlend says, with glBlendFuncSeparatei/
// glBlendEquationSeparatei/glColorMaski, which require GL 4.0
// (available under the 4.6 core profile this backend
// targets). Unlike the other apply helpers it does not compare
// against the cached state: the calls are issued every time.
func (s *stateCache) applyBlend(bs gpu.BlendState) {
	n := len(bs.Color)
	if n == 0 {
		return
	}
	for i, cb := range bs.Color {
		idx := uint32(i)
		if cb.Blend {
			glcore.Enablei(glcore.BLEND, idx)
			glcore.BlendFuncSeparatei(idx, blendFactor(cb.SrcFac[0]), blendFactor(cb.DstFac[0]), blendFactor(cb.SrcFac[1]), blendFactor(cb.DstFac[1]))
			glcore.BlendEquationSeparatei(idx, blendOp(cb.Op[0]), blendOp(cb.Op[1]))
		} else {
			glcore.Disablei(glcore.BLEND, idx)
		}
		glcore.ColorMaski(idx, cb.WriteMask&gpu.CRed != 0, cb.WriteMask&gpu.CGreen != 0, cb.WriteMask&gpu.CBlue != 0, cb.WriteMask&gpu.CAlpha != 0)
	}
}

func (s *stateCache) applyCull(cm gpu.CullMode) {
	if cm == s.cull {
		return
	}
	if enable, face := cullFace(cm); enable {
		glcore.Enable(glcore.CULL_FACE)
		glcore.CullFace(face)
	} else {
		glcore.Disable(glcore.CULL_FACE)
	}
	s.cull = cm
}

func (s *stateCache) applyViewport(vp gpu.Viewport) {
	if vp == s.viewport {
		return
	}
	glcore.Viewport(int32(vp.X), int32(vp.Y), int32(vp.Width), int32(vp.Height))
	glcore.DepthRange(float64(vp.Znear), float64(vp.Zfar))
	s.viewport = vp
}

func (s *stateCache) applyScissor(sc *gpu.Scissor) {
	if sc == nil {
		if s.scissorEnabled {
			glcore.Disable(glcore.SCISSOR_TEST)
			s.scissorEnabled = false
		}
		return
	}
	if !s.scissorEnabled {
		glcore.Enable(glcore.SCISSOR_TEST)
		s.scissorEnabled = true
	}
	if *sc == s.scissor {
		return
	}
	glcore.Scissor(int32(sc.X), int32(sc.Y), int32(sc.Width), int32(sc.Height))
	s.scissor = *sc
}

func bindBufferRange(target uint32, binding uint32, buf gpu.Buffer, off, size int64) {
	b, ok := buf.(*buffer)
	if !ok {
		return
	}
	if size <= 0 {
		size = b.size - off
	}
	glcore.BindBufferRange(target, binding, b.id, int(off), int(size))
}

func bindTextureUnit(unit uint32, v *textureView) {
	glcore.ActiveTexture(glcore.TEXTURE0 + unit)
	glcore.BindTexture(v.target, v.id)
}

func bindSamplerUnit(unit uint32, s *sampler) {
	glcore.BindSampler(unit, s.id)
}

func bindImageUnit(unit uint32, v *textureView, d gpu.Descriptor) {
	access := uint32(glcore.READ_WRITE)
	glcore.BindImageTexture(unit, v.id, int32(v.level), true, int32(v.layer), access, uint32(v.tex.gf.internal))
}
