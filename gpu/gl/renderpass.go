// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nope-engine/ngl/gpu"
)

// renderPass is descriptor-only: GL has no render-pass
// object, so this just keeps the attachment/subpass
// metadata NewFB and the command buffer need to translate
// BeginPass/EndPass into glBindFramebuffer plus the
// load/store/resolve/invalidate sequence at pass boundaries.
type renderPass struct {
	att []gpu.Attachment
	sub []gpu.Subpass
}

func (d *device) NewRenderPass(att []gpu.Attachment, sub []gpu.Subpass) (gpu.RenderPass, error) {
	return &renderPass{att: append([]gpu.Attachment(nil), att...), sub: append([]gpu.Subpass(nil), sub...)}, nil
}

func (p *renderPass) Destroy() {}

// framebuf is a GL framebuffer object bound to the views
// named by the render pass' first subpass. Per-subpass FBOs
// are not required in the GL model because glDrawBuffers can
// reselect the active color outputs for each subpass using
// the same object.
type framebuf struct {
	pass   *renderPass
	views  []gpu.TextureView
	width  int
	height int
	fbo    uint32
}

func (p *renderPass) NewFB(iv []gpu.TextureView, width, height, layers int) (gpu.Framebuf, error) {
	for _, v := range iv {
		if _, ok := v.(screenView); ok {
			// Onscreen: render straight into the window system's
			// own framebuffer (FBO 0), the one GL object no
			// attachment can be bound to.
			return &framebuf{pass: p, views: append([]gpu.TextureView(nil), iv...), width: width, height: height}, nil
		}
	}
	var fbo uint32
	glcore.GenFramebuffers(1, &fbo)
	glcore.BindFramebuffer(glcore.FRAMEBUFFER, fbo)

	colorAtt := uint32(glcore.COLOR_ATTACHMENT0)
	for i, a := range p.att {
		v, _ := iv[i].(*textureView)
		if v == nil {
			continue
		}
		isDS := a.Format == gpu.D16un || a.Format == gpu.D32f || a.Format == gpu.S8ui ||
			a.Format == gpu.D24unS8ui || a.Format == gpu.D32fS8ui
		attachPoint := colorAtt
		if isDS {
			attachPoint = dsAttachPoint(a.Format)
		}
		attachView(glcore.FRAMEBUFFER, attachPoint, v)
		if !isDS {
			colorAtt++
		}
	}
	status := glcore.CheckFramebufferStatus(glcore.FRAMEBUFFER)
	glcore.BindFramebuffer(glcore.FRAMEBUFFER, 0)
	if status != glcore.FRAMEBUFFER_COMPLETE {
		glcore.DeleteFramebuffers(1, &fbo)
		return nil, gpu.NewError("new_fb", gpu.External, errFBIncomplete(status))
	}
	return &framebuf{pass: p, views: append([]gpu.TextureView(nil), iv...), width: width, height: height, fbo: fbo}, nil
}

type errFBIncomplete uint32

func (e errFBIncomplete) Error() string { return "gl: framebuffer incomplete" }

func dsAttachPoint(pf gpu.PixelFmt) uint32 {
	switch pf {
	case gpu.S8ui:
		return glcore.STENCIL_ATTACHMENT
	case gpu.D24unS8ui, gpu.D32fS8ui:
		return glcore.DEPTH_STENCIL_ATTACHMENT
	default:
		return glcore.DEPTH_ATTACHMENT
	}
}

func attachView(target, attachPoint uint32, v *textureView) {
	switch v.target {
	case glcore.TEXTURE_2D, glcore.TEXTURE_2D_MULTISAMPLE:
		glcore.FramebufferTexture2D(target, attachPoint, v.target, v.id, int32(v.level))
	case glcore.TEXTURE_CUBE_MAP:
		glcore.FramebufferTexture2D(target, attachPoint, glcore.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(v.layer), v.id, int32(v.level))
	default:
		// Array/3D targets: bind the whole layered image if no
		// specific layer was requested by the view, else a
		// single layer via glFramebufferTextureLayer.
		if v.owned {
			glcore.FramebufferTextureLayer(target, attachPoint, v.id, int32(v.level), int32(v.layer))
		} else {
			glcore.FramebufferTexture(target, attachPoint, v.id, int32(v.level))
		}
	}
}

func (f *framebuf) Destroy() {
	if f.fbo != 0 {
		glcore.DeleteFramebuffers(1, &f.fbo)
		f.fbo = 0
	}
}
