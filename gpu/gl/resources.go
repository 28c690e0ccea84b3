// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	"unsafe"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nope-engine/ngl/gpu"
)

// NewBuffer creates a GL buffer object. Visible buffers are
// allocated with glBufferStorage and the
// MAP_{READ,WRITE}_BIT|MAP_PERSISTENT_BIT|MAP_COHERENT_BIT
// flags and persistently mapped, so that Buffer.Bytes can
// hand back a live host pointer for the whole capacity as
// the interface requires.
func (d *device) NewBuffer(size int64, visible bool, usg gpu.Usage) (gpu.Buffer, error) {
	var id uint32
	glcore.GenBuffers(1, &id)
	glcore.BindBuffer(glcore.ARRAY_BUFFER, id)
	b := &buffer{id: id, size: size, visible: visible, usage: usg}
	if visible {
		flags := uint32(glcore.MAP_READ_BIT | glcore.MAP_WRITE_BIT | glcore.MAP_PERSISTENT_BIT | glcore.MAP_COHERENT_BIT)
		glcore.BufferStorage(glcore.ARRAY_BUFFER, int(size), nil, flags)
		ptr := glcore.MapBufferRange(glcore.ARRAY_BUFFER, 0, int(size), flags)
		if ptr != nil {
			b.mapped = unsafe.Slice((*byte)(ptr), size)
		}
	} else {
		glcore.BufferData(glcore.ARRAY_BUFFER, int(size), nil, glcore.STATIC_DRAW)
	}
	glcore.BindBuffer(glcore.ARRAY_BUFFER, 0)
	if err := glError("new_buffer"); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

type buffer struct {
	id      uint32
	size    int64
	visible bool
	usage   gpu.Usage
	mapped  []byte
}

func (b *buffer) Visible() bool  { return b.visible }
func (b *buffer) Bytes() []byte  { return b.mapped }
func (b *buffer) Cap() int64     { return b.size }
func (b *buffer) Destroy() {
	if b.id != 0 {
		if b.mapped != nil {
			glcore.BindBuffer(glcore.ARRAY_BUFFER, b.id)
			glcore.UnmapBuffer(glcore.ARRAY_BUFFER)
			glcore.BindBuffer(glcore.ARRAY_BUFFER, 0)
		}
		glcore.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

// glBufferTarget maps a Usage bitmask to a GL buffer binding
// point: vertex, then index, then uniform, else shader
// storage. The binding point used at draw time in desc.go is
// chosen from the descriptor type, not from Usage.
func glBufferTarget(u gpu.Usage) uint32 {
	switch {
	case u&gpu.UVertexData != 0:
		return glcore.ARRAY_BUFFER
	case u&gpu.UIndexData != 0:
		return glcore.ELEMENT_ARRAY_BUFFER
	case u&gpu.UShaderConst != 0:
		return glcore.UNIFORM_BUFFER
	default:
		return glcore.SHADER_STORAGE_BUFFER
	}
}

// glFormat maps a gpu.PixelFmt to the (internal format,
// format, type) triple glTexStorage/glTexSubImage need.
type glFormat struct {
	internal         int32
	format           uint32
	xtype            uint32
	bytesPerPixel    int
	depth, stencil   bool
}

func pixelFormat(pf gpu.PixelFmt) glFormat {
	switch pf {
	case gpu.RGBA8un:
		return glFormat{glcore.RGBA8, glcore.RGBA, glcore.UNSIGNED_BYTE, 4, false, false}
	case gpu.RGBA8n:
		return glFormat{glcore.RGBA8_SNORM, glcore.RGBA, glcore.BYTE, 4, false, false}
	case gpu.RGBA8sRGB:
		return glFormat{glcore.SRGB8_ALPHA8, glcore.RGBA, glcore.UNSIGNED_BYTE, 4, false, false}
	case gpu.BGRA8un:
		return glFormat{glcore.RGBA8, glcore.BGRA, glcore.UNSIGNED_BYTE, 4, false, false}
	case gpu.BGRA8sRGB:
		return glFormat{glcore.SRGB8_ALPHA8, glcore.BGRA, glcore.UNSIGNED_BYTE, 4, false, false}
	case gpu.RG8un:
		return glFormat{glcore.RG8, glcore.RG, glcore.UNSIGNED_BYTE, 2, false, false}
	case gpu.RG8n:
		return glFormat{glcore.RG8_SNORM, glcore.RG, glcore.BYTE, 2, false, false}
	case gpu.R8un:
		return glFormat{glcore.R8, glcore.RED, glcore.UNSIGNED_BYTE, 1, false, false}
	case gpu.R8n:
		return glFormat{glcore.R8_SNORM, glcore.RED, glcore.BYTE, 1, false, false}
	case gpu.RGBA16f:
		return glFormat{glcore.RGBA16F, glcore.RGBA, glcore.HALF_FLOAT, 8, false, false}
	case gpu.RG16f:
		return glFormat{glcore.RG16F, glcore.RG, glcore.HALF_FLOAT, 4, false, false}
	case gpu.R16f:
		return glFormat{glcore.R16F, glcore.RED, glcore.HALF_FLOAT, 2, false, false}
	case gpu.RGBA32f:
		return glFormat{glcore.RGBA32F, glcore.RGBA, glcore.FLOAT, 16, false, false}
	case gpu.RG32f:
		return glFormat{glcore.RG32F, glcore.RG, glcore.FLOAT, 8, false, false}
	case gpu.R32f:
		return glFormat{glcore.R32F, glcore.RED, glcore.FLOAT, 4, false, false}
	case gpu.D16un:
		return glFormat{glcore.DEPTH_COMPONENT16, glcore.DEPTH_COMPONENT, glcore.UNSIGNED_SHORT, 2, true, false}
	case gpu.D32f:
		return glFormat{glcore.DEPTH_COMPONENT32F, glcore.DEPTH_COMPONENT, glcore.FLOAT, 4, true, false}
	case gpu.S8ui:
		return glFormat{glcore.STENCIL_INDEX8, glcore.STENCIL_INDEX, glcore.UNSIGNED_BYTE, 1, false, true}
	case gpu.D24unS8ui:
		return glFormat{glcore.DEPTH24_STENCIL8, glcore.DEPTH_STENCIL, glcore.UNSIGNED_INT_24_8, 4, true, true}
	case gpu.D32fS8ui:
		return glFormat{glcore.DEPTH32F_STENCIL8, glcore.DEPTH_STENCIL, glcore.FLOAT_32_UNSIGNED_INT_24_8_REV, 8, true, true}
	default:
		return glFormat{glcore.RGBA8, glcore.RGBA, glcore.UNSIGNED_BYTE, 4, false, false}
	}
}

// texTarget mirrors gpu.ViewType but only distinguishes what
// glTexStorage needs to pick a target.
func texTarget(layers int, samples int, is3D, isCube bool) uint32 {
	switch {
	case samples > 1 && layers > 1:
		return glcore.TEXTURE_2D_MULTISAMPLE_ARRAY
	case samples > 1:
		return glcore.TEXTURE_2D_MULTISAMPLE
	case isCube && layers > 6:
		return glcore.TEXTURE_CUBE_MAP_ARRAY
	case isCube:
		return glcore.TEXTURE_CUBE_MAP
	case is3D:
		return glcore.TEXTURE_3D
	case layers > 1:
		return glcore.TEXTURE_2D_ARRAY
	default:
		return glcore.TEXTURE_2D
	}
}

// texture wraps a GL texture object. Wrapped (externally
// supplied) textures carry wrapped=true so that upload,
// mipmap generation and Destroy's glDeleteTextures are all
// forbidden/skipped per the wrapped-texture contract.
type texture struct {
	id       uint32
	target   uint32
	format   gpu.PixelFmt
	gf       glFormat
	size     gpu.Dim3D
	layers   int
	levels   int
	samples  int
	usage    gpu.Usage
	wrapped  bool
	is3D     bool
	isCube   bool
}

func (d *device) NewTexture(pf gpu.PixelFmt, size gpu.Dim3D, layers, levels, samples int, usg gpu.Usage) (gpu.Texture, error) {
	if levels < 1 {
		levels = 1
	}
	if layers < 1 {
		layers = 1
	}
	is3D := size.Depth > 1
	tgt := texTarget(layers, samples, is3D, false)
	var id uint32
	glcore.GenTextures(1, &id)
	glcore.BindTexture(tgt, id)
	gf := pixelFormat(pf)

	switch tgt {
	case glcore.TEXTURE_2D:
		glcore.TexStorage2D(tgt, int32(levels), uint32(gf.internal), int32(size.Width), int32(size.Height))
	case glcore.TEXTURE_2D_ARRAY, glcore.TEXTURE_CUBE_MAP_ARRAY:
		glcore.TexStorage3D(tgt, int32(levels), uint32(gf.internal), int32(size.Width), int32(size.Height), int32(layers))
	case glcore.TEXTURE_3D:
		glcore.TexStorage3D(tgt, int32(levels), uint32(gf.internal), int32(size.Width), int32(size.Height), int32(size.Depth))
	case glcore.TEXTURE_CUBE_MAP:
		glcore.TexStorage2D(tgt, int32(levels), uint32(gf.internal), int32(size.Width), int32(size.Height))
	case glcore.TEXTURE_2D_MULTISAMPLE:
		glcore.TexStorage2DMultisample(tgt, int32(samples), uint32(gf.internal), int32(size.Width), int32(size.Height), true)
	case glcore.TEXTURE_2D_MULTISAMPLE_ARRAY:
		glcore.TexStorage3DMultisample(tgt, int32(samples), uint32(gf.internal), int32(size.Width), int32(size.Height), int32(layers), true)
	}
	glcore.BindTexture(tgt, 0)
	if err := glError("new_texture"); err != nil {
		glcore.DeleteTextures(1, &id)
		return nil, err
	}
	return &texture{
		id: id, target: tgt, format: pf, gf: gf, size: size,
		layers: layers, levels: levels, samples: samples, usage: usg, is3D: is3D,
	}, nil
}

// wrapTexture adapts an externally supplied GL texture
// handle (e.g. from EGL-image/IOSurface import) into the
// gpu.Texture contract: Destroy is a no-op on the id, and
// Upload/mipmap generation must be rejected by callers via
// the wrapped flag inspected in the command buffer.
func wrapTexture(id uint32, target uint32, pf gpu.PixelFmt, size gpu.Dim3D) *texture {
	return &texture{
		id: id, target: target, format: pf, gf: pixelFormat(pf),
		size: size, layers: 1, levels: 1, samples: 1, wrapped: true,
	}
}

func (t *texture) NewView(typ gpu.ViewType, layer, layers, level, levels int) (gpu.TextureView, error) {
	// Whole-resource views reuse the texture id directly,
	// matching GL's lack of a distinct view object for the
	// common case; partial views go through glTextureView
	// (core since 4.3).
	if layer == 0 && layers == t.layers && level == 0 && levels == t.levels {
		return &textureView{tex: t, id: t.id, target: t.target}, nil
	}
	var id uint32
	glcore.GenTextures(1, &id)
	vt := viewTarget(typ)
	glcore.TextureView(id, vt, t.id, uint32(t.gf.internal), uint32(level), uint32(levels), uint32(layer), uint32(layers))
	if err := glError("new_view"); err != nil {
		glcore.DeleteTextures(1, &id)
		return nil, err
	}
	return &textureView{tex: t, id: id, target: vt, owned: true, layer: layer, level: level}, nil
}

func viewTarget(typ gpu.ViewType) uint32 {
	switch typ {
	case gpu.IView1D:
		return glcore.TEXTURE_1D
	case gpu.IView2D:
		return glcore.TEXTURE_2D
	case gpu.IView3D:
		return glcore.TEXTURE_3D
	case gpu.IViewCube:
		return glcore.TEXTURE_CUBE_MAP
	case gpu.IView1DArray:
		return glcore.TEXTURE_1D_ARRAY
	case gpu.IView2DArray:
		return glcore.TEXTURE_2D_ARRAY
	case gpu.IViewCubeArray:
		return glcore.TEXTURE_CUBE_MAP_ARRAY
	case gpu.IView2DMS:
		return glcore.TEXTURE_2D_MULTISAMPLE
	case gpu.IView2DMSArray:
		return glcore.TEXTURE_2D_MULTISAMPLE_ARRAY
	default:
		return glcore.TEXTURE_2D
	}
}

func (t *texture) Destroy() {
	if t.wrapped {
		return
	}
	if t.id != 0 {
		glcore.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

type textureView struct {
	tex    *texture
	id     uint32
	target uint32
	owned  bool
	layer  int
	level  int
}

func (v *textureView) Destroy() {
	if v.owned && v.id != 0 {
		glcore.DeleteTextures(1, &v.id)
		v.id = 0
	}
}

func (d *device) NewSampler(spln *gpu.Sampling) (gpu.Sampler, error) {
	var id uint32
	glcore.GenSamplers(1, &id)
	glcore.SamplerParameteri(id, glcore.TEXTURE_MIN_FILTER, int32(minFilter(spln.Min, spln.Mipmap)))
	glcore.SamplerParameteri(id, glcore.TEXTURE_MAG_FILTER, int32(magFilter(spln.Mag)))
	glcore.SamplerParameteri(id, glcore.TEXTURE_WRAP_S, int32(addrMode(spln.AddrU)))
	glcore.SamplerParameteri(id, glcore.TEXTURE_WRAP_T, int32(addrMode(spln.AddrV)))
	glcore.SamplerParameteri(id, glcore.TEXTURE_WRAP_R, int32(addrMode(spln.AddrW)))
	glcore.SamplerParameterf(id, glcore.TEXTURE_MIN_LOD, spln.MinLOD)
	glcore.SamplerParameterf(id, glcore.TEXTURE_MAX_LOD, spln.MaxLOD)
	if spln.MaxAniso > 1 {
		glcore.SamplerParameterf(id, glcore.TEXTURE_MAX_ANISOTROPY, float32(spln.MaxAniso))
	}
	if err := glError("new_sampler"); err != nil {
		glcore.DeleteSamplers(1, &id)
		return nil, err
	}
	return &sampler{id: id}, nil
}

type sampler struct{ id uint32 }

func (s *sampler) Destroy() {
	if s.id != 0 {
		glcore.DeleteSamplers(1, &s.id)
		s.id = 0
	}
}

func minFilter(min, mip gpu.Filter) uint32 {
	switch {
	case mip == gpu.FNoMipmap && min == gpu.FNearest:
		return glcore.NEAREST
	case mip == gpu.FNoMipmap:
		return glcore.LINEAR
	case min == gpu.FNearest && mip == gpu.FNearest:
		return glcore.NEAREST_MIPMAP_NEAREST
	case min == gpu.FNearest:
		return glcore.NEAREST_MIPMAP_LINEAR
	case mip == gpu.FNearest:
		return glcore.LINEAR_MIPMAP_NEAREST
	default:
		return glcore.LINEAR_MIPMAP_LINEAR
	}
}

func magFilter(mag gpu.Filter) uint32 {
	if mag == gpu.FNearest {
		return glcore.NEAREST
	}
	return glcore.LINEAR
}

func addrMode(a gpu.AddrMode) uint32 {
	switch a {
	case gpu.AMirror:
		return glcore.MIRRORED_REPEAT
	case gpu.AClamp:
		return glcore.CLAMP_TO_EDGE
	default:
		return glcore.REPEAT
	}
}

func glError(op string) error {
	if e := glcore.GetError(); e != glcore.NO_ERROR {
		return gpu.NewError(op, gpu.External, glErrString(e))
	}
	return nil
}

type glErrString uint32

func (e glErrString) Error() string {
	switch uint32(e) {
	case glcore.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case glcore.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case glcore.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case glcore.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	case glcore.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	default:
		return "GL_UNKNOWN_ERROR"
	}
}
