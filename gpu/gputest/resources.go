// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gputest

import "github.com/nope-engine/ngl/gpu"

type buffer struct {
	data    []byte
	visible bool
	usage   gpu.Usage
}

func (b *buffer) Destroy()        {}
func (b *buffer) Visible() bool   { return b.visible }
func (b *buffer) Cap() int64      { return int64(len(b.data)) }
func (b *buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.data
}

type texture struct {
	format          gpu.PixelFmt
	size            gpu.Dim3D
	layers, levels  int
	samples         int
	usage           gpu.Usage
	data            [][]byte
	wrapped         bool
	destroyedWrapOK bool
}

func (t *texture) Destroy() {
	if t.wrapped && !t.destroyedWrapOK {
		panic("gputest: destroy must not release a wrapped texture's handle")
	}
}

func (t *texture) NewView(typ gpu.ViewType, layer, layers, level, levels int) (gpu.TextureView, error) {
	return &textureView{tex: t, typ: typ, layer: layer, layers: layers, level: level, levels: levels}, nil
}

type textureView struct {
	tex                            *texture
	typ                            gpu.ViewType
	layer, layers, level, levels   int
}

func (v *textureView) Destroy() {}

type sampler struct{ param gpu.Sampling }

func (s *sampler) Destroy() {}

type shaderCode struct{ data []byte }

func (s *shaderCode) Destroy() {}

type pipeline struct {
	graph *gpu.GraphState
	comp  *gpu.CompState
}

func (p *pipeline) Destroy() {}

type descHeap struct {
	descs []gpu.Descriptor
	count int
	// Very small stand-in storage: copy index -> binding nr -> bound value.
	textures map[int]map[int][]gpu.TextureView
	samplers map[int]map[int][]gpu.Sampler
	buffers  map[int]map[int][]gpu.Buffer
}

func (h *descHeap) Destroy() {}

func (h *descHeap) New(n int) error {
	h.count = n
	h.textures = make(map[int]map[int][]gpu.TextureView)
	h.samplers = make(map[int]map[int][]gpu.Sampler)
	h.buffers = make(map[int]map[int][]gpu.Buffer)
	return nil
}

func (h *descHeap) SetBuffer(cpy, nr, start int, buf []gpu.Buffer, off, size []int64) {
	if h.buffers[cpy] == nil {
		h.buffers[cpy] = make(map[int][]gpu.Buffer)
	}
	h.buffers[cpy][nr] = buf
}

func (h *descHeap) SetTexture(cpy, nr, start int, iv []gpu.TextureView) {
	if h.textures[cpy] == nil {
		h.textures[cpy] = make(map[int][]gpu.TextureView)
	}
	h.textures[cpy][nr] = iv
}

func (h *descHeap) SetSampler(cpy, nr, start int, splr []gpu.Sampler) {
	if h.samplers[cpy] == nil {
		h.samplers[cpy] = make(map[int][]gpu.Sampler)
	}
	h.samplers[cpy][nr] = splr
}

func (h *descHeap) Count() int { return h.count }

type descTable struct{ heaps []gpu.DescHeap }

func (t *descTable) Destroy() {}

type renderPass struct {
	att []gpu.Attachment
	sub []gpu.Subpass
}

func (p *renderPass) Destroy() {}

func (p *renderPass) NewFB(iv []gpu.TextureView, width, height, layers int) (gpu.Framebuf, error) {
	return &framebuf{views: iv, width: width, height: height, layers: layers}, nil
}

type framebuf struct {
	views                 []gpu.TextureView
	width, height, layers int
}

func (f *framebuf) Destroy() {}
