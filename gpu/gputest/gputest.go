// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package gputest implements a fake gpu.Driver that keeps
// all state in host memory and performs no actual rendering.
// It exists so that the scene and façade layers can be unit
// tested without a real GPU, keeping driver and consumer
// packages independently testable.
package gputest

import (
	"errors"
	"sync"

	"github.com/nope-engine/ngl/gpu"
)

func init() {
	gpu.Register(&driver{})
}

// driver implements gpu.Driver and gpu.GPU.
type driver struct {
	mu   sync.Mutex
	open bool
}

// Name matches gpu.OpenGL.String() so that tests can select this
// fake driver through the normal gpu.Create(gpu.Config{Backend:
// gpu.OpenGL}) path, the same one a real caller would use.
func (d *driver) Name() string { return gpu.OpenGL.String() }

func (d *driver) Open() (gpu.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	return d, nil
}

func (d *driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
}

func (d *driver) Driver() gpu.Driver { return d }

func (d *driver) Commit(cb []gpu.CmdBuffer, ch chan<- error) {
	for _, c := range cb {
		c.(*cmdBuffer).executed = true
	}
	if ch != nil {
		ch <- nil
	}
}

func (d *driver) NewCmdBuffer() (gpu.CmdBuffer, error) {
	return &cmdBuffer{}, nil
}

func (d *driver) NewRenderPass(att []gpu.Attachment, sub []gpu.Subpass) (gpu.RenderPass, error) {
	return &renderPass{att: att, sub: sub}, nil
}

func (d *driver) NewShaderCode(data []byte) (gpu.ShaderCode, error) {
	return &shaderCode{data: append([]byte(nil), data...)}, nil
}

func (d *driver) NewDescHeap(ds []gpu.Descriptor) (gpu.DescHeap, error) {
	return &descHeap{descs: ds}, nil
}

func (d *driver) NewDescTable(dh []gpu.DescHeap) (gpu.DescTable, error) {
	return &descTable{heaps: dh}, nil
}

func (d *driver) NewPipeline(state any) (gpu.PipelineHandle, error) {
	switch s := state.(type) {
	case *gpu.GraphState:
		return &pipeline{graph: s}, nil
	case *gpu.CompState:
		return &pipeline{comp: s}, nil
	default:
		return nil, errors.New("gputest: invalid pipeline state")
	}
}

func (d *driver) NewBuffer(size int64, visible bool, usg gpu.Usage) (gpu.Buffer, error) {
	return &buffer{data: make([]byte, size), visible: visible, usage: usg}, nil
}

func (d *driver) NewTexture(pf gpu.PixelFmt, size gpu.Dim3D, layers, levels, samples int, usg gpu.Usage) (gpu.Texture, error) {
	if levels < 1 {
		levels = 1
	}
	if layers < 1 {
		layers = 1
	}
	tx := &texture{
		format: pf, size: size, layers: layers, levels: levels,
		samples: samples, usage: usg,
	}
	tx.data = make([][]byte, layers*levels)
	bpp := bytesPerPixel(pf)
	for l := 0; l < layers; l++ {
		w, h := size.Width, size.Height
		for lv := 0; lv < levels; lv++ {
			tx.data[l*levels+lv] = make([]byte, w*h*size.Depth*bpp)
			if w > 1 {
				w /= 2
			}
			if h > 1 {
				h /= 2
			}
		}
	}
	return tx, nil
}

func (d *driver) NewSampler(spln *gpu.Sampling) (gpu.Sampler, error) {
	return &sampler{param: *spln}, nil
}

func (d *driver) Limits() gpu.Limits {
	return gpu.Limits{
		MaxImage1D: 16384, MaxImage2D: 16384, MaxImageCube: 16384, MaxImage3D: 2048,
		MaxLayers: 2048, MaxDescHeaps: 4, MaxDBuffer: 8, MaxDImage: 8, MaxDConstant: 12,
		MaxDTexture: 16, MaxDSampler: 16, MaxDBufferRange: 1 << 27, MaxDConstantRange: 1 << 14,
		MaxColorTargets: 8, MaxFBSize: [2]int{16384, 16384}, MaxFBLayers: 2048,
		MaxPointSize: 64, MaxViewports: 16, MaxVertexIn: 16, MaxFragmentIn: 16,
		MaxDispatch: [3]int{65535, 65535, 65535},
	}
}

// ReadColorTexture implements gpu.PixelReader by copying the
// texture's level-0 host storage, so the façade's capture
// read-back path is exercised in tests.
func (d *driver) ReadColorTexture(tex gpu.Texture, w, h int, dst []byte) error {
	tx := tex.(*texture)
	copy(dst, tx.data[0])
	return nil
}

// Features reports every optional feature as supported; the
// fake backend has no hardware limitations to emulate.
func (d *driver) Features() gpu.Features {
	return gpu.FeatureTimer | gpu.FeatureDepthStencilResolve |
		gpu.FeatureInvalidateSubdata | gpu.FeatureNPOTMipmap | gpu.FeatureComputeShader
}

func bytesPerPixel(pf gpu.PixelFmt) int {
	switch pf {
	case gpu.RGBA8un, gpu.RGBA8n, gpu.RGBA8sRGB, gpu.BGRA8un, gpu.BGRA8sRGB, gpu.RGBA32f:
		if pf == gpu.RGBA32f {
			return 16
		}
		return 4
	case gpu.RG8un, gpu.RG8n, gpu.RG16f:
		return 2
	case gpu.R8un, gpu.R8n:
		return 1
	case gpu.RGBA16f:
		return 8
	case gpu.RG32f:
		return 8
	case gpu.R16f, gpu.D16un:
		return 2
	case gpu.R32f, gpu.D32f, gpu.D24unS8ui:
		return 4
	case gpu.S8ui:
		return 1
	case gpu.D32fS8ui:
		return 8
	default:
		return 4
	}
}
