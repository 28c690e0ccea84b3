// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nope-engine/ngl/gpu"
)

// descHeap emulates a descriptor heap: GL has no descriptor
// set object, so binding simply means recording, per heap
// copy, which buffer/texture/sampler answers each descriptor,
// to be issued as glBindBufferRange/glActiveTexture+
// glBindTexture/glBindSampler/glBindImageTexture calls when
// the owning descriptor table is bound for a draw or
// dispatch (see cmdbuffer.go).
type descHeap struct {
	descs []gpu.Descriptor
	cpyN  int
	// Indexed by [copy][descriptor index].
	buffers  [][]boundBuffer
	textures [][]gpu.TextureView
	samplers [][]gpu.Sampler
}

type boundBuffer struct {
	buf        gpu.Buffer
	off, size  int64
}

func (d *device) NewDescHeap(ds []gpu.Descriptor) (gpu.DescHeap, error) {
	return &descHeap{descs: append([]gpu.Descriptor(nil), ds...)}, nil
}

func (h *descHeap) New(n int) error {
	if n == h.cpyN {
		return nil
	}
	h.cpyN = n
	h.buffers = make([][]boundBuffer, n)
	h.textures = make([][]gpu.TextureView, n)
	h.samplers = make([][]gpu.Sampler, n)
	for i := 0; i < n; i++ {
		h.buffers[i] = make([]boundBuffer, len(h.descs))
		h.textures[i] = make([]gpu.TextureView, len(h.descs))
		h.samplers[i] = make([]gpu.Sampler, len(h.descs))
	}
	return nil
}

func (h *descHeap) SetBuffer(cpy, nr, start int, buf []gpu.Buffer, off, size []int64) {
	for i := range buf {
		h.buffers[cpy][nr+i] = boundBuffer{buf: buf[i], off: off[i], size: size[i]}
	}
}

func (h *descHeap) SetTexture(cpy, nr, start int, iv []gpu.TextureView) {
	for i := range iv {
		h.textures[cpy][nr+i] = iv[i]
	}
}

func (h *descHeap) SetSampler(cpy, nr, start int, splr []gpu.Sampler) {
	for i := range splr {
		h.samplers[cpy][nr+i] = splr[i]
	}
}

func (h *descHeap) Count() int { return h.cpyN }

func (h *descHeap) Destroy() {}

// descTable groups the heaps bound together for a pipeline,
// mirroring gpu.BindGroupLayout's single-heap-per-layout
// convention (see gpu.NewBindGroupLayout).
type descTable struct {
	heaps []gpu.DescHeap
}

func (d *device) NewDescTable(dh []gpu.DescHeap) (gpu.DescTable, error) {
	return &descTable{heaps: append([]gpu.DescHeap(nil), dh...)}, nil
}

func (t *descTable) Destroy() {}

// bindDescTable issues the GL state changes for every
// descriptor in heap copy 0 of table, applying dynOffsets in
// declaration order to the dynamic (uniform/storage) buffer
// descriptors. Every DImage descriptor with a non-zero stage
// mask is returned, read-only ones included, since Descriptor
// carries no access field. The cmdBuffer callers discard the
// result, so no barrier is issued from it.
func bindDescTable(table *descTable, dynOffsets []int) (writeImages []gpu.TextureView) {
	if table == nil {
		return nil
	}
	dynI := 0
	unit, imageUnit := uint32(0), uint32(0)
	for _, dh := range table.heaps {
		h, ok := dh.(*descHeap)
		if !ok || h.cpyN == 0 {
			continue
		}
		for i, desc := range h.descs {
			switch desc.Type {
			case gpu.DConstant, gpu.DBuffer:
				bb := h.buffers[0][i]
				if bb.buf == nil {
					continue
				}
				off := bb.off
				if isDynamic(h, i) && dynI < len(dynOffsets) {
					off += int64(dynOffsets[dynI])
					dynI++
				}
				target := uint32(glcore.UNIFORM_BUFFER)
				if desc.Type == gpu.DBuffer {
					target = glcore.SHADER_STORAGE_BUFFER
				}
				bindBufferRange(target, uint32(desc.Nr), bb.buf, off, bb.size)
			case gpu.DTexture, gpu.DImage:
				v, _ := h.textures[0][i].(*textureView)
				if v == nil {
					continue
				}
				if desc.Type == gpu.DImage {
					bindImageUnit(imageUnit, v, desc)
					imageUnit++
					if desc.Stages != 0 {
						writeImages = append(writeImages, v)
					}
				} else {
					bindTextureUnit(unit, v)
					unit++
				}
			case gpu.DSampler:
				s, _ := h.samplers[0][i].(*sampler)
				if s != nil {
					bindSamplerUnit(unit, s)
				}
			}
		}
	}
	return writeImages
}

// isDynamic has no direct record in descHeap (that
// information lives one layer up, in gpu.BindGroupLayout).
// The façade only ever supplies as many dynOffsets as there
// are dynamic entries, consumed strictly in declaration
// order, so every buffer descriptor is treated as a
// candidate and dynI simply stops once dynOffsets is
// exhausted.
func isDynamic(h *descHeap, i int) bool { return true }
