// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import "errors"

// BindAccess describes how a shader accesses a bound
// resource. It is distinct from Access (which describes
// memory access scopes for barrier purposes) because a
// single BindAccess of AccessReadWrite may require two
// Access flags (one for the read, one for the write) when
// a barrier is synthesized.
type BindAccess int

// Bind access modes.
const (
	AccessRead BindAccess = iota
	AccessWrite
	AccessReadWrite
)

// Portability limits on dynamic-offset bindings, per pipeline.
const (
	MaxDynamicUniform = 8
	MaxDynamicStorage = 4
)

// BindGroupLayoutEntry describes a single binding slot in a
// BindGroupLayout.
type BindGroupLayoutEntry struct {
	ID      int
	Type    DescType
	Binding int
	Access  BindAccess
	Stages  Stage
	// Dynamic marks a uniform/storage buffer binding as
	// using a dynamic offset supplied at SetBindGroup time.
	Dynamic bool
	// Sampler is an optional immutable sampler baked into
	// the layout. Only meaningful for DTexture entries.
	Sampler *Sampling
}

// BindGroupLayout is the descriptor-only value that a
// Pipeline is created against, and that a BindGroup is
// later validated against.
// Its two entry lists partition bindings by resource kind:
// textures (DTexture, DSampler, DImage) and buffers
// (DBuffer, DConstant).
type BindGroupLayout struct {
	Textures []BindGroupLayoutEntry
	Buffers  []BindGroupLayoutEntry

	heap DescHeap
	dev  GPU
}

// Compatible reports whether a and b are compatible, i.e.
// whether a Pipeline created against a can be used with a
// BindGroup created against b (or vice versa). Two layouts
// are compatible iff both entry lists match elementwise by
// type, binding, access and stage.
func (a *BindGroupLayout) Compatible(b *BindGroupLayout) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	eq := func(x, y []BindGroupLayoutEntry) bool {
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].Type != y[i].Type || x[i].Binding != y[i].Binding ||
				x[i].Access != y[i].Access || x[i].Stages != y[i].Stages {
				return false
			}
		}
		return true
	}
	return eq(a.Textures, b.Textures) && eq(a.Buffers, b.Buffers)
}

// NbDynamicOffsets returns the number of dynamic-offset
// bindings declared in the layout. This is the value that
// a matching SetBindGroup call must supply offsets for.
func (a *BindGroupLayout) NbDynamicOffsets() int {
	n := 0
	for i := range a.Buffers {
		if a.Buffers[i].Dynamic {
			n++
		}
	}
	return n
}

var errTooManyDynamic = errors.New("gpu: too many dynamic-offset bindings")

// NewBindGroupLayout validates and creates a BindGroupLayout
// backed by a single descriptor heap on dev.
func NewBindGroupLayout(dev GPU, textures, buffers []BindGroupLayoutEntry) (*BindGroupLayout, error) {
	var nUniform, nStorage int
	for _, e := range buffers {
		if !e.Dynamic {
			continue
		}
		switch e.Type {
		case DConstant:
			nUniform++
		case DBuffer:
			nStorage++
		}
	}
	if nUniform > MaxDynamicUniform || nStorage > MaxDynamicStorage {
		return nil, errTooManyDynamic
	}

	descs := make([]Descriptor, 0, len(textures)+len(buffers))
	for _, e := range textures {
		descs = append(descs, Descriptor{Type: e.Type, Stages: e.Stages, Nr: e.Binding, Len: 1})
	}
	for _, e := range buffers {
		descs = append(descs, Descriptor{Type: e.Type, Stages: e.Stages, Nr: e.Binding, Len: 1})
	}
	heap, err := dev.NewDescHeap(descs)
	if err != nil {
		return nil, err
	}
	if err := heap.New(1); err != nil {
		heap.Destroy()
		return nil, err
	}
	l := &BindGroupLayout{
		Textures: append([]BindGroupLayoutEntry(nil), textures...),
		Buffers:  append([]BindGroupLayoutEntry(nil), buffers...),
		heap:     heap,
		dev:      dev,
	}
	return l, nil
}

// Destroy releases the layout's backing storage.
func (a *BindGroupLayout) Destroy() {
	if a.heap != nil {
		a.heap.Destroy()
		a.heap = nil
	}
}

// BindGroup is an instance of a BindGroupLayout, filled in
// with concrete textures/samplers/buffers.
type BindGroup struct {
	Layout *BindGroupLayout
	table  DescTable
}

// NewBindGroup creates a BindGroup for layout.
func NewBindGroup(layout *BindGroupLayout) (*BindGroup, error) {
	table, err := layout.dev.NewDescTable([]DescHeap{layout.heap})
	if err != nil {
		return nil, err
	}
	return &BindGroup{Layout: layout, table: table}, nil
}

// Destroy releases the bind group's table. The heap storage
// owned by the BindGroupLayout is unaffected.
func (g *BindGroup) Destroy() {
	if g.table != nil {
		g.table.Destroy()
		g.table = nil
	}
}

// UpdateTexture fills binding index with a texture/sampler
// pair. index refers to the position of the entry within
// Layout.Textures.
func (g *BindGroup) UpdateTexture(index int, view TextureView, splr Sampler) {
	e := g.Layout.Textures[index]
	switch e.Type {
	case DSampler:
		g.Layout.heap.SetSampler(0, e.Nr(), 0, []Sampler{splr})
	default:
		g.Layout.heap.SetTexture(0, e.Nr(), 0, []TextureView{view})
	}
}

// UpdateBuffer fills binding index with a buffer range.
// index refers to the position of the entry within
// Layout.Buffers.
func (g *BindGroup) UpdateBuffer(index int, buf Buffer, offset, size int64) {
	e := g.Layout.Buffers[index]
	g.Layout.heap.SetBuffer(0, e.Nr(), 0, []Buffer{buf}, []int64{offset}, []int64{size})
}

// Nr returns the binding number recorded for the entry, as
// used to index the underlying descriptor heap.
func (e BindGroupLayoutEntry) Nr() int { return e.Binding }
