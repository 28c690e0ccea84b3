// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

// InputRate describes whether a vertex buffer advances per
// vertex or per instance.
type InputRate int

// Input rates.
const (
	RateVertex InputRate = iota
	RateInstance
)

// VertexAttr describes one attribute fetched from a vertex
// buffer.
type VertexAttr struct {
	Location int
	Format   VertexFmt
	Offset   int
}

// VertexBufferLayout describes one vertex buffer binding: its
// per-vertex stride, its InputRate, and the attributes
// fetched from it. Each VertexBufferLayout corresponds to a
// separate buffer binding; interleaving two buffer layouts
// into a single buffer binding is not supported, matching the
// one-buffer-per-VertexIn model of the low-level GPU
// interface.
type VertexBufferLayout struct {
	Stride int
	Rate   InputRate
	Attrs  []VertexAttr
}

// GraphicsState groups the fixed-function state of a graphics
// pipeline by concern: blend, color write
// mask, depth/stencil and cull mode. It is a thin regrouping
// of the lower-level BlendState/DSState/RasterState types
// already defined for the backend-facing GraphState.
type GraphicsState struct {
	Blend BlendState
	DS    DSState
	Cull  CullMode
}

// PipelineType selects whether a Pipeline is a graphics or a
// compute pipeline.
type PipelineType int

// Pipeline types.
const (
	Graphics PipelineType = iota
	Compute
)

// PipelineDesc is the full description needed to build a
// Pipeline.
type PipelineDesc struct {
	Type     PipelineType
	Topology Topology
	State    GraphicsState
	RTLayout RenderTargetLayout
	Vertex   []VertexBufferLayout
	Program  *Program
	Layout   *BindGroupLayout
}

// Pipeline is an immutable GPU pipeline object: a backend
// PipelineHandle plus the metadata (vertex state, Program,
// BindGroupLayout, RenderTargetLayout) needed to validate
// compatibility with a RenderTarget and a BindGroup at draw
// time (see Context.SetPipeline/SetBindGroup).
type Pipeline struct {
	Desc   PipelineDesc
	Handle PipelineHandle
}

// NewPipeline builds the backend vertex-input description
// from desc.Vertex, creates a DescTable-backed GraphState or
// CompState, and asks dev to compile it.
func NewPipeline(dev GPU, desc PipelineDesc) (*Pipeline, error) {
	if desc.Type == Compute {
		table, err := newDescTable(dev, desc.Layout)
		if err != nil {
			return nil, err
		}
		state := &CompState{
			Func: ShaderFunc{Code: desc.Program.Comp},
			Desc: table,
		}
		h, err := dev.NewPipeline(state)
		if err != nil {
			return nil, err
		}
		return &Pipeline{Desc: desc, Handle: h}, nil
	}

	table, err := newDescTable(dev, desc.Layout)
	if err != nil {
		return nil, err
	}
	var input []VertexIn
	for bufIdx, vb := range desc.Vertex {
		for _, a := range vb.Attrs {
			input = append(input, VertexIn{
				Format: a.Format,
				Stride: vb.Stride,
				Nr:     bufIdx,
			})
		}
	}
	blend := desc.State.Blend
	state := &GraphState{
		VertFunc: ShaderFunc{Code: desc.Program.Vert},
		FragFunc: ShaderFunc{Code: desc.Program.Frag},
		Desc:     table,
		Input:    input,
		Topology: desc.Topology,
		Raster:   RasterState{Cull: desc.State.Cull},
		Samples:  desc.RTLayout.Samples,
		DS:       desc.State.DS,
		Blend:    blend,
	}
	h, err := dev.NewPipeline(state)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Desc: desc, Handle: h}, nil
}

func newDescTable(dev GPU, layout *BindGroupLayout) (DescTable, error) {
	if layout == nil || layout.heap == nil {
		return nil, nil
	}
	return dev.NewDescTable([]DescHeap{layout.heap})
}

// Destroy destroys the backend pipeline handle. The Program
// and BindGroupLayout referenced by Desc are not owned by the
// Pipeline and must be destroyed separately.
func (p *Pipeline) Destroy() {
	if p.Handle != nil {
		p.Handle.Destroy()
		p.Handle = nil
	}
}
