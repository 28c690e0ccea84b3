// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import "github.com/nope-engine/ngl/gpu"

// TexturedShapeOpts configures a Render-category node that draws a
// single quad/mesh with a pre-built Pipeline, bind group and vertex
// (optionally indexed) data, alongside the Texture and Variable
// children it depends on.
type TexturedShapeOpts struct {
	Pipeline *gpu.Pipeline

	VertexBuffers []gpu.Buffer
	VertexOffsets []int64
	VertexCount   int
	InstanceCount int

	IndexBuffer gpu.Buffer
	IndexOffset int64
	IndexCount  int
	IndexFormat gpu.IndexFmt

	BindGroup      *gpu.BindGroup
	DynamicOffsets []int

	Textures  []*Node
	Variables []*Node
}

// TexturedShape builds a Render-category node. It visits its Texture
// and Variable children itself rather than through a generic children
// list.
func TexturedShape(label string, opts TexturedShapeOpts) *Node {
	n := NewNode(classTexturedShape, label, opts)
	for _, t := range opts.Textures {
		n.AddChild(t)
	}
	for _, v := range opts.Variables {
		n.AddChild(v)
	}
	return n
}

var classTexturedShape = &Class{
	Name:     "TexturedShape",
	Category: CategoryRender,

	Prepare: func(n *Node, dev gpu.GPU, rt gpu.RenderTargetLayout) error {
		opts := n.Opts.(TexturedShapeOpts)
		if opts.Pipeline != nil && !opts.Pipeline.Desc.RTLayout.Compatible(rt) {
			return gpu.NewError("prepare", gpu.InvalidUsage, nil)
		}
		for _, c := range n.Children() {
			if err := c.Prepare(dev, rt); err != nil {
				return err
			}
		}
		return nil
	},

	Update: func(n *Node, t float64) error {
		if n.Gated(t) {
			return n.ActivateSet(nil)
		}
		opts := n.Opts.(TexturedShapeOpts)
		var want []*Node
		for _, tex := range opts.Textures {
			if err := tex.Update(t); err != nil {
				return err
			}
			want = append(want, tex)
		}
		for _, v := range opts.Variables {
			if err := v.Update(t); err != nil {
				return err
			}
			want = append(want, v)
		}
		return n.ActivateSet(want)
	},

	Draw: func(n *Node, dc *DrawContext) error {
		if !n.Active() {
			return nil
		}
		opts := n.Opts.(TexturedShapeOpts)
		if opts.Pipeline == nil {
			return nil
		}
		if err := dc.GPU.SetPipeline(opts.Pipeline); err != nil {
			return err
		}
		if opts.BindGroup != nil {
			if err := dc.GPU.SetBindGroup(opts.BindGroup, opts.DynamicOffsets); err != nil {
				return err
			}
		}
		for i, buf := range opts.VertexBuffers {
			var off int64
			if i < len(opts.VertexOffsets) {
				off = opts.VertexOffsets[i]
			}
			dc.GPU.SetVertexBuffer(i, buf, off)
		}
		if opts.IndexBuffer != nil {
			dc.GPU.SetIndexBuffer(opts.IndexBuffer, opts.IndexFormat, opts.IndexOffset)
			return dc.GPU.DrawIndexed(opts.IndexCount, max1(opts.InstanceCount))
		}
		return dc.GPU.Draw(opts.VertexCount, max1(opts.InstanceCount))
	},

	Release: func(n *Node) { _ = n.ActivateSet(nil) },
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
