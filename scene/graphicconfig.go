// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import "github.com/nope-engine/ngl/gpu"

// GraphicsStateOverride carries the fields a GraphicConfig node wants
// to override in the effective graphics state for its subtree. A nil
// pointer field means "not set; fall through to the next stack entry
// down".
type GraphicsStateOverride struct {
	Blend *gpu.BlendState
	DS    *gpu.DSState
	Cull  *gpu.CullMode
}

// GraphicConfig builds a Node of category Container whose Opts is a
// GraphicsStateOverride, pushed onto the context-local stack while its
// subtree is visited and popped on exit.
func GraphicConfig(label string, override GraphicsStateOverride) *Node {
	n := NewNode(classGraphicConfig, label, override)
	n.gstate = &override
	return n
}

var classGraphicConfig = &Class{
	Name:     "GraphicConfig",
	Category: CategoryContainer,
	Prepare: func(n *Node, dev gpu.GPU, rt gpu.RenderTargetLayout) error {
		for _, c := range n.Children() {
			if err := c.Prepare(dev, rt); err != nil {
				return err
			}
		}
		return nil
	},
	Update: func(n *Node, t float64) error {
		var want []*Node
		for _, c := range n.Children() {
			if err := c.Update(t); err != nil {
				return err
			}
			want = append(want, c)
		}
		return n.ActivateSet(want)
	},
	Draw: func(n *Node, dc *DrawContext) error {
		dc.PushGraphicsState(n.gstate)
		defer dc.PopGraphicsState()
		for _, c := range n.Children() {
			if err := dc.DrawChild(c); err != nil {
				return err
			}
		}
		return nil
	},
	Release: func(n *Node) { _ = n.ActivateSet(nil) },
}

// graphicsStateStack is a context-local stack of overrides; the
// effective state at any point is the stack merged top-to-bottom over
// a base default.
type graphicsStateStack struct {
	entries []*GraphicsStateOverride
	base    gpu.GraphicsState
}

func newGraphicsStateStack(base gpu.GraphicsState) *graphicsStateStack {
	return &graphicsStateStack{base: base}
}

func (s *graphicsStateStack) push(o *GraphicsStateOverride) { s.entries = append(s.entries, o) }

func (s *graphicsStateStack) pop() {
	if n := len(s.entries); n > 0 {
		s.entries = s.entries[:n-1]
	}
}

// effective computes the merge-over-defaults state: walking from the
// top of the stack down, the first override that sets a given field
// wins; unset fields fall through, ultimately to s.base.
func (s *graphicsStateStack) effective() gpu.GraphicsState {
	eff := s.base
	var blendSet, dsSet, cullSet bool
	for i := len(s.entries) - 1; i >= 0; i-- {
		o := s.entries[i]
		if o == nil {
			continue
		}
		if !blendSet && o.Blend != nil {
			eff.Blend = *o.Blend
			blendSet = true
		}
		if !dsSet && o.DS != nil {
			eff.DS = *o.DS
			dsSet = true
		}
		if !cullSet && o.Cull != nil {
			eff.Cull = *o.Cull
			cullSet = true
		}
	}
	return eff
}
