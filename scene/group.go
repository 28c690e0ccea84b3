// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/linear"
)

// Group is the plain Container category node: it visits, activates
// and draws every child unconditionally.
func Group(label string, children ...*Node) *Node {
	n := NewNode(classGroup, label, nil)
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

var classGroup = &Class{
	Name:     "Group",
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
		if n.Gated(t) {
			return n.ActivateSet(nil)
		}
		kids := n.Children()
		for _, c := range kids {
			if err := c.Update(t); err != nil {
				return err
			}
		}
		return n.ActivateSet(kids)
	},
	Draw: func(n *Node, dc *DrawContext) error {
		for _, c := range n.Children() {
			if err := dc.DrawChild(c); err != nil {
				return err
			}
		}
		return nil
	},
	Release: func(n *Node) { _ = n.ActivateSet(nil) },
}

// TransformGroupsOpts is the per-class Opts for a TransformGroups
// node: a local transform applied to the subtree.
type TransformGroupsOpts struct {
	Local linear.M4
}

// TransformGroups builds a Container node that behaves like Group but
// additionally carries a local transform, applying the same
// transform-graph idiom (see linear.M4) generalized to a scene node
// rather than a standalone transform-only graph.
func TransformGroups(label string, local linear.M4, children ...*Node) *Node {
	n := NewNode(classTransformGroups, label, TransformGroupsOpts{Local: local})
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

var classTransformGroups = &Class{
	Name:     "TransformGroups",
	Category: CategoryContainer,
	Prepare:  classGroup.Prepare,
	Update:   classGroup.Update,
	Draw:     classGroup.Draw,
	Release:  classGroup.Release,
}
