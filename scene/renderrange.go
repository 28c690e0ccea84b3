// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

// RenderRangeOpts configures a RenderRange marker node.
type RenderRangeOpts struct {
	Ranges []RenderRange
}

// RenderRangeMarker builds a node of category RenderRange: a
// declarative holder for one-shot time markers. It carries no
// lifecycle of its own; AttachRanges installs its Ranges onto the
// node it gates.
func RenderRangeMarker(label string, ranges []RenderRange) *Node {
	return NewNode(classRenderRange, label, RenderRangeOpts{Ranges: ranges})
}

var classRenderRange = &Class{
	Name:     "RenderRange",
	Category: CategoryRenderRange,
}

// AttachRanges installs marker's Ranges directly onto owner, the
// render-capable node they gate.
func AttachRanges(owner, marker *Node) error {
	opts := marker.Opts.(RenderRangeOpts)
	return owner.SetRanges(opts.Ranges)
}
