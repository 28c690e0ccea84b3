// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import "github.com/nope-engine/ngl/gpu"

// RangeKind is the kind of a RenderRange marker.
type RangeKind int

// Range kinds.
const (
	Continuous RangeKind = iota
	NoRender
)

// RenderRange is a one-shot time marker attached to a render-capable
// node's ranges list.
type RenderRange struct {
	Kind  RangeKind
	Start float64
}

// SetRanges validates that ranges is strictly increasing in Start and
// installs it on n.
func (n *Node) SetRanges(ranges []RenderRange) error {
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Start <= ranges[i-1].Start {
			return gpu.NewError("set_ranges", gpu.InvalidArg, nil)
		}
	}
	n.ranges = ranges
	return nil
}

// Gated reports whether n's subtree is gated (not activated) at time t:
// the active marker is found by upper_bound(t)-1 (the last marker whose
// Start is <= t). A NoRender marker gates; a Continuous marker does not.
// Time values preceding the first marker are treated as NoRender.
func (n *Node) Gated(t float64) bool {
	if len(n.ranges) == 0 {
		return false
	}
	idx := -1
	for i := range n.ranges {
		if n.ranges[i].Start <= t {
			idx = i
		} else {
			break
		}
	}
	if idx < 0 {
		return true
	}
	return n.ranges[idx].Kind == NoRender
}
