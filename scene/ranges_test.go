// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import "testing"

func TestRangesMonotonicity(t *testing.T) {
	n := NewNode(classGroup, "t", nil)
	err := n.SetRanges([]RenderRange{{Kind: Continuous, Start: 0}, {Kind: NoRender, Start: 0}})
	if err == nil {
		t.Fatal("SetRanges: expected error for non-increasing start times")
	}
	err = n.SetRanges([]RenderRange{{Kind: NoRender, Start: 0}, {Kind: Continuous, Start: 1}, {Kind: NoRender, Start: 3}})
	if err != nil {
		t.Fatalf("SetRanges: unexpected error: %v", err)
	}
}

// TestRangesGating exercises scenario D: ranges =
// [NORENDER@0, CONTINUOUS@1, NORENDER@3].
func TestRangesGating(t *testing.T) {
	n := NewNode(classGroup, "t", nil)
	if err := n.SetRanges([]RenderRange{
		{Kind: NoRender, Start: 0},
		{Kind: Continuous, Start: 1},
		{Kind: NoRender, Start: 3},
	}); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		t     float64
		gated bool
	}{
		{0.5, true},
		{2, false},
		{4, true},
	}
	for _, c := range cases {
		if got := n.Gated(c.t); got != c.gated {
			t.Errorf("Gated(%v) = %v, want %v", c.t, got, c.gated)
		}
	}
}

func TestRangesBeforeFirstMarker(t *testing.T) {
	n := NewNode(classGroup, "t", nil)
	if err := n.SetRanges([]RenderRange{{Kind: Continuous, Start: 1}}); err != nil {
		t.Fatal(err)
	}
	if !n.Gated(0.5) {
		t.Error("Gated: time before the first marker must be treated as NORENDER")
	}
	if n.Gated(1.5) {
		t.Error("Gated: time at/after a CONTINUOUS marker must not be gated")
	}
}
