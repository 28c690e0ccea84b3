// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"bytes"
	"strings"
	"testing"
)

// TestSerializeDAGDedup serializes a diamond-shaped graph; the shared
// leaf must appear exactly once, at its first depth-first visit.
func TestSerializeDAGDedup(t *testing.T) {
	leaf := NewNode(&Class{Name: "leaf", Category: CategoryRender}, "shared-leaf", nil)
	left := Group("left", leaf)
	right := Group("right", leaf)
	root := Group("root", left, right)

	var buf bytes.Buffer
	if err := Serialize(&buf, root); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("serialized %d lines, want 4 (root, left, leaf, right)", len(lines))
	}
	if n := strings.Count(out, "shared-leaf"); n != 1 {
		t.Errorf("shared leaf serialized %d times, want 1", n)
	}
}

// TestSerializeStableAcrossRuns serializes the same graph twice; the
// dumps must be identical so they can be diffed.
func TestSerializeStableAcrossRuns(t *testing.T) {
	root := Group("root", Group("a"), Group("b"))

	var first, second bytes.Buffer
	if err := Serialize(&first, root); err != nil {
		t.Fatal(err)
	}
	if err := Serialize(&second, root); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Error("two dumps of the same scene differ")
	}
}

func TestSerializeNilRoot(t *testing.T) {
	var buf bytes.Buffer
	if err := Serialize(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("nil root serialized %d bytes, want 0", buf.Len())
	}
}
