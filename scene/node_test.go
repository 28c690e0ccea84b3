// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
)

func TestNodeLifecycle(t *testing.T) {
	var initN, prefetchN, releaseN, uninitN int
	class := &Class{
		Name:     "counter",
		Category: CategoryContainer,
		Init:     func(n *Node) error { initN++; return nil },
		Prefetch: func(n *Node, dev gpu.GPU) error { prefetchN++; return nil },
		Release:  func(n *Node) { releaseN++ },
		Uninit:   func(n *Node) { uninitN++ },
	}
	n := NewNode(class, "", nil)
	if n.State() != StateUninitialized {
		t.Fatalf("new node state = %v, want StateUninitialized", n.State())
	}

	if err := n.Prepare(nil, gpu.RenderTargetLayout{}); err != nil {
		t.Fatal(err)
	}
	if initN != 1 {
		t.Errorf("Init called %d times, want 1", initN)
	}
	if n.State() != StatePrepared {
		t.Fatalf("state after Prepare = %v, want StatePrepared", n.State())
	}

	if err := n.Activate(); err != nil {
		t.Fatal(err)
	}
	if prefetchN != 1 || !n.Active() {
		t.Fatalf("Activate: prefetchN=%d active=%v", prefetchN, n.Active())
	}
	if err := n.Activate(); err != nil {
		t.Fatal(err)
	}
	if prefetchN != 1 {
		t.Errorf("Prefetch called %d times on second Activate, want still 1 (refcounted)", prefetchN)
	}

	n.Deactivate()
	if releaseN != 0 || !n.Active() {
		t.Fatalf("Deactivate (2->1): releaseN=%d active=%v, want unreleased and still active", releaseN, n.Active())
	}
	n.Deactivate()
	if releaseN != 1 || n.Active() {
		t.Fatalf("Deactivate (1->0): releaseN=%d active=%v, want released and inactive", releaseN, n.Active())
	}

	n.Uninit()
	if uninitN != 1 || n.State() != StateUninitialized {
		t.Fatalf("Uninit: uninitN=%d state=%v", uninitN, n.State())
	}
}

func TestNodeUpdateVisitDedup(t *testing.T) {
	var updates int
	shared := NewNode(&Class{
		Name:     "leaf",
		Category: CategoryRender,
		Update:   func(n *Node, t float64) error { updates++; return nil },
	}, "", nil)

	parentA := Group("a", shared)
	parentB := Group("b", shared)
	root := Group("root", parentA, parentB)

	if err := root.Update(1); err != nil {
		t.Fatal(err)
	}
	if updates != 1 {
		t.Errorf("shared node's Update hook ran %d times in one frame, want 1 (visit dedup)", updates)
	}

	if err := root.Update(2); err != nil {
		t.Fatal(err)
	}
	if updates != 2 {
		t.Errorf("shared node's Update hook ran %d times across two frames, want 2", updates)
	}
}

func TestNodeActivateSetRefcounting(t *testing.T) {
	child := NewNode(&Class{Name: "leaf", Category: CategoryRender}, "", nil)
	parent := NewNode(&Class{Name: "twoParents", Category: CategoryContainer}, "", nil)

	if err := parent.ActivateSet([]*Node{child}); err != nil {
		t.Fatal(err)
	}
	if child.activation != 1 {
		t.Fatalf("child.activation = %d, want 1", child.activation)
	}

	// Referencing the same child again this "frame" must not double-activate.
	if err := parent.ActivateSet([]*Node{child}); err != nil {
		t.Fatal(err)
	}
	if child.activation != 1 {
		t.Fatalf("child.activation after repeat ActivateSet = %d, want still 1", child.activation)
	}

	if err := parent.ActivateSet(nil); err != nil {
		t.Fatal(err)
	}
	if child.activation != 0 {
		t.Fatalf("child.activation after dropping from want set = %d, want 0", child.activation)
	}
}
