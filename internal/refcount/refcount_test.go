// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package refcount

import "testing"

type resource struct {
	Counter
	destroyed int
}

func (r *resource) RefCounter() *Counter { return &r.Counter }

func TestDestroyExactlyOnce(t *testing.T) {
	var r resource
	r.Init(func() { r.destroyed++ })
	if n := r.Count(); n != 1 {
		t.Fatalf("Count after Init = %d, want 1", n)
	}

	Ref(&r)
	Ref(&r)
	if n := r.Count(); n != 3 {
		t.Fatalf("Count after two Refs = %d, want 3", n)
	}

	Unref(&r)
	Unref(&r)
	if r.destroyed != 0 {
		t.Fatalf("destroyed = %d before the count reached zero, want 0", r.destroyed)
	}
	Unref(&r)
	if r.destroyed != 1 {
		t.Fatalf("destroyed = %d after the 1->0 transition, want exactly 1", r.destroyed)
	}
}

func TestUnrefReturnsCount(t *testing.T) {
	var r resource
	r.Init(nil)
	r.Ref()
	if n := r.Unref(); n != 1 {
		t.Errorf("Unref = %d, want 1", n)
	}
	if n := r.Unref(); n != 0 {
		t.Errorf("Unref = %d, want 0", n)
	}
}
