// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package darray

import "testing"

func eqInt(a, b int) bool { return a == b }

func TestPushPop(t *testing.T) {
	var a Array[int]
	if a.Len() != 0 {
		t.Fatalf("zero value Len = %d, want 0", a.Len())
	}
	a.Push(1)
	a.Push(2)
	a.Push(3)
	if a.Len() != 3 || a.At(1) != 2 {
		t.Fatalf("Len = %d, At(1) = %d, want 3, 2", a.Len(), a.At(1))
	}
	if v := a.Pop(); v != 3 {
		t.Fatalf("Pop = %d, want 3", v)
	}
	if a.Len() != 2 {
		t.Fatalf("Len after Pop = %d, want 2", a.Len())
	}
}

func TestRemove(t *testing.T) {
	var a Array[int]
	for _, v := range []int{10, 20, 30, 20} {
		a.Push(v)
	}
	if !a.Remove(20, eqInt) {
		t.Fatal("Remove(20) = false, want true")
	}
	want := []int{10, 30, 20}
	got := a.Slice()
	if len(got) != len(want) {
		t.Fatalf("Len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Slice[%d] = %d, want %d (order must be preserved)", i, got[i], want[i])
		}
	}
	if a.Remove(99, eqInt) {
		t.Error("Remove of an absent value = true, want false")
	}
}

func TestClearKeepsCapacity(t *testing.T) {
	var a Array[int]
	for i := 0; i < 16; i++ {
		a.Push(i)
	}
	a.Clear()
	if a.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", a.Len())
	}
	if cap(a.s) == 0 {
		t.Error("Clear released the backing storage")
	}
}
