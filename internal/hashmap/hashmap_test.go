// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package hashmap

import "testing"

func TestSetGet(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)

	if v, ok := m.Get("a"); !ok || v != 3 {
		t.Errorf(`Get("a") = %d, %v, want 3, true`, v, ok)
	}
	if _, ok := m.Get("c"); ok {
		t.Error(`Get("c") = true for an absent key`)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2 (update must not duplicate)", m.Len())
	}
}

func TestInsertionOrder(t *testing.T) {
	m := New[string, int]()
	in := []string{"z", "a", "m", "b"}
	for i, k := range in {
		m.Set(k, i)
	}
	m.Set("a", 99)

	got := m.Keys()
	if len(got) != len(in) {
		t.Fatalf("Keys length = %d, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("Keys[%d] = %q, want %q (insertion order, update keeps position)", i, got[i], in[i])
		}
	}

	var visited []string
	m.Each(func(k string, v int) { visited = append(visited, k) })
	for i := range in {
		if visited[i] != in[i] {
			t.Errorf("Each order[%d] = %q, want %q", i, visited[i], in[i])
		}
	}
}
