// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package align

import "testing"

func TestUpDown(t *testing.T) {
	for _, tc := range []struct {
		n, alignment, up, down int64
	}{
		{0, 256, 0, 0},
		{1, 256, 256, 0},
		{256, 256, 256, 256},
		{257, 256, 512, 256},
		{513, 16, 528, 512},
	} {
		if got := Up(tc.n, tc.alignment); got != tc.up {
			t.Errorf("Up(%d, %d) = %d, want %d", tc.n, tc.alignment, got, tc.up)
		}
		if got := Down(tc.n, tc.alignment); got != tc.down {
			t.Errorf("Down(%d, %d) = %d, want %d", tc.n, tc.alignment, got, tc.down)
		}
	}
}

func TestAllocatorOffsets(t *testing.T) {
	a := New(256)
	o1 := a.Alloc(100)
	o2 := a.Alloc(300)
	o3 := a.Alloc(1)

	if o1 != 0 {
		t.Errorf("first offset = %d, want 0", o1)
	}
	if o2 != 256 {
		t.Errorf("second offset = %d, want 256", o2)
	}
	if o3 != 768 {
		t.Errorf("third offset = %d, want 768 (256 + 300 rounded up)", o3)
	}
	if s := a.Size(); s != 1024 {
		t.Errorf("Size = %d, want 1024 (769 rounded up)", s)
	}

	a.Reset()
	if o := a.Alloc(8); o != 0 {
		t.Errorf("offset after Reset = %d, want 0", o)
	}
}
