// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import "testing"

func TestFromHandlesRoundTrips(t *testing.T) {
	w := FromHandles(Xlib, 0x1000, 0x2000, 0x3000, 640, 480)
	if w.Platform() != Xlib {
		t.Errorf("Platform() = %v, want %v", w.Platform(), Xlib)
	}
	if w.Display() != 0x1000 || w.WindowHandle() != 0x2000 || w.NativeHandle() != 0x3000 {
		t.Errorf("Display/WindowHandle/NativeHandle = %x/%x/%x, want 1000/2000/3000",
			w.Display(), w.WindowHandle(), w.NativeHandle())
	}
	if w.Width() != 640 || w.Height() != 480 {
		t.Errorf("Width/Height = %d/%d, want 640/480", w.Width(), w.Height())
	}
}

func TestFromHandlesIndependentInstances(t *testing.T) {
	a := FromHandles(Windows, 0, 1, 2, 100, 100)
	b := FromHandles(Wayland, 3, 4, 5, 200, 200)
	if a.Platform() == b.Platform() {
		t.Fatalf("two independently constructed Windows share Platform %v", a.Platform())
	}
	if a.WindowHandle() == b.WindowHandle() {
		t.Fatalf("two independently constructed Windows share WindowHandle %x", a.WindowHandle())
	}
}
