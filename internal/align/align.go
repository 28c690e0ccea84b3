// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package align implements a small aligned sub-allocator used
// to pack multiple block.Layout instances (uniform/storage
// buffer contents) into a single host-visible Buffer range at
// predictable, correctly-aligned offsets.
package align

// Up rounds n up to the next multiple of alignment.
// alignment must be a power of two.
func Up(n, alignment int64) int64 {
	return (n + alignment - 1) &^ (alignment - 1)
}

// Down rounds n down to the previous multiple of alignment.
// alignment must be a power of two.
func Down(n, alignment int64) int64 {
	return n &^ (alignment - 1)
}

// Allocator sub-allocates fixed-alignment regions from a
// single growing extent. It does not own any backing memory;
// it only tracks offsets, so that the caller can size (or
// resize) a gpu.Buffer to Allocator.Size() and use the
// offsets returned by Alloc to place per-object data within
// it (e.g. one allocation per in-flight uniform-block
// instance).
type Allocator struct {
	alignment int64
	size      int64
}

// New creates an Allocator that rounds every allocation up to
// alignment bytes (e.g. a device's minimum uniform-buffer
// offset alignment).
func New(alignment int64) *Allocator {
	if alignment <= 0 {
		alignment = 1
	}
	return &Allocator{alignment: alignment}
}

// Alloc reserves size bytes and returns the offset at which
// they start. The offset is always a multiple of the
// allocator's alignment.
func (a *Allocator) Alloc(size int64) (offset int64) {
	offset = Up(a.size, a.alignment)
	a.size = offset + size
	return offset
}

// Size returns the total extent reserved so far, rounded up
// to the allocator's alignment so the backing buffer's
// capacity is itself a valid allocation boundary.
func (a *Allocator) Size() int64 { return Up(a.size, a.alignment) }

// Reset discards all allocations, as when beginning a new
// frame's worth of per-object uniform data.
func (a *Allocator) Reset() { a.size = 0 }
