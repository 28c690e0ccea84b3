// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package block

import "testing"

// sampleFields mirrors the testable block used throughout the
// spec: {f32 a; vec3 b; mat3 c; f32 d[3];}.
func sampleFields() []Field {
	return []Field{
		{Name: "a", Type: Float, Count: 1},
		{Name: "b", Type: Vec3, Count: 1},
		{Name: "c", Type: Mat3, Count: 1},
		{Name: "d", Type: Float, Count: 3},
	}
}

func TestStd140Layout(t *testing.T) {
	b, err := Build(Std140, sampleFields())
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 16, 32, 80}
	for i, f := range b.Fields {
		if f.Offset != want[i] {
			t.Errorf("field %q: offset = %d, want %d", f.Name, f.Offset, want[i])
		}
	}
	if b.Size != 128 {
		t.Errorf("Size = %d, want 128", b.Size)
	}
}

func TestStd430Layout(t *testing.T) {
	b, err := Build(Std430, sampleFields())
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 16, 32, 80}
	for i, f := range b.Fields {
		if f.Offset != want[i] {
			t.Errorf("field %q: offset = %d, want %d", f.Name, f.Offset, want[i])
		}
	}
	if b.Size != 96 {
		t.Errorf("Size = %d, want 96 (92 aligned up to vec4)", b.Size)
	}
}

func TestVariadicMustBeLast(t *testing.T) {
	fields := []Field{
		{Name: "a", Type: Float, Variadic: true},
		{Name: "b", Type: Vec4, Count: 1},
	}
	if _, err := Build(Std140, fields); err == nil {
		t.Error("expected error for non-trailing variadic field")
	}
}

func TestSizeForVariadic(t *testing.T) {
	fields := []Field{
		{Name: "hdr", Type: Vec4, Count: 1},
		{Name: "items", Type: Vec4, Variadic: true},
	}
	b, err := Build(Std140, fields)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.SizeFor(4); got != 16+16*4 {
		t.Errorf("SizeFor(4) = %d, want %d", got, 16+16*4)
	}
}
