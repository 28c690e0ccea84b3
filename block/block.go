// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package block computes std140/std430 buffer-block layouts:
// given an ordered list of typed fields, it derives each
// field's offset, size and array stride following the rules
// of the selected layout, so that uniform and storage buffers
// can be built with predictable offsets.
//
// It generalizes fixed, hard-coded per-material layouts into
// an arbitrary-field computer.
package block

import "fmt"

// Type is the scalar/vector/matrix type of a field.
type Type int

// Recognized field types.
const (
	Float Type = iota
	Vec2
	Vec3
	Vec4
	Int
	IVec2
	IVec3
	IVec4
	Mat2
	Mat3
	Mat4
)

// baseAlign and size, in machine units (1 unit = 4 bytes),
// per the std140/std430 rules (GLSL 4.30 spec, section 7.6.2.2).
func (t Type) baseSize() (align, size int) {
	switch t {
	case Float, Int:
		return 1, 1
	case Vec2, IVec2:
		return 2, 2
	case Vec3, IVec3:
		// size is 3, but base alignment is rounded up to vec4 (4).
		return 4, 3
	case Vec4, IVec4:
		return 4, 4
	case Mat2:
		// A matrix is laid out as an array of columns.
		return 4, 2 * 4
	case Mat3:
		return 4, 3 * 4
	case Mat4:
		return 4, 4 * 4
	default:
		panic(fmt.Sprintf("block: unknown Type %d", t))
	}
}

// Layout selects the packing rules used to compute offsets.
type Layout int

// Recognized layouts.
const (
	// Std140 rounds array/struct/vec3 alignment up to a
	// vec4 boundary (16 bytes).
	Std140 Layout = iota
	// Std430 does not round scalar/vector array alignment
	// up to vec4, only matrices and nested structs.
	Std430
)

// Field describes one member of a Block.
type Field struct {
	Name string
	Type Type
	// Count is the array length, or 1 for a scalar field.
	// Exactly one Field in a Block may declare Variadic
	// instead, leaving Count unresolved until Size(n) is
	// called with a concrete runtime count.
	Count int
	// Variadic marks this field as having a runtime-resolved
	// trailing array count. At most one field per Block may
	// set this.
	Variadic bool

	// Computed offset, size and (for arrays) per-element
	// stride, in bytes. Populated by Build.
	Offset int
	Size   int
	Stride int
}

// Block is a computed buffer-block layout: an ordered list of
// fields with resolved offsets, sizes and strides, plus the
// block's total aligned size (for every field but a trailing
// Variadic one).
type Block struct {
	Layout Layout
	Fields []Field
	// Size is the total block size in bytes, aligned up to a
	// vec4 boundary (16 bytes), per the rule that an array of
	// blocks (e.g. instance data) must itself be vec4-aligned.
	// If the last field is Variadic, Size covers everything up
	// to (not including) that field; use SizeFor to account for
	// a concrete runtime count.
	Size int

	variadicIndex int // -1 if none
}

const vec4Bytes = 16

func alignUp(n, a int) int { return (n + a - 1) &^ (a - 1) }

// Build computes offsets/sizes/strides for fields under the
// given layout. Fields is used as supplied; at most one entry
// may set Variadic, and if present it must be the last field.
func Build(layout Layout, fields []Field) (*Block, error) {
	b := &Block{Layout: layout, Fields: append([]Field(nil), fields...), variadicIndex: -1}

	var offset int
	for i := range b.Fields {
		f := &b.Fields[i]
		if f.Variadic {
			if i != len(b.Fields)-1 {
				return nil, fmt.Errorf("block: variadic field %q must be last", f.Name)
			}
			if b.variadicIndex >= 0 {
				return nil, fmt.Errorf("block: only one variadic field allowed")
			}
			b.variadicIndex = i
		}
		count := f.Count
		if f.Variadic && count < 1 {
			count = 1 // Used only to compute per-element stride below.
		}
		if count < 1 {
			count = 1
		}

		baseAlign, elemSize := f.Type.baseSize()
		align := baseAlign
		stride := elemSize
		isArray := count > 1 || f.Variadic
		if isArray {
			if layout == Std140 {
				// std140 rounds every array element's stride
				// (and the array's base alignment) up to a
				// vec4 boundary, regardless of element type.
				align = 4
				stride = alignUp(elemSize, 4)
			} else {
				// std430 only applies the element's own
				// natural alignment; scalar/vec2 arrays are
				// not padded to vec4, but vec3/vec4/matrix
				// elements already carry a vec4 baseAlign.
				stride = alignUp(elemSize, baseAlign)
			}
		}

		off := alignUp(offset, align)
		f.Offset = off * 4
		f.Stride = stride * 4
		if f.Variadic {
			f.Size = 0 // Resolved per-instance via SizeFor.
		} else {
			f.Size = stride * count * 4
			if !isArray {
				f.Size = elemSize * 4
			}
		}
		if f.Variadic {
			offset = off
		} else {
			offset = off + stride*count
		}
	}

	b.Size = alignUp(offset*4, vec4Bytes)
	return b, nil
}

// SizeFor returns the block's total size when the Variadic
// field (if any) is instantiated with n elements. If the
// Block has no Variadic field, it returns Size regardless
// of n.
func (b *Block) SizeFor(n int) int {
	if b.variadicIndex < 0 {
		return b.Size
	}
	f := b.Fields[b.variadicIndex]
	baseAlign, elemSize := f.Type.baseSize()
	var stride int
	if b.Layout == Std140 {
		stride = alignUp(elemSize, 4) * 4
	} else {
		stride = alignUp(elemSize, baseAlign) * 4
	}
	return alignUp(f.Offset+stride*n, vec4Bytes)
}

// Field returns the computed Field named name, and whether it
// was found.
func (b *Block) Field(name string) (Field, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
