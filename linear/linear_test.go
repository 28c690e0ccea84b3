// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestV3(t *testing.T) {
	v := V3{1, 2, 4}
	w := V3{0, -1, 2}

	var u V3
	if u.Add(&v, &w); u != (V3{1, 1, 6}) {
		t.Fatalf("V3.Add\nhave %v\nwant [1 1 6]", u)
	}
	if u.Sub(&v, &w); u != (V3{1, 3, 2}) {
		t.Fatalf("V3.Sub\nhave %v\nwant [1 3 2]", u)
	}
	if u.Scale(-1, &v); u != (V3{-1, -2, -4}) {
		t.Fatalf("V3.Scale\nhave %v\nwant [-1 -2 -4]", u)
	}
	if u.Scale(2, &w); u != (V3{0, -2, 4}) {
		t.Fatalf("V3.Scale\nhave %v\nwant [0 -2 4]", u)
	}
	if d := v.Dot(&w); d != 6 {
		t.Fatalf("V3.Dot\nhave %v\nwant 6", d)
	}
	if d := v.Dot(&v); d != 21 {
		t.Fatalf("V3.Dot\nhave %v\nwant 21", d)
	}
	if l := v.Len(); l != math32.Sqrt(21) {
		t.Fatalf("V3.Len\nhave %v\nwant %v", l, math32.Sqrt(21))
	}
	if l := w.Len(); l != math32.Sqrt(5) {
		t.Fatalf("V3.Len\nhave %v\nwant %v", l, math32.Sqrt(5))
	}

	a := V3{0, 0, -2}
	b := V3{0, 4, 0}
	if u.Norm(&a); u != (V3{0, 0, -1}) {
		t.Fatalf("V3.Norm\nhave %v\nwant [0 0 -1]", u)
	}
	var x V3
	if x.Norm(&b); x != (V3{0, 1, 0}) {
		t.Fatalf("V3.Norm\nhave %v\nwant [0 1 0]", x)
	}
	if u.Cross(&a, &b); u != (V3{8, 0, 0}) {
		t.Fatalf("V3.Cross\nhave %v\nwant [8 0 0]", u)
	}
	if u.Cross(&b, &a); u != (V3{-8, 0, 0}) {
		t.Fatalf("V3.Cross\nhave %v\nwant [-8 0 0]", u)
	}

	var m M3
	m.I()
	var y V3
	if y.Mul(&m, &v); y != v {
		t.Fatalf("V3.Mul (identity)\nhave %v\nwant %v", y, v)
	}
}

func TestV4(t *testing.T) {
	v := V4{1, 2, 4, -1}
	w := V4{0, -1, 2, 1}
	var u V4
	if u.Add(&v, &w); u != (V4{1, 1, 6, 0}) {
		t.Fatalf("V4.Add\nhave %v\nwant [1 1 6 0]", u)
	}
	if u.Sub(&v, &w); u != (V4{1, 3, 2, -2}) {
		t.Fatalf("V4.Sub\nhave %v\nwant [1 3 2 -2]", u)
	}
	if d := v.Dot(&w); d != 5 {
		t.Fatalf("V4.Dot\nhave %v\nwant 5", d)
	}

	var m M4
	m.I()
	var y V4
	if y.Mul(&m, &v); y != v {
		t.Fatalf("V4.Mul (identity)\nhave %v\nwant %v", y, v)
	}
}

func TestM3(t *testing.T) {
	var i M3
	i.I()
	l := M3{{1, 4, 7}, {2, 5, 8}, {3, 6, 9}}

	var m M3
	if m.Mul(&l, &i); m != l {
		t.Fatalf("M3.Mul (identity)\nhave %v\nwant %v", m, l)
	}

	var tr M3
	tr.Transpose(&l)
	var rt M3
	rt.Transpose(&tr)
	if rt != l {
		t.Fatalf("M3.Transpose (involution)\nhave %v\nwant %v", rt, l)
	}

	h := M3{{0, 1, 1}, {3, 0, -1}, {-1, 1, 0}}
	var inv M3
	inv.Invert(&h)
	var id M3
	id.Mul(&h, &inv)
	const eps = 1e-4
	for i := range id {
		for j := range id[i] {
			want := float32(0)
			if i == j {
				want = 1
			}
			if d := id[i][j] - want; d > eps || d < -eps {
				t.Fatalf("M3.Invert: h*inv(h) not identity\nhave %v", id)
			}
		}
	}
}

func TestM4(t *testing.T) {
	var i M4
	i.I()
	l := M4{{1, 5, 9, 13}, {2, 6, 10, 14}, {3, 7, 11, 15}, {4, 8, 12, 16}}

	var m M4
	if m.Mul(&l, &i); m != l {
		t.Fatalf("M4.Mul (identity)\nhave %v\nwant %v", m, l)
	}

	h := M4{{0, 1, 1, -3}, {3, 0, -1, 0}, {-1, 1, 0, 3}, {1, 0, -3, 0}}
	var inv M4
	inv.Invert(&h)
	var id M4
	id.Mul(&h, &inv)
	const eps = 1e-3
	for i := range id {
		for j := range id[i] {
			want := float32(0)
			if i == j {
				want = 1
			}
			if d := id[i][j] - want; d > eps || d < -eps {
				t.Fatalf("M4.Invert: h*inv(h) not identity\nhave %v", id)
			}
		}
	}
}

func TestQ(t *testing.T) {
	// Identity quaternion (zero vector part, unit real part) leaves
	// the other operand unchanged under Mul.
	id := Q{R: 1}
	l := Q{V: V3{0.5, 0.5, -0.5}, R: 0.5}

	var q Q
	q.Mul(&id, &l)
	if q != l {
		t.Fatalf("Q.Mul (identity)\nhave %v\nwant %v", q, l)
	}
	q.Mul(&l, &id)
	if q != l {
		t.Fatalf("Q.Mul (identity)\nhave %v\nwant %v", q, l)
	}
}
