// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import "github.com/chewxy/math32"

// Q is a quaternion of float32.
type Q struct {
	V V3
	R float32
}

// Mul sets q to contain l ⋅ r.
func (q *Q) Mul(l, r *Q) {
	var v, w V3
	v.Scale(r.R, &l.V)
	w.Scale(l.R, &r.V)
	v.Add(&v, &w)
	w.Cross(&l.V, &r.V)
	d := l.V.Dot(&r.V)
	q.V.Add(&v, &w)
	q.R = l.R*r.R - d
}

// Rotate sets q to the unit quaternion representing a rotation of
// angle radians around axis, which must be a unit vector.
func (q *Q) Rotate(angle float32, axis *V3) {
	half := angle * 0.5
	s, c := math32.Sin(half), math32.Cos(half)
	q.V.Scale(s, axis)
	q.R = c
}
