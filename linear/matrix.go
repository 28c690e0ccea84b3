// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import "github.com/chewxy/math32"

// M3 is a column-major 3x3 matrix of float32.
type M3 [3]V3

// I makes m an identity matrix.
func (m *M3) I() { *m = M3{{1}, {0, 1}, {0, 0, 1}} }

// Mul sets m to contain l ⋅ r.
func (m *M3) Mul(l, r *M3) {
	*m = M3{}
	for i := range m {
		for j := range m {
			for k := range m {
				m[i][j] += l[k][j] * r[i][k]
			}
		}
	}
}

// Transpose sets m to contain the transpose of n.
func (m *M3) Transpose(n *M3) {
	for i := range m {
		m[i][i] = n[i][i]
		for j := i + 1; j < len(m); j++ {
			m[i][j], m[j][i] = n[j][i], n[i][j]
		}
	}
}

// Invert sets m to contain the inverse of n.
func (m *M3) Invert(n *M3) {
	s0 := n[1][1]*n[2][2] - n[1][2]*n[2][1]
	s1 := n[1][0]*n[2][2] - n[1][2]*n[2][0]
	s2 := n[1][0]*n[2][1] - n[1][1]*n[2][0]
	idet := 1 / (n[0][0]*s0 - n[0][1]*s1 + n[0][2]*s2)
	m[0][0] = s0 * idet
	m[0][1] = -(n[0][1]*n[2][2] - n[0][2]*n[2][1]) * idet
	m[0][2] = (n[0][1]*n[1][2] - n[0][2]*n[1][1]) * idet
	m[1][0] = -s1 * idet
	m[1][1] = (n[0][0]*n[2][2] - n[0][2]*n[2][0]) * idet
	m[1][2] = -(n[0][0]*n[1][2] - n[0][2]*n[1][0]) * idet
	m[2][0] = s2 * idet
	m[2][1] = -(n[0][0]*n[2][1] - n[0][1]*n[2][0]) * idet
	m[2][2] = (n[0][0]*n[1][1] - n[0][1]*n[1][0]) * idet
}

// Rotate sets m to a rotation matrix of angle radians around axis,
// which must be a unit vector.
func (m *M3) Rotate(angle float32, axis *V3) {
	s, c := math32.Sin(angle), math32.Cos(angle)
	ic := 1 - c
	x, y, z := axis[0], axis[1], axis[2]
	*m = M3{
		{x*x*ic + c, x*y*ic + z*s, x*z*ic - y*s},
		{x*y*ic - z*s, y*y*ic + c, y*z*ic + x*s},
		{x*z*ic + y*s, y*z*ic - x*s, z*z*ic + c},
	}
}

// RotateQ sets m to the rotation matrix equivalent to q, which must
// be a unit quaternion.
func (m *M3) RotateQ(q *Q) {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.R
	x2, y2, z2 := x+x, y+y, z+z
	xx, yy, zz := x*x2, y*y2, z*z2
	xy, xz, yz := x*y2, x*z2, y*z2
	wx, wy, wz := w*x2, w*y2, w*z2
	*m = M3{
		{1 - (yy + zz), xy + wz, xz - wy},
		{xy - wz, 1 - (xx + zz), yz + wx},
		{xz + wy, yz - wx, 1 - (xx + yy)},
	}
}

// M4 is a column-major 4x4 matrix of float32.
type M4 [4]V4

// I makes m an identity matrix.
func (m *M4) I() { *m = M4{{1}, {0, 1}, {0, 0, 1}, {0, 0, 0, 1}} }

// Mul sets m to contain l ⋅ r.
func (m *M4) Mul(l, r *M4) {
	*m = M4{}
	for i := range m {
		for j := range m {
			for k := range m {
				m[i][j] += l[k][j] * r[i][k]
			}
		}
	}
}

// Transpose sets m to contain the transpose of n.
func (m *M4) Transpose(n *M4) {
	for i := range m {
		m[i][i] = n[i][i]
		for j := i + 1; j < len(m); j++ {
			m[i][j], m[j][i] = n[j][i], n[i][j]
		}
	}
}

// Invert sets m to contain the inverse of n.
func (m *M4) Invert(n *M4) {
	s0 := n[0][0]*n[1][1] - n[0][1]*n[1][0]
	s1 := n[0][0]*n[1][2] - n[0][2]*n[1][0]
	s2 := n[0][0]*n[1][3] - n[0][3]*n[1][0]
	s3 := n[0][1]*n[1][2] - n[0][2]*n[1][1]
	s4 := n[0][1]*n[1][3] - n[0][3]*n[1][1]
	s5 := n[0][2]*n[1][3] - n[0][3]*n[1][2]
	c0 := n[2][0]*n[3][1] - n[2][1]*n[3][0]
	c1 := n[2][0]*n[3][2] - n[2][2]*n[3][0]
	c2 := n[2][0]*n[3][3] - n[2][3]*n[3][0]
	c3 := n[2][1]*n[3][2] - n[2][2]*n[3][1]
	c4 := n[2][1]*n[3][3] - n[2][3]*n[3][1]
	c5 := n[2][2]*n[3][3] - n[2][3]*n[3][2]
	idet := 1 / (s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0)
	m[0][0] = (c5*n[1][1] - c4*n[1][2] + c3*n[1][3]) * idet
	m[0][1] = (-c5*n[0][1] + c4*n[0][2] - c3*n[0][3]) * idet
	m[0][2] = (s5*n[3][1] - s4*n[3][2] + s3*n[3][3]) * idet
	m[0][3] = (-s5*n[2][1] + s4*n[2][2] - s3*n[2][3]) * idet
	m[1][0] = (-c5*n[1][0] + c2*n[1][2] - c1*n[1][3]) * idet
	m[1][1] = (c5*n[0][0] - c2*n[0][2] + c1*n[0][3]) * idet
	m[1][2] = (-s5*n[3][0] + s2*n[3][2] - s1*n[3][3]) * idet
	m[1][3] = (s5*n[2][0] - s2*n[2][2] + s1*n[2][3]) * idet
	m[2][0] = (c4*n[1][0] - c2*n[1][1] + c0*n[1][3]) * idet
	m[2][1] = (-c4*n[0][0] + c2*n[0][1] - c0*n[0][3]) * idet
	m[2][2] = (s4*n[3][0] - s2*n[3][1] + s0*n[3][3]) * idet
	m[2][3] = (-s4*n[2][0] + s2*n[2][1] - s0*n[2][3]) * idet
	m[3][0] = (-c3*n[1][0] + c1*n[1][1] - c0*n[1][2]) * idet
	m[3][1] = (c3*n[0][0] - c1*n[0][1] + c0*n[0][2]) * idet
	m[3][2] = (-s3*n[3][0] + s1*n[3][1] - s0*n[3][2]) * idet
	m[3][3] = (s3*n[2][0] - s1*n[2][1] + s0*n[2][2]) * idet
}

// Rotate sets m to a rotation matrix of angle radians around axis,
// which must be a unit vector. The translation column is left at
// identity (0, 0, 0, 1).
func (m *M4) Rotate(angle float32, axis *V3) {
	var r M3
	r.Rotate(angle, axis)
	*m = M4{
		{r[0][0], r[0][1], r[0][2], 0},
		{r[1][0], r[1][1], r[1][2], 0},
		{r[2][0], r[2][1], r[2][2], 0},
		{0, 0, 0, 1},
	}
}

// RotateQ sets m to the rotation matrix equivalent to q, which must
// be a unit quaternion. The translation column is left at identity
// (0, 0, 0, 1).
func (m *M4) RotateQ(q *Q) {
	var r M3
	r.RotateQ(q)
	*m = M4{
		{r[0][0], r[0][1], r[0][2], 0},
		{r[1][0], r[1][1], r[1][2], 0},
		{r[2][0], r[2][1], r[2][2], 0},
		{0, 0, 0, 1},
	}
}
