// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package darray implements a small generic growable array,
// used throughout the scene runtime for children/parent lists
// and anywhere else a resizable slice-of-T with in-place
// removal is convenient. It follows the same minimal,
// value-receiver-free style as internal/bitm and
// internal/bitvec.
package darray

import "slices"

// Array is a growable array of T.
// The zero value is an empty, usable Array.
type Array[T any] struct {
	s []T
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.s) }

// At returns the element at index i.
func (a *Array[T]) At(i int) T { return a.s[i] }

// Set sets the element at index i.
func (a *Array[T]) Set(i int, v T) { a.s[i] = v }

// Slice returns the underlying slice. Callers must not retain
// it across further mutating calls on a.
func (a *Array[T]) Slice() []T { return a.s }

// Push appends v.
func (a *Array[T]) Push(v T) { a.s = append(a.s, v) }

// Pop removes and returns the last element.
func (a *Array[T]) Pop() T {
	n := len(a.s) - 1
	v := a.s[n]
	a.s = a.s[:n]
	return v
}

// RemoveAt removes the element at index i, preserving order of
// the remaining elements.
func (a *Array[T]) RemoveAt(i int) {
	a.s = append(a.s[:i], a.s[i+1:]...)
}

// Remove removes the first element equal to v according to eq,
// reporting whether an element was removed.
func (a *Array[T]) Remove(v T, eq func(T, T) bool) bool {
	i := a.Index(v, eq)
	if i < 0 {
		return false
	}
	a.RemoveAt(i)
	return true
}

// Index returns the index of the first element equal to v
// according to eq, or -1 if not found.
func (a *Array[T]) Index(v T, eq func(T, T) bool) int {
	return slices.IndexFunc(a.s, func(x T) bool { return eq(x, v) })
}

// Clear empties the array without releasing its backing
// storage, so that a subsequent frame's traversal can reuse
// the capacity.
func (a *Array[T]) Clear() { a.s = a.s[:0] }

// Each calls f for every element in order.
func (a *Array[T]) Each(f func(int, T)) {
	for i, v := range a.s {
		f(i, v)
	}
}
