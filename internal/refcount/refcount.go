// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package refcount implements an embeddable reference-count
// header: a counter plus a type-erased destroy function, so
// that a generic Ref/Unref pair can operate on any resource
// through a common header. No other package of this module
// imports it; scene nodes keep their own activation count.
//
// The invariant is that a resource is destroyed exactly
// once, on the 1->0 transition.
package refcount

import "sync/atomic"

// Counter is the embedded header. It is meant to be the
// first field of any refcounted type, embedded by value
// rather than wrapped, the same way bitm.Bitm and bitvec.V
// are.
//
// Counter is not safe for concurrent use across goroutines by
// design: the engine's scheduling model is single-threaded
// cooperative (see the GPU-CTX façade), so Ref/Unref calls are
// expected to be serialized by the caller. atomic keeps the
// count itself consistent if a stray concurrent call happens;
// such a call is neither detected nor reported.
type Counter struct {
	n       int32
	destroy func()
}

// Init sets the initial count to 1 and records the function
// invoked on the 1->0 transition. It must be called once,
// before the first Ref/Unref.
func (c *Counter) Init(destroy func()) {
	atomic.StoreInt32(&c.n, 1)
	c.destroy = destroy
}

// Ref increments the count and returns the new value.
func (c *Counter) Ref() int32 {
	return atomic.AddInt32(&c.n, 1)
}

// Unref decrements the count and, if it reaches zero, invokes
// the destroy function recorded by Init. It returns the new
// count.
func (c *Counter) Unref() int32 {
	n := atomic.AddInt32(&c.n, -1)
	if n == 0 && c.destroy != nil {
		c.destroy()
	}
	return n
}

// Count returns the current reference count.
func (c *Counter) Count() int32 { return atomic.LoadInt32(&c.n) }

// Refcounted is the interface implemented by any type that
// embeds a Counter and exposes it for the generic Ref/Unref
// helpers below.
type Refcounted interface {
	RefCounter() *Counter
}

// Ref increments x's reference count.
func Ref[T Refcounted](x T) T {
	x.RefCounter().Ref()
	return x
}

// Unref decrements x's reference count, destroying it on the
// 1->0 transition.
func Unref[T Refcounted](x T) {
	x.RefCounter().Unref()
}
