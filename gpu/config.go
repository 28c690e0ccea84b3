// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

// Backend selects the GPU-CTX vtable, i.e. which registered
// Driver is used.
type Backend int

// Recognized backends.
const (
	OpenGL Backend = iota
	OpenGLES
	Vulkan
)

func (b Backend) String() string {
	switch b {
	case OpenGL:
		return "opengl"
	case OpenGLES:
		return "opengles"
	case Vulkan:
		return "vulkan"
	default:
		return "unknown"
	}
}

// Platform selects the WSI binding used for onscreen
// rendering.
type Platform int

// Recognized platforms.
const (
	AutoPlatform Platform = iota
	Xlib
	Wayland
	MacOS
	IOS
	Android
	Windows
)

// Config configures a Context (see Create).
// It mirrors the GPU-CTX façade's configuration contract:
// the fields below are copied verbatim into the Context on
// Create and remain readable for the Context's lifetime.
type Config struct {
	Backend  Backend
	Platform Platform

	// Display, Window and Handle are opaque integers passed
	// through to the WSI unmodified.
	Display uintptr
	Window  uintptr
	Handle  uintptr

	// Offscreen selects an offscreen default render target
	// of the given dimensions. If false, the default render
	// target tracks the window/surface size instead.
	Offscreen     bool
	Width, Height int

	// Samples is the MSAA sample count of the default
	// render target. Only meaningful when Offscreen is set.
	Samples int

	ClearColor [4]float32

	// CaptureBuffer, when non-nil, receives a tight
	// row-major RGBA8 copy of the default color attachment
	// after every EndDraw. Offscreen only.
	CaptureBuffer []byte

	// SetSurfacePTS forwards a presentation timestamp to the
	// surface on every EndDraw (EAGL/Android path).
	SetSurfacePTS bool

	// HUD enables the GPU timer query path used by
	// QueryDrawTime.
	HUD bool
}
