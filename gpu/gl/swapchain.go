// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/wsi"
)

// screenView is the sentinel gpu.TextureView a swapchain hands
// back in place of a real texture view: it tells framebuf.NewFB
// (renderpass.go) to bind the window system's own framebuffer
// (FBO 0) instead of building one, since GL has no way to attach
// a texture to the default framebuffer. A window-system
// framebuffer's depth/stencil, if any, is requested once via
// GLFW window hints at window creation and is never exposed as
// a separate attachment.
type screenView struct{}

func (screenView) Destroy() {}

// swapchain implements gpu.Swapchain over a single, real,
// visible GLFW window's default framebuffer. GL exposes no
// acquire/present step of its own: Next always hands back index
// 0, and Present's only real work is the window's SwapBuffers.
type swapchain struct {
	dev  *device
	win  *wsi.GLFWWindow
	view screenView
}

// NewSwapchain implements gpu.Presenter. win's Display/
// WindowHandle/NativeHandle are not usable here (see the
// package doc comment on why GL can't adopt a foreign window),
// so unless win is itself a *wsi.GLFWWindow this creates a new
// visible window of win's size, sharing this device's hidden
// context so GL objects created against one are visible to the
// other.
func (d *device) NewSwapchain(win wsi.Window, imageCount int) (gpu.Swapchain, error) {
	if gw, ok := win.(*wsi.GLFWWindow); ok {
		return &swapchain{dev: d, win: gw}, nil
	}
	gw, err := wsi.NewGLFWWindow(win.Width(), win.Height(), "ngl", d.win)
	if err != nil {
		return nil, gpu.NewError("new_swapchain", gpu.External, err)
	}
	return &swapchain{dev: d, win: gw}, nil
}

func (s *swapchain) Destroy() {
	if s.win != nil {
		s.win.Close()
		s.win = nil
	}
}

func (s *swapchain) Views() []gpu.TextureView { return []gpu.TextureView{s.view} }

func (s *swapchain) Format() gpu.PixelFmt { return gpu.RGBA8un }

// Next makes the onscreen window's context current so that the
// render pass it is about to back draws onto its framebuffer
// rather than the device's hidden one. There is only ever one
// image, so the index is always 0.
func (s *swapchain) Next(cb gpu.CmdBuffer) (int, error) {
	s.win.GL().MakeContextCurrent()
	return 0, nil
}

// Present swaps the window's front and back buffers and polls
// its event queue, then restores the device's hidden context as
// current so subsequent command recording is unaffected.
func (s *swapchain) Present(index int, cb gpu.CmdBuffer) error {
	s.win.GL().SwapBuffers()
	glfw.PollEvents()
	s.dev.win.MakeContextCurrent()
	return nil
}

// Recreate is a no-op: the window's size is read directly from
// GLFW on every buildDefaultRenderTargets call, so there is no
// cached extent here to refresh.
func (s *swapchain) Recreate() error { return nil }
