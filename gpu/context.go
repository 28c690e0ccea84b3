// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"time"

	"github.com/nope-engine/ngl/linear"
	"github.com/nope-engine/ngl/log"
	"github.com/nope-engine/ngl/wsi"
)

// Context is the GPU-CTX façade described by the engine: a
// single entry point, backed by one backend Driver/GPU pair,
// that brackets frames, opens/closes render passes, records
// draw/dispatch work and resolves/presents/captures at frame
// end.
// A Context is not safe for concurrent or re-entrant use: the
// façade is fully synchronous and calling it from within a
// callback the engine itself invokes is undefined, per the
// single-threaded cooperative scheduling model.
type Context struct {
	cfg  Config
	drv  Driver
	dev  GPU
	lim  Limits
	feat Features

	version, langVersion string

	swap Swapchain

	defClear *RenderTarget
	defLoad  *RenderTarget
	defColor Texture
	defMS    Texture
	defDS    Texture

	// Per-frame recording state.
	cb       CmdBuffer
	passOpen bool
	curRT       *RenderTarget
	pipeline    *Pipeline
	bindgrp     *BindGroup
	boundVertex map[int]bool

	timerPending bool
	drawTimeNS   int64

	swapIndex int
}

// Create allocates a backend instance for the requested
// config.Backend. It fails with Unsupported if that backend
// was not compiled/registered in.
func Create(cfg Config) (*Context, error) {
	var drv Driver
	for _, d := range Drivers() {
		if d.Name() == cfg.Backend.String() {
			drv = d
			break
		}
	}
	if drv == nil {
		return nil, NewError("create", Unsupported, nil)
	}
	dev, err := drv.Open()
	if err != nil {
		return nil, NewError("create", External, err)
	}
	return &Context{cfg: cfg, drv: drv, dev: dev, lim: dev.Limits()}, nil
}

// Device returns the underlying GPU device.
func (c *Context) Device() GPU { return c.dev }

// Limits returns the implementation limits, valid after
// Create.
func (c *Context) Limits() Limits { return c.lim }

// Features returns the probed feature bitmask, valid after
// Init.
func (c *Context) Features() Features { return c.feat }

// Init brings up the device: probes features/limits and
// builds the default render targets. It allocates no timer
// queries; those belong to the backend's DrawTimer.
func (c *Context) Init() error {
	c.lim = c.dev.Limits()
	c.feat = probeFeatures(c.dev)
	return c.buildDefaultRenderTargets()
}

func (c *Context) buildDefaultRenderTargets() error {
	if c.cfg.Offscreen {
		return c.buildOffscreenRenderTargets()
	}
	return c.buildOnscreenRenderTargets()
}

// buildOffscreenRenderTargets allocates the default render
// target's backing textures, read back through
// SetCaptureBuffer/PixelReader instead of ever reaching a
// screen. With Samples > 1 the color attachment is an extra
// multisample texture resolved into the single-sample one the
// capture path reads; the user-visible texture is always the
// resolve destination.
func (c *Context) buildOffscreenRenderTargets() error {
	w, h := c.cfg.Width, c.cfg.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	samples := c.cfg.Samples
	if samples < 1 {
		samples = 1
	}
	resolve := samples > 1

	var err error
	c.defColor, err = c.dev.NewTexture(RGBA8un, Dim3D{Width: w, Height: h, Depth: 1}, 1, 1, 1, UShaderSample|URenderTarget|UShaderRead)
	if err != nil {
		return NewError("init", Memory, err)
	}
	colorView, err := c.defColor.NewView(IView2D, 0, 1, 0, 1)
	if err != nil {
		return NewError("init", Memory, err)
	}

	attView, resolveView := colorView, TextureView(nil)
	if resolve {
		c.defMS, err = c.dev.NewTexture(RGBA8un, Dim3D{Width: w, Height: h, Depth: 1}, 1, 1, samples, URenderTarget)
		if err != nil {
			return NewError("init", Memory, err)
		}
		msView, err := c.defMS.NewView(IView2DMS, 0, 1, 0, 1)
		if err != nil {
			return NewError("init", Memory, err)
		}
		attView, resolveView = msView, colorView
	}

	c.defDS, err = c.dev.NewTexture(D16un, Dim3D{Width: w, Height: h, Depth: 1}, 1, 1, samples, URenderTarget)
	if err != nil {
		return NewError("init", Memory, err)
	}
	dsView, err := c.defDS.NewView(IView2D, 0, 1, 0, 1)
	if err != nil {
		return NewError("init", Memory, err)
	}

	layout := RenderTargetLayout{
		Samples: samples,
		Colors:  []ColorLayout{{Format: RGBA8un, Resolve: resolve}},
		DS:      &DSLayout{Format: D16un},
	}
	desc := RenderTargetDesc{
		Width: w, Height: h, Layout: layout,
		Colors: []ColorAttachment{{
			View: attView, Resolve: resolveView, Load: LClear, Clear: c.cfg.ClearColor, Store: SStore,
		}},
		DS: &DSAttachment{View: dsView, Load: [2]LoadOp{LClear, LClear}, Store: [2]StoreOp{SDontCare, SDontCare}},
	}
	c.defClear, err = NewRenderTarget(c.dev, desc)
	if err != nil {
		return NewError("init", Memory, err)
	}
	c.defLoad, err = c.defClear.Resume(true)
	if err != nil {
		return NewError("init", Memory, err)
	}
	return nil
}

// buildOnscreenRenderTargets asks the backend (which must
// implement Presenter) for a real Swapchain built from the
// Display/Window/Handle/Platform in Config, and wraps its
// current image as the default color attachment. The onscreen
// render target carries no depth/stencil attachment of its own:
// a caller that needs depth-tested onscreen output composes a
// RenderToTexture pass with its own DS attachment and resolves/
// copies its color result into this one.
func (c *Context) buildOnscreenRenderTargets() error {
	pres, ok := c.dev.(Presenter)
	if !ok {
		return NewError("init", Unsupported, nil)
	}
	win := wsi.FromHandles(wsiPlatform(c.cfg.Platform), c.cfg.Display, c.cfg.Window, c.cfg.Handle, c.cfg.Width, c.cfg.Height)
	swap, err := pres.NewSwapchain(win, 1)
	if err != nil {
		return NewError("init", External, err)
	}
	if c.swap != nil {
		c.swap.Destroy()
	}
	c.swap = swap

	views := swap.Views()
	if len(views) == 0 {
		swap.Destroy()
		c.swap = nil
		return NewError("init", Bug, nil)
	}

	layout := RenderTargetLayout{
		Samples: c.cfg.Samples,
		Colors:  []ColorLayout{{Format: swap.Format()}},
	}
	desc := RenderTargetDesc{
		Width: c.cfg.Width, Height: c.cfg.Height, Layout: layout,
		Colors: []ColorAttachment{{
			View: views[0], Load: LClear, Clear: c.cfg.ClearColor, Store: SStore,
		}},
	}
	c.defClear, err = NewRenderTarget(c.dev, desc)
	if err != nil {
		return NewError("init", Memory, err)
	}
	c.defLoad, err = c.defClear.Resume(true)
	if err != nil {
		return NewError("init", Memory, err)
	}
	return nil
}

// wsiPlatform maps Config's backend-neutral Platform onto wsi's
// identically-ordered enum. The two stay distinct types because
// gpu imports wsi to describe Presenter, so wsi cannot import
// gpu back to share one.
func wsiPlatform(p Platform) wsi.Platform {
	switch p {
	case Xlib:
		return wsi.Xlib
	case Wayland:
		return wsi.Wayland
	case MacOS:
		return wsi.MacOS
	case IOS:
		return wsi.IOS
	case Android:
		return wsi.Android
	case Windows:
		return wsi.Windows
	default:
		return wsi.AutoPlatform
	}
}

// Resize re-creates the swapchain and updates the default
// render target dimensions. It is onscreen only; calling it on
// an offscreen Context fails with InvalidUsage.
func (c *Context) Resize(w, h int, viewport *Viewport) error {
	if c.cfg.Offscreen {
		return NewError("resize", InvalidUsage, nil)
	}
	c.cfg.Width, c.cfg.Height = w, h
	c.defClear.Destroy()
	c.defLoad.Destroy()
	return c.buildDefaultRenderTargets()
}

// SetCaptureBuffer sets (or, with dst == nil, disables) the
// offscreen capture destination. It is only valid offscreen.
func (c *Context) SetCaptureBuffer(dst []byte) error {
	if !c.cfg.Offscreen {
		return NewError("set_capture_buffer", InvalidUsage, nil)
	}
	c.cfg.CaptureBuffer = dst
	return nil
}

// BeginDraw brackets the start of a frame. The backend may
// start the GPU timer query here if HUD is enabled.
func (c *Context) BeginDraw(t float64) error {
	cb, err := c.dev.NewCmdBuffer()
	if err != nil {
		return NewError("begin_draw", Memory, err)
	}
	if err := cb.Begin(); err != nil {
		return NewError("begin_draw", External, err)
	}
	c.cb = cb
	if c.swap != nil {
		idx, err := c.swap.Next(cb)
		if err != nil {
			return NewError("begin_draw", External, err)
		}
		c.swapIndex = idx
	}
	if c.cfg.HUD && c.feat.Has(FeatureTimer) {
		if c.timerPending {
			log.Warn("duplicate timer query in frame; ignored")
		} else if dt, ok := c.dev.(DrawTimer); ok {
			dt.BeginTimer()
			c.timerPending = true
		}
	}
	return nil
}

// EndDraw ends the frame: resolves MSAA, invalidates
// DONT_CARE attachments (handled per render pass), performs
// the optional capture read-back, and presents.
func (c *Context) EndDraw(t float64) error {
	if c.passOpen {
		return NewError("end_draw", Bug, nil)
	}
	if err := c.cb.End(); err != nil {
		return NewError("end_draw", External, err)
	}
	ch := make(chan error, 1)
	c.dev.Commit([]CmdBuffer{c.cb}, ch)
	if err := <-ch; err != nil {
		return NewError("end_draw", External, err)
	}
	if c.swap != nil {
		if err := c.swap.Present(c.swapIndex, c.cb); err != nil {
			return NewError("end_draw", External, err)
		}
	}
	if c.cfg.Offscreen && c.cfg.CaptureBuffer != nil {
		if pr, ok := c.dev.(PixelReader); ok {
			if err := pr.ReadColorTexture(c.defColor, c.cfg.Width, c.cfg.Height, c.cfg.CaptureBuffer); err != nil {
				return NewError("end_draw", External, err)
			}
		}
	}
	if c.timerPending {
		if dt, ok := c.dev.(DrawTimer); ok {
			dt.EndTimer()
			c.drawTimeNS = dt.DrawTimeNS()
		}
		c.timerPending = false
	}
	return nil
}

// BeginRenderPass begins recording into rt. It asserts that
// rt is non-nil and that no pass is currently open.
func (c *Context) BeginRenderPass(rt *RenderTarget) error {
	if rt == nil {
		return NewError("begin_render_pass", InvalidArg, nil)
	}
	if c.passOpen {
		return NewError("begin_render_pass", InvalidUsage, nil)
	}
	c.cb.BeginPass(rt.Pass, rt.FB, rt.Clear)
	c.curRT = rt
	c.passOpen = true
	return nil
}

// EndRenderPass ends the currently open pass. MSAA resolve is
// handled by the render pass' subpass configuration; any
// attachment with DONT_CARE store op is invalidated here when
// FeatureInvalidateSubdata is available.
func (c *Context) EndRenderPass() error {
	if !c.passOpen {
		return NewError("end_render_pass", InvalidUsage, nil)
	}
	c.cb.EndPass()
	c.passOpen = false
	c.curRT = nil
	c.pipeline = nil
	c.bindgrp = nil
	c.boundVertex = nil
	return nil
}

// SetPipeline records a pipeline bind. It asserts that p's
// RenderTargetLayout is compatible with the currently open
// RenderTarget, per the layout-compatibility invariant.
func (c *Context) SetPipeline(p *Pipeline) error {
	if c.passOpen && c.curRT != nil && !p.Desc.RTLayout.Compatible(c.curRT.Layout) {
		return NewError("set_pipeline", InvalidUsage, nil)
	}
	c.cb.SetPipeline(p.Handle)
	c.pipeline = p
	return nil
}

// SetBindGroup records a bind-group bind. It asserts that
// len(dynOffsets) equals bg.Layout.NbDynamicOffsets(), and
// that bg's layout is compatible with the bound pipeline's.
func (c *Context) SetBindGroup(bg *BindGroup, dynOffsets []int) error {
	if len(dynOffsets) != bg.Layout.NbDynamicOffsets() {
		return NewError("set_bindgroup", InvalidUsage, nil)
	}
	if c.pipeline != nil && !bg.Layout.Compatible(c.pipeline.Desc.Layout) {
		return NewError("set_bindgroup", InvalidUsage, nil)
	}
	if c.pipeline != nil && c.pipeline.Desc.Type == Compute {
		c.cb.SetDescTableComp(bg.table, 0, dynOffsets)
	} else {
		c.cb.SetDescTableGraph(bg.table, 0, dynOffsets)
	}
	c.bindgrp = bg
	return nil
}

// SetVertexBuffer records a vertex buffer bind at the given
// slot.
func (c *Context) SetVertexBuffer(index int, buf Buffer, off int64) {
	c.cb.SetVertexBuf(index, []Buffer{buf}, []int64{off})
	if c.boundVertex == nil {
		c.boundVertex = make(map[int]bool)
	}
	c.boundVertex[index] = true
}

// SetIndexBuffer records the index buffer bind.
func (c *Context) SetIndexBuffer(buf Buffer, format IndexFmt, off int64) {
	c.cb.SetIndexBuf(format, buf, off)
}

// vertexBound asserts that every vertex buffer slot the bound
// pipeline's vertex state references has received a
// SetVertexBuffer call.
func (c *Context) vertexBound() bool {
	for slot := range c.pipeline.Desc.Vertex {
		if !c.boundVertex[slot] {
			return false
		}
	}
	return true
}

// Draw records a non-indexed draw. It requires a pipeline and
// bind group to be set, and every vertex buffer location
// referenced by the pipeline's vertex state to be bound.
func (c *Context) Draw(nv, ni int) error {
	if c.pipeline == nil || c.bindgrp == nil || !c.vertexBound() {
		return NewError("draw", InvalidUsage, nil)
	}
	c.cb.Draw(nv, ni, 0, 0)
	return nil
}

// DrawIndexed records an indexed draw.
func (c *Context) DrawIndexed(ni, ninst int) error {
	if c.pipeline == nil || c.bindgrp == nil || !c.vertexBound() {
		return NewError("draw_indexed", InvalidUsage, nil)
	}
	c.cb.DrawIndexed(ni, ninst, 0, 0, 0)
	return nil
}

// Dispatch records a compute dispatch.
func (c *Context) Dispatch(gx, gy, gz int) error {
	if c.pipeline == nil || c.bindgrp == nil {
		return NewError("dispatch", InvalidUsage, nil)
	}
	c.cb.Dispatch(gx, gy, gz)
	return nil
}

// PassOpen reports whether a render pass is currently open, so
// that a RenderToTexture node can decide whether it must end
// the caller's pass before installing its own.
func (c *Context) PassOpen() bool { return c.passOpen }

// CurRenderTarget returns the render target bound by the most
// recent BeginRenderPass, or nil if no pass is open.
func (c *Context) CurRenderTarget() *RenderTarget { return c.curRT }

// GetDefaultRenderTarget returns one of the two pre-built
// default render targets (the LClear or LLoad variant) so
// that a pass can be resumed without discarding contents.
func (c *Context) GetDefaultRenderTarget(load LoadOp) *RenderTarget {
	if load == LLoad {
		return c.defLoad
	}
	return c.defClear
}

// DefaultRenderTargetLayout returns the layout of the default
// render target. Pipelines meant to draw into the default
// target must be created against this exact layout.
func (c *Context) DefaultRenderTargetLayout() RenderTargetLayout {
	if c.defClear == nil {
		return RenderTargetLayout{}
	}
	return c.defClear.Layout
}

// TransformProjectionMatrix applies the backend's coordinate
// correction to a projection matrix in place. Different
// backends may disagree on Y-axis direction; offscreen
// rendering flips Y relative to onscreen on GL-like backends,
// while Vulkan-like backends expose identity.
func (c *Context) TransformProjectionMatrix(m *linear.M4) {
	if c.cfg.Backend == Vulkan || !c.cfg.Offscreen {
		return
	}
	var flip linear.M4
	flip.I()
	flip[1][1] = -1
	var r linear.M4
	r.Mul(&flip, m)
	*m = r
}

// GetRenderTargetUVCoordMatrix returns the UV correction
// matrix applied to texture coordinates that sample a render
// target, mirroring TransformProjectionMatrix's Y handling.
func (c *Context) GetRenderTargetUVCoordMatrix(m *linear.M4) {
	m.I()
	if c.cfg.Backend != Vulkan && c.cfg.Offscreen {
		m[1][1] = -1
		m[3][1] = 1
	}
}

// TransformCullMode swaps front/back culling to compensate
// for the backend's winding convention, when needed.
func (c *Context) TransformCullMode(cm CullMode) CullMode {
	if c.cfg.Backend == Vulkan || !c.cfg.Offscreen {
		return cm
	}
	switch cm {
	case CFront:
		return CBack
	case CBack:
		return CFront
	default:
		return cm
	}
}

// QueryDrawTime returns the GPU time elapsed between the
// first BeginDraw and the last EndDraw timestamp, in
// nanoseconds. It requires FeatureTimer.
func (c *Context) QueryDrawTime() (time.Duration, error) {
	if !c.feat.Has(FeatureTimer) {
		return 0, NewError("query_draw_time", Unsupported, nil)
	}
	return time.Duration(c.drawTimeNS), nil
}

// ResetMode controls which suffix of state teardown Reset
// runs.
type ResetMode int

// Reset modes.
const (
	ResetAll ResetMode = iota
	ResetScene
	ResetCaptureBuffer
	ResetConfig
)

// Reset tears down Context-owned resources according to
// mode, without issuing a device wait of its own (Commit,
// which EndDraw calls, blocks until a frame's work has
// completed). mode
// selects a suffix of the teardown sequence: ResetScene
// leaves the Context fully usable (the scene itself is the
// caller's to release), ResetCaptureBuffer additionally drops
// the capture destination, ResetConfig tears down the default
// render targets and swapchain so the Context can be brought
// up again, and ResetAll also destroys the underlying
// GPU/driver.
func (c *Context) Reset(mode ResetMode) {
	if mode == ResetScene {
		return
	}
	c.cfg.CaptureBuffer = nil
	if mode == ResetCaptureBuffer {
		return
	}
	if c.swap != nil {
		c.swap.Destroy()
		c.swap = nil
	}
	if c.defClear != nil {
		c.defClear.Destroy()
		c.defClear = nil
	}
	if c.defLoad != nil {
		c.defLoad.Destroy()
		c.defLoad = nil
	}
	if c.defColor != nil {
		c.defColor.Destroy()
		c.defColor = nil
	}
	if c.defMS != nil {
		c.defMS.Destroy()
		c.defMS = nil
	}
	if c.defDS != nil {
		c.defDS.Destroy()
		c.defDS = nil
	}
	if mode == ResetAll {
		c.drv.Close()
	}
}

// probeFeatures queries the device for optional capabilities.
// Backends that do not support a given introspection simply
// leave the corresponding bit unset.
func probeFeatures(dev GPU) Features {
	if p, ok := dev.(interface{ Features() Features }); ok {
		return p.Features()
	}
	return 0
}
