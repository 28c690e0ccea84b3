// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package ngl is the public entry point of the engine: it
// wraps the GPU-CTX façade (gpu.Context) and a scene tree (scene.Node)
// behind the create/configure/resize/set-scene/prepare-draw/draw/reset
// lifecycle.
package ngl

import (
	"time"

	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/log"
	"github.com/nope-engine/ngl/scene"
)

// Config is an alias of gpu.Config: the options recognized at
// Configure time.
type Config = gpu.Config

// Code is an alias of gpu.Code: the enumerated result codes.
type Code = gpu.Code

// Error is an alias of gpu.Error.
type Error = gpu.Error

// ResetMode is an alias of gpu.ResetMode.
type ResetMode = gpu.ResetMode

// Reset modes.
const (
	ResetAll           = gpu.ResetAll
	ResetScene         = gpu.ResetScene
	ResetCaptureBuffer = gpu.ResetCaptureBuffer
	ResetConfig        = gpu.ResetConfig
)

// Context is the top-level handle returned by Create.
type Context struct {
	gctx *gpu.Context
	cfg  gpu.Config

	root       *scene.Node
	rootLayout gpu.RenderTargetLayout
}

// Create allocates an unconfigured Context. Call Configure before any
// other method.
func Create() *Context { return &Context{} }

// Configure selects a backend and brings it up: it allocates the
// backend instance, probes features/limits and builds the default
// render target. Calling Configure again re-configures from scratch,
// running the CONFIGURE suffix of Reset first.
func (c *Context) Configure(cfg gpu.Config) error {
	if c.gctx != nil {
		c.Reset(gpu.ResetConfig)
	}
	gctx, err := gpu.Create(cfg)
	if err != nil {
		return err
	}
	if err := gctx.Init(); err != nil {
		return err
	}
	c.gctx = gctx
	c.cfg = cfg
	c.rootLayout = gctx.DefaultRenderTargetLayout()
	return nil
}

// Resize is onscreen only; it forwards to gpu.Context.Resize.
func (c *Context) Resize(w, h int, viewport *gpu.Viewport) error {
	return c.gctx.Resize(w, h, viewport)
}

// SetCaptureBuffer sets (or disables, with dst == nil) the offscreen
// capture destination.
func (c *Context) SetCaptureBuffer(dst []byte) error {
	return c.gctx.SetCaptureBuffer(dst)
}

// SetScene installs root as the scene to draw. It runs Prepare on the
// new root against the default render target layout and deactivates
// the previous root, if any.
func (c *Context) SetScene(root *scene.Node) error {
	if c.gctx == nil {
		return gpu.NewError("set_scene", gpu.InvalidUsage, nil)
	}
	if root != nil {
		if err := root.Prepare(c.gctx.Device(), c.rootLayout); err != nil {
			return err
		}
	}
	if c.root != nil {
		c.root.Deactivate()
	}
	c.root = root
	if c.root != nil {
		if err := c.root.Activate(); err != nil {
			return err
		}
	}
	return nil
}

// PrepareDraw runs update(t) over the scene, advancing every
// time-dependent node exactly once for this frame.
func (c *Context) PrepareDraw(t float64) error {
	if c.root == nil {
		return nil
	}
	return c.root.Update(t)
}

// Draw runs the draw half of the frame lifecycle: begin_draw, the
// top-down draw traversal (opening/closing render passes as needed),
// and end_draw (resolve + invalidate + capture + present).
func (c *Context) Draw(t float64) error {
	if c.gctx == nil {
		return gpu.NewError("draw", gpu.InvalidUsage, nil)
	}
	if err := c.gctx.BeginDraw(t); err != nil {
		return err
	}
	if c.root != nil {
		if err := c.gctx.BeginRenderPass(c.gctx.GetDefaultRenderTarget(gpu.LClear)); err != nil {
			return err
		}
		dc := scene.NewDrawContext(c.gctx, gpu.GraphicsState{})
		dc.SetAvailableRenderTargets(
			c.gctx.GetDefaultRenderTarget(gpu.LClear),
			c.gctx.GetDefaultRenderTarget(gpu.LLoad),
		)
		if err := dc.DrawChild(c.root); err != nil {
			return err
		}
		if c.gctx.PassOpen() {
			if err := c.gctx.EndRenderPass(); err != nil {
				return err
			}
		}
	}
	return c.gctx.EndDraw(t)
}

// QueryDrawTime returns the GPU time elapsed during the most recent
// frame, in nanoseconds, requiring FeatureTimer (HUD enabled).
func (c *Context) QueryDrawTime() (time.Duration, error) {
	return c.gctx.QueryDrawTime()
}

// Reset tears down state according to mode. ResetAll also destroys
// the underlying GPU device/driver. Any mode that tears down GPU
// state releases the scene first, since its prefetched resources
// were built against the device being torn down.
func (c *Context) Reset(mode gpu.ResetMode) {
	if c.root != nil && mode != gpu.ResetCaptureBuffer {
		c.root.Deactivate()
		c.root = nil
	}
	if c.gctx != nil {
		c.gctx.Reset(mode)
		if mode == gpu.ResetAll {
			log.Info("context reset")
			c.gctx = nil
		}
	}
}
