// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import "github.com/nope-engine/ngl/gpu"

// DrawContext carries the state a Draw hook needs while the tree is
// traversed top-down for a single frame: the GPU-CTX façade, the
// context-local graphics-state stack, the available render
// target pair of the pass being recorded, and the bookkeeping a
// RenderToTexture node needs to save/restore the caller's pass state
// around its own subtree.
type DrawContext struct {
	GPU *gpu.Context

	gstack *graphicsStateStack

	// avail is the render target pair of the pass currently being
	// recorded: [0] is the first-use (clear) variant, [1] the
	// resume (load) variant used to reopen the pass after an
	// interruption without discarding contents.
	avail [2]*gpu.RenderTarget

	// rtSaves is a stack of (available pair, pass-open) entries
	// pushed by RenderToTexture.Draw before installing its own
	// render targets, and popped when it restores the caller's
	// state.
	rtSaves []rtSave
}

type rtSave struct {
	avail    [2]*gpu.RenderTarget
	passOpen bool
}

// NewDrawContext creates a DrawContext for a single draw(t) call.
func NewDrawContext(ctx *gpu.Context, base gpu.GraphicsState) *DrawContext {
	return &DrawContext{GPU: ctx, gstack: newGraphicsStateStack(base)}
}

// SetAvailableRenderTargets installs the clear/load render target
// pair of the pass the caller is about to record.
func (dc *DrawContext) SetAvailableRenderTargets(clear, load *gpu.RenderTarget) {
	dc.avail = [2]*gpu.RenderTarget{clear, load}
}

// ResumeRenderTarget returns the render target to reopen the current
// pass with after an interruption: the load variant when one exists.
func (dc *DrawContext) ResumeRenderTarget() *gpu.RenderTarget {
	if dc.avail[1] != nil {
		return dc.avail[1]
	}
	return dc.avail[0]
}

// PushGraphicsState pushes a GraphicConfig override onto the
// context-local stack.
func (dc *DrawContext) PushGraphicsState(o *GraphicsStateOverride) { dc.gstack.push(o) }

// PopGraphicsState pops the most recently pushed override.
func (dc *DrawContext) PopGraphicsState() { dc.gstack.pop() }

// EffectiveGraphicsState returns the graphics state resulting from
// merging the current override stack over the base defaults.
func (dc *DrawContext) EffectiveGraphicsState() gpu.GraphicsState { return dc.gstack.effective() }

// DrawChild invokes c's Draw hook, if any.
func (dc *DrawContext) DrawChild(c *Node) error {
	if c.Class.Draw == nil {
		return nil
	}
	return c.Class.Draw(c, dc)
}

// saveRT records the caller's available pair (and whether a pass is
// open) before a RenderToTexture node installs its own.
func (dc *DrawContext) saveRT() {
	dc.rtSaves = append(dc.rtSaves, rtSave{avail: dc.avail, passOpen: dc.GPU.PassOpen()})
}

// restoreRT pops the most recently saved pass state, reinstating the
// caller's available pair. The caller is responsible for reopening a
// pass against ResumeRenderTarget if passOpen is true.
func (dc *DrawContext) restoreRT() rtSave {
	n := len(dc.rtSaves) - 1
	s := dc.rtSaves[n]
	dc.rtSaves = dc.rtSaves[:n]
	dc.avail = s.avail
	return s
}
