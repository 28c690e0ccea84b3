// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
	_ "github.com/nope-engine/ngl/gpu/gputest"
)

func newGPUContext(t *testing.T) *gpu.Context {
	t.Helper()
	ctx, err := gpu.Create(gpu.Config{Backend: gpu.OpenGL, Offscreen: true, Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("gpu.Create: %v", err)
	}
	if err := ctx.Init(); err != nil {
		t.Fatalf("Context.Init: %v", err)
	}
	return ctx
}

// TestRenderToTextureDrawRestoresCallerPass checks the interrupt/
// resume choreography: the node ends the caller's pass, renders its
// subtree into its own render target, then reopens the caller's pass
// with the load variant so prior contents survive.
func TestRenderToTextureDrawRestoresCallerPass(t *testing.T) {
	ctx := newGPUContext(t)
	defer ctx.Reset(gpu.ResetAll)

	var drew int
	probe := NewNode(&Class{
		Name:     "probe",
		Category: CategoryRender,
		Draw:     func(n *Node, dc *DrawContext) error { drew++; return nil },
	}, "", nil)

	rtt := RenderToTexture("rtt", RenderToTextureOpts{
		Width: 4, Height: 4,
		ColorFormats: []gpu.PixelFmt{gpu.RGBA8un},
		Child:        probe,
	})
	if err := rtt.Prepare(ctx.Device(), gpu.RenderTargetLayout{}); err != nil {
		t.Fatal(err)
	}
	if err := rtt.Activate(); err != nil {
		t.Fatal(err)
	}
	if err := rtt.Update(0); err != nil {
		t.Fatal(err)
	}

	if err := ctx.BeginDraw(0); err != nil {
		t.Fatal(err)
	}
	if err := ctx.BeginRenderPass(ctx.GetDefaultRenderTarget(gpu.LClear)); err != nil {
		t.Fatal(err)
	}
	dc := NewDrawContext(ctx, gpu.GraphicsState{})
	dc.SetAvailableRenderTargets(
		ctx.GetDefaultRenderTarget(gpu.LClear),
		ctx.GetDefaultRenderTarget(gpu.LLoad),
	)
	if err := dc.DrawChild(rtt); err != nil {
		t.Fatal(err)
	}

	if drew != 1 {
		t.Errorf("child drew %d times, want 1", drew)
	}
	if !ctx.PassOpen() {
		t.Fatal("caller's pass was not reopened after the render-to-texture subtree")
	}
	if ctx.CurRenderTarget() != ctx.GetDefaultRenderTarget(gpu.LLoad) {
		t.Error("caller's pass resumed with the clear variant; the load variant must be used so contents are preserved")
	}

	if err := ctx.EndRenderPass(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndDraw(0); err != nil {
		t.Fatal(err)
	}
	rtt.Deactivate()
}

// TestRenderToTextureGated checks that a NoRender range marker keeps
// the child from being activated for the frame.
func TestRenderToTextureGated(t *testing.T) {
	ctx := newGPUContext(t)
	defer ctx.Reset(gpu.ResetAll)

	probe := NewNode(&Class{Name: "probe", Category: CategoryRender}, "", nil)
	rtt := RenderToTexture("rtt", RenderToTextureOpts{
		Width: 4, Height: 4,
		ColorFormats: []gpu.PixelFmt{gpu.RGBA8un},
		Child:        probe,
	})
	if err := rtt.SetRanges([]RenderRange{{Kind: NoRender, Start: 0}, {Kind: Continuous, Start: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := rtt.Prepare(ctx.Device(), gpu.RenderTargetLayout{}); err != nil {
		t.Fatal(err)
	}
	if err := rtt.Activate(); err != nil {
		t.Fatal(err)
	}

	if err := rtt.Update(0.5); err != nil {
		t.Fatal(err)
	}
	if probe.Active() {
		t.Error("child active at t=0.5, want gated by the NoRender marker")
	}
	if err := rtt.Update(2); err != nil {
		t.Fatal(err)
	}
	if !probe.Active() {
		t.Error("child inactive at t=2, want activated by the Continuous marker")
	}
	rtt.Deactivate()
}

// TestCountInterruptions checks the nested render-to-texture census
// that decides the transient-attachment fast path.
func TestCountInterruptions(t *testing.T) {
	leaf := NewNode(&Class{Name: "leaf", Category: CategoryRender}, "", nil)
	inner := RenderToTexture("inner", RenderToTextureOpts{Width: 2, Height: 2, ColorFormats: []gpu.PixelFmt{gpu.RGBA8un}, Child: leaf})
	mid := Group("mid", inner)
	outer := RenderToTexture("outer", RenderToTextureOpts{Width: 4, Height: 4, ColorFormats: []gpu.PixelFmt{gpu.RGBA8un}, Child: mid})

	if n := countInterruptions(mid); n != 1 {
		t.Errorf("countInterruptions(mid) = %d, want 1", n)
	}
	if n := countInterruptions(outer); n != 1 {
		t.Errorf("countInterruptions(outer) = %d, want 1", n)
	}
}
