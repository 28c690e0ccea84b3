// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ngl_test

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
	_ "github.com/nope-engine/ngl/gpu/gputest"
	"github.com/nope-engine/ngl/ngl"
	"github.com/nope-engine/ngl/scene"
)

func newOffscreenConfig() gpu.Config {
	return gpu.Config{
		Backend:   gpu.OpenGL,
		Offscreen: true,
		Width:     4,
		Height:    4,
	}
}

func TestContextLifecycle(t *testing.T) {
	c := ngl.Create()
	if err := c.Configure(newOffscreenConfig()); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	var drew int
	root := scene.Group("root", scene.NewNode(&scene.Class{
		Name:     "probe",
		Category: scene.CategoryRender,
		Draw:     func(n *scene.Node, dc *scene.DrawContext) error { drew++; return nil },
	}, "", nil))

	if err := c.SetScene(root); err != nil {
		t.Fatalf("SetScene: %v", err)
	}
	if err := c.PrepareDraw(0); err != nil {
		t.Fatalf("PrepareDraw: %v", err)
	}
	if err := c.Draw(0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if drew != 1 {
		t.Errorf("probe node drew %d times, want 1", drew)
	}

	c.Reset(ngl.ResetAll)
}

func TestContextOffscreenCapture(t *testing.T) {
	c := ngl.Create()
	cfg := newOffscreenConfig()
	if err := c.Configure(cfg); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	buf := make([]byte, cfg.Width*cfg.Height*4)
	if err := c.SetCaptureBuffer(buf); err != nil {
		t.Fatalf("SetCaptureBuffer: %v", err)
	}
	if err := c.PrepareDraw(0); err != nil {
		t.Fatal(err)
	}
	if err := c.Draw(0); err != nil {
		t.Fatalf("Draw with capture buffer set: %v", err)
	}

	// Disabling the capture buffer (scenario F) must not error on a
	// subsequent frame.
	if err := c.SetCaptureBuffer(nil); err != nil {
		t.Fatalf("SetCaptureBuffer(nil): %v", err)
	}
	if err := c.PrepareDraw(1); err != nil {
		t.Fatal(err)
	}
	if err := c.Draw(1); err != nil {
		t.Fatalf("Draw after disabling capture buffer: %v", err)
	}

	c.Reset(ngl.ResetAll)
}

func TestContextResetScene(t *testing.T) {
	c := ngl.Create()
	if err := c.Configure(newOffscreenConfig()); err != nil {
		t.Fatal(err)
	}

	var released int
	leaf := scene.NewNode(&scene.Class{
		Name:     "tracked",
		Category: scene.CategoryRender,
		Release:  func(n *scene.Node) { released++ },
	}, "", nil)
	root := scene.Group("root", leaf)

	if err := c.SetScene(root); err != nil {
		t.Fatal(err)
	}
	if err := c.PrepareDraw(0); err != nil {
		t.Fatal(err)
	}
	if released != 0 {
		t.Fatalf("released = %d before Reset, want 0", released)
	}

	c.Reset(ngl.ResetScene)
	if released != 1 {
		t.Errorf("released = %d after ResetScene, want 1", released)
	}

	c.Reset(ngl.ResetAll)
}
