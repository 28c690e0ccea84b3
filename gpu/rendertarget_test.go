// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu_test

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
)

func TestRenderTargetLayoutCompatible(t *testing.T) {
	base := gpu.RenderTargetLayout{
		Samples: 1,
		Colors:  []gpu.ColorLayout{{Format: gpu.RGBA8un}},
		DS:      &gpu.DSLayout{Format: gpu.D16un},
	}

	for _, tc := range []struct {
		name string
		mut  func(l *gpu.RenderTargetLayout)
		want bool
	}{
		{"identical", func(l *gpu.RenderTargetLayout) {}, true},
		{"samples differ", func(l *gpu.RenderTargetLayout) { l.Samples = 4 }, false},
		{"color format differs", func(l *gpu.RenderTargetLayout) { l.Colors[0].Format = gpu.RGBA16f }, false},
		{"resolve flag differs", func(l *gpu.RenderTargetLayout) { l.Colors[0].Resolve = true }, false},
		{"extra color", func(l *gpu.RenderTargetLayout) {
			l.Colors = append(l.Colors, gpu.ColorLayout{Format: gpu.RGBA8un})
		}, false},
		{"ds dropped", func(l *gpu.RenderTargetLayout) { l.DS = nil }, false},
		{"ds format differs", func(l *gpu.RenderTargetLayout) { l.DS = &gpu.DSLayout{Format: gpu.D32f} }, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			other := gpu.RenderTargetLayout{
				Samples: base.Samples,
				Colors:  append([]gpu.ColorLayout(nil), base.Colors...),
				DS:      &gpu.DSLayout{Format: base.DS.Format},
			}
			tc.mut(&other)
			if got := base.Compatible(other); got != tc.want {
				t.Errorf("Compatible = %v, want %v", got, tc.want)
			}
			if got := other.Compatible(base); got != tc.want {
				t.Errorf("Compatible (reversed) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRenderTargetResume(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)
	dev := ctx.Device()

	tex, err := dev.NewTexture(gpu.RGBA8un, gpu.Dim3D{Width: 4, Height: 4, Depth: 1}, 1, 1, 1, gpu.URenderTarget|gpu.UShaderSample)
	if err != nil {
		t.Fatal(err)
	}
	view, err := tex.NewView(gpu.IView2D, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	layout := gpu.RenderTargetLayout{Samples: 1, Colors: []gpu.ColorLayout{{Format: gpu.RGBA8un}}}
	rt, err := gpu.NewRenderTarget(dev, gpu.RenderTargetDesc{
		Width: 4, Height: 4, Layout: layout,
		Colors: []gpu.ColorAttachment{{View: view, Load: gpu.LClear, Store: gpu.SStore}},
	})
	if err != nil {
		t.Fatal(err)
	}

	resume, err := rt.Resume(true)
	if err != nil {
		t.Fatal(err)
	}
	if resume == rt {
		t.Fatal("Resume returned the receiver, want a second render target")
	}
	if !resume.Layout.Compatible(rt.Layout) {
		t.Error("resume variant's layout is not compatible with the original")
	}
	if resume.Pass == nil || resume.FB == nil {
		t.Error("resume variant is missing its pass/framebuffer")
	}

	resume.Destroy()
	rt.Destroy()
	view.Destroy()
	tex.Destroy()
}
