// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package media

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
	_ "github.com/nope-engine/ngl/gpu/gputest"
)

func TestLookupStrategyCPUFormatsCoverAllBackends(t *testing.T) {
	for _, b := range []gpu.Backend{gpu.OpenGL, gpu.OpenGLES, gpu.Vulkan} {
		for _, f := range []PixelFormat{RGBA, BGRA, NV12, YUV420P} {
			if _, ok := LookupStrategy(b, f); !ok {
				t.Errorf("LookupStrategy(%v, %v) not found, want a staging strategy for every CPU format on every backend", b, f)
			}
		}
	}
}

func TestLookupStrategyOpaqueIsClosedEnumeration(t *testing.T) {
	if _, ok := LookupStrategy(gpu.Vulkan, HWOpaqueVT); ok {
		t.Error("LookupStrategy(Vulkan, HWOpaqueVT): want ok == false, VideoToolbox only maps on OpenGL in this table")
	}
	if _, ok := LookupStrategy(gpu.OpenGL, HWOpaqueVT); !ok {
		t.Error("LookupStrategy(OpenGL, HWOpaqueVT): want ok == true")
	}
}

func TestCoordMatrixCropAndFlip(t *testing.T) {
	f := Frame{
		Width: 100, Height: 50,
		Crop:  Rect{X: 10, Y: 5, Width: 80, Height: 40},
		FlipY: true,
	}
	var m [3][3]float32
	m[0][0], m[1][1], m[2][2] = 1, 1, 1
	coordMatrix(&m, f)

	if m[0][0] != 0.8 {
		t.Errorf("sx = %v, want 0.8", m[0][0])
	}
	if m[1][1] != -0.8 {
		t.Errorf("sy with FlipY = %v, want -0.8", m[1][1])
	}
	if m[2][0] != 0.1 {
		t.Errorf("ox = %v, want 0.1", m[2][0])
	}
}

// TestStagingStrategyMapFrame runs the CPU-format upload path end to
// end against the fake driver: per-plane textures are created at Init
// and MapFrame yields the first plane's view plus the coordinate
// matrix.
func TestStagingStrategyMapFrame(t *testing.T) {
	ctx, err := gpu.Create(gpu.Config{Backend: gpu.OpenGL, Offscreen: true, Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("gpu.Create: %v", err)
	}
	if err := ctx.Init(); err != nil {
		t.Fatalf("Context.Init: %v", err)
	}
	defer ctx.Reset(gpu.ResetAll)
	dev := ctx.Device()

	f := Frame{
		Format: RGBA, Width: 2, Height: 2,
		Data:     [][]byte{{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
		Linesize: []int{8},
	}
	strat, ok := LookupStrategy(gpu.OpenGL, RGBA)
	if !ok {
		t.Fatal("no staging strategy for (OpenGL, RGBA)")
	}
	if err := strat.Init(dev, f); err != nil {
		t.Fatalf("Strategy.Init: %v", err)
	}
	defer strat.Uninit()

	view, m, err := strat.MapFrame(dev, f)
	if err != nil {
		t.Fatalf("Strategy.MapFrame: %v", err)
	}
	if view == nil {
		t.Error("MapFrame returned a nil view for a CPU format")
	}
	if m[0][0] != 1 || m[1][1] != 1 {
		t.Errorf("identity coordinate matrix expected for an uncropped, unflipped frame, got %v", m)
	}
}

// TestPlaneSpecs checks the plane decomposition of each CPU format.
func TestPlaneSpecs(t *testing.T) {
	f := Frame{Width: 6, Height: 4}
	for _, tc := range []struct {
		format PixelFormat
		want   int
	}{
		{RGBA, 1},
		{BGRA, 1},
		{NV12, 2},
		{YUV420P, 3},
	} {
		f.Format = tc.format
		specs := planeSpecs(f)
		if len(specs) != tc.want {
			t.Errorf("%v: %d planes, want %d", tc.format, len(specs), tc.want)
			continue
		}
		if specs[0].width != 6 || specs[0].height != 4 {
			t.Errorf("%v: plane 0 is %dx%d, want full 6x4", tc.format, specs[0].width, specs[0].height)
		}
		for _, s := range specs[1:] {
			if s.width != 3 || s.height != 2 {
				t.Errorf("%v: chroma plane is %dx%d, want half-size 3x2", tc.format, s.width, s.height)
			}
		}
	}
}

func TestPixelFormatOpaque(t *testing.T) {
	for _, f := range []PixelFormat{HWOpaqueVT, HWOpaqueVAAPI, HWOpaqueMediaCodec} {
		if !f.Opaque() {
			t.Errorf("%v.Opaque() = false, want true", f)
		}
	}
	for _, f := range []PixelFormat{RGBA, BGRA, NV12, YUV420P} {
		if f.Opaque() {
			t.Errorf("%v.Opaque() = true, want false", f)
		}
	}
}
