// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nope-engine/ngl/gpu"
)

func newTestContext(t *testing.T, samples int) *gpu.Context {
	t.Helper()
	ctx, err := gpu.Create(gpu.Config{
		Backend:   gpu.OpenGL,
		Offscreen: true,
		Width:     4,
		Height:    4,
		Samples:   samples,
	})
	if err != nil {
		t.Fatalf("gpu.Create: %v", err)
	}
	if err := ctx.Init(); err != nil {
		t.Fatalf("Context.Init: %v", err)
	}
	return ctx
}

func newTestPipeline(t *testing.T, ctx *gpu.Context, rtl gpu.RenderTargetLayout, layout *gpu.BindGroupLayout, nbuf int) *gpu.Pipeline {
	t.Helper()
	dev := ctx.Device()
	vert, err := dev.NewShaderCode([]byte("vert"))
	if err != nil {
		t.Fatal(err)
	}
	frag, err := dev.NewShaderCode([]byte("frag"))
	if err != nil {
		t.Fatal(err)
	}
	var vbl []gpu.VertexBufferLayout
	for i := 0; i < nbuf; i++ {
		vbl = append(vbl, gpu.VertexBufferLayout{
			Stride: 8,
			Attrs:  []gpu.VertexAttr{{Location: i, Format: gpu.Float32x2}},
		})
	}
	p, err := gpu.NewPipeline(dev, gpu.PipelineDesc{
		Type:     gpu.Graphics,
		Topology: gpu.TTriangle,
		RTLayout: rtl,
		Vertex:   vbl,
		Program:  gpu.NewGraphicsProgram(vert, frag),
		Layout:   layout,
	})
	if err != nil {
		t.Fatalf("gpu.NewPipeline: %v", err)
	}
	return p
}

func newTestBindGroup(t *testing.T, ctx *gpu.Context, buffers []gpu.BindGroupLayoutEntry) (*gpu.BindGroupLayout, *gpu.BindGroup) {
	t.Helper()
	layout, err := gpu.NewBindGroupLayout(ctx.Device(), nil, buffers)
	if err != nil {
		t.Fatalf("gpu.NewBindGroupLayout: %v", err)
	}
	bg, err := gpu.NewBindGroup(layout)
	if err != nil {
		t.Fatalf("gpu.NewBindGroup: %v", err)
	}
	return layout, bg
}

func wantCode(t *testing.T, err error, code gpu.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error with code %v, got nil", code)
	}
	var gerr *gpu.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("want *gpu.Error, got %T: %v", err, err)
	}
	if gerr.Code != code {
		t.Fatalf("error code = %v, want %v", gerr.Code, code)
	}
}

// TestCreateUnsupportedBackend requests a backend that was never
// registered; only the fake test driver (named after OpenGL) is
// compiled into the test binary.
func TestCreateUnsupportedBackend(t *testing.T) {
	_, err := gpu.Create(gpu.Config{Backend: gpu.Vulkan})
	wantCode(t, err, gpu.Unsupported)
}

func TestRenderPassBalance(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)

	if err := ctx.BeginDraw(0); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndRenderPass(); err == nil {
		t.Error("EndRenderPass with no pass open: want error")
	}
	if err := ctx.BeginRenderPass(nil); err == nil {
		t.Error("BeginRenderPass(nil): want error")
	}
	if err := ctx.BeginRenderPass(ctx.GetDefaultRenderTarget(gpu.LClear)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.BeginRenderPass(ctx.GetDefaultRenderTarget(gpu.LLoad)); err == nil {
		t.Error("BeginRenderPass while a pass is open: want error, passes must not overlap")
	}
	if err := ctx.EndRenderPass(); err != nil {
		t.Fatal(err)
	}
	if ctx.PassOpen() {
		t.Error("PassOpen after EndRenderPass: want false")
	}
	if err := ctx.EndDraw(0); err != nil {
		t.Fatal(err)
	}
}

func TestSetPipelineLayoutCompatibility(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)

	good := newTestPipeline(t, ctx, ctx.DefaultRenderTargetLayout(), nil, 0)
	bad := newTestPipeline(t, ctx, gpu.RenderTargetLayout{
		Samples: 1,
		Colors:  []gpu.ColorLayout{{Format: gpu.RGBA16f}},
	}, nil, 0)

	if err := ctx.BeginDraw(0); err != nil {
		t.Fatal(err)
	}
	if err := ctx.BeginRenderPass(ctx.GetDefaultRenderTarget(gpu.LClear)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetPipeline(good); err != nil {
		t.Errorf("SetPipeline with the render target's own layout: %v", err)
	}
	if err := ctx.SetPipeline(bad); err == nil {
		t.Error("SetPipeline with a mismatched render target layout: want error")
	}
	if err := ctx.EndRenderPass(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndDraw(0); err != nil {
		t.Fatal(err)
	}
}

func TestSetBindGroupDynamicOffsetCount(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)

	layout, bg := newTestBindGroup(t, ctx, []gpu.BindGroupLayoutEntry{
		{Type: gpu.DConstant, Binding: 0, Stages: gpu.SVertex, Dynamic: true},
	})
	if n := layout.NbDynamicOffsets(); n != 1 {
		t.Fatalf("NbDynamicOffsets = %d, want 1", n)
	}
	p := newTestPipeline(t, ctx, ctx.DefaultRenderTargetLayout(), layout, 0)

	if err := ctx.BeginDraw(0); err != nil {
		t.Fatal(err)
	}
	if err := ctx.BeginRenderPass(ctx.GetDefaultRenderTarget(gpu.LClear)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetPipeline(p); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetBindGroup(bg, nil); err == nil {
		t.Error("SetBindGroup with 0 offsets for a 1-dynamic layout: want error")
	}
	if err := ctx.SetBindGroup(bg, []int{256}); err != nil {
		t.Errorf("SetBindGroup with matching offset count: %v", err)
	}
	if err := ctx.EndRenderPass(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndDraw(0); err != nil {
		t.Fatal(err)
	}
}

// TestDrawRequiresVertexBuffers draws with a pipeline whose vertex
// state references a buffer slot that was never bound.
func TestDrawRequiresVertexBuffers(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)

	layout, bg := newTestBindGroup(t, ctx, nil)
	p := newTestPipeline(t, ctx, ctx.DefaultRenderTargetLayout(), layout, 1)
	buf, err := ctx.Device().NewBuffer(64, true, gpu.UVertexData)
	if err != nil {
		t.Fatal(err)
	}

	if err := ctx.BeginDraw(0); err != nil {
		t.Fatal(err)
	}
	if err := ctx.BeginRenderPass(ctx.GetDefaultRenderTarget(gpu.LClear)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetPipeline(p); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetBindGroup(bg, nil); err != nil {
		t.Fatal(err)
	}
	wantCode(t, ctx.Draw(3, 1), gpu.InvalidUsage)

	ctx.SetVertexBuffer(0, buf, 0)
	if err := ctx.Draw(3, 1); err != nil {
		t.Errorf("Draw with all vertex buffers bound: %v", err)
	}
	if err := ctx.EndRenderPass(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndDraw(0); err != nil {
		t.Fatal(err)
	}
}

func TestResizeOffscreenInvalidUsage(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)
	wantCode(t, ctx.Resize(8, 8, nil), gpu.InvalidUsage)
}

func TestDefaultRenderTargetVariants(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)

	clear := ctx.GetDefaultRenderTarget(gpu.LClear)
	load := ctx.GetDefaultRenderTarget(gpu.LLoad)
	if clear == nil || load == nil {
		t.Fatal("default render targets not built")
	}
	if clear == load {
		t.Error("LClear and LLoad variants are the same object")
	}
	if !clear.Layout.Compatible(load.Layout) {
		t.Error("the two default render target variants must share one layout")
	}
}

// TestDefaultRenderTargetMSAALayout checks that a multisampled
// offscreen context reports a resolved color attachment, so that
// pipelines built against DefaultRenderTargetLayout stay compatible.
func TestDefaultRenderTargetMSAALayout(t *testing.T) {
	ctx := newTestContext(t, 4)
	defer ctx.Reset(gpu.ResetAll)

	l := ctx.DefaultRenderTargetLayout()
	if l.Samples != 4 {
		t.Errorf("Samples = %d, want 4", l.Samples)
	}
	if len(l.Colors) != 1 || !l.Colors[0].Resolve {
		t.Errorf("Colors = %+v, want one resolved RGBA8un attachment", l.Colors)
	}
}

// TestCopyRoundTrip uploads tightly-packed pixel data into a texture
// and reads it back, byte for byte.
func TestCopyRoundTrip(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)
	dev := ctx.Device()

	const w, h = 4, 4
	src, err := dev.NewBuffer(4*w*h, true, gpu.UShaderRead)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := dev.NewBuffer(4*w*h, true, gpu.UShaderRead)
	if err != nil {
		t.Fatal(err)
	}
	tex, err := dev.NewTexture(gpu.RGBA8un, gpu.Dim3D{Width: w, Height: h, Depth: 1}, 1, 1, 1, gpu.UShaderSample|gpu.UShaderRead)
	if err != nil {
		t.Fatal(err)
	}
	data := src.Bytes()
	for i := range data {
		data[i] = byte(i)
	}

	cb, err := dev.NewCmdBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatal(err)
	}
	cb.BeginBlit(false)
	cb.CopyBufToImg(&gpu.BufImgCopy{
		Buf: src, Stride: [2]int64{w, h}, Img: tex,
		Size: gpu.Dim3D{Width: w, Height: h, Depth: 1},
	})
	cb.CopyImgToBuf(&gpu.BufImgCopy{
		Buf: dst, Stride: [2]int64{w, h}, Img: tex,
		Size: gpu.Dim3D{Width: w, Height: h, Depth: 1},
	})
	cb.EndBlit()
	if err := cb.End(); err != nil {
		t.Fatal(err)
	}
	ch := make(chan error, 1)
	dev.Commit([]gpu.CmdBuffer{cb}, ch)
	if err := <-ch; err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(dst.Bytes(), data) {
		t.Error("download after upload is not byte-identical")
	}
}
