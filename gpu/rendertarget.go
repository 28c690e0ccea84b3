// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

// ColorLayout describes one color attachment slot of a
// RenderTargetLayout.
type ColorLayout struct {
	Format  PixelFmt
	Resolve bool
}

// DSLayout describes the depth/stencil attachment slot of
// a RenderTargetLayout.
type DSLayout struct {
	Format  PixelFmt
	Resolve bool
}

// RenderTargetLayout is a descriptor-only value describing
// the shape of a render target: sample count, the ordered
// list of color attachment formats and whether each is
// resolved, and an optional depth/stencil format.
// A Pipeline is created against a RenderTargetLayout; the
// RenderTarget it is later bound into must be Compatible.
type RenderTargetLayout struct {
	Samples int
	Colors  []ColorLayout
	DS      *DSLayout
}

// Compatible reports whether a and b are compatible, i.e.
// whether a Pipeline created against a can draw into a
// RenderTarget built from b. Two layouts are compatible iff
// all fields are elementwise equal.
func (a RenderTargetLayout) Compatible(b RenderTargetLayout) bool {
	if a.Samples != b.Samples || len(a.Colors) != len(b.Colors) {
		return false
	}
	for i := range a.Colors {
		if a.Colors[i] != b.Colors[i] {
			return false
		}
	}
	switch {
	case a.DS == nil && b.DS == nil:
		return true
	case a.DS == nil || b.DS == nil:
		return false
	default:
		return *a.DS == *b.DS
	}
}

// ColorAttachment describes one live color render target.
type ColorAttachment struct {
	View         TextureView
	Layer        int
	Resolve      TextureView
	ResolveLayer int
	Load         LoadOp
	Clear        [4]float32
	Store        StoreOp
}

// DSAttachment describes the live depth/stencil render
// target.
type DSAttachment struct {
	View         TextureView
	Layer        int
	Load         [2]LoadOp
	ClearDepth   float32
	ClearStencil uint32
	Store        [2]StoreOp
}

// RenderTargetDesc is the full attachment set used to build
// a RenderTarget.
type RenderTargetDesc struct {
	Width, Height int
	Layout        RenderTargetLayout
	Colors        []ColorAttachment
	DS            *DSAttachment
}

// RenderTarget is the live render target object: a built
// RenderPass/Framebuf pair plus the clear values needed to
// begin a render pass into it.
// Load and store operations are frozen at build time. When
// the runtime needs to resume an interrupted pass, it asks
// for a second RenderTarget sharing the same attachments but
// with color/depth load ops switched to LLoad (see Resume).
type RenderTarget struct {
	Width, Height int
	Layout        RenderTargetLayout
	Pass          RenderPass
	FB            Framebuf
	Clear         []ClearValue

	desc RenderTargetDesc
	dev  GPU
}

// NewRenderTarget builds the RenderPass and Framebuf for
// desc on dev.
func NewRenderTarget(dev GPU, desc RenderTargetDesc) (*RenderTarget, error) {
	att := make([]Attachment, 0, len(desc.Colors)+2)
	views := make([]TextureView, 0, len(desc.Colors)+2)
	clear := make([]ClearValue, 0, len(desc.Colors)+1)
	colorIdx := make([]int, len(desc.Colors))
	msrIdx := make([]int, 0, len(desc.Colors))

	for i, c := range desc.Colors {
		colorIdx[i] = len(att)
		att = append(att, Attachment{
			Format:  desc.Layout.Colors[i].Format,
			Samples: desc.Layout.Samples,
			Load:    [2]LoadOp{c.Load, LDontCare},
			Store:   [2]StoreOp{c.Store, SDontCare},
		})
		views = append(views, c.View)
		clear = append(clear, ClearValue{Color: c.Clear})
		if desc.Layout.Colors[i].Resolve {
			msrIdx = append(msrIdx, len(att))
			att = append(att, Attachment{
				Format:  desc.Layout.Colors[i].Format,
				Samples: 1,
				Load:    [2]LoadOp{LDontCare, LDontCare},
				Store:   [2]StoreOp{c.Store, SDontCare},
			})
			views = append(views, c.Resolve)
		}
	}

	dsIdx := -1
	if desc.DS != nil {
		dsIdx = len(att)
		att = append(att, Attachment{
			Format:  desc.Layout.DS.Format,
			Samples: desc.Layout.Samples,
			Load:    desc.DS.Load,
			Store:   desc.DS.Store,
		})
		views = append(views, desc.DS.View)
		clear = append(clear, ClearValue{Depth: desc.DS.ClearDepth, Stencil: desc.DS.ClearStencil})
	}

	sub := []Subpass{{Color: colorIdx, DS: dsIdx, MSR: msrIdx}}
	pass, err := dev.NewRenderPass(att, sub)
	if err != nil {
		return nil, err
	}
	fb, err := pass.NewFB(views, desc.Width, desc.Height, 1)
	if err != nil {
		pass.Destroy()
		return nil, err
	}
	return &RenderTarget{
		Width: desc.Width, Height: desc.Height,
		Layout: desc.Layout, Pass: pass, FB: fb, Clear: clear,
		desc: desc, dev: dev,
	}, nil
}

// Destroy destroys the render target's framebuffer and
// render pass.
func (rt *RenderTarget) Destroy() {
	if rt.FB != nil {
		rt.FB.Destroy()
		rt.FB = nil
	}
	if rt.Pass != nil {
		rt.Pass.Destroy()
		rt.Pass = nil
	}
}

// Resume builds the companion RenderTarget used to resume a
// pass that this one's owner had to interrupt: same
// attachments, but load ops switched to LLoad so that
// existing contents are preserved. If onlyOnce is true and
// the depth attachment is engine-owned (DS.Store is
// SDontCare already in rt.desc), the depth store op remains
// DONT_CARE, matching the single-interruption fast path
// described for render-to-texture nesting.
func (rt *RenderTarget) Resume(onlyOnce bool) (*RenderTarget, error) {
	d := rt.desc
	d.Colors = append([]ColorAttachment(nil), d.Colors...)
	for i := range d.Colors {
		d.Colors[i].Load = LLoad
	}
	if d.DS != nil {
		ds := *d.DS
		ds.Load = [2]LoadOp{LLoad, LLoad}
		if !onlyOnce {
			ds.Store = [2]StoreOp{SStore, SStore}
		}
		d.DS = &ds
	}
	return NewRenderTarget(rt.dev, d)
}
