// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/log"
)

// RenderToTextureOpts configures a RenderToTexture container node: it
// owns one or more output color textures and optionally a depth
// texture, and renders its Child subtree into them.
type RenderToTextureOpts struct {
	Width, Height int
	ColorFormats  []gpu.PixelFmt
	DSFormat      *gpu.PixelFmt
	Samples       int
	ClearColor    [4]float32
	ClearDepth    float32
	ClearStencil  uint32

	// MipmapFilter, when not FNoMipmap, makes Draw call
	// GenerateMipmaps on each output color texture that has such a
	// method, after the subtree is drawn. No texture type in gpu
	// has that method and the color textures are allocated with a
	// single level, so no mip levels are generated.
	MipmapFilter gpu.Filter

	Child *Node
}

type rttPriv struct {
	colorTex  []gpu.Texture
	colorView []gpu.TextureView
	dsTex     gpu.Texture
	dsView    gpu.TextureView

	available [2]*gpu.RenderTarget // [0]=clear (first use), [1]=resume (load)

	interruptions int
}

// RenderToTexture builds a Container node of the render-to-texture
// kind.
func RenderToTexture(label string, opts RenderToTextureOpts) *Node {
	n := NewNode(classRenderToTexture, label, opts)
	if opts.Child != nil {
		n.AddChild(opts.Child)
	}
	return n
}

// countInterruptions walks n's subtree counting nested
// RenderToTexture nodes, each of which splits the parent pass in
// two. The runtime keeps a fast path for at most one interruption;
// scenes exceeding it still render correctly, just without the
// transient/on-chip MSAA and depth optimization.
func countInterruptions(n *Node) int {
	count := 0
	for _, c := range n.Children() {
		if c.Class == classRenderToTexture {
			count++
		}
		count += countInterruptions(c)
	}
	return count
}

var classRenderToTexture = &Class{
	Name:     "RenderToTexture",
	Category: CategoryContainer,

	Prepare: func(n *Node, dev gpu.GPU, parentRT gpu.RenderTargetLayout) error {
		opts := n.Opts.(RenderToTextureOpts)
		priv := &rttPriv{}
		if opts.Child != nil {
			priv.interruptions = countInterruptions(opts.Child)
		}

		layout := gpu.RenderTargetLayout{Samples: max1(opts.Samples)}
		for _, f := range opts.ColorFormats {
			layout.Colors = append(layout.Colors, gpu.ColorLayout{Format: f})
		}
		if opts.DSFormat != nil {
			layout.DS = &gpu.DSLayout{Format: *opts.DSFormat}
		}
		n.Priv = priv
		if opts.Child != nil {
			return opts.Child.Prepare(dev, layout)
		}
		return nil
	},

	Prefetch: func(n *Node, dev gpu.GPU) error {
		opts := n.Opts.(RenderToTextureOpts)
		priv := n.Priv.(*rttPriv)

		samples := max1(opts.Samples)
		usage := gpu.URenderTarget | gpu.UShaderSample | gpu.UShaderRead
		desc := gpu.RenderTargetDesc{Width: opts.Width, Height: opts.Height}
		desc.Layout.Samples = samples

		for _, f := range opts.ColorFormats {
			tex, err := dev.NewTexture(f, gpu.Dim3D{Width: opts.Width, Height: opts.Height, Depth: 1}, 1, 1, samples, usage)
			if err != nil {
				return err
			}
			view, err := tex.NewView(gpu.IView2D, 0, 1, 0, 1)
			if err != nil {
				tex.Destroy()
				return err
			}
			priv.colorTex = append(priv.colorTex, tex)
			priv.colorView = append(priv.colorView, view)
			desc.Layout.Colors = append(desc.Layout.Colors, gpu.ColorLayout{Format: f})
			desc.Colors = append(desc.Colors, gpu.ColorAttachment{
				View: view, Load: gpu.LClear, Clear: opts.ClearColor, Store: gpu.SStore,
			})
		}

		if opts.DSFormat != nil {
			tex, err := dev.NewTexture(*opts.DSFormat, gpu.Dim3D{Width: opts.Width, Height: opts.Height, Depth: 1}, 1, 1, samples, gpu.URenderTarget)
			if err != nil {
				return err
			}
			view, err := tex.NewView(gpu.IView2D, 0, 1, 0, 1)
			if err != nil {
				tex.Destroy()
				return err
			}
			priv.dsTex, priv.dsView = tex, view
			desc.Layout.DS = &gpu.DSLayout{Format: *opts.DSFormat}
			// Engine-owned depth: DONT_CARE store when the pass is
			// interrupted at most once.
			store := gpu.SStore
			if priv.interruptions <= 1 {
				store = gpu.SDontCare
			}
			desc.DS = &gpu.DSAttachment{
				View: view, Load: [2]gpu.LoadOp{gpu.LClear, gpu.LClear},
				ClearDepth: opts.ClearDepth, ClearStencil: opts.ClearStencil,
				Store: [2]gpu.StoreOp{store, store},
			}
		}

		rtClear, err := gpu.NewRenderTarget(dev, desc)
		if err != nil {
			return err
		}
		rtResume, err := rtClear.Resume(priv.interruptions <= 1)
		if err != nil {
			rtClear.Destroy()
			return err
		}
		priv.available[0] = rtClear
		priv.available[1] = rtResume
		return nil
	},

	Update: func(n *Node, t float64) error {
		if n.Gated(t) {
			return n.ActivateSet(nil)
		}
		opts := n.Opts.(RenderToTextureOpts)
		var want []*Node
		if opts.Child != nil {
			if err := opts.Child.Update(t); err != nil {
				return err
			}
			want = append(want, opts.Child)
		}
		return n.ActivateSet(want)
	},

	Draw: func(n *Node, dc *DrawContext) error {
		if !n.Active() {
			return nil
		}
		opts := n.Opts.(RenderToTextureOpts)
		priv := n.Priv.(*rttPriv)

		dc.saveRT()
		if dc.GPU.PassOpen() {
			if err := dc.GPU.EndRenderPass(); err != nil {
				return err
			}
		}

		dc.SetAvailableRenderTargets(priv.available[0], priv.available[1])
		if err := dc.GPU.BeginRenderPass(priv.available[0]); err != nil {
			return err
		}
		if opts.Child != nil {
			if err := dc.DrawChild(opts.Child); err != nil {
				return err
			}
		}
		if dc.GPU.PassOpen() {
			if err := dc.GPU.EndRenderPass(); err != nil {
				return err
			}
		}

		// Resume the caller's pass with its load variant so the
		// interruption does not discard what was already drawn.
		saved := dc.restoreRT()
		if saved.passOpen {
			if rt := dc.ResumeRenderTarget(); rt != nil {
				if err := dc.GPU.BeginRenderPass(rt); err != nil {
					return err
				}
			}
		}

		if opts.MipmapFilter != gpu.FNoMipmap {
			for _, tex := range priv.colorTex {
				if gen, ok := tex.(interface{ GenerateMipmaps() error }); ok {
					if err := gen.GenerateMipmaps(); err != nil {
						log.Warn("mipmap generation failed", "node", n.Label, "err", err)
					}
				}
			}
		}
		return nil
	},

	Release: func(n *Node) {
		priv, ok := n.Priv.(*rttPriv)
		if !ok {
			return
		}
		if priv.available[0] != nil {
			priv.available[0].Destroy()
		}
		if priv.available[1] != nil {
			priv.available[1].Destroy()
		}
		for _, v := range priv.colorView {
			v.Destroy()
		}
		for _, t := range priv.colorTex {
			t.Destroy()
		}
		if priv.dsView != nil {
			priv.dsView.Destroy()
		}
		if priv.dsTex != nil {
			priv.dsTex.Destroy()
		}
		_ = n.ActivateSet(nil)
	},
}
