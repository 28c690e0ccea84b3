// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/media"
)

// TextureOpts configures a Texture node. Exactly one of the two modes
// applies: if Media is non-nil, the texture samples the frame of an
// upstream Media node through the hwmap strategy table; otherwise it
// is a plain sized/format-backed texture.
type TextureOpts struct {
	Format   gpu.PixelFmt
	Width    int
	Height   int
	Depth    int
	Layers   int
	Levels   int
	Samples  int
	Usage    gpu.Usage
	Sampling gpu.Sampling

	// Media, if set, selects the hwmap path: the node's backing
	// texture tracks that Media node's decoded Source instead of
	// being separately allocated.
	Media *Node

	// Wrapped, if non-nil, adopts an externally-created backend
	// texture. Upload/mipmap generation are forbidden on it and
	// its destroy must not release the underlying handle.
	Wrapped gpu.Texture
}

type texturePriv struct {
	tex      gpu.Texture
	view     gpu.TextureView
	sampler  gpu.Sampler
	wrapped  bool
	strategy media.Strategy
	backend  gpu.Backend
	coordMat [3][3]float32
}

// Texture builds a node of category Texture. A Texture referencing a
// Media is single-parent: Prepare fails with InvalidUsage if a second
// parent references the same Media node.
func Texture(label string, opts TextureOpts) *Node {
	n := NewNode(classTexture, label, opts)
	if opts.Media != nil {
		n.AddChild(opts.Media)
	}
	return n
}

// CoordMatrix returns the per-frame 3x3 coordinate-correction matrix
// folding in the source crop-rect and flip, valid once the
// node has been activated at least once.
func (n *Node) CoordMatrix() [3][3]float32 {
	priv, _ := n.Priv.(*texturePriv)
	if priv == nil {
		var identity [3][3]float32
		identity[0][0], identity[1][1], identity[2][2] = 1, 1, 1
		return identity
	}
	return priv.coordMat
}

// backendOf recovers the Backend tag a GPU device was opened with, by
// matching its Driver's name against the registry's naming
// convention (gpu.Backend.String). It defaults to OpenGL if the name
// matches no Backend; gpu/gputest's fake driver reports the OpenGL
// name and so maps to OpenGL by the match.
func backendOf(dev gpu.GPU) gpu.Backend {
	name := dev.Driver().Name()
	for _, b := range []gpu.Backend{gpu.OpenGL, gpu.OpenGLES, gpu.Vulkan} {
		if b.String() == name {
			return b
		}
	}
	return gpu.OpenGL
}

var classTexture = &Class{
	Name:     "Texture",
	Category: CategoryTexture,

	Prepare: func(n *Node, dev gpu.GPU, rt gpu.RenderTargetLayout) error {
		opts := n.Opts.(TextureOpts)
		if opts.Media != nil && len(opts.Media.Parents()) > 1 {
			return gpu.NewError("prepare", gpu.InvalidUsage, nil)
		}
		if opts.Media != nil {
			return opts.Media.Prepare(dev, rt)
		}
		return nil
	},

	Prefetch: func(n *Node, dev gpu.GPU) error {
		opts := n.Opts.(TextureOpts)
		priv := &texturePriv{}
		n.Priv = priv

		if opts.Wrapped != nil {
			priv.tex = opts.Wrapped
			priv.wrapped = true
			view, err := priv.tex.NewView(gpu.IView2D, 0, 1, 0, 1)
			if err != nil {
				return err
			}
			priv.view = view
			priv.coordMat[0][0], priv.coordMat[1][1], priv.coordMat[2][2] = 1, 1, 1
			return nil
		}

		if opts.Media != nil {
			priv.backend = backendOf(dev)
			if err := opts.Media.Activate(); err != nil {
				return err
			}
			return nil
		}

		layers, levels, samples := opts.Layers, opts.Levels, opts.Samples
		if layers < 1 {
			layers = 1
		}
		if levels < 1 {
			levels = 1
		}
		if samples < 1 {
			samples = 1
		}
		tex, err := dev.NewTexture(opts.Format, gpu.Dim3D{Width: opts.Width, Height: opts.Height, Depth: opts.Depth}, layers, levels, samples, opts.Usage)
		if err != nil {
			return err
		}
		priv.tex = tex
		view, err := tex.NewView(gpu.IView2D, 0, layers, 0, levels)
		if err != nil {
			tex.Destroy()
			return err
		}
		priv.view = view
		splr, err := dev.NewSampler(&opts.Sampling)
		if err != nil {
			view.Destroy()
			tex.Destroy()
			return err
		}
		priv.sampler = splr
		priv.coordMat[0][0], priv.coordMat[1][1], priv.coordMat[2][2] = 1, 1, 1
		return nil
	},

	Update: func(n *Node, t float64) error {
		opts := n.Opts.(TextureOpts)
		if opts.Media == nil {
			return nil
		}
		if err := opts.Media.Update(t); err != nil {
			return err
		}
		if priv, ok := n.Priv.(*texturePriv); ok {
			if f, hasFrame := opts.Media.mediaFrameAt(t); hasFrame {
				strat, ok := media.LookupStrategy(priv.backend, f.Format)
				if ok {
					if priv.strategy == nil {
						if err := strat.Init(n.dev, f); err != nil {
							return err
						}
						priv.strategy = strat
					}
					view, m, err := priv.strategy.MapFrame(n.dev, f)
					if err != nil {
						return err
					}
					priv.view = view
					priv.coordMat = m
				}
			}
		}
		return nil
	},

	Release: func(n *Node) {
		priv, _ := n.Priv.(*texturePriv)
		if priv == nil {
			return
		}
		if priv.strategy != nil {
			priv.strategy.Uninit()
		}
		if !priv.wrapped {
			if priv.sampler != nil {
				priv.sampler.Destroy()
			}
			if priv.view != nil {
				priv.view.Destroy()
			}
			if priv.tex != nil {
				priv.tex.Destroy()
			}
		} else if priv.view != nil {
			priv.view.Destroy()
		}
		opts := n.Opts.(TextureOpts)
		if opts.Media != nil {
			opts.Media.Deactivate()
		}
	},
}
