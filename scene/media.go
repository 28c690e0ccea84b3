// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/media"
)

// MediaOpts configures a Media node: a Source it polls for frames.
type MediaOpts struct {
	Source media.Source
}

type mediaPriv struct {
	last   media.Frame
	hasLast bool
}

// Media builds a node of category Media: it owns a decoder Source
// yielding time-indexed frames. A Media node is single-
// parent; a Texture node referencing it enforces this at Prepare.
func Media(label string, opts MediaOpts) *Node {
	return NewNode(classMedia, label, opts)
}

// mediaFrameAt returns the most recently polled frame, if any.
func (n *Node) mediaFrameAt(t float64) (media.Frame, bool) {
	priv, ok := n.Priv.(*mediaPriv)
	if !ok {
		return media.Frame{}, false
	}
	return priv.last, priv.hasLast
}

var classMedia = &Class{
	Name:     "Media",
	Category: CategoryMedia,

	Prefetch: func(n *Node, dev gpu.GPU) error {
		n.Priv = &mediaPriv{}
		return nil
	},

	Update: func(n *Node, t float64) error {
		opts := n.Opts.(MediaOpts)
		priv, _ := n.Priv.(*mediaPriv)
		if priv == nil || opts.Source == nil {
			return nil
		}
		if f, ok := opts.Source.FrameAt(t); ok {
			priv.last, priv.hasLast = f, true
		}
		return nil
	},

	Release: func(n *Node) {
		opts := n.Opts.(MediaOpts)
		if opts.Source != nil {
			opts.Source.Close()
		}
		n.Priv = nil
	},
}
