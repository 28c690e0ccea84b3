// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/media"
)

type fakeSource struct{}

func (fakeSource) FrameAt(t float64) (media.Frame, bool) { return media.Frame{}, false }
func (fakeSource) Close() error                           { return nil }

func TestTextureMediaSingleParent(t *testing.T) {
	m := Media("clip", MediaOpts{Source: fakeSource{}})
	texA := Texture("a", TextureOpts{Media: m})
	_ = Texture("b", TextureOpts{Media: m})

	if len(m.Parents()) != 2 {
		t.Fatalf("Media parent count = %d, want 2", len(m.Parents()))
	}

	err := texA.Prepare(nil, gpu.RenderTargetLayout{})
	if err == nil {
		t.Fatal("Prepare: expected error when a Media node has more than one parent")
	}
}

func TestTextureMediaSingleParentOK(t *testing.T) {
	m := Media("clip", MediaOpts{Source: fakeSource{}})
	tex := Texture("a", TextureOpts{Media: m})

	if err := tex.Prepare(nil, gpu.RenderTargetLayout{}); err != nil {
		t.Fatalf("Prepare: unexpected error for single-parent Media: %v", err)
	}
}
