// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
)

func TestGraphicsStateStackMergeOverDefaults(t *testing.T) {
	base := gpu.GraphicsState{Cull: gpu.CBack}
	stack := newGraphicsStateStack(base)

	eff := stack.effective()
	if eff.Cull != gpu.CBack {
		t.Fatalf("empty stack: Cull = %v, want base %v", eff.Cull, gpu.CBack)
	}

	cullFront := gpu.CFront
	stack.push(&GraphicsStateOverride{Cull: &cullFront})
	eff = stack.effective()
	if eff.Cull != gpu.CFront {
		t.Fatalf("after push: Cull = %v, want %v", eff.Cull, gpu.CFront)
	}

	// A nested override that doesn't set Cull must fall through to the
	// entry below it, not to base.
	blend := gpu.BlendState{IndependentBlend: true}
	stack.push(&GraphicsStateOverride{Blend: &blend})
	eff = stack.effective()
	if eff.Cull != gpu.CFront {
		t.Fatalf("nested override without Cull set: Cull = %v, want fallthrough %v", eff.Cull, gpu.CFront)
	}
	if eff.Blend.IndependentBlend != blend.IndependentBlend {
		t.Fatalf("nested override: Blend.IndependentBlend = %v, want %v", eff.Blend.IndependentBlend, blend.IndependentBlend)
	}

	stack.pop()
	stack.pop()
	eff = stack.effective()
	if eff.Cull != gpu.CBack {
		t.Fatalf("after popping both overrides: Cull = %v, want base %v", eff.Cull, gpu.CBack)
	}

	// pushing must never mutate the caller-owned override.
	cullFront2 := gpu.CFront
	o := &GraphicsStateOverride{Cull: &cullFront2}
	stack.push(o)
	stack.effective()
	if o.Blend != nil {
		t.Fatalf("effective() mutated the caller-owned override: Blend = %v, want nil", o.Blend)
	}
	stack.pop()
}
