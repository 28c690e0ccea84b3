// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu_test

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
)

func TestBindGroupLayoutCompatible(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)
	dev := ctx.Device()

	textures := []gpu.BindGroupLayoutEntry{
		{Type: gpu.DTexture, Binding: 0, Access: gpu.AccessRead, Stages: gpu.SFragment},
		{Type: gpu.DSampler, Binding: 1, Access: gpu.AccessRead, Stages: gpu.SFragment},
	}
	buffers := []gpu.BindGroupLayoutEntry{
		{Type: gpu.DConstant, Binding: 2, Access: gpu.AccessRead, Stages: gpu.SVertex | gpu.SFragment},
	}

	a, err := gpu.NewBindGroupLayout(dev, textures, buffers)
	if err != nil {
		t.Fatal(err)
	}
	b, err := gpu.NewBindGroupLayout(dev, textures, buffers)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Compatible(b) {
		t.Error("two layouts with identical entries must be compatible")
	}

	shifted := append([]gpu.BindGroupLayoutEntry(nil), buffers...)
	shifted[0].Binding = 3
	c, err := gpu.NewBindGroupLayout(dev, textures, shifted)
	if err != nil {
		t.Fatal(err)
	}
	if a.Compatible(c) {
		t.Error("layouts with different bindings must not be compatible")
	}

	written := append([]gpu.BindGroupLayoutEntry(nil), buffers...)
	written[0].Type = gpu.DBuffer
	written[0].Access = gpu.AccessReadWrite
	d, err := gpu.NewBindGroupLayout(dev, textures, written)
	if err != nil {
		t.Fatal(err)
	}
	if a.Compatible(d) {
		t.Error("layouts with different type/access must not be compatible")
	}

	a.Destroy()
	b.Destroy()
	c.Destroy()
	d.Destroy()
}

func TestBindGroupLayoutDynamicBudget(t *testing.T) {
	ctx := newTestContext(t, 1)
	defer ctx.Reset(gpu.ResetAll)
	dev := ctx.Device()

	uniforms := make([]gpu.BindGroupLayoutEntry, gpu.MaxDynamicUniform+1)
	for i := range uniforms {
		uniforms[i] = gpu.BindGroupLayoutEntry{Type: gpu.DConstant, Binding: i, Stages: gpu.SVertex, Dynamic: true}
	}
	if _, err := gpu.NewBindGroupLayout(dev, nil, uniforms); err == nil {
		t.Errorf("%d dynamic uniform bindings: want error, budget is %d", len(uniforms), gpu.MaxDynamicUniform)
	}

	storage := make([]gpu.BindGroupLayoutEntry, gpu.MaxDynamicStorage+1)
	for i := range storage {
		storage[i] = gpu.BindGroupLayoutEntry{Type: gpu.DBuffer, Binding: i, Stages: gpu.SCompute, Dynamic: true}
	}
	if _, err := gpu.NewBindGroupLayout(dev, nil, storage); err == nil {
		t.Errorf("%d dynamic storage bindings: want error, budget is %d", len(storage), gpu.MaxDynamicStorage)
	}

	within, err := gpu.NewBindGroupLayout(dev, nil, uniforms[:gpu.MaxDynamicUniform])
	if err != nil {
		t.Fatalf("%d dynamic uniform bindings: %v", gpu.MaxDynamicUniform, err)
	}
	if n := within.NbDynamicOffsets(); n != gpu.MaxDynamicUniform {
		t.Errorf("NbDynamicOffsets = %d, want %d", n, gpu.MaxDynamicUniform)
	}
	within.Destroy()
}
