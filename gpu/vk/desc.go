// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vkc "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
)

// descHeap wraps a real VkDescriptorSetLayout/VkDescriptorPool
// pair. Unlike the GL backend, which records bindings as plain
// Go slices and issues bind calls lazily, Vulkan descriptor
// sets are real objects: New allocates cpyN sets up front and
// SetBuffer/SetTexture/SetSampler call vkUpdateDescriptorSets
// immediately.
//
// Buffer descriptors (DBuffer, DConstant) are always declared
// dynamic (DescriptorTypeStorageBufferDynamic/
// UniformBufferDynamic), matching the GL backend's isDynamic
// policy of treating every buffer descriptor as a dynamic-
// offset candidate consumed in declaration order by
// Context.SetBindGroup.
type descHeap struct {
	dev    *device
	descs  []gpu.Descriptor
	layout vkc.DescriptorSetLayout
	pool   vkc.DescriptorPool
	sets   []vkc.DescriptorSet
}

func descTypeVK(t gpu.DescType) vkc.DescriptorType {
	switch t {
	case gpu.DBuffer:
		return vkc.DescriptorTypeStorageBufferDynamic
	case gpu.DConstant:
		return vkc.DescriptorTypeUniformBufferDynamic
	case gpu.DImage:
		return vkc.DescriptorTypeStorageImage
	case gpu.DTexture:
		return vkc.DescriptorTypeSampledImage
	case gpu.DSampler:
		return vkc.DescriptorTypeSampler
	default:
		return vkc.DescriptorTypeStorageBufferDynamic
	}
}

func (d *device) NewDescHeap(ds []gpu.Descriptor) (gpu.DescHeap, error) {
	bindings := make([]vkc.DescriptorSetLayoutBinding, len(ds))
	for i, desc := range ds {
		n := desc.Len
		if n < 1 {
			n = 1
		}
		bindings[i] = vkc.DescriptorSetLayoutBinding{
			Binding:         uint32(desc.Nr),
			DescriptorType:  descTypeVK(desc.Type),
			DescriptorCount: uint32(n),
			StageFlags:      vkc.ShaderStageFlags(stageBits(desc.Stages)),
		}
	}
	ci := vkc.DescriptorSetLayoutCreateInfo{
		SType:        vkc.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vkc.DescriptorSetLayout
	if err := chk(vkc.CreateDescriptorSetLayout(d.dev, &ci, nil, &layout)); err != nil {
		return nil, gpu.NewError("new_desc_heap", gpu.External, err)
	}
	return &descHeap{dev: d, descs: append([]gpu.Descriptor(nil), ds...), layout: layout}, nil
}

func (h *descHeap) New(n int) error {
	if h.pool != vkc.NullDescriptorPool {
		vkc.DestroyDescriptorPool(h.dev.dev, h.pool, nil)
		h.pool = vkc.NullDescriptorPool
		h.sets = nil
	}
	if n <= 0 {
		return nil
	}
	sizes := make([]vkc.DescriptorPoolSize, 0, 5)
	counts := map[vkc.DescriptorType]uint32{}
	for _, desc := range h.descs {
		c := desc.Len
		if c < 1 {
			c = 1
		}
		counts[descTypeVK(desc.Type)] += uint32(c) * uint32(n)
	}
	for t, c := range counts {
		sizes = append(sizes, vkc.DescriptorPoolSize{Type: t, DescriptorCount: c})
	}
	poolCI := vkc.DescriptorPoolCreateInfo{
		SType:         vkc.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(n),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	if err := chk(vkc.CreateDescriptorPool(h.dev.dev, &poolCI, nil, &h.pool)); err != nil {
		return gpu.NewError("desc_heap_new", gpu.External, err)
	}
	layouts := make([]vkc.DescriptorSetLayout, n)
	for i := range layouts {
		layouts[i] = h.layout
	}
	allocInfo := vkc.DescriptorSetAllocateInfo{
		SType:              vkc.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     h.pool,
		DescriptorSetCount: uint32(n),
		PSetLayouts:        layouts,
	}
	h.sets = make([]vkc.DescriptorSet, n)
	if err := chk(vkc.AllocateDescriptorSets(h.dev.dev, &allocInfo, &h.sets[0])); err != nil {
		return gpu.NewError("desc_heap_new", gpu.External, err)
	}
	return nil
}

func (h *descHeap) descAt(nr int) (gpu.Descriptor, int) {
	for i, d := range h.descs {
		if d.Nr == nr {
			return d, i
		}
	}
	return gpu.Descriptor{}, -1
}

func (h *descHeap) SetBuffer(cpy, nr, start int, buf []gpu.Buffer, off, size []int64) {
	if cpy >= len(h.sets) {
		return
	}
	desc, _ := h.descAt(nr)
	writes := make([]vkc.WriteDescriptorSet, 0, len(buf))
	infos := make([]vkc.DescriptorBufferInfo, len(buf))
	for i := range buf {
		b, _ := buf[i].(*buffer)
		if b == nil {
			continue
		}
		infos[i] = vkc.DescriptorBufferInfo{Buffer: b.handle, Offset: vkc.DeviceSize(off[i]), Range: vkc.DeviceSize(size[i])}
		writes = append(writes, vkc.WriteDescriptorSet{
			SType:           vkc.StructureTypeWriteDescriptorSet,
			DstSet:          h.sets[cpy],
			DstBinding:      uint32(nr),
			DstArrayElement: uint32(start + i),
			DescriptorCount: 1,
			DescriptorType:  descTypeVK(desc.Type),
			PBufferInfo:     []vkc.DescriptorBufferInfo{infos[i]},
		})
	}
	if len(writes) > 0 {
		vkc.UpdateDescriptorSets(h.dev.dev, uint32(len(writes)), writes, 0, nil)
	}
}

func (h *descHeap) SetTexture(cpy, nr, start int, iv []gpu.TextureView) {
	if cpy >= len(h.sets) {
		return
	}
	desc, _ := h.descAt(nr)
	layout := vkc.ImageLayoutShaderReadOnlyOptimal
	if desc.Type == gpu.DImage {
		layout = vkc.ImageLayoutGeneral
	}
	writes := make([]vkc.WriteDescriptorSet, 0, len(iv))
	for i, v := range iv {
		tv, _ := v.(*textureView)
		if tv == nil {
			continue
		}
		info := vkc.DescriptorImageInfo{ImageView: tv.handle, ImageLayout: layout}
		writes = append(writes, vkc.WriteDescriptorSet{
			SType:           vkc.StructureTypeWriteDescriptorSet,
			DstSet:          h.sets[cpy],
			DstBinding:      uint32(nr),
			DstArrayElement: uint32(start + i),
			DescriptorCount: 1,
			DescriptorType:  descTypeVK(desc.Type),
			PImageInfo:      []vkc.DescriptorImageInfo{info},
		})
	}
	if len(writes) > 0 {
		vkc.UpdateDescriptorSets(h.dev.dev, uint32(len(writes)), writes, 0, nil)
	}
}

func (h *descHeap) SetSampler(cpy, nr, start int, splr []gpu.Sampler) {
	if cpy >= len(h.sets) {
		return
	}
	writes := make([]vkc.WriteDescriptorSet, 0, len(splr))
	for i, s := range splr {
		sm, _ := s.(*sampler)
		if sm == nil {
			continue
		}
		info := vkc.DescriptorImageInfo{Sampler: sm.handle}
		writes = append(writes, vkc.WriteDescriptorSet{
			SType:           vkc.StructureTypeWriteDescriptorSet,
			DstSet:          h.sets[cpy],
			DstBinding:      uint32(nr),
			DstArrayElement: uint32(start + i),
			DescriptorCount: 1,
			DescriptorType:  vkc.DescriptorTypeSampler,
			PImageInfo:      []vkc.DescriptorImageInfo{info},
		})
	}
	if len(writes) > 0 {
		vkc.UpdateDescriptorSets(h.dev.dev, uint32(len(writes)), writes, 0, nil)
	}
}

func (h *descHeap) Count() int { return len(h.sets) }

func (h *descHeap) Destroy() {
	if h.pool != vkc.NullDescriptorPool {
		vkc.DestroyDescriptorPool(h.dev.dev, h.pool, nil)
		h.pool = vkc.NullDescriptorPool
	}
	if h.layout != vkc.NullDescriptorSetLayout {
		vkc.DestroyDescriptorSetLayout(h.dev.dev, h.layout, nil)
		h.layout = vkc.NullDescriptorSetLayout
	}
}

// descTable groups the heaps bound together for a pipeline, one
// VkDescriptorSet per heap, set index equal to heap index, the
// same convention gpu.NewBindGroupLayout establishes for the GL
// backend's descTable.
type descTable struct {
	heaps  []gpu.DescHeap
	layout vkc.PipelineLayout
}

func (d *device) NewDescTable(dh []gpu.DescHeap) (gpu.DescTable, error) {
	layouts := make([]vkc.DescriptorSetLayout, len(dh))
	for i, h := range dh {
		if hh, ok := h.(*descHeap); ok {
			layouts[i] = hh.layout
		}
	}
	ci := vkc.PipelineLayoutCreateInfo{
		SType:          vkc.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(layouts)),
		PSetLayouts:    layouts,
	}
	var pl vkc.PipelineLayout
	if err := chk(vkc.CreatePipelineLayout(d.dev, &ci, nil, &pl)); err != nil {
		return nil, gpu.NewError("new_desc_table", gpu.External, err)
	}
	return &descTable{heaps: append([]gpu.DescHeap(nil), dh...), layout: pl}, nil
}

func (t *descTable) Destroy() {
	// Releases nothing: pipeline.go keeps t.layout in every
	// pipeline built from this table, and no other code in
	// this backend destroys it either.
}

// bindSets collects the VkDescriptorSet of heap copy 0 from
// every heap in table, in heap order, for vkCmdBindDescriptorSets.
func bindSets(table *descTable) []vkc.DescriptorSet {
	if table == nil {
		return nil
	}
	sets := make([]vkc.DescriptorSet, 0, len(table.heaps))
	for _, dh := range table.heaps {
		if h, ok := dh.(*descHeap); ok && len(h.sets) > 0 {
			sets = append(sets, h.sets[0])
		}
	}
	return sets
}
