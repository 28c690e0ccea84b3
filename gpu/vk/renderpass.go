// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vkc "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
)

// renderPass wraps a real VkRenderPass, translating the
// spec's attachment/subpass model directly: each gpu.Subpass
// becomes a VkSubpassDescription referencing the same
// attachment array by index, the same way asche's context
// builds a single-subpass VkRenderPass from fixed attachment
// descriptions.
type renderPass struct {
	dev    *device
	handle vkc.RenderPass
	att    []gpu.Attachment
	sub    []gpu.Subpass
}

func loadOpVK(op gpu.LoadOp) vkc.AttachmentLoadOp {
	switch op {
	case gpu.LClear:
		return vkc.AttachmentLoadOpClear
	case gpu.LLoad:
		return vkc.AttachmentLoadOpLoad
	default:
		return vkc.AttachmentLoadOpDontCare
	}
}

func storeOpVK(op gpu.StoreOp) vkc.AttachmentStoreOp {
	if op == gpu.SStore {
		return vkc.AttachmentStoreOpStore
	}
	return vkc.AttachmentStoreOpDontCare
}

func (d *device) NewRenderPass(att []gpu.Attachment, sub []gpu.Subpass) (gpu.RenderPass, error) {
	descs := make([]vkc.AttachmentDescription, len(att))
	for i, a := range att {
		format, aspect := pixelFormat(a.Format)
		isDS := aspect&(vkc.ImageAspectDepthBit|vkc.ImageAspectStencilBit) != 0
		finalLayout := vkc.ImageLayoutShaderReadOnlyOptimal
		if isDS {
			finalLayout = vkc.ImageLayoutDepthStencilAttachmentOptimal
		} else {
			finalLayout = vkc.ImageLayoutColorAttachmentOptimal
		}
		descs[i] = vkc.AttachmentDescription{
			Format:         format,
			Samples:        sampleCountFlag(a.Samples),
			LoadOp:         loadOpVK(a.Load[0]),
			StoreOp:        storeOpVK(a.Store[0]),
			StencilLoadOp:  loadOpVK(a.Load[1]),
			StencilStoreOp: storeOpVK(a.Store[1]),
			InitialLayout:  vkc.ImageLayoutUndefined,
			FinalLayout:    finalLayout,
		}
	}

	subDescs := make([]vkc.SubpassDescription, len(sub))
	// Reference storage must outlive the loop below since
	// vkc.SubpassDescription keeps raw pointers into it.
	colorRefs := make([][]vkc.AttachmentReference, len(sub))
	resolveRefs := make([][]vkc.AttachmentReference, len(sub))
	dsRefs := make([]vkc.AttachmentReference, len(sub))
	for i, s := range sub {
		refs := make([]vkc.AttachmentReference, len(s.Color))
		for j, idx := range s.Color {
			refs[j] = vkc.AttachmentReference{Attachment: uint32(idx), Layout: vkc.ImageLayoutColorAttachmentOptimal}
		}
		colorRefs[i] = refs
		subDescs[i] = vkc.SubpassDescription{
			PipelineBindPoint:    vkc.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(refs)),
			PColorAttachments:    refs,
		}
		if len(s.MSR) > 0 {
			rrefs := make([]vkc.AttachmentReference, len(s.Color))
			for j := range rrefs {
				rrefs[j] = vkc.AttachmentReference{Attachment: vkc.AttachmentUnused}
			}
			for j, idx := range s.MSR {
				if j < len(rrefs) && idx >= 0 {
					rrefs[j] = vkc.AttachmentReference{Attachment: uint32(idx), Layout: vkc.ImageLayoutColorAttachmentOptimal}
				}
			}
			resolveRefs[i] = rrefs
			subDescs[i].PResolveAttachments = rrefs
		}
		if s.DS >= 0 && s.DS < len(att) {
			dsRefs[i] = vkc.AttachmentReference{Attachment: uint32(s.DS), Layout: vkc.ImageLayoutDepthStencilAttachmentOptimal}
			subDescs[i].PDepthStencilAttachment = &dsRefs[i]
		}
	}

	ci := vkc.RenderPassCreateInfo{
		SType:           vkc.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descs)),
		PAttachments:    descs,
		SubpassCount:    uint32(len(subDescs)),
		PSubpasses:      subDescs,
	}
	var h vkc.RenderPass
	if err := chk(vkc.CreateRenderPass(d.dev, &ci, nil, &h)); err != nil {
		return nil, gpu.NewError("new_render_pass", gpu.External, err)
	}
	return &renderPass{
		dev: d, handle: h,
		att: append([]gpu.Attachment(nil), att...),
		sub: append([]gpu.Subpass(nil), sub...),
	}, nil
}

func (p *renderPass) Destroy() {
	if p.handle != vkc.NullRenderPass {
		vkc.DestroyRenderPass(p.dev.dev, p.handle, nil)
		p.handle = vkc.NullRenderPass
	}
}

type framebuf struct {
	dev    *device
	handle vkc.Framebuffer
	views  []gpu.TextureView
	width  int
	height int
}

func (p *renderPass) NewFB(iv []gpu.TextureView, width, height, layers int) (gpu.Framebuf, error) {
	handles := make([]vkc.ImageView, len(iv))
	for i, v := range iv {
		tv, _ := v.(*textureView)
		if tv != nil {
			handles[i] = tv.handle
		}
	}
	ci := vkc.FramebufferCreateInfo{
		SType:           vkc.StructureTypeFramebufferCreateInfo,
		RenderPass:      p.handle,
		AttachmentCount: uint32(len(handles)),
		PAttachments:    handles,
		Width:           uint32(width),
		Height:          uint32(height),
		Layers:          uint32(maxInt(layers, 1)),
	}
	var h vkc.Framebuffer
	if err := chk(vkc.CreateFramebuffer(p.dev.dev, &ci, nil, &h)); err != nil {
		return nil, gpu.NewError("new_fb", gpu.External, err)
	}
	return &framebuf{dev: p.dev, handle: h, views: append([]gpu.TextureView(nil), iv...), width: width, height: height}, nil
}

func (f *framebuf) Destroy() {
	if f.handle != vkc.NullFramebuffer {
		vkc.DestroyFramebuffer(f.dev.dev, f.handle, nil)
		f.handle = vkc.NullFramebuffer
	}
}
