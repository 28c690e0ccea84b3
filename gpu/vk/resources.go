// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
)

// findMemoryType selects a memory type index satisfying both
// the resource's typeBits requirement and the requested
// property flags, matching the manual memory-type search
// every raw Vulkan app (including asche's Texture/Depth
// helpers) performs before vkAllocateMemory.
func (d *device) findMemoryType(typeBits uint32, props vk.MemoryPropertyFlagBits) uint32 {
	for i := uint32(0); i < d.memProps.MemoryTypeCount; i++ {
		t := d.memProps.MemoryTypes[i]
		t.Deref()
		if typeBits&(1<<i) != 0 && vk.MemoryPropertyFlagBits(t.PropertyFlags)&props == props {
			return i
		}
	}
	return 0
}

type buffer struct {
	dev     *device
	handle  vk.Buffer
	mem     vk.DeviceMemory
	size    int64
	visible bool
	usage   gpu.Usage
	mapped  []byte
}

func bufferUsageFlags(usg gpu.Usage) vk.BufferUsageFlagBits {
	var f vk.BufferUsageFlagBits
	if usg&gpu.UVertexData != 0 {
		f |= vk.BufferUsageVertexBufferBit
	}
	if usg&gpu.UIndexData != 0 {
		f |= vk.BufferUsageIndexBufferBit
	}
	if usg&gpu.UShaderConst != 0 {
		f |= vk.BufferUsageUniformBufferBit
	}
	if usg&(gpu.UShaderRead|gpu.UShaderWrite) != 0 {
		f |= vk.BufferUsageStorageBufferBit
	}
	return f
}

func (d *device) NewBuffer(size int64, visible bool, usg gpu.Usage) (gpu.Buffer, error) {
	ci := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(bufferUsageFlags(usg) | vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var h vk.Buffer
	if err := chk(vk.CreateBuffer(d.dev, &ci, nil, &h)); err != nil {
		return nil, gpu.NewError("new_buffer", gpu.External, err)
	}
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.dev, h, &req)
	req.Deref()

	props := vk.MemoryPropertyDeviceLocalBit
	if visible {
		props = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}
	alloc := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: d.findMemoryType(req.MemoryTypeBits, props),
	}
	var mem vk.DeviceMemory
	if err := chk(vk.AllocateMemory(d.dev, &alloc, nil, &mem)); err != nil {
		vk.DestroyBuffer(d.dev, h, nil)
		return nil, gpu.NewError("new_buffer", gpu.External, err)
	}
	vk.BindBufferMemory(d.dev, h, mem, 0)

	b := &buffer{dev: d, handle: h, mem: mem, size: size, visible: visible, usage: usg}
	if visible {
		var ptr unsafe.Pointer
		vk.MapMemory(d.dev, mem, 0, vk.DeviceSize(size), 0, &ptr)
		b.mapped = unsafe.Slice((*byte)(ptr), size)
	}
	return b, nil
}

func (b *buffer) Visible() bool { return b.visible }
func (b *buffer) Bytes() []byte { return b.mapped }
func (b *buffer) Cap() int64    { return b.size }

func (b *buffer) Destroy() {
	if b.mapped != nil {
		vk.UnmapMemory(b.dev.dev, b.mem)
		b.mapped = nil
	}
	if b.handle != vk.NullBuffer {
		vk.DestroyBuffer(b.dev.dev, b.handle, nil)
		b.handle = vk.NullBuffer
	}
	if b.mem != vk.NullDeviceMemory {
		vk.FreeMemory(b.dev.dev, b.mem, nil)
		b.mem = vk.NullDeviceMemory
	}
}

type texture struct {
	dev      *device
	handle   vk.Image
	mem      vk.DeviceMemory
	format   vk.Format
	gformat  gpu.PixelFmt
	size     gpu.Dim3D
	layers   int
	levels   int
	samples  int
	usage    gpu.Usage
	wrapped  bool
	aspect   vk.ImageAspectFlagBits
}

func pixelFormat(pf gpu.PixelFmt) (vk.Format, vk.ImageAspectFlagBits) {
	color := vk.ImageAspectColorBit
	switch pf {
	case gpu.RGBA8un:
		return vk.FormatR8g8b8a8Unorm, color
	case gpu.RGBA8n:
		return vk.FormatR8g8b8a8Snorm, color
	case gpu.RGBA8sRGB:
		return vk.FormatR8g8b8a8Srgb, color
	case gpu.BGRA8un:
		return vk.FormatB8g8r8a8Unorm, color
	case gpu.BGRA8sRGB:
		return vk.FormatB8g8r8a8Srgb, color
	case gpu.RG8un:
		return vk.FormatR8g8Unorm, color
	case gpu.RG8n:
		return vk.FormatR8g8Snorm, color
	case gpu.R8un:
		return vk.FormatR8Unorm, color
	case gpu.R8n:
		return vk.FormatR8Snorm, color
	case gpu.RGBA16f:
		return vk.FormatR16g16b16a16Sfloat, color
	case gpu.RG16f:
		return vk.FormatR16g16Sfloat, color
	case gpu.R16f:
		return vk.FormatR16Sfloat, color
	case gpu.RGBA32f:
		return vk.FormatR32g32b32a32Sfloat, color
	case gpu.RG32f:
		return vk.FormatR32g32Sfloat, color
	case gpu.R32f:
		return vk.FormatR32Sfloat, color
	case gpu.D16un:
		return vk.FormatD16Unorm, vk.ImageAspectDepthBit
	case gpu.D32f:
		return vk.FormatD32Sfloat, vk.ImageAspectDepthBit
	case gpu.S8ui:
		return vk.FormatS8Uint, vk.ImageAspectStencilBit
	case gpu.D24unS8ui:
		return vk.FormatD24UnormS8Uint, vk.ImageAspectDepthBit | vk.ImageAspectStencilBit
	case gpu.D32fS8ui:
		return vk.FormatD32SfloatS8Uint, vk.ImageAspectDepthBit | vk.ImageAspectStencilBit
	default:
		return vk.FormatR8g8b8a8Unorm, color
	}
}

func imageUsageFlags(usg gpu.Usage, aspect vk.ImageAspectFlagBits) vk.ImageUsageFlagBits {
	var f vk.ImageUsageFlagBits
	isDS := aspect&(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit) != 0
	if usg&gpu.UShaderSample != 0 {
		f |= vk.ImageUsageSampledBit
	}
	if usg&gpu.URenderTarget != 0 {
		if isDS {
			f |= vk.ImageUsageDepthStencilAttachmentBit
		} else {
			f |= vk.ImageUsageColorAttachmentBit
		}
	}
	if usg&(gpu.UShaderRead|gpu.UShaderWrite) != 0 {
		f |= vk.ImageUsageStorageBit
	}
	return f | vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit
}

func imageType(size gpu.Dim3D) vk.ImageType {
	if size.Depth > 1 {
		return vk.ImageType3d
	}
	return vk.ImageType2d
}

func (d *device) NewTexture(pf gpu.PixelFmt, size gpu.Dim3D, layers, levels, samples int, usg gpu.Usage) (gpu.Texture, error) {
	if levels < 1 {
		levels = 1
	}
	if layers < 1 {
		layers = 1
	}
	if samples < 1 {
		samples = 1
	}
	format, aspect := pixelFormat(pf)
	ci := vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		ImageType:   imageType(size),
		Format:      format,
		Extent:      vk.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), Depth: uint32(maxInt(size.Depth, 1))},
		MipLevels:   uint32(levels),
		ArrayLayers: uint32(layers),
		Samples:     sampleCountFlag(samples),
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageFlags(imageUsageFlags(usg, aspect)),
		SharingMode: vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var h vk.Image
	if err := chk(vk.CreateImage(d.dev, &ci, nil, &h)); err != nil {
		return nil, gpu.NewError("new_texture", gpu.External, err)
	}
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.dev, h, &req)
	req.Deref()
	alloc := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: d.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit),
	}
	var mem vk.DeviceMemory
	if err := chk(vk.AllocateMemory(d.dev, &alloc, nil, &mem)); err != nil {
		vk.DestroyImage(d.dev, h, nil)
		return nil, gpu.NewError("new_texture", gpu.External, err)
	}
	vk.BindImageMemory(d.dev, h, mem, 0)

	return &texture{
		dev: d, handle: h, mem: mem, format: format, gformat: pf, size: size,
		layers: layers, levels: levels, samples: samples, usage: usg, aspect: aspect,
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func sampleCountFlag(samples int) vk.SampleCountFlagBits {
	switch samples {
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	case 16:
		return vk.SampleCount16Bit
	default:
		return vk.SampleCount1Bit
	}
}

func (t *texture) Destroy() {
	if t.wrapped {
		return
	}
	if t.handle != vk.NullImage {
		vk.DestroyImage(t.dev.dev, t.handle, nil)
		t.handle = vk.NullImage
	}
	if t.mem != vk.NullDeviceMemory {
		vk.FreeMemory(t.dev.dev, t.mem, nil)
		t.mem = vk.NullDeviceMemory
	}
}

type textureView struct {
	tex    *texture
	handle vk.ImageView
	layer  int
	level  int
	layers int
	levels int
}

func viewType(typ gpu.ViewType) vk.ImageViewType {
	switch typ {
	case gpu.IView1D:
		return vk.ImageViewType1d
	case gpu.IView3D:
		return vk.ImageViewType3d
	case gpu.IViewCube:
		return vk.ImageViewTypeCube
	case gpu.IView1DArray:
		return vk.ImageViewType1dArray
	case gpu.IView2DArray, gpu.IView2DMSArray:
		return vk.ImageViewType2dArray
	case gpu.IViewCubeArray:
		return vk.ImageViewTypeCubeArray
	default:
		return vk.ImageViewType2d
	}
}

func (t *texture) NewView(typ gpu.ViewType, layer, layers, level, levels int) (gpu.TextureView, error) {
	ci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    t.handle,
		ViewType: viewType(typ),
		Format:   t.format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(t.aspect),
			BaseMipLevel:   uint32(level),
			LevelCount:     uint32(levels),
			BaseArrayLayer: uint32(layer),
			LayerCount:     uint32(layers),
		},
	}
	var h vk.ImageView
	if err := chk(vk.CreateImageView(t.dev.dev, &ci, nil, &h)); err != nil {
		return nil, gpu.NewError("new_view", gpu.External, err)
	}
	return &textureView{tex: t, handle: h, layer: layer, layers: layers, level: level, levels: levels}, nil
}

func (v *textureView) Destroy() {
	if v.handle != vk.NullImageView {
		vk.DestroyImageView(v.tex.dev.dev, v.handle, nil)
		v.handle = vk.NullImageView
	}
}

type sampler struct {
	dev    *device
	handle vk.Sampler
}

func filterMode(f gpu.Filter) vk.Filter {
	if f == gpu.FNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func mipmapMode(f gpu.Filter) vk.SamplerMipmapMode {
	if f == gpu.FNearest {
		return vk.SamplerMipmapModeNearest
	}
	return vk.SamplerMipmapModeLinear
}

func addrModeVK(a gpu.AddrMode) vk.SamplerAddressMode {
	switch a {
	case gpu.AMirror:
		return vk.SamplerAddressModeMirroredRepeat
	case gpu.AClamp:
		return vk.SamplerAddressModeClampToEdge
	default:
		return vk.SamplerAddressModeRepeat
	}
}

func (d *device) NewSampler(spln *gpu.Sampling) (gpu.Sampler, error) {
	ci := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filterMode(spln.Mag),
		MinFilter:               filterMode(spln.Min),
		MipmapMode:              mipmapMode(spln.Mipmap),
		AddressModeU:            addrModeVK(spln.AddrU),
		AddressModeV:            addrModeVK(spln.AddrV),
		AddressModeW:            addrModeVK(spln.AddrW),
		MinLod:                  spln.MinLOD,
		MaxLod:                  spln.MaxLOD,
		AnisotropyEnable:        vk.Bool32(boolU32(spln.MaxAniso > 1)),
		MaxAnisotropy:           spln.MaxAniso,
	}
	var h vk.Sampler
	if err := chk(vk.CreateSampler(d.dev, &ci, nil, &h)); err != nil {
		return nil, gpu.NewError("new_sampler", gpu.External, err)
	}
	return &sampler{dev: d, handle: h}, nil
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (s *sampler) Destroy() {
	if s.handle != vk.NullSampler {
		vk.DestroySampler(s.dev.dev, s.handle, nil)
		s.handle = vk.NullSampler
	}
}
