// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"unsafe"

	vkc "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/wsi"
)

// newSurface creates a real VkSurfaceKHR from win's native
// handles, dispatching on Platform the way a windowing toolkit's
// own Vulkan loader (e.g. glfwCreateWindowSurface) picks one
// platform surface entry point per target.
func (d *device) newSurface(win wsi.Window) (vkc.Surface, error) {
	var surf vkc.Surface
	var res vkc.Result
	switch win.Platform() {
	case wsi.Xlib:
		ci := vkc.XlibSurfaceCreateInfo{
			SType:  vkc.StructureTypeXlibSurfaceCreateInfo,
			Dpy:    unsafe.Pointer(win.Display()),
			Window: vkc.XlibWindow(win.WindowHandle()),
		}
		res = vkc.CreateXlibSurface(d.instance, &ci, nil, &surf)
	case wsi.Wayland:
		ci := vkc.WaylandSurfaceCreateInfo{
			SType:   vkc.StructureTypeWaylandSurfaceCreateInfo,
			Display: unsafe.Pointer(win.Display()),
			Surface: unsafe.Pointer(win.WindowHandle()),
		}
		res = vkc.CreateWaylandSurface(d.instance, &ci, nil, &surf)
	case wsi.Windows:
		ci := vkc.Win32SurfaceCreateInfo{
			SType:     vkc.StructureTypeWin32SurfaceCreateInfo,
			Hinstance: vkc.Hinstance(win.NativeHandle()),
			Hwnd:      vkc.Hwnd(win.WindowHandle()),
		}
		res = vkc.CreateWin32Surface(d.instance, &ci, nil, &surf)
	default:
		return vkc.NullSurface, gpu.ErrCannotPresent
	}
	if err := chk(res); err != nil {
		return vkc.NullSurface, gpu.NewError("new_swapchain", gpu.External, err)
	}
	return surf, nil
}

// swapchain wraps a real VkSwapchainKHR. device.Commit already
// blocks on a fence before returning (the single-threaded
// cooperative frame loop has no async submission queue to hand
// work off to), so by the time Present is called every frame's
// rendering is known to be finished: a single fence, reused every
// frame, is enough to make acquisition synchronous too, and no
// semaphore hand-off between submission and presentation is
// needed.
type swapchain struct {
	dev     *device
	win     wsi.Window
	surface vkc.Surface
	handle  vkc.Swapchain
	format  vkc.Format
	pixFmt  gpu.PixelFmt
	images  []vkc.Image
	views   []gpu.TextureView
	fence   vkc.Fence
}

func (d *device) NewSwapchain(win wsi.Window, imageCount int) (gpu.Swapchain, error) {
	surf, err := d.newSurface(win)
	if err != nil {
		return nil, err
	}
	s := &swapchain{dev: d, win: win, surface: surf}
	if err := s.build(imageCount); err != nil {
		vkc.DestroySurface(d.instance, surf, nil)
		return nil, err
	}
	fenceCI := vkc.FenceCreateInfo{SType: vkc.StructureTypeFenceCreateInfo}
	if err := chk(vkc.CreateFence(d.dev, &fenceCI, nil, &s.fence)); err != nil {
		s.Destroy()
		return nil, gpu.NewError("new_swapchain", gpu.External, err)
	}
	return s, nil
}

func (s *swapchain) build(imageCount int) error {
	d := s.dev
	var caps vkc.SurfaceCapabilities
	vkc.GetPhysicalDeviceSurfaceCapabilities(d.physDev, s.surface, &caps)
	caps.Deref()

	var fmtN uint32
	vkc.GetPhysicalDeviceSurfaceFormats(d.physDev, s.surface, &fmtN, nil)
	formats := make([]vkc.SurfaceFormat, fmtN)
	if fmtN > 0 {
		vkc.GetPhysicalDeviceSurfaceFormats(d.physDev, s.surface, &fmtN, formats)
	}
	format := vkc.FormatB8g8r8a8Unorm
	if len(formats) > 0 {
		formats[0].Deref()
		format = formats[0].Format
	}

	extent := caps.CurrentExtent
	extent.Deref()
	if extent.Width == 0xffffffff {
		extent.Width, extent.Height = uint32(s.win.Width()), uint32(s.win.Height())
	}
	if extent.Width == 0 {
		extent.Width = 1
	}
	if extent.Height == 0 {
		extent.Height = 1
	}

	count := uint32(imageCount)
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}

	ci := vkc.SwapchainCreateInfo{
		SType:            vkc.StructureTypeSwapchainCreateInfo,
		Surface:          s.surface,
		MinImageCount:    count,
		ImageFormat:      format,
		ImageColorSpace:  vkc.ColorSpaceSrgbNonlinear,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vkc.ImageUsageFlags(vkc.ImageUsageColorAttachmentBit),
		ImageSharingMode: vkc.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vkc.CompositeAlphaOpaqueBit,
		PresentMode:      vkc.PresentModeFifo,
		Clipped:          vkc.True,
	}
	var swap vkc.Swapchain
	if err := chk(vkc.CreateSwapchain(d.dev, &ci, nil, &swap)); err != nil {
		return gpu.NewError("new_swapchain", gpu.External, err)
	}

	var imgN uint32
	vkc.GetSwapchainImages(d.dev, swap, &imgN, nil)
	images := make([]vkc.Image, imgN)
	if imgN > 0 {
		vkc.GetSwapchainImages(d.dev, swap, &imgN, images)
	}

	views := make([]gpu.TextureView, len(images))
	for i, img := range images {
		vci := vkc.ImageViewCreateInfo{
			SType:    vkc.StructureTypeImageViewCreateInfo,
			Image:    img,
			ViewType: vkc.ImageViewType2d,
			Format:   format,
			SubresourceRange: vkc.ImageSubresourceRange{
				AspectMask: vkc.ImageAspectFlags(vkc.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		var h vkc.ImageView
		if err := chk(vkc.CreateImageView(d.dev, &vci, nil, &h)); err != nil {
			vkc.DestroySwapchain(d.dev, swap, nil)
			return gpu.NewError("new_swapchain", gpu.External, err)
		}
		// tex only carries dev: these views are never routed
		// through texture.Destroy, swapchain.Destroy frees the
		// vkc.ImageView handles directly.
		views[i] = &textureView{tex: &texture{dev: d}, handle: h}
	}

	s.handle = swap
	s.format = format
	s.pixFmt = pixelFmtFromVK(format)
	s.images = images
	s.views = views
	return nil
}

func pixelFmtFromVK(f vkc.Format) gpu.PixelFmt {
	switch f {
	case vkc.FormatB8g8r8a8Srgb, vkc.FormatR8g8b8a8Srgb:
		return gpu.RGBA8sRGB
	default:
		return gpu.RGBA8un
	}
}

func (s *swapchain) Destroy() {
	vkc.DeviceWaitIdle(s.dev.dev)
	for _, v := range s.views {
		if tv, ok := v.(*textureView); ok && tv.handle != vkc.NullImageView {
			vkc.DestroyImageView(s.dev.dev, tv.handle, nil)
		}
	}
	s.views = nil
	if s.handle != vkc.NullSwapchain {
		vkc.DestroySwapchain(s.dev.dev, s.handle, nil)
		s.handle = vkc.NullSwapchain
	}
	if s.surface != vkc.NullSurface {
		vkc.DestroySurface(s.dev.instance, s.surface, nil)
		s.surface = vkc.NullSurface
	}
	if s.fence != vkc.NullFence {
		vkc.DestroyFence(s.dev.dev, s.fence, nil)
		s.fence = vkc.NullFence
	}
}

func (s *swapchain) Views() []gpu.TextureView { return s.views }

func (s *swapchain) Format() gpu.PixelFmt { return s.pixFmt }

// Next acquires the next presentable image, waiting on the
// swapchain's reusable fence so that the returned index is
// already safe to render into by the time Next returns.
func (s *swapchain) Next(cb gpu.CmdBuffer) (int, error) {
	var idx uint32
	res := vkc.AcquireNextImage(s.dev.dev, s.handle, vkc.MaxUint64, vkc.NullSemaphore, s.fence, &idx)
	switch res {
	case vkc.Success, vkc.Suboptimal:
	case vkc.ErrorOutOfDate:
		return 0, gpu.ErrSwapchain
	default:
		if err := chk(res); err != nil {
			return 0, gpu.NewError("next", gpu.External, err)
		}
	}
	vkc.WaitForFences(s.dev.dev, 1, []vkc.Fence{s.fence}, vkc.True, vkc.MaxUint64)
	vkc.ResetFences(s.dev.dev, 1, []vkc.Fence{s.fence})
	return int(idx), nil
}

// Present queues the image at index for presentation. cb is
// unused: by the time Present is called its work has already
// been submitted and waited on by device.Commit.
func (s *swapchain) Present(index int, cb gpu.CmdBuffer) error {
	idx := uint32(index)
	pi := vkc.PresentInfo{
		SType:          vkc.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vkc.Swapchain{s.handle},
		PImageIndices:  []uint32{idx},
	}
	if err := chk(vkc.QueuePresent(s.dev.queue, &pi)); err != nil {
		return gpu.NewError("present", gpu.External, err)
	}
	return nil
}

// Recreate tears down and rebuilds the swap images against the
// window's current size, for when the surface becomes
// incompatible (e.g. ErrorOutOfDate from Next, or an explicit
// resize).
func (s *swapchain) Recreate() error {
	old := s.handle
	for _, v := range s.views {
		if tv, ok := v.(*textureView); ok && tv.handle != vkc.NullImageView {
			vkc.DestroyImageView(s.dev.dev, tv.handle, nil)
		}
	}
	s.views = nil
	n := len(s.images)
	if n == 0 {
		n = 1
	}
	if err := s.build(n); err != nil {
		return err
	}
	if old != vkc.NullSwapchain {
		vkc.DestroySwapchain(s.dev.dev, old, nil)
	}
	return nil
}
