// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package vk implements a gpu.Driver backed by a real Vulkan
// device, using the pure-Go goki/vulkan bindings (a drop-in,
// cgo-free fork of vulkan-go/vulkan) instead of a hand-written
// cgo bridge, following the object lifetime and command
// recording pattern asche's Context uses: one instance, one
// physical/logical device pair, one graphics+compute queue, a
// single primary command pool whose buffers are recorded
// directly (Vulkan's command buffer is already a real object,
// unlike the GL backend's closure-recorded one).
//
// Only a single physical device (the first suitable one
// reported) is ever opened; device selection/enumeration
// beyond that is out of scope (spec's Non-goals exclude
// multi-adapter support).
package vk

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/log"
)

func init() {
	gpu.Register(&driver{})
}

type driver struct {
	mu  sync.Mutex
	dev *device
}

func (d *driver) Name() string { return gpu.Vulkan.String() }

func (d *driver) Open() (gpu.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev != nil {
		return d.dev, nil
	}
	dev, err := newDevice()
	if err != nil {
		return nil, err
	}
	dev.drv = d
	d.dev = dev
	return dev, nil
}

func (d *driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev == nil {
		return
	}
	d.dev.destroy()
	d.dev = nil
}

// device implements gpu.GPU on a single VkDevice/queue pair.
type device struct {
	drv *driver

	instance vk.Instance
	physDev  vk.PhysicalDevice
	dev      vk.Device
	queue    vk.Queue
	queueFam uint32

	cmdPool vk.CommandPool

	memProps vk.PhysicalDeviceMemoryProperties
	limits   gpu.Limits
	features gpu.Features

	queryPool   vk.QueryPool
	timerActive bool
	timestampNS float64
	lastTimeNS  int64
}

func newDevice() (*device, error) {
	appInfo := vk.ApplicationInfo{
		SType:         vk.StructureTypeApplicationInfo,
		PApplicationName: cstr("ngl"),
		ApiVersion:    vk.MakeVersion(1, 1, 0),
	}
	exts := platformSurfaceExtensions()
	instCI := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
	}
	var inst vk.Instance
	if err := chk(vk.CreateInstance(&instCI, nil, &inst)); err != nil {
		return nil, gpu.NewError("create", gpu.External, err)
	}
	if err := vk.Init(); err != nil {
		return nil, gpu.NewError("create", gpu.External, err)
	}
	vk.InitInstance(inst)

	var n uint32
	vk.EnumeratePhysicalDevices(inst, &n, nil)
	if n == 0 {
		vk.DestroyInstance(inst, nil)
		return nil, gpu.ErrNoDevice
	}
	phys := make([]vk.PhysicalDevice, n)
	vk.EnumeratePhysicalDevices(inst, &n, phys)
	physDev := phys[0]

	var propN uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physDev, &propN, nil)
	props := make([]vk.QueueFamilyProperties, propN)
	vk.GetPhysicalDeviceQueueFamilyProperties(physDev, &propN, props)
	queueFam := uint32(0)
	for i, p := range props {
		p.Deref()
		if vk.QueueFlagBits(p.QueueFlags)&vk.QueueGraphicsBit != 0 {
			queueFam = uint32(i)
			break
		}
	}

	prio := float32(1)
	queueCI := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: queueFam,
		QueueCount:       1,
		PQueuePriorities: []float32{prio},
	}
	devExts := []string{"VK_KHR_swapchain"}
	devCI := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueCI},
		EnabledExtensionCount:   uint32(len(devExts)),
		PpEnabledExtensionNames: devExts,
	}
	var dev vk.Device
	if err := chk(vk.CreateDevice(physDev, &devCI, nil, &dev)); err != nil {
		vk.DestroyInstance(inst, nil)
		return nil, gpu.NewError("create", gpu.External, err)
	}
	vk.InitDevice(dev)

	var queue vk.Queue
	vk.GetDeviceQueue(dev, queueFam, 0, &queue)

	poolCI := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFam,
	}
	var pool vk.CommandPool
	if err := chk(vk.CreateCommandPool(dev, &poolCI, nil, &pool)); err != nil {
		vk.DestroyDevice(dev, nil)
		vk.DestroyInstance(inst, nil)
		return nil, gpu.NewError("create", gpu.External, err)
	}

	d := &device{
		instance: inst, physDev: physDev, dev: dev, queue: queue,
		queueFam: queueFam, cmdPool: pool,
	}
	vk.GetPhysicalDeviceMemoryProperties(physDev, &d.memProps)
	d.memProps.Deref()
	d.probeLimits()
	d.features = gpu.FeatureComputeShader | gpu.FeatureTimer | gpu.FeatureDepthStencilResolve | gpu.FeatureNPOTMipmap
	d.createQueryPool()
	log.Info("vk backend opened")
	return d, nil
}

func (d *device) probeLimits() {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.physDev, &props)
	props.Deref()
	props.Limits.Deref()
	l := props.Limits
	d.limits = gpu.Limits{
		MaxImage1D:        int(l.MaxImageDimension1D),
		MaxImage2D:        int(l.MaxImageDimension2D),
		MaxImageCube:      int(l.MaxImageDimensionCube),
		MaxImage3D:        int(l.MaxImageDimension3D),
		MaxLayers:         int(l.MaxImageArrayLayers),
		MaxDescHeaps:      int(l.MaxBoundDescriptorSets),
		MaxDBuffer:        int(l.MaxDescriptorSetStorageBuffers),
		MaxDImage:         int(l.MaxDescriptorSetStorageImages),
		MaxDConstant:      int(l.MaxDescriptorSetUniformBuffers),
		MaxDTexture:       int(l.MaxDescriptorSetSampledImages),
		MaxDSampler:       int(l.MaxDescriptorSetSamplers),
		MaxDBufferRange:   int64(l.MaxStorageBufferRange),
		MaxDConstantRange: int64(l.MaxUniformBufferRange),
		MaxColorTargets:   int(l.MaxColorAttachments),
		MaxFBSize:         [2]int{int(l.MaxFramebufferWidth), int(l.MaxFramebufferHeight)},
		MaxFBLayers:       int(l.MaxFramebufferLayers),
		MaxPointSize:      l.PointSizeRange[1],
		MaxViewports:      int(l.MaxViewports),
		MaxVertexIn:       int(l.MaxVertexInputAttributes),
		MaxFragmentIn:     int(l.MaxFragmentInputComponents) / 4,
		MaxDispatch: [3]int{
			int(l.MaxComputeWorkGroupCount[0]),
			int(l.MaxComputeWorkGroupCount[1]),
			int(l.MaxComputeWorkGroupCount[2]),
		},
	}
}

func (d *device) createQueryPool() {
	ci := vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  vk.QueryTypeTimestamp,
		QueryCount: 2,
	}
	vk.CreateQueryPool(d.dev, &ci, nil, &d.queryPool)
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.physDev, &props)
	props.Deref()
	props.Limits.Deref()
	d.timestampNS = float64(props.Limits.TimestampPeriod)
}

func (d *device) destroy() {
	vk.DeviceWaitIdle(d.dev)
	if d.queryPool != vk.NullQueryPool {
		vk.DestroyQueryPool(d.dev, d.queryPool, nil)
	}
	vk.DestroyCommandPool(d.dev, d.cmdPool, nil)
	vk.DestroyDevice(d.dev, nil)
	vk.DestroyInstance(d.instance, nil)
}

func (d *device) Driver() gpu.Driver    { return d.drv }
func (d *device) Limits() gpu.Limits    { return d.limits }
func (d *device) Features() gpu.Features { return d.features }

// Commit submits every recorded command buffer to the
// graphics queue as one batch and blocks on a fence, matching
// the façade's synchronous Commit(cb, ch) contract: the result
// channel receives as soon as the GPU is done, and there is no
// async submission queue to hand work off to between frames.
func (d *device) Commit(cb []gpu.CmdBuffer, ch chan<- error) {
	bufs := make([]vk.CommandBuffer, len(cb))
	for i, c := range cb {
		b := c.(*cmdBuffer)
		bufs[i] = b.buf
	}
	fenceCI := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	var fence vk.Fence
	vk.CreateFence(d.dev, &fenceCI, nil, &fence)

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(bufs)),
		PCommandBuffers:    bufs,
	}
	err := chk(vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{submit}, fence))
	if err == nil {
		vk.WaitForFences(d.dev, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64)
	}
	vk.DestroyFence(d.dev, fence, nil)

	if d.timerActive {
		d.readTimestamps()
		d.timerActive = false
	}

	var reported error
	if err != nil {
		reported = gpu.NewError("commit", gpu.External, err)
	}
	if ch != nil {
		ch <- reported
	}
}

func (d *device) readTimestamps() {
	buf := make([]uint64, 2)
	vk.GetQueryPoolResults(d.dev, d.queryPool, 0, 2, uint(len(buf)*8),
		unsafe.Pointer(&buf[0]), 8, vk.QueryResultFlags(vk.QueryResult64Bit|vk.QueryResultWaitBit))
	d.lastTimeNS = int64(float64(buf[1]-buf[0]) * d.timestampNS)
}

func (d *device) BeginTimer() { d.timerActive = true }
func (d *device) EndTimer()   {}
func (d *device) DrawTimeNS() int64 { return d.lastTimeNS }

// platformSurfaceExtensions names VK_KHR_surface plus the one
// platform surface extension the running OS actually exposes,
// the same per-OS dispatch GLFW's own Vulkan loader
// (glfwGetRequiredInstanceExtensions) performs.
func platformSurfaceExtensions() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"VK_KHR_surface", "VK_KHR_win32_surface"}
	case "darwin", "ios":
		return []string{"VK_KHR_surface", "VK_EXT_metal_surface"}
	case "android":
		return []string{"VK_KHR_surface", "VK_KHR_android_surface"}
	default:
		return []string{"VK_KHR_surface", "VK_KHR_xlib_surface", "VK_KHR_wayland_surface"}
	}
}

func cstr(s string) string { return s + "\x00" }

type vkError vk.Result

func (e vkError) Error() string { return fmt.Sprintf("vk: result %d", vk.Result(e)) }

func chk(r vk.Result) error {
	if r != vk.Success {
		return vkError(r)
	}
	return nil
}
