// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package gl implements a gpu.Driver backed by a real
// OpenGL/OpenGL ES context, following the same init-time
// backend-registration shape as the fake gputest driver in
// this module.
//
// The device context itself is obtained through GLFW, the
// same library soypat/glgl uses to drive go-gl/gl: a hidden
// 1x1 window supplies the minimum a backend needs (a current
// context and a function loader), independent of whatever
// onscreen window a Context later asks for through NewSwapchain
// (swapchain.go). GLFW has no entry point to bind a context to
// a foreign native window handle, so the onscreen window it
// creates there is always engine-owned, sharing this hidden
// window's context via glfw.CreateWindow's share parameter.
package gl

import (
	"fmt"
	"strings"
	"sync"

	glcore "github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/log"
	"github.com/nope-engine/ngl/wsi"
)

func init() {
	gpu.Register(&driver{backendName: gpu.OpenGL.String()})
	gpu.Register(&driver{backendName: gpu.OpenGLES.String()})
}

// driver implements gpu.Driver. Both OPENGL and OPENGLES
// names resolve to this same implementation: the façade
// only ever issues core-profile-compatible calls, so a
// single vtable serves both, matching how desktop GL
// drivers commonly expose an ES-compatible context too.
type driver struct {
	backendName string

	mu  sync.Mutex
	dev *device
}

func (d *driver) Name() string { return d.backendName }

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

// device implements gpu.GPU on top of a single, current
// OpenGL context. Per the single-threaded cooperative model,
// every call is expected to originate from the same
// goroutine/OS thread that created the context.
type device struct {
	drv *driver
	win *glfw.Window
	swap *swapchain

	state    stateCache
	limits   gpu.Limits
	features gpu.Features

	version, langVersion string

	queryTimer      uint32
	timerActive     bool
	timerAvailable  bool
	lastDrawTimeNS  int64
}

func newDevice() (*device, error) {
	if err := wsi.AcquireGLFW(); err != nil {
		return nil, gpu.NewError("create", gpu.External, err)
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	win, err := glfw.CreateWindow(1, 1, "ngl", nil, nil)
	if err != nil {
		wsi.ReleaseGLFW()
		return nil, gpu.NewError("create", gpu.External, err)
	}
	win.MakeContextCurrent()
	if err := glcore.Init(); err != nil {
		win.Destroy()
		wsi.ReleaseGLFW()
		return nil, gpu.NewError("create", gpu.External, err)
	}

	dev := &device{win: win}
	dev.version = glcore.GoStr(glcore.GetString(glcore.VERSION))
	dev.langVersion = glcore.GoStr(glcore.GetString(glcore.SHADING_LANGUAGE_VERSION))
	dev.probeLimits()
	dev.probeFeatures()
	dev.state.reset()
	log.Info("gl backend opened", "version", dev.version, "glsl", dev.langVersion)
	return dev, nil
}

func (d *device) destroy() {
	if d.swap != nil {
		d.swap.Destroy()
		d.swap = nil
	}
	if d.win != nil {
		d.win.Destroy()
		d.win = nil
	}
	wsi.ReleaseGLFW()
}

func (d *device) Driver() gpu.Driver { return d.drv }

func (d *device) Limits() gpu.Limits { return d.limits }

// Features reports the optional capabilities this context
// actually probed, consumed by gpu.Context.Init the same way
// it consumes gputest's fake Features method.
func (d *device) Features() gpu.Features { return d.features }

func (d *device) probeLimits() {
	geti := func(name uint32) int {
		var v int32
		glcore.GetIntegerv(name, &v)
		return int(v)
	}
	d.limits = gpu.Limits{
		MaxImage1D:   geti(glcore.MAX_TEXTURE_SIZE),
		MaxImage2D:   geti(glcore.MAX_TEXTURE_SIZE),
		MaxImageCube: geti(glcore.MAX_CUBE_MAP_TEXTURE_SIZE),
		MaxImage3D:   geti(glcore.MAX_3D_TEXTURE_SIZE),
		MaxLayers:    geti(glcore.MAX_ARRAY_TEXTURE_LAYERS),

		MaxDescHeaps:      4,
		MaxDBuffer:        geti(glcore.MAX_SHADER_STORAGE_BUFFER_BINDINGS),
		MaxDImage:         geti(glcore.MAX_IMAGE_UNITS),
		MaxDConstant:      geti(glcore.MAX_UNIFORM_BUFFER_BINDINGS),
		MaxDTexture:       geti(glcore.MAX_COMBINED_TEXTURE_IMAGE_UNITS),
		MaxDSampler:       geti(glcore.MAX_COMBINED_TEXTURE_IMAGE_UNITS),
		MaxDBufferRange:   int64(geti(glcore.MAX_SHADER_STORAGE_BLOCK_SIZE)),
		MaxDConstantRange: int64(geti(glcore.MAX_UNIFORM_BLOCK_SIZE)),

		MaxColorTargets: geti(glcore.MAX_COLOR_ATTACHMENTS),
		MaxFBSize:       [2]int{geti(glcore.MAX_FRAMEBUFFER_WIDTH), geti(glcore.MAX_FRAMEBUFFER_HEIGHT)},
		MaxFBLayers:     geti(glcore.MAX_FRAMEBUFFER_LAYERS),
		MaxPointSize:    64,
		MaxViewports:    geti(glcore.MAX_VIEWPORTS),

		MaxVertexIn:   geti(glcore.MAX_VERTEX_ATTRIBS),
		MaxFragmentIn: geti(glcore.MAX_FRAGMENT_INPUT_COMPONENTS) / 4,

		MaxDispatch: [3]int{65535, 65535, 65535},
	}
}

func (d *device) probeFeatures() {
	ext := extensionSet()
	f := gpu.FeatureInvalidateSubdata // glInvalidateFramebuffer is core since 4.3.
	if _, ok := ext["GL_ARB_timer_query"]; ok || glVersionAtLeast(d.version, 3, 3) {
		f |= gpu.FeatureTimer
		d.timerAvailable = true
	}
	if glVersionAtLeast(d.version, 4, 3) {
		f |= gpu.FeatureComputeShader
	}
	if _, ok := ext["GL_ARB_texture_storage_multisample"]; ok || glVersionAtLeast(d.version, 4, 3) {
		f |= gpu.FeatureDepthStencilResolve
	}
	if _, ok := ext["GL_ARB_texture_non_power_of_two"]; ok || glVersionAtLeast(d.version, 2, 0) {
		f |= gpu.FeatureNPOTMipmap
	}
	d.features = f
}

func extensionSet() map[string]bool {
	var n int32
	glcore.GetIntegerv(glcore.NUM_EXTENSIONS, &n)
	set := make(map[string]bool, n)
	for i := int32(0); i < n; i++ {
		set[glcore.GoStr(glcore.GetStringi(glcore.EXTENSIONS, uint32(i)))] = true
	}
	return set
}

func glVersionAtLeast(version string, major, minor int) bool {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return false
	}
	var gotMajor, gotMinor int
	fmt.Sscanf(fields[0], "%d.%d", &gotMajor, &gotMinor)
	return gotMajor > major || (gotMajor == major && gotMinor >= minor)
}

// Commit replays the closures each command buffer recorded,
// in program order, against the current context (there is no
// separate submission queue to defer to), then flushes. It
// never presents: presentation is a separate step driven by
// the Swapchain NewSwapchain returns (swapchain.go), called
// once Commit's result is known to be an error-free frame.
func (d *device) Commit(cb []gpu.CmdBuffer, ch chan<- error) {
	var firstErr error
	for _, c := range cb {
		b := c.(*cmdBuffer)
		if err := b.replay(d); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	glcore.Flush()
	if ch != nil {
		ch <- firstErr
	}
}
