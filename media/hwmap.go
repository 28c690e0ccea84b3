// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package media

import (
	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/internal/align"
)

// Strategy adapts a decoded Frame into something a Texture node can
// sample, for one (backend, PixelFormat) pair. The set of strategies
// is a closed enumeration: there is no plugin mechanism, only the
// table built by init below.
type Strategy interface {
	// Init prepares backend-side state shared across frames (e.g. a
	// staging buffer sized for the source dimensions).
	Init(dev gpu.GPU, f Frame) error

	// MapFrame produces the texture view and coordinate matrix for
	// one frame. CoordMatrix folds in Frame.Crop and Frame.FlipY so
	// that shaders recover the logical orientation regardless of the
	// source's padding/flip.
	MapFrame(dev gpu.GPU, f Frame) (view gpu.TextureView, coordMatrix [3][3]float32, err error)

	// Uninit releases backend-side state.
	Uninit()
}

type strategyKey struct {
	backend gpu.Backend
	format  PixelFormat
}

var strategies = map[strategyKey]func() Strategy{}

// registerStrategy installs a Strategy constructor for a
// (backend, format) pair. Called from each strategy's init.
func registerStrategy(backend gpu.Backend, format PixelFormat, ctor func() Strategy) {
	strategies[strategyKey{backend, format}] = ctor
}

// LookupStrategy returns the hwmap Strategy for the given backend and
// pixel format, or ok == false if the pair is not in the closed
// enumeration (e.g. an hw-opaque format requested against a backend
// that has no 0-copy import path for it).
func LookupStrategy(backend gpu.Backend, format PixelFormat) (Strategy, bool) {
	ctor, ok := strategies[strategyKey{backend, format}]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

func init() {
	// CPU formats: every backend goes through a staging buffer and
	// an explicit upload, so a single constructor covers all three
	// backends for each CPU pixel format.
	for _, b := range []gpu.Backend{gpu.OpenGL, gpu.OpenGLES, gpu.Vulkan} {
		registerStrategy(b, RGBA, newStagingStrategy)
		registerStrategy(b, BGRA, newStagingStrategy)
		registerStrategy(b, NV12, newStagingStrategy)
		registerStrategy(b, YUV420P, newStagingStrategy)
	}
	// Hw-opaque formats only 0-copy-map on their native platform
	// backend combination; callers on a mismatched pair fall back to
	// LookupStrategy's ok==false and must use a CPU readback path
	// upstream (out of scope here).
	registerStrategy(gpu.OpenGLES, HWOpaqueMediaCodec, func() Strategy { return newOpaqueStrategy() })
	registerStrategy(gpu.OpenGLES, HWOpaqueVAAPI, func() Strategy { return newOpaqueStrategy() })
	registerStrategy(gpu.Vulkan, HWOpaqueVAAPI, func() Strategy { return newOpaqueStrategy() })
	registerStrategy(gpu.OpenGL, HWOpaqueVT, func() Strategy { return newOpaqueStrategy() })
}

// planeSpec describes the texture backing one plane of a CPU frame.
type planeSpec struct {
	format        gpu.PixelFmt
	width, height int
	bpp           int
}

// planeSpecs maps a CPU pixel format onto its plane textures: packed
// formats get a single full-size texture, NV12 a full-size luma plane
// plus a half-size interleaved chroma plane, YUV420P three planes.
func planeSpecs(f Frame) []planeSpec {
	cw, ch := (f.Width+1)/2, (f.Height+1)/2
	switch f.Format {
	case BGRA:
		return []planeSpec{{gpu.BGRA8un, f.Width, f.Height, 4}}
	case NV12:
		return []planeSpec{
			{gpu.R8un, f.Width, f.Height, 1},
			{gpu.RG8un, cw, ch, 2},
		}
	case YUV420P:
		return []planeSpec{
			{gpu.R8un, f.Width, f.Height, 1},
			{gpu.R8un, cw, ch, 1},
			{gpu.R8un, cw, ch, 1},
		}
	default:
		return []planeSpec{{gpu.RGBA8un, f.Width, f.Height, 4}}
	}
}

// bufOffAlign is the buffer-offset alignment required of
// CmdBuffer.CopyBufToImg source offsets.
const bufOffAlign = 512

// stagingStrategy implements Strategy for CPU-accessible pixel
// formats: a host-visible staging buffer plus one texture per plane,
// refilled and re-uploaded each mapped frame.
type stagingStrategy struct {
	specs   []planeSpec
	offsets []int64
	staging gpu.Buffer
	tex     []gpu.Texture
	view    []gpu.TextureView
}

func newStagingStrategy() Strategy { return &stagingStrategy{} }

func (s *stagingStrategy) Init(dev gpu.GPU, f Frame) error {
	s.specs = planeSpecs(f)
	size := int64(0)
	for _, spec := range s.specs {
		size = align.Up(size, bufOffAlign)
		s.offsets = append(s.offsets, size)
		size += int64(spec.width * spec.height * spec.bpp)
	}
	buf, err := dev.NewBuffer(size, true, gpu.UShaderRead)
	if err != nil {
		return err
	}
	s.staging = buf
	for _, spec := range s.specs {
		tex, err := dev.NewTexture(spec.format, gpu.Dim3D{Width: spec.width, Height: spec.height, Depth: 1}, 1, 1, 1, gpu.UShaderSample|gpu.UShaderRead)
		if err != nil {
			s.Uninit()
			return err
		}
		view, err := tex.NewView(gpu.IView2D, 0, 1, 0, 1)
		if err != nil {
			tex.Destroy()
			s.Uninit()
			return err
		}
		s.tex = append(s.tex, tex)
		s.view = append(s.view, view)
	}
	return nil
}

func (s *stagingStrategy) MapFrame(dev gpu.GPU, f Frame) (gpu.TextureView, [3][3]float32, error) {
	var m [3][3]float32
	m[0][0], m[1][1], m[2][2] = 1, 1, 1
	coordMatrix(&m, f)
	if s.staging == nil {
		return nil, m, gpu.NewError("hwmap", gpu.InvalidUsage, nil)
	}

	// Repack each plane into tight rows at its aligned offset,
	// dropping the decoder's row padding (Linesize >= width*bpp).
	dst := s.staging.Bytes()
	for i, spec := range s.specs {
		if i >= len(f.Data) {
			break
		}
		src := f.Data[i]
		stride := spec.width * spec.bpp
		linesize := stride
		if i < len(f.Linesize) && f.Linesize[i] > 0 {
			linesize = f.Linesize[i]
		}
		off := int(s.offsets[i])
		for row := 0; row < spec.height; row++ {
			lo := row * linesize
			if lo+stride > len(src) {
				break
			}
			copy(dst[off+row*stride:], src[lo:lo+stride])
		}
	}

	cb, err := dev.NewCmdBuffer()
	if err != nil {
		return nil, m, err
	}
	defer cb.Destroy()
	if err := cb.Begin(); err != nil {
		return nil, m, err
	}
	cb.BeginBlit(false)
	for i, spec := range s.specs {
		cb.CopyBufToImg(&gpu.BufImgCopy{
			Buf:    s.staging,
			BufOff: s.offsets[i],
			Stride: [2]int64{int64(spec.width), int64(spec.height)},
			Img:    s.tex[i],
			Size:   gpu.Dim3D{Width: spec.width, Height: spec.height, Depth: 1},
		})
	}
	cb.EndBlit()
	if err := cb.End(); err != nil {
		return nil, m, err
	}
	ch := make(chan error, 1)
	dev.Commit([]gpu.CmdBuffer{cb}, ch)
	if err := <-ch; err != nil {
		return nil, m, err
	}
	return s.view[0], m, nil
}

func (s *stagingStrategy) Uninit() {
	for _, v := range s.view {
		v.Destroy()
	}
	for _, t := range s.tex {
		t.Destroy()
	}
	s.view, s.tex = nil, nil
	if s.staging != nil {
		s.staging.Destroy()
		s.staging = nil
	}
}

// opaqueStrategy implements Strategy for hw-opaque formats: Init/
// Uninit only record the platform handle; a real implementation
// would call into EGL/IOSurface/AHardwareBuffer import entry points,
// which are outside this module's reach (no cgo here).
type opaqueStrategy struct {
	handle any
}

func newOpaqueStrategy() Strategy { return &opaqueStrategy{} }

func (s *opaqueStrategy) Init(dev gpu.GPU, f Frame) error {
	s.handle = f.Handle
	return nil
}

func (s *opaqueStrategy) MapFrame(dev gpu.GPU, f Frame) (gpu.TextureView, [3][3]float32, error) {
	var m [3][3]float32
	m[0][0], m[1][1], m[2][2] = 1, 1, 1
	coordMatrix(&m, f)
	return nil, m, nil
}

func (s *opaqueStrategy) Uninit() {}

// coordMatrix folds a Frame's crop rectangle and flip flag into the
// 3x3 coordinate-correction matrix samplers use to recover the
// logical image orientation.
func coordMatrix(m *[3][3]float32, f Frame) {
	sx, sy := float32(1), float32(1)
	ox, oy := float32(0), float32(0)
	if f.Width > 0 && f.Height > 0 && (f.Crop.Width > 0 && f.Crop.Height > 0) {
		sx = float32(f.Crop.Width) / float32(f.Width)
		sy = float32(f.Crop.Height) / float32(f.Height)
		ox = float32(f.Crop.X) / float32(f.Width)
		oy = float32(f.Crop.Y) / float32(f.Height)
	}
	if f.FlipY {
		sy = -sy
		oy = 1 - oy
	}
	m[0][0], m[1][1] = sx, sy
	m[2][0], m[2][1] = ox, oy
}
