// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nope-engine/ngl/gpu"
)

// pipeline is the GL PipelineHandle: a linked program plus
// enough of the vertex-input description to configure a VAO
// lazily on first use (VAOs are bound to a specific set of
// vertex-buffer objects, which are not known until
// SetVertexBuffer, so construction here only builds the
// attribute layout, not the VAO itself).
type pipeline struct {
	prog     uint32
	isComp   bool
	graph    *gpu.GraphState
	comp     *gpu.CompState
	attrs    []vertexAttrLayout
	topology uint32
}

type vertexAttrLayout struct {
	bufferNr int
	location uint32
	format   gpu.VertexFmt
	stride   int32
	offset   uint32
}

func (d *device) NewPipeline(state any) (gpu.PipelineHandle, error) {
	switch s := state.(type) {
	case *gpu.CompState:
		code := s.Func.Code.(*shaderCode)
		stage, err := compileStage(glcore.COMPUTE_SHADER, code.src)
		if err != nil {
			return nil, err
		}
		prog, err := linkProgram(stage)
		if err != nil {
			return nil, err
		}
		return &pipeline{prog: prog, isComp: true, comp: s}, nil

	case *gpu.GraphState:
		vcode := s.VertFunc.Code.(*shaderCode)
		fcode := s.FragFunc.Code.(*shaderCode)
		vs, err := compileStage(glcore.VERTEX_SHADER, vcode.src)
		if err != nil {
			return nil, err
		}
		fs, err := compileStage(glcore.FRAGMENT_SHADER, fcode.src)
		if err != nil {
			glcore.DeleteShader(vs)
			return nil, err
		}
		prog, err := linkProgram(vs, fs)
		if err != nil {
			return nil, err
		}
		return &pipeline{
			prog: prog, graph: s,
			attrs:    buildVertexAttrs(s.Input),
			topology: topology(s.Topology),
		}, nil

	default:
		return nil, gpu.NewError("new_pipeline", gpu.InvalidArg, nil)
	}
}

// buildVertexAttrs assigns sequential attribute locations in
// declaration order and packs offsets within each buffer
// (Nr) group tightly. The low-level gpu.VertexIn value does
// not carry an explicit location or offset (see
// gpu.NewPipeline, which only forwards Format/Stride/Nr), so
// this is the most direct reconstruction available to a
// backend: shaders are expected to declare attributes in the
// same order the higher-level VertexBufferLayout lists them.
func buildVertexAttrs(in []gpu.VertexIn) []vertexAttrLayout {
	offsets := map[int]uint32{}
	attrs := make([]vertexAttrLayout, len(in))
	for i, v := range in {
		off := offsets[v.Nr]
		attrs[i] = vertexAttrLayout{bufferNr: v.Nr, location: uint32(i), format: v.Format, stride: int32(v.Stride), offset: off}
		offsets[v.Nr] = off + uint32(vertexFormatSize(v.Format))
	}
	return attrs
}

func vertexFormatSize(f gpu.VertexFmt) int {
	switch f {
	case gpu.Int8, gpu.UInt8:
		return 1
	case gpu.Int8x2, gpu.UInt8x2, gpu.Int16, gpu.UInt16:
		return 2
	case gpu.Int8x3, gpu.UInt8x3:
		return 3
	case gpu.Int8x4, gpu.UInt8x4, gpu.Int16x2, gpu.UInt16x2, gpu.Int32, gpu.UInt32, gpu.Float32:
		return 4
	case gpu.Int16x3, gpu.UInt16x3:
		return 6
	case gpu.Int16x4, gpu.UInt16x4, gpu.Int32x2, gpu.UInt32x2, gpu.Float32x2:
		return 8
	case gpu.Int32x3, gpu.UInt32x3, gpu.Float32x3:
		return 12
	case gpu.Int32x4, gpu.UInt32x4, gpu.Float32x4:
		return 16
	default:
		return 4
	}
}

func vertexGLType(f gpu.VertexFmt) (xtype uint32, count int32, normalized bool, isInt bool) {
	switch f {
	case gpu.Int8:
		return glcore.BYTE, 1, false, true
	case gpu.Int8x2:
		return glcore.BYTE, 2, false, true
	case gpu.Int8x3:
		return glcore.BYTE, 3, false, true
	case gpu.Int8x4:
		return glcore.BYTE, 4, false, true
	case gpu.Int16:
		return glcore.SHORT, 1, false, true
	case gpu.Int16x2:
		return glcore.SHORT, 2, false, true
	case gpu.Int16x3:
		return glcore.SHORT, 3, false, true
	case gpu.Int16x4:
		return glcore.SHORT, 4, false, true
	case gpu.Int32:
		return glcore.INT, 1, false, true
	case gpu.Int32x2:
		return glcore.INT, 2, false, true
	case gpu.Int32x3:
		return glcore.INT, 3, false, true
	case gpu.Int32x4:
		return glcore.INT, 4, false, true
	case gpu.UInt8:
		return glcore.UNSIGNED_BYTE, 1, false, true
	case gpu.UInt8x2:
		return glcore.UNSIGNED_BYTE, 2, false, true
	case gpu.UInt8x3:
		return glcore.UNSIGNED_BYTE, 3, false, true
	case gpu.UInt8x4:
		return glcore.UNSIGNED_BYTE, 4, false, true
	case gpu.UInt16:
		return glcore.UNSIGNED_SHORT, 1, false, true
	case gpu.UInt16x2:
		return glcore.UNSIGNED_SHORT, 2, false, true
	case gpu.UInt16x3:
		return glcore.UNSIGNED_SHORT, 3, false, true
	case gpu.UInt16x4:
		return glcore.UNSIGNED_SHORT, 4, false, true
	case gpu.UInt32:
		return glcore.UNSIGNED_INT, 1, false, true
	case gpu.UInt32x2:
		return glcore.UNSIGNED_INT, 2, false, true
	case gpu.UInt32x3:
		return glcore.UNSIGNED_INT, 3, false, true
	case gpu.UInt32x4:
		return glcore.UNSIGNED_INT, 4, false, true
	case gpu.Float32:
		return glcore.FLOAT, 1, false, false
	case gpu.Float32x2:
		return glcore.FLOAT, 2, false, false
	case gpu.Float32x3:
		return glcore.FLOAT, 3, false, false
	default:
		return glcore.FLOAT, 4, false, false
	}
}

func topology(t gpu.Topology) uint32 {
	switch t {
	case gpu.TPoint:
		return glcore.POINTS
	case gpu.TLine:
		return glcore.LINES
	case gpu.TLnStrip:
		return glcore.LINE_STRIP
	case gpu.TTriStrip:
		return glcore.TRIANGLE_STRIP
	default:
		return glcore.TRIANGLES
	}
}

func (p *pipeline) Destroy() {
	if p.prog != 0 {
		glcore.DeleteProgram(p.prog)
		p.prog = 0
	}
}
