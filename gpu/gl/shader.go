// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import (
	"strings"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nope-engine/ngl/gpu"
)

// shaderCode holds GLSL source bytes. Shader cross-
// compilation is out of scope: data is assumed to
// already be valid GLSL for this context's version, produced
// by the external shader-source collaborator. Compilation is
// deferred to pipeline creation, where the stage (vertex,
// fragment or compute) is known.
type shaderCode struct {
	src string
}

func (d *device) NewShaderCode(data []byte) (gpu.ShaderCode, error) {
	return &shaderCode{src: string(data)}, nil
}

func (s *shaderCode) Destroy() {}

func compileStage(stage uint32, src string) (uint32, error) {
	id := glcore.CreateShader(stage)
	csrc, free := glcore.Strs(src + "\x00")
	glcore.ShaderSource(id, 1, csrc, nil)
	free()
	glcore.CompileShader(id)
	var ok int32
	glcore.GetShaderiv(id, glcore.COMPILE_STATUS, &ok)
	if ok == glcore.FALSE {
		var logLen int32
		glcore.GetShaderiv(id, glcore.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		glcore.GetShaderInfoLog(id, logLen, nil, glcore.Str(log))
		glcore.DeleteShader(id)
		return 0, gpu.NewError("new_pipeline", gpu.InvalidData, errCompile(log))
	}
	return id, nil
}

type errCompile string

func (e errCompile) Error() string { return "gl: shader compile failed: " + string(e) }

func linkProgram(stages ...uint32) (uint32, error) {
	prog := glcore.CreateProgram()
	for _, s := range stages {
		glcore.AttachShader(prog, s)
	}
	glcore.LinkProgram(prog)
	for _, s := range stages {
		glcore.DetachShader(prog, s)
		glcore.DeleteShader(s)
	}
	var ok int32
	glcore.GetProgramiv(prog, glcore.LINK_STATUS, &ok)
	if ok == glcore.FALSE {
		var logLen int32
		glcore.GetProgramiv(prog, glcore.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		glcore.GetProgramInfoLog(prog, logLen, nil, glcore.Str(log))
		glcore.DeleteProgram(prog)
		return 0, gpu.NewError("new_pipeline", gpu.InvalidData, errCompile(log))
	}
	return prog, nil
}
