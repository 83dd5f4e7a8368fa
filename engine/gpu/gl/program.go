package gl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/quartzite/prism/engine/gpu"
)

func compileStage(kind uint32, stageName, src string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logBuf := strings.Repeat("\x00", int(logLength)+1)
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logBuf))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s: %s", stageName, strings.TrimRight(logBuf, "\x00"))
	}
	return shader, nil
}

func linkProgram(name, vertexSrc, fragmentSrc string) (uint32, error) {
	vert, err := compileStage(gl.VERTEX_SHADER, "vertex", vertexSrc)
	if err != nil {
		return 0, &gpu.CompileError{ProgramName: name, Stage: "vertex", Log: err.Error()}
	}
	defer gl.DeleteShader(vert)

	frag, err := compileStage(gl.FRAGMENT_SHADER, "fragment", fragmentSrc)
	if err != nil {
		return 0, &gpu.CompileError{ProgramName: name, Stage: "fragment", Log: err.Error()}
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logBuf := strings.Repeat("\x00", int(logLength)+1)
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logBuf))
		gl.DeleteProgram(program)
		return 0, &gpu.CompileError{ProgramName: name, Stage: "link", Log: strings.TrimRight(logBuf, "\x00")}
	}
	return program, nil
}

// introspectUniforms queries every active uniform once so later SetUniform
// calls dispatch from a map instead of asking the driver.
func introspectUniforms(program uint32) map[string]gpu.UniformInfo {
	var count int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)

	out := make(map[string]gpu.UniformInfo, count)
	buf := make([]uint8, 256)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(program, uint32(i), int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := string(buf[:length])
		// Array uniforms report as "name[0]"; key them by the bare name.
		name = strings.TrimSuffix(name, "[0]")
		location := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
		out[name] = gpu.UniformInfo{
			Name:     name,
			Kind:     uniformKindFromGL(xtype),
			Location: location,
		}
	}
	return out
}

func introspectAttributes(program uint32) map[string]int32 {
	var count int32
	gl.GetProgramiv(program, gl.ACTIVE_ATTRIBUTES, &count)

	out := make(map[string]int32, count)
	buf := make([]uint8, 256)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveAttrib(program, uint32(i), int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := string(buf[:length])
		out[name] = gl.GetAttribLocation(program, gl.Str(name+"\x00"))
	}
	return out
}

func uniformKindFromGL(xtype uint32) gpu.UniformKind {
	switch xtype {
	case gl.FLOAT_VEC2:
		return gpu.UniformVec2
	case gl.FLOAT_VEC3:
		return gpu.UniformVec3
	case gl.FLOAT_VEC4:
		return gpu.UniformVec4
	case gl.INT, gl.BOOL:
		return gpu.UniformInt
	case gl.FLOAT_MAT4:
		return gpu.UniformMat4
	case gl.SAMPLER_2D:
		return gpu.UniformSampler2D
	default:
		return gpu.UniformFloat
	}
}
