package gl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu"
	"github.com/quartzite/prism/engine/math"
)

type geometryEntry struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

// Backend implements gpu.Backend on OpenGL 3.3 core. A current GL context is
// required on the calling thread; the platform layer provides it.
type Backend struct {
	geometries   map[gpu.GeometryHandle]*geometryEntry
	nextGeometry gpu.GeometryHandle
}

func New() (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl init: %w", err)
	}
	version := gl.GoStr(gl.GetString(gl.VERSION))
	core.LogInfo("OpenGL backend ready, version %s", version)
	return &Backend{
		geometries: make(map[gpu.GeometryHandle]*geometryEntry),
	}, nil
}

func (b *Backend) Name() string { return "opengl" }

func (b *Backend) CreateTexture2D(width, height int, pixels []byte, opts gpu.TextureOptions) (gpu.TextureHandle, error) {
	var handle uint32
	gl.GenTextures(1, &handle)
	gl.BindTexture(gl.TEXTURE_2D, handle)

	filter := int32(gl.NEAREST)
	if opts.FilterLinear {
		filter = gl.LINEAR
	}
	wrap := int32(gl.REPEAT)
	if opts.WrapClamp {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	if len(pixels) > 0 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}
	return gpu.TextureHandle(handle), nil
}

func (b *Backend) UpdateTexture2D(handle gpu.TextureHandle, width, height int, pixels []byte) error {
	gl.BindTexture(gl.TEXTURE_2D, uint32(handle))
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return nil
}

func (b *Backend) DeleteTexture(handle gpu.TextureHandle) {
	h := uint32(handle)
	gl.DeleteTextures(1, &h)
}

func (b *Backend) BindTexture(unit int, handle gpu.TextureHandle) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(handle))
}

func (b *Backend) CreateProgram(name, vertexSrc, fragmentSrc string) (*gpu.ProgramInfo, error) {
	program, err := linkProgram(name, vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &gpu.ProgramInfo{
		Name:       name,
		Handle:     gpu.ProgramHandle(program),
		Uniforms:   introspectUniforms(program),
		Attributes: introspectAttributes(program),
	}, nil
}

func (b *Backend) DeleteProgram(handle gpu.ProgramHandle) {
	gl.DeleteProgram(uint32(handle))
}

func (b *Backend) UseProgram(handle gpu.ProgramHandle) {
	gl.UseProgram(uint32(handle))
}

// SetUniform assumes the owning program is currently in use; the renderer
// binds programs through the state cache before uploading uniforms.
func (b *Backend) SetUniform(program *gpu.ProgramInfo, name string, value interface{}) error {
	info, ok := program.Uniforms[name]
	if !ok {
		return fmt.Errorf("unknown uniform %q in program %q", name, program.Name)
	}

	switch info.Kind {
	case gpu.UniformFloat:
		v, err := toFloat32(value)
		if err != nil {
			return fmt.Errorf("uniform %q: %w", name, err)
		}
		gl.Uniform1f(info.Location, v)
	case gpu.UniformVec2:
		v, ok := value.(math.Vec2)
		if !ok {
			return fmt.Errorf("uniform %q: expected math.Vec2, got %T", name, value)
		}
		gl.Uniform2f(info.Location, v.X, v.Y)
	case gpu.UniformVec3:
		v, ok := value.(math.Vec3)
		if !ok {
			return fmt.Errorf("uniform %q: expected math.Vec3, got %T", name, value)
		}
		gl.Uniform3f(info.Location, v.X, v.Y, v.Z)
	case gpu.UniformVec4:
		v, ok := value.(math.Vec4)
		if !ok {
			return fmt.Errorf("uniform %q: expected math.Vec4, got %T", name, value)
		}
		gl.Uniform4f(info.Location, v.X, v.Y, v.Z, v.W)
	case gpu.UniformInt, gpu.UniformSampler2D:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("uniform %q: expected int, got %T", name, value)
		}
		gl.Uniform1i(info.Location, int32(v))
	case gpu.UniformMat4:
		v, ok := value.(math.Mat4)
		if !ok {
			return fmt.Errorf("uniform %q: expected math.Mat4, got %T", name, value)
		}
		gl.UniformMatrix4fv(info.Location, 1, false, &v.Data[0])
	default:
		return fmt.Errorf("uniform %q: unsupported kind %d", name, info.Kind)
	}
	return nil
}

func toFloat32(value interface{}) (float32, error) {
	switch v := value.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	case int:
		return float32(v), nil
	default:
		return 0, fmt.Errorf("expected float, got %T", value)
	}
}

func (b *Backend) CreateGeometry(vertices []float32, indices []uint16) (gpu.GeometryHandle, error) {
	entry := &geometryEntry{indexCount: int32(len(indices))}

	gl.GenVertexArrays(1, &entry.vao)
	gl.BindVertexArray(entry.vao)

	gl.GenBuffers(1, &entry.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, entry.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &entry.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, entry.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, gl.Ptr(indices), gl.STATIC_DRAW)

	// Interleaved layout: position xy, texcoord uv.
	stride := int32(4 * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 2*4)

	gl.BindVertexArray(0)

	b.nextGeometry++
	b.geometries[b.nextGeometry] = entry
	return b.nextGeometry, nil
}

func (b *Backend) DeleteGeometry(handle gpu.GeometryHandle) {
	entry, ok := b.geometries[handle]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &entry.vbo)
	gl.DeleteBuffers(1, &entry.ebo)
	gl.DeleteVertexArrays(1, &entry.vao)
	delete(b.geometries, handle)
}

func (b *Backend) BindGeometry(handle gpu.GeometryHandle) {
	entry, ok := b.geometries[handle]
	if !ok {
		core.LogWarn("bind of unknown geometry %d", handle)
		return
	}
	gl.BindVertexArray(entry.vao)
}

func (b *Backend) DrawIndexed(indexCount int) {
	gl.DrawElements(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_SHORT, nil)
}

func (b *Backend) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (b *Backend) ClearColor(r, g, bl, a float32) {
	gl.ClearColor(r, g, bl, a)
}

func (b *Backend) Clear(color, depth bool) {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (b *Backend) SetBlendEnabled(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
	} else {
		gl.Disable(gl.BLEND)
	}
}

func (b *Backend) SetBlendFunc(src, dst gpu.BlendFactor) {
	gl.BlendFunc(blendFactorToGL(src), blendFactorToGL(dst))
}

func (b *Backend) SetBlendEquation(eq gpu.BlendEquation) {
	switch eq {
	case gpu.BlendEqSubtract:
		gl.BlendEquation(gl.FUNC_SUBTRACT)
	case gpu.BlendEqReverseSubtract:
		gl.BlendEquation(gl.FUNC_REVERSE_SUBTRACT)
	default:
		gl.BlendEquation(gl.FUNC_ADD)
	}
}

func (b *Backend) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (b *Backend) SetDepthWrite(enabled bool) {
	gl.DepthMask(enabled)
}

func (b *Backend) SetDepthFunc(fn gpu.CompareFunc) {
	switch fn {
	case gpu.CompareLessEqual:
		gl.DepthFunc(gl.LEQUAL)
	case gpu.CompareAlways:
		gl.DepthFunc(gl.ALWAYS)
	default:
		gl.DepthFunc(gl.LESS)
	}
}

func (b *Backend) SetStencilTest(enabled bool) {
	if enabled {
		gl.Enable(gl.STENCIL_TEST)
	} else {
		gl.Disable(gl.STENCIL_TEST)
	}
}

func (b *Backend) SetScissor(enabled bool, x, y, width, height int) {
	if enabled {
		gl.Enable(gl.SCISSOR_TEST)
		gl.Scissor(int32(x), int32(y), int32(width), int32(height))
	} else {
		gl.Disable(gl.SCISSOR_TEST)
	}
}

func (b *Backend) SetCullFace(enabled bool) {
	if enabled {
		gl.Enable(gl.CULL_FACE)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
}

func (b *Backend) BindFramebuffer(handle gpu.FramebufferHandle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(handle))
}

func blendFactorToGL(f gpu.BlendFactor) uint32 {
	switch f {
	case gpu.BlendZero:
		return gl.ZERO
	case gpu.BlendOne:
		return gl.ONE
	case gpu.BlendSrcAlpha:
		return gl.SRC_ALPHA
	case gpu.BlendOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gpu.BlendDstColor:
		return gl.DST_COLOR
	case gpu.BlendOneMinusSrcColor:
		return gl.ONE_MINUS_SRC_COLOR
	default:
		return gl.ONE
	}
}
