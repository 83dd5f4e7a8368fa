package gpu

import "fmt"

type (
	TextureHandle     uint32
	ProgramHandle     uint32
	GeometryHandle    uint32
	FramebufferHandle uint32
)

// NullHandle marks an unbound resource. Handle 0 doubles as the default
// framebuffer when passed to BindFramebuffer.
const NullHandle = 0

// TextureOptions configure filtering and wrapping at creation time.
type TextureOptions struct {
	FilterLinear bool
	WrapClamp    bool
}

// DefaultTextureOptions are what media sources use unless told otherwise.
func DefaultTextureOptions() TextureOptions {
	return TextureOptions{FilterLinear: true, WrapClamp: true}
}

// UniformKind is the introspected base type of a shader uniform.
type UniformKind int

const (
	UniformFloat UniformKind = iota
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformMat4
	UniformSampler2D
)

// UniformInfo describes one declared uniform of a linked program.
type UniformInfo struct {
	Name     string
	Kind     UniformKind
	Location int32
}

// ProgramInfo is the result of compiling and linking a shader pair: the
// program handle plus the attribute and uniform tables introspected once at
// link time so later lookups never hit the driver.
type ProgramInfo struct {
	Name       string
	Handle     ProgramHandle
	Uniforms   map[string]UniformInfo
	Attributes map[string]int32
}

// CompileError reports a shader stage that failed to compile or link. It is a
// structured error so callers can log it and mark the program unrenderable
// instead of aborting the frame.
type CompileError struct {
	ProgramName string
	Stage       string
	Log         string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader %q: %s stage failed: %s", e.ProgramName, e.Stage, e.Log)
}

type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusSrcColor
)

type BlendEquation int

const (
	BlendEqAdd BlendEquation = iota
	BlendEqSubtract
	BlendEqReverseSubtract
)

type CompareFunc int

const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareAlways
)

// Backend is the seam between the engine and a concrete GPU API. All calls
// happen on the render thread; implementations do not need to be safe for
// concurrent use.
type Backend interface {
	Name() string

	CreateTexture2D(width, height int, pixels []byte, opts TextureOptions) (TextureHandle, error)
	UpdateTexture2D(handle TextureHandle, width, height int, pixels []byte) error
	DeleteTexture(handle TextureHandle)
	BindTexture(unit int, handle TextureHandle)

	CreateProgram(name, vertexSrc, fragmentSrc string) (*ProgramInfo, error)
	DeleteProgram(handle ProgramHandle)
	UseProgram(handle ProgramHandle)
	// SetUniform uploads a value to a named uniform, dispatching on the
	// introspected kind. Unknown names return an error; callers decide
	// whether that is worth more than a warning.
	SetUniform(program *ProgramInfo, name string, value interface{}) error

	// CreateGeometry takes interleaved position(xy)+texcoord(uv) vertices.
	CreateGeometry(vertices []float32, indices []uint16) (GeometryHandle, error)
	DeleteGeometry(handle GeometryHandle)
	BindGeometry(handle GeometryHandle)
	DrawIndexed(indexCount int)

	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	Clear(color, depth bool)

	SetBlendEnabled(enabled bool)
	SetBlendFunc(src, dst BlendFactor)
	SetBlendEquation(eq BlendEquation)
	SetDepthTest(enabled bool)
	SetDepthWrite(enabled bool)
	SetDepthFunc(fn CompareFunc)
	SetStencilTest(enabled bool)
	SetScissor(enabled bool, x, y, width, height int)
	SetCullFace(enabled bool)
	BindFramebuffer(handle FramebufferHandle)
}
