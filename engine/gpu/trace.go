package gpu

import (
	"fmt"
	"strings"
)

// TraceBackend is an in-memory Backend used for headless sessions and tests.
// It hands out synthetic handles, records every call, and introspects
// uniforms straight from the GLSL source text so programs behave like linked
// ones.
type TraceBackend struct {
	nextTexture  TextureHandle
	nextProgram  ProgramHandle
	nextGeometry GeometryHandle

	Calls []string

	DrawCalls    uint64
	TextureBinds uint64

	// Uniforms holds the last value set per "program/name" key.
	Uniforms map[string]interface{}

	// FailPrograms simulates compile failures for the named programs.
	FailPrograms map[string]bool

	liveTextures  map[TextureHandle]int // handle -> byte size
	livePrograms  map[ProgramHandle]string
	liveGeometry  map[GeometryHandle]int
	activeProgram string
}

func NewTraceBackend() *TraceBackend {
	return &TraceBackend{
		Uniforms:     make(map[string]interface{}),
		FailPrograms: make(map[string]bool),
		liveTextures: make(map[TextureHandle]int),
		livePrograms: make(map[ProgramHandle]string),
		liveGeometry: make(map[GeometryHandle]int),
	}
}

func (t *TraceBackend) record(format string, args ...interface{}) {
	t.Calls = append(t.Calls, fmt.Sprintf(format, args...))
}

func (t *TraceBackend) Name() string { return "trace" }

// LiveTextureCount reports how many created textures have not been deleted.
func (t *TraceBackend) LiveTextureCount() int { return len(t.liveTextures) }

func (t *TraceBackend) CreateTexture2D(width, height int, pixels []byte, opts TextureOptions) (TextureHandle, error) {
	t.nextTexture++
	t.liveTextures[t.nextTexture] = width * height * 4
	t.record("CreateTexture2D %dx%d -> %d", width, height, t.nextTexture)
	return t.nextTexture, nil
}

func (t *TraceBackend) UpdateTexture2D(handle TextureHandle, width, height int, pixels []byte) error {
	if _, ok := t.liveTextures[handle]; !ok {
		return fmt.Errorf("update of unknown texture %d", handle)
	}
	t.record("UpdateTexture2D %d %dx%d", handle, width, height)
	return nil
}

func (t *TraceBackend) DeleteTexture(handle TextureHandle) {
	delete(t.liveTextures, handle)
	t.record("DeleteTexture %d", handle)
}

func (t *TraceBackend) BindTexture(unit int, handle TextureHandle) {
	t.TextureBinds++
	t.record("BindTexture unit=%d %d", unit, handle)
}

func (t *TraceBackend) CreateProgram(name, vertexSrc, fragmentSrc string) (*ProgramInfo, error) {
	if t.FailPrograms[name] {
		return nil, &CompileError{ProgramName: name, Stage: "fragment", Log: "simulated failure"}
	}
	t.nextProgram++
	info := &ProgramInfo{
		Name:       name,
		Handle:     t.nextProgram,
		Uniforms:   scanUniforms(vertexSrc, fragmentSrc, t.nextProgram),
		Attributes: scanAttributes(vertexSrc),
	}
	t.livePrograms[t.nextProgram] = name
	t.record("CreateProgram %s -> %d", name, t.nextProgram)
	return info, nil
}

func (t *TraceBackend) DeleteProgram(handle ProgramHandle) {
	delete(t.livePrograms, handle)
	t.record("DeleteProgram %d", handle)
}

func (t *TraceBackend) UseProgram(handle ProgramHandle) {
	t.activeProgram = t.livePrograms[handle]
	t.record("UseProgram %d", handle)
}

func (t *TraceBackend) SetUniform(program *ProgramInfo, name string, value interface{}) error {
	if _, ok := program.Uniforms[name]; !ok {
		return fmt.Errorf("unknown uniform %q in program %q", name, program.Name)
	}
	t.Uniforms[program.Name+"/"+name] = value
	return nil
}

func (t *TraceBackend) CreateGeometry(vertices []float32, indices []uint16) (GeometryHandle, error) {
	t.nextGeometry++
	t.liveGeometry[t.nextGeometry] = len(indices)
	t.record("CreateGeometry %d verts %d indices -> %d", len(vertices)/4, len(indices), t.nextGeometry)
	return t.nextGeometry, nil
}

func (t *TraceBackend) DeleteGeometry(handle GeometryHandle) {
	delete(t.liveGeometry, handle)
	t.record("DeleteGeometry %d", handle)
}

func (t *TraceBackend) BindGeometry(handle GeometryHandle) {
	t.record("BindGeometry %d", handle)
}

func (t *TraceBackend) DrawIndexed(indexCount int) {
	t.DrawCalls++
	t.record("DrawIndexed %d", indexCount)
}

func (t *TraceBackend) Viewport(x, y, width, height int) {
	t.record("Viewport %d %d %d %d", x, y, width, height)
}

func (t *TraceBackend) ClearColor(r, g, b, a float32) {
	t.record("ClearColor %.2f %.2f %.2f %.2f", r, g, b, a)
}

func (t *TraceBackend) Clear(color, depth bool) {
	t.record("Clear color=%v depth=%v", color, depth)
}

func (t *TraceBackend) SetBlendEnabled(enabled bool)     { t.record("SetBlendEnabled %v", enabled) }
func (t *TraceBackend) SetBlendFunc(s, d BlendFactor)    { t.record("SetBlendFunc %d %d", s, d) }
func (t *TraceBackend) SetBlendEquation(eq BlendEquation) { t.record("SetBlendEquation %d", eq) }
func (t *TraceBackend) SetDepthTest(enabled bool)        { t.record("SetDepthTest %v", enabled) }
func (t *TraceBackend) SetDepthWrite(enabled bool)       { t.record("SetDepthWrite %v", enabled) }
func (t *TraceBackend) SetDepthFunc(fn CompareFunc)      { t.record("SetDepthFunc %d", fn) }
func (t *TraceBackend) SetStencilTest(enabled bool)      { t.record("SetStencilTest %v", enabled) }
func (t *TraceBackend) SetCullFace(enabled bool)         { t.record("SetCullFace %v", enabled) }

func (t *TraceBackend) SetScissor(enabled bool, x, y, width, height int) {
	t.record("SetScissor %v %d %d %d %d", enabled, x, y, width, height)
}

func (t *TraceBackend) BindFramebuffer(handle FramebufferHandle) {
	t.record("BindFramebuffer %d", handle)
}

// scanUniforms pulls "uniform <type> <name>;" declarations out of both stages
// and assigns sequential locations, mimicking a linker's introspection table.
func scanUniforms(vertexSrc, fragmentSrc string, program ProgramHandle) map[string]UniformInfo {
	out := make(map[string]UniformInfo)
	var loc int32
	for _, src := range []string{vertexSrc, fragmentSrc} {
		for _, line := range strings.Split(src, "\n") {
			fields := strings.Fields(strings.TrimSpace(line))
			if len(fields) < 3 || fields[0] != "uniform" {
				continue
			}
			name := strings.TrimSuffix(fields[2], ";")
			if _, seen := out[name]; seen {
				continue
			}
			out[name] = UniformInfo{Name: name, Kind: glslKind(fields[1]), Location: loc}
			loc++
		}
	}
	return out
}

func scanAttributes(vertexSrc string) map[string]int32 {
	out := make(map[string]int32)
	var loc int32
	for _, line := range strings.Split(vertexSrc, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		// "in vec2 a_position;" (and the WebGL-era "attribute" spelling)
		if len(fields) < 3 || (fields[0] != "in" && fields[0] != "attribute") {
			continue
		}
		name := strings.TrimSuffix(fields[2], ";")
		out[name] = loc
		loc++
	}
	return out
}

func glslKind(typeName string) UniformKind {
	switch typeName {
	case "vec2":
		return UniformVec2
	case "vec3":
		return UniformVec3
	case "vec4":
		return UniformVec4
	case "int", "bool":
		return UniformInt
	case "mat4":
		return UniformMat4
	case "sampler2D":
		return UniformSampler2D
	default:
		return UniformFloat
	}
}
