package gpu

// BlendMode is the closed set of compositing modes a node can request.
type BlendMode int

const (
	BlendModeNormal BlendMode = iota
	BlendModeAdd
	BlendModeMultiply
	BlendModeScreen
	BlendModeOverlay
)

func (m BlendMode) String() string {
	switch m {
	case BlendModeAdd:
		return "add"
	case BlendModeMultiply:
		return "multiply"
	case BlendModeScreen:
		return "screen"
	case BlendModeOverlay:
		return "overlay"
	default:
		return "normal"
	}
}

// ParseBlendMode maps a mode name to its BlendMode; unknown names fall back
// to normal.
func ParseBlendMode(s string) BlendMode {
	switch s {
	case "add":
		return BlendModeAdd
	case "multiply":
		return BlendModeMultiply
	case "screen":
		return BlendModeScreen
	case "overlay":
		return BlendModeOverlay
	default:
		return BlendModeNormal
	}
}

type blendPreset struct {
	src BlendFactor
	dst BlendFactor
	eq  BlendEquation
}

// Fixed factor/equation pairs per mode. Overlay cannot be expressed with
// fixed-function factors; it blends like normal and the heavy lifting happens
// in the fragment shader.
var blendPresets = map[BlendMode]blendPreset{
	BlendModeNormal:   {BlendSrcAlpha, BlendOneMinusSrcAlpha, BlendEqAdd},
	BlendModeAdd:      {BlendSrcAlpha, BlendOne, BlendEqAdd},
	BlendModeMultiply: {BlendDstColor, BlendOneMinusSrcAlpha, BlendEqAdd},
	BlendModeScreen:   {BlendOne, BlendOneMinusSrcColor, BlendEqAdd},
	BlendModeOverlay:  {BlendSrcAlpha, BlendOneMinusSrcAlpha, BlendEqAdd},
}

// StateCounters count the GPU state calls actually issued, per category.
// Redundant requests are elided and do not count.
type StateCounters struct {
	Blend       uint64
	Depth       uint64
	Stencil     uint64
	Scissor     uint64
	Viewport    uint64
	Cull        uint64
	Program     uint64
	Framebuffer uint64
}

func (c StateCounters) Total() uint64 {
	return c.Blend + c.Depth + c.Stencil + c.Scissor + c.Viewport + c.Cull + c.Program + c.Framebuffer
}

type scissorBox struct {
	enabled    bool
	x, y, w, h int
}

type viewportBox struct {
	x, y, w, h int
}

// RenderState shadows every piece of pipeline state and only forwards a call
// to the backend when the requested value differs from the shadowed one.
type RenderState struct {
	backend Backend

	blendEnabled bool
	blendSrc     BlendFactor
	blendDst     BlendFactor
	blendEq      BlendEquation
	blendValid   bool
	blendFnValid bool
	blendEqValid bool

	depthTest    bool
	depthWrite   bool
	depthFn      CompareFunc
	depthValid   bool
	depthWValid  bool
	depthFnValid bool

	stencilTest  bool
	stencilValid bool

	scissor      scissorBox
	scissorValid bool

	viewport      viewportBox
	viewportValid bool

	cullFace  bool
	cullValid bool

	program      ProgramHandle
	programValid bool

	framebuffer FramebufferHandle
	fbValid     bool

	counters StateCounters
}

func NewRenderState(backend Backend) *RenderState {
	return &RenderState{backend: backend}
}

// Invalidate forgets all shadowed state. Call after a context restore so the
// next request of every category reaches the GPU again.
func (rs *RenderState) Invalidate() {
	counters := rs.counters
	backend := rs.backend
	*rs = RenderState{backend: backend, counters: counters}
}

func (rs *RenderState) Counters() StateCounters {
	return rs.counters
}

func (rs *RenderState) SetBlendEnabled(enabled bool) {
	if rs.blendValid && rs.blendEnabled == enabled {
		return
	}
	rs.blendEnabled = enabled
	rs.blendValid = true
	rs.counters.Blend++
	rs.backend.SetBlendEnabled(enabled)
}

func (rs *RenderState) SetBlendFunc(src, dst BlendFactor) {
	if rs.blendFnValid && rs.blendSrc == src && rs.blendDst == dst {
		return
	}
	rs.blendSrc = src
	rs.blendDst = dst
	rs.blendFnValid = true
	rs.counters.Blend++
	rs.backend.SetBlendFunc(src, dst)
}

func (rs *RenderState) SetBlendEquation(eq BlendEquation) {
	if rs.blendEqValid && rs.blendEq == eq {
		return
	}
	rs.blendEq = eq
	rs.blendEqValid = true
	rs.counters.Blend++
	rs.backend.SetBlendEquation(eq)
}

// ApplyBlendMode enables blending and installs the preset factor/equation
// pair for the given mode.
func (rs *RenderState) ApplyBlendMode(mode BlendMode) {
	preset, ok := blendPresets[mode]
	if !ok {
		preset = blendPresets[BlendModeNormal]
	}
	rs.SetBlendEnabled(true)
	rs.SetBlendFunc(preset.src, preset.dst)
	rs.SetBlendEquation(preset.eq)
}

func (rs *RenderState) SetDepthTest(enabled bool) {
	if rs.depthValid && rs.depthTest == enabled {
		return
	}
	rs.depthTest = enabled
	rs.depthValid = true
	rs.counters.Depth++
	rs.backend.SetDepthTest(enabled)
}

func (rs *RenderState) SetDepthWrite(enabled bool) {
	if rs.depthWValid && rs.depthWrite == enabled {
		return
	}
	rs.depthWrite = enabled
	rs.depthWValid = true
	rs.counters.Depth++
	rs.backend.SetDepthWrite(enabled)
}

func (rs *RenderState) SetDepthFunc(fn CompareFunc) {
	if rs.depthFnValid && rs.depthFn == fn {
		return
	}
	rs.depthFn = fn
	rs.depthFnValid = true
	rs.counters.Depth++
	rs.backend.SetDepthFunc(fn)
}

func (rs *RenderState) SetStencilTest(enabled bool) {
	if rs.stencilValid && rs.stencilTest == enabled {
		return
	}
	rs.stencilTest = enabled
	rs.stencilValid = true
	rs.counters.Stencil++
	rs.backend.SetStencilTest(enabled)
}

func (rs *RenderState) SetScissor(enabled bool, x, y, w, h int) {
	box := scissorBox{enabled: enabled, x: x, y: y, w: w, h: h}
	if rs.scissorValid && rs.scissor == box {
		return
	}
	rs.scissor = box
	rs.scissorValid = true
	rs.counters.Scissor++
	rs.backend.SetScissor(enabled, x, y, w, h)
}

func (rs *RenderState) Viewport(x, y, w, h int) {
	box := viewportBox{x: x, y: y, w: w, h: h}
	if rs.viewportValid && rs.viewport == box {
		return
	}
	rs.viewport = box
	rs.viewportValid = true
	rs.counters.Viewport++
	rs.backend.Viewport(x, y, w, h)
}

func (rs *RenderState) SetCullFace(enabled bool) {
	if rs.cullValid && rs.cullFace == enabled {
		return
	}
	rs.cullFace = enabled
	rs.cullValid = true
	rs.counters.Cull++
	rs.backend.SetCullFace(enabled)
}

func (rs *RenderState) UseProgram(handle ProgramHandle) {
	if rs.programValid && rs.program == handle {
		return
	}
	rs.program = handle
	rs.programValid = true
	rs.counters.Program++
	rs.backend.UseProgram(handle)
}

func (rs *RenderState) BindFramebuffer(handle FramebufferHandle) {
	if rs.fbValid && rs.framebuffer == handle {
		return
	}
	rs.framebuffer = handle
	rs.fbValid = true
	rs.counters.Framebuffer++
	rs.backend.BindFramebuffer(handle)
}
