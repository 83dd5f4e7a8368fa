package renderer

import (
	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu"
	"github.com/quartzite/prism/engine/math"
	"github.com/quartzite/prism/engine/media"
	"github.com/quartzite/prism/engine/scene"
	"github.com/quartzite/prism/engine/systems"
)

type Config struct {
	// ClearColor paints the backbuffer before drawing when AutoClear is on.
	ClearColor math.Vec4
	AutoClear  bool
	// BatchByShader reorders draws so nodes sharing a program run
	// back to back, cutting program switches. Grouping keys appear in
	// first-use order, and within a group the scene order holds, so
	// stacking stays stable.
	BatchByShader bool
}

func DefaultConfig() Config {
	return Config{
		ClearColor: math.NewVec4(0, 0, 0, 1),
		AutoClear:  true,
	}
}

// Stats counts what one Render call actually issued.
type Stats struct {
	DrawCalls    int
	Triangles    int
	TextureBinds int
	NodesDrawn   int
	NodesSkipped int
}

/**
 * @brief Draws a scene through the backend, one pass, back to front.
 *
 * The renderer owns no scene state. It resolves each node's texture through
 * the registered media sources and its shader through the shader system,
 * skipping nodes whose resources are missing or broken so a bad clip never
 * takes the frame down with it.
 */
type Renderer struct {
	config  Config
	backend gpu.Backend
	state   *gpu.RenderState
	systems *systems.SystemManager

	sources map[string]media.Source

	width  int
	height int

	// warned holds node/resource pairs already logged, one line per problem
	// instead of one per frame.
	warned map[string]struct{}

	lastStats Stats
}

func New(config Config, backend gpu.Backend, sys *systems.SystemManager) *Renderer {
	return &Renderer{
		config:  config,
		backend: backend,
		state:   gpu.NewRenderState(backend),
		systems: sys,
		sources: make(map[string]media.Source),
		warned:  make(map[string]struct{}),
	}
}

// RegisterSource makes a media source resolvable by texture key.
func (r *Renderer) RegisterSource(key string, src media.Source) {
	r.sources[key] = src
}

// UnregisterSource removes and disposes the source for key.
func (r *Renderer) UnregisterSource(key string) {
	if src, ok := r.sources[key]; ok {
		src.Dispose()
		delete(r.sources, key)
	}
}

func (r *Renderer) Source(key string) media.Source { return r.sources[key] }

func (r *Renderer) Resize(width, height int) {
	r.width = width
	r.height = height
}

func (r *Renderer) Size() (int, int) { return r.width, r.height }

// State exposes the shadowed render state, mostly for tests and debug HUDs.
func (r *Renderer) State() *gpu.RenderState { return r.state }

func (r *Renderer) LastStats() Stats { return r.lastStats }

// HandleContextLoss drops every GPU handle and recompiles the builtin
// shaders against the new context. Texture reloads happen lazily as sources
// are asked for frames again.
func (r *Renderer) HandleContextLoss() error {
	r.state.Invalidate()
	r.systems.Invalidate()
	r.warned = make(map[string]struct{})
	return r.systems.ShaderSystem.RegisterBuiltins()
}

// Render draws the scene as of time t. Video sources get ticked first so
// freshly decoded frames land in this frame, not the next one.
func (r *Renderer) Render(sm *scene.Manager, t float64, delta float64) Stats {
	r.systems.ShaderSystem.Update()

	for _, src := range r.sources {
		if ticker, ok := src.(media.Ticker); ok {
			ticker.Tick(delta)
		}
	}

	stats := Stats{}
	r.state.Viewport(0, 0, r.width, r.height)
	if r.config.AutoClear {
		c := r.config.ClearColor
		r.backend.ClearColor(c.X, c.Y, c.Z, c.W)
		r.backend.Clear(true, true)
	}
	r.state.SetDepthTest(false)
	r.state.SetCullFace(false)
	r.state.SetBlendEnabled(true)

	sm.UpdateSceneGraph()
	cam := sm.Camera()
	cam.SetViewportSize(r.width, r.height)
	viewProj := cam.GetViewProjectionMatrix()

	nodes := sm.VisibleNodesAt(t)
	if r.config.BatchByShader {
		nodes = groupByShader(nodes, r.resolveShaderName)
	}

	for _, node := range nodes {
		if r.drawNode(sm, node, t, viewProj, &stats) {
			stats.NodesDrawn++
		} else {
			stats.NodesSkipped++
		}
	}

	r.lastStats = stats
	return stats
}

// resolveShaderName picks the program for a node: explicit override first,
// then whatever the effect stack demands, then the default.
func (r *Renderer) resolveShaderName(node *scene.RenderNode) string {
	if name := node.ShaderName(); name != "" {
		return name
	}
	if name := node.Effects().RequiredShader(); name != "" {
		return name
	}
	return systems.DefaultShaderName
}

func (r *Renderer) drawNode(sm *scene.Manager, node *scene.RenderNode, t float64, viewProj math.Mat4, stats *Stats) bool {
	shaderName := r.resolveShaderName(node)
	info := r.systems.ShaderSystem.Get(shaderName)
	if info == nil {
		r.warnOnce(node.ID()+"/shader", "node %q: shader %q unavailable, skipping", node.ID(), shaderName)
		return false
	}

	src, ok := r.sources[node.TextureKey()]
	if !ok {
		r.warnOnce(node.ID()+"/source", "node %q: no media source for %q, skipping", node.ID(), node.TextureKey())
		return false
	}
	frame, err := src.TextureAt(node.MediaTime(t))
	if err != nil {
		r.warnOnce(node.ID()+"/frame", "node %q: %v, skipping", node.ID(), err)
		return false
	}
	if frame == nil || frame.Texture == nil || !frame.Texture.Ready() {
		// Not ready is routine for video right after a seek.
		return false
	}

	layerOpacity := float32(1)
	if layer, err := sm.Layer(node.LayerID()); err == nil {
		layerOpacity = layer.Opacity()
	}

	r.state.UseProgram(info.Handle)
	r.state.ApplyBlendMode(node.BlendMode())

	shaders := r.systems.ShaderSystem
	shaders.SetUniform(info, "u_view_projection", viewProj)
	shaders.SetUniform(info, "u_model", node.WorldMatrix())
	shaders.SetUniform(info, "u_opacity", node.WorldOpacity()*layerOpacity)
	if frame.Texture.Width() > 0 && frame.Texture.Height() > 0 {
		shaders.SetUniform(info, "u_texel_size", math.NewVec2(
			1/float32(frame.Texture.Width()),
			1/float32(frame.Texture.Height()),
		))
	}
	for name, value := range node.Effects().AllUniforms() {
		shaders.SetUniform(info, name, value)
	}
	for name, value := range node.Params() {
		shaders.SetUniform(info, name, value)
	}

	frame.Texture.Bind(0)
	stats.TextureBinds++
	shaders.SetUniform(info, "u_texture", 0)

	geometry, indexCount := r.systems.GeometrySystem.Quad()
	if name := node.GeometryID(); name != "" {
		if handle, count, ok := r.systems.GeometrySystem.Lookup(name); ok {
			geometry, indexCount = handle, count
		} else {
			r.warnOnce(node.ID()+"/geometry", "node %q: geometry %q not registered, using quad", node.ID(), name)
		}
	}
	r.backend.BindGeometry(geometry)
	r.backend.DrawIndexed(indexCount)

	stats.DrawCalls++
	stats.Triangles += indexCount / 3
	return true
}

func (r *Renderer) warnOnce(key, msg string, args ...interface{}) {
	if _, ok := r.warned[key]; ok {
		return
	}
	r.warned[key] = struct{}{}
	core.LogWarn(msg, args...)
}

// Shutdown disposes every registered source. The systems are owned by the
// caller and shut down separately.
func (r *Renderer) Shutdown() {
	for key, src := range r.sources {
		src.Dispose()
		delete(r.sources, key)
	}
}

// groupByShader stably reorders nodes so equal shader names sit together,
// groups ordered by first appearance.
func groupByShader(nodes []*scene.RenderNode, nameOf func(*scene.RenderNode) string) []*scene.RenderNode {
	if len(nodes) < 2 {
		return nodes
	}
	order := make([]string, 0, 4)
	groups := make(map[string][]*scene.RenderNode)
	for _, node := range nodes {
		name := nameOf(node)
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], node)
	}
	out := make([]*scene.RenderNode, 0, len(nodes))
	for _, name := range order {
		out = append(out, groups[name]...)
	}
	return out
}
