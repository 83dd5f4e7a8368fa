package player

import (
	"fmt"
	"strings"

	"github.com/quartzite/prism/engine/camera"
	"github.com/quartzite/prism/engine/config"
	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu"
	"github.com/quartzite/prism/engine/math"
	"github.com/quartzite/prism/engine/media"
	"github.com/quartzite/prism/engine/renderer"
	"github.com/quartzite/prism/engine/scene"
	"github.com/quartzite/prism/engine/systems"
)

// Clip is the host's description of one timeline clip. Media is addressed by
// URL or path; the host resolves anything exotic before it gets here.
type Clip struct {
	ID   string
	Kind scene.NodeKind
	URL  string

	StartTime float64
	Duration  float64
	TrimIn    float64
	TrimOut   float64

	Position  math.Vec3
	Scale     math.Vec2
	Rotation  float32
	Opacity   float32
	Size      math.Vec2
	BlendMode gpu.BlendMode

	// Text clips.
	Text  string
	Style media.TextStyle

	// Shape clips.
	Shape media.ShapeSpec
}

// Track is an ordered lane of clips; tracks map one to one onto layers.
type Track struct {
	ID      string
	Name    string
	Visible bool
	Clips   []Clip
}

// DecoderFactory opens a host video decode pipeline for a URL.
type DecoderFactory func(url string) (media.Decoder, error)

type Options struct {
	Config  config.Config
	Backend gpu.Backend
	// Decoders is required only when tracks contain video clips.
	Decoders DecoderFactory
}

/**
 * @brief Host-facing playback facade.
 *
 * One Player owns one scene, one renderer and one loop. The host pumps it
 * from its display loop (Step or Tick) and pushes timeline state through
 * UpdateScene; everything else is playback transport.
 */
type Player struct {
	config   config.Config
	backend  gpu.Backend
	bus      *core.EventBus
	systems  *systems.SystemManager
	scene    *scene.Manager
	renderer *renderer.Renderer
	loop     *renderer.Loop
	decoders DecoderFactory

	playing    bool
	current    float64
	duration   float64
	frameDelta float64

	// clipNodes remembers which clip ids are live so UpdateScene can diff.
	clipNodes map[string]struct{}

	disposed bool
}

func New(opts Options) (*Player, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("player: nil backend")
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}

	bus := core.NewEventBus()
	sys, err := systems.NewSystemManager(systems.SystemManagerConfig{
		Textures: systems.TextureSystemConfig{
			MaxCachedEntries: cfg.Cache.MaxTextures,
			MaxCachedBytes:   uint64(cfg.Cache.MaxTextureMB) << 20,
		},
		Shaders: systems.ShaderSystemConfig{WatchDir: cfg.Shaders.WatchDir},
	}, opts.Backend)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}

	sm := scene.NewManager(bus)
	sm.Camera().SetOrthoSize(float32(cfg.Window.Width), float32(cfg.Window.Height))

	rendererConfig := renderer.DefaultConfig()
	rendererConfig.BatchByShader = cfg.Renderer.BatchByShader
	rendererConfig.ClearColor = math.NewVec4(
		cfg.Renderer.ClearColor[0],
		cfg.Renderer.ClearColor[1],
		cfg.Renderer.ClearColor[2],
		cfg.Renderer.ClearColor[3],
	)
	r := renderer.New(rendererConfig, opts.Backend, sys)
	r.Resize(cfg.Window.Width, cfg.Window.Height)

	p := &Player{
		config:    cfg,
		backend:   opts.Backend,
		bus:       bus,
		systems:   sys,
		scene:     sm,
		renderer:  r,
		decoders:  opts.Decoders,
		clipNodes: make(map[string]struct{}),
	}

	loopConfig := renderer.DefaultLoopConfig()
	if cfg.Renderer.Timestep == "fixed" {
		loopConfig.Mode = renderer.TimestepFixed
		loopConfig.FixedDelta = 1.0 / float64(cfg.Renderer.TargetFPS)
	}
	p.loop = renderer.NewLoop(loopConfig, p.update, p.renderFrame)
	p.loop.Start()
	return p, nil
}

func (p *Player) Events() *core.EventBus       { return p.bus }
func (p *Player) Scene() *scene.Manager        { return p.scene }
func (p *Player) Camera() *camera.Camera       { return p.scene.Camera() }
func (p *Player) Renderer() *renderer.Renderer { return p.renderer }
func (p *Player) Loop() *renderer.Loop         { return p.loop }

// Systems exposes the GPU resource systems, mainly for hosts wiring debug
// overlays or custom sources.
func (p *Player) Systems() *systems.SystemManager { return p.systems }

func (p *Player) Play() {
	if p.playing || p.disposed {
		return
	}
	p.playing = true
	p.bus.Fire(core.EventPlaybackState, p, core.EventContext{Data: "playing", Time: p.current})
}

func (p *Player) Pause() {
	if !p.playing {
		return
	}
	p.playing = false
	p.bus.Fire(core.EventPlaybackState, p, core.EventContext{Data: "paused", Time: p.current})
}

func (p *Player) IsPlaying() bool { return p.playing }

// SeekTo jumps the playhead, clamped to [0, Duration].
func (p *Player) SeekTo(t float64) {
	if t < 0 {
		t = 0
	}
	if t > p.duration {
		t = p.duration
	}
	p.current = t
	p.scene.SetTime(t)
}

func (p *Player) CurrentTime() float64 { return p.current }

// Duration is the end of the last clip across all tracks.
func (p *Player) Duration() float64 { return p.duration }

// Step advances by real elapsed time; call once per display frame.
func (p *Player) Step() { p.loop.Step() }

// Tick advances by an explicit delta, for hosts with their own clocks.
func (p *Player) Tick(delta float64) { p.loop.Tick(delta) }

func (p *Player) update(delta float64) {
	p.frameDelta = delta
	if p.playing {
		p.current += delta
		if p.current >= p.duration {
			p.current = p.duration
			p.Pause()
		}
		p.scene.SetTime(p.current)
	}
	p.scene.Camera().Update(delta)
}

func (p *Player) renderFrame(alpha float64) {
	p.renderer.Render(p.scene, p.current, p.frameDelta)
}

func (p *Player) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.renderer.Resize(width, height)
	p.scene.Camera().SetViewportSize(width, height)
	p.bus.Fire(core.EventResized, p, core.EventContext{Width: uint32(width), Height: uint32(height)})
}

// HandleContextLoss is the host's rebuild entry after the GPU context came
// back. Builtin shaders recompile now; textures reload lazily.
func (p *Player) HandleContextLoss() error {
	p.bus.Fire(core.EventContextLost, p, core.EventContext{Time: p.current})
	if err := p.renderer.HandleContextLoss(); err != nil {
		return err
	}
	p.bus.Fire(core.EventContextRestored, p, core.EventContext{Time: p.current})
	return nil
}

// UpdateScene reconciles the scene against the host's timeline. Clips are
// diffed by id: new ones get nodes and media sources, gone ones release
// theirs, survivors are updated in place so their textures stay warm.
func (p *Player) UpdateScene(tracks []Track) error {
	if p.disposed {
		return core.ErrDisposed
	}

	seen := make(map[string]struct{})
	duration := 0.0

	for order, track := range tracks {
		layer, err := p.scene.Layer(track.ID)
		if err != nil {
			layer = p.scene.AddLayer(track.ID, track.Name)
		}
		layer.SetName(track.Name)
		layer.SetVisible(track.Visible)
		if err := p.scene.SetLayerOrder(layer.ID(), order); err != nil {
			core.LogWarn("update scene: %v", err)
		}

		for _, clip := range track.Clips {
			if clip.ID == "" {
				return fmt.Errorf("update scene: clip without id on track %q", track.ID)
			}
			seen[clip.ID] = struct{}{}
			if end := clip.StartTime + clip.Duration; end > duration {
				duration = end
			}
			if _, live := p.clipNodes[clip.ID]; live {
				if err := p.updateClip(clip); err != nil {
					return err
				}
				continue
			}
			if err := p.addClip(layer.ID(), clip); err != nil {
				return err
			}
		}
	}

	// Remove clips the timeline no longer has.
	for id := range p.clipNodes {
		if _, ok := seen[id]; !ok {
			p.removeClip(id)
		}
	}

	// Drop layers whose tracks are gone.
	for _, layer := range p.scene.Layers() {
		found := false
		for _, track := range tracks {
			if track.ID == layer.ID() {
				found = true
				break
			}
		}
		if !found {
			if err := p.scene.RemoveLayer(layer.ID()); err != nil {
				core.LogWarn("update scene: %v", err)
			}
		}
	}

	// Released textures stay cached for quick clip re-adds; enforce the
	// cache budgets now that this edit settled.
	p.systems.TextureSystem.Prune()

	p.duration = duration
	if p.current > duration {
		p.SeekTo(duration)
	}
	return nil
}

// AttachExternalSurface points a clip at a GPU texture the host keeps alive,
// a zero-copy hardware decoder surface typically. It replaces whatever source
// the clip had; the handle is never deleted by the engine.
func (p *Player) AttachExternalSurface(clipID string, handle gpu.TextureHandle, width, height int) error {
	if p.disposed {
		return core.ErrDisposed
	}
	if _, live := p.clipNodes[clipID]; !live {
		return fmt.Errorf("attach surface: unknown clip %q", clipID)
	}
	key := sourceKey(clipID)
	p.renderer.UnregisterSource(key)
	p.renderer.RegisterSource(key, media.NewExternalSource(key, p.backend, handle, width, height))
	return nil
}

func (p *Player) addClip(layerID string, clip Clip) error {
	node := scene.NewNode(clip.ID, clip.Kind)
	p.applyClip(node, clip)
	if err := p.scene.AddNode(node, layerID); err != nil {
		return err
	}
	src, err := p.openSource(clip)
	if err != nil {
		// The node stays; the renderer will warn once and skip it, which
		// degrades exactly like a missing media file should.
		core.LogError("clip %q: %v", clip.ID, err)
		p.clipNodes[clip.ID] = struct{}{}
		return nil
	}
	if src != nil {
		p.renderer.RegisterSource(sourceKey(clip.ID), src)
	}
	p.clipNodes[clip.ID] = struct{}{}
	return nil
}

func (p *Player) updateClip(clip Clip) error {
	node, err := p.scene.GetNode(clip.ID)
	if err != nil {
		return err
	}
	p.applyClip(node, clip)
	if clip.Kind == scene.KindText {
		if src, ok := p.renderer.Source(sourceKey(clip.ID)).(*media.TextSource); ok {
			src.SetText(clip.Text)
		}
	}
	return nil
}

func (p *Player) applyClip(node *scene.RenderNode, clip Clip) {
	node.SetTextureKey(sourceKey(clip.ID))
	node.SetTimeWindow(clip.StartTime, clip.Duration)
	node.SetTrim(clip.TrimIn, clip.TrimOut)
	node.SetPosition(clip.Position)
	node.SetRotation(clip.Rotation)
	node.SetBlendMode(clip.BlendMode)
	node.SetOpacity(clip.Opacity)
	if clip.Scale.X != 0 || clip.Scale.Y != 0 {
		node.SetScale(clip.Scale)
	}
	if clip.Size.X > 0 && clip.Size.Y > 0 {
		node.SetSize(clip.Size)
	}
}

func (p *Player) removeClip(id string) {
	if err := p.scene.RemoveNode(id); err != nil {
		core.LogWarn("remove clip %q: %v", id, err)
	}
	p.renderer.UnregisterSource(sourceKey(id))
	delete(p.clipNodes, id)
}

func (p *Player) openSource(clip Clip) (media.Source, error) {
	switch clip.Kind {
	case scene.KindVideo:
		if p.decoders == nil {
			return nil, fmt.Errorf("video clip %q: no decoder factory", clip.ID)
		}
		dec, err := p.decoders(clip.URL)
		if err != nil {
			return nil, fmt.Errorf("video clip %q: %w", clip.ID, err)
		}
		return media.NewVideoSource(clip.URL, dec, p.backend), nil
	case scene.KindText:
		return media.NewTextSource(clip.ID, clip.Text, clip.Style, p.backend)
	case scene.KindShape:
		return media.NewShapeSource(clip.ID, clip.Shape, p.backend)
	default:
		if strings.HasSuffix(strings.ToLower(clip.URL), ".gif") {
			return media.NewAnimatedImageSource(clip.URL, p.backend)
		}
		return media.NewImageSource(clip.URL, p.systems.TextureSystem), nil
	}
}

func sourceKey(clipID string) string { return "clip/" + clipID }

// Dispose tears the whole session down. The player is unusable afterwards.
func (p *Player) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	p.playing = false
	p.loop.Stop()
	p.renderer.Shutdown()
	p.systems.Shutdown()
	p.scene.Clear()
	p.clipNodes = make(map[string]struct{})
}
