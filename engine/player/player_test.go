package player

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/quartzite/prism/engine/config"
	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu"
	"github.com/quartzite/prism/engine/math"
	"github.com/quartzite/prism/engine/media"
	"github.com/quartzite/prism/engine/scene"
)

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	p, err := New(Options{
		Config:  config.Default(),
		Backend: gpu.NewTraceBackend(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Dispose)
	return p
}

func shapeClip(id string, start, duration float64) Clip {
	return Clip{
		ID:        id,
		Kind:      scene.KindShape,
		StartTime: start,
		Duration:  duration,
		Opacity:   1,
		Scale:     math.NewVec2(1, 1),
		Size:      math.NewVec2(100, 100),
		Shape: media.ShapeSpec{
			Kind:   media.ShapeRect,
			Width:  16,
			Height: 16,
			Fill:   color.RGBA{255, 255, 255, 255},
		},
	}
}

func TestUpdateSceneBuildsTracksAndDuration(t *testing.T) {
	p := newTestPlayer(t)
	tracks := []Track{
		{ID: "t1", Name: "video", Visible: true, Clips: []Clip{
			shapeClip("c1", 0, 4),
			shapeClip("c2", 4, 3),
		}},
		{ID: "t2", Name: "overlay", Visible: true, Clips: []Clip{
			shapeClip("c3", 1, 10),
		}},
	}
	if err := p.UpdateScene(tracks); err != nil {
		t.Fatal(err)
	}

	if got := len(p.Scene().Layers()); got != 2 {
		t.Fatalf("layers = %d, want 2", got)
	}
	if p.Scene().NodeCount() != 3 {
		t.Fatalf("nodes = %d, want 3", p.Scene().NodeCount())
	}
	if p.Duration() != 11 {
		t.Fatalf("duration = %v, want 11", p.Duration())
	}
}

func TestUpdateSceneDiffsByClipID(t *testing.T) {
	p := newTestPlayer(t)
	track := Track{ID: "t1", Name: "main", Visible: true, Clips: []Clip{
		shapeClip("keep", 0, 5),
		shapeClip("drop", 5, 5),
	}}
	if err := p.UpdateScene([]Track{track}); err != nil {
		t.Fatal(err)
	}
	kept, err := p.Scene().GetNode("keep")
	if err != nil {
		t.Fatal(err)
	}

	// Second pass: "drop" gone, "keep" moved, "add" new.
	moved := shapeClip("keep", 1, 5)
	moved.Opacity = 0.5
	track.Clips = []Clip{moved, shapeClip("add", 6, 2)}
	if err := p.UpdateScene([]Track{track}); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Scene().GetNode("drop"); err == nil {
		t.Fatal("removed clip still in scene")
	}
	if p.Renderer().Source(sourceKey("drop")) != nil {
		t.Fatal("removed clip's source still registered")
	}
	node, err := p.Scene().GetNode("keep")
	if err != nil {
		t.Fatal(err)
	}
	if node != kept {
		t.Fatal("surviving clip must keep its node")
	}
	if start, _ := node.TimeWindow(); start != 1 {
		t.Fatalf("surviving clip start = %v, want 1", start)
	}
	if node.Opacity() != 0.5 {
		t.Fatalf("surviving clip opacity = %v, want 0.5", node.Opacity())
	}
	if _, err := p.Scene().GetNode("add"); err != nil {
		t.Fatalf("new clip missing: %v", err)
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateSceneTwiceDoesNotLeakTextures(t *testing.T) {
	p := newTestPlayer(t)
	path := filepath.Join(t.TempDir(), "still.png")
	writePNG(t, path)

	clip := shapeClip("img", 0, 5)
	clip.Kind = scene.KindImage
	clip.URL = path
	tracks := []Track{{ID: "t1", Name: "main", Visible: true, Clips: []Clip{clip}}}

	if err := p.UpdateScene(tracks); err != nil {
		t.Fatal(err)
	}
	p.Tick(1.0 / 60) // render once so the image actually loads
	refs := p.Systems().TextureSystem.RefCount(path)

	if err := p.UpdateScene(tracks); err != nil {
		t.Fatal(err)
	}
	p.Tick(1.0 / 60)
	if got := p.Systems().TextureSystem.RefCount(path); got != refs {
		t.Fatalf("refcount drifted from %d to %d across identical updates", refs, got)
	}
}

func TestUpdateSceneEnforcesCacheBudget(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.MaxTextures = 1
	p, err := New(Options{Config: cfg, Backend: gpu.NewTraceBackend()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Dispose)

	dir := t.TempDir()
	var tracks []Track
	for _, name := range []string{"a", "b", "c"} {
		path := filepath.Join(dir, name+".png")
		writePNG(t, path)
		clip := shapeClip(name, 0, 5)
		clip.Kind = scene.KindImage
		clip.URL = path
		tracks = append(tracks, Track{ID: "t-" + name, Name: name, Visible: true, Clips: []Clip{clip}})
	}

	if err := p.UpdateScene(tracks); err != nil {
		t.Fatal(err)
	}
	p.Tick(1.0 / 60) // render once so the images load
	if got := p.Systems().TextureSystem.EntryCount(); got != 3 {
		t.Fatalf("entries after load = %d, want 3", got)
	}

	// Dropping every clip releases all references; the settle prune must
	// bring the idle cache back under the one-entry budget.
	if err := p.UpdateScene(nil); err != nil {
		t.Fatal(err)
	}
	if got := p.Systems().TextureSystem.EntryCount(); got > 1 {
		t.Fatalf("entries after removal = %d, want at most 1", got)
	}
}

func TestAttachExternalSurface(t *testing.T) {
	p := newTestPlayer(t)

	clip := shapeClip("hw", 0, 5)
	clip.Kind = scene.KindVideo // no decoder factory; the clip starts broken
	if err := p.UpdateScene([]Track{{ID: "t", Name: "t", Visible: true, Clips: []Clip{clip}}}); err != nil {
		t.Fatal(err)
	}

	trace := p.backend.(*gpu.TraceBackend)
	handle, err := trace.CreateTexture2D(128, 128, make([]byte, 128*128*4), gpu.DefaultTextureOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AttachExternalSurface("hw", handle, 128, 128); err != nil {
		t.Fatal(err)
	}

	p.Tick(1.0 / 60)
	if stats := p.Renderer().LastStats(); stats.DrawCalls != 1 {
		t.Fatalf("draw calls = %d, want 1 from the external surface", stats.DrawCalls)
	}

	if err := p.AttachExternalSurface("nope", handle, 128, 128); err == nil {
		t.Fatal("attaching to an unknown clip must fail")
	}

	live := trace.LiveTextureCount()
	p.Dispose()
	if trace.LiveTextureCount() != live {
		t.Fatal("dispose must leave the host-owned surface alive")
	}
}

func TestSeekClampsToTimeline(t *testing.T) {
	p := newTestPlayer(t)
	if err := p.UpdateScene([]Track{{ID: "t", Name: "t", Visible: true, Clips: []Clip{
		shapeClip("c", 0, 8),
	}}}); err != nil {
		t.Fatal(err)
	}

	p.SeekTo(-3)
	if p.CurrentTime() != 0 {
		t.Fatalf("seek below zero = %v, want 0", p.CurrentTime())
	}
	p.SeekTo(99)
	if p.CurrentTime() != 8 {
		t.Fatalf("seek past end = %v, want 8", p.CurrentTime())
	}
	p.SeekTo(4.5)
	if p.CurrentTime() != 4.5 || p.Scene().Time() != 4.5 {
		t.Fatal("seek must move both playhead and scene time")
	}
}

func TestPlaybackAdvancesAndStopsAtEnd(t *testing.T) {
	p := newTestPlayer(t)
	if err := p.UpdateScene([]Track{{ID: "t", Name: "t", Visible: true, Clips: []Clip{
		shapeClip("c", 0, 1),
	}}}); err != nil {
		t.Fatal(err)
	}

	var states []string
	p.Events().Register(core.EventPlaybackState, p, func(code core.EventCode, sender interface{}, ctx core.EventContext) bool {
		states = append(states, ctx.Data)
		return false
	})

	p.Play()
	if !p.IsPlaying() {
		t.Fatal("not playing after Play")
	}
	for i := 0; i < 12; i++ {
		p.Tick(0.1)
	}
	if p.IsPlaying() {
		t.Fatal("player must pause at the end of the timeline")
	}
	if p.CurrentTime() != 1 {
		t.Fatalf("current = %v, want clamped to 1", p.CurrentTime())
	}
	if len(states) != 2 || states[0] != "playing" || states[1] != "paused" {
		t.Fatalf("playback events = %v", states)
	}
}

func TestPausedPlayerHoldsTime(t *testing.T) {
	p := newTestPlayer(t)
	if err := p.UpdateScene([]Track{{ID: "t", Name: "t", Visible: true, Clips: []Clip{
		shapeClip("c", 0, 10),
	}}}); err != nil {
		t.Fatal(err)
	}
	p.SeekTo(2)
	p.Tick(0.5) // renders, but transport is paused
	if p.CurrentTime() != 2 {
		t.Fatalf("paused player advanced to %v", p.CurrentTime())
	}
}

func TestVideoClipWithoutDecoderDegrades(t *testing.T) {
	p := newTestPlayer(t)
	clip := shapeClip("v", 0, 5)
	clip.Kind = scene.KindVideo
	clip.URL = "clip.mp4"
	if err := p.UpdateScene([]Track{{ID: "t", Name: "t", Visible: true, Clips: []Clip{clip}}}); err != nil {
		t.Fatal(err)
	}

	// The node exists but has no source; rendering skips it quietly.
	if _, err := p.Scene().GetNode("v"); err != nil {
		t.Fatal(err)
	}
	p.Tick(1.0 / 60)
	if stats := p.Renderer().LastStats(); stats.NodesSkipped != 1 || stats.DrawCalls != 0 {
		t.Fatalf("stats = %+v, want the video node skipped", stats)
	}
}

func TestResizeFiresEvent(t *testing.T) {
	p := newTestPlayer(t)
	var w, h uint32
	p.Events().Register(core.EventResized, p, func(code core.EventCode, sender interface{}, ctx core.EventContext) bool {
		w, h = ctx.Width, ctx.Height
		return false
	})
	p.Resize(640, 480)
	if w != 640 || h != 480 {
		t.Fatalf("resize event carried %dx%d", w, h)
	}
	if rw, rh := p.Renderer().Size(); rw != 640 || rh != 480 {
		t.Fatalf("renderer size %dx%d", rw, rh)
	}
}

func TestDisposeIsTerminal(t *testing.T) {
	p, err := New(Options{Config: config.Default(), Backend: gpu.NewTraceBackend()})
	if err != nil {
		t.Fatal(err)
	}
	p.Dispose()
	p.Dispose() // idempotent

	if err := p.UpdateScene(nil); err != core.ErrDisposed {
		t.Fatalf("UpdateScene after dispose = %v, want ErrDisposed", err)
	}
	p.Play()
	if p.IsPlaying() {
		t.Fatal("disposed player must not play")
	}
}

func TestTrackOrderMapsToLayerOrder(t *testing.T) {
	p := newTestPlayer(t)
	tracks := []Track{
		{ID: "a", Name: "a", Visible: true},
		{ID: "b", Name: "b", Visible: true},
	}
	if err := p.UpdateScene(tracks); err != nil {
		t.Fatal(err)
	}
	// Swap the tracks; layers must follow.
	if err := p.UpdateScene([]Track{tracks[1], tracks[0]}); err != nil {
		t.Fatal(err)
	}
	layers := p.Scene().Layers()
	if layers[0].ID() != "b" || layers[1].ID() != "a" {
		t.Fatalf("layer order = [%s %s], want [b a]", layers[0].ID(), layers[1].ID())
	}
}
