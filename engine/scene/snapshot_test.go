package scene

import (
	"strings"
	"testing"

	"github.com/quartzite/prism/engine/camera"
	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/effects"
	"github.com/quartzite/prism/engine/math"
)

func buildSampleScene(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(core.NewEventBus())
	m.SetTime(3.25)
	m.Camera().SetProjection(camera.ProjectionPerspective)
	m.Camera().SetPosition(math.NewVec3(1, 2, 30))
	m.Camera().SetFOV(50)

	back := m.AddLayer("back", "background")
	front := m.AddLayer("front", "foreground")
	front.SetOpacity(0.9)
	front.SetLocked(true)

	bg := NewNode("bg", KindImage)
	bg.SetTextureKey("assets/bg.png")
	bg.SetTimeWindow(0, 60)
	if err := m.AddNode(bg, back.ID()); err != nil {
		t.Fatal(err)
	}

	clip := NewNode("clip", KindVideo)
	clip.SetTimeWindow(2, 8)
	clip.SetTrim(1.5, 9.5)
	clip.SetPosition(math.NewVec3(120, -40, 0))
	clip.SetRotation(0.3)
	clip.SetOpacity(0.8)
	clip.SetGeometryID("mask-triangle")
	clip.Effects().Add(effects.NewChromaKey())
	if err := m.AddNode(clip, front.ID()); err != nil {
		t.Fatal(err)
	}

	caption := NewNode("caption", KindText)
	caption.SetTimeWindow(2, 8)
	if err := m.AddNode(caption, front.ID()); err != nil {
		t.Fatal(err)
	}
	if err := m.AttachChild("clip", "caption"); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := buildSampleScene(t)
	data, err := src.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	dst := NewManager(core.NewEventBus())
	if err := dst.ImportJSON(data); err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}

	if dst.Time() != 3.25 {
		t.Errorf("time = %v, want 3.25", dst.Time())
	}
	if dst.Camera().Projection() != camera.ProjectionPerspective {
		t.Error("camera projection lost")
	}
	if dst.Camera().FOV() != 50 {
		t.Errorf("camera fov = %v, want 50", dst.Camera().FOV())
	}

	layers := dst.Layers()
	if len(layers) != 2 {
		t.Fatalf("restored %d layers, want 2", len(layers))
	}
	if layers[1].Opacity() != 0.9 || !layers[1].Locked() {
		t.Error("foreground layer state lost")
	}

	clip, err := dst.GetNode("clip")
	if err != nil {
		t.Fatalf("GetNode(clip): %v", err)
	}
	if clip.Opacity() != 0.8 || clip.Rotation() != 0.3 {
		t.Error("clip transform state lost")
	}
	if in, out := clip.Trim(); in != 1.5 || out != 9.5 {
		t.Errorf("clip trim = (%v,%v), want (1.5,9.5)", in, out)
	}
	if clip.Effects().RequiredShader() != "chroma_key" {
		t.Error("clip effect stack lost")
	}
	if clip.GeometryID() != "mask-triangle" {
		t.Errorf("clip geometry = %q, want mask-triangle", clip.GeometryID())
	}

	caption, err := dst.GetNode("caption")
	if err != nil {
		t.Fatalf("GetNode(caption): %v", err)
	}
	if caption.ParentID() != "clip" {
		t.Errorf("caption parent = %q, want clip", caption.ParentID())
	}
}

func TestSnapshotKeepsLayerAssociation(t *testing.T) {
	src := buildSampleScene(t)
	data, err := src.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}

	dst := NewManager(core.NewEventBus())
	if err := dst.ImportJSON(data); err != nil {
		t.Fatal(err)
	}

	// A nested child must land back on its own layer, not its parent's
	// default or a fresh one.
	caption, err := dst.GetNode("caption")
	if err != nil {
		t.Fatal(err)
	}
	if caption.LayerID() != "front" {
		t.Fatalf("caption layer = %q, want front", caption.LayerID())
	}
	front, err := dst.Layer("front")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range front.NodeIDs() {
		if id == "caption" {
			found = true
		}
	}
	if !found {
		t.Fatal("front layer membership does not list caption")
	}
}

func TestSnapshotVersionCheck(t *testing.T) {
	m := NewManager(core.NewEventBus())

	if err := m.Import(&Snapshot{Version: "2.0.0"}); err == nil {
		t.Fatal("newer major version must be rejected")
	}
	if err := m.Import(&Snapshot{Version: "1.9.0"}); err == nil {
		t.Fatal("newer minor version must be rejected")
	}
	if err := m.Import(&Snapshot{Version: "not-a-version"}); err == nil {
		t.Fatal("garbage version must be rejected")
	}
	if err := m.Import(&Snapshot{Version: "1.0.0"}); err != nil {
		t.Fatalf("older compatible snapshot rejected: %v", err)
	}
}

func TestImportBadVersionLeavesSceneIntact(t *testing.T) {
	m, layer := newTestScene(t)
	addNode(t, m, "keep", layer.ID())

	if err := m.Import(&Snapshot{Version: "9.0.0"}); err == nil {
		t.Fatal("expected version error")
	}
	if _, err := m.GetNode("keep"); err != nil {
		t.Fatalf("failed import must not clear the scene: %v", err)
	}
}

func TestSnapshotJSONIsVersioned(t *testing.T) {
	m, _ := newTestScene(t)
	data, err := m.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"version": "`+SnapshotVersion+`"`) {
		t.Fatalf("snapshot JSON missing version field:\n%s", data)
	}
}
