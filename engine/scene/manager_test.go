package scene

import (
	"errors"
	"testing"

	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/math"
)

func newTestScene(t *testing.T) (*Manager, *Layer) {
	t.Helper()
	m := NewManager(core.NewEventBus())
	layer := m.AddLayer("layer-0", "base")
	return m, layer
}

func addNode(t *testing.T, m *Manager, id, layerID string) *RenderNode {
	t.Helper()
	n := NewNode(id, KindImage)
	if err := m.AddNode(n, layerID); err != nil {
		t.Fatalf("AddNode(%q): %v", id, err)
	}
	return n
}

func TestWorldOpacityIsAncestorProduct(t *testing.T) {
	m, layer := newTestScene(t)
	root := addNode(t, m, "root", layer.ID())
	child := addNode(t, m, "child", layer.ID())
	grand := addNode(t, m, "grand", layer.ID())
	if err := m.AttachChild("root", "child"); err != nil {
		t.Fatal(err)
	}
	if err := m.AttachChild("child", "grand"); err != nil {
		t.Fatal(err)
	}

	root.SetOpacity(0.5)
	child.SetOpacity(0.5)
	grand.SetOpacity(0.8)
	m.UpdateSceneGraph()

	if got, want := grand.WorldOpacity(), float32(0.5*0.5*0.8); got != want {
		t.Fatalf("grandchild world opacity = %v, want %v", got, want)
	}
}

func TestDirtyPropagatesToDescendants(t *testing.T) {
	m, layer := newTestScene(t)
	root := addNode(t, m, "root", layer.ID())
	child := addNode(t, m, "child", layer.ID())
	grand := addNode(t, m, "grand", layer.ID())
	if err := m.AttachChild("root", "child"); err != nil {
		t.Fatal(err)
	}
	if err := m.AttachChild("child", "grand"); err != nil {
		t.Fatal(err)
	}
	m.UpdateSceneGraph()

	if child.Dirty() || grand.Dirty() {
		t.Fatal("nodes still dirty after UpdateSceneGraph")
	}

	root.SetPosition(math.NewVec3(10, 0, 0))
	if !child.Dirty() || !grand.Dirty() {
		t.Fatal("moving an ancestor must dirty the whole subtree")
	}

	m.UpdateSceneGraph()
	// The translation must reach the grandchild's world transform.
	origin := grand.WorldMatrix().MulPoint(math.NewVec3(0, 0, 0))
	if origin.X < 9 {
		t.Fatalf("grandchild world origin X = %v, want translation applied", origin.X)
	}
}

func TestChildTransformComposesWithParent(t *testing.T) {
	m, layer := newTestScene(t)
	parent := addNode(t, m, "p", layer.ID())
	child := addNode(t, m, "c", layer.ID())
	if err := m.AttachChild("p", "c"); err != nil {
		t.Fatal(err)
	}

	parent.SetAnchor(math.NewVec2(0, 0))
	parent.SetSize(math.NewVec2(1, 1))
	parent.SetPosition(math.NewVec3(100, 50, 0))
	child.SetAnchor(math.NewVec2(0, 0))
	child.SetSize(math.NewVec2(1, 1))
	child.SetPosition(math.NewVec3(5, 5, 0))
	m.UpdateSceneGraph()

	p := child.WorldMatrix().MulPoint(math.NewVec3(0, 0, 0))
	if p.X != 105 || p.Y != 55 {
		t.Fatalf("child world origin = (%v,%v), want (105,55)", p.X, p.Y)
	}
}

func TestVisibleNodesAtTimeWindow(t *testing.T) {
	m, layer := newTestScene(t)
	n := addNode(t, m, "clip", layer.ID())
	n.SetTimeWindow(2, 3)

	cases := []struct {
		t    float64
		want int
	}{
		{1.999, 0},
		{2, 1},
		{3.5, 1},
		{4.999, 1},
		{5, 0},
	}
	for _, tc := range cases {
		if got := len(m.VisibleNodesAt(tc.t)); got != tc.want {
			t.Errorf("VisibleNodesAt(%v) = %d nodes, want %d", tc.t, got, tc.want)
		}
	}
}

func TestHiddenAncestorHidesSubtree(t *testing.T) {
	m, layer := newTestScene(t)
	root := addNode(t, m, "root", layer.ID())
	child := addNode(t, m, "child", layer.ID())
	if err := m.AttachChild("root", "child"); err != nil {
		t.Fatal(err)
	}
	root.SetTimeWindow(0, 10)
	child.SetTimeWindow(0, 10)

	if got := len(m.VisibleNodesAt(1)); got != 2 {
		t.Fatalf("expected 2 visible nodes, got %d", got)
	}
	root.SetVisible(false)
	if got := len(m.VisibleNodesAt(1)); got != 0 {
		t.Fatalf("hidden root must hide children, got %d visible", got)
	}

	root.SetVisible(true)
	layer.SetVisible(false)
	if got := len(m.VisibleNodesAt(1)); got != 0 {
		t.Fatalf("hidden layer must hide members, got %d visible", got)
	}
}

func TestAttachRejectsCycles(t *testing.T) {
	m, layer := newTestScene(t)
	addNode(t, m, "a", layer.ID())
	addNode(t, m, "b", layer.ID())
	addNode(t, m, "c", layer.ID())
	if err := m.AttachChild("a", "b"); err != nil {
		t.Fatal(err)
	}
	if err := m.AttachChild("b", "c"); err != nil {
		t.Fatal(err)
	}

	if err := m.AttachChild("c", "a"); !errors.Is(err, ErrCycle) {
		t.Fatalf("attaching ancestor under descendant: err = %v, want ErrCycle", err)
	}
	if err := m.AttachChild("a", "a"); !errors.Is(err, ErrCycle) {
		t.Fatalf("self attach: err = %v, want ErrCycle", err)
	}
}

func TestReattachDetachesFromPreviousParent(t *testing.T) {
	m, layer := newTestScene(t)
	a := addNode(t, m, "a", layer.ID())
	b := addNode(t, m, "b", layer.ID())
	c := addNode(t, m, "c", layer.ID())
	if err := m.AttachChild("a", "c"); err != nil {
		t.Fatal(err)
	}
	if err := m.AttachChild("b", "c"); err != nil {
		t.Fatal(err)
	}

	if len(a.ChildIDs()) != 0 {
		t.Fatalf("old parent still lists child: %v", a.ChildIDs())
	}
	if got := b.ChildIDs(); len(got) != 1 || got[0] != "c" {
		t.Fatalf("new parent children = %v, want [c]", got)
	}
	if c.ParentID() != "b" {
		t.Fatalf("child parent = %q, want b", c.ParentID())
	}
}

func TestRemoveNodeTakesDescendants(t *testing.T) {
	m, layer := newTestScene(t)
	addNode(t, m, "root", layer.ID())
	addNode(t, m, "child", layer.ID())
	addNode(t, m, "grand", layer.ID())
	if err := m.AttachChild("root", "child"); err != nil {
		t.Fatal(err)
	}
	if err := m.AttachChild("child", "grand"); err != nil {
		t.Fatal(err)
	}

	if err := m.RemoveNode("root"); err != nil {
		t.Fatal(err)
	}
	if m.NodeCount() != 0 {
		t.Fatalf("registry has %d nodes after subtree removal, want 0", m.NodeCount())
	}
	if got := len(layer.NodeIDs()); got != 0 {
		t.Fatalf("layer still holds %d members, want 0", got)
	}
}

func TestRegistryAndLayerMembershipAgree(t *testing.T) {
	m, _ := newTestScene(t)
	other := m.AddLayer("layer-1", "top")
	addNode(t, m, "x", "layer-0")
	addNode(t, m, "y", other.ID())

	if err := m.RemoveLayer(other.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetNode("y"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("node of removed layer: err = %v, want ErrNodeNotFound", err)
	}

	total := 0
	for _, l := range m.Layers() {
		total += len(l.NodeIDs())
	}
	if total != m.NodeCount() {
		t.Fatalf("layer membership (%d) disagrees with registry (%d)", total, m.NodeCount())
	}
}

func TestSetLayerOrderMovesLayer(t *testing.T) {
	m := NewManager(core.NewEventBus())
	m.AddLayer("a", "a")
	m.AddLayer("b", "b")
	m.AddLayer("c", "c")

	if err := m.SetLayerOrder("c", 0); err != nil {
		t.Fatal(err)
	}
	got := m.Layers()
	want := []string{"c", "a", "b"}
	for i, l := range got {
		if l.ID() != want[i] {
			t.Fatalf("layer[%d] = %s, want %s", i, l.ID(), want[i])
		}
		if l.Order() != i {
			t.Fatalf("layer %s order = %d, want %d", l.ID(), l.Order(), i)
		}
	}

	if err := m.SetLayerOrder("missing", 0); err == nil {
		t.Fatal("expected error for unknown layer")
	}
}

func TestDuplicateNodeRejected(t *testing.T) {
	m, layer := newTestScene(t)
	addNode(t, m, "dup", layer.ID())
	if err := m.AddNode(NewNode("dup", KindImage), layer.ID()); !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("err = %v, want ErrDuplicateNode", err)
	}
}

func TestPickTopmostNode(t *testing.T) {
	m, layer := newTestScene(t)
	m.Camera().SetViewportSize(800, 600)
	m.Camera().SetOrthoSize(800, 600)

	bottom := addNode(t, m, "bottom", layer.ID())
	bottom.SetPosition(math.NewVec3(0, 0, 0))
	bottom.SetSize(math.NewVec2(200, 200))
	bottom.SetTimeWindow(0, 10)

	top := addNode(t, m, "top", layer.ID())
	top.SetPosition(math.NewVec3(0, 0, 0))
	top.SetSize(math.NewVec2(50, 50))
	top.SetTimeWindow(0, 10)

	m.SetTime(1)
	m.UpdateSceneGraph()

	// Screen center maps to the world origin where both nodes overlap; the
	// later member of the layer wins.
	if got := m.Pick(400, 300); got == nil || got.ID() != "top" {
		t.Fatalf("Pick(center) = %v, want top", got)
	}

	// Off to the side only the big node remains.
	if got := m.Pick(480, 300); got == nil || got.ID() != "bottom" {
		t.Fatalf("Pick(offset) = %v, want bottom", got)
	}

	if got := m.Pick(10, 10); got != nil {
		t.Fatalf("Pick(corner) = %v, want nil", got)
	}
}

func TestSceneEventsFire(t *testing.T) {
	bus := core.NewEventBus()
	var added, removed []string
	listener := &struct{}{}
	bus.Register(core.EventNodeAdded, listener, func(code core.EventCode, sender interface{}, ctx core.EventContext) bool {
		added = append(added, ctx.Data)
		return false
	})
	bus.Register(core.EventNodeRemoved, listener, func(code core.EventCode, sender interface{}, ctx core.EventContext) bool {
		removed = append(removed, ctx.Data)
		return false
	})

	m := NewManager(bus)
	layer := m.AddLayer("l", "l")
	addNode(t, m, "n1", layer.ID())
	if err := m.RemoveNode("n1"); err != nil {
		t.Fatal(err)
	}

	if len(added) != 1 || added[0] != "n1" {
		t.Fatalf("added events = %v", added)
	}
	if len(removed) != 1 || removed[0] != "n1" {
		t.Fatalf("removed events = %v", removed)
	}
}

func TestWorldExtents(t *testing.T) {
	m, layer := newTestScene(t)
	n := addNode(t, m, "box", layer.ID())
	n.SetAnchor(math.NewVec2(0, 0))
	n.SetPosition(math.NewVec3(100, 50, 0))
	n.SetSize(math.NewVec2(40, 20))
	m.UpdateSceneGraph()

	ext := n.WorldExtents()
	if ext.Min.X != 100 || ext.Min.Y != 50 {
		t.Fatalf("min = %+v, want (100,50)", ext.Min)
	}
	if ext.Max.X != 140 || ext.Max.Y != 70 {
		t.Fatalf("max = %+v, want (140,70)", ext.Max)
	}
}

func TestMediaTimeHonorsTrim(t *testing.T) {
	n := NewNode("clip", KindVideo)
	n.SetTimeWindow(2, 8)
	n.SetTrim(1.5, 6.0)

	cases := []struct {
		scene float64
		media float64
	}{
		{2, 1.5},   // first active instant starts at trim-in
		{4, 3.5},   // mid-clip offset
		{6.5, 6.0}, // reaches trim-out exactly
		{9, 6.0},   // window outlives the trim range, hold the out-point
	}
	for _, c := range cases {
		if got := n.MediaTime(c.scene); got != c.media {
			t.Errorf("MediaTime(%v) = %v, want %v", c.scene, got, c.media)
		}
	}

	// Zero trim-out means untrimmed at the tail.
	n.SetTrim(1.5, 0)
	if got := n.MediaTime(9); got != 8.5 {
		t.Errorf("untrimmed MediaTime(9) = %v, want 8.5", got)
	}
}
