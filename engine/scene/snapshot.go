package scene

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/quartzite/prism/engine/camera"
	"github.com/quartzite/prism/engine/effects"
	"github.com/quartzite/prism/engine/gpu"
	"github.com/quartzite/prism/engine/math"
)

// SnapshotVersion is the format written by Export. Import accepts any
// snapshot with the same major version and a minor version no newer than
// this one.
const SnapshotVersion = "1.1.0"

// Snapshot is the full serializable scene state. Nodes carry their owning
// layer id, so membership survives the round trip even for nested children.
type Snapshot struct {
	Version string       `json:"version"`
	Time    float64      `json:"time"`
	Camera  CameraState  `json:"camera"`
	Layers  []LayerState `json:"layers"`
	Nodes   []NodeState  `json:"nodes"`
}

type CameraState struct {
	Projection  string    `json:"projection"`
	Position    math.Vec3 `json:"position"`
	Target      math.Vec3 `json:"target"`
	Up          math.Vec3 `json:"up"`
	FOV         float32   `json:"fov"`
	OrthoWidth  float32   `json:"ortho_width"`
	OrthoHeight float32   `json:"ortho_height"`
	Near        float32   `json:"near"`
	Far         float32   `json:"far"`
}

type LayerState struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Order   int     `json:"order"`
	Visible bool    `json:"visible"`
	Opacity float32 `json:"opacity"`
	Locked  bool    `json:"locked"`
}

type NodeState struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name,omitempty"`
	Kind       string                 `json:"kind"`
	LayerID    string                 `json:"layer_id"`
	ParentID   string                 `json:"parent_id,omitempty"`
	ChildIDs   []string               `json:"child_ids,omitempty"`
	Visible    bool                   `json:"visible"`
	Opacity    float32                `json:"opacity"`
	BlendMode  string                 `json:"blend_mode"`
	Position   math.Vec3              `json:"position"`
	Rotation   float32                `json:"rotation"`
	Scale      math.Vec2              `json:"scale"`
	Anchor     math.Vec2              `json:"anchor"`
	Size       math.Vec2              `json:"size"`
	StartTime  float64                `json:"start_time"`
	Duration   float64                `json:"duration"`
	TrimIn     float64                `json:"trim_in"`
	TrimOut    float64                `json:"trim_out"`
	TextureKey string                 `json:"texture_key,omitempty"`
	ShaderName string                 `json:"shader_name,omitempty"`
	GeometryID string                 `json:"geometry_id,omitempty"`
	Params     map[string]interface{} `json:"params,omitempty"`
	Effects    []effects.State        `json:"effects,omitempty"`
}

func nodeKindFromString(s string) NodeKind {
	switch s {
	case "video":
		return KindVideo
	case "text":
		return KindText
	case "shape":
		return KindShape
	default:
		return KindImage
	}
}

// Export captures the complete scene state.
func (m *Manager) Export() *Snapshot {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Time:    m.time,
		Camera:  exportCamera(m.camera),
	}
	for _, layer := range m.layers {
		snap.Layers = append(snap.Layers, LayerState{
			ID:      layer.id,
			Name:    layer.name,
			Order:   layer.order,
			Visible: layer.visible,
			Opacity: layer.opacity,
			Locked:  layer.locked,
		})
		for _, nodeID := range layer.nodeIDs {
			node, ok := m.registry[nodeID]
			if !ok {
				continue
			}
			snap.Nodes = append(snap.Nodes, exportNode(node))
		}
	}
	return snap
}

func exportCamera(c *camera.Camera) CameraState {
	proj := "orthographic"
	if c.Projection() == camera.ProjectionPerspective {
		proj = "perspective"
	}
	ow, oh := c.OrthoSize()
	near, far := c.ClipPlanes()
	return CameraState{
		Projection:  proj,
		Position:    c.Position(),
		Target:      c.Target(),
		Up:          c.Up(),
		FOV:         c.FOV(),
		OrthoWidth:  ow,
		OrthoHeight: oh,
		Near:        near,
		Far:         far,
	}
}

func exportNode(n *RenderNode) NodeState {
	return NodeState{
		ID:         n.id,
		Name:       n.name,
		Kind:       n.kind.String(),
		LayerID:    n.layerID,
		ParentID:   n.parentID,
		ChildIDs:   n.ChildIDs(),
		Visible:    n.visible,
		Opacity:    n.opacity,
		BlendMode:  n.blendMode.String(),
		Position:   n.position,
		Rotation:   n.rotation,
		Scale:      n.scale,
		Anchor:     n.anchor,
		Size:       n.size,
		StartTime:  n.startTime,
		Duration:   n.duration,
		TrimIn:     n.trimIn,
		TrimOut:    n.trimOut,
		TextureKey: n.textureKey,
		ShaderName: n.shaderName,
		GeometryID: n.geometryID,
		Params:     n.params,
		Effects:    n.effects.Export(),
	}
}

// Import replaces the scene with the snapshot's contents. The current scene
// is cleared only after the version check passes.
func (m *Manager) Import(snap *Snapshot) error {
	if err := checkVersion(snap.Version); err != nil {
		return err
	}
	m.Clear()
	m.time = snap.Time
	importCamera(m.camera, snap.Camera)

	for _, ls := range snap.Layers {
		layer := NewLayer(ls.ID, ls.Name, ls.Order)
		layer.visible = ls.Visible
		layer.opacity = ls.Opacity
		layer.locked = ls.Locked
		m.layers = append(m.layers, layer)
		m.layerIdx[layer.id] = layer
	}
	m.reorderLayers()

	// First pass registers every node in its layer, second pass restores
	// parent links so child order comes from the parent's ChildIDs.
	for _, ns := range snap.Nodes {
		node, err := nodeFromState(ns)
		if err != nil {
			return err
		}
		layer, ok := m.layerIdx[ns.LayerID]
		if !ok {
			return fmt.Errorf("import node %q: layer %q: %w", ns.ID, ns.LayerID, ErrLayerNotFound)
		}
		node.mgr = m
		node.layerID = ns.LayerID
		m.registry[node.id] = node
		layer.addNode(node.id)
	}
	for _, ns := range snap.Nodes {
		node := m.registry[ns.ID]
		node.parentID = ns.ParentID
		node.childIDs = append([]string(nil), ns.ChildIDs...)
	}
	m.UpdateSceneGraph()
	m.fireSceneChanged("")
	return nil
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("snapshot has no version")
	}
	got, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("snapshot version %q: %w", v, err)
	}
	cur := semver.MustParse(SnapshotVersion)
	if got.Major() != cur.Major() || got.Minor() > cur.Minor() {
		return fmt.Errorf("snapshot version %s is not compatible with %s", v, SnapshotVersion)
	}
	return nil
}

func importCamera(c *camera.Camera, s CameraState) {
	c.Reset()
	if s.Projection == "perspective" {
		c.SetProjection(camera.ProjectionPerspective)
	} else {
		c.SetProjection(camera.ProjectionOrthographic)
	}
	c.SetPosition(s.Position)
	c.SetTarget(s.Target)
	if s.Up.Length() > 0 {
		c.SetUp(s.Up)
	}
	if s.FOV > 0 {
		c.SetFOV(s.FOV)
	}
	c.SetOrthoSize(s.OrthoWidth, s.OrthoHeight)
	if s.Far > s.Near {
		c.SetClipPlanes(s.Near, s.Far)
	}
}

func nodeFromState(ns NodeState) (*RenderNode, error) {
	if ns.ID == "" {
		return nil, fmt.Errorf("snapshot node without id")
	}
	node := NewNode(ns.ID, nodeKindFromString(ns.Kind))
	node.name = ns.Name
	node.visible = ns.Visible
	node.SetOpacity(ns.Opacity)
	node.blendMode = gpu.ParseBlendMode(ns.BlendMode)
	node.position = ns.Position
	node.rotation = ns.Rotation
	node.scale = ns.Scale
	node.SetAnchor(ns.Anchor)
	node.size = ns.Size
	node.startTime = ns.StartTime
	node.duration = ns.Duration
	node.trimIn = ns.TrimIn
	node.trimOut = ns.TrimOut
	node.textureKey = ns.TextureKey
	node.shaderName = ns.ShaderName
	node.geometryID = ns.GeometryID
	if ns.Params != nil {
		node.params = ns.Params
	}
	if err := node.effects.Import(ns.Effects); err != nil {
		return nil, fmt.Errorf("import node %q effects: %w", ns.ID, err)
	}
	return node, nil
}

// ExportJSON is a convenience for hosts persisting scenes to disk.
func (m *Manager) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(m.Export(), "", "  ")
}

func (m *Manager) ImportJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return m.Import(&snap)
}
