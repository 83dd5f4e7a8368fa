package scene

import (
	"github.com/google/uuid"

	"github.com/quartzite/prism/engine/effects"
	"github.com/quartzite/prism/engine/gpu"
	"github.com/quartzite/prism/engine/math"
)

// NodeKind is the closed set of drawable clip kinds.
type NodeKind int

const (
	KindVideo NodeKind = iota
	KindImage
	KindText
	KindShape
)

func (k NodeKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	case KindShape:
		return "shape"
	default:
		return "unknown"
	}
}

/**
 * @brief A single drawable entity in the scene graph.
 *
 * Nodes form a tree through id references held by the owning Manager (arena
 * style); a node never points at its parent or children directly. World
 * transform and opacity are the products of the node's own values and every
 * ancestor's, cached by Manager.UpdateSceneGraph.
 */
type RenderNode struct {
	id   string
	name string
	kind NodeKind

	visible   bool
	opacity   float32
	blendMode gpu.BlendMode

	position math.Vec3 // Z is draw depth
	rotation float32   // radians around Z
	scale    math.Vec2
	anchor   math.Vec2 // [0,1] within the node's size
	size     math.Vec2

	startTime float64
	duration  float64
	trimIn    float64
	trimOut   float64

	textureKey string
	geometryID string
	shaderName string
	params     map[string]interface{}

	effects *effects.Manager

	parentID string
	childIDs []string
	layerID  string

	worldMatrix  math.Mat4
	worldOpacity float32
	dirty        bool

	mgr *Manager
}

// NewNode creates an unattached node. An empty id gets a generated one.
func NewNode(id string, kind NodeKind) *RenderNode {
	if id == "" {
		id = uuid.NewString()
	}
	return &RenderNode{
		id:           id,
		kind:         kind,
		visible:      true,
		opacity:      1,
		scale:        math.NewVec2(1, 1),
		anchor:       math.NewVec2(0.5, 0.5),
		size:         math.NewVec2(100, 100),
		duration:     0,
		params:       make(map[string]interface{}),
		effects:      effects.NewManager(),
		worldMatrix:  math.NewMat4Identity(),
		worldOpacity: 1,
		dirty:        true,
	}
}

func (n *RenderNode) ID() string       { return n.id }
func (n *RenderNode) Name() string     { return n.name }
func (n *RenderNode) Kind() NodeKind   { return n.kind }
func (n *RenderNode) ParentID() string { return n.parentID }
func (n *RenderNode) LayerID() string  { return n.layerID }

// ChildIDs returns a copy of the child id list in draw order.
func (n *RenderNode) ChildIDs() []string {
	out := make([]string, len(n.childIDs))
	copy(out, n.childIDs)
	return out
}

func (n *RenderNode) SetName(name string) { n.name = name }

func (n *RenderNode) Visible() bool { return n.visible }

func (n *RenderNode) SetVisible(visible bool) {
	if n.visible == visible {
		return
	}
	n.visible = visible
	n.markDirty()
}

func (n *RenderNode) Opacity() float32 { return n.opacity }

// SetOpacity clamps to [0,1].
func (n *RenderNode) SetOpacity(opacity float32) {
	n.opacity = math.Clamp(opacity, float32(0), float32(1))
	n.markDirty()
}

func (n *RenderNode) BlendMode() gpu.BlendMode { return n.blendMode }

func (n *RenderNode) SetBlendMode(mode gpu.BlendMode) {
	n.blendMode = mode
}

func (n *RenderNode) Position() math.Vec3 { return n.position }

func (n *RenderNode) SetPosition(p math.Vec3) {
	n.position = p
	n.markDirty()
}

func (n *RenderNode) Rotation() float32 { return n.rotation }

func (n *RenderNode) SetRotation(rad float32) {
	n.rotation = rad
	n.markDirty()
}

func (n *RenderNode) Scale() math.Vec2 { return n.scale }

func (n *RenderNode) SetScale(s math.Vec2) {
	n.scale = s
	n.markDirty()
}

func (n *RenderNode) Anchor() math.Vec2 { return n.anchor }

// SetAnchor clamps both components to [0,1].
func (n *RenderNode) SetAnchor(a math.Vec2) {
	n.anchor = math.NewVec2(
		math.Clamp(a.X, float32(0), float32(1)),
		math.Clamp(a.Y, float32(0), float32(1)),
	)
	n.markDirty()
}

func (n *RenderNode) Size() math.Vec2 { return n.size }

func (n *RenderNode) SetSize(s math.Vec2) {
	n.size = s
	n.markDirty()
}

// SetTimeWindow places the node on the timeline: it is active (drawable) for
// t in [start, start+duration).
func (n *RenderNode) SetTimeWindow(start, duration float64) {
	n.startTime = start
	n.duration = duration
}

func (n *RenderNode) TimeWindow() (start, duration float64) {
	return n.startTime, n.duration
}

// SetTrim sets the source-media in/out points relative to the media start.
func (n *RenderNode) SetTrim(in, out float64) {
	n.trimIn = in
	n.trimOut = out
}

func (n *RenderNode) Trim() (in, out float64) {
	return n.trimIn, n.trimOut
}

// ActiveAt reports whether the node's time window covers t.
func (n *RenderNode) ActiveAt(t float64) bool {
	return t >= n.startTime && t < n.startTime+n.duration
}

// MediaTime maps a scene time to the time within the node's source media.
// Playback starts at the trim-in point and never samples past the trim-out
// point; a clip window longer than its trim range holds the last frame.
func (n *RenderNode) MediaTime(t float64) float64 {
	mt := (t - n.startTime) + n.trimIn
	if n.trimOut > 0 && mt > n.trimOut {
		mt = n.trimOut
	}
	return mt
}

func (n *RenderNode) TextureKey() string { return n.textureKey }

func (n *RenderNode) SetTextureKey(key string) { n.textureKey = key }

func (n *RenderNode) GeometryID() string { return n.geometryID }

func (n *RenderNode) SetGeometryID(id string) { n.geometryID = id }

// ShaderName is the node's shader override; empty means "use the default or
// whatever the effect stack demands".
func (n *RenderNode) ShaderName() string { return n.shaderName }

func (n *RenderNode) SetShaderName(name string) { n.shaderName = name }

// SetParam stores an extra shader parameter uploaded with the node.
func (n *RenderNode) SetParam(name string, value interface{}) {
	n.params[name] = value
}

func (n *RenderNode) Params() map[string]interface{} { return n.params }

// Effects exposes the node's effect stack.
func (n *RenderNode) Effects() *effects.Manager { return n.effects }

// WorldOpacity is the product of this node's opacity and every ancestor's,
// as of the last UpdateSceneGraph.
func (n *RenderNode) WorldOpacity() float32 { return n.worldOpacity }

// WorldMatrix is the node's model matrix including every ancestor transform,
// as of the last UpdateSceneGraph.
func (n *RenderNode) WorldMatrix() math.Mat4 { return n.worldMatrix }

// Dirty reports whether the cached world values are stale.
func (n *RenderNode) Dirty() bool { return n.dirty }

// markDirty flags this node and, transitively, every descendant. Stale world
// matrices must never be read below a changed ancestor.
func (n *RenderNode) markDirty() {
	n.dirty = true
	if n.mgr == nil {
		return
	}
	for _, childID := range n.childIDs {
		if child, ok := n.mgr.registry[childID]; ok {
			child.markDirty()
		}
	}
}

// localMatrix composes translate * rotate * scale * anchor-offset over the
// unit quad, so the anchor point lands exactly on the node position.
func (n *RenderNode) localMatrix() math.Mat4 {
	t := math.NewMat4Translation(n.position)
	r := math.NewMat4RotationZ(n.rotation)
	s := math.NewMat4Scale(math.NewVec3(n.scale.X*n.size.X, n.scale.Y*n.size.Y, 1))
	a := math.NewMat4Translation(math.NewVec3(-n.anchor.X, -n.anchor.Y, 0))
	return t.Mul(r).Mul(s).Mul(a)
}

// worldCorners returns the node's four local quad corners in world space.
func (n *RenderNode) worldCorners() [4]math.Vec3 {
	m := n.worldMatrix
	return [4]math.Vec3{
		m.MulPoint(math.NewVec3(0, 0, 0)),
		m.MulPoint(math.NewVec3(1, 0, 0)),
		m.MulPoint(math.NewVec3(1, 1, 0)),
		m.MulPoint(math.NewVec3(0, 1, 0)),
	}
}

// WorldExtents returns the node's axis-aligned bounding box in world space,
// the box hosts draw selection outlines with. Rotated nodes report the AABB
// of their rotated corners, not the exact shape.
func (n *RenderNode) WorldExtents() math.Extents2D {
	corners := n.worldCorners()
	ext := math.Extents2D{
		Min: math.NewVec2(corners[0].X, corners[0].Y),
		Max: math.NewVec2(corners[0].X, corners[0].Y),
	}
	for _, c := range corners[1:] {
		if c.X < ext.Min.X {
			ext.Min.X = c.X
		}
		if c.X > ext.Max.X {
			ext.Max.X = c.X
		}
		if c.Y < ext.Min.Y {
			ext.Min.Y = c.Y
		}
		if c.Y > ext.Max.Y {
			ext.Max.Y = c.Y
		}
	}
	return ext
}

// boundsContain tests a world point against the node's world extents.
func (n *RenderNode) boundsContain(p math.Vec3) bool {
	ext := n.WorldExtents()
	return p.X >= ext.Min.X && p.X <= ext.Max.X && p.Y >= ext.Min.Y && p.Y <= ext.Max.Y
}
