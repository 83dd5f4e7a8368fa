package scene

import (
	"github.com/google/uuid"

	"github.com/quartzite/prism/engine/math"
)

// Layer is an ordered, named collection of nodes sharing visibility, opacity
// and lock state. It owns membership, not the nodes' GPU resources.
type Layer struct {
	id      string
	name    string
	order   int
	visible bool
	opacity float32
	locked  bool

	nodeIDs []string
}

func NewLayer(id, name string, order int) *Layer {
	if id == "" {
		id = uuid.NewString()
	}
	return &Layer{
		id:      id,
		name:    name,
		order:   order,
		visible: true,
		opacity: 1,
	}
}

func (l *Layer) ID() string   { return l.id }
func (l *Layer) Name() string { return l.name }
func (l *Layer) Order() int   { return l.order }

func (l *Layer) SetName(name string) { l.name = name }

func (l *Layer) Visible() bool { return l.visible }

func (l *Layer) SetVisible(visible bool) { l.visible = visible }

func (l *Layer) Opacity() float32 { return l.opacity }

// SetOpacity clamps to [0,1].
func (l *Layer) SetOpacity(opacity float32) {
	l.opacity = math.Clamp(opacity, float32(0), float32(1))
}

// Locked layers reject edits in the host UI; the engine itself only reads
// the flag back out through snapshots.
func (l *Layer) Locked() bool { return l.locked }

func (l *Layer) SetLocked(locked bool) { l.locked = locked }

// NodeIDs returns a copy of the member ids in draw order (bottom first).
func (l *Layer) NodeIDs() []string {
	out := make([]string, len(l.nodeIDs))
	copy(out, l.nodeIDs)
	return out
}

func (l *Layer) addNode(id string) {
	l.nodeIDs = append(l.nodeIDs, id)
}

func (l *Layer) removeNode(id string) bool {
	for i, nid := range l.nodeIDs {
		if nid == id {
			l.nodeIDs = append(l.nodeIDs[:i], l.nodeIDs[i+1:]...)
			return true
		}
	}
	return false
}
