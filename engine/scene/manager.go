package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/quartzite/prism/engine/camera"
	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/math"
)

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrLayerNotFound = errors.New("layer not found")
	ErrDuplicateNode = errors.New("node id already registered")
	ErrCycle         = errors.New("attach would create a cycle")
)

/**
 * @brief Owner of the whole scene graph: the ordered layer set, a flat
 * id->node registry for O(1) lookup, the active camera and the current
 * playback time.
 *
 * Invariant: every node present in any layer is also present in the registry
 * and vice versa.
 */
type Manager struct {
	layers   []*Layer
	layerIdx map[string]*Layer
	registry map[string]*RenderNode

	camera *camera.Camera
	time   float64

	bus *core.EventBus
}

func NewManager(bus *core.EventBus) *Manager {
	if bus == nil {
		bus = core.NewEventBus()
	}
	return &Manager{
		layerIdx: make(map[string]*Layer),
		registry: make(map[string]*RenderNode),
		camera:   camera.New(),
		bus:      bus,
	}
}

func (m *Manager) Camera() *camera.Camera { return m.camera }

func (m *Manager) SetCamera(c *camera.Camera) {
	if c != nil {
		m.camera = c
	}
}

func (m *Manager) Time() float64 { return m.time }

func (m *Manager) SetTime(t float64) { m.time = t }

func (m *Manager) Events() *core.EventBus { return m.bus }

// AddLayer creates and registers a layer. Order defaults to the end of the
// stack.
func (m *Manager) AddLayer(id, name string) *Layer {
	layer := NewLayer(id, name, len(m.layers))
	m.layers = append(m.layers, layer)
	m.layerIdx[layer.ID()] = layer
	m.fireSceneChanged(layer.ID())
	return layer
}

// RemoveLayer destroys a layer and every node in it.
func (m *Manager) RemoveLayer(id string) error {
	layer, ok := m.layerIdx[id]
	if !ok {
		return fmt.Errorf("remove layer %q: %w", id, ErrLayerNotFound)
	}
	for _, nodeID := range layer.NodeIDs() {
		// Only roots need explicit removal; RemoveNode takes descendants.
		if n, ok := m.registry[nodeID]; ok && n.parentID == "" {
			if err := m.RemoveNode(nodeID); err != nil {
				core.LogWarn("remove layer %q: %v", id, err)
			}
		}
	}
	for i, l := range m.layers {
		if l.ID() == id {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			break
		}
	}
	delete(m.layerIdx, id)
	m.reorderLayers()
	m.fireSceneChanged(id)
	return nil
}

func (m *Manager) reorderLayers() {
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].order < m.layers[j].order
	})
	for i, l := range m.layers {
		l.order = i
	}
}

// SetLayerOrder moves a layer to the given stack index, clamped to the valid
// range; orders stay a dense 0..n-1 run afterwards.
func (m *Manager) SetLayerOrder(id string, index int) error {
	layer, ok := m.layerIdx[id]
	if !ok {
		return fmt.Errorf("reorder layer %q: %w", id, ErrLayerNotFound)
	}
	if layer.order == index {
		return nil
	}
	for i, l := range m.layers {
		if l.ID() == id {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			break
		}
	}
	if index < 0 {
		index = 0
	}
	if index > len(m.layers) {
		index = len(m.layers)
	}
	m.layers = append(m.layers[:index], append([]*Layer{layer}, m.layers[index:]...)...)
	for i, l := range m.layers {
		l.order = i
	}
	m.fireSceneChanged(id)
	return nil
}

func (m *Manager) Layer(id string) (*Layer, error) {
	layer, ok := m.layerIdx[id]
	if !ok {
		return nil, fmt.Errorf("layer %q: %w", id, ErrLayerNotFound)
	}
	return layer, nil
}

// Layers returns the layer stack bottom-first.
func (m *Manager) Layers() []*Layer {
	out := make([]*Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

// AddNode registers a node into the given layer and the flat registry.
func (m *Manager) AddNode(node *RenderNode, layerID string) error {
	if _, exists := m.registry[node.id]; exists {
		return fmt.Errorf("add node %q: %w", node.id, ErrDuplicateNode)
	}
	layer, ok := m.layerIdx[layerID]
	if !ok {
		return fmt.Errorf("add node %q to layer %q: %w", node.id, layerID, ErrLayerNotFound)
	}
	node.mgr = m
	node.layerID = layerID
	node.dirty = true
	m.registry[node.id] = node
	layer.addNode(node.id)
	m.bus.Fire(core.EventNodeAdded, m, core.EventContext{Data: node.id})
	m.fireSceneChanged(node.id)
	return nil
}

// RemoveNode unregisters a node and all of its descendants.
func (m *Manager) RemoveNode(id string) error {
	node, ok := m.registry[id]
	if !ok {
		return fmt.Errorf("remove node %q: %w", id, ErrNodeNotFound)
	}
	for _, childID := range node.ChildIDs() {
		if err := m.RemoveNode(childID); err != nil {
			core.LogWarn("remove node %q child: %v", id, err)
		}
	}
	if node.parentID != "" {
		if parent, ok := m.registry[node.parentID]; ok {
			parent.removeChildID(id)
		}
	}
	if layer, ok := m.layerIdx[node.layerID]; ok {
		layer.removeNode(id)
	}
	node.mgr = nil
	delete(m.registry, id)
	m.bus.Fire(core.EventNodeRemoved, m, core.EventContext{Data: id})
	m.fireSceneChanged(id)
	return nil
}

func (m *Manager) GetNode(id string) (*RenderNode, error) {
	node, ok := m.registry[id]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, ErrNodeNotFound)
	}
	return node, nil
}

// NodeCount reports the registry size across all layers.
func (m *Manager) NodeCount() int { return len(m.registry) }

// AttachChild makes child a child of parent. The child is detached from any
// previous parent first; attaching a node to one of its own descendants is
// rejected, so the graph stays a forest.
func (m *Manager) AttachChild(parentID, childID string) error {
	parent, ok := m.registry[parentID]
	if !ok {
		return fmt.Errorf("attach to %q: %w", parentID, ErrNodeNotFound)
	}
	child, ok := m.registry[childID]
	if !ok {
		return fmt.Errorf("attach %q: %w", childID, ErrNodeNotFound)
	}
	if parentID == childID {
		return fmt.Errorf("attach %q to itself: %w", childID, ErrCycle)
	}
	// Walk up from the parent; finding the child there means a cycle.
	for cursor := parent; cursor.parentID != ""; {
		if cursor.parentID == childID {
			return fmt.Errorf("attach %q under %q: %w", childID, parentID, ErrCycle)
		}
		next, ok := m.registry[cursor.parentID]
		if !ok {
			break
		}
		cursor = next
	}
	m.DetachChild(childID)
	child.parentID = parentID
	parent.childIDs = append(parent.childIDs, childID)
	child.markDirty()
	return nil
}

// DetachChild removes a node from its parent, making it a root again.
func (m *Manager) DetachChild(childID string) {
	child, ok := m.registry[childID]
	if !ok || child.parentID == "" {
		return
	}
	if parent, ok := m.registry[child.parentID]; ok {
		parent.removeChildID(childID)
	}
	child.parentID = ""
	child.markDirty()
}

func (n *RenderNode) removeChildID(id string) {
	for i, cid := range n.childIDs {
		if cid == id {
			n.childIDs = append(n.childIDs[:i], n.childIDs[i+1:]...)
			return
		}
	}
}

// UpdateSceneGraph recomputes every stale node's world transform and opacity
// top-down. A dirty node forces recomputation of its whole subtree.
func (m *Manager) UpdateSceneGraph() {
	for _, layer := range m.layers {
		for _, nodeID := range layer.nodeIDs {
			node, ok := m.registry[nodeID]
			if !ok || node.parentID != "" {
				continue
			}
			m.updateNode(node, math.NewMat4Identity(), 1, false)
		}
	}
}

func (m *Manager) updateNode(node *RenderNode, parentMatrix math.Mat4, parentOpacity float32, force bool) {
	recompute := force || node.dirty
	if recompute {
		node.worldMatrix = parentMatrix.Mul(node.localMatrix())
		node.worldOpacity = parentOpacity * node.opacity
		node.dirty = false
	}
	for _, childID := range node.childIDs {
		child, ok := m.registry[childID]
		if !ok {
			continue
		}
		m.updateNode(child, node.worldMatrix, node.worldOpacity, recompute)
	}
}

// chainVisible reports whether the node and every ancestor are visible.
func (m *Manager) chainVisible(node *RenderNode) bool {
	for cursor := node; cursor != nil; {
		if !cursor.visible {
			return false
		}
		if cursor.parentID == "" {
			return true
		}
		cursor = m.registry[cursor.parentID]
	}
	return true
}

// VisibleNodesAt returns, per visible layer in order, every node that is
// visible through its ancestor chain and active at t.
func (m *Manager) VisibleNodesAt(t float64) []*RenderNode {
	var out []*RenderNode
	for _, layer := range m.layers {
		if !layer.visible {
			continue
		}
		for _, nodeID := range layer.nodeIDs {
			node, ok := m.registry[nodeID]
			if !ok {
				continue
			}
			if !node.ActiveAt(t) || !m.chainVisible(node) {
				continue
			}
			out = append(out, node)
		}
	}
	return out
}

// Pick maps a screen point into the world and returns the topmost node whose
// bounding box contains it at the current time, or nil. The test is an AABB
// approximation, not an exact shape hit.
func (m *Manager) Pick(x, y float32) *RenderNode {
	world := m.camera.ScreenToWorld(x, y, 0)
	for li := len(m.layers) - 1; li >= 0; li-- {
		layer := m.layers[li]
		if !layer.visible {
			continue
		}
		ids := layer.nodeIDs
		for ni := len(ids) - 1; ni >= 0; ni-- {
			node, ok := m.registry[ids[ni]]
			if !ok {
				continue
			}
			if !node.ActiveAt(m.time) || !m.chainVisible(node) {
				continue
			}
			if node.boundsContain(world) {
				return node
			}
		}
	}
	return nil
}

// Clear removes every layer and node.
func (m *Manager) Clear() {
	for _, node := range m.registry {
		node.mgr = nil
	}
	m.layers = nil
	m.layerIdx = make(map[string]*Layer)
	m.registry = make(map[string]*RenderNode)
	m.fireSceneChanged("")
}

func (m *Manager) fireSceneChanged(id string) {
	m.bus.Fire(core.EventSceneChanged, m, core.EventContext{Data: id, Time: m.time})
}
