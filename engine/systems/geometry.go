package systems

import (
	"fmt"

	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu"
	"github.com/quartzite/prism/engine/math"
)

// DefaultQuadName is the shared unit quad every textured node draws with.
const DefaultQuadName = "quad"

type geometryEntry struct {
	handle     gpu.GeometryHandle
	indexCount int
	refs       int
}

// GeometrySystem is a reference-counted cache of uploaded vertex/index
// buffers. Nearly everything shares the unit quad; meshes beyond that come
// from hosts with custom clip shapes.
type GeometrySystem struct {
	backend gpu.Backend
	entries map[string]*geometryEntry
}

func NewGeometrySystem(backend gpu.Backend) (*GeometrySystem, error) {
	gs := &GeometrySystem{
		backend: backend,
		entries: make(map[string]*geometryEntry),
	}
	// Unit quad over [0,1]^2, uv matching position.
	quad := []math.Vertex2D{
		{Position: math.NewVec2(0, 0), Texcoord: math.NewVec2(0, 0)},
		{Position: math.NewVec2(1, 0), Texcoord: math.NewVec2(1, 0)},
		{Position: math.NewVec2(1, 1), Texcoord: math.NewVec2(1, 1)},
		{Position: math.NewVec2(0, 1), Texcoord: math.NewVec2(0, 1)},
	}
	indices := []uint16{0, 1, 2, 2, 3, 0}
	if _, err := gs.RegisterVertices(DefaultQuadName, quad, indices); err != nil {
		return nil, fmt.Errorf("default quad: %w", err)
	}
	return gs, nil
}

// RegisterVertices uploads a mesh described as typed vertices, flattened to
// the backend's interleaved x,y,u,v layout.
func (gs *GeometrySystem) RegisterVertices(name string, vertices []math.Vertex2D, indices []uint16) (gpu.GeometryHandle, error) {
	flat := make([]float32, 0, len(vertices)*4)
	for _, v := range vertices {
		flat = append(flat, v.Position.X, v.Position.Y, v.Texcoord.X, v.Texcoord.Y)
	}
	return gs.Register(name, flat, indices)
}

// Register uploads a mesh under name with one initial reference.
func (gs *GeometrySystem) Register(name string, vertices []float32, indices []uint16) (gpu.GeometryHandle, error) {
	if entry, ok := gs.entries[name]; ok {
		entry.refs++
		return entry.handle, nil
	}
	handle, err := gs.backend.CreateGeometry(vertices, indices)
	if err != nil {
		return gpu.NullHandle, fmt.Errorf("geometry %q: %w", name, err)
	}
	gs.entries[name] = &geometryEntry{handle: handle, indexCount: len(indices), refs: 1}
	return handle, nil
}

// Acquire returns the mesh for name, bumping its reference count.
func (gs *GeometrySystem) Acquire(name string) (gpu.GeometryHandle, int, error) {
	entry, ok := gs.entries[name]
	if !ok {
		return gpu.NullHandle, 0, fmt.Errorf("geometry %q not registered", name)
	}
	entry.refs++
	return entry.handle, entry.indexCount, nil
}

// Lookup returns the mesh for name without touching its reference count.
// The renderer resolves node geometry this way every frame; references are
// taken by whoever attached the geometry to the node.
func (gs *GeometrySystem) Lookup(name string) (gpu.GeometryHandle, int, bool) {
	entry, ok := gs.entries[name]
	if !ok {
		return gpu.NullHandle, 0, false
	}
	return entry.handle, entry.indexCount, true
}

// Quad returns the default quad without reference bookkeeping; it lives for
// the whole session.
func (gs *GeometrySystem) Quad() (gpu.GeometryHandle, int) {
	entry := gs.entries[DefaultQuadName]
	return entry.handle, entry.indexCount
}

func (gs *GeometrySystem) Release(name string) {
	entry, ok := gs.entries[name]
	if !ok {
		core.LogWarn("geometry system: release of unknown name %q", name)
		return
	}
	if entry.refs > 0 {
		entry.refs--
	}
	if entry.refs == 0 && name != DefaultQuadName {
		gs.backend.DeleteGeometry(entry.handle)
		delete(gs.entries, name)
	}
}

func (gs *GeometrySystem) Shutdown() {
	for name, entry := range gs.entries {
		gs.backend.DeleteGeometry(entry.handle)
		delete(gs.entries, name)
	}
}
