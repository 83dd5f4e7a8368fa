package systems

import (
	"github.com/quartzite/prism/engine/gpu"
)

type SystemManagerConfig struct {
	Textures TextureSystemConfig
	Shaders  ShaderSystemConfig
}

func DefaultSystemManagerConfig() SystemManagerConfig {
	return SystemManagerConfig{
		Textures: DefaultTextureSystemConfig(),
	}
}

// SystemManager owns the GPU-resource systems and shuts them down in the
// reverse of construction order.
type SystemManager struct {
	backend gpu.Backend

	TextureSystem  *TextureSystem
	ShaderSystem   *ShaderSystem
	GeometrySystem *GeometrySystem
}

func NewSystemManager(config SystemManagerConfig, backend gpu.Backend) (*SystemManager, error) {
	sm := &SystemManager{backend: backend}

	sm.TextureSystem = NewTextureSystem(config.Textures, backend)

	shaders, err := NewShaderSystem(config.Shaders, backend)
	if err != nil {
		sm.Shutdown()
		return nil, err
	}
	sm.ShaderSystem = shaders
	if err := sm.ShaderSystem.RegisterBuiltins(); err != nil {
		sm.Shutdown()
		return nil, err
	}

	geometry, err := NewGeometrySystem(backend)
	if err != nil {
		sm.Shutdown()
		return nil, err
	}
	sm.GeometrySystem = geometry

	return sm, nil
}

// Invalidate forgets every GPU handle after a context loss; callers rebuild
// with RegisterBuiltins and fresh texture acquires.
func (sm *SystemManager) Invalidate() {
	if sm.TextureSystem != nil {
		sm.TextureSystem.Invalidate()
	}
	if sm.ShaderSystem != nil {
		sm.ShaderSystem.Invalidate()
	}
}

func (sm *SystemManager) Shutdown() {
	if sm.GeometrySystem != nil {
		sm.GeometrySystem.Shutdown()
		sm.GeometrySystem = nil
	}
	if sm.ShaderSystem != nil {
		sm.ShaderSystem.Shutdown()
		sm.ShaderSystem = nil
	}
	if sm.TextureSystem != nil {
		sm.TextureSystem.Shutdown()
		sm.TextureSystem = nil
	}
}
