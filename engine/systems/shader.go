package systems

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu"
)

// DefaultShaderName is the program used when neither a node nor its effect
// stack asks for anything else.
const DefaultShaderName = "default"

type shaderEntry struct {
	name         string
	vertexSrc    string
	fragmentSrc  string
	info         *gpu.ProgramInfo
	unrenderable bool
}

type ShaderSystemConfig struct {
	// WatchDir, when set, is scanned for <name>.vert / <name>.frag pairs
	// and hot-reloaded on change.
	WatchDir string
}

/**
 * @brief Compiles, caches and hot-reloads shader programs.
 *
 * A program that fails to compile is marked unrenderable and its nodes are
 * skipped; the frame goes on. Filesystem events land on the watcher
 * goroutine and are drained into real recompiles by Update on the render
 * thread, the only thread allowed to talk to the GPU.
 */
type ShaderSystem struct {
	config  ShaderSystemConfig
	backend gpu.Backend

	shaders map[string]*shaderEntry

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]struct{}

	warnedUniforms map[string]struct{}
}

func NewShaderSystem(config ShaderSystemConfig, backend gpu.Backend) (*ShaderSystem, error) {
	ss := &ShaderSystem{
		config:         config,
		backend:        backend,
		shaders:        make(map[string]*shaderEntry),
		pending:        make(map[string]struct{}),
		warnedUniforms: make(map[string]struct{}),
	}
	if config.WatchDir != "" {
		if err := ss.watch(config.WatchDir); err != nil {
			return nil, err
		}
	}
	return ss, nil
}

// RegisterBuiltins compiles the shaders every scene depends on.
func (ss *ShaderSystem) RegisterBuiltins() error {
	builtins := []struct {
		name        string
		fragmentSrc string
	}{
		{DefaultShaderName, defaultFragmentSrc},
		{"chroma_key", chromaKeyFragmentSrc},
		{"blur", blurFragmentSrc},
		{"sharpen", sharpenFragmentSrc},
		{"vignette", vignetteFragmentSrc},
	}
	for _, b := range builtins {
		if err := ss.Register(b.name, defaultVertexSrc, b.fragmentSrc); err != nil {
			return fmt.Errorf("builtin shader %q: %w", b.name, err)
		}
	}
	return nil
}

// Register compiles a program and caches it under name. A compile failure is
// returned and the name is marked unrenderable, replacing any previous
// working program of the same name only on success.
func (ss *ShaderSystem) Register(name, vertexSrc, fragmentSrc string) error {
	info, err := ss.backend.CreateProgram(name, vertexSrc, fragmentSrc)
	if err != nil {
		var cerr *gpu.CompileError
		if errors.As(err, &cerr) {
			core.LogError("shader %q %s stage: %s", name, cerr.Stage, strings.TrimSpace(cerr.Log))
		}
		if _, exists := ss.shaders[name]; !exists {
			ss.shaders[name] = &shaderEntry{name: name, unrenderable: true}
		} else {
			// Keep the last good program running; just remember the
			// broken sources were rejected.
			core.LogWarn("shader %q: keeping previous program after failed recompile", name)
		}
		return err
	}
	if prev, ok := ss.shaders[name]; ok && prev.info != nil {
		ss.backend.DeleteProgram(prev.info.Handle)
	}
	ss.shaders[name] = &shaderEntry{
		name:        name,
		vertexSrc:   vertexSrc,
		fragmentSrc: fragmentSrc,
		info:        info,
	}
	return nil
}

// Get returns the program for name, or nil when unknown or unrenderable.
func (ss *ShaderSystem) Get(name string) *gpu.ProgramInfo {
	entry, ok := ss.shaders[name]
	if !ok || entry.unrenderable {
		return nil
	}
	return entry.info
}

// Renderable reports whether name maps to a working program.
func (ss *ShaderSystem) Renderable(name string) bool {
	return ss.Get(name) != nil
}

// SetUniform uploads a uniform if the program declares it. Unknown names are
// logged once per program/name pair and otherwise ignored, so a shader that
// dropped a uniform does not spam every frame.
func (ss *ShaderSystem) SetUniform(info *gpu.ProgramInfo, name string, value interface{}) {
	if err := ss.backend.SetUniform(info, name, value); err != nil {
		key := info.Name + "/" + name
		if _, warned := ss.warnedUniforms[key]; !warned {
			ss.warnedUniforms[key] = struct{}{}
			core.LogWarn("shader %q: %v", info.Name, err)
		}
	}
}

func (ss *ShaderSystem) watch(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("shader watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %q: %w", dir, err)
	}
	ss.watcher = watcher
	go ss.watchLoop()
	core.LogInfo("shader system: watching %q for changes", dir)
	return nil
}

func (ss *ShaderSystem) watchLoop() {
	for {
		select {
		case event, ok := <-ss.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".vert" && ext != ".frag" {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), ext)
			ss.mu.Lock()
			ss.pending[name] = struct{}{}
			ss.mu.Unlock()
		case err, ok := <-ss.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("shader watcher: %v", err)
		}
	}
}

// Update recompiles shaders whose files changed since the last call. Must
// run on the render thread.
func (ss *ShaderSystem) Update() {
	ss.mu.Lock()
	if len(ss.pending) == 0 {
		ss.mu.Unlock()
		return
	}
	names := make([]string, 0, len(ss.pending))
	for name := range ss.pending {
		names = append(names, name)
	}
	ss.pending = make(map[string]struct{})
	ss.mu.Unlock()

	for _, name := range names {
		if err := ss.reloadFromDisk(name); err != nil {
			core.LogError("shader system: reload %q: %v", name, err)
		} else {
			core.LogInfo("shader system: reloaded %q", name)
		}
	}
}

func (ss *ShaderSystem) reloadFromDisk(name string) error {
	vertPath := filepath.Join(ss.config.WatchDir, name+".vert")
	fragPath := filepath.Join(ss.config.WatchDir, name+".frag")

	fragmentSrc, err := os.ReadFile(fragPath)
	if err != nil {
		return err
	}
	vertexSrc := []byte(defaultVertexSrc)
	if data, err := os.ReadFile(vertPath); err == nil {
		vertexSrc = data
	}
	return ss.Register(name, string(vertexSrc), string(fragmentSrc))
}

// Invalidate forgets every compiled program after a context loss.
func (ss *ShaderSystem) Invalidate() {
	ss.shaders = make(map[string]*shaderEntry)
	ss.warnedUniforms = make(map[string]struct{})
}

func (ss *ShaderSystem) Shutdown() {
	if ss.watcher != nil {
		ss.watcher.Close()
		ss.watcher = nil
	}
	for _, entry := range ss.shaders {
		if entry.info != nil {
			ss.backend.DeleteProgram(entry.info.Handle)
		}
	}
	ss.shaders = make(map[string]*shaderEntry)
}
