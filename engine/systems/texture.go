package systems

import (
	"fmt"
	"sort"

	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu"
)

// TextureLoader produces RGBA pixels for a texture key on first acquire.
type TextureLoader func() (pixels []byte, width, height int, err error)

type TextureSystemConfig struct {
	// MaxCachedEntries bounds the number of zero-reference textures kept
	// warm for reuse. 0 means keep none after Prune.
	MaxCachedEntries int
	// MaxCachedBytes bounds the GPU memory of zero-reference textures.
	MaxCachedBytes uint64
}

func DefaultTextureSystemConfig() TextureSystemConfig {
	return TextureSystemConfig{
		MaxCachedEntries: 64,
		MaxCachedBytes:   256 << 20,
	}
}

type textureEntry struct {
	texture *gpu.Texture
	refs    int
	lastUse uint64
}

/**
 * @brief Reference-counted texture cache keyed by source identity.
 *
 * Two nodes showing the same image share one GPU texture. Releasing the last
 * reference keeps the texture cached until Prune evicts it under the
 * configured budgets; a texture with live references is never destroyed.
 */
type TextureSystem struct {
	config  TextureSystemConfig
	backend gpu.Backend
	entries map[string]*textureEntry
	useTick uint64
}

func NewTextureSystem(config TextureSystemConfig, backend gpu.Backend) *TextureSystem {
	return &TextureSystem{
		config:  config,
		backend: backend,
		entries: make(map[string]*textureEntry),
	}
}

// Acquire returns the texture for key, loading and uploading it on first use.
// Every Acquire must be paired with a Release.
func (ts *TextureSystem) Acquire(key string, load TextureLoader) (*gpu.Texture, error) {
	if entry, ok := ts.entries[key]; ok {
		entry.refs++
		entry.lastUse = ts.tick()
		return entry.texture, nil
	}
	if load == nil {
		return nil, fmt.Errorf("texture %q not cached and no loader given", key)
	}
	pixels, width, height, err := load()
	if err != nil {
		return nil, fmt.Errorf("load texture %q: %w", key, err)
	}
	tex := gpu.NewTexture(ts.backend, gpu.DefaultTextureOptions())
	if err := tex.Upload(width, height, pixels); err != nil {
		return nil, fmt.Errorf("upload texture %q: %w", key, err)
	}
	ts.entries[key] = &textureEntry{texture: tex, refs: 1, lastUse: ts.tick()}
	core.LogDebug("texture system: loaded %q (%dx%d)", key, width, height)
	return tex, nil
}

// AcquireExternal registers a texture owned by someone else (a video decoder,
// typically) under the given key without taking over its lifetime.
func (ts *TextureSystem) AcquireExternal(key string, handle gpu.TextureHandle, width, height int) *gpu.Texture {
	if entry, ok := ts.entries[key]; ok {
		entry.refs++
		entry.lastUse = ts.tick()
		return entry.texture
	}
	tex := gpu.WrapExternal(ts.backend, handle, width, height)
	ts.entries[key] = &textureEntry{texture: tex, refs: 1, lastUse: ts.tick()}
	return tex
}

// Release drops one reference. The texture stays cached at zero references
// until Prune decides otherwise.
func (ts *TextureSystem) Release(key string) {
	entry, ok := ts.entries[key]
	if !ok {
		core.LogWarn("texture system: release of unknown key %q", key)
		return
	}
	if entry.refs > 0 {
		entry.refs--
	}
}

// RefCount reports the live reference count for a key, 0 when unknown.
func (ts *TextureSystem) RefCount(key string) int {
	if entry, ok := ts.entries[key]; ok {
		return entry.refs
	}
	return 0
}

func (ts *TextureSystem) EntryCount() int { return len(ts.entries) }

// CachedBytes sums the GPU memory of zero-reference entries.
func (ts *TextureSystem) CachedBytes() uint64 {
	var total uint64
	for _, entry := range ts.entries {
		if entry.refs == 0 {
			total += entry.texture.SizeBytes()
		}
	}
	return total
}

// Prune evicts zero-reference textures, oldest first, until both cache
// budgets are met. Referenced textures are never touched.
func (ts *TextureSystem) Prune() int {
	type candidate struct {
		key     string
		lastUse uint64
	}
	var idle []candidate
	for key, entry := range ts.entries {
		if entry.refs == 0 {
			idle = append(idle, candidate{key, entry.lastUse})
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].lastUse < idle[j].lastUse })

	evicted := 0
	for _, c := range idle {
		if len(idle)-evicted <= ts.config.MaxCachedEntries && ts.CachedBytes() <= ts.config.MaxCachedBytes {
			break
		}
		ts.destroy(c.key)
		evicted++
	}
	if evicted > 0 {
		core.LogDebug("texture system: pruned %d textures", evicted)
	}
	return evicted
}

func (ts *TextureSystem) destroy(key string) {
	entry, ok := ts.entries[key]
	if !ok {
		return
	}
	entry.texture.Dispose()
	delete(ts.entries, key)
}

// Invalidate drops every cached texture without touching the GPU, for use
// after a context loss made the handles meaningless.
func (ts *TextureSystem) Invalidate() {
	ts.entries = make(map[string]*textureEntry)
}

// Shutdown destroys everything, referenced or not.
func (ts *TextureSystem) Shutdown() {
	for key := range ts.entries {
		ts.destroy(key)
	}
}

func (ts *TextureSystem) tick() uint64 {
	ts.useTick++
	return ts.useTick
}
