package gpu

import "github.com/quartzite/prism/engine/core"

// Texture wraps a backend texture handle with the bookkeeping the engine
// needs: dimensions, readiness and a dirty flag so Update is idempotent.
type Texture struct {
	backend  Backend
	handle   TextureHandle
	width    int
	height   int
	opts     TextureOptions
	ready    bool
	dirty    bool
	disposed bool
	external bool

	// pending holds pixels waiting for the next Update when dirty.
	pending []byte
}

func NewTexture(backend Backend, opts TextureOptions) *Texture {
	return &Texture{backend: backend, opts: opts}
}

// WrapExternal wraps a handle owned by someone else (a zero-copy video
// frame). Dispose on a wrapped texture does not delete the handle.
func WrapExternal(backend Backend, handle TextureHandle, width, height int) *Texture {
	return &Texture{
		backend:  backend,
		handle:   handle,
		width:    width,
		height:   height,
		ready:    true,
		external: true,
	}
}

// Upload creates the backing texture on first call and re-uploads on
// subsequent calls. A load completing after Dispose is ignored.
func (t *Texture) Upload(width, height int, pixels []byte) error {
	if t.disposed {
		return core.ErrDisposed
	}
	if t.handle == NullHandle {
		h, err := t.backend.CreateTexture2D(width, height, pixels, t.opts)
		if err != nil {
			return err
		}
		t.handle = h
	} else {
		if err := t.backend.UpdateTexture2D(t.handle, width, height, pixels); err != nil {
			return err
		}
	}
	t.width = width
	t.height = height
	t.ready = true
	t.dirty = false
	t.pending = nil
	return nil
}

// MarkDirty schedules pixels for the next Update call.
func (t *Texture) MarkDirty(pixels []byte) {
	t.pending = pixels
	t.dirty = true
}

// Update re-uploads only when the dirty flag is set.
func (t *Texture) Update() error {
	if !t.dirty || t.disposed {
		return nil
	}
	return t.Upload(t.width, t.height, t.pending)
}

func (t *Texture) Bind(unit int) {
	if !t.ready || t.disposed {
		return
	}
	t.backend.BindTexture(unit, t.handle)
}

func (t *Texture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.ready = false
	if t.handle != NullHandle && !t.external {
		t.backend.DeleteTexture(t.handle)
	}
	t.handle = NullHandle
}

func (t *Texture) Ready() bool    { return t.ready && !t.disposed }
func (t *Texture) Disposed() bool { return t.disposed }
func (t *Texture) Width() int     { return t.width }
func (t *Texture) Height() int    { return t.height }

// Handle exposes the raw backend handle, mainly for stats and tests.
func (t *Texture) Handle() TextureHandle { return t.handle }

// SizeBytes is the RGBA byte footprint, used for cache budgeting.
func (t *Texture) SizeBytes() uint64 {
	return uint64(t.width) * uint64(t.height) * 4
}
