package media

import (
	"github.com/quartzite/prism/engine/gpu"
)

// ExternalSource serves a GPU surface some other owner keeps alive, a
// hardware video decoder or a shared compositor texture. The frame carries
// FrameExternal so nothing downstream ever deletes or re-uploads it.
type ExternalSource struct {
	key     string
	texture *gpu.Texture
	pts     float64
}

func NewExternalSource(key string, backend gpu.Backend, handle gpu.TextureHandle, width, height int) *ExternalSource {
	return &ExternalSource{
		key:     key,
		texture: gpu.WrapExternal(backend, handle, width, height),
	}
}

func (s *ExternalSource) Key() string { return s.key }

// SetPTS lets the owner report the presentation time of the surface's
// current contents, for hosts watching drift.
func (s *ExternalSource) SetPTS(pts float64) { s.pts = pts }

func (s *ExternalSource) TextureAt(t float64) (*Frame, error) {
	if s.texture == nil || !s.texture.Ready() {
		return nil, nil
	}
	return &Frame{Kind: FrameExternal, Texture: s.texture, PTS: s.pts}, nil
}

// Dispose drops the wrapper; the wrapped handle stays alive for its owner.
func (s *ExternalSource) Dispose() {
	if s.texture != nil {
		s.texture.Dispose()
		s.texture = nil
	}
}
