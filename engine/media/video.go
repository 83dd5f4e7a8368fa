package media

import (
	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu"
)

// Decoder is the host-supplied video decode pipeline. The engine never
// decodes video itself; it consumes whatever frames the host's decoder
// (ffmpeg, platform codecs) has ready and uploads them.
type Decoder interface {
	// Seek requests decoding from the given media time. Frames produced
	// while IsSeeking reports true are stale and must not be shown.
	Seek(t float64) error
	IsSeeking() bool
	// FrameReady reports whether a fresh frame is waiting in the decoder.
	FrameReady() bool
	// ReadFrame drains the current frame as RGBA pixels. Only valid when
	// FrameReady; ok is false when the decoder had nothing after all.
	ReadFrame() (pixels []byte, width, height int, pts float64, ok bool)
	Duration() float64
	Close() error
}

// VideoSource turns a Decoder's output into a texture. Exactly one texture
// is kept and re-uploaded in place, and a stale frame keeps showing until
// the decoder produces the next one, which reads as normal playback latency
// instead of flicker.
type VideoSource struct {
	key     string
	decoder Decoder
	backend gpu.Backend

	texture *gpu.Texture
	lastPTS float64
	hasAny  bool
	sought  bool
	lastReq float64
}

// seekSlack is how far ahead of the last shown frame a request may run
// before it counts as a jump needing a decoder seek.
const seekSlack = 0.5

func NewVideoSource(key string, decoder Decoder, backend gpu.Backend) *VideoSource {
	return &VideoSource{
		key:     key,
		decoder: decoder,
		backend: backend,
		texture: gpu.NewTexture(backend, gpu.DefaultTextureOptions()),
	}
}

func (s *VideoSource) Key() string { return s.key }

// Tick pulls a ready frame out of the decoder. Frames are dropped while the
// decoder is still seeking; showing them would flash the pre-seek image.
func (s *VideoSource) Tick(delta float64) {
	if s.decoder.IsSeeking() || !s.decoder.FrameReady() {
		return
	}
	pixels, width, height, pts, ok := s.decoder.ReadFrame()
	if !ok {
		return
	}
	if err := s.texture.Upload(width, height, pixels); err != nil {
		core.LogError("video %q: frame upload: %v", s.key, err)
		return
	}
	s.lastPTS = pts
	s.hasAny = true
}

// TextureAt returns the most recent decoded frame. Backwards jumps and large
// forward jumps trigger a decoder seek; until the first frame after open or
// seek arrives, (nil, nil) tells the renderer to skip the node.
func (s *VideoSource) TextureAt(t float64) (*Frame, error) {
	if !s.sought || t < s.lastReq || t > s.lastReq+seekSlack {
		if err := s.decoder.Seek(clampMediaTime(t, s.decoder.Duration())); err != nil {
			return nil, err
		}
		s.sought = true
	}
	s.lastReq = t
	if !s.hasAny {
		return nil, nil
	}
	return &Frame{Kind: Frame2D, Texture: s.texture, PTS: s.lastPTS}, nil
}

func (s *VideoSource) Dispose() {
	if err := s.decoder.Close(); err != nil {
		core.LogWarn("video %q: decoder close: %v", s.key, err)
	}
	s.texture.Dispose()
}

// clampMediaTime keeps seek targets inside the media, holding the last frame
// when a clip outlives its footage.
func clampMediaTime(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if duration > 0 && t > duration {
		return duration
	}
	return t
}
