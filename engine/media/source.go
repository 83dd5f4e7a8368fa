package media

import (
	"github.com/quartzite/prism/engine/gpu"
)

// FrameKind says where a frame's pixels live.
type FrameKind int

const (
	// Frame2D frames were uploaded from CPU pixels by the source itself.
	Frame2D FrameKind = iota
	// FrameExternal frames wrap a texture some other owner (a hardware
	// video decoder) keeps alive; the source never deletes it.
	FrameExternal
)

// Frame is one displayable texture at a point in media time.
type Frame struct {
	Kind    FrameKind
	Texture *gpu.Texture
	// PTS is the presentation time of the frame within the media, useful
	// for hosts checking audio/video drift.
	PTS float64
}

/**
 * @brief A producer of textures over media time.
 *
 * TextureAt answers for a time measured from the media's own start (the
 * caller applies clip start and trim offsets). Returning (nil, nil) means
 * "nothing to show yet, skip the node this frame"; errors mean the source is
 * broken. Sources own their GPU textures unless the frame is FrameExternal.
 */
type Source interface {
	Key() string
	TextureAt(t float64) (*Frame, error)
	Dispose()
}

// Ticker is implemented by sources that need pumping every frame regardless
// of whether anything asked for a texture, video decoders mostly.
type Ticker interface {
	Tick(delta float64)
}
