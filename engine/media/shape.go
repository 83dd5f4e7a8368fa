package media

import (
	"fmt"
	"image"
	"image/color"

	"github.com/quartzite/prism/engine/gpu"
)

type ShapeKind int

const (
	ShapeRect ShapeKind = iota
	ShapeEllipse
	ShapeRoundedRect
)

// ShapeSpec describes a solid shape raster. Sizes are in pixels; the corner
// radius only applies to rounded rects.
type ShapeSpec struct {
	Kind         ShapeKind
	Width        int
	Height       int
	Fill         color.RGBA
	CornerRadius float64
}

// ShapeSource rasterizes a solid shape once and serves it forever.
type ShapeSource struct {
	key     string
	backend gpu.Backend
	spec    ShapeSpec

	texture *gpu.Texture
	dirty   bool
}

func NewShapeSource(key string, spec ShapeSpec, backend gpu.Backend) (*ShapeSource, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("shape %q: size %dx%d", key, spec.Width, spec.Height)
	}
	return &ShapeSource{
		key:     key,
		backend: backend,
		spec:    spec,
		texture: gpu.NewTexture(backend, gpu.DefaultTextureOptions()),
		dirty:   true,
	}, nil
}

func (s *ShapeSource) Key() string { return s.key }

func (s *ShapeSource) SetSpec(spec ShapeSpec) {
	s.spec = spec
	s.dirty = true
}

func (s *ShapeSource) TextureAt(t float64) (*Frame, error) {
	if s.dirty {
		img := rasterizeShape(s.spec)
		if err := s.texture.Upload(s.spec.Width, s.spec.Height, img.Pix); err != nil {
			return nil, err
		}
		s.dirty = false
	}
	return &Frame{Kind: Frame2D, Texture: s.texture}, nil
}

func (s *ShapeSource) Dispose() {
	s.texture.Dispose()
}

func rasterizeShape(spec ShapeSpec) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	for y := 0; y < spec.Height; y++ {
		for x := 0; x < spec.Width; x++ {
			if shapeContains(spec, float64(x)+0.5, float64(y)+0.5) {
				img.SetRGBA(x, y, spec.Fill)
			}
		}
	}
	return img
}

func shapeContains(spec ShapeSpec, x, y float64) bool {
	w := float64(spec.Width)
	h := float64(spec.Height)
	switch spec.Kind {
	case ShapeEllipse:
		dx := (x - w/2) / (w / 2)
		dy := (y - h/2) / (h / 2)
		return dx*dx+dy*dy <= 1
	case ShapeRoundedRect:
		r := spec.CornerRadius
		if r <= 0 {
			return true
		}
		if r > w/2 {
			r = w / 2
		}
		if r > h/2 {
			r = h / 2
		}
		// Inside the horizontal or vertical core band, or inside one of
		// the corner circles.
		if x >= r && x <= w-r {
			return true
		}
		if y >= r && y <= h-r {
			return true
		}
		cx := r
		if x > w/2 {
			cx = w - r
		}
		cy := r
		if y > h/2 {
			cy = h - r
		}
		dx := x - cx
		dy := y - cy
		return dx*dx+dy*dy <= r*r
	default:
		return true
	}
}
