package media

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	// Register the decoders image clips come in as.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/quartzite/prism/engine/systems"
)

// ImageSource serves one still image. The texture lives in the shared
// texture system, so two clips showing the same file share GPU memory.
type ImageSource struct {
	key      string
	textures *systems.TextureSystem
	frame    *Frame
	loadErr  error
	loaded   bool
}

func NewImageSource(path string, textures *systems.TextureSystem) *ImageSource {
	return &ImageSource{key: path, textures: textures}
}

func (s *ImageSource) Key() string { return s.key }

// TextureAt ignores t; a still is a still. The file is decoded on first use
// and a failure sticks, so a broken path does not retry every frame.
func (s *ImageSource) TextureAt(t float64) (*Frame, error) {
	if !s.loaded {
		s.loaded = true
		tex, err := s.textures.Acquire(s.key, func() ([]byte, int, int, error) {
			return decodeImageFile(s.key)
		})
		if err != nil {
			s.loadErr = err
		} else {
			s.frame = &Frame{Kind: Frame2D, Texture: tex}
		}
	}
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.frame, nil
}

func (s *ImageSource) Dispose() {
	if s.frame != nil {
		s.textures.Release(s.key)
		s.frame = nil
	}
	s.loaded = false
	s.loadErr = nil
}

func decodeImageFile(path string) ([]byte, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode %q: %w", path, err)
	}
	rgba := toRGBA(img)
	bounds := rgba.Bounds()
	return rgba.Pix, bounds.Dx(), bounds.Dy(), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
