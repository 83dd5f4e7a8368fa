package media

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"

	"github.com/quartzite/prism/engine/gpu"
)

// maxAnimatedTextures bounds how many frames of one animation stay uploaded
// at once. Long GIFs cycle textures through this window instead of holding
// every frame on the GPU.
const maxAnimatedTextures = 20

type animatedFrame struct {
	// startAt is the accumulated delay at which this frame begins, seconds.
	startAt float64
	pixels  []byte
	width   int
	height  int
}

// AnimatedImageSource plays a GIF on the clip's timeline. Frame pixels are
// decoded once up front (coalescing disposal the way browsers show them);
// textures are uploaded lazily and capped.
type AnimatedImageSource struct {
	key     string
	backend gpu.Backend

	frames   []animatedFrame
	loopSecs float64

	textures map[int]*gpu.Texture
	order    []int // upload order, oldest first
}

func NewAnimatedImageSource(path string, backend gpu.Backend) (*AnimatedImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode gif %q: %w", path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif %q has no frames", path)
	}

	s := &AnimatedImageSource{
		key:      path,
		backend:  backend,
		textures: make(map[int]*gpu.Texture),
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	elapsed := 0.0
	for i, src := range g.Image {
		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)
		pixels := make([]byte, len(canvas.Pix))
		copy(pixels, canvas.Pix)

		delay := 0.1 // GIF convention for zero/absent delay
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = float64(g.Delay[i]) / 100.0
		}
		s.frames = append(s.frames, animatedFrame{
			startAt: elapsed,
			pixels:  pixels,
			width:   bounds.Dx(),
			height:  bounds.Dy(),
		})
		elapsed += delay
	}
	s.loopSecs = elapsed
	return s, nil
}

func (s *AnimatedImageSource) Key() string { return s.key }

func (s *AnimatedImageSource) FrameCount() int { return len(s.frames) }

func (s *AnimatedImageSource) LoopDuration() float64 { return s.loopSecs }

// frameIndexAt maps media time onto a frame by walking the accumulated
// delays, looping over the total duration.
func (s *AnimatedImageSource) frameIndexAt(t float64) int {
	if len(s.frames) == 1 || s.loopSecs <= 0 {
		return 0
	}
	if t < 0 {
		t = 0
	}
	loops := int(t / s.loopSecs)
	t -= float64(loops) * s.loopSecs
	for i := len(s.frames) - 1; i >= 0; i-- {
		if t >= s.frames[i].startAt {
			return i
		}
	}
	return 0
}

func (s *AnimatedImageSource) TextureAt(t float64) (*Frame, error) {
	idx := s.frameIndexAt(t)
	tex, err := s.textureFor(idx)
	if err != nil {
		// A failed upload of a mid-animation frame falls back to the
		// first frame before giving up entirely.
		if idx != 0 {
			if first, ferr := s.textureFor(0); ferr == nil {
				return &Frame{Kind: Frame2D, Texture: first}, nil
			}
		}
		return nil, err
	}
	return &Frame{Kind: Frame2D, Texture: tex}, nil
}

func (s *AnimatedImageSource) textureFor(idx int) (*gpu.Texture, error) {
	if tex, ok := s.textures[idx]; ok {
		return tex, nil
	}
	frame := s.frames[idx]
	tex := gpu.NewTexture(s.backend, gpu.DefaultTextureOptions())
	if err := tex.Upload(frame.width, frame.height, frame.pixels); err != nil {
		return nil, fmt.Errorf("gif %q frame %d: %w", s.key, idx, err)
	}
	s.textures[idx] = tex
	s.order = append(s.order, idx)
	s.evict()
	return tex, nil
}

// evict drops the oldest uploaded frames above the cap.
func (s *AnimatedImageSource) evict() {
	for len(s.order) > maxAnimatedTextures {
		oldest := s.order[0]
		s.order = s.order[1:]
		if tex, ok := s.textures[oldest]; ok {
			tex.Dispose()
			delete(s.textures, oldest)
		}
	}
}

func (s *AnimatedImageSource) UploadedFrames() int { return len(s.textures) }

func (s *AnimatedImageSource) Dispose() {
	for _, tex := range s.textures {
		tex.Dispose()
	}
	s.textures = make(map[int]*gpu.Texture)
	s.order = nil
}
