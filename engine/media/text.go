package media

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/draw"

	"github.com/quartzite/prism/engine/gpu"
)

// TextStyle controls how a text clip is rasterized.
type TextStyle struct {
	FontPath string
	Color    color.RGBA
	// LineSpacing multiplies the font's natural line height. 0 means 1.
	LineSpacing float64
}

// TextSource rasterizes a string with a BMFont atlas into a texture. The
// raster is redone only when the text or style changes, so static captions
// cost one upload total.
type TextSource struct {
	key     string
	backend gpu.Backend

	font  *bmfont.BitmapFont
	style TextStyle
	text  string

	texture *gpu.Texture
	width   int
	height  int
	dirty   bool
}

func NewTextSource(key, text string, style TextStyle, backend gpu.Backend) (*TextSource, error) {
	font, err := bmfont.Load(style.FontPath)
	if err != nil {
		return nil, fmt.Errorf("load font %q: %w", style.FontPath, err)
	}
	if style.Color.A == 0 {
		style.Color = color.RGBA{255, 255, 255, 255}
	}
	return &TextSource{
		key:     key,
		backend: backend,
		font:    font,
		style:   style,
		text:    text,
		texture: gpu.NewTexture(backend, gpu.DefaultTextureOptions()),
		dirty:   true,
	}, nil
}

func (s *TextSource) Key() string { return s.key }

func (s *TextSource) Text() string { return s.text }

func (s *TextSource) SetText(text string) {
	if s.text == text {
		return
	}
	s.text = text
	s.dirty = true
}

func (s *TextSource) SetStyle(style TextStyle) {
	s.style = style
	s.dirty = true
}

// Size reports the pixel size of the last raster.
func (s *TextSource) Size() (int, int) { return s.width, s.height }

func (s *TextSource) TextureAt(t float64) (*Frame, error) {
	if s.dirty {
		if err := s.rasterize(); err != nil {
			return nil, err
		}
		s.dirty = false
	}
	if !s.texture.Ready() {
		return nil, nil
	}
	return &Frame{Kind: Frame2D, Texture: s.texture}, nil
}

func (s *TextSource) Dispose() {
	s.texture.Dispose()
}

func (s *TextSource) lineHeight() int {
	h := s.font.Descriptor.Common.LineHeight
	if s.style.LineSpacing > 0 {
		h = int(float64(h) * s.style.LineSpacing)
	}
	return h
}

func (s *TextSource) rasterize() error {
	lines := strings.Split(s.text, "\n")

	width := 0
	for _, line := range lines {
		if w := s.measure(line); w > width {
			width = w
		}
	}
	height := s.lineHeight() * len(lines)
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	tint := image.NewUniform(s.style.Color)

	penY := 0
	for _, line := range lines {
		penX := 0
		var prev rune
		for i, r := range line {
			ch, ok := s.font.Descriptor.Chars[r]
			if !ok {
				prev = r
				continue
			}
			if i > 0 {
				penX += s.kerning(prev, r)
			}
			sheet, ok := s.font.PageSheets[ch.Page]
			if ok && ch.Width > 0 && ch.Height > 0 {
				dst := image.Rect(
					penX+ch.XOffset,
					penY+ch.YOffset,
					penX+ch.XOffset+ch.Width,
					penY+ch.YOffset+ch.Height,
				)
				src := image.Pt(ch.X, ch.Y)
				// Glyph coverage masks the tint color in, so the
				// atlas can be plain white.
				draw.DrawMask(canvas, dst, tint, image.Point{}, sheet, src, draw.Over)
			}
			penX += ch.XAdvance
			prev = r
		}
		penY += s.lineHeight()
	}

	s.width = width
	s.height = height
	return s.texture.Upload(width, height, canvas.Pix)
}

func (s *TextSource) measure(line string) int {
	width := 0
	var prev rune
	for i, r := range line {
		ch, ok := s.font.Descriptor.Chars[r]
		if !ok {
			prev = r
			continue
		}
		if i > 0 {
			width += s.kerning(prev, r)
		}
		width += ch.XAdvance
		prev = r
	}
	return width
}

func (s *TextSource) kerning(first, second rune) int {
	if k, ok := s.font.Descriptor.Kerning[bmfont.CharPair{First: first, Second: second}]; ok {
		return k.Amount
	}
	return 0
}
