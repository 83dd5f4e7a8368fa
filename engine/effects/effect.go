package effects

import (
	"github.com/google/uuid"

	"github.com/quartzite/prism/engine/math"
)

// Effect kinds as stored in snapshots.
const (
	KindColorAdjust = "color_adjust"
	KindChromaKey   = "chroma_key"
	KindBlur        = "blur"
	KindSharpen     = "sharpen"
	KindVignette    = "vignette"
	KindCustom      = "custom"
)

/**
 * @brief A single entry in a node's effect stack.
 *
 * Uniforms returns the shader parameters the effect wants uploaded. A
 * disabled effect still answers, with values that leave the image untouched,
 * so the renderer never has to special-case the uniform set between frames.
 * ShaderName is empty when the default shader already implements the effect.
 */
type Effect interface {
	ID() string
	Kind() string
	Enabled() bool
	SetEnabled(bool)
	Intensity() float32
	SetIntensity(float32)
	Uniforms() map[string]interface{}
	ShaderName() string
}

// baseEffect carries the state every effect shares.
type baseEffect struct {
	id        string
	kind      string
	enabled   bool
	intensity float32
}

func newBase(kind string) baseEffect {
	return baseEffect{
		id:        uuid.NewString(),
		kind:      kind,
		enabled:   true,
		intensity: 1,
	}
}

func (b *baseEffect) ID() string         { return b.id }
func (b *baseEffect) Kind() string       { return b.kind }
func (b *baseEffect) Enabled() bool      { return b.enabled }
func (b *baseEffect) SetEnabled(on bool) { b.enabled = on }
func (b *baseEffect) Intensity() float32 { return b.intensity }

// SetIntensity clamps to [0,1].
func (b *baseEffect) SetIntensity(v float32) {
	b.intensity = math.Clamp(v, float32(0), float32(1))
}

// scaled blends a value towards its neutral point by the effect intensity,
// and snaps fully to neutral when disabled.
func (b *baseEffect) scaled(value, neutral float32) float32 {
	if !b.enabled {
		return neutral
	}
	return neutral + (value-neutral)*b.intensity
}

// ColorAdjust tweaks brightness, contrast, saturation and hue. It is handled
// by the default shader, so it never forces a shader switch.
type ColorAdjust struct {
	baseEffect
	Brightness float32 // additive, 0 neutral
	Contrast   float32 // multiplicative, 1 neutral
	Saturation float32 // multiplicative, 1 neutral
	HueShift   float32 // radians, 0 neutral
}

func NewColorAdjust() *ColorAdjust {
	return &ColorAdjust{
		baseEffect: newBase(KindColorAdjust),
		Contrast:   1,
		Saturation: 1,
	}
}

func (e *ColorAdjust) ShaderName() string { return "" }

func (e *ColorAdjust) Uniforms() map[string]interface{} {
	return map[string]interface{}{
		"u_brightness": e.scaled(e.Brightness, 0),
		"u_contrast":   e.scaled(e.Contrast, 1),
		"u_saturation": e.scaled(e.Saturation, 1),
		"u_hue_shift":  e.scaled(e.HueShift, 0),
	}
}

// ChromaKey knocks out pixels near the key color.
type ChromaKey struct {
	baseEffect
	KeyColor   math.Vec3
	Threshold  float32
	Smoothness float32
}

func NewChromaKey() *ChromaKey {
	return &ChromaKey{
		baseEffect: newBase(KindChromaKey),
		KeyColor:   math.NewVec3(0, 1, 0),
		Threshold:  0.4,
		Smoothness: 0.1,
	}
}

func (e *ChromaKey) ShaderName() string {
	if !e.enabled {
		return ""
	}
	return "chroma_key"
}

func (e *ChromaKey) Uniforms() map[string]interface{} {
	return map[string]interface{}{
		"u_key_color":      e.KeyColor,
		"u_key_threshold":  e.scaled(e.Threshold, 0),
		"u_key_smoothness": e.Smoothness,
	}
}

// Blur is a separable gaussian approximation with radius in texels.
type Blur struct {
	baseEffect
	Radius float32
}

func NewBlur() *Blur {
	return &Blur{baseEffect: newBase(KindBlur), Radius: 4}
}

func (e *Blur) ShaderName() string {
	if !e.enabled {
		return ""
	}
	return "blur"
}

func (e *Blur) Uniforms() map[string]interface{} {
	return map[string]interface{}{
		"u_blur_radius": e.scaled(e.Radius, 0),
	}
}

// Sharpen is an unsharp-mask pass.
type Sharpen struct {
	baseEffect
	Amount float32
}

func NewSharpen() *Sharpen {
	return &Sharpen{baseEffect: newBase(KindSharpen), Amount: 0.5}
}

func (e *Sharpen) ShaderName() string {
	if !e.enabled {
		return ""
	}
	return "sharpen"
}

func (e *Sharpen) Uniforms() map[string]interface{} {
	return map[string]interface{}{
		"u_sharpen_amount": e.scaled(e.Amount, 0),
	}
}

// Vignette darkens towards the frame edges.
type Vignette struct {
	baseEffect
	Radius   float32 // where falloff starts, in normalized distance
	Softness float32
}

func NewVignette() *Vignette {
	return &Vignette{
		baseEffect: newBase(KindVignette),
		Radius:     0.75,
		Softness:   0.45,
	}
}

func (e *Vignette) ShaderName() string {
	if !e.enabled {
		return ""
	}
	return "vignette"
}

func (e *Vignette) Uniforms() map[string]interface{} {
	return map[string]interface{}{
		"u_vignette_radius":   e.Radius,
		"u_vignette_softness": e.Softness,
		"u_vignette_amount":   e.scaled(1, 0),
	}
}

// Custom pairs an arbitrary registered shader with a free-form uniform set,
// the escape hatch for host-supplied effects.
type Custom struct {
	baseEffect
	Shader string
	Values map[string]interface{}
}

func NewCustom(shader string) *Custom {
	return &Custom{
		baseEffect: newBase(KindCustom),
		Shader:     shader,
		Values:     make(map[string]interface{}),
	}
}

func (e *Custom) ShaderName() string {
	if !e.enabled {
		return ""
	}
	return e.Shader
}

func (e *Custom) Uniforms() map[string]interface{} {
	if !e.enabled {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(e.Values))
	for k, v := range e.Values {
		out[k] = v
	}
	return out
}
