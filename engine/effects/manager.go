package effects

import (
	"fmt"

	"github.com/quartzite/prism/engine/math"
)

/**
 * @brief Ordered effect stack attached to a single node.
 *
 * Uniform merging is last-writer-wins in stack order, so a later effect can
 * override an earlier one's parameter. Shader selection picks the first
 * enabled effect that demands a dedicated shader; stacking two dedicated
 * shaders on one node is not supported in a single pass.
 */
type Manager struct {
	stack []Effect
}

func NewManager() *Manager {
	return &Manager{}
}

// Add appends an effect to the top of the stack.
func (m *Manager) Add(e Effect) {
	if e == nil {
		return
	}
	m.stack = append(m.stack, e)
}

// Remove drops the effect with the given id. Returns false when absent.
func (m *Manager) Remove(id string) bool {
	for i, e := range m.stack {
		if e.ID() == id {
			m.stack = append(m.stack[:i], m.stack[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the effect with the given id, or nil.
func (m *Manager) Get(id string) Effect {
	for _, e := range m.stack {
		if e.ID() == id {
			return e
		}
	}
	return nil
}

// Effects returns a copy of the stack in application order.
func (m *Manager) Effects() []Effect {
	out := make([]Effect, len(m.stack))
	copy(out, m.stack)
	return out
}

// Reorder moves the effect with the given id to a new stack position,
// clamped to the valid range. Returns false when the id is unknown.
func (m *Manager) Reorder(id string, index int) bool {
	from := -1
	for i, e := range m.stack {
		if e.ID() == id {
			from = i
			break
		}
	}
	if from < 0 {
		return false
	}
	e := m.stack[from]
	m.stack = append(m.stack[:from], m.stack[from+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(m.stack) {
		index = len(m.stack)
	}
	m.stack = append(m.stack[:index], append([]Effect{e}, m.stack[index:]...)...)
	return true
}

func (m *Manager) Len() int { return len(m.stack) }

func (m *Manager) Clear() { m.stack = nil }

// AllUniforms merges every effect's uniforms in stack order.
func (m *Manager) AllUniforms() map[string]interface{} {
	out := make(map[string]interface{})
	for _, e := range m.stack {
		for k, v := range e.Uniforms() {
			out[k] = v
		}
	}
	return out
}

// RequiredShader returns the shader the stack needs, or "" when the default
// shader suffices.
func (m *Manager) RequiredShader() string {
	for _, e := range m.stack {
		if name := e.ShaderName(); name != "" {
			return name
		}
	}
	return ""
}

// State is the serializable form of one effect, snapshot-friendly: scalar
// params in Params, color-like params in Colors.
type State struct {
	ID        string               `json:"id"`
	Kind      string               `json:"kind"`
	Enabled   bool                 `json:"enabled"`
	Intensity float32              `json:"intensity"`
	Shader    string               `json:"shader,omitempty"`
	Params    map[string]float32   `json:"params,omitempty"`
	Colors    map[string]math.Vec3 `json:"colors,omitempty"`
}

// Export serializes the stack in order.
func (m *Manager) Export() []State {
	out := make([]State, 0, len(m.stack))
	for _, e := range m.stack {
		s := State{
			ID:        e.ID(),
			Kind:      e.Kind(),
			Enabled:   e.Enabled(),
			Intensity: e.Intensity(),
			Params:    make(map[string]float32),
		}
		switch v := e.(type) {
		case *ColorAdjust:
			s.Params["brightness"] = v.Brightness
			s.Params["contrast"] = v.Contrast
			s.Params["saturation"] = v.Saturation
			s.Params["hue_shift"] = v.HueShift
		case *ChromaKey:
			s.Params["threshold"] = v.Threshold
			s.Params["smoothness"] = v.Smoothness
			s.Colors = map[string]math.Vec3{"key_color": v.KeyColor}
		case *Blur:
			s.Params["radius"] = v.Radius
		case *Sharpen:
			s.Params["amount"] = v.Amount
		case *Vignette:
			s.Params["radius"] = v.Radius
			s.Params["softness"] = v.Softness
		case *Custom:
			s.Shader = v.Shader
			for k, val := range v.Values {
				switch tv := val.(type) {
				case float32:
					s.Params[k] = tv
				case float64:
					s.Params[k] = float32(tv)
				case math.Vec3:
					if s.Colors == nil {
						s.Colors = make(map[string]math.Vec3)
					}
					s.Colors[k] = tv
				}
			}
		}
		out = append(out, s)
	}
	return out
}

// Import rebuilds the stack from serialized states, replacing the current
// contents.
func (m *Manager) Import(states []State) error {
	m.stack = nil
	for _, s := range states {
		e, err := fromState(s)
		if err != nil {
			return err
		}
		m.stack = append(m.stack, e)
	}
	return nil
}

func fromState(s State) (Effect, error) {
	var e Effect
	switch s.Kind {
	case KindColorAdjust:
		v := NewColorAdjust()
		v.Brightness = s.Params["brightness"]
		v.Contrast = s.Params["contrast"]
		v.Saturation = s.Params["saturation"]
		v.HueShift = s.Params["hue_shift"]
		e = v
	case KindChromaKey:
		v := NewChromaKey()
		v.Threshold = s.Params["threshold"]
		v.Smoothness = s.Params["smoothness"]
		if c, ok := s.Colors["key_color"]; ok {
			v.KeyColor = c
		}
		e = v
	case KindBlur:
		v := NewBlur()
		v.Radius = s.Params["radius"]
		e = v
	case KindSharpen:
		v := NewSharpen()
		v.Amount = s.Params["amount"]
		e = v
	case KindVignette:
		v := NewVignette()
		v.Radius = s.Params["radius"]
		v.Softness = s.Params["softness"]
		e = v
	case KindCustom:
		v := NewCustom(s.Shader)
		for k, val := range s.Params {
			v.Values[k] = val
		}
		for k, val := range s.Colors {
			v.Values[k] = val
		}
		e = v
	default:
		return nil, fmt.Errorf("unknown effect kind %q", s.Kind)
	}
	base := baseOf(e)
	if s.ID != "" {
		base.id = s.ID
	}
	base.enabled = s.Enabled
	base.SetIntensity(s.Intensity)
	return e, nil
}

func baseOf(e Effect) *baseEffect {
	switch v := e.(type) {
	case *ColorAdjust:
		return &v.baseEffect
	case *ChromaKey:
		return &v.baseEffect
	case *Blur:
		return &v.baseEffect
	case *Sharpen:
		return &v.baseEffect
	case *Vignette:
		return &v.baseEffect
	case *Custom:
		return &v.baseEffect
	}
	return nil
}
