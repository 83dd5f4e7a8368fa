package effects

import "fmt"

// Preset names built into the engine.
const (
	PresetVibrant    = "vibrant"
	PresetCool       = "cool"
	PresetWarm       = "warm"
	PresetVintage    = "vintage"
	PresetBlackWhite = "blackwhite"
)

// PresetNames lists the built-in presets in a stable order for UI menus.
func PresetNames() []string {
	return []string{PresetVibrant, PresetCool, PresetWarm, PresetVintage, PresetBlackWhite}
}

// NewPreset builds the effect stack for a named look. Each call returns fresh
// effect instances with their own ids.
func NewPreset(name string) ([]Effect, error) {
	switch name {
	case PresetVibrant:
		c := NewColorAdjust()
		c.Saturation = 1.4
		c.Contrast = 1.1
		return []Effect{c}, nil
	case PresetCool:
		c := NewColorAdjust()
		c.HueShift = 0.12
		c.Brightness = -0.02
		return []Effect{c}, nil
	case PresetWarm:
		c := NewColorAdjust()
		c.HueShift = -0.1
		c.Brightness = 0.04
		c.Saturation = 1.1
		return []Effect{c}, nil
	case PresetVintage:
		c := NewColorAdjust()
		c.Saturation = 0.7
		c.Contrast = 0.92
		c.Brightness = 0.03
		v := NewVignette()
		v.Radius = 0.65
		v.Softness = 0.5
		return []Effect{c, v}, nil
	case PresetBlackWhite:
		c := NewColorAdjust()
		c.Saturation = 0
		c.Contrast = 1.05
		return []Effect{c}, nil
	default:
		return nil, fmt.Errorf("unknown preset %q", name)
	}
}

// ApplyPreset replaces the manager's stack with a named preset.
func (m *Manager) ApplyPreset(name string) error {
	stack, err := NewPreset(name)
	if err != nil {
		return err
	}
	m.stack = stack
	return nil
}
