package effects

import (
	"testing"

	"github.com/quartzite/prism/engine/math"
)

func TestUniformMergeLastWriterWins(t *testing.T) {
	m := NewManager()

	a := NewColorAdjust()
	a.Brightness = 0.2
	m.Add(a)

	b := NewColorAdjust()
	b.Brightness = 0.5
	m.Add(b)

	got := m.AllUniforms()["u_brightness"]
	if got != float32(0.5) {
		t.Fatalf("expected later effect to win, got u_brightness=%v", got)
	}
}

func TestDisabledEffectEmitsNeutralUniforms(t *testing.T) {
	e := NewColorAdjust()
	e.Brightness = 0.8
	e.Saturation = 2
	e.SetEnabled(false)

	u := e.Uniforms()
	if u["u_brightness"] != float32(0) {
		t.Errorf("disabled brightness = %v, want 0", u["u_brightness"])
	}
	if u["u_saturation"] != float32(1) {
		t.Errorf("disabled saturation = %v, want 1", u["u_saturation"])
	}
}

func TestIntensityScalesTowardsNeutral(t *testing.T) {
	e := NewBlur()
	e.Radius = 8
	e.SetIntensity(0.5)

	if got := e.Uniforms()["u_blur_radius"]; got != float32(4) {
		t.Fatalf("half intensity radius = %v, want 4", got)
	}

	e.SetIntensity(3) // clamps to 1
	if got := e.Uniforms()["u_blur_radius"]; got != float32(8) {
		t.Fatalf("clamped intensity radius = %v, want 8", got)
	}
}

func TestRequiredShaderFirstEnabledWins(t *testing.T) {
	m := NewManager()
	m.Add(NewColorAdjust()) // no dedicated shader
	key := NewChromaKey()
	m.Add(key)
	m.Add(NewBlur())

	if got := m.RequiredShader(); got != "chroma_key" {
		t.Fatalf("RequiredShader = %q, want chroma_key", got)
	}

	key.SetEnabled(false)
	if got := m.RequiredShader(); got != "blur" {
		t.Fatalf("RequiredShader with key disabled = %q, want blur", got)
	}
}

func TestRemoveAndGet(t *testing.T) {
	m := NewManager()
	e := NewSharpen()
	m.Add(e)

	if m.Get(e.ID()) != e {
		t.Fatal("Get did not return the added effect")
	}
	if !m.Remove(e.ID()) {
		t.Fatal("Remove returned false for present effect")
	}
	if m.Remove(e.ID()) {
		t.Fatal("Remove returned true for absent effect")
	}
	if m.Len() != 0 {
		t.Fatalf("Len = %d after removal, want 0", m.Len())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	m := NewManager()

	key := NewChromaKey()
	key.KeyColor = math.NewVec3(0.1, 0.9, 0.2)
	key.Threshold = 0.33
	key.SetIntensity(0.75)
	m.Add(key)

	v := NewVignette()
	v.SetEnabled(false)
	m.Add(v)

	restored := NewManager()
	if err := restored.Import(m.Export()); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("restored %d effects, want 2", restored.Len())
	}

	rk, ok := restored.Effects()[0].(*ChromaKey)
	if !ok {
		t.Fatalf("first restored effect is %T, want *ChromaKey", restored.Effects()[0])
	}
	if rk.ID() != key.ID() {
		t.Errorf("restored id %q, want %q", rk.ID(), key.ID())
	}
	if rk.KeyColor != key.KeyColor {
		t.Errorf("restored key color %v, want %v", rk.KeyColor, key.KeyColor)
	}
	if rk.Threshold != 0.33 {
		t.Errorf("restored threshold %v, want 0.33", rk.Threshold)
	}
	if rk.Intensity() != 0.75 {
		t.Errorf("restored intensity %v, want 0.75", rk.Intensity())
	}
	if restored.Effects()[1].Enabled() {
		t.Error("restored vignette should stay disabled")
	}
}

func TestPresetVintageStack(t *testing.T) {
	m := NewManager()
	if err := m.ApplyPreset(PresetVintage); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("vintage stack has %d effects, want 2", m.Len())
	}
	if got := m.RequiredShader(); got != "vignette" {
		t.Fatalf("vintage RequiredShader = %q, want vignette", got)
	}
	if _, err := NewPreset("nope"); err == nil {
		t.Fatal("unknown preset should error")
	}
}
