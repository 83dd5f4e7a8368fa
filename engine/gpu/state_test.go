package gpu

import "testing"

func TestRenderStateElidesRedundantCalls(t *testing.T) {
	backend := NewTraceBackend()
	rs := NewRenderState(backend)

	rs.ApplyBlendMode(BlendModeNormal)
	first := rs.Counters().Blend
	if first == 0 {
		t.Fatal("first blend mode application must issue calls")
	}

	rs.ApplyBlendMode(BlendModeNormal)
	if rs.Counters().Blend != first {
		t.Fatalf("repeated blend mode issued calls: %d -> %d", first, rs.Counters().Blend)
	}

	rs.ApplyBlendMode(BlendModeAdd)
	if rs.Counters().Blend <= first {
		t.Fatal("changing blend mode must issue calls")
	}
}

func TestRenderStateViewportAndProgram(t *testing.T) {
	backend := NewTraceBackend()
	rs := NewRenderState(backend)

	rs.Viewport(0, 0, 1280, 720)
	rs.Viewport(0, 0, 1280, 720)
	if got := rs.Counters().Viewport; got != 1 {
		t.Fatalf("viewport calls = %d, want 1", got)
	}

	rs.UseProgram(7)
	rs.UseProgram(7)
	rs.UseProgram(8)
	if got := rs.Counters().Program; got != 2 {
		t.Fatalf("program switches = %d, want 2", got)
	}
}

func TestRenderStateInvalidate(t *testing.T) {
	backend := NewTraceBackend()
	rs := NewRenderState(backend)

	rs.SetDepthTest(true)
	rs.Invalidate()
	rs.SetDepthTest(true)
	if got := rs.Counters().Depth; got != 2 {
		t.Fatalf("depth calls after invalidate = %d, want 2", got)
	}
}

func TestOverlayFallsBackToNormalFactors(t *testing.T) {
	normal := blendPresets[BlendModeNormal]
	overlay := blendPresets[BlendModeOverlay]
	if normal != overlay {
		t.Fatal("overlay must use normal fixed-function factors; the mode is shader-side")
	}
}

func TestTextureUploadAndDispose(t *testing.T) {
	backend := NewTraceBackend()
	tex := NewTexture(backend, DefaultTextureOptions())
	if tex.Ready() {
		t.Fatal("texture must not be ready before upload")
	}
	if err := tex.Upload(4, 4, make([]byte, 64)); err != nil {
		t.Fatal(err)
	}
	if !tex.Ready() || tex.Width() != 4 {
		t.Fatal("texture not ready after upload")
	}

	tex.Dispose()
	if backend.LiveTextureCount() != 0 {
		t.Fatal("dispose must delete the backend texture")
	}
	if err := tex.Upload(4, 4, nil); err == nil {
		t.Fatal("upload after dispose must fail")
	}
}

func TestTextureUpdateIdempotent(t *testing.T) {
	backend := NewTraceBackend()
	tex := NewTexture(backend, DefaultTextureOptions())
	if err := tex.Upload(2, 2, make([]byte, 16)); err != nil {
		t.Fatal(err)
	}

	calls := len(backend.Calls)
	if err := tex.Update(); err != nil {
		t.Fatal(err)
	}
	if len(backend.Calls) != calls {
		t.Fatal("update without dirty flag must not touch the backend")
	}

	tex.MarkDirty(make([]byte, 16))
	if err := tex.Update(); err != nil {
		t.Fatal(err)
	}
	if len(backend.Calls) == calls {
		t.Fatal("update with dirty flag must re-upload")
	}
	if err := tex.Update(); err != nil {
		t.Fatal(err)
	}
}

func TestTraceProgramIntrospection(t *testing.T) {
	backend := NewTraceBackend()
	vert := "#version 330 core\nin vec2 a_position;\nuniform mat4 u_model;\n"
	frag := "#version 330 core\nuniform sampler2D u_texture;\nuniform float u_opacity;\n"
	info, err := backend.CreateProgram("default", vert, frag)
	if err != nil {
		t.Fatal(err)
	}
	if info.Uniforms["u_model"].Kind != UniformMat4 {
		t.Fatal("u_model should introspect as mat4")
	}
	if info.Uniforms["u_texture"].Kind != UniformSampler2D {
		t.Fatal("u_texture should introspect as sampler2D")
	}
	if _, ok := info.Attributes["a_position"]; !ok {
		t.Fatal("a_position attribute missing")
	}
	if err := backend.SetUniform(info, "nope", 1.0); err == nil {
		t.Fatal("unknown uniform must error")
	}
}
