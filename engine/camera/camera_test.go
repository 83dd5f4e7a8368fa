package camera

import (
	gomath "math"
	"testing"

	"github.com/quartzite/prism/engine/math"
)

func TestScreenWorldRoundTripOrtho(t *testing.T) {
	c := New()
	c.SetViewportSize(1280, 720)
	c.SetOrthoSize(1280, 720)

	points := [][2]float32{{0, 0}, {640, 360}, {1280, 720}, {100, 650}}
	for _, p := range points {
		world := c.ScreenToWorld(p[0], p[1], 0)
		screen := c.WorldToScreen(world)
		if gomath.Abs(float64(screen.X-p[0])) > 0.01 || gomath.Abs(float64(screen.Y-p[1])) > 0.01 {
			t.Fatalf("round trip of (%v,%v) = (%v,%v)", p[0], p[1], screen.X, screen.Y)
		}
	}
}

func TestScreenWorldRoundTripPerspective(t *testing.T) {
	c := New()
	c.SetProjection(ProjectionPerspective)
	c.SetViewportSize(1920, 1080)
	c.SetPosition(math.NewVec3(5, 3, 20))
	c.SetTarget(math.NewVec3(1, -2, 0))

	world := c.ScreenToWorld(400, 300, 0)
	screen := c.WorldToScreen(world)
	if gomath.Abs(float64(screen.X-400)) > 0.1 || gomath.Abs(float64(screen.Y-300)) > 0.1 {
		t.Fatalf("perspective round trip = (%v,%v), want (400,300)", screen.X, screen.Y)
	}
}

func TestScreenToWorldSingularFallsBackToPosition(t *testing.T) {
	c := New()
	// An up vector parallel to the look direction collapses the view basis,
	// making the combined matrix singular.
	c.SetUp(math.NewVec3(0, 0, 1))
	got := c.ScreenToWorld(10, 10, 0)
	if got != c.Position() {
		t.Fatalf("singular unproject = %v, want camera position %v", got, c.Position())
	}
}

func TestCenterOfScreenMapsToLookAxis(t *testing.T) {
	c := New()
	c.SetViewportSize(1000, 500)
	c.SetOrthoSize(1000, 500)
	world := c.ScreenToWorld(500, 250, 0)
	if gomath.Abs(float64(world.X)) > 0.01 || gomath.Abs(float64(world.Y)) > 0.01 {
		t.Fatalf("screen center = %v, want world origin in XY", world)
	}
}

func TestZoomOrthoShrinksBounds(t *testing.T) {
	c := New()
	c.SetOrthoSize(1000, 500)
	c.Zoom(2)
	w, h := c.OrthoSize()
	if w != 500 || h != 250 {
		t.Fatalf("bounds after 2x zoom = %vx%v, want 500x250", w, h)
	}
}

func TestZoomPerspectiveDollies(t *testing.T) {
	c := New()
	c.SetProjection(ProjectionPerspective)
	c.SetPosition(math.NewVec3(0, 0, 10))
	c.SetTarget(math.NewVec3Zero())
	c.Zoom(2)
	if gomath.Abs(float64(c.Position().Z-5)) > 1e-5 {
		t.Fatalf("position after 2x zoom = %v, want z=5", c.Position())
	}
}

func TestPanPreservesLookDirection(t *testing.T) {
	c := New()
	before := c.Target().Sub(c.Position())
	c.Pan(25, -10)
	after := c.Target().Sub(c.Position())
	if before != after {
		t.Fatalf("look direction changed by pan: %v -> %v", before, after)
	}
	if c.Position().X != 25 || c.Position().Y != -10 {
		t.Fatalf("position after pan = %v", c.Position())
	}
}

func TestGlideToReachesTarget(t *testing.T) {
	c := New()
	c.GlideTo(100, 50, 1.0)
	for i := 0; i < 100; i++ {
		c.Update(0.016)
	}
	if gomath.Abs(float64(c.Position().X-100)) > 0.5 || gomath.Abs(float64(c.Position().Y-50)) > 0.5 {
		t.Fatalf("glide ended at %v, want (100, 50)", c.Position())
	}
}

func TestLazyMatrixReuse(t *testing.T) {
	c := New()
	m1 := c.GetViewProjectionMatrix()
	m2 := c.GetViewProjectionMatrix()
	if m1 != m2 {
		t.Fatal("cached matrix changed without a setter")
	}
	c.SetPosition(math.NewVec3(1, 2, 10))
	m3 := c.GetViewProjectionMatrix()
	if m3 == m1 {
		t.Fatal("matrix did not rebuild after setter")
	}
}
