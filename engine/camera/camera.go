package camera

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/quartzite/prism/engine/math"
)

// ProjectionKind selects how the camera projects the scene.
type ProjectionKind int

const (
	ProjectionOrthographic ProjectionKind = iota
	ProjectionPerspective
)

// glideAnim holds active eased moves for position and zoom.
type glideAnim struct {
	x, y, zoom *gween.Tween
}

/**
 * @brief The camera consumed by the renderer. View, projection and combined
 * matrices are cached and rebuilt lazily when a setter marks them dirty.
 */
type Camera struct {
	position math.Vec3
	target   math.Vec3
	up       math.Vec3

	projection ProjectionKind
	near       float32
	far        float32

	// Orthographic world-space bounds, centered at origin.
	orthoWidth  float32
	orthoHeight float32
	// Perspective vertical field of view, degrees.
	fovDegrees float32

	viewportWidth  int
	viewportHeight int

	viewDirty bool
	projDirty bool

	viewMatrix     math.Mat4
	projMatrix     math.Mat4
	viewProjMatrix math.Mat4
	viewProjDirty  bool

	glide *glideAnim
}

func New() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

// Reset restores the default framing: an orthographic camera at z=10 looking
// at the origin over a 1920x1080 world rectangle.
func (c *Camera) Reset() {
	c.position = math.NewVec3(0, 0, 10)
	c.target = math.NewVec3Zero()
	c.up = math.NewVec3Up()
	c.projection = ProjectionOrthographic
	c.near = 0.1
	c.far = 1000
	c.orthoWidth = 1920
	c.orthoHeight = 1080
	c.fovDegrees = 45
	c.viewportWidth = 1920
	c.viewportHeight = 1080
	c.glide = nil
	c.markDirty()
}

func (c *Camera) markDirty() {
	c.viewDirty = true
	c.projDirty = true
	c.viewProjDirty = true
}

func (c *Camera) Position() math.Vec3 { return c.position }
func (c *Camera) Target() math.Vec3   { return c.target }

func (c *Camera) SetPosition(p math.Vec3) {
	c.position = p
	c.viewDirty = true
	c.viewProjDirty = true
}

func (c *Camera) SetTarget(t math.Vec3) {
	c.target = t
	c.viewDirty = true
	c.viewProjDirty = true
}

func (c *Camera) SetUp(up math.Vec3) {
	c.up = up
	c.viewDirty = true
	c.viewProjDirty = true
}

func (c *Camera) Up() math.Vec3 { return c.up }

func (c *Camera) Projection() ProjectionKind { return c.projection }

func (c *Camera) SetProjection(kind ProjectionKind) {
	c.projection = kind
	c.projDirty = true
	c.viewProjDirty = true
}

func (c *Camera) ClipPlanes() (near, far float32) {
	return c.near, c.far
}

func (c *Camera) SetClipPlanes(near, far float32) {
	c.near = near
	c.far = far
	c.projDirty = true
	c.viewProjDirty = true
}

// SetOrthoSize sets the world-space width/height visible through an
// orthographic projection, centered at the origin.
func (c *Camera) SetOrthoSize(width, height float32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.orthoWidth = width
	c.orthoHeight = height
	c.projDirty = true
	c.viewProjDirty = true
}

func (c *Camera) OrthoSize() (float32, float32) {
	return c.orthoWidth, c.orthoHeight
}

func (c *Camera) SetFOV(degrees float32) {
	c.fovDegrees = math.Clamp(degrees, float32(1), float32(179))
	c.projDirty = true
	c.viewProjDirty = true
}

func (c *Camera) FOV() float32 { return c.fovDegrees }

func (c *Camera) SetViewportSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.viewportWidth = width
	c.viewportHeight = height
	c.projDirty = true
	c.viewProjDirty = true
}

func (c *Camera) ViewportSize() (int, int) {
	return c.viewportWidth, c.viewportHeight
}

func (c *Camera) GetViewMatrix() math.Mat4 {
	if c.viewDirty {
		c.viewMatrix = math.NewMat4LookAt(c.position, c.target, c.up)
		c.viewDirty = false
	}
	return c.viewMatrix
}

func (c *Camera) GetProjectionMatrix() math.Mat4 {
	if c.projDirty {
		switch c.projection {
		case ProjectionPerspective:
			aspect := float32(c.viewportWidth) / float32(c.viewportHeight)
			c.projMatrix = math.NewMat4Perspective(math.DegToRad(c.fovDegrees), aspect, c.near, c.far)
		default:
			hw := c.orthoWidth * 0.5
			hh := c.orthoHeight * 0.5
			c.projMatrix = math.NewMat4Orthographic(-hw, hw, -hh, hh, c.near, c.far)
		}
		c.projDirty = false
	}
	return c.projMatrix
}

func (c *Camera) GetViewProjectionMatrix() math.Mat4 {
	if c.viewProjDirty || c.viewDirty || c.projDirty {
		c.viewProjMatrix = c.GetProjectionMatrix().Mul(c.GetViewMatrix())
		c.viewProjDirty = false
	}
	return c.viewProjMatrix
}

// ScreenToWorld unprojects a screen pixel to world space at the given NDC
// depth (-1 near plane, +1 far plane, 0 midway). A singular view-projection
// matrix falls back to the camera's own position instead of failing.
func (c *Camera) ScreenToWorld(x, y float32, depth float32) math.Vec3 {
	inv, ok := c.GetViewProjectionMatrix().Inverse()
	if !ok {
		return c.position
	}
	ndcX := (x/float32(c.viewportWidth))*2 - 1
	ndcY := 1 - (y/float32(c.viewportHeight))*2
	clip := math.NewVec4(ndcX, ndcY, depth, 1)
	world := inv.MulVec4(clip)
	if world.W == 0 {
		return c.position
	}
	return world.MulScalar(1.0 / world.W).XYZ()
}

// WorldToScreen projects a world point to screen pixels, including the
// perspective divide.
func (c *Camera) WorldToScreen(p math.Vec3) math.Vec2 {
	clip := c.GetViewProjectionMatrix().MulVec4(math.NewVec4(p.X, p.Y, p.Z, 1))
	if clip.W == 0 {
		return math.NewVec2Zero()
	}
	ndcX := clip.X / clip.W
	ndcY := clip.Y / clip.W
	return math.NewVec2(
		(ndcX+1)*0.5*float32(c.viewportWidth),
		(1-ndcY)*0.5*float32(c.viewportHeight),
	)
}

// Zoom scales what the camera sees by the given factor: >1 zooms in.
// Orthographic cameras shrink their bounds; perspective cameras dolly toward
// the target.
func (c *Camera) Zoom(factor float32) {
	if factor <= 0 {
		return
	}
	switch c.projection {
	case ProjectionPerspective:
		offset := c.position.Sub(c.target)
		c.position = c.target.Add(offset.MulScalar(1.0 / factor))
		c.viewDirty = true
		c.viewProjDirty = true
	default:
		c.orthoWidth /= factor
		c.orthoHeight /= factor
		c.projDirty = true
		c.viewProjDirty = true
	}
}

// Pan displaces both position and target along the camera's own right/up
// axes so the look direction is preserved.
func (c *Camera) Pan(dx, dy float32) {
	forward := c.target.Sub(c.position).Normalized()
	right := forward.Cross(c.up).Normalized()
	up := right.Cross(forward)

	offset := right.MulScalar(dx).Add(up.MulScalar(dy))
	c.position = c.position.Add(offset)
	c.target = c.target.Add(offset)
	c.viewDirty = true
	c.viewProjDirty = true
}

// GlideTo animates the camera position (and target, keeping the look
// direction) to center on the given world XY over duration seconds.
func (c *Camera) GlideTo(x, y float32, duration float32) {
	if c.glide == nil {
		c.glide = &glideAnim{}
	}
	c.glide.x = gween.New(c.position.X, x, duration, ease.OutQuad)
	c.glide.y = gween.New(c.position.Y, y, duration, ease.OutQuad)
}

// GlideZoom animates orthographic width toward the current width divided by
// factor over duration seconds.
func (c *Camera) GlideZoom(factor float32, duration float32) {
	if factor <= 0 {
		return
	}
	if c.glide == nil {
		c.glide = &glideAnim{}
	}
	c.glide.zoom = gween.New(c.orthoWidth, c.orthoWidth/factor, duration, ease.OutQuad)
}

// Update advances active glides. No-op when nothing is animating.
func (c *Camera) Update(delta float64) {
	if c.glide == nil {
		return
	}
	dt := float32(delta)
	done := true
	if c.glide.x != nil {
		nx, fx := c.glide.x.Update(dt)
		ny, fy := c.glide.y.Update(dt)
		shift := math.NewVec3(nx-c.position.X, ny-c.position.Y, 0)
		c.position = c.position.Add(shift)
		c.target = c.target.Add(shift)
		c.viewDirty = true
		c.viewProjDirty = true
		if fx && fy {
			c.glide.x = nil
			c.glide.y = nil
		} else {
			done = false
		}
	}
	if c.glide.zoom != nil {
		w, finished := c.glide.zoom.Update(dt)
		ratio := c.orthoHeight / c.orthoWidth
		c.orthoWidth = w
		c.orthoHeight = w * ratio
		c.projDirty = true
		c.viewProjDirty = true
		if finished {
			c.glide.zoom = nil
		} else {
			done = false
		}
	}
	if done {
		c.glide = nil
	}
}
