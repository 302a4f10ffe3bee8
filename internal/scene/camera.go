package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera. Its projection is rebuilt lazily after
// any change to FOV, clip planes or aspect.
type Camera struct {
	Node

	fov, near, far float64
	aspect         float64

	dirty bool
	proj  mgl64.Mat4
}

// NewCamera builds a camera with a vertical field of view in degrees.
func NewCamera(fov, near, far float64) *Camera {
	c := &Camera{fov: fov, near: near, far: far, aspect: 1, dirty: true}
	c.Node.init("camera")
	return c
}

func (c *Camera) FOV() float64    { return c.fov }
func (c *Camera) Near() float64   { return c.near }
func (c *Camera) Far() float64    { return c.far }
func (c *Camera) Aspect() float64 { return c.aspect }

// Dirty reports whether the projection must be rebuilt.
func (c *Camera) Dirty() bool { return c.dirty }

// SetLens changes field of view and clip planes.
func (c *Camera) SetLens(fov, near, far float64) {
	c.fov, c.near, c.far = fov, near, far
	c.dirty = true
}

// SetViewport derives the aspect from a display size. Zero or negative
// dimensions are clamped to one pixel so the aspect stays finite.
func (c *Camera) SetViewport(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c.SetAspect(float64(w) / float64(h))
}

// SetAspect ignores values that are not finite and positive.
func (c *Camera) SetAspect(a float64) {
	if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
		return
	}
	c.aspect = a
	c.dirty = true
}

// Projection returns the projection matrix, rebuilding it if dirty.
func (c *Camera) Projection() mgl64.Mat4 {
	if c.dirty {
		c.proj = mgl64.Perspective(mgl64.DegToRad(c.fov), c.aspect, c.near, c.far)
		c.dirty = false
	}
	return c.proj
}

// View is the inverse of the camera's world transform.
func (c *Camera) View() mgl64.Mat4 {
	return c.World().Inv()
}

func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}
