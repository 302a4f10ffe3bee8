package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// canvas is a linear-light framebuffer with additive line and point drawing.
type canvas struct {
	w, h int
	buf  []Color
}

func (c *canvas) resize(w, h int) {
	c.w, c.h = w, h
	if cap(c.buf) >= w*h {
		c.buf = c.buf[:w*h]
	} else {
		c.buf = make([]Color, w*h)
	}
}

func (c *canvas) fill(col Color) {
	for i := range c.buf {
		c.buf[i] = col
	}
}

func (c *canvas) plot(x, y int, col Color, k float32) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	i := y*c.w + x
	c.buf[i] = c.buf[i].Add(col, k)
}

// line draws from a to b in pixel space, blending colors along the way.
func (c *canvas) line(ax, ay, bx, by float64, ca, cb Color, k float32) int {
	dx, dy := bx-ax, by-ay
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		c.plot(int(ax), int(ay), ca, k)
		return 1
	}
	inv := 1 / float64(steps)
	for i := 0; i <= steps; i++ {
		t := float64(i) * inv
		c.plot(int(math.Floor(ax+dx*t)), int(math.Floor(ay+dy*t)), ca.Lerp(cb, float32(t)), k)
	}
	return steps + 1
}

func (c *canvas) point(x, y float64, size int, col Color, k float32) {
	if size < 1 {
		size = 1
	}
	x0 := int(math.Floor(x)) - size/2
	y0 := int(math.Floor(y)) - size/2
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			c.plot(x0+i, y0+j, col, k)
		}
	}
}

// clipLine clips the clip-space segment a-b against the view frustum
// (-w <= x,y,z <= w) with Liang-Barsky. It reports the parametric range
// [t0,t1] that survives, or false when nothing does.
func clipLine(a, b mgl64.Vec4) (t0, t1 float64, ok bool) {
	t0, t1 = 0, 1
	d := b.Sub(a)
	// each plane as p*t <= q
	planes := [6][2]float64{
		{-(d[0] + d[3]), a[0] + a[3]},
		{d[0] - d[3], a[3] - a[0]},
		{-(d[1] + d[3]), a[1] + a[3]},
		{d[1] - d[3], a[3] - a[1]},
		{-(d[2] + d[3]), a[2] + a[3]},
		{d[2] - d[3], a[3] - a[2]},
	}
	for _, pl := range planes {
		p, q := pl[0], pl[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return t0, t1, true
}

// inside reports whether a clip-space point is within the frustum.
func inside(p mgl64.Vec4) bool {
	w := p[3]
	return w > 0 &&
		p[0] >= -w && p[0] <= w &&
		p[1] >= -w && p[1] <= w &&
		p[2] >= -w && p[2] <= w
}

// screen maps a clip-space point to pixel coordinates, y down.
func screen(p mgl64.Vec4, w, h int) (float64, float64) {
	x := p[0] / p[3]
	y := p[1] / p[3]
	return (x + 1) * 0.5 * float64(w), (1 - y) * 0.5 * float64(h)
}
