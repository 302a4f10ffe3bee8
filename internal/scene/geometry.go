package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis-aligned box centered on the origin.
func Box(l *Ledger, w, h, d float64) *Geometry {
	x, y, z := w/2, h/2, d/2
	verts := []mgl64.Vec3{
		{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
	}
	edges := [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	g := NewGeometry(l, "box", verts, edges)
	g.UVs = []mgl64.Vec2{
		{0, 0}, {1, 0}, {1, 1}, {0, 1},
		{0, 0}, {1, 0}, {1, 1}, {0, 1},
	}
	return g
}

// Plane lies in the XY plane, w along X and h along Y, split into a grid of
// segX by segY cells. Vertices are row-major from the bottom-left corner.
func Plane(l *Ledger, w, h float64, segX, segY int) *Geometry {
	if segX < 1 {
		segX = 1
	}
	if segY < 1 {
		segY = 1
	}
	cols := segX + 1
	verts := make([]mgl64.Vec3, 0, cols*(segY+1))
	uvs := make([]mgl64.Vec2, 0, cap(verts))
	for j := 0; j <= segY; j++ {
		v := float64(j) / float64(segY)
		for i := 0; i <= segX; i++ {
			u := float64(i) / float64(segX)
			verts = append(verts, mgl64.Vec3{(u - 0.5) * w, (v - 0.5) * h, 0})
			uvs = append(uvs, mgl64.Vec2{u, v})
		}
	}
	var edges [][2]int
	for j := 0; j <= segY; j++ {
		for i := 0; i <= segX; i++ {
			k := j*cols + i
			if i < segX {
				edges = append(edges, [2]int{k, k + 1})
			}
			if j < segY {
				edges = append(edges, [2]int{k, k + cols})
			}
		}
	}
	g := NewGeometry(l, "plane", verts, edges)
	g.UVs = uvs
	return g
}

// CatmullRom samples a uniform Catmull-Rom spline through pts at t in [0,1].
// The end points are repeated so the curve passes through every point.
func CatmullRom(pts []mgl64.Vec3, t float64) mgl64.Vec3 {
	n := len(pts)
	switch n {
	case 0:
		return mgl64.Vec3{}
	case 1:
		return pts[0]
	}
	t = math.Max(0, math.Min(1, t))
	f := t * float64(n-1)
	i := int(f)
	if i >= n-1 {
		i = n - 2
	}
	u := f - float64(i)

	at := func(k int) mgl64.Vec3 {
		if k < 0 {
			k = 0
		}
		if k >= n {
			k = n - 1
		}
		return pts[k]
	}
	p0, p1, p2, p3 := at(i-1), at(i), at(i+1), at(i+2)
	u2, u3 := u*u, u*u*u
	out := mgl64.Vec3{}
	for c := 0; c < 3; c++ {
		out[c] = 0.5 * (2*p1[c] +
			(-p0[c]+p2[c])*u +
			(2*p0[c]-5*p1[c]+4*p2[c]-p3[c])*u2 +
			(-p0[c]+3*p1[c]-3*p2[c]+p3[c])*u3)
	}
	return out
}

// Tube sweeps a circle of radius along a Catmull-Rom path.
func Tube(l *Ledger, path []mgl64.Vec3, segments int, radius float64, radial int) *Geometry {
	if segments < 1 {
		segments = 1
	}
	if radial < 3 {
		radial = 3
	}
	verts := make([]mgl64.Vec3, 0, (segments+1)*radial)
	uvs := make([]mgl64.Vec2, 0, cap(verts))
	up := mgl64.Vec3{0, 1, 0}
	for s := 0; s <= segments; s++ {
		t := float64(s) / float64(segments)
		p := CatmullRom(path, t)
		dt := 1.0 / float64(segments)
		tan := CatmullRom(path, math.Min(1, t+dt*0.5)).Sub(CatmullRom(path, math.Max(0, t-dt*0.5)))
		if tan.Len() < 1e-9 {
			tan = mgl64.Vec3{0, 0, 1}
		}
		tan = tan.Normalize()
		normal := up.Cross(tan)
		if normal.Len() < 1e-9 {
			normal = mgl64.Vec3{1, 0, 0}.Cross(tan)
		}
		normal = normal.Normalize()
		binormal := tan.Cross(normal).Normalize()
		for r := 0; r < radial; r++ {
			a := float64(r) / float64(radial) * 2 * math.Pi
			off := normal.Mul(math.Cos(a) * radius).Add(binormal.Mul(math.Sin(a) * radius))
			verts = append(verts, p.Add(off))
			uvs = append(uvs, mgl64.Vec2{t, float64(r) / float64(radial)})
		}
	}
	var edges [][2]int
	for s := 0; s <= segments; s++ {
		for r := 0; r < radial; r++ {
			k := s*radial + r
			edges = append(edges, [2]int{k, s*radial + (r+1)%radial})
			if s < segments {
				edges = append(edges, [2]int{k, k + radial})
			}
		}
	}
	g := NewGeometry(l, "tube", verts, edges)
	g.UVs = uvs
	return g
}

// Ring is a flat annulus in the XY plane.
func Ring(l *Ledger, inner, outer float64, segments int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	verts := make([]mgl64.Vec3, 0, segments*2)
	uvs := make([]mgl64.Vec2, 0, segments*2)
	for i := 0; i < segments; i++ {
		a := float64(i) / float64(segments) * 2 * math.Pi
		c, s := math.Cos(a), math.Sin(a)
		verts = append(verts, mgl64.Vec3{c * inner, s * inner, 0}, mgl64.Vec3{c * outer, s * outer, 0})
		u := float64(i) / float64(segments)
		uvs = append(uvs, mgl64.Vec2{u, 0}, mgl64.Vec2{u, 1})
	}
	var edges [][2]int
	for i := 0; i < segments; i++ {
		in, out := 2*i, 2*i+1
		nin, nout := 2*((i+1)%segments), 2*((i+1)%segments)+1
		edges = append(edges, [2]int{in, nin}, [2]int{out, nout}, [2]int{in, out})
	}
	g := NewGeometry(l, "ring", verts, edges)
	g.UVs = uvs
	return g
}

// Points is a point cloud.
func Points(l *Ledger, pts []mgl64.Vec3) *Geometry {
	g := NewGeometry(l, "points", pts, nil)
	g.Points = true
	return g
}
