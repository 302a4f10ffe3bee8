package objects

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/nightdrive/internal/ease"
	"github.com/coreman2200/nightdrive/internal/scene"
)

// Mountains is two noisy ridges flanking the road's end and a gate wall
// with a round hole between them.
type Mountains struct {
	base
}

func NewMountains(env Env) Object {
	m := &Mountains{base: newBase("mountains")}
	noise := ease.NewNoise(env.Seed)
	rng := rand.New(rand.NewSource(env.Seed + 1))

	for _, x := range []float64{-3.5, 3.5} {
		g := scene.Plane(env.Ledger, 4, 23, 6, 20)
		Terrain(g, noise, rng, mgl64.Vec2{1, 1}, 1)
		ridge := env.mesh("mountains.ridge", g, white, env.texture("img/grid.png", 8, 20.85))
		ridge.Rotation = mgl64.Vec3{-math.Pi / 2, 0, 0}
		ridge.Position = mgl64.Vec3{x, -2.05, -12.08}
		m.root.Add(ridge)
	}

	wall := env.mesh("mountains.gate", gate(env.Ledger, 12, 5, 1.8, 24), wallGreen, nil)
	wall.Position = mgl64.Vec3{0, -1, -20}
	m.root.Add(wall)

	m.state = Ready
	return m
}

// Terrain raises the Z of every plane vertex into a ridge: a noise height
// that falls off toward the X edges and the two Y ends, with random spikes
// along the crest. g must carry UVs.
func Terrain(g *scene.Geometry, noise *ease.Noise, rng *rand.Rand, shift mgl64.Vec2, amplitude float64) {
	for i, uv := range g.UVs {
		if i >= len(g.Vertices) {
			break
		}
		maskX := 1 - math.Pow(math.Abs(uv.X()-0.5)*2, 2)
		maskY := 1.0
		if uv.Y() <= 0.05 || uv.Y() >= 0.95 {
			maskY = math.Min(uv.Y()/0.05, (1-uv.Y())/0.05)
		}

		p := uv.Add(shift).Mul(amplitude * 5)
		n := signed(noise.At(p.Y()*0.5, p.X()*2)) + signed(noise.At(p.Y(), p.X()*4))*0.5
		n = math.Pow(math.Abs(n), 0.3)

		h := n * amplitude * maskX * maskY
		if maskX > 0.7 && rng != nil {
			h += rng.Float64() * 2 * amplitude * maskX * maskY
		}
		g.Vertices[i][2] = h
	}
}

// signed maps [0,1] noise onto [-1,1].
func signed(v float64) float64 { return v*2 - 1 }

// gate outlines a trapezoid w wide at the base and w/2 at the top, h tall,
// with a circular hole of radius r.
func gate(l *scene.Ledger, w, h, r float64, segments int) *scene.Geometry {
	verts := []mgl64.Vec3{
		{-w / 2, -h / 2, 0},
		{w / 2, -h / 2, 0},
		{w / 4, h / 2, 0},
		{-w / 4, h / 2, 0},
	}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	first := len(verts)
	for i := 0; i < segments; i++ {
		a := float64(i) / float64(segments) * 2 * math.Pi
		verts = append(verts, mgl64.Vec3{math.Cos(a) * r, math.Sin(a) * r, 0})
		edges = append(edges, [2]int{first + i, first + (i+1)%segments})
	}
	return scene.NewGeometry(l, "gate", verts, edges)
}
