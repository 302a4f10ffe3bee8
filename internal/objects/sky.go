package objects

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/nightdrive/internal/scene"
)

const (
	skyWidth  = 100
	skyHeight = 60
	starCount = 300
	// radians per second
	skyDrift = 0.005
)

// NightSky is a dark backdrop with a seeded star field that slowly turns.
type NightSky struct {
	base
	stars []mgl64.Vec3
}

func NewNightSky(env Env) Object {
	s := &NightSky{base: newBase("nightsky")}
	rng := rand.New(rand.NewSource(env.Seed))

	s.stars = make([]mgl64.Vec3, starCount)
	for i := range s.stars {
		s.stars[i] = mgl64.Vec3{
			(rng.Float64() - 0.5) * skyWidth,
			(rng.Float64() - 0.5) * skyHeight,
			0.01,
		}
	}

	backdrop := env.mesh("nightsky.backdrop", scene.Plane(env.Ledger, skyWidth, skyHeight, 1, 1), black, nil)
	points := env.mesh("nightsky.stars", scene.Points(env.Ledger, append([]mgl64.Vec3(nil), s.stars...)), white, nil)
	points.Mesh.Material.PointSize = 2
	s.root.Add(backdrop, points)
	s.root.Position = mgl64.Vec3{0, 0, -80}

	s.state = Ready
	return s
}

// Stars returns the star positions in sky space.
func (s *NightSky) Stars() []mgl64.Vec3 { return s.stars }

// Update turns the sky around its view axis.
func (s *NightSky) Update(dt float64) {
	if s.state == Disposed {
		return
	}
	s.root.Rotation[2] += dt * skyDrift
}
