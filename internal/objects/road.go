package objects

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/nightdrive/internal/scene"
)

// Road is the textured ground plane with two angled lane markers at the
// start of the drive.
type Road struct {
	base
}

func NewRoad(env Env) Object {
	r := &Road{base: newBase("road")}

	plane := env.mesh("road.plane", scene.Plane(env.Ledger, 60, 80, 12, 16), roadBlue, env.texture("img/grid.png", 42, 45))
	plane.Rotation = mgl64.Vec3{-math.Pi / 2, 0, 0}
	plane.Position = mgl64.Vec3{0, -2, 36}
	r.root.Add(plane)

	lanes := []struct {
		name string
		x    float64
	}{{"road.lane.left", -1.4}, {"road.lane.right", 1.4}}
	for _, ln := range lanes {
		lane := env.mesh(ln.name, scene.Box(env.Ledger, 0.2, 25, 0.1), roadBlue, env.texture("img/line-v.png", 0.4, 1))
		lane.Rotation = mgl64.Vec3{-math.Pi / 2, -math.Copysign(math.Pi/5, ln.x), 0}
		lane.Position = mgl64.Vec3{ln.x, -1.5, 68}
		r.root.Add(lane)
	}

	r.state = Ready
	return r
}
