package objects

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/nightdrive/internal/scene"
)

// TunnelPath is the spline the tunnel tube follows, in tunnel space.
var TunnelPath = []mgl64.Vec3{
	{-4, 0, 42},
	{-4, 0, 32},
	{0, 0, 24},
	{-4, 0, 16},
	{0, 0, 8},
	{0, 0, 5},
}

// Tunnel is a neon tube along TunnelPath plus two arches marking its ends.
type Tunnel struct {
	base
}

func NewTunnel(env Env) Object {
	t := &Tunnel{base: newBase("tunnel")}

	tube := env.mesh("tunnel.tube", scene.Tube(env.Ledger, TunnelPath, 52, 2, 8), neonPink, env.texture("img/line-h.png", 1, 20))
	tube.Position = mgl64.Vec3{4, -1, 15}
	t.root.Add(tube)

	for _, at := range []mgl64.Vec3{{0, -1, 57}, {4, -1, 20}} {
		arch := env.mesh("tunnel.arch", scene.Ring(env.Ledger, 1.99, 2.01, 8), neonPink, nil)
		arch.Position = at
		t.root.Add(arch)
	}

	t.state = Ready
	return t
}
