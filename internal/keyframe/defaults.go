package keyframe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type pos struct {
	x, y, z         float64
	duration, delay float64
	ease            string
}

type rot struct {
	y               float64
	duration, delay float64
	ease            string
}

// zip pairs a position list with a rotation list of the same length.
func zip(p []pos, r []rot) Table {
	n := len(p)
	if len(r) < n {
		n = len(r)
	}
	out := make(Table, n)
	for i := 0; i < n; i++ {
		out[i] = Keyframe{
			Position:  mgl64.Vec3{p[i].x, p[i].y, p[i].z},
			RotationY: r[i].y,
			Move:      Timing{Duration: p[i].duration, Delay: p[i].delay, Ease: p[i].ease},
			Turn:      Timing{Duration: r[i].duration, Delay: r[i].delay, Ease: r[i].ease},
		}
	}
	return out
}

// The car model faces +X; a quarter turn brings it onto the road axis.
const carYaw = math.Pi / 2

// Default returns the six-slide tables of the landing page.
func Default() Set {
	var s Set
	s[Camera] = zip([]pos{
		{0, 0.5, 80, 0.5, 0, "linear"},
		{0, 0.2, 65, 0.5, 0.2, "linear"},
		{0, -0.345, 48, 1, 0, "easeIn"},
		{4.32, -0.6, 40, 0.5, 0.2, "easeIn"},
		{0, -0.56, 30, 0.9, 0, "easeIn"},
		{5.8, -0.63, 16.5, 0.8, 0, "linear"},
	}, []rot{
		{0, 0.5, 0, "linear"},
		{0, 0.7, 0, "linear"},
		{-0.64, 0.6, 0.4, "easeOut"},
		{0.2, 0.5, 0.2, "linear"},
		{-0.79, 0.7, 0.2, "easeIn"},
		{0.2, 0.6, 0, "easeIn"},
	})
	s[Car] = zip([]pos{
		{-0.48, -1.56, 71.2, 0.5, 0, "linear"},
		{-0.55, -1.56, 56.8, 0.5, 0.2, "elastic.in(1,0.75)"},
		{2.94, -1.56, 38.8, 0.5, 0, "elastic.in(1.2,0.3)"},
		{0.84, -1.56, 31.9, 0.5, 0, "easeOut"},
		{2.94, -1.56, 22.8, 0.7, 0, "easeIn"},
		{2.94, -1.56, 9.7, 0.6, 0, "easeIn"},
	}, []rot{
		{1.7 - carYaw, 0.5, 0, "back.in(0.3)"},
		{1.41 - carYaw, 0.4, 0.2, "back.out(0.7)"},
		{1.82 - carYaw, 0.2, 0.3, "back.in(0.7)"},
		{0.74 - carYaw, 0.3, 0.4, "easeIn"},
		{2.0 - carYaw, 0.5, 0.2, "easeInOut"},
		{3.44 - carYaw, 0.6, 0, "easeIn"},
	})
	s[Police] = zip([]pos{
		{0.58, -1.56, 74.6, 0.55, 0, "linear"},
		{-0.55, -1.56, 60, 0.5, 0.2, "expoScale(0.5,7,power1.out)"},
		{2.14, -1.56, 43.9, 0.5, 0, "expoScale(0.5,7,power1.out)"},
		{2.4, -1.56, 35.9, 0.5, 0, "linear)"},
		{1.36, -1.56, 28, 0.6, 0, "linear"},
		{4.76, -1.56, 13.6, 0.5, 0.2, "linear"},
	}, []rot{
		{1.7, 0.5, 0, "back.out(0.3)"},
		{1.7, 0.5, 0.3, "back.out(0.7)"},
		{0.9, 0.5, 0.2, "back.out(0.6)"},
		{2.56, 0.6, 0, "expoScale(0.5,7,power1.out)"},
		{0.85, 0.6, 0, "linear"},
		{2.14, 0.6, 0, "easeIn"},
	})
	return s
}
