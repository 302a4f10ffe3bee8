// Package ease holds the numeric helpers shared by tweening and procedural
// geometry: interpolation, clamping, smoothstep-style fades, value noise and
// the closed set of named easing curves used by the keyframe tables.
package ease

import "math"

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp clamps x in [lo,hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// Clamp01 clamps x in [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Smoothstep is the classic 3x^2 - 2x^3 curve on a clamped input.
func Smoothstep(x float64) float64 {
	x = Clamp01(x)
	return x * x * (3 - 2*x)
}

// Smootherstep is 6x^5 - 15x^4 + 10x^3 on a clamped input.
func Smootherstep(x float64) float64 {
	x = Clamp01(x)
	return x * x * x * (x*(x*6-15) + 10)
}

// Fade is the unclamped quintic used by gradient and value noise.
func Fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// Trunc truncates num to the given number of decimal digits.
func Trunc(num float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Floor(num*p) / p
}
