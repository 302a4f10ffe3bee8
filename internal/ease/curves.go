package ease

import "math"

// Func maps normalized time in [0,1] to progress. Overshooting curves
// (elastic, back) may leave [0,1] between the endpoints.
type Func func(t float64) float64

// Linear returns t unchanged.
func Linear(t float64) float64 { return t }

// QuadIn is t^2. Authored tables call it "easeIn".
func QuadIn(t float64) float64 { return t * t }

// QuadOut is the mirror of QuadIn.
func QuadOut(t float64) float64 { return 1 - (1-t)*(1-t) }

// QuadInOut accelerates through the first half and decelerates through the second.
func QuadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

// inOut builds a symmetric curve from an out curve.
func inOut(out Func) Func {
	return func(t float64) float64 {
		if t < 0.5 {
			return (1 - out(1-t*2)) / 2
		}
		return out(t*2-1)/2 + 0.5
	}
}

// mirror turns an out curve into its in counterpart.
func mirror(out Func) Func {
	return func(t float64) float64 { return 1 - out(1-t) }
}

func elasticOut(amplitude, period float64) Func {
	p1 := amplitude
	if p1 < 1 {
		p1 = 1
	}
	if period <= 0 {
		period = 0.3
	}
	if amplitude < 1 && amplitude > 0 {
		period /= amplitude
	}
	p3 := period / (2 * math.Pi) * math.Asin(1/p1)
	w := 2 * math.Pi / period
	return func(t float64) float64 {
		if t >= 1 {
			return 1
		}
		return p1*math.Pow(2, -10*t)*math.Sin((t-p3)*w) + 1
	}
}

// ElasticOut overshoots and rings into the target.
func ElasticOut(amplitude, period float64) Func { return elasticOut(amplitude, period) }

// ElasticIn winds up with growing oscillation before leaving the start.
func ElasticIn(amplitude, period float64) Func { return mirror(elasticOut(amplitude, period)) }

// ElasticInOut rings at both ends.
func ElasticInOut(amplitude, period float64) Func { return inOut(elasticOut(amplitude, period)) }

func backOut(overshoot float64) Func {
	return func(t float64) float64 {
		if t == 0 {
			return 0
		}
		t--
		return t*t*((overshoot+1)*t+overshoot) + 1
	}
}

// BackOut overshoots the target by an amount proportional to overshoot, then settles.
func BackOut(overshoot float64) Func { return backOut(overshoot) }

// BackIn pulls back below the start before moving forward.
func BackIn(overshoot float64) Func { return mirror(backOut(overshoot)) }

// BackInOut does both.
func BackInOut(overshoot float64) Func { return inOut(backOut(overshoot)) }

// ExpoScale compensates for exponential scale changes between start and end,
// shaping progress with inner. start and end must be positive.
func ExpoScale(start, end float64, inner Func) Func {
	if inner == nil {
		inner = Linear
	}
	if start <= 0 || end <= 0 || start == end {
		return inner
	}
	ratio := end / start
	span := end - start
	return func(t float64) float64 {
		return (start*math.Pow(ratio, inner(t)) - start) / span
	}
}
