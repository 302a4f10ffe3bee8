package choreo

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// DirectionOf compares the requested slide with the current one. Anything
// not strictly ahead counts as backward, including a repeat of the current
// slide.
func DirectionOf(current, next int) Direction {
	if next > current {
		return Forward
	}
	return Backward
}

// Policy scales keyframe timings by travel direction. Tables are authored
// for the forward pace; rewinding plays them faster.
type Policy struct {
	Forward  float64 `yaml:"forward"`
	Backward float64 `yaml:"backward"`
}

func DefaultPolicy() Policy {
	return Policy{Forward: 1.0, Backward: 0.3}
}

// Multiplier returns the timing scale for d. Non-positive values fall back
// to 1.
func (p Policy) Multiplier(d Direction) float64 {
	m := p.Forward
	if d == Backward {
		m = p.Backward
	}
	if m <= 0 {
		return 1
	}
	return m
}
