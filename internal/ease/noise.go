package ease

import (
	"math"
	"math/rand"
)

// Noise is a seeded 2D value-noise lattice.
type Noise struct {
	perm   [512]int
	values [256]float64
}

// NewNoise builds a lattice from seed. The same seed always yields the same field.
func NewNoise(seed int64) *Noise {
	rng := rand.New(rand.NewSource(seed))
	n := &Noise{}
	p := rng.Perm(256)
	for i := 0; i < 512; i++ {
		n.perm[i] = p[i&255]
	}
	for i := range n.values {
		n.values[i] = rng.Float64()
	}
	return n
}

func (n *Noise) lattice(x, y int) float64 {
	return n.values[n.perm[n.perm[x&255]+(y&255)]]
}

// At samples the field at (x,y). The result is in [0,1].
func (n *Noise) At(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix, iy := int(x0), int(y0)
	fx := Fade(x - x0)
	fy := Fade(y - y0)

	a := n.lattice(ix, iy)
	b := n.lattice(ix+1, iy)
	c := n.lattice(ix, iy+1)
	d := n.lattice(ix+1, iy+1)
	return Lerp(Lerp(a, b, fx), Lerp(c, d, fx), fy)
}

// Fbm sums octaves of At with halving amplitude and doubling frequency,
// normalized back into [0,1].
func (n *Noise) Fbm(x, y float64, octaves int) float64 {
	if octaves < 1 {
		octaves = 1
	}
	sum, amp, norm, freq := 0.0, 1.0, 0.0, 1.0
	for i := 0; i < octaves; i++ {
		sum += n.At(x*freq, y*freq) * amp
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}
