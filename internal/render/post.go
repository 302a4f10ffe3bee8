package render

import (
	"image"
	"math"
)

// Post is the tone stage between rasterization and the sinks.
type Post struct {
	ExposureEV float64 `yaml:"exposure_ev"`
	Gamma      float64 `yaml:"gamma"`
	// Filmic enables the ACES curve; without it values are only clipped.
	Filmic bool `yaml:"filmic"`
}

func DefaultPost() Post {
	return Post{ExposureEV: 0, Gamma: 2.2, Filmic: true}
}

// Apply exposes, tone maps and gamma encodes buf in place.
func (p Post) Apply(buf []Color) {
	gamma := p.Gamma
	if gamma <= 0 {
		gamma = 2.2
	}
	exposure := float32(math.Pow(2.0, p.ExposureEV))
	ig := 1.0 / gamma

	for i := range buf {
		r := buf[i].R * exposure
		g := buf[i].G * exposure
		b := buf[i].B * exposure

		if p.Filmic {
			r = acesApprox(r)
			g = acesApprox(g)
			b = acesApprox(b)
		}
		if gamma != 1.0 {
			r = powf(clamp01(r), ig)
			g = powf(clamp01(g), ig)
			b = powf(clamp01(b), ig)
		}

		buf[i].R = clamp01(r)
		buf[i].G = clamp01(g)
		buf[i].B = clamp01(b)
	}
}

// encode writes an encoded buffer into an opaque RGBA image of the same size.
func encode(dst *image.RGBA, buf []Color) {
	for i, c := range buf {
		o := i * 4
		dst.Pix[o] = uint8(c.R*255 + 0.5)
		dst.Pix[o+1] = uint8(c.G*255 + 0.5)
		dst.Pix[o+2] = uint8(c.B*255 + 0.5)
		dst.Pix[o+3] = 0xff
	}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func powf(x float32, p float64) float32 {
	return float32(math.Pow(float64(x), p))
}

// Approximate ACES filmic curve (Narkowicz 2015).
func acesApprox(x float32) float32 {
	a := float32(2.51)
	b := float32(0.03)
	c := float32(2.43)
	d := float32(0.59)
	e := float32(0.14)
	return clamp01((x * (a*x + b)) / (x*(c*x+d) + e))
}
