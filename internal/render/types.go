package render

import (
	"image/color"
	"math"
)

// Color is a linear-light RGB sample.
type Color struct{ R, G, B float32 }

// Linear decodes an sRGB color into linear light.
func Linear(c color.RGBA) Color {
	return Color{R: decode(c.R), G: decode(c.G), B: decode(c.B)}
}

func decode(v uint8) float32 {
	return float32(math.Pow(float64(v)/255, 2.2))
}

func (c Color) Add(o Color, k float32) Color {
	return Color{c.R + o.R*k, c.G + o.G*k, c.B + o.B*k}
}

func (c Color) Scale(k float32) Color {
	return Color{c.R * k, c.G * k, c.B * k}
}

// Lerp mixes c toward o by t.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{c.R + (o.R-c.R)*t, c.G + (o.G-c.G)*t, c.B + (o.B-c.B)*t}
}

// Viewport is the host's display size in CSS-like pixels and its device
// pixel ratio.
type Viewport struct {
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	PixelRatio float64 `json:"pixel_ratio" yaml:"pixel_ratio"`
}

// BackingSize is the frame size in device pixels, at least 1x1.
func (v Viewport) BackingSize() (int, int) {
	pr := v.PixelRatio
	if pr <= 0 || math.IsNaN(pr) || math.IsInf(pr, 0) {
		pr = 1
	}
	w := int(math.Round(float64(v.Width) * pr))
	h := int(math.Round(float64(v.Height) * pr))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
