package ease

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
	assert.Equal(t, 1.0, Clamp(3, -1, 1))
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 0.5, Smoothstep(0.5))
	assert.Equal(t, 1.0, Smootherstep(2))
	assert.Equal(t, 3.14, Trunc(math.Pi, 2))
}

func TestEndpoints(t *testing.T) {
	curves := map[string]Func{
		"linear":      Linear,
		"quadIn":      QuadIn,
		"quadOut":     QuadOut,
		"quadInOut":   QuadInOut,
		"elasticIn":   ElasticIn(1, 0.75),
		"elasticOut":  ElasticOut(1.2, 0.3),
		"elasticIO":   ElasticInOut(1, 0.3),
		"backIn":      BackIn(0.3),
		"backOut":     BackOut(0.7),
		"backInOut":   BackInOut(1.7),
		"expoScale":   ExpoScale(0.5, 7, QuadOut),
		"smoothstep":  Smoothstep,
		"smootherst.": Smootherstep,
	}
	for name, f := range curves {
		assert.InDelta(t, 0, f(0), 1e-9, name)
		assert.InDelta(t, 1, f(1), 1e-9, name)
	}
}

func TestQuadInIsSquare(t *testing.T) {
	for _, x := range []float64{0.1, 0.25, 0.5, 0.9} {
		assert.InDelta(t, x*x, QuadIn(x), 1e-12)
	}
}

func TestBackOutOvershoots(t *testing.T) {
	f := BackOut(1.70158)
	peak := 0.0
	for i := 0; i <= 100; i++ {
		peak = math.Max(peak, f(float64(i)/100))
	}
	assert.Greater(t, peak, 1.0)
}

func TestParse(t *testing.T) {
	cases := []struct {
		id   string
		at   float64
		want float64
	}{
		{"linear", 0.3, 0.3},
		{"", 0.3, 0.3},
		{"linear)", 0.3, 0.3},
		{"easeIn", 0.5, 0.25},
		{"easeOut", 0.5, 0.75},
		{"easeInOut", 0.25, 0.125},
		{"power1.out", 0.5, 0.75},
		{"back.in(0.3)", 0.5, BackIn(0.3)(0.5)},
		{"back.out(0.7)", 0.5, BackOut(0.7)(0.5)},
		{"elastic.in(1.2,0.3)", 0.6, ElasticIn(1.2, 0.3)(0.6)},
		{"elastic.in(1,0.75)", 0.6, ElasticIn(1, 0.75)(0.6)},
		{"expoScale(0.5,7,power1.out)", 0.5, ExpoScale(0.5, 7, QuadOut)(0.5)},
	}
	for _, c := range cases {
		f, err := Parse(c.id)
		require.NoError(t, err, c.id)
		assert.InDelta(t, c.want, f(c.at), 1e-9, c.id)
	}
}

func TestParseRejects(t *testing.T) {
	for _, id := range []string{"wobble", "back.in(x)", "elastic.in(1,2,3)", "expoScale(1)", "back.in(0.3"} {
		_, err := Parse(id)
		assert.ErrorIs(t, err, ErrUnknownEase, id)
	}
}

func TestNoiseDeterministicAndBounded(t *testing.T) {
	a := NewNoise(7)
	b := NewNoise(7)
	for i := 0; i < 50; i++ {
		x, y := float64(i)*0.37, float64(i)*-0.61
		v := a.At(x, y)
		assert.Equal(t, v, b.At(x, y))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		f := a.Fbm(x, y, 4)
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
}
