package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/nightdrive/internal/scene"
)

func TestBackingSize(t *testing.T) {
	cases := []struct {
		v    Viewport
		w, h int
	}{
		{Viewport{100, 50, 2}, 200, 100},
		{Viewport{0, 0, 1}, 1, 1},
		{Viewport{10, 10, math.NaN()}, 10, 10},
		{Viewport{10, 10, -1}, 10, 10},
		{Viewport{3, 3, 1.5}, 5, 5},
	}
	for _, c := range cases {
		w, h := c.v.BackingSize()
		assert.Equal(t, c.w, w, "%+v", c.v)
		assert.Equal(t, c.h, h, "%+v", c.v)
	}
}

func TestClipLine(t *testing.T) {
	t0, t1, ok := clipLine(mgl64.Vec4{0, 0, 0, 1}, mgl64.Vec4{0.5, 0, 0, 1})
	require.True(t, ok)
	assert.Equal(t, 0.0, t0)
	assert.Equal(t, 1.0, t1)

	_, _, ok = clipLine(mgl64.Vec4{2, 0, 0, 1}, mgl64.Vec4{3, 0, 0, 1})
	assert.False(t, ok)

	t0, t1, ok = clipLine(mgl64.Vec4{0, 0, 0, 1}, mgl64.Vec4{2, 0, 0, 1})
	require.True(t, ok)
	assert.Equal(t, 0.0, t0)
	assert.InDelta(t, 0.5, t1, 1e-12)

	// behind the eye on both ends
	_, _, ok = clipLine(mgl64.Vec4{0, 0, 0, -1}, mgl64.Vec4{0, 0, 0, -2})
	assert.False(t, ok)
}

func TestPostApply(t *testing.T) {
	buf := []Color{{0, 0, 0}, {100, 100, 100}, {0.2, 0.2, 0.2}}
	DefaultPost().Apply(buf)
	assert.Equal(t, Color{0, 0, 0}, buf[0])
	assert.Equal(t, Color{1, 1, 1}, buf[1])
	assert.Greater(t, buf[2].R, float32(0))
	assert.Less(t, buf[2].R, float32(1))

	plain := []Color{{2, 0.5, -1}}
	Post{Gamma: 1}.Apply(plain)
	assert.Equal(t, Color{1, 0.5, 0}, plain[0])
}

func boxScene(z float64) (*scene.Scene, *scene.Camera) {
	s := scene.New()
	n := scene.NewMeshNode("box", scene.NewMesh(
		scene.Box(nil, 1, 1, 1),
		scene.NewMaterial(nil, "box", color.RGBA{0xff, 0xff, 0xff, 0xff}, nil),
	))
	n.Position = mgl64.Vec3{0, 0, z}
	s.Add(n)
	cam := scene.NewCamera(50, 0.1, 100)
	cam.SetViewport(64, 48)
	return s, cam
}

func TestRenderDrawsVisibleGeometry(t *testing.T) {
	var got *image.RGBA
	r := New(SinkFunc(func(f *image.RGBA) error {
		got = f
		return nil
	}), zerolog.Nop())
	r.Resize(Viewport{Width: 64, Height: 48, PixelRatio: 1})
	w, h := r.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)

	s, cam := boxScene(-5)
	require.NoError(t, r.Render(s, cam))
	require.NotNil(t, got)
	assert.Equal(t, uint64(1), r.Frames())
	assert.Greater(t, r.Last.Pixels, 0)

	bg := got.RGBAAt(0, 0)
	brighter := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if got.RGBAAt(x, y).R > bg.R {
				brighter++
			}
		}
	}
	assert.Greater(t, brighter, 0)
}

func TestRenderSkipsGeometryBehindCamera(t *testing.T) {
	r := New(nil, zerolog.Nop())
	r.Resize(Viewport{Width: 32, Height: 32, PixelRatio: 1})
	s, cam := boxScene(5)
	require.NoError(t, r.Render(s, cam))
	assert.Equal(t, 0, r.Last.Pixels)
}

func TestRenderSkipsHiddenNodes(t *testing.T) {
	r := New(nil, zerolog.Nop())
	r.Resize(Viewport{Width: 32, Height: 32, PixelRatio: 1})
	s, cam := boxScene(-5)
	s.Root.Children()[0].Visible = false
	require.NoError(t, r.Render(s, cam))
	assert.Equal(t, 0, r.Last.Pixels)
}

func TestRendererDispose(t *testing.T) {
	closed := 0
	sink := &countSink{close: func() { closed++ }}
	r := New(sink, zerolog.Nop())
	require.NoError(t, r.Dispose())
	require.NoError(t, r.Dispose())
	assert.Equal(t, 1, closed)
	assert.True(t, r.Disposed())

	s, cam := boxScene(-5)
	assert.ErrorIs(t, r.Render(s, cam), ErrDisposed)
	assert.Equal(t, 0, sink.writes)
}

type countSink struct {
	writes int
	err    error
	close  func()
}

func (c *countSink) Write(*image.RGBA) error {
	c.writes++
	return c.err
}

func (c *countSink) Close() error {
	if c.close != nil {
		c.close()
	}
	return nil
}

func TestMultiWritesAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	a := &countSink{err: errA}
	b := &countSink{}
	m := Multi{a, b}
	err := m.Write(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, errA)
	assert.Equal(t, 1, a.writes)
	assert.Equal(t, 1, b.writes)
	assert.NoError(t, m.Close())
}

func TestPNGSinkEvery(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPNGSink(dir, 2)
	require.NoError(t, err)
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Write(frame))
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 3)

	f, err := os.Open(filepath.Join(dir, "frame_000002.png"))
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, frame.Bounds(), img.Bounds())
}

func TestDrawerSinkOnLEDStrip(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := nrzled.NewSPI(spitest.NewRecordRaw(&buf), &nrzled.Opts{
		NumPixels: 8,
		Channels:  3,
		Freq:      2500 * physic.KiloHertz,
	})
	require.NoError(t, err)

	s := NewDrawerSink(d)
	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := range frame.Pix {
		frame.Pix[i] = 0xff
	}
	buf.Reset()
	require.NoError(t, s.Write(frame))
	assert.NotZero(t, buf.Len())
	assert.Equal(t, image.Rect(0, 0, 8, 1), s.dst.Bounds())
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, s.dst.RGBAAt(3, 0))
}
