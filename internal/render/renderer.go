// Package render rasterizes the scene graph as glowing wireframe into a
// linear framebuffer, tone maps it and hands finished frames to sinks.
package render

import (
	"errors"
	"image"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/coreman2200/nightdrive/internal/scene"
)

// ErrDisposed is returned by Render after Dispose.
var ErrDisposed = errors.New("renderer disposed")

// Renderer owns the framebuffer and the sink. It is used from the engine
// loop only.
type Renderer struct {
	Post Post
	// LineGain scales every line's contribution before tone mapping.
	LineGain float32

	sink     Sink
	log      zerolog.Logger
	vp       Viewport
	cv       canvas
	frame    *image.RGBA
	frames   uint64
	disposed bool

	// metrics (last durations in ms)
	Last struct {
		RasterMS float64
		PostMS   float64
		TotalMS  float64
		Pixels   int
	}
}

func New(sink Sink, log zerolog.Logger) *Renderer {
	r := &Renderer{
		Post:     DefaultPost(),
		LineGain: 1,
		sink:     sink,
		log:      log,
	}
	r.Resize(Viewport{Width: 1, Height: 1, PixelRatio: 1})
	return r
}

// Resize reallocates the framebuffer at the viewport's backing size.
func (r *Renderer) Resize(v Viewport) {
	if r.disposed {
		return
	}
	r.vp = v
	w, h := v.BackingSize()
	if r.frame != nil && r.frame.Rect.Dx() == w && r.frame.Rect.Dy() == h {
		return
	}
	r.cv.resize(w, h)
	r.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	r.log.Debug().Int("width", w).Int("height", h).Float64("pixel_ratio", v.PixelRatio).Msg("framebuffer resized")
}

func (r *Renderer) Viewport() Viewport { return r.vp }

// Size is the backing size in device pixels.
func (r *Renderer) Size() (int, int) { return r.cv.w, r.cv.h }

// Frame is the last encoded frame. Sinks must copy it if they keep it.
func (r *Renderer) Frame() *image.RGBA { return r.frame }

// Frames counts rendered frames.
func (r *Renderer) Frames() uint64 { return r.frames }

// Render draws s from cam and writes the frame to the sink.
func (r *Renderer) Render(s *scene.Scene, cam *scene.Camera) error {
	if r.disposed {
		return ErrDisposed
	}
	start := time.Now()

	r.cv.fill(Linear(s.Background))
	vp := cam.ViewProjection()
	gain := float32(s.Exposure()) * r.LineGain
	fogNear, fogFar := cam.Near(), cam.Far()
	bg := Linear(s.Background)
	pixels := 0

	s.Root.Traverse(func(n *scene.Node, world mgl64.Mat4) {
		m := n.Mesh
		if m == nil || m.Geometry == nil || m.Material == nil || m.Geometry.Released() {
			return
		}
		g := m.Geometry
		mvp := vp.Mul4(world)
		clip := make([]mgl64.Vec4, len(g.Vertices))
		cols := make([]Color, len(g.Vertices))
		for i, v := range g.Vertices {
			clip[i] = mvp.Mul4x1(v.Vec4(1))
			var uv mgl64.Vec2
			if i < len(g.UVs) {
				uv = g.UVs[i]
			}
			cols[i] = Linear(m.Material.VertexColor(uv))
		}
		fog := func(c Color, w float64) Color {
			t := (w - fogNear) / (fogFar - fogNear)
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			return c.Lerp(bg, float32(t*t))
		}

		if g.Points {
			size := int(float64(m.Material.PointSize)*r.pixelRatio() + 0.5)
			for i, p := range clip {
				if !inside(p) {
					continue
				}
				x, y := screen(p, r.cv.w, r.cv.h)
				r.cv.point(x, y, size, fog(cols[i], p[3]), gain)
				pixels += size * size
			}
			return
		}

		for _, e := range g.Edges {
			if e[0] >= len(clip) || e[1] >= len(clip) {
				continue
			}
			a, b := clip[e[0]], clip[e[1]]
			t0, t1, ok := clipLine(a, b)
			if !ok {
				continue
			}
			ca, cb := cols[e[0]], cols[e[1]]
			pa := lerp4(a, b, t0)
			pb := lerp4(a, b, t1)
			ax, ay := screen(pa, r.cv.w, r.cv.h)
			bx, by := screen(pb, r.cv.w, r.cv.h)
			pixels += r.cv.line(ax, ay, bx, by,
				fog(ca.Lerp(cb, float32(t0)), pa[3]),
				fog(ca.Lerp(cb, float32(t1)), pb[3]), gain)
		}
	})
	r.Last.RasterMS = msSince(start)

	postStart := time.Now()
	r.Post.Apply(r.cv.buf)
	encode(r.frame, r.cv.buf)
	r.Last.PostMS = msSince(postStart)
	r.Last.Pixels = pixels
	r.frames++

	if r.sink != nil {
		if err := r.sink.Write(r.frame); err != nil {
			return err
		}
	}
	r.Last.TotalMS = msSince(start)
	return nil
}

func (r *Renderer) pixelRatio() float64 {
	if r.vp.PixelRatio <= 0 {
		return 1
	}
	return r.vp.PixelRatio
}

// Dispose closes the sink and drops the framebuffer. Later calls do nothing.
func (r *Renderer) Dispose() error {
	if r.disposed {
		return nil
	}
	r.disposed = true
	r.cv.buf = nil
	r.frame = nil
	if r.sink != nil {
		return r.sink.Close()
	}
	return nil
}

func (r *Renderer) Disposed() bool { return r.disposed }

func lerp4(a, b mgl64.Vec4, t float64) mgl64.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
