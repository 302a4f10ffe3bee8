package choreo

import (
	"image"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/nightdrive/internal/diagnostics"
	"github.com/coreman2200/nightdrive/internal/keyframe"
	"github.com/coreman2200/nightdrive/internal/objects"
	"github.com/coreman2200/nightdrive/internal/render"
	"github.com/coreman2200/nightdrive/internal/scene"
)

const eps = 1e-9

type fixture struct {
	e    *Engine
	host *StaticHost
	diag *diagnostics.Recorder
}

func newFixture(t *testing.T, mods ...func(*Options)) fixture {
	t.Helper()
	nop := zerolog.Nop()
	f := fixture{
		host: NewStaticHost(render.Viewport{Width: 64, Height: 36, PixelRatio: 1}),
		diag: &diagnostics.Recorder{},
	}
	o := Options{
		Manual:      true,
		Host:        f.host,
		Log:         &nop,
		Diagnostics: f.diag,
	}
	for _, m := range mods {
		m(&o)
	}
	e, err := New(o)
	require.NoError(t, err)
	f.e = e
	t.Cleanup(func() { _ = e.Dispose() })
	return f
}

// settle advances in dt steps until the current transition settles.
func settle(t *testing.T, e *Engine, dt float64) float64 {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if e.Transition().Settled {
			return e.Transition().Elapsed
		}
		e.Advance(dt)
	}
	t.Fatal("transition never settled")
	return 0
}

func vehicle(t *testing.T, e *Engine, target keyframe.Target) *objects.Vehicle {
	t.Helper()
	for _, o := range e.Objects() {
		if v, ok := o.(*objects.Vehicle); ok && v.Target() == target {
			return v
		}
	}
	t.Fatalf("no vehicle for %s", target)
	return nil
}

func assertPose(t *testing.T, n *scene.Node, k keyframe.Keyframe, msg string) {
	t.Helper()
	assert.True(t, n.Position.ApproxEqualThreshold(k.Position, 1e-6), "%s: position %v want %v", msg, n.Position, k.Position)
	assert.InDelta(t, k.RotationY, n.Rotation.Y(), 1e-6, "%s: rotation", msg)
}

func TestNewSnapsToFirstKeyframe(t *testing.T) {
	f := newFixture(t)
	keys := keyframe.Default()
	assert.Equal(t, 0, f.e.Slide())
	assert.Equal(t, keys.Len(), f.e.Slides())
	assertPose(t, &f.e.Camera().Node, keys[keyframe.Camera][0], "camera")
	assertPose(t, vehicle(t, f.e, keyframe.Car).Root(), keys[keyframe.Car][0], "car")
	assertPose(t, vehicle(t, f.e, keyframe.Police).Root(), keys[keyframe.Police][0], "police")
	assert.Equal(t, 0, f.e.Tweens().Active())
	assert.True(t, f.e.Transition().Settled)
	assert.Equal(t, 1, f.host.Listeners())
	assert.InDelta(t, 64.0/36.0, f.e.Camera().Aspect(), eps)
}

func TestEverySlideSettlesOnItsKeyframe(t *testing.T) {
	keys := keyframe.Default()
	for i := 0; i < keys.Len(); i++ {
		f := newFixture(t)
		require.NoError(t, f.e.OnSlideChanged(i))
		settle(t, f.e, 1.0/60)
		f.e.Advance(1.0 / 60)

		assert.Equal(t, i, f.e.Slide())
		assertPose(t, &f.e.Camera().Node, keys[keyframe.Camera][i], "camera")
		assertPose(t, vehicle(t, f.e, keyframe.Car).Root(), keys[keyframe.Car][i], "car")
		assertPose(t, vehicle(t, f.e, keyframe.Police).Root(), keys[keyframe.Police][i], "police")
		assert.Equal(t, 0, f.e.Tweens().Active())
	}
}

func TestSlidesInSequence(t *testing.T) {
	f := newFixture(t)
	keys := keyframe.Default()
	for i := 1; i < keys.Len(); i++ {
		require.NoError(t, f.e.OnSlideChanged(i))
		assert.Equal(t, Forward, f.e.Transition().Direction)
		settle(t, f.e, 0.05)
		assertPose(t, &f.e.Camera().Node, keys[keyframe.Camera][i], "camera")
	}
	for i := keys.Len() - 2; i >= 0; i-- {
		require.NoError(t, f.e.OnSlideChanged(i))
		assert.Equal(t, Backward, f.e.Transition().Direction)
		settle(t, f.e, 0.05)
		assertPose(t, &f.e.Camera().Node, keys[keyframe.Camera][i], "camera")
	}
	assert.Contains(t, f.diag.Codes(), diagnostics.CodeSlideSettled)
}

func TestBackwardPlaysAtBackwardMultiplier(t *testing.T) {
	const dt = 0.005

	fwd := newFixture(t)
	require.NoError(t, fwd.e.OnSlideChanged(2))
	assert.Equal(t, 1.0, fwd.e.Transition().Multiplier)
	forward := settle(t, fwd.e, dt)

	back := newFixture(t)
	require.NoError(t, back.e.OnSlideChanged(3))
	settle(t, back.e, dt)
	require.NoError(t, back.e.OnSlideChanged(2))
	assert.Equal(t, Backward, back.e.Transition().Direction)
	assert.Equal(t, 0.3, back.e.Transition().Multiplier)
	backward := settle(t, back.e, dt)

	assert.Greater(t, forward, 0.0)
	assert.InDelta(t, forward*0.3, backward, 2*dt)
}

func TestBackwardMultiplierIsConfigurable(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Policy = Policy{Forward: 1, Backward: 0.5} })
	require.NoError(t, f.e.OnSlideChanged(3))
	settle(t, f.e, 0.01)
	require.NoError(t, f.e.OnSlideChanged(1))
	assert.Equal(t, 0.5, f.e.Transition().Multiplier)
}

func TestRapidSlideChangesConvergeOnLast(t *testing.T) {
	f := newFixture(t)
	keys := keyframe.Default()

	require.NoError(t, f.e.OnSlideChanged(1))
	first := f.e.Transition().handles
	f.e.Advance(0.1)
	require.NoError(t, f.e.OnSlideChanged(3))
	for _, h := range first {
		assert.True(t, h.Done(), "superseded handle still live")
	}

	settle(t, f.e, 0.02)
	f.e.Advance(0.02)
	assert.Equal(t, 3, f.e.Slide())
	assertPose(t, &f.e.Camera().Node, keys[keyframe.Camera][3], "camera")
	assertPose(t, vehicle(t, f.e, keyframe.Car).Root(), keys[keyframe.Car][3], "car")
	assert.Equal(t, 0, f.e.Tweens().Active())
}

func TestInvalidSlideIsRejected(t *testing.T) {
	f := newFixture(t)
	n := f.e.Slides()
	before := f.e.Camera().Position

	for _, i := range []int{-1, n, n + 10} {
		err := f.e.OnSlideChanged(i)
		assert.ErrorIs(t, err, ErrInvalidSlide, "slide %d", i)
	}
	assert.Equal(t, 0, f.e.Slide())
	assert.Equal(t, 0, f.e.Tweens().Active())
	f.e.Advance(0.5)
	assert.Equal(t, before, f.e.Camera().Position)
	assert.Equal(t, []string{
		diagnostics.CodeSlideInvalid,
		diagnostics.CodeSlideInvalid,
		diagnostics.CodeSlideInvalid,
	}, f.diag.Codes())
}

func TestFrameDeltaIsClamped(t *testing.T) {
	f := newFixture(t)
	f.e.Advance(10)
	assert.Equal(t, 2.0, f.e.Now())

	g := newFixture(t, func(o *Options) { o.MaxDelta = 0.5 })
	g.e.Advance(10)
	assert.Equal(t, 0.5, g.e.Now())
}

func TestHiddenHostSkipsFrames(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.e.OnSlideChanged(1))
	f.host.SetHidden(true)
	f.e.Advance(0.5)
	assert.Equal(t, 0.0, f.e.Now())
	assert.Equal(t, uint64(0), f.e.Renderer().Frames())
	assertPose(t, &f.e.Camera().Node, keyframe.Default()[keyframe.Camera][0], "camera")

	f.host.SetHidden(false)
	f.e.Advance(0.5)
	assert.Equal(t, 0.5, f.e.Now())
	assert.Equal(t, uint64(1), f.e.Renderer().Frames())
}

func TestResizeWithZeroHeightKeepsAspectFinite(t *testing.T) {
	f := newFixture(t)
	f.host.SetViewport(render.Viewport{Width: 800, Height: 0, PixelRatio: 2})
	// applied on the loop
	assert.InDelta(t, 64.0/36.0, f.e.Camera().Aspect(), eps)
	f.e.Advance(0.01)

	a := f.e.Camera().Aspect()
	assert.False(t, math.IsNaN(a) || math.IsInf(a, 0))
	assert.Equal(t, 800.0, a)
	w, h := f.e.Renderer().Size()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 1, h)

	f.host.SetViewport(render.Viewport{Width: 0, Height: 0, PixelRatio: 1})
	f.e.Advance(0.01)
	assert.Equal(t, 1.0, f.e.Camera().Aspect())
}

func TestDisposeTwiceReleasesOnce(t *testing.T) {
	f := newFixture(t)
	l := f.e.Ledger()
	require.Greater(t, l.LiveTotal(), 0)

	require.NoError(t, f.e.Dispose())
	require.NoError(t, f.e.Dispose())
	assert.True(t, f.e.Disposed())
	assert.Equal(t, 0, l.LiveTotal())
	assert.Equal(t, 0, l.Doubles())
	assert.Equal(t, 0, f.host.Listeners())
	assert.Empty(t, f.e.Scene().Root.Children())
	assert.True(t, f.e.Renderer().Disposed())
	for _, o := range f.e.Objects() {
		assert.Equal(t, objects.Disposed, o.State(), o.Name())
	}

	assert.ErrorIs(t, f.e.OnSlideChanged(1), ErrDisposed)
	assert.False(t, f.e.Post(func() { t.Error("ran after dispose") }))
	f.e.Advance(1)
	f.host.SetViewport(render.Viewport{Width: 10, Height: 10, PixelRatio: 1})
}

func TestRepeatedLifecyclesDoNotLeakListeners(t *testing.T) {
	host := NewStaticHost(render.Viewport{Width: 32, Height: 32, PixelRatio: 1})
	nop := zerolog.Nop()
	for i := 0; i < 3; i++ {
		e, err := New(Options{Manual: true, Host: host, Log: &nop})
		require.NoError(t, err)
		assert.Equal(t, 1, host.Listeners())
		require.NoError(t, e.Dispose())
		assert.Equal(t, 0, host.Listeners())
	}
}

func TestInvalidKeyframesFailConstruction(t *testing.T) {
	keys := keyframe.Default()
	keys[keyframe.Police] = keys[keyframe.Police][:2]
	nop := zerolog.Nop()
	_, err := New(Options{Manual: true, Keyframes: keys, Log: &nop})
	assert.ErrorIs(t, err, keyframe.ErrMisaligned)
}

func glb(t *testing.T) []byte {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	ind := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})
	doc.Meshes = []*gltf.Mesh{{
		Name: "body",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(ind),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "root", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	path := filepath.Join(t.TempDir(), "car.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

// gateFS holds every Open until the gate is closed.
type gateFS struct {
	fs.FS
	gate chan struct{}
}

func (g gateFS) Open(name string) (fs.File, error) {
	<-g.gate
	return g.FS.Open(name)
}

func TestModelSwapsInOnTheLoop(t *testing.T) {
	assets := fstest.MapFS{"models/car.glb": {Data: glb(t)}}
	f := newFixture(t, func(o *Options) {
		o.Assets = assets
		o.Models = map[keyframe.Target]string{keyframe.Car: "models/car.glb"}
	})
	car := vehicle(t, f.e, keyframe.Car)
	assert.Equal(t, objects.Loading, car.State())
	root := car.Root()

	f.e.Wait()
	assert.Nil(t, car.Model(), "model must not land off the loop")
	f.e.Advance(0.01)

	require.NotNil(t, car.Model())
	assert.Nil(t, car.Placeholder())
	assert.Equal(t, objects.Ready, car.State())
	assert.Same(t, root, car.Root())
	assert.Equal(t, []*scene.Node{car.Model()}, root.Children())

	// textures for road, tunnel and mountains are missing from the fixture
	assert.Contains(t, f.diag.Codes(), diagnostics.CodeAssetFailed)

	require.NoError(t, f.e.OnSlideChanged(1))
	settle(t, f.e, 0.05)
	f.e.Advance(0.05)
	assertPose(t, root, keyframe.Default()[keyframe.Car][1], "car")
}

func TestLateLoadAfterDisposeIsDropped(t *testing.T) {
	gate := make(chan struct{})
	assets := gateFS{FS: fstest.MapFS{"models/car.glb": {Data: glb(t)}}, gate: gate}
	f := newFixture(t, func(o *Options) {
		o.Assets = assets
		o.Models = map[keyframe.Target]string{
			keyframe.Car:    "models/car.glb",
			keyframe.Police: "models/car.glb",
		}
	})
	car := vehicle(t, f.e, keyframe.Car)
	l := f.e.Ledger()

	require.NoError(t, f.e.Dispose())
	close(gate)
	f.e.Wait()
	f.e.Advance(0.1)

	assert.Nil(t, car.Model())
	assert.Equal(t, objects.Disposed, car.State())
	assert.Empty(t, f.e.Scene().Root.Children())
	assert.Equal(t, 0, l.LiveTotal())
	assert.Equal(t, 0, l.Doubles())
	assert.NotContains(t, f.diag.Codes(), diagnostics.CodeAssetFailed)
}

func TestFramesReachTheSink(t *testing.T) {
	var frames int
	f := newFixture(t, func(o *Options) {
		o.Sink = render.SinkFunc(func(*image.RGBA) error {
			frames++
			return nil
		})
	})
	for i := 0; i < 3; i++ {
		f.e.Advance(1.0 / 60)
	}
	assert.Equal(t, 3, frames)
	assert.Greater(t, f.e.Renderer().Last.Pixels, 0)
}

func TestPolicyMultiplier(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 1.0, p.Multiplier(Forward))
	assert.Equal(t, 0.3, p.Multiplier(Backward))
	assert.Equal(t, 1.0, Policy{Forward: 0, Backward: -1}.Multiplier(Backward))
	assert.Equal(t, Forward, DirectionOf(1, 2))
	assert.Equal(t, Backward, DirectionOf(2, 1))
	assert.Equal(t, Backward, DirectionOf(2, 2))
}
