package asset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/nightdrive/internal/scene"
)

// queue is a manual loop: posted work runs only on drain.
type queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queue) Post(fn func()) bool {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
	return true
}

func (q *queue) drain() int {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFutureThenAfterResolve(t *testing.T) {
	q := &queue{}
	f := Go[int](q, nil, func() (int, error) { return 7, nil })
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	got := 0
	f.Then(func(v int) { got = v }, nil)
	assert.Equal(t, 0, got, "delivery waits for the loop")
	q.drain()
	assert.Equal(t, 7, got)
}

func TestFutureFailure(t *testing.T) {
	boom := errors.New("boom")
	var got error
	f := Go[int](Inline, nil, func() (int, error) { return 0, boom })
	_, _ = f.Wait(context.Background())
	f.Then(nil, func(err error) { got = err })
	assert.ErrorIs(t, got, boom)
}

func TestFutureCancelBeforeDelivery(t *testing.T) {
	q := &queue{}
	release := make(chan struct{})
	f := Go[int](q, nil, func() (int, error) {
		<-release
		return 1, nil
	})
	f.Then(func(int) { t.Fatal("cancelled future called back") }, func(error) { t.Fatal("cancelled future failed") })
	f.Cancel()
	close(release)
	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	q.drain()
	assert.True(t, f.Cancelled())
}

func TestFutureCancelAfterDispatch(t *testing.T) {
	q := &queue{}
	f := Go[int](q, nil, func() (int, error) { return 1, nil })
	f.Then(func(int) { t.Fatal("cancelled future called back") }, nil)
	_, _ = f.Wait(context.Background())
	f.Cancel()
	assert.Equal(t, 1, q.drain(), "delivery was queued")
}

func TestFutureWaitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	f := Go[int](Inline, nil, func() (int, error) { <-block; return 0, nil })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTexturesLoadAndCache(t *testing.T) {
	fsys := fstest.MapFS{"textures/grid.png": {Data: pngBytes(t)}}
	q := &queue{}
	l := scene.NewLedger()
	tx := NewTextures(fsys, q, l, zerolog.Nop())

	a := tx.Load("textures/grid.png", 42, 45, true)
	b := tx.Load("textures/grid.png", 42, 45, true)
	c := tx.Load("textures/grid.png", 8, 20.85, true)
	d := tx.Load("textures/grid.png", 42, 45, false)
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotSame(t, a, d)
	assert.True(t, a.Shared)
	assert.False(t, d.Shared)
	assert.False(t, a.Ready())
	assert.Equal(t, 2, tx.Cached())

	tx.Wait()
	q.drain()
	assert.True(t, a.Ready())
	assert.True(t, d.Ready())
	assert.Equal(t, color.RGBA{200, 200, 200, 255}, a.Sample(0.3, 0.3))

	tx.ClearCache()
	assert.True(t, a.Released())
	assert.True(t, c.Released())
	assert.False(t, d.Released())
	assert.Equal(t, 1, l.Live(scene.KindTexture))
	assert.Equal(t, 0, tx.Cached())
}

func TestTextureFailureIsReported(t *testing.T) {
	q := &queue{}
	tx := NewTextures(fstest.MapFS{"bad.png": {Data: []byte("nope")}}, q, nil, zerolog.Nop())
	var failed []string
	tx.OnError = func(path string, err error) { failed = append(failed, path) }

	missing := tx.Load("missing.png", 1, 1, false)
	bad := tx.Load("bad.png", 1, 1, false)
	tx.Wait()
	q.drain()
	assert.ElementsMatch(t, []string{"missing.png", "bad.png"}, failed)
	assert.False(t, missing.Ready())
	assert.False(t, bad.Ready())
}

func TestTextureReleasedBeforePixels(t *testing.T) {
	q := &queue{}
	tx := NewTextures(fstest.MapFS{"a.png": {Data: pngBytes(t)}}, q, scene.NewLedger(), zerolog.Nop())
	tex := tx.Load("a.png", 1, 1, false)
	tex.Release()
	tx.Wait()
	q.drain()
	assert.False(t, tex.Ready())
}

func glbFixture(t *testing.T) []byte {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
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

func TestModelsLoad(t *testing.T) {
	fsys := fstest.MapFS{"models/car.glb": {Data: glbFixture(t)}}
	q := &queue{}
	m := NewModels(fsys, q, zerolog.Nop())

	var got *ModelData
	f := m.Load("models/car.glb").Then(func(md *ModelData) { got = md }, func(err error) { t.Fatal(err) })
	data, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Meshes, 1)
	assert.Equal(t, "body", data.Meshes[0].Name)
	assert.Len(t, data.Meshes[0].Positions, 4)
	assert.Len(t, data.Meshes[0].Edges, 5)

	min, max := data.Bounds()
	assert.Equal(t, 0.0, min.X())
	assert.Equal(t, 1.0, max.Z())

	m.Wait()
	q.drain()
	require.Same(t, data, got)

	l := scene.NewLedger()
	node := got.Build(l, color.RGBA{255, 255, 255, 255})
	assert.Len(t, node.Children(), 1)
	assert.Equal(t, 1, l.Live(scene.KindGeometry))
	node.Dispose()
	assert.Equal(t, 0, l.LiveTotal())
}

func TestModelsLoadFailure(t *testing.T) {
	q := &queue{}
	m := NewModels(fstest.MapFS{"junk.glb": {Data: []byte("junk")}}, q, zerolog.Nop())
	var errs int
	m.Load("junk.glb").Then(func(*ModelData) { t.Fatal("junk decoded") }, func(error) { errs++ })
	m.Load("absent.glb").Then(nil, func(error) { errs++ })
	m.Wait()
	q.drain()
	assert.Equal(t, 2, errs)

	_, err := NewModels(nil, q, zerolog.Nop()).Load("x.glb").Wait(context.Background())
	assert.ErrorIs(t, err, errNoFS)
}

func TestTriangleEdges(t *testing.T) {
	edges := triangleEdges([]uint32{0, 1, 2, 2, 1, 3, 0, 9, 1}, 4)
	assert.Len(t, edges, 5)
}
