// Package choreo drives the night-drive scene: it owns the renderer, the
// camera, the scene objects and the slide index, and turns slide changes
// into keyframed tweens of the camera and the convoy.
//
// Everything except Post, Dispose and the read-only accessors runs on the
// engine loop: the clock goroutine, or the caller of Advance with a manual
// clock. Other goroutines hand work to the loop with Post.
package choreo

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/nightdrive/internal/asset"
	"github.com/coreman2200/nightdrive/internal/clock"
	"github.com/coreman2200/nightdrive/internal/diagnostics"
	"github.com/coreman2200/nightdrive/internal/ease"
	"github.com/coreman2200/nightdrive/internal/keyframe"
	"github.com/coreman2200/nightdrive/internal/objects"
	"github.com/coreman2200/nightdrive/internal/render"
	"github.com/coreman2200/nightdrive/internal/scene"
	"github.com/coreman2200/nightdrive/internal/tween"
)

var (
	ErrInvalidSlide = errors.New("invalid slide index")
	ErrDisposed     = errors.New("engine disposed")
)

var white = color.RGBA{0xff, 0xff, 0xff, 0xff}

// CameraOptions is the perspective lens.
type CameraOptions struct {
	FOV  float64 `yaml:"fov"`
	Near float64 `yaml:"near"`
	Far  float64 `yaml:"far"`
}

func DefaultCamera() CameraOptions {
	return CameraOptions{FOV: 45, Near: 0.05, Far: 150}
}

type Options struct {
	// Keyframes defaults to keyframe.Default() when empty.
	Keyframes keyframe.Set
	// Policy defaults to DefaultPolicy() when zero.
	Policy   Policy
	FPS      int
	MaxDelta float64
	// Manual leaves ticking to Advance.
	Manual bool

	// Host defaults to a StaticHost of 1280x720.
	Host Host
	Sink render.Sink
	// Post defaults to render.DefaultPost() when zero.
	Post   render.Post
	Camera CameraOptions

	// Assets is where textures and models are read from. Without it every
	// object keeps its flat colors and placeholders.
	Assets fs.FS
	// Objects defaults to objects.Defaults(Models).
	Objects []objects.Factory
	Models  map[keyframe.Target]string
	// Marker adds the spinning reference cube.
	Marker bool
	Seed   int64

	Log         *zerolog.Logger
	Diagnostics diagnostics.Reporter
}

// Transition describes the most recent slide change.
type Transition struct {
	Slide      int
	Direction  Direction
	Multiplier float64
	// Started is engine time at the request, in seconds.
	Started float64
	Settled bool
	// Elapsed is the engine time it took to settle.
	Elapsed float64

	handles []*tween.Handle
}

type Engine struct {
	log    zerolog.Logger
	diag   diagnostics.Reporter
	keys   keyframe.Set
	policy Policy
	host   Host

	ledger   *scene.Ledger
	renderer *render.Renderer
	scene    *scene.Scene
	camera   *scene.Camera
	textures *asset.Textures
	models   *asset.Models
	tweens   *tween.Scheduler
	clock    *clock.Clock

	objects  []objects.Object
	updaters []objects.Updater
	targets  [keyframe.TargetCount]tween.Target

	unsubscribe func()

	slide      int
	now        float64
	trans      Transition
	renderFail bool

	disposeOnce sync.Once
	disposed    atomic.Bool
}

// New builds the engine and starts its clock. Construction follows a fixed
// order: renderer, scene with camera and lights, objects, one synchronous
// resize, resize subscription, clock.
func New(o Options) (*Engine, error) {
	e := &Engine{
		log:    log.Logger,
		diag:   o.Diagnostics,
		keys:   o.Keyframes,
		policy: o.Policy,
		host:   o.Host,
		ledger: scene.NewLedger(),
		tweens: tween.New(),
	}
	if o.Log != nil {
		e.log = *o.Log
	}
	e.log = e.log.With().Str("component", "choreo").Logger()
	if e.diag == nil {
		e.diag = diagnostics.Nop
	}
	if e.keys.Len() == 0 {
		e.keys = keyframe.Default()
	}
	if err := e.keys.Validate(); err != nil {
		return nil, fmt.Errorf("keyframes: %w", err)
	}
	if e.policy == (Policy{}) {
		e.policy = DefaultPolicy()
	}
	if e.host == nil {
		e.host = NewStaticHost(render.Viewport{Width: 1280, Height: 720, PixelRatio: 1})
	}
	cam := o.Camera
	if cam == (CameraOptions{}) {
		cam = DefaultCamera()
	}
	fps := o.FPS
	if fps <= 0 {
		fps = clock.DefaultFPS
	}

	e.renderer = render.New(o.Sink, e.log)
	if o.Post != (render.Post{}) {
		e.renderer.Post = o.Post
	}

	e.scene = scene.New()
	e.camera = scene.NewCamera(cam.FOV, cam.Near, cam.Far)
	e.scene.AddLight(scene.Light{Kind: scene.Ambient, Color: white, Intensity: 0.5})
	e.scene.AddLight(scene.Light{Kind: scene.Directional, Color: white, Intensity: 1, Position: mgl64.Vec3{5, 5, 5}})
	e.targets[keyframe.Camera] = &e.camera.Node

	// The clock exists before the objects because it is the dispatcher their
	// asset loads complete on. It starts last.
	copts := []clock.Option{}
	if o.MaxDelta > 0 {
		copts = append(copts, clock.WithMaxDelta(o.MaxDelta))
	}
	if o.Manual {
		copts = append(copts, clock.Manual())
	}
	e.clock = clock.New(fps, e.Frame, copts...)

	if o.Assets != nil {
		e.textures = asset.NewTextures(o.Assets, e.clock, e.ledger, e.log)
		e.textures.OnError = e.assetFailed
		e.models = asset.NewModels(o.Assets, e.clock, e.log)
	}
	env := objects.Env{
		Ledger:       e.ledger,
		Textures:     e.textures,
		Models:       e.models,
		Log:          e.log,
		Seed:         o.Seed,
		OnAssetError: e.assetFailed,
	}
	factories := o.Objects
	if factories == nil {
		factories = objects.Defaults(o.Models)
	}
	if o.Marker {
		factories = append(factories[:len(factories):len(factories)], objects.NewMarker)
	}
	for _, f := range factories {
		e.add(f(env))
	}

	e.snap(0)
	e.Resize(e.host.Viewport())
	e.unsubscribe = e.host.OnResize(func(v render.Viewport) {
		e.Post(func() { e.Resize(v) })
	})

	e.clock.Start()
	e.log.Info().
		Int("objects", len(e.objects)).
		Int("slides", e.keys.Len()).
		Int("fps", fps).
		Bool("manual", o.Manual).
		Msg("engine started")
	return e, nil
}

func (e *Engine) add(obj objects.Object) {
	e.objects = append(e.objects, obj)
	e.scene.Add(obj.Root())
	if u, ok := obj.(objects.Updater); ok {
		e.updaters = append(e.updaters, u)
	}
	if a, ok := obj.(objects.Animated); ok {
		e.targets[a.Target()] = obj.Root()
	}
	e.log.Debug().Str("object", obj.Name()).Str("state", obj.State().String()).Msg("object added")
}

// snap places every target at keyframe i without tweening.
func (e *Engine) snap(i int) {
	for _, t := range keyframe.Targets() {
		bag := e.targets[t]
		if bag == nil {
			continue
		}
		k, ok := e.keys.At(t, i)
		if !ok {
			continue
		}
		bag.Set(scene.PosX, k.Position.X())
		bag.Set(scene.PosY, k.Position.Y())
		bag.Set(scene.PosZ, k.Position.Z())
		bag.Set(scene.RotY, k.RotationY)
	}
	e.slide = i
	e.trans = Transition{Slide: i, Direction: Forward, Multiplier: 1, Settled: true}
}

// OnSlideChanged starts the transition to slide i. Out of range indices are
// rejected without touching any state.
func (e *Engine) OnSlideChanged(i int) error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	n := e.keys.Len()
	if i < 0 || i >= n {
		e.log.Warn().Int("slide", i).Int("count", n).Msg("slide rejected")
		e.diag.Report(diagnostics.SlideInvalid(i, n))
		return fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidSlide, i, n)
	}

	dir := DirectionOf(e.slide, i)
	m := e.policy.Multiplier(dir)
	e.log.Debug().
		Int("from", e.slide).
		Int("slide", i).
		Stringer("direction", dir).
		Float64("multiplier", m).
		Msg("slide changed")

	e.slide = i
	e.trans = Transition{Slide: i, Direction: dir, Multiplier: m, Started: e.now}
	for _, t := range keyframe.Targets() {
		bag := e.targets[t]
		if bag == nil {
			continue
		}
		k, _ := e.keys.At(t, i)
		e.trans.handles = append(e.trans.handles,
			e.animate(bag, t, map[scene.Prop]float64{
				scene.PosX: k.Position.X(),
				scene.PosY: k.Position.Y(),
				scene.PosZ: k.Position.Z(),
			}, k.Move.Scaled(m)),
			e.animate(bag, t, map[scene.Prop]float64{scene.RotY: k.RotationY}, k.Turn.Scaled(m)),
		)
	}
	return nil
}

func (e *Engine) animate(bag tween.Target, t keyframe.Target, dest map[scene.Prop]float64, tm keyframe.Timing) *tween.Handle {
	curve, err := ease.Parse(tm.Ease)
	if err != nil {
		e.log.Warn().Err(err).Stringer("target", t).Msg("falling back to linear ease")
		curve = ease.Linear
	}
	return e.tweens.Animate(bag, dest, tm.Duration, tm.Delay, curve, nil)
}

// Frame is the per-frame duty: nothing while the host is hidden, otherwise
// tweens, continuous motion, then one render.
func (e *Engine) Frame(dt float64) {
	if e.disposed.Load() || e.host.Hidden() {
		return
	}
	e.now += dt
	e.tweens.Advance(dt)
	e.settle()
	for _, u := range e.updaters {
		u.Update(dt)
	}

	err := e.renderer.Render(e.scene, e.camera)
	switch {
	case err != nil && !e.renderFail:
		e.renderFail = true
		e.log.Warn().Err(err).Msg("render failed")
	case err == nil && e.renderFail:
		e.renderFail = false
		e.log.Info().Msg("render recovered")
	}
}

func (e *Engine) settle() {
	if e.trans.Settled {
		return
	}
	for _, h := range e.trans.handles {
		if !h.Done() {
			return
		}
	}
	e.trans.Settled = true
	e.trans.Elapsed = e.now - e.trans.Started
	e.log.Debug().Int("slide", e.trans.Slide).Float64("seconds", e.trans.Elapsed).Msg("slide settled")
	e.diag.Report(diagnostics.SlideSettled(e.trans.Slide, e.trans.Elapsed))
}

func (e *Engine) assetFailed(path string, err error) {
	e.diag.Report(diagnostics.AssetFailed(path, err))
}

// Resize applies a new host size to the renderer and the camera.
func (e *Engine) Resize(v render.Viewport) {
	if e.disposed.Load() {
		return
	}
	e.renderer.Resize(v)
	e.camera.SetViewport(v.Width, v.Height)
	e.log.Debug().Int("width", v.Width).Int("height", v.Height).Float64("aspect", e.camera.Aspect()).Msg("resized")
}

// Post runs fn on the engine loop before the next frame. It reports false
// once the engine is disposed.
func (e *Engine) Post(fn func()) bool {
	return e.clock.Post(fn)
}

// Advance drives one frame of dt seconds. It is for manual clocks; with a
// ticking clock it races the clock goroutine.
func (e *Engine) Advance(dt float64) {
	e.clock.Tick(dt)
}

func (e *Engine) Slide() int                 { return e.slide }
func (e *Engine) Slides() int                { return e.keys.Len() }
func (e *Engine) Camera() *scene.Camera      { return e.camera }
func (e *Engine) Scene() *scene.Scene        { return e.scene }
func (e *Engine) Renderer() *render.Renderer { return e.renderer }
func (e *Engine) Ledger() *scene.Ledger      { return e.ledger }
func (e *Engine) Objects() []objects.Object  { return e.objects }
func (e *Engine) Tweens() *tween.Scheduler   { return e.tweens }
func (e *Engine) Keyframes() keyframe.Set    { return e.keys }
func (e *Engine) Transition() Transition     { return e.trans }

// Now is engine time in seconds: the sum of every visible frame's dt.
func (e *Engine) Now() float64 { return e.now }

func (e *Engine) Disposed() bool { return e.disposed.Load() }

// Wait blocks until every asset decode started so far has finished. Their
// results are delivered on later frames.
func (e *Engine) Wait() {
	if e.textures != nil {
		e.textures.Wait()
	}
	if e.models != nil {
		e.models.Wait()
	}
}

// Dispose tears the engine down: clock, resize subscription, tweens,
// objects, scene, renderer, texture cache. It is safe to call more than
// once; later calls return nil. It must not be called from the loop.
func (e *Engine) Dispose() error {
	var err error
	e.disposeOnce.Do(func() {
		e.disposed.Store(true)
		e.clock.Stop()
		e.log.Debug().Msg("clock stopped")
		if e.unsubscribe != nil {
			e.unsubscribe()
		}
		e.tweens.CancelAll()
		for _, o := range e.objects {
			o.Dispose()
		}
		e.log.Debug().Int("objects", len(e.objects)).Msg("objects disposed")
		e.scene.Clear()
		err = e.renderer.Dispose()
		if e.textures != nil {
			e.textures.ClearCache()
		}
		e.log.Debug().
			Int("live", e.ledger.LiveTotal()).
			Int("double_releases", e.ledger.Doubles()).
			Msg("engine disposed")
	})
	return err
}
