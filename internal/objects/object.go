// Package objects builds the renderable members of the night-drive scene.
// Every object exposes one root node; the engine adds that node to the scene
// and never reaches below it.
package objects

import (
	"image/color"

	"github.com/rs/zerolog"

	"github.com/coreman2200/nightdrive/internal/asset"
	"github.com/coreman2200/nightdrive/internal/keyframe"
	"github.com/coreman2200/nightdrive/internal/scene"
)

// State is the lifecycle of an Object.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Disposed:
		return "disposed"
	}
	return "unknown"
}

// Object is a renderable scene member. Dispose releases everything it owns
// exactly once and may be called any number of times.
type Object interface {
	Name() string
	Root() *scene.Node
	State() State
	Dispose()
}

// Updater is implemented by objects with continuous per-frame motion.
type Updater interface {
	Update(dt float64)
}

// Animated is implemented by objects that follow a keyframe table.
type Animated interface {
	Target() keyframe.Target
}

// Env carries what objects need to build themselves.
type Env struct {
	Ledger   *scene.Ledger
	Textures *asset.Textures
	Models   *asset.Models
	Log      zerolog.Logger
	Seed     int64
	// OnAssetError, if set, is told about failed model loads on the loop.
	OnAssetError func(path string, err error)
}

// texture returns nil when the env has no texture loader.
func (e Env) texture(path string, rx, ry float64) *scene.Texture {
	if e.Textures == nil {
		return nil
	}
	return e.Textures.Load(path, rx, ry, false)
}

func (e Env) mesh(name string, g *scene.Geometry, c color.RGBA, tex *scene.Texture) *scene.Node {
	return scene.NewMeshNode(name, scene.NewMesh(g, scene.NewMaterial(e.Ledger, name, c, tex)))
}

// Factory builds one object.
type Factory func(env Env) Object

type base struct {
	name  string
	root  *scene.Node
	state State
}

func newBase(name string) base {
	return base{name: name, root: scene.NewNode(name), state: Uninitialized}
}

func (b *base) Name() string      { return b.name }
func (b *base) Root() *scene.Node { return b.root }
func (b *base) State() State      { return b.state }

func (b *base) Dispose() {
	if b.state == Disposed {
		return
	}
	b.state = Disposed
	b.root.Dispose()
	b.root.Clear()
}

func rgb(hex uint32) color.RGBA {
	return color.RGBA{R: uint8(hex >> 16), G: uint8(hex >> 8), B: uint8(hex), A: 0xff}
}

var (
	roadBlue  = rgb(0x566dca)
	neonPink  = rgb(0xff2e97)
	wallGreen = rgb(0x00ff00)
	white     = rgb(0xffffff)
	black     = rgb(0x000000)
	carGreen  = rgb(0x00ff00)
	copBlue   = rgb(0x3d7bff)
)
