package objects

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/nightdrive/internal/asset"
	"github.com/coreman2200/nightdrive/internal/keyframe"
	"github.com/coreman2200/nightdrive/internal/scene"
)

// vehicleLength is the longest extent a loaded model is scaled to.
const vehicleLength = 1.2

// Vehicle is a keyframed convoy member. It shows a wireframe box until its
// model arrives, then swaps the model in under the same root, so tweens
// that already target the root keep working across the swap.
type Vehicle struct {
	base
	env    Env
	target keyframe.Target
	path   string
	color  color.RGBA

	placeholder *scene.Node
	model       *scene.Node
	load        *asset.Future[*asset.ModelData]
}

// NewVehicle builds the vehicle for target. With an empty modelPath, or no
// model loader in env, the placeholder is final.
func NewVehicle(env Env, target keyframe.Target, modelPath string, c color.RGBA) *Vehicle {
	v := &Vehicle{
		base:   newBase(target.String()),
		env:    env,
		target: target,
		path:   modelPath,
		color:  c,
	}
	v.placeholder = env.mesh(v.name+".placeholder", scene.Box(env.Ledger, 0.5, 0.5, 0.5), c, nil)
	v.root.Add(v.placeholder)

	if modelPath == "" || env.Models == nil {
		v.state = Ready
		return v
	}
	v.state = Loading
	v.load = env.Models.Load(modelPath).Then(v.onModel, v.onModelError)
	return v
}

func (v *Vehicle) Target() keyframe.Target { return v.target }

// Model is the loaded model node, nil until it arrives.
func (v *Vehicle) Model() *scene.Node { return v.model }

// Placeholder is the stand-in box, nil once the model replaced it.
func (v *Vehicle) Placeholder() *scene.Node { return v.placeholder }

// onModel runs on the engine loop.
func (v *Vehicle) onModel(md *asset.ModelData) {
	if v.state == Disposed {
		v.env.Log.Debug().Str("path", v.path).Msg("model arrived after dispose, dropped")
		return
	}
	node := md.Build(v.env.Ledger, v.color)
	min, max := md.Bounds()
	ext := max.Sub(min)
	if l := maxComponent(ext); l > 0 {
		k := vehicleLength / l
		node.Scale = mgl64.Vec3{k, k, k}
	}

	if v.placeholder != nil {
		v.placeholder.Dispose()
		v.placeholder = nil
	}
	v.model = node
	v.root.Add(node)
	v.state = Ready
	v.env.Log.Debug().Str("object", v.name).Str("path", v.path).Msg("model ready")
}

func (v *Vehicle) onModelError(err error) {
	if v.state == Disposed {
		return
	}
	v.env.Log.Warn().Err(err).Str("object", v.name).Str("path", v.path).Msg("model load failed, keeping placeholder")
	v.state = Ready
	if v.env.OnAssetError != nil {
		v.env.OnAssetError(v.path, err)
	}
}

// Dispose cancels a pending load and releases whatever is attached.
func (v *Vehicle) Dispose() {
	if v.state == Disposed {
		return
	}
	if v.load != nil {
		v.load.Cancel()
	}
	v.base.Dispose()
	v.placeholder = nil
}

func maxComponent(v mgl64.Vec3) float64 {
	m := v[0]
	for _, c := range v[1:] {
		if c > m {
			m = c
		}
	}
	return m
}

// Marker is a small spinning wireframe cube, handy to confirm frames are
// flowing.
type Marker struct {
	base
}

func NewMarker(env Env) Object {
	m := &Marker{base: newBase("marker")}
	cube := env.mesh("marker.cube", scene.Box(env.Ledger, 0.5, 0.5, 0.5), carGreen, nil)
	m.root.Add(cube)
	m.root.Position = mgl64.Vec3{0, -1, -1}
	m.state = Ready
	return m
}

func (m *Marker) Update(dt float64) {
	if m.state == Disposed {
		return
	}
	m.root.Rotation[0] += dt * 0.005
	m.root.Rotation[1] += dt * 0.007
}
