package scene

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geometry is a vertex list drawn either as indexed edges or as points.
type Geometry struct {
	Vertices []mgl64.Vec3
	UVs      []mgl64.Vec2
	Edges    [][2]int
	Points   bool

	res *Resource
}

// NewGeometry acquires a geometry slot in l.
func NewGeometry(l *Ledger, label string, verts []mgl64.Vec3, edges [][2]int) *Geometry {
	return &Geometry{Vertices: verts, Edges: edges, res: l.Acquire(KindGeometry, label)}
}

func (g *Geometry) Release() bool { return g.res.Release() }

func (g *Geometry) Released() bool { return g.res.Released() }

// Texture is an image resource whose pixels may arrive after creation.
// Until SetImage is called it samples as white.
type Texture struct {
	Path             string
	RepeatX, RepeatY float64
	// Shared textures belong to a cache and outlive the materials using them.
	Shared bool

	img image.Image
	res *Resource
}

func NewTexture(l *Ledger, path string, rx, ry float64) *Texture {
	return &Texture{Path: path, RepeatX: rx, RepeatY: ry, res: l.Acquire(KindTexture, path)}
}

// SetImage installs decoded pixels. Released textures ignore it.
func (t *Texture) SetImage(img image.Image) bool {
	if t.res.Released() {
		return false
	}
	t.img = img
	return true
}

func (t *Texture) Ready() bool { return t.img != nil }

func (t *Texture) Release() bool {
	if t.res.Release() {
		t.img = nil
		return true
	}
	return false
}

func (t *Texture) Released() bool { return t.res.Released() }

// Sample returns the texel at (u,v) with the repeat applied and wrapping.
func (t *Texture) Sample(u, v float64) color.RGBA {
	if t == nil || t.img == nil {
		return color.RGBA{255, 255, 255, 255}
	}
	b := t.img.Bounds()
	if b.Empty() {
		return color.RGBA{255, 255, 255, 255}
	}
	u = wrap(u * nonZero(t.RepeatX))
	v = wrap(v * nonZero(t.RepeatY))
	x := b.Min.X + int(u*float64(b.Dx()))
	y := b.Min.Y + int((1-v)*float64(b.Dy()))
	if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	return color.RGBAModel.Convert(t.img.At(x, y)).(color.RGBA)
}

func wrap(x float64) float64 {
	x -= math.Floor(x)
	return x
}

func nonZero(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x
}

// Material colors a geometry. Map, when set, modulates Color per vertex.
type Material struct {
	Color     color.RGBA
	Map       *Texture
	PointSize int

	res *Resource
}

func NewMaterial(l *Ledger, label string, c color.RGBA, m *Texture) *Material {
	return &Material{Color: c, Map: m, PointSize: 1, res: l.Acquire(KindMaterial, label)}
}

func (m *Material) Release() bool {
	ok := m.res.Release()
	if ok && m.Map != nil && !m.Map.Shared {
		m.Map.Release()
	}
	return ok
}

func (m *Material) Released() bool { return m.res.Released() }

// VertexColor is the material color modulated by the map at uv.
func (m *Material) VertexColor(uv mgl64.Vec2) color.RGBA {
	if m.Map == nil || !m.Map.Ready() {
		return m.Color
	}
	s := m.Map.Sample(uv.X(), uv.Y())
	return color.RGBA{
		R: uint8(uint16(m.Color.R) * uint16(s.R) / 255),
		G: uint8(uint16(m.Color.G) * uint16(s.G) / 255),
		B: uint8(uint16(m.Color.B) * uint16(s.B) / 255),
		A: m.Color.A,
	}
}

// Mesh binds one geometry to one material.
type Mesh struct {
	Geometry *Geometry
	Material *Material
}

func NewMesh(g *Geometry, m *Material) *Mesh {
	return &Mesh{Geometry: g, Material: m}
}

// Dispose releases the geometry and material. Unshared maps go with the
// material.
func (m *Mesh) Dispose() {
	if m.Geometry != nil {
		m.Geometry.Release()
	}
	if m.Material != nil {
		m.Material.Release()
	}
}
