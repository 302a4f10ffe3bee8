package scene

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

type LightKind int

const (
	Ambient LightKind = iota
	Directional
)

type Light struct {
	Kind      LightKind
	Color     color.RGBA
	Intensity float64
	Position  mgl64.Vec3
}

// Scene is the graph root plus global appearance.
type Scene struct {
	Root       *Node
	Background color.RGBA
	Lights     []Light
}

func New() *Scene {
	return &Scene{Root: NewNode("scene"), Background: color.RGBA{0x11, 0x11, 0x11, 0xff}}
}

func (s *Scene) Add(nodes ...*Node) { s.Root.Add(nodes...) }

func (s *Scene) AddLight(l Light) { s.Lights = append(s.Lights, l) }

// Exposure is the brightness factor of the current lights: full ambient plus
// half of the directional intensity, the share an unlit wireframe receives
// from a light above and in front.
func (s *Scene) Exposure() float64 {
	e := 0.0
	for _, l := range s.Lights {
		switch l.Kind {
		case Ambient:
			e += l.Intensity
		case Directional:
			e += l.Intensity * 0.5
		}
	}
	if len(s.Lights) == 0 {
		return 1
	}
	return e
}

// Clear detaches every node and light. Meshes are not released here.
func (s *Scene) Clear() {
	s.Root.Clear()
	s.Lights = nil
}
