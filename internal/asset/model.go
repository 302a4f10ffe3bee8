package asset

import (
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/rs/zerolog"

	"github.com/coreman2200/nightdrive/internal/scene"
)

// MeshData is one decoded primitive as a wireframe.
type MeshData struct {
	Name      string
	Positions []mgl64.Vec3
	Edges     [][2]int
}

// ModelData is a decoded model, independent of any scene.
type ModelData struct {
	Path   string
	Meshes []MeshData
}

// Bounds returns the axis-aligned extent of every mesh.
func (m *ModelData) Bounds() (min, max mgl64.Vec3) {
	min = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, md := range m.Meshes {
		for _, p := range md.Positions {
			for i := 0; i < 3; i++ {
				min[i] = math.Min(min[i], p[i])
				max[i] = math.Max(max[i], p[i])
			}
		}
	}
	return min, max
}

// Build turns the model into scene nodes under one group. It acquires
// resources, so it must run on the engine loop.
func (m *ModelData) Build(l *scene.Ledger, c color.RGBA) *scene.Node {
	root := scene.NewNode(m.Path)
	for i, md := range m.Meshes {
		name := md.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", m.Path, i)
		}
		g := scene.NewGeometry(l, name, md.Positions, md.Edges)
		root.Add(scene.NewMeshNode(name, scene.NewMesh(g, scene.NewMaterial(l, name, c, nil))))
	}
	return root
}

// DecodeModel reads a binary or JSON glTF document.
func DecodeModel(r io.Reader, path string) (*ModelData, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	out := &ModelData{Path: path}
	for _, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			md, err := readPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("%s mesh %q primitive %d: %w", path, mesh.Name, pi, err)
			}
			md.Name = mesh.Name
			out.Meshes = append(out.Meshes, md)
		}
	}
	if len(out.Meshes) == 0 {
		return nil, fmt.Errorf("%s: no meshes", path)
	}
	return out, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (MeshData, error) {
	var md MeshData
	idx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return md, fmt.Errorf("no POSITION attribute")
	}
	pos, err := modeler.ReadPosition(doc, doc.Accessors[idx], nil)
	if err != nil {
		return md, fmt.Errorf("read positions: %w", err)
	}
	md.Positions = make([]mgl64.Vec3, len(pos))
	for i, p := range pos {
		md.Positions[i] = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}

	var tris []uint32
	if prim.Indices != nil {
		tris, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return md, fmt.Errorf("read indices: %w", err)
		}
	} else {
		tris = make([]uint32, len(pos))
		for i := range tris {
			tris[i] = uint32(i)
		}
	}
	md.Edges = triangleEdges(tris, len(pos))
	return md, nil
}

// triangleEdges lists each distinct triangle edge once.
func triangleEdges(tris []uint32, n int) [][2]int {
	seen := make(map[[2]int]struct{}, len(tris))
	var edges [][2]int
	add := func(a, b uint32) {
		i, j := int(a), int(b)
		if i >= n || j >= n || i == j {
			return
		}
		if i > j {
			i, j = j, i
		}
		k := [2]int{i, j}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		edges = append(edges, k)
	}
	for t := 0; t+2 < len(tris); t += 3 {
		a, b, c := tris[t], tris[t+1], tris[t+2]
		add(a, b)
		add(b, c)
		add(c, a)
	}
	return edges
}

// Models decodes glTF models in the background.
type Models struct {
	fsys fs.FS
	disp Dispatcher
	log  zerolog.Logger
	wg   sync.WaitGroup
}

func NewModels(fsys fs.FS, disp Dispatcher, log zerolog.Logger) *Models {
	return &Models{fsys: fsys, disp: disp, log: log}
}

// Load starts decoding path. Register callbacks with Then; they run on the
// dispatcher.
func (m *Models) Load(path string) *Future[*ModelData] {
	m.log.Debug().Str("path", path).Msg("model load")
	return Go(m.disp, &m.wg, func() (*ModelData, error) {
		if m.fsys == nil {
			return nil, fmt.Errorf("%s: %w", path, errNoFS)
		}
		f, err := m.fsys.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return DecodeModel(f, path)
	})
}

// Wait blocks until every decode started so far has finished.
func (m *Models) Wait() { m.wg.Wait() }
