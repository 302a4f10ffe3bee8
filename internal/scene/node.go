// Package scene is a small retained scene graph: transform nodes, meshes,
// a perspective camera, lights and a ledger of GPU-class resources.
//
// Nodes are not safe for concurrent use. Everything that mutates the graph
// runs on the engine loop.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Prop is an animatable scalar of a Node.
type Prop int

const (
	PosX Prop = iota
	PosY
	PosZ
	RotX
	RotY
	RotZ
)

func (p Prop) String() string {
	return [...]string{"pos.x", "pos.y", "pos.z", "rot.x", "rot.y", "rot.z"}[p]
}

// Node is a transform in the graph. Rotation is Euler XYZ in radians.
type Node struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
	Visible  bool
	Mesh     *Mesh

	parent   *Node
	children []*Node
	disposed bool
}

func NewNode(name string) *Node {
	n := &Node{}
	n.init(name)
	return n
}

func (n *Node) init(name string) {
	n.Name = name
	n.Scale = mgl64.Vec3{1, 1, 1}
	n.Visible = true
}

// NewMeshNode wraps m in a named node.
func NewMeshNode(name string, m *Mesh) *Node {
	n := NewNode(name)
	n.Mesh = m
	return n
}

// Add reparents children under n.
func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		if c.parent != nil {
			c.parent.Remove(c)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Remove detaches c if it is a direct child.
func (n *Node) Remove(c *Node) {
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

// Clear detaches every child without disposing them.
func (n *Node) Clear() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Children() []*Node { return n.children }

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Traverse visits visible nodes with their world matrix.
func (n *Node) Traverse(fn func(n *Node, world mgl64.Mat4)) {
	n.traverse(n.parentWorld(), fn)
}

func (n *Node) traverse(parent mgl64.Mat4, fn func(*Node, mgl64.Mat4)) {
	if !n.Visible {
		return
	}
	w := parent.Mul4(n.Local())
	fn(n, w)
	for _, c := range n.children {
		c.traverse(w, fn)
	}
}

// Local composes translation, rotation (X then Y then Z) and scale.
func (n *Node) Local() mgl64.Mat4 {
	t := mgl64.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := mgl64.HomogRotate3DX(n.Rotation.X()).
		Mul4(mgl64.HomogRotate3DY(n.Rotation.Y())).
		Mul4(mgl64.HomogRotate3DZ(n.Rotation.Z()))
	s := mgl64.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

func (n *Node) parentWorld() mgl64.Mat4 {
	if n.parent == nil {
		return mgl64.Ident4()
	}
	return n.parent.World()
}

// World is the node's transform in scene space.
func (n *Node) World() mgl64.Mat4 {
	return n.parentWorld().Mul4(n.Local())
}

// Get reads an animatable property.
func (n *Node) Get(p Prop) float64 {
	switch p {
	case PosX, PosY, PosZ:
		return n.Position[p-PosX]
	case RotX, RotY, RotZ:
		return n.Rotation[p-RotX]
	}
	return 0
}

// Set writes an animatable property. Disposed nodes ignore writes.
func (n *Node) Set(p Prop, v float64) {
	if n.disposed {
		return
	}
	switch p {
	case PosX, PosY, PosZ:
		n.Position[p-PosX] = v
	case RotX, RotY, RotZ:
		n.Rotation[p-RotX] = v
	}
}

// Alive is false once the node has been disposed.
func (n *Node) Alive() bool { return !n.disposed }

// Dispose releases every mesh in the subtree, detaches n from its parent and
// marks the subtree dead. Calling it again does nothing.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	if n.parent != nil {
		n.parent.Remove(n)
	}
	n.Walk(func(c *Node) bool {
		if c.disposed {
			return false
		}
		c.disposed = true
		if c.Mesh != nil {
			c.Mesh.Dispose()
		}
		return true
	})
}
