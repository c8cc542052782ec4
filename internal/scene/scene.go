// Package scene defines the renderer-agnostic scene-graph descriptors
// emitted by components. A backend (e.g. the OpenGL viewer) walks the
// emitted node tree each frame and owns the actual draw calls.
package scene

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// Node is one element of an emitted subtree. A node may carry at most one
// drawable (Mesh or Lines) plus any number of children. Transforms compose
// parent-to-child.
type Node struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Children []*Node

	Mesh  *Mesh
	Lines *LineSegments

	CastShadow    bool
	ReceiveShadow bool
}

// NewNode returns a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Rotation: mgl64.QuatIdent()}
}

// Add appends children and returns the node for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Walk visits n and every descendant in depth-first order. The visitor
// returns false to stop descending into a node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// Mesh pairs a triangle geometry with its material.
type Mesh struct {
	Geometry *Geometry
	Material Material
}

// Geometry is an indexed triangle list. Normals and UVs are optional and,
// when present, run parallel to Positions.
type Geometry struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	UVs       []mgl64.Vec2
	Indices   []uint32
}

// TriangleCount returns the number of triangles described by the indices.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Material describes how a drawable is shaded. Texture, when set, modulates
// the base color.
type Material struct {
	Color       [3]uint8
	Opacity     float64
	Transparent bool
	DoubleSided bool
	DepthWrite  bool
	Texture     *Texture
}

// LineSegments is a single line primitive whose points are consumed two at
// a time, one pair per segment.
type LineSegments struct {
	Points      []mgl64.Vec3
	Color       [3]uint8
	Width       float64
	Opacity     float64
	Transparent bool
}

// SegmentCount returns the number of segments in the primitive.
func (l *LineSegments) SegmentCount() int {
	return len(l.Points) / 2
}

// Texture is a decoded, renderer-ready image. Backends upload it lazily and
// may key caches on the pointer identity.
type Texture struct {
	Image *image.NRGBA
}

// Width returns the pixel width of the underlying image.
func (t *Texture) Width() int { return t.Image.Bounds().Dx() }

// Height returns the pixel height of the underlying image.
func (t *Texture) Height() int { return t.Image.Bounds().Dy() }

// RenderContext carries per-frame values shared by all producers.
type RenderContext struct {
	Frame uint64
	Time  float64
	DT    float64
}

// Producer is the lifecycle for components that emit a subtree each frame.
type Producer interface {
	Render(ctx RenderContext) *Node
	Dispose()
}
