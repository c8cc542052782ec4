package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is a world-space axis-aligned bounding box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// EmptyAABB returns a box that contains nothing; extending it with any
// point yields a valid box.
func EmptyAABB() AABB {
	return AABB{
		Min: mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
}

// Empty reports whether the box contains no points.
func (b AABB) Empty() bool {
	return b.Min.X() > b.Max.X()
}

// Extend grows the box to include p.
func (b AABB) Extend(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Bounds accumulates the world-space box of the node's drawables and all
// descendants, composing each node's position and rotation on the way down.
func (n *Node) Bounds() AABB {
	box := EmptyAABB()
	n.accumulateBounds(mgl64.Vec3{}, mgl64.QuatIdent(), &box)
	return box
}

func (n *Node) accumulateBounds(origin mgl64.Vec3, orient mgl64.Quat, box *AABB) {
	origin = origin.Add(orient.Rotate(n.Position))
	orient = orient.Mul(n.Rotation)

	if n.Mesh != nil && n.Mesh.Geometry != nil {
		for _, p := range n.Mesh.Geometry.Positions {
			*box = box.Extend(origin.Add(orient.Rotate(p)))
		}
	}
	if n.Lines != nil {
		for _, p := range n.Lines.Points {
			*box = box.Extend(origin.Add(orient.Rotate(p)))
		}
	}
	for _, c := range n.Children {
		c.accumulateBounds(origin, orient, box)
	}
}
