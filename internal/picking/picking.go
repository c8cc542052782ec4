// Package picking resolves which emitted subtree the cursor is over. The
// viewer builds one ray per frame from the cursor position and tests it
// against node bounds; the result feeds the hover accessors sampled by the
// frustum controllers.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Limardi/viser/internal/scene"
)

// Ray is a world-space ray with a unit direction.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// FromNDC unprojects a normalized-device-coordinate cursor position
// (x, y in [-1, 1], y up) through the inverse view-projection matrix.
func FromNDC(invViewProj mgl64.Mat4, x, y float64) Ray {
	near := unproject(invViewProj, mgl64.Vec3{x, y, -1})
	far := unproject(invViewProj, mgl64.Vec3{x, y, 1})
	return Ray{Origin: near, Dir: far.Sub(near).Normalize()}
}

func unproject(inv mgl64.Mat4, ndc mgl64.Vec3) mgl64.Vec3 {
	v := inv.Mul4x1(mgl64.Vec4{ndc.X(), ndc.Y(), ndc.Z(), 1})
	return mgl64.Vec3{v.X() / v.W(), v.Y() / v.W(), v.Z() / v.W()}
}

// HitAABB runs the slab test against a bounding box and returns the entry
// distance along the ray. Rays starting inside the box hit at distance 0.
func (r Ray) HitAABB(box scene.AABB) (float64, bool) {
	if box.Empty() {
		return 0, false
	}

	tMin, tMax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		if r.Dir[i] == 0 {
			// Parallel to this slab; must already be inside it.
			if r.Origin[i] < box.Min[i] || r.Origin[i] > box.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / r.Dir[i]
		t0 := (box.Min[i] - r.Origin[i]) * inv
		t1 := (box.Max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	return math.Max(tMin, 0), true
}

// Nearest returns the index of the node whose bounds the ray enters first,
// or -1 when nothing is hit.
func Nearest(ray Ray, nodes []*scene.Node) int {
	best := -1
	bestDist := math.Inf(1)
	for i, n := range nodes {
		if n == nil {
			continue
		}
		if d, ok := ray.HitAABB(n.Bounds()); ok && d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
