// Package frustum builds the scene-graph representation of a camera's
// viewing frustum: a wireframe or filled pyramid sized from the camera's
// field of view, aspect ratio and a scale factor, optionally textured with
// a captured image and recolored while hovered.
package frustum

import (
	"fmt"
	"math"
)

// Extents are the half-extents of the frustum along each axis: x/y span the
// far-plane rectangle, z is the apex-to-far-plane depth.
type Extents struct {
	X, Y, Z float64
}

// ComputeExtents derives the frustum half-extents from camera parameters.
// The raw tan-based extents are divided by the cube root of their pyramid
// volume, so frustums with different fields of view enclose the same volume
// and only scale changes the absolute size.
//
// fov must lie in (0, pi) and aspect and scale must be positive; degenerate
// values would drive the volume normalizer to zero and blow the division up
// into non-finite extents, so they are rejected here instead.
func ComputeExtents(fov, aspect, scale float64) (Extents, error) {
	if !(fov > 0) || fov >= math.Pi {
		return Extents{}, fmt.Errorf("frustum: fov %v outside (0, pi)", fov)
	}
	if !(aspect > 0) || math.IsInf(aspect, 1) {
		return Extents{}, fmt.Errorf("frustum: aspect %v must be positive and finite", aspect)
	}
	if !(scale > 0) || math.IsInf(scale, 1) {
		return Extents{}, fmt.Errorf("frustum: scale %v must be positive and finite", scale)
	}

	y := math.Tan(fov / 2)
	x := y * aspect
	z := 1.0

	volumeScale := math.Cbrt(x * y * z / 3)
	return Extents{
		X: x / volumeScale * scale,
		Y: y / volumeScale * scale,
		Z: z / volumeScale * scale,
	}, nil
}
