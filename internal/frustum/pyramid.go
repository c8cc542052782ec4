package frustum

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Limardi/viser/internal/scene"
)

// FilledGeometry builds the filled frustum pyramid: the apex at the origin
// plus the four far-plane corners, four side faces, and two faces closing
// the far-plane quad. Normals are averaged per vertex from the adjacent
// triangles.
func FilledGeometry(ext Extents) *scene.Geometry {
	x, y, z := ext.X, ext.Y, ext.Z

	positions := []mgl64.Vec3{
		{0, 0, 0},
		{-x, -y, z},
		{x, -y, z},
		{x, y, z},
		{-x, y, z},
	}
	indices := []uint32{
		0, 1, 2,
		0, 2, 3,
		0, 3, 4,
		0, 4, 1,
		1, 4, 3,
		1, 3, 2,
	}

	return &scene.Geometry{
		Positions: positions,
		Normals:   averagedNormals(positions, indices),
		Indices:   indices,
	}
}

// averagedNormals accumulates area-weighted face normals on each vertex and
// normalizes the result.
func averagedNormals(positions []mgl64.Vec3, indices []uint32) []mgl64.Vec3 {
	normals := make([]mgl64.Vec3, len(positions))
	for t := 0; t+2 < len(indices); t += 3 {
		ia, ib, ic := indices[t], indices[t+1], indices[t+2]
		a, b, c := positions[ia], positions[ib], positions[ic]
		face := b.Sub(a).Cross(c.Sub(a))

		normals[ia] = normals[ia].Add(face)
		normals[ib] = normals[ib].Add(face)
		normals[ic] = normals[ic].Add(face)
	}
	for i := range normals {
		if l := normals[i].Len(); l > 0 {
			normals[i] = normals[i].Mul(1 / l)
		}
	}
	return normals
}
