package frustum

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Limardi/viser/internal/scene"
)

// tubeFacets is the radial resolution of a tube segment. Eight faces read
// as a round pipe at wireframe line radii without bloating vertex counts.
const tubeFacets = 8

// TubeSegment is one outline segment rendered as an open cylinder. The
// geometry is built in local space with the cylinder axis along +Y; the
// transform places it along the segment.
type TubeSegment struct {
	Geometry *scene.Geometry
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// BuildTubeSegments converts outline points (pairs consumed two at a time)
// into one tube per segment. Results depend only on the points and radius,
// so callers cache them until the outline changes.
func BuildTubeSegments(points []mgl64.Vec3, radius float64) []TubeSegment {
	segments := make([]TubeSegment, 0, len(points)/2)
	for i := 0; i+1 < len(points); i += 2 {
		p0, p1 := points[i], points[i+1]
		dir := p1.Sub(p0)
		length := dir.Len()

		seg := TubeSegment{
			Geometry: cylinderGeometry(radius, length, tubeFacets),
			Position: p0.Add(p1).Mul(0.5),
			Rotation: mgl64.QuatIdent(),
		}
		if length > 0 {
			seg.Rotation = ShortestArc(mgl64.Vec3{0, 1, 0}, dir.Mul(1/length))
		}
		segments = append(segments, seg)
	}
	return segments
}

// ShortestArc returns the unique minimal-angle rotation taking unit vector
// from onto unit vector to. Near-parallel vectors yield the identity and
// near-antiparallel vectors rotate pi about an arbitrary orthogonal axis;
// anything in between uses axis = from x to, angle = acos(from . to). An
// ambiguous choice near the antiparallel pole shows up as visible twisting
// on tube segments, hence the explicit special cases.
func ShortestArc(from, to mgl64.Vec3) mgl64.Quat {
	const eps = 1e-9

	c := mgl64.Clamp(from.Dot(to), -1, 1)
	switch {
	case c >= 1-eps:
		return mgl64.QuatIdent()
	case c <= -1+eps:
		return mgl64.QuatRotate(math.Pi, orthogonalTo(from))
	}
	axis := from.Cross(to).Normalize()
	return mgl64.QuatRotate(math.Acos(c), axis)
}

// orthogonalTo picks a unit vector orthogonal to v, crossing against
// whichever canonical axis is least aligned with it.
func orthogonalTo(v mgl64.Vec3) mgl64.Vec3 {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(v.X()) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	return v.Cross(ref).Normalize()
}

// cylinderGeometry builds an open cylinder along +Y centered at the origin:
// two rings of facet vertices with radial normals, two triangles per facet.
func cylinderGeometry(radius, length float64, facets int) *scene.Geometry {
	positions := make([]mgl64.Vec3, 0, 2*facets)
	normals := make([]mgl64.Vec3, 0, 2*facets)
	indices := make([]uint32, 0, 6*facets)

	half := length / 2
	for i := 0; i < facets; i++ {
		angle := 2 * math.Pi * float64(i) / float64(facets)
		nx, nz := math.Cos(angle), math.Sin(angle)

		positions = append(positions,
			mgl64.Vec3{radius * nx, -half, radius * nz},
			mgl64.Vec3{radius * nx, half, radius * nz},
		)
		normal := mgl64.Vec3{nx, 0, nz}
		normals = append(normals, normal, normal)
	}
	for i := 0; i < facets; i++ {
		j := (i + 1) % facets
		b0, t0 := uint32(2*i), uint32(2*i+1)
		b1, t1 := uint32(2*j), uint32(2*j+1)
		indices = append(indices,
			b0, b1, t1,
			b0, t1, t0,
		)
	}

	return &scene.Geometry{Positions: positions, Normals: normals, Indices: indices}
}
