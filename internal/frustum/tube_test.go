package frustum

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestTubeSegmentsOnePerOutlineSegment(t *testing.T) {
	ext, err := ComputeExtents(math.Pi/3, 16.0/9, 0.8)
	if err != nil {
		t.Fatalf("ComputeExtents: %v", err)
	}
	points := OutlinePoints(ext, false)

	segments := BuildTubeSegments(points, 0.02)
	if len(segments) != OutlineSegments {
		t.Fatalf("got %d tube segments, want %d", len(segments), OutlineSegments)
	}

	for i, seg := range segments {
		p0, p1 := points[2*i], points[2*i+1]
		wantLen := p1.Sub(p0).Len()

		// The local cylinder spans the segment length along its axis.
		minY, maxY := math.Inf(1), math.Inf(-1)
		for _, p := range seg.Geometry.Positions {
			minY = math.Min(minY, p.Y())
			maxY = math.Max(maxY, p.Y())
		}
		if got := maxY - minY; math.Abs(got-wantLen) > 1e-12 {
			t.Fatalf("segment %d: cylinder length %v, want %v", i, got, wantLen)
		}

		if got := seg.Position; got != p0.Add(p1).Mul(0.5) {
			t.Fatalf("segment %d: position %v, want midpoint %v", i, got, p0.Add(p1).Mul(0.5))
		}
	}
}

func TestTubeGeometryShape(t *testing.T) {
	geom := cylinderGeometry(0.01, 2, tubeFacets)
	if got, want := len(geom.Positions), 2*tubeFacets; got != want {
		t.Fatalf("got %d vertices, want %d", got, want)
	}
	if got, want := geom.TriangleCount(), 2*tubeFacets; got != want {
		t.Fatalf("got %d triangles, want %d", got, want)
	}
	for i, n := range geom.Normals {
		if math.Abs(n.Len()-1) > 1e-12 {
			t.Fatalf("normal %d not unit length: %v", i, n)
		}
		if n.Y() != 0 {
			t.Fatalf("normal %d has axial component: %v", i, n)
		}
	}
}

func TestTubeRotationAlignsAxisWithSegment(t *testing.T) {
	points := []mgl64.Vec3{
		{0, 0, 0}, {3, 0, 0},
		{1, 1, 1}, {1, 1, -4},
		{0, 0, 0}, {0, 5, 0}, // already along +Y
	}
	segments := BuildTubeSegments(points, 0.1)

	for i, seg := range segments {
		p0, p1 := points[2*i], points[2*i+1]
		dir := p1.Sub(p0).Normalize()
		got := seg.Rotation.Rotate(mgl64.Vec3{0, 1, 0})
		if got.Sub(dir).Len() > 1e-9 {
			t.Fatalf("segment %d: rotated axis %v, want %v", i, got, dir)
		}
	}
}

func TestShortestArc(t *testing.T) {
	cases := []struct {
		name     string
		from, to mgl64.Vec3
	}{
		{"quarter turn", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}},
		{"arbitrary", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0.6, 0, 0.8}},
		{"parallel", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}},
		{"antiparallel", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}},
		{"antiparallel x", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 0, 0}},
		{"near antiparallel", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1e-12, -1, 0}.Normalize()},
	}
	for _, tc := range cases {
		q := ShortestArc(tc.from, tc.to)
		got := q.Rotate(tc.from)
		if got.Sub(tc.to).Len() > 1e-6 {
			t.Fatalf("%s: rotated %v to %v, want %v", tc.name, tc.from, got, tc.to)
		}
	}
}

func BenchmarkBuildTubeSegments(b *testing.B) {
	ext, err := ComputeExtents(math.Pi/3, 16.0/9, 1)
	if err != nil {
		b.Fatalf("ComputeExtents: %v", err)
	}
	points := OutlinePoints(ext, true)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildTubeSegments(points, 0.01)
	}
}
