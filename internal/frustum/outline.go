package frustum

import "github.com/go-gl/mathgl/mgl64"

// OutlineSegments is the fixed number of segments in the frustum outline:
// four far-plane rectangle edges, four bowtie edges to the apex, and the
// up-direction indicator.
const OutlineSegments = 9

// Up-indicator endpoints in unit coordinates. The terminal endpoint drops
// to the far-plane edge once an image plane is shown so the indicator does
// not float over the image.
const (
	upIndicatorStartY      = -1.2
	upIndicatorEndY        = -0.9
	upIndicatorEndYOverlay = -1.0
)

// outlineUnit holds the first eight segments in unit coordinates; pairs of
// points are consumed two at a time, one pair per segment. +z looks toward
// the far plane, -y is up in the camera convention.
var outlineUnit = [16]mgl64.Vec3{
	// Far-plane rectangle.
	{-1, -1, 1}, {1, -1, 1},
	{1, -1, 1}, {1, 1, 1},
	{1, 1, 1}, {-1, 1, 1},
	{-1, 1, 1}, {-1, -1, 1},
	// Bowtie edges through the apex.
	{-1, -1, 1}, {0, 0, 0},
	{0, 0, 0}, {1, -1, 1},
	{1, 1, 1}, {0, 0, 0},
	{0, 0, 0}, {-1, 1, 1},
}

// OutlinePoints returns the 18 wireframe points (9 segments) for the given
// extents. Both line-rendering strategies consume this layout.
func OutlinePoints(ext Extents, hasOverlay bool) []mgl64.Vec3 {
	points := make([]mgl64.Vec3, 0, 2*OutlineSegments)
	for _, p := range outlineUnit {
		points = append(points, scalePoint(p, ext))
	}

	endY := upIndicatorEndY
	if hasOverlay {
		endY = upIndicatorEndYOverlay
	}
	points = append(points,
		scalePoint(mgl64.Vec3{0, upIndicatorStartY, 1}, ext),
		scalePoint(mgl64.Vec3{0, endY, 1}, ext),
	)
	return points
}

func scalePoint(p mgl64.Vec3, ext Extents) mgl64.Vec3 {
	return mgl64.Vec3{p.X() * ext.X, p.Y() * ext.Y, p.Z() * ext.Z}
}
