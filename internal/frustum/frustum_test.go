package frustum

import (
	"image"
	"io"
	"math"
	"testing"
	"time"

	"github.com/Limardi/viser/internal/config"
	"github.com/Limardi/viser/internal/scene"
)

// fakeDecoder returns a fixed 4x2 image. When gate is non-nil each decode
// blocks until one value is received, letting tests order completions.
type fakeDecoder struct {
	gate chan struct{}
}

func (d fakeDecoder) Decode(r io.Reader, format string) (image.Image, error) {
	if d.gate != nil {
		<-d.gate
	}
	return image.NewNRGBA(image.Rect(0, 0, 4, 2)), nil
}

func findNode(root *scene.Node, name string) *scene.Node {
	var found *scene.Node
	root.Walk(func(n *scene.Node) bool {
		if n.Name == name {
			found = n
		}
		return found == nil
	})
	return found
}

func render(f *Frustum) *scene.Node {
	return f.Render(scene.RenderContext{})
}

// waitForImage renders until the image plane appears or the deadline hits.
func waitForImage(t *testing.T, f *Frustum) *scene.Node {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n := findNode(render(f), "image"); n != nil {
			return n
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("image plane never appeared")
	return nil
}

func baseSpec() Spec {
	s := Spec{
		FOV:    math.Pi / 2,
		Aspect: 1,
		Scale:  1,
		Color:  [3]uint8{255, 0, 0},
	}
	s.ApplyDefaults()
	return s
}

func TestRenderWireframeFlat(t *testing.T) {
	f, err := New(baseSpec())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	root := render(f)

	outline := findNode(root, "outline")
	if outline == nil || outline.Lines == nil {
		t.Fatal("no flat outline emitted")
	}
	if got := len(outline.Lines.Points); got != 18 {
		t.Fatalf("outline has %d points, want 18", got)
	}
	if got := outline.Lines.SegmentCount(); got != 9 {
		t.Fatalf("outline has %d segments, want 9", got)
	}
	if findNode(root, "filled") != nil {
		t.Fatal("wireframe variant emitted a filled mesh")
	}
	if findNode(root, "image") != nil {
		t.Fatal("imageless spec emitted an image plane")
	}
}

func TestRenderFilledWithoutImage(t *testing.T) {
	spec := baseSpec()
	spec.Variant = VariantFilled

	f, err := New(spec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	root := render(f)

	filled := findNode(root, "filled")
	if filled == nil || filled.Mesh == nil {
		t.Fatal("filled variant emitted no filled mesh")
	}
	geom := filled.Mesh.Geometry
	if len(geom.Positions) != 5 || geom.TriangleCount() != 6 {
		t.Fatalf("filled mesh: %d vertices / %d triangles, want 5 / 6",
			len(geom.Positions), geom.TriangleCount())
	}
	mat := filled.Mesh.Material
	if !mat.DoubleSided || mat.DepthWrite {
		t.Fatalf("filled material %+v, want double-sided with depth writes off", mat)
	}
	if findNode(root, "image") != nil {
		t.Fatal("imageless spec emitted an image plane")
	}
}

func TestRenderImagePlane(t *testing.T) {
	spec := baseSpec()
	spec.Aspect = 1.5
	spec.ImageFormat = "png"
	spec.ImageData = []byte{1, 2, 3}

	f, err := New(spec, WithDecoder(fakeDecoder{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	img := waitForImage(t, f)

	ext, _ := ComputeExtents(spec.FOV, spec.Aspect, spec.Scale)
	geom := img.Mesh.Geometry
	var width, height float64
	for _, p := range geom.Positions {
		width = math.Max(width, 2*math.Abs(p.X()))
		height = math.Max(height, 2*math.Abs(p.Y()))
	}
	if math.Abs(width-spec.Aspect*ext.Y*2) > 1e-12 {
		t.Fatalf("image plane width %v, want %v", width, spec.Aspect*ext.Y*2)
	}
	if math.Abs(height-ext.Y*2) > 1e-12 {
		t.Fatalf("image plane height %v, want %v", height, ext.Y*2)
	}
	if got := img.Position.Z(); got >= ext.Z || got < ext.Z*0.99 {
		t.Fatalf("image plane depth %v, want slightly inside %v", got, ext.Z)
	}

	// The up indicator drops onto the far-plane edge once the image shows.
	outline := findNode(render(f), "outline")
	last := outline.Lines.Points[len(outline.Lines.Points)-1]
	if got, want := last.Y(), -1.0*ext.Y; math.Abs(got-want) > 1e-12 {
		t.Fatalf("indicator end y=%v, want %v", got, want)
	}
}

func TestRenderBeforeDecodeCompletes(t *testing.T) {
	spec := baseSpec()
	spec.ImageFormat = "png"
	spec.ImageData = []byte{1}

	gate := make(chan struct{})
	f, err := New(spec, WithDecoder(fakeDecoder{gate: gate}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	// Frames keep rendering without the texture while the decode pends.
	root := render(f)
	if findNode(root, "image") != nil {
		t.Fatal("image plane appeared before decode finished")
	}
	ext, _ := ComputeExtents(spec.FOV, spec.Aspect, spec.Scale)
	outline := findNode(root, "outline")
	last := outline.Lines.Points[len(outline.Lines.Points)-1]
	if got, want := last.Y(), -0.9*ext.Y; math.Abs(got-want) > 1e-12 {
		t.Fatalf("indicator end y=%v, want %v while texture absent", got, want)
	}

	gate <- struct{}{}
	waitForImage(t, f)
}

func TestStaleDecodeDoesNotRepopulate(t *testing.T) {
	spec := baseSpec()
	spec.ImageFormat = "png"
	spec.ImageData = []byte{1}

	gate := make(chan struct{})
	f, err := New(spec, WithDecoder(fakeDecoder{gate: gate}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	// Clear the image while its decode is still in flight.
	cleared := baseSpec()
	if err := f.SetSpec(cleared); err != nil {
		t.Fatalf("SetSpec: %v", err)
	}

	gate <- struct{}{}
	time.Sleep(20 * time.Millisecond)

	if findNode(render(f), "image") != nil {
		t.Fatal("stale decode repopulated the texture")
	}
}

func TestHoverAffectsColorNotGeometry(t *testing.T) {
	hovered := false
	spec := baseSpec()
	spec.Variant = VariantFilled

	f, err := New(spec, WithHover(func() bool { return hovered }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	plain := render(f)
	hovered = true
	hot := render(f)

	plainOutline, hotOutline := findNode(plain, "outline"), findNode(hot, "outline")
	if hotOutline.Lines.Color != config.GetHighlightColor() {
		t.Fatalf("hovered color %v, want highlight %v",
			hotOutline.Lines.Color, config.GetHighlightColor())
	}
	if plainOutline.Lines.Color != spec.Color {
		t.Fatalf("base color %v, want %v", plainOutline.Lines.Color, spec.Color)
	}
	if got, want := hotOutline.Lines.Width, spec.LineWidth*config.GetHoverWidthFactor(); got != want {
		t.Fatalf("hovered width %v, want %v", got, want)
	}

	plainFilled, hotFilled := findNode(plain, "filled"), findNode(hot, "filled")
	if hotFilled.Mesh.Material.Color != config.GetHighlightColor() {
		t.Fatalf("hovered filled color %v, want highlight", hotFilled.Mesh.Material.Color)
	}
	// Geometry must be untouched: same cached instance, same points.
	if plainFilled.Mesh.Geometry != hotFilled.Mesh.Geometry {
		t.Fatal("hover rebuilt the filled geometry")
	}
	for i := range plainOutline.Lines.Points {
		if plainOutline.Lines.Points[i] != hotOutline.Lines.Points[i] {
			t.Fatalf("hover moved outline point %d", i)
		}
	}
}

func TestRenderTubeStyle(t *testing.T) {
	spec := baseSpec()
	spec.LineStyle = LineStyleTube
	spec.LineRadius = 0.02

	f, err := New(spec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	root := render(f)
	group := findNode(root, "outline_tubes")
	if group == nil {
		t.Fatal("no tube group emitted")
	}
	if got := len(group.Children); got != 9 {
		t.Fatalf("got %d tube meshes, want 9", got)
	}
	for i, child := range group.Children {
		if child.Mesh == nil {
			t.Fatalf("tube %d has no mesh", i)
		}
	}
	if findNode(root, "outline") != nil {
		t.Fatal("tube style also emitted a flat outline")
	}

	// Unchanged spec: cached tube geometry is reused across frames.
	again := findNode(render(f), "outline_tubes")
	for i := range group.Children {
		if group.Children[i].Mesh.Geometry != again.Children[i].Mesh.Geometry {
			t.Fatalf("tube %d geometry rebuilt without an input change", i)
		}
	}
}

func TestGeometryRecomputesOnlyOnChange(t *testing.T) {
	spec := baseSpec()
	spec.Variant = VariantFilled

	f, err := New(spec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	first := findNode(render(f), "filled").Mesh.Geometry
	second := findNode(render(f), "filled").Mesh.Geometry
	if first != second {
		t.Fatal("filled geometry rebuilt without an input change")
	}

	spec.Scale = 2
	if err := f.SetSpec(spec); err != nil {
		t.Fatalf("SetSpec: %v", err)
	}
	third := findNode(render(f), "filled").Mesh.Geometry
	if third == first {
		t.Fatal("scale change did not rebuild the filled geometry")
	}
}

func TestSetSpecKeepsTextureAcrossGeometryChanges(t *testing.T) {
	spec := baseSpec()
	spec.ImageFormat = "png"
	spec.ImageData = []byte{7}

	f, err := New(spec, WithDecoder(fakeDecoder{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Dispose()

	waitForImage(t, f)

	// A pure geometry change must not restart or drop the overlay.
	spec.Scale = 3
	if err := f.SetSpec(spec); err != nil {
		t.Fatalf("SetSpec: %v", err)
	}
	if findNode(render(f), "image") == nil {
		t.Fatal("geometry change dropped the loaded texture")
	}

	// Clearing the image removes the plane synchronously.
	spec.ImageData = nil
	spec.ImageFormat = ""
	if err := f.SetSpec(spec); err != nil {
		t.Fatalf("SetSpec: %v", err)
	}
	if findNode(render(f), "image") != nil {
		t.Fatal("cleared image still renders")
	}
}
