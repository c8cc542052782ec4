package frustum

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Limardi/viser/internal/config"
	"github.com/Limardi/viser/internal/overlay"
	"github.com/Limardi/viser/internal/profiling"
	"github.com/Limardi/viser/internal/scene"
)

// imagePlaneDepthInset pulls the image plane slightly in front of the far
// plane so it never z-fights the wireframe or the filled faces.
const imagePlaneDepthInset = 1e-4

// Frustum emits the scene subtree for one camera frustum. Geometry is
// cached and recomputed only when its inputs change; hover state is sampled
// once per Render and affects color selection only.
type Frustum struct {
	spec    Spec
	hover   func() bool
	decoder overlay.Decoder
	overlay *overlay.Controller

	extents    Extents
	extentsKey [3]float64
	hasExtents bool

	outline        []mgl64.Vec3
	outlineOverlay bool

	tubes      []TubeSegment
	tubeRadius float64

	filled *scene.Geometry
	plane  *scene.Geometry
}

var _ scene.Producer = (*Frustum)(nil)

// Option configures a Frustum at construction time.
type Option func(*Frustum)

// WithHover injects the hover accessor. The controller polls it once per
// rendered frame instead of subscribing to hover events.
func WithHover(fn func() bool) Option {
	return func(f *Frustum) { f.hover = fn }
}

// WithDecoder overrides the image decoder used for the overlay texture.
func WithDecoder(d overlay.Decoder) Option {
	return func(f *Frustum) { f.decoder = d }
}

// New validates the spec and, when an image is attached, kicks off its
// decode in the background.
func New(spec Spec, opts ...Option) (*Frustum, error) {
	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	f := &Frustum{
		spec:  spec,
		hover: func() bool { return false },
	}
	for _, opt := range opts {
		opt(f)
	}
	f.overlay = overlay.NewController(f.decoder)
	f.updateOverlay()
	return f, nil
}

// Spec returns the current specification.
func (f *Frustum) Spec() Spec { return f.spec }

// SetSpec swaps the specification. The overlay decode restarts only when
// the image inputs actually changed; geometry caches invalidate lazily on
// the next Render.
func (f *Frustum) SetSpec(spec Spec) error {
	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return err
	}

	imageChanged := spec.ImageFormat != f.spec.ImageFormat ||
		!bytes.Equal(spec.ImageData, f.spec.ImageData)
	f.spec = spec
	if imageChanged {
		f.updateOverlay()
	}
	return nil
}

func (f *Frustum) updateOverlay() {
	if f.spec.HasImage() {
		f.overlay.Update(f.spec.ImageData, f.spec.ImageFormat)
	} else {
		f.overlay.Update(nil, "")
	}
}

// Render emits the frustum subtree for this frame.
func (f *Frustum) Render(ctx scene.RenderContext) *scene.Node {
	defer profiling.Track("frustum.Render")()

	tex := f.overlay.Texture()
	f.refreshGeometry(tex != nil)

	hovered := f.hover()
	color := f.spec.Color
	if hovered {
		color = config.GetHighlightColor()
	}
	lineOpacity := f.spec.ResolvedLineOpacity()

	root := scene.NewNode("camera_frustum")

	if f.spec.LineStyle == LineStyleTube {
		root.Add(f.tubeNodes(color, lineOpacity))
	} else {
		width := f.spec.LineWidth
		if hovered {
			width *= config.GetHoverWidthFactor()
		}
		lines := scene.NewNode("outline")
		lines.Lines = &scene.LineSegments{
			Points:      f.outline,
			Color:       color,
			Width:       width,
			Opacity:     lineOpacity,
			Transparent: lineOpacity < 1,
		}
		root.Add(lines)
	}

	if f.spec.Variant == VariantFilled {
		opacity := f.spec.OverlayOpacity()
		filled := scene.NewNode("filled")
		filled.Mesh = &scene.Mesh{
			Geometry: f.filled,
			// Double-sided with depth writes off so overlapping translucent
			// frustums composite without draw-order artifacts.
			Material: scene.Material{
				Color:       color,
				Opacity:     opacity,
				Transparent: opacity < 1,
				DoubleSided: true,
				DepthWrite:  false,
			},
		}
		filled.CastShadow = f.spec.CastShadow
		filled.ReceiveShadow = f.spec.ReceiveShadow
		root.Add(filled)
	}

	if tex != nil {
		root.Add(f.imageNode(tex))
	}
	return root
}

func (f *Frustum) tubeNodes(color [3]uint8, opacity float64) *scene.Node {
	group := scene.NewNode("outline_tubes")
	for i, seg := range f.tubes {
		node := scene.NewNode(fmt.Sprintf("tube_%d", i))
		node.Position = seg.Position
		node.Rotation = seg.Rotation
		node.Mesh = &scene.Mesh{
			Geometry: seg.Geometry,
			Material: scene.Material{
				Color:       color,
				Opacity:     opacity,
				Transparent: opacity < 1,
				DepthWrite:  true,
			},
		}
		node.CastShadow = f.spec.CastShadow
		node.ReceiveShadow = f.spec.ReceiveShadow
		group.Add(node)
	}
	return group
}

func (f *Frustum) imageNode(tex *scene.Texture) *scene.Node {
	opacity := f.spec.OverlayOpacity()
	node := scene.NewNode("image")
	node.Position = mgl64.Vec3{0, 0, f.extents.Z * (1 - imagePlaneDepthInset)}
	// Half-turn about the horizontal axis keeps the image upright under the
	// frustum's -y-up convention.
	node.Rotation = mgl64.QuatRotate(math.Pi, mgl64.Vec3{1, 0, 0})
	node.Mesh = &scene.Mesh{
		Geometry: f.plane,
		Material: scene.Material{
			Color:       [3]uint8{255, 255, 255},
			Opacity:     opacity,
			Transparent: opacity < 1,
			DoubleSided: true,
			DepthWrite:  true,
			Texture:     tex,
		},
	}
	node.CastShadow = f.spec.CastShadow
	node.ReceiveShadow = f.spec.ReceiveShadow
	return node
}

// refreshGeometry recomputes exactly the cached geometry whose dependency
// key changed since the last frame.
func (f *Frustum) refreshGeometry(hasOverlay bool) {
	key := [3]float64{f.spec.FOV, f.spec.Aspect, f.spec.Scale}
	extentsChanged := !f.hasExtents || key != f.extentsKey
	if extentsChanged {
		// The spec was validated on the way in, so this cannot fail.
		ext, err := ComputeExtents(f.spec.FOV, f.spec.Aspect, f.spec.Scale)
		if err != nil {
			panic(err)
		}
		f.extents = ext
		f.extentsKey = key
		f.hasExtents = true
	}

	outlineChanged := extentsChanged || f.outline == nil || hasOverlay != f.outlineOverlay
	if outlineChanged {
		f.outline = OutlinePoints(f.extents, hasOverlay)
		f.outlineOverlay = hasOverlay
	}

	if f.spec.LineStyle == LineStyleTube &&
		(outlineChanged || f.tubes == nil || f.spec.LineRadius != f.tubeRadius) {
		f.tubes = BuildTubeSegments(f.outline, f.spec.LineRadius)
		f.tubeRadius = f.spec.LineRadius
	}

	if f.spec.Variant == VariantFilled && (extentsChanged || f.filled == nil) {
		f.filled = FilledGeometry(f.extents)
	}

	if extentsChanged || f.plane == nil {
		f.plane = imagePlaneGeometry(f.extents, f.spec.Aspect)
	}
}

// imagePlaneGeometry builds the textured quad sized to the far plane:
// full dimensions (aspect*y*2, y*2), facing +z before the node's half-turn.
func imagePlaneGeometry(ext Extents, aspect float64) *scene.Geometry {
	w := aspect * ext.Y
	h := ext.Y
	return &scene.Geometry{
		Positions: []mgl64.Vec3{
			{-w, -h, 0}, {w, -h, 0}, {w, h, 0}, {-w, h, 0},
		},
		Normals: []mgl64.Vec3{
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		},
		UVs: []mgl64.Vec2{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Dispose clears overlay state and invalidates any in-flight decode.
func (f *Frustum) Dispose() {
	f.overlay.Dispose()
}
