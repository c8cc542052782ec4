package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Limardi/viser/internal/frustum"
)

// buildExhibits assembles the demo scene: a flat wireframe, a tube-style
// wireframe, and a filled frustum carrying a generated image overlay. The
// overlay exhibit goes through the JSON wire form end to end.
func buildExhibits() ([]*exhibit, error) {
	flat := &exhibit{name: "frustum_flat", position: mgl64.Vec3{-3, 0, 0}}
	flatFrustum, err := frustum.New(frustum.Spec{
		FOV:    math.Pi / 3,
		Aspect: 16.0 / 9.0,
		Scale:  1.5,
		Color:  [3]uint8{230, 120, 60},
	}, frustum.WithHover(func() bool { return flat.hovered }))
	if err != nil {
		return nil, fmt.Errorf("flat exhibit: %w", err)
	}
	flat.frustum = flatFrustum

	tube := &exhibit{name: "frustum_tube", position: mgl64.Vec3{0, 0, 0}}
	tubeFrustum, err := frustum.New(frustum.Spec{
		FOV:        math.Pi / 4,
		Aspect:     4.0 / 3.0,
		Scale:      1.2,
		Color:      [3]uint8{80, 200, 120},
		LineStyle:  frustum.LineStyleTube,
		LineRadius: 0.02,
	}, frustum.WithHover(func() bool { return tube.hovered }))
	if err != nil {
		return nil, fmt.Errorf("tube exhibit: %w", err)
	}
	tube.frustum = tubeFrustum

	overlay := &exhibit{name: "frustum_overlay", position: mgl64.Vec3{3, 0, 0}}
	wire, err := overlayWireSpec()
	if err != nil {
		return nil, err
	}
	spec, err := frustum.ParseSpec(wire)
	if err != nil {
		return nil, fmt.Errorf("overlay exhibit: %w", err)
	}
	overlayFrustum, err := frustum.New(spec,
		frustum.WithHover(func() bool { return overlay.hovered }))
	if err != nil {
		return nil, fmt.Errorf("overlay exhibit: %w", err)
	}
	overlay.frustum = overlayFrustum

	return []*exhibit{flat, tube, overlay}, nil
}

// overlayWireSpec marshals the filled exhibit to its wire form so the demo
// exercises the same parse/validate/decode path a remote client would.
func overlayWireSpec() ([]byte, error) {
	img, err := demoImage(192, 108)
	if err != nil {
		return nil, err
	}
	opacity := 0.7
	return json.Marshal(frustum.Spec{
		FOV:         math.Pi / 3,
		Aspect:      16.0 / 9.0,
		Scale:       1.8,
		Color:       [3]uint8{90, 140, 235},
		Variant:     frustum.VariantFilled,
		Opacity:     &opacity,
		ImageFormat: "png",
		ImageData:   img,
	})
}

// demoImage renders a simple two-axis gradient and encodes it as PNG.
func demoImage(w, h int) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(255 * x / w),
				G: uint8(255 * y / h),
				B: 160,
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("demo image: %w", err)
	}
	return buf.Bytes(), nil
}
