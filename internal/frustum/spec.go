package frustum

import (
	"encoding/json"
	"fmt"
)

// Variant selects between the bare wireframe and the filled pyramid.
type Variant string

// LineStyle selects how outline segments are rendered.
type LineStyle string

const (
	VariantWireframe Variant = "wireframe"
	VariantFilled    Variant = "filled"

	LineStyleFlat LineStyle = "flat"
	LineStyleTube LineStyle = "tube"
)

// Presentation defaults applied when the wire form omits a field.
const (
	DefaultLineWidth  = 2.0
	DefaultLineRadius = 0.01
)

// Spec describes one camera frustum. Field tags match the wire form of the
// message boundary; ImageData arrives base64-encoded in JSON.
type Spec struct {
	FOV    float64  `json:"fov"` // radians
	Aspect float64  `json:"aspect"`
	Scale  float64  `json:"scale"`
	Color  [3]uint8 `json:"color"`

	Variant     Variant   `json:"variant"`
	LineWidth   float64   `json:"line_width"`
	LineOpacity *float64  `json:"line_opacity,omitempty"`
	LineStyle   LineStyle `json:"line_style"`
	LineRadius  float64   `json:"line_radius"` // used only by the tube style

	Opacity     *float64 `json:"opacity,omitempty"` // image and filled faces
	ImageFormat string   `json:"image_format,omitempty"`
	ImageData   []byte   `json:"image_data,omitempty"`

	CastShadow    bool `json:"cast_shadow"`
	ReceiveShadow bool `json:"receive_shadow"`
}

// ParseSpec decodes the wire form, fills presentation defaults, and
// validates the result.
func ParseSpec(data []byte) (Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return Spec{}, fmt.Errorf("frustum: unmarshal spec: %w", err)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// ApplyDefaults fills zero-valued presentation fields. Camera parameters
// are never defaulted; a zero fov/aspect/scale fails validation instead.
func (s *Spec) ApplyDefaults() {
	if s.Variant == "" {
		s.Variant = VariantWireframe
	}
	if s.LineStyle == "" {
		s.LineStyle = LineStyleFlat
	}
	if s.LineWidth == 0 {
		s.LineWidth = DefaultLineWidth
	}
	if s.LineRadius == 0 {
		s.LineRadius = DefaultLineRadius
	}
}

// Validate rejects degenerate camera parameters, unknown enum values, and
// out-of-range opacities.
func (s Spec) Validate() error {
	if _, err := ComputeExtents(s.FOV, s.Aspect, s.Scale); err != nil {
		return err
	}
	switch s.Variant {
	case VariantWireframe, VariantFilled:
	default:
		return fmt.Errorf("frustum: unknown variant %q", s.Variant)
	}
	switch s.LineStyle {
	case LineStyleFlat, LineStyleTube:
	default:
		return fmt.Errorf("frustum: unknown line style %q", s.LineStyle)
	}
	if s.LineStyle == LineStyleTube && s.LineRadius <= 0 {
		return fmt.Errorf("frustum: line radius %v must be positive", s.LineRadius)
	}
	if s.Opacity != nil && (*s.Opacity < 0 || *s.Opacity > 1) {
		return fmt.Errorf("frustum: opacity %v outside [0, 1]", *s.Opacity)
	}
	if s.LineOpacity != nil && (*s.LineOpacity < 0 || *s.LineOpacity > 1) {
		return fmt.Errorf("frustum: line opacity %v outside [0, 1]", *s.LineOpacity)
	}
	return nil
}

// OverlayOpacity resolves the image/filled-face opacity, defaulting to 1.
func (s Spec) OverlayOpacity() float64 {
	if s.Opacity != nil {
		return *s.Opacity
	}
	return 1
}

// ResolvedLineOpacity resolves the segment opacity; when unset it follows
// the overlay opacity.
func (s Spec) ResolvedLineOpacity() float64 {
	if s.LineOpacity != nil {
		return *s.LineOpacity
	}
	return s.OverlayOpacity()
}

// HasImage reports whether both halves of the image pair are present. A
// lone format tag or a lone byte blob counts as no overlay.
func (s Spec) HasImage() bool {
	return len(s.ImageData) > 0 && s.ImageFormat != ""
}
