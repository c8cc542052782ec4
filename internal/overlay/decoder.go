package overlay

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns a raw byte stream plus a format tag into an image.
// Implementations must be safe for concurrent use; the controller calls
// Decode from its own goroutine.
type Decoder interface {
	Decode(r io.Reader, format string) (image.Image, error)
}

// ImageDecoder decodes whatever blob arrives through the codecs registered
// above. TGA headers carry no magic bytes and cannot be sniffed, so that
// format dispatches on the tag; every other format is sniffed and the tag
// is only carried into error messages.
type ImageDecoder struct{}

func (ImageDecoder) Decode(r io.Reader, format string) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	if format == "tga" {
		img, err = tga.Decode(r)
	} else {
		img, _, err = image.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", format, err)
	}
	return img, nil
}

// toNRGBA converts any decoded image to NRGBA so backends can upload the
// pixel data directly.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
