package graphics

import (
	"fmt"
	"image"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// UploadTexture pushes an NRGBA image to the GPU and returns the texture id.
// Overlay images arrive at arbitrary sizes, so filtering is linear and
// wrapping clamps to the edge.
func UploadTexture(img *image.NRGBA) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	bounds := img.Bounds()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(bounds.Dx()), int32(bounds.Dy()),
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

// CaptureFrame reads back the current framebuffer and encodes it as WebP.
func CaptureFrame(w io.Writer, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("capture: bad viewport %dx%d", width, height)
	}

	pix := make([]uint8, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))

	// GL rows start at the bottom, image rows at the top.
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	stride := width * 4
	for y := 0; y < height; y++ {
		src := pix[(height-1-y)*stride : (height-y)*stride]
		copy(img.Pix[y*img.Stride:y*img.Stride+stride], src)
	}

	return nativewebp.Encode(w, img, nil)
}
