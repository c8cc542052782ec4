package overlay

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"
)

// orderedDecoder blocks every decode until released and records the first
// byte of each request so tests can tell completions apart.
type orderedDecoder struct {
	requests chan decodeRequest
}

type decodeRequest struct {
	tag     byte
	release chan struct{}
}

func newOrderedDecoder() *orderedDecoder {
	return &orderedDecoder{requests: make(chan decodeRequest, 8)}
}

func (d *orderedDecoder) Decode(r io.Reader, format string) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	req := decodeRequest{tag: data[0], release: make(chan struct{})}
	d.requests <- req
	<-req.release

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: data[0], A: 255})
	return img, nil
}

func waitTexture(t *testing.T, c *Controller) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Texture() != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("texture never loaded")
}

func TestUpdateClearsSynchronously(t *testing.T) {
	d := newOrderedDecoder()
	c := NewController(d)

	c.Update([]byte{1}, "png")
	req := <-d.requests
	close(req.release)
	waitTexture(t, c)

	c.Update(nil, "")
	if c.Texture() != nil {
		t.Fatal("clear did not take effect immediately")
	}
}

func TestMissingHalfOfPairClears(t *testing.T) {
	c := NewController(newOrderedDecoder())

	c.Update([]byte{1}, "")
	if c.Texture() != nil {
		t.Fatal("bytes without a format produced a texture")
	}
	c.Update(nil, "png")
	if c.Texture() != nil {
		t.Fatal("format without bytes produced a texture")
	}
}

func TestStaleDecodeDiscardedAfterClear(t *testing.T) {
	d := newOrderedDecoder()
	c := NewController(d)

	c.Update([]byte{1}, "png")
	req := <-d.requests

	c.Update(nil, "")
	close(req.release)

	time.Sleep(20 * time.Millisecond)
	if c.Texture() != nil {
		t.Fatal("stale decode repopulated a cleared texture")
	}
}

func TestSlowOldDecodeCannotClobberNewer(t *testing.T) {
	d := newOrderedDecoder()
	c := NewController(d)

	c.Update([]byte{1}, "png")
	oldReq := <-d.requests

	c.Update([]byte{2}, "png")
	newReq := <-d.requests

	// The newer decode completes first; the old one limps in afterwards.
	close(newReq.release)
	waitTexture(t, c)
	close(oldReq.release)
	time.Sleep(20 * time.Millisecond)

	tex := c.Texture()
	if tex == nil {
		t.Fatal("texture missing")
	}
	if got := tex.Image.NRGBAAt(0, 0).R; got != 2 {
		t.Fatalf("texture carries tag %d, want 2 (newer image)", got)
	}
}

func TestDisposeInvalidatesInFlightDecode(t *testing.T) {
	d := newOrderedDecoder()
	c := NewController(d)

	c.Update([]byte{5}, "png")
	req := <-d.requests
	c.Dispose()
	close(req.release)

	time.Sleep(20 * time.Millisecond)
	if c.Texture() != nil {
		t.Fatal("decode completed into a disposed controller")
	}
}

type failingDecoder struct{}

func (failingDecoder) Decode(io.Reader, string) (image.Image, error) {
	return nil, errors.New("corrupt data")
}

func TestDecodeFailureLeavesStateAbsent(t *testing.T) {
	c := NewController(failingDecoder{})
	c.Update([]byte{1, 2, 3}, "png")

	time.Sleep(20 * time.Millisecond)
	if c.Texture() != nil {
		t.Fatal("failed decode produced a texture")
	}
}

func TestImageDecoderRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(2, 1, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	c := NewController(nil)
	c.Update(buf.Bytes(), "png")
	waitTexture(t, c)

	tex := c.Texture()
	if tex.Width() != 3 || tex.Height() != 2 {
		t.Fatalf("texture %dx%d, want 3x2", tex.Width(), tex.Height())
	}
	if got := tex.Image.NRGBAAt(2, 1); got != (color.NRGBA{R: 9, G: 8, B: 7, A: 255}) {
		t.Fatalf("pixel (2,1) = %v", got)
	}
}

// PNG must reach the stdlib codec even with the magicless TGA decoder
// linked in; only the "tga" tag may select it.
func TestImageDecoderSniffsTaggedFormats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	for _, format := range []string{"png", "image/png", ""} {
		img, err := ImageDecoder{}.Decode(bytes.NewReader(buf.Bytes()), format)
		if err != nil {
			t.Fatalf("decode with tag %q: %v", format, err)
		}
		if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
			t.Fatalf("decode with tag %q: bounds %v, want 2x2", format, b)
		}
	}
}

func TestImageDecoderTGAByTag(t *testing.T) {
	// Uncompressed 24-bit true-color TGA, 2x2, top-left origin.
	data := []byte{
		0, 0, 2,
		0, 0, 0, 0, 0,
		0, 0, 0, 0,
		2, 0, 2, 0,
		24, 0x20,
	}
	pixels := [][3]uint8{ // BGR per pixel
		{0, 0, 255}, {0, 255, 0},
		{255, 0, 0}, {0, 0, 0},
	}
	for _, p := range pixels {
		data = append(data, p[0], p[1], p[2])
	}

	img, err := ImageDecoder{}.Decode(bytes.NewReader(data), "tga")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("bounds %v, want 2x2", b)
	}
	got := toNRGBA(img).NRGBAAt(0, 0)
	if got != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("pixel (0,0) = %v, want red", got)
	}
}

func TestImageDecoderRejectsGarbage(t *testing.T) {
	_, err := ImageDecoder{}.Decode(bytes.NewReader([]byte("not an image")), "jpeg")
	if err == nil {
		t.Fatal("garbage bytes decoded without error")
	}
}
