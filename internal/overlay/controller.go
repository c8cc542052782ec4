// Package overlay manages the asynchronous lifecycle of a frustum's image
// texture: raw bytes go in, a renderer-ready texture comes out once the
// decode finishes, and superseded decodes are discarded.
package overlay

import (
	"bytes"
	"log"
	"sync"

	"github.com/Limardi/viser/internal/scene"
)

// Controller owns the texture state for one frustum. Update is the only
// writer of the generation counter; the decode goroutine publishes its
// result only if no later Update has run, so a slow old decode can never
// clobber a newer texture.
type Controller struct {
	decoder Decoder

	mu  sync.Mutex
	gen uint64
	tex *scene.Texture
}

// NewController returns a controller using the given decoder, or the
// default image decoder when nil.
func NewController(decoder Decoder) *Controller {
	if decoder == nil {
		decoder = ImageDecoder{}
	}
	return &Controller{decoder: decoder}
}

// Update replaces the image source. If either half of the pair is missing
// the texture state clears synchronously; otherwise a decode starts in the
// background and the current texture stays visible until it completes.
func (c *Controller) Update(data []byte, format string) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if len(data) == 0 || format == "" {
		c.tex = nil
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// The scratch copy is the transient decode handle: acquired here,
	// released exactly once after the decode returns.
	scratch := acquireScratch(data)
	go c.decode(gen, scratch, format)
}

func (c *Controller) decode(gen uint64, scratch *scratchBuffer, format string) {
	img, err := c.decoder.Decode(bytes.NewReader(scratch.bytes()), format)
	scratch.release()
	if err != nil {
		// A frustum with a broken image still renders its outline.
		log.Printf("overlay: %v", err)
		return
	}

	tex := &scene.Texture{Image: toNRGBA(img)}

	c.mu.Lock()
	if gen == c.gen {
		c.tex = tex
	}
	c.mu.Unlock()
}

// Texture returns the currently displayable texture, or nil while absent or
// still decoding.
func (c *Controller) Texture() *scene.Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tex
}

// Dispose clears the texture and invalidates any in-flight decode.
func (c *Controller) Dispose() {
	c.mu.Lock()
	c.gen++
	c.tex = nil
	c.mu.Unlock()
}
