package overlay

import "sync"

// Scratch buffers isolate the decoder from the caller's byte slice, which
// may be reused or mutated while a decode is still in flight. Buffers are
// pooled across image updates and must be released exactly once.

var scratchPool = sync.Pool{
	New: func() any { return new(scratchBuffer) },
}

type scratchBuffer struct {
	buf      []byte
	released bool
}

func acquireScratch(data []byte) *scratchBuffer {
	s := scratchPool.Get().(*scratchBuffer)
	s.buf = append(s.buf[:0], data...)
	s.released = false
	return s
}

func (s *scratchBuffer) bytes() []byte { return s.buf }

// release returns the buffer to the pool. Releasing twice is a no-op so the
// success and failure paths can share one call site each.
func (s *scratchBuffer) release() {
	if s.released {
		return
	}
	s.released = true
	scratchPool.Put(s)
}
