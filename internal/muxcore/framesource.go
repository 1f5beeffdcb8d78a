package muxcore

// ReadResult is returned by FramesSource.Read on a successful, non-suspended
// read.
type ReadResult struct {
	Buf       []byte
	FrameDone bool
}

// FramesSource is the abstract reader over one frame's payload. The muxer
// never inspects which implementation it's holding — only StartFrame and
// Read are called, and Read may suspend by returning ErrAgain.
type FramesSource interface {
	// StartFrame prepares to read frame. minOffsetHint is the smallest
	// frame.Offset across every other stream currently reading from the
	// same source clip, passed through so a cache-backed implementation
	// can coalesce adjacent reads.
	StartFrame(frame InputFrame, minOffsetHint int64) error

	// Read returns the next chunk of the frame started by StartFrame.
	// Returns ErrAgain if the backing I/O isn't ready; the caller must
	// suspend the segment-produce loop and call Read again later.
	Read() (ReadResult, error)
}

// MemorySource is a FramesSource backed by a single in-memory buffer
// holding every frame of a track contiguously, addressed by InputFrame.Offset.
type MemorySource struct {
	data    []byte
	current InputFrame
}

// NewMemorySource wraps data, the full byte buffer a track's frames are
// sliced out of by Offset/Size.
func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

func (m *MemorySource) StartFrame(frame InputFrame, _ int64) error {
	m.current = frame
	return nil
}

// Read always returns the whole frame in one call and sets FrameDone —
// memory-backed sources never suspend.
func (m *MemorySource) Read() (ReadResult, error) {
	f := m.current
	if f.Offset < 0 || f.Offset+int64(f.Size) > int64(len(m.data)) {
		return ReadResult{}, ErrUnexpected
	}
	buf := m.data[f.Offset : f.Offset+int64(f.Size)]
	return ReadResult{Buf: buf, FrameDone: true}, nil
}

// CacheReader is the I/O hook a CacheSource delegates to: given a byte
// range, return what's cached now (possibly a prefix) and whether more must
// be fetched before the rest becomes available.
type CacheReader interface {
	// FetchAt attempts to satisfy [offset, offset+size). It may return
	// fewer bytes than requested; ready reports whether any bytes are
	// available yet without blocking.
	FetchAt(offset int64, size uint32, minOffsetHint int64) (data []byte, ready bool)
}

// CacheSource is a FramesSource backed by a read cache that may not have
// the requested bytes available immediately, modeling the suspension point
// the rest of the core is built around.
type CacheSource struct {
	reader        CacheReader
	current       InputFrame
	delivered     int64
	minOffsetHint int64
}

// NewCacheSource wraps reader, a cache that may answer FetchAt with AGAIN
// semantics via its ready return value.
func NewCacheSource(reader CacheReader) *CacheSource {
	return &CacheSource{reader: reader}
}

func (c *CacheSource) StartFrame(frame InputFrame, minOffsetHint int64) error {
	c.current = frame
	c.delivered = 0
	c.minOffsetHint = minOffsetHint
	return nil
}

// Read pulls the next chunk of the current frame from the cache. It returns
// ErrAgain when the cache has nothing new to offer yet.
func (c *CacheSource) Read() (ReadResult, error) {
	remaining := int64(c.current.Size) - c.delivered
	if remaining <= 0 {
		return ReadResult{FrameDone: true}, nil
	}

	data, ready := c.reader.FetchAt(c.current.Offset+c.delivered, uint32(remaining), c.minOffsetHint)
	if !ready || len(data) == 0 {
		return ReadResult{}, ErrAgain
	}

	c.delivered += int64(len(data))
	done := c.delivered >= int64(c.current.Size)
	return ReadResult{Buf: data, FrameDone: done}, nil
}
