package muxcore

// WriteCallback is the host sink a segment's bytes are ultimately delivered
// through. Returning ErrAgain signals backpressure: the queue stops
// flushing and the caller must retry once the host is ready again.
type WriteCallback func(buf []byte) error

// WriteBufferQueue is an append-only ordered byte sink. Each producer (one
// per stream's terminal packetizer) publishes bytes via Append and reports
// how far it is willing to let the queue flush via the min_offset argument
// to Send — the queue only releases bytes every producer has passed.
type WriteBufferQueue struct {
	callback WriteCallback
	pending  [][]byte
	// offsets[i] is the cur_offset value once pending[i] is appended.
	offsets []int64
	// curOffset is the total byte count ever appended.
	curOffset int64
	// sentOffset is the total byte count ever handed to the callback.
	sentOffset int64
	// ReuseBuffers mirrors the source's reuse_buffers flag: true once a
	// downstream copies data itself (AES does). The queue records it but
	// does not act on it; Append retains buffers either way.
	ReuseBuffers bool
}

// NewWriteBufferQueue constructs a queue that flushes through cb.
func NewWriteBufferQueue(cb WriteCallback) *WriteBufferQueue {
	return &WriteBufferQueue{callback: cb}
}

// CurOffset returns the total number of bytes ever appended to the queue.
func (q *WriteBufferQueue) CurOffset() int64 { return q.curOffset }

// Append records buf as pending output and advances cur_offset. The queue
// holds on to buf until it is sent, whatever ReuseBuffers says.
func (q *WriteBufferQueue) Append(buf []byte) {
	if len(buf) == 0 {
		return
	}
	q.pending = append(q.pending, buf)
	q.curOffset += int64(len(buf))
	q.offsets = append(q.offsets, q.curOffset)
}

// Send flushes every pending buffer whose end offset is <= minOffset
// through the callback. Returns ErrAgain if the callback reports
// backpressure partway through — buffers already flushed stay flushed.
func (q *WriteBufferQueue) Send(minOffset int64) error {
	i := 0
	for i < len(q.pending) && q.offsets[i] <= minOffset {
		if err := q.callback(q.pending[i]); err != nil {
			q.pending = q.pending[i:]
			q.offsets = q.offsets[i:]
			return err
		}
		q.sentOffset = q.offsets[i]
		i++
	}
	q.pending = q.pending[i:]
	q.offsets = q.offsets[i:]
	return nil
}

// Flush finalizes the queue, publishing every remaining buffer regardless
// of offset. Called once per segment after the driver loop completes.
func (q *WriteBufferQueue) Flush() error {
	return q.Send(q.curOffset)
}
