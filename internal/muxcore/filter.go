package muxcore

// OutputFrame carries everything a filter chain needs to know about the
// frame it's about to emit, independent of the bytes themselves.
type OutputFrame struct {
	PTS        int64
	DTS        int64
	Duration   int64
	KeyFrame   bool
	Size       uint32
	HeaderSize uint32
}

// Filter is the uniform shape every stage of a stream's chain implements.
// Each stream's chain is a fixed-depth stack (<=3 deep) decided once at
// segment-init from media type, codec, interleave setting, and encryption
// type. Both real and simulated surfaces are part of the same interface so
// the scheduler's driving code (C7/C8) can share everything but the final
// calls.
type Filter interface {
	// SetMediaInfo configures codec-specific state. Called once per
	// segment before any frame flows through the chain.
	SetMediaInfo(info MediaInfo) error

	StartFrame(of OutputFrame) error
	Write(buf []byte) error
	FlushFrame(isLast bool) error

	SimulatedStartFrame(of OutputFrame) error
	SimulatedWrite(size uint32) error
	SimulatedFlushFrame(isLast bool) error

	// SimulationSupported reports whether this filter's output size can be
	// predicted from frame.Size alone. Every filter in this package returns
	// true; content under SAMPLE-AES (whose emulation-prevention byte
	// insertion perturbs sizes) is excluded in computeSimulationSupported.
	SimulationSupported(info MediaInfo) bool
}

// baseFilter centralizes bookkeeping shared by every filter: downstream
// pointer and a growable scratch buffer real filters accumulate bytes into
// before transforming and forwarding at FlushFrame.
type baseFilter struct {
	next Filter
	buf  []byte
	of   OutputFrame
}

func (b *baseFilter) reset() {
	b.buf = b.buf[:0]
}
