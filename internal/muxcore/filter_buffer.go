package muxcore

// DefaultPESPayloadSize bounds how much audio the buffer filter accumulates
// before closing a PES packet: (16-1) full TS payloads of 184 bytes plus one
// partial 170-byte payload (accounting for the adaptation-field stuffing a
// PCR-bearing first packet needs), matching the source muxer's constant.
const DefaultPESPayloadSize = (16-1)*184 + 170

// bufferFilter accumulates audio frames into a single PES payload up to
// DefaultPESPayloadSize, or until ForceFlush closes it early — used for
// non-interleaved audio so a slow track doesn't hold up PES emission
// indefinitely.
type bufferFilter struct {
	baseFilter

	haveGroup  bool
	groupStart OutputFrame
	groupBuf   []byte
}

func newBufferFilter(next Filter) *bufferFilter {
	return &bufferFilter{baseFilter: baseFilter{next: next}}
}

func (f *bufferFilter) SetMediaInfo(info MediaInfo) error {
	return f.next.SetMediaInfo(info)
}

// GetDTS returns the DTS of the oldest buffered frame, or -1 if empty.
func (f *bufferFilter) GetDTS() int64 {
	if !f.haveGroup {
		return -1
	}
	return f.groupStart.DTS
}

func (f *bufferFilter) StartFrame(of OutputFrame) error {
	if !f.haveGroup {
		f.groupStart = of
		f.groupBuf = f.groupBuf[:0]
		f.haveGroup = true
	}
	return nil
}

func (f *bufferFilter) Write(buf []byte) error {
	f.groupBuf = append(f.groupBuf, buf...)
	return nil
}

func (f *bufferFilter) FlushFrame(isLast bool) error {
	if isLast || len(f.groupBuf) >= DefaultPESPayloadSize {
		return f.ForceFlush(isLast)
	}
	return nil
}

// ForceFlush closes the current PES regardless of accumulated size. Called
// by the scheduler when this stream has fallen more than HLS_DELAY/2 behind
// the currently-selected stream, and unconditionally on the segment's last
// frame.
func (f *bufferFilter) ForceFlush(isLast bool) error {
	if !f.haveGroup {
		return nil
	}
	of := f.groupStart
	of.Size = uint32(len(f.groupBuf))
	if err := f.next.StartFrame(of); err != nil {
		return err
	}
	if err := f.next.Write(f.groupBuf); err != nil {
		return err
	}
	f.haveGroup = false
	return f.next.FlushFrame(isLast)
}

func (f *bufferFilter) SimulatedStartFrame(of OutputFrame) error {
	return f.StartFrame(of)
}

func (f *bufferFilter) SimulatedWrite(size uint32) error {
	f.groupBuf = append(f.groupBuf, make([]byte, size)...)
	return nil
}

func (f *bufferFilter) SimulatedFlushFrame(isLast bool) error {
	if isLast || len(f.groupBuf) >= DefaultPESPayloadSize {
		return f.SimulatedForceFlush(isLast)
	}
	return nil
}

// SimulatedForceFlush mirrors ForceFlush for the simulation surface.
func (f *bufferFilter) SimulatedForceFlush(isLast bool) error {
	if !f.haveGroup {
		return nil
	}
	of := f.groupStart
	of.Size = uint32(len(f.groupBuf))
	if err := f.next.SimulatedStartFrame(of); err != nil {
		return err
	}
	if err := f.next.SimulatedWrite(of.Size); err != nil {
		return err
	}
	f.haveGroup = false
	return f.next.SimulatedFlushFrame(isLast)
}

func (f *bufferFilter) SimulationSupported(info MediaInfo) bool {
	return true
}
