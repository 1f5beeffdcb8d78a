package muxcore

// joinerFilter concatenates successive audio frames whose DTS is contiguous
// (this frame's DTS equals the previous frame's DTS + duration) into a
// single downstream PES payload, reducing PES/TS overhead when interleaving
// is enabled. A DTS discontinuity or the segment's last frame closes the
// current group.
type joinerFilter struct {
	baseFilter

	haveGroup    bool
	groupStart   OutputFrame
	expectedNext int64
	groupBuf     []byte
}

func newJoinerFilter(next Filter) *joinerFilter {
	return &joinerFilter{baseFilter: baseFilter{next: next}}
}

func (f *joinerFilter) SetMediaInfo(info MediaInfo) error {
	return f.next.SetMediaInfo(info)
}

func (f *joinerFilter) StartFrame(of OutputFrame) error {
	if f.haveGroup && of.DTS != f.expectedNext {
		if err := f.closeGroup(false); err != nil {
			return err
		}
	}
	if !f.haveGroup {
		f.groupStart = of
		f.groupBuf = f.groupBuf[:0]
	}
	f.expectedNext = of.DTS + of.Duration
	f.haveGroup = true
	return nil
}

func (f *joinerFilter) Write(buf []byte) error {
	f.groupBuf = append(f.groupBuf, buf...)
	return nil
}

func (f *joinerFilter) FlushFrame(isLast bool) error {
	if isLast {
		return f.closeGroup(true)
	}
	return nil
}

func (f *joinerFilter) closeGroup(isLast bool) error {
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

func (f *joinerFilter) SimulatedStartFrame(of OutputFrame) error {
	return f.StartFrame(of)
}

func (f *joinerFilter) SimulatedWrite(size uint32) error {
	// Track only the accumulated size for the simulated group.
	f.groupBuf = append(f.groupBuf, make([]byte, size)...)
	return nil
}

func (f *joinerFilter) SimulatedFlushFrame(isLast bool) error {
	if !isLast {
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
	return f.next.SimulatedFlushFrame(true)
}

func (f *joinerFilter) SimulationSupported(info MediaInfo) bool {
	return true
}
