package muxcore

import "fmt"

// id3Filter wraps the synthetic timed-metadata frame in an ID3 PES payload
// carrying the literal text `{"timestamp":<ms>}` followed by a NUL
// terminator, on its own PID distinct from the audio/video tracks.
type id3Filter struct {
	baseFilter
	timestampMillis int64
}

func newID3Filter(next Filter, timestampMillis int64) *id3Filter {
	return &id3Filter{baseFilter: baseFilter{next: next}, timestampMillis: timestampMillis}
}

func (f *id3Filter) SetMediaInfo(info MediaInfo) error {
	return f.next.SetMediaInfo(info)
}

func (f *id3Filter) payload() []byte {
	text := fmt.Sprintf(`{"timestamp":%d}`, f.timestampMillis)
	return append([]byte(text), 0x00)
}

func (f *id3Filter) StartFrame(of OutputFrame) error {
	of.Size = uint32(len(f.payload()))
	return f.next.StartFrame(of)
}

func (f *id3Filter) Write(buf []byte) error {
	// The ID3 stream's payload is synthesized entirely from the
	// timestamp, not from upstream frame bytes.
	return nil
}

func (f *id3Filter) FlushFrame(isLast bool) error {
	if err := f.next.Write(f.payload()); err != nil {
		return err
	}
	return f.next.FlushFrame(isLast)
}

func (f *id3Filter) SimulatedStartFrame(of OutputFrame) error {
	of.Size = uint32(len(f.payload()))
	return f.next.SimulatedStartFrame(of)
}

func (f *id3Filter) SimulatedWrite(size uint32) error {
	return nil
}

func (f *id3Filter) SimulatedFlushFrame(isLast bool) error {
	if err := f.next.SimulatedWrite(uint32(len(f.payload()))); err != nil {
		return err
	}
	return f.next.SimulatedFlushFrame(isLast)
}

func (f *id3Filter) SimulationSupported(info MediaInfo) bool {
	return true
}
