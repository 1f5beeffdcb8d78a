package muxcore

// HLSTimescale is the tick rate of every DTS/PTS value the core operates on
// internally, matching the MPEG-TS 90 kHz clock.
const HLSTimescale = 90000

// HLSDelay bounds how far an unbuffered audio stream may trail behind the
// currently-selected stream's DTS before its buffer filter is force-flushed,
// expressed in HLS ticks. Half of it is the threshold used by the scheduler.
const HLSDelay = HLSTimescale // 1 second, matching the source muxer's default

// RescaleMillis converts a millisecond duration to HLS ticks.
func RescaleMillis(ms int64) int64 {
	return ms * 90
}

// RescaleToMillis converts an HLS-tick duration back to milliseconds.
func RescaleToMillis(ticks int64) int64 {
	return ticks / 90
}

// Rescale converts a value from one timescale to another, matching the
// source muxer's `(value * to) / from` pattern used when applying a
// segment-duration table expressed in an arbitrary playlist timescale.
func Rescale(value int64, to, from int64) int64 {
	return (value * to) / from
}
