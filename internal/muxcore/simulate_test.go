package muxcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/hlsmux/internal/codec"
)

// buildSimMuxer wires streams and filter chains the same way InitSegment
// does, but stops short of running the real segment-size pre-pass or
// positioning the driver at a real frame, so SimulateGetIFrames can walk the
// whole media set from a clean slate.
func buildSimMuxer(t *testing.T, ms *MediaSet) *MuxerState {
	t.Helper()
	streams := buildStreams(ms, MuxerConf{})
	m := &MuxerState{Streams: streams, MediaSet: ms}
	queue := NewWriteBufferQueue(func([]byte) error { return nil })
	m.Queue = queue

	writer, videoTrack, audioTrack, err := buildMPEGTSWriter(streams, queue)
	require.NoError(t, err)
	require.NoError(t, m.buildChains(writer, videoTrack, audioTrack))
	m.simulationSupported = m.computeSimulationSupported()
	require.True(t, m.simulationSupported)
	return m
}

func TestSimulateGetIFramesProducesOneRecordPerKeyframe(t *testing.T) {
	sps := []byte{0x67, 1, 2}
	pps := []byte{0x68, 1}
	idr0 := []byte{0x65, 1}
	idr1 := []byte{0x65, 2}

	frame0 := annexB(sps, pps, idr0)
	frame1 := annexB(idr1)
	data := append(append([]byte{}, frame0...), frame1...)

	clip := &Clip{}
	part := &FramePart{
		FirstFrame: 0,
		LastFrame:  1,
		Frames: []InputFrame{
			{Size: uint32(len(frame0)), Duration: 1000, KeyFrame: true, Offset: 0},
			{Size: uint32(len(frame1)), Duration: 1000, KeyFrame: true, Offset: int64(len(frame0))},
		},
		Source: NewMemorySource(data),
		Clip:   clip,
	}
	clip.VideoTrack = &Track{MediaType: MediaVideo, Info: MediaInfo{VideoCodec: codec.VideoH264}, FirstPart: part}

	ms := &MediaSet{
		Clips: []*Clip{clip},
		SegmentDurations: []SegmentDurationItem{
			{DurationMillis: 2000, RepeatCount: 1, SegmentIndex: 0},
		},
	}

	m := buildSimMuxer(t, ms)

	var records []IFrameRecord
	err := m.SimulateGetIFrames(ms.SegmentDurations, 1000, 2000, func(r IFrameRecord) {
		records = append(records, r)
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(1000), records[0].DurationMillis)
	assert.Equal(t, int64(1000), records[1].DurationMillis)
	assert.Less(t, records[0].ByteStart, records[1].ByteStart)
	assert.Greater(t, records[0].ByteSize, int64(0))
	assert.Greater(t, records[1].ByteSize, int64(0))
}

func TestSimulateGetIFramesRejectsEncryption(t *testing.T) {
	ms := &MediaSet{SegmentDurations: []SegmentDurationItem{{DurationMillis: 1000, RepeatCount: 1}}}
	m := buildSimMuxer(t, ms)
	m.encParams = EncryptionParams{Type: EncryptionAES128}

	err := m.SimulateGetIFrames(ms.SegmentDurations, 1000, 1000, func(IFrameRecord) {})
	assert.ErrorIs(t, err, ErrBadRequest)
}
