package muxcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleStream(mediaType MediaType, nextOffset, limit int64, frames ...InputFrame) *StreamState {
	return &StreamState{
		MediaType:           mediaType,
		NextFrameTimeOffset: nextOffset,
		SegmentLimit:        limit,
		CurPart:             FramePart{FirstFrame: 0, LastFrame: len(frames) - 1, Frames: frames},
	}
}

func TestChooseStreamPicksEarliestDTS(t *testing.T) {
	video := simpleStream(MediaVideo, 1000, SegmentLimitUnbounded, InputFrame{Duration: 1000})
	audio := simpleStream(MediaAudio, 500, SegmentLimitUnbounded, InputFrame{Duration: 1000})

	m := &MuxerState{Streams: []*StreamState{video, audio}, MediaSet: &MediaSet{}}

	chosen, err := m.chooseStream()
	require.NoError(t, err)
	assert.Same(t, audio, chosen)
}

func TestChooseStreamRespectsSegmentLimit(t *testing.T) {
	video := simpleStream(MediaVideo, 900, 1000, InputFrame{Duration: 1000})
	m := &MuxerState{Streams: []*StreamState{video}, MediaSet: &MediaSet{}}

	_, err := m.chooseStream()
	require.NoError(t, err)

	video.NextFrameTimeOffset = 1000
	_, err = m.chooseStream()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChooseStreamExhaustsThenReturnsNotFound(t *testing.T) {
	video := simpleStream(MediaVideo, 0, SegmentLimitUnbounded, InputFrame{Duration: 1000})
	m := &MuxerState{Streams: []*StreamState{video}, MediaSet: &MediaSet{}}

	video.CurFrame = 1 // already exhausted its only frame
	_, err := m.chooseStream()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChooseStreamRearmsFirstTimeOnPartSwitch(t *testing.T) {
	part2 := &FramePart{FirstFrame: 0, LastFrame: 0, Frames: []InputFrame{{Duration: 1000}}}
	part1 := &FramePart{FirstFrame: 0, LastFrame: 0, Frames: []InputFrame{{Duration: 1000}}, Next: part2}

	video := &StreamState{MediaType: MediaVideo, CurPart: *part1, SegmentLimit: SegmentLimitUnbounded}
	m := &MuxerState{Streams: []*StreamState{video}, MediaSet: &MediaSet{}, firstTime: false}

	// Still within part1: no boundary crossed, firstTime stays as the
	// caller left it.
	_, err := m.chooseStream()
	require.NoError(t, err)
	assert.False(t, m.firstTime)

	// Walk off part1 onto part2; chooseStream must re-arm firstTime so an
	// empty read from part2's source is not reported as ErrBadData, per
	// hls_muxer_choose_stream setting state->first_time = TRUE in the same
	// spot.
	video.CurFrame = 1
	_, err = m.chooseStream()
	require.NoError(t, err)
	assert.True(t, m.firstTime)
}

func TestReinitTracksRearmsFirstTime(t *testing.T) {
	clip2Part := &FramePart{FirstFrame: 0, LastFrame: 0, Frames: []InputFrame{{Duration: 500}}}
	clip2 := &Clip{VideoTrack: &Track{MediaType: MediaVideo, FirstPart: clip2Part}}

	video := &StreamState{MediaType: MediaVideo}
	m := &MuxerState{
		Streams:        []*StreamState{video},
		MediaSet:       &MediaSet{Clips: []*Clip{{}, clip2}},
		FirstClipTrack: 0,
		firstTime:      false,
	}

	m.reinitTracks()
	assert.True(t, m.firstTime)
}

func TestReinitTracksWalksToNextClipAndSkipsMediaNone(t *testing.T) {
	clip2Part := &FramePart{FirstFrame: 0, LastFrame: 0, Frames: []InputFrame{{Duration: 500}}}
	clip2 := &Clip{VideoTrack: &Track{MediaType: MediaVideo, FirstPart: clip2Part}}

	video := &StreamState{MediaType: MediaVideo}
	id3 := &StreamState{MediaType: MediaNone}

	m := &MuxerState{
		Streams:        []*StreamState{video, id3},
		MediaSet:       &MediaSet{Clips: []*Clip{{}, clip2}},
		FirstClipTrack: 0,
	}

	m.reinitTracks()
	assert.Equal(t, 1, m.FirstClipTrack)
	assert.Equal(t, clip2, video.Source)
	assert.Equal(t, *clip2Part, video.CurPart)
	// The synthetic ID3 stream has no per-clip track and is left untouched.
	assert.Nil(t, id3.Source)
}
