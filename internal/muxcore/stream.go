package muxcore

import "math"

// SegmentLimitUnbounded marks a stream as having no upper DTS bound for the
// current segment — used for the last segment of a discontinuity group, or
// whenever the host asks for an unlimited simulation walk.
const SegmentLimitUnbounded = math.MaxInt64

// StreamState is one track's cursor through its clip chain, plus the head
// of its filter chain. The scheduler moves CurPart/CurFrame/Source across
// frame-part boundaries (advancePart) and clips (reinitTracks); the per-frame
// fields are advanced by startFrame in muxer.go and advanceCursor in
// simulate.go.
type StreamState struct {
	MediaType MediaType
	Source    *Clip

	FirstPart *FramePart
	CurPart   FramePart // copied by value when advancing, per spec note on read-only media sets
	CurFrame  int       // cursor into CurPart.Frames, relative to CurPart.FirstFrame

	FirstFrameTimeOffset int64
	NextFrameTimeOffset  int64
	SegmentLimit         int64
	ClipFromFrameOffset  int64

	IsFirstSegmentFrame bool
	PrevKeyFrame        bool
	PrevFramePTS        int64

	TopFilter Filter
	// BufferFilter is non-nil only for chains whose second (or first)
	// stage is a bufferFilter — the scheduler force-flushes it when this
	// stream falls too far behind the selected one.
	BufferFilter *bufferFilter
	// Terminal is always the mpegts filter at the bottom of the chain,
	// kept directly so the scheduler/driver can read byte-range and
	// publish-offset bookkeeping without walking the chain.
	Terminal *mpegtsFilter

	Info MediaInfo

	// exhausted is not set anywhere in this package: whether the cursor has
	// used up every frame-part of its chain is computed on demand as
	// exhaustedPart() && isLastPartInChain() (see MuxerState.LastStreamFrame).
	exhausted bool
}

// exhaustedPart reports whether CurFrame has walked off the end of CurPart.
func (s *StreamState) exhaustedPart() bool {
	return s.CurFrame > s.CurPart.LastFrame-s.CurPart.FirstFrame
}

// currentFrame returns the InputFrame the cursor currently points at. Only
// valid when !exhaustedPart().
func (s *StreamState) currentFrame() InputFrame {
	return s.CurPart.Frames[s.CurFrame]
}

// advancePart steps to the next frame-part in the chain if the current one
// is exhausted, returning ok=false if there is nothing left for this stream
// in the current clip (the caller must then consult reinit across clips).
// switched reports whether a part boundary was actually crossed; the caller
// uses this to re-arm MuxerState.firstTime, mirroring hls_muxer_choose_stream
// setting state->first_time = TRUE right after moving cur_frame_part to
// cur_frame_part.next.
func (s *StreamState) advancePart() (ok bool, switched bool) {
	for s.exhaustedPart() {
		if s.CurPart.Next == nil {
			return false, switched
		}
		s.CurPart = *s.CurPart.Next
		s.CurFrame = 0
		s.Source = s.CurPart.Clip
		switched = true
	}
	return true, switched
}

// isLastPartInChain reports whether CurPart is the final part this stream
// will ever see, i.e. advancing past it has no Next link.
func (s *StreamState) isLastPartInChain() bool {
	return s.CurPart.Next == nil
}
