package muxcore

import "fmt"

// frameStep is what advanceCursor hands back for one selected frame: the
// stream it came from, the frame itself, its entry DTS, and whether it is
// the last frame this stream will ever emit.
type frameStep struct {
	stream *StreamState
	frame  InputFrame
	dts    int64
	last   bool
}

// advanceCursor asks the scheduler for the next frame and advances the
// chosen stream's cursor, without touching any frames source or filter —
// shared by the real driver's startFrame and every simulated walk below so
// scheduling decisions are identical in both paths (the "simulation
// symmetry" requirement).
func (m *MuxerState) advanceCursor() (frameStep, error) {
	s, err := m.chooseStream()
	if err != nil {
		return frameStep{}, err
	}
	frame := s.currentFrame()
	curDTS := s.NextFrameTimeOffset
	s.NextFrameTimeOffset += RescaleMillis(frame.Duration)
	s.CurFrame++
	last := s.exhaustedPart() && s.isLastPartInChain()
	return frameStep{stream: s, frame: frame, dts: curDTS, last: last}, nil
}

// simulateWriteFrame pushes one frame through its stream's filter chain
// using the simulated surface only — no frame bytes are ever read.
func (m *MuxerState) simulateWriteFrame(step frameStep) error {
	m.simFlushDelayedStreams(step.stream, step.dts)

	of := OutputFrame{
		PTS:      step.dts + step.frame.PTSDelay,
		DTS:      step.dts,
		Duration: RescaleMillis(step.frame.Duration),
		KeyFrame: step.frame.KeyFrame,
		Size:     step.frame.Size,
	}
	if err := step.stream.TopFilter.SimulatedStartFrame(of); err != nil {
		return err
	}
	if err := step.stream.TopFilter.SimulatedWrite(step.frame.Size); err != nil {
		return err
	}
	return step.stream.TopFilter.SimulatedFlushFrame(step.last)
}

func (m *MuxerState) simFlushDelayedStreams(selected *StreamState, curDTS int64) {
	for _, s := range m.Streams {
		if s == selected || s.BufferFilter == nil {
			continue
		}
		dts := s.BufferFilter.GetDTS()
		if dts < 0 {
			continue
		}
		if curDTS > dts+HLSDelay/2 {
			_ = s.BufferFilter.SimulatedForceFlush(false)
		}
	}
}

// resetSimSegment rewinds every stream's terminal filter byte-range
// bookkeeping and starts a fresh shared offset counter, mirroring a new
// segment's mpegts_encoder_simulated_start_segment.
func (m *MuxerState) resetSimSegment() *int64 {
	shared := new(int64)
	for _, s := range m.Streams {
		if s.Terminal != nil {
			s.Terminal.resetSim(shared)
		}
	}
	return shared
}

// setSegmentLimit bounds every stream's SegmentLimit to the point where its
// DTS reaches segmentEndMillis, translated from the caller's timescale into
// HLS ticks and reduced by the stream's ClipFromFrameOffset.
func (m *MuxerState) setSegmentLimit(segmentEndMillis, timescale int64) {
	limit := Rescale(segmentEndMillis, HLSTimescale, timescale)
	for _, s := range m.Streams {
		s.SegmentLimit = limit - s.ClipFromFrameOffset
		s.IsFirstSegmentFrame = true
	}
}

func (m *MuxerState) setSegmentLimitUnlimited() {
	for _, s := range m.Streams {
		s.SegmentLimit = SegmentLimitUnbounded
		s.IsFirstSegmentFrame = true
	}
}

// SimulateGetSegmentSize walks the entire current segment using only the
// simulated filter surface and returns the exact byte count the real driver
// will later produce, rounded to the next AES block boundary if encryption
// is active.
func (m *MuxerState) SimulateGetSegmentSize() (int64, error) {
	shared := m.resetSimSegment()

	for {
		step, err := m.advanceCursor()
		if err == ErrNotFound {
			break
		}
		if err != nil {
			return 0, err
		}
		if err := m.simulateWriteFrame(step); err != nil {
			return 0, err
		}
	}

	size := *shared
	if m.encParams.Type == EncryptionAES128 {
		size = AESRoundedSize(size)
	}
	return size, nil
}

// SimulationReset rewinds every stream to the start of its segment so the
// real driver can run from scratch after the size pre-pass: reinitTracks
// reloads every track's first frame-part from clip 0, and every cursor and
// NextFrameTimeOffset is restored.
func (m *MuxerState) SimulationReset() {
	// reinitTracks advances the clip cursor before loading a clip, so start
	// it one before clip 0.
	m.FirstClipTrack = -1
	m.reinitTracks()
	for _, s := range m.Streams {
		s.CurFrame = 0
		s.NextFrameTimeOffset = s.FirstFrameTimeOffset
		s.IsFirstSegmentFrame = true
	}
}

// IFrameRecord is one entry the I-frame walker reports: the segment it
// belongs to, its duration, and the byte range of the key-frame packet
// within that segment.
type IFrameRecord struct {
	SegmentIndex   int
	DurationMillis int64
	ByteStart      int64
	ByteSize       int64
}

// SimulateGetIFrames walks every segment in durations sequentially, in
// simulated mode, and reports the byte range and duration of every
// key-frame found, suitable for building a byte-range I-frame playlist.
// Requires simulation support; rejects every encryption type other than
// EncryptionNone up front since I-frame playlists never carry encryption
// (mirrors the source builder's hardcoded HLS_ENC_NONE for I-frame
// playlists).
func (m *MuxerState) SimulateGetIFrames(durations []SegmentDurationItem, timescale int64, videoDurationMillis int64, cb func(IFrameRecord)) error {
	if !m.simulationSupported {
		return fmt.Errorf("%w: content does not support simulation", ErrBadRequest)
	}
	if m.encParams.Type != EncryptionNone {
		return fmt.Errorf("%w: I-frame playlists do not support encryption", ErrBadRequest)
	}

	var videoTerminal *mpegtsFilter
	for _, s := range m.Streams {
		if s.MediaType == MediaVideo {
			videoTerminal = s.Terminal
		}
	}
	if videoTerminal == nil {
		return nil
	}

	var (
		pending           IFrameRecord
		haveFrameStart    bool
		frameStartMillis  int64
		firstFrameMillis  int64
		prevKeyFrame      bool
		prevFramePTS      int64
		isFirstSegFrame   bool
		segmentEndMillis  int64
	)

	emit := func(curFrameTimeMillis int64, segIdx int) {
		if haveFrameStart {
			if pending.ByteSize != 0 && curFrameTimeMillis > frameStartMillis {
				pending.DurationMillis = curFrameTimeMillis - frameStartMillis
				cb(pending)
			}
		} else {
			firstFrameMillis = curFrameTimeMillis
			haveFrameStart = true
		}
		frameStartMillis = curFrameTimeMillis
	}

	// Each SegmentDurationItem represents a run of RepeatCount consecutive
	// segments sharing one duration; expand that run here so segment_limit
	// and segment indices advance one real segment at a time.
	for idx, item := range durations {
		repeat := item.RepeatCount
		if repeat < 1 {
			repeat = 1
		}
		for r := 0; r < repeat; r++ {
			segIdx := item.SegmentIndex + r
			segmentEndMillis += item.DurationMillis

			isLastSegment := idx == len(durations)-1 && r == repeat-1
			var nextIsDiscontinuity bool
			switch {
			case r < repeat-1:
				nextIsDiscontinuity = false
			case idx < len(durations)-1:
				nextIsDiscontinuity = durations[idx+1].Discontinuity
			}
			if isLastSegment || nextIsDiscontinuity {
				m.setSegmentLimitUnlimited()
			} else {
				m.setSegmentLimit(segmentEndMillis, timescale)
			}
			m.resetSimSegment()
			isFirstSegFrame = true

			for {
				step, err := m.advanceCursor()
				if err == ErrNotFound {
					break
				}
				if err != nil {
					return err
				}
				if err := m.simulateWriteFrame(step); err != nil {
					return err
				}

				if step.stream.MediaType != MediaVideo {
					continue
				}

				if !isFirstSegFrame && prevKeyFrame {
					emit(RescaleToMillis(prevFramePTS), segIdx)
					pending = IFrameRecord{
						SegmentIndex: segIdx,
						ByteStart:    videoTerminal.LastFrameStartPos,
						ByteSize:     videoTerminal.LastFrameEndPos - videoTerminal.LastFrameStartPos,
					}
				}

				if step.last && step.frame.KeyFrame {
					curTimeMillis := RescaleToMillis(step.dts + step.frame.PTSDelay)
					emit(curTimeMillis, segIdx)
					pending = IFrameRecord{
						SegmentIndex: segIdx,
						ByteStart:    videoTerminal.CurFrameStartPos,
						ByteSize:     videoTerminal.CurFrameEndPos - videoTerminal.CurFrameStartPos,
					}
				}

				prevKeyFrame = step.frame.KeyFrame
				prevFramePTS = step.dts + step.frame.PTSDelay
				isFirstSegFrame = false
			}
		}
	}

	endMillis := firstFrameMillis + videoDurationMillis
	if haveFrameStart && pending.ByteSize != 0 && endMillis > frameStartMillis {
		pending.DurationMillis = endMillis - frameStartMillis
		cb(pending)
	}
	return nil
}
