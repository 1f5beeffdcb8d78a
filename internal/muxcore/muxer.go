package muxcore

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
	"github.com/google/uuid"

	"github.com/streamforge/hlsmux/internal/codec"
)

// InitSegmentResult is what InitSegment hands back to the host: the exact
// byte size of the segment if simulation is supported for this content, the
// PAT/PMT header the host should prepend ahead of streamed frame payloads,
// and the driver itself (nil if the segment is empty).
type InitSegmentResult struct {
	Size           int64
	SizeKnown      bool
	ResponseHeader []byte
	Muxer          *MuxerState
}

// MuxerState drives one segment's production end to end: C7 in the
// component table. One instance is created per in-flight segment request
// and discarded once drained or abandoned.
type MuxerState struct {
	Streams  []*StreamState
	MediaSet *MediaSet

	FirstClipTrack int
	firstTime      bool
	// LastStreamFrame marks that the frame about to be (or just) flushed
	// is the final frame this stream will ever emit across its entire
	// clip chain — not merely the final frame of its current FramePart.
	// It is computed as exhaustedPart() && isLastPartInChain(); a per-part
	// check alone would also mark the last frame of every earlier part in
	// a multi-part chain.
	LastStreamFrame bool

	Queue     *WriteBufferQueue
	aes       *AESWriteThrough
	encParams EncryptionParams
	conf      MuxerConf

	simulationSupported bool
	selected            *StreamState

	// segmentID correlates every log line this muxer instance emits
	// across its suspension points back to one segment's production.
	segmentID uuid.UUID
	log       *slog.Logger
}

// buildStreams allocates one StreamState per track present in clip 0
// (video/audio), plus a synthetic ID3 stream when conf.OutputID3Timestamp
// is set. Streams keep pointing at later clips' tracks as reinitTracks
// walks the media set.
func buildStreams(ms *MediaSet, conf MuxerConf) []*StreamState {
	if len(ms.Clips) == 0 {
		return nil
	}
	clip := ms.Clips[0]

	var streams []*StreamState
	newStream := func(mt MediaType, track *Track) *StreamState {
		s := &StreamState{MediaType: mt, Source: clip}
		if track != nil && track.FirstPart != nil {
			s.CurPart = *track.FirstPart
			s.Info = track.Info
		}
		s.FirstFrameTimeOffset = RescaleMillis(clip.ClipStartTime) + clip.FirstFrameTimeOffset
		s.NextFrameTimeOffset = s.FirstFrameTimeOffset
		s.ClipFromFrameOffset = clip.ClipFromFrameOffset
		s.SegmentLimit = SegmentLimitUnbounded
		s.IsFirstSegmentFrame = true
		return s
	}

	if clip.VideoTrack != nil {
		streams = append(streams, newStream(MediaVideo, clip.VideoTrack))
	}
	if clip.AudioTrack != nil {
		streams = append(streams, newStream(MediaAudio, clip.AudioTrack))
	}
	if conf.OutputID3Timestamp {
		streams = append(streams, newStream(MediaNone, nil))
	}
	return streams
}

// InitSegment builds a fresh MuxerState for one segment: allocates filter
// chains, validates the request, runs the simulation pre-pass to discover
// the exact byte size (when supported), resets simulation state, and
// positions the driver at its first frame.
func InitSegment(ms *MediaSet, conf MuxerConf, enc EncryptionParams, cb WriteCallback) (*InitSegmentResult, error) {
	streams := buildStreams(ms, conf)

	segmentID := uuid.New()
	log := conf.logger().With("segment_id", segmentID)

	m := &MuxerState{
		Streams:   streams,
		MediaSet:  ms,
		conf:      conf,
		encParams: enc,
		firstTime: true,
		segmentID: segmentID,
		log:       log,
	}
	log.Debug("init segment", "streams", len(streams))

	queue := NewWriteBufferQueue(cb)
	m.Queue = queue

	writer, videoTrack, audioTrack, err := buildMPEGTSWriter(streams, queue)
	if err != nil {
		return nil, err
	}

	if err := m.buildChains(writer, videoTrack, audioTrack); err != nil {
		return nil, err
	}

	m.wireID3Timestamps()

	m.simulationSupported = m.computeSimulationSupported()

	var header []byte
	if writer != nil {
		var buf bytes.Buffer
		headerWriter := &mpegts.Writer{W: &buf, Tracks: writer.Tracks}
		if err := headerWriter.Initialize(); err != nil {
			return nil, fmt.Errorf("initializing mpegts header writer: %w", err)
		}
		if _, err := headerWriter.WriteTables(); err != nil {
			return nil, fmt.Errorf("writing PAT/PMT tables: %w", err)
		}
		header = buf.Bytes()
	}

	result := &InitSegmentResult{ResponseHeader: header}

	if m.encParams.Type == EncryptionAES128 {
		aw, err := NewAESWriteThrough(m.encParams.Key, m.encParams.IV, cb)
		if err != nil {
			return nil, err
		}
		m.aes = aw
		// The writer and every terminal filter already append to queue, so
		// route its output through the AES wrapper in place.
		queue.callback = func(buf []byte) error { return aw.Write(buf) }
		queue.ReuseBuffers = true
		if header != nil {
			var encHeader bytes.Buffer
			headerAES, err := NewAESWriteThrough(m.encParams.Key, m.encParams.IV, func(b []byte) error {
				encHeader.Write(b)
				return nil
			})
			if err != nil {
				return nil, err
			}
			if err := headerAES.Write(header); err != nil {
				return nil, err
			}
			if err := headerAES.Flush(); err != nil {
				return nil, err
			}
			result.ResponseHeader = encHeader.Bytes()
		}
	}

	if m.simulationSupported {
		size, err := m.SimulateGetSegmentSize()
		if err != nil {
			return nil, err
		}
		result.Size = size
		result.SizeKnown = true
		m.SimulationReset()
		log.Debug("simulated segment size", "bytes", size)
	}

	if err := m.startFrame(); err != nil {
		if err == ErrNotFound {
			return result, nil // empty segment: no processor
		}
		return nil, err
	}
	result.Muxer = m
	return result, nil
}

// buildMPEGTSWriter constructs the one shared mediacommon writer all real
// video/audio filter chains in this segment terminate into.
func buildMPEGTSWriter(streams []*StreamState, queue *WriteBufferQueue) (*mpegts.Writer, *mpegts.Track, *mpegts.Track, error) {
	var tracks []*mpegts.Track
	var videoTrack, audioTrack *mpegts.Track

	for _, s := range streams {
		switch s.MediaType {
		case MediaVideo:
			videoTrack = &mpegts.Track{PID: VideoPID, Codec: createVideoCodec(s.Info.VideoCodec)}
			tracks = append(tracks, videoTrack)
		case MediaAudio:
			audioTrack = &mpegts.Track{PID: AudioPID, Codec: createAudioCodec(s.Info.AudioCodec, s.Info.AACConfig)}
			tracks = append(tracks, audioTrack)
		}
	}
	if len(tracks) == 0 {
		return nil, nil, nil, nil
	}

	w := &mpegts.Writer{W: &appendWriter{queue: queue}, Tracks: tracks}
	if err := w.Initialize(); err != nil {
		return nil, nil, nil, fmt.Errorf("initializing mpegts writer: %w", err)
	}
	return w, videoTrack, audioTrack, nil
}

// buildChains assigns every stream its filter chain per the fixed
// composition table: video is annexb->mpegts; AAC audio gets adts plus
// either frame_joiner (interleaved) or buffer (not); non-AAC audio skips
// adts and goes straight to frame_joiner or buffer; the synthetic ID3
// stream is id3->mpegts.
func (m *MuxerState) buildChains(writer *mpegts.Writer, videoTrack, audioTrack *mpegts.Track) error {
	for _, s := range m.Streams {
		switch s.MediaType {
		case MediaVideo:
			term := newMPEGTSFilter(MediaVideo, m.Queue, writer, videoTrack)
			if err := term.initSim(videoTrack); err != nil {
				return err
			}
			s.Terminal = term
			s.TopFilter = newAnnexBFilter(term)

		case MediaAudio:
			term := newMPEGTSFilter(MediaAudio, m.Queue, writer, audioTrack)
			if err := term.initSim(audioTrack); err != nil {
				return err
			}
			s.Terminal = term
			isAAC := s.Info.AudioCodec == codec.AudioAAC

			if m.encParams.Type == EncryptionSampleAES && !isAAC {
				return fmt.Errorf("%w: SAMPLE-AES requires AAC audio", ErrBadRequest)
			}

			if isAAC {
				if m.conf.InterleaveFrames {
					s.TopFilter = newADTSFilter(newJoinerFilter(term))
				} else {
					buf := newBufferFilter(term)
					s.BufferFilter = buf
					s.TopFilter = newADTSFilter(buf)
				}
			} else {
				if m.conf.InterleaveFrames {
					s.TopFilter = newJoinerFilter(term)
				} else {
					buf := newBufferFilter(term)
					s.BufferFilter = buf
					s.TopFilter = buf
				}
			}

		default:
			term := newMPEGTSFilter(MediaNone, m.Queue, writer, nil)
			if err := term.initSim(nil); err != nil {
				return err
			}
			s.Terminal = term
			s.TopFilter = newID3Filter(term, 0)
		}

		if err := s.TopFilter.SetMediaInfo(s.Info); err != nil {
			return err
		}
	}
	return nil
}

// wireID3Timestamps borrows first_frame_time_offset/next_frame_time_offset
// /clip_from_frame_offset from whichever stream the scheduler would pick
// first, matching the source muxer's init_id3_stream. The synthetic stream
// is silently left with zero frames if no other stream has any.
func (m *MuxerState) wireID3Timestamps() {
	var id3 *StreamState
	var ref *StreamState
	for _, s := range m.Streams {
		if s.MediaType == MediaNone {
			id3 = s
			continue
		}
		if ref == nil || s.NextFrameTimeOffset < ref.NextFrameTimeOffset {
			ref = s
		}
	}
	if id3 == nil {
		return
	}
	if ref == nil {
		// LastFrame below FirstFrame: the part is exhausted from the start.
		id3.CurPart = FramePart{FirstFrame: 0, LastFrame: -1}
		return
	}
	id3.FirstFrameTimeOffset = ref.FirstFrameTimeOffset
	id3.NextFrameTimeOffset = ref.NextFrameTimeOffset
	id3.ClipFromFrameOffset = ref.ClipFromFrameOffset

	millis := RescaleToMillis(ref.NextFrameTimeOffset)
	id3.TopFilter = newID3Filter(id3.Terminal, millis)
	id3.TopFilter.SetMediaInfo(id3.Info)

	// A single synthetic frame: zero duration, marked as a keyframe so
	// playlist consumers treat it as independently addressable.
	id3.CurPart = FramePart{
		FirstFrame: 0,
		LastFrame:  0,
		Frames:     []InputFrame{{Size: 0, Duration: 0, KeyFrame: true}},
		Source:     nil,
	}
}

// computeSimulationSupported is false whenever SAMPLE-AES is active, or any
// video stream's annexb filter reports it can't predict sizes under the
// active encryption (emulation-prevention byte insertion perturbs sizes).
func (m *MuxerState) computeSimulationSupported() bool {
	if m.encParams.Type == EncryptionSampleAES {
		return false
	}
	for _, s := range m.Streams {
		if s.MediaType == MediaVideo && !s.TopFilter.SimulationSupported(s.Info) {
			return false
		}
	}
	return true
}

// startFrame asks the scheduler for the next stream, advances its cursor,
// computes this frame's DTS/PTS, flushes any audio buffers that have
// fallen too far behind, and opens the frame on the chosen stream's filter
// chain and frames source.
func (m *MuxerState) startFrame() error {
	s, err := m.chooseStream()
	if err != nil {
		return err
	}

	frame := s.currentFrame()
	curDTS := s.NextFrameTimeOffset
	s.NextFrameTimeOffset += RescaleMillis(frame.Duration)
	s.PrevKeyFrame = frame.KeyFrame
	s.PrevFramePTS = curDTS + frame.PTSDelay

	s.CurFrame++
	m.LastStreamFrame = s.exhaustedPart() && s.isLastPartInChain()

	m.flushDelayedStreams(s, curDTS)

	minOffset := m.minOffsetForSource(s)
	if s.CurPart.Source != nil {
		if err := s.CurPart.Source.StartFrame(frame, minOffset); err != nil {
			return err
		}
	}

	of := OutputFrame{
		PTS:      curDTS + frame.PTSDelay,
		DTS:      curDTS,
		Duration: RescaleMillis(frame.Duration),
		KeyFrame: frame.KeyFrame,
		Size:     frame.Size,
	}
	if err := s.TopFilter.StartFrame(of); err != nil {
		return err
	}

	s.IsFirstSegmentFrame = false
	m.selected = s
	return nil
}

// flushDelayedStreams force-flushes any other stream's buffer filter that
// has fallen more than HLS_DELAY/2 behind the just-selected frame's DTS, so
// a slow audio track never starves packet ordering on a fast video track.
func (m *MuxerState) flushDelayedStreams(selected *StreamState, curDTS int64) {
	for _, s := range m.Streams {
		if s == selected || s.BufferFilter == nil {
			continue
		}
		dts := s.BufferFilter.GetDTS()
		if dts < 0 {
			continue
		}
		if curDTS > dts+HLSDelay/2 {
			_ = s.BufferFilter.ForceFlush(false)
		}
	}
}

// minOffsetForSource finds the smallest pending frame.Offset among other
// streams sharing the selected stream's current source clip, so a
// cache-backed frames source can coalesce adjacent reads.
func (m *MuxerState) minOffsetForSource(selected *StreamState) int64 {
	min := int64(-1)
	for _, s := range m.Streams {
		if s == selected || s.Source != selected.Source || s.exhaustedPart() {
			continue
		}
		off := s.currentFrame().Offset
		if min < 0 || off < min {
			min = off
		}
	}
	return min
}

// Process drains the current frame (and every subsequent one, looping
// internally) until the frames source suspends with ErrAgain or the
// segment is fully drained. Returns ErrAgain to signal the caller should
// resume by calling Process again once backing I/O is ready.
func (m *MuxerState) Process() error {
	for {
		if m.selected == nil {
			if err := m.Queue.Flush(); err != nil {
				return err
			}
			if m.aes != nil {
				if err := m.aes.Flush(); err != nil {
					return err
				}
			}
			m.log.Debug("segment drained")
			return nil
		}

		s := m.selected
		if s.CurPart.Source == nil {
			// Synthetic ID3 frame: no bytes to read, flush immediately.
			if err := s.TopFilter.FlushFrame(m.LastStreamFrame); err != nil {
				return err
			}
			if err := m.advanceAfterFrame(); err != nil {
				if err == ErrNotFound {
					m.selected = nil
					continue
				}
				return err
			}
			continue
		}

		res, err := s.CurPart.Source.Read()
		if err == ErrAgain {
			if err := m.send(); err != nil {
				return err
			}
			m.firstTime = false
			m.log.Debug("suspending on frames source backpressure")
			return ErrAgain
		}
		if err != nil {
			return err
		}
		if len(res.Buf) == 0 && !m.firstTime {
			return ErrBadData
		}

		if len(res.Buf) > 0 {
			if err := s.TopFilter.Write(res.Buf); err != nil {
				return err
			}
		}

		if res.FrameDone {
			if err := s.TopFilter.FlushFrame(m.LastStreamFrame); err != nil {
				return err
			}
			if err := m.advanceAfterFrame(); err != nil {
				if err == ErrNotFound {
					m.selected = nil
					continue
				}
				return err
			}
		}
	}
}

func (m *MuxerState) advanceAfterFrame() error {
	return m.startFrame()
}

// send computes the minimum publishable offset across every stream's
// terminal filter and flushes the queue up to it.
func (m *MuxerState) send() error {
	return m.Queue.Send(m.minSendOffset())
}

func (m *MuxerState) minSendOffset() int64 {
	min := m.Queue.CurOffset()
	for _, s := range m.Streams {
		if s.Terminal == nil {
			continue
		}
		if s.Terminal.SendQueueOffset < min {
			min = s.Terminal.SendQueueOffset
		}
	}
	return min
}
