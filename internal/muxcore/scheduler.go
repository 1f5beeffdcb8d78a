package muxcore

// chooseStream selects the stream with the minimum NextFrameTimeOffset
// among those still inside their segment limit, walking clip boundaries
// transparently when every stream has exhausted the current clip. Returns
// ErrNotFound once nothing is left to emit for this segment.
func (m *MuxerState) chooseStream() (*StreamState, error) {
	for {
		hasFrames := false
		var selected *StreamState

		for _, s := range m.Streams {
			ok, switched := s.advancePart()
			if switched {
				// A frame-part boundary was crossed; re-arm firstTime so
				// an empty read from the new part's source is not
				// reported as ErrBadData, per hls_muxer_choose_stream
				// setting state->first_time = TRUE in the same spot.
				m.firstTime = true
			}
			if !ok {
				// Exhausted every part in this stream's chain; it
				// contributes nothing more until reinitTracks walks to a
				// new clip (if one exists).
				continue
			}
			hasFrames = true

			if s.NextFrameTimeOffset >= s.SegmentLimit {
				continue
			}
			if selected == nil || s.NextFrameTimeOffset < selected.NextFrameTimeOffset {
				selected = s
			}
		}

		if selected != nil {
			return selected, nil
		}

		if m.FirstClipTrack >= len(m.MediaSet.Clips) || hasFrames {
			break
		}
		m.reinitTracks()
		if m.MediaSet.UseDiscontinuity {
			break
		}
	}
	return nil, ErrNotFound
}

// reinitTracks walks every stream to the next clip's corresponding track,
// skipping streams with no track in that clip (MediaNone), and advances the
// shared clip cursor.
func (m *MuxerState) reinitTracks() {
	// hls_muxer_reinit_tracks sets state->first_time = TRUE unconditionally
	// on entry, before even checking whether another clip remains; crossing
	// a clip boundary re-arms the same empty-read check as a part switch.
	m.firstTime = true
	m.FirstClipTrack++
	if m.FirstClipTrack >= len(m.MediaSet.Clips) {
		return
	}
	clip := m.MediaSet.Clips[m.FirstClipTrack]

	for _, s := range m.Streams {
		var track *Track
		switch s.MediaType {
		case MediaVideo:
			track = clip.VideoTrack
		case MediaAudio:
			track = clip.AudioTrack
		default:
			continue // the synthetic ID3 stream has no per-clip track
		}
		if track == nil || track.FirstPart == nil {
			continue
		}
		s.CurPart = *track.FirstPart
		s.CurFrame = 0
		s.Source = clip
		s.Info = track.Info
		s.IsFirstSegmentFrame = true
	}
}
