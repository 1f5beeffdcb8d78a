package muxcore

import (
	"log/slog"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"

	"github.com/streamforge/hlsmux/internal/codec"
)

// MediaType distinguishes the three kinds of stream a track or StreamState
// can carry.
type MediaType int

const (
	MediaNone MediaType = iota
	MediaVideo
	MediaAudio
)

// EncryptionType selects the segment-wide encryption scheme, if any.
type EncryptionType int

const (
	EncryptionNone EncryptionType = iota
	EncryptionAES128
	EncryptionSampleAES
)

// EncryptionParams mirrors the host-supplied encryption configuration.
type EncryptionParams struct {
	Type   EncryptionType
	Key    [16]byte
	IV     [16]byte
	KeyURI string
}

// MuxerConf carries the host-supplied tuning flags.
type MuxerConf struct {
	InterleaveFrames   bool
	AlignFrames        bool
	OutputID3Timestamp bool

	// Logger receives structured progress/suspension events for one
	// segment's production, defaulting to slog.Default() when nil —
	// matches tvarr's TSMuxerConfig.Logger/HLSMuxerConfig.Logger
	// convention of a Logger field on every long-lived component config.
	Logger *slog.Logger
}

func (c MuxerConf) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// InputFrame describes one coded frame in a track's frame table. Durations
// and offsets are in the track's ingest timescale; the muxer rescales them
// into HLS ticks as frames are consumed.
type InputFrame struct {
	Size     uint32
	Duration int64
	PTSDelay int64
	KeyFrame bool
	Offset   int64
}

// FramePart is a contiguous run of a track's frames bound to one source clip
// and one frames source. The scheduler and StreamState copy FramePart by
// value when advancing, so the MediaSet itself is never mutated.
type FramePart struct {
	FirstFrame int
	LastFrame  int
	Frames     []InputFrame
	Source     FramesSource
	Clip       *Clip
	Next       *FramePart
}

// MediaInfo carries per-track codec identity needed by the filter chain.
type MediaInfo struct {
	VideoCodec codec.Video
	AudioCodec codec.Audio
	AACConfig  *mpeg4audio.AudioSpecificConfig
	Extradata  []byte
	Timescale  int64 // ingest timescale frame durations/offsets are expressed in
}

// Track is one elementary stream within a Clip.
type Track struct {
	MediaType MediaType
	Info      MediaInfo
	FirstPart *FramePart
}

// Clip is one source-file span within a MediaSet.
type Clip struct {
	VideoTrack          *Track
	AudioTrack          *Track
	ClipStartTime       int64 // HLS ticks, relative to the media set
	FirstFrameTimeOffset int64
	ClipFromFrameOffset int64
}

// SegmentDurationItem describes one run of identical-duration segments in a
// media set's segment-duration table, as consumed by the I-frame walker and
// the index playlist builder.
type SegmentDurationItem struct {
	DurationMillis int64
	RepeatCount    int
	Discontinuity  bool
	SegmentIndex   int
}

// MediaSet is the pre-parsed input the muxer drives: an ordered list of
// clips plus the flags governing how they're stitched together.
type MediaSet struct {
	Clips            []*Clip
	UseDiscontinuity bool
	SegmentDurations []SegmentDurationItem
	PresentationEnd  bool
}
