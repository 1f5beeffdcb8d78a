package playlist

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/streamforge/hlsmux/internal/muxcore"
)

// IndexConfig configures BuildIndexPlaylist. Zero value is usable for an
// unencrypted, non-VOD playlist using the default segment naming scheme —
// matches tvarr's Default*Config() pattern of filling only what's missing.
type IndexConfig struct {
	Version int // 0 picks 3

	Naming SegmentNaming
	Key    KeyConfig

	// PresentationEnd appends #EXT-X-PLAYLIST-TYPE:VOD and #EXT-X-ENDLIST.
	PresentationEnd bool

	// ProgramDateTimeStart, if set, anchors #EXT-X-PROGRAM-DATE-TIME tags at
	// the first segment and at every discontinuity, offset by the running
	// dts_start accumulator.
	ProgramDateTimeStart *time.Time

	Logger *slog.Logger
}

// DefaultIndexConfig returns an unencrypted version-3 config with default
// segment naming; PresentationEnd is left false, so no
// #EXT-X-PLAYLIST-TYPE:VOD or #EXT-X-ENDLIST is emitted.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		Version: 3,
		Naming:  DefaultSegmentNaming(),
		Logger:  slog.Default(),
	}
}

// BuildIndexPlaylist renders the media (index) playlist text for one
// rendition's segment-duration table, mirroring
// m3u8_builder_build_index_playlist: EXTINF per segment, EXT-X-DISCONTINUITY
// at clip boundaries, an EXT-X-KEY line when encryption is active, and a
// strictly-accumulated integer-millisecond dts_start per segment embedded
// both in the segment URL (<prefix>-<dtsStart>-<duration_ms>-<index+1>.ts,
// per spec.md §4.9 and m3u8_builder_append_segment_name_ex) and in
// EXT-X-PROGRAM-DATE-TIME (never emitted as float seconds, to avoid drift
// across long playlists).
func BuildIndexPlaylist(ms *muxcore.MediaSet, conf IndexConfig) ([]byte, error) {
	log := logger(conf.Logger)
	if conf.Naming.Suffix == "" {
		conf.Naming = DefaultSegmentNaming()
	}
	version := conf.Version
	if version == 0 {
		version = 3
	}

	var maxMillis int64
	for _, item := range ms.SegmentDurations {
		if item.DurationMillis > maxMillis {
			maxMillis = item.DurationMillis
		}
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "#EXT-X-VERSION:%d\n", version)
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", targetDurationSeconds(maxMillis))
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")
	if conf.PresentationEnd {
		b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	}
	writeKeyTag(&b, conf.Key)

	var dtsStart int64 // strictly-integer millisecond accumulator, see doc comment
	firstSegment := true

	for _, item := range ms.SegmentDurations {
		repeat := item.RepeatCount
		if repeat < 1 {
			repeat = 1
		}
		for r := 0; r < repeat; r++ {
			discontinuity := r == 0 && item.Discontinuity
			if discontinuity && !firstSegment {
				b.WriteString("#EXT-X-DISCONTINUITY\n")
			}
			if conf.ProgramDateTimeStart != nil && (firstSegment || discontinuity) {
				pdt := conf.ProgramDateTimeStart.Add(time.Duration(dtsStart) * time.Millisecond)
				fmt.Fprintf(&b, "#EXT-X-PROGRAM-DATE-TIME:%s\n", pdt.Format("2006-01-02T15:04:05.000Z07:00"))
			}

			fmt.Fprintf(&b, "#EXTINF:%s,\n", formatExtinf(item.DurationMillis))
			b.WriteString(conf.Naming.uri(item.SegmentIndex+r, dtsStart, item.DurationMillis, true))
			b.WriteByte('\n')

			dtsStart += item.DurationMillis
			firstSegment = false
		}
	}

	if conf.PresentationEnd {
		b.WriteString("#EXT-X-ENDLIST\n")
	}

	log.Debug("built index playlist", "segments", len(ms.SegmentDurations), "dts_start_total_ms", dtsStart)
	return []byte(b.String()), nil
}
