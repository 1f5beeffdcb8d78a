// Package playlist renders the HLS text playlists (media index, I-frame
// index, and master) a segment muxer's media set and simulation output
// describe. Nothing here touches a byte of segment data; it only formats
// the manifest text that points at segments the muxcore package produces.
package playlist

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/streamforge/hlsmux/internal/muxcore"
)

// SegmentNaming controls how a segment index becomes a relative URI.
type SegmentNaming struct {
	Prefix string // e.g. "segment"
	Suffix string // e.g. ".ts"
}

// DefaultSegmentNaming returns the "segment" prefix and ".ts" suffix; uri
// joins them into "segment-<dtsStart>-<duration_ms>-<N>.ts" or
// "segment-<N>.ts".
func DefaultSegmentNaming() SegmentNaming {
	return SegmentNaming{Prefix: "segment", Suffix: ".ts"}
}

// uri renders a segment's relative URL. segmentIndex is always emitted
// one-indexed (segmentIndex+1), per spec.md §4.9's literal
// "<segment_index+1>" requirement, mirroring
// m3u8_builder_append_segment_name{,_ex}. When withTiming is set (the index
// playlist), the name additionally embeds dtsStart and durationMillis —
// "<prefix>-<dtsStart>-<duration_ms>-<segment_index+1><suffix>" — matching
// m3u8_builder_append_segment_name_ex; the I-frame playlist uses the
// simpler "<prefix>-<segment_index+1><suffix>" form (m3u8_builder_
// append_segment_name), since its byte-range records already pin down the
// exact bytes and carrying dts_start/duration in the name would be
// redundant there.
func (n SegmentNaming) uri(segmentIndex int, dtsStart, durationMillis int64, withTiming bool) string {
	if withTiming {
		return fmt.Sprintf("%s-%d-%d-%d%s", n.Prefix, dtsStart, durationMillis, segmentIndex+1, n.Suffix)
	}
	return fmt.Sprintf("%s-%d%s", n.Prefix, segmentIndex+1, n.Suffix)
}

// KeyConfig carries everything needed to emit an #EXT-X-KEY tag.
type KeyConfig struct {
	Type muxcore.EncryptionType

	// KeyURI is used verbatim when non-empty. When empty and encryption is
	// active, buildKeyURI synthesizes one from BaseURL/KeyFilePrefix,
	// matching m3u8_builder_build_index_playlist's default key naming.
	KeyURI string
	BaseURL       string
	KeyFilePrefix string
	// SequenceSuffix distinguishes per-segment key files ("-f<seq>"); left
	// at 0 (no suffix) for a single key shared across the whole playlist.
	SequenceSuffix int

	KeyFormat         string // SAMPLE-AES only; empty means "identity" (omit the KEYFORMAT attribute)
	KeyFormatVersions string

	IV [16]byte
}

func (k KeyConfig) buildKeyURI() string {
	if k.KeyURI != "" {
		return k.KeyURI
	}
	prefix := k.KeyFilePrefix
	if prefix == "" {
		prefix = "key-file"
	}
	if k.SequenceSuffix > 0 {
		return fmt.Sprintf("%s%s-f%d.key", k.BaseURL, prefix, k.SequenceSuffix)
	}
	return fmt.Sprintf("%s%s.key", k.BaseURL, prefix)
}

// writeKeyTag appends an #EXT-X-KEY line, or nothing for EncryptionNone.
func writeKeyTag(b *strings.Builder, k KeyConfig) {
	switch k.Type {
	case muxcore.EncryptionNone:
		return
	case muxcore.EncryptionAES128:
		fmt.Fprintf(b, "#EXT-X-KEY:METHOD=AES-128,URI=\"%s\",IV=0x%X\n", k.buildKeyURI(), k.IV[:])
	case muxcore.EncryptionSampleAES:
		fmt.Fprintf(b, "#EXT-X-KEY:METHOD=SAMPLE-AES,URI=\"%s\"", k.buildKeyURI())
		if k.KeyFormat != "" {
			fmt.Fprintf(b, ",KEYFORMAT=\"%s\"", k.KeyFormat)
		}
		if k.KeyFormatVersions != "" {
			fmt.Fprintf(b, ",KEYFORMATVERSIONS=\"%s\"", k.KeyFormatVersions)
		}
		b.WriteByte('\n')
	}
}

// logger returns l, or the package default when l is nil — matches tvarr's
// pervasive Logger-field-defaults-to-slog.Default() convention.
func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// targetDurationSeconds returns the ceiling, in whole seconds, of the longest
// segment duration in millis — required by #EXT-X-TARGETDURATION to be an
// integer at least as large as every EXTINF it bounds.
func targetDurationSeconds(maxMillis int64) int {
	secs := int(maxMillis / 1000)
	if maxMillis%1000 != 0 {
		secs++
	}
	return secs
}

func formatExtinf(durationMillis int64) string {
	return fmt.Sprintf("%.3f", float64(durationMillis)/1000.0)
}
