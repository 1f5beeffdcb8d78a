package playlist

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/streamforge/hlsmux/internal/muxcore"
)

// IFrameConfig configures BuildIFramePlaylist.
type IFrameConfig struct {
	// Version5 selects version 5 over the default 3, required whenever
	// SAMPLE-AES or a custom keyformat is configured, per
	// m3u8_builder_init_config's version-selection rule.
	Version5 bool

	Naming SegmentNaming

	PresentationEnd bool

	Logger *slog.Logger
}

// DefaultIFrameConfig returns the conventional version-3, unencrypted config
// (I-frame playlists never carry encryption — see the muxcore package's
// SimulateGetIFrames, which rejects anything but EncryptionNone).
func DefaultIFrameConfig() IFrameConfig {
	return IFrameConfig{Naming: DefaultSegmentNaming(), Logger: slog.Default()}
}

// BuildIFramePlaylist renders the I-frame (trick-play) playlist from the
// byte-range records a simulated walk produced, mirroring
// m3u8_builder_build_iframe_playlist: one EXTINF+EXT-X-BYTERANGE+URI triple
// per key-frame, all pointing back into the same segment files the regular
// media playlist already describes.
func BuildIFramePlaylist(records []muxcore.IFrameRecord, conf IFrameConfig) ([]byte, error) {
	log := logger(conf.Logger)
	if conf.Naming.Suffix == "" {
		conf.Naming = DefaultSegmentNaming()
	}
	version := 3
	if conf.Version5 {
		version = 5
	}

	var maxMillis int64
	for _, r := range records {
		if r.DurationMillis > maxMillis {
			maxMillis = r.DurationMillis
		}
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "#EXT-X-VERSION:%d\n", version)
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", targetDurationSeconds(maxMillis))
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")
	b.WriteString("#EXT-X-I-FRAMES-ONLY\n")

	for _, r := range records {
		fmt.Fprintf(&b, "#EXTINF:%s,\n", formatExtinf(r.DurationMillis))
		fmt.Fprintf(&b, "#EXT-X-BYTERANGE:%d@%d\n", r.ByteSize, r.ByteStart)
		b.WriteString(conf.Naming.uri(r.SegmentIndex, 0, 0, false))
		b.WriteByte('\n')
	}

	if conf.PresentationEnd {
		b.WriteString("#EXT-X-ENDLIST\n")
	}

	log.Debug("built I-frame playlist", "records", len(records))
	return []byte(b.String()), nil
}
