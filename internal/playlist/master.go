package playlist

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/streamforge/hlsmux/internal/codec"
)

// AudioRendition is one alternate (non-muxed) audio track offered via
// #EXT-X-MEDIA, independent of any video variant.
type AudioRendition struct {
	GroupID    string
	Name       string
	Language   string
	URI        string
	Default    bool
	Autoselect bool
	Channels   string // e.g. "2", "6" — empty to omit
}

// Variant is one video (or video+audio) rendition offered via
// #EXT-X-STREAM-INF.
type Variant struct {
	URI        string
	Bandwidth  int
	Width      int
	Height     int
	VideoCodec codec.Video
	AudioCodec codec.Audio // zero value means video-only variant

	// AudioGroupID, when non-empty, references an AudioRendition.GroupID
	// carrying this variant's audio as a separate rendition (the "else
	// separate variants" half of the muxed-preferred rule); leave empty
	// when this variant's segments already mux its own audio in-band.
	AudioGroupID string
}

func (v Variant) codecsAttr() string {
	var parts []string
	if v.VideoCodec != "" {
		parts = append(parts, videoRFC6381(v.VideoCodec))
	}
	if v.AudioCodec != "" {
		parts = append(parts, audioRFC6381(v.AudioCodec))
	}
	return strings.Join(parts, ",")
}

// videoRFC6381/audioRFC6381 produce the CODECS attribute tokens HLS clients
// expect; this core doesn't carry full codec profile/level/object-type
// metadata (that lives with the ingest side, out of scope here), so these
// emit the common default tokens per codec family.
func videoRFC6381(v codec.Video) string {
	switch v {
	case codec.VideoH265:
		return "hev1.1.6.L93.B0"
	case codec.VideoVP9:
		return "vp09.00.10.08"
	case codec.VideoAV1:
		return "av01.0.04M.08"
	default:
		return "avc1.64001f"
	}
}

func audioRFC6381(a codec.Audio) string {
	switch a {
	case codec.AudioAC3:
		return "ac-3"
	case codec.AudioEAC3:
		return "ec-3"
	case codec.AudioMP3:
		return "mp4a.40.34"
	case codec.AudioOpus:
		return "opus"
	default:
		return "mp4a.40.2"
	}
}

// MasterConfig configures BuildMasterPlaylist.
type MasterConfig struct {
	Version int
	Logger  *slog.Logger
}

// DefaultMasterConfig returns version 3, the minimum master-playlist
// version this core ever needs.
func DefaultMasterConfig() MasterConfig {
	return MasterConfig{Version: 3, Logger: slog.Default()}
}

// BuildMasterPlaylist renders the top-level playlist listing every variant
// and alternate audio rendition, mirroring
// m3u8_builder_build_master_playlist's "muxed preferred, else separate
// variants" rule: a variant with AudioGroupID set gets an AUDIO attribute
// pointing at the matching #EXT-X-MEDIA group; one with it empty is assumed
// to mux its own audio and gets no AUDIO attribute at all.
func BuildMasterPlaylist(variants []Variant, audio []AudioRendition, conf MasterConfig) ([]byte, error) {
	log := logger(conf.Logger)
	version := conf.Version
	if version == 0 {
		version = 3
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "#EXT-X-VERSION:%d\n", version)

	for _, a := range audio {
		fmt.Fprintf(&b, "#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID=\"%s\",NAME=\"%s\"", a.GroupID, a.Name)
		if a.Language != "" {
			fmt.Fprintf(&b, ",LANGUAGE=\"%s\"", a.Language)
		}
		fmt.Fprintf(&b, ",DEFAULT=%s,AUTOSELECT=%s", yesNo(a.Default), yesNo(a.Autoselect))
		if a.Channels != "" {
			fmt.Fprintf(&b, ",CHANNELS=\"%s\"", a.Channels)
		}
		fmt.Fprintf(&b, ",URI=\"%s\"\n", a.URI)
	}

	for _, v := range variants {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d", v.Bandwidth)
		if codecsAttr := v.codecsAttr(); codecsAttr != "" {
			fmt.Fprintf(&b, ",CODECS=\"%s\"", codecsAttr)
		}
		if v.Width > 0 && v.Height > 0 {
			fmt.Fprintf(&b, ",RESOLUTION=%dx%d", v.Width, v.Height)
		}
		if v.AudioGroupID != "" {
			fmt.Fprintf(&b, ",AUDIO=\"%s\"", v.AudioGroupID)
		}
		b.WriteByte('\n')
		b.WriteString(v.URI)
		b.WriteByte('\n')
	}

	log.Debug("built master playlist", "variants", len(variants), "audio_renditions", len(audio))
	return []byte(b.String()), nil
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
