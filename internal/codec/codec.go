// Package codec provides a registry of video and audio codec identities used
// by the muxing core to pick MPEG-TS stream types, decide which filter chain
// a track needs, and validate encryption/container compatibility.
package codec

import "strings"

// Video represents a video codec.
type Video string

// Video codec constants.
const (
	VideoH264 Video = "h264" // H.264/AVC
	VideoH265 Video = "h265" // H.265/HEVC
	VideoVP9  Video = "vp9"  // VP9 (fMP4 only, not muxable into MPEG-TS)
	VideoAV1  Video = "av1"  // AV1 (fMP4 only, not muxable into MPEG-TS)
)

// Audio represents an audio codec.
type Audio string

// Audio codec constants.
const (
	AudioAAC  Audio = "aac"  // AAC (ADTS-framed for MPEG-TS)
	AudioMP3  Audio = "mp3"  // MPEG-1 Layer III
	AudioAC3  Audio = "ac3"  // Dolby Digital (AC-3)
	AudioEAC3 Audio = "eac3" // Dolby Digital Plus (E-AC-3)
	AudioOpus Audio = "opus" // Opus (fMP4 only, not muxable into MPEG-TS)
)

// Container represents a media container format.
type Container string

// Container format constants.
const (
	ContainerFMP4   Container = "fmp4"   // Fragmented MP4 (CMAF) — out of scope for this core
	ContainerMPEGTS Container = "mpegts" // MPEG Transport Stream
)

// String returns the string representation of the video codec.
func (v Video) String() string { return string(v) }

// String returns the string representation of the audio codec.
func (a Audio) String() string { return string(a) }

// String returns the string representation of the container.
func (c Container) String() string { return string(c) }

// videoInfo contains metadata about a video codec.
type videoInfo struct {
	Name Video
	// All known aliases, including HLS/DASH codec-string prefixes
	Aliases []string
	// Whether this codec requires fMP4 and cannot be packaged into MPEG-TS
	FMP4Only bool
	// MPEG-TS stream type identifier (0 if not valid in MPEG-TS)
	MPEGTSStreamType uint8
}

// audioInfo contains metadata about an audio codec.
type audioInfo struct {
	Name             Audio
	Aliases          []string
	FMP4Only         bool
	MPEGTSStreamType uint8
	// SampleAESCompatible is false for audio codecs the muxer cannot
	// packetize under a SAMPLE-AES key (only AAC qualifies).
	SampleAESCompatible bool
}

// MPEG-TS stream type constants (ISO/IEC 13818-1 stream_type values, plus the
// registered HDMV/ATSC private values used for AC-3/E-AC-3).
const (
	StreamTypeH264 uint8 = 0x1B
	StreamTypeH265 uint8 = 0x24
	StreamTypeAAC  uint8 = 0x0F
	StreamTypeAC3  uint8 = 0x81
	StreamTypeEAC3 uint8 = 0x87
	StreamTypeMP3  uint8 = 0x03
)

var videoRegistry = map[Video]*videoInfo{
	VideoH264: {
		Name:             VideoH264,
		Aliases:          []string{"h264", "avc", "avc1", "avc3", "h.264"},
		FMP4Only:         false,
		MPEGTSStreamType: StreamTypeH264,
	},
	VideoH265: {
		Name:             VideoH265,
		Aliases:          []string{"h265", "hevc", "hev1", "hvc1", "h.265"},
		FMP4Only:         false,
		MPEGTSStreamType: StreamTypeH265,
	},
	VideoVP9: {
		Name:             VideoVP9,
		Aliases:          []string{"vp9", "vp09"},
		FMP4Only:         true,
		MPEGTSStreamType: 0,
	},
	VideoAV1: {
		Name:             VideoAV1,
		Aliases:          []string{"av1", "av01"},
		FMP4Only:         true,
		MPEGTSStreamType: 0,
	},
}

var audioRegistry = map[Audio]*audioInfo{
	AudioAAC: {
		Name:                AudioAAC,
		Aliases:             []string{"aac", "mp4a"},
		FMP4Only:            false,
		MPEGTSStreamType:    StreamTypeAAC,
		SampleAESCompatible: true,
	},
	AudioMP3: {
		Name:                AudioMP3,
		Aliases:             []string{"mp3", "mp3float"},
		FMP4Only:            false,
		MPEGTSStreamType:    StreamTypeMP3,
		SampleAESCompatible: false,
	},
	AudioAC3: {
		Name:                AudioAC3,
		Aliases:             []string{"ac3", "ac-3", "a52"},
		FMP4Only:            false,
		MPEGTSStreamType:    StreamTypeAC3,
		SampleAESCompatible: false,
	},
	AudioEAC3: {
		Name:                AudioEAC3,
		Aliases:             []string{"eac3", "ec-3"},
		FMP4Only:            false,
		MPEGTSStreamType:    StreamTypeEAC3,
		SampleAESCompatible: false,
	},
	AudioOpus: {
		Name:                AudioOpus,
		Aliases:             []string{"opus", "libopus"},
		FMP4Only:            true,
		MPEGTSStreamType:    0,
		SampleAESCompatible: false,
	},
}

var videoAliasIndex map[string]Video
var audioAliasIndex map[string]Audio

func init() {
	videoAliasIndex = make(map[string]Video)
	for codec, info := range videoRegistry {
		for _, alias := range info.Aliases {
			videoAliasIndex[strings.ToLower(alias)] = codec
		}
	}

	audioAliasIndex = make(map[string]Audio)
	for codec, info := range audioRegistry {
		for _, alias := range info.Aliases {
			audioAliasIndex[strings.ToLower(alias)] = codec
		}
	}
}

// ParseVideo parses a string (codec name, alias, or HLS codec-string prefix)
// to a Video codec. Returns the canonical codec and whether it was recognized.
func ParseVideo(s string) (Video, bool) {
	if s == "" {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	codec, ok := videoAliasIndex[s]
	return codec, ok
}

// ParseAudio parses a string (codec name or alias) to an Audio codec.
func ParseAudio(s string) (Audio, bool) {
	if s == "" {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	codec, ok := audioAliasIndex[s]
	return codec, ok
}

// NormalizeHLSCodec normalizes codec strings from HLS/DASH manifests
// (which carry version/profile info, e.g. "avc1.64001f", "mp4a.40.2") to
// their canonical codec name.
func NormalizeHLSCodec(name string) string {
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)

	if codec, ok := videoAliasIndex[lower]; ok {
		return string(codec)
	}
	if codec, ok := audioAliasIndex[lower]; ok {
		return string(codec)
	}

	if len(lower) >= 4 {
		switch lower[:4] {
		case "avc1", "avc3":
			return string(VideoH264)
		case "hev1", "hvc1":
			return string(VideoH265)
		case "mp4a":
			return string(AudioAAC)
		case "vp09":
			return string(VideoVP9)
		case "av01":
			return string(VideoAV1)
		case "ac-3":
			return string(AudioAC3)
		case "ec-3":
			return string(AudioEAC3)
		}
	}

	return name
}

// IsFMP4Only returns true if the video codec cannot be packaged into MPEG-TS.
func (v Video) IsFMP4Only() bool {
	info, ok := videoRegistry[v]
	return ok && info.FMP4Only
}

// IsFMP4Only returns true if the audio codec cannot be packaged into MPEG-TS.
func (a Audio) IsFMP4Only() bool {
	info, ok := audioRegistry[a]
	return ok && info.FMP4Only
}

// MPEGTSStreamType returns the MPEG-TS stream_type for the video codec, or 0
// if the codec has no valid MPEG-TS mapping.
func (v Video) MPEGTSStreamType() uint8 {
	info, ok := videoRegistry[v]
	if !ok {
		return 0
	}
	return info.MPEGTSStreamType
}

// MPEGTSStreamType returns the MPEG-TS stream_type for the audio codec, or 0
// if the codec has no valid MPEG-TS mapping.
func (a Audio) MPEGTSStreamType() uint8 {
	info, ok := audioRegistry[a]
	if !ok {
		return 0
	}
	return info.MPEGTSStreamType
}

// SampleAESCompatible reports whether a SAMPLE-AES key can be applied to this
// audio codec. Only AAC supports per-NAL/per-frame SAMPLE-AES encryption;
// every other codec must fall back to whole-segment AES-128.
func (a Audio) SampleAESCompatible() bool {
	info, ok := audioRegistry[a]
	return ok && info.SampleAESCompatible
}

// VideoMatch returns true if two video codec strings represent the same
// codec. Full HLS codec strings (e.g. "avc1.64001f") are normalized first.
func VideoMatch(a, b string) bool {
	codecA, okA := ParseVideo(NormalizeHLSCodec(a))
	codecB, okB := ParseVideo(NormalizeHLSCodec(b))
	return okA && okB && codecA == codecB
}

// AudioMatch returns true if two audio codec strings represent the same codec.
func AudioMatch(a, b string) bool {
	codecA, okA := ParseAudio(a)
	codecB, okB := ParseAudio(b)
	return okA && okB && codecA == codecB
}
