package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVideo(t *testing.T) {
	cases := []struct {
		in   string
		want Video
		ok   bool
	}{
		{"h264", VideoH264, true},
		{"AVC1", VideoH264, true},
		{"hvc1", VideoH265, true},
		{" h.265 ", VideoH265, true},
		{"vp09", VideoVP9, true},
		{"av01", VideoAV1, true},
		{"", "", false},
		{"mjpeg", "", false},
	}
	for _, c := range cases {
		got, ok := ParseVideo(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.Equal(t, c.want, got, c.in)
		}
	}
}

func TestParseAudio(t *testing.T) {
	cases := []struct {
		in   string
		want Audio
		ok   bool
	}{
		{"aac", AudioAAC, true},
		{"MP4A", AudioAAC, true},
		{"ac-3", AudioAC3, true},
		{"ec-3", AudioEAC3, true},
		{"libopus", AudioOpus, true},
		{"", "", false},
		{"flac", "", false},
	}
	for _, c := range cases {
		got, ok := ParseAudio(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.Equal(t, c.want, got, c.in)
		}
	}
}

func TestNormalizeHLSCodec(t *testing.T) {
	assert.Equal(t, "h264", NormalizeHLSCodec("avc1.64001f"))
	assert.Equal(t, "h265", NormalizeHLSCodec("hev1.1.6.L93.90"))
	assert.Equal(t, "aac", NormalizeHLSCodec("mp4a.40.2"))
	assert.Equal(t, "vp9", NormalizeHLSCodec("vp09.00.10.08"))
	assert.Equal(t, "av1", NormalizeHLSCodec("av01.0.04M.08"))
	assert.Equal(t, "h264", NormalizeHLSCodec("avc3.42001f"))
	assert.Equal(t, "", NormalizeHLSCodec(""))
	assert.Equal(t, "unknown", NormalizeHLSCodec("unknown"))
}

func TestVideoMatch(t *testing.T) {
	assert.True(t, VideoMatch("h264", "avc1.64001f"))
	assert.False(t, VideoMatch("h264", "h265"))
	assert.False(t, VideoMatch("h264", "bogus"))
}

func TestAudioMatch(t *testing.T) {
	assert.True(t, AudioMatch("aac", "mp4a"))
	assert.False(t, AudioMatch("aac", "mp3"))
}

func TestIsFMP4Only(t *testing.T) {
	assert.False(t, VideoH264.IsFMP4Only())
	assert.False(t, VideoH265.IsFMP4Only())
	assert.True(t, VideoVP9.IsFMP4Only())
	assert.True(t, VideoAV1.IsFMP4Only())

	assert.False(t, AudioAAC.IsFMP4Only())
	assert.True(t, AudioOpus.IsFMP4Only())

	assert.False(t, Video("bogus").IsFMP4Only())
}

func TestMPEGTSStreamType(t *testing.T) {
	assert.Equal(t, StreamTypeH264, VideoH264.MPEGTSStreamType())
	assert.Equal(t, StreamTypeH265, VideoH265.MPEGTSStreamType())
	assert.Equal(t, uint8(0), VideoVP9.MPEGTSStreamType())

	assert.Equal(t, StreamTypeAAC, AudioAAC.MPEGTSStreamType())
	assert.Equal(t, StreamTypeAC3, AudioAC3.MPEGTSStreamType())
	assert.Equal(t, StreamTypeEAC3, AudioEAC3.MPEGTSStreamType())
	assert.Equal(t, StreamTypeMP3, AudioMP3.MPEGTSStreamType())
	assert.Equal(t, uint8(0), AudioOpus.MPEGTSStreamType())
}

func TestSampleAESCompatible(t *testing.T) {
	assert.True(t, AudioAAC.SampleAESCompatible())
	assert.False(t, AudioMP3.SampleAESCompatible())
	assert.False(t, AudioAC3.SampleAESCompatible())
	assert.False(t, AudioEAC3.SampleAESCompatible())
	assert.False(t, AudioOpus.SampleAESCompatible())
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "h264", VideoH264.String())
	assert.Equal(t, "aac", AudioAAC.String())
	assert.Equal(t, "mpegts", ContainerMPEGTS.String())
}
