package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/hlsmux/internal/codec"
)

func TestBuildMasterPlaylistMuxedVariant(t *testing.T) {
	variants := []Variant{
		{URI: "video_720p/index.m3u8", Bandwidth: 2500000, Width: 1280, Height: 720, VideoCodec: codec.VideoH264, AudioCodec: codec.AudioAAC},
	}

	out, err := BuildMasterPlaylist(variants, nil, DefaultMasterConfig())
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "#EXT-X-STREAM-INF:BANDWIDTH=2500000,CODECS=\"avc1.64001f,mp4a.40.2\",RESOLUTION=1280x720\n")
	assert.Contains(t, text, "video_720p/index.m3u8\n")
	assert.NotContains(t, text, "AUDIO=")
}

func TestBuildMasterPlaylistSeparateAudio(t *testing.T) {
	audio := []AudioRendition{
		{GroupID: "audio", Name: "English", Language: "en", URI: "audio_en/index.m3u8", Default: true, Autoselect: true, Channels: "2"},
	}
	variants := []Variant{
		{URI: "video_720p/index.m3u8", Bandwidth: 2500000, Width: 1280, Height: 720, VideoCodec: codec.VideoH264, AudioGroupID: "audio"},
	}

	out, err := BuildMasterPlaylist(variants, audio, DefaultMasterConfig())
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, `#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="audio",NAME="English",LANGUAGE="en",DEFAULT=YES,AUTOSELECT=YES,CHANNELS="2",URI="audio_en/index.m3u8"`)
	assert.Contains(t, text, `AUDIO="audio"`)
}
