package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/hlsmux/internal/muxcore"
)

func TestBuildIndexPlaylistBasic(t *testing.T) {
	ms := &muxcore.MediaSet{
		SegmentDurations: []muxcore.SegmentDurationItem{
			{DurationMillis: 6000, RepeatCount: 2, SegmentIndex: 0},
			{DurationMillis: 4000, RepeatCount: 1, SegmentIndex: 2},
		},
	}

	out, err := BuildIndexPlaylist(ms, DefaultIndexConfig())
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "#EXTM3U\n")
	assert.Contains(t, text, "#EXT-X-VERSION:3\n")
	assert.Contains(t, text, "#EXT-X-TARGETDURATION:6\n")
	assert.Contains(t, text, "#EXTINF:6.000,\nsegment-0-6000-1.ts\n")
	assert.Contains(t, text, "#EXTINF:6.000,\nsegment-6000-6000-2.ts\n")
	assert.Contains(t, text, "#EXTINF:4.000,\nsegment-12000-4000-3.ts\n")
	assert.NotContains(t, text, "#EXT-X-ENDLIST")
}

func TestBuildIndexPlaylistVODAndDiscontinuity(t *testing.T) {
	ms := &muxcore.MediaSet{
		SegmentDurations: []muxcore.SegmentDurationItem{
			{DurationMillis: 5000, RepeatCount: 1, SegmentIndex: 0},
			{DurationMillis: 5000, RepeatCount: 1, SegmentIndex: 1, Discontinuity: true},
		},
	}
	conf := DefaultIndexConfig()
	conf.PresentationEnd = true

	out, err := BuildIndexPlaylist(ms, conf)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "#EXT-X-PLAYLIST-TYPE:VOD\n")
	assert.Contains(t, text, "#EXT-X-DISCONTINUITY\n")
	assert.Contains(t, text, "#EXT-X-ENDLIST\n")
}

func TestBuildIndexPlaylistEncryptionKeyTag(t *testing.T) {
	ms := &muxcore.MediaSet{
		SegmentDurations: []muxcore.SegmentDurationItem{{DurationMillis: 2000, RepeatCount: 1}},
	}
	conf := DefaultIndexConfig()
	conf.Key = KeyConfig{
		Type:          muxcore.EncryptionAES128,
		BaseURL:       "https://example.test/",
		KeyFilePrefix: "k",
		IV:            [16]byte{0x01, 0x02},
	}

	out, err := BuildIndexPlaylist(ms, conf)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, `#EXT-X-KEY:METHOD=AES-128,URI="https://example.test/k.key",IV=0x`)
}
