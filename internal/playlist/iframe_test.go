package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/hlsmux/internal/muxcore"
)

func TestBuildIFramePlaylist(t *testing.T) {
	records := []muxcore.IFrameRecord{
		{SegmentIndex: 0, DurationMillis: 2000, ByteStart: 188, ByteSize: 940},
		{SegmentIndex: 0, DurationMillis: 1000, ByteStart: 4512, ByteSize: 752},
	}

	out, err := BuildIFramePlaylist(records, DefaultIFrameConfig())
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "#EXT-X-VERSION:3\n")
	assert.Contains(t, text, "#EXT-X-I-FRAMES-ONLY\n")
	assert.Contains(t, text, "#EXT-X-BYTERANGE:940@188\n")
	assert.Contains(t, text, "#EXT-X-BYTERANGE:752@4512\n")
	assert.Contains(t, text, "segment-1.ts\n")
}

func TestBuildIFramePlaylistVersion5(t *testing.T) {
	conf := DefaultIFrameConfig()
	conf.Version5 = true

	out, err := BuildIFramePlaylist(nil, conf)
	require.NoError(t, err)
	assert.Contains(t, string(out), "#EXT-X-VERSION:5\n")
}
