package muxcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferFilterAccumulatesUntilForced(t *testing.T) {
	rec := &recordingFilter{}
	f := newBufferFilter(rec)

	require.NoError(t, f.StartFrame(OutputFrame{DTS: 10}))
	require.NoError(t, f.Write([]byte{1, 2, 3}))
	require.NoError(t, f.FlushFrame(false))
	assert.Empty(t, rec.writes)
	assert.Equal(t, int64(10), f.GetDTS())

	require.NoError(t, f.ForceFlush(false))
	require.Len(t, rec.writes, 1)
	assert.Equal(t, []byte{1, 2, 3}, rec.writes[0])
	assert.Equal(t, int64(-1), f.GetDTS())
}

func TestBufferFilterFlushesOnLast(t *testing.T) {
	rec := &recordingFilter{}
	f := newBufferFilter(rec)

	require.NoError(t, f.StartFrame(OutputFrame{DTS: 0}))
	require.NoError(t, f.Write([]byte{9}))
	require.NoError(t, f.FlushFrame(true))

	require.Len(t, rec.writes, 1)
	assert.True(t, rec.flushed)
}

func TestBufferFilterForcesAtSizeThreshold(t *testing.T) {
	rec := &recordingFilter{}
	f := newBufferFilter(rec)

	require.NoError(t, f.StartFrame(OutputFrame{DTS: 0}))
	require.NoError(t, f.Write(make([]byte, DefaultPESPayloadSize)))
	require.NoError(t, f.FlushFrame(false))

	require.Len(t, rec.writes, 1)
	assert.Len(t, rec.writes[0], DefaultPESPayloadSize)
}
