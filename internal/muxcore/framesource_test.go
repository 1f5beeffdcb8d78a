package muxcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySourceReadsWholeFrame(t *testing.T) {
	data := []byte("0123456789")
	src := NewMemorySource(data)

	require.NoError(t, src.StartFrame(InputFrame{Offset: 2, Size: 5}, 0))
	res, err := src.Read()
	require.NoError(t, err)
	assert.True(t, res.FrameDone)
	assert.Equal(t, "23456", string(res.Buf))
}

func TestMemorySourceRejectsOutOfRangeFrame(t *testing.T) {
	src := NewMemorySource([]byte("short"))
	require.NoError(t, src.StartFrame(InputFrame{Offset: 0, Size: 100}, 0))
	_, err := src.Read()
	assert.ErrorIs(t, err, ErrUnexpected)
}

type fakeCacheReader struct {
	chunks [][]byte
	idx    int
}

func (f *fakeCacheReader) FetchAt(offset int64, size uint32, minOffsetHint int64) ([]byte, bool) {
	if f.idx >= len(f.chunks) {
		return nil, false
	}
	c := f.chunks[f.idx]
	f.idx++
	return c, true
}

func TestCacheSourceSuspendsUntilReady(t *testing.T) {
	reader := &fakeCacheReader{chunks: [][]byte{[]byte("ab"), []byte("cd")}}
	src := NewCacheSource(reader)

	require.NoError(t, src.StartFrame(InputFrame{Offset: 0, Size: 4}, 0))

	res, err := src.Read()
	require.NoError(t, err)
	assert.False(t, res.FrameDone)
	assert.Equal(t, "ab", string(res.Buf))

	res, err = src.Read()
	require.NoError(t, err)
	assert.True(t, res.FrameDone)
	assert.Equal(t, "cd", string(res.Buf))
}

func TestCacheSourceReturnsAgainWhenNothingReady(t *testing.T) {
	reader := &fakeCacheReader{}
	src := NewCacheSource(reader)
	require.NoError(t, src.StartFrame(InputFrame{Offset: 0, Size: 4}, 0))

	_, err := src.Read()
	assert.ErrorIs(t, err, ErrAgain)
}
