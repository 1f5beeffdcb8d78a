package muxcore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBufferQueueSendRespectsMinOffset(t *testing.T) {
	var delivered [][]byte
	q := NewWriteBufferQueue(func(buf []byte) error {
		delivered = append(delivered, append([]byte{}, buf...))
		return nil
	})

	q.Append([]byte("aaa"))
	q.Append([]byte("bb"))
	q.Append([]byte("c"))
	require.Equal(t, int64(6), q.CurOffset())

	require.NoError(t, q.Send(3))
	require.Len(t, delivered, 1)
	assert.Equal(t, "aaa", string(delivered[0]))

	require.NoError(t, q.Send(5))
	require.Len(t, delivered, 2)
	assert.Equal(t, "bb", string(delivered[1]))

	require.NoError(t, q.Flush())
	require.Len(t, delivered, 3)
	assert.Equal(t, "c", string(delivered[2]))
}

func TestWriteBufferQueueSendStopsOnCallbackError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	q := NewWriteBufferQueue(func(buf []byte) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})

	q.Append([]byte("a"))
	q.Append([]byte("b"))
	q.Append([]byte("c"))

	err := q.Send(3)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)

	// The buffer that failed stays pending; a retry with a working
	// callback should still deliver it plus everything after it.
	delivered := 0
	q.callback = func(buf []byte) error {
		delivered++
		return nil
	}
	require.NoError(t, q.Flush())
	assert.Equal(t, 2, delivered)
}

func TestWriteBufferQueueIgnoresEmptyAppend(t *testing.T) {
	q := NewWriteBufferQueue(func([]byte) error { return nil })
	q.Append(nil)
	assert.Equal(t, int64(0), q.CurOffset())
}
