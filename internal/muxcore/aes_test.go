package muxcore

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESWriteThroughRoundTrip(t *testing.T) {
	var key, iv [16]byte
	for i := range key {
		key[i] = byte(i)
		iv[i] = byte(0xF0 + i%16)
	}

	var cipherOut []byte
	w, err := NewAESWriteThrough(key, iv, func(buf []byte) error {
		cipherOut = append(cipherOut, buf...)
		return nil
	})
	require.NoError(t, err)

	plain := []byte("this is a plaintext segment payload that is not block aligned!!")
	require.NoError(t, w.Write(plain[:20]))
	require.NoError(t, w.Write(plain[20:]))
	require.NoError(t, w.Flush())

	require.Equal(t, AESRoundedSize(int64(len(plain))), int64(len(cipherOut)))

	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	mode := cipher.NewCBCDecrypter(block, iv[:])
	decrypted := make([]byte, len(cipherOut))
	mode.CryptBlocks(decrypted, cipherOut)

	assert.Equal(t, plain, decrypted[:len(plain)])
	for _, b := range decrypted[len(plain):] {
		assert.Equal(t, byte(0), b)
	}
}

func TestAESRoundedSize(t *testing.T) {
	assert.Equal(t, int64(16), AESRoundedSize(1))
	assert.Equal(t, int64(16), AESRoundedSize(16))
	assert.Equal(t, int64(32), AESRoundedSize(17))
	assert.Equal(t, int64(0), AESRoundedSize(0))
}
