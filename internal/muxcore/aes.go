package muxcore

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// aesBlockSize is crypto/aes.BlockSize spelled out locally so call sites
// reading this file don't need to cross-reference the stdlib package.
const aesBlockSize = aes.BlockSize

// AESWriteThrough wraps a WriteCallback with whole-segment AES-128-CBC
// encryption. It buffers input until a full 16-byte block is available,
// encrypts it into a new buffer, and forwards ciphertext to the wrapped callback — the
// queue upstream must set ReuseBuffers once this is installed, since each
// encrypted block is a freshly allocated buffer.
type AESWriteThrough struct {
	block     cipher.Block
	iv        [aesBlockSize]byte
	callback  WriteCallback
	leftover  []byte
	plainSize int64
}

// NewAESWriteThrough constructs an encrypting wrapper around cb. key and iv
// must both be 16 bytes.
func NewAESWriteThrough(key, iv [16]byte, cb WriteCallback) (*AESWriteThrough, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("constructing aes-128 cipher: %w", err)
	}
	w := &AESWriteThrough{block: block, callback: cb}
	copy(w.iv[:], iv[:])
	return w, nil
}

// Write encrypts as many full blocks of buf (prefixed by any carried-over
// leftover bytes) as it can and forwards the ciphertext downstream. Fewer
// than 16 bytes remain buffered for the next call or for Flush.
func (w *AESWriteThrough) Write(buf []byte) error {
	w.plainSize += int64(len(buf))

	data := buf
	if len(w.leftover) > 0 {
		data = append(append([]byte{}, w.leftover...), buf...)
		w.leftover = nil
	}

	full := len(data) - (len(data) % aesBlockSize)
	if full == 0 {
		w.leftover = append(w.leftover, data...)
		return nil
	}

	out := make([]byte, full)
	mode := cipher.NewCBCEncrypter(w.block, w.iv[:])
	mode.CryptBlocks(out, data[:full])
	copy(w.iv[:], out[full-aesBlockSize:])

	if full < len(data) {
		w.leftover = append(w.leftover, data[full:]...)
	}

	return w.callback(out)
}

// Flush encrypts the final partial block, if any, padding it with zero
// bytes (not PKCS#7) to the next 16-byte boundary; an already block-aligned
// stream gets no extra block — the source muxer
// rounds reported segment size the same way, so AESRoundedSize below must
// stay in lockstep with this method.
func (w *AESWriteThrough) Flush() error {
	if len(w.leftover) == 0 {
		return nil
	}
	padded := make([]byte, aesBlockSize)
	copy(padded, w.leftover)
	w.leftover = nil

	out := make([]byte, aesBlockSize)
	mode := cipher.NewCBCEncrypter(w.block, w.iv[:])
	mode.CryptBlocks(out, padded)
	copy(w.iv[:], out)

	return w.callback(out)
}

// AESRoundedSize rounds a plaintext segment size up to the next 16-byte
// block, matching what Flush actually emits.
func AESRoundedSize(plainSize int64) int64 {
	if plainSize%aesBlockSize == 0 {
		return plainSize
	}
	return plainSize + (aesBlockSize - plainSize%aesBlockSize)
}
