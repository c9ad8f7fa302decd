// Package hasher computes streaming content digests and verifies byte equality.
package hasher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// DefaultChunkSize is the read size used for hashing and verification
const DefaultChunkSize = 64 * 1024

// Hasher reads files in fixed-size chunks. It is safe for concurrent use.
type Hasher struct {
	chunkSize int
	buffers   sync.Pool
}

// New creates a Hasher with DefaultChunkSize
func New() *Hasher {
	return NewWithChunkSize(DefaultChunkSize)
}

// NewWithChunkSize creates a Hasher reading chunkSize bytes at a time
func NewWithChunkSize(chunkSize int) *Hasher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	h := &Hasher{chunkSize: chunkSize}
	h.buffers.New = func() interface{} {
		b := make([]byte, h.chunkSize)
		return &b
	}
	return h
}

// ChunkSize returns the configured chunk size
func (h *Hasher) ChunkSize() int {
	return h.chunkSize
}

// HashFile computes the SHA-256 digest of a file, hex encoded
func (h *Hasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	bufPtr := h.buffers.Get().(*[]byte)
	defer h.buffers.Put(bufPtr)
	buf := *bufPtr

	digest := sha256.New()
	for {
		n, err := file.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Equal reports whether two files have identical length and bytes.
// Both files are read in lockstep, one chunk at a time.
func (h *Hasher) Equal(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	ia, err := fa.Stat()
	if err != nil {
		return false, err
	}
	ib, err := fb.Stat()
	if err != nil {
		return false, err
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}

	bufA := make([]byte, h.chunkSize)
	bufB := make([]byte, h.chunkSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)

		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}

		doneA := isEnd(errA)
		doneB := isEnd(errB)
		if errA != nil && !doneA {
			return false, fmt.Errorf("read %s: %w", a, errA)
		}
		if errB != nil && !doneB {
			return false, fmt.Errorf("read %s: %w", b, errB)
		}
		if doneA || doneB {
			return doneA == doneB, nil
		}
	}
}

func isEnd(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
