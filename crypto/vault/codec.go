package vault

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

var magic = [4]byte{'A', 'E', 'N', 'C'}

const (
	version byte = 0x01

	nonceLen = chacha20poly1305.NonceSizeX // 24
	tagLen   = chacha20poly1305.Overhead   // 16
	hmacLen  = 32

	// maxHeaderLen bounds the header_len field (spec: hard upper bound of
	// 10000 bytes; anything larger is Corrupt).
	maxHeaderLen = 10000

	// DefaultChunkSize is used when no explicit chunk size is requested.
	DefaultChunkSize = 1 << 20 // 1 MiB
)

// writeFramed writes b to w and feeds the same bytes into mac, in that
// order, matching the "write and feed-to-MAC" step pairing used throughout
// the streaming engine.
func writeFramed(w io.Writer, mac io.Writer, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if _, err := mac.Write(b); err != nil {
		return fmt.Errorf("%w: unable to update mac: %v", ErrInternal, err)
	}
	return nil
}

// readFramed reads exactly len(b) bytes from r into b and feeds them into
// mac. A short read is reported as ErrCorrupt (a truncated artifact), not
// ErrIO, since any well-formed artifact always has the declared bytes.
func readFramed(r io.Reader, mac io.Writer, b []byte) error {
	if _, err := io.ReadFull(r, b); err != nil {
		return fmt.Errorf("%w: truncated artifact: %v", ErrCorrupt, err)
	}
	if _, err := mac.Write(b); err != nil {
		return fmt.Errorf("%w: unable to update mac: %v", ErrInternal, err)
	}
	return nil
}

func beUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func beInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func putUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func putInt64(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// chunkPlaintextLen returns the expected plaintext length of chunk index i
// out of chunkCount chunks framing a payload of compressedSize bytes.
func chunkPlaintextLen(i, chunkCount int64, chunkSize uint32, compressedSize int64) int64 {
	if i < chunkCount-1 {
		return int64(chunkSize)
	}
	last := compressedSize % int64(chunkSize)
	if last == 0 {
		return int64(chunkSize)
	}
	return last
}

// expectedChunkCount computes ceil(L/C), with the spec's zero-length
// special case.
func expectedChunkCount(l int64, chunkSize uint32) int64 {
	if l == 0 {
		return 0
	}
	c := int64(chunkSize)
	return (l + c - 1) / c
}
