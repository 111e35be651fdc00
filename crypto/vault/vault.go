package vault

import (
	"context"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/cryptoseal/cryptoseal/crypto/kdf"
	"github.com/cryptoseal/cryptoseal/generator/randomness"
)

// Encrypt reads exactly size bytes from src, encrypts them under passphrase,
// and writes a complete artifact to dst following the layout in codec.go.
// header carries the caller-supplied metadata (original name, extension,
// directory flag, sizes); its CompressedSize field is overwritten with size
// before use.
func Encrypt(ctx context.Context, dst io.Writer, src io.Reader, size int64, passphrase []byte, header Header, opts ...Option) (*Header, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: size must not be negative", ErrInvalidInput)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.uuid != "" {
		header.UUID = o.uuid
	}
	header.CompressedSize = size

	kp, salt, err := kdf.Derive(passphrase, nil, o.kdfParams)
	if err != nil {
		return nil, mapKDFErr(err)
	}
	defer kp.Destroy()

	mac := hmac.New(sha256.New, kp.Mac.Bytes())
	mw := io.MultiWriter(dst, mac)

	if _, err := dst.Write(magic[:]); err != nil {
		return nil, fmt.Errorf("%w: writing magic: %v", ErrIO, err)
	}
	if _, err := mac.Write(magic[:]); err != nil {
		return nil, fmt.Errorf("%w: updating mac with magic: %v", ErrInternal, err)
	}
	if err := writeFramed(dst, mac, []byte{version}); err != nil {
		return nil, err
	}
	if err := writeFramed(dst, mac, salt); err != nil {
		return nil, err
	}

	headerPlain, err := header.marshal()
	if err != nil {
		return nil, err
	}
	if len(headerPlain) > maxHeaderLen {
		return nil, fmt.Errorf("%w: serialized header length %d exceeds %d", ErrInvalidInput, len(headerPlain), maxHeaderLen)
	}

	headerAEAD, err := chacha20poly1305.NewX(kp.Enc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: initializing header aead: %v", ErrInternal, err)
	}
	headerNonce, err := randomness.Bytes(nonceLen)
	if err != nil {
		return nil, fmt.Errorf("%w: generating header nonce: %v", ErrInternal, err)
	}
	headerSealed := headerAEAD.Seal(nil, headerNonce, headerPlain, nil)
	headerCiphertext := headerSealed[:len(headerSealed)-tagLen]
	headerTag := headerSealed[len(headerSealed)-tagLen:]

	if err := writeFramed(dst, mac, headerNonce); err != nil {
		return nil, err
	}
	if err := writeFramed(dst, mac, putUint32(uint32(len(headerCiphertext)))); err != nil {
		return nil, err
	}
	if err := writeFramed(dst, mac, headerCiphertext); err != nil {
		return nil, err
	}
	if err := writeFramed(dst, mac, headerTag); err != nil {
		return nil, err
	}

	if err := writeFramed(dst, mac, putUint32(o.chunkSize)); err != nil {
		return nil, err
	}
	chunkCount := expectedChunkCount(size, o.chunkSize)
	if err := writeFramed(dst, mac, putInt64(chunkCount)); err != nil {
		return nil, err
	}

	payloadAEAD, err := chacha20poly1305.NewX(kp.Enc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: initializing payload aead: %v", ErrInternal, err)
	}

	if err := encryptChunks(ctx, mw, payloadAEAD, src, size, o); err != nil {
		return nil, err
	}

	sum := mac.Sum(nil)
	if _, err := dst.Write(sum); err != nil {
		return nil, fmt.Errorf("%w: writing trailing mac: %v", ErrIO, err)
	}

	header.CompressedSize = size
	return &header, nil
}

// encryptChunks implements the "read into growable buffer; when >= chunk
// size, emit one chunk" pipeline, bounding memory at O(chunk size)
// regardless of the total payload length. Each sealed chunk is written to mw
// (a writer that also feeds the running whole-file MAC).
func encryptChunks(ctx context.Context, mw io.Writer, aead cipher.AEAD, src io.Reader, total int64, o *options) error {
	chunkSize := int(o.chunkSize)
	buf := make([]byte, 0, chunkSize)
	tmp := make([]byte, chunkSize)
	var processed int64
	src = io.LimitReader(src, total)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("vault: encryption cancelled: %w", err)
		}

		for len(buf) < chunkSize {
			n, err := src.Read(tmp[:chunkSize-len(buf)])
			if n > 0 {
				buf = append(buf, tmp[:n]...)
			}
			if err != nil {
				if err == io.EOF {
					goto drain
				}
				return fmt.Errorf("%w: reading plaintext: %v", ErrIO, err)
			}
		}

		if err := emitChunk(mw, aead, buf[:chunkSize]); err != nil {
			return err
		}
		processed += int64(chunkSize)
		o.report(processed, total)
		zero(buf[:chunkSize])
		buf = buf[:copy(buf, buf[chunkSize:])]
	}

drain:
	if len(buf) > 0 {
		if err := emitChunk(mw, aead, buf); err != nil {
			return err
		}
		processed += int64(len(buf))
		o.report(processed, total)
		zero(buf)
	}
	if processed != total {
		return fmt.Errorf("%w: read %d plaintext bytes, expected %d", ErrInvalidInput, processed, total)
	}
	if total == 0 {
		o.report(0, 0)
	}
	return nil
}

func emitChunk(mw io.Writer, aead cipher.AEAD, plaintext []byte) error {
	nonce, err := randomness.Bytes(nonceLen)
	if err != nil {
		return fmt.Errorf("%w: generating chunk nonce: %v", ErrInternal, err)
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	if _, err := mw.Write(nonce); err != nil {
		return fmt.Errorf("%w: writing chunk nonce: %v", ErrIO, err)
	}
	if _, err := mw.Write(sealed); err != nil {
		return fmt.Errorf("%w: writing chunk body: %v", ErrIO, err)
	}
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Decrypt reads a complete artifact from src (size bytes), verifies it under
// passphrase, and writes the recovered plaintext payload to dst.
func Decrypt(ctx context.Context, dst io.Writer, src io.ReaderAt, size int64, passphrase []byte, opts ...Option) (*Header, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	r := io.NewSectionReader(src, 0, size)

	header, chunkSize, chunkCount, payloadAEAD, mac, kp, err := readEnvelope(r, passphrase, o)
	if err != nil {
		return nil, err
	}
	defer kp.Destroy()

	var processed int64
	for i := int64(0); i < chunkCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("vault: decryption cancelled: %w", err)
		}

		plaintextLen := chunkPlaintextLen(i, chunkCount, chunkSize, header.CompressedSize)

		nonce := make([]byte, nonceLen)
		if err := readFramed(r, mac, nonce); err != nil {
			return nil, err
		}
		body := make([]byte, int(plaintextLen)+tagLen)
		if err := readFramed(r, mac, body); err != nil {
			return nil, err
		}

		plaintext, err := payloadAEAD.Open(nil, nonce, body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d", ErrAuthFailure, i)
		}
		if _, err := dst.Write(plaintext); err != nil {
			return nil, fmt.Errorf("%w: writing plaintext: %v", ErrIO, err)
		}

		processed += plaintextLen
		o.report(processed, header.CompressedSize)
	}
	if chunkCount == 0 {
		o.report(0, 0)
	}

	storedMAC := make([]byte, hmacLen)
	if _, err := io.ReadFull(r, storedMAC); err != nil {
		return nil, fmt.Errorf("%w: reading trailing mac: %v", ErrCorrupt, err)
	}
	computed := mac.Sum(nil)
	if subtle.ConstantTimeCompare(storedMAC, computed) != 1 {
		return nil, fmt.Errorf("%w: whole-file mac mismatch", ErrAuthFailure)
	}

	return header, nil
}

// ReadHeader opens the artifact and returns its parsed header without
// touching the chunk stream or the trailing MAC (spec §4.6). It still
// requires the passphrase since the header is AEAD-protected.
func ReadHeader(src io.ReaderAt, size int64, passphrase []byte) (*Header, error) {
	r := io.NewSectionReader(src, 0, size)
	header, _, _, _, _, kp, err := readEnvelope(r, passphrase, defaultOptions())
	if err != nil {
		return nil, err
	}
	kp.Destroy()
	return header, nil
}

// readEnvelope implements steps 1-7 of the decryption algorithm: magic,
// version, salt, key derivation, header decrypt, chunk framing fields. It is
// shared between Decrypt and ReadHeader.
func readEnvelope(r io.Reader, passphrase []byte, o *options) (header *Header, chunkSize uint32, chunkCount int64, payloadAEAD cipher.AEAD, mac hash.Hash, kp *kdf.KeyPair, err error) {
	var gotMagic [4]byte
	if _, err = io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: truncated artifact: %v", ErrCorrupt, err)
	}
	if gotMagic != magic {
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	var gotVersion [1]byte
	if _, err = io.ReadFull(r, gotVersion[:]); err != nil {
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: truncated artifact: %v", ErrCorrupt, err)
	}
	if gotVersion[0] != version {
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, gotVersion[0])
	}

	salt := make([]byte, kdf.SaltLen)
	if _, err = io.ReadFull(r, salt); err != nil {
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: truncated artifact: %v", ErrCorrupt, err)
	}

	kp, _, err = kdf.Derive(passphrase, salt, o.kdfParams)
	if err != nil {
		return nil, 0, 0, nil, nil, nil, mapKDFErr(err)
	}

	mac = hmac.New(sha256.New, kp.Mac.Bytes())
	mac.Write(gotMagic[:])
	mac.Write(gotVersion[:])
	mac.Write(salt)

	headerNonce := make([]byte, nonceLen)
	if err = readFramed(r, mac, headerNonce); err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, err
	}

	var headerLenRaw [4]byte
	if err = readFramed(r, mac, headerLenRaw[:]); err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, err
	}
	headerLen := beUint32(headerLenRaw[:])
	if headerLen > maxHeaderLen {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: header length %d exceeds %d", ErrCorrupt, headerLen, maxHeaderLen)
	}

	headerCiphertext := make([]byte, headerLen)
	if err = readFramed(r, mac, headerCiphertext); err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, err
	}
	headerTag := make([]byte, tagLen)
	if err = readFramed(r, mac, headerTag); err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, err
	}

	headerAEAD, err := chacha20poly1305.NewX(kp.Enc.Bytes())
	if err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: initializing header aead: %v", ErrInternal, err)
	}
	headerPlain, err := headerAEAD.Open(nil, headerNonce, append(append([]byte{}, headerCiphertext...), headerTag...), nil)
	if err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: header tag mismatch", ErrAuthFailure)
	}

	header, err = unmarshalHeader(headerPlain)
	if err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, err
	}

	var chunkSizeRaw [4]byte
	if err = readFramed(r, mac, chunkSizeRaw[:]); err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, err
	}
	chunkSize = beUint32(chunkSizeRaw[:])

	var chunkCountRaw [8]byte
	if err = readFramed(r, mac, chunkCountRaw[:]); err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, err
	}
	chunkCount = beInt64(chunkCountRaw[:])

	// chunk_size/chunk_count sit in the region the trailing HMAC only
	// authenticates after the whole chunk loop has run, so a single
	// corrupted bit here must never reach the division in
	// chunkPlaintextLen as a live chunkSize of 0.
	if chunkSize == 0 {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: chunk_size must not be zero", ErrCorrupt)
	}
	if want := expectedChunkCount(header.CompressedSize, chunkSize); chunkCount != want {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: chunk_count %d does not match expected %d for compressed size %d", ErrCorrupt, chunkCount, want, header.CompressedSize)
	}

	payloadAEAD, err = chacha20poly1305.NewX(kp.Enc.Bytes())
	if err != nil {
		kp.Destroy()
		return nil, 0, 0, nil, nil, nil, fmt.Errorf("%w: initializing payload aead: %v", ErrInternal, err)
	}

	return header, chunkSize, chunkCount, payloadAEAD, mac, kp, nil
}

func mapKDFErr(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
