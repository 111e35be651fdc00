package vault

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/cryptoseal/cryptoseal/crypto/kdf"
	"github.com/cryptoseal/cryptoseal/generator/randomness"
)

// EncryptBytes seals data as a single AEAD operation rather than a chunk
// stream. It shares magic, version, salt, and trailing HMAC with the chunked
// format but diverges after the header tag: there is no chunk_size or
// chunk_count field, just one sealed payload. Artifacts produced by
// EncryptBytes MUST only be opened with DecryptBytes, never with Decrypt.
func EncryptBytes(data, passphrase []byte, header Header, opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.uuid != "" {
		header.UUID = o.uuid
	}
	header.CompressedSize = int64(len(data))

	kp, salt, err := kdf.Derive(passphrase, nil, o.kdfParams)
	if err != nil {
		return nil, mapKDFErr(err)
	}
	defer kp.Destroy()

	mac := hmac.New(sha256.New, kp.Mac.Bytes())
	var out []byte
	emit := func(b []byte) {
		out = append(out, b...)
		mac.Write(b)
	}

	emit(magic[:])
	emit([]byte{version})
	emit(salt)

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

	emit(headerNonce)
	emit(putUint32(uint32(len(headerCiphertext))))
	emit(headerCiphertext)
	emit(headerTag)

	payloadAEAD, err := chacha20poly1305.NewX(kp.Enc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: initializing payload aead: %v", ErrInternal, err)
	}
	payloadNonce, err := randomness.Bytes(nonceLen)
	if err != nil {
		return nil, fmt.Errorf("%w: generating payload nonce: %v", ErrInternal, err)
	}
	payloadSealed := payloadAEAD.Seal(nil, payloadNonce, data, nil)

	emit(payloadNonce)
	emit(payloadSealed)

	out = append(out, mac.Sum(nil)...)
	return out, nil
}

// DecryptBytes reverses EncryptBytes. It always derives keys with
// kdf.DefaultParams(), so an artifact sealed by EncryptBytes under
// WithKDFParams with other parameters fails with ErrAuthFailure.
func DecryptBytes(artifact, passphrase []byte) ([]byte, error) {
	if len(artifact) < len(magic)+1+kdf.SaltLen+hmacLen {
		return nil, fmt.Errorf("%w: artifact too short", ErrCorrupt)
	}

	pos := 0
	read := func(n int) ([]byte, error) {
		if pos+n > len(artifact)-hmacLen {
			return nil, fmt.Errorf("%w: truncated artifact", ErrCorrupt)
		}
		b := artifact[pos : pos+n]
		pos += n
		return b, nil
	}

	gotMagic, err := read(4)
	if err != nil {
		return nil, err
	}
	if string(gotMagic) != string(magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	gotVersion, err := read(1)
	if err != nil {
		return nil, err
	}
	if gotVersion[0] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, gotVersion[0])
	}
	salt, err := read(kdf.SaltLen)
	if err != nil {
		return nil, err
	}

	kp, _, err := kdf.Derive(passphrase, salt, kdf.DefaultParams())
	if err != nil {
		return nil, mapKDFErr(err)
	}
	defer kp.Destroy()

	mac := hmac.New(sha256.New, kp.Mac.Bytes())

	headerNonce, err := read(nonceLen)
	if err != nil {
		return nil, err
	}
	headerLenRaw, err := read(4)
	if err != nil {
		return nil, err
	}
	headerLen := beUint32(headerLenRaw)
	if headerLen > maxHeaderLen {
		return nil, fmt.Errorf("%w: header length %d exceeds %d", ErrCorrupt, headerLen, maxHeaderLen)
	}
	headerCiphertext, err := read(int(headerLen))
	if err != nil {
		return nil, err
	}
	headerTag, err := read(tagLen)
	if err != nil {
		return nil, err
	}

	headerAEAD, err := chacha20poly1305.NewX(kp.Enc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: initializing header aead: %v", ErrInternal, err)
	}
	headerPlain, err := headerAEAD.Open(nil, headerNonce, append(append([]byte{}, headerCiphertext...), headerTag...), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: header tag mismatch", ErrAuthFailure)
	}
	if _, err := unmarshalHeader(headerPlain); err != nil {
		return nil, err
	}

	payloadNonce, err := read(nonceLen)
	if err != nil {
		return nil, err
	}
	payloadSealed := artifact[pos : len(artifact)-hmacLen]
	pos = len(artifact) - hmacLen
	storedMAC := artifact[pos:]

	mac.Write(gotMagic)
	mac.Write(gotVersion)
	mac.Write(salt)
	mac.Write(headerNonce)
	mac.Write(headerLenRaw)
	mac.Write(headerCiphertext)
	mac.Write(headerTag)
	mac.Write(payloadNonce)
	mac.Write(payloadSealed)

	if subtle.ConstantTimeCompare(storedMAC, mac.Sum(nil)) != 1 {
		return nil, fmt.Errorf("%w: whole-file mac mismatch", ErrAuthFailure)
	}

	payloadAEAD, err := chacha20poly1305.NewX(kp.Enc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: initializing payload aead: %v", ErrInternal, err)
	}
	plaintext, err := payloadAEAD.Open(nil, payloadNonce, payloadSealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: payload tag mismatch", ErrAuthFailure)
	}

	return plaintext, nil
}
