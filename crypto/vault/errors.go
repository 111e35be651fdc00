package vault

import "errors"

// Error kinds. Callers should branch on these with errors.Is rather than
// matching error strings; wrapped errors satisfy errors.Is against exactly
// one of these sentinels, except cancellation errors from Encrypt and
// Decrypt, which wrap the context's error (context.Canceled or
// context.DeadlineExceeded) instead.
var (
	// ErrInvalidInput marks a caller mistake: empty passphrase, a missing
	// input path, a negative size, a missing output directory.
	ErrInvalidInput = errors.New("vault: invalid input")

	// ErrCorrupt marks a structurally broken artifact: bad magic, an
	// unsupported version, an out-of-range length field, a short read.
	ErrCorrupt = errors.New("vault: corrupt artifact")

	// ErrAuthFailure marks any AEAD tag mismatch or trailing-HMAC mismatch.
	// It intentionally does not distinguish "wrong passphrase" from
	// "tampered file" -- from the caller's perspective these are the same
	// failure.
	ErrAuthFailure = errors.New("vault: authentication failure (wrong passphrase or tampered artifact)")

	// ErrIO marks an underlying filesystem/stream error.
	ErrIO = errors.New("vault: i/o error")

	// ErrInternal marks a postcondition violation that should never happen
	// in correct code (e.g. the KDF returning the wrong key length).
	ErrInternal = errors.New("vault: internal error")
)
