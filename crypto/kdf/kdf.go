package kdf

import (
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/argon2"

	"github.com/cryptoseal/cryptoseal/generator/randomness"
)

const (
	// SaltLen is the fixed length in bytes of a derivation salt.
	SaltLen = 16
	// KeyLen is the length in bytes of each derived key half (K_enc, K_mac).
	KeyLen = 32
	// outputLen is the total Argon2id output length, split evenly between
	// the two derived keys.
	outputLen = 2 * KeyLen

	// DefaultMemory is the default Argon2id memory cost, in KiB.
	DefaultMemory = 19456
	// DefaultParallelism is the default Argon2id parallelism (lanes).
	DefaultParallelism = 1
	// DefaultIterations is the default Argon2id time cost.
	DefaultIterations = 2

	// owaspMemoryFloor is the memory cost below which, combined with a low
	// iteration count, the parameters are considered weaker than OWASP
	// guidance recommends.
	owaspMemoryFloor = 19456
	owaspIterFloor   = 3
)

var (
	// ErrEmptyPassphrase is returned when Derive is called with an empty passphrase.
	ErrEmptyPassphrase = errors.New("kdf: passphrase must not be empty")
	// ErrEmptySalt is returned when Derive is called with a non-nil but empty salt.
	ErrEmptySalt = errors.New("kdf: salt must not be empty when supplied")
	// ErrInternal marks a KDF postcondition violation (a bug surface).
	ErrInternal = errors.New("kdf: internal error")
)

// Params configures the Argon2id cost parameters. The zero value is not
// valid; use DefaultParams.
type Params struct {
	MemoryKiB   uint32
	Parallelism uint8
	Iterations  uint32
}

// DefaultParams returns the spec-mandated default Argon2id cost settings.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   DefaultMemory,
		Parallelism: DefaultParallelism,
		Iterations:  DefaultIterations,
	}
}

// KeyPair holds the two 32-byte keys derived from one Argon2id invocation.
// Both halves are kept in locked, best-effort-wiped memory for as long as
// the caller holds onto the pair; call Destroy when done.
type KeyPair struct {
	Enc *memguard.LockedBuffer
	Mac *memguard.LockedBuffer
}

// Destroy wipes and releases both derived keys. Safe to call more than once.
func (kp *KeyPair) Destroy() {
	if kp == nil {
		return
	}
	if kp.Enc != nil {
		kp.Enc.Destroy()
	}
	if kp.Mac != nil {
		kp.Mac.Destroy()
	}
}

// Derive turns passphrase and salt into a KeyPair using Argon2id.
//
// If salt is nil, a fresh 16-byte random salt is generated. params may be
// the zero value, in which case DefaultParams is used.
func Derive(passphrase, salt []byte, params Params) (*KeyPair, []byte, error) {
	if len(passphrase) == 0 {
		return nil, nil, ErrEmptyPassphrase
	}
	if salt != nil && len(salt) == 0 {
		return nil, nil, ErrEmptySalt
	}

	if params == (Params{}) {
		params = DefaultParams()
	}

	if salt == nil {
		generated, err := randomness.Bytes(SaltLen)
		if err != nil {
			return nil, nil, fmt.Errorf("kdf: unable to generate salt: %w", err)
		}
		salt = generated
	}

	raw := argon2.IDKey(passphrase, salt, params.Iterations, params.MemoryKiB, params.Parallelism, outputLen)
	if len(raw) != outputLen {
		return nil, nil, fmt.Errorf("%w: derived key has length %d, expected %d", ErrInternal, len(raw), outputLen)
	}
	defer memguard.WipeBytes(raw)

	kp := &KeyPair{
		Enc: memguard.NewBufferFromBytes(raw[:KeyLen]),
		Mac: memguard.NewBufferFromBytes(raw[KeyLen:]),
	}

	return kp, salt, nil
}

// ValidateParams reports whether the given Argon2id cost parameters are
// usable and flags weak-but-not-fatal settings. An empty return means the
// parameters are at least as strong as OWASP guidance recommends.
func ValidateParams(memoryKiB uint32, parallelism uint8, iterations uint32) []string {
	var messages []string

	if memoryKiB < 8 {
		messages = append(messages, "Memory cost must be at least 8 KiB")
	}
	if parallelism < 1 {
		messages = append(messages, "Parallelism must be at least 1")
	}
	if iterations < 1 {
		messages = append(messages, "Iterations must be at least 1")
	}

	if memoryKiB < owaspMemoryFloor && iterations < owaspIterFloor {
		messages = append(messages, "Memory and iteration settings are weaker than OWASP guidance recommends")
	}

	return messages
}
