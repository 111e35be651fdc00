package vault

import "github.com/cryptoseal/cryptoseal/crypto/kdf"

// Option configures a single Encrypt/EncryptBytes invocation.
type Option func(*options)

type options struct {
	uuid      string
	chunkSize uint32
	kdfParams kdf.Params
	progress  func(processed, total int64)
}

func defaultOptions() *options {
	return &options{
		chunkSize: DefaultChunkSize,
		kdfParams: kdf.DefaultParams(),
	}
}

// WithUUID sets a caller-supplied identifier recorded in the header in place
// of the UUID field of the Header passed to Encrypt/EncryptBytes.
func WithUUID(uuid string) Option {
	return func(o *options) { o.uuid = uuid }
}

// WithChunkSize overrides the default 1 MiB chunk size. Ignored by
// EncryptBytes/DecryptBytes, which never frame the payload into chunks.
func WithChunkSize(size uint32) Option {
	return func(o *options) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithKDFParams overrides the default Argon2id cost parameters.
func WithKDFParams(p kdf.Params) Option {
	return func(o *options) { o.kdfParams = p }
}

// WithProgress registers a callback invoked after each chunk with a
// monotonically nondecreasing (processed, total) pair.
func WithProgress(fn func(processed, total int64)) Option {
	return func(o *options) { o.progress = fn }
}

func (o *options) report(processed, total int64) {
	if o.progress != nil {
		o.progress(processed, total)
	}
}
