package archive

// Options configures one Encrypt/Decrypt invocation of the archive façade.
type Options struct {
	// CustomUUID overrides the auto-generated header UUID.
	CustomUUID string
	// EnableGzip controls whether the payload is gzip-compressed before
	// being handed to the vault streaming engine. Defaults to true when
	// Options is the zero value -- see gzipEnabled.
	EnableGzip *bool
	// ChunkSize overrides the vault streaming engine's default chunk size.
	ChunkSize uint32
	// OnProgress receives a nondecreasing (bytesProcessed, bytesTotal) pair
	// after each chunk of the underlying vault operation.
	OnProgress func(processed, total int64)
}

func (o Options) gzipEnabled() bool {
	if o.EnableGzip == nil {
		return true
	}
	return *o.EnableGzip
}

// Bool is a small helper for populating Options.EnableGzip without a local
// variable, e.g. archive.Options{EnableGzip: archive.Bool(false)}.
func Bool(v bool) *bool {
	return &v
}
