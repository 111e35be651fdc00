package archive

// Result reports the outcome of one Encrypt or Decrypt call.
type Result struct {
	UUID              string
	OutputPath        string
	OriginalName      string
	OriginalExtension string
	WasDirectory      bool
	BytesWritten      int64
	OriginalSize      int64
}
