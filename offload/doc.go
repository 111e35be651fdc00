// Package offload runs blocking vault operations on background goroutines
// so callers (the CLI, the batch driver) can wait on a channel instead of
// blocking the calling goroutine, and can walk away from a cancelled
// operation without killing the goroutine underneath it.
package offload
