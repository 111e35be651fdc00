// Package vault implements the AENC container format: password-based
// key derivation, a chunked XChaCha20-Poly1305 streaming cipher, and a
// trailing whole-artifact HMAC-SHA256. It operates purely on byte streams
// and has no knowledge of files, directories, or compression -- see the
// archive package for that glue.
package vault
