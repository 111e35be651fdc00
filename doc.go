// Package cryptoseal provides password-based encryption for single files
// and whole directories.
//
// crypto/kdf derives a pair of encryption/authentication keys from a
// passphrase using Argon2id. crypto/vault streams a payload through
// XChaCha20-Poly1305 in fixed-size chunks under a whole-file HMAC-SHA256,
// producing a single self-describing artifact. archive wraps the vault
// with gzip/zip so a directory tree round-trips through the same artifact
// format as a single file. batch and offload drive many such operations
// concurrently, and cmd/cryptoseal exposes all of it as a CLI.
package cryptoseal
