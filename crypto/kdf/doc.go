// Package kdf derives the AEAD and MAC key pair used by the vault container
// format from a user passphrase and a salt, using Argon2id.
package kdf
