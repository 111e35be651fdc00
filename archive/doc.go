// Package archive glues a compressor/archiver to the vault streaming engine
// so a directory becomes a ZIP-then-gzip byte stream and a file becomes a
// gzip byte stream, with enough metadata recorded in the encrypted header to
// reverse the transform exactly on decryption.
package archive
