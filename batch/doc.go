// Package batch drives the Archive Façade over many (source, destination)
// pairs in one call, collecting a per-item outcome report instead of
// aborting on the first failure.
package batch
