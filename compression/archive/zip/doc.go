// Package zip provides hardened ZIP archive management functions
//
// This package with hardened controls to protect the caller from various attack
// related to insecure compression management.
package zip
