package archive

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	zipcodec "github.com/cryptoseal/cryptoseal/compression/archive/zip"
	"github.com/cryptoseal/cryptoseal/crypto/vault"
	"github.com/cryptoseal/cryptoseal/ioutil/atomic"
)

// Decrypt reverses Encrypt: it reads the artifact at inputPath, restores the
// original file or directory tree under outputDir, and returns the parsed
// header alongside byte counts. outputDir MUST already exist.
func Decrypt(ctx context.Context, inputPath, outputDir string, passphrase []byte, opts Options) (*Result, error) {
	if fi, err := os.Stat(outputDir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: output directory %q must already exist", vault.ErrInvalidInput, outputDir)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrInvalidInput, err)
	}
	defer in.Close() //nolint:errcheck

	fi, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
	}

	payloadTmp, err := os.CreateTemp("", "cryptoseal-payload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
	}
	payloadTmpPath := payloadTmp.Name()
	defer os.Remove(payloadTmpPath) //nolint:errcheck

	header, err := vault.Decrypt(ctx, payloadTmp, in, fi.Size(), passphrase, vaultOptions(opts)...)
	closeErr := payloadTmp.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrIO, closeErr)
	}

	var outputPath string
	var bytesWritten int64

	if header.WasDirectory {
		finalDir := filepath.Join(outputDir, header.OriginalName)
		if err := os.MkdirAll(finalDir, 0o750); err != nil {
			return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
		}

		zipPath := payloadTmpPath
		if header.IsCompressed {
			decompressed, err := gunzipToTemp(payloadTmpPath)
			if err != nil {
				return nil, err
			}
			defer os.Remove(decompressed) //nolint:errcheck
			zipPath = decompressed
		}

		zipFile, err := os.Open(zipPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
		}
		defer zipFile.Close() //nolint:errcheck

		zfi, err := zipFile.Stat()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
		}

		if err := zipcodec.Extract(zipFile, uint64(zfi.Size()), finalDir); err != nil {
			return nil, fmt.Errorf("%w: unable to extract directory: %v", vault.ErrInternal, err)
		}

		outputPath = finalDir
		bytesWritten = header.OriginalSize
	} else {
		name := header.OriginalName
		if header.OriginalExtension != "" && !strings.HasSuffix(name, "."+header.OriginalExtension) {
			name += "." + header.OriginalExtension
		}
		outputPath = filepath.Join(outputDir, name)

		payloadFile, err := os.Open(payloadTmpPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
		}
		defer payloadFile.Close() //nolint:errcheck

		var src io.Reader = payloadFile
		if header.IsCompressed {
			gz, err := gzip.NewReader(payloadFile)
			if err != nil {
				return nil, fmt.Errorf("%w: not a valid gzip payload: %v", vault.ErrCorrupt, err)
			}
			defer gz.Close() //nolint:errcheck
			src = gz
		}

		if err := atomic.WriteFile(outputPath, src); err != nil {
			return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
		}
		bytesWritten = header.OriginalSize
	}

	return &Result{
		UUID:              header.UUID,
		OutputPath:        outputPath,
		OriginalName:      header.OriginalName,
		OriginalExtension: header.OriginalExtension,
		WasDirectory:      header.WasDirectory,
		BytesWritten:      bytesWritten,
		OriginalSize:      header.OriginalSize,
	}, nil
}

// ReadHeader parses the header of the artifact at inputPath without
// restoring any content.
func ReadHeader(inputPath string, passphrase []byte) (*vault.Header, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrInvalidInput, err)
	}
	defer f.Close() //nolint:errcheck

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
	}

	return vault.ReadHeader(f, fi.Size(), passphrase)
}

func gunzipToTemp(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", vault.ErrIO, err)
	}
	defer f.Close() //nolint:errcheck

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("%w: not a valid gzip payload: %v", vault.ErrCorrupt, err)
	}
	defer gz.Close() //nolint:errcheck

	tmp, err := os.CreateTemp("", "cryptoseal-gunzip-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", vault.ErrIO, err)
	}
	defer tmp.Close() //nolint:errcheck

	if _, err := io.Copy(tmp, gz); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("%w: %v", vault.ErrInternal, err)
	}

	return tmp.Name(), nil
}
