package archive

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	zipcodec "github.com/cryptoseal/cryptoseal/compression/archive/zip"
	"github.com/cryptoseal/cryptoseal/crypto/vault"
	"github.com/cryptoseal/cryptoseal/ioutil/atomic"
	"github.com/cryptoseal/cryptoseal/log"
)

// Encrypt reads inputPath (a regular file or a directory), optionally
// compresses it, and writes a single vault artifact to outputPath.
func Encrypt(ctx context.Context, inputPath, outputPath string, passphrase []byte, opts Options) (*Result, error) {
	fi, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrInvalidInput, err)
	}

	header := vault.Header{
		UUID: opts.CustomUUID,
	}
	if header.UUID == "" {
		header.UUID = uuid.NewString()
	}
	header.OriginalName = filepath.Base(filepath.Clean(inputPath))
	header.IsCompressed = opts.gzipEnabled()

	var payloadPath string
	var originalSize int64

	if fi.IsDir() {
		header.WasDirectory = true
		header.OriginalExtension = ""

		zipPath, size, err := zipDirectory(inputPath)
		if err != nil {
			return nil, err
		}
		defer os.Remove(zipPath) //nolint:errcheck

		originalSize = size
		payloadPath = zipPath

		if header.IsCompressed {
			gzPath, err := gzipFile(zipPath)
			if err != nil {
				return nil, err
			}
			defer os.Remove(gzPath) //nolint:errcheck
			payloadPath = gzPath
		}
	} else {
		ext := filepath.Ext(header.OriginalName)
		header.OriginalExtension = strings.TrimPrefix(ext, ".")
		originalSize = fi.Size()

		if header.IsCompressed {
			gzPath, err := gzipFile(inputPath)
			if err != nil {
				return nil, err
			}
			defer os.Remove(gzPath) //nolint:errcheck
			payloadPath = gzPath
		} else {
			payloadPath = inputPath
		}
	}

	payloadFile, err := os.Open(payloadPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
	}
	defer payloadFile.Close() //nolint:errcheck

	payloadInfo, err := payloadFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
	}

	header.OriginalSize = originalSize

	pr, pw := io.Pipe()
	errCh := make(chan error, 1)
	go func() {
		_, encErr := vault.Encrypt(ctx, pw, payloadFile, payloadInfo.Size(), passphrase, header,
			vaultOptions(opts)...)
		errCh <- encErr
		pw.CloseWithError(encErr) //nolint:errcheck
	}()

	if err := atomic.WriteFile(outputPath, pr); err != nil {
		<-errCh
		return nil, fmt.Errorf("%w: %v", vault.ErrIO, err)
	}
	if err := <-errCh; err != nil {
		log.Error(err).Message("archive encrypt failed")
		return nil, err
	}

	return &Result{
		UUID:              header.UUID,
		OutputPath:        outputPath,
		OriginalName:      header.OriginalName,
		OriginalExtension: header.OriginalExtension,
		WasDirectory:      header.WasDirectory,
		BytesWritten:      payloadInfo.Size(),
		OriginalSize:      originalSize,
	}, nil
}

func vaultOptions(opts Options) []vault.Option {
	var vopts []vault.Option
	if opts.ChunkSize > 0 {
		vopts = append(vopts, vault.WithChunkSize(opts.ChunkSize))
	}
	if opts.OnProgress != nil {
		vopts = append(vopts, vault.WithProgress(opts.OnProgress))
	}
	return vopts
}

func zipDirectory(dirPath string) (string, int64, error) {
	tmp, err := os.CreateTemp("", "cryptoseal-zip-*")
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", vault.ErrIO, err)
	}
	defer tmp.Close() //nolint:errcheck

	if err := zipcodec.Create(os.DirFS(dirPath), tmp); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", 0, fmt.Errorf("%w: unable to create zip archive: %v", vault.ErrInternal, err)
	}

	fi, err := tmp.Stat()
	if err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", 0, fmt.Errorf("%w: %v", vault.ErrIO, err)
	}

	return tmp.Name(), fi.Size(), nil
}

func gzipFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", vault.ErrIO, err)
	}
	defer f.Close() //nolint:errcheck
	return gzipReader(f)
}

func gzipReader(r io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "cryptoseal-gz-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", vault.ErrIO, err)
	}
	defer tmp.Close() //nolint:errcheck

	gw := gzip.NewWriter(tmp)
	if _, err := io.Copy(gw, r); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("%w: unable to gzip-compress payload: %v", vault.ErrInternal, err)
	}
	if err := gw.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("%w: %v", vault.ErrInternal, err)
	}

	return tmp.Name(), nil
}
