package main

import (
	"crypto"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cryptoseal/cryptoseal/archive"
	"github.com/cryptoseal/cryptoseal/crypto/hashutil"
)

func newReadHeaderCmd() *cobra.Command {
	var verifyChecksum string

	cmd := &cobra.Command{
		Use:   "read-header <artifact>",
		Short: "Print an artifact's header without restoring its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verifyChecksum != "" {
				if err := verifyArtifactChecksum(args[0], verifyChecksum); err != nil {
					return err
				}
			}

			passphrase, err := resolvePassphrase()
			if err != nil {
				return err
			}

			header, err := archive.ReadHeader(args[0], passphrase)
			if err != nil {
				return err
			}

			fmt.Printf("uuid:               %s\n", header.UUID)
			fmt.Printf("original_name:      %s\n", header.OriginalName)
			fmt.Printf("original_extension: %s\n", header.OriginalExtension)
			fmt.Printf("was_directory:      %t\n", header.WasDirectory)
			fmt.Printf("is_compressed:      %t\n", header.IsCompressed)
			fmt.Printf("original_size:      %d\n", header.OriginalSize)
			fmt.Printf("compressed_size:    %d\n", header.CompressedSize)
			return nil
		},
	}

	cmd.Flags().StringVar(&verifyChecksum, "verify-checksum", "", "abort unless the artifact's SHA-256 hex digest matches this value")

	return cmd
}

// verifyArtifactChecksum compares a caller-supplied hash of the whole
// artifact file against a freshly computed one, entirely independent of the
// container's own whole-file HMAC.
func verifyArtifactChecksum(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening artifact for checksum verification: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sum, err := hashutil.Hash(f, crypto.SHA256)
	if err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}

	got := hex.EncodeToString(sum)
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("checksum mismatch: computed %s, expected %s", got, want)
	}
	return nil
}
