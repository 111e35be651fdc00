package main

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cryptoseal/cryptoseal/archive"
	"github.com/cryptoseal/cryptoseal/log"
	"github.com/cryptoseal/cryptoseal/offload"
)

func newEncryptCmd() *cobra.Command {
	var (
		output    string
		noGzip    bool
		chunkSize uint32
	)

	cmd := &cobra.Command{
		Use:   "encrypt <path>",
		Short: "Encrypt a file or directory into a single artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := resolvePassphrase()
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions64(-1,
				progressbar.OptionSetDescription("encrypting"),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(50),
				progressbar.OptionThrottle(100),
				progressbar.OptionSpinnerType(14),
			)

			opts := archive.Options{
				ChunkSize: firstNonZero(chunkSize, cfg.ChunkSize),
				OnProgress: func(processed, total int64) {
					bar.ChangeMax64(total)
					_ = bar.Set64(processed)
				},
			}
			if noGzip || cfg.NoGzip {
				opts.EnableGzip = archive.Bool(false)
			}

			resultCh := offload.Run(rootCtx, func(ctx context.Context) (*archive.Result, error) {
				return archive.Encrypt(ctx, args[0], output, passphrase, opts)
			})
			result := <-resultCh
			_ = bar.Finish()
			res, err := result.Value, result.Err
			if err != nil {
				log.Error(err).Field("input", args[0]).Message("encrypt failed")
				return err
			}

			fmt.Printf("wrote %s (%s, uuid %s)\n", res.OutputPath, humanBool(res.WasDirectory, "directory", "file"), res.UUID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output artifact path (required)")
	cmd.Flags().BoolVar(&noGzip, "no-gzip", false, "disable compression before encryption")
	cmd.Flags().Uint32Var(&chunkSize, "chunk-size", 0, "override the streaming chunk size in bytes")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func firstNonZero(vals ...uint32) uint32 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func humanBool(b bool, ifTrue, ifFalse string) string {
	if b {
		return ifTrue
	}
	return ifFalse
}
