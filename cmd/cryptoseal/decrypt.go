package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cryptoseal/cryptoseal/archive"
	"github.com/cryptoseal/cryptoseal/log"
	"github.com/cryptoseal/cryptoseal/offload"
)

func newDecryptCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "decrypt <artifact>",
		Short: "Decrypt an artifact back into its original file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := resolvePassphrase()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(output, 0o750); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			bar := progressbar.NewOptions64(-1,
				progressbar.OptionSetDescription("decrypting"),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(50),
				progressbar.OptionThrottle(100),
				progressbar.OptionSpinnerType(14),
			)

			opts := archive.Options{
				OnProgress: func(processed, total int64) {
					bar.ChangeMax64(total)
					_ = bar.Set64(processed)
				},
			}

			resultCh := offload.Run(rootCtx, func(ctx context.Context) (*archive.Result, error) {
				return archive.Decrypt(ctx, args[0], output, passphrase, opts)
			})
			result := <-resultCh
			_ = bar.Finish()
			res, err := result.Value, result.Err
			if err != nil {
				log.Error(err).Field("artifact", args[0]).Message("decrypt failed")
				return err
			}

			fmt.Printf("restored %s\n", res.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (required; created if missing)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
