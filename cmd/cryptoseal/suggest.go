package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cryptoseal/cryptoseal/generator/passphrase"
	"github.com/cryptoseal/cryptoseal/generator/password"
)

func newSuggestPasswordCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "suggest-password",
		Short: "Print a randomly generated password",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				out string
				err error
			)
			switch profile {
			case "paranoid":
				out, err = password.Paranoid()
			case "no-symbol":
				out, err = password.NoSymbol()
			case "strong", "":
				out, err = password.Strong()
			default:
				return fmt.Errorf("unknown profile %q: want paranoid, strong, or no-symbol", profile)
			}
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "strong", "password profile: paranoid, strong, no-symbol")
	return cmd
}

func newSuggestPassphraseCmd() *cobra.Command {
	var words int

	cmd := &cobra.Command{
		Use:   "suggest-passphrase",
		Short: "Print a randomly generated diceware passphrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := passphrase.Diceware(words)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&words, "words", passphrase.StrongWordCount, "number of diceware words")
	return cmd
}
