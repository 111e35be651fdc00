// Package main implements the cryptoseal command-line tool: a thin cobra
// wrapper around the archive façade, with progress bars, structured
// logging, and environment-based configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cryptoseal/cryptoseal/log"
)

var (
	cfg        *Config
	rootCtx    context.Context
	cancelRoot context.CancelFunc
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cryptoseal",
		Short:         "Password-based file and directory encryption",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			cfg = loaded

			log.SetFactory(log.NewZerologFactory(os.Stderr))
			log.Level(levelFromString(cfg.LogLevel))
			return nil
		},
	}

	root.AddCommand(newEncryptCmd())
	root.AddCommand(newDecryptCmd())
	root.AddCommand(newReadHeaderCmd())
	root.AddCommand(newSuggestPasswordCmd())
	root.AddCommand(newSuggestPassphraseCmd())

	return root
}

func execute() error {
	rootCtx, cancelRoot = context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		if sig, ok := <-sigCh; ok {
			fmt.Fprintf(os.Stderr, "\nreceived %v, cancelling...\n", sig)
			cancelRoot()
		}
	}()
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()

	return newRootCmd().Execute()
}

func levelFromString(s string) log.LoggerLevel {
	switch s {
	case "debug":
		return log.DebugLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
