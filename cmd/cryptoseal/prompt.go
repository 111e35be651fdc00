package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// resolvePassphrase returns cfg.Passphrase if set, else prompts the user on
// the controlling terminal with echo disabled.
func resolvePassphrase() ([]byte, error) {
	if cfg != nil && cfg.Passphrase != "" {
		return []byte(cfg.Passphrase), nil
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	if len(pass) == 0 {
		return nil, fmt.Errorf("passphrase must not be empty")
	}
	return pass, nil
}
