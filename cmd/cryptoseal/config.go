package main

import "github.com/kelseyhightower/envconfig"

// Config holds non-interactive defaults loaded from the environment under
// the CRYPTOSEAL_ prefix, e.g. CRYPTOSEAL_CHUNK_SIZE, CRYPTOSEAL_LOG_LEVEL.
type Config struct {
	// Passphrase, supplied non-interactively. Prefer a prompt when unset.
	Passphrase string `envconfig:"passphrase"`

	// ChunkSize overrides the vault streaming engine's default chunk size.
	ChunkSize uint32 `envconfig:"chunk_size" default:"0"`

	// LogLevel is one of debug, info, error.
	LogLevel string `envconfig:"log_level" default:"info"`

	// NoGzip disables compression before encryption.
	NoGzip bool `envconfig:"no_gzip" default:"false"`
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("cryptoseal", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
