// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates the daemon's YAML configuration.
//
// Configuration comes from a single file passed via --config. There
// are no fallbacks or automatic discovery; unset fields take the
// documented defaults, and unknown fields are rejected so typos fail
// loudly instead of silently configuring nothing.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// InsecureDefaultSecret is the sealing secret used when the configured
// environment variable is unset. It offers no protection against an
// attacker who has read this source; deployments must set the real
// secret.
const InsecureDefaultSecret = "xenocore-insecure-default-secret"

// Duration wraps time.Duration with YAML decoding from strings like
// "30m" or "4h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Evolution holds the scheduler's timing and capacity knobs.
type Evolution struct {
	SilenceThreshold Duration `yaml:"silence_threshold"`
	TickInterval     Duration `yaml:"tick_interval"`
	PollInterval     Duration `yaml:"poll_interval"`
	ProlongedSilence Duration `yaml:"prolonged_silence"`
	MaxPending       int      `yaml:"max_pending"`
	MaxDeliveryBatch int      `yaml:"max_delivery_batch"`
}

// Config is the daemon configuration document.
type Config struct {
	// StateDir holds the encrypted identity and vault files.
	StateDir string `yaml:"state_dir"`

	// IdentityFile and VaultFile are bare file names within StateDir.
	IdentityFile string `yaml:"identity_file"`
	VaultFile    string `yaml:"vault_file"`

	// SecretEnv names the environment variable supplying the sealing
	// secret.
	SecretEnv string `yaml:"secret_env"`

	// LexiconFile optionally overrides the built-in emotion lexicon
	// with a JSONC definition file. Empty keeps the built-in.
	LexiconFile string `yaml:"lexicon_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Evolution Evolution `yaml:"evolution"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		StateDir:     "/var/lib/xenocored",
		IdentityFile: "identity.enc",
		VaultFile:    "vault.enc",
		SecretEnv:    "XENOCORE_SECRET",
		LogLevel:     "info",
		Evolution: Evolution{
			SilenceThreshold: Duration(30 * time.Minute),
			TickInterval:     Duration(30 * time.Minute),
			PollInterval:     Duration(60 * time.Second),
			ProlongedSilence: Duration(4 * time.Hour),
			MaxPending:       20,
			MaxDeliveryBatch: 5,
		},
	}
}

// Load reads a YAML configuration file, fills unset fields with
// defaults, and validates the result. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// applyDefaults fills zero fields so a sparse file stays valid.
func (c *Config) applyDefaults() {
	defaults := Default()
	if c.StateDir == "" {
		c.StateDir = defaults.StateDir
	}
	if c.IdentityFile == "" {
		c.IdentityFile = defaults.IdentityFile
	}
	if c.VaultFile == "" {
		c.VaultFile = defaults.VaultFile
	}
	if c.SecretEnv == "" {
		c.SecretEnv = defaults.SecretEnv
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Evolution.SilenceThreshold <= 0 {
		c.Evolution.SilenceThreshold = defaults.Evolution.SilenceThreshold
	}
	if c.Evolution.TickInterval <= 0 {
		c.Evolution.TickInterval = defaults.Evolution.TickInterval
	}
	if c.Evolution.PollInterval <= 0 {
		c.Evolution.PollInterval = defaults.Evolution.PollInterval
	}
	if c.Evolution.ProlongedSilence <= 0 {
		c.Evolution.ProlongedSilence = defaults.Evolution.ProlongedSilence
	}
	if c.Evolution.MaxPending <= 0 {
		c.Evolution.MaxPending = defaults.Evolution.MaxPending
	}
	if c.Evolution.MaxDeliveryBatch <= 0 {
		c.Evolution.MaxDeliveryBatch = defaults.Evolution.MaxDeliveryBatch
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return errors.New("config: state_dir is required")
	}
	if filepath.Base(c.IdentityFile) != c.IdentityFile {
		return fmt.Errorf("config: identity_file %q must be a bare file name", c.IdentityFile)
	}
	if filepath.Base(c.VaultFile) != c.VaultFile {
		return fmt.Errorf("config: vault_file %q must be a bare file name", c.VaultFile)
	}
	if c.IdentityFile == c.VaultFile {
		return fmt.Errorf("config: identity_file and vault_file are both %q", c.IdentityFile)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Evolution.ProlongedSilence.Std() < c.Evolution.SilenceThreshold.Std() {
		return fmt.Errorf("config: prolonged_silence %s below silence_threshold %s",
			c.Evolution.ProlongedSilence.Std(), c.Evolution.SilenceThreshold.Std())
	}
	return nil
}

// IdentityPath is the location of the encrypted identity file.
func (c *Config) IdentityPath() string {
	return filepath.Join(c.StateDir, c.IdentityFile)
}

// VaultPath is the location of the encrypted vault file.
func (c *Config) VaultPath() string {
	return filepath.Join(c.StateDir, c.VaultFile)
}

// ResolveSecret returns the sealing secret from the configured
// environment variable. The second return is false when the variable
// is unset and the insecure default is in effect; callers should log
// a warning.
func (c *Config) ResolveSecret() (string, bool) {
	if secret := os.Getenv(c.SecretEnv); secret != "" {
		return secret, true
	}
	return InsecureDefaultSecret, false
}

// ParseLevel maps a config log level to slog.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log level %q", level)
	}
}
