// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Xenocored hosts the Xenocore subsystems: the sovereign signing
// identity, the encrypted interaction vault, and the evolution
// scheduler that generates reflections during host silence.
//
// On startup:
//  1. Loads configuration and resolves the sealing secret from the
//     environment.
//  2. Boots the identity (load-or-generate; any fault degrades to
//     restricted mode rather than aborting).
//  3. Opens the vault and starts the silence monitor.
//  4. Runs until SIGINT/SIGTERM, logging state snapshots on an
//     interval, then stops the scheduler timers and exits.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/xenocore-ai/xenocore/lib/config"
	"github.com/xenocore-ai/xenocore/lib/core"
	"github.com/xenocore-ai/xenocore/lib/emotion"
	"github.com/xenocore-ai/xenocore/lib/evolution"
	"github.com/xenocore-ai/xenocore/lib/identity"
	"github.com/xenocore-ai/xenocore/lib/seal"
	"github.com/xenocore-ai/xenocore/lib/vault"
	"github.com/xenocore-ai/xenocore/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath     string
		logLevel       string
		statusInterval time.Duration
		showVersion    bool
	)

	pflag.StringVar(&configPath, "config", "", "path to the YAML configuration file")
	pflag.StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	pflag.DurationVar(&statusInterval, "status-interval", 5*time.Minute, "how often to log state snapshots")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println(version.Full())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("xenocored starting", "version", version.Info(), "state_dir", cfg.StateDir)

	secret, fromEnvironment := cfg.ResolveSecret()
	if !fromEnvironment {
		logger.Warn("sealing secret not set; falling back to the insecure built-in default",
			"env", cfg.SecretEnv,
		)
	}
	sealer, err := seal.New(secret)
	if err != nil {
		return fmt.Errorf("initialize sealer: %w", err)
	}

	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	extractor := emotion.NewExtractor()
	if cfg.LexiconFile != "" {
		lexicon, err := emotion.LoadLexicon(cfg.LexiconFile)
		if err != nil {
			return fmt.Errorf("load lexicon: %w", err)
		}
		extractor = emotion.NewExtractorWith(
			emotion.NewClassifierFromLexicon(lexicon),
			emotion.DefaultToneLexicon(),
		)
		logger.Info("emotion lexicon loaded", "path", cfg.LexiconFile)
	}

	controller := identity.NewController(identity.ControllerOptions{
		Store:  identity.NewStore(cfg.IdentityPath(), sealer),
		Logger: logger,
	})
	store := vault.NewStore(vault.Options{
		Path:      cfg.VaultPath(),
		Sealer:    sealer,
		Extractor: extractor,
		Logger:    logger,
	})

	system := core.New(core.Options{
		Identity: controller,
		Vault:    store,
		Logger:   logger,
		Evolution: evolution.Config{
			SilenceThreshold: cfg.Evolution.SilenceThreshold.Std(),
			TickInterval:     cfg.Evolution.TickInterval.Std(),
			PollInterval:     cfg.Evolution.PollInterval.Std(),
			ProlongedSilence: cfg.Evolution.ProlongedSilence.Std(),
			MaxPending:       cfg.Evolution.MaxPending,
			MaxDeliveryBatch: cfg.Evolution.MaxDeliveryBatch,
		},
	})

	snapshot := system.InitializeIdentity()
	logger.Info("identity booted",
		"mode", string(snapshot.Mode),
		"fingerprint", snapshot.Fingerprint,
		"boot_count", snapshot.BootCount,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	system.StartEvolution(ctx)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received")
			system.Shutdown()
			return nil
		case <-ticker.C:
			evolutionState := system.EvolutionState()
			identityState := system.IdentityState()
			logger.Info("state snapshot",
				"mode", string(identityState.Mode),
				"signed", identityState.SignedMessages,
				"restricted", identityState.RestrictedMessages,
				"engine_running", evolutionState.EngineRunning,
				"cycle", evolutionState.CycleCount,
				"pending", evolutionState.PendingCount,
				"generated", evolutionState.TotalGenerated,
			)
		}
	}
}
