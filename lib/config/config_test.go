// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xenocore.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	defaults := Default()
	if err := defaults.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if defaults.Evolution.SilenceThreshold.Std() != 30*time.Minute {
		t.Errorf("silence threshold: got %s, want 30m", defaults.Evolution.SilenceThreshold.Std())
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.StateDir != Default().StateDir {
		t.Errorf("state dir: got %q, want %q", loaded.StateDir, Default().StateDir)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
state_dir: /tmp/xeno
identity_file: id.enc
vault_file: timeline.enc
secret_env: XENO_KEY
log_level: debug
evolution:
  silence_threshold: 15m
  tick_interval: 10m
  poll_interval: 30s
  prolonged_silence: 2h
  max_pending: 10
  max_delivery_batch: 3
`)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.IdentityPath() != "/tmp/xeno/id.enc" {
		t.Errorf("identity path: got %q, want %q", loaded.IdentityPath(), "/tmp/xeno/id.enc")
	}
	if loaded.VaultPath() != "/tmp/xeno/timeline.enc" {
		t.Errorf("vault path: got %q, want %q", loaded.VaultPath(), "/tmp/xeno/timeline.enc")
	}
	if loaded.Evolution.SilenceThreshold.Std() != 15*time.Minute {
		t.Errorf("silence threshold: got %s, want 15m", loaded.Evolution.SilenceThreshold.Std())
	}
	if loaded.Evolution.MaxDeliveryBatch != 3 {
		t.Errorf("delivery batch: got %d, want 3", loaded.Evolution.MaxDeliveryBatch)
	}
}

func TestLoadSparseFileFillsDefaults(t *testing.T) {
	path := writeConfig(t, "state_dir: /tmp/xeno\n")
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.IdentityFile != "identity.enc" {
		t.Errorf("identity file: got %q, want default", loaded.IdentityFile)
	}
	if loaded.Evolution.MaxPending != 20 {
		t.Errorf("max pending: got %d, want default 20", loaded.Evolution.MaxPending)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "state_dri: /tmp/xeno\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an unknown field")
	}
}

func TestLoadRejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad duration", "evolution:\n  tick_interval: soon\n"},
		{"bad log level", "log_level: verbose\n"},
		{"identity file with path", "identity_file: ../escape.enc\n"},
		{"same identity and vault file", "identity_file: state.enc\nvault_file: state.enc\n"},
		{"prolonged below threshold", "evolution:\n  silence_threshold: 1h\n  prolonged_silence: 30m\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeConfig(t, test.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Load accepted %s", test.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load accepted a missing file")
	}
}

func TestResolveSecret(t *testing.T) {
	defaults := Default()
	defaults.SecretEnv = "XENOCORE_TEST_SECRET"

	t.Setenv("XENOCORE_TEST_SECRET", "from-environment")
	secret, ok := defaults.ResolveSecret()
	if !ok || secret != "from-environment" {
		t.Errorf("ResolveSecret with env set: got %q, %t", secret, ok)
	}

	t.Setenv("XENOCORE_TEST_SECRET", "")
	secret, ok = defaults.ResolveSecret()
	if ok || secret != InsecureDefaultSecret {
		t.Errorf("ResolveSecret without env: got %q, %t", secret, ok)
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := ParseLevel(level); err != nil {
			t.Errorf("ParseLevel(%q): %v", level, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil || !strings.Contains(err.Error(), "unknown log level") {
		t.Errorf("ParseLevel(trace): got %v, want unknown-level error", err)
	}
}
