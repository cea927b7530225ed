// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/xenocore-ai/xenocore/lib/atomicfile"
	"github.com/xenocore-ai/xenocore/lib/keys"
	"github.com/xenocore-ai/xenocore/lib/seal"
)

// FileVersion is the current identity file format version.
const FileVersion = 1

// ErrNotFound distinguishes the clean first-boot case (no identity
// file yet) from load failures that degrade the identity.
var ErrNotFound = errors.New("identity: no identity file")

// HostBinding records the audit binding between the identity and the
// host machine. BootCount increments exactly once per process start
// that successfully loads the file.
type HostBinding struct {
	FirstBoot time.Time `json:"first_boot"`
	MachineID string    `json:"machine_id"`
	BootCount int       `json:"boot_count"`
}

// File is the decrypted identity document: the keypair and its host
// binding. Created on first boot, mutated only by the boot-count
// increment, never deleted by the system itself.
type File struct {
	Version     int           `json:"version"`
	Keypair     *keys.Keypair `json:"keypair"`
	HostBinding HostBinding   `json:"host_binding"`
}

// Store persists the identity file as a JSON seal.Envelope whose
// plaintext is the File JSON document.
type Store struct {
	path   string
	sealer *seal.Sealer
}

// NewStore returns a Store over the given path and sealer.
func NewStore(path string, sealer *seal.Sealer) *Store {
	return &Store{path: path, sealer: sealer}
}

// Load reads and decrypts the identity file. Returns ErrNotFound when
// the file does not exist; any other failure (unreadable, corrupt
// envelope, decryption failure, corrupt plaintext) is an error the
// controller treats as a degradation trigger.
func (s *Store) Load() (*File, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("identity: reading identity file: %w", err)
	}

	var envelope seal.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("identity: parsing identity envelope: %w", err)
	}
	plaintext, err := s.sealer.Open(envelope)
	if err != nil {
		return nil, fmt.Errorf("identity: decrypting identity file: %w", err)
	}

	var file File
	if err := json.Unmarshal([]byte(plaintext), &file); err != nil {
		return nil, fmt.Errorf("identity: parsing identity file: %w", err)
	}
	if file.Keypair == nil {
		return nil, fmt.Errorf("identity: identity file has no keypair")
	}
	return &file, nil
}

// Save encrypts and atomically writes the identity file.
func (s *Store) Save(file *File) error {
	plaintext, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("identity: encoding identity file: %w", err)
	}
	envelope, err := s.sealer.Seal(string(plaintext))
	if err != nil {
		return fmt.Errorf("identity: encrypting identity file: %w", err)
	}
	encoded, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("identity: encoding identity envelope: %w", err)
	}
	if err := atomicfile.Write(s.path, append(encoded, '\n')); err != nil {
		return fmt.Errorf("identity: writing identity file: %w", err)
	}
	return nil
}
