// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/xenocore-ai/xenocore/lib/atomicfile"
	"github.com/xenocore-ai/xenocore/lib/clock"
	"github.com/xenocore-ai/xenocore/lib/emotion"
	"github.com/xenocore-ai/xenocore/lib/seal"
)

// Store mediates all reads and writes of the vault. Single writer: a
// mutex serializes the load-mutate-persist sequence so two concurrent
// RecordInteraction calls can never interleave their statistics
// recomputation.
type Store struct {
	path      string
	sealer    *seal.Sealer
	extractor *emotion.Extractor
	clock     clock.Clock
	logger    *slog.Logger
	sessionID string

	mu     sync.Mutex
	data   *Data
	loaded bool
}

// Options configures a Store.
type Options struct {
	// Path is the vault file location.
	Path string

	// Sealer encrypts and decrypts the persisted file.
	Sealer *seal.Sealer

	// Extractor builds the emotional tag for each interaction. Nil
	// selects the compiled-in lexicons.
	Extractor *emotion.Extractor

	// Clock supplies timestamps. Nil selects the real clock.
	Clock clock.Clock

	// Logger receives fallback and persistence-failure conditions.
	// Nil selects slog.Default().
	Logger *slog.Logger
}

// NewStore returns a Store. The vault file is not touched until the
// first Load or RecordInteraction.
func NewStore(options Options) *Store {
	if options.Extractor == nil {
		options.Extractor = emotion.NewExtractor()
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Store{
		path:      options.Path,
		sealer:    options.Sealer,
		extractor: options.Extractor,
		clock:     options.Clock,
		logger:    options.Logger,
		sessionID: newSessionID(),
	}
}

// newSessionID generates the per-process session identifier stamped
// on every entry recorded by this Store instance.
func newSessionID() string {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		// crypto/rand failing is a broken platform; the session ID is
		// a label, so a fixed fallback beats aborting.
		return "session-unknown"
	}
	return "session-" + hex.EncodeToString(raw)
}

// Load materializes the vault. Idempotent within a process: the first
// call reads and decrypts the persisted file (or starts empty), and
// subsequent calls return the same in-memory instance. Returns a deep
// copy so callers cannot mutate the store's state.
func (s *Store) Load() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.copyLocked()
}

// loadLocked performs the one-time materialization. A missing file is
// the clean first-boot path; a corrupt or undecryptable file logs a
// warning and falls back to a fresh empty vault.
func (s *Store) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.data = &Data{Timeline: []Entry{}, Stats: Stats{}}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("vault file unreadable, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var envelope seal.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.logger.Warn("vault file corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	plaintext, err := s.sealer.Open(envelope)
	if err != nil {
		s.logger.Warn("vault decryption failed, starting empty", "path", s.path, "error", err)
		return
	}

	var data Data
	if err := json.Unmarshal([]byte(plaintext), &data); err != nil {
		s.logger.Warn("vault plaintext corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	if data.Timeline == nil {
		data.Timeline = []Entry{}
	}
	s.data = &data
}

// RecordInteraction appends one interaction: extract the emotional
// tag, build the entry, append with FIFO eviction at the cap,
// recompute stats, persist re-encrypted. Persistence failure is
// logged and non-fatal: the in-memory vault is already updated and
// the caller's response pipeline completes.
func (s *Store) RecordInteraction(hostInput, response string, entropy emotion.EntropyResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	now := s.clock.Now().UTC()
	entry := Entry{
		ID:               newEntryID(),
		Timestamp:        now,
		DateISO:          now.Format("2006-01-02"),
		Tag:              s.extractor.Extract(hostInput, response, entropy),
		HostInputPreview: preview(hostInput),
		ResponsePreview:  preview(response),
		SessionID:        s.sessionID,
	}

	s.data.Timeline = append(s.data.Timeline, entry)
	if overflow := len(s.data.Timeline) - MaxEntries; overflow > 0 {
		s.data.Timeline = s.data.Timeline[overflow:]
	}
	s.data.Stats = computeStats(s.data.Timeline, now)

	if err := s.persistLocked(); err != nil {
		s.logger.Error("vault persist failed, in-memory state retained", "path", s.path, "error", err)
	}
}

// newEntryID generates a random entry identifier.
func newEntryID() string {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "mem-unknown"
	}
	return "mem-" + hex.EncodeToString(raw)
}

// persistLocked re-encrypts the whole vault and writes it atomically:
// temporary file, fsync, rename into place, fsync the directory. A
// crash mid-write leaves the previous file intact.
func (s *Store) persistLocked() error {
	plaintext, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encoding vault: %w", err)
	}
	envelope, err := s.sealer.Seal(string(plaintext))
	if err != nil {
		return fmt.Errorf("encrypting vault: %w", err)
	}
	encoded, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding vault envelope: %w", err)
	}
	return atomicfile.Write(s.path, append(encoded, '\n'))
}

// Stats returns a copy of the current aggregates.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.data.Stats
}

// InteractionCount returns the number of retained timeline entries.
func (s *Store) InteractionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return len(s.data.Timeline)
}

// copyLocked deep-copies the vault data.
func (s *Store) copyLocked() Data {
	timeline := make([]Entry, len(s.data.Timeline))
	copy(timeline, s.data.Timeline)
	return Data{Timeline: timeline, Stats: s.data.Stats}
}
