// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package seal provides the authenticated symmetric encryption used by
// the identity store and the vault. Both persist a single JSON file
// whose body is an [Envelope]: AES-256-GCM ciphertext with the IV and
// authentication tag carried as separate lowercase-hex fields.
//
// The encryption key is derived once per [Sealer] from a configured
// secret via PBKDF2-SHA256 with a fixed iteration count and build salt.
// The secret is read from the environment once at startup, so deriving
// at construction time is safe; nothing re-reads it mid-process.
//
// Two invariants are load-bearing:
//
//   - A fresh random IV is generated for every Seal call. Reusing an
//     IV under the same key breaks GCM entirely.
//   - Open fails closed. Any algorithm mismatch, malformed field, or
//     authentication failure returns ErrDecryption; partially
//     decrypted data is never returned.
package seal
