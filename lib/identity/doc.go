// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity manages the sovereign signing identity: the
// machine's Ed25519 keypair, its encrypted on-disk file, and the
// SOVEREIGN/RESTRICTED operating mode.
//
// The mode machine is fail-closed. Boot lands in SOVEREIGN only when
// the identity file loads, decrypts, and its stored fingerprint
// matches a recomputation from the stored public key. Anything else, whether
// decryption failure, fingerprint mismatch, key generation failure, a
// signing exception, or three consecutive recorded verification
// failures, degrades to RESTRICTED, and the transition is one-way
// within a process lifetime: trust lost is not silently regained. A
// fresh Initialize call after external remediation is the only way
// back.
//
// Signing is total. In RESTRICTED mode (or on any signing fault)
// SignResponse returns the visibly unsigned restricted envelope
// instead of propagating an error, so the response pipeline always
// completes.
package identity
