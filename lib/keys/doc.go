// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package keys provides the asymmetric identity primitives: Ed25519
// keypair generation, content signing and verification, public-key
// fingerprinting, and host machine identification.
//
// Ed25519 was chosen for its small fixed-size signatures and
// deterministic signing: verification is purely a function of
// (content, signature, public key), with no per-signature randomness
// to manage. All binary material is lowercase hex at rest and on the
// wire.
//
// Fingerprints and machine IDs are keyed BLAKE3 digests with ASCII
// domain-separation keys, truncated to 16 hex characters. They are
// human-checkable identifiers, not security boundaries.
package keys
