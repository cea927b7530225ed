// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package handshake defines the signed envelope that wraps every
// outbound response and the verifier for inbound envelopes.
//
// Verification is ordered and short-circuiting: structural checks,
// then the expected-fingerprint check, then replay protection, then
// Ed25519 signature verification. Cheap checks run before the
// expensive one, and the replay watermark advances only when an
// envelope passes everything; an attacker cannot poison the replay
// window by sending a high nonce with a bad signature.
//
// The watermark is a single process-wide counter, which is correct
// for the one-signer case this system assumes (the local sovereign
// identity). Verifying envelopes from multiple signers would need a
// per-fingerprint watermark.
package handshake
