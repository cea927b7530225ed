// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package handshake

import (
	"fmt"
	"time"

	"github.com/xenocore-ai/xenocore/lib/keys"
)

// RestrictedFingerprint marks an envelope produced without a signing
// key. Recognizable without inspecting any key material.
const RestrictedFingerprint = "RESTRICTED"

// UnsignedPrefix is prepended to the content of restricted envelopes
// so the degraded state is visible in the text itself, not only in
// the envelope metadata.
const UnsignedPrefix = "[UNSIGNED] "

// SignedEnvelope wraps outbound content with its Ed25519 signature.
// Signature and SignerPublicKey are lowercase hex. Nonce increases
// monotonically per process lifetime and resets only when the
// identity re-initializes.
type SignedEnvelope struct {
	Content         string    `json:"content"`
	Signature       string    `json:"signature"`
	SignerPublicKey string    `json:"signer_public_key"`
	Fingerprint     string    `json:"fingerprint"`
	SignedAt        time.Time `json:"signed_at"`
	Nonce           uint64    `json:"nonce"`
}

// SignOutput signs content with the keypair and builds the envelope.
// The caller supplies the nonce; the identity controller owns the
// counter.
func SignOutput(content string, keypair *keys.Keypair, nonce uint64) (*SignedEnvelope, error) {
	signature, err := keypair.Sign(content)
	if err != nil {
		return nil, fmt.Errorf("handshake: signing output: %w", err)
	}
	return &SignedEnvelope{
		Content:         content,
		Signature:       signature,
		SignerPublicKey: keypair.PublicKey,
		Fingerprint:     keypair.Fingerprint,
		SignedAt:        time.Now().UTC(),
		Nonce:           nonce,
	}, nil
}

// NewRestrictedEnvelope builds the degenerate unsigned envelope used
// whenever signing is unavailable: empty signature, RESTRICTED
// fingerprint, nonce zero, content visibly prefixed.
func NewRestrictedEnvelope(content string) *SignedEnvelope {
	return &SignedEnvelope{
		Content:     UnsignedPrefix + content,
		Signature:   "",
		Fingerprint: RestrictedFingerprint,
		SignedAt:    time.Now().UTC(),
		Nonce:       0,
	}
}

// IsRestricted reports whether the envelope is the degraded unsigned
// form.
func IsRestricted(envelope *SignedEnvelope) bool {
	return envelope != nil && envelope.Fingerprint == RestrictedFingerprint && envelope.Signature == ""
}
