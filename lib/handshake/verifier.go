// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package handshake

import (
	"sync"

	"github.com/xenocore-ai/xenocore/lib/keys"
)

// Reason categorizes why verification failed. Populated only when
// Valid is false.
type Reason string

const (
	// ReasonMalformed: the envelope is missing, or lacks the fields
	// verification needs (signature, signer key).
	ReasonMalformed Reason = "malformed_envelope"

	// ReasonFingerprintMismatch: the envelope's fingerprint does not
	// equal the expected signer's.
	ReasonFingerprintMismatch Reason = "fingerprint_mismatch"

	// ReasonReplay: the nonce is not strictly greater than the highest
	// nonce accepted so far in this process.
	ReasonReplay Reason = "replay_detected"

	// ReasonBadSignature: the Ed25519 signature does not verify over
	// the content.
	ReasonBadSignature Reason = "signature_mismatch"

	// ReasonVerifyError: signature verification itself failed
	// structurally (undecodable key or signature).
	ReasonVerifyError Reason = "verification_error"
)

// Result is the outcome of envelope verification. Verification never
// returns an error; callers branch on Valid and Reason.
type Result struct {
	Valid       bool   `json:"valid"`
	PublicKey   string `json:"public_key,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Reason      Reason `json:"reason,omitempty"`
}

// Verifier checks inbound signed envelopes. It owns the replay-nonce
// watermark: a single monotone counter that advances only on fully
// valid envelopes. Safe for concurrent use.
type Verifier struct {
	mu        sync.Mutex
	watermark uint64
}

// NewVerifier returns a Verifier with a zero watermark.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify runs the ordered verification chain. expectedFingerprint is
// optional; pass "" to skip the expected-signer check. The watermark
// advances only when the envelope passes all four steps.
func (v *Verifier) Verify(envelope *SignedEnvelope, expectedFingerprint string) Result {
	// Step 1: structural completeness. A restricted envelope fails
	// here too; it carries nothing verifiable.
	if envelope == nil || envelope.Signature == "" || envelope.SignerPublicKey == "" {
		return Result{Valid: false, Reason: ReasonMalformed}
	}

	// Step 2: expected signer.
	if expectedFingerprint != "" && envelope.Fingerprint != expectedFingerprint {
		return Result{
			Valid:       false,
			Fingerprint: envelope.Fingerprint,
			Reason:      ReasonFingerprintMismatch,
		}
	}

	// Step 3: replay. The comparison and the later advance are under
	// the same lock so two concurrent verifications of the same nonce
	// cannot both pass.
	v.mu.Lock()
	defer v.mu.Unlock()
	if envelope.Nonce <= v.watermark {
		return Result{
			Valid:       false,
			Fingerprint: envelope.Fingerprint,
			Reason:      ReasonReplay,
		}
	}

	// Step 4: cryptographic verification, last because it is the
	// expensive step.
	valid, err := keys.Verify(envelope.Content, envelope.Signature, envelope.SignerPublicKey)
	if err != nil {
		return Result{
			Valid:       false,
			Fingerprint: envelope.Fingerprint,
			Reason:      ReasonVerifyError,
		}
	}
	if !valid {
		// Watermark must not advance here: accepting an attacker's
		// high nonce would block the legitimate signer's next
		// envelopes.
		return Result{
			Valid:       false,
			Fingerprint: envelope.Fingerprint,
			Reason:      ReasonBadSignature,
		}
	}

	v.watermark = envelope.Nonce
	return Result{
		Valid:       true,
		PublicKey:   envelope.SignerPublicKey,
		Fingerprint: envelope.Fingerprint,
	}
}

// Watermark returns the highest accepted nonce.
func (v *Verifier) Watermark() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.watermark
}

// Reset zeroes the watermark. Called only when the identity
// controller re-initializes with a fresh keypair; never otherwise.
func (v *Verifier) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.watermark = 0
}
