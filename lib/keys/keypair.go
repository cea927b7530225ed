// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Keypair is an Ed25519 keypair with its derived fingerprint. Keys are
// lowercase hex. The fingerprint is the invariant linking the keypair
// to its identifier: it must always equal Fingerprint(public key
// bytes), and the identity controller re-checks this on every load.
type Keypair struct {
	PublicKey   string    `json:"public_key"`
	PrivateKey  string    `json:"private_key"`
	CreatedAt   time.Time `json:"created_at"`
	Fingerprint string    `json:"fingerprint"`
}

// Generate creates a new Ed25519 keypair and computes its fingerprint.
func Generate() (*Keypair, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: generating Ed25519 keypair: %w", err)
	}
	return &Keypair{
		PublicKey:   hex.EncodeToString(public),
		PrivateKey:  hex.EncodeToString(private),
		CreatedAt:   time.Now().UTC(),
		Fingerprint: Fingerprint(public),
	}, nil
}

// Sign signs content with the keypair's private key and returns the
// signature as lowercase hex. The only failure mode is a malformed
// stored private key, which the identity controller treats as a
// degradation trigger.
func (k *Keypair) Sign(content string) (string, error) {
	private, err := k.privateKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(ed25519.Sign(private, []byte(content))), nil
}

// privateKey decodes and validates the stored private key.
func (k *Keypair) privateKey() (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(k.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("keys: decoding private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keys: private key is %d bytes, want %d", len(raw), ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(raw), nil
}

// PublicKeyBytes decodes and validates the stored public key.
func (k *Keypair) PublicKeyBytes() ([]byte, error) {
	raw, err := hex.DecodeString(k.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("keys: decoding public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("keys: public key is %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return raw, nil
}

// Verify checks an Ed25519 signature over content. The signature and
// public key are lowercase hex. A structural problem (bad hex, wrong
// length) is an error; a clean cryptographic mismatch is (false, nil).
func Verify(content, signatureHex, publicKeyHex string) (bool, error) {
	publicRaw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("keys: decoding public key: %w", err)
	}
	if len(publicRaw) != ed25519.PublicKeySize {
		return false, fmt.Errorf("keys: public key is %d bytes, want %d", len(publicRaw), ed25519.PublicKeySize)
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, fmt.Errorf("keys: decoding signature: %w", err)
	}
	if len(signature) != ed25519.SignatureSize {
		return false, fmt.Errorf("keys: signature is %d bytes, want %d", len(signature), ed25519.SignatureSize)
	}
	return ed25519.Verify(ed25519.PublicKey(publicRaw), []byte(content), signature), nil
}
