// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// Algorithm is the single supported cipher. An envelope carrying any
// other value fails decryption before key material is touched.
const Algorithm = "aes-256-gcm"

// EnvelopeVersion is the current envelope format version.
const EnvelopeVersion = 1

const (
	// keyIterations is the PBKDF2 iteration count. Changing it
	// invalidates every existing envelope.
	keyIterations = 60000

	keySize = 32 // AES-256
	ivSize  = 12 // GCM standard nonce
	tagSize = 16 // GCM tag; shortening this is a security regression
)

// keySalt is the fixed PBKDF2 salt baked into the build. The secret is
// per-deployment; the salt only provides domain separation from other
// uses of the same passphrase.
var keySalt = []byte("xenocore.seal.v1")

// ErrDecryption is returned by Open for every failure mode: algorithm
// mismatch, malformed fields, or authentication failure. Callers that
// need the detail can unwrap the chain; callers that only branch on
// "did this fail closed" match this sentinel.
var ErrDecryption = errors.New("seal: decryption failed")

// Envelope is the at-rest and on-wire encryption container. All binary
// fields are lowercase hex.
type Envelope struct {
	IV          string `json:"iv"`
	AuthTag     string `json:"auth_tag"`
	Ciphertext  string `json:"ciphertext"`
	Algorithm   string `json:"algorithm"`
	Version     int    `json:"version"`
	EncryptedAt string `json:"encrypted_at"`
}

// Sealer encrypts and decrypts envelopes under a key derived from a
// configured secret. Construct once per process with New; the derived
// key is memoized for the process lifetime.
type Sealer struct {
	aead cipher.AEAD
}

// New derives the AES-256 key from the secret and returns a ready
// Sealer. The derivation is deliberately slow (PBKDF2, 60k iterations)
// and runs once.
func New(secret string) (*Sealer, error) {
	key := pbkdf2.Key([]byte(secret), keySalt, keyIterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("seal: initializing AES: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("seal: initializing GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext into an Envelope. A fresh random IV is drawn
// from crypto/rand on every call.
func (s *Sealer) Seal(plaintext string) (Envelope, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return Envelope{}, fmt.Errorf("seal: generating IV: %w", err)
	}

	// GCM's Seal output is ciphertext||tag; the envelope carries the
	// tag as its own field, so split it off.
	sealed := s.aead.Seal(nil, iv, []byte(plaintext), nil)
	boundary := len(sealed) - tagSize

	return Envelope{
		IV:          hex.EncodeToString(iv),
		AuthTag:     hex.EncodeToString(sealed[boundary:]),
		Ciphertext:  hex.EncodeToString(sealed[:boundary]),
		Algorithm:   Algorithm,
		Version:     EnvelopeVersion,
		EncryptedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Open decrypts an Envelope and returns the plaintext. Every failure
// path wraps ErrDecryption.
func (s *Sealer) Open(envelope Envelope) (string, error) {
	if envelope.Algorithm != Algorithm {
		return "", fmt.Errorf("%w: unsupported algorithm %q", ErrDecryption, envelope.Algorithm)
	}

	iv, err := hex.DecodeString(envelope.IV)
	if err != nil {
		return "", fmt.Errorf("%w: malformed iv: %v", ErrDecryption, err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("%w: iv is %d bytes, want %d", ErrDecryption, len(iv), ivSize)
	}
	tag, err := hex.DecodeString(envelope.AuthTag)
	if err != nil {
		return "", fmt.Errorf("%w: malformed auth tag: %v", ErrDecryption, err)
	}
	if len(tag) != tagSize {
		return "", fmt.Errorf("%w: auth tag is %d bytes, want %d", ErrDecryption, len(tag), tagSize)
	}
	ciphertext, err := hex.DecodeString(envelope.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext: %v", ErrDecryption, err)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := s.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryption)
	}
	return string(plaintext), nil
}

// VerifyIntegrity reports whether the envelope decrypts cleanly. It is
// the non-throwing health-check wrapper around Open.
func (s *Sealer) VerifyIntegrity(envelope Envelope) bool {
	_, err := s.Open(envelope)
	return err == nil
}
