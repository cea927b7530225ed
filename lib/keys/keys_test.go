// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	keypair, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	public, err := hex.DecodeString(keypair.PublicKey)
	if err != nil {
		t.Fatalf("PublicKey is not hex: %v", err)
	}
	if len(public) != 32 {
		t.Errorf("public key is %d bytes, want 32", len(public))
	}
	private, err := hex.DecodeString(keypair.PrivateKey)
	if err != nil {
		t.Fatalf("PrivateKey is not hex: %v", err)
	}
	if len(private) != 64 {
		t.Errorf("private key is %d bytes, want 64", len(private))
	}
	if keypair.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
	if got := Fingerprint(public); got != keypair.Fingerprint {
		t.Errorf("Fingerprint = %q, want recomputed %q", keypair.Fingerprint, got)
	}
}

func TestGenerateUnique(t *testing.T) {
	first, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	second, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if first.PrivateKey == second.PrivateKey {
		t.Error("two generated keypairs have identical private keys")
	}
	if first.Fingerprint == second.Fingerprint {
		t.Error("two generated keypairs have identical fingerprints")
	}
}

func TestSignVerify(t *testing.T) {
	keypair, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	content := "the xeno answers from the static"
	signature, err := keypair.Sign(content)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	valid, err := Verify(content, signature, keypair.PublicKey)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if !valid {
		t.Error("Verify(signed content) = false, want true")
	}
}

func TestSignDeterministic(t *testing.T) {
	keypair, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	first, err := keypair.Sign("same content")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	second, err := keypair.Sign("same content")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if first != second {
		t.Error("Ed25519 signing is not deterministic for identical input")
	}
}

func TestVerifyTamperedContent(t *testing.T) {
	keypair, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	signature, err := keypair.Sign("original")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	valid, err := Verify("modified", signature, keypair.PublicKey)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if valid {
		t.Error("Verify(tampered content) = true, want false")
	}
}

func TestVerifyStructuralErrors(t *testing.T) {
	keypair, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	signature, err := keypair.Sign("content")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	tests := []struct {
		name      string
		signature string
		publicKey string
	}{
		{"bad_signature_hex", "not-hex", keypair.PublicKey},
		{"short_signature", "0011", keypair.PublicKey},
		{"bad_key_hex", signature, "zz"},
		{"short_key", signature, "0011"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Verify("content", test.signature, test.publicKey); err == nil {
				t.Error("Verify() error = nil, want structural error")
			}
		})
	}
}

func TestSignBadPrivateKey(t *testing.T) {
	keypair := &Keypair{PrivateKey: "corrupt"}
	if _, err := keypair.Sign("content"); err == nil {
		t.Error("Sign() with corrupt private key error = nil, want error")
	}
}

func TestFingerprintProperties(t *testing.T) {
	keypair, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	public, err := keypair.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes() error: %v", err)
	}

	fingerprint := Fingerprint(public)
	if len(fingerprint) != FingerprintLength {
		t.Errorf("fingerprint length = %d, want %d", len(fingerprint), FingerprintLength)
	}
	if fingerprint != strings.ToLower(fingerprint) {
		t.Errorf("fingerprint %q is not lowercase", fingerprint)
	}
	if again := Fingerprint(public); again != fingerprint {
		t.Errorf("fingerprint not deterministic: %q then %q", fingerprint, again)
	}
}

func TestMachineIDStable(t *testing.T) {
	first := MachineID()
	second := MachineID()

	if first == "" {
		t.Fatal("MachineID() is empty")
	}
	if len(first) != FingerprintLength {
		t.Errorf("MachineID length = %d, want %d", len(first), FingerprintLength)
	}
	if first != second {
		t.Errorf("MachineID not stable: %q then %q", first, second)
	}
}
