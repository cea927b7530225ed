// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// FingerprintLength is the length in hex characters of a public-key
// fingerprint (8 bytes of digest).
const FingerprintLength = 16

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation keeps fingerprints from ever colliding with machine IDs
// computed over the same bytes. The values are ASCII domain names
// zero-padded to 32 bytes, readable in hex dumps without weakening
// the keyed mode.
type domainKey [32]byte

var (
	fingerprintDomainKey = domainKey{
		'x', 'e', 'n', 'o', 'c', 'o', 'r', 'e', '.', 'k', 'e', 'y', 's', '.',
		'f', 'i', 'n', 'g', 'e', 'r', 'p', 'r', 'i', 'n', 't', 0, 0, 0, 0, 0, 0, 0,
	}

	machineDomainKey = domainKey{
		'x', 'e', 'n', 'o', 'c', 'o', 'r', 'e', '.', 'k', 'e', 'y', 's', '.',
		'm', 'a', 'c', 'h', 'i', 'n', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Fingerprint computes the deterministic short identifier for a public
// key: keyed BLAKE3 over the key bytes, truncated to
// FingerprintLength lowercase hex characters.
func Fingerprint(publicKey []byte) string {
	return truncatedKeyedHash(fingerprintDomainKey, publicKey)
}

// truncatedKeyedHash computes a keyed BLAKE3 digest and returns the
// first FingerprintLength hex characters.
func truncatedKeyedHash(key domainKey, data []byte) string {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed fails only for a wrong key length, which the
		// fixed-size domainKey type rules out.
		panic("keys: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	digest := hasher.Sum(nil)
	return hex.EncodeToString(digest)[:FingerprintLength]
}
