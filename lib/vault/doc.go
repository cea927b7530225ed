// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault is the append-only encrypted log of host/xeno
// interactions with derived aggregate statistics.
//
// The whole VaultData structure, timeline plus stats, is the unit of
// encryption and persistence: one JSON seal.Envelope file on disk
// whose plaintext is the VaultData JSON document. Every mutation
// recomputes stats from the full timeline, so stats can never drift
// from what a fresh recalculation would produce.
//
// Failure policy (availability over durability): a missing, corrupt,
// or undecryptable vault file falls back to a fresh empty vault and is
// logged, never surfaced as an error; a failed persist is logged and
// the in-memory state stays intact, so the interaction that triggered
// the write still completes.
package vault
