// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package evolution schedules autonomous reflection generation during
// host silence.
//
// A silence monitor polls the time since the last host contact. Once
// the silence threshold passes it starts a tick engine, which
// synthesizes one queued Reflection per tick from a deterministic
// trigger chain over the vault's derived statistics. Host contact
// stops the engine and resets its cycle counter; queued reflections
// survive the reset and are handed out in oldest-first batches by
// DrainPending.
package evolution
