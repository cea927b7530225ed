// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package emotion turns raw conversation text plus an externally
// computed entropy result into the structured tag stored on every
// vault timeline entry.
//
// The entropy result comes from the brain collaborator and is consumed
// verbatim; this package never scores anything. The primary emotion
// comes from a lexicon-intersection classifier over the host's input;
// secondary emotions come from a disjoint set of narrative tone
// markers scanned over the xeno's response. Both lexicons are ordered
// slices, not maps, so classification is deterministic for a given
// input.
//
// Lexicons ship compiled in and can be overridden by a JSONC
// definition file (comments allowed), parsed the same way pipeline
// definitions are elsewhere in this codebase.
package emotion
