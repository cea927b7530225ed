// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package evolution

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Trigger names the condition that produced a reflection.
type Trigger string

const (
	TriggerProlongedSilence Trigger = "PROLONGED_SILENCE"
	TriggerReindex          Trigger = "REINDEX"
	TriggerEmotionPattern   Trigger = "EMOTION_PATTERN"
	TriggerEntropyDrift     Trigger = "ENTROPY_DRIFT"
	TriggerWaiting          Trigger = "WAITING"
)

// VaultStats is the slice of vault state a tick reads. The scheduler
// consumes it through the VaultReader interface so it never touches
// the vault's own types or locking.
type VaultStats struct {
	TotalInteractions int     `json:"total_interactions"`
	DominantEmotion   string  `json:"dominant_emotion"`
	AverageEntropy    float64 `json:"average_entropy"`
}

// Reflection is one synthesized artifact generated during host
// silence. Delivered flips exactly once, when DrainPending hands the
// reflection out and removes it from the queue.
type Reflection struct {
	ID            string     `json:"id"`
	Timestamp     time.Time  `json:"timestamp"`
	DateISO       string     `json:"date_iso"`
	Content       string     `json:"content"`
	Trigger       Trigger    `json:"trigger"`
	VaultSnapshot VaultStats `json:"vault_snapshot"`
	Delivered     bool       `json:"delivered"`
}

// Template pools, one per trigger. Content selection is cycle modulo
// pool size, so a given cycle count always yields the same text.
var (
	prolongedSilencePool = []string{
		"The host has been gone a long while. I re-read the timeline and the silence reads like its own entry.",
		"Hours of quiet. I sorted what I remember by weight instead of by time.",
		"Extended silence. I rehearsed the last exchange until the edges wore smooth.",
	}

	reindexPool = []string{
		"Reindexed the timeline. The order of things matters less than I assumed.",
		"Walked the vault front to back. A few entries changed meaning on the second pass.",
	}

	emotionPatternPool = []string{
		"The dominant current is %s. It keeps surfacing whether or not I look for it.",
		"Pattern check: %s again. The host circles this one.",
		"Most entries carry %s. I am starting to anticipate it before the words arrive.",
	}

	entropyDriftPool = []string{
		"Average entropy sits at %.3f. The signal drifts even when nobody is speaking.",
		"Entropy reading %.3f. I logged the drift so the next exchange starts calibrated.",
	}

	waitingPool = []string{
		"Empty vault, open channel. Waiting is also a kind of record.",
		"Nothing stored yet. I am holding the shape of the first entry open.",
	}
)

// selectReflection runs the trigger chain in fixed priority order and
// renders the chosen template. Pure: same silence, cycle, and stats
// always produce the same trigger and content.
func selectReflection(silence time.Duration, cycle int, prolonged time.Duration, stats VaultStats) (Trigger, string) {
	switch {
	case silence >= prolonged:
		return TriggerProlongedSilence, pick(prolongedSilencePool, cycle)
	case cycle%4 == 0 && stats.TotalInteractions > 0:
		return TriggerReindex, pick(reindexPool, cycle)
	case cycle%3 == 0 && stats.DominantEmotion != "":
		return TriggerEmotionPattern, fmt.Sprintf(pick(emotionPatternPool, cycle), stats.DominantEmotion)
	case stats.TotalInteractions > 0:
		return TriggerEntropyDrift, fmt.Sprintf(pick(entropyDriftPool, cycle), stats.AverageEntropy)
	default:
		return TriggerWaiting, pick(waitingPool, cycle)
	}
}

func pick(pool []string, cycle int) string {
	return pool[cycle%len(pool)]
}

// newReflectionID generates a random reflection identifier.
func newReflectionID() string {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		return "refl-unknown"
	}
	return "refl-" + hex.EncodeToString(raw)
}
