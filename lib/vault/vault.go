// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"math"
	"time"

	"github.com/xenocore-ai/xenocore/lib/emotion"
)

// MaxEntries caps the timeline. Appends beyond the cap evict the
// oldest entries first. Long-term history beyond the cap is discarded,
// not compacted; a rollup strategy would be a separate archival
// concern.
const MaxEntries = 1000

// previewLimit is the maximum preview length in runes; longer text is
// truncated with a marker.
const previewLimit = 200

// truncationMarker terminates truncated previews.
const truncationMarker = "..."

// Entry is one recorded interaction. Immutable once appended; eligible
// for removal only through oldest-first eviction.
type Entry struct {
	ID               string      `json:"id"`
	Timestamp        time.Time   `json:"timestamp"`
	DateISO          string      `json:"date_iso"`
	Tag              emotion.Tag `json:"tag"`
	HostInputPreview string      `json:"host_input_preview"`
	ResponsePreview  string      `json:"response_preview"`
	SessionID        string      `json:"session_id"`
}

// Stats are the derived aggregates. Always a pure recomputation over
// the current timeline.
type Stats struct {
	TotalInteractions int             `json:"total_interactions"`
	DominantEmotion   emotion.Emotion `json:"dominant_emotion,omitempty"`
	AverageEntropy    float64         `json:"average_entropy"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// Data is the unit of encryption and persistence: the timeline and its
// derived stats, serialized together as one JSON document.
type Data struct {
	Timeline []Entry `json:"timeline"`
	Stats    Stats   `json:"stats"`
}

// computeStats recalculates aggregates from scratch. Total is the
// timeline length; average entropy is the mean score rounded to three
// decimals (zero when empty); the dominant emotion is the most
// frequent tag with ties broken by first encounter during the scan,
// which is deterministic for a given timeline ordering.
func computeStats(timeline []Entry, now time.Time) Stats {
	stats := Stats{
		TotalInteractions: len(timeline),
		LastUpdated:       now,
	}
	if len(timeline) == 0 {
		return stats
	}

	var entropySum float64
	counts := make(map[emotion.Emotion]int, 8)
	var dominant emotion.Emotion
	dominantCount := 0

	for _, entry := range timeline {
		entropySum += entry.Tag.EntropyScore
		counts[entry.Tag.Emotion]++
		if counts[entry.Tag.Emotion] > dominantCount {
			dominantCount = counts[entry.Tag.Emotion]
			dominant = entry.Tag.Emotion
		}
	}

	stats.AverageEntropy = math.Round(entropySum/float64(len(timeline))*1000) / 1000
	stats.DominantEmotion = dominant
	return stats
}

// preview truncates text to the preview limit, appending the marker
// when anything was cut. Rune-aware so multibyte text never splits
// mid-character.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + truncationMarker
}
