// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"fmt"
	"strings"
)

// HistorySummary renders the most recent entries plus the aggregate
// stats as deterministic text for prompt assembly. Returns the empty
// string when the timeline is empty.
func (s *Store) HistorySummary(recent int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	timeline := s.data.Timeline
	if len(timeline) == 0 {
		return ""
	}
	if recent <= 0 || recent > len(timeline) {
		recent = len(timeline)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Recent interactions (%d of %d):\n", recent, len(timeline))
	for _, entry := range timeline[len(timeline)-recent:] {
		fmt.Fprintf(&builder, "[%s] %s (entropy %.3f, band %s) host: %q / xeno: %q\n",
			entry.DateISO,
			entry.Tag.Emotion,
			entry.Tag.EntropyScore,
			entry.Tag.EntropyBand,
			entry.HostInputPreview,
			entry.ResponsePreview,
		)
	}

	stats := s.data.Stats
	fmt.Fprintf(&builder, "Aggregate: %d interactions, dominant emotion %s, average entropy %.3f\n",
		stats.TotalInteractions, stats.DominantEmotion, stats.AverageEntropy)
	return builder.String()
}
