// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package emotion

// Emotion is a categorical emotion tag. Eight values, fixed.
type Emotion string

const (
	Neutral   Emotion = "neutral"
	Fearful   Emotion = "fearful"
	Greedy    Emotion = "greedy"
	Anxious   Emotion = "anxious"
	Euphoric  Emotion = "euphoric"
	Desperate Emotion = "desperate"
	Hostile   Emotion = "hostile"
	Curious   Emotion = "curious"
)

// Band is an ordered categorical bucket over the entropy score, from
// lowest volatility to highest.
type Band string

const (
	BandDormant  Band = "dormant"
	BandStable   Band = "stable"
	BandElevated Band = "elevated"
	BandCritical Band = "critical"
)

// EntropyResult is the brain collaborator's output, consumed verbatim.
// Score is in [0,1]; Band is one of the four ordered buckets; Emotion
// is the brain's own categorical read; PromptModifier is opaque text
// passed through to the prompt layer.
type EntropyResult struct {
	Score          float64 `json:"score"`
	Band           Band    `json:"band"`
	Emotion        Emotion `json:"emotion"`
	PromptModifier string  `json:"prompt_modifier"`
}

// Tag is the structured emotional record embedded in a timeline entry.
// Immutable once created; EntropyScore and EntropyBand are copied
// verbatim from the supplied EntropyResult.
type Tag struct {
	Emotion         Emotion   `json:"emotion"`
	EntropyScore    float64   `json:"entropy_score"`
	EntropyBand     Band      `json:"entropy_band"`
	Secondary       []Emotion `json:"secondary"`
	TriggerKeywords []string  `json:"trigger_keywords"`
	Confidence      float64   `json:"confidence"`
}
