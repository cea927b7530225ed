// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package emotion

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Classification is the classifier's fixed output contract.
type Classification struct {
	Primary    Emotion  `json:"primary"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
}

// Classifier maps raw text to a primary emotion with confidence and
// the keywords that triggered it.
type Classifier interface {
	Classify(text string) Classification
}

// LexiconEntry binds one emotion to its keyword set. Entries are held
// in a slice so iteration order, and therefore tie-breaking and
// secondary-emotion ordering, is fixed.
type LexiconEntry struct {
	Emotion  Emotion  `json:"emotion"`
	Keywords []string `json:"keywords"`
}

// Lexicon is an ordered emotion-to-keywords mapping. Each emotion
// appears at most once.
type Lexicon struct {
	Entries []LexiconEntry `json:"entries"`
}

// defaultPrimaryLexicon classifies host input. Keywords are matched as
// lowercase substrings.
var defaultPrimaryLexicon = Lexicon{Entries: []LexiconEntry{
	{Fearful, []string{"afraid", "scared", "worried", "crash", "lose everything", "panic", "terrified"}},
	{Greedy, []string{"moon", "rich", "profit", "gains", "all in", "double", "lambo", "fortune"}},
	{Anxious, []string{"nervous", "uneasy", "can't sleep", "stress", "restless", "on edge"}},
	{Euphoric, []string{"amazing", "incredible", "unstoppable", "best day", "ecstatic", "flying"}},
	{Desperate, []string{"last chance", "please", "need this", "begging", "nothing left", "ruined"}},
	{Hostile, []string{"hate", "stupid", "useless", "shut up", "liar", "scam"}},
	{Curious, []string{"why", "how does", "what if", "wonder", "explain", "curious"}},
}}

// defaultToneLexicon detects secondary emotions from the xeno's
// response text. Disjoint from the primary lexicon: these are
// narrative tone markers, not host vocabulary.
var defaultToneLexicon = Lexicon{Entries: []LexiconEntry{
	{Fearful, []string{"the static trembles", "something watches", "signal decay"}},
	{Greedy, []string{"hunger in the feed", "the pulse quickens", "appetite"}},
	{Anxious, []string{"fraying", "the hum rises", "interference"}},
	{Euphoric, []string{"resonance", "the lattice sings", "luminous"}},
	{Desperate, []string{"fading", "last thread", "reaching through"}},
	{Hostile, []string{"cold read", "teeth in the signal", "adversarial"}},
	{Curious, []string{"anomaly", "pattern worth tracing", "unindexed"}},
}}

// DefaultToneLexicon returns the compiled-in narrative tone lexicon,
// for callers overriding only the primary lexicon.
func DefaultToneLexicon() Lexicon {
	return defaultToneLexicon
}

// LexiconClassifier is the default lexicon-intersection classifier.
type LexiconClassifier struct {
	lexicon Lexicon
}

// NewClassifier returns a classifier over the compiled-in lexicon.
func NewClassifier() *LexiconClassifier {
	return &LexiconClassifier{lexicon: defaultPrimaryLexicon}
}

// NewClassifierFromLexicon returns a classifier over a caller-supplied
// lexicon (typically loaded with LoadLexicon).
func NewClassifierFromLexicon(lexicon Lexicon) *LexiconClassifier {
	return &LexiconClassifier{lexicon: lexicon}
}

// Classify scans the text against every lexicon entry and returns the
// emotion with the most keyword hits. Ties break to the
// first-encountered entry. Text with no hits classifies as Neutral
// with floor confidence.
func (c *LexiconClassifier) Classify(text string) Classification {
	lowered := strings.ToLower(text)

	best := Classification{Primary: Neutral, Confidence: 0.2}
	bestHits := 0

	for _, entry := range c.lexicon.Entries {
		var matched []string
		for _, keyword := range entry.Keywords {
			if strings.Contains(lowered, keyword) {
				matched = append(matched, keyword)
			}
		}
		if len(matched) > bestHits {
			bestHits = len(matched)
			best = Classification{
				Primary:    entry.Emotion,
				Confidence: confidenceForHits(len(matched)),
				Keywords:   matched,
			}
		}
	}
	return best
}

// confidenceForHits maps a keyword hit count to [0,1]. One hit is a
// weak signal; each additional hit raises confidence toward a cap
// below certainty.
func confidenceForHits(hits int) float64 {
	confidence := 0.4 + 0.15*float64(hits-1)
	if confidence > 0.95 {
		return 0.95
	}
	return confidence
}

// secondaryEmotions scans response text against the tone lexicon and
// returns every matched emotion other than the primary and Neutral,
// in lexicon order. Each emotion appears at most once in the lexicon,
// so no de-duplication is needed.
func secondaryEmotions(lexicon Lexicon, responseText string, primary Emotion) []Emotion {
	lowered := strings.ToLower(responseText)

	var secondary []Emotion
	for _, entry := range lexicon.Entries {
		if entry.Emotion == primary || entry.Emotion == Neutral {
			continue
		}
		for _, marker := range entry.Keywords {
			if strings.Contains(lowered, marker) {
				secondary = append(secondary, entry.Emotion)
				break
			}
		}
	}
	return secondary
}

// LoadLexicon parses a JSONC lexicon definition file. The format is an
// object with an "entries" array; comments and trailing commas are
// allowed, matching the other definition files in this project.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("emotion: reading lexicon file: %w", err)
	}

	stripped := jsonc.ToJSON(data)

	var lexicon Lexicon
	if err := json.Unmarshal(stripped, &lexicon); err != nil {
		return Lexicon{}, fmt.Errorf("emotion: parsing lexicon %s: %w", path, err)
	}
	if err := validateLexicon(lexicon); err != nil {
		return Lexicon{}, fmt.Errorf("emotion: invalid lexicon %s: %w", path, err)
	}
	return lexicon, nil
}

// validateLexicon rejects empty entries and duplicate emotions, which
// would break the at-most-once guarantee secondary extraction relies
// on.
func validateLexicon(lexicon Lexicon) error {
	if len(lexicon.Entries) == 0 {
		return fmt.Errorf("no entries")
	}
	seen := make(map[Emotion]bool, len(lexicon.Entries))
	for _, entry := range lexicon.Entries {
		if entry.Emotion == "" {
			return fmt.Errorf("entry with empty emotion")
		}
		if seen[entry.Emotion] {
			return fmt.Errorf("duplicate emotion %q", entry.Emotion)
		}
		seen[entry.Emotion] = true
		if len(entry.Keywords) == 0 {
			return fmt.Errorf("emotion %q has no keywords", entry.Emotion)
		}
	}
	return nil
}
