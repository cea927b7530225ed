// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package emotion

// Extractor assembles Tags. The zero value is unusable: construct
// with NewExtractor so the classifier and tone lexicon are always set.
type Extractor struct {
	classifier Classifier
	tone       Lexicon
}

// NewExtractor returns an Extractor over the compiled-in lexicons.
func NewExtractor() *Extractor {
	return &Extractor{
		classifier: NewClassifier(),
		tone:       defaultToneLexicon,
	}
}

// NewExtractorWith returns an Extractor with a caller-supplied
// classifier and tone lexicon. Used when lexicons are loaded from
// definition files.
func NewExtractorWith(classifier Classifier, tone Lexicon) *Extractor {
	return &Extractor{classifier: classifier, tone: tone}
}

// Extract builds the emotional tag for one interaction. Pure assembly:
// the primary emotion, confidence, and trigger keywords come from
// classifying the host's input; secondary emotions come from tone
// markers in the response; score and band are copied verbatim from
// the entropy result.
func (e *Extractor) Extract(hostInput, response string, entropy EntropyResult) Tag {
	classification := e.classifier.Classify(hostInput)

	return Tag{
		Emotion:         classification.Primary,
		EntropyScore:    entropy.Score,
		EntropyBand:     entropy.Band,
		Secondary:       secondaryEmotions(e.tone, response, classification.Primary),
		TriggerKeywords: classification.Keywords,
		Confidence:      classification.Confidence,
	}
}
