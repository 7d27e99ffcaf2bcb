// Package langdetect tags recognized fragments with their script language.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

// Unknown is reported for fragments the detector cannot place
const Unknown = "unknown"

// Tagger detects Tamil and English fragments. The detector is read-only once
// built and may be shared across runs.
type Tagger struct {
	detector lingua.LanguageDetector
}

// NewTagger builds a detector restricted to Tamil and English
func NewTagger() *Tagger {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.Tamil, lingua.English).
		Build()
	return &Tagger{detector: detector}
}

// Detect returns the lowercase language name of text, or Unknown
func (t *Tagger) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return Unknown
	}
	lang, ok := t.detector.DetectLanguageOf(text)
	if !ok {
		return Unknown
	}
	return strings.ToLower(lang.String())
}

// Tag counts fragments per detected language
func (t *Tagger) Tag(fragments []recognition.Fragment) map[string]int {
	counts := make(map[string]int)
	for _, f := range fragments {
		counts[t.Detect(f.Text)]++
	}
	return counts
}
