// Package extract derives a fixed-schema land record from recognized text.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// category is one document class, tested in priority order
type category struct {
	pattern *regexp.Regexp
	label   string
}

// Keyword tests are case-sensitive, matching the casing used on printed forms.
var categories = []category{
	{regexp.MustCompile(`விற்பனை|Sale`), "Sale Deed"},
	{regexp.MustCompile(`பட்டா`), "Patta"},
	{regexp.MustCompile(`உத்தரவு|Order`), "Government Order"},
}

// Extractor applies an ordered rule table to text. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	rules []Rule
}

// NewExtractor builds an extractor from the default rules followed by extra.
// Rules later in the table overwrite earlier matches for the same field.
func NewExtractor(extra ...Rule) (*Extractor, error) {
	rules := append(DefaultRules(), extra...)
	for i := range rules {
		if rules[i].re != nil {
			continue
		}
		if err := rules[i].compile(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return &Extractor{rules: rules}, nil
}

// NewExtractorFromFile extends the default rules with those in path. An
// empty path yields the default table.
func NewExtractorFromFile(path string) (*Extractor, error) {
	if path == "" {
		return NewExtractor()
	}
	extra, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return NewExtractor(extra...)
}

// Extract populates a Record from text. It never fails: fields without a
// matching rule keep their defaults.
func (e *Extractor) Extract(text string) Record {
	lines := StripInvisible(text)
	normalized := NormalizeText(text)

	record := NewRecord()

	for i := range e.rules {
		rule := &e.rules[i]
		src := normalized
		if rule.Source == SourceLines {
			src = lines
		}
		value, ok := rule.match(src)
		if !ok {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			record.set(rule.Field, value)
		}
	}

	record.DocumentType = classify(normalized)
	record.Summary = record.summarize()
	return record
}

// Classify returns the document type of text
func Classify(text string) string {
	return classify(NormalizeText(text))
}

func classify(normalized string) string {
	for _, c := range categories {
		if c.pattern.MatchString(normalized) {
			return c.label
		}
	}
	return UnknownDocumentType
}
