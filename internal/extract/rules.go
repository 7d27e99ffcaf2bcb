package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ValueKind selects the expression that captures a label's value
type ValueKind string

const (
	ValueNumber ValueKind = "number" // decimal digits in any script
	ValueToken  ValueKind = "token"  // letters, digits, marks and / - . _
	ValueLine   ValueKind = "line"   // everything up to the end of the line
	ValuePlace  ValueKind = "place"  // words up to the next "Label:" or the end of the line
	ValueDate   ValueKind = "date"   // d/m/y with / - or . separators
)

var valueExpressions = map[ValueKind]string{
	ValueNumber: `\p{Nd}+`,
	ValueToken:  `[\p{L}\p{M}\p{N}_/\-.]+`,
	ValueLine:   `[^\n]+`,
	ValuePlace:  `[\p{L}\p{M}\p{N}_/\-.]+(?:[ \t]+[\p{L}\p{M}\p{N}_/\-.]+)*?`,
	ValueDate:   `\p{Nd}{1,4}[/\-.]\p{Nd}{1,2}[/\-.]\p{Nd}{1,4}`,
}

// valueFollowers must match right after a value. They are non-capturing, so
// the value stays the last submatch.
var valueFollowers = map[ValueKind]string{
	ValuePlace: `(?:[ \t]+[^\s:]+[ \t]*:|[ \t]*(?:\n|$))`,
}

// Source selects which form of the text a rule is matched against
type Source string

const (
	// SourceNormalized is whitespace-collapsed single-line text
	SourceNormalized Source = "normalized"
	// SourceLines keeps line breaks so values can stop at the end of a line
	SourceLines Source = "lines"
)

// labelSeparator sits between a label and its value
const labelSeparator = `\s*[:\- ]+`

// Rule pairs a label expression with a value expression for one field
type Rule struct {
	Field  Field     `yaml:"field"`
	Label  string    `yaml:"label"`
	Value  ValueKind `yaml:"value"`
	Source Source    `yaml:"source"`

	re *regexp.Regexp
}

// compile validates the rule and builds its case-insensitive expression
func (r *Rule) compile() error {
	if !knownFields[r.Field] {
		return fmt.Errorf("unknown field %q", r.Field)
	}
	if r.Label == "" {
		return fmt.Errorf("rule for %s has an empty label", r.Field)
	}
	if r.Value == "" {
		r.Value = ValueToken
	}
	valueExpr, ok := valueExpressions[r.Value]
	if !ok {
		return fmt.Errorf("rule for %s has unknown value kind %q", r.Field, r.Value)
	}
	if r.Source == "" {
		r.Source = SourceNormalized
		if r.Value == ValueLine || r.Value == ValuePlace {
			r.Source = SourceLines
		}
	}
	if r.Source != SourceNormalized && r.Source != SourceLines {
		return fmt.Errorf("rule for %s has unknown source %q", r.Field, r.Source)
	}

	re, err := regexp.Compile(`(?i)(?:` + norm.NFC.String(r.Label) + `)` + labelSeparator + `(` + valueExpr + `)` + valueFollowers[r.Value])
	if err != nil {
		return fmt.Errorf("rule for %s: %w", r.Field, err)
	}
	r.re = re
	return nil
}

// match returns the captured value, or false when the rule does not apply
func (r *Rule) match(text string) (string, bool) {
	m := r.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[len(m)-1], true
}

// Tamil labels precede their English synonyms so that English wins when both
// are present. notAfterLetter keeps "வட்டம்" from matching inside "மாவட்டம்".
const notAfterLetter = `(?:^|[^\p{L}\p{M}])`

// DefaultRules returns the built-in bilingual rule table
func DefaultRules() []Rule {
	return []Rule{
		{Field: FieldPattaNumber, Label: `பட்டா\s*எண்`, Value: ValueNumber},
		{Field: FieldPattaNumber, Label: `Patta\s*No`, Value: ValueNumber},

		{Field: FieldBatchNumber, Label: `தொகுப்பு\s*வரிசை\s*எண்`},
		{Field: FieldBatchNumber, Label: `Thokuppu`},

		{Field: FieldSurveyNumber, Label: `சர்வே\s*எண்`},
		{Field: FieldSurveyNumber, Label: `Survey\s*No`},

		{Field: FieldOwnerName, Label: `உடைமையாளர(?:்|ின்)\s*பெயர்`, Value: ValueLine},
		{Field: FieldOwnerName, Label: `Owner`, Value: ValueLine},
		{Field: FieldOwnerName, Label: `Owner\s*Name`, Value: ValueLine},

		{Field: FieldVillage, Label: `கிராமம்`, Value: ValuePlace},
		{Field: FieldVillage, Label: `\bVillage`, Value: ValuePlace},

		{Field: FieldTaluk, Label: notAfterLetter + `வட்டம்`, Value: ValuePlace},
		{Field: FieldTaluk, Label: `\bTaluk`, Value: ValuePlace},

		{Field: FieldDistrict, Label: `மாவட்டம்`, Value: ValuePlace},
		{Field: FieldDistrict, Label: `\bDistrict`, Value: ValuePlace},

		{Field: FieldDate, Label: `தேதி`, Value: ValueDate},
		{Field: FieldDate, Label: `\bDate`, Value: ValueDate},
	}
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads additional rules from a YAML file of the form
//
//	rules:
//	  - field: surveyNumber
//	    label: 'S\.?F\.?\s*No'
//	    value: token
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file ruleFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	for i := range file.Rules {
		if err := file.Rules[i].compile(); err != nil {
			return nil, fmt.Errorf("rules file %s, rule %d: %w", path, i+1, err)
		}
	}
	return file.Rules, nil
}
