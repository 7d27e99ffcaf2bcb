package aggregate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

func page(index int, texts ...string) recognition.PageFragments {
	frags := make([]recognition.Fragment, 0, len(texts))
	for _, t := range texts {
		frags = append(frags, recognition.Fragment{Text: t, Confidence: 0.9, PageIndex: index})
	}
	return recognition.PageFragments{PageIndex: index, Fragments: frags}
}

func TestAggregate_TwoPagesLiteralSeparator(t *testing.T) {
	out := Aggregate([]recognition.PageFragments{page(1, "Hello"), page(2, "World")})

	assert.Equal(t, "Hello\n\n--- Page 1 ---\n\nWorld", out.Flat)
	assert.Len(t, out.Fragments, 2)
}

func TestAggregate_SinglePageHasNoMarker(t *testing.T) {
	out := Aggregate([]recognition.PageFragments{page(1, "பட்டா எண்: 12", "Survey No: 4")})

	assert.Equal(t, "பட்டா எண்: 12\nSurvey No: 4", out.Flat)
	assert.NotContains(t, out.Flat, "--- Page")
}

func TestAggregate_PreservesFragmentOrder(t *testing.T) {
	pages := []recognition.PageFragments{
		page(2, "c", "d"),
		page(1, "b", "a"),
		page(3, "e"),
	}

	out := Aggregate(pages)

	var texts []string
	for _, f := range out.Fragments {
		texts = append(texts, f.Text)
	}
	assert.Equal(t, []string{"b", "a", "c", "d", "e"}, texts)
	assert.Equal(t, "b\na\n\n--- Page 1 ---\n\nc\nd\n\n--- Page 2 ---\n\ne", out.Flat)
	assert.Equal(t, 2, pages[0].PageIndex, "input must not be reordered in place")
}

func TestAggregate_KeepsDuplicatesAndEmptyPages(t *testing.T) {
	out := Aggregate([]recognition.PageFragments{page(1, "x", "x"), page(2)})

	assert.Len(t, out.Fragments, 2)
	assert.Equal(t, "x\nx\n\n--- Page 1 ---\n\n", out.Flat)
}

func TestAggregate_ZeroPages(t *testing.T) {
	out := Aggregate(nil)

	assert.Empty(t, out.Flat)
	assert.NotNil(t, out.Fragments)
	assert.Empty(t, out.Fragments)
}

func TestAggregate_FlatIsProjectionOfFragments(t *testing.T) {
	out := Aggregate([]recognition.PageFragments{page(1, "a", "b", "c")})

	var texts []string
	for _, f := range out.Fragments {
		texts = append(texts, f.Text)
	}
	assert.Equal(t, strings.Join(texts, "\n"), out.Flat)
}
