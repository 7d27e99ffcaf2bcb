package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

func TestTag_CountsPerLanguage(t *testing.T) {
	tagger := NewTagger()

	counts := tagger.Tag([]recognition.Fragment{
		{Text: "உடைமையாளரின் பெயர் முருகன்"},
		{Text: "The owner of this land is registered in the village office"},
		{Text: "   "},
	})

	assert.Equal(t, 1, counts["tamil"])
	assert.Equal(t, 1, counts["english"])
	assert.Equal(t, 1, counts[Unknown])
}

func TestTag_Empty(t *testing.T) {
	assert.Empty(t, NewTagger().Tag(nil))
}
