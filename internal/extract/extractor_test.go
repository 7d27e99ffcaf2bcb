package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtractor(t *testing.T, extra ...Rule) *Extractor {
	t.Helper()
	e, err := NewExtractor(extra...)
	require.NoError(t, err)
	return e
}

func TestExtract_EnglishLabels(t *testing.T) {
	rec := newExtractor(t).Extract("Patta No: 1234 Survey No: 56/2 Owner: A. Kumar")

	assert.Equal(t, "1234", rec.PattaNumber)
	assert.Equal(t, "56/2", rec.SurveyNumber)
	assert.Equal(t, "A. Kumar", rec.OwnerName)
	assert.Equal(t, "Unknown", rec.DocumentType)
	assert.Equal(t, "Document Type: Unknown | Patta No: 1234 | Survey No: 56/2 | Owner: A. Kumar", rec.Summary)
}

func TestExtract_TamilLabels(t *testing.T) {
	text := "பட்டா எண்: 789\nசர்வே எண் - 12/3A\nஉடைமையாளரின் பெயர்: முருகன்\nதொகுப்பு வரிசை எண்: 45"

	rec := newExtractor(t).Extract(text)

	assert.Equal(t, "789", rec.PattaNumber)
	assert.Equal(t, "12/3A", rec.SurveyNumber)
	assert.Equal(t, "முருகன்", rec.OwnerName)
	assert.Equal(t, "45", rec.BatchNumber)
	assert.Equal(t, "Patta", rec.DocumentType)
}

func TestExtract_NoMatchKeepsDefaults(t *testing.T) {
	rec := newExtractor(t).Extract("completely unrelated text\nwith two lines")

	assert.Equal(t, Record{DocumentType: "Unknown", Summary: "Document Type: Unknown"}, rec)
}

func TestExtract_EmptyInput(t *testing.T) {
	rec := newExtractor(t).Extract("")

	assert.Equal(t, "Unknown", rec.DocumentType)
	assert.Equal(t, "Document Type: Unknown", rec.Summary)
}

func TestExtract_LastMatchWins(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"tamil first in text", "பட்டா எண்: 111 Patta No: 222"},
		{"english first in text", "Patta No: 222 பட்டா எண்: 111"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newExtractor(t).Extract(tc.text)
			assert.Equal(t, "222", rec.PattaNumber)
		})
	}
}

func TestExtract_OwnerNameSynonymOverwrites(t *testing.T) {
	rec := newExtractor(t).Extract("Owner Name: Lakshmi R")

	assert.Equal(t, "Lakshmi R", rec.OwnerName)
}

func TestExtract_OwnerStopsAtLineEnd(t *testing.T) {
	rec := newExtractor(t).Extract("Owner: S. Raman\nSurvey No: 9/1\nVillage: Kovilpatti")

	assert.Equal(t, "S. Raman", rec.OwnerName)
	assert.Equal(t, "9/1", rec.SurveyNumber)
	assert.Equal(t, "Kovilpatti", rec.Village)
}

func TestExtract_CaseInsensitiveLabels(t *testing.T) {
	rec := newExtractor(t).Extract("PATTA NO: 55 survey no: 7")

	assert.Equal(t, "55", rec.PattaNumber)
	assert.Equal(t, "7", rec.SurveyNumber)
}

func TestExtract_InvisibleCharactersIgnored(t *testing.T) {
	rec := newExtractor(t).Extract("பட்டா\u200c எண்\u200b: 404")

	assert.Equal(t, "404", rec.PattaNumber)
}

func TestExtract_SupplementaryFields(t *testing.T) {
	text := "கிராமம்: அரியலூர் வட்டம்: செந்துறை மாவட்டம்: அரியலூர் தேதி: 12/05/2021"

	rec := newExtractor(t).Extract(text)

	assert.Equal(t, "அரியலூர்", rec.Village)
	assert.Equal(t, "செந்துறை", rec.Taluk)
	assert.Equal(t, "அரியலூர்", rec.District)
	assert.Equal(t, "12/05/2021", rec.Date)
	assert.Equal(t, "Document Type: Unknown", rec.Summary)
}

func TestExtract_MultiWordPlaceNames(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		village  string
		taluk    string
		district string
	}{
		{"one per line", "Village: Kovil Patti\nTaluk: Sri Vaikuntam\nDistrict: Thoothukudi", "Kovil Patti", "Sri Vaikuntam", "Thoothukudi"},
		{"same line", "Village: Kovil Patti Taluk: Sri Vaikuntam District: Thoothukudi", "Kovil Patti", "Sri Vaikuntam", "Thoothukudi"},
		{"end of text", "Village: Kovil Patti", "Kovil Patti", "", ""},
		{"tamil", "கிராமம்: கோவில் பட்டி வட்டம்: திருச்செந்தூர்", "கோவில் பட்டி", "திருச்செந்தூர்", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newExtractor(t).Extract(tc.text)

			assert.Equal(t, tc.village, rec.Village)
			assert.Equal(t, tc.taluk, rec.Taluk)
			assert.Equal(t, tc.district, rec.District)
		})
	}
}

func TestExtract_DistrictLabelIsNotTaluk(t *testing.T) {
	rec := newExtractor(t).Extract("மாவட்டம்: சேலம்")

	assert.Equal(t, "சேலம்", rec.District)
	assert.Empty(t, rec.Taluk)
}

func TestClassify_Priority(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{"sale beats patta", "பட்டா Sale agreement", "Sale Deed"},
		{"tamil sale", "விற்பனை பத்திரம்", "Sale Deed"},
		{"patta beats order", "பட்டா உத்தரவு", "Patta"},
		{"order", "Government Order No 5", "Government Order"},
		{"english patta label is not a class", "Patta No: 1", "Unknown"},
		{"lowercase sale is not a class", "wholesale", "Unknown"},
		{"nothing", "hello", "Unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.text))
		})
	}
}

func TestSummary_OnlyNonEmptyFields(t *testing.T) {
	rec := newExtractor(t).Extract("Survey No: 3 Sale")

	assert.Equal(t, "Document Type: Sale Deed | Survey No: 3", rec.Summary)
	assert.True(t, strings.HasPrefix(rec.Summary, "Document Type: "))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a\n\tb \u200f  c\r\n"))
	assert.Equal(t, "line one\nline two", StripInvisible("line\u200b one\nline two"))
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "rules:\n  - field: surveyNumber\n    label: 'S\\.F\\.\\s*No'\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e, err := NewExtractorFromFile(path)
	require.NoError(t, err)

	rec := e.Extract("Survey No: 1 S.F. No: 88/4")
	assert.Equal(t, "88/4", rec.SurveyNumber)
}

func TestLoadRules_Rejects(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"unknown field", "rules:\n  - field: ownerAge\n    label: Age\n"},
		{"unknown key", "rules:\n  - field: village\n    label: V\n    colour: red\n"},
		{"bad expression", "rules:\n  - field: village\n    label: '(unclosed'\n"},
		{"bad value kind", "rules:\n  - field: village\n    label: V\n    value: money\n"},
		{"empty label", "rules:\n  - field: village\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := LoadRules(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadRules_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	rules, err := LoadRules(path)

	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestNewExtractorFromFile_MissingFile(t *testing.T) {
	_, err := NewExtractorFromFile(filepath.Join(t.TempDir(), "none.yaml"))

	assert.Error(t, err)
}
