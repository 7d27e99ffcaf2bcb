package tesseract

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const skewedPage = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
 <body>
  <div class='ocr_page' id='page_1' title='image "scan.png"; bbox 0 0 1240 1754; ppageno 0'>
   <div class='ocr_carea' id='block_1_1' title="bbox 96 120 1140 410">
    <p class='ocr_par' id='par_1_1' lang='tam' title="bbox 96 120 1140 410">
     <span class='ocr_line' id='line_1_1' title="bbox 96 120 1140 160; baseline 0.017 -9; x_size 34; x_descenders 7; x_ascenders 9">
      <span class='ocrx_word' id='word_1_1' title='bbox 96 120 300 160; x_wconf 91'>பட்டா</span>
     </span>
     <span class='ocr_line' id='line_1_2' title="bbox 96 200 1140 240; baseline 0.02 -8; x_size 33">
      <span class='ocrx_word' id='word_1_2' title='bbox 96 200 300 240; x_wconf 88'>Patta</span>
     </span>
     <span class='ocr_line' id='line_1_3' title="bbox 96 300 400 410; baseline -0.3 -2; x_size 30">
      <span class='ocrx_word' id='word_1_3' title='bbox 96 300 400 410; x_wconf 40'>1234</span>
     </span>
    </p>
   </div>
  </div>
 </body>
</html>`

func degrees(slope float64) float64 {
	return math.Atan(slope) * 180 / math.Pi
}

func TestHOCRAngle_MedianOfBaselines(t *testing.T) {
	angle, err := hocrAngle(strings.NewReader(skewedPage))

	require.NoError(t, err)
	assert.InDelta(t, degrees(0.017), angle, 1e-9)
}

func TestHOCRAngle_EvenCountAverages(t *testing.T) {
	doc := `<div class='ocr_page'>
<span class='ocr_line' title="bbox 0 0 10 10; baseline 0 0"></span>
<span class='ocr_line' title="bbox 0 20 10 30; baseline 0.0349 -1"></span>
</div>`

	angle, err := hocrAngle(strings.NewReader(doc))

	require.NoError(t, err)
	assert.InDelta(t, degrees(0.0349)/2, angle, 1e-9)
}

func TestLineAngle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  float64
		ok    bool
	}{
		{"level", "bbox 0 0 100 20; baseline 0 -4; x_size 20", 0, true},
		{"descending to the right", "bbox 0 0 100 20; baseline 1 0", 45, true},
		{"rotated counterclockwise", "bbox 0 0 20 100; textangle 90; baseline 0 -3", -90, true},
		{"rotated clockwise", "bbox 0 0 20 100; textangle 270; baseline 0 -3", 90, true},
		{"upside down", "bbox 0 0 100 20; textangle 180; baseline 0 -3", 180, true},
		{"no baseline", "bbox 0 0 100 20; x_size 20", 0, false},
		{"malformed slope", "bbox 0 0 100 20; baseline abc -4", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lineAngle(tt.title)

			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestHOCRAngle_SkipsLinesWithoutBaseline(t *testing.T) {
	doc := `<div class='ocr_page'>
<span class='ocr_line' title="bbox 0 0 10 10"></span>
<span class='ocr_line' title="bbox 0 20 10 30; textangle 90; baseline 0 0"></span>
</div>`

	angle, err := hocrAngle(strings.NewReader(doc))

	require.NoError(t, err)
	assert.InDelta(t, -90.0, angle, 1e-9)
}

func TestHOCRAngle_NoLines(t *testing.T) {
	doc := `<div class='ocr_page' title='bbox 0 0 200 200'><div class='ocr_carea'></div></div>`

	_, err := hocrAngle(strings.NewReader(doc))

	assert.ErrorIs(t, err, errNoTextLines)
}
