package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/nexus/landrecord-worker/internal/errors"
	"github.com/adverant/nexus/landrecord-worker/internal/logging"
)

const emptyPDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [] /Count 0 >>
endobj
xref
0 3
0000000000 65535 f
0000000009 00000 n
0000000058 00000 n
trailer
<< /Size 3 /Root 1 0 R >>
startxref
110
%%EOF`

// onePagePDF builds a single-leaf document whose MediaBox is widthPt×heightPt
// and whose only XObject is a 4×2 DeviceGray image.
func onePagePDF(widthPt, heightPt int) []byte {
	pixels := "AAAAAAAA"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /XObject << /Im1 4 0 R >> >> >>", widthPt, heightPt),
		fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width 4 /Height 2 /ColorSpace /DeviceGray /BitsPerComponent 8 /Length %d >>\nstream\n%s\nendstream", len(pixels), pixels),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(objects)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestRasterizer() *Rasterizer {
	return NewRasterizer(220, logging.NewLoggerTo("raster", &bytes.Buffer{}))
}

func TestRasterize_SingleImageIsOnePage(t *testing.T) {
	path := writeFile(t, "scan.png", pngBytes(t, 40, 30))

	pages, err := newTestRasterizer().Rasterize(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Index())
	assert.Equal(t, 40, pages[0].Bounds().Dx())
	assert.Equal(t, 30, pages[0].Bounds().Dy())
	assert.Equal(t, Stage(0), pages[0].Stages())
}

func TestRasterize_MissingPathIsIOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.pdf")

	_, err := newTestRasterizer().Rasterize(context.Background(), path)

	require.Error(t, err)
	assert.Equal(t, errors.ErrorIO, errors.CodeOf(err))
	assert.Contains(t, err.Error(), path)
}

func TestRasterize_UnknownExtensionIsFormatError(t *testing.T) {
	path := writeFile(t, "deed.docx", []byte("not an image"))

	_, err := newTestRasterizer().Rasterize(context.Background(), path)

	assert.Equal(t, errors.ErrorFormat, errors.CodeOf(err))
}

func TestRasterize_CorruptImageIsFormatError(t *testing.T) {
	path := writeFile(t, "broken.png", []byte("\x89PNG garbage"))

	_, err := newTestRasterizer().Rasterize(context.Background(), path)

	assert.Equal(t, errors.ErrorFormat, errors.CodeOf(err))
}

func TestRasterize_CorruptPDFIsFormatError(t *testing.T) {
	path := writeFile(t, "broken.pdf", []byte("this is not a pdf"))

	_, err := newTestRasterizer().Rasterize(context.Background(), path)

	assert.Equal(t, errors.ErrorFormat, errors.CodeOf(err))
}

func TestRasterize_ZeroPagePDF(t *testing.T) {
	path := writeFile(t, "empty.pdf", []byte(emptyPDF))

	pages, err := newTestRasterizer().Rasterize(context.Background(), path)

	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestRasterize_PDFLeafScaledToDPI(t *testing.T) {
	path := writeFile(t, "one.pdf", onePagePDF(72, 36))

	pages, err := newTestRasterizer().Rasterize(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Index())
	assert.Equal(t, 220, pages[0].Bounds().Dx())
	assert.Equal(t, 110, pages[0].Bounds().Dy())
}

func TestRasterize_CancelledContext(t *testing.T) {
	path := writeFile(t, "one.pdf", onePagePDF(72, 36))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRasterizer().Rasterize(ctx, path)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"a.pdf", KindPDF},
		{"A.PDF", KindPDF},
		{"scan.JPEG", KindImage},
		{"scan.tif", KindImage},
		{"scan.webp", KindImage},
		{"notes.txt", KindUnknown},
		{"noext", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.path))
		})
	}
}

func TestBlankCanvasIsWhite(t *testing.T) {
	img := blankCanvas(3, 2).(*image.Gray)

	for _, p := range img.Pix {
		assert.Equal(t, uint8(0xff), p)
	}
}

func TestApplyLeafRotation_SwapsAxes(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 2))

	rotated := applyLeafRotation(src, 90)

	assert.Equal(t, 2, rotated.Bounds().Dx())
	assert.Equal(t, 4, rotated.Bounds().Dy())
	assert.Equal(t, src, applyLeafRotation(src, 0))
}
