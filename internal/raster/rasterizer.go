package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"

	"github.com/adverant/nexus/landrecord-worker/internal/errors"
	"github.com/adverant/nexus/landrecord-worker/internal/logging"
)

// Letter size in points, used when a leaf has no usable MediaBox.
const (
	defaultLeafWidthPt  = 612.0
	defaultLeafHeightPt = 792.0
)

// Kind is the input category chosen from the file extension.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindImage
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// DetectKind classifies path by extension only.
func DetectKind(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return KindPDF
	}
	if imageExtensions[ext] {
		return KindImage
	}
	return KindUnknown
}

// Rasterizer converts a file into pages. PDF leaves are rendered at a fixed
// DPI chosen once at construction.
type Rasterizer struct {
	dpi    int
	logger *logging.Logger
}

// NewRasterizer creates a rasterizer rendering paginated sources at dpi
func NewRasterizer(dpi int, logger *logging.Logger) *Rasterizer {
	if logger == nil {
		logger = logging.NewLogger("raster")
	}
	return &Rasterizer{dpi: dpi, logger: logger}
}

// Rasterize returns the pages of path in source order. A document with zero
// leaves yields an empty slice and a nil error.
func (r *Rasterizer) Rasterize(ctx context.Context, path string) ([]Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIOError(path, err)
	}
	if info.IsDir() {
		return nil, errors.NewIOError(path, fmt.Errorf("path is a directory"))
	}

	switch DetectKind(path) {
	case KindPDF:
		return r.rasterizePDF(ctx, path)
	case KindImage:
		return r.rasterizeImage(path)
	default:
		return nil, errors.NewFormatError(path, "neither a PDF nor a supported raster image", nil)
	}
}

func (r *Rasterizer) rasterizeImage(path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError(path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.NewFormatError(path, "image could not be decoded", err)
	}

	return []Page{NewPage(1, img)}, nil
}

func (r *Rasterizer) rasterizePDF(ctx context.Context, path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError(path, err)
	}

	doc, err := reader.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.NewFormatError(path, "PDF could not be parsed", err)
	}
	defer doc.Close()

	count, err := doc.PageCount()
	if err != nil {
		return nil, errors.NewFormatError(path, "PDF page tree is unreadable", err)
	}

	result := make([]Page, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		leaf, err := doc.GetPage(i)
		if err != nil {
			return nil, errors.NewFormatError(path, fmt.Sprintf("leaf %d is unreadable", i+1), err)
		}

		img := r.renderLeaf(doc, leaf, i+1)
		result = append(result, NewPage(i+1, img))
	}

	r.logger.Debug("PDF rasterized", "path", path, "pages", len(result), "dpi", r.dpi)
	return result, nil
}

// renderLeaf produces the raster for one leaf: its largest decodable embedded
// image resampled to the target DPI, or a blank canvas when there is none.
func (r *Rasterizer) renderLeaf(doc *reader.Reader, leaf *pages.Page, index int) image.Image {
	widthPt, heightPt := leafSize(leaf)
	targetW := int(math.Round(widthPt / 72 * float64(r.dpi)))
	targetH := int(math.Round(heightPt / 72 * float64(r.dpi)))

	images, err := doc.ExtractPageImages(leaf)
	if err != nil {
		r.logger.Warn("failed to extract leaf images", "page", index, "error", err)
	}

	src := largestDecodable(images)
	if src == nil {
		r.logger.Warn("leaf has no raster content, using blank canvas", "page", index)
		return blankCanvas(targetW, targetH)
	}

	src = applyLeafRotation(src, leaf.Rotate())
	return scaleToWidth(src, targetW)
}

func leafSize(leaf *pages.Page) (float64, float64) {
	w, errW := leaf.Width()
	h, errH := leaf.Height()
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		w, h = defaultLeafWidthPt, defaultLeafHeightPt
	}
	if rot := leaf.Rotate(); rot == 90 || rot == 270 {
		w, h = h, w
	}
	return w, h
}

// largestDecodable tries images from largest to smallest area and returns the
// first that decodes.
func largestDecodable(images []reader.PageImage) image.Image {
	remaining := append([]reader.PageImage(nil), images...)
	for len(remaining) > 0 {
		best := 0
		for i := range remaining {
			if remaining[i].Width*remaining[i].Height > remaining[best].Width*remaining[best].Height {
				best = i
			}
		}
		if img, err := decodePageImage(remaining[best]); err == nil {
			return img
		}
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return nil
}

func decodePageImage(pi reader.PageImage) (image.Image, error) {
	switch pi.Filter {
	case "DCTDecode", "DCT":
		return jpeg.Decode(bytes.NewReader(pi.Data))
	case "JPXDecode":
		return nil, fmt.Errorf("JPEG 2000 images are not supported")
	}

	data, err := pi.ToPNG()
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func blankCanvas(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	canvas := image.NewGray(image.Rect(0, 0, w, h))
	for i := range canvas.Pix {
		canvas.Pix[i] = 0xff
	}
	return canvas
}

// scaleToWidth resamples src to width w keeping the aspect ratio. Gray
// sources stay single-channel.
func scaleToWidth(src image.Image, w int) image.Image {
	b := src.Bounds()
	if w <= 0 || b.Dx() == 0 || b.Dx() == w {
		return src
	}
	h := int(math.Round(float64(b.Dy()) * float64(w) / float64(b.Dx())))
	if h < 1 {
		h = 1
	}
	return resample(src, w, h)
}

// resample draws src into a new w×h buffer with Catmull-Rom filtering.
func resample(src image.Image, w, h int) image.Image {
	rect := image.Rect(0, 0, w, h)
	var dst draw.Image
	if _, ok := src.(*image.Gray); ok {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	draw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
	return dst
}

// ResampleToWidth is exported for the normalizer's optional resize stage.
func ResampleToWidth(src image.Image, w int) image.Image {
	return scaleToWidth(src, w)
}

// applyLeafRotation honours the /Rotate entry of a leaf (clockwise, multiple
// of 90).
func applyLeafRotation(src image.Image, degrees int) image.Image {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return rotateQuarter(src, 1)
	case 180:
		return rotateQuarter(src, 2)
	case 270:
		return rotateQuarter(src, 3)
	default:
		return src
	}
}

// rotateQuarter rotates src clockwise by turns×90 degrees.
func rotateQuarter(src image.Image, turns int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	var dst *image.RGBA
	if turns%2 == 1 {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.At(b.Min.X+x, b.Min.Y+y)
			switch turns {
			case 1:
				dst.Set(h-1-y, x, c)
			case 2:
				dst.Set(w-1-x, h-1-y, c)
			case 3:
				dst.Set(y, w-1-x, c)
			}
		}
	}
	return dst
}
