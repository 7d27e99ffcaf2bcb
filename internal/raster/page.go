// Package raster turns input files into ordered sequences of page images.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Stage marks one normalization transform that has already been applied to a
// page. Stages are recorded so re-normalizing a page is a fixed point.
type Stage uint8

const (
	StageResize Stage = 1 << iota
	StageGrayscale
	StageDenoise
	StageOrientation
)

func (s Stage) String() string {
	switch s {
	case StageResize:
		return "resize"
	case StageGrayscale:
		return "grayscale"
	case StageDenoise:
		return "denoise"
	case StageOrientation:
		return "orientation"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// Page is one raster page. Values are never mutated after construction; every
// transform produces a new Page via WithImage.
type Page struct {
	index  int
	img    image.Image
	stages Stage
}

// NewPage wraps img as the page with the given 1-based index.
func NewPage(index int, img image.Image) Page {
	return Page{index: index, img: img}
}

// Index is the 1-based position of the page in its source document.
func (p Page) Index() int { return p.index }

// Image returns the pixel buffer. Callers must treat it as read-only.
func (p Page) Image() image.Image { return p.img }

// Bounds returns the pixel bounds of the page, or an empty rectangle.
func (p Page) Bounds() image.Rectangle {
	if p.img == nil {
		return image.Rectangle{}
	}
	return p.img.Bounds()
}

// Has reports whether stage s was already applied.
func (p Page) Has(s Stage) bool { return p.stages&s != 0 }

// Stages returns the set of applied stages.
func (p Page) Stages() Stage { return p.stages }

// WithImage returns a copy of p carrying img and the additional stage.
func (p Page) WithImage(img image.Image, s Stage) Page {
	return Page{index: p.index, img: img, stages: p.stages | s}
}

// EncodePNG serializes the page for engines and preview artifacts.
func (p Page) EncodePNG() ([]byte, error) {
	if p.img == nil {
		return nil, fmt.Errorf("page %d has no image", p.index)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.img); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %w", p.index, err)
	}
	return buf.Bytes(), nil
}
