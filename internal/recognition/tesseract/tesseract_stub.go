//go:build !ocr

package tesseract

import (
	"context"
	"errors"

	"github.com/adverant/nexus/landrecord-worker/internal/raster"
	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

// ErrOCRNotEnabled is returned when the binary was built without Tesseract
var ErrOCRNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags ocr")

// Engine is a placeholder that fails every call
type Engine struct{}

// New validates opts and reports that Tesseract is not compiled in
func New(opts recognition.Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return nil, ErrOCRNotEnabled
}

func (e *Engine) Name() string { return engineName }

func (e *Engine) Recognize(ctx context.Context, page raster.Page) ([]recognition.Fragment, error) {
	return nil, ErrOCRNotEnabled
}

func (e *Engine) EstimateOrientation(ctx context.Context, page raster.Page) (float64, error) {
	return 0, ErrOCRNotEnabled
}
