//go:build ocr

/**
 * Tesseract engine - offline bilingual recognition
 *
 * Wraps gosseract. A fresh client is created for every call and closed
 * before returning, so concurrent runs never share engine state.
 * Requires the Tesseract and Leptonica headers; build with -tags ocr.
 */

package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/adverant/nexus/landrecord-worker/internal/errors"
	"github.com/adverant/nexus/landrecord-worker/internal/raster"
	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

// Engine recognizes text lines with Tesseract
type Engine struct {
	opts          recognition.Options
	clientFactory func() *gosseract.Client
}

// New creates a Tesseract engine for the configured language pair
func New(opts recognition.Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts, clientFactory: gosseract.NewClient}, nil
}

func (e *Engine) Name() string { return engineName }

// Recognize returns one fragment per text line, in Tesseract's reading order
func (e *Engine) Recognize(ctx context.Context, page raster.Page) ([]recognition.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := page.EncodePNG()
	if err != nil {
		return nil, errors.NewRecognitionError(engineName, page.Index(), err)
	}

	client := e.clientFactory()
	defer client.Close()

	if err := e.configure(client, data); err != nil {
		return nil, errors.NewRecognitionError(engineName, page.Index(), err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, errors.NewRecognitionError(engineName, page.Index(), fmt.Errorf("text lines: %w", err))
	}

	fragments := make([]recognition.Fragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		fragments = append(fragments, recognition.Fragment{
			Text:       text,
			Confidence: recognition.ClampConfidence(b.Confidence / 100.0),
			Box:        recognition.BoxFromRect(b.Box),
			PageIndex:  page.Index(),
		})
	}

	return fragments, nil
}

func (e *Engine) configure(client *gosseract.Client, data []byte) error {
	if err := client.SetLanguage(e.opts.Languages...); err != nil {
		return fmt.Errorf("set languages: %w", err)
	}
	mode := gosseract.PSM_AUTO
	if e.opts.UseAngleCls {
		mode = gosseract.PSM_AUTO_OSD
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return fmt.Errorf("set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	return nil
}

// EstimateOrientation runs an automatic segmentation pass with orientation
// detection and returns the median clockwise skew of the detected text lines,
// read from the hOCR baselines.
func (e *Engine) EstimateOrientation(ctx context.Context, page raster.Page) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := page.EncodePNG()
	if err != nil {
		return 0, err
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetLanguage(e.opts.Languages...); err != nil {
		return 0, fmt.Errorf("set languages: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO_OSD); err != nil {
		return 0, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return 0, fmt.Errorf("set image: %w", err)
	}

	hocr, err := client.HOCRText()
	if err != nil {
		return 0, fmt.Errorf("orientation pass: %w", err)
	}
	return hocrAngle(strings.NewReader(hocr))
}
