/**
 * Page normalizer - prepares raster pages for recognition
 *
 * Stages run in a fixed order: optional width resize, grayscale reduction,
 * non-local-means denoising, orientation correction. Every stage can be
 * disabled and every stage is skipped when the page already carries it.
 */

package normalize

import (
	"context"
	"image"
	"math"

	"github.com/adverant/nexus/landrecord-worker/internal/config"
	"github.com/adverant/nexus/landrecord-worker/internal/logging"
	"github.com/adverant/nexus/landrecord-worker/internal/raster"
	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

// Options select and parameterize the normalization stages
type Options struct {
	Resize      bool
	ResizeWidth int

	Grayscale bool

	Denoise         bool
	DenoiseStrength float64

	Orientation          bool
	RotationThresholdDeg float64
}

// OptionsFromConfig maps worker configuration onto normalizer options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Resize:               cfg.ResizeEnabled,
		ResizeWidth:          cfg.ResizeWidth,
		Grayscale:            true,
		Denoise:              cfg.DenoiseEnabled,
		DenoiseStrength:      cfg.DenoiseStrength,
		Orientation:          cfg.RotationEnabled,
		RotationThresholdDeg: cfg.RotationThresholdDeg,
	}
}

// Normalizer applies the configured stages to pages
type Normalizer struct {
	opts      Options
	estimator recognition.OrientationEstimator
	logger    *logging.Logger
}

// NewNormalizer creates a normalizer. estimator may be nil, in which case
// orientation correction never rotates.
func NewNormalizer(opts Options, estimator recognition.OrientationEstimator, logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewLogger("normalize")
	}
	return &Normalizer{opts: opts, estimator: estimator, logger: logger}
}

// Normalize returns the recognition-ready form of page. It never fails; a
// stage that cannot run leaves the page as it was.
func (n *Normalizer) Normalize(ctx context.Context, page raster.Page) raster.Page {
	if page.Image() == nil {
		return page
	}

	if n.opts.Resize && !page.Has(raster.StageResize) {
		page = page.WithImage(shrinkToWidth(page.Image(), n.opts.ResizeWidth), raster.StageResize)
	}

	if n.opts.Grayscale && !page.Has(raster.StageGrayscale) {
		page = page.WithImage(toGray(page.Image()), raster.StageGrayscale)
	}

	if n.opts.Denoise && !page.Has(raster.StageDenoise) {
		denoised, err := denoise(ctx, toGray(page.Image()), n.opts.DenoiseStrength)
		if err != nil {
			n.logger.Debug("denoise interrupted, leaving page as is", "page", page.Index(), "error", err)
			return page
		}
		page = page.WithImage(denoised, raster.StageDenoise)
	}

	if n.opts.Orientation && !page.Has(raster.StageOrientation) {
		corrected, rotated := n.correctOrientation(ctx, page)
		if rotated {
			page = corrected
		} else {
			page = page.WithImage(page.Image(), raster.StageOrientation)
		}
	}

	return page
}

// correctOrientation reports a rotated page only when the estimator produced an
// estimate beyond the threshold. Estimate failures are logged and swallowed.
func (n *Normalizer) correctOrientation(ctx context.Context, page raster.Page) (raster.Page, bool) {
	if n.estimator == nil {
		return page, false
	}

	angle, err := n.estimator.EstimateOrientation(ctx, page)
	if err != nil {
		n.logger.Debug("orientation estimate failed, skipping correction", "page", page.Index(), "error", err)
		return page, false
	}
	if math.IsNaN(angle) || math.Abs(angle) <= n.opts.RotationThresholdDeg {
		return page, false
	}

	n.logger.Debug("correcting orientation", "page", page.Index(), "angle", angle)
	return page.WithImage(rotate(page.Image(), -angle), raster.StageOrientation), true
}

// shrinkToWidth reduces img to width w keeping its aspect ratio. Images
// already at or below w are returned unchanged.
func shrinkToWidth(img image.Image, w int) image.Image {
	if w <= 0 || img.Bounds().Dx() <= w {
		return img
	}
	return raster.ResampleToWidth(img, w)
}
