/**
 * Recognition types - boundary between the pipeline and a text engine
 *
 * Engines receive a normalized page and return fragments in their own
 * reading order. The pipeline never reorders what an engine returns.
 */

package recognition

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/adverant/nexus/landrecord-worker/internal/raster"
)

// Point is one vertex of a fragment's bounding quadrilateral
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Fragment is one recognized span of text on a page
type Fragment struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Box        [4]Point `json:"box"`
	PageIndex  int      `json:"page"`
}

// PageFragments groups the fragments one engine call produced for a page
type PageFragments struct {
	PageIndex int
	Fragments []Fragment
}

// Options configure an engine once per pipeline run
type Options struct {
	Languages   []string
	UseAngleCls bool
}

// Validate enforces a two-language set: one regional script and one Latin
func (o Options) Validate() error {
	if len(o.Languages) != 2 {
		return fmt.Errorf("exactly two recognition languages are required, got %d", len(o.Languages))
	}
	for _, l := range o.Languages {
		if l == "" {
			return fmt.Errorf("recognition language must not be empty")
		}
	}
	return nil
}

// Engine turns a normalized page into ordered text fragments
type Engine interface {
	Name() string
	Recognize(ctx context.Context, page raster.Page) ([]Fragment, error)
}

// OrientationEstimator estimates the clockwise skew of a page in degrees
type OrientationEstimator interface {
	EstimateOrientation(ctx context.Context, page raster.Page) (float64, error)
}

// BoxFromRect converts an axis-aligned rectangle into a clockwise
// quadrilateral starting at the top-left corner.
func BoxFromRect(r image.Rectangle) [4]Point {
	return [4]Point{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}
}

// ClampConfidence maps a value into [0,1]. NaN becomes 0.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
