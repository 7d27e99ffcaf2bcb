package normalize

import (
	"context"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Non-local-means window sizes. Patches are 3x3, the search window 11x11.
const (
	nlmPatchRadius  = 1
	nlmSearchRadius = 5
)

// toGray returns img as a single-channel buffer. Gray inputs are returned as is.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// denoise applies a non-local-means filter with filtering strength h. For
// every search offset the squared difference image is summed over patches
// through an integral image, so the cost per pixel is independent of the
// patch size. ctx is checked once per search offset; on cancellation src is
// returned unchanged with ctx's error.
func denoise(ctx context.Context, src *image.Gray, h float64) (*image.Gray, error) {
	b := src.Bounds()
	w, ht := b.Dx(), b.Dy()
	if w == 0 || ht == 0 || h <= 0 {
		out := image.NewGray(image.Rect(0, 0, w, ht))
		copy(out.Pix, flatten(src))
		return out, nil
	}

	// Edge-replicated copy so shifted reads need no bounds checks
	const pad = nlmSearchRadius
	pw := w + 2*pad
	padded := make([]float64, pw*(ht+2*pad))
	pix := flatten(src)
	for y := 0; y < ht+2*pad; y++ {
		sy := min(max(y-pad, 0), ht-1)
		for x := 0; x < pw; x++ {
			sx := min(max(x-pad, 0), w-1)
			padded[y*pw+x] = float64(pix[sy*w+sx])
		}
	}

	weightSum := make([]float64, w*ht)
	valueSum := make([]float64, w*ht)
	diff := make([]float64, w*ht)
	integral := make([]float64, (w+1)*(ht+1))
	patchArea := float64((2*nlmPatchRadius + 1) * (2*nlmPatchRadius + 1))
	h2 := h * h

	for dy := -nlmSearchRadius; dy <= nlmSearchRadius; dy++ {
		for dx := -nlmSearchRadius; dx <= nlmSearchRadius; dx++ {
			if err := ctx.Err(); err != nil {
				return src, err
			}

			for y := 0; y < ht; y++ {
				row := (y+pad)*pw + pad
				shifted := (y+pad+dy)*pw + pad + dx
				for x := 0; x < w; x++ {
					d := padded[row+x] - padded[shifted+x]
					diff[y*w+x] = d * d
				}
			}
			buildIntegral(diff, integral, w, ht)

			for y := 0; y < ht; y++ {
				shifted := (y+pad+dy)*pw + pad + dx
				for x := 0; x < w; x++ {
					dist := boxSum(integral, w, ht, x, y, nlmPatchRadius) / patchArea
					weight := math.Exp(-dist / h2)
					weightSum[y*w+x] += weight
					valueSum[y*w+x] += weight * padded[shifted+x]
				}
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, ht))
	for i := range out.Pix {
		v := valueSum[i] / weightSum[i]
		out.Pix[i] = uint8(math.Round(math.Min(255, math.Max(0, v))))
	}
	return out, nil
}

func flatten(g *image.Gray) []uint8 {
	b := g.Bounds()
	if g.Stride == b.Dx() && b.Min == (image.Point{}) {
		return g.Pix
	}
	pix := make([]uint8, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := g.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*b.Dx():], g.Pix[row:row+b.Dx()])
	}
	return pix
}

// buildIntegral fills integral with the summed-area table of v. integral has
// one extra leading row and column of zeros.
func buildIntegral(v, integral []float64, w, h int) {
	stride := w + 1
	for x := 0; x <= w; x++ {
		integral[x] = 0
	}
	for y := 1; y <= h; y++ {
		integral[y*stride] = 0
		var row float64
		for x := 1; x <= w; x++ {
			row += v[(y-1)*w+(x-1)]
			integral[y*stride+x] = integral[(y-1)*stride+x] + row
		}
	}
}

// boxSum sums the (2r+1)² window centered on (x, y), clipped to the image.
// Clipped windows are rescaled to the full window area.
func boxSum(integral []float64, w, h, x, y, r int) float64 {
	x0, y0 := max(x-r, 0), max(y-r, 0)
	x1, y1 := min(x+r+1, w), min(y+r+1, h)
	stride := w + 1
	sum := integral[y1*stride+x1] - integral[y0*stride+x1] - integral[y1*stride+x0] + integral[y0*stride+x0]
	area := float64((x1 - x0) * (y1 - y0))
	full := float64((2*r + 1) * (2*r + 1))
	return sum * full / area
}

// rotate turns img by degrees about its center (positive is clockwise on
// screen) on a canvas of the original size. Uncovered areas are white.
func rotate(img image.Image, degrees float64) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	theta := degrees * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2
	ox, oy := float64(b.Dx())/2, float64(b.Dy())/2

	s2d := f64.Aff3{
		cos, -sin, ox - cx*cos + cy*sin,
		sin, cos, oy - cx*sin - cy*cos,
	}
	draw.BiLinear.Transform(dst, s2d, img, b, draw.Src, nil)
	return dst
}
