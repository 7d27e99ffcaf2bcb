package normalize

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func TestToGray_ConvertsColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.White)
	src.Set(1, 0, color.Black)

	g := toGray(src)

	assert.Equal(t, []uint8{255, 0}, g.Pix)
}

func TestToGray_GrayPassesThrough(t *testing.T) {
	src := uniformGray(3, 3, 7)

	assert.Same(t, src, toGray(src))
}

func TestDenoise_UniformImageUnchanged(t *testing.T) {
	src := uniformGray(9, 7, 128)

	out, err := denoise(context.Background(), src, 10)

	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestDenoise_CancelledReturnsInput(t *testing.T) {
	src := uniformGray(9, 7, 128)
	src.SetGray(4, 4, color.Gray{Y: 90})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := denoise(ctx, src, 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Same(t, src, out)
	assert.Equal(t, uint8(90), out.GrayAt(4, 4).Y)
}

func TestDenoise_SuppressesIsolatedSpeck(t *testing.T) {
	src := uniformGray(15, 15, 200)
	src.SetGray(7, 7, color.Gray{Y: 170})

	out, err := denoise(context.Background(), src, 30)
	require.NoError(t, err)

	assert.Greater(t, out.GrayAt(7, 7).Y, uint8(170))
	assert.InDelta(t, 200, int(out.GrayAt(0, 0).Y), 1)
}

func TestBoxSum_ClipsAtBorder(t *testing.T) {
	v := []float64{1, 1, 1, 1}
	integral := make([]float64, 9)
	buildIntegral(v, integral, 2, 2)

	assert.Equal(t, 1.0, boxSum(integral, 2, 2, 1, 1, 0))
	assert.Equal(t, 9.0, boxSum(integral, 2, 2, 0, 0, 1))
}

func TestRotate_ZeroIsIdentity(t *testing.T) {
	src := uniformGray(6, 4, 255)
	src.SetGray(1, 1, color.Gray{Y: 0})

	out := rotate(src, 0)

	assert.Equal(t, src.Pix, out.Pix)
}

func TestRotate_HalfTurnMirrorsContent(t *testing.T) {
	src := uniformGray(4, 2, 255)
	src.SetGray(0, 0, color.Gray{Y: 0})

	out := rotate(src, 180)

	assert.Equal(t, image.Rect(0, 0, 4, 2), out.Bounds())
	assert.Equal(t, uint8(0), out.GrayAt(3, 1).Y)
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
}
