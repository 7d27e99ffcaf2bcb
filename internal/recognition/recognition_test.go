package recognition

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoxFromRect(t *testing.T) {
	box := BoxFromRect(image.Rect(10, 20, 30, 25))

	assert.Equal(t, [4]Point{{10, 20}, {30, 20}, {30, 25}, {10, 25}}, box)
}

func TestClampConfidence(t *testing.T) {
	testCases := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 0.42, 0.42},
		{"negative", -0.1, 0},
		{"above one", 1.7, 1},
		{"nan", math.NaN(), 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClampConfidence(tc.in))
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, Options{Languages: []string{"tam", "eng"}}.Validate())
	assert.Error(t, Options{Languages: []string{"tam"}}.Validate())
	assert.Error(t, Options{Languages: []string{"tam", ""}}.Validate())
}
