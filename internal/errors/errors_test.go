package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIOError_ReferencesPath(t *testing.T) {
	err := NewIOError("/data/missing.pdf", os.ErrNotExist)

	assert.Equal(t, ErrorIO, err.Code)
	assert.Contains(t, err.Error(), "/data/missing.pdf")
	assert.True(t, stderrors.Is(err, os.ErrNotExist))
}

func TestCodeOf_WrappedChain(t *testing.T) {
	inner := NewRecognitionError("tesseract", 3, fmt.Errorf("engine crashed"))
	wrapped := fmt.Errorf("page loop: %w", inner)

	assert.Equal(t, ErrorRecognition, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
}

func TestProcessingError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("x: %w", NewFormatError("a.doc", "unknown extension", nil))

	assert.True(t, stderrors.Is(err, &ProcessingError{Code: ErrorFormat}))
	assert.False(t, stderrors.Is(err, &ProcessingError{Code: ErrorIO}))
}

func TestToMap(t *testing.T) {
	err := NewRecognitionError("tesseract", 2, fmt.Errorf("bad image"))
	m := err.ToMap()

	assert.Equal(t, "RECOGNITION_ERROR", m["error_code"])
	assert.Equal(t, 2, m["page"])
	assert.Equal(t, "tesseract", m["engine"])
	assert.Equal(t, "bad image", m["cause"])
}
