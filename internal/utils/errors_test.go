package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "test error message",
	}

	assert.Equal(t, "test error message", err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("validation failed")

	assert.Error(t, err)
	assert.Equal(t, "validation failed", err.Error())

	// Check that it's the correct type
	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "validation failed", validationErr.Message)
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("validation failed for field %s with value %d", "age", 150)

	assert.Error(t, err)
	assert.Equal(t, "validation failed for field age with value 150", err.Error())

	// Check that it's the correct type
	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "validation failed for field age with value 150", validationErr.Message)
}

func TestValidationErrorAs(t *testing.T) {
	err := NewValidationErrorf("glucose value %.2f mg/dL outside physiological range [%.2f, %.2f]", 1000.0, 50.0, 500.0)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUnsupportedSourceError(t *testing.T) {
	err := NewUnsupportedSourceError("ubiome")

	assert.Error(t, err)
	assert.Equal(t, "unsupported microbiome test source: ubiome", err.Error())

	var unsupportedErr *UnsupportedSourceError
	assert.ErrorAs(t, err, &unsupportedErr)
	assert.Equal(t, "ubiome", unsupportedErr.Source)
}
