package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorFormat(t *testing.T) {
	err := ValidationError("empty file", nil)
	assert.Equal(t, "[validation] empty file", err.Error())

	wrapped := StorageError("upload failed", errors.New("connection refused"))
	assert.Equal(t, "[storage] upload failed: connection refused", wrapped.Error())
}

func TestDomainErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := ExtractionError("engine failed", inner)
	assert.ErrorIs(t, err, inner)
}

func TestIsType(t *testing.T) {
	err := SummarizationError("api failed", errors.New("timeout"))
	assert.True(t, IsType(err, ErrorTypeSummarization))
	assert.False(t, IsType(err, ErrorTypeStorage))

	// Type survives wrapping with fmt.Errorf.
	wrapped := fmt.Errorf("file a.png: %w", err)
	assert.True(t, IsType(wrapped, ErrorTypeSummarization))

	assert.False(t, IsType(nil, ErrorTypeValidation))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeValidation))
}
