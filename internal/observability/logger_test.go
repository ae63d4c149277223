package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:       "info",
		Format:      "json",
		Output:      &buf,
		ServiceName: "pagelens-test",
	})

	ctx := ContextWithRequestID(context.Background(), "req-123")
	logger.WithContext(ctx).Info().Msg("handling request")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"service":"pagelens-test"`)
}

func TestWithContextWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:  "info",
		Format: "json",
		Output: &buf,
	})

	logger.WithContext(context.Background()).Info().Msg("no correlation")
	assert.NotContains(t, buf.String(), "request_id")
}
