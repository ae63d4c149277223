package ocr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/cache"
	"github.com/pagelens/pagelens/internal/observability"
)

type countingEngine struct {
	calls int
	text  string
}

func (e *countingEngine) Name() string { return "counting" }

func (e *countingEngine) Recognize(_ context.Context, in Input) (Result, error) {
	e.calls++
	return Result{InputID: in.ID, Text: e.text, Engine: e.Name()}, nil
}

func TestCachedEngineHitSkipsInner(t *testing.T) {
	inner := &countingEngine{text: "hello world"}
	cached := NewCachedEngine(inner, cache.NewMemoryClient(10), time.Minute, observability.Nop())

	in := Input{ID: "a.png", Image: []byte{1, 2, 3}, Languages: []string{"eng"}}

	res, err := cached.Recognize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, 1, inner.calls)

	res, err = cached.Recognize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, 1, inner.calls, "second call must be served from cache")
}

func TestCachedEngineKeyVariesByLanguageAndBytes(t *testing.T) {
	inner := &countingEngine{text: "text"}
	cached := NewCachedEngine(inner, cache.NewMemoryClient(10), time.Minute, observability.Nop())

	base := Input{ID: "a", Image: []byte{1}, Languages: []string{"eng"}}
	otherLang := Input{ID: "a", Image: []byte{1}, Languages: []string{"kor"}}
	otherBytes := Input{ID: "a", Image: []byte{2}, Languages: []string{"eng"}}

	_, err := cached.Recognize(context.Background(), base)
	require.NoError(t, err)
	_, err = cached.Recognize(context.Background(), otherLang)
	require.NoError(t, err)
	_, err = cached.Recognize(context.Background(), otherBytes)
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}
