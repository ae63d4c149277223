package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/pagelens/pagelens/internal/cache"
	"github.com/pagelens/pagelens/internal/observability"
)

// CachedEngine decorates an Engine with a content-addressed result cache.
// Identical image bytes with identical language hints hit the cache instead
// of the underlying provider. Cache failures degrade to a direct engine call.
type CachedEngine struct {
	inner  Engine
	cache  cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewCachedEngine wraps inner with result caching.
func NewCachedEngine(inner Engine, c cache.Client, ttl time.Duration, logger *observability.Logger) *CachedEngine {
	return &CachedEngine{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func (e *CachedEngine) Name() string { return e.inner.Name() }

// Recognize consults the cache before delegating to the wrapped engine.
func (e *CachedEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	key := cacheKey(in)

	if val, err := e.cache.Get(ctx, key); err == nil {
		e.logger.Debug().Str("input", in.ID).Msg("OCR cache hit")
		return Result{InputID: in.ID, Text: string(val), Engine: e.inner.Name()}, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		e.logger.Warn().Err(err).Str("input", in.ID).Msg("OCR cache lookup failed")
	}

	res, err := e.inner.Recognize(ctx, in)
	if err != nil {
		return Result{}, err
	}

	if err := e.cache.Set(ctx, key, []byte(res.Text), e.ttl); err != nil {
		e.logger.Warn().Err(err).Str("input", in.ID).Msg("OCR cache store failed")
	}
	return res, nil
}

// cacheKey derives a content-addressed key from the image bytes and the
// language hint set.
func cacheKey(in Input) string {
	h := sha256.New()
	h.Write(in.Image)
	h.Write([]byte(strings.Join(in.Languages, "+")))
	return "ocr:" + hex.EncodeToString(h.Sum(nil))
}
