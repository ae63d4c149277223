// Package pipeline orchestrates the per-file processing stages.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/imaging"
	"github.com/pagelens/pagelens/internal/observability"
	"github.com/pagelens/pagelens/internal/ocr"
	"github.com/pagelens/pagelens/internal/storage"
)

// Summarizer condenses extracted text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Pipeline runs validate, extract, summarize and optional store stages for
// each uploaded file. Store and History may be nil when those stages are
// disabled.
type Pipeline struct {
	normalizer *imaging.Normalizer
	engine     ocr.Engine
	summarizer Summarizer
	store      storage.Store
	history    storage.History
	logger     *observability.Logger

	languages    []string
	maxParallel  int
	stageTimeout time.Duration
}

// Options configures a Pipeline.
type Options struct {
	Normalizer   *imaging.Normalizer
	Engine       ocr.Engine
	Summarizer   Summarizer
	Store        storage.Store
	History      storage.History
	Languages    []string
	MaxParallel  int
	StageTimeout time.Duration
}

// New creates a pipeline.
func New(opts Options, logger *observability.Logger) *Pipeline {
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 4
	}
	stageTimeout := opts.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = 30 * time.Second
	}
	languages := opts.Languages
	if len(languages) == 0 {
		languages = []string{"kor", "eng"}
	}

	return &Pipeline{
		normalizer:   opts.Normalizer,
		engine:       opts.Engine,
		summarizer:   opts.Summarizer,
		store:        opts.Store,
		history:      opts.History,
		logger:       logger,
		languages:    languages,
		maxParallel:  maxParallel,
		stageTimeout: stageTimeout,
	}
}

// Process runs every file through the pipeline with bounded parallelism.
// The returned slice matches the input order; a failing file yields a
// FileResult with Error set and never affects its siblings.
func (p *Pipeline) Process(ctx context.Context, files []domain.UploadedFile) []domain.FileResult {
	results := make([]domain.FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxParallel)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			results[i] = p.processOne(gctx, file)
			return nil
		})
	}
	g.Wait()

	return results
}

func (p *Pipeline) processOne(ctx context.Context, file domain.UploadedFile) domain.FileResult {
	start := time.Now()
	result := domain.FileResult{Filename: file.Filename}

	log := p.logger.WithContext(ctx)

	normalized, err := p.normalizer.Normalize(file.Data, file.Filename)
	if err != nil {
		log.Warn().Str("file", file.Filename).Err(err).Msg("Validation failed")
		return domain.FileResult{Filename: file.Filename, Error: err.Error()}
	}

	text, err := p.extract(ctx, file.Filename, normalized)
	if err != nil {
		log.Error().Str("file", file.Filename).Err(err).Msg("Extraction failed")
		return domain.FileResult{Filename: file.Filename, Error: err.Error()}
	}
	result.Text = text

	summary, err := p.summarize(ctx, text)
	if err != nil {
		// A failed file carries only its error, partial stage output is
		// discarded.
		log.Error().Str("file", file.Filename).Err(err).Msg("Summarization failed")
		return domain.FileResult{Filename: file.Filename, Error: err.Error()}
	}
	result.Summary = summary

	if p.store != nil {
		stored, err := p.storeImage(ctx, file.Filename, normalized)
		if err != nil {
			// Storage is best effort once text and summary exist.
			log.Warn().Str("file", file.Filename).Err(err).Msg("Image storage failed")
		} else {
			result.ImageKey = stored.Key
			result.ImageURL = stored.URL
		}
	}

	result.Duration = time.Since(start)

	if p.history != nil {
		if _, err := p.history.Record(ctx, storage.HistoryRecord{
			Filename: result.Filename,
			Text:     result.Text,
			Summary:  result.Summary,
			ImageKey: result.ImageKey,
		}); err != nil {
			log.Warn().Str("file", file.Filename).Err(err).Msg("History record failed")
		}
	}

	log.Info().
		Str("file", file.Filename).
		Int("text_len", len(result.Text)).
		Dur("duration", result.Duration).
		Msg("File processed")

	return result
}

func (p *Pipeline) extract(ctx context.Context, filename string, normalized *imaging.Normalized) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	out, err := p.engine.Recognize(ctx, ocr.Input{
		ID:          filename,
		Image:       normalized.Data,
		ContentType: normalized.ContentType,
		Languages:   p.languages,
	})
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func (p *Pipeline) summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	return p.summarizer.Summarize(ctx, text)
}

func (p *Pipeline) storeImage(ctx context.Context, filename string, normalized *imaging.Normalized) (domain.StoredImage, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	return p.store.Put(ctx, normalized.Data, filename, normalized.ContentType)
}
