package main

import (
	"context"

	"github.com/pagelens/pagelens/internal/cache"
	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/imaging"
	"github.com/pagelens/pagelens/internal/observability"
	"github.com/pagelens/pagelens/internal/ocr"
	"github.com/pagelens/pagelens/internal/pipeline"
	"github.com/pagelens/pagelens/internal/report"
	"github.com/pagelens/pagelens/internal/storage"
	"github.com/pagelens/pagelens/internal/summarize"
)

// Dependencies bundles the long-lived services behind the HTTP handlers.
type Dependencies struct {
	Pipeline   *pipeline.Pipeline
	Renderer   *report.Renderer
	Store      storage.Store
	Summarizer *summarize.Client
	History    storage.History

	cacheClient cache.Client
}

// Close releases held connections.
func (d *Dependencies) Close() {
	if d.cacheClient != nil {
		d.cacheClient.Close()
	}
	if d.History != nil {
		d.History.Close()
	}
}

// buildDependencies wires the configured engine, cache, storage, history and
// summarizer into a ready pipeline.
func buildDependencies(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	var engine ocr.Engine
	switch cfg.OCR.Provider {
	case "tesseract-cli":
		engine = ocr.NewTesseractCLIEngine(ocr.TesseractCLIOptions{
			BinaryPath:  cfg.OCR.Tesseract.BinaryPath,
			TessdataDir: cfg.OCR.Tesseract.TessdataDir,
			PSM:         cfg.OCR.Tesseract.PSM,
			OEM:         cfg.OCR.Tesseract.OEM,
		})
	case "vision":
		engine = ocr.NewVisionEngine(ocr.VisionOptions{
			Endpoint: cfg.OCR.Vision.Endpoint,
			Model:    cfg.OCR.Vision.Model,
			APIKey:   cfg.OCR.Vision.APIKey,
		})
	default:
		engine = ocr.NewTesseractEngine(ocr.TesseractOptions{
			PSM:         cfg.OCR.Tesseract.PSM,
			TessdataDir: cfg.OCR.Tesseract.TessdataDir,
		})
	}

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		redisClient, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
			cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		} else {
			cacheClient = redisClient
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}
	engine = ocr.NewCachedEngine(engine, cacheClient, cfg.Cache.TTL, logger)

	summarizer := summarize.NewClient(summarize.Options{
		Endpoint:   cfg.Summarizer.Endpoint,
		Model:      cfg.Summarizer.Model,
		APIKey:     cfg.Summarizer.APIKey,
		Timeout:    cfg.Summarizer.Timeout,
		MaxRetries: cfg.Summarizer.MaxRetries,
	}, logger)

	var store storage.Store
	if cfg.Storage.Driver == "minio" {
		minioStore, err := storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Expiry:    cfg.Storage.PresignExpiry,
		}, logger)
		if err != nil {
			return nil, err
		}
		store = minioStore
	} else {
		store = storage.NewMemoryStore(cfg.Storage.Bucket, cfg.Storage.PresignExpiry)
	}

	var history storage.History
	if cfg.History.Driver != "none" {
		driver := "sqlite3"
		if cfg.History.Driver == "postgres" {
			driver = "postgres"
		}
		sqlHistory, err := storage.OpenHistory(ctx, driver, cfg.HistoryDSN())
		if err != nil {
			return nil, err
		}
		history = sqlHistory
	}

	var pipelineStore storage.Store
	if cfg.Pipeline.StoreImages {
		pipelineStore = store
	}

	p := pipeline.New(pipeline.Options{
		Normalizer:   imaging.NewNormalizer(cfg.Pipeline.MaxImageWidth, cfg.Pipeline.MaxImageHeight),
		Engine:       engine,
		Summarizer:   summarizer,
		Store:        pipelineStore,
		History:      history,
		Languages:    cfg.OCR.Languages,
		MaxParallel:  cfg.Pipeline.MaxConcurrentFiles,
		StageTimeout: cfg.Pipeline.StageTimeout,
	}, logger)

	return &Dependencies{
		Pipeline:    p,
		Renderer:    report.NewRenderer(report.Options{FontPath: cfg.Report.FontPath}, logger),
		Store:       store,
		Summarizer:  summarizer,
		History:     history,
		cacheClient: cacheClient,
	}, nil
}
