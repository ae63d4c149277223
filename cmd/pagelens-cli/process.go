package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagelens/pagelens/cmd/pagelens-cli/ui"
	"github.com/pagelens/pagelens/internal/cache"
	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/imaging"
	"github.com/pagelens/pagelens/internal/observability"
	"github.com/pagelens/pagelens/internal/ocr"
	"github.com/pagelens/pagelens/internal/pipeline"
	"github.com/pagelens/pagelens/internal/summarize"
)

func newProcessCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Run OCR and summarization over local image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := buildPipeline(cfg, logger)

			sp := ui.NewSpinner("reading files")
			sp.Start()

			var files []domain.UploadedFile
			maxBytes := cfg.MaxUploadBytes()
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					sp.Stop()
					return fmt.Errorf("read %s: %w", path, err)
				}
				if int64(len(data)) > maxBytes {
					sp.Stop()
					return fmt.Errorf("%s exceeds the %dMB limit", path, cfg.Server.MaxUploadMB)
				}
				files = append(files, domain.UploadedFile{
					Filename: path,
					Size:     int64(len(data)),
					Data:     data,
				})
			}
			sp.Stop()

			bar := ui.NewProgressBar(int64(len(files)), "processing")
			results := make([]domain.FileResult, 0, len(files))
			for _, file := range files {
				batch := p.Process(cmd.Context(), []domain.UploadedFile{file})
				results = append(results, batch...)
				bar.Add(1)
			}
			bar.Finish()

			if outputJSON || outputPath != "" {
				encoded, err := json.MarshalIndent(map[string]interface{}{"results": results}, "", "  ")
				if err != nil {
					return err
				}
				if outputPath != "" {
					if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
						return fmt.Errorf("write output: %w", err)
					}
					ui.Success("Wrote results to %s", outputPath)
				} else {
					fmt.Println(string(encoded))
				}
				return nil
			}

			for _, r := range results {
				switch {
				case !r.OK():
					ui.Error("%s: %s", r.Filename, r.Error)
				case r.Text == "":
					ui.Warning("%s: no text recognized", r.Filename)
				default:
					ui.Success("%s", r.Filename)
					ui.Info("  summary: %s", r.Summary)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write results JSON to a file")
	return cmd
}

// buildPipeline wires the configured OCR engine and summarizer for one-shot
// local processing. Object storage and history stay disabled in the CLI.
func buildPipeline(cfg *config.Config, logger *observability.Logger) *pipeline.Pipeline {
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
	engine = ocr.NewCachedEngine(engine, cache.NewMemoryClient(cfg.Cache.MaxEntries), cfg.Cache.TTL, logger)

	summarizer := summarize.NewClient(summarize.Options{
		Endpoint:   cfg.Summarizer.Endpoint,
		Model:      cfg.Summarizer.Model,
		APIKey:     cfg.Summarizer.APIKey,
		Timeout:    cfg.Summarizer.Timeout,
		MaxRetries: cfg.Summarizer.MaxRetries,
	}, logger)

	return pipeline.New(pipeline.Options{
		Normalizer:   imaging.NewNormalizer(cfg.Pipeline.MaxImageWidth, cfg.Pipeline.MaxImageHeight),
		Engine:       engine,
		Summarizer:   summarizer,
		Languages:    cfg.OCR.Languages,
		MaxParallel:  cfg.Pipeline.MaxConcurrentFiles,
		StageTimeout: cfg.Pipeline.StageTimeout,
	}, logger)
}
