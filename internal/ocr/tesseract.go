package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/pagelens/pagelens/internal/domain"
)

// TesseractEngine implements Engine using the gosseract client. Each call
// constructs its own client, so the engine is safe for concurrent use.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
	psm           int
	tessdataDir   string
}

// TesseractOptions tunes the linked Tesseract library.
type TesseractOptions struct {
	PSM         int
	TessdataDir string
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine(opts TesseractOptions) *TesseractEngine {
	return &TesseractEngine{
		clientFactory: gosseract.NewClient,
		psm:           opts.PSM,
		tessdataDir:   opts.TessdataDir,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image input.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if e.tessdataDir != "" {
		if err := c.SetTessdataPrefix(e.tessdataDir); err != nil {
			return Result{}, domain.ExtractionError("set tessdata prefix", err)
		}
	}
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return Result{}, domain.ExtractionError("set image", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return Result{}, domain.ExtractionError("set languages", err)
		}
	}
	if e.psm > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.psm)); err != nil {
			return Result{}, domain.ExtractionError(fmt.Sprintf("set page segmentation mode %d", e.psm), err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, domain.ExtractionError("recognize text", err)
	}

	return Result{
		InputID: in.ID,
		Text:    strings.TrimSpace(text),
		Engine:  e.Name(),
	}, nil
}
