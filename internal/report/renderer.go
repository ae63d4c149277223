// Package report renders processed results into a paginated PDF document.
package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/observability"
)

const (
	pageWidth    = 210.0 // A4 portrait, mm
	pageHeight   = 297.0
	marginMM     = 15.0
	imageWidthMM = 120.0
	lineHeight   = 5.5
)

// utf8FontFamily names the registered TTF family when one is configured.
const utf8FontFamily = "Report"

// Renderer builds PDF reports from processed results.
type Renderer struct {
	logger   *observability.Logger
	fontPath string
}

// Options configures the renderer. FontPath points at a TTF file covering
// the document languages (e.g. NanumGothic for Korean); without one the
// Helvetica core font is used, which only covers Latin text.
type Options struct {
	FontPath string
}

// NewRenderer creates a report renderer.
func NewRenderer(opts Options, logger *observability.Logger) *Renderer {
	return &Renderer{logger: logger, fontPath: opts.FontPath}
}

// Render produces a PDF document with one section per entry. Each entry
// starts on a fresh page; long text flows onto additional pages. Image embed
// failures are logged and the section continues without the image.
func (r *Renderer) Render(entries []domain.ReportEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, domain.ValidationError("no entries to render", nil)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	family := r.registerFont(pdf)

	for i, entry := range entries {
		pdf.AddPage()
		r.renderEntry(pdf, family, i, entry)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, domain.IOError("write PDF", err)
	}
	return buf.Bytes(), nil
}

// registerFont loads the configured TTF into the document and returns the
// family to render with. A missing or unreadable font falls back to the
// Helvetica core font.
func (r *Renderer) registerFont(pdf *gofpdf.Fpdf) string {
	if r.fontPath == "" {
		return "Helvetica"
	}

	pdf.AddUTF8Font(utf8FontFamily, "", r.fontPath)
	pdf.AddUTF8Font(utf8FontFamily, "B", r.fontPath)
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		r.logger.Warn().Str("font", r.fontPath).Err(err).Msg("Font load failed, using Helvetica")
		return "Helvetica"
	}
	return utf8FontFamily
}

func (r *Renderer) renderEntry(pdf *gofpdf.Fpdf, family string, index int, entry domain.ReportEntry) {
	page := entry.Page
	if page == 0 {
		page = index + 1
	}

	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", page), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(entry.Image) > 0 {
		if err := r.embedImage(pdf, index, entry.Image); err != nil {
			r.logger.Warn().
				Int("entry", index).
				Err(err).
				Msg("Skipping image embed")
		}
	}

	if entry.Summary != "" {
		pdf.SetFont(family, "B", 11)
		pdf.CellFormat(0, 7, "Summary", "", 1, "L", false, 0, "")
		pdf.SetFont(family, "", 10)
		pdf.MultiCell(0, lineHeight, entry.Summary, "", "L", false)
		pdf.Ln(3)
	}

	if entry.Text != "" {
		pdf.SetFont(family, "B", 11)
		pdf.CellFormat(0, 7, "Extracted Text", "", 1, "L", false, 0, "")
		pdf.SetFont(family, "", 9)
		pdf.MultiCell(0, lineHeight, entry.Text, "", "L", false)
	}
}

// embedImage registers the image bytes and draws them at a fixed display
// width, preserving the aspect ratio.
func (r *Renderer) embedImage(pdf *gofpdf.Fpdf, index int, data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.IOError("decode image", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return domain.IOError("image has zero dimension", nil)
	}

	name := fmt.Sprintf("entry-%d", index)
	opts := gofpdf.ImageOptions{ImageType: format, ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		return domain.IOError("register image", err)
	}

	displayW := imageWidthMM
	displayH := displayW * float64(cfg.Height) / float64(cfg.Width)

	// Cap very tall images so the summary still fits on the first page.
	maxH := pageHeight - 2*marginMM - 40
	if displayH > maxH {
		displayH = maxH
		displayW = displayH * float64(cfg.Width) / float64(cfg.Height)
	}

	pdf.ImageOptions(name, marginMM, pdf.GetY(), displayW, displayH, true, opts, 0, "")
	pdf.Ln(4)
	return nil
}
