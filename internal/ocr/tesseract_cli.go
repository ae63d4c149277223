package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pagelens/pagelens/internal/domain"
)

// TesseractCLIEngine implements Engine by invoking a tesseract binary with
// the image piped over stdin. Useful in environments where linking the
// Tesseract library is not possible (e.g., a packaged binary in a Lambda
// layer).
type TesseractCLIEngine struct {
	binaryPath  string
	tessdataDir string
	psm         int
	oem         int
}

// TesseractCLIOptions configures the subprocess invocation.
type TesseractCLIOptions struct {
	BinaryPath  string
	TessdataDir string
	PSM         int
	OEM         int
}

// NewTesseractCLIEngine constructs a subprocess-backed Tesseract engine.
func NewTesseractCLIEngine(opts TesseractCLIOptions) *TesseractCLIEngine {
	binary := opts.BinaryPath
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractCLIEngine{
		binaryPath:  binary,
		tessdataDir: opts.TessdataDir,
		psm:         opts.PSM,
		oem:         opts.OEM,
	}
}

func (e *TesseractCLIEngine) Name() string { return "tesseract-cli" }

// Recognize pipes the image through the tesseract binary and captures stdout.
func (e *TesseractCLIEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	args := []string{"-", "stdout"}
	if len(in.Languages) > 0 {
		args = append(args, "-l", strings.Join(in.Languages, "+"))
	}
	if e.tessdataDir != "" {
		args = append(args, "--tessdata-dir", e.tessdataDir)
	}
	if e.psm > 0 {
		args = append(args, "--psm", strconv.Itoa(e.psm))
	}
	if e.oem > 0 {
		args = append(args, "--oem", strconv.Itoa(e.oem))
	}
	args = append(args, "-c", "preserve_interword_spaces=1")

	cmd := exec.CommandContext(ctx, e.binaryPath, args...)
	cmd.Stdin = bytes.NewReader(in.Image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := fmt.Sprintf("tesseract invocation failed (%s)", e.binaryPath)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			msg = fmt.Sprintf("%s: %s", msg, s)
		}
		return Result{}, domain.ExtractionError(msg, err)
	}

	return Result{
		InputID: in.ID,
		Text:    strings.TrimSpace(stdout.String()),
		Engine:  e.Name(),
	}, nil
}
