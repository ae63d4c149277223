// Package ocr provides text extraction engines behind a common interface.
//
// Engines are thin adapters over external OCR providers: a linked Tesseract
// library, a Tesseract binary, or a remote vision API. No recognition logic
// lives here, only invocation, language configuration and error wrapping.
package ocr

import "context"

// Input encapsulates a single image submitted for OCR.
type Input struct {
	// ID is an optional caller-provided identifier that is echoed back in the
	// corresponding Result. Typically the upload filename.
	ID string
	// Image is the encoded image payload.
	Image []byte
	// ContentType declares the image content type (e.g., image/png).
	ContentType string
	// Languages is a list of language hints (e.g., "kor", "eng") that
	// providers can use to select trained data.
	Languages []string
}

// Result captures OCR output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// Text contains the linearized text extracted from the image. Empty text
	// is a valid result, not an error.
	Text string
	// Engine names the provider that produced the result.
	Engine string
}

// Engine is the OCR provider contract: one image in, one result out.
// Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
