// Package imaging validates and normalizes uploaded images before OCR.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/pagelens/pagelens/internal/domain"
)

// allowedExtensions is the accepted upload extension set.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".tiff": true,
	".tif":  true,
}

// Normalized is a validated, size-bounded, color-normalized image ready for
// OCR and storage.
type Normalized struct {
	Image       image.Image
	Format      string // jpeg, png, gif, bmp or tiff
	Width       int
	Height      int
	Data        []byte // re-encoded bytes in Format
	ContentType string
}

// Normalizer decodes, verifies and downsamples uploaded images.
type Normalizer struct {
	maxWidth  int
	maxHeight int
}

// NewNormalizer creates a Normalizer with the given dimension bounds.
func NewNormalizer(maxWidth, maxHeight int) *Normalizer {
	if maxWidth <= 0 {
		maxWidth = 2480
	}
	if maxHeight <= 0 {
		maxHeight = 3508
	}
	return &Normalizer{maxWidth: maxWidth, maxHeight: maxHeight}
}

// Normalize validates raw upload bytes against the claimed filename, decodes
// them, downscales oversized images preserving aspect ratio and normalizes
// the color model to grayscale or RGB.
func (n *Normalizer) Normalize(data []byte, filename string) (*Normalized, error) {
	if len(data) == 0 {
		return nil, domain.ValidationError("empty file", nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, domain.ValidationError(fmt.Sprintf("unsupported file extension %q", ext), nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ValidationError("invalid image file", err)
	}

	img = n.downscale(img)
	img = normalizeColor(img)

	bounds := img.Bounds()
	encoded, contentType, err := encode(img, format)
	if err != nil {
		return nil, domain.ValidationError("re-encode image", err)
	}

	return &Normalized{
		Image:       img,
		Format:      format,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Data:        encoded,
		ContentType: contentType,
	}, nil
}

// downscale shrinks img so neither dimension exceeds the configured maximum,
// preserving aspect ratio. Images already within bounds are returned as-is.
func (n *Normalizer) downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= n.maxWidth && h <= n.maxHeight {
		return img
	}

	scaleW := float64(n.maxWidth) / float64(w)
	scaleH := float64(n.maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// normalizeColor converts the image to grayscale or RGB if it is neither.
func normalizeColor(img image.Image) image.Image {
	switch img.(type) {
	case *image.Gray, *image.RGBA, *image.NRGBA:
		return img
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// encode re-encodes the image in its source format, falling back to JPEG for
// formats without an encoder.
func encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/gif", nil
	case "bmp":
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/bmp", nil
	case "tiff":
		if err := tiff.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/tiff", nil
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}
