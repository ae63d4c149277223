package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/observability"
)

func pageCount(data []byte) int {
	return bytes.Count(data, []byte("/Type /Page")) - bytes.Count(data, []byte("/Type /Pages"))
}

func smallPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderEmptyEntries(t *testing.T) {
	r := NewRenderer(Options{}, observability.Nop())
	_, err := r.Render(nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestRenderOnePagePerEntry(t *testing.T) {
	r := NewRenderer(Options{}, observability.Nop())

	entries := []domain.ReportEntry{
		{Page: 1, Summary: "first summary", Text: "first text"},
		{Page: 2, Summary: "second summary", Text: "second text"},
		{Page: 3, Summary: "third summary", Text: "third text"},
	}

	data, err := r.Render(entries)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, 3, pageCount(data))
}

func TestRenderOverflowingEntriesSpanExtraPages(t *testing.T) {
	r := NewRenderer(Options{}, observability.Nop())

	longText := strings.Repeat("a line of extracted text that wraps across the page width\n", 120)
	entries := []domain.ReportEntry{
		{Summary: "s1", Text: longText},
		{Summary: "s2", Text: longText},
	}

	data, err := r.Render(entries)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pageCount(data), 2+1)
}

func TestRenderEmbedsImage(t *testing.T) {
	r := NewRenderer(Options{}, observability.Nop())

	entries := []domain.ReportEntry{
		{Summary: "with image", Text: "text", Image: smallPNG(t, 40, 20)},
	}

	data, err := r.Render(entries)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/XObject")
}

// findTTF returns a TTF font from the host, skipping when none is installed.
func findTTF(t *testing.T) string {
	t.Helper()
	candidates := []string{
		"/usr/share/fonts/truetype/nanum/NanumGothic.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/Library/Fonts/Arial Unicode.ttf",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("no TTF font installed")
	return ""
}

func TestRenderKoreanWithUTF8Font(t *testing.T) {
	r := NewRenderer(Options{FontPath: findTTF(t)}, observability.Nop())

	entries := []domain.ReportEntry{
		{Page: 1, Summary: "한국어 요약입니다", Text: "추출된 한국어 텍스트"},
	}

	data, err := r.Render(entries)
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(data))
	assert.Contains(t, string(data), "/Type /Font")
}

func TestRenderMissingFontFallsBack(t *testing.T) {
	r := NewRenderer(Options{FontPath: "/nonexistent/font.ttf"}, observability.Nop())

	entries := []domain.ReportEntry{
		{Page: 1, Summary: "summary", Text: "text"},
	}

	data, err := r.Render(entries)
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(data))
}

func TestRenderSkipsBrokenImage(t *testing.T) {
	r := NewRenderer(Options{}, observability.Nop())

	entries := []domain.ReportEntry{
		{Summary: "broken image", Text: "still renders", Image: []byte("not an image")},
	}

	data, err := r.Render(entries)
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(data))
}
