package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/imaging"
	"github.com/pagelens/pagelens/internal/observability"
	"github.com/pagelens/pagelens/internal/ocr"
	"github.com/pagelens/pagelens/internal/pipeline"
	"github.com/pagelens/pagelens/internal/report"
	"github.com/pagelens/pagelens/internal/storage"
)

type stubEngine struct{}

func (stubEngine) Name() string { return "stub" }

func (stubEngine) Recognize(_ context.Context, in ocr.Input) (ocr.Result, error) {
	return ocr.Result{InputID: in.ID, Text: "recognized text", Engine: "stub"}, nil
}

type stubSummarizer struct{ pingErr error }

func (s stubSummarizer) Summarize(context.Context, string) (string, error) {
	return "short summary", nil
}

func (s stubSummarizer) Ping(context.Context) error { return s.pingErr }

type downStore struct{ storage.Store }

func (downStore) Ping(context.Context) error {
	return domain.StorageError("bucket unreachable", nil)
}

func testPipeline() *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Normalizer: imaging.NewNormalizer(0, 0),
		Engine:     stubEngine{},
		Summarizer: stubSummarizer{},
	}, observability.Nop())
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestOCRNoFiles(t *testing.T) {
	h := NewOCRHandler(observability.Nop(), testPipeline(), 10*1024*1024)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Process(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no files")
}

func TestOCRBatchSuccess(t *testing.T) {
	h := NewOCRHandler(observability.Nop(), testPipeline(), 10*1024*1024)

	data := pngBytes(t)
	body, contentType := multipartBody(t, map[string][]byte{
		"a.png": data,
		"b.png": data,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Process(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OCRResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.True(t, r.OK())
		assert.Equal(t, "recognized text", r.Text)
		assert.Equal(t, "short summary", r.Summary)
	}
}

func TestOCROversizeFileIsIsolated(t *testing.T) {
	h := NewOCRHandler(observability.Nop(), testPipeline(), 512)

	body, contentType := multipartBody(t, map[string][]byte{
		"huge.png": bytes.Repeat([]byte{0xFF}, 2048),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Process(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OCRResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].OK())
	assert.Contains(t, resp.Results[0].Error, "limit")
}

func TestGeneratePDFMalformedBody(t *testing.T) {
	h := NewReportHandler(observability.Nop(), report.NewRenderer(report.Options{}, observability.Nop()), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/generate-pdf", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeneratePDFSuccess(t *testing.T) {
	h := NewReportHandler(observability.Nop(), report.NewRenderer(report.Options{}, observability.Nop()), nil)

	body, err := json.Marshal(ReportRequest{Results: []domain.ReportEntry{
		{Page: 1, Summary: "summary one", Text: "text one"},
		{Page: 2, Summary: "summary two", Text: "text two"},
	}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/generate-pdf", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestGeneratePDFFetchesStoredImage(t *testing.T) {
	store := storage.NewMemoryStore("bucket", time.Hour)
	stored, err := store.Put(context.Background(), pngBytes(t), "page.png", "image/png")
	require.NoError(t, err)

	h := NewReportHandler(observability.Nop(), report.NewRenderer(report.Options{}, observability.Nop()), store)

	body, err := json.Marshal(ReportRequest{Results: []domain.ReportEntry{
		{Page: 1, Summary: "s", Text: "t", ImageURL: stored.URL},
	}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/generate-pdf", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/XObject")
}

func TestHealthHealthy(t *testing.T) {
	store := storage.NewMemoryStore("bucket", time.Hour)
	h := NewHealthHandler(observability.Nop(), store, stubSummarizer{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Dependencies["storage"])
}

func TestHealthUnhealthyStorage(t *testing.T) {
	h := NewHealthHandler(observability.Nop(), downStore{}, stubSummarizer{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Dependencies["storage"], "unreachable")
}

func TestResultsNotConfigured(t *testing.T) {
	h := NewResultsHandler(observability.Nop(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/results", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestResultsGetNotFound(t *testing.T) {
	history, err := storage.OpenHistory(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	h := NewResultsHandler(observability.Nop(), history)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing-id")
	req := httptest.NewRequest(http.MethodGet, "/api/results/missing-id", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultsListAndGet(t *testing.T) {
	history, err := storage.OpenHistory(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	id, err := history.Record(context.Background(), storage.HistoryRecord{
		Filename: "doc.png",
		Text:     "text",
		Summary:  "summary",
	})
	require.NoError(t, err)

	h := NewResultsHandler(observability.Nop(), history)

	req := httptest.NewRequest(http.MethodGet, "/api/results", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doc.png")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = httptest.NewRequest(http.MethodGet, "/api/results/"+id, nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "summary")
}
