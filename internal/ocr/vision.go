package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pagelens/pagelens/internal/domain"
)

const visionPrompt = "Extract all readable text from this image. " +
	"Return only the extracted text, preserving line breaks. " +
	"Return an empty response if the image contains no text."

// VisionEngine implements Engine against a remote vision chat-completion
// endpoint. The image travels as a base64 data URL in an image_url content
// part.
type VisionEngine struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// VisionOptions configures the remote vision engine.
type VisionOptions struct {
	Endpoint   string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

// NewVisionEngine constructs a remote vision OCR engine.
func NewVisionEngine(opts VisionOptions) *VisionEngine {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &VisionEngine{
		endpoint:   opts.Endpoint,
		model:      opts.Model,
		apiKey:     opts.APIKey,
		httpClient: client,
	}
}

func (e *VisionEngine) Name() string { return "vision" }

type visionMessage struct {
	Role    string              `json:"role"`
	Content []visionContentPart `json:"content"`
}

type visionContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *visionImageURL `json:"image_url,omitempty"`
}

type visionImageURL struct {
	URL string `json:"url"`
}

type visionRequest struct {
	Model    string          `json:"model"`
	Messages []visionMessage `json:"messages"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Recognize sends the image to the vision endpoint and returns the text it
// reads back.
func (e *VisionEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	contentType := in.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(in.Image))

	reqBody := visionRequest{
		Model: e.model,
		Messages: []visionMessage{{
			Role: "user",
			Content: []visionContentPart{
				{Type: "text", Text: visionPrompt},
				{Type: "image_url", ImageURL: &visionImageURL{URL: dataURL}},
			},
		}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, domain.ExtractionError("marshal vision request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, domain.ExtractionError("build vision request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Result{}, domain.ExtractionError("send vision request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, domain.ExtractionError(
			fmt.Sprintf("vision API returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var out visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, domain.ExtractionError("decode vision response", err)
	}
	if len(out.Choices) == 0 {
		return Result{}, domain.ExtractionError("vision API returned no choices", nil)
	}

	return Result{
		InputID: in.ID,
		Text:    strings.TrimSpace(out.Choices[0].Message.Content),
		Engine:  e.Name(),
	}, nil
}
