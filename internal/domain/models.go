// Package domain defines the core types shared across the processing
// pipeline.
package domain

import "time"

// UploadedFile is a single file received in a multipart request. It exists
// only for the duration of one request.
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// FileResult is the outcome of processing one uploaded file. Exactly one of
// the success fields or Error is populated.
type FileResult struct {
	Filename string `json:"filename"`
	Text     string `json:"text,omitempty"`
	Summary  string `json:"summary,omitempty"`
	ImageKey string `json:"image_key,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Error    string `json:"error,omitempty"`

	Duration time.Duration `json:"-"`
}

// OK reports whether the file was processed successfully.
func (r FileResult) OK() bool { return r.Error == "" }

// StoredImage describes an object persisted to the storage backend. Deletion
// is handled by the bucket lifecycle policy, never by application code.
type StoredImage struct {
	Key         string
	Bucket      string
	ContentType string
	URL         string
	ExpiresAt   time.Time
}

// ReportEntry is one section of a rendered report. Image carries raw bytes
// when the client supplied them inline; ImageURL points at a stored object
// to fetch at render time.
type ReportEntry struct {
	Page     int    `json:"page"`
	Summary  string `json:"summary"`
	Text     string `json:"text"`
	Image    []byte `json:"image,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
