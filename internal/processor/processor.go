// Package processor defines the contract with the external video-analysis
// service. Implementations live in subpackages (remote is the HTTP one).
package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/video-guides/internal/model"
)

// Request is what gets sent to the processor for one video.
type Request struct {
	VideoURL string         `json:"video_url"`
	Prompt   string         `json:"prompt"`
	Type     model.Category `json:"type"`
}

// Metadata describes the processed copy of the video.
type Metadata struct {
	VideoURL       string `json:"video_url"`
	Prompt         string `json:"prompt"`
	MimeType       string `json:"mime_type"`
	Timestamp      string `json:"timestamp"`
	HasThumbnail   bool   `json:"has_thumbnail"`
	Cached         bool   `json:"cached"`
	CacheTimestamp string `json:"cache_timestamp"`
}

// Result is a successful analysis as returned by the processor.
type Result struct {
	Title        string             `json:"title"`
	Output       string             `json:"output"`
	ThumbnailURL string             `json:"thumbnail_url"`
	Ingredients  []model.Ingredient `json:"ingredients,omitempty"`
	Metadata     Metadata           `json:"metadata"`
}

// Processor analyses a video. A call is a single attempt; a returned error
// is terminal for the request that triggered it.
type Processor interface {
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// ErrSemantic is returned when the processor answered successfully at the
// HTTP level but reported that the analysis itself failed.
var ErrSemantic = errors.New("video analysis failed")

// TransportError means the processor could not be reached or answered with a
// non-success status. StatusCode is 0 when no response was received. Body is
// kept for diagnostics only and never shown to users.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("processor unreachable: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("processor returned %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("processor returned %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
