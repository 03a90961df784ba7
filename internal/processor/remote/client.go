// Package remote talks to the video processor over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/video-guides/internal/processor"
)

// Client implements processor.Processor against the remote HTTP service.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
}

var _ processor.Processor = (*Client)(nil)

// New creates a Client. httpClient may be nil, in which case one is built
// with cfg.Timeout; tests pass the client of an httptest.Server.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("remote: processor endpoint is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger,
	}, nil
}

// response is the processor's wire format; Result plus the success flag.
type response struct {
	Success bool `json:"success"`
	processor.Result
}

// Analyze sends one analysis request. It never retries.
//
// FAILURE CLASSES:
//   - no response, non-2xx status, or an undecodable body → *processor.TransportError
//   - 2xx with success=false → processor.ErrSemantic
func (c *Client) Analyze(ctx context.Context, req processor.Request) (*processor.Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("remote: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("remote: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)

	c.logger.Info("sending video to processor",
		slog.String("videoUrl", req.VideoURL),
		slog.String("type", string(req.Type)),
	)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &processor.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return nil, &processor.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	c.logger.Info("processor responded",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("processor request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, &processor.TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &processor.TransportError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("decoding response: %w", err),
		}
	}

	if !decoded.Success {
		c.logger.Warn("processor reported failure", slog.String("videoUrl", req.VideoURL))
		return nil, processor.ErrSemantic
	}

	c.logger.Debug("processor result",
		slog.String("title", decoded.Title),
		slog.Bool("hasThumbnail", decoded.Metadata.HasThumbnail),
		slog.Bool("cached", decoded.Metadata.Cached),
	)

	result := decoded.Result
	return &result, nil
}
