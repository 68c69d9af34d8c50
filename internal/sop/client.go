// Package sop generates Standard Operating Procedure documents, either by
// calling a remote generator or locally, and holds the export placeholder.
package sop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

// DefaultAPIURL is the generator base URL when none is configured.
const DefaultAPIURL = "http://localhost:8000"

// GeneratePath is the generator endpoint relative to the base URL.
const GeneratePath = "/api/generate-sop"

// ErrGenerationFailed is returned when the generator reports failure
// without a message of its own, and wraps any message it does report.
var ErrGenerationFailed = errors.New("failed to generate SOP")

// Client calls a remote SOP generator.
type Client struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	tracer   trace.Tracer
}

// Config configures the client.
type Config struct {
	APIURL  string
	Timeout time.Duration
	Headers map[string]string
}

// NewClient creates a generator client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = DefaultAPIURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid SOP API URL %q", cfg.APIURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: base + GeneratePath,
		headers:  cfg.Headers,
		client:   &http.Client{Timeout: timeout},
		tracer:   otel.Tracer("opsdash/sop"),
	}, nil
}

// Endpoint is the full generator URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// GenerateSOP posts the request and returns the generated document.
// Failures are logged and returned.
func (c *Client) GenerateSOP(ctx context.Context, req models.SOPRequest) (*models.SOPDocument, error) {
	ctx, span := c.tracer.Start(ctx, "sop.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", c.endpoint),
			attribute.Int("sop.data_points", len(req.DataPoints)),
		))
	defer span.End()

	doc, err := c.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Errorf("Error generating SOP: %v", err)
		return nil, err
	}
	return doc, nil
}

func (c *Client) generate(ctx context.Context, req models.SOPRequest) (*models.SOPDocument, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SOP request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out models.SOPResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("http request failed with status %s: %w: %s", resp.Status, ErrGenerationFailed, out.Error)
		}
		return nil, fmt.Errorf("http request failed with status %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode SOP response: %w", decodeErr)
	}
	if !out.Success {
		if out.Error == "" {
			return nil, ErrGenerationFailed
		}
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, out.Error)
	}
	if out.SOPDocument == nil {
		return nil, fmt.Errorf("%w: response has no document", ErrGenerationFailed)
	}
	return out.SOPDocument, nil
}

// ExportSOP is the client side of document export. Nothing is sent to the
// remote service.
func (c *Client) ExportSOP(ctx context.Context, doc *models.SOPDocument, format string) models.ExportResult {
	return ExportSOP(ctx, doc, format)
}
