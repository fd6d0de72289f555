// Package ckan talks to the CKAN action API of the open-data catalog.
package ckan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/telemetry"
)

const maxResponseBytes = 64 << 20

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Metrics    domain.Metrics
	Logger     *zap.Logger
}

// Client issues GET requests against a fixed catalog base URL.
type Client struct {
	base      *url.URL
	timeout   time.Duration
	userAgent string
	http      *http.Client
	metrics   domain.Metrics
	logger    *zap.Logger
}

// NewClient validates the base URL and builds a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = domain.DefaultCatalogBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("catalog base url must be http or https: %q", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("catalog base url has no host: %q", raw)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultCatalogTimeoutSeconds) * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:      base,
		timeout:   timeout,
		userAgent: opts.UserAgent,
		http:      httpClient,
		metrics:   metrics,
		logger:    logger.Named("ckan"),
	}, nil
}

// ResolveURL joins the base URL with the request path and query.
func (c *Client) ResolveURL(req domain.CatalogRequest) (string, error) {
	ref, err := url.Parse(req.Path)
	if err != nil {
		return "", fmt.Errorf("parse request path %q: %w", req.Path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("request path must be relative: %q", req.Path)
	}
	resolved := c.base.ResolveReference(ref)
	resolved.RawQuery = req.Query()
	return resolved.String(), nil
}

// Fetch performs the GET and returns the JSON document. It does not retry.
func (c *Client) Fetch(ctx context.Context, req domain.CatalogRequest) (json.RawMessage, error) {
	target, err := c.ResolveURL(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.get(ctx, target)
	outcome := "success"
	if err != nil {
		outcome = outcomeOf(err)
	}
	c.metrics.ObserveUpstream(domain.UpstreamMetric{
		Endpoint: req.Path,
		Outcome:  outcome,
		Duration: time.Since(start),
	})

	logger := telemetry.LoggerWithRequest(ctx, c.logger)
	if err != nil {
		logger.Debug("catalog request failed",
			telemetry.URLField(target),
			telemetry.DurationField(time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	logger.Debug("catalog request",
		telemetry.URLField(target),
		telemetry.DurationField(time.Since(start)),
		zap.Int("bytes", len(body)),
	)
	return body, nil
}

func (c *Client) get(ctx context.Context, target string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, target, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &UpstreamError{
			Kind:       KindStatus,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(bytes.TrimSpace(body)),
		}
	}

	if err := checkEnvelope(target, body); err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func transportError(ctx context.Context, target string, err error) error {
	kind := KindNetwork
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = KindTimeout
		}
	}
	return &UpstreamError{Kind: kind, URL: target, Err: err}
}

func outcomeOf(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return string(upstream.Kind)
	}
	return "error"
}

var _ domain.Fetcher = (*Client)(nil)
