// Package webhook provides an HTTP client for sending check reports to webhook endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ccollicutt/timecheck/pkg/config"
	"github.com/ccollicutt/timecheck/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// RunIDHeader carries the report's run ID on every request.
const RunIDHeader = "X-Timecheck-Run-Id"

const (
	userAgent        = "timecheck-webhook"
	maxResponseBytes = 1 << 20
)

// Client sends check reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a check report to a webhook endpoint. Failures are carried
// in Response.Error.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	finish := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	// Apply timeout
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := newRequest(ctx, report, opts)
	if err != nil {
		return finish(err)
	}

	// Send request
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return finish(fmt.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	// Keep at most 1MB of the reply for diagnostics
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return finish(fmt.Errorf("failed to read response: %w", err))
	}
	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)

	// Check for error status codes
	if resp.StatusCode >= 400 {
		return finish(fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}
	return finish(nil)
}

// newRequest builds the POST carrying the report as JSON.
func newRequest(ctx context.Context, report *output.Report, opts SendOptions) (*http.Request, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if report.Metadata.RunID != "" {
		req.Header.Set(RunIDHeader, report.Metadata.RunID)
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	return req, nil
}

// Delivery is the outcome of one configured webhook.
type Delivery struct {
	// Name is the webhook name, or its URL when unnamed.
	Name string

	// Response is nil when the trigger did not fire.
	Response *Response
}

// Dispatch sends the report to every webhook whose trigger fires.
func (c *Client) Dispatch(ctx context.Context, hooks []config.WebhookConfig, report *output.Report) []Delivery {
	deliveries := make([]Delivery, 0, len(hooks))
	for _, wh := range hooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		d := Delivery{Name: name}
		if ShouldFire(wh.Trigger, report.HasViolations()) {
			d.Response = c.Send(ctx, report, SendOptions{
				URL:     wh.URL,
				Token:   wh.Token,
				Timeout: wh.Timeout,
			})
		}
		deliveries = append(deliveries, d)
	}
	return deliveries
}

// ShouldFire determines if a webhook should fire based on its trigger.
func ShouldFire(trigger config.WebhookTrigger, hasViolations bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return hasViolations
	}
}
