// Package compliance talks to the WM Compliance template API.
package compliance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"docbuilder/internal/domain"
	apperrors "docbuilder/pkg/errors"

	"golang.org/x/time/rate"
)

// ErrSaveEndpointMissing is returned when the remote app has no save endpoint.
var ErrSaveEndpointMissing = errors.New("Save endpoint not configured on WM Compliance")

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("WM Compliance API key not configured")

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 2
	defaultBackoff    = 250 * time.Millisecond
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RPS        float64
	Burst      int
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
}

// Connection describes the outcome of reaching the list endpoint.
type Connection struct {
	URL        string `json:"url"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// RemoteTemplate is one entry of the remote template list.
type RemoteTemplate struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        string          `json:"type,omitempty"`
	Fields      json.RawMessage `json:"fields,omitempty"`
	Sections    json.RawMessage `json:"sections,omitempty"`
}

// ListResult is either the remote listing or, when the list endpoint is not
// reachable, a discovery payload with Success=false.
type ListResult struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	Connection  Connection        `json:"connection"`
	Templates   []RemoteTemplate  `json:"templates"`
	Reports     []json.RawMessage `json:"reports"`
	ReportTypes json.RawMessage   `json:"reportTypes,omitempty"`
}

// RemotePayload is the template shape the remote save endpoint accepts.
type RemotePayload struct {
	ID                 string                   `json:"id"`
	Name               string                   `json:"name"`
	Description        string                   `json:"description"`
	Elements           []domain.DocumentElement `json:"elements"`
	PageSize           domain.PageSize          `json:"pageSize"`
	Orientation        domain.Orientation       `json:"orientation"`
	UpdatedAt          string                   `json:"updatedAt"`
	UpdatedBy          string                   `json:"updatedBy"`
	SourceDocBuilderID string                   `json:"sourceDocBuilderId"`
}

// Client is a rate limited HTTP client for the compliance API. Transport
// errors and 5xx responses are retried with exponential backoff.
type Client struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     domain.Logger
	metrics    domain.Metrics
}

func NewClient(opts Options, logger domain.Logger, metrics domain.Metrics) *Client {
	c := &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		http:       opts.HTTPClient,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     logger,
		metrics:    metrics,
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.backoff <= 0 {
		c.backoff = defaultBackoff
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(limit, burst)
	return c
}

// Configured reports whether both a base URL and an API key are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// ListTemplates fetches the remote template list. A failing list endpoint
// is reported as a discovery payload, not as an error.
func (c *Client) ListTemplates(ctx context.Context) (*ListResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	endpoint := c.baseURL + "/templates"

	status, body, err := c.do(ctx, "list", http.MethodGet, endpoint, nil)
	if err != nil || status < 200 || status >= 300 {
		if err != nil {
			c.logger.Warn("Compliance list failed", "error", err)
		}
		return &ListResult{
			Success:    false,
			Message:    "Could not connect to WM Compliance templates API",
			Connection: Connection{URL: c.baseURL, Status: "error", StatusCode: status},
			Templates:  []RemoteTemplate{},
			Reports:    []json.RawMessage{},
		}, nil
	}

	var payload struct {
		InspectionTemplates []struct {
			ID          string          `json:"id"`
			Name        string          `json:"name"`
			Title       string          `json:"title"`
			Description string          `json:"description"`
			Category    string          `json:"category"`
			Type        string          `json:"type"`
			Fields      json.RawMessage `json:"fields"`
			Sections    json.RawMessage `json:"sections"`
		} `json:"inspectionTemplates"`
		Reports     []json.RawMessage `json:"reports"`
		ReportTypes json.RawMessage   `json:"reportTypes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewProcessingError("invalid response from WM Compliance", err)
	}

	res := &ListResult{
		Success:     true,
		Connection:  Connection{URL: endpoint, Status: "connected"},
		Templates:   make([]RemoteTemplate, 0, len(payload.InspectionTemplates)),
		Reports:     payload.Reports,
		ReportTypes: payload.ReportTypes,
	}
	if res.Reports == nil {
		res.Reports = []json.RawMessage{}
	}
	for _, t := range payload.InspectionTemplates {
		name := t.Name
		if name == "" {
			name = t.Title
		}
		if name == "" {
			name = "Untitled Template"
		}
		category := t.Category
		if category == "" {
			category = "Inspection"
		}
		res.Templates = append(res.Templates, RemoteTemplate{
			ID:          t.ID,
			Name:        name,
			Description: t.Description,
			Category:    category,
			Type:        t.Type,
			Fields:      t.Fields,
			Sections:    t.Sections,
		})
	}
	return res, nil
}

// FetchTemplate returns the raw remote template, unwrapping a
// {"template": ...} envelope when present.
func (c *Client) FetchTemplate(ctx context.Context, id string) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	endpoint := c.baseURL + "/templates?id=" + url.QueryEscape(id)

	status, body, err := c.do(ctx, "fetch", http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("Failed to fetch template details", err)
	}
	if status < 200 || status >= 300 {
		appErr := apperrors.NewNetworkError("Failed to fetch template details", nil)
		appErr.Details = fmt.Sprintf("status %d", status)
		return nil, appErr
	}

	var wrapped struct {
		Template json.RawMessage `json:"template"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Template) > 0 && string(wrapped.Template) != "null" {
		return wrapped.Template, nil
	}
	return json.RawMessage(body), nil
}

// SaveTemplate posts payload with the given action ("save" when empty) and
// returns the remote response body.
func (c *Client) SaveTemplate(ctx context.Context, payload RemotePayload, action string) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if action == "" {
		action = "save"
	}
	reqBody, err := json.Marshal(map[string]interface{}{
		"template": payload,
		"action":   action,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode save request: %w", err)
	}

	status, body, err := c.do(ctx, "save", http.MethodPost, c.baseURL+"/save-template", reqBody)
	if err != nil {
		return nil, apperrors.NewNetworkError("Failed to save template to WM Compliance", err)
	}
	if status == http.StatusNotFound {
		return nil, ErrSaveEndpointMissing
	}
	if status < 200 || status >= 300 {
		appErr := apperrors.NewNetworkError("Failed to save template to WM Compliance", nil)
		appErr.Details = string(body)
		return nil, appErr
	}
	return json.RawMessage(body), nil
}

// do sends one request, retrying transport errors and 5xx responses. The
// final status and body are returned even when the status is not 2xx.
func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte) (int, []byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.metrics.ComplianceRequest(op, "retry")
			c.logger.Warn("Retrying compliance request", "op", op, "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}

		status, respBody, err := c.send(ctx, method, endpoint, body)
		if err != nil {
			lastErr = err
			continue
		}
		if status >= 500 && attempt < c.maxRetries {
			lastErr = fmt.Errorf("compliance service returned %d", status)
			continue
		}
		outcome := "ok"
		if status >= 400 {
			outcome = "error"
		}
		c.metrics.ComplianceRequest(op, outcome)
		return status, respBody, nil
	}
	c.metrics.ComplianceRequest(op, "error")
	return 0, nil, lastErr
}

func (c *Client) send(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}
