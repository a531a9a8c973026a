/**
 * @description
 * This package provides a client for the Fittbot payment API. It encapsulates
 * the wire contract of the asynchronous command protocol: submitting checkout
 * and verify mutations tagged with an Idempotency-Key header, fetching
 * command status by request id, and querying premium entitlement status.
 *
 * The client never retries or polls on its own; retry policy belongs to the
 * orchestration layer in internal/app.
 */
package fittbotclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

// Client is a client for the Fittbot payment API.
type Client struct {
	baseURL     string
	clientID    string
	premiumPath string
	httpClient  *http.Client

	// now is swapped in tests to pin idempotency-key timestamps.
	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPremiumStatusPath overrides the premium-status endpoint path.
func WithPremiumStatusPath(path string) Option {
	return func(c *Client) { c.premiumPath = path }
}

// NewClient creates a new Fittbot API client. clientID identifies this
// device/installation and is embedded in every idempotency key.
func NewClient(baseURL, clientID string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		clientID:    strings.TrimSpace(clientID),
		premiumPath: "/user_premium/premium-status",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewIdempotencyKey mints a key for one logical submission attempt:
// {purpose}_{clientID}_{unix-ms}_{random-suffix}. The timestamp and random
// suffix make unrelated attempts unlinkable; callers that must retry the
// same attempt reuse the key they already minted.
func (c *Client) NewIdempotencyKey(purpose string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s_%s_%d_%s", purpose, c.clientID, c.now().UnixMilli(), suffix)
}

// submitResponse is the immediate response to a checkout/verify submission.
type submitResponse struct {
	RequestID string `json:"request_id"`
}

// premiumStatusResponse is the entitlement snapshot used by reconciliation.
type premiumStatusResponse struct {
	HasPremium bool `json:"has_premium"`
}

// APIError is a non-2xx response from the payment API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fittbot api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fittbot api error (status %d)", e.StatusCode)
}

// Submit issues one mutating request (checkout or verify) under the given
// idempotency key and returns the request_id of the command the backend
// created to process it. Errors propagate untouched; the caller decides
// whether to retry.
func (c *Client) Submit(ctx context.Context, path string, body any, idempotencyKey string) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create submit request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	var resp submitResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.RequestID == "" {
		return "", fmt.Errorf("submit response missing request_id")
	}
	return resp.RequestID, nil
}

// GetCommand fetches the current state of an asynchronous command. path is
// the fully-resolved command status path for the flow.
func (c *Client) GetCommand(ctx context.Context, path string) (*domain.Command, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command status request: %w", err)
	}
	c.setCommonHeaders(req)

	var cmd domain.Command
	if err := c.do(req, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// GetPremiumStatus reports whether the user's premium entitlement is active.
// Used by the reconciliation poller as the slow independent success signal.
func (c *Client) GetPremiumStatus(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.premiumPath, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create premium status request: %w", err)
	}
	c.setCommonHeaders(req)

	var resp premiumStatusResponse
	if err := c.do(req, &resp); err != nil {
		return false, err
	}
	return resp.HasPremium, nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	// Dev tunnel bypass; part of the literal wire contract for all requests.
	req.Header.Set("ngrok-skip-browser-warning", "true")
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}
}

// do executes the request and decodes a 2xx body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(bodyBytes)}
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func extractErrorMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}
