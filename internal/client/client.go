// Package client is a thin helper for calling a served model from Go code.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"pinserve/internal/core/domain"
)

type Client struct {
	httpClient *http.Client
}

type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EndpointURL normalizes a base server address into its prediction endpoint.
func EndpointURL(base string) string {
	return strings.TrimRight(base, "/") + "/predict/"
}

// Predict posts data to an endpoint and decodes the JSON response. Data may
// be a single instance, a slice of instances, a *domain.Frame (sent as its
// row records), or any JSON-encodable value.
func (c *Client) Predict(ctx context.Context, endpoint string, data any) (map[string]any, error) {
	payload := data
	if frame, ok := data.(*domain.Frame); ok {
		rows := make([]domain.Instance, frame.Len())
		for i := range rows {
			rows[i] = frame.Row(i)
		}
		payload = rows
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.WithFields(log.Fields{
		"endpoint": endpoint,
		"bytes":    len(body),
	}).Debug("posting prediction request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Error bodies are not always JSON (a proxy may hand back HTML), so
		// the status code leads and the body is decoded best-effort.
		var decoded map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("prediction endpoint returned %d", resp.StatusCode)
		}
		msg, _ := decoded["error"].(string)
		return decoded, fmt.Errorf("prediction endpoint returned %d: %s", resp.StatusCode, msg)
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode prediction response: %w", err)
	}
	return decoded, nil
}
