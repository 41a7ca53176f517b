// scholarship-system/internal/studentapi/client.go

// Package studentapi is the HTTP client for the external student-records API.
// The core treats this service as best-effort: callers degrade gracefully
// when it is down.
package studentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound marks a student unknown to the records system, as opposed to
// the system being unreachable.
var ErrNotFound = errors.New("student not found")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the given base URL, or nil when no URL is
// configured so callers can treat the directory as absent.
func NewClient(baseURL string) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil
	}
	return &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// GetStudentAttributes fetches the attribute snapshot for one student. The
// response is a flat JSON object of field name to value.
func (c *Client) GetStudentAttributes(ctx context.Context, studentNo string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/students/%s", c.baseURL, studentNo), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("student records request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("student records returned status %d", resp.StatusCode)
	}

	var attrs map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decode student records response: %w", err)
	}
	return attrs, nil
}
