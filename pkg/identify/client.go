// Package identify is the client for the scene identification endpoint: a
// free-form question about the camera view answered by a remote
// vision-language service.
package identify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pathsense/go-pathsense/internal/httpc"
)

// Client talks to the identification service.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for the given endpoint URL.
func NewClient(url string) *Client {
	return &Client{url: url, http: httpc.Client}
}

type request struct {
	Text string `json:"text"`
}

type response struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Identify sends a question about the current view and returns the
// service's answer.
func (c *Client) Identify(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("identify: empty question")
	}

	body, err := json.Marshal(request{Text: text})
	if err != nil {
		return "", fmt.Errorf("identify: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("identify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("identify: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("identify: read response: %w", err)
	}

	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("identify: decode response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("identify: service error: %s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identify: unexpected status %d", resp.StatusCode)
	}
	return out.Result, nil
}
