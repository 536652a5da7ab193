package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// result classifies one ask call.
type result int

const (
	resultFailed result = iota
	resultFound
	resultNotFound
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Found bool `json:"found"`
}

// client wraps http.Client with the probe timeout.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// health checks that the server answers GET /healthz.
func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// ask posts one question and classifies the answer.
func (c *client) ask(ctx context.Context, question string) (result, error) {
	body, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return resultFailed, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ask", bytes.NewReader(body))
	if err != nil {
		return resultFailed, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "probe-"+uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return resultFailed, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resultFailed, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out askResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return resultFailed, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Found {
		return resultFound, nil
	}
	return resultNotFound, nil
}
