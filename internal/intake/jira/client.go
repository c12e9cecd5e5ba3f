package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/sprint-board/internal/intake"
)

// Client is a thin HTTP client for the Jira Server/DC REST API v2 with
// Bearer token authentication and retry on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	maxBackoff time.Duration
}

// NewClient creates a Jira client for the instance at baseURL using a
// Personal Access Token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		maxBackoff: 30 * time.Second,
	}
}

// Get performs a GET request and decodes the JSON response into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post sends body as JSON and decodes the JSON response into result.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryAfter(resp, attempt)):
				continue
			}
		case resp.StatusCode == http.StatusUnauthorized:
			return &intake.AuthError{
				Type:    intake.TypeJira,
				Message: "check your Personal Access Token for " + c.baseURL,
			}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			var jiraErr ErrorResponse
			if json.Unmarshal(respBody, &jiraErr) == nil &&
				(len(jiraErr.ErrorMessages) > 0 || len(jiraErr.Errors) > 0) {
				return fmt.Errorf("jira API error (%d) on %s %s: %s %v",
					resp.StatusCode, method, path,
					strings.Join(jiraErr.ErrorMessages, "; "), jiraErr.Errors)
			}
			return fmt.Errorf("unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody))
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfter honours the Retry-After header, falling back to exponential
// backoff capped at maxBackoff.
func (c *Client) retryAfter(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return min(time.Duration(seconds)*time.Second, c.maxBackoff)
		}
	}
	return min(time.Duration(1<<uint(attempt))*time.Second, c.maxBackoff)
}
