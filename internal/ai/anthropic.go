package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicURL          = "https://api.anthropic.com/v1/messages"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 1024
)

// Anthropic calls the Messages API.
type Anthropic struct {
	client    *http.Client
	url       string
	maxTokens int
}

// NewAnthropic returns a provider posting to url, or the public endpoint
// when url is empty.
func NewAnthropic(client *http.Client, url string) *Anthropic {
	if url == "" {
		url = anthropicURL
	}
	return &Anthropic{client: client, url: url, maxTokens: defaultMaxTokens}
}

// SetMaxTokens caps the response length. Non-positive values keep the default.
func (a *Anthropic) SetMaxTokens(n int) {
	if n > 0 {
		a.maxTokens = n
	}
}

func (a *Anthropic) Name() string         { return ProviderAnthropic }
func (a *Anthropic) DefaultModel() string { return anthropicDefaultModel }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a single-turn message and returns the concatenated text
// blocks of the reply.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: a.maxTokens,
		System:    req.SystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	headers := map[string]string{
		"x-api-key":         req.APIKey,
		"anthropic-version": anthropicVersion,
	}

	respBody, err := postJSON(ctx, a.client, ProviderAnthropic, a.url, headers, body, func(b []byte) string {
		var apiErr anthropicError
		if json.Unmarshal(b, &apiErr) == nil {
			return apiErr.Error.Message
		}
		return ""
	})
	if err != nil {
		return "", err
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &ProviderError{Provider: ProviderAnthropic, Message: "decoding response", Err: fmt.Errorf("decoding response: %w", err), StatusCode: http.StatusOK}
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
