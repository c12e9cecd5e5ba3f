package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	openAIURL          = "https://api.openai.com/v1/chat/completions"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAI calls the Chat Completions API.
type OpenAI struct {
	client *http.Client
	url    string
}

// NewOpenAI returns a provider posting to url, or the public endpoint when
// url is empty.
func NewOpenAI(client *http.Client, url string) *OpenAI {
	if url == "" {
		url = openAIURL
	}
	return &OpenAI{client: client, url: url}
}

func (o *OpenAI) Name() string         { return ProviderOpenAI }
func (o *OpenAI) DefaultModel() string { return openAIDefaultModel }

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a system and a user message and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	body := openAIRequest{
		Model: req.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + req.APIKey}

	respBody, err := postJSON(ctx, o.client, ProviderOpenAI, o.url, headers, body, func(b []byte) string {
		var apiErr openAIError
		if json.Unmarshal(b, &apiErr) == nil {
			return apiErr.Error.Message
		}
		return ""
	})
	if err != nil {
		return "", err
	}

	var result openAIResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, StatusCode: http.StatusOK, Message: "decoding response", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(result.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderOpenAI, StatusCode: http.StatusOK, Message: "response had no choices"}
	}
	return result.Choices[0].Message.Content, nil
}
