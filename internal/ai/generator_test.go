package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storyJSON = `{"title":"Add password reset","description":"As a user...","tags":["auth","Auth","email"]}`

func TestGenerateAnthropic(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "```json\n" + storyJSON + "\n```"}},
		})
	}))
	defer srv.Close()

	g := NewGenerator(WithProvider(NewAnthropic(srv.Client(), srv.URL)))
	story, err := g.Generate(context.Background(), Request{
		Provider: ProviderAnthropic,
		Prompt:   "password reset",
		APIKey:   "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "Add password reset", story.Title)
	assert.Equal(t, []string{"auth", "email"}, story.Tags)
	assert.Equal(t, anthropicDefaultModel, got.Model)
	assert.Equal(t, DefaultSystemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "password reset", got.Messages[0].Content)
}

func TestGenerateOpenAI(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": storyJSON}}},
		})
	}))
	defer srv.Close()

	g := NewGenerator(WithProvider(NewOpenAI(srv.Client(), srv.URL)))
	story, err := g.Generate(context.Background(), Request{
		Provider:     ProviderOpenAI,
		Model:        "gpt-4o",
		Prompt:       "reset",
		APIKey:       "sk-test",
		SystemPrompt: "be brief",
	})
	require.NoError(t, err)

	assert.Equal(t, "Add password reset", story.Title)
	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "be brief", got.Messages[0].Content)
}

func TestGenerateProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantAuth bool
	}{
		{name: "bad key", status: 401, body: `{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`, wantMsg: "Anthropic rejected the API key", wantAuth: true},
		{name: "rate limit", status: 429, body: `{"error":{"message":"slow down"}}`, wantMsg: "rate limit"},
		{name: "server", status: 529, body: `overloaded`, wantMsg: "having problems (529)"},
		{name: "bad request", status: 400, body: `{"error":{"message":"max_tokens too large"}}`, wantMsg: "max_tokens too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewGenerator(WithProvider(NewAnthropic(srv.Client(), srv.URL)))
			_, err := g.Generate(context.Background(), Request{Provider: ProviderAnthropic, Prompt: "x", APIKey: "k"})
			require.Error(t, err)

			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, ProviderAnthropic, pe.Provider)
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, tt.wantAuth, IsAuthError(err))
			assert.False(t, IsNetworkError(err))
			assert.Contains(t, UserMessage(err), tt.wantMsg)
		})
	}
}

func TestGenerateNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewGenerator(WithProvider(NewOpenAI(http.DefaultClient, url)))
	_, err := g.Generate(context.Background(), Request{Provider: ProviderOpenAI, Prompt: "x", APIKey: "k"})
	require.Error(t, err)

	assert.True(t, IsNetworkError(err))
	assert.Contains(t, UserMessage(err), "Could not reach OpenAI")
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	g := NewGenerator()
	ctx := context.Background()

	_, err := g.Generate(ctx, Request{Provider: "gemini", Prompt: "x", APIKey: "k"})
	assert.ErrorContains(t, err, "unknown AI provider")

	_, err = g.Generate(ctx, Request{Provider: ProviderOpenAI, Prompt: "  ", APIKey: "k"})
	assert.ErrorContains(t, err, "prompt")

	_, err = g.Generate(ctx, Request{Provider: ProviderOpenAI, Prompt: "x"})
	assert.True(t, IsAuthError(err))

	assert.Equal(t, []string{ProviderAnthropic, ProviderOpenAI}, g.Providers())
	assert.Equal(t, openAIDefaultModel, g.DefaultModel(ProviderOpenAI))
}
