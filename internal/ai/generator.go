// Package ai turns a short prompt into a story draft using a hosted model.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultSystemPrompt asks for a single story as JSON.
const DefaultSystemPrompt = `You write user stories for an agile team board.
Reply with a single JSON object and nothing else, shaped like:
{"title": "...", "description": "...", "tags": ["...", "..."]}
The title is one short imperative line. The description explains the goal and
lists acceptance criteria as "- " bullet lines. Use at most five short
lowercase tags.`

// Request is a provider-agnostic generation request.
type Request struct {
	Provider     string
	Model        string
	Prompt       string
	APIKey       string
	SystemPrompt string
}

// GeneratedStory is the draft returned by Generate.
type GeneratedStory struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Provider sends a completion request to one hosted model API and returns
// the raw text of the reply.
type Provider interface {
	Name() string
	DefaultModel() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Generator routes requests to the configured providers.
type Generator struct {
	providers map[string]Provider
	log       *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithProvider registers or replaces a provider.
func WithProvider(p Provider) Option {
	return func(g *Generator) { g.providers[p.Name()] = p }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// NewGenerator returns a generator with the Anthropic and OpenAI providers
// registered against their public endpoints.
func NewGenerator(opts ...Option) *Generator {
	client := &http.Client{Timeout: 60 * time.Second}
	g := &Generator{
		providers: map[string]Provider{
			ProviderAnthropic: NewAnthropic(client, ""),
			ProviderOpenAI:    NewOpenAI(client, ""),
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Providers returns the registered provider names, sorted.
func (g *Generator) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for name := range g.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultModel returns the default model for a provider, or "".
func (g *Generator) DefaultModel(provider string) string {
	if p, ok := g.providers[provider]; ok {
		return p.DefaultModel()
	}
	return ""
}

// Generate asks the provider for a story draft.
func (g *Generator) Generate(ctx context.Context, req Request) (*GeneratedStory, error) {
	p, ok := g.providers[req.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown AI provider %q", req.Provider)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}
	if req.APIKey == "" {
		return nil, &ProviderError{Provider: p.Name(), StatusCode: http.StatusUnauthorized, Message: "no API key configured"}
	}
	if req.Model == "" {
		req.Model = p.DefaultModel()
	}
	if strings.TrimSpace(req.SystemPrompt) == "" {
		req.SystemPrompt = DefaultSystemPrompt
	}

	start := time.Now()
	text, err := p.Complete(ctx, req)
	if err != nil {
		g.log.Warn("story generation failed", zap.String("provider", p.Name()), zap.Error(err))
		return nil, err
	}
	g.log.Debug("story generated",
		zap.String("provider", p.Name()),
		zap.String("model", req.Model),
		zap.Duration("took", time.Since(start)))

	return ParseStory(text)
}
