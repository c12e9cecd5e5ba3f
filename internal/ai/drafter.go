package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/sprint-board/internal/credential"
	"github.com/nhle/sprint-board/internal/model"
)

// KeySource looks up provider API keys.
type KeySource interface {
	APIKey(provider string) (string, error)
}

// SettingsSource loads the stored AI settings.
type SettingsSource interface {
	LoadAI(fallback model.AISettings) (model.AISettings, error)
}

// Drafter combines stored settings and credentials with a Generator.
type Drafter struct {
	gen      *Generator
	keys     KeySource
	settings SettingsSource
	defaults model.AISettings
}

// NewDrafter returns a Drafter. defaults apply when no settings are stored.
func NewDrafter(gen *Generator, keys KeySource, settings SettingsSource, defaults model.AISettings) *Drafter {
	return &Drafter{gen: gen, keys: keys, settings: settings, defaults: defaults}
}

// Settings returns the effective AI settings.
func (d *Drafter) Settings() (model.AISettings, error) {
	if d.settings == nil {
		return d.defaults, nil
	}
	return d.settings.LoadAI(d.defaults)
}

// Draft generates a story from prompt with the effective settings.
func (d *Drafter) Draft(ctx context.Context, prompt string) (*GeneratedStory, error) {
	s, err := d.Settings()
	if err != nil {
		return nil, fmt.Errorf("loading AI settings: %w", err)
	}

	key, err := d.keys.APIKey(s.Provider)
	if err != nil && !errors.Is(err, credential.ErrNotFound) {
		return nil, fmt.Errorf("reading %s API key: %w", s.Provider, err)
	}

	return d.gen.Generate(ctx, Request{
		Provider:     s.Provider,
		Model:        s.Model,
		Prompt:       prompt,
		APIKey:       key,
		SystemPrompt: s.SystemPrompt,
	})
}

// Input converts a draft into story fields.
func (g GeneratedStory) Input() model.StoryInput {
	return model.StoryInput{Title: g.Title, Description: g.Description, Tags: g.Tags}
}
