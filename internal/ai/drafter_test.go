package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/credential"
	"github.com/nhle/sprint-board/internal/model"
)

type stubProvider struct {
	got Request
}

func (p *stubProvider) Name() string         { return ProviderOpenAI }
func (p *stubProvider) DefaultModel() string { return "stub-model" }

func (p *stubProvider) Complete(_ context.Context, req Request) (string, error) {
	p.got = req
	return storyJSON, nil
}

type keyMap map[string]string

func (k keyMap) APIKey(provider string) (string, error) {
	if v, ok := k[provider]; ok {
		return v, nil
	}
	return "", fmt.Errorf("key %s: %w", provider, credential.ErrNotFound)
}

type fixedSettings struct {
	s   model.AISettings
	err error
}

func (f fixedSettings) LoadAI(fallback model.AISettings) (model.AISettings, error) {
	if f.err != nil {
		return fallback, f.err
	}
	return f.s, nil
}

func TestDrafterUsesStoredSettings(t *testing.T) {
	p := &stubProvider{}
	d := NewDrafter(
		NewGenerator(WithProvider(p)),
		keyMap{ProviderOpenAI: "sk"},
		fixedSettings{s: model.AISettings{Provider: ProviderOpenAI, Model: "gpt-4o", SystemPrompt: "terse"}},
		model.AISettings{Provider: ProviderAnthropic, Model: "x"},
	)

	story, err := d.Draft(context.Background(), "reset password")
	require.NoError(t, err)
	assert.Equal(t, "Add password reset", story.Input().Title)
	assert.Equal(t, Request{
		Provider: ProviderOpenAI, Model: "gpt-4o", Prompt: "reset password", APIKey: "sk", SystemPrompt: "terse",
	}, p.got)
}

func TestDrafterMissingKey(t *testing.T) {
	d := NewDrafter(NewGenerator(), keyMap{}, nil, model.AISettings{Provider: ProviderAnthropic, Model: "m"})

	_, err := d.Draft(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, "Anthropic rejected the API key. Update it in AI settings.", UserMessage(err))
}

func TestDrafterSettingsError(t *testing.T) {
	d := NewDrafter(NewGenerator(), keyMap{}, fixedSettings{err: errors.New("corrupt")}, model.AISettings{})
	_, err := d.Draft(context.Background(), "anything")
	assert.ErrorContains(t, err, "loading AI settings")
}
