package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

type memStore struct {
	saved   *model.AISettings
	loadErr error
}

func (s *memStore) LoadAI(fallback model.AISettings) (model.AISettings, error) {
	if s.loadErr != nil {
		return fallback, s.loadErr
	}
	if s.saved == nil {
		return fallback, nil
	}
	return *s.saved, nil
}

func (s *memStore) SaveAI(v model.AISettings) error {
	if err := model.Validate(v); err != nil {
		return err
	}
	s.saved = &v
	return nil
}

type memKeys map[string]string

func (k memKeys) SetAPIKey(provider, key string) error {
	if key == "" {
		delete(k, provider)
		return nil
	}
	k[provider] = key
	return nil
}

var defaults = model.AISettings{Provider: "anthropic", Model: "claude-default"}

func defaultModel(p string) string { return p + "-default" }

func TestSaveFillsDefaultModelAndStoresKey(t *testing.T) {
	st := &memStore{}
	keys := memKeys{}
	m := New(st, keys, defaults, defaultModel, 80, 30)
	m.Open()

	m.fb.provider = "openai"
	m.fb.model = "  "
	m.fb.apiKey = "sk-test"

	m, cmd := m.save()
	require.NotNil(t, cmd)
	saved, ok := cmd().(SavedMsg)
	require.True(t, ok)

	assert.Equal(t, "openai-default", saved.Settings.Model)
	require.NotNil(t, st.saved)
	assert.Equal(t, "openai", st.saved.Provider)
	assert.Equal(t, "sk-test", keys["openai"])
	assert.Empty(t, m.View(), "form closes after saving")
}

func TestSaveKeepsKeyWhenBlank(t *testing.T) {
	keys := memKeys{"anthropic": "existing"}
	m := New(&memStore{}, keys, defaults, defaultModel, 80, 30)
	m.Open()

	_, cmd := m.save()
	require.NotNil(t, cmd)
	assert.Equal(t, "existing", keys["anthropic"])
}

func TestClearKey(t *testing.T) {
	keys := memKeys{"anthropic": "existing"}
	m := New(&memStore{}, keys, defaults, defaultModel, 80, 30)
	m.Open()
	m.fb.clearKey = true

	m.save()
	assert.NotContains(t, keys, "anthropic")
}

func TestInvalidSettingsReopenWithError(t *testing.T) {
	st := &memStore{}
	m := New(st, memKeys{}, defaults, nil, 80, 30)
	m.Open()
	m.fb.provider = "mistral"

	m, _ = m.save()
	assert.Nil(t, st.saved)
	assert.Contains(t, m.View(), "provider must be one of")
}

func TestOpenReportsUnreadableSettings(t *testing.T) {
	m := New(&memStore{loadErr: errors.New("bad json")}, memKeys{}, defaults, nil, 80, 30)
	m.Open()
	assert.Equal(t, "anthropic", m.fb.provider)
	assert.Contains(t, m.View(), "unreadable")
}
