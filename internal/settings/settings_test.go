package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

func newFile(t *testing.T) *File {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "nested", "settings.json"))
}

func TestAIRoundTrip(t *testing.T) {
	f := newFile(t)
	fallback := model.AISettings{Provider: "anthropic", Model: "claude-sonnet-4-20250514"}

	got, err := f.LoadAI(fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	want := model.AISettings{Provider: "openai", Model: "gpt-4o-mini", SystemPrompt: "be brief"}
	require.NoError(t, f.SaveAI(want))

	got, err = Open(f.Path()).LoadAI(fallback)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveAIRejectsInvalid(t *testing.T) {
	f := newFile(t)

	err := f.SaveAI(model.AISettings{Provider: "gemini", Model: "x"})
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))

	_, statErr := os.Stat(f.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestOtherKeysSurvive(t *testing.T) {
	f := newFile(t)

	require.NoError(t, f.Set("theme", "dark"))
	require.NoError(t, f.SaveAI(model.AISettings{Provider: "openai", Model: "gpt-4o"}))

	var theme string
	require.NoError(t, f.Get("theme", &theme))
	assert.Equal(t, "dark", theme)

	require.NoError(t, f.Delete("theme"))
	require.NoError(t, f.Delete("theme"))
	assert.ErrorIs(t, f.Get("theme", &theme), ErrNotFound)
}

func TestLoadAICorruptFallsBack(t *testing.T) {
	f := newFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.Path()), 0o755))
	require.NoError(t, os.WriteFile(f.Path(), []byte(`{"ai-settings": {"provider": 7}}`), 0o600))

	fallback := model.AISettings{Provider: "anthropic", Model: "m"}
	got, err := f.LoadAI(fallback)
	require.Error(t, err)
	assert.Equal(t, fallback, got)
}
