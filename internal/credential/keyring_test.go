package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(env map[string]string) *Store {
	s := New(keyring.NewArrayKeyring(nil))
	s.env = func(k string) string { return env[k] }
	return s
}

func TestGetSetDelete(t *testing.T) {
	s := newTestStore(nil)

	_, err := s.Get("jira-token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("jira-token", "abc"))
	v, err := s.Get("jira-token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Delete("jira-token"))
	require.NoError(t, s.Delete("jira-token"))
	_, err = s.Get("jira-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAPIKeyPrefersEnvironment(t *testing.T) {
	s := newTestStore(map[string]string{"OPENAI_API_KEY": "from-env"})

	require.NoError(t, s.SetAPIKey("openai", "from-ring"))
	require.NoError(t, s.SetAPIKey("anthropic", "ring-only"))

	v, err := s.APIKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	v, err = s.APIKey("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "ring-only", v)

	require.NoError(t, s.SetAPIKey("anthropic", ""))
	_, err = s.APIKey("anthropic")
	assert.ErrorIs(t, err, ErrNotFound)
}
