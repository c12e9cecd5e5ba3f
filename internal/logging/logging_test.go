package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log, err := New(model.LogConfig{Level: "debug", File: path}, true)
	require.NoError(t, err)

	log.Debug("hello from test")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(model.LogConfig{Level: "chatty"}, false)
	assert.Error(t, err)
}

func TestFilePathAbsolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "x.log")
	assert.Equal(t, abs, FilePath(model.LogConfig{File: abs}))
}
