package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStoryInput(t *testing.T) {
	tests := []struct {
		name    string
		in      StoryInput
		wantErr string
	}{
		{name: "ok", in: StoryInput{Title: "Login page"}},
		{name: "missing title", in: StoryInput{}, wantErr: "title is required"},
		{name: "long title", in: StoryInput{Title: strings.Repeat("x", 201)}, wantErr: "at most 200 characters"},
		{name: "too many tags", in: StoryInput{Title: "t", Tags: make([]string, 21)}, wantErr: "at most 20 entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAISettings(t *testing.T) {
	err := Validate(AISettings{Provider: "gemini", Model: "x"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "provider", ve.Fields[0].Field)

	assert.NoError(t, Validate(AISettings{Provider: "openai", Model: "gpt-4o"}))
}

func TestValidStoryPrefix(t *testing.T) {
	for _, p := range []string{"STORY", "MY-TEAM", "日本", "ÄPP", "Q3"} {
		assert.True(t, ValidStoryPrefix(p), p)
	}
	for _, p := range []string{"", "-A", "A-", "A--B", "A B", "S%", "A_B"} {
		assert.False(t, ValidStoryPrefix(p), p)
	}

	err := Validate(UserSettings{UserID: "u", StoryPrefix: "NOT VALID"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storyprefix may only contain")

	err = Validate(UserSettings{UserID: "u", StoryPrefix: "ABCDEFGHIJKLMNOPQ"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 16 characters")
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" api ", "", "API", "ui", "ui "})
	assert.Equal(t, []string{"api", "ui"}, got)
	assert.Equal(t, []string{"a", "b"}, ParseTags("a, b,,A"))
}
