package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStory(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantTitle string
		wantDesc  string
		wantTags  []string
	}{
		{
			name:      "plain json",
			in:        `{"title":" Export CSV ","description":"Rows per story","tags":["export"]}`,
			wantTitle: "Export CSV",
			wantDesc:  "Rows per story",
			wantTags:  []string{"export"},
		},
		{
			name:      "json with chatter",
			in:        "Sure! Here it is:\n{\"title\":\"Dark mode\",\"description\":\"\",\"tags\":[]}\nEnjoy.",
			wantTitle: "Dark mode",
			wantTags:  []string{},
		},
		{
			name:      "free text fallback",
			in:        "## Add search\nUsers can search stories by title.\n- fast",
			wantTitle: "Add search",
			wantDesc:  "Users can search stories by title.\n- fast",
			wantTags:  []string{},
		},
		{
			name:      "json without title falls back",
			in:        `{"description":"no title"}`,
			wantTitle: `{"description":"no title"}`,
			wantTags:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStory(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantDesc, got.Description)
			assert.Equal(t, tt.wantTags, got.Tags)
		})
	}
}

func TestParseStoryEmpty(t *testing.T) {
	_, err := ParseStory("   ")
	assert.Error(t, err)
}
