package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nhle/sprint-board/internal/model"
)

// ParseStory extracts a story from model output. A JSON object is preferred,
// with or without a code fence around it; otherwise the first line becomes
// the title and the rest the description.
func ParseStory(text string) (*GeneratedStory, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	if obj := extractJSONObject(text); obj != "" {
		var gs GeneratedStory
		if err := json.Unmarshal([]byte(obj), &gs); err == nil && strings.TrimSpace(gs.Title) != "" {
			gs.Title = strings.TrimSpace(gs.Title)
			gs.Description = strings.TrimSpace(gs.Description)
			gs.Tags = model.NormalizeTags(gs.Tags)
			return &gs, nil
		}
	}

	title, rest, _ := strings.Cut(text, "\n")
	title = strings.TrimSpace(strings.TrimLeft(title, "#*- "))
	if title == "" {
		return nil, fmt.Errorf("could not find a title in model response")
	}
	return &GeneratedStory{
		Title:       title,
		Description: strings.TrimSpace(rest),
		Tags:        []string{},
	}, nil
}

// extractJSONObject returns the outermost {...} span of s, or "".
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
