package ai

import (
	"context"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aiservice "github.com/nhle/sprint-board/internal/ai"
)

type fakeDrafter struct {
	prompts []string
	story   *aiservice.GeneratedStory
	err     error
}

func (f *fakeDrafter) Draft(_ context.Context, prompt string) (*aiservice.GeneratedStory, error) {
	f.prompts = append(f.prompts, prompt)
	return f.story, f.err
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

// runBatch executes cmd and every command of a batch, returning the
// messages that are not spinner ticks.
func runBatch(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runBatch(c)...)
	}
	return out
}

func draftMsgs(msgs []tea.Msg) []DraftMsg {
	var out []DraftMsg
	for _, m := range msgs {
		if d, ok := m.(DraftMsg); ok {
			out = append(out, d)
		}
	}
	return out
}

func TestGenerateAndAccept(t *testing.T) {
	d := &fakeDrafter{story: &aiservice.GeneratedStory{
		Title:       "Add login",
		Description: "Users can sign in.",
		Tags:        []string{"auth"},
	}}
	m := New(context.Background(), d, 80, 30)
	m.Open("Backlog")

	m = typeText(m, "login page")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.Busy())

	drafts := draftMsgs(runBatch(cmd))
	require.Len(t, drafts, 1)
	assert.Equal(t, []string{"login page"}, d.prompts)

	m, _ = m.Update(drafts[0])
	assert.False(t, m.Busy())
	assert.Contains(t, m.View(), "Add login")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	accept, ok := cmd().(AcceptMsg)
	require.True(t, ok)
	assert.Equal(t, "Add login", accept.Input.Title)
	assert.Equal(t, []string{"auth"}, accept.Input.Tags)
}

func TestGenerateErrorNamesProvider(t *testing.T) {
	d := &fakeDrafter{err: &aiservice.ProviderError{
		Provider:   aiservice.ProviderOpenAI,
		StatusCode: http.StatusUnauthorized,
		Message:    "bad key",
	}}
	m := New(context.Background(), d, 80, 30)
	m.Open("")

	m = typeText(m, "anything")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drafts := draftMsgs(runBatch(cmd))
	require.Len(t, drafts, 1)

	m, _ = m.Update(drafts[0])
	assert.False(t, m.Busy())
	assert.Contains(t, m.View(), "OpenAI")
}

func TestEmptyPromptDoesNothing(t *testing.T) {
	m := New(context.Background(), &fakeDrafter{}, 80, 30)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.Busy())
}

func TestEscCloses(t *testing.T) {
	m := New(context.Background(), nil, 80, 30)
	assert.Contains(t, m.View(), "not configured")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, CloseMsg{}, cmd())
}
