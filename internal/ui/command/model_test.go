package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestEnterEmitsTrimmedCommand(t *testing.T) {
	m := typeText(New(80, 20), "  export csv ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("export csv"), cmd())
	assert.Empty(t, m.input.Value())
}

func TestBlankEnterDoesNothing(t *testing.T) {
	_, cmd := New(80, 20).Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestHistoryRecall(t *testing.T) {
	m := New(80, 20)
	for _, line := range []string{"reload", "sync", "sync"} {
		m = typeText(m, line)
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}
	assert.Equal(t, []string{"reload", "sync"}, m.history)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "sync", m.input.Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "reload", m.input.Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "reload", m.input.Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "sync", m.input.Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, m.input.Value())
}

func TestMatchingFiltersByPrefix(t *testing.T) {
	m := typeText(New(80, 20), "exp")
	assert.Equal(t, []string{"export json", "export csv", "export pdf"}, m.matching())

	m = typeText(New(80, 20), "zzz")
	assert.Empty(t, m.matching())
	assert.Contains(t, m.View(), "no matching command")
}
