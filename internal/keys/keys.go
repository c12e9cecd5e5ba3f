package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Stories
	NewStory      key.Binding
	Edit          key.Binding
	Toggle        key.Binding
	Archive       key.Binding
	Delete        key.Binding
	MoveUp        key.Binding
	MoveDown      key.Binding
	MovePrev      key.Binding
	MoveNext      key.Binding
	ShowCompleted key.Binding

	// Sprints
	NewSprint     key.Binding
	CloseSprint   key.Binding
	CloseAll      key.Binding
	SprintEarlier key.Binding
	SprintLater   key.Binding

	// Panels
	AI          key.Binding
	Settings    key.Binding
	ArchiveView key.Binding
	Restore     key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous sprint"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right", "tab"),
			key.WithHelp("l/→", "next sprint"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		NewStory: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new story"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "toggle done"),
		),
		Archive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "archive"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move story up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move story down"),
		),
		MovePrev: key.NewBinding(
			key.WithKeys("<", "H"),
			key.WithHelp("<", "story to previous sprint"),
		),
		MoveNext: key.NewBinding(
			key.WithKeys(">", "L"),
			key.WithHelp(">", "story to next sprint"),
		),
		ShowCompleted: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "show/hide done"),
		),
		NewSprint: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new sprint"),
		),
		CloseSprint: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "close sprint (done)"),
		),
		CloseAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "close sprint (all)"),
		),
		SprintEarlier: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "sprint earlier"),
		),
		SprintLater: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "sprint later"),
		),
		AI: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate story"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "AI settings"),
		),
		ArchiveView: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "archive"),
		),
		Restore: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "restore"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Left, k.Right, k.Select,
		k.NewStory, k.Toggle, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back, k.Quit},
		{k.NewStory, k.Edit, k.Toggle, k.Archive, k.Delete, k.ShowCompleted},
		{k.MoveUp, k.MoveDown, k.MovePrev, k.MoveNext},
		{k.NewSprint, k.CloseSprint, k.CloseAll, k.SprintEarlier, k.SprintLater},
		{k.AI, k.Settings, k.ArchiveView, k.Restore, k.Command, k.Help, k.Refresh},
	}
}
