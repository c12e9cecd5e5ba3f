package app

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/intake"
	"github.com/nhle/sprint-board/internal/keys"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/ui"
	aiview "github.com/nhle/sprint-board/internal/ui/ai"
	"github.com/nhle/sprint-board/internal/ui/archive"
	"github.com/nhle/sprint-board/internal/ui/command"
	"github.com/nhle/sprint-board/internal/ui/detail"
	"github.com/nhle/sprint-board/internal/ui/grid"
	helpview "github.com/nhle/sprint-board/internal/ui/help"
	settingsview "github.com/nhle/sprint-board/internal/ui/settings"
	"github.com/nhle/sprint-board/internal/ui/sprintform"
	"github.com/nhle/sprint-board/internal/ui/storyform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoard ViewState = iota
	ViewDetail
	ViewStoryForm
	ViewSprintForm
	ViewAI
	ViewSettings
	ViewArchive
	ViewHelp
	ViewCommand
)

// Deps are the services the TUI drives. Poller and Drafter are optional.
type Deps struct {
	Board        *board.Board
	Poller       *intake.Poller
	Drafter      aiview.Drafter
	Settings     settingsview.Store
	Keys         settingsview.KeyStore
	AIDefaults   model.AISettings
	DefaultModel func(provider string) string
	ExportDir    string
	Log          *zap.Logger
}

// confirmation is a pending y/n question on the board.
type confirmation struct {
	prompt string
	run    tea.Cmd
}

// Model is the root Bubble Tea model that routes between views and turns
// user intents into board operations.
type Model struct {
	ctx          context.Context
	deps         Deps
	board        *board.Board
	log          *zap.Logger
	views        <-chan board.View
	unsubscribe  func()
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	grid         grid.Model
	detail       detail.Model
	storyForm    storyform.Model
	sprintForm   sprintform.Model
	aiView       aiview.Model
	settingsView settingsview.Model
	archiveView  archive.Model
	helpView     helpview.Model
	commandView  command.Model
	confirm      *confirmation
	banner       string
	notice       string
	intakeErr    string
	ready        bool
}

// New creates the root model. The caller runs d.Board (and d.Poller) in
// the background; the model subscribes to board views for its lifetime.
func New(ctx context.Context, d Deps) Model {
	k := keys.DefaultKeyMap()
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	views, unsubscribe := d.Board.Subscribe()

	return Model{
		ctx:          ctx,
		deps:         d,
		board:        d.Board,
		log:          log,
		views:        views,
		unsubscribe:  unsubscribe,
		keys:         k,
		grid:         grid.New(k, 80, 22),
		detail:       detail.New(k, 80, 22),
		storyForm:    storyform.New(80, 22),
		sprintForm:   sprintform.New(80, 22),
		aiView:       aiview.New(ctx, d.Drafter, 80, 22),
		settingsView: settingsview.New(d.Settings, d.Keys, d.AIDefaults, d.DefaultModel, 80, 22),
		archiveView:  archive.New(k, 80, 22),
		helpView:     helpview.New(k, 80, 22),
		commandView:  command.New(80, 22),
	}
}

// Init loads the board and starts listening for views and intake results.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sprintboard"),
		m.load(false),
		waitForView(m.views),
		m.waitForIntake(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.grid.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.storyForm.SetSize(w, h)
		m.sprintForm.SetSize(w, h)
		m.aiView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.archiveView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case viewMsg:
		if !msg.ok {
			return m, nil
		}
		m.grid.SetView(msg.view)
		m.refreshDetail()
		return m, waitForView(m.views)

	case loadDoneMsg:
		m.setError(msg.err)
		return m, nil

	case actionDoneMsg:
		m.setError(msg.err)
		if msg.err == nil {
			m.notice = msg.notice
			if msg.focusSprint != "" {
				m.grid.SetFocus(msg.focusSprint, msg.focusStory)
			}
		}
		if m.currentView == ViewArchive {
			m.archiveView.SetLoading()
			return m, m.loadArchive()
		}
		return m, nil

	case exportDoneMsg:
		m.setError(msg.err)
		if msg.err == nil {
			m.notice = "Exported to " + msg.path
		}
		return m, nil

	case intakeMsg:
		m.handleIntake(intake.Result(msg))
		return m, m.waitForIntake()

	case grid.ActionMsg:
		return m.handleGridAction(msg)

	case detail.BackMsg:
		m.currentView = ViewBoard
		return m, nil

	case detail.ActionMsg:
		return m.handleDetailAction(msg)

	case storyform.SubmitMsg:
		m.currentView = m.formReturnView()
		return m, m.saveStory(msg)

	case storyform.CancelMsg:
		m.currentView = m.formReturnView()
		return m, nil

	case sprintform.SubmitMsg:
		m.currentView = ViewBoard
		return m, m.saveSprint(msg)

	case sprintform.CancelMsg:
		m.currentView = ViewBoard
		return m, nil

	case aiview.CloseMsg:
		m.currentView = ViewBoard
		return m, nil

	case aiview.AcceptMsg:
		sprintID := m.targetSprint()
		m.previousView = ViewBoard
		m.currentView = ViewStoryForm
		return m, m.storyForm.StartDraft(m.grid.BoardView().Sprints, sprintID, msg.Input)

	case aiview.DraftMsg:
		var cmd tea.Cmd
		m.aiView, cmd = m.aiView.Update(msg)
		return m, cmd

	case settingsview.SavedMsg:
		m.currentView = ViewBoard
		m.notice = fmt.Sprintf("AI settings saved (%s, %s)", msg.Settings.Provider, msg.Settings.Model)
		return m, nil

	case settingsview.CancelMsg:
		m.currentView = ViewBoard
		return m, nil

	case archive.LoadedMsg:
		var cmd tea.Cmd
		m.archiveView, cmd = m.archiveView.Update(msg)
		return m, cmd

	case archive.RestoreMsg:
		return m, m.restore(msg)

	case archive.DeleteMsg:
		return m, m.purge(msg)

	case archive.CloseMsg:
		m.currentView = ViewBoard
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.unsubscribe()
		return m, tea.Quit, true
	}

	if m.confirm != nil && m.currentView == ViewBoard {
		c := m.confirm
		m.confirm = nil
		if msg.String() == "y" {
			return m, c.run, true
		}
		m.notice = "Cancelled"
		return m, nil, true
	}

	// Text inputs own every other key.
	if m.typing() {
		return m, nil, false
	}

	switch msg.String() {
	case "esc":
		if m.currentView == ViewBoard && (m.banner != "" || m.notice != "") {
			m.board.ClearError()
			m.banner, m.notice = "", ""
			return m, nil, true
		}
		if m.currentView == ViewHelp || m.currentView == ViewCommand {
			m.currentView = m.previousView
			return m, nil, true
		}

	case "q":
		if m.currentView == ViewBoard {
			m.unsubscribe()
			return m, tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case ":":
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true
	}

	if m.currentView != ViewBoard {
		return m, nil, false
	}

	switch msg.String() {
	case "r":
		m.notice = ""
		return m, m.load(true), true
	case "N":
		m.currentView = ViewSprintForm
		return m, m.sprintForm.StartCreate(), true
	case "g":
		return m, m.openAI(), true
	case "s":
		m.currentView = ViewSettings
		return m, m.settingsView.Open(), true
	case "A":
		return m, m.openArchive(), true
	}
	return m, nil, false
}

// typing reports whether the active view has a focused text input.
func (m Model) typing() bool {
	switch m.currentView {
	case ViewStoryForm, ViewSprintForm, ViewSettings, ViewCommand:
		return true
	case ViewAI:
		return !m.aiView.Busy()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewBoard:
		m.grid, cmd = m.grid.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewStoryForm:
		m.storyForm, cmd = m.storyForm.Update(msg)
	case ViewSprintForm:
		m.sprintForm, cmd = m.sprintForm.Update(msg)
	case ViewAI:
		m.aiView, cmd = m.aiView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewArchive:
		m.archiveView, cmd = m.archiveView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.syncStatus())
	banner := m.layout.RenderBanner(m.banner)
	if banner != "" {
		h := m.layout.ContentHeight() - 1
		m.grid.SetSize(m.layout.ContentWidth(), h)
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBoard:
		return m.grid.View()
	case ViewDetail:
		return m.detail.View()
	case ViewStoryForm:
		return m.storyForm.View()
	case ViewSprintForm:
		return m.sprintForm.View()
	case ViewAI:
		return m.aiView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewArchive:
		return m.archiveView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) title() string {
	v := m.grid.BoardView()
	return fmt.Sprintf("Sprint Board · %s · %d stories", m.board.UserID(), v.StoryCount())
}

// syncStatus summarises in-flight board operations and intake state.
func (m Model) syncStatus() string {
	var parts []string
	if pending := m.board.Pending(); len(pending) > 0 {
		parts = append(parts, fmt.Sprintf("saving (%d)", len(pending)))
	}

	if m.deps.Poller != nil {
		running, failed := 0, 0
		var failedIDs []string
		for _, s := range m.deps.Poller.Statuses() {
			switch s.State {
			case intake.StateRunning:
				running++
			case intake.StateError:
				failed++
				failedIDs = append(failedIDs, s.SourceID)
			}
		}
		switch {
		case running > 0:
			parts = append(parts, fmt.Sprintf("syncing (%d)", running))
		case failed > 0:
			parts = append(parts, "⚠ unreachable: "+strings.Join(failedIDs, ", "))
		}
	}

	if len(parts) == 0 {
		return "idle"
	}
	return strings.Join(parts, " · ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.confirm != nil && m.currentView == ViewBoard {
		return m.confirm.prompt + " (y/n)"
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | e edit | x toggle | a archive | j/k scroll"
	case ViewStoryForm, ViewSprintForm, ViewSettings:
		return "enter submit | esc cancel"
	case ViewAI:
		return "enter send | esc close"
	case ViewArchive:
		return "u restore | d delete | esc back"
	}

	if m.notice != "" {
		return m.notice
	}
	if m.intakeErr != "" {
		return m.intakeErr
	}
	return "q quit | ? help | n story | N sprint | x done | g generate | A archive | : command"
}

func (m *Model) setError(err error) {
	if err == nil {
		return
	}
	m.notice = ""
	if msg := m.board.LastError(); msg != "" {
		m.banner = msg
		return
	}
	m.banner = err.Error()
}

// formReturnView is where the story form returns to.
func (m Model) formReturnView() ViewState {
	if m.previousView == ViewDetail {
		return ViewDetail
	}
	return ViewBoard
}

// refreshDetail keeps the detail view in step with the latest snapshot.
func (m *Model) refreshDetail() {
	id := m.detail.StoryID()
	if id == "" {
		return
	}
	v := m.grid.BoardView()
	st, ok := v.Story(id)
	if !ok {
		m.detail.SetStory(nil, "")
		if m.currentView == ViewDetail {
			m.currentView = ViewBoard
		}
		return
	}
	title := ""
	if sp, ok := v.Sprint(st.SprintID); ok {
		title = sp.Title
	}
	m.detail.SetStory(&st, title)
}
