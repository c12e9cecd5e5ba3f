package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/export"
	"github.com/nhle/sprint-board/internal/intake"
	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/ui/archive"
	"github.com/nhle/sprint-board/internal/ui/detail"
	"github.com/nhle/sprint-board/internal/ui/grid"
	"github.com/nhle/sprint-board/internal/ui/sprintform"
	"github.com/nhle/sprint-board/internal/ui/storyform"
)

// viewMsg carries a board snapshot from the subscription. ok is false once
// the subscription is closed.
type viewMsg struct {
	view board.View
	ok   bool
}

// loadDoneMsg reports the outcome of an explicit load.
type loadDoneMsg struct {
	err error
}

// actionDoneMsg reports the outcome of a board mutation. On success the
// cursor moves to focusSprint/focusStory when set.
type actionDoneMsg struct {
	err         error
	notice      string
	focusSprint string
	focusStory  string
}

// exportDoneMsg reports a finished export.
type exportDoneMsg struct {
	path string
	err  error
}

// intakeMsg wraps a poller result.
type intakeMsg intake.Result

func waitForView(ch <-chan board.View) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		return viewMsg{view: v, ok: ok}
	}
}

func (m Model) waitForIntake() tea.Cmd {
	if m.deps.Poller == nil {
		return nil
	}
	results := m.deps.Poller.Results()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case r := <-results:
			return intakeMsg(r)
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) handleIntake(r intake.Result) {
	switch {
	case r.AuthFailed():
		m.intakeErr = fmt.Sprintf("%s: credentials rejected, update them in the config", r.SourceID)
	case r.Err != nil:
		m.intakeErr = fmt.Sprintf("%s: %v", r.SourceID, r.Err)
	default:
		m.intakeErr = ""
		if r.Imported > 0 {
			m.notice = fmt.Sprintf("Imported %d new stories from %s", r.Imported, r.SourceID)
		}
	}
}

func (m Model) load(force bool) tea.Cmd {
	ctx, b := m.ctx, m.board
	return func() tea.Msg {
		return loadDoneMsg{err: b.Load(ctx, force)}
	}
}

// do runs a board mutation off the UI goroutine.
func (m Model) do(fn func() (actionDoneMsg, error)) tea.Cmd {
	log := m.log
	return func() tea.Msg {
		msg, err := fn()
		if err != nil {
			log.Debug("board action failed", zap.Error(err))
			msg.err = err
		}
		return msg
	}
}

func (m Model) handleGridAction(a grid.ActionMsg) (tea.Model, tea.Cmd) {
	ctx, b := m.ctx, m.board
	v := m.grid.BoardView()

	switch a.Action {
	case grid.ActionOpen:
		st, ok := v.Story(a.StoryID)
		if !ok {
			return m, nil
		}
		title := ""
		if sp, ok := v.Sprint(st.SprintID); ok {
			title = sp.Title
		}
		m.detail.SetStory(&st, title)
		m.previousView = ViewBoard
		m.currentView = ViewDetail
		return m, nil

	case grid.ActionNewStory:
		m.previousView = ViewBoard
		m.currentView = ViewStoryForm
		return m, m.storyForm.StartCreate(v.Sprints, a.SprintID)

	case grid.ActionEdit:
		if a.StoryID != "" {
			return m.editStory(a.StoryID)
		}
		sp, ok := v.Sprint(a.SprintID)
		if !ok {
			return m, nil
		}
		m.currentView = ViewSprintForm
		return m, m.sprintForm.StartEdit(sp.Sprint)

	case grid.ActionToggle:
		return m, m.toggle(a.StoryID)

	case grid.ActionArchive:
		if a.StoryID != "" {
			return m, m.do(func() (actionDoneMsg, error) {
				return actionDoneMsg{notice: "Story archived"}, b.ArchiveStory(ctx, a.StoryID)
			})
		}
		return m, m.do(func() (actionDoneMsg, error) {
			return actionDoneMsg{notice: "Sprint archived"}, b.ArchiveSprint(ctx, a.SprintID)
		})

	case grid.ActionDelete:
		if a.StoryID != "" {
			st, _ := v.Story(a.StoryID)
			m.confirm = &confirmation{
				prompt: fmt.Sprintf("Delete %s permanently?", st.Number),
				run: m.do(func() (actionDoneMsg, error) {
					return actionDoneMsg{notice: "Story deleted"}, b.DeleteStory(ctx, a.StoryID)
				}),
			}
			return m, nil
		}
		sp, ok := v.Sprint(a.SprintID)
		if !ok {
			return m, nil
		}
		if !sp.Policy.Deletable {
			m.banner = board.Describe(board.OpDeleteSprint, deleteGuard(sp))
			return m, nil
		}
		m.confirm = &confirmation{
			prompt: fmt.Sprintf("Delete sprint %q?", sp.Title),
			run: m.do(func() (actionDoneMsg, error) {
				return actionDoneMsg{notice: "Sprint deleted"}, b.DeleteSprint(ctx, a.SprintID)
			}),
		}
		return m, nil

	case grid.ActionCloseSprint:
		return m, m.closeSprint(a.SprintID, board.CloseCompleted)

	case grid.ActionCloseAll:
		sp, _ := v.Sprint(a.SprintID)
		m.confirm = &confirmation{
			prompt: fmt.Sprintf("Archive all %d stories of %q?", len(sp.Stories), sp.Title),
			run:    m.closeSprint(a.SprintID, board.CloseAll),
		}
		return m, nil

	case grid.ActionMoveStory:
		var pos *int
		if a.Position > 0 {
			p := a.Position
			pos = &p
		}
		return m, m.do(func() (actionDoneMsg, error) {
			return actionDoneMsg{focusSprint: a.TargetID, focusStory: a.StoryID},
				b.MoveStory(ctx, a.StoryID, a.TargetID, pos)
		})

	case grid.ActionMoveSprint:
		return m, m.do(func() (actionDoneMsg, error) {
			return actionDoneMsg{}, b.MoveSprint(ctx, a.SprintID, a.Position)
		})
	}
	return m, nil
}

// deleteGuard explains why a sprint's policy forbids deletion.
func deleteGuard(sp layout.OrderedSprint) error {
	if sp.Role != layout.RoleUser {
		return board.ErrProtectedSprint
	}
	return board.ErrSprintNotEmpty
}

func (m Model) handleDetailAction(a detail.ActionMsg) (tea.Model, tea.Cmd) {
	switch a.Action {
	case "edit":
		return m.editStory(a.StoryID)
	case "toggle":
		return m, m.toggle(a.StoryID)
	case "archive":
		m.currentView = ViewBoard
		ctx, b := m.ctx, m.board
		return m, m.do(func() (actionDoneMsg, error) {
			return actionDoneMsg{notice: "Story archived"}, b.ArchiveStory(ctx, a.StoryID)
		})
	}
	return m, nil
}

func (m Model) editStory(id string) (tea.Model, tea.Cmd) {
	st, ok := m.grid.BoardView().Story(id)
	if !ok {
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = ViewStoryForm
	return m, m.storyForm.StartEdit(st)
}

func (m Model) toggle(storyID string) tea.Cmd {
	ctx, b := m.ctx, m.board
	return m.do(func() (actionDoneMsg, error) {
		done, err := b.ToggleStory(ctx, storyID)
		notice := "Marked open"
		if done {
			notice = "Marked done"
		}
		return actionDoneMsg{notice: notice}, err
	})
}

func (m Model) closeSprint(sprintID string, mode board.CloseMode) tea.Cmd {
	ctx, b := m.ctx, m.board
	return m.do(func() (actionDoneMsg, error) {
		n, err := b.CloseSprint(ctx, sprintID, mode)
		return actionDoneMsg{notice: fmt.Sprintf("Archived %d stories", n)}, err
	})
}

func (m Model) saveStory(s storyform.SubmitMsg) tea.Cmd {
	ctx, b := m.ctx, m.board
	if s.StoryID != "" {
		return m.do(func() (actionDoneMsg, error) {
			return actionDoneMsg{notice: "Story saved"}, b.UpdateStory(ctx, s.StoryID, s.Input)
		})
	}
	return m.do(func() (actionDoneMsg, error) {
		st, err := b.AddStory(ctx, s.SprintID, s.Input)
		return actionDoneMsg{
			notice:      "Created " + st.Number,
			focusSprint: st.SprintID,
			focusStory:  st.ID,
		}, err
	})
}

func (m Model) saveSprint(s sprintform.SubmitMsg) tea.Cmd {
	ctx, b := m.ctx, m.board
	if s.SprintID != "" {
		return m.do(func() (actionDoneMsg, error) {
			return actionDoneMsg{notice: "Sprint saved"}, b.UpdateSprint(ctx, s.SprintID, s.Input)
		})
	}
	return m.do(func() (actionDoneMsg, error) {
		sp, err := b.AddSprint(ctx, s.Input)
		return actionDoneMsg{notice: "Sprint created", focusSprint: sp.ID}, err
	})
}

// targetSprint is where new and generated stories go: the focused sprint,
// or the backlog when nothing is focused.
func (m Model) targetSprint() string {
	if id, _ := m.grid.Focus(); id != "" {
		return id
	}
	if bl, ok := m.grid.BoardView().Backlog(); ok {
		return bl.ID
	}
	return ""
}

func (m *Model) openAI() tea.Cmd {
	title := ""
	if sp, ok := m.grid.BoardView().Sprint(m.targetSprint()); ok {
		title = sp.Title
	}
	m.currentView = ViewAI
	return m.aiView.Open(title)
}

func (m *Model) openArchive() tea.Cmd {
	m.currentView = ViewArchive
	m.archiveView.SetLoading()
	return m.loadArchive()
}

func (m Model) loadArchive() tea.Cmd {
	ctx, b := m.ctx, m.board
	return func() tea.Msg {
		a, err := b.Archived(ctx)
		return archive.LoadedMsg{Archive: a, Err: err}
	}
}

func (m Model) restore(r archive.RestoreMsg) tea.Cmd {
	ctx, b := m.ctx, m.board
	if r.Kind == archive.KindSprint {
		return m.do(func() (actionDoneMsg, error) {
			return actionDoneMsg{notice: "Sprint restored"}, b.RestoreSprint(ctx, r.ID)
		})
	}
	return m.do(func() (actionDoneMsg, error) {
		return actionDoneMsg{notice: "Story restored"}, b.RestoreStory(ctx, r.ID)
	})
}

func (m Model) purge(d archive.DeleteMsg) tea.Cmd {
	ctx, b := m.ctx, m.board
	if d.Kind == archive.KindSprint {
		return m.do(func() (actionDoneMsg, error) {
			return actionDoneMsg{notice: "Sprint deleted"}, b.DeleteSprint(ctx, d.ID)
		})
	}
	return m.do(func() (actionDoneMsg, error) {
		return actionDoneMsg{notice: "Story deleted"}, b.DeleteStory(ctx, d.ID)
	})
}

func (m Model) exportBoard(f export.Format) tea.Cmd {
	ctx, b, dir := m.ctx, m.board, m.deps.ExportDir
	return func() tea.Msg {
		sprints, err := b.Snapshot(ctx, false)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		now := time.Now()
		path := filepath.Join(dir, export.Filename(b.UserID(), f, now))
		file, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{err: fmt.Errorf("creating export file: %w", err)}
		}
		if err := export.Write(file, f, export.New(b.UserID(), sprints, now)); err != nil {
			file.Close()
			return exportDoneMsg{err: err}
		}
		if err := file.Close(); err != nil {
			return exportDoneMsg{err: fmt.Errorf("writing export file: %w", err)}
		}
		return exportDoneMsg{path: path}
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	verb, arg, _ := strings.Cut(strings.ToLower(strings.TrimSpace(cmd)), " ")

	switch verb {
	case "reload", "refresh":
		return m, m.load(true)
	case "sync":
		if m.deps.Poller == nil {
			m.notice = "No intake sources configured"
			return m, nil
		}
		m.deps.Poller.TriggerAll()
		m.notice = "Syncing intake sources"
		return m, nil
	case "new":
		m.previousView = ViewBoard
		if arg == "sprint" {
			m.currentView = ViewSprintForm
			return m, m.sprintForm.StartCreate()
		}
		m.currentView = ViewStoryForm
		return m, m.storyForm.StartCreate(m.grid.BoardView().Sprints, m.targetSprint())
	case "generate":
		return m, m.openAI()
	case "settings":
		m.currentView = ViewSettings
		return m, m.settingsView.Open()
	case "archive":
		return m, m.openArchive()
	case "export":
		f, err := export.ParseFormat(arg)
		if err != nil {
			m.banner = err.Error()
			return m, nil
		}
		return m, m.exportBoard(f)
	case "show":
		m.grid.SetShowCompleted(true)
		return m, nil
	case "hide":
		m.grid.SetShowCompleted(false)
		return m, nil
	case "quit", "q":
		m.unsubscribe()
		return m, tea.Quit
	}

	m.notice = fmt.Sprintf("Unknown command %q", cmd)
	return m, nil
}
