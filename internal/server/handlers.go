package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/ai"
	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/export"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/store"
)

type errorResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

type boardResponse struct {
	board.View
	Error   string   `json:"error,omitempty"`
	Pending []string `json:"pending,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps a board or provider error onto a status code and message.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	var (
		ve *model.ValidationError
		pe *ai.ProviderError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Fields: ve.Fields})
	case errors.As(err, &pe):
		status := http.StatusBadGateway
		if ai.IsAuthError(err) {
			status = http.StatusFailedDependency
		}
		writeError(w, status, ai.UserMessage(err))
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, board.Describe(op, err))
	case errors.Is(err, board.ErrProtectedSprint),
		errors.Is(err, board.ErrSprintNotEmpty),
		errors.Is(err, board.ErrInFlight),
		errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, board.Describe(op, err))
	default:
		s.log.Error("request failed", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, board.Describe(op, err))
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeBoard(w http.ResponseWriter, b *board.Board) {
	writeJSON(w, http.StatusOK, boardResponse{View: b.View(), Error: b.LastError(), Pending: b.Pending()})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	b := boardFrom(r.Context())
	if err := b.Load(r.Context(), false); err != nil {
		s.fail(w, board.OpLoad, err)
		return
	}
	s.writeBoard(w, b)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	b := boardFrom(r.Context())
	b.ClearError()
	if err := b.Load(r.Context(), true); err != nil {
		s.fail(w, board.OpLoad, err)
		return
	}
	s.writeBoard(w, b)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	a, err := boardFrom(r.Context()).Archived(r.Context())
	if err != nil {
		s.fail(w, "list archive", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := export.ParseFormat(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}
	includeArchived := r.URL.Query().Get("archived") == "true"

	b := boardFrom(r.Context())
	sprints, err := b.Snapshot(r.Context(), includeArchived)
	if err != nil {
		s.fail(w, "export", err)
		return
	}

	now := s.now()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(b.UserID(), format, now)))
	if err := export.Write(w, format, export.New(b.UserID(), sprints, now)); err != nil {
		s.log.Error("writing export", zap.Error(err))
	}
}

func (s *Server) handleAddSprint(w http.ResponseWriter, r *http.Request) {
	var in model.SprintInput
	if !decode(w, r, &in) {
		return
	}
	sp, err := boardFrom(r.Context()).AddSprint(r.Context(), in)
	if err != nil {
		s.fail(w, board.OpAddSprint, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (s *Server) handleUpdateSprint(w http.ResponseWriter, r *http.Request) {
	var in model.SprintInput
	if !decode(w, r, &in) {
		return
	}
	if err := boardFrom(r.Context()).UpdateSprint(r.Context(), r.PathValue("id"), in); err != nil {
		s.fail(w, board.OpUpdateSprint, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSprint(w http.ResponseWriter, r *http.Request) {
	if err := boardFrom(r.Context()).DeleteSprint(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, board.OpDeleteSprint, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchiveSprint(w http.ResponseWriter, r *http.Request) {
	if err := boardFrom(r.Context()).ArchiveSprint(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, board.OpArchiveSprint, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreSprint(w http.ResponseWriter, r *http.Request) {
	if err := boardFrom(r.Context()).RestoreSprint(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, board.OpRestoreSprint, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveSprint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position int `json:"position"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := boardFrom(r.Context()).MoveSprint(r.Context(), r.PathValue("id"), req.Position); err != nil {
		s.fail(w, board.OpMoveSprint, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseSprint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !decode(w, r, &req) {
		return
	}
	mode, err := board.ParseCloseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := boardFrom(r.Context()).CloseSprint(r.Context(), r.PathValue("id"), mode)
	if err != nil {
		s.fail(w, board.OpCloseSprint, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"archived": n})
}

func (s *Server) handleAddStory(w http.ResponseWriter, r *http.Request) {
	var in model.StoryInput
	if !decode(w, r, &in) {
		return
	}
	st, err := boardFrom(r.Context()).AddStory(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.fail(w, board.OpAddStory, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleUpdateStory(w http.ResponseWriter, r *http.Request) {
	var in model.StoryInput
	if !decode(w, r, &in) {
		return
	}
	if err := boardFrom(r.Context()).UpdateStory(r.Context(), r.PathValue("id"), in); err != nil {
		s.fail(w, board.OpUpdateStory, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	if err := boardFrom(r.Context()).DeleteStory(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, board.OpDeleteStory, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleStory(w http.ResponseWriter, r *http.Request) {
	completed, err := boardFrom(r.Context()).ToggleStory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, board.OpToggleStory, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

func (s *Server) handleMoveStory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SprintID string `json:"sprint_id"`
		Position *int   `json:"position"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.SprintID == "" {
		writeError(w, http.StatusBadRequest, "sprint_id is required")
		return
	}
	if err := boardFrom(r.Context()).MoveStory(r.Context(), r.PathValue("id"), req.SprintID, req.Position); err != nil {
		s.fail(w, board.OpMoveStory, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchiveStory(w http.ResponseWriter, r *http.Request) {
	if err := boardFrom(r.Context()).ArchiveStory(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, board.OpArchiveStory, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreStory(w http.ResponseWriter, r *http.Request) {
	if err := boardFrom(r.Context()).RestoreStory(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, board.OpRestoreStory, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	// SprintID, when set, adds the draft to that sprint.
	SprintID string `json:"sprint_id,omitempty"`
}

type generateResponse struct {
	Draft *ai.GeneratedStory `json:"draft"`
	Story *model.Story       `json:"story,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.drafter == nil {
		writeError(w, http.StatusNotImplemented, "story generation is not configured")
		return
	}
	var req generateRequest
	if !decode(w, r, &req) {
		return
	}
	draft, err := s.drafter.Draft(r.Context(), req.Prompt)
	if err != nil {
		if !isProviderError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.fail(w, "generate story", err)
		return
	}

	resp := generateResponse{Draft: draft}
	if req.SprintID != "" {
		st, err := boardFrom(r.Context()).AddStory(r.Context(), req.SprintID, draft.Input())
		if err != nil {
			s.fail(w, board.OpAddStory, err)
			return
		}
		resp.Story = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func isProviderError(err error) bool {
	var pe *ai.ProviderError
	return errors.As(err, &pe)
}

func (s *Server) handleGetAISettings(w http.ResponseWriter, _ *http.Request) {
	if s.drafter == nil {
		writeError(w, http.StatusNotImplemented, "story generation is not configured")
		return
	}
	cur, err := s.drafter.Settings()
	if err != nil {
		s.log.Warn("loading AI settings", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, cur)
}

func (s *Server) handlePutAISettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "settings storage is not configured")
		return
	}
	var in model.AISettings
	if !decode(w, r, &in) {
		return
	}
	if err := s.settings.SaveAI(in); err != nil {
		s.fail(w, "save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}
