package server

import "net/http"

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.Handle("GET /api/board", s.read(s.handleBoard))
	mux.Handle("POST /api/board/reload", s.read(s.handleReload))
	mux.Handle("GET /api/archive", s.read(s.handleArchive))
	mux.Handle("GET /api/events", s.read(s.handleEvents))
	mux.Handle("GET /api/export", s.read(s.handleExport))

	mux.Handle("POST /api/sprints", s.write(s.handleAddSprint))
	mux.Handle("PATCH /api/sprints/{id}", s.write(s.handleUpdateSprint))
	mux.Handle("DELETE /api/sprints/{id}", s.write(s.handleDeleteSprint))
	mux.Handle("POST /api/sprints/{id}/archive", s.write(s.handleArchiveSprint))
	mux.Handle("POST /api/sprints/{id}/restore", s.write(s.handleRestoreSprint))
	mux.Handle("POST /api/sprints/{id}/move", s.write(s.handleMoveSprint))
	mux.Handle("POST /api/sprints/{id}/close", s.write(s.handleCloseSprint))
	mux.Handle("POST /api/sprints/{id}/stories", s.write(s.handleAddStory))

	mux.Handle("PATCH /api/stories/{id}", s.write(s.handleUpdateStory))
	mux.Handle("DELETE /api/stories/{id}", s.write(s.handleDeleteStory))
	mux.Handle("POST /api/stories/{id}/toggle", s.write(s.handleToggleStory))
	mux.Handle("POST /api/stories/{id}/move", s.write(s.handleMoveStory))
	mux.Handle("POST /api/stories/{id}/archive", s.write(s.handleArchiveStory))
	mux.Handle("POST /api/stories/{id}/restore", s.write(s.handleRestoreStory))

	mux.Handle("POST /api/generate", s.write(s.handleGenerate))
	mux.Handle("GET /api/settings/ai", s.read(s.handleGetAISettings))
	mux.Handle("PUT /api/settings/ai", s.write(s.handlePutAISettings))

	return mux
}
