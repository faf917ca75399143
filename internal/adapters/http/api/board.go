package api

import "net/http"

// BoardHandler serves the public read view. It never mutates.
type BoardHandler struct {
	deps BoardDependencies
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(deps BoardDependencies) *BoardHandler {
	return &BoardHandler{deps: deps}
}

// HandleGetBoard handles GET /api/board requests.
func (h *BoardHandler) HandleGetBoard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Board())
}

// HandleGetTeams handles GET /api/teams requests.
func (h *BoardHandler) HandleGetTeams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Teams())
}
