package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/matchday/internal/domain/model"
)

type teamsRequest struct {
	TeamA string `json:"team_a"`
	TeamB string `json:"team_b"`
}

func (t teamsRequest) validate() error {
	a, b := strings.TrimSpace(t.TeamA), strings.TrimSpace(t.TeamB)
	switch {
	case a == "" || b == "":
		return fmt.Errorf("%w: team_a and team_b are required", model.ErrInvalidTeams)
	case a == b:
		return fmt.Errorf("%w: a team cannot play itself", model.ErrInvalidTeams)
	}
	return nil
}

type extraTimeRequest struct {
	Minutes *int `json:"minutes"`
}

// MatchHandler handles team selection, reset and the clock controls.
type MatchHandler struct {
	deps   MatchDependencies
	auth   SessionDependencies
	clocks map[string]func(context.Context) (model.State, error)
}

// NewMatchHandler creates a new match handler. auth confirms the password on reset.
func NewMatchHandler(deps MatchDependencies, auth SessionDependencies) *MatchHandler {
	return &MatchHandler{
		deps: deps,
		auth: auth,
		clocks: map[string]func(context.Context) (model.State, error){
			"start":     deps.StartMatch,
			"pause":     deps.PauseMatch,
			"resume":    deps.ResumeMatch,
			"half-time": deps.SetHalfTime,
			"end":       deps.EndMatch,
		},
	}
}

// HandleGetMatch handles GET /api/match requests.
func (h *MatchHandler) HandleGetMatch(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Snapshot())
}

// HandleSetTeams handles PUT /api/match/teams requests.
// An invalid selection is refused here and never reaches the store.
func (h *MatchHandler) HandleSetTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_teams"
	var req teamsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	st, err := h.deps.ConfigureMatch(r.Context(), strings.TrimSpace(req.TeamA), strings.TrimSpace(req.TeamB))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleReset handles POST /api/match/reset requests. The admin password is
// asked for again before the match is wiped.
func (h *MatchHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	if err := h.auth.CheckPassword(r.Context(), req.Password); err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ResetAll(r.Context()))
}

// HandleClock handles POST /api/match/clock/{action} requests.
func (h *MatchHandler) HandleClock(w http.ResponseWriter, r *http.Request) {
	const op = "api.clock"
	action := r.PathValue("action")
	fn, ok := h.clocks[action]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, fmt.Errorf("unknown clock action %q", action)))
		return
	}
	st, err := fn(r.Context())
	if err != nil {
		writeFailure(w, op+"."+action, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleExtraTime handles POST /api/match/clock/extra-time requests.
func (h *MatchHandler) HandleExtraTime(w http.ResponseWriter, r *http.Request) {
	const op = "api.extra_time"
	var req extraTimeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	if req.Minutes == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing minutes")))
		return
	}
	st, err := h.deps.AddExtraTime(r.Context(), *req.Minutes)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
