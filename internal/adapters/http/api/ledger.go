package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/matchday/internal/domain/model"
)

type goalRequest struct {
	Scorer  string `json:"scorer"`
	Assist  string `json:"assist"`
	Penalty bool   `json:"penalty"`
}

type cardRequest struct {
	Kind   string `json:"kind"`
	Player string `json:"player"`
}

type counterRequest struct {
	Delta int `json:"delta"`
}

// LedgerHandler handles goal, card and counter requests.
type LedgerHandler struct {
	deps LedgerDependencies
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps LedgerDependencies) *LedgerHandler {
	return &LedgerHandler{deps: deps}
}

// HandleAddGoal handles POST /api/match/teams/{team}/goals requests.
// A repeated Idempotency-Key replays the first goal instead of adding another.
func (h *LedgerHandler) HandleAddGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_goal"
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	scorer := strings.TrimSpace(req.Scorer)
	if scorer == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing scorer")))
		return
	}
	team := r.PathValue("team")
	ctx := r.Context()
	res, replayed, err := h.deps.Idempotent(ctx, idempotencyKey(r), func() (any, error) {
		return h.deps.RecordGoal(ctx, team, scorer, strings.TrimSpace(req.Assist), req.Penalty)
	})
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeCreated(w, res, replayed)
}

// HandleDeleteGoal handles DELETE /api/match/teams/{team}/goals/{id} requests.
func (h *LedgerHandler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_goal"
	if err := h.deps.DeleteGoal(r.Context(), r.PathValue("team"), r.PathValue("id")); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddCard handles POST /api/match/teams/{team}/cards requests.
func (h *LedgerHandler) HandleAddCard(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_card"
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	kind, err := model.ParseCardKind(req.Kind)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	player := strings.TrimSpace(req.Player)
	if player == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing player")))
		return
	}
	team := r.PathValue("team")
	ctx := r.Context()
	res, replayed, err := h.deps.Idempotent(ctx, idempotencyKey(r), func() (any, error) {
		return h.deps.RecordCard(ctx, team, kind, player)
	})
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeCreated(w, res, replayed)
}

// HandleAdjustCounter handles POST /api/match/teams/{team}/counters/{counter} requests.
func (h *LedgerHandler) HandleAdjustCounter(w http.ResponseWriter, r *http.Request) {
	const op = "api.adjust_counter"
	counter, err := model.ParseCounter(r.PathValue("counter"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	var req counterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	stats, err := h.deps.AdjustCounter(r.Context(), r.PathValue("team"), counter, req.Delta)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeCreated(w http.ResponseWriter, v any, replayed bool) {
	if replayed {
		w.Header().Set(replayedHeader, "true")
		writeJSON(w, http.StatusOK, v)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
