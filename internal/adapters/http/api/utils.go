package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/model"
)

const (
	maxBodyBytes         = 1 << 20
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	if rec, ok := w.(errorCodeRecorder); ok {
		rec.recordErrorCode(code)
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a service or rule error to its HTTP status.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrIncorrectPassword):
		writeError(w, http.StatusUnauthorized, "incorrect_password", service.ErrIncorrectPassword)
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
	case errors.Is(err, model.ErrEditingLocked):
		writeError(w, http.StatusConflict, "editing_locked", Wrap(op, err))
	case errors.Is(err, model.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", Wrap(op, err))
	case errors.Is(err, service.ErrRequestInFlight):
		writeError(w, http.StatusConflict, "request_in_flight", Wrap(op, err))
	case errors.Is(err, model.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, model.ErrInvalidTeams),
		errors.Is(err, model.ErrUnknownTeam),
		errors.Is(err, model.ErrUnknownCounter),
		errors.Is(err, model.ErrUnknownCardKind),
		errors.Is(err, model.ErrInvalidExtraTime),
		errors.Is(err, model.ErrCounterOverflow),
		errors.Is(err, model.ErrDuplicateEventID),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrAuthSetup):
		writeError(w, http.StatusServiceUnavailable, "auth_unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// idempotencyKey scopes the client's Idempotency-Key to the method and path,
// so one key reused on another route or team is a new request.
func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" {
		return ""
	}
	return r.Method + " " + r.URL.Path + "|" + key
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
