package api

import "net/http"

type passwordRequest struct {
	Password string `json:"password"`
}

// SessionHandler handles admin login.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleLogin handles POST /api/session requests.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	session, err := h.deps.Authenticate(r.Context(), req.Password)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// AdminGuard rejects requests without a valid admin session token.
type AdminGuard struct {
	deps SessionDependencies
}

// NewAdminGuard creates a guard backed by deps.
func NewAdminGuard(deps SessionDependencies) *AdminGuard {
	return &AdminGuard{deps: deps}
}

// Require wraps next so it only runs for a valid "Authorization: Bearer" token.
func (g *AdminGuard) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "api.admin"
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
			return
		}
		if err := g.deps.VerifySession(r.Context(), token); err != nil {
			writeFailure(w, op, err)
			return
		}
		next(w, r)
	}
}
