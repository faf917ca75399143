// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/types"
)

// SessionDependencies checks the admin password and session tokens.
type SessionDependencies interface {
	Authenticate(ctx context.Context, password string) (service.Session, error)
	CheckPassword(ctx context.Context, password string) error
	VerifySession(ctx context.Context, token string) error
}

// BoardDependencies exposes the public read view.
type BoardDependencies interface {
	Board() types.Board
	Teams() model.Catalog
}

// MatchDependencies controls team selection, reset and the clock.
type MatchDependencies interface {
	Snapshot() model.State
	ConfigureMatch(ctx context.Context, teamA, teamB string) (model.State, error)
	ResetAll(ctx context.Context) model.State
	StartMatch(ctx context.Context) (model.State, error)
	PauseMatch(ctx context.Context) (model.State, error)
	ResumeMatch(ctx context.Context) (model.State, error)
	SetHalfTime(ctx context.Context) (model.State, error)
	EndMatch(ctx context.Context) (model.State, error)
	AddExtraTime(ctx context.Context, minutes int) (model.State, error)
}

// LedgerDependencies records goals, cards and counters.
type LedgerDependencies interface {
	RecordGoal(ctx context.Context, team, scorer, assist string, penalty bool) (model.GoalEvent, error)
	DeleteGoal(ctx context.Context, team, goalID string) error
	RecordCard(ctx context.Context, team string, kind model.CardKind, player string) (model.CardEvent, error)
	AdjustCounter(ctx context.Context, team string, counter model.Counter, delta int) (model.TeamStats, error)
	Idempotent(ctx context.Context, key string, fn func() (any, error)) (any, bool, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	SessionDependencies
	BoardDependencies
	MatchDependencies
	LedgerDependencies
}

// Server wires HTTP routes for the scoreboard API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	sessionHandler   *SessionHandler
	boardHandler     *BoardHandler
	matchHandler     *MatchHandler
	ledgerHandler    *LedgerHandler
	dashboardHandler *dashboardHandler
	admin            *AdminGuard
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		sessionHandler:   NewSessionHandler(deps),
		boardHandler:     NewBoardHandler(deps),
		matchHandler:     NewMatchHandler(deps, deps),
		ledgerHandler:    NewLedgerHandler(deps),
		dashboardHandler: newdashboardHandler(),
		admin:            NewAdminGuard(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	guard := s.admin.Require

	// Ops
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /admin", s.dashboardHandler.HandleDashboard)

	// Public
	mux.HandleFunc("POST /api/session", MetricsMiddleware(s.sessionHandler.HandleLogin, "session"))
	mux.HandleFunc("GET /api/board", MetricsMiddleware(s.boardHandler.HandleGetBoard, "board"))
	mux.HandleFunc("GET /api/teams", MetricsMiddleware(s.boardHandler.HandleGetTeams, "teams"))

	// Admin
	mux.HandleFunc("GET /api/match", MetricsMiddleware(guard(s.matchHandler.HandleGetMatch), "match"))
	mux.HandleFunc("PUT /api/match/teams", MetricsMiddleware(guard(s.matchHandler.HandleSetTeams), "match_teams"))
	mux.HandleFunc("POST /api/match/reset", MetricsMiddleware(guard(s.matchHandler.HandleReset), "match_reset"))
	mux.HandleFunc("POST /api/match/clock/extra-time", MetricsMiddleware(guard(s.matchHandler.HandleExtraTime), "clock_extra_time"))
	mux.HandleFunc("POST /api/match/clock/{action}", MetricsMiddleware(guard(s.matchHandler.HandleClock), "clock"))
	mux.HandleFunc("POST /api/match/teams/{team}/goals", MetricsMiddleware(guard(s.ledgerHandler.HandleAddGoal), "goals"))
	mux.HandleFunc("DELETE /api/match/teams/{team}/goals/{id}", MetricsMiddleware(guard(s.ledgerHandler.HandleDeleteGoal), "goals"))
	mux.HandleFunc("POST /api/match/teams/{team}/cards", MetricsMiddleware(guard(s.ledgerHandler.HandleAddCard), "cards"))
	mux.HandleFunc("POST /api/match/teams/{team}/counters/{counter}", MetricsMiddleware(guard(s.ledgerHandler.HandleAdjustCounter), "counters"))
}
