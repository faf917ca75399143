// Package service owns the match state and exposes the operations the HTTP API needs.
//
// All mutations run under one mutex: the clock ticks, the admin requests and
// the reset all go through the same old state -> new state step, and
// subscribers see every new state before the call returns.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	eventqueue "github.com/okian/matchday/internal/adapters/mq/queue"
	snapshotworker "github.com/okian/matchday/internal/adapters/mq/worker"
	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/clock"
	"github.com/okian/matchday/internal/domain/dedupe"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/scoreboard"
	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const (
	defaultQueueSize       = 64
	defaultDedupeSize      = 1024
	defaultTickInterval    = time.Second
	defaultHalfLength      = 45
	defaultShutdownTimeout = 10 * time.Second
)

// Update is delivered to subscribers after every change.
// State is shared between subscribers and must not be modified.
type Update struct {
	Seq   uint64
	State model.State
	Board types.Board
}

// Subscriber receives updates synchronously under the service lock.
// It must not block or call back into the Service.
type Subscriber func(ctx context.Context, u Update)

// Service implements the API dependencies for the scoreboard.
type Service struct {
	mu sync.RWMutex

	// Match state, replaced wholesale on every change.
	state model.State
	seq   uint64

	subscribers map[uint64]Subscriber
	nextSubID   uint64

	// Core components
	store     repository.Store
	queue     *eventqueue.InMemoryQueue
	writer    *snapshotworker.InMemoryWorker
	driver    *clock.Driver
	deduper   dedupe.Deduper
	board     *scoreboard.Scoreboard
	auth      *authenticator
	clk       clockwork.Clock
	newID     func() string
	catalog   model.Catalog
	runCancel context.CancelFunc

	// Configuration
	queueSize       int
	dedupeSize      int
	tickInterval    time.Duration
	halfLength      int
	shutdownTimeout time.Duration

	started bool
	stopped bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets where snapshots are persisted. Defaults to memory.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithQueueSize sets the maximum number of pending snapshot writes.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithTickInterval sets the wall-clock period of one match second.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithHalfLength sets the half length in minutes.
func WithHalfLength(minutes int) Option {
	return func(s *Service) {
		if minutes > 0 {
			s.halfLength = minutes
		}
	}
}

// WithClock sets the time source for ticks and sessions.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clk = c
		}
	}
}

// WithCatalog sets the selectable teams.
func WithCatalog(c model.Catalog) Option {
	return func(s *Service) {
		if len(c) > 0 {
			s.catalog = c
		}
	}
}

// WithIDGenerator sets how goal and card ids are made.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the snapshot writer.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
// The state is the default match until Start loads the snapshot.
func New(opts ...Option) *Service {
	s := &Service{
		state:           model.Default(),
		subscribers:     make(map[uint64]Subscriber),
		store:           repository.NewMemoryStore(),
		clk:             clockwork.NewRealClock(),
		newID:           uuid.NewString,
		catalog:         model.DefaultCatalog,
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		tickInterval:    defaultTickInterval,
		halfLength:      defaultHalfLength,
		shutdownTimeout: defaultShutdownTimeout,
		auth:            newAuthenticator(),
		logger:          logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.auth.clk = s.clk
	s.auth.prepare()
	s.board = scoreboard.New(
		scoreboard.WithHalfLength(s.halfLength),
		scoreboard.WithCatalog(s.catalog),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.writer = snapshotworker.NewInMemoryWorker(s.queue, s.store,
		snapshotworker.WithLogger(s.logger),
	)
	s.driver = clock.New(s.onTick,
		clock.WithClock(s.clk),
		clock.WithInterval(s.tickInterval),
		clock.WithLogger(s.logger.Named("clock")),
	)
	return s
}

// Start loads the persisted match, starts the snapshot writer and arms the
// clock if the match was live.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}
	if err := s.auth.setupErr; err != nil {
		return fmt.Errorf("%w: %w", ErrAuthSetup, err)
	}

	s.logger.Info(ctx, "starting scoreboard service...")

	s.state = s.load(ctx)
	metrics.UpdateElapsedSeconds(s.state.ElapsedSeconds)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.runCancel = cancel
	go s.writer.Run(runCtx)

	s.started = true
	s.driver.Sync(runCtx, s.state.Phase)
	metrics.UpdateClockRunning(s.driver.Running())

	s.logger.Info(ctx, "scoreboard service started",
		logger.String("phase", s.state.Phase.String()),
		logger.Int("elapsed", s.state.ElapsedSeconds),
		logger.Duration("tickInterval", s.tickInterval),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// load reads the snapshot, falling back to defaults when it is missing or corrupt.
func (s *Service) load(ctx context.Context) model.State {
	st, err := s.store.Load(ctx)
	switch {
	case err == nil:
		metrics.RecordSnapshotLoad("loaded")
		s.logger.Info(ctx, "match restored from snapshot",
			logger.String("teamA", st.TeamA),
			logger.String("teamB", st.TeamB),
		)
		return st
	case errors.Is(err, repository.ErrNotFound):
		metrics.RecordSnapshotLoad("missing")
		s.logger.Info(ctx, "no snapshot found, starting a new game")
	default:
		metrics.RecordSnapshotLoad("corrupt")
		metrics.RecordErrorByComponent("snapshot", "load_failed")
		s.logger.Warn(ctx, "snapshot unusable, starting a new game", logger.Error(err))
	}
	return model.Default()
}

// Stop disarms the clock, writes the last snapshot and stops the writer.
// A stopped Service cannot be started again.
func (s *Service) Stop() {
	ctx := context.Background()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(ctx, "stopping scoreboard service...")
	s.started = false
	s.stopped = true
	s.driver.Sync(ctx, model.PhaseEnded)
	s.mu.Unlock()

	// The tick callback takes s.mu, so wait for it outside the lock.
	s.driver.Stop(ctx)
	metrics.UpdateClockRunning(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	_ = s.queue.Close()
	if err := s.writer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "snapshot writer did not drain", logger.Error(err))
	}
	if s.runCancel != nil {
		s.runCancel()
	}

	s.logger.Info(ctx, "scoreboard service stopped")
}

// Subscribe registers fn for every future update and immediately delivers the
// current state. The returned func removes the subscription.
func (s *Service) Subscribe(ctx context.Context, fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = fn
	metrics.UpdateSubscriberCount(len(s.subscribers))
	fn(ctx, s.updateLocked())

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			metrics.UpdateSubscriberCount(len(s.subscribers))
		})
	}
}

// Snapshot returns a private copy of the current state.
func (s *Service) Snapshot() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Board returns the spectator view of the current state.
func (s *Service) Board() types.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Board(s.state)
}

// Teams returns the selectable teams.
func (s *Service) Teams() model.Catalog {
	out := make(model.Catalog, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// apply runs fn against the current state and commits the result.
// A refused operation leaves the state untouched.
func (s *Service) apply(ctx context.Context, op string, fn func(model.State) (model.State, error)) (model.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.state)
	metrics.RecordMutation(op, err == nil)
	if err != nil {
		s.logger.Debug(ctx, "operation refused",
			logger.String("op", op),
			logger.String("phase", s.state.Phase.String()),
			logger.Error(err),
		)
		return s.state, err
	}
	s.commitLocked(ctx, op, next)
	return next, nil
}

// commitLocked publishes next. Callers hold s.mu.
func (s *Service) commitLocked(ctx context.Context, op string, next model.State) {
	prev := s.state
	s.state = next
	s.seq++

	if prev.Phase != next.Phase {
		metrics.RecordPhaseTransition(prev.Phase.String(), next.Phase.String())
		s.logger.Info(ctx, "phase changed",
			logger.String("op", op),
			logger.String("from", prev.Phase.String()),
			logger.String("to", next.Phase.String()),
			logger.Int("elapsed", next.ElapsedSeconds),
		)
	}
	metrics.UpdateElapsedSeconds(next.ElapsedSeconds)

	u := s.updateLocked()
	for _, fn := range s.subscribers {
		fn(ctx, u)
	}

	if s.started {
		s.driver.Sync(ctx, next.Phase)
		metrics.UpdateClockRunning(s.driver.Running())
	}
	s.persistLocked(ctx, next)
}

func (s *Service) updateLocked() Update {
	return Update{Seq: s.seq, State: s.state, Board: s.board.Board(s.state)}
}

// persistLocked hands the snapshot to the writer without waiting for disk.
func (s *Service) persistLocked(ctx context.Context, st model.State) {
	err := s.queue.Enqueue(context.WithoutCancel(ctx), eventqueue.Snapshot{Seq: s.seq, State: st, At: s.clk.Now()})
	if err != nil && !errors.Is(err, eventqueue.ErrClosed) {
		s.logger.Debug(ctx, "snapshot not queued", logger.Int64("seq", int64(s.seq)), logger.Error(err))
	}
}

// onTick advances the clock by one second. Ticks from a disarmed generation are dropped.
func (s *Service) onTick(ctx context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || !s.driver.Current(gen) {
		return
	}
	next, err := s.state.Tick()
	if err != nil {
		return
	}
	metrics.RecordClockTick()
	s.commitLocked(ctx, "tick", next)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"phase":           s.state.Phase.String(),
		"elapsedSeconds":  s.state.ElapsedSeconds,
		"teamA":           s.state.TeamA,
		"teamB":           s.state.TeamB,
		"seq":             s.seq,
		"clockRunning":    s.driver.Running(),
		"subscribers":     len(s.subscribers),
		"queueSize":       s.queueSize,
		"queueLength":     s.queue.Len(ctx),
		"idempotencyKeys": s.deduper.Size(),
		"goroutines":      runtime.NumGoroutine(),
	}

	metrics.UpdateSubscriberCount(len(s.subscribers))
	return stats
}
