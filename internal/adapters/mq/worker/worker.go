// Package worker persists queued match snapshots in the background.
//
// A single worker keeps writes ordered. When several snapshots are waiting
// only the newest is written; older ones are superseded.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const defaultSaveTimeout = 5 * time.Second

// Saver writes a snapshot to storage.
type Saver interface {
	Save(ctx context.Context, s model.State) error
}

// Queue defines how the worker receives snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Snapshot
}

// Worker persists snapshots until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker after writing whatever is still queued.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for a single snapshot writer.
type InMemoryWorker struct {
	queue       Queue
	saver       Saver
	name        string
	saveTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	lastSeq uint64
	logger  logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		saver:       saver,
		name:        "snapshot-writer",
		saveTimeout: defaultSaveTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	snapshots := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx), snapshots)
			return
		case <-w.shutdown:
			w.drain(ctx, snapshots)
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			latest, ok := w.coalesce(snap, snapshots)
			w.write(ctx, latest)
			if !ok {
				return
			}
		}
	}
}

// Shutdown signals the worker and waits until it has drained.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// LastSeq returns the sequence number of the last snapshot written.
// Only meaningful after Run has returned.
func (w *InMemoryWorker) LastSeq() uint64 {
	return w.lastSeq
}

// coalesce takes everything already buffered and returns the newest snapshot.
// ok is false when the channel was closed while reading.
func (w *InMemoryWorker) coalesce(first queue.Snapshot, snapshots <-chan queue.Snapshot) (queue.Snapshot, bool) { //nolint:gocritic // hugeParam: snapshots are values
	latest := first
	skipped := 0
	for {
		select {
		case next, ok := <-snapshots:
			if !ok {
				metrics.RecordSnapshotCoalesced(skipped)
				return latest, false
			}
			latest = next
			skipped++
		default:
			metrics.RecordSnapshotCoalesced(skipped)
			return latest, true
		}
	}
}

func (w *InMemoryWorker) drain(ctx context.Context, snapshots <-chan queue.Snapshot) {
	select {
	case snap, ok := <-snapshots:
		if !ok {
			return
		}
		latest, _ := w.coalesce(snap, snapshots)
		w.write(ctx, latest)
	default:
	}
}

func (w *InMemoryWorker) write(ctx context.Context, snap queue.Snapshot) { //nolint:gocritic // hugeParam: snapshots are values
	if snap.Seq != 0 && snap.Seq <= w.lastSeq {
		return
	}

	start := time.Now()
	saveCtx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()

	err := w.saver.Save(saveCtx, snap.State)
	metrics.RecordSnapshotWrite(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordSnapshotError()
		metrics.RecordErrorByComponent("snapshot_writer", "save_failed")
		w.logger.Error(ctx, "snapshot save failed",
			logger.Int64("seq", int64(snap.Seq)),
			logger.Error(err),
		)
		return
	}
	w.lastSeq = snap.Seq
	metrics.UpdateSnapshotQueueSize(0)
}
