// Package queue carries match snapshots from the store to the snapshot writer.
//
// Enqueue never blocks: a mutation must not wait on disk. When the queue is
// full the snapshot is dropped; the next mutation enqueues a newer one.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/metrics"
)

const defaultQueueCapacity = 64

// Snapshot is one published match state waiting to be persisted.
type Snapshot struct {
	Seq   uint64
	State model.State
	At    time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot. Returns ErrFull or ErrClosed when it was not accepted.
	Enqueue(ctx context.Context, s Snapshot) error

	// Dequeue returns the channel snapshots arrive on. It is closed by Close
	// once the remaining snapshots have been received.
	Dequeue(ctx context.Context) <-chan Snapshot

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close stops accepting snapshots.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	snapshots chan Snapshot
	capacity  int
	mu        sync.RWMutex
	closed    bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.snapshots = make(chan Snapshot, q.capacity)
	metrics.UpdateSnapshotQueueSize(0)
	return q
}

// Enqueue adds a snapshot to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("snapshot_queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("snapshot_queue", "context_cancelled")
		return err
	}

	select {
	case q.snapshots <- s:
		metrics.UpdateSnapshotQueueSize(len(q.snapshots))
		return nil
	default:
		metrics.RecordSnapshotDropped()
		metrics.RecordErrorByComponent("snapshot_queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Snapshot {
	return q.snapshots
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.snapshots)
	metrics.UpdateSnapshotQueueSize(size)
	return size
}

// Close stops accepting snapshots. Buffered snapshots stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.snapshots)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
