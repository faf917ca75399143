// Package clock drives the match clock: one tick per interval while the match is live.
//
// The Driver is armed and disarmed purely from the match phase. Each arming gets
// a new generation number; a tick carries the generation it was produced under so
// the receiver can drop ticks that raced with a disarm.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
)

const defaultInterval = time.Second

// TickFunc receives a tick produced under generation gen.
type TickFunc func(ctx context.Context, gen uint64)

// Option configures a Driver.
type Option func(*Driver)

// WithClock sets the time source. Tests pass clockwork.NewFakeClock().
func WithClock(c clockwork.Clock) Option {
	return func(d *Driver) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithInterval sets the tick period.
func WithInterval(interval time.Duration) Option {
	return func(d *Driver) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// Driver owns at most one ticker at a time.
type Driver struct {
	clock    clockwork.Clock
	interval time.Duration
	onTick   TickFunc
	log      logger.Logger

	mu      sync.Mutex
	gen     uint64
	stop    chan struct{}
	running bool
	wg      sync.WaitGroup
}

// New creates a disarmed Driver that calls onTick on every tick.
func New(onTick TickFunc, opts ...Option) *Driver {
	d := &Driver{
		clock:    clockwork.NewRealClock(),
		interval: defaultInterval,
		onTick:   onTick,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sync arms the driver when phase ticks and disarms it otherwise.
// It never blocks on the ticker goroutine, so it is safe to call while
// holding a lock the tick callback also takes.
func (d *Driver) Sync(ctx context.Context, phase model.Phase) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if phase.Ticking() {
		d.armLocked(ctx)
		return
	}
	d.disarmLocked(ctx)
}

// Running reports whether a ticker is armed.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Current reports whether gen is the generation of the armed ticker.
func (d *Driver) Current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running && d.gen == gen
}

// Stop disarms the driver and waits for the ticker goroutine to exit.
// Callers must not hold a lock the tick callback takes.
func (d *Driver) Stop(ctx context.Context) {
	d.mu.Lock()
	d.disarmLocked(ctx)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Driver) armLocked(ctx context.Context) {
	if d.running {
		return
	}
	d.gen++
	d.stop = make(chan struct{})
	d.running = true

	ticker := d.clock.NewTicker(d.interval)
	d.wg.Add(1)
	go d.run(context.WithoutCancel(ctx), d.gen, ticker, d.stop)

	d.log.Debug(ctx, "clock armed", logger.Int64("generation", int64(d.gen)), logger.Duration("interval", d.interval))
}

func (d *Driver) disarmLocked(ctx context.Context) {
	if !d.running {
		return
	}
	close(d.stop)
	d.stop = nil
	d.running = false
	d.log.Debug(ctx, "clock disarmed", logger.Int64("generation", int64(d.gen)))
}

func (d *Driver) run(ctx context.Context, gen uint64, ticker clockwork.Ticker, stop <-chan struct{}) {
	defer d.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			select {
			case <-stop:
				return
			default:
			}
			d.onTick(ctx, gen)
		}
	}
}
