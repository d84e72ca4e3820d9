package ptable

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// Pool owns a set of engines and drives them together, the Go analogue of
// the original's t_pool / t_update_task. It tracks a monotonically
// increasing epoch, incremented once per ProcessAll call regardless of
// whether any engine reported should_notify — matching update_task.cpp's
// unconditional inc_epoch() at the end of run().
type Pool struct {
	engines map[string]*Engine
	order   []string

	epoch atomic.Uint64

	dataRemaining atomic.Bool

	clock  clockwork.Clock
	logger *slog.Logger

	// OnNotify is invoked once per ProcessAll call if any engine's batch
	// produced should_notify == true. It is the pool-level analogue of
	// the per-gnode notify_userspace() call in the original.
	OnNotify func()
}

// NewPool returns an empty Pool.
func NewPool(logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		engines: make(map[string]*Engine),
		clock:   clockwork.NewRealClock(),
		logger:  logger,
	}
}

// WithClock overrides the pool's clock, used by tests to control the
// timestamps attached to ProcessAll's log lines.
func (p *Pool) WithClock(c clockwork.Clock) *Pool {
	p.clock = c
	return p
}

// AddEngine registers an engine under name. Processing order matches
// registration order.
func (p *Pool) AddEngine(name string, e *Engine) {
	if _, exists := p.engines[name]; !exists {
		p.order = append(p.order, name)
	}
	p.engines[name] = e
}

// Engine returns the named engine, or nil if not registered.
func (p *Pool) Engine(name string) *Engine { return p.engines[name] }

// Send routes a batch to the named engine's input port and flags that data
// is remaining, so the next ProcessAll actually runs.
func (p *Pool) Send(name string, batch *Table) error {
	e, ok := p.engines[name]
	if !ok {
		return ErrEngineNotInitialized
	}
	if err := e.Send(batch); err != nil {
		return err
	}
	p.dataRemaining.Store(true)
	return nil
}

// Epoch returns the pool's current epoch counter.
func (p *Pool) Epoch() uint64 { return p.epoch.Load() }

// MarkDataRemaining flags that at least one engine has pending input,
// causing the next ProcessAll to actually run its engines instead of
// short-circuiting. Send already implies this for the common case of a
// single-threaded caller calling Send then ProcessAll; this exists for
// callers that want to batch multiple Sends across engines before a single
// ProcessAll.
func (p *Pool) MarkDataRemaining() { p.dataRemaining.Store(true) }

// ProcessAll runs update_task.cpp's run() loop: if no data is flagged as
// remaining, it returns immediately without touching any engine. Otherwise
// it processes every engine in registration order, OR-latches their
// should_notify results, invokes OnNotify if any engine asked for it, and
// unconditionally advances the epoch.
func (p *Pool) ProcessAll(ctx context.Context) error {
	if !p.dataRemaining.Swap(false) {
		return nil
	}

	anyNotify := false
	for _, name := range p.order {
		e := p.engines[name]
		notify, err := e.ProcessBatch(ctx)
		if err != nil {
			p.logger.Error("engine process batch failed", "engine", name, "err", err)
			continue
		}
		anyNotify = anyNotify || notify
	}

	if anyNotify && p.OnNotify != nil {
		p.OnNotify()
	}

	p.epoch.Add(1)
	p.logger.Debug("processed all engines", "at", p.clock.Now(), "epoch", p.epoch.Load(), "notified", anyNotify)
	return nil
}

// EpochGaugeFunc is a small helper for exposing Pool.Epoch as a
// prometheus gauge without the Pool itself depending on a specific
// registerer at construction time.
func (p *Pool) EpochGaugeFunc() prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ptable_pool_epoch",
		Help: "Current pool epoch, incremented once per ProcessAll call.",
	}, func() float64 { return float64(p.Epoch()) })
}
