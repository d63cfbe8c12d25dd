package backup

import (
	"context"
	"log/slog"
	"sync"
)

// Runner keeps at most one Scheduler running and reshapes it when the backup
// settings change. A non-positive interval turns backups off.
type Runner struct {
	ctx       context.Context
	store     Exporter
	mu        sync.Mutex
	scheduler *Scheduler
	dir       string
}

// NewRunner creates a runner with backups off. Schedulers it starts stop when
// ctx ends.
func NewRunner(ctx context.Context, store Exporter) *Runner {
	return &Runner{ctx: ctx, store: store}
}

// Apply starts, updates or stops the scheduler to match config
func (r *Runner) Apply(config Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if config.Interval <= 0 {
		if r.scheduler != nil {
			slog.Info("Backups disabled")
		}
		r.stopLocked()
		return nil
	}
	if r.scheduler != nil && r.dir == config.Dir {
		r.scheduler.UpdateInterval(config.Interval)
		r.scheduler.UpdateKeep(config.Keep)
		return nil
	}

	r.stopLocked()
	s, err := New(r.store, config)
	if err != nil {
		return err
	}
	s.Start(r.ctx)
	r.scheduler, r.dir = s, config.Dir
	return nil
}

// Running reports whether backups are on
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduler != nil
}

// Stop turns backups off
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Runner) stopLocked() {
	if r.scheduler == nil {
		return
	}
	r.scheduler.Stop()
	r.scheduler, r.dir = nil, ""
}
