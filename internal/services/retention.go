package services

import (
	"context"
	"sync"
	"time"

	"github.com/HammerMeetNail/friendgraph/internal/logging"
)

const DefaultRequestRetention = 30 * 24 * time.Hour

// SweepStatus summarizes the sweeper's recent activity.
type SweepStatus struct {
	LastRun      time.Time
	LastDeleted  int64
	LastError    string
	TotalDeleted int64
}

// IdlePruner releases per-key state that has gone unused for maxIdle.
type IdlePruner interface {
	Prune(maxIdle time.Duration) int
}

type idlePruner struct {
	name    string
	pruner  IdlePruner
	maxIdle time.Duration
}

type expiredRequestDeleter interface {
	DeleteTerminalRequestsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper deletes rejected and cancelled requests whose last update
// is older than the retention window. Pending and accepted rows are kept.
type RetentionSweeper struct {
	store  expiredRequestDeleter
	window time.Duration
	now    func() time.Time
	logger *logging.Logger

	pruners []idlePruner

	mu     sync.Mutex
	status SweepStatus
}

func NewRetentionSweeper(store expiredRequestDeleter, window time.Duration, logger *logging.Logger) *RetentionSweeper {
	if window <= 0 {
		window = DefaultRequestRetention
	}
	if logger == nil {
		logger = logging.Default
	}
	return &RetentionSweeper{
		store:  store,
		window: window,
		now:    time.Now,
		logger: logger.WithField("component", "retention_sweeper"),
	}
}

func (s *RetentionSweeper) SetClock(now func() time.Time) {
	s.now = now
}

// AddPruner registers in-process state that Run trims on every tick.
func (s *RetentionSweeper) AddPruner(name string, p IdlePruner, maxIdle time.Duration) {
	s.pruners = append(s.pruners, idlePruner{name: name, pruner: p, maxIdle: maxIdle})
}

func (s *RetentionSweeper) prune() {
	for _, p := range s.pruners {
		if removed := p.pruner.Prune(p.maxIdle); removed > 0 {
			s.logger.Debug("Pruned idle entries", map[string]interface{}{
				"pruner":  p.name,
				"removed": removed,
			})
		}
	}
}

func (s *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	cutoff := now.Add(-s.window)
	deleted, err := s.store.DeleteTerminalRequestsBefore(ctx, cutoff)
	s.record(now, deleted, err)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Deleted expired friend requests", map[string]interface{}{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		})
	}
	return deleted, nil
}

func (s *RetentionSweeper) record(at time.Time, deleted int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastRun = at
	s.status.LastError = ""
	if err != nil {
		s.status.LastDeleted = 0
		s.status.LastError = err.Error()
		return
	}
	s.status.LastDeleted = deleted
	s.status.TotalDeleted += deleted
}

// LastSweep reports the outcome of the most recent sweep. LastRun is zero
// until the first sweep finishes.
func (s *RetentionSweeper) LastSweep() SweepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run sweeps immediately and then on every tick until ctx is done. A failed
// sweep is logged and retried on the next tick. Registered pruners run after
// each sweep.
func (s *RetentionSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Retention sweep failed", map[string]interface{}{"error": err})
		}
		s.prune()
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
