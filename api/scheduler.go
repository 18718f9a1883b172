/*
scheduler.go - Periodic labour audit scheduler

PURPOSE:
  Periodically audits the stored roster and persists each run, so the
  audit history (GET /api/audit/runs) tracks compliance over time without
  anyone calling POST /api/audit/run.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Each run audits shifts dated within the lookback window (0 = all)
  - Failures are logged; the next tick tries again

CONFIGURATION:
  - Interval: server.audit_interval (0 disables the scheduler)
  - Lookback: server.audit_lookback_days

USAGE:
  scheduler := NewAuditScheduler(handler, time.Hour, 28)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunAudit endpoint (manual audit)
  - award/engine.go: RunLabourAudit
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/store/sqlite"
)

// AuditScheduler runs and persists labour audits on a timer.
type AuditScheduler struct {
	Handler      *Handler
	Interval     time.Duration
	LookbackDays int

	// Now is overridable for tests.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAuditScheduler creates a new scheduler.
func NewAuditScheduler(h *Handler, interval time.Duration, lookbackDays int) *AuditScheduler {
	return &AuditScheduler{
		Handler:      h,
		Interval:     interval,
		LookbackDays: lookbackDays,
		Now:          time.Now,
	}
}

// Start begins the scheduler. A non-positive interval leaves it stopped.
func (s *AuditScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.Handler.logger
	if s.Interval <= 0 {
		logger.Info("audit scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	logger.Info("audit scheduler started", zap.Duration("interval", s.Interval), zap.Int("lookback_days", s.LookbackDays))
}

// Stop stops the scheduler and waits for a running audit to finish.
func (s *AuditScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.Handler.logger.Info("audit scheduler stopped")
	}
}

func (s *AuditScheduler) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.RunNow(context.Background())
		case <-s.stop:
			return
		}
	}
}

// RunNow audits the lookback window immediately and persists the run.
func (s *AuditScheduler) RunNow(ctx context.Context) (sqlite.AuditRun, error) {
	var filter sqlite.ShiftFilter
	if s.LookbackDays > 0 {
		today := award.DateOf(s.Now())
		filter.From = today.AddDays(-s.LookbackDays)
		filter.To = today
	}

	run, err := s.Handler.runStoredAudit(ctx, filter)
	if err != nil {
		s.Handler.logger.Error("scheduled audit failed", zap.Error(err))
		return run, err
	}
	s.Handler.logger.Info("scheduled audit stored",
		zap.String("run_id", run.ID),
		zap.Int("score", run.Result.Score),
		zap.String("category", string(run.Result.Category)))
	return run, nil
}
