package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

// SweepReconciler is the part of the Reconciler the sweeper drives.
type SweepReconciler interface {
	ReconcileAll(ctx context.Context) (*model.SyncReport, error)
	AuditAll(ctx context.Context) (*model.AuditReport, error)
}

// Sweeper periodically reconciles every slot so that counters left stale by a
// failed post-commit reconciliation converge. It never changes bookings.
type Sweeper struct {
	reconciler SweepReconciler
	interval   time.Duration
	timeout    time.Duration
}

// NewSweeper creates a Sweeper. A non-positive interval disables it. Each
// sweep is bounded by timeout; a non-positive timeout leaves it unbounded.
func NewSweeper(reconciler SweepReconciler, interval, timeout time.Duration) *Sweeper {
	return &Sweeper{reconciler: reconciler, interval: interval, timeout: timeout}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		log.Info().Msg("periodic reconciliation disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("periodic reconciliation started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("periodic reconciliation stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce reconciles all slots, then audits them and logs what is still off.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("periodic reconciliation failed")
		return
	}
	log.Info().
		Int("total_slots", report.TotalSlots).
		Int("updated_slots", report.UpdatedSlots).
		Int("failed_slots", report.FailedSlots).
		Msg("periodic reconciliation finished")

	audit, err := s.reconciler.AuditAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("post-sweep audit failed")
		return
	}
	if audit.OutOfSync > 0 || audit.Overbooked > 0 {
		log.Warn().
			Int("out_of_sync", audit.OutOfSync).
			Int("overbooked", audit.Overbooked).
			Msg("slot drift remains after reconciliation")
	}
}
