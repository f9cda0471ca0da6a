package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/platform/logger"
)

const (
	defaultRecoveryInterval = time.Minute
	defaultPendingAfter     = 5 * time.Minute
	defaultAbandonAfter     = 6 * time.Hour

	abandonedReason = "batch abandoned: worker stopped before completion"
)

// RecoveryStore is the part of the marketing repository the sweeper uses.
type RecoveryStore interface {
	ListStalePendingBatches(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Batch, error)
	AbandonStaleBatches(ctx context.Context, startedBefore, at time.Time, reason string) (int64, error)
}

type BatchEnqueuer interface {
	EnqueueBatch(ctx context.Context, orgID, batchID uuid.UUID, leadCount int) error
}

// BatchRecovery periodically re-enqueues batches that never reached the queue
// and closes running batches whose worker disappeared.
type BatchRecovery struct {
	store        RecoveryStore
	enqueuer     BatchEnqueuer
	log          *logger.Logger
	interval     time.Duration
	pendingAfter time.Duration
	abandonAfter time.Duration
	now          func() time.Time
}

func NewBatchRecovery(store RecoveryStore, enqueuer BatchEnqueuer, log *logger.Logger, interval, abandonAfter time.Duration) *BatchRecovery {
	if interval <= 0 {
		interval = defaultRecoveryInterval
	}
	if abandonAfter <= 0 {
		abandonAfter = defaultAbandonAfter
	}
	return &BatchRecovery{
		store:        store,
		enqueuer:     enqueuer,
		log:          log,
		interval:     interval,
		pendingAfter: defaultPendingAfter,
		abandonAfter: abandonAfter,
		now:          time.Now,
	}
}

func (r *BatchRecovery) Run(ctx context.Context) {
	if r == nil || r.store == nil {
		return
	}

	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *BatchRecovery) sweep(ctx context.Context) {
	now := r.now()

	abandoned, err := r.store.AbandonStaleBatches(ctx, now.Add(-r.abandonAfter), now, abandonedReason)
	if err != nil {
		r.log.Warn("stale batch sweep failed", "error", err)
	} else if abandoned > 0 {
		r.log.Warn("abandoned stale outreach batches", "count", abandoned)
	}

	pending, err := r.store.ListStalePendingBatches(ctx, now.Add(-r.pendingAfter), 50)
	if err != nil {
		r.log.Warn("pending batch sweep failed", "error", err)
		return
	}
	for _, b := range pending {
		if err := r.enqueuer.EnqueueBatch(ctx, b.OrganizationID, b.ID, len(b.LeadIDs)); err != nil {
			r.log.Warn("failed to re-enqueue outreach batch", "batch_id", b.ID, "error", err)
			continue
		}
		r.log.Info("re-enqueued pending outreach batch", "batch_id", b.ID)
	}
}
