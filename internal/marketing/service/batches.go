package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/marketing/dispatch"
	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/internal/marketing/transport"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/logger"
)

// CreateBatch persists a pending batch and hands it to the executor. The
// returned batch is still pending; callers poll GetBatch for the result.
func (s *Service) CreateBatch(ctx context.Context, orgID, operatorID uuid.UUID, req transport.CreateBatchRequest) (transport.BatchResponse, error) {
	body, err := s.resolveMessage(req.Message, req.Template)
	if err != nil {
		return transport.BatchResponse{}, err
	}
	if len(req.LeadIDs) == 0 {
		return transport.BatchResponse{}, apperr.Validation("leadIds must not be empty")
	}

	batch, err := s.store.CreateBatch(ctx, domain.Batch{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Template:       body,
		LeadIDs:        req.LeadIDs,
		State:          domain.BatchPending,
		CreatedBy:      operatorID,
	})
	if err != nil {
		return transport.BatchResponse{}, err
	}

	log := s.log.WithContext(ctx).WithBatch(batch.ID.String())
	if err := s.enqueuer.EnqueueBatch(ctx, orgID, batch.ID, len(batch.LeadIDs)); err != nil {
		log.Error("failed to enqueue outreach batch", "error", err)
		now := s.now()
		batch.State = domain.BatchCancelled
		batch.Errors = []string{"batch could not be scheduled"}
		batch.CompletedAt = &now
		if cerr := s.store.CompleteBatch(context.WithoutCancel(ctx), batch); cerr != nil {
			log.DatabaseError("close unscheduled outreach batch", cerr)
		}
		return transport.BatchResponse{}, apperr.Wrap(apperr.KindUnavailable, "batch could not be scheduled", err)
	}

	log.Info("outreach batch queued", "leads", len(batch.LeadIDs))
	return mapBatch(batch), nil
}

func (s *Service) GetBatch(ctx context.Context, orgID, id uuid.UUID) (transport.BatchResponse, error) {
	b, err := s.store.GetBatch(ctx, orgID, id)
	if err != nil {
		return transport.BatchResponse{}, err
	}
	return mapBatch(b), nil
}

func (s *Service) ListBatches(ctx context.Context, orgID uuid.UUID, limit int) (transport.BatchListResponse, error) {
	batches, err := s.store.ListBatches(ctx, orgID, limit)
	if err != nil {
		return transport.BatchListResponse{}, err
	}
	items := make([]transport.BatchResponse, len(batches))
	for i, b := range batches {
		items[i] = mapBatch(b)
	}
	return transport.BatchListResponse{Items: items}, nil
}

// CancelBatch asks a pending or running batch to stop before its next lead.
func (s *Service) CancelBatch(ctx context.Context, orgID, id uuid.UUID) (transport.BatchResponse, error) {
	b, err := s.store.RequestCancel(ctx, orgID, id)
	if err != nil {
		return transport.BatchResponse{}, err
	}
	s.log.WithContext(ctx).WithBatch(id.String()).Info("outreach batch cancel requested", "state", b.State)
	return mapBatch(b), nil
}

// RunBatch executes a pending batch to completion or cancellation and stores
// the result. A batch that is no longer pending is skipped, so a redelivered
// task is harmless.
func (s *Service) RunBatch(ctx context.Context, orgID, batchID uuid.UUID) error {
	log := s.log.WithBatch(batchID.String())

	batch, err := s.store.MarkBatchRunning(ctx, orgID, batchID, s.now())
	if apperr.Is(err, apperr.KindConflict) {
		log.Warn("outreach batch is not pending, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("start batch: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if batch.CancelRequested {
		cancel()
	} else {
		go s.watchCancel(runCtx, cancel, orgID, batchID, log)
	}

	result := s.dispatcher.Run(runCtx, dispatch.Request{
		OrganizationID: orgID,
		BatchID:        &batch.ID,
		OperatorID:     batch.CreatedBy,
		Template:       batch.Template,
		LeadIDs:        batch.LeadIDs,
	})

	completedAt := s.now()
	batch.State = result.State
	batch.Sent = result.Sent
	batch.Failed = result.Failed
	batch.Excluded = result.Excluded
	batch.Errors = result.Errors
	batch.CompletedAt = &completedAt

	if err := s.store.CompleteBatch(context.WithoutCancel(ctx), batch); err != nil {
		log.DatabaseError("complete outreach batch", err)
		return fmt.Errorf("complete batch: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(context.WithoutCancel(ctx), events.OutreachBatchCompleted{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: orgID,
			BatchID:        batch.ID,
			RequestedBy:    batch.CreatedBy,
			State:          string(batch.State),
			Sent:           batch.Sent,
			Failed:         batch.Failed,
			Excluded:       batch.Excluded,
			Errors:         batch.Errors,
		})
	}
	return nil
}

// watchCancel polls the batch's cancel flag until ctx ends.
func (s *Service) watchCancel(ctx context.Context, cancel context.CancelFunc, orgID, batchID uuid.UUID, log *logger.Logger) {
	ticker := time.NewTicker(s.cancelPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			requested, err := s.store.IsCancelRequested(ctx, orgID, batchID)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("failed to read cancel flag", "error", err)
				}
				continue
			}
			if requested {
				log.Info("outreach batch cancelling")
				cancel()
				return
			}
		}
	}
}
