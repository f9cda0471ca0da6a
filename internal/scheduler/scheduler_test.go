package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/platform/logger"
)

type runnerFunc func(ctx context.Context, orgID, batchID uuid.UUID) error

func (f runnerFunc) RunBatch(ctx context.Context, orgID, batchID uuid.UUID) error {
	return f(ctx, orgID, batchID)
}

func TestRunOutreachBatchTaskCarriesIDs(t *testing.T) {
	orgID, batchID := uuid.New(), uuid.New()
	task, err := NewRunOutreachBatchTask(orgID, batchID)
	require.NoError(t, err)
	assert.Equal(t, TaskRunOutreachBatch, task.Type())

	var gotOrg, gotBatch uuid.UUID
	w := &Worker{log: logger.Discard(), runner: runnerFunc(func(_ context.Context, o, b uuid.UUID) error {
		gotOrg, gotBatch = o, b
		return nil
	})}
	require.NoError(t, w.handleRunOutreachBatch(context.Background(), task))
	assert.Equal(t, orgID, gotOrg)
	assert.Equal(t, batchID, gotBatch)
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	w := &Worker{log: logger.Discard(), runner: runnerFunc(func(context.Context, uuid.UUID, uuid.UUID) error {
		t.Fatal("runner must not be called")
		return nil
	})}
	err := w.handleRunOutreachBatch(context.Background(), asynq.NewTask(TaskRunOutreachBatch, []byte(`{"batchId":"x"}`)))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestBatchTimeoutScalesWithLeads(t *testing.T) {
	perLead := 40 * time.Second
	assert.Equal(t, perLead+batchTimeoutSlack, batchTimeout(0, perLead))
	assert.Equal(t, 100*perLead+batchTimeoutSlack, batchTimeout(100, perLead))
}

type recoveryStore struct {
	pending       []domain.Batch
	abandonCutoff time.Time
	abandonErr    error
}

func (s *recoveryStore) ListStalePendingBatches(_ context.Context, _ time.Time, _ int) ([]domain.Batch, error) {
	return s.pending, nil
}

func (s *recoveryStore) AbandonStaleBatches(_ context.Context, startedBefore, _ time.Time, _ string) (int64, error) {
	s.abandonCutoff = startedBefore
	return 1, s.abandonErr
}

type enqueueRecorder struct {
	ids  []uuid.UUID
	fail map[uuid.UUID]bool
}

func (e *enqueueRecorder) EnqueueBatch(_ context.Context, _, batchID uuid.UUID, _ int) error {
	if e.fail[batchID] {
		return errors.New("redis down")
	}
	e.ids = append(e.ids, batchID)
	return nil
}

func TestBatchRecoverySweep(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := &recoveryStore{
		pending:    []domain.Batch{{ID: a, LeadIDs: []uuid.UUID{uuid.New()}}, {ID: b}},
		abandonErr: errors.New("timeout"),
	}
	enq := &enqueueRecorder{fail: map[uuid.UUID]bool{a: true}}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	r := NewBatchRecovery(store, enq, logger.Discard(), time.Minute, 2*time.Hour)
	r.now = func() time.Time { return now }
	r.sweep(context.Background())

	assert.Equal(t, now.Add(-2*time.Hour), store.abandonCutoff)
	assert.Equal(t, []uuid.UUID{b}, enq.ids)
}
