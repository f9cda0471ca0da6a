package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/platform/apperr"
)

const batchColumns = `id, organization_id, template, lead_ids, status, sent, failed, excluded, errors,
	cancel_requested, created_by, created_at, started_at, completed_at`

func scanBatch(row pgx.Row) (domain.Batch, error) {
	var b domain.Batch
	var status string
	err := row.Scan(&b.ID, &b.OrganizationID, &b.Template, &b.LeadIDs, &status, &b.Sent, &b.Failed, &b.Excluded,
		&b.Errors, &b.CancelRequested, &b.CreatedBy, &b.CreatedAt, &b.StartedAt, &b.CompletedAt)
	if err != nil {
		return domain.Batch{}, err
	}
	b.State = domain.BatchState(status)
	if b.Errors == nil {
		b.Errors = []string{}
	}
	return b, nil
}

func (r *Repository) CreateBatch(ctx context.Context, b domain.Batch) (domain.Batch, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO outreach_batches (id, organization_id, template, lead_ids, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+batchColumns,
		b.ID, b.OrganizationID, b.Template, b.LeadIDs, string(domain.BatchPending), b.CreatedBy)
	created, err := scanBatch(row)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("create outreach batch: %w", err)
	}
	return created, nil
}

func (r *Repository) GetBatch(ctx context.Context, orgID, id uuid.UUID) (domain.Batch, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM outreach_batches WHERE organization_id = $1 AND id = $2`, orgID, id)
	b, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Batch{}, apperr.NotFound(batchNotFoundMsg)
	}
	if err != nil {
		return domain.Batch{}, fmt.Errorf("get outreach batch: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBatches(ctx context.Context, orgID uuid.UUID, limit int) ([]domain.Batch, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+batchColumns+` FROM outreach_batches
		WHERE organization_id = $1 ORDER BY created_at DESC, id LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list outreach batches: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Batch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outreach batch: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outreach batches: %w", err)
	}
	return out, nil
}

// MarkBatchRunning moves a pending batch to running. It returns a conflict
// when the batch is no longer pending, so a redelivered task never runs a
// batch twice.
func (r *Repository) MarkBatchRunning(ctx context.Context, orgID, id uuid.UUID, at time.Time) (domain.Batch, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE outreach_batches SET status = 'running', started_at = $3
		WHERE organization_id = $1 AND id = $2 AND status = 'pending'
		RETURNING `+batchColumns, orgID, id, at)
	b, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Batch{}, apperr.Conflict("outreach batch is not pending")
	}
	if err != nil {
		return domain.Batch{}, fmt.Errorf("start outreach batch: %w", err)
	}
	return b, nil
}

// CompleteBatch stores the final tally. Only running or pending batches can
// be finished.
func (r *Repository) CompleteBatch(ctx context.Context, b domain.Batch) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE outreach_batches
		SET status = $3, sent = $4, failed = $5, excluded = $6, errors = $7, completed_at = $8
		WHERE organization_id = $1 AND id = $2 AND status IN ('pending', 'running')`,
		b.OrganizationID, b.ID, string(b.State), b.Sent, b.Failed, b.Excluded, b.Errors, b.CompletedAt)
	if err != nil {
		return fmt.Errorf("complete outreach batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("outreach batch already finished")
	}
	return nil
}

// RequestCancel flags a batch for cancellation. The running worker polls the
// flag; a pending batch is cancelled when the worker picks it up.
func (r *Repository) RequestCancel(ctx context.Context, orgID, id uuid.UUID) (domain.Batch, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE outreach_batches SET cancel_requested = true
		WHERE organization_id = $1 AND id = $2 AND status IN ('pending', 'running')
		RETURNING `+batchColumns, orgID, id)
	b, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetBatch(ctx, orgID, id); getErr != nil {
			return domain.Batch{}, getErr
		}
		return domain.Batch{}, apperr.Conflict("outreach batch already finished")
	}
	if err != nil {
		return domain.Batch{}, fmt.Errorf("cancel outreach batch: %w", err)
	}
	return b, nil
}

func (r *Repository) IsCancelRequested(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var requested bool
	err := r.pool.QueryRow(ctx, `SELECT cancel_requested FROM outreach_batches WHERE organization_id = $1 AND id = $2`,
		orgID, id).Scan(&requested)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperr.NotFound(batchNotFoundMsg)
	}
	if err != nil {
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return requested, nil
}

// ListStalePendingBatches returns pending batches created before the cutoff,
// across organizations, oldest first.
func (r *Repository) ListStalePendingBatches(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Batch, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+batchColumns+` FROM outreach_batches
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at LIMIT $2`, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale batches: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Batch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outreach batch: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outreach batches: %w", err)
	}
	return out, nil
}

// AbandonStaleBatches closes running batches whose worker went away. Counters
// already stored are kept.
func (r *Repository) AbandonStaleBatches(ctx context.Context, startedBefore, at time.Time, reason string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE outreach_batches
		SET status = 'cancelled', completed_at = $2, errors = errors || jsonb_build_array($3::text)
		WHERE status = 'running' AND started_at < $1`, startedBefore, at, reason)
	if err != nil {
		return 0, fmt.Errorf("abandon stale batches: %w", err)
	}
	return tag.RowsAffected(), nil
}
