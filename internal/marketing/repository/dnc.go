package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/db"
)

const dncUniqueConstraint = "do_not_call_list_org_phone_key"

const dncColumns = `id, organization_id, phone_number, reason, notes, created_by, created_at`

func scanDNC(row pgx.Row) (domain.DoNotCallEntry, error) {
	var e domain.DoNotCallEntry
	err := row.Scan(&e.ID, &e.OrganizationID, &e.PhoneNumber, &e.Reason, &e.Notes, &e.CreatedBy, &e.CreatedAt)
	return e, err
}

// AddDoNotCall inserts an entry. A number already on the list is rejected
// with a conflict; the existing row is left untouched.
func (r *Repository) AddDoNotCall(ctx context.Context, e domain.DoNotCallEntry) (domain.DoNotCallEntry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO do_not_call_list (id, organization_id, phone_number, reason, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+dncColumns,
		e.ID, e.OrganizationID, e.PhoneNumber, e.Reason, e.Notes, e.CreatedBy)
	created, err := scanDNC(row)
	if db.IsUniqueViolation(err, dncUniqueConstraint) {
		return domain.DoNotCallEntry{}, apperr.Conflict("phone number is already on the do-not-call list")
	}
	if err != nil {
		return domain.DoNotCallEntry{}, fmt.Errorf("add do-not-call entry: %w", err)
	}
	return created, nil
}

func (r *Repository) RemoveDoNotCall(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM do_not_call_list WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("remove do-not-call entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(dncNotFoundMsg)
	}
	return nil
}

func (r *Repository) ListDoNotCall(ctx context.Context, orgID uuid.UUID) ([]domain.DoNotCallEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+dncColumns+` FROM do_not_call_list WHERE organization_id = $1 ORDER BY created_at DESC, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list do-not-call entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DoNotCallEntry, 0)
	for rows.Next() {
		e, err := scanDNC(rows)
		if err != nil {
			return nil, fmt.Errorf("scan do-not-call entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate do-not-call entries: %w", err)
	}
	return out, nil
}

// IsDoNotCall expects the number already normalized.
func (r *Repository) IsDoNotCall(ctx context.Context, orgID uuid.UUID, normalizedPhone string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM do_not_call_list WHERE organization_id = $1 AND phone_number = $2)`,
		orgID, normalizedPhone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check do-not-call: %w", err)
	}
	return exists, nil
}

func (r *Repository) GetDoNotCallByPhone(ctx context.Context, orgID uuid.UUID, normalizedPhone string) (domain.DoNotCallEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+dncColumns+` FROM do_not_call_list WHERE organization_id = $1 AND phone_number = $2`,
		orgID, normalizedPhone)
	e, err := scanDNC(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DoNotCallEntry{}, apperr.NotFound(dncNotFoundMsg)
	}
	if err != nil {
		return domain.DoNotCallEntry{}, fmt.Errorf("get do-not-call entry: %w", err)
	}
	return e, nil
}
