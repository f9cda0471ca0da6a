package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"brokerage_backend/internal/marketing/domain"
)

// AppendLog inserts one audit row. marketing_logs rejects UPDATE and DELETE at
// the database level.
func (r *Repository) AppendLog(ctx context.Context, e domain.MarketingLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO marketing_logs (id, organization_id, lead_id, batch_id, phone_number, message_sent, status, sent_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.OrganizationID, e.LeadID, e.BatchID, e.PhoneNumber, e.Message, string(e.Status), e.SentBy, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append marketing log: %w", err)
	}
	return nil
}

func (r *Repository) ListLogsByLead(ctx context.Context, orgID, leadID uuid.UUID) ([]domain.MarketingLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, lead_id, batch_id, phone_number, message_sent, status, sent_by, created_at
		FROM marketing_logs
		WHERE organization_id = $1 AND lead_id = $2
		ORDER BY created_at, id`, orgID, leadID)
	if err != nil {
		return nil, fmt.Errorf("list marketing logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MarketingLog, 0)
	for rows.Next() {
		var e domain.MarketingLog
		var status string
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.LeadID, &e.BatchID, &e.PhoneNumber, &e.Message, &status,
			&e.SentBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan marketing log: %w", err)
		}
		e.Status = domain.LogStatus(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marketing logs: %w", err)
	}
	return out, nil
}
