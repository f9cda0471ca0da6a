// Package repository persists marketing leads, the do-not-call list, the
// message audit log and outreach batches in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/platform/apperr"
)

const (
	leadNotFoundMsg  = "lead not found"
	batchNotFoundMsg = "outreach batch not found"
	dncNotFoundMsg   = "do-not-call entry not found"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LeadFilter narrows ListLeads. Zero values mean no filter.
type LeadFilter struct {
	Neighborhood string
	ClientType   string
	OptedOut     *bool
	Limit        int
	Offset       int
}

const leadColumns = `id, organization_id, phone_number, first_name, last_name, neighborhood, budget, client_type,
	opt_out_whatsapp, last_contacted, import_date`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(&l.ID, &l.OrganizationID, &l.PhoneNumber, &l.FirstName, &l.LastName, &l.Neighborhood,
		&l.Budget, &l.ClientType, &l.OptOutWhatsApp, &l.LastContacted, &l.ImportDate)
	return l, err
}

func (r *Repository) CreateLead(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO marketing_leads (id, organization_id, phone_number, first_name, last_name, neighborhood, budget,
			client_type, opt_out_whatsapp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+leadColumns,
		l.ID, l.OrganizationID, l.PhoneNumber, l.FirstName, l.LastName, l.Neighborhood, l.Budget, l.ClientType,
		l.OptOutWhatsApp)
	created, err := scanLead(row)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return created, nil
}

// GetLead reads the lead as currently stored. The dispatcher calls it once per
// lead so opt-out edits made mid-batch are seen.
func (r *Repository) GetLead(ctx context.Context, orgID, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM marketing_leads WHERE organization_id = $1 AND id = $2`, orgID, id)
	l, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (r *Repository) ListLeads(ctx context.Context, orgID uuid.UUID, f LeadFilter) ([]domain.Lead, int, error) {
	var neighborhood, clientType *string
	if f.Neighborhood != "" {
		neighborhood = &f.Neighborhood
	}
	if f.ClientType != "" {
		clientType = &f.ClientType
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const where = `
		WHERE organization_id = $1
			AND ($2::text IS NULL OR neighborhood ILIKE '%' || $2 || '%')
			AND ($3::text IS NULL OR client_type = $3)
			AND ($4::boolean IS NULL OR opt_out_whatsapp = $4)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM marketing_leads`+where,
		orgID, neighborhood, clientType, f.OptedOut).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM marketing_leads`+where+`
		ORDER BY import_date DESC, id
		LIMIT $5 OFFSET $6`,
		orgID, neighborhood, clientType, f.OptedOut, limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate leads: %w", err)
	}
	return out, total, nil
}

func (r *Repository) SetOptOut(ctx context.Context, orgID, id uuid.UUID, optOut bool) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE marketing_leads SET opt_out_whatsapp = $3
		WHERE organization_id = $1 AND id = $2
		RETURNING `+leadColumns, orgID, id, optOut)
	l, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("set opt-out: %w", err)
	}
	return l, nil
}

// MarkContacted stores the calendar date of at as last_contacted.
func (r *Repository) MarkContacted(ctx context.Context, orgID, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE marketing_leads SET last_contacted = $3::date
		WHERE organization_id = $1 AND id = $2`, orgID, id, at)
	if err != nil {
		return fmt.Errorf("mark contacted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}
