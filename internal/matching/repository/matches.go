package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"brokerage_backend/internal/matching/domain"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/db"
)

const matchColumns = `id, organization_id, property_id, client_id, category, match_score, status, created_at, updated_at`

func scanMatch(row pgx.Row) (domain.Match, error) {
	var (
		m        domain.Match
		category string
		status   string
	)
	err := row.Scan(&m.ID, &m.OrganizationID, &m.PropertyID, &m.ClientID, &category, &m.Score, &status, &m.CreatedAt, &m.UpdatedAt)
	m.Category = domain.Category(category)
	m.Status = domain.MatchStatus(status)
	return m, err
}

// MatchFilter narrows ListMatches. Zero values mean no filter.
type MatchFilter struct {
	Category domain.Category
	Status   domain.MatchStatus
}

func (r *Repository) ListMatches(ctx context.Context, orgID uuid.UUID, f MatchFilter) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+`
		FROM matches
		WHERE organization_id = $1
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY match_score DESC, created_at`,
		orgID, string(f.Category), string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertMatches stores the new pairs in one transaction. Pairs that already
// exist (for instance written by a concurrent run) are skipped by the unique
// constraint and not returned.
func (r *Repository) InsertMatches(ctx context.Context, orgID uuid.UUID, matches []domain.NewMatch) ([]domain.Match, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin insert matches: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, m := range matches {
		batch.Queue(`
			INSERT INTO matches (id, organization_id, property_id, client_id, category, match_score, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT ON CONSTRAINT matches_pair_key DO NOTHING
			RETURNING `+matchColumns,
			uuid.New(), orgID, m.PropertyID, m.ClientID, string(m.Category), m.Score, string(domain.MatchStatusMatched))
	}

	results := tx.SendBatch(ctx, batch)
	inserted := make([]domain.Match, 0, len(matches))
	for range matches {
		m, err := scanMatch(results.QueryRow())
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			_ = results.Close()
			return nil, insertMatchError(err)
		}
		inserted = append(inserted, m)
	}
	if err := results.Close(); err != nil {
		return nil, insertMatchError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit matches: %w", err)
	}
	return inserted, nil
}

// insertMatchError maps a property or client deleted while generation was
// running to a conflict the caller can retry.
func insertMatchError(err error) error {
	if db.IsForeignKeyViolation(err) {
		return apperr.Wrap(apperr.KindConflict, "property or client was removed during match generation", err)
	}
	return fmt.Errorf("insert match: %w", err)
}

func (r *Repository) UpdateMatchStatus(ctx context.Context, orgID, id uuid.UUID, status domain.MatchStatus) (domain.Match, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE matches SET status = $3, updated_at = now()
		WHERE organization_id = $1 AND id = $2
		RETURNING `+matchColumns,
		orgID, id, string(status))
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Match{}, apperr.NotFound(matchNotFoundMsg)
	}
	if err != nil {
		return domain.Match{}, fmt.Errorf("update match status: %w", err)
	}
	return m, nil
}
