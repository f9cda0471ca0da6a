// Package repository persists properties, clients and matches in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brokerage_backend/internal/matching/domain"
	"brokerage_backend/platform/apperr"
)

const (
	propertyNotFoundMsg = "property not found"
	clientNotFoundMsg   = "client not found"
	matchNotFoundMsg    = "match not found"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const propertyColumns = `id, organization_id, title, category, property_type, listing_type, price, rooms, city, area, created_at, updated_at`

func scanProperty(row pgx.Row) (domain.Property, error) {
	var p domain.Property
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Title, &p.Category, &p.PropertyType, &p.ListingType,
		&p.Price, &p.Rooms, &p.City, &p.Area, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) CreateProperty(ctx context.Context, p domain.Property) (domain.Property, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO properties (id, organization_id, title, category, property_type, listing_type, price, rooms, city, area)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+propertyColumns,
		p.ID, p.OrganizationID, p.Title, p.Category, p.PropertyType, p.ListingType, p.Price, p.Rooms, p.City, p.Area)
	created, err := scanProperty(row)
	if err != nil {
		return domain.Property{}, fmt.Errorf("create property: %w", err)
	}
	return created, nil
}

func (r *Repository) GetProperty(ctx context.Context, orgID, id uuid.UUID) (domain.Property, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE organization_id = $1 AND id = $2`, orgID, id)
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Property{}, apperr.NotFound(propertyNotFoundMsg)
	}
	if err != nil {
		return domain.Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// ListProperties returns the organization's whole property pool.
func (r *Repository) ListProperties(ctx context.Context, orgID uuid.UUID) ([]domain.Property, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+propertyColumns+` FROM properties WHERE organization_id = $1 ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const clientColumns = `id, organization_id, full_name, phone, request_type, preferred_property_type, budget, preferred_rooms, rooms_min, rooms_max, city, area, created_at, updated_at`

func scanClient(row pgx.Row) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.OrganizationID, &c.FullName, &c.Phone, &c.RequestType, &c.PreferredPropertyType,
		&c.Budget, &c.PreferredRooms, &c.RoomsMin, &c.RoomsMax, &c.City, &c.Area, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repository) CreateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (id, organization_id, full_name, phone, request_type, preferred_property_type, budget, preferred_rooms, rooms_min, rooms_max, city, area)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+clientColumns,
		c.ID, c.OrganizationID, c.FullName, c.Phone, c.RequestType, c.PreferredPropertyType,
		c.Budget, c.PreferredRooms, c.RoomsMin, c.RoomsMax, c.City, c.Area)
	created, err := scanClient(row)
	if err != nil {
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}
	return created, nil
}

func (r *Repository) GetClient(ctx context.Context, orgID, id uuid.UUID) (domain.Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE organization_id = $1 AND id = $2`, orgID, id)
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Client{}, apperr.NotFound(clientNotFoundMsg)
	}
	if err != nil {
		return domain.Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (r *Repository) ListClients(ctx context.Context, orgID uuid.UUID) ([]domain.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE organization_id = $1 ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
