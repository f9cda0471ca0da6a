// Package service orchestrates match generation on top of the engine and the
// repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/matching/domain"
	"brokerage_backend/internal/matching/engine"
	"brokerage_backend/internal/matching/repository"
	"brokerage_backend/internal/matching/transport"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/lock"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/metrics"
	"brokerage_backend/platform/sanitize"
)

const defaultLockTTL = 2 * time.Minute

// Store is the persistence the service needs.
type Store interface {
	CreateProperty(ctx context.Context, p domain.Property) (domain.Property, error)
	GetProperty(ctx context.Context, orgID, id uuid.UUID) (domain.Property, error)
	ListProperties(ctx context.Context, orgID uuid.UUID) ([]domain.Property, error)
	CreateClient(ctx context.Context, c domain.Client) (domain.Client, error)
	GetClient(ctx context.Context, orgID, id uuid.UUID) (domain.Client, error)
	ListClients(ctx context.Context, orgID uuid.UUID) ([]domain.Client, error)
	ListMatches(ctx context.Context, orgID uuid.UUID, f repository.MatchFilter) ([]domain.Match, error)
	InsertMatches(ctx context.Context, orgID uuid.UUID, matches []domain.NewMatch) ([]domain.Match, error)
	UpdateMatchStatus(ctx context.Context, orgID, id uuid.UUID, status domain.MatchStatus) (domain.Match, error)
}

type Service struct {
	store   Store
	locker  lock.Locker
	lockTTL time.Duration
	bus     events.Bus
	log     *logger.Logger
}

func New(store Store, locker lock.Locker, lockTTL time.Duration, bus events.Bus, log *logger.Logger) *Service {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Service{store: store, locker: locker, lockTTL: lockTTL, bus: bus, log: log}
}

func parseCategory(raw string) (domain.Category, error) {
	c, ok := domain.ParseCategory(raw)
	if !ok {
		return domain.CategoryNone, apperr.Validation(fmt.Sprintf("unknown category %q", raw))
	}
	return c, nil
}

// Generate runs the engine over the organization's current pools and stores
// the new matches. Runs for the same organization and category are
// serialized; a second caller gets a conflict instead of waiting.
func (s *Service) Generate(ctx context.Context, orgID uuid.UUID, req transport.GenerateMatchesRequest) (transport.GenerateMatchesResponse, error) {
	category, err := parseCategory(req.Category)
	if err != nil {
		return transport.GenerateMatchesResponse{}, err
	}

	release, err := s.locker.TryAcquire(ctx, fmt.Sprintf("matching:%s:%s", orgID, category), s.lockTTL)
	if errors.Is(err, lock.ErrHeld) {
		return transport.GenerateMatchesResponse{}, apperr.Conflict("match generation already running for this category")
	}
	if err != nil {
		return transport.GenerateMatchesResponse{}, apperr.Wrap(apperr.KindUnavailable, "match generation lock unavailable", err)
	}
	defer release()

	var (
		properties []domain.Property
		clients    []domain.Client
		existing   []domain.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		properties, err = s.store.ListProperties(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		clients, err = s.store.ListClients(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		// Every stored pair counts, whatever its category or status.
		existing, err = s.store.ListMatches(gctx, orgID, repository.MatchFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.GenerateMatchesResponse{}, err
	}

	candidates := engine.Generate(properties, clients, existing, category)
	created, err := s.store.InsertMatches(ctx, orgID, candidates)
	if err != nil {
		return transport.GenerateMatchesResponse{}, err
	}

	skipped := len(candidates) - len(created)
	metrics.RecordMatchesGenerated(string(category), len(created))
	s.log.Info("matches generated",
		"organizationId", orgID,
		"category", category,
		"properties", len(properties),
		"clients", len(clients),
		"created", len(created),
		"skipped", skipped,
	)

	if len(created) > 0 && s.bus != nil {
		ids := make([]uuid.UUID, len(created))
		for i, m := range created {
			ids[i] = m.ID
		}
		s.bus.Publish(ctx, events.MatchesGenerated{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: orgID,
			Category:       string(category),
			MatchIDs:       ids,
			Skipped:        skipped,
		})
	}

	return transport.GenerateMatchesResponse{
		Category: string(category),
		Created:  mapMatches(created),
		Skipped:  skipped,
	}, nil
}

// ListMatches returns stored matches. With a category, matches are checked
// against the current pools and those whose records drifted out of the
// category (or were deleted) are left out.
func (s *Service) ListMatches(ctx context.Context, orgID uuid.UUID, req transport.ListMatchesRequest) (transport.MatchListResponse, error) {
	filter := repository.MatchFilter{}
	if strings.TrimSpace(req.Status) != "" {
		status, err := domain.ParseMatchStatus(req.Status)
		if err != nil {
			return transport.MatchListResponse{}, apperr.Validation(err.Error())
		}
		filter.Status = status
	}

	if strings.TrimSpace(req.Category) == "" {
		matches, err := s.store.ListMatches(ctx, orgID, filter)
		if err != nil {
			return transport.MatchListResponse{}, err
		}
		return transport.MatchListResponse{Items: mapMatches(matches), Total: len(matches)}, nil
	}

	category, err := parseCategory(req.Category)
	if err != nil {
		return transport.MatchListResponse{}, err
	}

	var (
		properties []domain.Property
		clients    []domain.Client
		matches    []domain.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		properties, err = s.store.ListProperties(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		clients, err = s.store.ListClients(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		matches, err = s.store.ListMatches(gctx, orgID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.MatchListResponse{}, err
	}

	kept := engine.FilterMatches(matches, properties, clients, category, engine.FilterOptions{SkipListingCheck: req.IncludeIncompatible})
	return transport.MatchListResponse{Items: mapMatches(kept), Total: len(kept)}, nil
}

func (s *Service) UpdateMatchStatus(ctx context.Context, orgID, id uuid.UUID, req transport.UpdateMatchStatusRequest) (transport.MatchResponse, error) {
	status, err := domain.ParseMatchStatus(req.Status)
	if err != nil {
		return transport.MatchResponse{}, apperr.Validation(err.Error())
	}
	m, err := s.store.UpdateMatchStatus(ctx, orgID, id, status)
	if err != nil {
		return transport.MatchResponse{}, err
	}
	return mapMatch(m), nil
}

// Explain scores a single pair without storing anything.
func (s *Service) Explain(ctx context.Context, orgID, propertyID, clientID uuid.UUID) (transport.ScoreBreakdownResponse, error) {
	p, err := s.store.GetProperty(ctx, orgID, propertyID)
	if err != nil {
		return transport.ScoreBreakdownResponse{}, err
	}
	c, err := s.store.GetClient(ctx, orgID, clientID)
	if err != nil {
		return transport.ScoreBreakdownResponse{}, err
	}

	category := domain.ClassifyProperty(p)
	b := engine.Explain(p, c)
	return transport.ScoreBreakdownResponse{
		PropertyID: propertyID,
		ClientID:   clientID,
		Category:   string(category),
		Compatible: domain.PairCompatible(p, c, category),
		Type:       b.Type,
		Area:       b.Area,
		Budget:     b.Budget,
		Rooms:      b.Rooms,
		Total:      b.Total(),
	}, nil
}

func (s *Service) CreateProperty(ctx context.Context, orgID uuid.UUID, req transport.CreatePropertyRequest) (transport.PropertyResponse, error) {
	p, err := s.store.CreateProperty(ctx, domain.Property{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          sanitize.Text(req.Title),
		Category:       strings.TrimSpace(req.Category),
		PropertyType:   strings.TrimSpace(req.PropertyType),
		ListingType:    strings.TrimSpace(req.ListingType),
		Price:          req.Price,
		Rooms:          req.Rooms,
		City:           sanitize.Text(req.City),
		Area:           sanitize.Text(req.Area),
	})
	if err != nil {
		return transport.PropertyResponse{}, err
	}
	return mapProperty(p), nil
}

func (s *Service) ListProperties(ctx context.Context, orgID uuid.UUID) ([]transport.PropertyResponse, error) {
	props, err := s.store.ListProperties(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.PropertyResponse, len(props))
	for i, p := range props {
		out[i] = mapProperty(p)
	}
	return out, nil
}

func (s *Service) CreateClient(ctx context.Context, orgID uuid.UUID, req transport.CreateClientRequest) (transport.ClientResponse, error) {
	if req.RoomsMin != nil && req.RoomsMax != nil && *req.RoomsMax < *req.RoomsMin {
		return transport.ClientResponse{}, apperr.Validation("roomsMax must not be below roomsMin")
	}
	c, err := s.store.CreateClient(ctx, domain.Client{
		ID:                    uuid.New(),
		OrganizationID:        orgID,
		FullName:              sanitize.Text(req.FullName),
		Phone:                 strings.TrimSpace(req.Phone),
		RequestType:           strings.TrimSpace(req.RequestType),
		PreferredPropertyType: strings.TrimSpace(req.PreferredPropertyType),
		Budget:                req.Budget,
		PreferredRooms:        req.PreferredRooms,
		RoomsMin:              req.RoomsMin,
		RoomsMax:              req.RoomsMax,
		City:                  sanitize.Text(req.City),
		Area:                  sanitize.Text(req.Area),
	})
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return mapClient(c), nil
}

func (s *Service) ListClients(ctx context.Context, orgID uuid.UUID) ([]transport.ClientResponse, error) {
	clients, err := s.store.ListClients(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ClientResponse, len(clients))
	for i, c := range clients {
		out[i] = mapClient(c)
	}
	return out, nil
}
