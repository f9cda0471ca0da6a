// Package service wires the marketing use cases: lead and do-not-call
// management, single sends and outreach batches.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/marketing/compliance"
	"brokerage_backend/internal/marketing/dispatch"
	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/internal/marketing/personalize"
	"brokerage_backend/internal/marketing/repository"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/phone"
	"brokerage_backend/platform/sanitize"
)

const defaultCancelPoll = 2 * time.Second

// Store is the persistence the service needs.
type Store interface {
	CreateLead(ctx context.Context, l domain.Lead) (domain.Lead, error)
	GetLead(ctx context.Context, orgID, id uuid.UUID) (domain.Lead, error)
	ListLeads(ctx context.Context, orgID uuid.UUID, f repository.LeadFilter) ([]domain.Lead, int, error)
	SetOptOut(ctx context.Context, orgID, id uuid.UUID, optOut bool) (domain.Lead, error)
	MarkContacted(ctx context.Context, orgID, id uuid.UUID, at time.Time) error

	AddDoNotCall(ctx context.Context, e domain.DoNotCallEntry) (domain.DoNotCallEntry, error)
	RemoveDoNotCall(ctx context.Context, orgID, id uuid.UUID) error
	ListDoNotCall(ctx context.Context, orgID uuid.UUID) ([]domain.DoNotCallEntry, error)
	IsDoNotCall(ctx context.Context, orgID uuid.UUID, normalizedPhone string) (bool, error)
	GetDoNotCallByPhone(ctx context.Context, orgID uuid.UUID, normalizedPhone string) (domain.DoNotCallEntry, error)

	AppendLog(ctx context.Context, e domain.MarketingLog) error
	ListLogsByLead(ctx context.Context, orgID, leadID uuid.UUID) ([]domain.MarketingLog, error)

	CreateBatch(ctx context.Context, b domain.Batch) (domain.Batch, error)
	GetBatch(ctx context.Context, orgID, id uuid.UUID) (domain.Batch, error)
	ListBatches(ctx context.Context, orgID uuid.UUID, limit int) ([]domain.Batch, error)
	MarkBatchRunning(ctx context.Context, orgID, id uuid.UUID, at time.Time) (domain.Batch, error)
	CompleteBatch(ctx context.Context, b domain.Batch) error
	RequestCancel(ctx context.Context, orgID, id uuid.UUID) (domain.Batch, error)
	IsCancelRequested(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// Enqueuer hands a pending batch to whatever executes it.
type Enqueuer interface {
	EnqueueBatch(ctx context.Context, orgID, batchID uuid.UUID, leadCount int) error
}

type Deps struct {
	Store      Store
	Sender     dispatch.Sender
	Pacer      dispatch.Pacer
	Catalog    *personalize.Catalog
	Locale     string
	Normalizer *phone.Normalizer
	Enqueuer   Enqueuer
	Bus        events.Bus
	Log        *logger.Logger
	CancelPoll time.Duration
	Now        func() time.Time
}

type Service struct {
	store        Store
	gate         *compliance.Gate
	catalog      *personalize.Catalog
	personalizer *personalize.Personalizer
	locale       string
	normalizer   *phone.Normalizer
	dispatcher   *dispatch.Dispatcher
	enqueuer     Enqueuer
	bus          events.Bus
	log          *logger.Logger
	cancelPoll   time.Duration
	now          func() time.Time
}

func New(d Deps) (*Service, error) {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	if d.Normalizer == nil {
		d.Normalizer = phone.NewNormalizer(phone.DefaultRegion)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.CancelPoll <= 0 {
		d.CancelPoll = defaultCancelPoll
	}
	if d.Locale == "" {
		d.Locale = "en"
	}
	if d.Catalog == nil {
		catalog, err := personalize.LoadCatalog("")
		if err != nil {
			return nil, err
		}
		d.Catalog = catalog
	}

	s := &Service{
		store:        d.Store,
		gate:         compliance.NewGate(d.Store, d.Normalizer),
		catalog:      d.Catalog,
		personalizer: personalize.New(d.Catalog.PhrasesFor(d.Locale), d.Locale),
		locale:       d.Locale,
		normalizer:   d.Normalizer,
		enqueuer:     d.Enqueuer,
		bus:          d.Bus,
		log:          d.Log,
		cancelPoll:   d.CancelPoll,
		now:          d.Now,
	}
	s.dispatcher = dispatch.New(dispatch.Deps{
		Leads:      d.Store,
		Gate:       s.gate,
		Renderer:   s.personalizer,
		Sender:     d.Sender,
		Audit:      d.Store,
		Contacts:   d.Store,
		Pacer:      d.Pacer,
		Normalizer: d.Normalizer,
		Now:        d.Now,
		Log:        d.Log,
	})
	if s.enqueuer == nil {
		s.enqueuer = NewInProcessEnqueuer(s, d.Log)
	}
	return s, nil
}

// SetEnqueuer replaces the batch executor.
func (s *Service) SetEnqueuer(e Enqueuer) {
	if e != nil {
		s.enqueuer = e
	}
}

// resolveMessage picks the literal message, or the named catalog template.
func (s *Service) resolveMessage(message, template string) (string, error) {
	if strings.TrimSpace(message) != "" {
		return sanitize.Message(message), nil
	}
	name := strings.TrimSpace(template)
	if name == "" {
		return "", apperr.Validation("message or template is required")
	}
	t, ok := s.catalog.Template(name, s.locale)
	if !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown template %q", name))
	}
	return t.Body, nil
}

// InProcessEnqueuer runs batches on goroutines. It is used when no Redis
// queue is configured.
type InProcessEnqueuer struct {
	svc    *Service
	log    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewInProcessEnqueuer(svc *Service, log *logger.Logger) *InProcessEnqueuer {
	ctx, cancel := context.WithCancel(context.Background())
	return &InProcessEnqueuer{svc: svc, log: log, ctx: ctx, cancel: cancel}
}

func (e *InProcessEnqueuer) EnqueueBatch(_ context.Context, orgID, batchID uuid.UUID, _ int) error {
	if e.ctx.Err() != nil {
		return apperr.Unavailable("batch runner is shutting down")
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.svc.RunBatch(e.ctx, orgID, batchID); err != nil {
			e.log.Error("outreach batch run failed", "batch_id", batchID, "error", err)
		}
	}()
	return nil
}

// Close cancels running batches and waits for them to record their result.
func (e *InProcessEnqueuer) Close() {
	e.cancel()
	e.wg.Wait()
}

// Close stops in-process batch runs, if any.
func (s *Service) Close() {
	if e, ok := s.enqueuer.(*InProcessEnqueuer); ok {
		e.Close()
	}
}
