// Package marketing is the lead outreach bounded context.
package marketing

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"brokerage_backend/internal/events"
	apphttp "brokerage_backend/internal/http"
	"brokerage_backend/internal/marketing/dispatch"
	"brokerage_backend/internal/marketing/handler"
	"brokerage_backend/internal/marketing/personalize"
	"brokerage_backend/internal/marketing/repository"
	"brokerage_backend/internal/marketing/service"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/phone"
	"brokerage_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule builds the marketing stack. enqueuer may be nil, in which case
// batches run on goroutines inside this process.
func NewModule(
	pool *pgxpool.Pool,
	cfg config.OutreachConfig,
	sender dispatch.Sender,
	enqueuer service.Enqueuer,
	normalizer *phone.Normalizer,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) (*Module, error) {
	catalog, err := personalize.LoadCatalog(cfg.GetOutreachTemplatesPath())
	if err != nil {
		return nil, err
	}
	svc, err := service.New(service.Deps{
		Store:      repository.New(pool),
		Sender:     sender,
		Pacer:      dispatch.NewRandomPacer(cfg.GetOutreachMinDelay(), cfg.GetOutreachDelayJitter()),
		Catalog:    catalog,
		Locale:     cfg.GetOutreachLocale(),
		Normalizer: normalizer,
		Enqueuer:   enqueuer,
		Bus:        bus,
		Log:        log,
	})
	if err != nil {
		return nil, err
	}
	return &Module{handler: handler.New(svc, val), service: svc}, nil
}

func (m *Module) Name() string {
	return "marketing"
}

// Service is exposed for the batch worker.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	var sendLimit gin.HandlerFunc
	if ctx.SendRateLimiter != nil {
		sendLimit = ctx.SendRateLimiter.RateLimit()
	}
	m.handler.RegisterRoutes(ctx.Protected.Group("/marketing"), sendLimit)
}

var _ apphttp.Module = (*Module)(nil)
