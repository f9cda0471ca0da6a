// Package matching is the property/client matching bounded context.
package matching

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"brokerage_backend/internal/events"
	apphttp "brokerage_backend/internal/http"
	"brokerage_backend/internal/matching/handler"
	"brokerage_backend/internal/matching/repository"
	"brokerage_backend/internal/matching/service"
	"brokerage_backend/platform/lock"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, locker lock.Locker, lockTTL time.Duration, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, locker, lockTTL, bus, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "matching"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/matching"))
}

var _ apphttp.Module = (*Module)(nil)
