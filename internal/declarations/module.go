// Package declarations provides the call-declaration bounded context:
// submission, review lifecycle and monthly aggregation.
package declarations

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/internal/declarations/handler"
	"callcenter_backend/internal/declarations/repository"
	"callcenter_backend/internal/declarations/service"
	"callcenter_backend/internal/events"
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"
)

// Module is the declarations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the declarations module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bonus service.BonusCalculator, ledger service.LedgerRecorder, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bonus, ledger, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "declarations"
}

// Service returns the service layer for cross-module adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts declaration routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/declarations")
	group.POST("", m.handler.Submit)
	group.GET("", m.handler.List)
	group.GET("/summary", m.handler.MySummary)
	group.GET("/:id", m.handler.Get)
	group.DELETE("/:id", m.handler.Delete)

	admin := ctx.Admin.Group("/declarations")
	admin.GET("/rollup", m.handler.Rollup)
	admin.POST("/:id/approve", m.handler.Approve)
	admin.POST("/:id/reject", m.handler.Reject)
	admin.POST("/:id/reverse", m.handler.Reverse)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
