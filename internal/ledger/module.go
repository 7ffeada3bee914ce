// Package ledger provides the affiliate-manager expense ledger bounded
// context: exactly-once credit and debit per declaration transition, and a
// reconciliation report against the declarations themselves.
package ledger

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/internal/ledger/handler"
	"callcenter_backend/internal/ledger/repository"
	"callcenter_backend/internal/ledger/service"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"
)

// Module is the ledger bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the ledger module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "ledger"
}

// Service returns the service layer for cross-module adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts ledger routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/ledgers/me", m.handler.MyLedger)

	admin := ctx.Admin.Group("/ledgers")
	admin.GET("", m.handler.ListForMonth)
	admin.GET("/reconciliation", m.handler.Reconcile)
	admin.GET("/:managerId", m.handler.ManagerLedger)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
