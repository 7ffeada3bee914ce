// Package leadorders provides the lead/order collaborator store: lead lookup
// for declaration validation, order-scoped deposit metadata and the
// append-only audit log.
package leadorders

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/internal/leadorders/handler"
	"callcenter_backend/internal/leadorders/repository"
)

// Module is the lead/order bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    repository.Repository
}

// NewModule creates and initializes the leadorders module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	return &Module{handler: handler.New(repo), repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leadorders"
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead/order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/leads/:id", m.handler.GetLead)
	ctx.Protected.GET("/orders/:orderId/leads/:leadId", m.handler.GetOrderLead)
	ctx.Admin.GET("/audit-logs", m.handler.ListAuditLogs)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
