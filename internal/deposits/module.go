// Package deposits provides the deposit reconciliation bounded context:
// confirming deposits against selected calls and tracking the numbered
// deposit-call slots per lead per order.
package deposits

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/internal/deposits/handler"
	"callcenter_backend/internal/deposits/repository"
	"callcenter_backend/internal/deposits/service"
	"callcenter_backend/internal/events"
	apphttp "callcenter_backend/internal/http"
	leadorders "callcenter_backend/internal/leadorders/repository"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"
)

// Module is the deposits bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the deposits module. It subscribes to
// declaration approvals to keep slot state in step.
func NewModule(pool *pgxpool.Pool, decls service.DeclarationStore, collab leadorders.Repository, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, decls, collab, collab, collab, bus, log)
	h := handler.New(svc, val)

	bus.Subscribe(events.DeclarationApproved{}.EventName(), events.HandlerFunc(svc.HandleDeclarationApproved))

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "deposits"
}

// Service returns the service layer for cross-module adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts deposit routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/deposits/:leadId/:orderId", m.handler.GetTracker)

	admin := ctx.Admin.Group("/deposits")
	admin.POST("/confirm", m.handler.Confirm)
	admin.POST("/unconfirm", m.handler.Unconfirm)
	admin.POST("/:leadId/:orderId/slots/:slot/reset", m.handler.ResetSlot)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
