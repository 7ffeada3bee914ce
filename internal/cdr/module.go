// Package cdr provides the call-record bounded context: fetching raw records
// from the telephony switch, normalizing them and computing bonuses.
package cdr

import (
	"time"

	"callcenter_backend/internal/cdr/cache"
	"callcenter_backend/internal/cdr/client"
	"callcenter_backend/internal/cdr/handler"
	"callcenter_backend/internal/cdr/service"
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"
)

// Module is the call-record bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// Config carries the switch and cache settings the module needs.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MinCallSeconds int
	RedisURL       string
	CacheTTL       time.Duration
}

// NewModule creates and initializes the cdr module with all its dependencies.
// statuses may be nil until the declarations module is wired in.
func NewModule(cfg Config, statuses service.DeclarationStatusReader, val *validator.Validator, log *logger.Logger) *Module {
	fetcher := client.New(cfg.BaseURL, cfg.Timeout, log)

	var windowCache service.WindowCache
	if cfg.RedisURL != "" {
		c, err := cache.New(cfg.RedisURL, cfg.CacheTTL, log)
		if err != nil {
			log.Warn("cdr cache disabled", "error", err)
		} else {
			windowCache = c
		}
	}

	svc := service.New(fetcher, windowCache, statuses, cfg.MinCallSeconds, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "cdr"
}

// Service returns the service layer for cross-module adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts call-record routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/cdr")
	group.GET("/calls", m.handler.ListCalls)
	group.GET("/call-types", m.handler.ListCallTypes)
	group.GET("/bonus-preview", m.handler.PreviewBonus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
