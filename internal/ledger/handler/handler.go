package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callcenter_backend/internal/ledger/repository"
	"callcenter_backend/internal/ledger/service"
	"callcenter_backend/internal/ledger/transport"
	"callcenter_backend/platform/httpkit"
	"callcenter_backend/platform/validator"
)

// Handler handles HTTP requests for manager ledgers.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new ledger handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// MyLedger returns the authenticated manager's ledger for a period.
// GET /api/v1/ledgers/me
func (h *Handler) MyLedger(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	req, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	ledger, err := h.svc.ManagerLedger(c.Request.Context(), id.UserID(), req.Month, req.Year)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(ledger))
}

// ManagerLedger returns any manager's ledger for a period.
// GET /api/v1/admin/ledgers/:managerId
func (h *Handler) ManagerLedger(c *gin.Context) {
	managerID, err := uuid.Parse(c.Param("managerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid manager id", nil)
		return
	}

	req, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	ledger, err := h.svc.ManagerLedger(c.Request.Context(), managerID, req.Month, req.Year)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(ledger))
}

// ListForMonth returns every manager ledger for a period.
// GET /api/v1/admin/ledgers
func (h *Handler) ListForMonth(c *gin.Context) {
	req, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	ledgers, err := h.svc.ListForMonth(c.Request.Context(), req.Month, req.Year)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.LedgerResponse, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, toResponse(l))
	}
	httpkit.OK(c, gin.H{"ledgers": out})
}

// Reconcile reports ledger rows that disagree with the declarations behind them.
// GET /api/v1/admin/ledgers/reconciliation
func (h *Handler) Reconcile(c *gin.Context) {
	req, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	drifts, err := h.svc.Reconcile(c.Request.Context(), req.Month, req.Year)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"drifts": drifts, "clean": len(drifts) == 0})
}

func (h *Handler) bindPeriod(c *gin.Context) (transport.PeriodRequest, bool) {
	var req transport.PeriodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return req, false
	}
	return req, true
}

func toResponse(l repository.Ledger) transport.LedgerResponse {
	rows := make([]transport.RowResponse, 0, len(l.Rows))
	var total int64
	for _, row := range l.Rows {
		rows = append(rows, transport.RowResponse{
			RowKey:          row.RowKey,
			CallCount:       row.CallCount,
			TotalBonusCents: row.TotalBonusCents,
			TalkingSeconds:  row.TalkingSeconds,
		})
		total += row.TotalBonusCents
	}
	return transport.LedgerResponse{
		ID:              l.ID,
		ManagerID:       l.ManagerID,
		Month:           l.Month,
		Year:            l.Year,
		Rows:            rows,
		TotalBonusCents: total,
		UpdatedAt:       l.UpdatedAt,
	}
}
