package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"callcenter_backend/internal/cdr/service"
	"callcenter_backend/internal/cdr/transport"
	"callcenter_backend/platform/httpkit"
	"callcenter_backend/platform/validator"
)

const defaultMonths = 2

// Handler handles HTTP requests for switch call records.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new call-record handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListCalls returns the agent's qualifying calls for the trailing window.
// GET /api/v1/cdr/calls
func (h *Handler) ListCalls(c *gin.Context) {
	var req transport.ListCallsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	if req.Months == 0 {
		req.Months = defaultMonths
	}

	var (
		records []service.CallRecord
		err     error
	)
	if req.Undeclared {
		records, err = h.svc.ListUndeclared(c.Request.Context(), req.AgentCode, req.Months)
	} else {
		records, err = h.svc.ListCalls(c.Request.Context(), req.AgentCode, req.Months)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.CallResponse, 0, len(records))
	for _, r := range records {
		out = append(out, transport.CallResponse{
			CallDate:          r.CallDate,
			Source:            r.Source,
			Destination:       r.Destination,
			DurationSeconds:   r.DurationSeconds,
			DurationDisplay:   service.FormatDuration(r.DurationSeconds),
			DedupKey:          r.DedupKey,
			RecordingRef:      r.RecordingRef,
			Declared:          r.Declared,
			DeclarationStatus: r.DeclarationStatus,
		})
	}
	httpkit.OK(c, gin.H{"calls": out})
}

// ListCallTypes returns the declarable call types and their base bonuses.
// GET /api/v1/cdr/call-types
func (h *Handler) ListCallTypes(c *gin.Context) {
	httpkit.OK(c, gin.H{"callTypes": service.CallTypes()})
}

// PreviewBonus computes the payout a declaration would earn.
// GET /api/v1/cdr/bonus-preview
func (h *Handler) PreviewBonus(c *gin.Context) {
	var req transport.BonusPreviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	bonus := service.CalculateBonus(req.CallType, req.DurationSeconds)
	httpkit.OK(c, transport.BonusPreviewResponse{
		CallType:     req.CallType,
		BaseCents:    bonus.BaseCents,
		OverageCents: bonus.OverageCents,
		TotalCents:   bonus.TotalCents,
	})
}
