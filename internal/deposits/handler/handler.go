package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callcenter_backend/internal/deposits/repository"
	"callcenter_backend/internal/deposits/service"
	"callcenter_backend/internal/deposits/transport"
	"callcenter_backend/platform/httpkit"
	"callcenter_backend/platform/validator"
)

// Handler handles HTTP requests for deposit confirmation and slot tracking.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new deposits handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Confirm confirms a deposit for a lead within an order.
// POST /api/v1/admin/deposits/confirm
func (h *Handler) Confirm(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	record, err := h.svc.ConfirmDeposit(c.Request.Context(), service.ConfirmInput{
		LeadID:             req.LeadID,
		OrderID:            req.OrderID,
		AffiliateManagerID: req.AffiliateManagerID,
		PSP:                req.PSP,
		CardIssuer:         req.CardIssuer,
		CallDate:           req.CallDate,
		Source:             req.Source,
		Destination:        req.Destination,
		DurationSeconds:    req.DurationSeconds,
		ConfirmedBy:        id.UserID(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(record))
}

// Unconfirm rolls a deposit confirmation back.
// POST /api/v1/admin/deposits/unconfirm
func (h *Handler) Unconfirm(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.UnconfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := h.svc.UnconfirmDeposit(c.Request.Context(), req.LeadID, req.OrderID, id.UserID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"unconfirmed": true})
}

// GetTracker returns the slot tracker for a lead within an order.
// GET /api/v1/deposits/:leadId/:orderId
func (h *Handler) GetTracker(c *gin.Context) {
	leadID, orderID, ok := parseLeadOrder(c)
	if !ok {
		return
	}

	record, err := h.svc.GetTracker(c.Request.Context(), leadID, orderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(record))
}

// ResetSlot forces a slot back to pending.
// POST /api/v1/admin/deposits/:leadId/:orderId/slots/:slot/reset
func (h *Handler) ResetSlot(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, orderID, ok := parseLeadOrder(c)
	if !ok {
		return
	}
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid slot number", nil)
		return
	}

	if err := h.svc.ResetSlot(c.Request.Context(), leadID, orderID, slot, id.UserID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"reset": true})
}

func parseLeadOrder(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid order id", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return leadID, orderID, true
}

func toResponse(r repository.Record) transport.TrackerResponse {
	slots := make([]transport.SlotResponse, 0, len(r.Slots))
	for _, s := range r.Slots {
		slots = append(slots, transport.SlotResponse{
			SlotNumber:   s.SlotNumber,
			Status:       s.Status,
			ExpectedDate: s.ExpectedDate,
			DoneDate:     s.DoneDate,
			MarkedBy:     s.MarkedBy,
			ApprovedBy:   s.ApprovedBy,
			Notes:        s.Notes,
		})
	}
	return transport.TrackerResponse{
		ID:                   r.ID,
		LeadID:               r.LeadID,
		OrderID:              r.OrderID,
		DepositConfirmed:     r.DepositConfirmed,
		DepositConfirmedBy:   r.DepositConfirmedBy,
		DepositConfirmedAt:   r.DepositConfirmedAt,
		DepositDeclarationID: r.DepositDeclarationID,
		Slots:                slots,
	}
}
