package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callcenter_backend/internal/leadorders/repository"
	"callcenter_backend/platform/httpkit"
)

// Handler exposes the lead/order collaborator reads.
type Handler struct {
	repo repository.Repository
}

// New creates a new lead/order handler.
func New(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// GetLead returns one lead.
// GET /api/v1/leads/:id
func (h *Handler) GetLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	lead, err := h.repo.GetLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"id":              lead.ID,
		"name":            lead.Name,
		"email":           lead.Email,
		"phone":           lead.Phone,
		"assignedAgentId": lead.AssignedAgentID,
	})
}

// GetOrderLead returns the deposit metadata for a lead within an order.
// GET /api/v1/orders/:orderId/leads/:leadId
func (h *Handler) GetOrderLead(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid order id", nil)
		return
	}
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	ol, err := h.repo.GetOrderLead(c.Request.Context(), orderID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"orderId":            ol.OrderID,
		"leadId":             ol.LeadID,
		"depositConfirmed":   ol.DepositConfirmed,
		"depositConfirmedBy": ol.DepositConfirmedBy,
		"depositConfirmedAt": ol.DepositConfirmedAt,
		"depositPsp":         ol.DepositPSP,
		"depositCardIssuer":  ol.DepositCardIssuer,
	})
}

// ListAuditLogs returns the newest audit entries.
// GET /api/v1/admin/audit-logs
func (h *Handler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.repo.ListRecent(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"auditLogs": logs})
}
