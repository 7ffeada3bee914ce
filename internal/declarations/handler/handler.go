package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callcenter_backend/internal/declarations/repository"
	"callcenter_backend/internal/declarations/service"
	"callcenter_backend/internal/declarations/transport"
	"callcenter_backend/platform/httpkit"
	"callcenter_backend/platform/validator"
)

// Handler handles HTTP requests for call declarations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new declarations handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Submit creates a pending declaration for the authenticated agent.
// POST /api/v1/declarations
func (h *Handler) Submit(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	decl, err := h.svc.Submit(c.Request.Context(), service.SubmitInput{
		AgentID:            id.UserID(),
		AffiliateManagerID: req.AffiliateManagerID,
		LeadID:             req.LeadID,
		CallType:           req.CallType,
		CallCategory:       req.CallCategory,
		CallDate:           req.CallDate,
		Source:             req.Source,
		Destination:        req.Destination,
		DurationSeconds:    req.DurationSeconds,
		Notes:              req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": toResponse(decl)})
}

// Get returns a single declaration.
// GET /api/v1/declarations/:id
func (h *Handler) Get(c *gin.Context) {
	declID, ok := parseID(c)
	if !ok {
		return
	}

	decl, err := h.svc.GetByID(c.Request.Context(), declID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(decl))
}

// List returns declarations matching the filters. Agents see their own;
// reviewers pass explicit filters.
// GET /api/v1/declarations
func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	params := repository.ListParams{
		AgentID:   req.AgentID,
		ManagerID: req.ManagerID,
		Status:    req.Status,
		Month:     req.Month,
		Year:      req.Year,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	// Non-admins only ever see their own declarations.
	if !id.IsAdmin() {
		own := id.UserID()
		params.AgentID = &own
	}

	decls, total, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.DeclarationResponse, 0, len(decls))
	for _, d := range decls {
		out = append(out, toResponse(d))
	}
	httpkit.OK(c, gin.H{"declarations": out, "total": total})
}

// Approve approves a pending declaration and credits the manager ledger.
// POST /api/v1/admin/declarations/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	declID, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	decl, err := h.svc.Approve(c.Request.Context(), declID, id.UserID(), req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(decl))
}

// Reject rejects a pending declaration. Notes are required.
// POST /api/v1/admin/declarations/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	declID, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	decl, err := h.svc.Reject(c.Request.Context(), declID, id.UserID(), req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(decl))
}

// Reverse deactivates a declaration, debiting the ledger if it was approved.
// POST /api/v1/admin/declarations/:id/reverse
func (h *Handler) Reverse(c *gin.Context) {
	declID, ok := parseID(c)
	if !ok {
		return
	}

	decl, err := h.svc.Reverse(c.Request.Context(), declID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(decl))
}

// Delete lets an agent withdraw their own pending declaration.
// DELETE /api/v1/declarations/:id
func (h *Handler) Delete(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	declID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteOwn(c.Request.Context(), declID, id.UserID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// MySummary returns the authenticated agent's monthly aggregate.
// GET /api/v1/declarations/summary
func (h *Handler) MySummary(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	summary, err := h.svc.AgentMonthlySummary(c.Request.Context(), id.UserID(), req.Month, req.Year)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSummaryResponse(summary))
}

// Rollup returns per-agent monthly aggregates for reviewers.
// GET /api/v1/admin/declarations/rollup
func (h *Handler) Rollup(c *gin.Context) {
	var req transport.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	summaries, err := h.svc.MonthlyRollup(c.Request.Context(), req.Month, req.Year)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toSummaryResponse(s))
	}
	httpkit.OK(c, gin.H{"agents": out})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid declaration id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(d repository.Declaration) transport.DeclarationResponse {
	return transport.DeclarationResponse{
		ID:                 d.ID,
		AgentID:            d.AgentID,
		AffiliateManagerID: d.AffiliateManagerID,
		LeadID:             d.LeadID,
		OrderID:            d.OrderID,
		CallType:           d.CallType,
		CallCategory:       d.CallCategory,
		CallDate:           d.CallDate,
		Source:             d.Source,
		Destination:        d.Destination,
		DurationSeconds:    d.DurationSeconds,
		DurationDisplay:    formatDuration(d.DurationSeconds),
		DedupKey:           d.DedupKey,
		BaseBonusCents:     d.BaseBonusCents,
		OverageBonusCents:  d.OverageBonusCents,
		TotalBonusCents:    d.TotalBonusCents,
		Status:             d.Status,
		Notes:              d.Notes,
		ReviewNotes:        d.ReviewNotes,
		ReviewedBy:         d.ReviewedBy,
		ReviewedAt:         d.ReviewedAt,
		PeriodMonth:        d.PeriodMonth,
		PeriodYear:         d.PeriodYear,
		IsActive:           d.IsActive,
		CreatedAt:          d.CreatedAt,
	}
}

func toSummaryResponse(s repository.AgentSummary) transport.SummaryResponse {
	byType := make([]transport.TypeBreakdownResponse, 0, len(s.ByType))
	for _, b := range s.ByType {
		byType = append(byType, transport.TypeBreakdownResponse{
			CallType:        b.CallType,
			Count:           b.Count,
			TotalBonusCents: b.TotalBonusCents,
		})
	}
	return transport.SummaryResponse{
		AgentID:           s.AgentID,
		Count:             s.Count,
		BaseBonusCents:    s.BaseBonusCents,
		OverageBonusCents: s.OverageBonusCents,
		TotalBonusCents:   s.TotalBonusCents,
		DurationSeconds:   s.DurationSeconds,
		ByType:            byType,
	}
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
