package handlers

import (
	"net/http"
	"strconv"

	"precinct/internal/service"
)

// AuditHandler handles audit log requests
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListAuditLogs lists audit logs with pagination (admin only)
// @Summary List audit logs
// @Description Get a paginated list of audit logs, newest first
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Param user_id query int false "Filter by user ID"
// @Success 200 {object} DataResponse "Audit logs"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /admin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)

	var userID *uint
	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		if id, err := strconv.ParseUint(userIDStr, 10, 32); err == nil {
			uid := uint(id)
			userID = &uid
		}
	}

	logs, err := h.audit.List(r.Context(), actorID, userID, limit, offset)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, logs)
}
