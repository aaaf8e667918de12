package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/regulariza/process-management/internal/transport"
	"github.com/regulariza/process-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// GetAuditLogs handles GET /audit-logs with optional filters:
// action (substring), target_type, admin_id, from, to (RFC 3339), limit, offset.
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := Filters{
		Action:     q.Get("action"),
		TargetType: q.Get("target_type"),
	}

	if adminIDStr := q.Get("admin_id"); adminIDStr != "" {
		adminID, err := strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid admin_id")
			return
		}
		filters.AdminID = adminID
	}

	if fromStr := q.Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		filters.From = &from
	}

	if toStr := q.Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		filters.To = &to
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			filters.Limit = l
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filters.Offset = o
		}
	}

	logs, err := h.Service.List(r.Context(), filters)
	if err != nil {
		h.Logger.Error("GetAuditLogs: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to query audit logs")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}
