package process

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/regulariza/process-management/internal/auth"
	"github.com/regulariza/process-management/internal/transport"
	"github.com/regulariza/process-management/pkg/logger"
)

type ServiceAPI interface {
	CreateProcess(ctx context.Context, actor *auth.User, dto CreateProcessDTO) (*Process, error)
	GetProcess(ctx context.Context, actor *auth.User, id int64) (*Process, error)
	ListProcesses(ctx context.Context, actor *auth.User, status string, limit, offset int) ([]*Process, error)
	UpdateStatus(ctx context.Context, actor *auth.User, id int64, dto UpdateStatusDTO) (*Process, error)
	AddStep(ctx context.Context, actor *auth.User, processID int64, dto AddStepDTO) (*Step, error)
	CompleteStep(ctx context.Context, actor *auth.User, processID, stepID int64) (*Process, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreateProcess(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateProcessDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateProcess: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proc, err := h.Service.CreateProcess(r.Context(), user, dto)
	if err != nil {
		h.Logger.Error("CreateProcess: service error", "error", err, "admin_id", user.ID)
		h.handleProcessError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, proc)
}

func (h *Handler) GetProcess(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.parseID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid process ID")
		return
	}

	proc, err := h.Service.GetProcess(r.Context(), user, id)
	if err != nil {
		h.handleProcessError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, proc)
}

func (h *Handler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 20
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	procs, err := h.Service.ListProcesses(r.Context(), user, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		h.handleProcessError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"processes": procs,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.parseID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid process ID")
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proc, err := h.Service.UpdateStatus(r.Context(), user, id, dto)
	if err != nil {
		h.handleProcessError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, proc)
}

func (h *Handler) AddStep(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.parseID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid process ID")
		return
	}

	var dto AddStepDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	step, err := h.Service.AddStep(r.Context(), user, id, dto)
	if err != nil {
		h.handleProcessError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, step)
}

func (h *Handler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.parseID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid process ID")
		return
	}

	stepID, err := h.parseID(r, "stepID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid step ID")
		return
	}

	proc, err := h.Service.CompleteStep(r.Context(), user, id, stepID)
	if err != nil {
		h.handleProcessError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, proc)
}

func (h *Handler) parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}

func (h *Handler) handleProcessError(w http.ResponseWriter, err error) {
	switch err {
	case ErrProcessNotFound:
		h.WriteError(w, http.StatusNotFound, "process not found")
	case ErrStepNotFound:
		h.WriteError(w, http.StatusNotFound, "process step not found")
	case ErrStepAlreadyDone:
		h.WriteError(w, http.StatusConflict, "step already completed")
	case ErrInvalidStatus:
		h.WriteError(w, http.StatusBadRequest, "invalid status")
	case ErrNumberUnavailable:
		h.WriteError(w, http.StatusServiceUnavailable, "process number allocation unavailable")
	default:
		h.WriteError(w, http.StatusBadRequest, err.Error())
	}
}
