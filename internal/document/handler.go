package document

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/regulariza/process-management/internal/auth"
	"github.com/regulariza/process-management/internal/process"
	"github.com/regulariza/process-management/internal/transport"
	"github.com/regulariza/process-management/pkg/logger"
)

type ServiceAPI interface {
	AddRequirement(ctx context.Context, actor *auth.User, processID int64, dto AddRequirementDTO) (*Document, error)
	Upload(ctx context.Context, actor *auth.User, documentID int64, dto UploadDTO) (*Document, error)
	Review(ctx context.Context, actor *auth.User, documentID int64, dto ReviewDTO) (*Document, error)
	Remove(ctx context.Context, actor *auth.User, documentID int64) (*Document, error)
	ListByProcess(ctx context.Context, actor *auth.User, processID int64, pool string) ([]*Document, error)
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

func (h *Handler) AddRequirement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	processID, err := h.parseID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid process ID")
		return
	}

	var dto AddRequirementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.Service.AddRequirement(r.Context(), user, processID, dto)
	if err != nil {
		h.handleDocumentError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) ListByProcess(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	processID, err := h.parseID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid process ID")
		return
	}

	docs, err := h.Service.ListByProcess(r.Context(), user, processID, r.URL.Query().Get("pool"))
	if err != nil {
		h.handleDocumentError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	documentID, err := h.parseID(r, "documentID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	var dto UploadDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.Service.Upload(r.Context(), user, documentID, dto)
	if err != nil {
		h.Logger.Error("Upload: service error", "error", err, "document_id", documentID)
		h.handleDocumentError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	documentID, err := h.parseID(r, "documentID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	var dto ReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.Service.Review(r.Context(), user, documentID, dto)
	if err != nil {
		h.Logger.Error("Review: service error", "error", err, "document_id", documentID, "admin_id", user.ID)
		h.handleDocumentError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	documentID, err := h.parseID(r, "documentID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	doc, err := h.Service.Remove(r.Context(), user, documentID)
	if err != nil {
		h.handleDocumentError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}

func (h *Handler) handleDocumentError(w http.ResponseWriter, err error) {
	switch err {
	case ErrDocumentNotFound:
		h.WriteError(w, http.StatusNotFound, "document not found")
	case process.ErrProcessNotFound:
		h.WriteError(w, http.StatusNotFound, "process not found")
	case ErrInvalidTransition:
		h.WriteError(w, http.StatusConflict, err.Error())
	case ErrMissingFile, ErrMissingFeedback, ErrFeedbackNotAllowed, ErrInvalidPool:
		h.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.WriteError(w, http.StatusBadRequest, err.Error())
	}
}
