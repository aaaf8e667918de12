package reporting

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/regulariza/process-management/internal/process"
	"github.com/regulariza/process-management/internal/transport"
	"github.com/regulariza/process-management/pkg/logger"
)

type ProcessReader interface {
	GetByID(id int64) (*process.Process, error)
}

type ClientNameReader interface {
	GetContactInfo(userID int64) (name string, phone string, smsOptIn bool, err error)
}

type Handler struct {
	*transport.BaseHandler
	Service   *Service
	CRM       *CRMClient
	Processes ProcessReader
	Clients   ClientNameReader
}

func NewHandler(service *Service, crm *CRMClient, processes ProcessReader, clients ClientNameReader) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		CRM:         crm,
		Processes:   processes,
		Clients:     clients,
	}
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Service.Metrics(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}

	h.WriteJSON(w, http.StatusOK, metrics)
}

// Export streams the portfolio as CSV or XLSX depending on ?format.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	now := time.Now()

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename("csv", now)))
		if err := h.Service.ExportCSV(r.Context(), w); err != nil {
			h.Logger.Error("csv export failed", "error", err)
		}
	case "xlsx":
		f, err := h.Service.ExportXLSX(r.Context())
		if err != nil {
			h.WriteError(w, http.StatusInternalServerError, "failed to generate export")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename("xlsx", now)))
		if err := f.Write(w); err != nil {
			h.Logger.Error("xlsx export write failed", "error", err)
		}
	default:
		h.WriteError(w, http.StatusBadRequest, "format must be csv or xlsx")
	}
}

// CRMSync pushes a single process into the CRM pipeline on demand.
func (h *Handler) CRMSync(w http.ResponseWriter, r *http.Request) {
	processID, err := strconv.ParseInt(chi.URLParam(r, "processID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid process ID")
		return
	}

	proc, err := h.Processes.GetByID(processID)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, "process not found")
		return
	}

	clientName, _, _, err := h.Clients.GetContactInfo(proc.ClientID)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, "client not found")
		return
	}

	if err := h.CRM.SyncProcess(r.Context(), proc, clientName); err != nil {
		switch err {
		case ErrCRMMissingAPIKey:
			h.WriteError(w, http.StatusBadGateway, "crm integration not configured")
		default:
			h.WriteError(w, http.StatusBadGateway, "crm sync failed")
		}
		return
	}

	h.WriteNoContent(w)
}
