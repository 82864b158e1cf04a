package fiscal

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gestio-erp/gestio-erp/internal/observability"
	"github.com/gestio-erp/gestio-erp/internal/platform/httpx"
	"github.com/gestio-erp/gestio-erp/internal/shared"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{service: service, logger: logger, metrics: metrics}
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	preview, err := h.service.PreviewClose(r.Context(), companyID)
	if err != nil {
		h.logger.Warn("preview close", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	entry, err := h.service.CloseFiscalYear(r.Context(), companyID, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("close fiscal year", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.CountEntryAction("close")
	}
	h.logger.Info("fiscal year closed",
		slog.Int64("company_id", companyID),
		slog.Int64("entry_number", entry.Number))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"entry_id":     entry.ID,
		"entry_number": entry.Number,
		"date":         entry.Date.Format("2006-01-02"),
		"lines":        len(entry.Lines),
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	status, err := h.service.Status(r.Context(), companyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/status", h.Status)
	r.Get("/close/preview", h.Preview)
	r.Post("/close", h.Close)
}

func companyParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return 0, false
	}
	return id, true
}
