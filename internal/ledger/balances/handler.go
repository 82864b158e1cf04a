package balances

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestio-erp/gestio-erp/internal/observability"
	"github.com/gestio-erp/gestio-erp/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *Service
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{service: service, logger: logger, metrics: metrics}
}

func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	upTo, ok := cutoffParam(w, r)
	if !ok {
		return
	}
	totals, err := h.service.AllAccountBalances(r.Context(), companyID, upTo)
	if err != nil {
		h.logger.Error("all balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"balances": totals})
}

func (h *Handler) ByType(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	upTo, ok := cutoffParam(w, r)
	if !ok {
		return
	}
	totals, err := h.service.BalanceByType(r.Context(), companyID, upTo)
	if err != nil {
		h.logger.Error("balances by type", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"by_type": totals})
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	accountID, ok := idParam(w, r)
	if !ok {
		return
	}
	upTo, ok := cutoffParam(w, r)
	if !ok {
		return
	}
	balance, err := h.service.AccountBalance(r.Context(), companyID, accountID, upTo)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) Opening(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	accountID, ok := idParam(w, r)
	if !ok {
		return
	}
	periodStart, err := time.Parse(dateLayout, r.URL.Query().Get("period_start"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "period_start must be YYYY-MM-DD")
		return
	}
	balance, err := h.service.OpeningBalance(r.Context(), companyID, accountID, periodStart)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) Equation(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	upTo, ok := cutoffParam(w, r)
	if !ok {
		return
	}
	report, err := h.service.VerifyEquation(r.Context(), companyID, upTo)
	if err != nil {
		h.logger.Error("verify equation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SetEquationDrift(companyID, report.Difference)
	}
	if !report.IsBalanced {
		h.logger.Warn("accounting equation drift",
			slog.Int64("company_id", companyID),
			slog.Float64("difference", report.Difference))
	}
	httpx.JSON(w, http.StatusOK, report)
}

func cutoffParam(w http.ResponseWriter, r *http.Request) (*time.Time, bool) {
	raw := r.URL.Query().Get("upto")
	if raw == "" {
		return nil, true
	}
	upTo, err := time.Parse(dateLayout, raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "upto must be YYYY-MM-DD")
		return nil, false
	}
	return &upTo, true
}

func companyParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return 0, false
	}
	return id, true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
