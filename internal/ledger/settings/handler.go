package settings

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gestio-erp/gestio-erp/internal/platform/httpx"
)

type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

type upsertRequest struct {
	FiscalYearStart     string `json:"fiscal_year_start" validate:"required,datetime=2006-01-02"`
	FiscalYearEnd       string `json:"fiscal_year_end" validate:"required,datetime=2006-01-02"`
	ResultAccountID     *int64 `json:"result_account_id"`
	SalesAccountID      *int64 `json:"sales_account_id"`
	PurchasesAccountID  *int64 `json:"purchases_account_id"`
	ReceivableAccountID *int64 `json:"receivable_account_id"`
	PayableAccountID    *int64 `json:"payable_account_id"`
}

type settingsResponse struct {
	CompanyID           int64  `json:"company_id"`
	FiscalYearStart     string `json:"fiscal_year_start"`
	FiscalYearEnd       string `json:"fiscal_year_end"`
	LastEntryNumber     int64  `json:"last_entry_number"`
	ResultAccountID     *int64 `json:"result_account_id,omitempty"`
	SalesAccountID      *int64 `json:"sales_account_id,omitempty"`
	PurchasesAccountID  *int64 `json:"purchases_account_id,omitempty"`
	ReceivableAccountID *int64 `json:"receivable_account_id,omitempty"`
	PayableAccountID    *int64 `json:"payable_account_id,omitempty"`
}

func toSettingsResponse(s Settings) settingsResponse {
	return settingsResponse{
		CompanyID:           s.CompanyID,
		FiscalYearStart:     s.FiscalYearStart.Format("2006-01-02"),
		FiscalYearEnd:       s.FiscalYearEnd.Format("2006-01-02"),
		LastEntryNumber:     s.LastEntryNumber,
		ResultAccountID:     s.ResultAccountID,
		SalesAccountID:      s.SalesAccountID,
		PurchasesAccountID:  s.PurchasesAccountID,
		ReceivableAccountID: s.ReceivableAccountID,
		PayableAccountID:    s.PayableAccountID,
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	s, err := h.service.Get(r.Context(), companyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(s))
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	var req upsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	start, _ := time.Parse("2006-01-02", req.FiscalYearStart)
	end, _ := time.Parse("2006-01-02", req.FiscalYearEnd)
	s, err := h.service.Upsert(r.Context(), UpsertInput{
		CompanyID:           companyID,
		FiscalYearStart:     start,
		FiscalYearEnd:       end,
		ResultAccountID:     req.ResultAccountID,
		SalesAccountID:      req.SalesAccountID,
		PurchasesAccountID:  req.PurchasesAccountID,
		ReceivableAccountID: req.ReceivableAccountID,
		PayableAccountID:    req.PayableAccountID,
	})
	if err != nil {
		h.logger.Warn("upsert settings", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(s))
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Upsert)
}

func companyParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company id")
		return 0, false
	}
	return id, true
}
