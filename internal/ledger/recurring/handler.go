package recurring

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
	"github.com/gestio-erp/gestio-erp/internal/platform/httpx"
	"github.com/gestio-erp/gestio-erp/internal/shared"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

type templateLineRequest struct {
	AccountID   int64   `json:"account_id" validate:"required,gt=0"`
	Description string  `json:"description"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
}

type createTemplateRequest struct {
	Name        string                `json:"name" validate:"required"`
	Description string                `json:"description"`
	Frequency   string                `json:"frequency" validate:"required,oneof=MONTHLY BIMONTHLY QUARTERLY SEMIANNUAL ANNUAL"`
	StartDate   string                `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string                `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Lines       []templateLineRequest `json:"lines" validate:"required,min=2,dive"`
}

type updateTemplateRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Frequency   *string               `json:"frequency" validate:"omitempty,oneof=MONTHLY BIMONTHLY QUARTERLY SEMIANNUAL ANNUAL"`
	EndDate     *string               `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ClearEnd    bool                  `json:"clear_end"`
	Lines       []templateLineRequest `json:"lines" validate:"omitempty,min=2,dive"`
}

type templateLineResponse struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"account_id"`
	Description string  `json:"description,omitempty"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

type templateResponse struct {
	ID            int64                  `json:"id"`
	CompanyID     int64                  `json:"company_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Frequency     string                 `json:"frequency"`
	StartDate     string                 `json:"start_date"`
	NextDueDate   string                 `json:"next_due_date"`
	LastGenerated *string                `json:"last_generated,omitempty"`
	EndDate       *string                `json:"end_date,omitempty"`
	IsActive      bool                   `json:"is_active"`
	Lines         []templateLineResponse `json:"lines,omitempty"`
}

func toTemplateResponse(t Template) templateResponse {
	resp := templateResponse{
		ID:          t.ID,
		CompanyID:   t.CompanyID,
		Name:        t.Name,
		Description: t.Description,
		Frequency:   string(t.Frequency),
		StartDate:   t.StartDate.Format(dateLayout),
		NextDueDate: t.NextDueDate.Format(dateLayout),
		IsActive:    t.IsActive,
	}
	if t.LastGenerated != nil {
		v := t.LastGenerated.Format(dateLayout)
		resp.LastGenerated = &v
	}
	if t.EndDate != nil {
		v := t.EndDate.Format(dateLayout)
		resp.EndDate = &v
	}
	for _, line := range t.Lines {
		resp.Lines = append(resp.Lines, templateLineResponse{
			ID:          line.ID,
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	return resp
}

func toJournalLineInputs(lines []templateLineRequest) []journals.LineInput {
	out := make([]journals.LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, journals.LineInput{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	return out
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	var req createTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	startDate, _ := time.Parse(dateLayout, req.StartDate)
	input := CreateTemplateInput{
		CompanyID:   companyID,
		Name:        req.Name,
		Description: req.Description,
		Frequency:   Frequency(req.Frequency),
		StartDate:   startDate,
		CreatedBy:   shared.ActorFromContext(r.Context()),
		Lines:       toJournalLineInputs(req.Lines),
	}
	if req.EndDate != "" {
		endDate, _ := time.Parse(dateLayout, req.EndDate)
		input.EndDate = &endDate
	}
	template, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("create template", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTemplateResponse(template))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	templateID, ok := idParam(w, r)
	if !ok {
		return
	}
	var req updateTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	input := UpdateTemplateInput{Name: req.Name, Description: req.Description, ClearEnd: req.ClearEnd}
	if req.Frequency != nil {
		f := Frequency(*req.Frequency)
		input.Frequency = &f
	}
	if req.EndDate != nil {
		endDate, _ := time.Parse(dateLayout, *req.EndDate)
		input.EndDate = &endDate
	}
	if req.Lines != nil {
		input.Lines = toJournalLineInputs(req.Lines)
	}
	template, err := h.service.Update(r.Context(), companyID, templateID, input)
	if err != nil {
		h.logger.Warn("update template", slog.Int64("template_id", templateID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTemplateResponse(template))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	templateID, ok := idParam(w, r)
	if !ok {
		return
	}
	template, err := h.service.Get(r.Context(), companyID, templateID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTemplateResponse(template))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	templates, err := h.service.List(r.Context(), companyID, activeOnly)
	if err != nil {
		h.logger.Error("list templates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": out})
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	templateID, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), companyID, templateID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	templateID, ok := idParam(w, r)
	if !ok {
		return
	}
	entry, err := h.service.GenerateOne(r.Context(), companyID, templateID, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("generate entry", slog.Int64("template_id", templateID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"entry_id":     entry.ID,
		"entry_number": entry.Number,
		"date":         entry.Date.Format(dateLayout),
	})
}

func (h *Handler) GenerateAll(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	result, err := h.service.GenerateAllPending(r.Context(), companyID)
	if err != nil {
		h.logger.Error("generate pending", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if len(result.Failures) > 0 {
		h.logger.Warn("generation failures",
			slog.Int64("company_id", companyID),
			slog.Int("failed", len(result.Failures)))
	}
	httpx.JSON(w, http.StatusOK, result)
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
