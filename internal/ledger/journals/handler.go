package journals

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gestio-erp/gestio-erp/internal/observability"
	"github.com/gestio-erp/gestio-erp/internal/platform/httpx"
	"github.com/gestio-erp/gestio-erp/internal/shared"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service  *Service
	logger   *slog.Logger
	metrics  *observability.Metrics
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{service: service, logger: logger, metrics: metrics, validate: validator.New()}
}

type lineRequest struct {
	AccountID   int64   `json:"account_id" validate:"required,gt=0"`
	Description string  `json:"description"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
}

type createEntryRequest struct {
	Date         string        `json:"date" validate:"required,datetime=2006-01-02"`
	Description  string        `json:"description" validate:"required"`
	SourceModule string        `json:"source_module"`
	SourceID     string        `json:"source_id" validate:"omitempty,uuid"`
	Lines        []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type updateEntryRequest struct {
	Date        string        `json:"date" validate:"required,datetime=2006-01-02"`
	Description string        `json:"description" validate:"required"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type reverseRequest struct {
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description string `json:"description"`
}

type lineResponse struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"account_id"`
	Description string  `json:"description,omitempty"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

type entryResponse struct {
	ID              int64          `json:"id"`
	CompanyID       int64          `json:"company_id"`
	Number          int64          `json:"number"`
	Date            string         `json:"date"`
	Description     string         `json:"description"`
	Status          string         `json:"status"`
	PostDate        *time.Time     `json:"post_date,omitempty"`
	OriginalEntryID *int64         `json:"original_entry_id,omitempty"`
	ReversalEntryID *int64         `json:"reversal_entry_id,omitempty"`
	IsClosing       bool           `json:"is_closing"`
	SourceModule    *string        `json:"source_module,omitempty"`
	SourceID        *uuid.UUID     `json:"source_id,omitempty"`
	CreatedBy       string         `json:"created_by"`
	ReversedBy      *string        `json:"reversed_by,omitempty"`
	ReversedAt      *time.Time     `json:"reversed_at,omitempty"`
	Lines           []lineResponse `json:"lines,omitempty"`
}

func toEntryResponse(e JournalEntry) entryResponse {
	resp := entryResponse{
		ID:              e.ID,
		CompanyID:       e.CompanyID,
		Number:          e.Number,
		Date:            e.Date.Format(dateLayout),
		Description:     e.Description,
		Status:          string(e.Status),
		PostDate:        e.PostDate,
		OriginalEntryID: e.OriginalEntryID,
		ReversalEntryID: e.ReversalEntryID,
		IsClosing:       e.IsClosing,
		SourceModule:    e.SourceModule,
		SourceID:        e.SourceID,
		CreatedBy:       e.CreatedBy,
		ReversedBy:      e.ReversedBy,
		ReversedAt:      e.ReversedAt,
	}
	for _, line := range e.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:          line.ID,
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	return resp
}

func toLineInputsFromRequest(lines []lineRequest) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
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
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)
	input := CreateEntryInput{
		CompanyID:    companyID,
		Date:         date,
		Description:  req.Description,
		CreatedBy:    shared.ActorFromContext(r.Context()),
		SourceModule: req.SourceModule,
		Lines:        toLineInputsFromRequest(req.Lines),
	}
	if req.SourceID != "" {
		sourceID, err := uuid.Parse(req.SourceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid source id")
			return
		}
		input.SourceID = sourceID
	}
	entry, warnings, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("create entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	for _, warning := range warnings {
		h.logger.Warn("entry nature warning", slog.Int64("entry_id", entry.ID), slog.String("warning", warning))
	}
	h.countAction("create")
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"entry":    toEntryResponse(entry),
		"warnings": warnings,
	})
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	entryID, ok := idParam(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Post(r.Context(), companyID, entryID, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("post entry", slog.Int64("entry_id", entryID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.countAction("post")
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	entryID, ok := idParam(w, r)
	if !ok {
		return
	}
	var req reverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	input := ReverseInput{
		CompanyID:   companyID,
		EntryID:     entryID,
		Description: req.Description,
		Actor:       shared.ActorFromContext(r.Context()),
	}
	if req.Date != "" {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		input.Date = date
	}
	reversal, err := h.service.Reverse(r.Context(), input)
	if err != nil {
		h.logger.Warn("reverse entry", slog.Int64("entry_id", entryID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.countAction("reverse")
	httpx.JSON(w, http.StatusCreated, toEntryResponse(reversal))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	entryID, ok := idParam(w, r)
	if !ok {
		return
	}
	var req updateEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)
	entry, warnings, err := h.service.UpdateDraft(r.Context(), UpdateDraftInput{
		CompanyID:   companyID,
		EntryID:     entryID,
		Date:        date,
		Description: req.Description,
		Actor:       shared.ActorFromContext(r.Context()),
		Lines:       toLineInputsFromRequest(req.Lines),
	})
	if err != nil {
		h.logger.Warn("update entry", slog.Int64("entry_id", entryID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entry":    toEntryResponse(entry),
		"warnings": warnings,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	entryID, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDraft(r.Context(), companyID, entryID, shared.ActorFromContext(r.Context())); err != nil {
		h.logger.Warn("delete entry", slog.Int64("entry_id", entryID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	entryID, ok := idParam(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), companyID, entryID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	filter, err := listFilterFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	entries, err := h.service.List(r.Context(), companyID, filter)
	if err != nil {
		h.logger.Error("list entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) countAction(action string) {
	if h.metrics != nil {
		h.metrics.CountEntryAction(action)
	}
}

func listFilterFromQuery(r *http.Request) (ListFilter, error) {
	var filter ListFilter
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ListFilter{}, err
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ListFilter{}, err
		}
		filter.To = &to
	}
	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	return filter, nil
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
