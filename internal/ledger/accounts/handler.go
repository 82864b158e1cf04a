package accounts

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

type createRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Nature   string `json:"nature" validate:"required,oneof=DEBIT CREDIT"`
	ParentID *int64 `json:"parent_id"`
}

type updateRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Type        *string `json:"type" validate:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Nature      *string `json:"nature" validate:"omitempty,oneof=DEBIT CREDIT"`
	ParentID    *int64  `json:"parent_id"`
	ClearParent bool    `json:"clear_parent"`
}

type accountResponse struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Nature    string    `json:"nature"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type treeNodeResponse struct {
	accountResponse
	Children []treeNodeResponse `json:"children,omitempty"`
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		CompanyID: a.CompanyID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		Nature:    string(a.Nature),
		ParentID:  a.ParentID,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toTreeResponse(nodes []*TreeNode) []treeNodeResponse {
	out := make([]treeNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, treeNodeResponse{
			accountResponse: toAccountResponse(node.Account),
			Children:        toTreeResponse(node.Children),
		})
	}
	return out
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	account, err := h.service.Create(r.Context(), CreateAccountInput{
		CompanyID: companyID,
		Code:      req.Code,
		Name:      req.Name,
		Type:      AccountType(req.Type),
		Nature:    Nature(req.Nature),
		ParentID:  req.ParentID,
	})
	if err != nil {
		h.logger.Warn("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	accountID, ok := idParam(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	in := UpdateAccountInput{
		Code:        req.Code,
		Name:        req.Name,
		ParentID:    req.ParentID,
		ClearParent: req.ClearParent,
	}
	if req.Type != nil {
		t := AccountType(*req.Type)
		in.Type = &t
	}
	if req.Nature != nil {
		n := Nature(*req.Nature)
		in.Nature = &n
	}
	account, err := h.service.Update(r.Context(), companyID, accountID, in)
	if err != nil {
		h.logger.Warn("update account", slog.Int64("account_id", accountID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	accountID, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), companyID, accountID); err != nil {
		h.logger.Warn("deactivate account", slog.Int64("account_id", accountID), slog.Any("error", err))
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
	accountID, ok := idParam(w, r)
	if !ok {
		return
	}
	account, err := h.service.Get(r.Context(), companyID, accountID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	accounts, err := h.service.List(r.Context(), companyID, activeOnly)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	tree, err := h.service.Tree(r.Context(), companyID)
	if err != nil {
		h.logger.Error("account tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tree": toTreeResponse(tree)})
}

func (h *Handler) NextCode(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyParam(w, r)
	if !ok {
		return
	}
	t := AccountType(r.URL.Query().Get("type"))
	if !t.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown account type")
		return
	}
	code, err := h.service.SuggestNextCode(r.Context(), companyID, t)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"code": code})
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
