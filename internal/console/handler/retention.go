package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xela07ax/vms-retention/internal/console/service"
	"github.com/xela07ax/vms-retention/internal/domain"
	"github.com/xela07ax/vms-retention/internal/retention"
	"go.uber.org/zap"
)

type RetentionPolicyHandler struct {
	service  *service.RetentionPolicyService
	registry *retention.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func NewRetentionPolicyHandler(s *service.RetentionPolicyService, reg *retention.Registry, logger *zap.Logger) *RetentionPolicyHandler {
	return &RetentionPolicyHandler{
		service:  s,
		registry: reg,
		logger:   logger.Named("retention-handler"),
		now:      time.Now,
	}
}

// TablePolicyResponse — действующая политика таблицы из кэша реестра.
type TablePolicyResponse struct {
	Policy domain.RetentionPolicy `json:"policy"`
	Cutoff *time.Time             `json:"cutoff,omitempty"` // нет окна — поле отсутствует
}

// Get возвращает политику по её ID.
// GET /v1/retention-policies/{id}
func (h *RetentionPolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.policyID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// List возвращает весь реестр, включая выключенные политики
// GET /v1/retention-policies
func (h *RetentionPolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.GetAll(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(policies))
}

// ListActive — только действующие политики.
// GET /v1/retention-policies/active
func (h *RetentionPolicyHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.GetActive(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(policies))
}

// Create регистрирует политику. policy_id и created_at можно не передавать.
// POST /v1/retention-policies
func (h *RetentionPolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p domain.RetentionPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Location", "/v1/retention-policies/"+created.PolicyID.String())
	writeJSON(w, http.StatusCreated, created)
}

// Update меняет изменяемые поля политики. policy_id и created_at из тела игнорируются.
// PUT /v1/retention-policies/{id}
func (h *RetentionPolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.policyID(w, r)
	if !ok {
		return
	}
	var p domain.RetentionPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(r.Context(), id, p)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete удаляет политику из реестра
// DELETE /v1/retention-policies/{id}
func (h *RetentionPolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.policyID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForTable отвечает из кэша реестра: какая политика сейчас действует для таблицы.
// GET /v1/retention-policies/tables/{table}
func (h *RetentionPolicyHandler) ForTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	p, ok := h.registry.ForTable(table)
	if !ok {
		http.Error(w, "No active retention policy for table", http.StatusNotFound)
		return
	}

	resp := TablePolicyResponse{Policy: p}
	if cutoff, ok := p.Cutoff(h.now()); ok {
		resp.Cutoff = &cutoff
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RetentionPolicyHandler) policyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid policy ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// fail переводит доменные ошибки в HTTP-статусы
func (h *RetentionPolicyHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPolicyNotFound):
		http.Error(w, "Retention policy not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrPolicyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidPolicy), errors.Is(err, domain.ErrUnknownTable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("retention policy request failed", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(p []domain.RetentionPolicy) []domain.RetentionPolicy {
	if p == nil {
		return []domain.RetentionPolicy{}
	}
	return p
}
