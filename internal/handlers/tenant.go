package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/notification"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/craftday/craftday-api/internal/terminology"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type TenantHandler struct {
	tenantRepo    repository.TenantRepository
	notifications notification.Service
	logger        zerolog.Logger
}

func NewTenantHandler(tenantRepo repository.TenantRepository, notifications notification.Service, logger zerolog.Logger) *TenantHandler {
	return &TenantHandler{
		tenantRepo:    tenantRepo,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateTenant provisions a demo prospect portal on the starter tier.
func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Slug         string              `json:"slug"`
		DisplayName  string              `json:"display_name"`
		BusinessType models.BusinessType `json:"business_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	payload.Slug = strings.ToLower(strings.TrimSpace(payload.Slug))
	payload.DisplayName = strings.TrimSpace(payload.DisplayName)
	if payload.Slug == "" || payload.DisplayName == "" {
		http.Error(w, "Slug and display name are required", http.StatusBadRequest)
		return
	}
	if payload.BusinessType == "" {
		payload.BusinessType = models.BusinessTypeGeneral
	}

	tenant, err := h.tenantRepo.CreateTenant(payload.Slug, payload.DisplayName, payload.BusinessType)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			http.Error(w, "Slug already in use", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to create tenant", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tenant)
}

// ResolveBySlug is the public portal resolver: tenant record plus the
// vocabulary for its business type.
func (h *TenantHandler) ResolveBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	tenant, err := h.tenantRepo.GetTenantBySlug(slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Tenant not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to resolve tenant", http.StatusInternalServerError)
		return
	}

	response := struct {
		Tenant     models.Tenant          `json:"tenant"`
		Vocabulary terminology.Vocabulary `json:"vocabulary"`
	}{
		Tenant:     tenant,
		Vocabulary: terminology.ForBusinessType(tenant.BusinessType),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ClaimTenant flips a demo prospect to a live portal.
func (h *TenantHandler) ClaimTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}

	tenant, err := h.tenantRepo.ClaimTenant(tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Tenant not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to claim tenant", http.StatusInternalServerError)
		return
	}

	if err := h.notifications.NotifyTenantClaimed(r.Context(), tenant.ID, tenant.DisplayName); err != nil {
		h.logger.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("claim notification failed")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tenant)
}

// UpdateBranding saves the tenant's branding editor output.
func (h *TenantHandler) UpdateBranding(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}

	var branding models.Branding
	if err := json.NewDecoder(r.Body).Decode(&branding); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	tenant, err := h.tenantRepo.UpdateBranding(tenantID, branding)
	if err != nil {
		http.Error(w, "Failed to update branding", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tenant)
}
