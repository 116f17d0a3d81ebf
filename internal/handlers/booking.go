package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/craftday/craftday-api/internal/scheduler"
	"github.com/craftday/craftday-api/internal/temporal"
	"github.com/craftday/craftday-api/internal/tier"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingHandler drives recurring booking: expand the request into
// occurrence times, hand them to the materialization workflow, and
// return the checkout URL for the first occurrence.
type BookingHandler struct {
	tenantRepo repository.TenantRepository
	apptRepo   repository.AppointmentRepository
	runner     temporal.SeriesRunner
	logger     zerolog.Logger
}

func NewBookingHandler(tenantRepo repository.TenantRepository, apptRepo repository.AppointmentRepository, runner temporal.SeriesRunner, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{
		tenantRepo: tenantRepo,
		apptRepo:   apptRepo,
		runner:     runner,
		logger:     logger,
	}
}

func (h *BookingHandler) CreateRecurringBooking(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}

	// Recurrence is a pro feature. The route carries the tier gate too,
	// but the check stays here so a misconfigured route can never leak
	// the capability.
	tenant, err := h.tenantRepo.GetTenantByID(tenantID)
	if err != nil {
		http.Error(w, "Failed to resolve tenant", http.StatusInternalServerError)
		return
	}
	if !tier.HasProAccess(tenant.Tier) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{
			"error":           "upgrade_required",
			"required_tier":   string(tier.Pro),
			"upgrade_message": tier.UpgradeMessage(tier.Pro),
		})
		return
	}

	var req scheduler.SeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	req.TenantID = tenantID
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, end, err := req.ParseWindow(time.UTC)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	occurrences, err := scheduler.ExpandSeries(start, end, req.Pattern)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := temporal.SeriesParams{
		TenantID:      tenantID,
		ServiceID:     req.ServiceID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Pattern:       req.Pattern,
		GroupID:       uuid.NewString(),
		EndDate:       end,
		Occurrences:   occurrences,
	}

	result, err := h.runner.RunSeries(r.Context(), params)
	if err != nil {
		h.logger.Error().Err(err).
			Str("tenant_id", tenantID).
			Str("group_id", params.GroupID).
			Msg("recurring booking workflow failed")
		http.Error(w, "Payment could not be initiated. Please try again.", http.StatusBadGateway)
		return
	}
	if result.CheckoutURL == "" {
		h.logger.Error().
			Str("tenant_id", tenantID).
			Str("group_id", params.GroupID).
			Msg("checkout session returned no URL")
		http.Error(w, "Payment could not be initiated. Please try again.", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(struct {
		CheckoutURL        string `json:"checkout_url"`
		GroupID            string `json:"recurring_group_id"`
		FirstAppointmentID string `json:"first_appointment_id"`
		Occurrences        int    `json:"occurrences"`
	}{
		CheckoutURL:        result.CheckoutURL,
		GroupID:            result.GroupID,
		FirstAppointmentID: result.FirstAppointmentID,
		Occurrences:        result.Occurrences,
	})
}

// ListSeries returns every appointment in a recurring group.
func (h *BookingHandler) ListSeries(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}
	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		http.Error(w, "group_id is required", http.StatusBadRequest)
		return
	}
	appointments, err := h.apptRepo.ListSeries(tenantID, groupID)
	if err != nil {
		http.Error(w, "Failed to list series", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointments)
}
