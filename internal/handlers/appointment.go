package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type AppointmentHandler struct {
	repo    repository.AppointmentRepository
	catalog repository.CatalogRepository
	logger  zerolog.Logger
}

func NewAppointmentHandler(repo repository.AppointmentRepository, catalog repository.CatalogRepository, logger zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{repo: repo, catalog: catalog, logger: logger}
}

func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now().AddDate(0, 3, 0)
	if q := r.URL.Query().Get("from"); q != "" {
		if t, err := time.Parse("2006-01-02", q); err == nil {
			from = t
		}
	}
	if q := r.URL.Query().Get("to"); q != "" {
		if t, err := time.Parse("2006-01-02", q); err == nil {
			to = t
		}
	}

	appointments, err := h.repo.ListAppointments(tenantID, from, to)
	if err != nil {
		http.Error(w, "Failed to list appointments", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointments)
}

// CreateAppointment books a single (non-recurring) appointment.
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}

	var payload struct {
		ServiceID     string    `json:"service_id"`
		CustomerName  string    `json:"customer_name"`
		CustomerEmail string    `json:"customer_email"`
		StartTime     time.Time `json:"start_time"`
		Notes         string    `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.ServiceID) == "" || payload.StartTime.IsZero() {
		http.Error(w, "Service and start time are required", http.StatusBadRequest)
		return
	}
	if _, err := h.catalog.GetService(tenantID, payload.ServiceID); err != nil {
		http.Error(w, "Unknown service", http.StatusBadRequest)
		return
	}

	appt, err := h.repo.CreateAppointment(models.Appointment{
		TenantID:      tenantID,
		ServiceID:     payload.ServiceID,
		CustomerName:  strings.TrimSpace(payload.CustomerName),
		CustomerEmail: strings.TrimSpace(payload.CustomerEmail),
		StartTime:     payload.StartTime,
		Notes:         payload.Notes,
	})
	if err != nil {
		http.Error(w, "Failed to create appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

// UpdateStatus applies a staff lifecycle transition (confirm, cancel,
// complete). Cancellation never deletes the row.
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}
	apptID := mux.Vars(r)["appointmentID"]

	var payload struct {
		Status models.AppointmentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	appt, err := h.repo.UpdateStatus(tenantID, apptID, payload.Status)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			http.Error(w, "Invalid status transition", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to update appointment", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// ListServices returns the tenant's bookable catalog.
func (h *AppointmentHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}
	services, err := h.catalog.ListServices(tenantID)
	if err != nil {
		http.Error(w, "Failed to list services", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(services)
}
