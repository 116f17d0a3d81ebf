package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/dashboard"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/rs/zerolog"
)

// dashboardInvoiceWindow bounds how many invoice rows feed the rollup.
const dashboardInvoiceWindow = 500

type DashboardHandler struct {
	tenantRepo  repository.TenantRepository
	invoiceRepo repository.InvoiceRepository
	apptRepo    repository.AppointmentRepository
	logger      zerolog.Logger
}

func NewDashboardHandler(tenantRepo repository.TenantRepository, invoiceRepo repository.InvoiceRepository, apptRepo repository.AppointmentRepository, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		tenantRepo:  tenantRepo,
		invoiceRepo: invoiceRepo,
		apptRepo:    apptRepo,
		logger:      logger,
	}
}

// GetSummary serves the owner dashboard rollup: total revenue, pending
// invoice count, recent transactions, challenge progress, and the next
// upcoming appointment.
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}

	tenant, err := h.tenantRepo.GetTenantByID(tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Tenant not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to resolve tenant", http.StatusInternalServerError)
		return
	}

	invoices, err := h.invoiceRepo.ListInvoices(tenantID, dashboardInvoiceWindow)
	if err != nil {
		h.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("dashboard invoice fetch failed")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	appointments, err := h.apptRepo.ListAppointments(tenantID, now, now.AddDate(0, 3, 0))
	if err != nil {
		h.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("dashboard appointment fetch failed")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	summary := dashboard.Summarize(invoices, appointments, tenant.ChallengeType)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
