package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type InvoiceHandler struct {
	repo   repository.InvoiceRepository
	logger zerolog.Logger
}

func NewInvoiceHandler(repo repository.InvoiceRepository, logger zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{repo: repo, logger: logger}
}

func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}

	invoices, err := h.repo.ListInvoices(tenantID, limit)
	if err != nil {
		http.Error(w, "Failed to list invoices", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoices)
}

func (h *InvoiceHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}

	var payload struct {
		InvoiceNumber string     `json:"invoice_number"`
		CustomerName  string     `json:"customer_name"`
		CustomerEmail string     `json:"customer_email"`
		AppointmentID *string    `json:"appointment_id"`
		Total         string     `json:"total"`
		DueAt         *time.Time `json:"due_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	total, err := decimal.NewFromString(strings.TrimSpace(payload.Total))
	if err != nil || !total.IsPositive() {
		http.Error(w, "Invoice total must be a positive amount", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.InvoiceNumber) == "" {
		http.Error(w, "Invoice number is required", http.StatusBadRequest)
		return
	}

	invoice, err := h.repo.CreateDraft(tenantID, models.Invoice{
		InvoiceNumber: strings.TrimSpace(payload.InvoiceNumber),
		CustomerName:  strings.TrimSpace(payload.CustomerName),
		CustomerEmail: strings.TrimSpace(payload.CustomerEmail),
		AppointmentID: payload.AppointmentID,
		Total:         total,
		DueAt:         payload.DueAt,
	})
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			http.Error(w, "Invoice number already exists", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to create invoice", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invoice)
}

// MarkSent moves a draft invoice into collection. Paid invoices are
// terminal and refuse the transition.
func (h *InvoiceHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}
	invoiceID := mux.Vars(r)["invoiceID"]

	invoice, err := h.repo.MarkSent(tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceTerminal) {
			http.Error(w, "Invoice is already settled", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to update invoice", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoice)
}
