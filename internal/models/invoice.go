package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

// IsTerminal reports whether the status admits no further transitions.
// Paid is terminal: there is no un-paying an invoice in this system.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

// Invoice is a single monetary collection unit, owned exclusively by its
// tenant. Paid transitions arrive from the checkout provider's webhook
// (external) and are observed here through the realtime change feed.
type Invoice struct {
	ID            string          `json:"id" db:"id"`
	TenantID      string          `json:"tenant_id" db:"tenant_id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	CustomerName  string          `json:"customer_name" db:"customer_name"`
	CustomerEmail string          `json:"customer_email" db:"customer_email"`
	AppointmentID *string         `json:"appointment_id,omitempty" db:"appointment_id"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Status        InvoiceStatus   `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	DueAt         *time.Time      `json:"due_at,omitempty" db:"due_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
}

// EffectiveTimestamp is the ordering key for recent-transaction lists:
// the paid time when present, otherwise creation time.
func (i Invoice) EffectiveTimestamp() time.Time {
	if i.PaidAt != nil {
		return *i.PaidAt
	}
	return i.CreatedAt
}
