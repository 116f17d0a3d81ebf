package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

type RecurrencePattern string

const (
	RecurrenceWeekly   RecurrencePattern = "weekly"
	RecurrenceBiweekly RecurrencePattern = "biweekly"
	RecurrenceMonthly  RecurrencePattern = "monthly"
)

// Appointment is one scheduled service occurrence. Recurring series are
// materialized as one row per occurrence; every row after the first
// carries ParentAppointmentID pointing at the first occurrence (a weak
// back-reference, not ownership) and all rows in a series share a
// RecurringGroupID. Appointments are never hard-deleted in normal flow;
// cancellation is a status transition.
type Appointment struct {
	ID                  string            `json:"id" db:"id"`
	TenantID            string            `json:"tenant_id" db:"tenant_id"`
	ServiceID           string            `json:"service_id" db:"service_id"`
	CustomerName        string            `json:"customer_name" db:"customer_name"`
	CustomerEmail       string            `json:"customer_email" db:"customer_email"`
	StartTime           time.Time         `json:"start_time" db:"start_time"`
	Status              AppointmentStatus `json:"status" db:"status"`
	Notes               string            `json:"notes" db:"notes"`
	IsRecurring         bool              `json:"is_recurring" db:"is_recurring"`
	RecurringPattern    RecurrencePattern `json:"recurring_pattern,omitempty" db:"recurring_pattern"`
	RecurringEndDate    *time.Time        `json:"recurring_end_date,omitempty" db:"recurring_end_date"`
	ParentAppointmentID *string           `json:"parent_appointment_id,omitempty" db:"parent_appointment_id"`
	RecurringGroupID    *string           `json:"recurring_group_id,omitempty" db:"recurring_group_id"`
	CreatedAt           time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" db:"updated_at"`
}

// Service is a bookable offering in the tenant's catalog.
type Service struct {
	ID              string          `json:"id" db:"id"`
	TenantID        string          `json:"tenant_id" db:"tenant_id"`
	Name            string          `json:"name" db:"name"`
	Price           decimal.Decimal `json:"price" db:"price"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
