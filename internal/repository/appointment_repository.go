package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/craftday/craftday-api/internal/models"
)

// ErrInvalidTransition is returned for appointment status changes the
// lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid appointment status transition")

type AppointmentRepository interface {
	CreateAppointment(appt models.Appointment) (models.Appointment, error)
	CreateSeries(series []models.Appointment) ([]models.Appointment, error)
	GetAppointment(tenantID, apptID string) (models.Appointment, error)
	ListAppointments(tenantID string, from, to time.Time) ([]models.Appointment, error)
	ListSeries(tenantID, groupID string) ([]models.Appointment, error)
	UpdateStatus(tenantID, apptID string, status models.AppointmentStatus) (models.Appointment, error)
}

type appointmentRepository struct {
	db *sql.DB
}

func NewAppointmentRepository(db *sql.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

const appointmentColumns = `
	id, tenant_id, service_id, customer_name, customer_email, start_time,
	status, notes, is_recurring, recurring_pattern, recurring_end_date,
	parent_appointment_id, recurring_group_id, created_at, updated_at`

func scanAppointment(scan func(...interface{}) error) (models.Appointment, error) {
	var a models.Appointment
	var pattern sql.NullString
	err := scan(
		&a.ID, &a.TenantID, &a.ServiceID, &a.CustomerName, &a.CustomerEmail, &a.StartTime,
		&a.Status, &a.Notes, &a.IsRecurring, &pattern, &a.RecurringEndDate,
		&a.ParentAppointmentID, &a.RecurringGroupID, &a.CreatedAt, &a.UpdatedAt,
	)
	if pattern.Valid {
		a.RecurringPattern = models.RecurrencePattern(pattern.String)
	}
	return a, err
}

func (r *appointmentRepository) CreateAppointment(appt models.Appointment) (models.Appointment, error) {
	const query = `
		INSERT INTO tenant.appointments
			(tenant_id, service_id, customer_name, customer_email, start_time, status, notes,
			 is_recurring, recurring_pattern, recurring_end_date, parent_appointment_id, recurring_group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING` + appointmentColumns + `;
	`
	status := appt.Status
	if status == "" {
		status = models.AppointmentStatusPending
	}
	var pattern interface{}
	if appt.RecurringPattern != "" {
		pattern = string(appt.RecurringPattern)
	}
	return scanAppointment(r.db.QueryRow(query,
		appt.TenantID, appt.ServiceID, appt.CustomerName, appt.CustomerEmail,
		appt.StartTime, status, appt.Notes,
		appt.IsRecurring, pattern, appt.RecurringEndDate,
		appt.ParentAppointmentID, appt.RecurringGroupID).Scan)
}

// CreateSeries inserts a recurring series in one transaction. The first
// element becomes the canonical parent; every later row gets its ID as
// parent_appointment_id. Callers are expected to have stamped a shared
// recurring_group_id on all elements.
func (r *appointmentRepository) CreateSeries(series []models.Appointment) ([]models.Appointment, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("empty appointment series")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO tenant.appointments
			(tenant_id, service_id, customer_name, customer_email, start_time, status, notes,
			 is_recurring, recurring_pattern, recurring_end_date, parent_appointment_id, recurring_group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10, $11)
		RETURNING` + appointmentColumns + `;
	`

	created := make([]models.Appointment, 0, len(series))
	var parentID *string
	for i, appt := range series {
		status := appt.Status
		if status == "" {
			status = models.AppointmentStatusPending
		}
		row, err := scanAppointment(tx.QueryRow(query,
			appt.TenantID, appt.ServiceID, appt.CustomerName, appt.CustomerEmail,
			appt.StartTime, status, appt.Notes,
			string(appt.RecurringPattern), appt.RecurringEndDate,
			parentID, appt.RecurringGroupID).Scan)
		if err != nil {
			return nil, fmt.Errorf("insert occurrence %d: %w", i, err)
		}
		if i == 0 {
			parentID = &row.ID
		}
		created = append(created, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *appointmentRepository) GetAppointment(tenantID, apptID string) (models.Appointment, error) {
	const query = `
		SELECT` + appointmentColumns + `
		FROM tenant.appointments
		WHERE tenant_id = $1 AND id = $2;
	`
	return scanAppointment(r.db.QueryRow(query, tenantID, apptID).Scan)
}

func (r *appointmentRepository) ListAppointments(tenantID string, from, to time.Time) ([]models.Appointment, error) {
	const query = `
		SELECT` + appointmentColumns + `
		FROM tenant.appointments
		WHERE tenant_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC;
	`
	return r.queryAppointments(query, tenantID, from, to)
}

func (r *appointmentRepository) ListSeries(tenantID, groupID string) ([]models.Appointment, error) {
	const query = `
		SELECT` + appointmentColumns + `
		FROM tenant.appointments
		WHERE tenant_id = $1 AND recurring_group_id = $2
		ORDER BY start_time ASC;
	`
	return r.queryAppointments(query, tenantID, groupID)
}

// UpdateStatus applies a lifecycle transition. Cancellation is a status
// change; rows are never deleted here.
func (r *appointmentRepository) UpdateStatus(tenantID, apptID string, status models.AppointmentStatus) (models.Appointment, error) {
	switch status {
	case models.AppointmentStatusConfirmed, models.AppointmentStatusCancelled, models.AppointmentStatusCompleted:
	default:
		return models.Appointment{}, ErrInvalidTransition
	}
	const query = `
		UPDATE tenant.appointments
		SET status = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status NOT IN ('CANCELLED', 'COMPLETED')
		RETURNING` + appointmentColumns + `;
	`
	appt, err := scanAppointment(r.db.QueryRow(query, tenantID, apptID, status).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		if existing, getErr := r.GetAppointment(tenantID, apptID); getErr == nil &&
			(existing.Status == models.AppointmentStatusCancelled || existing.Status == models.AppointmentStatusCompleted) {
			return models.Appointment{}, ErrInvalidTransition
		}
	}
	return appt, err
}

func (r *appointmentRepository) queryAppointments(query string, args ...interface{}) ([]models.Appointment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows.Scan)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, rows.Err()
}
