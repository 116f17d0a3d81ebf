package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/realtime"
	"github.com/shopspring/decimal"
)

// ErrInvoiceTerminal is returned for mutations against a paid or void
// invoice. Paid is terminal; there is no un-paying.
var ErrInvoiceTerminal = errors.New("invoice is in a terminal status")

type InvoiceRepository interface {
	CreateDraft(tenantID string, inv models.Invoice) (models.Invoice, error)
	GetInvoice(tenantID, invoiceID string) (models.Invoice, error)
	ListInvoices(tenantID string, limit int) ([]models.Invoice, error)
	MarkSent(tenantID, invoiceID string) (models.Invoice, error)

	// ListPaidSince backs reconnect reconciliation on the change feed.
	ListPaidSince(ctx context.Context, tenantID string, since time.Time) ([]realtime.PaymentEvent, error)
}

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `
	id, tenant_id, invoice_number, customer_name, customer_email,
	appointment_id, total, status, created_at, due_at, paid_at`

func scanInvoice(scan func(...interface{}) error) (models.Invoice, error) {
	var inv models.Invoice
	err := scan(
		&inv.ID, &inv.TenantID, &inv.InvoiceNumber, &inv.CustomerName, &inv.CustomerEmail,
		&inv.AppointmentID, &inv.Total, &inv.Status, &inv.CreatedAt, &inv.DueAt, &inv.PaidAt,
	)
	return inv, err
}

func (r *invoiceRepository) CreateDraft(tenantID string, inv models.Invoice) (models.Invoice, error) {
	const query = `
		INSERT INTO tenant.invoices
			(tenant_id, invoice_number, customer_name, customer_email, appointment_id, total, status, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'draft', $7)
		RETURNING` + invoiceColumns + `;
	`
	return scanInvoice(r.db.QueryRow(query,
		tenantID, inv.InvoiceNumber, inv.CustomerName, inv.CustomerEmail,
		inv.AppointmentID, inv.Total, inv.DueAt).Scan)
}

func (r *invoiceRepository) GetInvoice(tenantID, invoiceID string) (models.Invoice, error) {
	const query = `
		SELECT` + invoiceColumns + `
		FROM tenant.invoices
		WHERE tenant_id = $1 AND id = $2;
	`
	return scanInvoice(r.db.QueryRow(query, tenantID, invoiceID).Scan)
}

func (r *invoiceRepository) ListInvoices(tenantID string, limit int) ([]models.Invoice, error) {
	const query = `
		SELECT` + invoiceColumns + `
		FROM tenant.invoices
		WHERE tenant_id = $1
		ORDER BY COALESCE(paid_at, created_at) DESC
		LIMIT $2;
	`
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// MarkSent moves a draft to sent. The WHERE clause excludes terminal
// statuses so a paid invoice can never regress.
func (r *invoiceRepository) MarkSent(tenantID, invoiceID string) (models.Invoice, error) {
	const query = `
		UPDATE tenant.invoices
		SET status = 'sent'
		WHERE tenant_id = $1 AND id = $2 AND status NOT IN ('paid', 'void')
		RETURNING` + invoiceColumns + `;
	`
	inv, err := scanInvoice(r.db.QueryRow(query, tenantID, invoiceID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		// Row exists but is terminal, or does not exist at all.
		if existing, getErr := r.GetInvoice(tenantID, invoiceID); getErr == nil && existing.Status.IsTerminal() {
			return models.Invoice{}, ErrInvoiceTerminal
		}
		return models.Invoice{}, err
	}
	return inv, err
}

func (r *invoiceRepository) ListPaidSince(ctx context.Context, tenantID string, since time.Time) ([]realtime.PaymentEvent, error) {
	const query = `
		SELECT id, tenant_id, invoice_number, customer_name, total, paid_at
		FROM tenant.invoices
		WHERE tenant_id = $1 AND status = 'paid' AND paid_at >= $2
		ORDER BY paid_at ASC;
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []realtime.PaymentEvent
	for rows.Next() {
		var evt realtime.PaymentEvent
		var total decimal.Decimal
		var paidAt time.Time
		if err := rows.Scan(&evt.InvoiceID, &evt.TenantID, &evt.InvoiceNumber, &evt.PayerName, &total, &paidAt); err != nil {
			return nil, err
		}
		evt.Amount = total
		evt.PaidAt = paidAt
		events = append(events, evt)
	}
	return events, rows.Err()
}
