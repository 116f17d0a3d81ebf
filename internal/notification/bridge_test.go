package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/realtime"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type recordingService struct {
	payments []string
}

func (s *recordingService) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	return models.Notification{}, nil
}
func (s *recordingService) NotifyPaymentConfirmed(ctx context.Context, tenantID, invoiceNumber, payerName string, amount decimal.Decimal) error {
	s.payments = append(s.payments, invoiceNumber)
	return nil
}
func (s *recordingService) NotifySeriesScheduled(ctx context.Context, tenantID, groupID, serviceID string, occurrences int) error {
	return nil
}
func (s *recordingService) NotifyTenantClaimed(ctx context.Context, tenantID, displayName string) error {
	return nil
}
func (s *recordingService) ListRecent(ctx context.Context, tenantID string, limit int) ([]models.Notification, error) {
	return nil, nil
}
func (s *recordingService) MarkRead(ctx context.Context, tenantID, notificationID string) (models.Notification, error) {
	return models.Notification{}, nil
}

type stubInvoices struct {
	invoice models.Invoice
}

func (s *stubInvoices) GetInvoice(tenantID, invoiceID string) (models.Invoice, error) {
	return s.invoice, nil
}

type stubTenants struct{}

func (s *stubTenants) GetTenantByID(id string) (models.Tenant, error) {
	return models.Tenant{ID: id, DisplayName: "Dana's Pottery"}, nil
}

type recordingMailer struct {
	receipts []string
}

func (m *recordingMailer) SendReceipt(recipientEmail, tenantName, invoiceNumber string, amount decimal.Decimal) error {
	m.receipts = append(m.receipts, invoiceNumber)
	return nil
}

func newTestBridge(svc Service, mailer ReceiptMailer) *PaymentBridge {
	return &PaymentBridge{
		notifications: svc,
		invoices:      &stubInvoices{invoice: models.Invoice{CustomerEmail: "dana@example.com"}},
		tenants:       &stubTenants{},
		mailer:        mailer,
		logger:        zerolog.Nop(),
		seen:          make(map[string]bool),
	}
}

func paymentEvent(invoiceID string) realtime.PaymentEvent {
	return realtime.PaymentEvent{
		TenantID:      "t1",
		InvoiceID:     invoiceID,
		InvoiceNumber: "INV-" + invoiceID,
		PayerName:     "Dana",
		Amount:        decimal.RequireFromString("25.00"),
		PaidAt:        time.Now(),
	}
}

func TestBridgeIgnoresReplayedPaymentEvent(t *testing.T) {
	svc := &recordingService{}
	mailer := &recordingMailer{}
	b := newTestBridge(svc, mailer)

	// A reconnect replays the same invoice the bridge already handled
	// live; it must not produce a second notification or receipt.
	b.handle(paymentEvent("inv-1"))
	b.handle(paymentEvent("inv-1"))

	if len(svc.payments) != 1 {
		t.Errorf("notifications published = %d, want 1", len(svc.payments))
	}
	if len(mailer.receipts) != 1 {
		t.Errorf("receipts sent = %d, want 1", len(mailer.receipts))
	}
}

func TestBridgeProcessesDistinctInvoices(t *testing.T) {
	svc := &recordingService{}
	b := newTestBridge(svc, nil)

	b.handle(paymentEvent("inv-1"))
	b.handle(paymentEvent("inv-2"))

	if len(svc.payments) != 2 {
		t.Errorf("notifications published = %d, want 2", len(svc.payments))
	}
}

func TestBridgeSeenSetStaysBounded(t *testing.T) {
	b := newTestBridge(&recordingService{}, nil)

	for i := 0; i < seenLimit+10; i++ {
		b.markSeen(fmt.Sprintf("inv-%d", i))
	}

	if len(b.seen) != seenLimit || len(b.seenOrder) != seenLimit {
		t.Errorf("seen set size = %d/%d, want %d", len(b.seen), len(b.seenOrder), seenLimit)
	}
	// The oldest entries were evicted and may be recorded again.
	if !b.markSeen("inv-0") {
		t.Error("evicted invoice should be accepted as new")
	}
	if b.markSeen(fmt.Sprintf("inv-%d", seenLimit+9)) {
		t.Error("recent invoice must still be deduplicated")
	}
}
