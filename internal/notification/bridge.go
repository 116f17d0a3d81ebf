package notification

import (
	"context"
	"time"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/realtime"
	"github.com/rs/zerolog"
)

// bridgeTimeout bounds the work done for one payment event.
const bridgeTimeout = 15 * time.Second

// seenLimit bounds the dedup set. Reconnect reconciliation replays at
// most a few minutes of payments, so a small window is enough.
const seenLimit = 512

// InvoiceGetter is the slice of the invoice repository the bridge needs
// to find the payer's email for receipts.
type InvoiceGetter interface {
	GetInvoice(tenantID, invoiceID string) (models.Invoice, error)
}

// TenantGetter resolves the tenant display name for receipt emails.
type TenantGetter interface {
	GetTenantByID(id string) (models.Tenant, error)
}

// PaymentBridge turns invoice feed events into tenant notifications and
// customer receipts. It holds a subscribe-all feed subscription, so a
// payment is recorded whether or not the tenant has a terminal open.
type PaymentBridge struct {
	sub           *realtime.Subscription
	notifications Service
	invoices      InvoiceGetter
	tenants       TenantGetter
	mailer        ReceiptMailer
	logger        zerolog.Logger

	// seen/seenOrder dedup invoice IDs across the feed's reconnect
	// replays. Only the run goroutine touches them.
	seen      map[string]bool
	seenOrder []string

	done     chan struct{}
	loopDone chan struct{}
}

// NewPaymentBridge subscribes to the feed and starts consuming. The
// mailer may be nil; receipts are then skipped.
func NewPaymentBridge(feed *realtime.Feed, notifications Service, invoices InvoiceGetter, tenants TenantGetter, mailer ReceiptMailer, logger zerolog.Logger) *PaymentBridge {
	b := &PaymentBridge{
		sub:           feed.Subscribe(""),
		notifications: notifications,
		invoices:      invoices,
		tenants:       tenants,
		mailer:        mailer,
		logger:        logger.With().Str("component", "payment_bridge").Logger(),
		seen:          make(map[string]bool),
		done:          make(chan struct{}),
		loopDone:      make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *PaymentBridge) run() {
	defer close(b.loopDone)
	for {
		select {
		case evt := <-b.sub.C:
			b.handle(evt)
		case <-b.done:
			return
		}
	}
}

// markSeen records an invoice ID, reporting false if it was already
// recorded. The set evicts oldest-first once it reaches seenLimit.
func (b *PaymentBridge) markSeen(invoiceID string) bool {
	if b.seen[invoiceID] {
		return false
	}
	b.seen[invoiceID] = true
	b.seenOrder = append(b.seenOrder, invoiceID)
	if len(b.seenOrder) > seenLimit {
		delete(b.seen, b.seenOrder[0])
		b.seenOrder = b.seenOrder[1:]
	}
	return true
}

func (b *PaymentBridge) handle(evt realtime.PaymentEvent) {
	if !b.markSeen(evt.InvoiceID) {
		b.logger.Debug().Str("invoice_id", evt.InvoiceID).Msg("duplicate payment event ignored")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()

	if err := b.notifications.NotifyPaymentConfirmed(ctx, evt.TenantID, evt.InvoiceNumber, evt.PayerName, evt.Amount); err != nil {
		b.logger.Error().Err(err).
			Str("tenant_id", evt.TenantID).
			Str("invoice_id", evt.InvoiceID).
			Msg("payment notification failed")
	}

	if b.mailer == nil {
		return
	}
	invoice, err := b.invoices.GetInvoice(evt.TenantID, evt.InvoiceID)
	if err != nil {
		b.logger.Warn().Err(err).Str("invoice_id", evt.InvoiceID).Msg("receipt lookup failed")
		return
	}
	if invoice.CustomerEmail == "" {
		return
	}
	tenantName := ""
	if tenant, err := b.tenants.GetTenantByID(evt.TenantID); err == nil {
		tenantName = tenant.DisplayName
	}
	if err := b.mailer.SendReceipt(invoice.CustomerEmail, tenantName, evt.InvoiceNumber, evt.Amount); err != nil {
		b.logger.Warn().Err(err).Str("invoice_id", evt.InvoiceID).Msg("receipt email failed")
	}
}

// Close stops the bridge and releases its feed subscription.
func (b *PaymentBridge) Close() {
	close(b.done)
	b.sub.Close()
	<-b.loopDone
}
