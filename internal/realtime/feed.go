// Package realtime delivers invoice change events pushed by Postgres.
// A trigger on the invoices table NOTIFYs row snapshots on UPDATE; the
// feed turns not-paid -> paid transitions into immutable PaymentEvents
// and fans them out to per-tenant subscribers.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/shopspring/decimal"
)

// PaymentEvent is the canonical "payment succeeded" signal: an invoice
// UPDATE where the previous status was not paid and the new status is
// paid. Payloads are value types; consumers never share mutable state
// with the feed.
type PaymentEvent struct {
	TenantID      string
	InvoiceID     string
	InvoiceNumber string
	PayerName     string
	Amount        decimal.Decimal
	PaidAt        time.Time
}

// invoiceRow is the subset of invoice columns the trigger serializes.
type invoiceRow struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	PaidAt        *time.Time      `json:"paid_at"`
}

type changePayload struct {
	Op  string     `json:"op"`
	Old invoiceRow `json:"old"`
	New invoiceRow `json:"new"`
}

// Subscription is one consumer's handle on the feed. C never closes
// while the subscription is open; Close detaches it from the feed.
type Subscription struct {
	C chan PaymentEvent

	feed     *Feed
	tenantID string
	once     sync.Once
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.feed.unsubscribe(s)
	})
}

const subscriptionBuffer = 16

// broker owns the subscriber table shared by the live listener and the
// tests.
type broker struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[string]map[*Subscription]struct{})}
}

func (b *broker) add(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[s.tenantID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[s.tenantID] = set
	}
	set[s] = struct{}{}
}

func (b *broker) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[s.tenantID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, s.tenantID)
		}
	}
}

// tenants returns the tenant IDs with at least one live subscription,
// excluding the wildcard.
func (b *broker) tenants() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.subs))
	for id := range b.subs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// deliver sends evt to the event's tenant subscribers and to wildcard
// subscribers. Sends never block: a consumer that stopped draining its
// channel loses events rather than stalling the feed.
func (b *broker) deliver(evt PaymentEvent, onDrop func(PaymentEvent)) {
	b.mu.Lock()
	targets := make([]*Subscription, 0, 4)
	for _, key := range []string{evt.TenantID, ""} {
		for s := range b.subs[key] {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		select {
		case s.C <- evt:
		default:
			if onDrop != nil {
				onDrop(evt)
			}
		}
	}
}

// parseChange extracts a PaymentEvent from a trigger payload, returning
// false for anything that is not a fresh paid transition.
func parseChange(raw []byte) (PaymentEvent, bool, error) {
	var change changePayload
	if err := json.Unmarshal(raw, &change); err != nil {
		return PaymentEvent{}, false, err
	}
	paid := string(models.InvoiceStatusPaid)
	if change.New.Status != paid || change.Old.Status == paid {
		return PaymentEvent{}, false, nil
	}
	paidAt := time.Now()
	if change.New.PaidAt != nil {
		paidAt = *change.New.PaidAt
	}
	return PaymentEvent{
		TenantID:      change.New.TenantID,
		InvoiceID:     change.New.ID,
		InvoiceNumber: change.New.InvoiceNumber,
		PayerName:     change.New.CustomerName,
		Amount:        change.New.Total,
		PaidAt:        paidAt,
	}, true, nil
}
