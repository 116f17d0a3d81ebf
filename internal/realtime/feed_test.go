package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func changeJSON(oldStatus, newStatus string) []byte {
	return []byte(`{
		"op": "UPDATE",
		"old": {"id": "inv-1", "tenant_id": "t1", "invoice_number": "INV-1", "customer_name": "Dana", "total": "25.00", "status": "` + oldStatus + `"},
		"new": {"id": "inv-1", "tenant_id": "t1", "invoice_number": "INV-1", "customer_name": "Dana", "total": "25.00", "status": "` + newStatus + `", "paid_at": "2024-05-01T12:00:00Z"}
	}`)
}

func TestParseChangePaidTransition(t *testing.T) {
	evt, ok, err := parseChange(changeJSON("sent", "paid"))
	if err != nil {
		t.Fatalf("parseChange: %v", err)
	}
	if !ok {
		t.Fatal("sent -> paid should produce an event")
	}
	if evt.TenantID != "t1" || evt.InvoiceID != "inv-1" || evt.InvoiceNumber != "INV-1" {
		t.Errorf("unexpected event identity: %+v", evt)
	}
	if evt.PayerName != "Dana" {
		t.Errorf("PayerName = %q, want Dana", evt.PayerName)
	}
	if evt.Amount.StringFixed(2) != "25.00" {
		t.Errorf("Amount = %s, want 25.00", evt.Amount)
	}
	want := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	if !evt.PaidAt.Equal(want) {
		t.Errorf("PaidAt = %s, want %s", evt.PaidAt, want)
	}
}

func TestParseChangeIgnoresNonPaidTransitions(t *testing.T) {
	cases := [][2]string{
		{"draft", "sent"},
		{"sent", "overdue"},
		{"paid", "paid"}, // idempotent update, not a fresh payment
		{"paid", "void"},
	}
	for _, c := range cases {
		_, ok, err := parseChange(changeJSON(c[0], c[1]))
		if err != nil {
			t.Fatalf("parseChange(%s -> %s): %v", c[0], c[1], err)
		}
		if ok {
			t.Errorf("%s -> %s should not produce an event", c[0], c[1])
		}
	}
}

func TestParseChangeMalformedPayload(t *testing.T) {
	if _, _, err := parseChange([]byte("not json")); err == nil {
		t.Error("malformed payload should error")
	}
}

func TestBrokerDeliversToTenantAndWildcard(t *testing.T) {
	b := newBroker()
	tenantSub := &Subscription{C: make(chan PaymentEvent, 1), tenantID: "t1"}
	wildcardSub := &Subscription{C: make(chan PaymentEvent, 1), tenantID: ""}
	otherSub := &Subscription{C: make(chan PaymentEvent, 1), tenantID: "t2"}
	b.add(tenantSub)
	b.add(wildcardSub)
	b.add(otherSub)

	b.deliver(PaymentEvent{TenantID: "t1", InvoiceID: "inv-1"}, nil)

	select {
	case evt := <-tenantSub.C:
		if evt.InvoiceID != "inv-1" {
			t.Errorf("tenant subscriber got wrong event: %+v", evt)
		}
	default:
		t.Error("tenant subscriber should have received the event")
	}
	select {
	case <-wildcardSub.C:
	default:
		t.Error("wildcard subscriber should have received the event")
	}
	select {
	case evt := <-otherSub.C:
		t.Errorf("other tenant should not receive the event, got %+v", evt)
	default:
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := newBroker()
	sub := &Subscription{C: make(chan PaymentEvent, 1), tenantID: "t1"}
	b.add(sub)

	dropped := 0
	b.deliver(PaymentEvent{TenantID: "t1", InvoiceID: "inv-1"}, func(PaymentEvent) { dropped++ })
	b.deliver(PaymentEvent{TenantID: "t1", InvoiceID: "inv-2"}, func(PaymentEvent) { dropped++ })

	if dropped != 1 {
		t.Errorf("expected 1 drop on a full subscriber, got %d", dropped)
	}
	if evt := <-sub.C; evt.InvoiceID != "inv-1" {
		t.Errorf("first event should survive, got %s", evt.InvoiceID)
	}
}

func TestBrokerRemove(t *testing.T) {
	b := newBroker()
	sub := &Subscription{C: make(chan PaymentEvent, 1), tenantID: "t1"}
	b.add(sub)
	b.remove(sub)

	b.deliver(PaymentEvent{TenantID: "t1"}, nil)
	select {
	case <-sub.C:
		t.Error("removed subscriber should not receive events")
	default:
	}
}

func TestBrokerTenantsExcludesWildcard(t *testing.T) {
	b := newBroker()
	b.add(&Subscription{C: make(chan PaymentEvent, 1), tenantID: "t1"})
	b.add(&Subscription{C: make(chan PaymentEvent, 1), tenantID: ""})

	tenants := b.tenants()
	if len(tenants) != 1 || tenants[0] != "t1" {
		t.Errorf("tenants() = %v, want [t1]", tenants)
	}
}

type fakeReconciler struct {
	events  map[string][]PaymentEvent
	queried []string
}

func (r *fakeReconciler) ListPaidSince(ctx context.Context, tenantID string, since time.Time) ([]PaymentEvent, error) {
	r.queried = append(r.queried, tenantID)
	return r.events[tenantID], nil
}

func reconcileFeed(rec Reconciler) *Feed {
	return &Feed{broker: newBroker(), reconciler: rec, logger: zerolog.Nop()}
}

func TestReconcileReplaysPaymentMissedDuringOutage(t *testing.T) {
	rec := &fakeReconciler{events: map[string][]PaymentEvent{
		"t1": {{
			TenantID:      "t1",
			InvoiceID:     "inv-9",
			InvoiceNumber: "INV-9",
			PayerName:     "Dana",
			Amount:        decimal.RequireFromString("40.00"),
			PaidAt:        time.Now(),
		}},
	}}
	f := reconcileFeed(rec)
	sub := f.Subscribe("t1")
	defer sub.Close()

	f.reconcile()

	select {
	case evt := <-sub.C:
		if evt.InvoiceID != "inv-9" || evt.Amount.StringFixed(2) != "40.00" {
			t.Errorf("unexpected replayed event: %+v", evt)
		}
	default:
		t.Fatal("payment completed during the outage was not replayed")
	}
	select {
	case evt := <-sub.C:
		t.Errorf("payment replayed more than once: %s", evt.InvoiceID)
	default:
	}
}

func TestReconcileQueriesOnlySubscribedTenants(t *testing.T) {
	rec := &fakeReconciler{}
	f := reconcileFeed(rec)
	sub := f.Subscribe("t1")
	defer sub.Close()
	wildcard := f.Subscribe("")
	defer wildcard.Close()

	f.reconcile()

	if len(rec.queried) != 1 || rec.queried[0] != "t1" {
		t.Errorf("queried tenants = %v, want [t1]", rec.queried)
	}
}

func TestReconcileWithoutReconcilerIsNoop(t *testing.T) {
	f := reconcileFeed(nil)
	sub := f.Subscribe("t1")
	defer sub.Close()

	f.reconcile()

	select {
	case evt := <-sub.C:
		t.Errorf("no reconciler, no events, got %+v", evt)
	default:
	}
}
