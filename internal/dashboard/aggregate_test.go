package dashboard

import (
	"testing"
	"time"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/shopspring/decimal"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func paidInvoice(number, total string, paidAt time.Time) models.Invoice {
	return models.Invoice{
		InvoiceNumber: number,
		Status:        models.InvoiceStatusPaid,
		Total:         money(total),
		PaidAt:        &paidAt,
		CreatedAt:     paidAt.Add(-time.Hour),
	}
}

func TestTotalRevenueSumsOnlyPaid(t *testing.T) {
	now := time.Now()
	invoices := []models.Invoice{
		paidInvoice("INV-1", "40.00", now),
		paidInvoice("INV-2", "30.00", now),
		{InvoiceNumber: "INV-3", Status: models.InvoiceStatusSent, Total: money("100.00")},
		{InvoiceNumber: "INV-4", Status: models.InvoiceStatusDraft, Total: money("55.00")},
		{InvoiceNumber: "INV-5", Status: models.InvoiceStatusVoid, Total: money("12.00")},
	}
	if got := TotalRevenue(invoices); !got.Equal(money("70.00")) {
		t.Errorf("TotalRevenue = %s, want 70.00", got)
	}
}

func TestPendingCountExcludesPaidAndDraft(t *testing.T) {
	invoices := []models.Invoice{
		{Status: models.InvoiceStatusSent},
		{Status: models.InvoiceStatusOverdue},
		{Status: models.InvoiceStatusDraft},
		{Status: models.InvoiceStatusPaid},
		{Status: models.InvoiceStatusVoid},
	}
	// Sent, overdue, and void await resolution; drafts were never issued.
	if got := PendingCount(invoices); got != 3 {
		t.Errorf("PendingCount = %d, want 3", got)
	}
}

func TestRecentTransactionsOrderAndLimit(t *testing.T) {
	base := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	var invoices []models.Invoice
	for i := 0; i < 8; i++ {
		invoices = append(invoices, paidInvoice(
			"INV-"+string(rune('A'+i)), "10.00", base.Add(time.Duration(i)*time.Hour)))
	}
	invoices = append(invoices, models.Invoice{
		InvoiceNumber: "INV-SENT", Status: models.InvoiceStatusSent, CreatedAt: base.Add(24 * time.Hour),
	})

	recent := RecentTransactions(invoices, RecentLimit)
	if len(recent) != RecentLimit {
		t.Fatalf("expected %d recent transactions, got %d", RecentLimit, len(recent))
	}
	if recent[0].InvoiceNumber != "INV-H" {
		t.Errorf("most recent should lead, got %s", recent[0].InvoiceNumber)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].EffectiveTimestamp().After(recent[i-1].EffectiveTimestamp()) {
			t.Fatalf("recent transactions out of order at %d", i)
		}
	}
}

func TestRecentTransactionsStableOnTies(t *testing.T) {
	ts := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		paidInvoice("INV-1", "10.00", ts),
		paidInvoice("INV-2", "10.00", ts),
		paidInvoice("INV-3", "10.00", ts),
	}
	recent := RecentTransactions(invoices, RecentLimit)
	for i, want := range []string{"INV-1", "INV-2", "INV-3"} {
		if recent[i].InvoiceNumber != want {
			t.Errorf("tie order changed: position %d = %s, want %s", i, recent[i].InvoiceNumber, want)
		}
	}
}

func TestRecentTransactionsFallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC)
	inv := models.Invoice{InvoiceNumber: "INV-1", Status: models.InvoiceStatusPaid, CreatedAt: created}
	if got := inv.EffectiveTimestamp(); !got.Equal(created) {
		t.Errorf("EffectiveTimestamp without PaidAt = %s, want CreatedAt", got)
	}
}

func TestChallengeProgress(t *testing.T) {
	cases := []struct {
		revenue   string
		challenge string
		want      float64
	}{
		{"0", "first-100", 0},
		{"50", "first-100", 50},
		{"100", "first-100", 100},
		{"250", "first-100", 100}, // capped
		{"125", "first-250", 50},
	}
	for _, tc := range cases {
		if got := ChallengeProgress(money(tc.revenue), tc.challenge); got != tc.want {
			t.Errorf("ChallengeProgress(%s, %s) = %v, want %v", tc.revenue, tc.challenge, got, tc.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		paidInvoice("INV-1", "40.00", now),
		paidInvoice("INV-2", "30.00", now.Add(time.Hour)),
		{InvoiceNumber: "INV-3", Status: models.InvoiceStatusSent, Total: money("25.00")},
	}
	appointments := []models.Appointment{
		{ID: "a-cancelled", Status: models.AppointmentStatusCancelled, StartTime: now.Add(time.Hour)},
		{ID: "a-later", Status: models.AppointmentStatusPending, StartTime: now.Add(48 * time.Hour)},
		{ID: "a-next", Status: models.AppointmentStatusConfirmed, StartTime: now.Add(2 * time.Hour)},
	}

	summary := Summarize(invoices, appointments, "first-100")
	if !summary.TotalRevenue.Equal(money("70.00")) {
		t.Errorf("TotalRevenue = %s, want 70.00", summary.TotalRevenue)
	}
	if summary.PendingInvoices != 1 {
		t.Errorf("PendingInvoices = %d, want 1", summary.PendingInvoices)
	}
	if len(summary.RecentTransactions) != 2 {
		t.Errorf("RecentTransactions = %d, want 2", len(summary.RecentTransactions))
	}
	if summary.ChallengeProgress != 70 {
		t.Errorf("ChallengeProgress = %v, want 70", summary.ChallengeProgress)
	}
	if summary.UpcomingAppointment == nil || summary.UpcomingAppointment.ID != "a-next" {
		t.Errorf("UpcomingAppointment should be the earliest non-cancelled appointment")
	}
}
