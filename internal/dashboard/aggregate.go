// Package dashboard computes presentation-ready rollups from invoice and
// appointment rows already fetched from the store. Pure reducers, no
// network calls.
package dashboard

import (
	"sort"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/shopspring/decimal"
)

// RecentLimit caps the recent-transactions list on the owner dashboard.
const RecentLimit = 5

// ChallengeTarget maps a tenant-selected revenue challenge to its goal.
func ChallengeTarget(challengeType string) decimal.Decimal {
	switch challengeType {
	case "first-250":
		return decimal.NewFromInt(250)
	default:
		return decimal.NewFromInt(100)
	}
}

// Summary is the rollup served to the owner dashboard.
type Summary struct {
	TotalRevenue        decimal.Decimal     `json:"total_revenue"`
	PendingInvoices     int                 `json:"pending_invoices"`
	RecentTransactions  []models.Invoice    `json:"recent_transactions"`
	ChallengeProgress   float64             `json:"challenge_progress"`
	UpcomingAppointment *models.Appointment `json:"upcoming_appointment,omitempty"`
}

// TotalRevenue sums the totals of paid invoices.
func TotalRevenue(invoices []models.Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusPaid {
			total = total.Add(inv.Total)
		}
	}
	return total
}

// PendingCount counts invoices awaiting collection: anything not paid
// and not still a draft.
func PendingCount(invoices []models.Invoice) int {
	count := 0
	for _, inv := range invoices {
		switch inv.Status {
		case models.InvoiceStatusPaid, models.InvoiceStatusDraft:
		default:
			count++
		}
	}
	return count
}

// RecentTransactions returns the limit most recent paid invoices ordered
// by paid time (creation time when paid time is absent) descending. The
// sort is stable so equal-timestamp rows keep their fetch order across
// renders.
func RecentTransactions(invoices []models.Invoice, limit int) []models.Invoice {
	paid := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusPaid {
			paid = append(paid, inv)
		}
	}
	sort.SliceStable(paid, func(i, j int) bool {
		return paid[i].EffectiveTimestamp().After(paid[j].EffectiveTimestamp())
	})
	if limit > 0 && len(paid) > limit {
		paid = paid[:limit]
	}
	return paid
}

// ChallengeProgress returns min(100, revenue/target*100) as a
// percentage.
func ChallengeProgress(revenue decimal.Decimal, challengeType string) float64 {
	target := ChallengeTarget(challengeType)
	if target.IsZero() {
		return 0
	}
	pct, _ := revenue.Div(target).Mul(decimal.NewFromInt(100)).Float64()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// Summarize builds the full dashboard rollup for one tenant.
func Summarize(invoices []models.Invoice, appointments []models.Appointment, challengeType string) Summary {
	revenue := TotalRevenue(invoices)
	summary := Summary{
		TotalRevenue:       revenue,
		PendingInvoices:    PendingCount(invoices),
		RecentTransactions: RecentTransactions(invoices, RecentLimit),
		ChallengeProgress:  ChallengeProgress(revenue, challengeType),
	}
	for i := range appointments {
		appt := appointments[i]
		if appt.Status == models.AppointmentStatusCancelled || appt.Status == models.AppointmentStatusCompleted {
			continue
		}
		if summary.UpcomingAppointment == nil || appt.StartTime.Before(summary.UpcomingAppointment.StartTime) {
			summary.UpcomingAppointment = &appt
		}
	}
	return summary
}
