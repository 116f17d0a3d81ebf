package workflows

import (
	"github.com/craftday/craftday-api/internal/temporal"
	"github.com/craftday/craftday-api/internal/temporal/activities"
	"go.temporal.io/sdk/workflow"
)

// RecurringBookingWorkflow materializes a recurring appointment series
// and creates the checkout session for the first occurrence. Row
// creation is transactional inside its activity, so a checkout failure
// after materialization leaves a consistent series (rows exist, payment
// retried later through the invoice flow) and a materialization failure
// leaves nothing behind.
func RecurringBookingWorkflow(ctx workflow.Context, params temporal.SeriesParams) (temporal.SeriesResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: temporal.DefaultActivityTimeout,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	logger.Info("Starting recurring booking workflow",
		"TenantID", params.TenantID, "GroupID", params.GroupID, "Occurrences", len(params.Occurrences))

	var a *activities.Activities

	// Step 1: Materialize one appointment row per occurrence.
	var created temporal.CreateSeriesResult
	err := workflow.ExecuteActivity(ctx, a.CreateSeriesActivity, params).Get(ctx, &created)
	if err != nil {
		logger.Error("Failed to materialize appointment series.", "error", err)
		return temporal.SeriesResult{}, err
	}

	// Step 2: Create the checkout session for the first occurrence.
	var checkoutURL string
	err = workflow.ExecuteActivity(ctx, a.CreateCheckoutSessionActivity, params, created.FirstAppointmentID).Get(ctx, &checkoutURL)
	if err != nil {
		logger.Error("Failed to create checkout session for series.", "error", err)
		return temporal.SeriesResult{}, err
	}

	// Step 3: Record the booking notification. Best effort; the series
	// and checkout already exist.
	if err := workflow.ExecuteActivity(ctx, a.NotifySeriesActivity, params, created.Occurrences).Get(ctx, nil); err != nil {
		logger.Warn("Failed to publish series notification.", "error", err)
	}

	logger.Info("Recurring booking workflow completed.", "GroupID", params.GroupID)
	return temporal.SeriesResult{
		CheckoutURL:        checkoutURL,
		GroupID:            params.GroupID,
		FirstAppointmentID: created.FirstAppointmentID,
		Occurrences:        created.Occurrences,
	}, nil
}
