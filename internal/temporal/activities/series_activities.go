package activities

import (
	"context"

	"github.com/craftday/craftday-api/internal/checkout"
	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/notification"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/craftday/craftday-api/internal/temporal"
	"github.com/pkg/errors"
	"go.temporal.io/sdk/activity"
)

type Activities struct {
	AppointmentRepo repository.AppointmentRepository
	CatalogRepo     repository.CatalogRepository
	Checkout        *checkout.Client
	Notifications   notification.Service
}

// CreateSeriesActivity inserts the whole series in one transaction: one
// row per occurrence, first row as canonical parent, all rows sharing
// the group ID.
func (a *Activities) CreateSeriesActivity(ctx context.Context, params temporal.SeriesParams) (*temporal.CreateSeriesResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Materializing appointment series",
		"tenantID", params.TenantID, "groupID", params.GroupID, "occurrences", len(params.Occurrences))

	if _, err := a.CatalogRepo.GetService(params.TenantID, params.ServiceID); err != nil {
		return nil, errors.Wrap(err, "failed to fetch service")
	}

	series := make([]models.Appointment, 0, len(params.Occurrences))
	endDate := params.EndDate
	for _, start := range params.Occurrences {
		series = append(series, models.Appointment{
			TenantID:         params.TenantID,
			ServiceID:        params.ServiceID,
			CustomerName:     params.CustomerName,
			CustomerEmail:    params.CustomerEmail,
			StartTime:        start,
			Status:           models.AppointmentStatusPending,
			IsRecurring:      true,
			RecurringPattern: params.Pattern,
			RecurringEndDate: &endDate,
			RecurringGroupID: &params.GroupID,
		})
	}

	created, err := a.AppointmentRepo.CreateSeries(series)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create appointment series")
	}

	return &temporal.CreateSeriesResult{
		FirstAppointmentID: created[0].ID,
		Occurrences:        len(created),
	}, nil
}

// CreateCheckoutSessionActivity creates the provider session for the
// first occurrence's payment; later occurrences are billed per
// occurrence outside this flow.
func (a *Activities) CreateCheckoutSessionActivity(ctx context.Context, params temporal.SeriesParams, firstAppointmentID string) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Creating checkout session for series", "tenantID", params.TenantID, "appointmentID", firstAppointmentID)

	svc, err := a.CatalogRepo.GetService(params.TenantID, params.ServiceID)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch service for pricing")
	}

	session, err := a.Checkout.CreateSession(ctx, checkout.SessionRequest{
		TenantID:      params.TenantID,
		Amount:        svc.Price,
		Method:        checkout.MethodScan,
		AppointmentID: firstAppointmentID,
		CustomerEmail: params.CustomerEmail,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create checkout session")
	}
	return session.CheckoutURL, nil
}

// NotifySeriesActivity records the series_scheduled notification.
func (a *Activities) NotifySeriesActivity(ctx context.Context, params temporal.SeriesParams, occurrences int) error {
	err := a.Notifications.NotifySeriesScheduled(ctx, params.TenantID, params.GroupID, params.ServiceID, occurrences)
	if err != nil {
		activity.GetLogger(ctx).Error("Failed to publish series notification", "error", err)
	}
	return err
}
