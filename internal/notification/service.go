package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Event struct {
	TenantID string
	Event    models.NotificationEvent
	Severity models.NotificationSeverity
	Title    string
	Message  string
	Metadata map[string]interface{}
}

type Service interface {
	Publish(ctx context.Context, evt Event) (models.Notification, error)
	NotifyPaymentConfirmed(ctx context.Context, tenantID, invoiceNumber, payerName string, amount decimal.Decimal) error
	NotifySeriesScheduled(ctx context.Context, tenantID, groupID, serviceID string, occurrences int) error
	NotifyTenantClaimed(ctx context.Context, tenantID, displayName string) error
	ListRecent(ctx context.Context, tenantID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, tenantID, notificationID string) (models.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &service{
		repo:      repo,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

func (s *service) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	if evt.Event == "" {
		return models.Notification{}, fmt.Errorf("event type is required")
	}
	if evt.Severity == "" {
		evt.Severity = models.NotificationSeverityInfo
	}
	title := strings.TrimSpace(evt.Title)
	if title == "" {
		title = string(evt.Event)
	}
	params := repository.CreateNotificationParams{
		Event:    evt.Event,
		Severity: evt.Severity,
		Title:    title,
		Message:  strings.TrimSpace(evt.Message),
		Metadata: evt.Metadata,
	}
	if tid := strings.TrimSpace(evt.TenantID); tid != "" {
		params.TenantID = &tid
	}

	notif, err := s.repo.Create(ctx, params)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Event)).Msg("failed to persist notification")
		return models.Notification{}, err
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			logNotifyError(s.logger, err, notifier.Channel(), notif)
		}
	}
	return notif, nil
}

func (s *service) NotifyPaymentConfirmed(ctx context.Context, tenantID, invoiceNumber, payerName string, amount decimal.Decimal) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("tenant id is required for payment notifications")
	}
	message := fmt.Sprintf("Invoice %s was paid ($%s).", invoiceNumber, amount.StringFixed(2))
	if payerName != "" {
		message = fmt.Sprintf("Invoice %s was paid ($%s) by %s.", invoiceNumber, amount.StringFixed(2), payerName)
	}
	_, err := s.Publish(ctx, Event{
		TenantID: tenantID,
		Event:    models.NotificationEventPaymentConfirmed,
		Severity: models.NotificationSeverityInfo,
		Title:    "Payment received",
		Message:  message,
		Metadata: map[string]interface{}{
			"invoice_number": invoiceNumber,
			"amount":         amount.StringFixed(2),
		},
	})
	return err
}

func (s *service) NotifySeriesScheduled(ctx context.Context, tenantID, groupID, serviceID string, occurrences int) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("tenant id is required for booking notifications")
	}
	_, err := s.Publish(ctx, Event{
		TenantID: tenantID,
		Event:    models.NotificationEventSeriesScheduled,
		Severity: models.NotificationSeverityInfo,
		Title:    "Recurring booking scheduled",
		Message:  fmt.Sprintf("A recurring series of %d appointments was scheduled.", occurrences),
		Metadata: map[string]interface{}{
			"recurring_group_id": groupID,
			"service_id":         serviceID,
			"occurrences":        occurrences,
		},
	})
	return err
}

func (s *service) NotifyTenantClaimed(ctx context.Context, tenantID, displayName string) error {
	_, err := s.Publish(ctx, Event{
		TenantID: tenantID,
		Event:    models.NotificationEventTenantClaimed,
		Severity: models.NotificationSeverityInfo,
		Title:    "Portal activated",
		Message:  fmt.Sprintf("%s is now live.", displayName),
	})
	return err
}

func (s *service) ListRecent(ctx context.Context, tenantID string, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, tenantID, limit)
}

func (s *service) MarkRead(ctx context.Context, tenantID, notificationID string) (models.Notification, error) {
	return s.repo.MarkRead(ctx, tenantID, notificationID)
}
