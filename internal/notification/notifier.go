package notification

import (
	"context"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/rs/zerolog"
)

// Notifier delivers a persisted notification to one out-of-band channel
// (message queue, email). Delivery failures are logged, never fatal;
// the notification row is already durable.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
	Channel() string
}

func logNotifyError(logger zerolog.Logger, err error, channel string, notif models.Notification) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("notification_id", notif.ID).
		Str("event_type", string(notif.EventType)).
		Str("channel", channel).
		Msg("failed to deliver notification")
}
