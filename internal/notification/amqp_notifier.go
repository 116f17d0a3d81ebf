package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/craftday/craftday-api/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPNotifier publishes notifications to a durable fanout-style queue
// so downstream consumers (bookkeeping export, newsletter engine) react
// to portal events without polling. Publishing is best-effort; a broker
// outage triggers lazy redial on the next publish.
type AMQPNotifier struct {
	url    string
	queue  string
	logger zerolog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPNotifier(url, queue string, logger zerolog.Logger) *AMQPNotifier {
	if queue == "" {
		queue = "portal.events"
	}
	return &AMQPNotifier{
		url:    url,
		queue:  queue,
		logger: logger.With().Str("notifier", "amqp").Logger(),
	}
}

func (n *AMQPNotifier) Channel() string { return "amqp" }

func (n *AMQPNotifier) Notify(ctx context.Context, notif models.Notification) error {
	body, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ch, err := n.ensureChannel()
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(pubCtx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    notif.CreatedAt,
		Type:         string(notif.EventType),
		Body:         body,
	})
	if err != nil {
		n.reset()
		return fmt.Errorf("publish %s: %w", notif.EventType, err)
	}
	return nil
}

func (n *AMQPNotifier) ensureChannel() (*amqp.Channel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel != nil && !n.conn.IsClosed() {
		return n.channel, nil
	}

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	n.conn = conn
	n.channel = ch
	n.logger.Info().Str("queue", n.queue).Msg("connected to broker")
	return ch, nil
}

func (n *AMQPNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.channel != nil {
		n.channel.Close()
		n.channel = nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
}

// Close releases the broker connection.
func (n *AMQPNotifier) Close() {
	n.reset()
}
