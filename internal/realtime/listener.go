package realtime

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// NotifyChannel is the Postgres NOTIFY channel the invoice trigger
// publishes to.
const NotifyChannel = "invoice_events"

const (
	minReconnectInterval = time.Second
	maxReconnectInterval = 30 * time.Second
	pingInterval         = 90 * time.Second
	reconcileWindow      = 10 * time.Minute
)

// Reconciler re-reads invoice state after a listener reconnect so a
// payment completed during a dropped connection is not lost. Implemented
// by the invoice repository.
type Reconciler interface {
	ListPaidSince(ctx context.Context, tenantID string, since time.Time) ([]PaymentEvent, error)
}

// Feed is the live invoice change feed. One Feed per process; sessions
// subscribe per tenant and own their subscription's lifecycle.
type Feed struct {
	listener   *pq.Listener
	broker     *broker
	reconciler Reconciler
	logger     zerolog.Logger

	reconnected chan struct{}
	done        chan struct{}
}

// NewFeed opens a pq listener on the invoice_events channel and starts
// the dispatch loop.
func NewFeed(dsn string, reconciler Reconciler, logger zerolog.Logger) (*Feed, error) {
	f := &Feed{
		broker:      newBroker(),
		reconciler:  reconciler,
		logger:      logger.With().Str("component", "invoice_feed").Logger(),
		reconnected: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	f.listener = pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval, f.onListenerEvent)
	if err := f.listener.Listen(NotifyChannel); err != nil {
		f.listener.Close()
		return nil, err
	}

	go f.run()
	return f, nil
}

// Subscribe attaches a consumer for one tenant's payment events. An
// empty tenantID subscribes to every tenant (used by the notification
// bridge). The caller must Close the subscription on every exit path.
func (f *Feed) Subscribe(tenantID string) *Subscription {
	s := &Subscription{
		C:        make(chan PaymentEvent, subscriptionBuffer),
		feed:     f,
		tenantID: tenantID,
	}
	f.broker.add(s)
	return s
}

func (f *Feed) unsubscribe(s *Subscription) {
	f.broker.remove(s)
}

// Close stops the dispatch loop and the underlying listener.
func (f *Feed) Close() error {
	close(f.done)
	return f.listener.Close()
}

func (f *Feed) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected:
		f.logger.Warn().Err(err).Msg("invoice feed disconnected")
	case pq.ListenerEventReconnected:
		f.logger.Info().Msg("invoice feed reconnected")
		select {
		case f.reconnected <- struct{}{}:
		default:
		}
	case pq.ListenerEventConnectionAttemptFailed:
		f.logger.Warn().Err(err).Msg("invoice feed reconnect attempt failed")
	}
}

func (f *Feed) run() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-f.done:
			return
		case n := <-f.listener.Notify:
			if n == nil {
				// pq delivers nil after a connection loss.
				continue
			}
			f.dispatch([]byte(n.Extra))
		case <-f.reconnected:
			f.reconcile()
		case <-ping.C:
			if err := f.listener.Ping(); err != nil {
				f.logger.Warn().Err(err).Msg("invoice feed ping failed")
			}
		}
	}
}

func (f *Feed) dispatch(raw []byte) {
	evt, ok, err := parseChange(raw)
	if err != nil {
		f.logger.Error().Err(err).Msg("malformed invoice change payload")
		return
	}
	if !ok {
		return
	}
	f.logger.Debug().
		Str("tenant_id", evt.TenantID).
		Str("invoice_id", evt.InvoiceID).
		Msg("payment confirmed event")
	f.broker.deliver(evt, f.onDrop)
}

func (f *Feed) onDrop(evt PaymentEvent) {
	f.logger.Warn().
		Str("tenant_id", evt.TenantID).
		Str("invoice_id", evt.InvoiceID).
		Msg("subscriber not draining, payment event dropped")
}

// reconcile re-fetches recently paid invoices for every subscribed
// tenant and replays them as events. Consumers dedup by invoice ID, so
// replaying an already-delivered confirmation is harmless; missing one
// is not.
func (f *Feed) reconcile() {
	if f.reconciler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	since := time.Now().Add(-reconcileWindow)
	for _, tenantID := range f.broker.tenants() {
		events, err := f.reconciler.ListPaidSince(ctx, tenantID, since)
		if err != nil {
			f.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("reconcile after reconnect failed")
			continue
		}
		for _, evt := range events {
			f.broker.deliver(evt, f.onDrop)
		}
	}
}
