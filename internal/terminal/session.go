// Package terminal implements the virtual card terminal: an operator
// keys an amount, the service creates a hosted checkout session, the
// customer pays by scanning the session QR on their own device, and
// confirmation arrives asynchronously through the invoice change feed.
package terminal

import (
	"context"
	"sync"
	"time"

	"github.com/craftday/craftday-api/internal/checkout"
	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/realtime"
	"github.com/craftday/craftday-api/internal/tier"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type State string

const (
	StateIdle             State = "idle"
	StateAmountEntry      State = "amount_entry"
	StateAwaitingQR       State = "awaiting_qr"
	StateQRDisplayed      State = "qr_displayed"
	StatePaymentConfirmed State = "payment_confirmed"
)

// autoResetDelay is how long the success overlay shows before the
// terminal returns to idle on its own.
const autoResetDelay = 4 * time.Second

// Confirmation is the immutable payload carried into the confirmed
// state and handed to the success callback.
type Confirmation struct {
	Amount        decimal.Decimal `json:"amount"`
	InvoiceNumber string          `json:"invoice_number"`
	PayerName     string          `json:"payer_name,omitempty"`
}

// Snapshot is the terminal state pushed to the operator's browser after
// every transition.
type Snapshot struct {
	State              State         `json:"state"`
	Amount             string        `json:"amount"`
	CheckoutURL        string        `json:"checkout_url,omitempty"`
	Error              string        `json:"error,omitempty"`
	FinancingAvailable bool          `json:"financing_available"`
	Payment            *Confirmation `json:"payment,omitempty"`
}

// CheckoutClient is the slice of the provider client the session needs.
type CheckoutClient interface {
	CreateSession(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error)
}

// Session is one tenant's open terminal. It owns its feed subscription
// and auto-reset timer; both are released by Close on every exit path.
type Session struct {
	tenant   models.Tenant
	checkout CheckoutClient
	sub      *realtime.Subscription
	logger   zerolog.Logger

	// onSuccess fires once per confirmed payment, after the terminal
	// has reset, so the hosting dashboard can refresh.
	onSuccess func(Confirmation)
	// onChange fires after every transition with a fresh snapshot.
	onChange func(Snapshot)

	resetDelay time.Duration

	mu          sync.Mutex
	state       State
	amount      AmountBuffer
	checkoutURL string
	lastError   string
	payment     *Confirmation
	charging    bool
	closed      bool
	seen        map[string]bool

	// resetGen is the cancellation token shared by the auto-reset timer
	// and manual dismiss. Whichever path runs first bumps the
	// generation; the loser sees a stale token and does nothing.
	resetGen   int
	resetTimer *time.Timer

	closing     chan struct{}
	watcherDone chan struct{}
}

type Option func(*Session)

// WithResetDelay overrides the 4s success auto-reset. Tests use this.
func WithResetDelay(d time.Duration) Option {
	return func(s *Session) { s.resetDelay = d }
}

// WithChangeListener registers the snapshot push hook.
func WithChangeListener(fn func(Snapshot)) Option {
	return func(s *Session) { s.onChange = fn }
}

// NewSession opens a terminal for a tenant. The feed subscription is
// established here, on open, not lazily on first charge: a customer can
// finish paying before the operator's UI settles, and the confirmation
// event must not race the listener attach.
func NewSession(tenant models.Tenant, cc CheckoutClient, feed *realtime.Feed, onSuccess func(Confirmation), logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		tenant:      tenant,
		checkout:    cc,
		onSuccess:   onSuccess,
		logger:      logger.With().Str("component", "terminal").Str("tenant_id", tenant.ID).Logger(),
		resetDelay:  autoResetDelay,
		state:       StateIdle,
		seen:        make(map[string]bool),
		closing:     make(chan struct{}),
		watcherDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if feed != nil {
		s.sub = feed.Subscribe(tenant.ID)
		go s.watch()
	} else {
		close(s.watcherDone)
	}
	return s
}

func (s *Session) watch() {
	defer close(s.watcherDone)
	for {
		select {
		case evt := <-s.sub.C:
			s.HandlePayment(evt)
		case <-s.closing:
			return
		}
	}
}

// Press applies a keypad key. An accepted key in idle implicitly starts
// amount entry.
func (s *Session) Press(key string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.state != StateIdle && s.state != StateAmountEntry) {
		return s.snapshotLocked()
	}
	if s.amount.Press(key) {
		s.state = StateAmountEntry
		s.lastError = ""
	}
	return s.snapshotLocked()
}

// Backspace removes the last keyed character.
func (s *Session) Backspace() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateAmountEntry {
		return s.snapshotLocked()
	}
	s.amount.Backspace()
	if s.amount.Empty() {
		s.state = StateIdle
	}
	return s.snapshotLocked()
}

// Charge creates a checkout session for the keyed amount. While the
// request is in flight the session sits in awaiting_qr and further
// charges are refused, so a double-click cannot create two sessions.
// Provider failures return the terminal to amount entry with the amount
// preserved for retry.
func (s *Session) Charge(ctx context.Context) Snapshot {
	s.mu.Lock()
	if s.closed || s.state != StateAmountEntry || s.charging {
		defer s.mu.Unlock()
		return s.snapshotLocked()
	}
	amount, ok := s.amount.Amount()
	if !ok {
		s.lastError = "Enter a valid amount before charging."
		defer s.mu.Unlock()
		return s.snapshotLocked()
	}
	s.charging = true
	s.state = StateAwaitingQR
	s.lastError = ""
	req := checkout.SessionRequest{
		TenantID: s.tenant.ID,
		Amount:   amount,
		Method:   checkout.MethodScan,
	}
	s.notifyLocked()
	s.mu.Unlock()

	session, err := s.checkout.CreateSession(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.charging = false
	if s.closed {
		return s.snapshotLocked()
	}
	if s.state != StateAwaitingQR {
		// Operator cleared while the request was in flight; the
		// provider session, if created, is abandoned.
		return s.snapshotLocked()
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("checkout session creation failed")
		s.state = StateAmountEntry
		s.lastError = "Could not start the payment. Please try again."
		return s.snapshotLocked()
	}
	s.state = StateQRDisplayed
	s.checkoutURL = session.CheckoutURL
	return s.snapshotLocked()
}

// HandlePayment consumes one feed event. Only a session waiting on a QR
// scan transitions; duplicates and late events for other flows are
// ignored by the state guard and the per-invoice dedup set.
func (s *Session) HandlePayment(evt realtime.PaymentEvent) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.seen[evt.InvoiceID] {
		return s.snapshotLocked()
	}
	if s.state != StateAwaitingQR && s.state != StateQRDisplayed {
		return s.snapshotLocked()
	}
	s.seen[evt.InvoiceID] = true
	s.state = StatePaymentConfirmed
	s.payment = &Confirmation{
		Amount:        evt.Amount,
		InvoiceNumber: evt.InvoiceNumber,
		PayerName:     evt.PayerName,
	}
	s.lastError = ""

	gen := s.resetGen
	s.resetTimer = time.AfterFunc(s.resetDelay, func() {
		s.finishConfirmation(gen)
	})
	s.notifyLocked()
	return s.snapshotLocked()
}

// Dismiss is the operator closing the success overlay before the timer
// fires. Cleanup and the success callback run exactly once regardless
// of which path wins.
func (s *Session) Dismiss() Snapshot {
	s.mu.Lock()
	gen := s.resetGen
	s.mu.Unlock()
	s.finishConfirmation(gen)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) finishConfirmation(gen int) {
	s.mu.Lock()
	if s.closed || s.state != StatePaymentConfirmed || gen != s.resetGen {
		s.mu.Unlock()
		return
	}
	s.resetGen++
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	confirmed := *s.payment
	s.payment = nil
	s.amount.Clear()
	s.checkoutURL = ""
	s.lastError = ""
	s.state = StateIdle
	callback := s.onSuccess
	s.notifyLocked()
	s.mu.Unlock()

	if callback != nil {
		callback(confirmed)
	}
}

// Clear is the operator's reset from amount entry or a displayed QR. It
// discards the local checkout reference; the provider session itself is
// not cancelled and its own expiry is the only backstop.
func (s *Session) Clear() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.snapshotLocked()
	}
	switch s.state {
	case StateAmountEntry, StateQRDisplayed, StateAwaitingQR:
		s.amount.Clear()
		s.checkoutURL = ""
		s.lastError = ""
		s.state = StateIdle
	}
	return s.snapshotLocked()
}

// Close tears the session down: feed subscription released, pending
// timer stopped. Idempotent; called on websocket close, registry
// replacement, and server shutdown.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.resetGen++
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	sub := s.sub
	s.mu.Unlock()

	close(s.closing)
	if sub != nil {
		sub.Close()
		<-s.watcherDone
	}
}

// Snapshot returns the current state for the operator UI.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Amount:      s.amount.String(),
		CheckoutURL: s.checkoutURL,
		Error:       s.lastError,
	}
	if s.payment != nil {
		p := *s.payment
		snap.Payment = &p
	}
	// Informational only: elite tenants see a financing badge alongside
	// a keyed amount. Never a flow branch.
	if !s.amount.Empty() && tier.HasBusinessSuiteAccess(s.tenant.Tier) {
		snap.FinancingAvailable = true
	}
	return snap
}

func (s *Session) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}
