package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/realtime"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/craftday/craftday-api/internal/terminal"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// terminalCommand is one operator action sent over the terminal socket.
type terminalCommand struct {
	Action string `json:"action"` // key, backspace, charge, clear, dismiss
	Key    string `json:"key,omitempty"`
}

// snapshotBuffer sizes the outbound snapshot queue. Snapshots supersede
// each other, so a full queue drops the newest rather than blocking a
// state transition on a slow socket.
const snapshotBuffer = 32

// TerminalHandler owns the terminal websocket: one socket per open
// terminal, commands in, state snapshots out.
type TerminalHandler struct {
	tenantRepo repository.TenantRepository
	checkout   terminal.CheckoutClient
	feed       *realtime.Feed
	registry   *terminal.Registry
	logger     zerolog.Logger
	upgrader   websocket.Upgrader
}

func NewTerminalHandler(tenantRepo repository.TenantRepository, cc terminal.CheckoutClient, feed *realtime.Feed, registry *terminal.Registry, logger zerolog.Logger) *TerminalHandler {
	return &TerminalHandler{
		tenantRepo: tenantRepo,
		checkout:   cc,
		feed:       feed,
		registry:   registry,
		logger:     logger.With().Str("component", "terminal_ws").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS policy is enforced at the router
			},
		},
	}
}

// Connect upgrades the request and runs the terminal session for the
// caller's tenant until the socket closes.
func (h *TerminalHandler) Connect(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}
	tenant, err := h.tenantRepo.GetTenantByID(tenantID)
	if err != nil {
		http.Error(w, "Failed to resolve tenant", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("websocket upgrade failed")
		return
	}

	out := make(chan terminal.Snapshot, snapshotBuffer)
	push := func(snap terminal.Snapshot) {
		select {
		case out <- snap:
		default:
			h.logger.Warn().Str("tenant_id", tenantID).Msg("snapshot dropped, slow terminal socket")
		}
	}

	// The tenant notification itself is published by the feed bridge,
	// which sees every paid invoice whether or not a terminal is open.
	// This hook only records the operator-facing confirmation.
	onSuccess := func(conf terminal.Confirmation) {
		h.logger.Info().
			Str("tenant_id", tenantID).
			Str("invoice_number", conf.InvoiceNumber).
			Str("amount", conf.Amount.StringFixed(2)).
			Msg("terminal payment confirmed")
	}

	session := terminal.NewSession(tenant, h.checkout, h.feed, onSuccess, h.logger,
		terminal.WithChangeListener(push))
	h.registry.Put(tenantID, session)

	// Writer drains snapshots until the reader returns.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for snap := range out {
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}()

	push(session.Snapshot())
	h.readLoop(conn, session, push, tenantID)

	h.registry.Remove(tenantID, session)
	close(out)
	<-writerDone
	conn.Close()
}

func (h *TerminalHandler) readLoop(conn *websocket.Conn, session *terminal.Session, push func(terminal.Snapshot), tenantID string) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("terminal socket closed unexpectedly")
			}
			return
		}
		var cmd terminalCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			h.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("malformed terminal command")
			continue
		}

		var snap terminal.Snapshot
		switch cmd.Action {
		case "key":
			snap = session.Press(cmd.Key)
		case "backspace":
			snap = session.Backspace()
		case "charge":
			snap = session.Charge(context.Background())
		case "clear":
			snap = session.Clear()
		case "dismiss":
			snap = session.Dismiss()
		default:
			h.logger.Warn().Str("tenant_id", tenantID).Str("action", cmd.Action).Msg("unknown terminal command")
			continue
		}
		push(snap)
	}
}
