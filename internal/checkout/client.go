// Package checkout wraps the hosted checkout-session provider. The
// provider collects card details on its own page; this client only
// creates sessions and hands back their URLs.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MethodScan tags sessions collected in person via QR code.
const MethodScan = "scan"

type SessionRequest struct {
	TenantID      string          `json:"tenantId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	AppointmentID string          `json:"appointmentId,omitempty"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
}

type Session struct {
	CheckoutURL string `json:"checkoutUrl"`
}

type sessionResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	Error       string `json:"error"`
}

// Client talks to the provider's session endpoint. Treated as opaque:
// non-2xx responses and {error} payloads are both provider failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateSession requests a checkout session and returns its URL. A 2xx
// response without a URL is treated as a failure; callers never receive
// a session they cannot route a customer to.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if !req.Amount.IsPositive() {
		return Session{}, fmt.Errorf("checkout amount must be positive")
	}
	if req.Method == "" {
		req.Method = MethodScan
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Session{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("checkout provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, fmt.Errorf("read checkout response: %w", err)
	}

	var parsed sessionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode < 300 {
		return Session{}, fmt.Errorf("malformed checkout response: %w", err)
	}

	if resp.StatusCode >= 300 || parsed.Error != "" {
		msg := parsed.Error
		if msg == "" {
			msg = fmt.Sprintf("provider returned status %d", resp.StatusCode)
		}
		return Session{}, fmt.Errorf("checkout session creation failed: %s", msg)
	}
	if parsed.CheckoutURL == "" {
		return Session{}, fmt.Errorf("checkout session creation failed: provider returned no checkout URL")
	}

	return Session{CheckoutURL: parsed.CheckoutURL}, nil
}
