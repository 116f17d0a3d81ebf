package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCreateSession(t *testing.T) {
	var received SessionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"checkoutUrl": "https://pay.example/s/abc"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	session, err := c.CreateSession(context.Background(), SessionRequest{
		TenantID: "t1",
		Amount:   decimal.RequireFromString("25.00"),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.CheckoutURL != "https://pay.example/s/abc" {
		t.Errorf("CheckoutURL = %q", session.CheckoutURL)
	}
	if received.Method != MethodScan {
		t.Errorf("method should default to %q, got %q", MethodScan, received.Method)
	}
}

func TestCreateSessionRejectsNonPositiveAmount(t *testing.T) {
	c := NewClient("http://localhost:0")
	if _, err := c.CreateSession(context.Background(), SessionRequest{Amount: decimal.Zero}); err == nil {
		t.Error("zero amount should fail before reaching the provider")
	}
}

func TestCreateSessionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "account not onboarded"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateSession(context.Background(), SessionRequest{Amount: decimal.NewFromInt(10)})
	if err == nil {
		t.Fatal("provider error should surface")
	}
}

func TestCreateSessionErrorPayloadWith200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.CreateSession(context.Background(), SessionRequest{Amount: decimal.NewFromInt(10)}); err == nil {
		t.Fatal("an {error} payload is a failure even on 200")
	}
}

func TestCreateSessionMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.CreateSession(context.Background(), SessionRequest{Amount: decimal.NewFromInt(10)}); err == nil {
		t.Fatal("a 2xx response without a checkout URL is a failure")
	}
}
