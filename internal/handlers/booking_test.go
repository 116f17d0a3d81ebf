package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/temporal"
	"github.com/craftday/craftday-api/internal/tier"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenantRepo struct {
	tenant models.Tenant
	err    error
}

func (f *fakeTenantRepo) CreateTenant(slug, displayName string, businessType models.BusinessType) (models.Tenant, error) {
	return f.tenant, f.err
}
func (f *fakeTenantRepo) GetTenantByID(id string) (models.Tenant, error)     { return f.tenant, f.err }
func (f *fakeTenantRepo) GetTenantBySlug(slug string) (models.Tenant, error) { return f.tenant, f.err }
func (f *fakeTenantRepo) ClaimTenant(id string) (models.Tenant, error)       { return f.tenant, f.err }
func (f *fakeTenantRepo) UpdateBranding(id string, branding models.Branding) (models.Tenant, error) {
	return f.tenant, f.err
}

type fakeSeriesRunner struct {
	calls  int32
	result temporal.SeriesResult
	err    error
	params temporal.SeriesParams
}

func (f *fakeSeriesRunner) RunSeries(ctx context.Context, params temporal.SeriesParams) (temporal.SeriesResult, error) {
	atomic.AddInt32(&f.calls, 1)
	f.params = params
	return f.result, f.err
}

func bookingRequest(t *testing.T, tenantID string, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/recurring", bytes.NewReader(payload))
	ctx := authz.WithIdentity(req.Context(), tenantID, "user-1", []models.UserRole{models.RoleOwner})
	return req.WithContext(ctx)
}

func validSeriesBody() map[string]string {
	return map[string]string{
		"service_id":        "svc-1",
		"start_date":        "2024-01-01",
		"start_time":        "10:00",
		"recurring_pattern": "weekly",
		"customer_name":     "Dana",
		"customer_email":    "dana@example.com",
	}
}

func TestRecurringBookingBlockedForStarter(t *testing.T) {
	repo := &fakeTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Starter}}
	runner := &fakeSeriesRunner{}
	h := NewBookingHandler(repo, nil, runner, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.CreateRecurringBooking(rec, bookingRequest(t, "t1", validSeriesBody()))

	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upgrade_required", body["error"])
	assert.Equal(t, string(tier.Pro), body["required_tier"])
	assert.NotEmpty(t, body["upgrade_message"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&runner.calls),
		"a blocked request must never reach the booking workflow")
}

func TestRecurringBookingSucceedsForPro(t *testing.T) {
	repo := &fakeTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Pro}}
	runner := &fakeSeriesRunner{result: temporal.SeriesResult{
		CheckoutURL:        "https://pay.example/s/abc",
		GroupID:            "group-1",
		FirstAppointmentID: "appt-1",
		Occurrences:        17,
	}}
	h := NewBookingHandler(repo, nil, runner, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.CreateRecurringBooking(rec, bookingRequest(t, "t1", validSeriesBody()))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://pay.example/s/abc", body["checkout_url"])
	assert.Equal(t, float64(17), body["occurrences"])

	require.Equal(t, int32(1), atomic.LoadInt32(&runner.calls))
	assert.Equal(t, "t1", runner.params.TenantID)
	assert.NotEmpty(t, runner.params.GroupID)
	assert.Len(t, runner.params.Occurrences, 17, "16-week weekly series is 17 occurrences")
	assert.Equal(t, models.RecurrenceWeekly, runner.params.Pattern)
}

func TestRecurringBookingDefaultsEndDate(t *testing.T) {
	repo := &fakeTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Elite}}
	runner := &fakeSeriesRunner{result: temporal.SeriesResult{CheckoutURL: "https://pay.example/s/abc"}}
	h := NewBookingHandler(repo, nil, runner, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.CreateRecurringBooking(rec, bookingRequest(t, "t1", validSeriesBody()))
	require.Equal(t, http.StatusCreated, rec.Code)

	start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, runner.params.EndDate.Equal(start.AddDate(0, 0, 112)),
		"missing end date should default to start+16 weeks, got %s", runner.params.EndDate)
}

func TestRecurringBookingWorkflowFailureIsOpaque(t *testing.T) {
	repo := &fakeTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Pro}}
	runner := &fakeSeriesRunner{err: errors.New("temporal: deadline exceeded")}
	h := NewBookingHandler(repo, nil, runner, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.CreateRecurringBooking(rec, bookingRequest(t, "t1", validSeriesBody()))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "temporal",
		"provider internals must not leak to the customer")
}

func TestRecurringBookingMissingCheckoutURLFails(t *testing.T) {
	repo := &fakeTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Pro}}
	runner := &fakeSeriesRunner{result: temporal.SeriesResult{GroupID: "group-1"}}
	h := NewBookingHandler(repo, nil, runner, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.CreateRecurringBooking(rec, bookingRequest(t, "t1", validSeriesBody()))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRecurringBookingValidation(t *testing.T) {
	repo := &fakeTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Pro}}
	runner := &fakeSeriesRunner{}
	h := NewBookingHandler(repo, nil, runner, zerolog.Nop())

	bad := validSeriesBody()
	bad["recurring_pattern"] = "hourly"
	rec := httptest.NewRecorder()
	h.CreateRecurringBooking(rec, bookingRequest(t, "t1", bad))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runner.calls))
}

func TestRecurringBookingRequiresIdentity(t *testing.T) {
	h := NewBookingHandler(&fakeTenantRepo{}, nil, &fakeSeriesRunner{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/recurring", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()
	h.CreateRecurringBooking(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
