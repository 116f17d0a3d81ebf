package routes

import (
	"net/http"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/handlers"
	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/craftday/craftday-api/internal/tier"
	"github.com/gorilla/mux"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Tenant        *handlers.TenantHandler
	Invoice       *handlers.InvoiceHandler
	Appointment   *handlers.AppointmentHandler
	Booking       *handlers.BookingHandler
	Terminal      *handlers.TerminalHandler
	Dashboard     *handlers.DashboardHandler
	Notification  *handlers.NotificationHandler
	Assistant     *handlers.AssistantHandler
	TenantRepo    repository.TenantRepository
	AssistantGate func(http.Handler) http.Handler
}

// NewRouter sets up the API routes.
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public endpoints: auth, prospect provisioning, and the portal
	// resolver the booking page loads before any login.
	router.HandleFunc("/api/signup", h.Auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", h.Auth.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/tenants", h.Tenant.CreateTenant).Methods(http.MethodPost)
	router.HandleFunc("/api/portal/{slug}", h.Tenant.ResolveBySlug).Methods(http.MethodGet)

	// Everything below requires a valid token.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.Auth.JWTMiddleware)

	// Tenant lifecycle.
	api.Handle("/tenant/claim",
		authz.RequireRole(models.RoleOwner)(http.HandlerFunc(h.Tenant.ClaimTenant))).Methods(http.MethodPost)
	api.Handle("/tenant/branding",
		authz.RequireRole(models.RoleOwner)(http.HandlerFunc(h.Tenant.UpdateBranding))).Methods(http.MethodPut)

	// Billing.
	api.HandleFunc("/invoices", h.Invoice.ListInvoices).Methods(http.MethodGet)
	api.Handle("/invoices",
		authz.RequireRole(models.RoleStaff)(http.HandlerFunc(h.Invoice.CreateDraft))).Methods(http.MethodPost)
	api.Handle("/invoices/{invoiceID}/send",
		authz.RequireRole(models.RoleStaff)(http.HandlerFunc(h.Invoice.MarkSent))).Methods(http.MethodPost)

	// Scheduling.
	api.HandleFunc("/services", h.Appointment.ListServices).Methods(http.MethodGet)
	api.HandleFunc("/appointments", h.Appointment.ListAppointments).Methods(http.MethodGet)
	api.HandleFunc("/appointments", h.Appointment.CreateAppointment).Methods(http.MethodPost)
	api.Handle("/appointments/{appointmentID}/status",
		authz.RequireRole(models.RoleStaff)(http.HandlerFunc(h.Appointment.UpdateStatus))).Methods(http.MethodPut)

	// Recurring booking is tier-gated at the route and re-checked in the
	// handler.
	requirePro := authz.RequireTier(h.TenantRepo, tier.Pro)
	api.Handle("/bookings/recurring",
		requirePro(http.HandlerFunc(h.Booking.CreateRecurringBooking))).Methods(http.MethodPost)
	api.Handle("/bookings/series",
		requirePro(http.HandlerFunc(h.Booking.ListSeries))).Methods(http.MethodGet)

	// Payment terminal websocket.
	api.HandleFunc("/terminal/ws", h.Terminal.Connect).Methods(http.MethodGet)

	// Dashboard and notifications.
	api.HandleFunc("/dashboard/summary", h.Dashboard.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/notifications", h.Notification.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationID}/read", h.Notification.MarkRead).Methods(http.MethodPost)

	// Assistant, behind the per-tier quota.
	assistantChat := http.Handler(http.HandlerFunc(h.Assistant.Chat))
	if h.AssistantGate != nil {
		assistantChat = h.AssistantGate(assistantChat)
	}
	api.Handle("/assistant/chat", assistantChat).Methods(http.MethodPost)

	return router
}
