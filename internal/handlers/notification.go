package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/notification"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type NotificationHandler struct {
	notifications notification.Service
	logger        zerolog.Logger
}

func NewNotificationHandler(notifications notification.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	notifications, err := h.notifications.ListRecent(r.Context(), tenantID, limit)
	if err != nil {
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}
	notificationID := mux.Vars(r)["notificationID"]

	notif, err := h.notifications.MarkRead(r.Context(), tenantID, notificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update notification", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notif)
}
