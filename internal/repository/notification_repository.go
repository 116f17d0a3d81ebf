package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/craftday/craftday-api/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	ListRecent(ctx context.Context, tenantID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, tenantID, notificationID string) (models.Notification, error)
}

type CreateNotificationParams struct {
	TenantID *string
	Event    models.NotificationEvent
	Severity models.NotificationSeverity
	Title    string
	Message  string
	Metadata map[string]interface{}
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, tenant_id, event_type, severity, title, message, metadata, created_at, read_at`

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	const query = `
		INSERT INTO tenant.notifications (tenant_id, event_type, severity, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + notificationColumns

	var tenantID interface{}
	if params.TenantID != nil && strings.TrimSpace(*params.TenantID) != "" {
		tenantID = strings.TrimSpace(*params.TenantID)
	}

	var metadata interface{}
	if len(params.Metadata) > 0 {
		raw, err := json.Marshal(params.Metadata)
		if err != nil {
			return models.Notification{}, fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = raw
	}

	row := r.db.QueryRowContext(ctx, query, tenantID, params.Event, params.Severity, params.Title, params.Message, metadata)
	return scanNotification(row.Scan)
}

func (r *notificationRepository) ListRecent(ctx context.Context, tenantID string, limit int) ([]models.Notification, error) {
	const query = `
		SELECT ` + notificationColumns + `
		FROM tenant.notifications
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, tenantID, notificationID string) (models.Notification, error) {
	const query = `
		UPDATE tenant.notifications
		SET read_at = COALESCE(read_at, NOW())
		WHERE tenant_id = $1 AND id = $2
		RETURNING ` + notificationColumns
	return scanNotification(r.db.QueryRowContext(ctx, query, tenantID, notificationID).Scan)
}

func scanNotification(scan func(...interface{}) error) (models.Notification, error) {
	var n models.Notification
	var metadata []byte
	err := scan(&n.ID, &n.TenantID, &n.EventType, &n.Severity, &n.Title, &n.Message, &metadata, &n.CreatedAt, &n.ReadAt)
	if err != nil {
		return models.Notification{}, err
	}
	if len(metadata) > 0 {
		n.Metadata = json.RawMessage(metadata)
	}
	return n, nil
}
