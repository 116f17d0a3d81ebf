package repository

import (
	"database/sql"

	"github.com/craftday/craftday-api/internal/models"
)

type CatalogRepository interface {
	GetService(tenantID, serviceID string) (models.Service, error)
	ListServices(tenantID string) ([]models.Service, error)
}

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetService(tenantID, serviceID string) (models.Service, error) {
	const query = `
		SELECT id, tenant_id, name, price, duration_minutes, created_at
		FROM tenant.services
		WHERE tenant_id = $1 AND id = $2;
	`
	var svc models.Service
	err := r.db.QueryRow(query, tenantID, serviceID).Scan(
		&svc.ID, &svc.TenantID, &svc.Name, &svc.Price, &svc.DurationMinutes, &svc.CreatedAt)
	return svc, err
}

func (r *catalogRepository) ListServices(tenantID string) ([]models.Service, error) {
	const query = `
		SELECT id, tenant_id, name, price, duration_minutes, created_at
		FROM tenant.services
		WHERE tenant_id = $1
		ORDER BY name;
	`
	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.Price, &svc.DurationMinutes, &svc.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}
