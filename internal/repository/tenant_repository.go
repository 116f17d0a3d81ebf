package repository

import (
	"database/sql"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/tier"
)

type TenantRepository interface {
	CreateTenant(slug, displayName string, businessType models.BusinessType) (models.Tenant, error)
	GetTenantByID(id string) (models.Tenant, error)
	GetTenantBySlug(slug string) (models.Tenant, error)
	ClaimTenant(id string) (models.Tenant, error)
	UpdateBranding(id string, branding models.Branding) (models.Tenant, error)
}

type tenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) TenantRepository {
	return &tenantRepository{db: db}
}

const tenantColumns = `
	id, slug, display_name, business_type, tier,
	primary_color, secondary_color, logo_url, font_family,
	platform_fee_pct, provider_account_id, is_demo, challenge_type,
	created_at, updated_at`

// scanTenant normalizes the stored tier at the boundary: a row holding
// the "business" plan name comes back as elite, so nothing downstream
// reasons about the alias.
func scanTenant(row *sql.Row) (models.Tenant, error) {
	var t models.Tenant
	var rawTier string
	err := row.Scan(
		&t.ID, &t.Slug, &t.DisplayName, &t.BusinessType, &rawTier,
		&t.Branding.PrimaryColor, &t.Branding.SecondaryColor, &t.Branding.LogoURL, &t.Branding.FontFamily,
		&t.PlatformFeePct, &t.ProviderAcctID, &t.IsDemo, &t.ChallengeType,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return models.Tenant{}, err
	}
	t.Tier, err = tier.ParseTier(rawTier)
	if err != nil {
		return models.Tenant{}, err
	}
	return t, nil
}

// CreateTenant creates a demo prospect on the starter tier. Claiming
// flips is_demo; tier changes arrive only through the external upgrade
// flow.
func (r *tenantRepository) CreateTenant(slug, displayName string, businessType models.BusinessType) (models.Tenant, error) {
	const query = `
		INSERT INTO tenant.tenants (slug, display_name, business_type, tier, is_demo)
		VALUES ($1, $2, $3, 'starter', TRUE)
		RETURNING` + tenantColumns + `;
	`
	return scanTenant(r.db.QueryRow(query, slug, displayName, businessType))
}

func (r *tenantRepository) GetTenantByID(id string) (models.Tenant, error) {
	const query = `
		SELECT` + tenantColumns + `
		FROM tenant.tenants
		WHERE id = $1;
	`
	return scanTenant(r.db.QueryRow(query, id))
}

func (r *tenantRepository) GetTenantBySlug(slug string) (models.Tenant, error) {
	const query = `
		SELECT` + tenantColumns + `
		FROM tenant.tenants
		WHERE slug = $1;
	`
	return scanTenant(r.db.QueryRow(query, slug))
}

func (r *tenantRepository) ClaimTenant(id string) (models.Tenant, error) {
	const query = `
		UPDATE tenant.tenants
		SET is_demo = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING` + tenantColumns + `;
	`
	return scanTenant(r.db.QueryRow(query, id))
}

func (r *tenantRepository) UpdateBranding(id string, branding models.Branding) (models.Tenant, error) {
	const query = `
		UPDATE tenant.tenants
		SET primary_color = $2, secondary_color = $3, logo_url = $4, font_family = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING` + tenantColumns + `;
	`
	return scanTenant(r.db.QueryRow(query, id,
		branding.PrimaryColor, branding.SecondaryColor, branding.LogoURL, branding.FontFamily))
}
