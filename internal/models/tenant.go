package models

import (
	"time"

	"github.com/craftday/craftday-api/internal/tier"
	"github.com/shopspring/decimal"
)

// BusinessType drives the vocabulary shown in a tenant's portal.
type BusinessType string

const (
	BusinessTypeSalon    BusinessType = "salon"
	BusinessTypeTutoring BusinessType = "tutoring"
	BusinessTypeCleaning BusinessType = "cleaning"
	BusinessTypeTrades   BusinessType = "trades"
	BusinessTypeGeneral  BusinessType = "general"
)

// Branding holds the tenant-editable look of the portal.
type Branding struct {
	PrimaryColor   string `json:"primary_color" db:"primary_color"`
	SecondaryColor string `json:"secondary_color" db:"secondary_color"`
	LogoURL        string `json:"logo_url" db:"logo_url"`
	FontFamily     string `json:"font_family" db:"font_family"`
}

// Tenant is one onboarded business instance. Tier is normalized at the
// repository boundary, so code holding a Tenant never sees the
// "business" alias.
type Tenant struct {
	ID             string          `json:"id" db:"id"`
	Slug           string          `json:"slug" db:"slug"`
	DisplayName    string          `json:"display_name" db:"display_name"`
	BusinessType   BusinessType    `json:"business_type" db:"business_type"`
	Branding       Branding        `json:"branding"`
	Tier           tier.Tier       `json:"tier" db:"tier"`
	PlatformFeePct decimal.Decimal `json:"platform_fee_pct" db:"platform_fee_pct"`
	ProviderAcctID *string         `json:"provider_account_id,omitempty" db:"provider_account_id"`
	IsDemo         bool            `json:"is_demo" db:"is_demo"`
	ChallengeType  string          `json:"challenge_type,omitempty" db:"challenge_type"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
