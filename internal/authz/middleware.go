package authz

import (
	"encoding/json"
	"net/http"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/craftday/craftday-api/internal/tier"
)

// RequireRole ensures the requester has at least the required role.
func RequireRole(required models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roles, ok := RolesFromRequest(r)
			if !ok || !models.HasAtLeast(roles, required) {
				http.Error(w, "insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTier is the server-side half of feature gating: even if the UI
// hides a gated control, a request from an unentitled tenant is refused
// here with an explicit upgrade prompt, never silently allowed.
func RequireTier(tenants repository.TenantRepository, required tier.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := TenantIDFromRequest(r)
			if !ok {
				http.Error(w, "missing tenant identity", http.StatusUnauthorized)
				return
			}
			tenant, err := tenants.GetTenantByID(tenantID)
			if err != nil {
				http.Error(w, "failed to resolve tenant", http.StatusInternalServerError)
				return
			}
			if !tier.HasTierAccess(tenant.Tier, required) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusPaymentRequired)
				json.NewEncoder(w).Encode(map[string]string{
					"error":           "upgrade_required",
					"required_tier":   string(required),
					"upgrade_message": tier.UpgradeMessage(required),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
