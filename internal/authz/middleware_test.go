package authz

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/tier"
)

type stubTenantRepo struct {
	tenant models.Tenant
}

func (s *stubTenantRepo) CreateTenant(slug, displayName string, businessType models.BusinessType) (models.Tenant, error) {
	return s.tenant, nil
}
func (s *stubTenantRepo) GetTenantByID(id string) (models.Tenant, error)     { return s.tenant, nil }
func (s *stubTenantRepo) GetTenantBySlug(slug string) (models.Tenant, error) { return s.tenant, nil }
func (s *stubTenantRepo) ClaimTenant(id string) (models.Tenant, error)       { return s.tenant, nil }
func (s *stubTenantRepo) UpdateBranding(id string, branding models.Branding) (models.Tenant, error) {
	return s.tenant, nil
}

func identityRequest(tenantID string, roles ...models.UserRole) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	return req.WithContext(WithIdentity(req.Context(), tenantID, "user-1", roles))
}

func passthrough() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireRoleAllows(t *testing.T) {
	next, called := passthrough()
	rec := httptest.NewRecorder()
	RequireRole(models.RoleStaff)(next).ServeHTTP(rec, identityRequest("t1", models.RoleOwner))
	if !*called || rec.Code != http.StatusOK {
		t.Errorf("owner should pass a staff gate, status %d", rec.Code)
	}
}

func TestRequireRoleBlocks(t *testing.T) {
	next, called := passthrough()
	rec := httptest.NewRecorder()
	RequireRole(models.RoleOwner)(next).ServeHTTP(rec, identityRequest("t1", models.RoleViewer))
	if *called {
		t.Error("viewer must not pass an owner gate")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireTierBlocksWithUpgradePrompt(t *testing.T) {
	repo := &stubTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Starter}}
	next, called := passthrough()
	rec := httptest.NewRecorder()

	RequireTier(repo, tier.Pro)(next).ServeHTTP(rec, identityRequest("t1", models.RoleOwner))

	if *called {
		t.Error("starter tenant must not pass a pro gate")
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "upgrade_required" || body["upgrade_message"] == "" {
		t.Errorf("unexpected gate body: %v", body)
	}
}

func TestRequireTierAllowsEntitledTenant(t *testing.T) {
	repo := &stubTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Elite}}
	next, called := passthrough()
	rec := httptest.NewRecorder()

	RequireTier(repo, tier.Pro)(next).ServeHTTP(rec, identityRequest("t1", models.RoleViewer))

	if !*called || rec.Code != http.StatusOK {
		t.Errorf("elite tenant should pass a pro gate, status %d", rec.Code)
	}
}

func TestRequireTierWithoutIdentity(t *testing.T) {
	repo := &stubTenantRepo{tenant: models.Tenant{ID: "t1", Tier: tier.Elite}}
	next, called := passthrough()
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	RequireTier(repo, tier.Pro)(next).ServeHTTP(rec, req)

	if *called || rec.Code != http.StatusUnauthorized {
		t.Errorf("missing identity should 401, status %d", rec.Code)
	}
}
