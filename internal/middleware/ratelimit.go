package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/config"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/craftday/craftday-api/internal/tier"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// quotaScript counts requests in a fixed window, arming the expiry on
// the first hit so the window cannot become immortal.
var quotaScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('TTL', KEYS[1])
	return { current, ttl }
`)

// AssistantQuota enforces the tier contract at the AI assistant
// boundary: starter tenants get a bounded daily quota, pro and above
// pass through uncounted. With no Redis the limiter degrades to open:
// the assistant is a convenience feature, not a billing surface.
func AssistantQuota(rdb *redis.Client, tenants repository.TenantRepository, cfg config.AssistantConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("component", "assistant_quota").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := authz.TenantIDFromRequest(r)
			if !ok {
				http.Error(w, "missing tenant identity", http.StatusUnauthorized)
				return
			}

			tenant, err := tenants.GetTenantByID(tenantID)
			if err != nil {
				http.Error(w, "failed to resolve tenant", http.StatusInternalServerError)
				return
			}
			if tier.HasProAccess(tenant.Tier) || rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("assistant:quota:%s", tenantID)
			windowSecs := int64(cfg.QuotaWindow.Seconds())
			vals, err := quotaScript.Run(r.Context(), rdb, []string{key}, windowSecs).Int64Slice()
			if err != nil || len(vals) < 2 {
				log.Warn().Err(err).Msg("quota check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			used, ttl := vals[0], vals[1]
			remaining := int64(cfg.StarterDailyQuota) - used
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-Assistant-Quota-Remaining", strconv.FormatInt(remaining, 10))

			if used > int64(cfg.StarterDailyQuota) {
				w.Header().Set("Retry-After", strconv.FormatInt(ttl, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error":           "quota_exceeded",
					"upgrade_message": tier.UpgradeMessage(tier.Pro),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
