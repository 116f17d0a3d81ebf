// Package tier resolves subscription tiers to feature entitlements.
// Every gate decision in the API routes through HasTierAccess so the
// tier ordering lives in exactly one place.
package tier

import (
	"fmt"
	"strings"
)

// Tier is a tenant's subscription level. The "business" plan name is an
// alias of elite and is folded away by ParseTier; internal code only ever
// sees the three canonical tiers.
type Tier string

const (
	Starter Tier = "starter"
	Pro     Tier = "pro"
	Elite   Tier = "elite"
)

var ranks = map[Tier]int{
	Starter: 0,
	Pro:     1,
	Elite:   2,
}

// ParseTier normalizes a raw tier value from the data store. "business"
// maps to Elite. An empty value is rejected rather than defaulted; a
// tenant row without a tier is corrupt.
func ParseTier(raw string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case Starter:
		return Starter, nil
	case Pro:
		return Pro, nil
	case Elite, Tier("business"):
		return Elite, nil
	default:
		return "", fmt.Errorf("unknown subscription tier %q", raw)
	}
}

// Rank returns the position of t in the tier ordering. Calling Rank with
// a tier that did not come from ParseTier is a programmer error and
// panics instead of silently defaulting.
func Rank(t Tier) int {
	r, ok := ranks[t]
	if !ok {
		panic(fmt.Sprintf("tier: invalid tier %q", t))
	}
	return r
}

// HasTierAccess reports whether a tenant on t is entitled to features
// requiring at least required.
func HasTierAccess(t, required Tier) bool {
	return Rank(t) >= Rank(required)
}

// HasProAccess gates recurring bookings, the marketing engine, and
// unlimited assistant usage.
func HasProAccess(t Tier) bool { return HasTierAccess(t, Pro) }

// HasBusinessSuiteAccess gates the ledger, expense/mileage tracking, and
// the financing badge in the payment terminal.
func HasBusinessSuiteAccess(t Tier) bool { return HasTierAccess(t, Elite) }

// HasMarketingEngineAccess gates the newsletter/marketing engine.
func HasMarketingEngineAccess(t Tier) bool { return HasTierAccess(t, Pro) }

var upgradeMessages = map[Tier]string{
	Pro:   "Upgrade to Pro to unlock recurring bookings, the marketing engine, and unlimited assistant chats.",
	Elite: "Upgrade to Elite to unlock bookkeeping, expense tracking, and customer financing.",
}

// UpgradeMessage returns the user-facing prompt shown when a gated
// feature is requested without entitlement. Presentation only.
func UpgradeMessage(required Tier) string {
	if msg, ok := upgradeMessages[required]; ok {
		return msg
	}
	return "Upgrade your plan to unlock this feature."
}
