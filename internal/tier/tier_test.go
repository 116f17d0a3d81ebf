package tier

import "testing"

func TestParseTier(t *testing.T) {
	cases := []struct {
		raw  string
		want Tier
	}{
		{"starter", Starter},
		{"pro", Pro},
		{"elite", Elite},
		{"business", Elite},
		{" Business ", Elite},
		{"PRO", Pro},
	}
	for _, tc := range cases {
		got, err := ParseTier(tc.raw)
		if err != nil {
			t.Errorf("ParseTier(%q) returned error: %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTier(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseTierRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "free", "enterprise", "elite+"} {
		if _, err := ParseTier(raw); err == nil {
			t.Errorf("ParseTier(%q) should have failed", raw)
		}
	}
}

func TestTierOrderingIsMonotonic(t *testing.T) {
	ordered := []Tier{Starter, Pro, Elite}
	for i, lower := range ordered {
		for j, higher := range ordered {
			want := i >= j
			if got := HasTierAccess(lower, higher); got != want {
				t.Errorf("HasTierAccess(%s, %s) = %v, want %v", lower, higher, got, want)
			}
		}
	}
}

func TestEliteHasEveryProFeature(t *testing.T) {
	if !HasProAccess(Elite) {
		t.Error("elite should have pro access")
	}
	if !HasMarketingEngineAccess(Elite) {
		t.Error("elite should have marketing engine access")
	}
	if !HasBusinessSuiteAccess(Elite) {
		t.Error("elite should have business suite access")
	}
}

func TestStarterHasNoGatedFeatures(t *testing.T) {
	if HasProAccess(Starter) {
		t.Error("starter should not have pro access")
	}
	if HasBusinessSuiteAccess(Pro) {
		t.Error("pro should not have business suite access")
	}
}

func TestRankPanicsOnUnparsedTier(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Rank should panic for a tier that skipped ParseTier")
		}
	}()
	Rank(Tier("business")) // alias must be folded by ParseTier first
}

func TestUpgradeMessage(t *testing.T) {
	if UpgradeMessage(Pro) == "" {
		t.Error("expected an upgrade message for pro")
	}
	if UpgradeMessage(Tier("unknown")) == "" {
		t.Error("expected the fallback upgrade message")
	}
}
