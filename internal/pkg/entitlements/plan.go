package entitlements

import "strings"

// Tier is the persisted subscription tier as written by the payment
// provider sync. It is the raw input of plan resolution, never the
// resolved plan itself.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierProPlus Tier = "pro_plus"
)

// Plan is the resolved, precedence-applied plan used for all access
// decisions. Unlike Tier it can be "trial", which is never persisted.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanTrial   Plan = "trial"
	PlanPro     Plan = "pro"
	PlanProPlus Plan = "pro_plus"
)

const (
	// FreeRecordLimit is the number of non-resolved records a free
	// account may keep unlocked.
	FreeRecordLimit = 150
	// ProRecordLimit is the unlocked-record quota of the pro tier.
	ProRecordLimit = 2000
	// TrialDays is the length of the post-signup trial window.
	TrialDays = 30
)

// NormalizeTier maps arbitrary tier strings to the closed Tier set,
// defaulting to free for anything unknown.
func NormalizeTier(tier string) Tier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case string(TierPro):
		return TierPro
	case string(TierProPlus):
		return TierProPlus
	default:
		return TierFree
	}
}

// PlanRank orders plans by entitlement strength, higher wins.
func PlanRank(plan Plan) int {
	switch plan {
	case PlanProPlus:
		return 3
	case PlanPro:
		return 2
	case PlanTrial:
		return 1
	default:
		return 0
	}
}

// LimitFor returns the unlocked-record quota of a plan. nil means
// unlimited (trial and pro_plus).
func LimitFor(plan Plan) *int {
	switch plan {
	case PlanPro:
		limit := ProRecordLimit
		return &limit
	case PlanFree:
		limit := FreeRecordLimit
		return &limit
	default:
		return nil
	}
}
