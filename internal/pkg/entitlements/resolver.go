package entitlements

import "time"

// EffectiveEntitlement is the resolved subscription state for a single
// resolution call. It is derived, never authoritative: persisting it is
// only allowed as a cache hint.
type EffectiveEntitlement struct {
	Plan               Plan      `json:"plan"`
	MaxRecords         *int      `json:"max_records"` // nil = unlimited
	IsPaidActive       bool      `json:"is_paid_active"`
	IsTrialActive      bool      `json:"is_trial_active"`
	TrialDaysRemaining int       `json:"trial_days_remaining"`
	ActiveRecordCount  int       `json:"active_record_count"`
	TotalRecordCount   int       `json:"total_record_count"`
	CanAdd             bool      `json:"can_add"`
	ResolvedAt         time.Time `json:"resolved_at"`
}

// ResolverAccount carries the account fields the resolver needs. It is
// deliberately a value type so the resolver cannot reach back into
// storage.
type ResolverAccount struct {
	RawTier        Tier
	TierValidUntil *time.Time
	CreatedAt      time.Time
}

// Resolve derives the effective entitlement from the persisted tier,
// its expiry, the trial clock and the current record counts.
//
// Precedence, highest first: pro_plus (paid-active), pro (paid-active),
// trial (only when not paid), free. A paid tier whose expiry has passed
// is treated as free for this call only; the trial never re-opens after
// a paid lapse because the trial window is anchored to account creation.
// The persisted downgrade is someone else's job.
func Resolve(acc ResolverAccount, activeCount, totalCount int, now time.Time) EffectiveEntitlement {
	ent := EffectiveEntitlement{
		ActiveRecordCount: activeCount,
		TotalRecordCount:  totalCount,
		ResolvedAt:        now,
	}

	tier := NormalizeTier(string(acc.RawTier))
	paid := tier == TierPro || tier == TierProPlus
	if paid && acc.TierValidUntil != nil && !acc.TierValidUntil.After(now) {
		// Lapsed paid tier: downgrade for this call.
		paid = false
		tier = TierFree
	}
	ent.IsPaidActive = paid

	switch {
	case paid && tier == TierProPlus:
		ent.Plan = PlanProPlus
		ent.MaxRecords = nil
		ent.CanAdd = true
	case paid && tier == TierPro:
		ent.Plan = PlanPro
		ent.MaxRecords = LimitFor(PlanPro)
		ent.CanAdd = activeCount < ProRecordLimit
	default:
		active, days := TrialStatus(acc.CreatedAt, now)
		if active && !paidLapsed(acc, now) {
			ent.Plan = PlanTrial
			ent.MaxRecords = nil
			ent.IsTrialActive = true
			ent.TrialDaysRemaining = days
			ent.CanAdd = true
			break
		}
		ent.Plan = PlanFree
		ent.MaxRecords = LimitFor(PlanFree)
		ent.CanAdd = activeCount < FreeRecordLimit
	}

	return ent
}

// MateriallySame reports whether two entitlements are interchangeable
// from a caller's point of view. ResolvedAt and TrialDaysRemaining are
// ignored so that a refresh returning the same state does not trigger
// dependent re-renders.
func (e EffectiveEntitlement) MateriallySame(other EffectiveEntitlement) bool {
	if e.Plan != other.Plan || e.CanAdd != other.CanAdd {
		return false
	}
	if e.IsPaidActive != other.IsPaidActive || e.IsTrialActive != other.IsTrialActive {
		return false
	}
	if (e.MaxRecords == nil) != (other.MaxRecords == nil) {
		return false
	}
	if e.MaxRecords != nil && *e.MaxRecords != *other.MaxRecords {
		return false
	}
	return e.ActiveRecordCount == other.ActiveRecordCount &&
		e.TotalRecordCount == other.TotalRecordCount
}

// paidLapsed reports whether a paid tier expired in the past, which
// blocks trial re-entry for this resolution.
func paidLapsed(acc ResolverAccount, now time.Time) bool {
	tier := NormalizeTier(string(acc.RawTier))
	if tier != TierPro && tier != TierProPlus {
		return false
	}
	return acc.TierValidUntil != nil && !acc.TierValidUntil.After(now)
}
