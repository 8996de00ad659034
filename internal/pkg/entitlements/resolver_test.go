package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resolverNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

func TestResolvePrecedence(t *testing.T) {
	oldCreation := resolverNow.AddDate(0, -6, 0)  // far outside the trial window
	newCreation := resolverNow.AddDate(0, 0, -10) // inside the trial window
	future := ptrTime(resolverNow.AddDate(0, 1, 0))
	past := ptrTime(resolverNow.AddDate(0, -1, 0))

	tests := []struct {
		name   string
		acc    ResolverAccount
		plan   Plan
		paid   bool
		trial  bool
		maxNil bool
		max    int
	}{
		{
			name:   "pro_plus active no expiry",
			acc:    ResolverAccount{RawTier: TierProPlus, CreatedAt: oldCreation},
			plan:   PlanProPlus,
			paid:   true,
			maxNil: true,
		},
		{
			name:   "pro_plus active future expiry",
			acc:    ResolverAccount{RawTier: TierProPlus, TierValidUntil: future, CreatedAt: oldCreation},
			plan:   PlanProPlus,
			paid:   true,
			maxNil: true,
		},
		{
			name: "pro active",
			acc:  ResolverAccount{RawTier: TierPro, TierValidUntil: future, CreatedAt: oldCreation},
			plan: PlanPro,
			paid: true,
			max:  ProRecordLimit,
		},
		{
			name:  "paid beats trial window",
			acc:   ResolverAccount{RawTier: TierPro, CreatedAt: newCreation},
			plan:  PlanPro,
			paid:  true,
			trial: false,
			max:   ProRecordLimit,
		},
		{
			name:   "free account in trial window",
			acc:    ResolverAccount{RawTier: TierFree, CreatedAt: newCreation},
			plan:   PlanTrial,
			trial:  true,
			maxNil: true,
		},
		{
			name: "free account outside trial window",
			acc:  ResolverAccount{RawTier: TierFree, CreatedAt: oldCreation},
			plan: PlanFree,
			max:  FreeRecordLimit,
		},
		{
			name: "expired pro downgrades to free",
			acc:  ResolverAccount{RawTier: TierPro, TierValidUntil: past, CreatedAt: oldCreation},
			plan: PlanFree,
			max:  FreeRecordLimit,
		},
		{
			name: "expired pro gets no trial re-entry",
			acc:  ResolverAccount{RawTier: TierPro, TierValidUntil: past, CreatedAt: newCreation},
			plan: PlanFree,
			max:  FreeRecordLimit,
		},
		{
			name: "expired pro_plus downgrades to free",
			acc:  ResolverAccount{RawTier: TierProPlus, TierValidUntil: past, CreatedAt: newCreation},
			plan: PlanFree,
			max:  FreeRecordLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := Resolve(tt.acc, 0, 0, resolverNow)
			assert.Equal(t, tt.plan, ent.Plan)
			assert.Equal(t, tt.paid, ent.IsPaidActive)
			assert.Equal(t, tt.trial, ent.IsTrialActive)
			if tt.maxNil {
				assert.Nil(t, ent.MaxRecords)
			} else {
				require.NotNil(t, ent.MaxRecords)
				assert.Equal(t, tt.max, *ent.MaxRecords)
			}
		})
	}
}

func TestResolvePaidRegardlessOfAge(t *testing.T) {
	// Paid without expiry is paid-active no matter how old or new the
	// account is.
	for _, createdAt := range []time.Time{
		resolverNow.AddDate(-3, 0, 0),
		resolverNow.AddDate(0, 0, -1),
	} {
		ent := Resolve(ResolverAccount{RawTier: TierPro, CreatedAt: createdAt}, 0, 0, resolverNow)
		assert.True(t, ent.IsPaidActive)
		assert.Equal(t, PlanPro, ent.Plan)
		assert.False(t, ent.IsTrialActive)
	}
}

func TestResolveExpiryBoundary(t *testing.T) {
	created := resolverNow.AddDate(-1, 0, 0)

	// Expiry exactly at now counts as lapsed.
	atNow := Resolve(ResolverAccount{RawTier: TierPro, TierValidUntil: ptrTime(resolverNow), CreatedAt: created}, 0, 0, resolverNow)
	assert.Equal(t, PlanFree, atNow.Plan)
	assert.False(t, atNow.IsPaidActive)

	// One second later is still valid.
	after := Resolve(ResolverAccount{RawTier: TierPro, TierValidUntil: ptrTime(resolverNow.Add(time.Second)), CreatedAt: created}, 0, 0, resolverNow)
	assert.Equal(t, PlanPro, after.Plan)
	assert.True(t, after.IsPaidActive)
}

func TestResolveCanAdd(t *testing.T) {
	created := resolverNow.AddDate(-1, 0, 0)

	tests := []struct {
		name        string
		acc         ResolverAccount
		activeCount int
		canAdd      bool
	}{
		{"free below limit", ResolverAccount{RawTier: TierFree, CreatedAt: created}, FreeRecordLimit - 1, true},
		{"free at limit", ResolverAccount{RawTier: TierFree, CreatedAt: created}, FreeRecordLimit, false},
		{"free above limit", ResolverAccount{RawTier: TierFree, CreatedAt: created}, FreeRecordLimit + 50, false},
		{"pro below limit", ResolverAccount{RawTier: TierPro, CreatedAt: created}, ProRecordLimit - 1, true},
		{"pro at limit", ResolverAccount{RawTier: TierPro, CreatedAt: created}, ProRecordLimit, false},
		{"pro_plus unlimited", ResolverAccount{RawTier: TierProPlus, CreatedAt: created}, 100000, true},
		{"trial unlimited", ResolverAccount{RawTier: TierFree, CreatedAt: resolverNow.AddDate(0, 0, -5)}, 100000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := Resolve(tt.acc, tt.activeCount, tt.activeCount, resolverNow)
			assert.Equal(t, tt.canAdd, ent.CanAdd)
		})
	}
}

func TestResolveTrialBoundary(t *testing.T) {
	// Created exactly 30 days ago: last trial day, zero days remaining.
	acc := ResolverAccount{RawTier: TierFree, CreatedAt: resolverNow.AddDate(0, 0, -TrialDays)}
	ent := Resolve(acc, 0, 0, resolverNow)
	assert.True(t, ent.IsTrialActive)
	assert.Equal(t, PlanTrial, ent.Plan)
	assert.Equal(t, 0, ent.TrialDaysRemaining)

	// One day later the trial is over.
	ent = Resolve(acc, 0, 0, resolverNow.AddDate(0, 0, 1))
	assert.False(t, ent.IsTrialActive)
	assert.Equal(t, PlanFree, ent.Plan)
}

func TestMateriallySame(t *testing.T) {
	base := Resolve(ResolverAccount{RawTier: TierPro, CreatedAt: resolverNow.AddDate(-1, 0, 0)}, 10, 12, resolverNow)

	same := base
	same.ResolvedAt = resolverNow.Add(time.Minute)
	assert.True(t, base.MateriallySame(same))

	planChanged := base
	planChanged.Plan = PlanFree
	assert.False(t, base.MateriallySame(planChanged))

	countChanged := base
	countChanged.ActiveRecordCount = 11
	assert.False(t, base.MateriallySame(countChanged))

	limitChanged := base
	limitChanged.MaxRecords = nil
	assert.False(t, base.MateriallySame(limitChanged))
}
