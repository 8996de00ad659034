package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPaidTier(t *testing.T) {
	assert.False(t, (&Account{RawTier: TierFree}).IsPaidTier())
	assert.True(t, (&Account{RawTier: TierPro}).IsPaidTier())
	assert.True(t, (&Account{RawTier: TierProPlus}).IsPaidTier())
}

func TestPaidTierLapsed(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	// Free accounts never lapse, with or without an expiry.
	assert.False(t, (&Account{RawTier: TierFree, TierValidUntil: &past}).PaidTierLapsed(now))

	// Paid without expiry is open ended.
	assert.False(t, (&Account{RawTier: TierPro}).PaidTierLapsed(now))

	assert.False(t, (&Account{RawTier: TierPro, TierValidUntil: &future}).PaidTierLapsed(now))
	assert.True(t, (&Account{RawTier: TierPro, TierValidUntil: &past}).PaidTierLapsed(now))
	assert.True(t, (&Account{RawTier: TierProPlus, TierValidUntil: &now}).PaidTierLapsed(now))
}

func TestAccountValidate(t *testing.T) {
	valid := &Account{Name: "pantry", RawTier: TierFree}
	assert.NoError(t, valid.Validate())

	noName := &Account{RawTier: TierFree}
	assert.Error(t, noName.Validate())

	badTier := &Account{Name: "pantry", RawTier: "platinum"}
	assert.Error(t, badTier.Validate())
}

func TestRecordIsResolved(t *testing.T) {
	assert.False(t, (&Record{Status: RecordStatusActive}).IsResolved())
	assert.True(t, (&Record{Status: RecordStatusResolved}).IsResolved())
}
