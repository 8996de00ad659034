package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{in: "free", want: TierFree},
		{in: "pro", want: TierPro},
		{in: "pro_plus", want: TierProPlus},
		{in: "PRO_PLUS", want: TierProPlus},
		{in: "  pro  ", want: TierPro},
		{in: "invalid", want: TierFree},
		{in: "", want: TierFree},
	}

	for _, tt := range tests {
		if got := NormalizeTier(tt.in); got != tt.want {
			t.Fatalf("NormalizeTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if PlanRank(PlanFree) >= PlanRank(PlanTrial) {
		t.Fatalf("expected trial to outrank free")
	}
	if PlanRank(PlanTrial) >= PlanRank(PlanPro) {
		t.Fatalf("expected pro to outrank trial")
	}
	if PlanRank(PlanPro) >= PlanRank(PlanProPlus) {
		t.Fatalf("expected pro_plus to outrank pro")
	}
}

func TestLimitFor(t *testing.T) {
	free := LimitFor(PlanFree)
	if assert.NotNil(t, free) {
		assert.Equal(t, FreeRecordLimit, *free)
	}

	pro := LimitFor(PlanPro)
	if assert.NotNil(t, pro) {
		assert.Equal(t, ProRecordLimit, *pro)
	}

	assert.Nil(t, LimitFor(PlanTrial))
	assert.Nil(t, LimitFor(PlanProPlus))
}
