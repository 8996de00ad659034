package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TierFree    = "free"
	TierPro     = "pro"
	TierProPlus = "pro_plus"
)

// Account is the billing/ownership unit whose subscription tier gates
// feature access. RawTier is the persisted tier as reported by the
// payment provider; what the account is actually entitled to is derived
// per call by the entitlements resolver.
type Account struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UUID           string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	Name           string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=1,max=150"`
	RawTier        string         `gorm:"type:varchar(50);default:'free';index" json:"raw_tier" validate:"oneof=free pro pro_plus"`
	TierValidUntil *time.Time     `gorm:"type:timestamp;default:null;index" json:"tier_valid_until"`
	AutoRenew      bool           `gorm:"default:false" json:"auto_renew"`

	// Telemetry counters, batch-incremented from Redis by the metrics flusher.
	QuotaDeniedCount  int64 `gorm:"default:0" json:"quota_denied_count"`
	RecordsAddedCount int64 `gorm:"default:0" json:"records_added_count"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Account) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// BeforeCreate assigns a UUID when none was provided.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return nil
}

// IsPaidTier reports whether the persisted tier is a paid one. It says
// nothing about whether the tier is still valid; see the resolver.
func (a *Account) IsPaidTier() bool {
	return a.RawTier == TierPro || a.RawTier == TierProPlus
}

// PaidTierLapsed reports whether a paid tier carries an expiry that has
// already passed at the given time.
func (a *Account) PaidTierLapsed(now time.Time) bool {
	return a.IsPaidTier() && a.TierValidUntil != nil && !a.TierValidUntil.After(now)
}
