package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RecordStatusActive   = "active"
	RecordStatusResolved = "resolved"
)

// Record is a tracked perishable-goods entry belonging to an Account.
// IsPlanLocked marks records that fall outside the account's current
// quota; it is written only by the plan-limit enforcement procedure and
// read everywhere else.
type Record struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	AccountID    uint           `gorm:"index;not null" json:"account_id"`
	Account      Account        `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Barcode      string         `gorm:"type:varchar(64);index" json:"barcode"`
	Quantity     int            `gorm:"default:1" json:"quantity"`
	ExpiresAt    time.Time      `gorm:"type:timestamp;not null;index" json:"expires_at"`
	Status       string         `gorm:"type:varchar(50);default:'active';index" json:"status"`
	IsPlanLocked bool           `gorm:"default:false;index" json:"is_plan_locked"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when none was provided.
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.New().String()
	}
	return nil
}

// IsResolved reports whether the record was marked as used up or
// discarded. Resolved records never count against the plan quota.
func (r *Record) IsResolved() bool {
	return r.Status == RecordStatusResolved
}
