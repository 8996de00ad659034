package repository

import (
	"time"

	"github.com/FreshTrackApp/FreshTrack/app/models"
)

// AccountRepository defines the interface for account-related database
// operations. Together with RecordRepository it is the remote source of
// truth that the entitlement engine consults.
type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id uint) (*models.Account, error)
	GetByUUID(uuid string) (*models.Account, error)
	Update(account *models.Account) error
	UpdateTier(id uint, tier string, validUntil *time.Time, autoRenew bool) error
	List(offset, limit int) ([]models.Account, error)
	ListLapsedPaid(now time.Time) ([]models.Account, error)
	Count() (int64, error)
}

// EnforceStats reports the outcome of one plan-limit enforcement pass.
// LockWrites/UnlockWrites are the rows actually changed; a repeated run
// on unchanged data reports zero writes.
type EnforceStats struct {
	Total        int
	Locked       int
	LockWrites   int
	UnlockWrites int
}

// RecordRepository defines the interface for record-related database
// operations, including the atomic plan-limit enforcement procedure.
type RecordRepository interface {
	Create(record *models.Record) error
	GetByID(id uint) (*models.Record, error)
	GetByUUID(uuid string) (*models.Record, error)
	GetByAccountID(accountID uint, offset, limit int) ([]models.Record, error)
	Update(record *models.Record) error
	MarkResolved(id uint) error
	CountByAccount(accountID uint, status string) (int64, error)
	CountAllByAccount(accountID uint) (int64, error)
	// EnforcePlanLimits makes the persisted is_plan_locked flags match
	// the given quota in a single transaction. limit nil = unlimited,
	// unlock everything non-resolved; otherwise the oldest limit records
	// by (created_at, id) stay unlocked and the rest are locked. Readers
	// never observe a half-applied pass.
	EnforcePlanLimits(accountID uint, limit *int) (EnforceStats, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}
