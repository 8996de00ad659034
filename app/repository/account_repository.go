package repository

import (
	"strings"
	"time"

	"github.com/FreshTrackApp/FreshTrack/app/models"
	"gorm.io/gorm"
)

// accountRepository implements the AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account in the database
func (r *accountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUUID retrieves an account by its public UUID
func (r *accountRepository) GetByUUID(uuid string) (*models.Account, error) {
	var account models.Account
	err := r.db.Where("uuid = ?", strings.TrimSpace(uuid)).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Update updates an existing account in the database
func (r *accountRepository) Update(account *models.Account) error {
	return r.db.Save(account).Error
}

// UpdateTier writes the persisted subscription tier fields. The caller
// is expected to refresh the entitlement afterwards; this method does
// not touch plan locks.
func (r *accountRepository) UpdateTier(id uint, tier string, validUntil *time.Time, autoRenew bool) error {
	updates := map[string]interface{}{
		"raw_tier":         tier,
		"tier_valid_until": validUntil,
		"auto_renew":       autoRenew,
	}
	return r.db.Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error
}

// List retrieves accounts with pagination
func (r *accountRepository) List(offset, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Offset(offset).Limit(limit).Order("id ASC").Find(&accounts).Error
	return accounts, err
}

// ListLapsedPaid returns paid accounts whose tier_valid_until has
// passed. Used by the background sweep to re-enforce quotas after a
// subscription lapse.
func (r *accountRepository) ListLapsedPaid(now time.Time) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.
		Where("raw_tier IN ?", []string{models.TierPro, models.TierProPlus}).
		Where("tier_valid_until IS NOT NULL AND tier_valid_until <= ?", now).
		Find(&accounts).Error
	return accounts, err
}

// Count returns the total number of accounts
func (r *accountRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Account{}).Count(&count).Error
	return count, err
}
