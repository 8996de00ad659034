package repository

import (
	"strings"

	"github.com/FreshTrackApp/FreshTrack/app/models"
	"gorm.io/gorm"
)

// recordRepository implements the RecordRepository interface
type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new record repository instance
func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

// Create creates a new record in the database
func (r *recordRepository) Create(record *models.Record) error {
	return r.db.Create(record).Error
}

// GetByID retrieves a record by its ID
func (r *recordRepository) GetByID(id uint) (*models.Record, error) {
	var record models.Record
	err := r.db.First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByUUID retrieves a record by its public UUID
func (r *recordRepository) GetByUUID(uuid string) (*models.Record, error) {
	var record models.Record
	err := r.db.Where("uuid = ?", strings.TrimSpace(uuid)).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByAccountID retrieves records of an account with pagination,
// oldest first so the unlocked quota window comes out in order.
func (r *recordRepository) GetByAccountID(accountID uint, offset, limit int) ([]models.Record, error) {
	var records []models.Record
	err := r.db.
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&records).Error
	return records, err
}

// Update updates an existing record in the database
func (r *recordRepository) Update(record *models.Record) error {
	return r.db.Save(record).Error
}

// MarkResolved flags a record as used up or discarded. Resolved records
// stop counting against the plan quota.
func (r *recordRepository) MarkResolved(id uint) error {
	return r.db.Model(&models.Record{}).
		Where("id = ?", id).
		Update("status", models.RecordStatusResolved).Error
}

// CountByAccount counts records of an account with the given status
func (r *recordRepository) CountByAccount(accountID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Record{}).
		Where("account_id = ? AND status = ?", accountID, status).
		Count(&count).Error
	return count, err
}

// CountAllByAccount counts all records of an account
func (r *recordRepository) CountAllByAccount(accountID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Record{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

// EnforcePlanLimits applies the quota in one transaction so readers
// never see more than limit unlocked records or a kept record locked.
// Both UPDATEs are guarded on is_plan_locked, which makes a repeated
// pass over unchanged data a pure no-op (zero rows written).
func (r *recordRepository) EnforcePlanLimits(accountID uint, limit *int) (EnforceStats, error) {
	var stats EnforceStats
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&models.Record{}).
			Where("account_id = ? AND status <> ?", accountID, models.RecordStatusResolved).
			Count(&total).Error; err != nil {
			return err
		}
		stats.Total = int(total)

		if limit == nil {
			// Unlimited plan: every non-resolved record must be unlocked.
			res := tx.Model(&models.Record{}).
				Where("account_id = ? AND status <> ? AND is_plan_locked = ?",
					accountID, models.RecordStatusResolved, true).
				Update("is_plan_locked", false)
			if res.Error != nil {
				return res.Error
			}
			stats.UnlockWrites = int(res.RowsAffected)
			stats.Locked = 0
			return nil
		}

		// Keep-set: the oldest limit records by creation, ties broken by
		// id ascending.
		var keepIDs []uint
		if err := tx.Model(&models.Record{}).
			Where("account_id = ? AND status <> ?", accountID, models.RecordStatusResolved).
			Order("created_at ASC, id ASC").
			Limit(*limit).
			Pluck("id", &keepIDs).Error; err != nil {
			return err
		}

		lockQuery := tx.Model(&models.Record{}).
			Where("account_id = ? AND status <> ? AND is_plan_locked = ?",
				accountID, models.RecordStatusResolved, false)
		if len(keepIDs) > 0 {
			lockQuery = lockQuery.Where("id NOT IN ?", keepIDs)
		}
		res := lockQuery.Update("is_plan_locked", true)
		if res.Error != nil {
			return res.Error
		}
		stats.LockWrites = int(res.RowsAffected)

		if len(keepIDs) > 0 {
			res = tx.Model(&models.Record{}).
				Where("id IN ? AND is_plan_locked = ?", keepIDs, true).
				Update("is_plan_locked", false)
			if res.Error != nil {
				return res.Error
			}
			stats.UnlockWrites = int(res.RowsAffected)
		}

		if stats.Total > len(keepIDs) {
			stats.Locked = stats.Total - len(keepIDs)
		}
		return nil
	})
	if err != nil {
		return EnforceStats{}, err
	}
	return stats, nil
}
