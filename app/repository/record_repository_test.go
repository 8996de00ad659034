package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/FreshTrackApp/FreshTrack/app/models"
)

// newRecordTestDB opens an in-memory database for exercising the
// enforcement transaction. The model tags carry MySQL column options,
// so the table is created by hand instead of AutoMigrate.
func newRecordTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL,
		account_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		barcode TEXT,
		quantity INTEGER NOT NULL DEFAULT 1,
		expires_at DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		is_plan_locked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`).Error)

	return db
}

// seedRecords inserts n active records for the account, one minute
// apart starting at base, and returns their ids in creation order.
func seedRecords(t *testing.T, db *gorm.DB, accountID uint, n int, base time.Time) []uint {
	t.Helper()

	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		record := &models.Record{
			AccountID: accountID,
			Name:      fmt.Sprintf("item-%d", i),
			Quantity:  1,
			ExpiresAt: base.AddDate(0, 1, 0),
			Status:    models.RecordStatusActive,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(record).Error)
		ids = append(ids, record.ID)
	}
	return ids
}

func unlockedIDs(t *testing.T, db *gorm.DB, accountID uint) []uint {
	t.Helper()

	var ids []uint
	require.NoError(t, db.Model(&models.Record{}).
		Where("account_id = ? AND status <> ? AND is_plan_locked = ?",
			accountID, models.RecordStatusResolved, false).
		Order("id ASC").
		Pluck("id", &ids).Error)
	return ids
}

func TestEnforcePlanLimitsDowngradeKeepsOldest(t *testing.T) {
	db := newRecordTestDB(t)
	repo := NewRecordRepository(db)
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	ids := seedRecords(t, db, 1, 200, base)
	otherIDs := seedRecords(t, db, 2, 5, base)

	limit := 150
	stats, err := repo.EnforcePlanLimits(1, &limit)
	require.NoError(t, err)
	assert.Equal(t, 200, stats.Total)
	assert.Equal(t, 50, stats.Locked)
	assert.Equal(t, 50, stats.LockWrites)
	assert.Equal(t, 0, stats.UnlockWrites)

	// The oldest 150 stay unlocked, the newest 50 are locked.
	assert.Equal(t, ids[:150], unlockedIDs(t, db, 1))

	// The neighbouring account is untouched.
	assert.Equal(t, otherIDs, unlockedIDs(t, db, 2))
}

func TestEnforcePlanLimitsSecondPassWritesNothing(t *testing.T) {
	db := newRecordTestDB(t)
	repo := NewRecordRepository(db)
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	seedRecords(t, db, 1, 200, base)

	limit := 150
	_, err := repo.EnforcePlanLimits(1, &limit)
	require.NoError(t, err)

	// Re-running over unchanged data is a pure no-op: the guarded
	// UPDATEs match zero rows.
	stats, err := repo.EnforcePlanLimits(1, &limit)
	require.NoError(t, err)
	assert.Equal(t, 200, stats.Total)
	assert.Equal(t, 50, stats.Locked)
	assert.Equal(t, 0, stats.LockWrites)
	assert.Equal(t, 0, stats.UnlockWrites)
}

func TestEnforcePlanLimitsTieBreaksByID(t *testing.T) {
	db := newRecordTestDB(t)
	repo := NewRecordRepository(db)
	createdAt := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	// Four records sharing one creation timestamp; the keep-set must
	// pick the lowest ids.
	var ids []uint
	for i := 0; i < 4; i++ {
		record := &models.Record{
			AccountID: 1,
			Name:      fmt.Sprintf("tied-%d", i),
			Quantity:  1,
			ExpiresAt: createdAt.AddDate(0, 1, 0),
			Status:    models.RecordStatusActive,
			CreatedAt: createdAt,
		}
		require.NoError(t, db.Create(record).Error)
		ids = append(ids, record.ID)
	}

	limit := 2
	stats, err := repo.EnforcePlanLimits(1, &limit)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Locked)
	assert.Equal(t, ids[:2], unlockedIDs(t, db, 1))
}

func TestEnforcePlanLimitsIgnoresResolvedRecords(t *testing.T) {
	db := newRecordTestDB(t)
	repo := NewRecordRepository(db)
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	ids := seedRecords(t, db, 1, 6, base)

	// Resolve the two oldest; they leave the quota entirely.
	require.NoError(t, db.Model(&models.Record{}).
		Where("id IN ?", ids[:2]).
		Update("status", models.RecordStatusResolved).Error)

	limit := 3
	stats, err := repo.EnforcePlanLimits(1, &limit)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Locked)

	// The keep-set is the oldest three non-resolved records.
	assert.Equal(t, ids[2:5], unlockedIDs(t, db, 1))
}

func TestEnforcePlanLimitsUnlimitedUnlocksAll(t *testing.T) {
	db := newRecordTestDB(t)
	repo := NewRecordRepository(db)
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	ids := seedRecords(t, db, 1, 10, base)

	limit := 4
	_, err := repo.EnforcePlanLimits(1, &limit)
	require.NoError(t, err)

	stats, err := repo.EnforcePlanLimits(1, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 0, stats.Locked)
	assert.Equal(t, 6, stats.UnlockWrites)
	assert.Equal(t, 0, stats.LockWrites)
	assert.Equal(t, ids, unlockedIDs(t, db, 1))
}

func TestEnforcePlanLimitsResolutionFreesASlot(t *testing.T) {
	db := newRecordTestDB(t)
	repo := NewRecordRepository(db)
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	ids := seedRecords(t, db, 1, 5, base)

	limit := 3
	_, err := repo.EnforcePlanLimits(1, &limit)
	require.NoError(t, err)
	assert.Equal(t, ids[:3], unlockedIDs(t, db, 1))

	// Resolving a kept record lets the oldest locked one slide back
	// into the window on the next pass.
	require.NoError(t, repo.MarkResolved(ids[0]))

	stats, err := repo.EnforcePlanLimits(1, &limit)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Locked)
	assert.Equal(t, 1, stats.UnlockWrites)
	assert.Equal(t, 0, stats.LockWrites)
	assert.Equal(t, ids[1:4], unlockedIDs(t, db, 1))
}
