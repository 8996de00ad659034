package enforcer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/FreshTrackApp/FreshTrack/app/repository"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/entitlements"
)

// ErrInFlight is returned when an enforcement pass for the same account
// is already running. The call is a no-op, not queued: the next
// triggering event re-invokes enforcement anyway.
var ErrInFlight = errors.New("enforcement pass already in flight")

// Result reports the outcome of one enforcement pass.
type Result struct {
	Plan   entitlements.Plan
	Limit  *int // nil = unlimited
	Total  int
	Locked int
}

// Enforcer keeps persisted plan locks in line with the effective
// entitlement. It is a thin, idempotent trigger: the actual
// read-then-write runs as one transaction inside the record repository,
// so readers never observe a half-applied pass.
type Enforcer struct {
	accounts repository.AccountRepository
	records  repository.RecordRepository

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

// New creates an enforcer on top of the given repositories.
func New(accounts repository.AccountRepository, records repository.RecordRepository) *Enforcer {
	return &Enforcer{
		accounts: accounts,
		records:  records,
		inFlight: make(map[uint]struct{}),
	}
}

// Enforce recomputes plan locks for one account. Concurrent calls for
// the same account collapse into one pass (the loser gets ErrInFlight);
// different accounts run independently.
func (e *Enforcer) Enforce(ctx context.Context, accountID uint) (Result, error) {
	_ = ctx
	if !e.begin(accountID) {
		log.Infof("[Enforcer] skipping account %d: pass already in flight", accountID)
		return Result{}, ErrInFlight
	}
	defer e.end(accountID)

	account, err := e.accounts.GetByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Enforcer] enforce: account %d not found", accountID)
			return Result{}, entitlements.ErrUnknownAccount
		}
		log.Errorf("[Enforcer] enforce: fetch account %d failed: %v", accountID, err)
		return Result{}, err
	}

	// Counts do not influence the quota itself, only CanAdd, so the
	// resolver runs with zero counts here.
	ent := entitlements.Resolve(entitlements.ResolverAccount{
		RawTier:        entitlements.Tier(account.RawTier),
		TierValidUntil: account.TierValidUntil,
		CreatedAt:      account.CreatedAt,
	}, 0, 0, time.Now())

	stats, err := e.records.EnforcePlanLimits(accountID, ent.MaxRecords)
	if err != nil {
		log.Errorf("[Enforcer] enforce: atomic pass for account %d failed: %v", accountID, err)
		return Result{}, err
	}

	if stats.LockWrites > 0 || stats.UnlockWrites > 0 {
		log.Infof("[Enforcer] account %d plan=%s total=%d locked=%d (%d locked, %d unlocked this pass)",
			accountID, ent.Plan, stats.Total, stats.Locked, stats.LockWrites, stats.UnlockWrites)
	}

	return Result{
		Plan:   ent.Plan,
		Limit:  ent.MaxRecords,
		Total:  stats.Total,
		Locked: stats.Locked,
	}, nil
}

// begin claims the per-account in-flight slot.
func (e *Enforcer) begin(accountID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, running := e.inFlight[accountID]; running {
		return false
	}
	e.inFlight[accountID] = struct{}{}
	return true
}

// end releases the per-account in-flight slot.
func (e *Enforcer) end(accountID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, accountID)
}
