// Package subscription exposes the entitlement engine to the rest of
// the application: cache-first reads, background refresh against the
// remote authority, quota decisions and change notifications.
package subscription

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/FreshTrackApp/FreshTrack/app/models"
	"github.com/FreshTrackApp/FreshTrack/app/repository"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/connectivity"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/enforcer"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/entitlementcache"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/entitlements"
)

// Reason codes returned by CanAddRecord when adding is not allowed.
const (
	ReasonLimitReached       = "limit_reached"
	ReasonEntitlementUnknown = "entitlement_unknown"
	ReasonUnknownAccount     = "unknown_account"
)

// Service is the exposed entitlement surface. All reads are served from
// the synchronization cache; the remote authority is only consulted in
// the background or when a quota decision cannot rely on stale counts.
type Service struct {
	accounts repository.AccountRepository
	records  repository.RecordRepository
	store    *entitlementcache.Store
	enforcer *enforcer.Enforcer
	probe    connectivity.Probe

	// countsWindow bounds how old cached record counts may be when they
	// back a CanAddRecord decision while online.
	countsWindow time.Duration

	mu         sync.Mutex
	refreshing map[uint]struct{}

	now func() time.Time
}

// NewService wires the entitlement service from its collaborators.
func NewService(
	accounts repository.AccountRepository,
	records repository.RecordRepository,
	store *entitlementcache.Store,
	enf *enforcer.Enforcer,
	probe connectivity.Probe,
	countsWindow time.Duration,
) *Service {
	if countsWindow <= 0 {
		countsWindow = 60 * time.Second
	}
	return &Service{
		accounts:     accounts,
		records:      records,
		store:        store,
		enforcer:     enf,
		probe:        probe,
		countsWindow: countsWindow,
		refreshing:   make(map[uint]struct{}),
		now:          time.Now,
	}
}

// GetEffectiveEntitlement returns the cached entitlement immediately.
// A stale or missing snapshot triggers a non-blocking background
// refresh when online; offline the last good value is served with no
// error surfaced at all.
func (s *Service) GetEffectiveEntitlement(ctx context.Context, accountID uint) entitlements.EffectiveEntitlement {
	_ = ctx
	ent, age, ok := s.store.Get(accountID)
	if (!ok || s.store.IsStale(age)) && s.probe.IsOnline() {
		s.refreshAsync(accountID)
	}
	return ent
}

// CanAddRecord decides whether the account may create another record.
// The decision fails closed: an unknown entitlement never grants
// access. Reason is empty when allowed.
func (s *Service) CanAddRecord(ctx context.Context, accountID uint) (allowed bool, reason string) {
	ent, age, ok := s.store.Get(accountID)

	// Quota decisions should not ride on stale counts while the remote
	// authority is reachable; refresh synchronously first.
	if (!ok || age > s.countsWindow) && s.probe.IsOnline() {
		fresh, err := s.Refresh(ctx, accountID)
		switch {
		case err == nil:
			ent, ok = fresh, true
		case errors.Is(err, entitlements.ErrUnknownAccount):
			return false, ReasonUnknownAccount
		case errors.Is(err, entitlements.ErrCountingFailure):
			// The counts are unknowable right now, so the quota is too.
			// A stale cached allow must not leak through.
			return false, ReasonEntitlementUnknown
		default:
			// Remote unavailable: fall back to whatever was cached; with
			// nothing cached the entitlement is unknown.
			if !ok {
				return false, ReasonEntitlementUnknown
			}
		}
	}

	if !ok {
		return false, ReasonEntitlementUnknown
	}
	if ent.CanAdd {
		return true, ""
	}
	return false, ReasonLimitReached
}

// OnEntitlementChanged subscribes a listener to materially different
// entitlement values for the account. The returned function
// unsubscribes.
func (s *Service) OnEntitlementChanged(accountID uint, listener entitlementcache.Listener) (unsubscribe func()) {
	return s.store.Subscribe(accountID, listener)
}

// Refresh synchronously resolves the entitlement against the remote
// authority and updates the cache. On a plan change the plan-limit
// enforcer is triggered in the background.
func (s *Service) Refresh(ctx context.Context, accountID uint) (entitlements.EffectiveEntitlement, error) {
	_ = ctx
	var zero entitlements.EffectiveEntitlement

	if !s.probe.IsOnline() {
		return zero, entitlements.ErrRemoteUnavailable
	}

	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Subscription] refresh: account %d unknown", accountID)
			return zero, entitlements.ErrUnknownAccount
		}
		log.Errorf("[Subscription] refresh: fetch account %d failed: %v", accountID, err)
		return zero, entitlements.ErrRemoteUnavailable
	}

	activeCount, err := s.records.CountByAccount(accountID, models.RecordStatusActive)
	if err != nil {
		log.Errorf("[Subscription] refresh: count active records for account %d failed: %v", accountID, err)
		return zero, entitlements.ErrCountingFailure
	}
	totalCount, err := s.records.CountAllByAccount(accountID)
	if err != nil {
		log.Errorf("[Subscription] refresh: count records for account %d failed: %v", accountID, err)
		return zero, entitlements.ErrCountingFailure
	}

	ent := entitlements.Resolve(entitlements.ResolverAccount{
		RawTier:        entitlements.Tier(account.RawTier),
		TierValidUntil: account.TierValidUntil,
		CreatedAt:      account.CreatedAt,
	}, int(activeCount), int(totalCount), s.now())

	prev, _, hadPrev := s.store.Get(accountID)
	s.store.Put(accountID, ent)

	// Locks are recomputed when the plan changed, and on the first
	// resolution after a cold start since the plan may have moved while
	// this process was down. The pass is idempotent either way.
	if !hadPrev || prev.Plan != ent.Plan {
		s.enforceAsync(accountID)
	}

	return ent, nil
}

// SetTier persists a tier change and immediately reconciles entitlement
// and plan locks.
func (s *Service) SetTier(ctx context.Context, accountID uint, tier entitlements.Tier, validUntil *time.Time, autoRenew bool) (entitlements.EffectiveEntitlement, error) {
	if err := s.accounts.UpdateTier(accountID, string(tier), validUntil, autoRenew); err != nil {
		log.Errorf("[Subscription] set tier for account %d failed: %v", accountID, err)
		return entitlements.EffectiveEntitlement{}, err
	}
	return s.Refresh(ctx, accountID)
}

// EnforceNow runs a plan-limit enforcement pass for the account,
// bypassing the cache. A pass already in flight is reported as such.
func (s *Service) EnforceNow(ctx context.Context, accountID uint) (enforcer.Result, error) {
	return s.enforcer.Enforce(ctx, accountID)
}

// refreshAsync starts at most one background refresh per account.
func (s *Service) refreshAsync(accountID uint) {
	s.mu.Lock()
	if _, running := s.refreshing[accountID]; running {
		s.mu.Unlock()
		return
	}
	s.refreshing[accountID] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.refreshing, accountID)
			s.mu.Unlock()
		}()
		if _, err := s.Refresh(context.Background(), accountID); err != nil {
			log.Warnf("[Subscription] background refresh for account %d failed: %v", accountID, err)
		}
	}()
}

// enforceAsync triggers enforcement without blocking the refresh path.
func (s *Service) enforceAsync(accountID uint) {
	go func() {
		if _, err := s.enforcer.Enforce(context.Background(), accountID); err != nil && !errors.Is(err, enforcer.ErrInFlight) {
			log.Errorf("[Subscription] enforcement for account %d failed: %v", accountID, err)
		}
	}()
}
