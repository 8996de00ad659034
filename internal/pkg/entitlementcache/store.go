// Package entitlementcache is the offline-safe synchronization cache of
// entitlement state. It layers a volatile, process-lifetime map over a
// durable key/value store so that reads are instant, restarts keep the
// last known state, and network variability never blocks a caller that
// already has a value.
package entitlementcache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/FreshTrackApp/FreshTrack/internal/pkg/entitlements"
)

const (
	// DefaultStaleness is the entitlement staleness window: older cached
	// values are still served but flagged for background refresh.
	DefaultStaleness = 45 * time.Second

	// DefaultDurableTTL bounds how long a snapshot survives in the
	// durable tier without any refresh at all.
	DefaultDurableTTL = 24 * time.Hour

	keyFormat = "entitlement:account:%d"
)

// KV is the durable cache tier: generic key/value persistence that
// survives process restarts.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
	Del(key string) error
}

// Listener receives materially changed entitlements for one account.
type Listener func(entitlements.EffectiveEntitlement)

// Snapshot is one cached entitlement with its fetch timestamp.
type Snapshot struct {
	Entitlement entitlements.EffectiveEntitlement `json:"entitlement"`
	FetchedAt   time.Time                         `json:"fetched_at"`
}

// Store is the two-tier synchronization cache. Reads never block on
// writes; writes are last-writer-wins per account.
type Store struct {
	kv         KV
	staleness  time.Duration
	durableTTL time.Duration

	mu        sync.RWMutex
	volatile  map[uint]Snapshot
	observers map[uint]map[int]Listener
	nextObsID int

	now func() time.Time
}

// NewStore creates a store over the given durable tier. Non-positive
// durations fall back to the package defaults.
func NewStore(kv KV, staleness, durableTTL time.Duration) *Store {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	if durableTTL <= 0 {
		durableTTL = DefaultDurableTTL
	}
	return &Store{
		kv:         kv,
		staleness:  staleness,
		durableTTL: durableTTL,
		volatile:   make(map[uint]Snapshot),
		observers:  make(map[uint]map[int]Listener),
		now:        time.Now,
	}
}

// Default is the documented placeholder served while no snapshot exists
// anywhere: free plan, zero counts, adding not allowed until a real
// fetch succeeds.
func Default() entitlements.EffectiveEntitlement {
	return entitlements.EffectiveEntitlement{
		Plan:       entitlements.PlanFree,
		MaxRecords: entitlements.LimitFor(entitlements.PlanFree),
		CanAdd:     false,
	}
}

// Get returns the cached entitlement for an account. ok reports whether
// any tier held a snapshot; when ok is false the returned value is
// Default() and age is zero. A stale snapshot is still returned; age
// tells the caller how old it is.
func (s *Store) Get(accountID uint) (ent entitlements.EffectiveEntitlement, age time.Duration, ok bool) {
	s.mu.RLock()
	snap, hit := s.volatile[accountID]
	s.mu.RUnlock()
	if hit {
		return snap.Entitlement, s.now().Sub(snap.FetchedAt), true
	}

	// Volatile miss: fall back to the durable tier and promote.
	raw, found, err := s.kv.Get(key(accountID))
	if err != nil {
		log.Warnf("[EntitlementCache] durable read for account %d failed: %v", accountID, err)
	}
	if found && err == nil {
		if err := json.Unmarshal(raw, &snap); err != nil {
			log.Warnf("[EntitlementCache] corrupt durable snapshot for account %d: %v", accountID, err)
		} else {
			s.mu.Lock()
			// Another reader may have promoted meanwhile; keep the newer one.
			if cur, exists := s.volatile[accountID]; !exists || snap.FetchedAt.After(cur.FetchedAt) {
				s.volatile[accountID] = snap
			} else {
				snap = cur
			}
			s.mu.Unlock()
			return snap.Entitlement, s.now().Sub(snap.FetchedAt), true
		}
	}

	return Default(), 0, false
}

// IsStale reports whether a snapshot of the given age should trigger a
// background refresh.
func (s *Store) IsStale(age time.Duration) bool {
	return age > s.staleness
}

// Put stores a freshly resolved entitlement in both tiers and notifies
// observers, but only when the value materially changed. An unchanged
// refresh resets the age without waking anyone up.
func (s *Store) Put(accountID uint, ent entitlements.EffectiveEntitlement) (changed bool) {
	snap := Snapshot{Entitlement: ent, FetchedAt: s.now()}

	s.mu.Lock()
	prev, had := s.volatile[accountID]
	s.volatile[accountID] = snap
	var listeners []Listener
	changed = !had || !prev.Entitlement.MateriallySame(ent)
	if changed {
		for _, fn := range s.observers[accountID] {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	raw, err := json.Marshal(snap)
	if err == nil {
		err = s.kv.Set(key(accountID), raw, s.durableTTL)
	}
	if err != nil {
		// The volatile tier already has the value; durable persistence is
		// best effort and retried on the next refresh.
		log.Warnf("[EntitlementCache] durable write for account %d failed: %v", accountID, err)
	}

	for _, fn := range listeners {
		fn(ent)
	}
	return changed
}

// Invalidate drops the snapshot from both tiers.
func (s *Store) Invalidate(accountID uint) {
	s.mu.Lock()
	delete(s.volatile, accountID)
	s.mu.Unlock()

	if err := s.kv.Del(key(accountID)); err != nil {
		log.Warnf("[EntitlementCache] durable delete for account %d failed: %v", accountID, err)
	}
}

// Subscribe registers a listener for materially changed entitlements of
// one account and returns its unsubscribe function.
func (s *Store) Subscribe(accountID uint, fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.observers[accountID] == nil {
		s.observers[accountID] = make(map[int]Listener)
	}
	id := s.nextObsID
	s.nextObsID++
	s.observers[accountID][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers[accountID], id)
		if len(s.observers[accountID]) == 0 {
			delete(s.observers, accountID)
		}
	}
}

func key(accountID uint) string {
	return fmt.Sprintf(keyFormat, accountID)
}
