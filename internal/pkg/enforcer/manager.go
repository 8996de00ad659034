package enforcer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/FreshTrackApp/FreshTrack/app/models"
	"github.com/FreshTrackApp/FreshTrack/app/repository"
	metrics "github.com/FreshTrackApp/FreshTrack/internal/pkg/metrics/counter"
)

// Manager runs the periodic lapsed-subscription sweep: accounts whose
// paid tier has expired get their quotas re-enforced even when nobody
// opens the app. Everything else triggers enforcement on demand.
type Manager struct {
	enforcer           *Enforcer
	accounts           repository.AccountRepository
	sweepTicker        *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global enforcement manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		repos := repository.GetGlobalRepositories()
		globalManager = &Manager{
			enforcer: New(repos.Account, repos.Record),
			accounts: repos.Account,
			stopCh:   make(chan struct{}),
		}
	})
	return globalManager
}

// GetEnforcer returns the managed enforcer
func (m *Manager) GetEnforcer() *Enforcer {
	return m.enforcer
}

// Start starts the background sweep
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Enforcer Manager] Starting lapsed-subscription sweep")

	sweepInterval := 15 * time.Minute // Default fallback
	if settings := models.GetAppSettings(); settings != nil {
		sweepInterval = settings.GetEnforceSweepInterval()
	}

	m.sweepTicker = time.NewTicker(sweepInterval)
	m.wg.Add(1)
	go m.sweepWorker()

	// Start counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[Enforcer Manager] Started successfully")
}

// Stop stops the background sweep
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Enforcer Manager] Stopping...")

	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	// Workers re-read m.stopCh every loop turn; leaving the closed
	// channel in place keeps that read safe. Start recreates it.
	close(m.stopCh)
	m.running = false

	m.wg.Wait()

	log.Info("[Enforcer Manager] Stopped successfully")
}

// sweepWorker runs periodically to re-enforce accounts whose paid tier lapsed
func (m *Manager) sweepWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Enforcer Manager] Sweep worker stopping")
			return
		case <-m.sweepTicker.C:
			log.Debug("[Enforcer Manager] Running lapsed-subscription sweep")
			if err := m.runSweepOnce(); err != nil {
				log.Errorf("[Enforcer Manager] Sweep error: %v", err)
			}
		}
	}
}

// counterFlushWorker periodically flushes pending telemetry counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Enforcer Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[Enforcer Manager] Counter flush error: %v", err)
			}
		}
	}
}

// runSweepOnce re-enforces every account whose paid tier has expired.
// In-flight collisions are expected and skipped, not treated as errors.
func (m *Manager) runSweepOnce() error {
	lapsed, err := m.accounts.ListLapsedPaid(time.Now())
	if err != nil {
		return err
	}

	for _, account := range lapsed {
		if _, err := m.enforcer.Enforce(context.Background(), account.ID); err != nil {
			if errors.Is(err, ErrInFlight) {
				continue
			}
			log.Errorf("[Enforcer Manager] Sweep enforce for account %d failed: %v", account.ID, err)
		}
	}
	return nil
}
