// Package connectivity answers the single question "is the remote
// authority reachable right now". The probe is polled, never pushed:
// callers decide when to ask and must tolerate a slightly stale answer.
package connectivity

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Probe reports whether the remote authority is currently reachable.
type Probe interface {
	IsOnline() bool
}

// DBProbe pings the database connection and caches the result for a
// short window so hot read paths do not ping on every call.
type DBProbe struct {
	db      *gorm.DB
	window  time.Duration
	timeout time.Duration

	mu     sync.Mutex
	lastAt time.Time
	lastOK bool
}

// NewDBProbe creates a probe over the given GORM handle. A non-positive
// window defaults to 10 seconds.
func NewDBProbe(db *gorm.DB, window time.Duration) *DBProbe {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &DBProbe{
		db:      db,
		window:  window,
		timeout: 2 * time.Second,
	}
}

// IsOnline reports reachability, re-probing at most once per window.
func (p *DBProbe) IsOnline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.lastAt) < p.window {
		return p.lastOK
	}

	p.lastAt = time.Now()
	p.lastOK = p.ping()
	return p.lastOK
}

func (p *DBProbe) ping() bool {
	if p.db == nil {
		return false
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}

// Static is a fixed-answer probe for tests and single-box deployments.
type Static bool

// IsOnline returns the fixed answer.
func (s Static) IsOnline() bool {
	return bool(s)
}
