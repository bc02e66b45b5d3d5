// Package usage tracks translation quota: a per-day call count, a running
// per-month character total, and a per-connection cooldown between calls.
// Pure bookkeeping — no I/O.
package usage

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Limit violations, in the order they are checked.
var (
	ErrDailyLimit   = errors.New("daily translation limit reached")
	ErrMonthlyLimit = errors.New("monthly character budget exhausted")
	ErrCooldown     = errors.New("translation cooldown active")
)

const (
	DefaultDailyLimit   = 500
	DefaultMonthlyChars = 500000
	DefaultCooldown     = time.Second

	resetInterval = 24 * time.Hour
)

// Limits configures the governor's ceilings.
type Limits struct {
	DailyLimit   int
	MonthlyChars int64
	Cooldown     time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		DailyLimit:   DefaultDailyLimit,
		MonthlyChars: DefaultMonthlyChars,
		Cooldown:     DefaultCooldown,
	}
}

// Governor owns the usage counters. No other component mutates them.
type Governor struct {
	limits Limits
	now    func() time.Time

	mu         sync.Mutex
	dailyCount int
	// monthlyChars is monotonic for the process lifetime; there is no
	// monthly reset timer. The upstream provider enforces the real
	// calendar window.
	monthlyChars int64
	lastCall     map[string]time.Time // connection ID → last translation call
}

func NewGovernor(limits Limits) *Governor {
	if limits.DailyLimit <= 0 {
		limits.DailyLimit = DefaultDailyLimit
	}
	if limits.MonthlyChars <= 0 {
		limits.MonthlyChars = DefaultMonthlyChars
	}
	if limits.Cooldown <= 0 {
		limits.Cooldown = DefaultCooldown
	}
	return &Governor{
		limits:   limits,
		now:      time.Now,
		lastCall: make(map[string]time.Time),
	}
}

// Check reports whether connID may issue a translation call right now.
// Returns nil when allowed, or the specific limit error otherwise.
func (g *Governor) Check(connID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dailyCount >= g.limits.DailyLimit {
		return ErrDailyLimit
	}
	if g.monthlyChars >= g.limits.MonthlyChars {
		return ErrMonthlyLimit
	}
	if last, ok := g.lastCall[connID]; ok {
		if g.now().Sub(last) < g.limits.Cooldown {
			return ErrCooldown
		}
	}
	return nil
}

// CanTranslate is the boolean form of Check.
func (g *Governor) CanTranslate(connID string) bool {
	return g.Check(connID) == nil
}

// RecordTranslation charges one successful translation call against the
// budgets and arms the cooldown for connID.
func (g *Governor) RecordTranslation(connID string, charCount int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyCount++
	g.monthlyChars += int64(charCount)
	g.lastCall[connID] = g.now()
}

// ResetDaily clears the per-day call count. The monthly character total is
// left untouched.
func (g *Governor) ResetDaily() {
	g.mu.Lock()
	g.dailyCount = 0
	g.mu.Unlock()
	log.Printf("USAGE: daily translation count reset")
}

// Forget drops the cooldown entry for a disconnected connection so the map
// does not grow with dead IDs.
func (g *Governor) Forget(connID string) {
	g.mu.Lock()
	delete(g.lastCall, connID)
	g.mu.Unlock()
}

// Snapshot returns the current counters.
func (g *Governor) Snapshot() (dailyCount int, monthlyChars int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dailyCount, g.monthlyChars
}

// StartDailyReset runs ResetDaily every 24 hours until ctx is cancelled.
func (g *Governor) StartDailyReset(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(resetInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.ResetDaily()
			}
		}
	}()
}
