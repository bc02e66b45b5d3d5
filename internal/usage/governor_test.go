package usage

import (
	"errors"
	"testing"
	"time"
)

// fakeClock gives tests control over the governor's idea of now.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGovernor(l Limits) (*Governor, *fakeClock) {
	g := NewGovernor(l)
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	g.now = clk.now
	return g, clk
}

func TestCooldown(t *testing.T) {
	g, clk := newTestGovernor(Limits{DailyLimit: 100, MonthlyChars: 100000, Cooldown: time.Second})

	if err := g.Check("conn-1"); err != nil {
		t.Fatalf("fresh connection should be allowed: %v", err)
	}
	g.RecordTranslation("conn-1", 10)

	if err := g.Check("conn-1"); !errors.Is(err, ErrCooldown) {
		t.Fatalf("expected cooldown, got %v", err)
	}

	// A different connection is not affected by conn-1's cooldown.
	if err := g.Check("conn-2"); err != nil {
		t.Fatalf("other connection should be allowed: %v", err)
	}

	clk.advance(1100 * time.Millisecond)
	if err := g.Check("conn-1"); err != nil {
		t.Fatalf("cooldown should have expired: %v", err)
	}
}

func TestDailyLimit(t *testing.T) {
	g, clk := newTestGovernor(Limits{DailyLimit: 3, MonthlyChars: 100000, Cooldown: time.Millisecond})

	for i := 0; i < 3; i++ {
		if err := g.Check("c"); err != nil {
			t.Fatalf("call %d should be allowed: %v", i, err)
		}
		g.RecordTranslation("c", 5)
		clk.advance(time.Second)
	}

	if err := g.Check("c"); !errors.Is(err, ErrDailyLimit) {
		t.Fatalf("expected daily limit, got %v", err)
	}

	g.ResetDaily()
	if err := g.Check("c"); err != nil {
		t.Fatalf("reset should clear the daily count: %v", err)
	}
}

func TestMonthlyBudgetIsMonotonic(t *testing.T) {
	g, clk := newTestGovernor(Limits{DailyLimit: 100, MonthlyChars: 20, Cooldown: time.Millisecond})

	g.RecordTranslation("c", 25)
	clk.advance(time.Second)
	if err := g.Check("c"); !errors.Is(err, ErrMonthlyLimit) {
		t.Fatalf("expected monthly limit, got %v", err)
	}

	// ResetDaily must not touch the character total.
	g.ResetDaily()
	if err := g.Check("c"); !errors.Is(err, ErrMonthlyLimit) {
		t.Fatalf("monthly budget should survive daily reset, got %v", err)
	}

	daily, monthly := g.Snapshot()
	if daily != 0 || monthly != 25 {
		t.Fatalf("unexpected counters: daily=%d monthly=%d", daily, monthly)
	}
}

func TestForget(t *testing.T) {
	g, _ := newTestGovernor(Limits{DailyLimit: 100, MonthlyChars: 100000, Cooldown: time.Hour})

	g.RecordTranslation("c", 1)
	if g.CanTranslate("c") {
		t.Fatal("expected cooldown to block")
	}
	g.Forget("c")
	if !g.CanTranslate("c") {
		t.Fatal("forgotten connection should not be in cooldown")
	}
}
