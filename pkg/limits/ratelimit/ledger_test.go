package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ============================================================================
// Ledger Tests
// ============================================================================

func TestLedger_SlidingWindow(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(60*time.Second, 2, WithClock(clock.Now))

	if err := ledger.Admit("limited"); err != nil {
		t.Fatalf("Expected 1st request admitted, got %v", err)
	}
	clock.Advance(10 * time.Second)
	if err := ledger.Admit("limited"); err != nil {
		t.Fatalf("Expected 2nd request admitted, got %v", err)
	}

	err := ledger.Admit("limited")
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("Expected RateLimitError on 3rd request, got %v", err)
	}
	if rle.RetryAfter != 50*time.Second {
		t.Errorf("Expected retry after 50s, got %v", rle.RetryAfter)
	}

	// 60s after the 1st call it has left the window.
	clock.Advance(50 * time.Second)
	if err := ledger.Admit("limited"); err != nil {
		t.Errorf("Expected request admitted after window elapsed, got %v", err)
	}
	if got := ledger.Count("limited"); got != 2 {
		t.Errorf("Expected 2 requests in window, got %d", got)
	}
}

func TestLedger_RejectedAttemptsNotRecorded(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(10*time.Second, 1, WithClock(clock.Now))

	if err := ledger.Admit("k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		if err := ledger.Admit("k"); err == nil {
			t.Fatalf("Expected rejection on attempt %d", i)
		}
	}
	if got := ledger.Count("k"); got != 1 {
		t.Errorf("Expected rejected attempts not to be recorded, count %d", got)
	}

	// The window is measured from the single admitted request.
	clock.Advance(5 * time.Second)
	if err := ledger.Admit("k"); err != nil {
		t.Errorf("Expected admission once the first request expired, got %v", err)
	}
}

func TestLedger_BoundaryIsExclusive(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(60*time.Second, 1, WithClock(clock.Now))

	_ = ledger.Admit("k")
	clock.Advance(59*time.Second + 999*time.Millisecond)
	if err := ledger.Admit("k"); err == nil {
		t.Error("Expected rejection just inside the window")
	}
	clock.Advance(time.Millisecond)
	if err := ledger.Admit("k"); err != nil {
		t.Errorf("Expected admission exactly at window length, got %v", err)
	}
}

func TestLedger_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(time.Minute, 1, WithClock(clock.Now))

	if err := ledger.Admit("a"); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Admit("b"); err != nil {
		t.Errorf("Expected key b unaffected by key a, got %v", err)
	}
	if err := ledger.Admit("a"); err == nil {
		t.Error("Expected key a to be limited")
	}
}

func TestLedger_CheckResult(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(time.Minute, 3, WithClock(clock.Now))

	res := ledger.Check("k")
	if !res.Allowed || res.Limit != 3 || res.Remaining != 2 {
		t.Errorf("Unexpected first result: %+v", res)
	}
	ledger.Check("k")
	ledger.Check("k")
	res = ledger.Check("k")
	if res.Allowed || res.Remaining != 0 {
		t.Errorf("Expected rejection with 0 remaining, got %+v", res)
	}
}

func TestRateLimitError_Message(t *testing.T) {
	err := &RateLimitError{MaxRequests: 10, Window: 60 * time.Second}
	want := "Rate limit exceeded. Maximum 10 requests per 60 seconds."
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestLedger_Concurrent(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(time.Minute, 50, WithClock(clock.Now))

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.Admit("shared") == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("Expected exactly 50 admitted, got %d", admitted)
	}
}
