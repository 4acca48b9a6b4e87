package econ

import (
	"testing"
	"time"
)

func TestRecordWorkRollingWindow(t *testing.T) {
	c := NewMemoryFrequencyCache()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		c.RecordWork(1, base.Add(time.Duration(i)*time.Second))
	}
	if got := c.RecordWork(1, base.Add(10*time.Second)); got != 6 {
		t.Fatalf("count within window = %d, want 6", got)
	}

	// Past the window everything older is pruned.
	if got := c.RecordWork(1, base.Add(OverworkWindow+11*time.Second)); got != 1 {
		t.Fatalf("count after window elapsed = %d, want 1", got)
	}
}

func TestRecordWorkPerUser(t *testing.T) {
	c := NewMemoryFrequencyCache()
	now := time.Now()
	c.RecordWork(1, now)
	if got := c.RecordWork(2, now); got != 1 {
		t.Fatalf("counters must be per user, got %d", got)
	}
}

func TestRecordGambleDailyRollover(t *testing.T) {
	c := NewMemoryFrequencyCache()
	day1 := time.Date(2026, 8, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 0, 1, 0, 0, time.UTC)

	c.RecordGamble(1, day1)
	if got := c.RecordGamble(1, day1); got != 2 {
		t.Fatalf("same-day count = %d, want 2", got)
	}
	if got := c.RecordGamble(1, day2); got != 1 {
		t.Fatalf("next-day count = %d, want 1", got)
	}
}

func TestWorkFailureStreak(t *testing.T) {
	c := NewMemoryFrequencyCache()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if got := c.AddWorkFailure(1, now); got != 1 {
		t.Fatalf("first failure = %d, want 1", got)
	}
	c.AddWorkFailure(1, now)
	if got := c.AddWorkFailure(1, now); got != 3 {
		t.Fatalf("third failure = %d, want 3", got)
	}

	c.ResetWorkFailures(1, now)
	if got := c.AddWorkFailure(1, now); got != 1 {
		t.Fatalf("streak after reset = %d, want 1", got)
	}

	// The streak does not carry across days.
	nextDay := now.Add(24 * time.Hour)
	if got := c.AddWorkFailure(1, nextDay); got != 1 {
		t.Fatalf("streak across days = %d, want 1", got)
	}
}
