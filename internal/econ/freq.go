package econ

import (
	"sync"
	"time"
)

// FrequencyCache tracks per-user action frequency driving the escalating
// anti-abuse probabilities. Implementations are best-effort and process-local
// by default; counters reset on restart, which only relaxes the escalation.
// A shared TTL store can be swapped in behind this interface for horizontal
// scaling.
type FrequencyCache interface {
	// RecordWork appends a work timestamp and returns the count within the
	// rolling OverworkWindow, including this one.
	RecordWork(userID int64, now time.Time) int

	// RecordGamble bumps the calendar-day gambling counter and returns
	// today's count.
	RecordGamble(userID int64, now time.Time) int

	// AddWorkFailure bumps the failure streak and returns the new value.
	// The streak resets when the calendar day changes.
	AddWorkFailure(userID int64, now time.Time) int

	// ResetWorkFailures zeroes the failure streak.
	ResetWorkFailures(userID int64, now time.Time)
}

type failureStreak struct {
	count int
	day   string
}

// MemoryFrequencyCache is the default in-process FrequencyCache.
type MemoryFrequencyCache struct {
	mu       sync.Mutex
	work     map[int64][]time.Time
	gamble   map[int64]dayCounter
	failures map[int64]failureStreak
}

type dayCounter struct {
	count int
	day   string
}

func NewMemoryFrequencyCache() *MemoryFrequencyCache {
	return &MemoryFrequencyCache{
		work:     make(map[int64][]time.Time),
		gamble:   make(map[int64]dayCounter),
		failures: make(map[int64]failureStreak),
	}
}

func (c *MemoryFrequencyCache) RecordWork(userID int64, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(-OverworkWindow)
	kept := c.work[userID][:0]
	for _, ts := range c.work[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	c.work[userID] = kept
	return len(kept)
}

func (c *MemoryFrequencyCache) RecordGamble(userID int64, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	day := dayKey(now)
	dc := c.gamble[userID]
	if dc.day != day {
		dc = dayCounter{day: day}
	}
	dc.count++
	c.gamble[userID] = dc
	return dc.count
}

func (c *MemoryFrequencyCache) AddWorkFailure(userID int64, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	day := dayKey(now)
	fs := c.failures[userID]
	if fs.day != day {
		fs = failureStreak{day: day}
	}
	fs.count++
	c.failures[userID] = fs
	return fs.count
}

func (c *MemoryFrequencyCache) ResetWorkFailures(userID int64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[userID] = failureStreak{day: dayKey(now)}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
