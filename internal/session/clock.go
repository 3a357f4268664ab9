package session

import (
	"sync"
	"time"
)

// Clock tracks when a session started and when activity was last seen.
type Clock struct {
	mu             sync.RWMutex
	startedAt      time.Time
	lastActivityAt time.Time
	idle           time.Duration
}

// NewClock returns a clock started at startedAt. Until the first activity is
// recorded, the last activity equals the start.
func NewClock(startedAt time.Time, idle time.Duration) *Clock {
	return &Clock{
		startedAt:      startedAt,
		lastActivityAt: startedAt,
		idle:           idle,
	}
}

// RecordActivity marks now as the latest activity. It is called for every
// add, change and delete event, whatever happened to the file itself.
func (c *Clock) RecordActivity(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivityAt = now
}

// StartedAt returns the session start.
func (c *Clock) StartedAt() time.Time {
	return c.startedAt
}

// LastActivityAt returns the latest recorded activity.
func (c *Clock) LastActivityAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastActivityAt
}

// IdleThreshold returns the idle window used by ProductiveTime.
func (c *Clock) IdleThreshold() time.Duration {
	return c.idle
}

// Elapsed returns the time between the start and the last activity, never
// negative.
func (c *Clock) Elapsed() time.Duration {
	total := c.LastActivityAt().Sub(c.startedAt)
	if total < 0 {
		return 0
	}
	return total
}

// ProductiveTime returns the elapsed session time with one idle window
// discounted: everything beyond the idle threshold counts as inactive.
//
// Unlike per-file active time, which skips every long gap between edits, this
// assumes a single long gap and caps the result at the threshold. The two
// figures answer different questions and are not expected to agree.
func (c *Clock) ProductiveTime() time.Duration {
	total := c.Elapsed()
	inactive := total - c.idle
	if inactive < 0 {
		inactive = 0
	}
	return total - inactive
}
