package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestSeen(max int, ttl time.Duration) (*Seen, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSeen(max, ttl)
	s.now = clk.now
	return s, clk
}

func TestSeenObserve(t *testing.T) {
	s, _ := newTestSeen(10, time.Hour)

	assert.True(t, s.Observe(1))
	assert.False(t, s.Observe(1))
	assert.True(t, s.Observe(2))
	assert.Equal(t, 2, s.Len())
}

func TestSeenExpires(t *testing.T) {
	s, clk := newTestSeen(10, time.Hour)

	assert.True(t, s.Observe(1))
	clk.t = clk.t.Add(30 * time.Minute)
	assert.False(t, s.Observe(1), "observing refreshes the ttl")
	clk.t = clk.t.Add(59 * time.Minute)
	assert.False(t, s.Observe(1))
	clk.t = clk.t.Add(2 * time.Hour)
	assert.True(t, s.Observe(1))
}

func TestSeenEvictsLeastRecent(t *testing.T) {
	s, _ := newTestSeen(2, time.Hour)

	s.Observe(1)
	s.Observe(2)
	s.Observe(1)
	s.Observe(3)

	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Observe(1))
	assert.True(t, s.Observe(2), "2 was evicted")
}

func TestSeenDropsExpiredTail(t *testing.T) {
	s, clk := newTestSeen(10, time.Hour)

	s.Observe(1)
	s.Observe(2)
	clk.t = clk.t.Add(2 * time.Hour)
	s.Observe(3)

	assert.Equal(t, 1, s.Len())
}
