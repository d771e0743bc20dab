package clockfake

import (
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-webadmin/eventloop"
)

var _ eventloop.Clock = (*Clock)(nil)

// Clock is a manually advanced clock. Timers fire synchronously inside Advance.
type Clock struct {
	lock   sync.Mutex
	now    time.Time
	seq    int
	timers []*timer
}

type timer struct {
	clock   *Clock
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func New(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, f func()) eventloop.Timer {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.seq++
	t := &timer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and fires every timer that became due, earliest first
func (c *Clock) Advance(d time.Duration) {
	c.lock.Lock()
	c.now = c.now.Add(d)
	due := make([]*timer, 0)
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if t.stopped {
			continue
		}
		if !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
			continue
		}
		remaining = append(remaining, t)
	}
	c.timers = remaining
	c.lock.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of armed timers that have neither fired nor been stopped
func (c *Clock) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	count := 0
	for _, t := range c.timers {
		if !t.stopped {
			count++
		}
	}
	return count
}

// NextDeadline returns the time until the earliest pending timer
func (c *Clock) NextDeadline() (time.Duration, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	var next time.Time
	found := false
	for _, t := range c.timers {
		if t.stopped {
			continue
		}
		if !found || t.at.Before(next) {
			next = t.at
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return next.Sub(c.now), true
}

func (t *timer) Stop() bool {
	t.clock.lock.Lock()
	defer t.clock.lock.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
