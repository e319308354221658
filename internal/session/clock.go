package session

import (
	"sync"
	"time"
)

const defaultTickInterval = time.Second

// tick is one countdown step for an armed clock. The epoch identifies
// which arm call produced it; the controller drops ticks whose epoch
// is stale.
type tick struct {
	epoch     uint64
	remaining int
}

// clock produces a monotonic countdown for the active question. It
// emits one tick per interval carrying the remaining seconds, with
// exactly one terminal zero tick, then stops.
//
// Emission and cancellation share one mutex: once cancel (or a new
// arm) returns, no tick for the old epoch can be emitted, so stale
// countdowns are never observed by the consumer.
type clock struct {
	interval time.Duration
	emit     func(tick)

	mu    sync.Mutex
	epoch uint64
	stop  chan struct{}
}

func newClock(interval time.Duration, emit func(tick)) *clock {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &clock{interval: interval, emit: emit}
}

// arm starts a countdown of the given number of seconds, implicitly
// cancelling any prior countdown. It returns the epoch stamped on the
// new countdown's ticks.
func (c *clock) arm(seconds int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.epoch++
	ep := c.epoch
	stop := make(chan struct{})
	c.stop = stop

	go c.run(ep, seconds, stop)
	return ep
}

// cancel stops emission. No-op if nothing is armed or the countdown
// already reached its terminal tick.
func (c *clock) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.epoch++
}

func (c *clock) cancelLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *clock) run(ep uint64, seconds int, stop chan struct{}) {
	if seconds <= 0 {
		c.emitIfCurrent(ep, 0)
		return
	}

	t := time.NewTicker(c.interval)
	defer t.Stop()

	remaining := seconds
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			remaining--
			if !c.emitIfCurrent(ep, remaining) {
				return
			}
			if remaining <= 0 {
				return
			}
		}
	}
}

// emitIfCurrent emits a tick only while ep is still the armed epoch.
// Holding the mutex across the check and the emit makes cancellation
// synchronous with respect to the consumer.
func (c *clock) emitIfCurrent(ep uint64, remaining int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != ep {
		return false
	}
	c.emit(tick{epoch: ep, remaining: remaining})
	return true
}
