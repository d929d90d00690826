package engine

import (
	"sync"
	"time"
)

// CountdownKind names which urgency device a countdown backs.
type CountdownKind string

const (
	// CountdownUrgency is the "offer expires soon" timer shown at the
	// social proof step. Its expiry is pure theater; nothing transitions.
	CountdownUrgency CountdownKind = "urgency"
	// CountdownSessionExpiry is the withdrawal session timer. Its expiry
	// forces the transition to the scam reveal.
	CountdownSessionExpiry CountdownKind = "session_expiry"
)

// Countdown is a cancellable single-fire-per-tick decrementing timer.
// It ticks once per interval (one second in production), invokes onTick
// with the remaining seconds, and on reaching zero invokes onExpire
// exactly once before self-cancelling. Cancel is idempotent.
type Countdown struct {
	kind     CountdownKind
	interval time.Duration
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	total     int
	expired   bool
	stopped   bool
	stop      chan struct{}
}

// NewCountdown creates a countdown of the given kind and duration. The
// interval is injectable so tests don't wait wall-clock seconds; callers
// outside tests pass time.Second. Callbacks may be nil.
func NewCountdown(kind CountdownKind, seconds int, interval time.Duration, onTick func(remaining int), onExpire func()) *Countdown {
	return &Countdown{
		kind:      kind,
		interval:  interval,
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: seconds,
		total:     seconds,
		stop:      make(chan struct{}),
	}
}

// Start begins ticking in a background goroutine.
func (c *Countdown) Start() {
	go c.run()
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if done := c.tick(); done {
				return
			}
		}
	}
}

// tick decrements once and fires callbacks. Returns true when the
// countdown has finished (expired or cancelled mid-tick).
func (c *Countdown) tick() bool {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return true
	}
	c.remaining--
	remaining := c.remaining
	expiring := remaining <= 0
	if expiring {
		// Mark before releasing the lock so a racing Choose() observes
		// the expiry and lets the forced transition win.
		c.expired = true
		c.stopped = true
	}
	c.mu.Unlock()

	if c.onTick != nil && remaining >= 0 {
		c.onTick(remaining)
	}
	if expiring {
		if c.onExpire != nil {
			c.onExpire()
		}
		return true
	}
	return false
}

// Cancel stops the countdown. Safe to call multiple times and after
// expiry.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0
	}
	return c.remaining
}

// Total returns the configured duration in seconds.
func (c *Countdown) Total() int {
	return c.total
}

// Expired reports whether the countdown reached zero. It becomes true
// the instant the final tick lands, possibly before onExpire has run.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Kind returns which urgency device this countdown backs.
func (c *Countdown) Kind() CountdownKind {
	return c.kind
}
