package engine

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/arthshield/fraudlabs/internal/domain"
)

// GrowthScheduler drives the fake balance upward while the session sits
// on the fake returns step. Each tick it draws a randomized increment and
// hands it to onProfit; the machine applies it to the session and emits
// the profit notification. Growth is deliberately uncapped — limitless
// returns are the illusion being taught.
type GrowthScheduler struct {
	interval time.Duration
	draw     func() domain.Money
	onProfit func(domain.Money)

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
}

// UniformDraw returns a draw function yielding amounts uniformly in
// [min, max] inclusive.
func UniformDraw(min, max domain.Money) func() domain.Money {
	if max < min {
		min, max = max, min
	}
	span := int64(max - min + 1)
	return func() domain.Money {
		return min + domain.Money(rand.Int64N(span))
	}
}

// NewGrowthScheduler creates a scheduler. The draw function is injectable
// so tests can pin increments; production wiring uses UniformDraw.
func NewGrowthScheduler(interval time.Duration, draw func() domain.Money, onProfit func(domain.Money)) *GrowthScheduler {
	return &GrowthScheduler{
		interval: interval,
		draw:     draw,
		onProfit: onProfit,
		stop:     make(chan struct{}),
	}
}

// Start begins ticking in a background goroutine.
func (g *GrowthScheduler) Start() {
	go g.run()
}

func (g *GrowthScheduler) run() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			g.mu.Lock()
			stopped := g.stopped
			g.mu.Unlock()
			if stopped {
				return
			}
			if g.onProfit != nil {
				g.onProfit(g.draw())
			}
		}
	}
}

// Cancel stops the scheduler. The balance stays at its last value; this
// component never decrements it. Idempotent.
func (g *GrowthScheduler) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	g.stopped = true
	close(g.stop)
}

// Active reports whether the scheduler is still running.
func (g *GrowthScheduler) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.stopped
}
