package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/arthshield/fraudlabs/internal/domain"
)

func TestGrowthScheduler_EmitsIncrements(t *testing.T) {
	var mu sync.Mutex
	var got []domain.Money

	g := NewGrowthScheduler(testTick,
		func() domain.Money { return 1000 },
		func(inc domain.Money) {
			mu.Lock()
			got = append(got, inc)
			mu.Unlock()
		})
	g.Start()

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 3
	})
	g.Cancel()

	mu.Lock()
	defer mu.Unlock()
	for i, inc := range got {
		if inc != 1000 {
			t.Errorf("Tick %d: expected increment 1000, got %d", i, inc)
		}
	}
}

func TestGrowthScheduler_CancelStopsTicks(t *testing.T) {
	var mu sync.Mutex
	count := 0

	g := NewGrowthScheduler(testTick,
		func() domain.Money { return 500 },
		func(domain.Money) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	g.Start()

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 1
	})
	g.Cancel()

	mu.Lock()
	after := count
	mu.Unlock()

	time.Sleep(5 * testTick)

	mu.Lock()
	defer mu.Unlock()
	// One in-flight tick may land right as Cancel is called.
	if count > after+1 {
		t.Errorf("Scheduler kept ticking after cancel: %d -> %d", after, count)
	}
	if g.Active() {
		t.Error("Expected Active() false after cancel")
	}
}

func TestGrowthScheduler_CancelIsIdempotent(t *testing.T) {
	g := NewGrowthScheduler(testTick, func() domain.Money { return 1 }, nil)
	g.Start()
	g.Cancel()
	g.Cancel()
}

func TestUniformDraw_StaysInBounds(t *testing.T) {
	draw := UniformDraw(500, 1500)
	for i := 0; i < 1000; i++ {
		inc := draw()
		if inc < 500 || inc > 1500 {
			t.Fatalf("Draw %d out of bounds [500, 1500]: %d", i, inc)
		}
	}
}

func TestUniformDraw_SwappedBounds(t *testing.T) {
	draw := UniformDraw(1500, 500)
	for i := 0; i < 100; i++ {
		inc := draw()
		if inc < 500 || inc > 1500 {
			t.Fatalf("Draw %d out of bounds [500, 1500]: %d", i, inc)
		}
	}
}
