package clock

import (
	"sync"
	"time"

	"github.com/layer-3/walletauth/ports"
)

type systemClock struct{}

// System returns the wall clock
func System() ports.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fake is a manually driven clock for tests and simulations
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a fake clock stopped at now
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the current fake time
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the clock to t
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}
