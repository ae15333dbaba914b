package pacing

import (
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is the display cycle length at 25 frames per second.
const DefaultInterval = 40 * time.Millisecond

// Cycle describes one completed display cycle.
type Cycle struct {
	Started time.Time
	// Work is the time spent between BeginCycle and EndCycle.
	Work time.Duration
	// Waited is the time EndCycle blocked for the interval timer.
	Waited time.Duration
	// Overrun is set when Work alone reached the interval; the cycle then
	// ends late and nothing is skipped to catch up.
	Overrun bool
}

// Total returns the wall-clock length of the cycle.
func (c Cycle) Total() time.Duration {
	return c.Work + c.Waited
}

// Synchronizer bounds each display cycle to a fixed interval. BeginCycle
// starts a timer goroutine that runs alongside decode and render work;
// EndCycle blocks until that timer has fired.
type Synchronizer struct {
	interval time.Duration

	mu      sync.Mutex
	started time.Time
	done    <-chan struct{}

	cycles   uint64
	overruns uint64
}

// NewSynchronizer creates a synchronizer with the given cycle interval.
func NewSynchronizer(interval time.Duration) (*Synchronizer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("pacing interval must be positive, got %v", interval)
	}
	return &Synchronizer{interval: interval}, nil
}

// ForFPS creates a synchronizer whose interval is one second divided by fps.
func ForFPS(fps int) (*Synchronizer, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	return NewSynchronizer(time.Second / time.Duration(fps))
}

// Interval returns the cycle interval.
func (s *Synchronizer) Interval() time.Duration {
	return s.interval
}

// BeginCycle records the cycle start and starts its interval timer.
func (s *Synchronizer) BeginCycle() {
	done := make(chan struct{})
	interval := s.interval

	s.mu.Lock()
	s.started = time.Now()
	s.done = done
	s.mu.Unlock()

	go func() {
		timer := time.NewTimer(interval)
		<-timer.C
		close(done)
	}()
}

// EndCycle blocks until the interval started by BeginCycle has elapsed. It
// returns immediately if the interval has already passed, or if no cycle
// is open.
func (s *Synchronizer) EndCycle() Cycle {
	s.mu.Lock()
	started, done := s.started, s.done
	s.done = nil
	s.mu.Unlock()

	if done == nil {
		return Cycle{}
	}

	work := time.Since(started)
	c := Cycle{
		Started: started,
		Work:    work,
		Overrun: work >= s.interval,
	}

	waitStart := time.Now()
	<-done
	if !c.Overrun {
		c.Waited = time.Since(waitStart)
	}

	s.mu.Lock()
	s.cycles++
	if c.Overrun {
		s.overruns++
	}
	s.mu.Unlock()

	return c
}

// Stats returns the number of completed cycles and how many overran.
func (s *Synchronizer) Stats() (cycles, overruns uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles, s.overruns
}
