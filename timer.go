package exercise

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// TickSource drives the runtime timer. Start may be called again after Stop.
// After Stop returns the handler is never invoked again, even if a tick was
// already scheduled.
type TickSource interface {
	Start(handler func())
	Stop()
}

// CronTickSource fires once per unit using a cron constant-delay schedule.
// cron only schedules whole seconds: units below one second become one
// second and longer units are truncated. Unit reports the effective period.
type CronTickSource struct {
	unit time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	stopped *atomic.Bool
}

// NewCronTickSource creates a tick source with the given unit.
func NewCronTickSource(unit time.Duration) *CronTickSource {
	if unit <= 0 {
		unit = time.Second
	}
	return &CronTickSource{unit: cron.Every(unit).Delay}
}

// Unit returns the period between ticks after cron rounding.
func (s *CronTickSource) Unit() time.Duration { return s.unit }

// Start implements TickSource.
func (s *CronTickSource) Start(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}

	stopped := &atomic.Bool{}
	c := cron.New()
	c.Schedule(cron.ConstantDelaySchedule{Delay: s.unit}, cron.FuncJob(func() {
		if stopped.Load() {
			return
		}
		handler()
	}))
	c.Start()

	s.cron = c
	s.stopped = stopped
}

// Stop implements TickSource. It does not wait for a running tick to finish
// so it is safe to call from inside the handler.
func (s *CronTickSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.stopped.Store(true)
	s.cron.Stop()
	s.cron = nil
	s.stopped = nil
}

// ManualTickSource ticks only when Tick is called. It is used by tests and by
// hosts that already own a clock.
type ManualTickSource struct {
	mu      sync.Mutex
	handler func()
}

// NewManualTickSource creates a stopped manual source.
func NewManualTickSource() *ManualTickSource {
	return &ManualTickSource{}
}

// Start implements TickSource.
func (s *ManualTickSource) Start(handler func()) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// Stop implements TickSource.
func (s *ManualTickSource) Stop() {
	s.mu.Lock()
	s.handler = nil
	s.mu.Unlock()
}

// Running reports whether a handler is attached.
func (s *ManualTickSource) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler != nil
}

// Tick invokes the handler n times. It returns the number of ticks delivered.
func (s *ManualTickSource) Tick(n int) int {
	delivered := 0
	for i := 0; i < n; i++ {
		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		if h == nil {
			break
		}
		h()
		delivered++
	}
	return delivered
}

// Timer tracks elapsed time in whole units against an optional limit. It is
// not synchronized; the runtime guards it with its state lock.
type Timer struct {
	unit    time.Duration
	limit   time.Duration
	elapsed time.Duration
	expired bool
}

// NewTimer creates a timer. A zero limit means unlimited.
func NewTimer(unit, limit time.Duration) *Timer {
	if unit <= 0 {
		unit = time.Second
	}
	return &Timer{unit: unit, limit: limit}
}

// Limited reports whether a time limit is configured.
func (t *Timer) Limited() bool { return t.limit > 0 }

// Elapsed returns the time counted so far.
func (t *Timer) Elapsed() time.Duration { return t.elapsed }

// Remaining returns max(0, limit-elapsed), or zero when unlimited.
func (t *Timer) Remaining() time.Duration {
	if !t.Limited() {
		return 0
	}
	return max(0, t.limit-t.elapsed)
}

// Expired reports whether the limit has been reached.
func (t *Timer) Expired() bool { return t.expired }

// Advance counts one unit. expired is true only on the tick where the
// remaining time first reaches zero.
func (t *Timer) Advance() (payload TickPayload, expired bool) {
	t.elapsed += t.unit
	if t.Limited() && !t.expired && t.Remaining() == 0 {
		t.expired = true
		expired = true
	}
	return t.payload(), expired
}

// Reset rewinds the timer.
func (t *Timer) Reset() {
	t.elapsed = 0
	t.expired = false
}

func (t *Timer) payload() TickPayload {
	return TickPayload{
		Elapsed:   t.elapsed,
		Remaining: t.Remaining(),
		Limited:   t.Limited(),
	}
}
