package animation

import (
	"sync"
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler is the clock the engines animate against.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler runs callbacks on the wall clock.
type RealScheduler struct{}

func (RealScheduler) Now() time.Time { return time.Now() }

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// ManualScheduler only moves when Advance is called. Callbacks run on the
// goroutine calling Advance, in deadline order and then in scheduling order.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	s    *ManualScheduler
	at   time.Time
	seq  uint64
	f    func()
	done bool
}

// NewManualScheduler creates a ManualScheduler starting at start
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now.Add(max(d, 0)), seq: s.seq, f: f}
	s.pending = append(s.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.s.remove(t)
	return true
}

func (s *ManualScheduler) remove(t *manualTimer) {
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by d, firing every timer that comes due,
// including timers scheduled by callbacks fired along the way.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.done = true
		s.remove(next)
		if next.at.After(s.now) {
			s.now = next.at
		}
		s.mu.Unlock()

		next.f()
	}
}

func (s *ManualScheduler) nextDue(target time.Time) *manualTimer {
	var next *manualTimer
	for _, t := range s.pending {
		if t.at.After(target) {
			continue
		}
		if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

// Pending reports how many timers are waiting.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func stopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}
