package gateway

import "time"

// Scheduler drives the periodic telemetry refresh.
//
// It starts disarmed; nothing fires until the first Rearm, which
// happens when the device completes its reset. Every telemetry request
// re-arms the scheduler, so the interval is measured from the last
// request sent, not from a fixed epoch.
//
// The scheduler is confined to the event loop goroutine.
type Scheduler struct {
	interval time.Duration
	timer    *time.Timer
	next     time.Time
	armed    bool
	now      func() time.Time
}

// NewScheduler creates a disarmed scheduler.
func NewScheduler(interval time.Duration) *Scheduler {
	return &Scheduler{
		interval: interval,
		now:      time.Now,
	}
}

// C returns the timer channel for the event loop's select. It is nil
// while disarmed, which blocks that select case forever.
func (s *Scheduler) C() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

// Armed reports whether a refresh is scheduled.
func (s *Scheduler) Armed() bool {
	return s.armed
}

// Due reports whether the scheduled time has arrived. A timer wake
// that races a Rearm is not due; callers must check before sending.
func (s *Scheduler) Due() bool {
	return s.armed && !s.now().Before(s.next)
}

// Rearm schedules the next refresh one interval from now.
func (s *Scheduler) Rearm() {
	s.next = s.now().Add(s.interval)
	s.armed = true
	if s.timer == nil {
		s.timer = time.NewTimer(s.interval)
		return
	}
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
	s.timer.Reset(s.interval)
}

// Stop disarms the scheduler and releases its timer.
func (s *Scheduler) Stop() {
	s.armed = false
	if s.timer != nil {
		s.timer.Stop()
	}
}
