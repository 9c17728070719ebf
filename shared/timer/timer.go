// Package timer is a deterministic timer facility driven by simulated time.
// Nothing here reads the wall clock: the owner advances the scheduler from its
// tick, so client and server replay the same callbacks in the same order.
package timer

// Handle identifies a scheduled timer. The zero Handle is never active.
type Handle struct {
	id uint64
}

// Valid reports whether the handle was returned by Schedule and not cleared.
func (h Handle) Valid() bool { return h.id != 0 }

type entry struct {
	id        uint64
	due       float64
	delay     float64
	repeating bool
	fn        func()
}

// Scheduler runs callbacks once simulated time reaches their due time.
type Scheduler struct {
	now     float64
	nextID  uint64
	entries []*entry
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the current simulated time in seconds.
func (s *Scheduler) Now() float64 { return s.now }

// Schedule arms fn to run delay seconds from now. Repeating timers re-arm
// with the same delay; a repeating timer needs a positive delay.
func (s *Scheduler) Schedule(delay float64, repeating bool, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	if delay == 0 {
		repeating = false
	}
	s.nextID++
	s.entries = append(s.entries, &entry{
		id:        s.nextID,
		due:       s.now + delay,
		delay:     delay,
		repeating: repeating,
		fn:        fn,
	})
	return Handle{id: s.nextID}
}

// Cancel disarms the timer and invalidates the handle. Cancelling an
// inactive handle is a no-op.
func (s *Scheduler) Cancel(h *Handle) {
	if h == nil || !h.Valid() {
		return
	}
	for i, e := range s.entries {
		if e.id == h.id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	*h = Handle{}
}

// IsActive reports whether the timer is still armed.
func (s *Scheduler) IsActive(h Handle) bool {
	return s.find(h) != nil
}

// Remaining returns the seconds until the timer fires, or -1 if inactive.
func (s *Scheduler) Remaining(h Handle) float64 {
	e := s.find(h)
	if e == nil {
		return -1
	}
	return e.due - s.now
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int { return len(s.entries) }

// Advance moves simulated time forward by dt, firing due timers in due-time
// order (ties in scheduling order). Callbacks observe Now() equal to their
// own due time and may schedule or cancel other timers.
func (s *Scheduler) Advance(dt float64) {
	if dt < 0 {
		dt = 0
	}
	target := s.now + dt
	for {
		e := s.nextDue(target)
		if e == nil {
			break
		}
		if e.due > s.now {
			s.now = e.due
		}
		if e.repeating {
			e.due += e.delay
		} else {
			s.remove(e.id)
		}
		e.fn()
	}
	s.now = target
}

// Reset drops every timer without firing it.
func (s *Scheduler) Reset() {
	s.entries = s.entries[:0]
}

func (s *Scheduler) nextDue(target float64) *entry {
	var best *entry
	for _, e := range s.entries {
		if e.due > target {
			continue
		}
		if best == nil || e.due < best.due || (e.due == best.due && e.id < best.id) {
			best = e
		}
	}
	return best
}

func (s *Scheduler) find(h Handle) *entry {
	if !h.Valid() {
		return nil
	}
	for _, e := range s.entries {
		if e.id == h.id {
			return e
		}
	}
	return nil
}

func (s *Scheduler) remove(id uint64) {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}
