package interact

import "sync/atomic"

// Guard is the re-entrancy flag a caller sets around its own expand/collapse
// animation lifecycle. A second click arriving while the flag is held is
// simply ignored until the caller clears it. The guard carries no timing
// assumptions; it is an explicit boolean, not a wall-clock debounce.
type Guard struct {
	inFlight atomic.Bool
}

// TryBegin claims the guard. It returns false if an interaction is already
// in flight, in which case the caller should drop the event.
func (g *Guard) TryBegin() bool {
	return g.inFlight.CompareAndSwap(false, true)
}

// End clears the guard. Safe to call when not held.
func (g *Guard) End() {
	g.inFlight.Store(false)
}

// InFlight reports whether an interaction is currently being processed.
func (g *Guard) InFlight() bool {
	return g.inFlight.Load()
}
