package target

import (
	"golang.org/x/exp/slices"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// AnyThread as a desired stop thread id accepts a stop in any thread.
const AnyThread = ^uint32(0)

// PendingStop is a stop reported for a thread other than the one being
// waited for.
type PendingStop struct {
	ThreadID uint32
	Status   Status
	// Event is a copy: only the latest event fetched from the OS may be
	// passed to ContinueDebugEvent, and this one is older.
	Event winapi.DebugEvent

	// Breakpoint is set when the stop is a trap on one of our int3s. The
	// PC adjustment is owed again when the stop is replayed.
	Breakpoint bool
	// Stale is set when the thread could not be kept suspended, so it may
	// have run past the stop by the time it is replayed.
	Stale bool
}

// PendingStops queues stops that arrived out of turn.
//
// Windows sometimes reports a stop on a thread that is ostensibly
// suspended. Two threads hit a breakpoint simultaneously and the kernel
// queues both events, so while single stepping thread A, with every other
// thread suspended, a stop shows up in thread B. Such stops are queued
// here and reported once the step has completed.
type PendingStops struct {
	stops []PendingStop
}

func matches(desired, tid uint32) bool {
	return desired == AnyThread || desired == tid
}

// Defer appends a stop to the queue. ev is copied.
func (q *PendingStops) Defer(tid uint32, st Status, ev *winapi.DebugEvent) {
	q.add(PendingStop{ThreadID: tid, Status: st, Event: *ev})
}

func (q *PendingStops) add(ps PendingStop) {
	q.stops = append(q.stops, ps)
}

// Match reports whether a stop acceptable to desired is queued.
func (q *PendingStops) Match(desired uint32) bool {
	return slices.IndexFunc(q.stops, func(ps PendingStop) bool {
		return matches(desired, ps.ThreadID)
	}) >= 0
}

// TakeNext removes and returns the oldest stop acceptable to desired.
func (q *PendingStops) TakeNext(desired uint32) (PendingStop, bool) {
	i := slices.IndexFunc(q.stops, func(ps PendingStop) bool {
		return matches(desired, ps.ThreadID)
	})
	if i < 0 {
		return PendingStop{}, false
	}
	ps := q.stops[i]
	q.stops = slices.Delete(q.stops, i, i+1)
	return ps, true
}

// DiscardThread drops the stops of a thread that exited and returns how
// many were dropped.
func (q *PendingStops) DiscardThread(tid uint32) int {
	n := len(q.stops)
	q.stops = slices.DeleteFunc(q.stops, func(ps PendingStop) bool {
		return ps.ThreadID == tid
	})
	return n - len(q.stops)
}

// Len returns the number of queued stops.
func (q *PendingStops) Len() int {
	return len(q.stops)
}

// Stops returns a copy of the queue, oldest first.
func (q *PendingStops) Stops() []PendingStop {
	return slices.Clone(q.stops)
}

func (q *PendingStops) reset() {
	q.stops = nil
}
