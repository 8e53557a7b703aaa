package target

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// Disposition tells FindThread what to do with the thread it finds.
type Disposition int

const (
	// DontInvalidateContext is a pure lookup.
	DontInvalidateContext Disposition = iota
	// DontSuspend invalidates the cached context without suspending.
	DontSuspend
	// InvalidateContext invalidates the cached context and suspends the
	// thread, for callers about to inspect or change its registers.
	InvalidateContext
)

func (d Disposition) String() string {
	switch d {
	case DontInvalidateContext:
		return "dont-invalidate-context"
	case DontSuspend:
		return "dont-suspend"
	case InvalidateContext:
		return "invalidate-context"
	}
	return "invalid"
}

// ThreadRegistry maps thread ids to thread records. A record is created when
// the thread's creation is reported and destroyed when its exit is.
type ThreadRegistry struct {
	p       *Process
	threads map[uint32]*Thread
}

func newThreadRegistry(p *Process) *ThreadRegistry {
	return &ThreadRegistry{p: p, threads: map[uint32]*Thread{}}
}

// ResolveThread finds the record of tid and applies d to it. Only threads
// not suspended by us are invalidated: a suspended thread cannot have
// changed its registers, and a cache holding unflushed writes is kept. The
// thread reporting the current event is already stopped by the OS and is
// not suspended again.
func (r *ThreadRegistry) ResolveThread(tid uint32, d Disposition) (*Thread, error) {
	t, ok := r.threads[tid]
	if !ok {
		return nil, &ThreadNotFoundError{ID: tid}
	}
	if t.suspended != NotSuspended {
		return t, nil
	}

	switch d {
	case DontSuspend:
		t.invalidate()
	case InvalidateContext:
		if tid != r.p.currentEvent.ThreadID {
			t.Suspend()
		}
		t.invalidate()
	}
	return t, nil
}

// Len returns the number of live threads.
func (r *ThreadRegistry) Len() int {
	return len(r.threads)
}

// Threads returns the live threads ordered by id.
func (r *ThreadRegistry) Threads() []*Thread {
	list := make([]*Thread, 0, len(r.threads))
	for _, t := range r.threads {
		list = append(list, t)
	}
	slices.SortFunc(list, func(a, b *Thread) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return list
}

// add records a new thread. Each id is added once.
func (r *ThreadRegistry) add(tid uint32, h winapi.Handle, tlb uint64) (*Thread, error) {
	if _, ok := r.threads[tid]; ok {
		return nil, &InternalError{Op: "add thread", Msg: fmt.Sprintf("thread %#x already exists", tid)}
	}
	if r.p.Wow64 && tlb != 0 {
		tlb += winapi.Wow64TLBOffset
	}
	t := newThread(r.p, tid, h, tlb)
	r.threads[tid] = t
	return t, nil
}

// remove destroys the record of tid and closes its handle. The thread is
// gone, so it is never resumed here even if we suspended it.
func (r *ThreadRegistry) remove(tid uint32) error {
	t, ok := r.threads[tid]
	if !ok {
		return &ThreadNotFoundError{ID: tid}
	}
	delete(r.threads, tid)
	return r.destroy(t)
}

func (r *ThreadRegistry) destroy(t *Thread) error {
	if t.closed {
		return &InternalError{Op: "destroy thread", Msg: fmt.Sprintf("thread %#x handle closed twice", t.ID)}
	}
	t.closed = true
	t.suspended = NotSuspended
	if err := r.p.api.CloseHandle(t.Handle); err != nil {
		r.p.log.Warnf("CloseHandle (tid=%#x) failed: %v", t.ID, err)
	}
	return nil
}

// clear destroys every record.
func (r *ThreadRegistry) clear() {
	for _, t := range r.Threads() {
		delete(r.threads, t.ID)
		r.destroy(t)
	}
}
