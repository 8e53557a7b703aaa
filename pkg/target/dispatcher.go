package target

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/hitzhangjie/wdbg/pkg/logflags"
	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// dispatch is the classification of one fetched debug event.
type dispatch struct {
	// tid is the thread the stop is reported for, zero when the event is
	// not a stop.
	tid    uint32
	status Status
	// continueStatus is passed to ContinueDebugEvent when the event is not
	// a stop.
	continueStatus uint32
	// breakpoint is set when the thread trapped on an injected int3.
	breakpoint bool
}

func (d *dispatch) isStop() bool {
	return d.tid != 0 && d.status.Kind != StopSpurious
}

// WaitForStop blocks until a stop acceptable to desired is available and
// returns the thread and status of that stop. desired is a thread id or
// AnyThread.
//
// A stop deferred earlier is delivered first, without asking the OS.
// Otherwise debug events are fetched one at a time. Events that are not
// stops are continued, stops of other threads are queued, and a process
// exit is always delivered. The debuggee stays frozen at the delivered
// event until Continue or Step.
//
// ctx is only checked before fetching an event: once issued, a fetch
// completes.
func (p *Process) WaitForStop(ctx context.Context, desired uint32) (uint32, Status, error) {
	if p.closed {
		return 0, Status{}, ErrNoProcess
	}
	p.desiredStopThreadID = desired

	if tid, st, ok := p.takePendingStop(desired); ok {
		return tid, st, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, Status{}, err
		}
		ok, err := p.fetchEvent()
		if err != nil {
			return 0, Status{}, err
		}
		if !ok {
			continue
		}

		d, err := p.getDebugEvent()
		if err != nil {
			return 0, Status{}, err
		}

		switch {
		case !d.isStop():
			if err := p.continueLastDebugEvent(d.continueStatus); err != nil {
				return 0, Status{}, err
			}
			continue

		case d.status.Kind == StopExited || d.status.Kind == StopSignaled:
			p.LastSignal = d.status.Signal
			p.currentThread = nil
			return d.tid, d.status, nil

		case !matches(desired, d.tid):
			if d.status.Kind == StopStopped {
				p.deferStop(&d)
			} else {
				p.log.Debugf("thread %#x %s while waiting for thread %#x, not reported", d.tid, d.status, desired)
			}
			if err := p.continueLastDebugEvent(winapi.DBG_CONTINUE); err != nil {
				return 0, Status{}, err
			}
			continue

		case d.status.Kind == StopThreadExited:
			// the record is already gone
			p.currentThread = nil
			return d.tid, d.status, nil
		}

		t, err := p.resolver.ResolveThread(d.tid, InvalidateContext)
		if err != nil {
			p.log.Warnf("stop reported for thread %#x: %v", d.tid, err)
			if err := p.continueLastDebugEvent(winapi.DBG_CONTINUE); err != nil {
				return 0, Status{}, err
			}
			continue
		}
		if d.breakpoint {
			t.markSoftwareBreakpoint()
		}
		p.currentThread = t
		if d.status.Kind == StopStopped {
			p.LastSignal = d.status.Signal
		}
		return d.tid, d.status, nil
	}
}

// takePendingStop delivers the oldest deferred stop acceptable to desired.
// Stops of threads that no longer exist are dropped.
func (p *Process) takePendingStop(desired uint32) (uint32, Status, bool) {
	for {
		ps, ok := p.pending.TakeNext(desired)
		if !ok {
			return 0, Status{}, false
		}

		t, err := p.resolver.ResolveThread(ps.ThreadID, InvalidateContext)
		if err != nil {
			p.log.Debugf("dropping pending stop: %v", err)
			continue
		}

		p.currentEvent = ps.Event
		if ps.Event.Code == winapi.EXCEPTION_DEBUG_EVENT {
			p.SigInfo = ps.Event.Exception().Record
		}
		// a Resume since the stop was deferred dropped the breakpoint state
		if ps.Breakpoint {
			t.markSoftwareBreakpoint()
		} else {
			t.invalidate()
		}
		if ps.Stale {
			p.log.Debugf("replaying stop of thread %#x that was not kept suspended", ps.ThreadID)
		}
		p.currentThread = t
		p.LastSignal = ps.Status.Signal

		if logflags.DebugEvents() {
			p.log.Debugf("replaying pending stop of thread %#x: %s", ps.ThreadID, ps.Status)
		}
		return ps.ThreadID, ps.Status, true
	}
}

// deferStop queues the stop of a thread nobody is waiting for. The thread
// is kept suspended so it does not run past the stop before it is
// reported.
func (p *Process) deferStop(d *dispatch) {
	t, err := p.resolver.ResolveThread(d.tid, DontInvalidateContext)
	if err != nil {
		p.log.Warnf("cannot defer stop: %v", err)
		return
	}
	if d.breakpoint {
		t.markSoftwareBreakpoint()
	}
	ps := PendingStop{
		ThreadID:   d.tid,
		Status:     d.status,
		Event:      p.currentEvent,
		Breakpoint: d.breakpoint,
	}
	if err := t.Suspend(); err != nil {
		ps.Stale = true
		p.log.Warnf("thread %#x not suspended, its deferred stop (%s) may be stale", d.tid, d.status)
	}
	p.pending.add(ps)

	if logflags.DebugEvents() {
		p.log.Debugf("deferring stop of thread %#x (%s) while waiting for thread %#x",
			d.tid, d.status, p.desiredStopThreadID)
	}
}

// fetchEvent issues one WaitForDebugEvent. It reports false when the wait
// timed out with no event.
func (p *Process) fetchEvent() (bool, error) {
	if p.eventOutstanding {
		return false, &InternalError{
			Op:  "fetch debug event",
			Msg: fmt.Sprintf("%s was not continued", p.lastWaitEvent),
		}
	}

	var (
		ev  winapi.DebugEvent
		err error
	)
	if e := p.dbg.exec(func() {
		err = p.api.WaitForDebugEvent(&ev, p.opts.WaitTimeout)
	}); e != nil {
		return false, e
	}
	if errors.Is(err, winapi.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("WaitForDebugEvent: %w", err)
	}

	p.lastWaitEvent = ev
	p.currentEvent = ev
	p.eventOutstanding = true
	p.eventCount.Inc()

	if logflags.DebugEvents() {
		p.log.Debugf("event %d: %s", p.eventCount.Load(), ev)
	}
	return true, nil
}

// continueLastDebugEvent lets the debuggee run from the last fetched
// event. Threads not suspended by us run, so their pending register writes
// are flushed and their caches invalidated.
func (p *Process) continueLastDebugEvent(status uint32) error {
	if !p.eventOutstanding {
		return &InternalError{Op: "continue debug event", Msg: "no debug event outstanding"}
	}

	for _, t := range p.threads.Threads() {
		if t.suspended == SuspendedByUs {
			continue
		}
		if err := t.prepareRun(); err != nil {
			p.log.Warnf("thread %#x: %v", t.ID, err)
		}
		t.reloadContext = true
	}

	ev := p.lastWaitEvent
	var err error
	if e := p.dbg.exec(func() {
		err = p.api.ContinueDebugEvent(ev.ProcessID, ev.ThreadID, status)
	}); e != nil {
		return e
	}
	if err != nil {
		return fmt.Errorf("ContinueDebugEvent (pid=%d tid=%#x): %w", ev.ProcessID, ev.ThreadID, err)
	}
	p.eventOutstanding = false

	if logflags.DebugEvents() {
		p.log.Debugf("ContinueDebugEvent (cpid=%d, ctid=%#x, %#x)", ev.ProcessID, ev.ThreadID, status)
	}
	return nil
}

// continueStatus picks the ContinueDebugEvent status for resuming with
// sig. Only the signal of the current exception can be passed back to
// the debuggee.
func (p *Process) continueStatus(sig Signal) uint32 {
	if sig == Signal0 {
		return winapi.DBG_CONTINUE
	}
	if p.currentEvent.Code != winapi.EXCEPTION_DEBUG_EVENT {
		p.log.Warnf("cannot continue with signal %s here", sig)
		return winapi.DBG_CONTINUE
	}
	if sig == p.LastSignal {
		return winapi.DBG_EXCEPTION_NOT_HANDLED
	}
	p.log.Warnf("cannot deliver signal %s, only %s", sig, p.LastSignal)
	return winapi.DBG_CONTINUE
}

// Continue lets the debuggee run. With desired set to a thread id only
// that thread runs and the others are suspended; AnyThread resumes every
// thread we suspended. When a deferred stop acceptable to desired exists
// the OS is not touched at all and the next WaitForStop delivers it.
//
// sig re-delivers the signal of the current exception to the debuggee.
func (p *Process) Continue(desired uint32, sig Signal) error {
	if p.closed || p.exited {
		return ErrNoProcess
	}
	if desired != AnyThread {
		if _, err := p.resolver.ResolveThread(desired, DontInvalidateContext); err != nil {
			return err
		}
	}

	p.desiredStopThreadID = desired
	if p.pending.Match(desired) {
		p.log.Debugf("pending stop for thread %#x, not resuming", desired)
		return nil
	}

	status := p.continueStatus(sig)

	var errs []error
	for _, t := range p.threads.Threads() {
		if matches(desired, t.ID) {
			if err := t.Resume(); err != nil {
				errs = append(errs, err)
			}
		} else {
			t.Suspend()
		}
	}

	if err := p.continueLastDebugEvent(status); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// Step single steps thread tid while every other thread stays suspended.
func (p *Process) Step(tid uint32, sig Signal) error {
	if p.closed || p.exited {
		return ErrNoProcess
	}
	t, err := p.resolver.ResolveThread(tid, InvalidateContext)
	if err != nil {
		return err
	}
	// the queued stop is reported instead and the thread does not run, so
	// no trap flag may be left behind
	if p.pending.Match(tid) {
		return p.Continue(tid, sig)
	}
	if err := t.setTrapFlag(); err != nil {
		return err
	}
	return p.Continue(tid, sig)
}

// ResumeAll resumes every thread we suspended, except the listed ones.
// Every failure is reported.
func (p *Process) ResumeAll(except ...uint32) error {
	var errs []error
	for _, t := range p.threads.Threads() {
		if slices.Contains(except, t.ID) {
			continue
		}
		if err := t.Resume(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CurrentThread returns the selected thread, nil if none.
func (p *Process) CurrentThread() *Thread {
	return p.currentThread
}

// SelectThread makes tid the selected thread. The thread is suspended and
// its registers will be read afresh.
func (p *Process) SelectThread(tid uint32) (*Thread, error) {
	t, err := p.resolver.ResolveThread(tid, InvalidateContext)
	if err != nil {
		return nil, err
	}
	p.currentThread = t
	return t, nil
}

// getDebugEvent classifies the current event, updating the registry and
// the module table on the way.
func (p *Process) getDebugEvent() (dispatch, error) {
	ev := &p.currentEvent
	d := dispatch{continueStatus: winapi.DBG_CONTINUE}

	if !p.created && ev.Code != winapi.CREATE_PROCESS_DEBUG_EVENT {
		p.log.Debugf("%s before process creation, ignored", ev)
		return d, nil
	}

	switch ev.Code {
	case winapi.CREATE_PROCESS_DEBUG_EVENT:
		return d, p.onCreateProcess(&d)

	case winapi.CREATE_THREAD_DEBUG_EVENT:
		info := ev.CreateThread()
		if _, err := p.threads.add(ev.ThreadID, info.Thread, info.ThreadLocalBase); err != nil {
			return d, err
		}
		if p.opts.ReportThreadEvents {
			d.tid = ev.ThreadID
			d.status = Status{Kind: StopThreadCreated}
		}

	case winapi.EXIT_THREAD_DEBUG_EVENT:
		code := ev.ExitCode()
		if err := p.threads.remove(ev.ThreadID); err != nil {
			var ierr *InternalError
			if errors.As(err, &ierr) {
				return d, err
			}
			p.log.Warnf("exit of unknown thread: %v", err)
		}
		if n := p.pending.DiscardThread(ev.ThreadID); n > 0 {
			p.log.Debugf("thread %#x exited, %d pending stops dropped", ev.ThreadID, n)
		}
		if p.currentThread != nil && p.currentThread.ID == ev.ThreadID {
			p.currentThread = nil
		}
		if p.opts.ReportThreadEvents {
			d.tid = ev.ThreadID
			d.status = Status{Kind: StopThreadExited, ExitCode: code}
		}

	case winapi.EXIT_PROCESS_DEBUG_EVENT:
		code := ev.ExitCode()
		p.exited = true
		d.tid = p.MainThreadID
		if d.tid == 0 {
			d.tid = ev.ThreadID
		}
		if sig, ok := exitSignal(code); ok {
			d.status = Signaled(sig)
		} else {
			d.status = Exited(code)
		}

	case winapi.LOAD_DLL_DEBUG_EVENT:
		info := ev.LoadDll()
		p.closeFileHandle(info.File)
		p.addModule(info.BaseOfDll, info.ImageName, info.Unicode)
		if p.opts.ReportLibraryEvents {
			d.tid = ev.ThreadID
			d.status = Status{Kind: StopLoaded}
		}

	case winapi.UNLOAD_DLL_DEBUG_EVENT:
		base := ev.UnloadDll()
		if name, ok := p.modules[base]; ok {
			p.log.Debugf("unloaded %s at %#x", name, base)
			delete(p.modules, base)
		}
		if p.opts.ReportLibraryEvents {
			d.tid = ev.ThreadID
			d.status = Status{Kind: StopLoaded}
		}

	case winapi.EXCEPTION_DEBUG_EVENT:
		st, res := p.handleException()
		switch res {
		case exceptionHandled:
			d.tid = ev.ThreadID
			d.status = st
			d.breakpoint = ev.IsBreakpoint() && p.atInjectedBreakpoint(p.SigInfo.Address)
		case exceptionUnhandled:
			d.continueStatus = winapi.DBG_EXCEPTION_NOT_HANDLED
		}

	case winapi.OUTPUT_DEBUG_STRING_EVENT:
		p.onDebugString(&d)

	case winapi.RIP_EVENT:
		info := ev.RIP()
		p.log.Warnf("RIP event in thread %#x: error %d, type %d", ev.ThreadID, info.Error, info.Type)

	default:
		p.log.Warnf("unknown debug event %d (pid=%d tid=%#x), ignored", ev.Code, ev.ProcessID, ev.ThreadID)
	}
	return d, nil
}

func (p *Process) onCreateProcess(d *dispatch) error {
	ev := &p.currentEvent
	info := ev.CreateProcess()
	p.closeFileHandle(info.File)

	if p.created {
		p.log.Warnf("%s while debugging process %d, ignored", ev, p.ID)
		return nil
	}
	p.created = true
	p.ID = ev.ProcessID
	p.Handle = info.Process
	p.MainThreadID = ev.ThreadID

	wow64, err := p.api.IsWow64Process(info.Process)
	if err != nil {
		p.log.Warnf("IsWow64Process (pid=%d) failed: %v", p.ID, err)
	}
	p.Wow64 = wow64

	if _, err := p.threads.add(ev.ThreadID, info.Thread, info.ThreadLocalBase); err != nil {
		return err
	}
	p.addModule(info.BaseOfImage, info.ImageName, info.Unicode)

	if p.opts.ReportThreadEvents {
		d.tid = ev.ThreadID
		d.status = Status{Kind: StopThreadCreated}
	}
	return nil
}

func (p *Process) onDebugString(d *dispatch) {
	ev := &p.currentEvent
	msg, err := p.readDebugString(ev.DebugString())
	if err != nil {
		p.log.Debugf("reading debug string of thread %#x: %v", ev.ThreadID, err)
		return
	}

	dir := p.debugStrings.InterpretDebugString(msg, ev.ThreadID)
	if dir.ThreadID != 0 {
		d.tid = dir.ThreadID
		d.status = dir.Status
		return
	}
	if dir.Warning != "" {
		p.log.Warn(dir.Warning)
	}
}

// addModule records a loaded image. The main executable falls back to the
// launched command when Windows does not provide its name.
func (p *Process) addModule(base, nameAddr uint64, unicode bool) {
	name, err := p.imageNames.ResolveImageName(p.Handle, nameAddr, unicode)
	if err != nil {
		if len(p.modules) == 0 && p.Command != "" {
			name = p.Command
		} else {
			p.log.Warnf("cannot resolve name of module at %#x: %v", base, err)
		}
	}
	p.modules[base] = name
	p.log.Debugf("loaded %q at %#x", name, base)
}

func (p *Process) closeFileHandle(h winapi.Handle) {
	if h == 0 {
		return
	}
	if err := p.api.CloseHandle(h); err != nil {
		p.log.Debugf("CloseHandle (file) failed: %v", err)
	}
}
