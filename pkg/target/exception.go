package target

import (
	"github.com/hitzhangjie/wdbg/pkg/logflags"
	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// exceptionResult tells the dispatcher how an exception event continues.
type exceptionResult int

const (
	// exceptionHandled: the exception is a stop.
	exceptionHandled exceptionResult = iota
	// exceptionUnhandled: pass it back to the debuggee with
	// DBG_EXCEPTION_NOT_HANDLED, no stop.
	exceptionUnhandled
	// exceptionIgnored: consumed by the debugger, no stop.
	exceptionIgnored
)

const (
	// msVCSetThreadName is the first parameter of an MS_VC_EXCEPTION that
	// names a thread.
	msVCSetThreadName = 0x1000
	// maxThreadNameLen bounds the thread name read from the debuggee.
	maxThreadNameLen = 1025
)

// handleException classifies the current event, an EXCEPTION_DEBUG_EVENT.
func (p *Process) handleException() (Status, exceptionResult) {
	info := p.currentEvent.Exception()
	rec := &info.Record
	p.SigInfo = *rec

	if logflags.DebugExceptions() {
		p.log.Debugf("target exception %s at %#x (first chance: %v)",
			winapi.ExceptionName(rec.Code), rec.Address, info.FirstChance)
	}

	if rec.Code == winapi.MS_VC_EXCEPTION && p.nameThread(rec) {
		return Status{}, exceptionIgnored
	}

	if sig, ok := exceptionSignal(rec.Code); ok {
		return Stopped(sig), exceptionHandled
	}

	if info.FirstChance {
		return Status{}, exceptionUnhandled
	}
	p.log.Warnf("unknown target exception %#08x at %#x", rec.Code, rec.Address)
	return Stopped(SignalUnknown), exceptionHandled
}

// nameThread handles the MS_VC_EXCEPTION a program raises to name one of
// its threads. It reports whether the exception was a naming request.
func (p *Process) nameThread(rec *winapi.ExceptionRecord) bool {
	if rec.NumberParameters < 3 || rec.Information[0] != msVCSetThreadName {
		return false
	}

	tid := uint32(rec.Information[2])
	if int32(tid) == -1 {
		tid = p.currentEvent.ThreadID
	}

	name, err := p.readCString(rec.Information[1], maxThreadNameLen)
	if err != nil {
		p.log.Debugf("reading name of thread %#x failed: %v", tid, err)
		return true
	}

	t, err := p.resolver.ResolveThread(tid, DontInvalidateContext)
	if err != nil {
		p.log.Debugf("naming thread %#x: %v", tid, err)
		return true
	}
	t.Name = name
	return true
}
