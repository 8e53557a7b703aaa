package target

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

func TestLaunchStopsAtLoaderBreakpoint(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, 101)

	assert.Equal(t, uint32(testPID), p.ID)
	assert.Equal(t, procHandle, p.Handle)
	assert.Equal(t, uint32(mainTID), p.MainThreadID)
	assert.True(t, p.EventOutstanding())
	assert.Equal(t, SIGTRAP, p.LastSignal)
	require.NotNil(t, p.CurrentThread())
	assert.Equal(t, uint32(mainTID), p.CurrentThread().ID)
	assert.Equal(t, 2, p.Registry().Len())

	// create process and create thread were continued, the breakpoint was not
	require.Len(t, f.continued, 2)
	assert.Equal(t, uint32(winapi.DBG_CONTINUE), f.continued[0].status)
	assert.Equal(t, 1, f.closed[fileHandle])

	mods := p.Modules()
	require.Len(t, mods, 1)
	assert.Equal(t, Module{Base: 0x400000, Name: "prog.exe"}, mods[0])
	assert.Equal(t, uint64(3), p.EventCount())
}

func TestEventsBeforeCreateProcessAreContinued(t *testing.T) {
	f := newFakeOS()
	f.push(
		winapi.NewLoadDllEvent(testPID, mainTID, winapi.LoadDllInfo{BaseOfDll: 0x7000}),
		createProcessEvent(),
		breakpointEvent(mainTID, loaderBreak),
	)
	p := newTestProcess(t, f, Options{})
	require.NoError(t, p.Launch(context.Background(), "prog.exe", nil, EXEC))

	assert.Len(t, f.continued, 2)
	assert.Len(t, p.Modules(), 1)
}

// A thread hits a breakpoint while another one is single stepped: the
// breakpoint is deferred, the step delivered, and a later wait for any
// thread returns the deferred stop without asking the OS.
func TestDeferredStopWhileStepping(t *testing.T) {
	const (
		t1 = 101
		t2 = 102
	)
	f := newFakeOS()
	f.poke(0x1000, []byte{0x90})
	f.thread(threadHandle(0)).ctx.Rip = 0x1001
	f.thread(threadHandle(1)).ctx.Rip = 0x2000

	p := launchedProcess(t, f, Options{}, t1, t2)
	_, err := p.AddBreakpoint(0x1000)
	require.NoError(t, err)

	require.NoError(t, p.Step(t2, Signal0))
	assert.Equal(t, uint32(t2), p.DesiredStopThreadID())
	assert.Equal(t, uint32(winapi.TrapFlag), f.thread(threadHandle(1)).ctx.EFlags&winapi.TrapFlag)
	assert.Equal(t, 1, f.thread(threadHandle(0)).suspendCount)
	assert.Equal(t, 1, f.thread(mainHandle).suspendCount)
	assert.Equal(t, 0, f.thread(threadHandle(1)).suspendCount)

	f.push(breakpointEvent(t1, 0x1000), singleStepEvent(t2, 0x2003))

	tid, st, err := p.WaitForStop(context.Background(), t2)
	require.NoError(t, err)
	assert.Equal(t, uint32(t2), tid)
	assert.Equal(t, Stopped(SIGTRAP), st)

	stops := p.PendingStops().Stops()
	require.Len(t, stops, 1)
	assert.Equal(t, uint32(t1), stops[0].ThreadID)
	assert.Equal(t, uint32(t1), stops[0].Event.ThreadID)
	// deferring did not suspend t1 a second time
	assert.Equal(t, 1, f.thread(threadHandle(0)).suspendCount)

	continues := len(f.continued)
	waits := f.calls["WaitForDebugEvent"]
	require.NoError(t, p.Continue(AnyThread, Signal0))
	assert.Len(t, f.continued, continues)

	tid, st, err = p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, uint32(t1), tid)
	assert.Equal(t, Stopped(SIGTRAP), st)
	assert.Equal(t, waits, f.calls["WaitForDebugEvent"])
	assert.Equal(t, 0, p.PendingStops().Len())

	th := p.CurrentThread()
	require.NotNil(t, th)
	assert.True(t, th.StoppedAtSoftwareBreakpoint)
	pc, err := th.PC()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), pc)
	assert.Equal(t, uint32(t1), p.CurrentEvent().ThreadID)
	assert.Equal(t, uint32(t2), p.LastWaitEvent().ThreadID)

	// resuming uses the last fetched event, not the replayed one
	require.NoError(t, p.Continue(AnyThread, Signal0))
	last := f.continued[len(f.continued)-1]
	assert.Equal(t, continueCall{testPID, t2, winapi.DBG_CONTINUE}, last)
	for _, th := range f.threads {
		assert.Equal(t, 0, th.suspendCount)
	}
	assert.Equal(t, uint64(0x1001), f.thread(threadHandle(0)).ctx.Rip)
}

func TestWaitForStopDeliversMatchingPendingStopFirst(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, 101, 102)
	require.NoError(t, p.Continue(AnyThread, Signal0))

	f.push(breakpointEvent(101, 0x10), breakpointEvent(102, 0x20))
	tid, _, err := p.WaitForStop(context.Background(), 102)
	require.NoError(t, err)
	assert.Equal(t, uint32(102), tid)

	tid, _, err = p.WaitForStop(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, uint32(101), tid)
	assert.Equal(t, uint32(winapi.EXCEPTION_BREAKPOINT), p.SigInfo.Code)
	assert.Equal(t, uint64(0x10), p.SigInfo.Address)
}

// stepWithDeferredBreakpoint single steps thread 102 while thread 101 traps
// on a breakpoint at 0x1000; the breakpoint stop of 101 ends up queued.
func stepWithDeferredBreakpoint(t *testing.T) (*fakeOS, *Process) {
	f := newFakeOS()
	f.poke(0x1000, []byte{0x90})
	f.thread(threadHandle(0)).ctx.Rip = 0x1001
	f.thread(threadHandle(1)).ctx.Rip = 0x2000

	p := launchedProcess(t, f, Options{}, 101, 102)
	_, err := p.AddBreakpoint(0x1000)
	require.NoError(t, err)

	require.NoError(t, p.Step(102, Signal0))
	f.push(breakpointEvent(101, 0x1000), singleStepEvent(102, 0x2003))
	tid, _, err := p.WaitForStop(context.Background(), 102)
	require.NoError(t, err)
	require.Equal(t, uint32(102), tid)
	require.Equal(t, 1, p.PendingStops().Len())
	return f, p
}

func TestReplayedBreakpointStopAfterResumeAll(t *testing.T) {
	f, p := stepWithDeferredBreakpoint(t)

	ps := p.PendingStops().Stops()[0]
	assert.True(t, ps.Breakpoint)
	assert.False(t, ps.Stale)

	// releases 101 before its stop is reported
	require.NoError(t, p.ResumeAll())
	assert.Equal(t, 0, f.thread(threadHandle(0)).suspendCount)

	tid, st, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, uint32(101), tid)
	assert.Equal(t, Stopped(SIGTRAP), st)

	th := p.CurrentThread()
	require.NotNil(t, th)
	assert.True(t, th.StoppedAtSoftwareBreakpoint)
	pc, err := th.PC()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), pc)
	pc, err = th.PC()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), pc)
}

func TestStepThreadWithQueuedStop(t *testing.T) {
	f, p := stepWithDeferredBreakpoint(t)
	continues := len(f.continued)

	// 101 has a queued stop, so it is reported instead of stepping
	require.NoError(t, p.Step(101, Signal0))
	assert.Len(t, f.continued, continues)

	tid, _, err := p.WaitForStop(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, uint32(101), tid)

	th := p.CurrentThread()
	require.NotNil(t, th)
	regs, err := th.Registers()
	require.NoError(t, err)
	assert.Zero(t, regs.Flags()&winapi.TrapFlag)

	require.NoError(t, p.Continue(AnyThread, Signal0))
	assert.Zero(t, f.thread(threadHandle(0)).ctx.EFlags&winapi.TrapFlag)
	assert.Equal(t, uint64(0x1001), f.thread(threadHandle(0)).ctx.Rip)
}

func TestDeferredStopOfUnsuspendableThread(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, 101, 102)
	require.NoError(t, p.Continue(AnyThread, Signal0))
	f.suspendErr[threadHandle(0)] = winapi.Errno(31)

	f.push(breakpointEvent(101, 0x10), breakpointEvent(102, 0x20))
	tid, _, err := p.WaitForStop(context.Background(), 102)
	require.NoError(t, err)
	assert.Equal(t, uint32(102), tid)

	stops := p.PendingStops().Stops()
	require.Len(t, stops, 1)
	assert.Equal(t, uint32(101), stops[0].ThreadID)
	assert.True(t, stops[0].Stale)
	assert.False(t, stops[0].Breakpoint)

	th, err := p.FindThread(101, DontInvalidateContext)
	require.NoError(t, err)
	assert.Equal(t, SuspendFailed, th.Suspended())
}

func TestThreadExitWhileSuspendedByUs(t *testing.T) {
	const (
		t1 = 101
		t2 = 102
	)
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, t1, t2)

	require.NoError(t, p.Continue(t2, Signal0))
	th1, err := p.FindThread(t1, DontInvalidateContext)
	require.NoError(t, err)
	assert.Equal(t, SuspendedByUs, th1.Suspended())

	f.push(
		winapi.NewExitThreadEvent(testPID, t1, 0),
		singleStepEvent(t2, 0x2000),
	)
	resumes := f.calls["ResumeThread"]

	tid, _, err := p.WaitForStop(context.Background(), t2)
	require.NoError(t, err)
	assert.Equal(t, uint32(t2), tid)
	assert.Equal(t, resumes, f.calls["ResumeThread"])
	assert.Equal(t, 1, f.closed[threadHandle(0)])

	_, err = p.FindThread(t1, DontInvalidateContext)
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestThreadExitDiscardsPendingStops(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, 101, 102)
	require.NoError(t, p.Continue(102, Signal0))

	f.push(
		breakpointEvent(101, 0x10),
		winapi.NewExitThreadEvent(testPID, 101, 0),
		singleStepEvent(102, 0x20),
	)
	_, _, err := p.WaitForStop(context.Background(), 102)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PendingStops().Len())
}

func TestThreadEventsReported(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{ReportThreadEvents: true})
	require.NoError(t, p.Continue(AnyThread, Signal0))

	f.push(createThreadEvent(103, 0x203), winapi.NewExitThreadEvent(testPID, 103, 7))

	tid, st, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, uint32(103), tid)
	assert.Equal(t, StopThreadCreated, st.Kind)

	require.NoError(t, p.Continue(AnyThread, Signal0))
	tid, st, err = p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, uint32(103), tid)
	assert.Equal(t, Status{Kind: StopThreadExited, ExitCode: 7}, st)
	assert.Nil(t, p.CurrentThread())
}

func TestLibraryEvents(t *testing.T) {
	f := newFakeOS()
	// pointer to the name, then the name itself in UTF-16
	f.poke(0x9000, []byte{0x00, 0xa0, 0, 0, 0, 0, 0, 0})
	f.poke(0xa000, utf16z("ntdll.dll"))

	p := launchedProcess(t, f, Options{ReportLibraryEvents: true})
	require.NoError(t, p.Continue(AnyThread, Signal0))

	f.push(
		winapi.NewLoadDllEvent(testPID, mainTID, winapi.LoadDllInfo{
			File:      0x30,
			BaseOfDll: 0x7ff00000,
			ImageName: 0x9000,
			Unicode:   true,
		}),
		winapi.NewUnloadDllEvent(testPID, mainTID, 0x7ff00000),
	)

	_, st, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, StopLoaded, st.Kind)
	assert.Contains(t, p.Modules(), Module{Base: 0x7ff00000, Name: "ntdll.dll"})
	assert.Equal(t, 1, f.closed[0x30])

	require.NoError(t, p.Continue(AnyThread, Signal0))
	_, st, err = p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, StopLoaded, st.Kind)
	assert.Len(t, p.Modules(), 1)
}

func TestProcessExit(t *testing.T) {
	tests := []struct {
		name string
		code uint32
		want Status
	}{
		{"normal", 3, Exited(3)},
		{"access violation", winapi.EXCEPTION_ACCESS_VIOLATION, Signaled(SIGSEGV)},
		{"control-c", statusControlCExit, Signaled(SIGINT)},
		{"unmapped error", 0xC0000001, Exited(0xC0000001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeOS()
			p := launchedProcess(t, f, Options{}, 101)
			require.NoError(t, p.Continue(101, Signal0))

			f.push(winapi.NewExitProcessEvent(testPID, 101, tt.code))
			tid, st, err := p.WaitForStop(context.Background(), 101)
			require.NoError(t, err)
			assert.Equal(t, uint32(mainTID), tid)
			assert.Equal(t, tt.want, st)
			assert.True(t, p.Exited())

			require.NoError(t, p.Close())
			require.NoError(t, p.Close())
			assert.False(t, p.EventOutstanding())
			assert.Equal(t, 1, f.closed[mainHandle])
			assert.Equal(t, 1, f.closed[threadHandle(0)])
		})
	}
}

func TestUnhandledFirstChanceException(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{})
	require.NoError(t, p.Continue(AnyThread, Signal0))

	f.push(
		exceptionEvent(mainTID, 0xE06D7363, 0x1234, true),
		exceptionEvent(mainTID, 0xE06D7363, 0x1234, false),
	)
	tid, st, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, uint32(mainTID), tid)
	assert.Equal(t, Stopped(SignalUnknown), st)

	// the first chance was passed back to the debuggee
	n := len(f.continued)
	assert.Equal(t, uint32(winapi.DBG_EXCEPTION_NOT_HANDLED), f.continued[n-1].status)
}

func TestContinueWithSignal(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{})
	require.NoError(t, p.Continue(AnyThread, Signal0))

	f.push(exceptionEvent(mainTID, winapi.EXCEPTION_ACCESS_VIOLATION, 0x10, true))
	_, st, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, Stopped(SIGSEGV), st)

	require.NoError(t, p.Continue(AnyThread, SIGSEGV))
	n := len(f.continued)
	assert.Equal(t, uint32(winapi.DBG_EXCEPTION_NOT_HANDLED), f.continued[n-1].status)

	f.push(exceptionEvent(mainTID, winapi.EXCEPTION_ACCESS_VIOLATION, 0x10, true))
	_, _, err = p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)

	// a different signal cannot be delivered
	require.NoError(t, p.Continue(AnyThread, SIGINT))
	n = len(f.continued)
	assert.Equal(t, uint32(winapi.DBG_CONTINUE), f.continued[n-1].status)
}

func TestThreadNameException(t *testing.T) {
	f := newFakeOS()
	f.poke(0x8000, append([]byte("worker"), 0))
	p := launchedProcess(t, f, Options{}, 101)
	require.NoError(t, p.Continue(AnyThread, Signal0))

	rec := winapi.ExceptionRecord{
		Code:             winapi.MS_VC_EXCEPTION,
		NumberParameters: 4,
	}
	rec.Information[0] = msVCSetThreadName
	rec.Information[1] = 0x8000
	rec.Information[2] = 0xffffffff // the raising thread
	named := winapi.NewExceptionEvent(testPID, 101, rec, true)

	f.push(named, breakpointEvent(101, 0x40))
	tid, st, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, uint32(101), tid)
	assert.Equal(t, Stopped(SIGTRAP), st)

	th, err := p.FindThread(101, DontInvalidateContext)
	require.NoError(t, err)
	assert.Equal(t, "worker", th.Name)

	n := len(f.continued)
	assert.Equal(t, uint32(winapi.DBG_CONTINUE), f.continued[n-1].status)
}

func TestCygwinSignalString(t *testing.T) {
	f := newFakeOS()
	msg := "cYgSiGw00f11 101\x00"
	f.poke(0x8000, []byte(msg))
	p := launchedProcess(t, f, Options{}, 101)
	require.NoError(t, p.Continue(AnyThread, Signal0))

	f.push(
		winapi.NewDebugStringEvent(testPID, mainTID, winapi.DebugStringInfo{Data: 0x8000, Length: uint16(len(msg))}),
	)
	tid, st, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, uint32(101), tid)
	assert.Equal(t, Stopped(SIGSEGV), st)
	require.NotNil(t, p.CurrentThread())
	assert.Equal(t, uint32(101), p.CurrentThread().ID)
}

func TestRIPAndUnknownEventsAreContinued(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{})
	require.NoError(t, p.Continue(AnyThread, Signal0))

	unknown := winapi.DebugEvent{Code: 42, ProcessID: testPID, ThreadID: mainTID}
	f.push(
		winapi.NewRIPEvent(testPID, mainTID, winapi.RIPInfo{Error: 1, Type: 1}),
		unknown,
		breakpointEvent(mainTID, 0x10),
	)
	before := len(f.continued)
	_, st, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Equal(t, Stopped(SIGTRAP), st)
	assert.Len(t, f.continued, before+2)
}

func TestEventProtocolViolations(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{})

	// the loader breakpoint has not been continued yet
	_, _, err := p.WaitForStop(context.Background(), AnyThread)
	var ierr *InternalError
	require.True(t, errors.As(err, &ierr), "got %v", err)

	require.NoError(t, p.Continue(AnyThread, Signal0))
	err = p.continueLastDebugEvent(winapi.DBG_CONTINUE)
	require.True(t, errors.As(err, &ierr), "got %v", err)
}

func TestContinueUnknownThread(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{})
	before := len(f.continued)

	err := p.Continue(0xdead, Signal0)
	assert.ErrorIs(t, err, ErrThreadNotFound)
	assert.Len(t, f.continued, before)
}

func TestWaitForStopCancelled(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{})
	require.NoError(t, p.Continue(AnyThread, Signal0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := p.WaitForStop(ctx, AnyThread)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, p.EventOutstanding())
}

func TestResumeAll(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, 101, 102)
	for _, tid := range []uint32{101, 102} {
		th, err := p.FindThread(tid, DontInvalidateContext)
		require.NoError(t, err)
		require.NoError(t, th.Suspend())
	}

	require.NoError(t, p.ResumeAll(102))
	assert.Equal(t, 0, f.thread(threadHandle(0)).suspendCount)
	assert.Equal(t, 1, f.thread(threadHandle(1)).suspendCount)
}

func TestSelectThread(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, 101)

	th, err := p.SelectThread(101)
	require.NoError(t, err)
	assert.Same(t, th, p.CurrentThread())
	assert.Equal(t, SuspendedByUs, th.Suspended())

	_, err = p.SelectThread(999)
	assert.ErrorIs(t, err, ErrThreadNotFound)
	assert.Same(t, th, p.CurrentThread())
}

func TestKill(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, 101)

	require.NoError(t, p.Kill(context.Background()))
	assert.Equal(t, 1, f.calls["Terminate"])
	assert.True(t, p.Exited())
	assert.False(t, p.EventOutstanding())
	assert.Equal(t, 0, p.Registry().Len())
}

func TestKillGoesThroughDebugThread(t *testing.T) {
	f := newFakeOS()
	p := launchedProcess(t, f, Options{}, 101)

	p.dbg.stop()
	err := p.Kill(context.Background())
	assert.ErrorIs(t, err, errDebugThreadStopped)
	assert.Equal(t, 0, f.calls["Terminate"])
}

func TestDetach(t *testing.T) {
	f := newFakeOS()
	f.poke(0x1000, []byte{0x55})
	p := launchedProcess(t, f, Options{}, 101)
	_, err := p.AddBreakpoint(0x1000)
	require.NoError(t, err)
	th, err := p.FindThread(101, DontInvalidateContext)
	require.NoError(t, err)
	require.NoError(t, th.Suspend())

	require.NoError(t, p.Detach())
	assert.Equal(t, byte(0x55), f.mem[0x1000])
	assert.Equal(t, 0, f.thread(threadHandle(0)).suspendCount)
	assert.Equal(t, 1, f.calls["Detach"])
	assert.False(t, p.EventOutstanding())

	_, _, err = p.WaitForStop(context.Background(), AnyThread)
	assert.ErrorIs(t, err, ErrNoProcess)
}

func TestAttach(t *testing.T) {
	f := newFakeOS()
	f.push(createProcessEvent(), createThreadEvent(101, 0x201), breakpointEvent(101, 0x77))
	p := newTestProcess(t, f, Options{})

	require.NoError(t, p.Attach(context.Background(), testPID))
	assert.Equal(t, ATTACH, p.Kind)
	assert.Equal(t, 1, f.calls["Attach"])
	assert.Equal(t, uint32(101), p.CurrentThread().ID)
}

func TestStepOverBreakpoint(t *testing.T) {
	f := newFakeOS()
	f.poke(0x1000, []byte{0x90, 0x90})
	f.thread(mainHandle).ctx.Rip = 0x1001
	p := launchedProcess(t, f, Options{}, 101)
	require.NoError(t, p.Continue(AnyThread, Signal0))
	_, err := p.AddBreakpoint(0x1000)
	require.NoError(t, err)

	f.push(breakpointEvent(mainTID, 0x1000))
	_, _, err = p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	th := p.CurrentThread()
	require.True(t, th.StoppedAtSoftwareBreakpoint)

	f.push(singleStepEvent(mainTID, 0x1001))
	st, err := p.StepOverBreakpoint(context.Background(), th)
	require.NoError(t, err)
	assert.Equal(t, Stopped(SIGTRAP), st)

	// the step ran from the breakpoint address with the original byte
	assert.Equal(t, uint64(0x1000), f.thread(mainHandle).ctx.Rip)
	assert.NotZero(t, f.thread(mainHandle).ctx.EFlags&winapi.TrapFlag)
	assert.Equal(t, byte(breakInstr), f.mem[0x1000])
	// 101 stayed suspended during the step
	assert.Equal(t, 1, f.thread(threadHandle(0)).suspendCount)
}
