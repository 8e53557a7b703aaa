package target

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

const (
	testPID     = 4242
	mainTID     = 100
	mainHandle  = winapi.Handle(0x100)
	procHandle  = winapi.Handle(0x10)
	fileHandle  = winapi.Handle(0x20)
	loaderBreak = 0x7ffe0000
)

var (
	errNoMoreEvents = errors.New("no more scripted events")
	errFault        = errors.New("memory fault")
)

type fakeThread struct {
	suspendCount int
	ctx          winapi.Context
	x86          winapi.Wow64Context
}

type continueCall struct {
	pid, tid, status uint32
}

// fakeOS is a scripted DebugAPI. Events are handed out in order, every
// call is counted.
type fakeOS struct {
	events  []winapi.DebugEvent
	threads map[winapi.Handle]*fakeThread
	mem     map[uint64]byte
	wow64   bool

	calls      map[string]int
	continued  []continueCall
	closed     map[winapi.Handle]int
	suspendErr map[winapi.Handle]error
}

func newFakeOS() *fakeOS {
	return &fakeOS{
		threads:    map[winapi.Handle]*fakeThread{},
		mem:        map[uint64]byte{},
		calls:      map[string]int{},
		closed:     map[winapi.Handle]int{},
		suspendErr: map[winapi.Handle]error{},
	}
}

func (f *fakeOS) push(evs ...winapi.DebugEvent) {
	f.events = append(f.events, evs...)
}

func (f *fakeOS) thread(h winapi.Handle) *fakeThread {
	th, ok := f.threads[h]
	if !ok {
		th = &fakeThread{}
		f.threads[h] = th
	}
	return th
}

func (f *fakeOS) poke(addr uint64, data []byte) {
	for i, b := range data {
		f.mem[addr+uint64(i)] = b
	}
}

func (f *fakeOS) Start(cmd string, args []string) (uint32, error) {
	f.calls["Start"]++
	return testPID, nil
}

func (f *fakeOS) Attach(pid uint32) error {
	f.calls["Attach"]++
	return nil
}

func (f *fakeOS) Detach(pid uint32) error {
	f.calls["Detach"]++
	return nil
}

func (f *fakeOS) Terminate(h winapi.Handle, code uint32) error {
	f.calls["Terminate"]++
	f.push(winapi.NewExitProcessEvent(testPID, mainTID, code))
	return nil
}

func (f *fakeOS) WaitForDebugEvent(ev *winapi.DebugEvent, timeout time.Duration) error {
	f.calls["WaitForDebugEvent"]++
	if len(f.events) == 0 {
		return errNoMoreEvents
	}
	*ev = f.events[0]
	f.events = f.events[1:]
	return nil
}

func (f *fakeOS) ContinueDebugEvent(pid, tid, status uint32) error {
	f.calls["ContinueDebugEvent"]++
	f.continued = append(f.continued, continueCall{pid, tid, status})
	return nil
}

func (f *fakeOS) SuspendThread(h winapi.Handle, wow64 bool) (uint32, error) {
	f.calls["SuspendThread"]++
	if err := f.suspendErr[h]; err != nil {
		return 0, err
	}
	th := f.thread(h)
	prev := th.suspendCount
	th.suspendCount++
	return uint32(prev), nil
}

func (f *fakeOS) ResumeThread(h winapi.Handle) (uint32, error) {
	f.calls["ResumeThread"]++
	th := f.thread(h)
	prev := th.suspendCount
	th.suspendCount--
	return uint32(prev), nil
}

func (f *fakeOS) GetThreadContext(h winapi.Handle, c *winapi.Context) error {
	f.calls["GetThreadContext"]++
	flags := c.ContextFlags
	*c = f.thread(h).ctx
	c.ContextFlags = flags
	return nil
}

func (f *fakeOS) SetThreadContext(h winapi.Handle, c *winapi.Context) error {
	f.calls["SetThreadContext"]++
	th := f.thread(h)
	flags := th.ctx.ContextFlags
	th.ctx = *c
	th.ctx.ContextFlags = flags
	return nil
}

func (f *fakeOS) Wow64GetThreadContext(h winapi.Handle, c *winapi.Wow64Context) error {
	f.calls["Wow64GetThreadContext"]++
	flags := c.ContextFlags
	*c = f.thread(h).x86
	c.ContextFlags = flags
	return nil
}

func (f *fakeOS) Wow64SetThreadContext(h winapi.Handle, c *winapi.Wow64Context) error {
	f.calls["Wow64SetThreadContext"]++
	th := f.thread(h)
	flags := th.x86.ContextFlags
	th.x86 = *c
	th.x86.ContextFlags = flags
	return nil
}

func (f *fakeOS) ReadProcessMemory(h winapi.Handle, addr uint64, buf []byte) (int, error) {
	f.calls["ReadProcessMemory"]++
	for i := range buf {
		b, ok := f.mem[addr+uint64(i)]
		if !ok {
			if i == 0 {
				return 0, errFault
			}
			return i, nil
		}
		buf[i] = b
	}
	return len(buf), nil
}

func (f *fakeOS) WriteProcessMemory(h winapi.Handle, addr uint64, buf []byte) (int, error) {
	f.calls["WriteProcessMemory"]++
	f.poke(addr, buf)
	return len(buf), nil
}

func (f *fakeOS) CloseHandle(h winapi.Handle) error {
	f.calls["CloseHandle"]++
	f.closed[h]++
	return nil
}

func (f *fakeOS) IsWow64Process(h winapi.Handle) (bool, error) {
	f.calls["IsWow64Process"]++
	return f.wow64, nil
}

// ---------------------------------------------------------------------
// event helpers

func createProcessEvent() winapi.DebugEvent {
	return winapi.NewCreateProcessEvent(testPID, mainTID, winapi.CreateProcessInfo{
		File:            fileHandle,
		Process:         procHandle,
		Thread:          mainHandle,
		BaseOfImage:     0x400000,
		ThreadLocalBase: 0x3000,
	})
}

func createThreadEvent(tid uint32, h winapi.Handle) winapi.DebugEvent {
	return winapi.NewCreateThreadEvent(testPID, tid, winapi.CreateThreadInfo{
		Thread:          h,
		ThreadLocalBase: 0x5000 + uint64(tid),
	})
}

func exceptionEvent(tid, code uint32, addr uint64, firstChance bool) winapi.DebugEvent {
	return winapi.NewExceptionEvent(testPID, tid, winapi.ExceptionRecord{
		Code:    code,
		Address: addr,
	}, firstChance)
}

func breakpointEvent(tid uint32, addr uint64) winapi.DebugEvent {
	return exceptionEvent(tid, winapi.EXCEPTION_BREAKPOINT, addr, true)
}

func singleStepEvent(tid uint32, addr uint64) winapi.DebugEvent {
	return exceptionEvent(tid, winapi.EXCEPTION_SINGLE_STEP, addr, true)
}

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func newTestProcess(t *testing.T, f *fakeOS, opts Options) *Process {
	t.Helper()
	opts.Logger = quietLogger()
	p := NewProcess(f, opts)
	t.Cleanup(func() {
		p.dbg.stop()
	})
	return p
}

// launchedProcess starts a process whose threads are tids, handle i+1 of
// tid i being 0x100+i+1, and leaves it frozen at the loader breakpoint
// reported by the main thread.
func launchedProcess(t *testing.T, f *fakeOS, opts Options, tids ...uint32) *Process {
	t.Helper()
	f.push(createProcessEvent())
	for i, tid := range tids {
		f.push(createThreadEvent(tid, threadHandle(i)))
	}
	f.push(breakpointEvent(mainTID, loaderBreak))

	p := newTestProcess(t, f, opts)
	require.NoError(t, p.Launch(context.Background(), "prog.exe", nil, EXEC))
	return p
}

func threadHandle(i int) winapi.Handle {
	return mainHandle + winapi.Handle(i+1)
}
