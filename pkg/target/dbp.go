package target

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/exp/slices"

	"github.com/hitzhangjie/wdbg/pkg/logflags"
	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// DBPProcess is the process the command line debugs.
var DBPProcess *Process

// Kind 发起调试的类型
type Kind int

const (
	DEBUG  Kind = iota // build and debug
	EXEC               // launch a program and debug it
	ATTACH             // attach to a running process
)

// Module is a loaded image.
type Module struct {
	Base uint64
	Name string
}

// Process 被调试进程信息. It owns all state that lives as long as one
// debuggee: the thread registry, the pending stops, the current and last
// fetched debug events and the thread selection.
type Process struct {
	ID           uint32        // 进程id
	Handle       winapi.Handle // process handle from CREATE_PROCESS_DEBUG_EVENT
	MainThreadID uint32
	Wow64        bool // 32-bit debuggee on 64-bit Windows

	Command string   // 进程启动命令，方便重启调试
	Args    []string // 进程启动参数，方便重启调试
	Kind    Kind     // 发起调试的类型

	// LastSignal is the signal of the last stop delivered.
	LastSignal Signal
	// SigInfo is a copy of the last exception record fetched.
	SigInfo winapi.ExceptionRecord

	api  DebugAPI
	opts Options
	log  *logrus.Entry
	dbg  *debugThread

	threads      *ThreadRegistry
	resolver     ThreadResolver
	debugStrings DebugStringInterpreter
	imageNames   ImageNameResolver

	pending PendingStops

	// currentEvent is the event being reported. It is usually the same as
	// lastWaitEvent, but is a replayed copy when a pending stop is
	// delivered.
	currentEvent winapi.DebugEvent
	// lastWaitEvent is the event most recently fetched from the OS, the
	// only one ContinueDebugEvent may be called for. Only fetchEvent
	// assigns it.
	lastWaitEvent winapi.DebugEvent
	// eventOutstanding is set between fetching lastWaitEvent and
	// continuing it. The whole debuggee is frozen meanwhile.
	eventOutstanding bool

	desiredStopThreadID uint32
	currentThread       *Thread

	imageName   []byte // scratch buffer of ResolveImageName
	modules     map[uint64]string
	breakpoints map[uint64]*Breakpoint // 已经添加的断点
	eventCount  *atomic.Uint64

	created bool // CREATE_PROCESS_DEBUG_EVENT seen
	exited  bool // EXIT_PROCESS_DEBUG_EVENT seen
	closed  bool
}

// NewProcess creates the debugging state for one debuggee. Nothing is
// started until Launch or Attach.
func NewProcess(api DebugAPI, opts Options) *Process {
	p := &Process{
		api:                 api,
		opts:                opts,
		log:                 opts.Logger,
		dbg:                 newDebugThread(),
		desiredStopThreadID: AnyThread,
		imageName:           make([]byte, 0, maxImageNameLen*2),
		modules:             map[uint64]string{},
		breakpoints:         map[uint64]*Breakpoint{},
		eventCount:          atomic.NewUint64(0),
	}
	if p.log == nil {
		p.log = logflags.WindowsNatLogger()
	}
	p.threads = newThreadRegistry(p)

	p.resolver = opts.Threads
	if p.resolver == nil {
		p.resolver = p.threads
	}
	p.debugStrings = opts.DebugStrings
	if p.debugStrings == nil {
		p.debugStrings = CygwinStrings{}
	}
	p.imageNames = opts.ImageNames
	if p.imageNames == nil {
		p.imageNames = p
	}
	return p
}

// Launch starts cmd under the debugger and runs it to its first stop,
// normally the loader breakpoint.
func (p *Process) Launch(ctx context.Context, cmd string, args []string, kind Kind) error {
	p.Command = cmd
	p.Args = args
	p.Kind = kind

	var (
		pid uint32
		err error
	)
	if e := p.dbg.exec(func() {
		pid, err = p.api.Start(cmd, args)
	}); e != nil {
		return e
	}
	if err != nil {
		return fmt.Errorf("launch %s: %w", cmd, err)
	}
	p.ID = pid
	p.log.Debugf("process %d created", pid)

	return p.waitInitialStop(ctx)
}

// Attach attaches to the running process pid and waits for the break-in
// stop.
func (p *Process) Attach(ctx context.Context, pid uint32) error {
	p.Kind = ATTACH

	var err error
	if e := p.dbg.exec(func() {
		err = p.api.Attach(pid)
	}); e != nil {
		return e
	}
	if err != nil {
		return fmt.Errorf("process %d attached error: %w", pid, err)
	}
	p.ID = pid
	p.log.Debugf("process %d attached", pid)

	return p.waitInitialStop(ctx)
}

// waitInitialStop consumes the start up events until the process stops.
func (p *Process) waitInitialStop(ctx context.Context) error {
	for {
		_, st, err := p.WaitForStop(ctx, AnyThread)
		if err != nil {
			return err
		}
		switch st.Kind {
		case StopStopped:
			return nil
		case StopExited, StopSignaled:
			return fmt.Errorf("process %d %s during startup", p.ID, st)
		}
		if err := p.Continue(AnyThread, Signal0); err != nil {
			return err
		}
	}
}

// Detach removes the breakpoints, lets every thread run and detaches from
// the debuggee, which keeps running.
func (p *Process) Detach() error {
	if p.ID == 0 || p.exited {
		return ErrNoProcess
	}

	var errs []error
	if err := p.ClearAll(); err != nil {
		errs = append(errs, err)
	}
	if err := p.ResumeAll(); err != nil {
		errs = append(errs, err)
	}
	if p.eventOutstanding {
		if err := p.continueLastDebugEvent(winapi.DBG_CONTINUE); err != nil {
			return err
		}
	}

	var err error
	if e := p.dbg.exec(func() {
		err = p.api.Detach(p.ID)
	}); e != nil {
		return e
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("detach process %d: %w", p.ID, err))
	}
	p.teardown()
	return errors.Join(errs...)
}

// Kill terminates the debuggee and waits for its exit to be reported.
func (p *Process) Kill(ctx context.Context) error {
	if p.ID == 0 || p.exited {
		return ErrNoProcess
	}
	var err error
	if e := p.dbg.exec(func() {
		err = p.api.Terminate(p.Handle, 0)
	}); e != nil {
		return e
	}
	if err != nil {
		return fmt.Errorf("terminate process %d: %w", p.ID, err)
	}

	for !p.exited {
		if p.eventOutstanding {
			if err := p.Continue(AnyThread, Signal0); err != nil {
				return err
			}
		}
		if _, _, err := p.WaitForStop(ctx, AnyThread); err != nil {
			return err
		}
	}
	return p.Close()
}

// Close releases everything the process owns. An outstanding event is
// continued first so the debuggee is not left frozen. Close may be called
// more than once.
func (p *Process) Close() error {
	if p.closed {
		return nil
	}

	var err error
	if p.eventOutstanding {
		err = p.continueLastDebugEvent(winapi.DBG_CONTINUE)
	}
	p.teardown()
	return err
}

func (p *Process) teardown() {
	p.threads.clear()
	p.pending.reset()
	p.currentThread = nil
	p.desiredStopThreadID = AnyThread
	p.eventOutstanding = false
	clear(p.modules)
	clear(p.breakpoints)
	p.dbg.stop()
	p.closed = true
}

// Registry returns the thread registry.
func (p *Process) Registry() *ThreadRegistry {
	return p.threads
}

// PendingStops returns the queue of deferred stops.
func (p *Process) PendingStops() *PendingStops {
	return &p.pending
}

// FindThread resolves tid through the configured ThreadResolver.
func (p *Process) FindThread(tid uint32, d Disposition) (*Thread, error) {
	return p.resolver.ResolveThread(tid, d)
}

// CurrentEvent returns a copy of the event being reported.
func (p *Process) CurrentEvent() winapi.DebugEvent {
	return p.currentEvent
}

// LastWaitEvent returns a copy of the event last fetched from the OS.
func (p *Process) LastWaitEvent() winapi.DebugEvent {
	return p.lastWaitEvent
}

// EventOutstanding reports whether the debuggee is frozen at a fetched,
// not yet continued event.
func (p *Process) EventOutstanding() bool {
	return p.eventOutstanding
}

// DesiredStopThreadID returns the thread the last wait or continue asked
// a stop for, or AnyThread.
func (p *Process) DesiredStopThreadID() uint32 {
	return p.desiredStopThreadID
}

// EventCount returns how many debug events were fetched.
func (p *Process) EventCount() uint64 {
	return p.eventCount.Load()
}

// Exited reports whether the process exit was seen.
func (p *Process) Exited() bool {
	return p.exited
}

// Modules returns the loaded images ordered by base address.
func (p *Process) Modules() []Module {
	list := make([]Module, 0, len(p.modules))
	for base, name := range p.modules {
		list = append(list, Module{Base: base, Name: name})
	}
	slices.SortFunc(list, func(a, b Module) int {
		return cmp.Compare(a.Base, b.Base)
	})
	return list
}

// ReadMemory 读取内存地址addr处的数据，并存储到buf中，函数返回实际读取的字节数
func (p *Process) ReadMemory(addr uint64, buf []byte) (int, error) {
	if p.Handle == 0 {
		return 0, ErrNoProcess
	}
	return p.api.ReadProcessMemory(p.Handle, addr, buf)
}

// WriteMemory 将data写入内存地址addr处
func (p *Process) WriteMemory(addr uint64, data []byte) (int, error) {
	if p.Handle == 0 {
		return 0, ErrNoProcess
	}
	return p.api.WriteProcessMemory(p.Handle, addr, data)
}
