package target

import (
	"fmt"
	"strings"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// breakInstrLen is the width of the int3 instruction used for software
// breakpoints, which is how far PC has moved when the trap is reported.
const breakInstrLen = 1

// Thread 线程信息, one per live thread of the debuggee.
type Thread struct {
	ID              uint32        // Win32 thread id
	Handle          winapi.Handle // owned, closed when the thread exits
	ThreadLocalBase uint64        // thread information block address
	Name            string        // set by the debuggee via MS_VC_EXCEPTION

	// StoppedAtSoftwareBreakpoint is true when the thread trapped on an
	// injected int3 and the PC it reports is one byte past it.
	StoppedAtSoftwareBreakpoint bool

	Process *Process // process this thread belongs to

	suspended SuspendState
	regs      Registers

	// reloadContext is set when regs may be stale and must be re-read from
	// the OS before use.
	reloadContext bool
	// debugRegistersChanged is set when DR0-DR7 were written and must be
	// pushed to the OS before the thread runs.
	debugRegistersChanged bool
	// dirty is set when regs were written and must be pushed to the OS
	// before the thread runs.
	dirty bool

	pcAdjusted bool // PC() already stepped back over the int3
	pcWritten  bool // the PC was written by the user
	closed     bool
}

func newThread(p *Process, tid uint32, h winapi.Handle, tlb uint64) *Thread {
	t := &Thread{
		ID:              tid,
		Handle:          h,
		ThreadLocalBase: tlb,
		Process:         p,
		reloadContext:   true,
	}
	t.regs.wow64 = p.Wow64
	return t
}

// Suspended returns the suspend bookkeeping of the thread.
func (t *Thread) Suspended() SuspendState {
	return t.suspended
}

func (t *Thread) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "thread %#x", t.ID)
	if t.Name != "" {
		fmt.Fprintf(&b, " %q", t.Name)
	}
	if t.suspended != NotSuspended {
		fmt.Fprintf(&b, " (%s)", t.suspended)
	}
	return b.String()
}

// contextAccessible reports whether the thread is guaranteed not to run:
// either we hold it suspended, or the whole process is frozen at a debug
// event.
func (t *Thread) contextAccessible() bool {
	return t.suspended != NotSuspended || t.Process.eventOutstanding
}

// fetch materializes the register cache if it is stale.
func (t *Thread) fetch() error {
	if !t.contextAccessible() {
		return fmt.Errorf("thread %#x: %w", t.ID, ErrContextUnavailable)
	}
	if !t.reloadContext {
		return nil
	}

	api := t.Process.api
	regs := Registers{wow64: t.regs.wow64}
	regs.requestAll()

	var err error
	if regs.wow64 {
		err = api.Wow64GetThreadContext(t.Handle, &regs.x86)
	} else {
		err = api.GetThreadContext(t.Handle, &regs.native)
	}
	if err != nil {
		return fmt.Errorf("could not read context of thread %#x: %w", t.ID, err)
	}

	t.regs = regs
	t.reloadContext = false
	t.dirty = false
	t.pcAdjusted = false
	t.pcWritten = false
	return nil
}

// AdjustPC steps the cached PC back over the int3 the thread trapped on.
// It does so at most once per stop and reports whether it adjusted.
func (t *Thread) AdjustPC() (bool, error) {
	if err := t.fetch(); err != nil {
		return false, err
	}
	if !t.StoppedAtSoftwareBreakpoint || t.pcAdjusted {
		return false, nil
	}
	t.regs.SetPC(t.regs.PC() - breakInstrLen)
	t.pcAdjusted = true
	return true, nil
}

// Registers returns a copy of the thread's registers, with the PC adjusted
// if the thread stopped at a software breakpoint.
func (t *Thread) Registers() (Registers, error) {
	if _, err := t.AdjustPC(); err != nil {
		return Registers{}, err
	}
	return t.regs, nil
}

// SetRegisters replaces the thread's registers; they are written to the OS
// before the thread runs again.
func (t *Thread) SetRegisters(regs Registers) error {
	if _, err := t.AdjustPC(); err != nil {
		return err
	}
	if regs.wow64 != t.regs.wow64 {
		return fmt.Errorf("thread %#x: register layout mismatch", t.ID)
	}
	if regs.PC() != t.regs.PC() {
		t.pcWritten = true
	}
	if regs.DebugRegisters() != t.regs.DebugRegisters() {
		t.debugRegistersChanged = true
	}
	t.regs = regs
	t.dirty = true
	return nil
}

// PC returns the program counter, adjusted for software breakpoints.
func (t *Thread) PC() (uint64, error) {
	if _, err := t.AdjustPC(); err != nil {
		return 0, err
	}
	return t.regs.PC(), nil
}

// SetPC sets the program counter.
func (t *Thread) SetPC(pc uint64) error {
	if _, err := t.AdjustPC(); err != nil {
		return err
	}
	t.regs.SetPC(pc)
	t.dirty = true
	t.pcWritten = true
	return nil
}

// Register returns the register called name.
func (t *Thread) Register(name string) (uint64, error) {
	if _, err := t.AdjustPC(); err != nil {
		return 0, err
	}
	return t.regs.Get(name)
}

// SetRegister sets the register called name.
func (t *Thread) SetRegister(name string, value uint64) error {
	if _, err := t.AdjustPC(); err != nil {
		return err
	}
	if err := t.regs.Set(name, value); err != nil {
		return err
	}
	t.dirty = true
	switch name = strings.ToLower(name); {
	case name == t.regs.pcName():
		t.pcWritten = true
	case strings.HasPrefix(name, "dr"):
		t.debugRegistersChanged = true
	}
	return nil
}

// SetDebugRegisters sets DR0-DR3, DR6 and DR7.
func (t *Thread) SetDebugRegisters(d DebugRegisters) error {
	if err := t.fetch(); err != nil {
		return err
	}
	t.regs.setDebugRegisters(d)
	t.debugRegistersChanged = true
	return nil
}

// setTrapFlag arms a single step for the next time the thread runs.
func (t *Thread) setTrapFlag() error {
	if _, err := t.AdjustPC(); err != nil {
		return err
	}
	t.regs.SetFlags(t.regs.Flags() | winapi.TrapFlag)
	t.dirty = true
	return nil
}

// invalidate makes the next register access re-read the context, unless
// the cache holds writes not yet pushed to the OS.
func (t *Thread) invalidate() {
	if !t.dirty && !t.debugRegistersChanged {
		t.reloadContext = true
	}
}

// markSoftwareBreakpoint records that the thread trapped on an injected
// int3.
func (t *Thread) markSoftwareBreakpoint() {
	t.StoppedAtSoftwareBreakpoint = true
	t.pcAdjusted = false
	t.invalidate()
}

// prepareRun gets the thread ready to execute: an unconsumed PC adjustment
// is undone, pending register writes are flushed and the breakpoint state
// of the last stop is dropped.
func (t *Thread) prepareRun() error {
	if t.pcAdjusted && !t.pcWritten {
		t.regs.SetPC(t.regs.PC() + breakInstrLen)
	}
	t.StoppedAtSoftwareBreakpoint = false
	t.pcAdjusted = false
	t.pcWritten = false

	if !t.dirty && !t.debugRegistersChanged {
		return nil
	}

	api := t.Process.api
	t.regs.requestAll()

	var err error
	if t.regs.wow64 {
		err = api.Wow64SetThreadContext(t.Handle, &t.regs.x86)
	} else {
		err = api.SetThreadContext(t.Handle, &t.regs.native)
	}
	if err != nil {
		return fmt.Errorf("could not write context of thread %#x: %w", t.ID, err)
	}
	t.dirty = false
	t.debugRegistersChanged = false
	return nil
}
