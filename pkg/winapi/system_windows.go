//go:build windows

package winapi

import (
	"errors"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	_DEBUG_ONLY_THIS_PROCESS = 0x00000002
	_CREATE_NEW_CONSOLE      = 0x00000010
	_INFINITE                = 0xFFFFFFFF
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procWaitForDebugEvent      = modkernel32.NewProc("WaitForDebugEvent")
	procContinueDebugEvent     = modkernel32.NewProc("ContinueDebugEvent")
	procDebugActiveProcess     = modkernel32.NewProc("DebugActiveProcess")
	procDebugActiveProcessStop = modkernel32.NewProc("DebugActiveProcessStop")
	procSuspendThread          = modkernel32.NewProc("SuspendThread")
	procWow64SuspendThread     = modkernel32.NewProc("Wow64SuspendThread")
	procGetThreadContext       = modkernel32.NewProc("GetThreadContext")
	procSetThreadContext       = modkernel32.NewProc("SetThreadContext")
	procWow64GetThreadContext  = modkernel32.NewProc("Wow64GetThreadContext")
	procWow64SetThreadContext  = modkernel32.NewProc("Wow64SetThreadContext")
	procFlushInstructionCache  = modkernel32.NewProc("FlushInstructionCache")
)

// System is the Windows debug API of the running kernel.
//
// WaitForDebugEvent and ContinueDebugEvent only succeed on the OS thread that
// created or attached the debuggee; callers serialize them on one thread.
type System struct{}

// NewSystem returns the debug API of the running kernel.
func NewSystem() *System {
	return &System{}
}

func opError(op string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &OpError{Op: op, Err: Errno(errno)}
	}
	return &OpError{Op: op, Err: err}
}

// Start creates cmd with args as a debuggee of the calling thread.
func (s *System) Start(cmd string, args []string) (uint32, error) {
	argv := make([]string, 0, len(args)+1)
	for _, a := range append([]string{cmd}, args...) {
		argv = append(argv, windows.EscapeArg(a))
	}
	cmdline, err := windows.UTF16PtrFromString(strings.Join(argv, " "))
	if err != nil {
		return 0, err
	}

	var (
		si windows.StartupInfo
		pi windows.ProcessInformation
	)
	si.Cb = uint32(unsafe.Sizeof(si))
	err = windows.CreateProcess(nil, cmdline, nil, nil, false,
		_DEBUG_ONLY_THIS_PROCESS|_CREATE_NEW_CONSOLE, nil, nil, &si, &pi)
	if err != nil {
		return 0, opError("CreateProcess", err)
	}
	// the debug events carry their own handles
	windows.CloseHandle(pi.Thread)
	windows.CloseHandle(pi.Process)
	return pi.ProcessId, nil
}

// Attach makes the calling thread the debugger of pid.
func (s *System) Attach(pid uint32) error {
	r1, _, e1 := procDebugActiveProcess.Call(uintptr(pid))
	if r1 == 0 {
		return opError("DebugActiveProcess", e1)
	}
	return nil
}

// Detach stops debugging pid and lets it run.
func (s *System) Detach(pid uint32) error {
	r1, _, e1 := procDebugActiveProcessStop.Call(uintptr(pid))
	if r1 == 0 {
		return opError("DebugActiveProcessStop", e1)
	}
	return nil
}

// Terminate kills the process behind h.
func (s *System) Terminate(h Handle, code uint32) error {
	if err := windows.TerminateProcess(windows.Handle(h), code); err != nil {
		return opError("TerminateProcess", err)
	}
	return nil
}

// WaitForDebugEvent blocks until the next debug event or until timeout
// elapses; a zero timeout waits forever.
func (s *System) WaitForDebugEvent(ev *DebugEvent, timeout time.Duration) error {
	ms := uint32(_INFINITE)
	if timeout > 0 {
		ms = uint32(timeout / time.Millisecond)
	}
	r1, _, e1 := procWaitForDebugEvent.Call(uintptr(unsafe.Pointer(ev)), uintptr(ms))
	if r1 == 0 {
		if e1 == windows.ERROR_SEM_TIMEOUT {
			return ErrTimeout
		}
		return opError("WaitForDebugEvent", e1)
	}
	return nil
}

// ContinueDebugEvent releases the event identified by pid and tid.
func (s *System) ContinueDebugEvent(pid, tid, status uint32) error {
	r1, _, e1 := procContinueDebugEvent.Call(uintptr(pid), uintptr(tid), uintptr(status))
	if r1 == 0 {
		return opError("ContinueDebugEvent", e1)
	}
	return nil
}

// SuspendThread increments the suspend count of h and returns the previous
// count.
func (s *System) SuspendThread(h Handle, wow64 bool) (uint32, error) {
	proc := procSuspendThread
	if wow64 {
		proc = procWow64SuspendThread
	}
	r1, _, e1 := proc.Call(uintptr(h))
	if uint32(r1) == 0xFFFFFFFF {
		return 0, opError("SuspendThread", e1)
	}
	return uint32(r1), nil
}

// ResumeThread decrements the suspend count of h and returns the previous
// count.
func (s *System) ResumeThread(h Handle) (uint32, error) {
	n, err := windows.ResumeThread(windows.Handle(h))
	if err != nil {
		return 0, opError("ResumeThread", err)
	}
	return n, nil
}

// newContext allocates a CONTEXT aligned to 16 bytes.
func newContext() *Context {
	var c *Context
	buf := make([]byte, unsafe.Sizeof(*c)+15)
	return (*Context)(unsafe.Pointer((uintptr(unsafe.Pointer(&buf[15]))) &^ 15))
}

// GetThreadContext reads the registers selected by c.ContextFlags.
func (s *System) GetThreadContext(h Handle, c *Context) error {
	aligned := newContext()
	*aligned = *c
	r1, _, e1 := procGetThreadContext.Call(uintptr(h), uintptr(unsafe.Pointer(aligned)))
	if r1 == 0 {
		return opError("GetThreadContext", e1)
	}
	*c = *aligned
	return nil
}

// SetThreadContext writes the registers selected by c.ContextFlags.
func (s *System) SetThreadContext(h Handle, c *Context) error {
	aligned := newContext()
	*aligned = *c
	r1, _, e1 := procSetThreadContext.Call(uintptr(h), uintptr(unsafe.Pointer(aligned)))
	if r1 == 0 {
		return opError("SetThreadContext", e1)
	}
	return nil
}

// Wow64GetThreadContext reads the x86 registers of a WOW64 thread.
func (s *System) Wow64GetThreadContext(h Handle, c *Wow64Context) error {
	r1, _, e1 := procWow64GetThreadContext.Call(uintptr(h), uintptr(unsafe.Pointer(c)))
	if r1 == 0 {
		return opError("Wow64GetThreadContext", e1)
	}
	return nil
}

// Wow64SetThreadContext writes the x86 registers of a WOW64 thread.
func (s *System) Wow64SetThreadContext(h Handle, c *Wow64Context) error {
	r1, _, e1 := procWow64SetThreadContext.Call(uintptr(h), uintptr(unsafe.Pointer(c)))
	if r1 == 0 {
		return opError("Wow64SetThreadContext", e1)
	}
	return nil
}

// ReadProcessMemory copies debuggee memory at addr into buf.
func (s *System) ReadProcessMemory(h Handle, addr uint64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	var n uintptr
	err := windows.ReadProcessMemory(windows.Handle(h), uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	if err != nil {
		return int(n), opError("ReadProcessMemory", err)
	}
	return int(n), nil
}

// WriteProcessMemory copies buf into debuggee memory at addr and flushes the
// instruction cache for the range.
func (s *System) WriteProcessMemory(h Handle, addr uint64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	var n uintptr
	err := windows.WriteProcessMemory(windows.Handle(h), uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	if err != nil {
		return int(n), opError("WriteProcessMemory", err)
	}
	procFlushInstructionCache.Call(uintptr(h), uintptr(addr), uintptr(len(buf)))
	return int(n), nil
}

// CloseHandle closes h.
func (s *System) CloseHandle(h Handle) error {
	if err := windows.CloseHandle(windows.Handle(h)); err != nil {
		return opError("CloseHandle", err)
	}
	return nil
}

// IsWow64Process reports whether the process behind h runs under WOW64.
func (s *System) IsWow64Process(h Handle) (bool, error) {
	var wow64 bool
	if err := windows.IsWow64Process(windows.Handle(h), &wow64); err != nil {
		return false, opError("IsWow64Process", err)
	}
	return wow64, nil
}
