package target

import (
	"time"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// DebugAPI is the subset of the Windows debug API the debugger uses.
// *winapi.System implements it.
type DebugAPI interface {
	Start(cmd string, args []string) (uint32, error)
	Attach(pid uint32) error
	Detach(pid uint32) error
	Terminate(h winapi.Handle, code uint32) error

	WaitForDebugEvent(ev *winapi.DebugEvent, timeout time.Duration) error
	ContinueDebugEvent(pid, tid, status uint32) error

	SuspendThread(h winapi.Handle, wow64 bool) (uint32, error)
	ResumeThread(h winapi.Handle) (uint32, error)

	GetThreadContext(h winapi.Handle, c *winapi.Context) error
	SetThreadContext(h winapi.Handle, c *winapi.Context) error
	Wow64GetThreadContext(h winapi.Handle, c *winapi.Wow64Context) error
	Wow64SetThreadContext(h winapi.Handle, c *winapi.Wow64Context) error

	ReadProcessMemory(h winapi.Handle, addr uint64, buf []byte) (int, error)
	WriteProcessMemory(h winapi.Handle, addr uint64, buf []byte) (int, error)

	CloseHandle(h winapi.Handle) error
	IsWow64Process(h winapi.Handle) (bool, error)
}

var _ DebugAPI = (*winapi.System)(nil)
