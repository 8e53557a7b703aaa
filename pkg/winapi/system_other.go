//go:build !windows

package winapi

import "time"

// System is the Windows debug API. On other platforms every call fails with
// ErrUnsupported.
type System struct{}

// NewSystem returns the debug API of the running kernel.
func NewSystem() *System {
	return &System{}
}

func (s *System) Start(cmd string, args []string) (uint32, error) { return 0, ErrUnsupported }
func (s *System) Attach(pid uint32) error                          { return ErrUnsupported }
func (s *System) Detach(pid uint32) error                          { return ErrUnsupported }
func (s *System) Terminate(h Handle, code uint32) error            { return ErrUnsupported }

func (s *System) WaitForDebugEvent(ev *DebugEvent, timeout time.Duration) error {
	return ErrUnsupported
}

func (s *System) ContinueDebugEvent(pid, tid, status uint32) error   { return ErrUnsupported }
func (s *System) SuspendThread(h Handle, wow64 bool) (uint32, error) { return 0, ErrUnsupported }
func (s *System) ResumeThread(h Handle) (uint32, error)              { return 0, ErrUnsupported }
func (s *System) GetThreadContext(h Handle, c *Context) error        { return ErrUnsupported }
func (s *System) SetThreadContext(h Handle, c *Context) error        { return ErrUnsupported }

func (s *System) Wow64GetThreadContext(h Handle, c *Wow64Context) error { return ErrUnsupported }
func (s *System) Wow64SetThreadContext(h Handle, c *Wow64Context) error { return ErrUnsupported }

func (s *System) ReadProcessMemory(h Handle, addr uint64, buf []byte) (int, error) {
	return 0, ErrUnsupported
}

func (s *System) WriteProcessMemory(h Handle, addr uint64, buf []byte) (int, error) {
	return 0, ErrUnsupported
}

func (s *System) CloseHandle(h Handle) error             { return ErrUnsupported }
func (s *System) IsWow64Process(h Handle) (bool, error) { return false, ErrUnsupported }
