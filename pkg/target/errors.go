package target

import (
	"errors"
	"fmt"
)

var (
	ErrThreadNotFound       = errors.New("thread not found")
	ErrContextUnavailable   = errors.New("thread context unavailable while thread is running")
	ErrBreakpointNotExisted = errors.New("breakpoint not existed")
	ErrBreakpointExisted    = errors.New("breakpoint already existed")
	ErrNoProcess            = errors.New("no process being debugged")
	ErrNotStopped           = errors.New("process is not stopped")
	ErrNoImageName          = errors.New("no image name")
)

// ThreadNotFoundError is returned when a thread id has no live record. It
// usually means the thread exited after the caller learned its id.
type ThreadNotFoundError struct {
	ID uint32
}

func (e *ThreadNotFoundError) Error() string {
	return fmt.Sprintf("thread %#x not found", e.ID)
}

func (e *ThreadNotFoundError) Is(target error) bool {
	return target == ErrThreadNotFound
}

// InternalError reports a violation of the debugger's own state model,
// such as continuing without an outstanding debug event. The debug
// session cannot be trusted after one.
type InternalError struct {
	Op  string
	Msg string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %s: %s", e.Op, e.Msg)
}
