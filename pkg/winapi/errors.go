package winapi

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout      = errors.New("wait for debug event timed out")
	ErrAccessDenied = errors.New("access denied")
	ErrUnsupported  = errors.New("windows debug api unsupported on this platform")
)

// Windows error codes the debugger cares about.
const (
	ERROR_ACCESS_DENIED = 5
	ERROR_SEM_TIMEOUT   = 121
)

// Errno is a Windows error code as returned by GetLastError.
type Errno uint32

func (e Errno) Error() string {
	return fmt.Sprintf("winerr %d", uint32(e))
}

// Is makes Errno values comparable with the package sentinels.
func (e Errno) Is(target error) bool {
	switch target {
	case ErrAccessDenied:
		return e == ERROR_ACCESS_DENIED
	case ErrTimeout:
		return e == ERROR_SEM_TIMEOUT
	}
	return false
}

// OpError records the failing API call and its error code.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}
