package target

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// Signal is a target independent signal number. Values 1-15 follow the
// POSIX numbering Cygwin also uses.
type Signal int

const (
	Signal0 Signal = 0
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGQUIT Signal = 3
	SIGILL  Signal = 4
	SIGTRAP Signal = 5
	SIGABRT Signal = 6
	SIGEMT  Signal = 7
	SIGFPE  Signal = 8
	SIGKILL Signal = 9
	SIGBUS  Signal = 10
	SIGSEGV Signal = 11
	SIGSYS  Signal = 12
	SIGPIPE Signal = 13
	SIGALRM Signal = 14
	SIGTERM Signal = 15

	SignalUnknown Signal = 143
)

var signalNames = map[Signal]string{
	Signal0: "0",
	SIGHUP:  "SIGHUP",
	SIGINT:  "SIGINT",
	SIGQUIT: "SIGQUIT",
	SIGILL:  "SIGILL",
	SIGTRAP: "SIGTRAP",
	SIGABRT: "SIGABRT",
	SIGEMT:  "SIGEMT",
	SIGFPE:  "SIGFPE",
	SIGKILL: "SIGKILL",
	SIGBUS:  "SIGBUS",
	SIGSEGV: "SIGSEGV",
	SIGSYS:  "SIGSYS",
	SIGPIPE: "SIGPIPE",
	SIGALRM: "SIGALRM",
	SIGTERM: "SIGTERM",

	SignalUnknown: "unknown signal",
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("signal %d", int(s))
}

// SignalFromHost converts a host (Cygwin) signal number.
func SignalFromHost(n int) Signal {
	if n >= int(SIGHUP) && n <= int(SIGTERM) {
		return Signal(n)
	}
	if n == 0 {
		return Signal0
	}
	return SignalUnknown
}

// ParseSignal accepts a signal name, with or without the SIG prefix, or a
// host signal number.
func ParseSignal(s string) (Signal, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return SignalFromHost(n), nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	for sig, v := range signalNames {
		if v == name {
			return sig, nil
		}
	}
	return Signal0, fmt.Errorf("invalid signal: %s", s)
}

// StopKind classifies a Status.
type StopKind int

const (
	// StopSpurious is an event that carries nothing for the caller.
	StopSpurious StopKind = iota
	// StopStopped: the thread stopped with Status.Signal.
	StopStopped
	// StopSignaled: the process was terminated by Status.Signal.
	StopSignaled
	// StopExited: the process exited with Status.ExitCode.
	StopExited
	// StopLoaded: a library was loaded or unloaded.
	StopLoaded
	// StopThreadCreated and StopThreadExited report thread lifecycle.
	StopThreadCreated
	StopThreadExited
)

// Status is the normalized result of one debug event.
type Status struct {
	Kind     StopKind
	Signal   Signal
	ExitCode uint32
}

// Stopped returns the status of a thread stopped by sig.
func Stopped(sig Signal) Status {
	return Status{Kind: StopStopped, Signal: sig}
}

// Signaled returns the status of a process killed by sig.
func Signaled(sig Signal) Status {
	return Status{Kind: StopSignaled, Signal: sig}
}

// Exited returns the status of a process that exited with code.
func Exited(code uint32) Status {
	return Status{Kind: StopExited, ExitCode: code}
}

func (s Status) String() string {
	switch s.Kind {
	case StopStopped:
		return "stopped: " + s.Signal.String()
	case StopSignaled:
		return "signaled: " + s.Signal.String()
	case StopExited:
		return fmt.Sprintf("exited: %d", s.ExitCode)
	case StopLoaded:
		return "loaded"
	case StopThreadCreated:
		return "thread created"
	case StopThreadExited:
		return fmt.Sprintf("thread exited: %d", s.ExitCode)
	}
	return "spurious"
}

// exceptionSignal maps an exception code to a signal. Codes with no
// mapping report false.
func exceptionSignal(code uint32) (Signal, bool) {
	switch code {
	case winapi.EXCEPTION_ACCESS_VIOLATION, winapi.STATUS_STACK_OVERFLOW:
		return SIGSEGV, true
	case winapi.EXCEPTION_FLT_DENORMAL_OPERAND,
		winapi.EXCEPTION_FLT_DIVIDE_BY_ZERO,
		winapi.EXCEPTION_FLT_INEXACT_RESULT,
		winapi.EXCEPTION_FLT_INVALID_OPERATION,
		winapi.EXCEPTION_FLT_OVERFLOW,
		winapi.EXCEPTION_FLT_STACK_CHECK,
		winapi.EXCEPTION_FLT_UNDERFLOW,
		winapi.EXCEPTION_INT_DIVIDE_BY_ZERO,
		winapi.EXCEPTION_INT_OVERFLOW:
		return SIGFPE, true
	case winapi.EXCEPTION_BREAKPOINT, winapi.STATUS_WX86_BREAKPOINT,
		winapi.EXCEPTION_SINGLE_STEP, winapi.STATUS_WX86_SINGLE_STEP:
		return SIGTRAP, true
	case winapi.DBG_CONTROL_C, winapi.DBG_CONTROL_BREAK:
		return SIGINT, true
	case winapi.EXCEPTION_ILLEGAL_INSTRUCTION,
		winapi.EXCEPTION_PRIV_INSTRUCTION,
		winapi.EXCEPTION_NONCONTINUABLE_EXCEPTION:
		return SIGILL, true
	}
	return Signal0, false
}

// statusControlCExit is the exit code of a console process killed by
// Ctrl-C.
const statusControlCExit = 0xC000013A

// exitSignal reports whether a process exit code is really a fatal
// exception, and which signal it corresponds to.
func exitSignal(code uint32) (Signal, bool) {
	if code == statusControlCExit {
		return SIGINT, true
	}
	// only error-severity status codes terminate a process
	if code&0xC0000000 != 0xC0000000 {
		return Signal0, false
	}
	return exceptionSignal(code)
}
