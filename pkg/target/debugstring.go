package target

import (
	"strconv"
	"strings"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

const (
	// cygwinSignalPrefix starts the debug strings Cygwin uses to tell a
	// debugger that a signal was raised: "cYgSiGw00f<sig> <tid> ...".
	cygwinSignalPrefix = "cYgSiGw00f"
	cygwinPrefix       = "cYg"

	maxDebugStringLen = 1024
)

// CygwinStrings is the default DebugStringInterpreter. Cygwin signal
// strings become stops, other Cygwin chatter is dropped and everything
// else is shown as a warning.
type CygwinStrings struct{}

func (CygwinStrings) InterpretDebugString(msg string, eventThreadID uint32) DebugStringDirective {
	if !strings.HasPrefix(msg, cygwinSignalPrefix) {
		if strings.HasPrefix(msg, cygwinPrefix) {
			return DebugStringDirective{}
		}
		return DebugStringDirective{Warning: strings.TrimSuffix(msg, "\n")}
	}

	fields := strings.Fields(msg[len(cygwinSignalPrefix):])
	if len(fields) == 0 {
		return DebugStringDirective{}
	}
	n, err := strconv.ParseInt(fields[0], 0, 32)
	if err != nil {
		return DebugStringDirective{}
	}
	sig := SignalFromHost(int(n))
	if sig == Signal0 {
		return DebugStringDirective{}
	}

	tid := eventThreadID
	if len(fields) > 1 {
		if v, err := strconv.ParseUint(fields[1], 0, 32); err == nil && v != 0 {
			tid = uint32(v)
		}
	}
	return DebugStringDirective{ThreadID: tid, Status: Stopped(sig)}
}

// readDebugString reads the string of an OUTPUT_DEBUG_STRING_EVENT.
func (p *Process) readDebugString(info winapi.DebugStringInfo) (string, error) {
	n := int(info.Length)
	if n > maxDebugStringLen {
		n = maxDebugStringLen
	}
	size := 1
	if info.Unicode {
		size = 2
	}
	buf := make([]byte, n*size)
	got, err := p.api.ReadProcessMemory(p.Handle, info.Data, buf)
	if err != nil && got == 0 {
		return "", err
	}
	return decodeString(buf[:got-got%size], info.Unicode)
}
