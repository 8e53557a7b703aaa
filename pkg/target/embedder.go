package target

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// ThreadResolver finds the record of a thread. The registry of a Process
// is the default; embedders that keep their own per-thread policy can wrap
// it.
type ThreadResolver interface {
	ResolveThread(tid uint32, d Disposition) (*Thread, error)
}

// DebugStringDirective is what a debug string means to the debugger.
type DebugStringDirective struct {
	// ThreadID is non-zero when the string reports a stop of that thread.
	ThreadID uint32
	Status   Status
	// Warning is text to show the user when the string is not a stop.
	Warning string
}

// DebugStringInterpreter decides what an OUTPUT_DEBUG_STRING_EVENT means.
// eventThreadID is the thread that emitted the string.
type DebugStringInterpreter interface {
	InterpretDebugString(msg string, eventThreadID uint32) DebugStringDirective
}

// ImageNameResolver resolves the name of a loaded module. addr points at a
// pointer to the name in the debuggee.
type ImageNameResolver interface {
	ResolveImageName(h winapi.Handle, addr uint64, unicode bool) (string, error)
}

// Options configures a Process.
type Options struct {
	// WaitTimeout bounds each WaitForDebugEvent call; zero waits forever.
	// A timed out wait is simply retried.
	WaitTimeout time.Duration

	// ReportThreadEvents makes thread creation and exit caller visible
	// stops.
	ReportThreadEvents bool
	// ReportLibraryEvents makes DLL load and unload caller visible stops.
	ReportLibraryEvents bool

	Threads      ThreadResolver
	DebugStrings DebugStringInterpreter
	ImageNames   ImageNameResolver

	Logger *logrus.Entry
}
