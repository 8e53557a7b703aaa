package target

import (
	"errors"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// SuspendState tracks whether SuspendThread was called on a thread by us.
type SuspendState int

const (
	NotSuspended SuspendState = 0
	// SuspendedByUs: SuspendThread succeeded and must be undone by Resume.
	SuspendedByUs SuspendState = 1
	// SuspendFailed: SuspendThread failed; there is nothing to undo.
	SuspendFailed SuspendState = -1
)

func (s SuspendState) String() string {
	switch s {
	case NotSuspended:
		return "running"
	case SuspendedByUs:
		return "suspended"
	case SuspendFailed:
		return "suspend failed"
	}
	return "invalid"
}

// Suspend makes sure the thread is suspended. It calls SuspendThread at
// most once until the next Resume. A failure is not fatal: the thread is
// flagged SuspendFailed and the error returned after being logged.
func (t *Thread) Suspend() error {
	if t.suspended != NotSuspended {
		return nil
	}

	_, err := t.Process.api.SuspendThread(t.Handle, t.regs.wow64)
	if err != nil {
		t.suspended = SuspendFailed
		// Windows denies suspending the threads it starts on behalf of the
		// debuggee, usually one per DLL.
		if errors.Is(err, winapi.ErrAccessDenied) {
			t.Process.log.Debugf("SuspendThread (tid=%#x) failed: %v", t.ID, err)
		} else {
			t.Process.log.Warnf("SuspendThread (tid=%#x) failed: %v", t.ID, err)
		}
		return err
	}
	t.suspended = SuspendedByUs
	return nil
}

// Resume undoes a successful Suspend. Threads we did not suspend are left
// alone. Pending register writes are flushed before the thread runs.
func (t *Thread) Resume() error {
	switch t.suspended {
	case NotSuspended:
		return nil
	case SuspendFailed:
		t.suspended = NotSuspended
		return nil
	}

	if err := t.prepareRun(); err != nil {
		t.Process.log.Warnf("resume thread %#x: %v", t.ID, err)
		return err
	}
	if _, err := t.Process.api.ResumeThread(t.Handle); err != nil {
		t.Process.log.Warnf("ResumeThread (tid=%#x) failed: %v", t.ID, err)
		return err
	}
	t.suspended = NotSuspended
	t.reloadContext = true
	return nil
}
