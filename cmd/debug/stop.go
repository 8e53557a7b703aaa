package debug

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hitzhangjie/wdbg/pkg/target"
)

// process returns the debuggee, or an error when there is none.
func process() (*target.Process, error) {
	dbp := target.DBPProcess
	if dbp == nil || dbp.Exited() {
		return nil, target.ErrNoProcess
	}
	return dbp, nil
}

// selectedThread returns the thread commands operate on.
func selectedThread(dbp *target.Process) (*target.Thread, error) {
	t := dbp.CurrentThread()
	if t == nil {
		return nil, fmt.Errorf("no thread selected: %w", target.ErrNotStopped)
	}
	return t, nil
}

// parseThreadID accepts decimal or 0x-prefixed thread ids; "" means any.
func parseThreadID(s string) (uint32, error) {
	if s == "" {
		return target.AnyThread, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid thread id: %s", s)
	}
	return uint32(v), nil
}

// waitStop waits for the next stop acceptable to desired and shows it.
func waitStop(ctx context.Context, dbp *target.Process, desired uint32) error {
	tid, st, err := dbp.WaitForStop(ctx, desired)
	if err != nil {
		return err
	}
	report(dbp, tid, st)
	return nil
}

func report(dbp *target.Process, tid uint32, st target.Status) {
	switch st.Kind {
	case target.StopExited, target.StopSignaled:
		fmt.Printf("process %d %s\n", dbp.ID, st)
		return
	}
	fmt.Printf("thread %#x %s\n", tid, st)
	PrintStop(dbp)
}

// PrintStop 显示当前线程停止的位置
func PrintStop(dbp *target.Process) {
	t := dbp.CurrentThread()
	if t == nil {
		return
	}
	pc, err := t.PC()
	if err != nil {
		fmt.Printf("%s, signal %s\n", t, dbp.LastSignal)
		return
	}
	fmt.Printf("%s stopped at %#x, signal %s\n", t, pc, dbp.LastSignal)
}
