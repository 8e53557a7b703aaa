package target

import (
	"errors"
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

var errDebugThreadStopped = errors.New("debug thread stopped")

// debugThread runs requests on a single goroutine locked to its OS thread.
//
// Windows only delivers debug events to the thread that started or attached
// to the debuggee, and ContinueDebugEvent must be called by that same
// thread, so every such request goes through here.
type debugThread struct {
	once    sync.Once
	reqCh   chan func() // 请求统一发送到这里，由专门协程处理
	doneCh  chan struct{}
	stopCh  chan struct{}
	stopped *atomic.Bool
}

func newDebugThread() *debugThread {
	return &debugThread{
		reqCh:   make(chan func()),
		doneCh:  make(chan struct{}),
		stopCh:  make(chan struct{}),
		stopped: atomic.NewBool(false),
	}
}

// exec runs fn on the debug thread and waits for it to return.
func (d *debugThread) exec(fn func()) error {
	if d.stopped.Load() {
		return errDebugThreadStopped
	}
	d.once.Do(func() {
		go d.loop()
	})
	d.reqCh <- fn
	<-d.doneCh
	return nil
}

func (d *debugThread) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case fn := <-d.reqCh:
			fn()
			d.doneCh <- struct{}{}
		case <-d.stopCh:
			return
		}
	}
}

// stop terminates the debug thread. It is safe to call more than once.
func (d *debugThread) stop() {
	if d.stopped.CompareAndSwap(false, true) {
		close(d.stopCh)
	}
}
