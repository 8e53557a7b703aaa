package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

func deferStops(q *PendingStops, tids ...uint32) {
	for i, tid := range tids {
		ev := breakpointEvent(tid, uint64(0x1000+i))
		q.Defer(tid, Stopped(SIGTRAP), &ev)
	}
}

func TestPendingStopsFIFO(t *testing.T) {
	var q PendingStops
	tids := []uint32{3, 1, 2, 1, 5}
	deferStops(&q, tids...)

	var got []uint32
	for {
		ps, ok := q.TakeNext(AnyThread)
		if !ok {
			break
		}
		got = append(got, ps.ThreadID)
	}
	assert.Equal(t, tids, got)
	assert.Equal(t, 0, q.Len())
}

func TestPendingStopsTakeSpecific(t *testing.T) {
	var q PendingStops
	deferStops(&q, 1, 2, 3, 2)

	assert.True(t, q.Match(2))
	assert.False(t, q.Match(9))

	ps, ok := q.TakeNext(2)
	require.True(t, ok)
	assert.Equal(t, uint32(2), ps.ThreadID)
	assert.Equal(t, uint64(0x1001), ps.Event.Exception().Record.Address)

	// same thread again is the later entry
	ps, ok = q.TakeNext(2)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1003), ps.Event.Exception().Record.Address)

	_, ok = q.TakeNext(2)
	assert.False(t, ok)

	var rest []uint32
	for _, s := range q.Stops() {
		rest = append(rest, s.ThreadID)
	}
	assert.Equal(t, []uint32{1, 3}, rest)
}

func TestPendingStopsKeepEventCopy(t *testing.T) {
	var q PendingStops
	ev := breakpointEvent(7, 0x1234)
	q.Defer(7, Stopped(SIGTRAP), &ev)

	ev = winapi.NewExitThreadEvent(testPID, 8, 0)
	ps, ok := q.TakeNext(7)
	require.True(t, ok)
	assert.Equal(t, uint32(winapi.EXCEPTION_DEBUG_EVENT), ps.Event.Code)
	assert.Equal(t, uint32(7), ps.Event.ThreadID)
}

func TestPendingStopsDiscardThread(t *testing.T) {
	var q PendingStops
	deferStops(&q, 1, 2, 1, 3)

	assert.Equal(t, 2, q.DiscardThread(1))
	assert.Equal(t, 0, q.DiscardThread(1))
	require.Equal(t, 2, q.Len())
	assert.False(t, q.Match(1))

	stops := q.Stops()
	stops[0].ThreadID = 99
	assert.True(t, q.Match(2), "Stops returns a copy")
}
