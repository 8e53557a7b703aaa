package target

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/atomic"
)

var (
	bpSeqNo = atomic.NewUint64(0)
)

// breakInstr is int3.
const breakInstr = 0xCC

// Breakpoint 断点信息
type Breakpoint struct {
	ID      uint64 // 断点编号
	Addr    uint64 // 断点地址
	Orig    byte   // 原内存数据
	Enabled bool   // 断点是否启用
}

// 在指令地址addr处创建一个断点，该地址处原始的1字节数据为orig
func newBreakPoint(addr uint64, orig byte) *Breakpoint {
	return &Breakpoint{
		ID:      bpSeqNo.Add(1),
		Addr:    addr,
		Orig:    orig,
		Enabled: true,
	}
}

// Breakpoints 所有的断点信息
type Breakpoints []*Breakpoint

// Len 返回长度
func (b Breakpoints) Len() int {
	return len(b)
}

// Less 检查b[i]是否小于b[j]
func (b Breakpoints) Less(i, j int) bool {
	return b[i].ID < b[j].ID
}

// Swap 交换b[i]和b[j]
func (b Breakpoints) Swap(i, j int) {
	b[i], b[j] = b[j], b[i]
}

// Breakpoints 返回已添加的断点，按编号排序
func (p *Process) Breakpoints() Breakpoints {
	bs := make(Breakpoints, 0, len(p.breakpoints))
	for _, b := range p.breakpoints {
		bs = append(bs, b)
	}
	sort.Sort(bs)
	return bs
}

// AddBreakpoint 在地址addr处添加断点，返回新创建的断点
func (p *Process) AddBreakpoint(addr uint64) (*Breakpoint, error) {
	if _, ok := p.breakpoints[addr]; ok {
		return nil, ErrBreakpointExisted
	}

	orig := [1]byte{}
	n, err := p.ReadMemory(addr, orig[:])
	if err != nil || n != 1 {
		return nil, fmt.Errorf("peek text, %d bytes, error: %v", n, err)
	}

	n, err = p.WriteMemory(addr, []byte{breakInstr})
	if err != nil || n != 1 {
		return nil, fmt.Errorf("poke text, %d bytes, error: %v", n, err)
	}

	bp := newBreakPoint(addr, orig[0])
	p.breakpoints[addr] = bp
	return bp, nil
}

// ClearBreakpoint 删除addr处的断点
func (p *Process) ClearBreakpoint(addr uint64) (*Breakpoint, error) {
	bp, ok := p.breakpoints[addr]
	if !ok {
		return nil, ErrBreakpointNotExisted
	}

	n, err := p.WriteMemory(bp.Addr, []byte{bp.Orig})
	if err != nil || n != 1 {
		return nil, fmt.Errorf("poke text, %d bytes, error: %v", n, err)
	}
	delete(p.breakpoints, addr)
	return bp, nil
}

// ClearAll 删除所有已添加的断点
func (p *Process) ClearAll() error {
	var errs []error
	for _, bp := range p.Breakpoints() {
		if _, err := p.ClearBreakpoint(bp.Addr); err != nil {
			errs = append(errs, fmt.Errorf("breakpoint %d: %w", bp.ID, err))
		}
	}
	return errors.Join(errs...)
}

// atInjectedBreakpoint reports whether addr holds an int3 we wrote.
func (p *Process) atInjectedBreakpoint(addr uint64) bool {
	bp, ok := p.breakpoints[addr]
	return ok && bp.Enabled
}

// StepOverBreakpoint executes the instruction under the breakpoint t
// stopped at, with the original byte restored, then puts the breakpoint
// back. The other threads stay suspended during the step, so stops they
// report meanwhile are deferred. It returns the status of the step; a
// thread not stopped at one of our breakpoints is left alone and reported
// as stopped by SIGTRAP.
func (p *Process) StepOverBreakpoint(ctx context.Context, t *Thread) (Status, error) {
	pc, err := t.PC()
	if err != nil {
		return Status{}, err
	}
	bp, ok := p.breakpoints[pc]
	if !ok || !t.StoppedAtSoftwareBreakpoint {
		return Stopped(SIGTRAP), nil
	}

	if n, err := p.WriteMemory(bp.Addr, []byte{bp.Orig}); err != nil || n != 1 {
		return Status{}, fmt.Errorf("poke text, %d bytes, error: %v", n, err)
	}
	defer func() {
		if p.exited {
			return
		}
		if _, err := p.WriteMemory(bp.Addr, []byte{breakInstr}); err != nil {
			p.log.Warnf("reinsert breakpoint %d at %#x: %v", bp.ID, bp.Addr, err)
		}
	}()

	// rerun the trapped instruction
	if err := t.SetPC(pc); err != nil {
		return Status{}, err
	}
	if err := p.Step(t.ID, Signal0); err != nil {
		return Status{}, err
	}
	_, st, err := p.WaitForStop(ctx, t.ID)
	return st, err
}
