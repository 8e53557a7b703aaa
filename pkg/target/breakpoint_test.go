package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpoints(t *testing.T) {
	f := newFakeOS()
	f.poke(0x1000, []byte{0x55, 0x48, 0x89, 0xe5})
	p := newTestProcess(t, f, Options{})
	p.Handle = procHandle

	b1, err := p.AddBreakpoint(0x1003)
	require.NoError(t, err)
	b2, err := p.AddBreakpoint(0x1000)
	require.NoError(t, err)
	assert.Greater(t, b2.ID, b1.ID)
	assert.Equal(t, byte(0x55), b2.Orig)
	assert.Equal(t, byte(breakInstr), f.mem[0x1000])
	assert.True(t, p.atInjectedBreakpoint(0x1000))
	assert.False(t, p.atInjectedBreakpoint(0x1001))

	_, err = p.AddBreakpoint(0x1000)
	assert.ErrorIs(t, err, ErrBreakpointExisted)

	bs := p.Breakpoints()
	require.Len(t, bs, 2)
	assert.Equal(t, b1.ID, bs[0].ID)
	assert.Equal(t, b2.ID, bs[1].ID)

	_, err = p.AddBreakpoint(0x5000)
	assert.Error(t, err)

	bp, err := p.ClearBreakpoint(0x1000)
	require.NoError(t, err)
	assert.Equal(t, b2, bp)
	assert.Equal(t, byte(0x55), f.mem[0x1000])

	_, err = p.ClearBreakpoint(0x1000)
	assert.ErrorIs(t, err, ErrBreakpointNotExisted)

	require.NoError(t, p.ClearAll())
	assert.Empty(t, p.Breakpoints())
	assert.Equal(t, byte(0xe5), f.mem[0x1003])
}

func TestDisassemble(t *testing.T) {
	f := newFakeOS()
	// push rbp; mov rbp, rsp; ret
	f.poke(0x1000, []byte{0x55, 0x48, 0x89, 0xe5, 0xc3})
	p := newTestProcess(t, f, Options{})
	p.Handle = procHandle

	_, err := p.AddBreakpoint(0x1000)
	require.NoError(t, err)

	insts, err := p.Disassemble(0x1000, 3, "intel")
	require.NoError(t, err)
	require.Len(t, insts, 3)

	assert.Equal(t, uint64(0x1000), insts[0].Addr)
	assert.Equal(t, []byte{0x55}, insts[0].Bytes)
	assert.Contains(t, insts[0].Asm, "push")
	assert.Equal(t, uint64(0x1001), insts[1].Addr)
	assert.Len(t, insts[1].Bytes, 3)
	assert.Contains(t, insts[1].Asm, "mov")
	assert.Equal(t, uint64(0x1004), insts[2].Addr)

	// the int3 is still in memory
	assert.Equal(t, byte(breakInstr), f.mem[0x1000])

	_, err = p.Disassemble(0x1000, 1, "att")
	assert.Error(t, err)
	_, err = p.Disassemble(0x9000, 1, "gnu")
	assert.Error(t, err)
}

func TestDisassembleWow64(t *testing.T) {
	f := newFakeOS()
	// inc eax; ret. 0x40 would be a REX prefix in 64-bit mode.
	f.poke(0x1000, []byte{0x40, 0xc3})
	p := newTestProcess(t, f, Options{})
	p.Handle = procHandle
	p.Wow64 = true

	insts, err := p.Disassemble(0x1000, 2, "intel")
	require.NoError(t, err)
	require.Len(t, insts, 2)
	assert.Contains(t, insts[0].Asm, "inc")
}
