package target

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// utf16z encodes s as NUL terminated UTF-16LE.
func utf16z(s string) []byte {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return append(b, 0, 0)
}

func debugStringInfo(addr uint64, unicode bool, n uint16) winapi.DebugStringInfo {
	return winapi.DebugStringInfo{Data: addr, Unicode: unicode, Length: n}
}

func TestResolveImageName(t *testing.T) {
	f := newFakeOS()
	f.poke(0x1000, []byte{0x00, 0x20, 0, 0, 0, 0, 0, 0})
	f.poke(0x2000, utf16z(`C:\Windows\System32\kernel32.dll`))
	f.poke(0x1100, []byte{0x00, 0x30, 0, 0, 0, 0, 0, 0})
	f.poke(0x3000, append([]byte("user32.dll"), 0))
	f.poke(0x1200, make([]byte, 8))
	p := newTestProcess(t, f, Options{})

	name, err := p.ResolveImageName(procHandle, 0x1000, true)
	require.NoError(t, err)
	assert.Equal(t, `C:\Windows\System32\kernel32.dll`, name)

	name, err = p.ResolveImageName(procHandle, 0x1100, false)
	require.NoError(t, err)
	assert.Equal(t, "user32.dll", name)

	// the scratch buffer is reused, returned names are not affected
	other, err := p.ResolveImageName(procHandle, 0x1000, true)
	require.NoError(t, err)
	assert.Equal(t, "user32.dll", name)
	assert.NotEqual(t, name, other)

	_, err = p.ResolveImageName(procHandle, 0, false)
	assert.ErrorIs(t, err, ErrNoImageName)
	_, err = p.ResolveImageName(procHandle, 0x1200, false)
	assert.ErrorIs(t, err, ErrNoImageName)
	_, err = p.ResolveImageName(procHandle, 0x9999, false)
	assert.ErrorIs(t, err, ErrNoImageName)
}

func TestResolveImageNameWow64(t *testing.T) {
	f := newFakeOS()
	// only four bytes of pointer are mapped
	f.poke(0x1000, []byte{0x00, 0x20, 0, 0})
	f.poke(0x2000, utf16z("ntdll.dll"))
	p := newTestProcess(t, f, Options{})
	p.Wow64 = true

	name, err := p.ResolveImageName(procHandle, 0x1000, true)
	require.NoError(t, err)
	assert.Equal(t, "ntdll.dll", name)
}

func TestResolveImageNameBounded(t *testing.T) {
	f := newFakeOS()
	f.poke(0x1000, []byte{0x00, 0x20, 0, 0, 0, 0, 0, 0})
	long := make([]byte, 2*maxImageNameLen)
	for i := range long {
		long[i] = 'a'
	}
	f.poke(0x2000, long)
	p := newTestProcess(t, f, Options{})

	name, err := p.ResolveImageName(procHandle, 0x1000, false)
	require.NoError(t, err)
	assert.Len(t, name, maxImageNameLen)
}

type fixedNames map[uint64]string

func (n fixedNames) ResolveImageName(h winapi.Handle, addr uint64, unicode bool) (string, error) {
	if name, ok := n[addr]; ok {
		return name, nil
	}
	return "", ErrNoImageName
}

func TestEmbedderImageNames(t *testing.T) {
	f := newFakeOS()
	opts := Options{ImageNames: fixedNames{0x50: "custom.dll"}}
	p := launchedProcess(t, f, opts)
	require.NoError(t, p.Continue(AnyThread, Signal0))

	f.push(
		winapi.NewLoadDllEvent(testPID, mainTID, winapi.LoadDllInfo{BaseOfDll: 0x6000, ImageName: 0x50}),
		breakpointEvent(mainTID, 0x10),
	)
	_, _, err := p.WaitForStop(context.Background(), AnyThread)
	require.NoError(t, err)
	assert.Contains(t, p.Modules(), Module{Base: 0x6000, Name: "custom.dll"})
}
