package target

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// maxImageNameLen bounds the characters read for one module name.
const maxImageNameLen = 1024

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeString converts a string read from the debuggee. Anything from the
// first NUL character on is dropped.
func decodeString(b []byte, wide bool) (string, error) {
	if !wide {
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
		return string(b), nil
	}
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// ResolveImageName is the default ImageNameResolver. addr is the address
// of a pointer to the NUL terminated module name. Reading goes through a
// scratch buffer that is reused by the next call; the returned string is a
// copy.
//
// Windows only fills in the name pointer reliably for processes the
// debugger started, not for attached ones.
func (p *Process) ResolveImageName(h winapi.Handle, addr uint64, wide bool) (string, error) {
	if addr == 0 {
		return "", ErrNoImageName
	}

	ptrSize := 8
	if p.Wow64 {
		ptrSize = 4
	}
	var ptr [8]byte
	n, err := p.api.ReadProcessMemory(h, addr, ptr[:ptrSize])
	if err != nil || n != ptrSize {
		return "", fmt.Errorf("read image name pointer at %#x: %w", addr, ErrNoImageName)
	}
	nameAddr := binary.LittleEndian.Uint64(ptr[:])
	if nameAddr == 0 {
		return "", ErrNoImageName
	}

	size := 1
	if wide {
		size = 2
	}
	p.imageName = p.imageName[:0]
	var ch [2]byte
	for i := 0; i < maxImageNameLen; i++ {
		n, err := p.api.ReadProcessMemory(h, nameAddr+uint64(i*size), ch[:size])
		if err != nil || n != size {
			break
		}
		if ch[0] == 0 && ch[size-1] == 0 {
			break
		}
		p.imageName = append(p.imageName, ch[:size]...)
	}
	if len(p.imageName) == 0 {
		return "", ErrNoImageName
	}
	return decodeString(p.imageName, wide)
}

// readCString reads a NUL terminated byte string of at most max bytes.
func (p *Process) readCString(addr uint64, max int) (string, error) {
	buf := make([]byte, max)
	n, err := p.api.ReadProcessMemory(p.Handle, addr, buf)
	if n == 0 && err != nil {
		return "", err
	}
	return decodeString(buf[:n], false)
}
