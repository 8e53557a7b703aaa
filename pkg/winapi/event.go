package winapi

import (
	"encoding/binary"
	"fmt"
)

// Handle is a Windows kernel object handle.
type Handle uintptr

// Debug event codes, DEBUG_EVENT.dwDebugEventCode.
const (
	EXCEPTION_DEBUG_EVENT      = 1
	CREATE_THREAD_DEBUG_EVENT  = 2
	CREATE_PROCESS_DEBUG_EVENT = 3
	EXIT_THREAD_DEBUG_EVENT    = 4
	EXIT_PROCESS_DEBUG_EVENT   = 5
	LOAD_DLL_DEBUG_EVENT       = 6
	UNLOAD_DLL_DEBUG_EVENT     = 7
	OUTPUT_DEBUG_STRING_EVENT  = 8
	RIP_EVENT                  = 9
)

// Continue statuses for ContinueDebugEvent.
const (
	DBG_CONTINUE              = 0x00010002
	DBG_EXCEPTION_NOT_HANDLED = 0x80010001
)

// EXCEPTION_MAXIMUM_PARAMETERS bounds ExceptionRecord.Information.
const EXCEPTION_MAXIMUM_PARAMETERS = 15

// DebugEvent is the amd64 layout of DEBUG_EVENT. U holds the union
// selected by Code; use the accessors to decode it.
//
// DebugEvent is a plain value: assigning it copies the whole structure,
// which is what retaining an event past the current fetch requires.
type DebugEvent struct {
	Code      uint32
	ProcessID uint32
	ThreadID  uint32
	_         uint32 // to align Union properly
	U         [160]byte
}

// ExceptionRecord is EXCEPTION_RECORD64.
type ExceptionRecord struct {
	Code             uint32
	Flags            uint32
	Record           uint64
	Address          uint64
	NumberParameters uint32
	_                uint32
	Information      [EXCEPTION_MAXIMUM_PARAMETERS]uint64
}

// ExceptionInfo is EXCEPTION_DEBUG_INFO.
type ExceptionInfo struct {
	Record      ExceptionRecord
	FirstChance bool
}

// CreateThreadInfo is CREATE_THREAD_DEBUG_INFO.
type CreateThreadInfo struct {
	Thread          Handle
	ThreadLocalBase uint64
	StartAddress    uint64
}

// CreateProcessInfo is CREATE_PROCESS_DEBUG_INFO.
type CreateProcessInfo struct {
	File            Handle
	Process         Handle
	Thread          Handle
	BaseOfImage     uint64
	DebugInfoOffset uint32
	DebugInfoSize   uint32
	ThreadLocalBase uint64
	StartAddress    uint64
	ImageName       uint64
	Unicode         bool
}

// LoadDllInfo is LOAD_DLL_DEBUG_INFO.
type LoadDllInfo struct {
	File            Handle
	BaseOfDll       uint64
	DebugInfoOffset uint32
	DebugInfoSize   uint32
	ImageName       uint64
	Unicode         bool
}

// DebugStringInfo is OUTPUT_DEBUG_STRING_INFO.
type DebugStringInfo struct {
	Data    uint64
	Unicode bool
	Length  uint16
}

// RIPInfo is RIP_INFO.
type RIPInfo struct {
	Error uint32
	Type  uint32
}

var le = binary.LittleEndian

// Exception decodes the union of an EXCEPTION_DEBUG_EVENT.
func (e *DebugEvent) Exception() ExceptionInfo {
	var info ExceptionInfo
	r := &info.Record
	r.Code = le.Uint32(e.U[0:])
	r.Flags = le.Uint32(e.U[4:])
	r.Record = le.Uint64(e.U[8:])
	r.Address = le.Uint64(e.U[16:])
	r.NumberParameters = le.Uint32(e.U[24:])
	for i := range r.Information {
		r.Information[i] = le.Uint64(e.U[32+8*i:])
	}
	info.FirstChance = le.Uint32(e.U[152:]) != 0
	return info
}

// CreateThread decodes the union of a CREATE_THREAD_DEBUG_EVENT.
func (e *DebugEvent) CreateThread() CreateThreadInfo {
	return CreateThreadInfo{
		Thread:          Handle(le.Uint64(e.U[0:])),
		ThreadLocalBase: le.Uint64(e.U[8:]),
		StartAddress:    le.Uint64(e.U[16:]),
	}
}

// CreateProcess decodes the union of a CREATE_PROCESS_DEBUG_EVENT.
func (e *DebugEvent) CreateProcess() CreateProcessInfo {
	return CreateProcessInfo{
		File:            Handle(le.Uint64(e.U[0:])),
		Process:         Handle(le.Uint64(e.U[8:])),
		Thread:          Handle(le.Uint64(e.U[16:])),
		BaseOfImage:     le.Uint64(e.U[24:]),
		DebugInfoOffset: le.Uint32(e.U[32:]),
		DebugInfoSize:   le.Uint32(e.U[36:]),
		ThreadLocalBase: le.Uint64(e.U[40:]),
		StartAddress:    le.Uint64(e.U[48:]),
		ImageName:       le.Uint64(e.U[56:]),
		Unicode:         le.Uint16(e.U[64:]) != 0,
	}
}

// ExitCode decodes the union of EXIT_THREAD_DEBUG_EVENT and
// EXIT_PROCESS_DEBUG_EVENT.
func (e *DebugEvent) ExitCode() uint32 {
	return le.Uint32(e.U[0:])
}

// LoadDll decodes the union of a LOAD_DLL_DEBUG_EVENT.
func (e *DebugEvent) LoadDll() LoadDllInfo {
	return LoadDllInfo{
		File:            Handle(le.Uint64(e.U[0:])),
		BaseOfDll:       le.Uint64(e.U[8:]),
		DebugInfoOffset: le.Uint32(e.U[16:]),
		DebugInfoSize:   le.Uint32(e.U[20:]),
		ImageName:       le.Uint64(e.U[24:]),
		Unicode:         le.Uint16(e.U[32:]) != 0,
	}
}

// UnloadDll returns the base address of the unloaded module.
func (e *DebugEvent) UnloadDll() uint64 {
	return le.Uint64(e.U[0:])
}

// DebugString decodes the union of an OUTPUT_DEBUG_STRING_EVENT.
func (e *DebugEvent) DebugString() DebugStringInfo {
	return DebugStringInfo{
		Data:    le.Uint64(e.U[0:]),
		Unicode: le.Uint16(e.U[8:]) != 0,
		Length:  le.Uint16(e.U[10:]),
	}
}

// RIP decodes the union of a RIP_EVENT.
func (e *DebugEvent) RIP() RIPInfo {
	return RIPInfo{Error: le.Uint32(e.U[0:]), Type: le.Uint32(e.U[4:])}
}

// IsBreakpoint reports whether e is a breakpoint exception, native or
// raised by the x86 emulator of a WOW64 process.
func (e *DebugEvent) IsBreakpoint() bool {
	if e.Code != EXCEPTION_DEBUG_EVENT {
		return false
	}
	code := le.Uint32(e.U[0:])
	return code == EXCEPTION_BREAKPOINT || code == STATUS_WX86_BREAKPOINT
}

func (e DebugEvent) String() string {
	return fmt.Sprintf("%s pid=%d tid=%#x", EventName(e.Code), e.ProcessID, e.ThreadID)
}

// EventName returns the symbolic name of a debug event code.
func EventName(code uint32) string {
	switch code {
	case EXCEPTION_DEBUG_EVENT:
		return "EXCEPTION_DEBUG_EVENT"
	case CREATE_THREAD_DEBUG_EVENT:
		return "CREATE_THREAD_DEBUG_EVENT"
	case CREATE_PROCESS_DEBUG_EVENT:
		return "CREATE_PROCESS_DEBUG_EVENT"
	case EXIT_THREAD_DEBUG_EVENT:
		return "EXIT_THREAD_DEBUG_EVENT"
	case EXIT_PROCESS_DEBUG_EVENT:
		return "EXIT_PROCESS_DEBUG_EVENT"
	case LOAD_DLL_DEBUG_EVENT:
		return "LOAD_DLL_DEBUG_EVENT"
	case UNLOAD_DLL_DEBUG_EVENT:
		return "UNLOAD_DLL_DEBUG_EVENT"
	case OUTPUT_DEBUG_STRING_EVENT:
		return "OUTPUT_DEBUG_STRING_EVENT"
	case RIP_EVENT:
		return "RIP_EVENT"
	}
	return fmt.Sprintf("unknown event %d", code)
}

// ---------------------------------------------------------------------
// constructors, used to synthesize events

func newEvent(code, pid, tid uint32) DebugEvent {
	return DebugEvent{Code: code, ProcessID: pid, ThreadID: tid}
}

// NewExceptionEvent builds an EXCEPTION_DEBUG_EVENT.
func NewExceptionEvent(pid, tid uint32, rec ExceptionRecord, firstChance bool) DebugEvent {
	e := newEvent(EXCEPTION_DEBUG_EVENT, pid, tid)
	le.PutUint32(e.U[0:], rec.Code)
	le.PutUint32(e.U[4:], rec.Flags)
	le.PutUint64(e.U[8:], rec.Record)
	le.PutUint64(e.U[16:], rec.Address)
	le.PutUint32(e.U[24:], rec.NumberParameters)
	for i, v := range rec.Information {
		le.PutUint64(e.U[32+8*i:], v)
	}
	if firstChance {
		le.PutUint32(e.U[152:], 1)
	}
	return e
}

// NewCreateThreadEvent builds a CREATE_THREAD_DEBUG_EVENT.
func NewCreateThreadEvent(pid, tid uint32, info CreateThreadInfo) DebugEvent {
	e := newEvent(CREATE_THREAD_DEBUG_EVENT, pid, tid)
	le.PutUint64(e.U[0:], uint64(info.Thread))
	le.PutUint64(e.U[8:], info.ThreadLocalBase)
	le.PutUint64(e.U[16:], info.StartAddress)
	return e
}

// NewCreateProcessEvent builds a CREATE_PROCESS_DEBUG_EVENT.
func NewCreateProcessEvent(pid, tid uint32, info CreateProcessInfo) DebugEvent {
	e := newEvent(CREATE_PROCESS_DEBUG_EVENT, pid, tid)
	le.PutUint64(e.U[0:], uint64(info.File))
	le.PutUint64(e.U[8:], uint64(info.Process))
	le.PutUint64(e.U[16:], uint64(info.Thread))
	le.PutUint64(e.U[24:], info.BaseOfImage)
	le.PutUint32(e.U[32:], info.DebugInfoOffset)
	le.PutUint32(e.U[36:], info.DebugInfoSize)
	le.PutUint64(e.U[40:], info.ThreadLocalBase)
	le.PutUint64(e.U[48:], info.StartAddress)
	le.PutUint64(e.U[56:], info.ImageName)
	if info.Unicode {
		le.PutUint16(e.U[64:], 1)
	}
	return e
}

// NewExitThreadEvent builds an EXIT_THREAD_DEBUG_EVENT.
func NewExitThreadEvent(pid, tid, code uint32) DebugEvent {
	e := newEvent(EXIT_THREAD_DEBUG_EVENT, pid, tid)
	le.PutUint32(e.U[0:], code)
	return e
}

// NewExitProcessEvent builds an EXIT_PROCESS_DEBUG_EVENT.
func NewExitProcessEvent(pid, tid, code uint32) DebugEvent {
	e := newEvent(EXIT_PROCESS_DEBUG_EVENT, pid, tid)
	le.PutUint32(e.U[0:], code)
	return e
}

// NewLoadDllEvent builds a LOAD_DLL_DEBUG_EVENT.
func NewLoadDllEvent(pid, tid uint32, info LoadDllInfo) DebugEvent {
	e := newEvent(LOAD_DLL_DEBUG_EVENT, pid, tid)
	le.PutUint64(e.U[0:], uint64(info.File))
	le.PutUint64(e.U[8:], info.BaseOfDll)
	le.PutUint32(e.U[16:], info.DebugInfoOffset)
	le.PutUint32(e.U[20:], info.DebugInfoSize)
	le.PutUint64(e.U[24:], info.ImageName)
	if info.Unicode {
		le.PutUint16(e.U[32:], 1)
	}
	return e
}

// NewUnloadDllEvent builds an UNLOAD_DLL_DEBUG_EVENT.
func NewUnloadDllEvent(pid, tid uint32, base uint64) DebugEvent {
	e := newEvent(UNLOAD_DLL_DEBUG_EVENT, pid, tid)
	le.PutUint64(e.U[0:], base)
	return e
}

// NewDebugStringEvent builds an OUTPUT_DEBUG_STRING_EVENT.
func NewDebugStringEvent(pid, tid uint32, info DebugStringInfo) DebugEvent {
	e := newEvent(OUTPUT_DEBUG_STRING_EVENT, pid, tid)
	le.PutUint64(e.U[0:], info.Data)
	if info.Unicode {
		le.PutUint16(e.U[8:], 1)
	}
	le.PutUint16(e.U[10:], info.Length)
	return e
}

// NewRIPEvent builds a RIP_EVENT.
func NewRIPEvent(pid, tid uint32, info RIPInfo) DebugEvent {
	e := newEvent(RIP_EVENT, pid, tid)
	le.PutUint32(e.U[0:], info.Error)
	le.PutUint32(e.U[4:], info.Type)
	return e
}
