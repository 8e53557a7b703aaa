package winapi

// Native (amd64) context flags.
const (
	CONTEXT_AMD64           = 0x100000
	CONTEXT_CONTROL         = (CONTEXT_AMD64 | 0x1)
	CONTEXT_INTEGER         = (CONTEXT_AMD64 | 0x2)
	CONTEXT_SEGMENTS        = (CONTEXT_AMD64 | 0x4)
	CONTEXT_FLOATING_POINT  = (CONTEXT_AMD64 | 0x8)
	CONTEXT_DEBUG_REGISTERS = (CONTEXT_AMD64 | 0x10)
	CONTEXT_FULL            = (CONTEXT_CONTROL | CONTEXT_INTEGER | CONTEXT_FLOATING_POINT)
	CONTEXT_ALL             = (CONTEXT_CONTROL | CONTEXT_INTEGER | CONTEXT_SEGMENTS | CONTEXT_FLOATING_POINT | CONTEXT_DEBUG_REGISTERS)
)

// WOW64 (x86) context flags.
const (
	WOW64_CONTEXT_i386               = 0x00010000
	WOW64_CONTEXT_CONTROL            = (WOW64_CONTEXT_i386 | 0x1)
	WOW64_CONTEXT_INTEGER            = (WOW64_CONTEXT_i386 | 0x2)
	WOW64_CONTEXT_SEGMENTS           = (WOW64_CONTEXT_i386 | 0x4)
	WOW64_CONTEXT_FLOATING_POINT     = (WOW64_CONTEXT_i386 | 0x8)
	WOW64_CONTEXT_DEBUG_REGISTERS    = (WOW64_CONTEXT_i386 | 0x10)
	WOW64_CONTEXT_EXTENDED_REGISTERS = (WOW64_CONTEXT_i386 | 0x20)
	WOW64_CONTEXT_FULL               = (WOW64_CONTEXT_CONTROL | WOW64_CONTEXT_INTEGER | WOW64_CONTEXT_SEGMENTS)
	WOW64_CONTEXT_ALL                = (WOW64_CONTEXT_FULL | WOW64_CONTEXT_FLOATING_POINT | WOW64_CONTEXT_DEBUG_REGISTERS | WOW64_CONTEXT_EXTENDED_REGISTERS)
)

// TrapFlag is the single-step bit of EFLAGS.
const TrapFlag = 0x100

// M128A is a 128-bit XMM/vector register slot.
type M128A struct {
	Low  uint64
	High int64
}

// Context is the amd64 CONTEXT structure. The OS requires it to be 16 byte
// aligned when passed to Get/SetThreadContext; System takes care of that.
type Context struct {
	P1Home uint64
	P2Home uint64
	P3Home uint64
	P4Home uint64
	P5Home uint64
	P6Home uint64

	ContextFlags uint32
	MxCsr        uint32

	SegCs  uint16
	SegDs  uint16
	SegEs  uint16
	SegFs  uint16
	SegGs  uint16
	SegSs  uint16
	EFlags uint32

	Dr0 uint64
	Dr1 uint64
	Dr2 uint64
	Dr3 uint64
	Dr6 uint64
	Dr7 uint64

	Rax uint64
	Rcx uint64
	Rdx uint64
	Rbx uint64
	Rsp uint64
	Rbp uint64
	Rsi uint64
	Rdi uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64

	Rip uint64

	FltSave [512]byte

	VectorRegister [26]M128A
	VectorControl  uint64

	DebugControl         uint64
	LastBranchToRip      uint64
	LastBranchFromRip    uint64
	LastExceptionToRip   uint64
	LastExceptionFromRip uint64
}

// Wow64FloatingSaveArea is WOW64_FLOATING_SAVE_AREA.
type Wow64FloatingSaveArea struct {
	ControlWord   uint32
	StatusWord    uint32
	TagWord       uint32
	ErrorOffset   uint32
	ErrorSelector uint32
	DataOffset    uint32
	DataSelector  uint32
	RegisterArea  [80]byte
	Cr0NpxState   uint32
}

// Wow64Context is WOW64_CONTEXT, the register file of a 32-bit thread
// running under WOW64.
type Wow64Context struct {
	ContextFlags uint32

	Dr0 uint32
	Dr1 uint32
	Dr2 uint32
	Dr3 uint32
	Dr6 uint32
	Dr7 uint32

	FloatSave Wow64FloatingSaveArea

	SegGs uint32
	SegFs uint32
	SegEs uint32
	SegDs uint32

	Edi uint32
	Esi uint32
	Ebx uint32
	Edx uint32
	Ecx uint32
	Eax uint32

	Ebp    uint32
	Eip    uint32
	SegCs  uint32
	EFlags uint32
	Esp    uint32
	SegSs  uint32

	ExtendedRegisters [512]byte
}

// Wow64TLBOffset is the distance from the 64-bit TEB reported for a WOW64
// thread to its 32-bit TEB.
const Wow64TLBOffset = 0x2000
