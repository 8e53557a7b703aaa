package winapi

import "fmt"

// Exception codes, EXCEPTION_RECORD.ExceptionCode.
const (
	EXCEPTION_ACCESS_VIOLATION         = 0xC0000005
	EXCEPTION_NONCONTINUABLE_EXCEPTION = 0xC0000025
	EXCEPTION_ILLEGAL_INSTRUCTION      = 0xC000001D
	EXCEPTION_FLT_DENORMAL_OPERAND     = 0xC000008D
	EXCEPTION_FLT_DIVIDE_BY_ZERO       = 0xC000008E
	EXCEPTION_FLT_INEXACT_RESULT       = 0xC000008F
	EXCEPTION_FLT_INVALID_OPERATION    = 0xC0000090
	EXCEPTION_FLT_OVERFLOW             = 0xC0000091
	EXCEPTION_FLT_STACK_CHECK          = 0xC0000092
	EXCEPTION_FLT_UNDERFLOW            = 0xC0000093
	EXCEPTION_INT_DIVIDE_BY_ZERO       = 0xC0000094
	EXCEPTION_INT_OVERFLOW             = 0xC0000095
	EXCEPTION_PRIV_INSTRUCTION         = 0xC0000096
	STATUS_STACK_OVERFLOW              = 0xC00000FD
	EXCEPTION_BREAKPOINT               = 0x80000003
	EXCEPTION_SINGLE_STEP              = 0x80000004
	STATUS_WX86_SINGLE_STEP            = 0x4000001E
	STATUS_WX86_BREAKPOINT             = 0x4000001F
	DBG_CONTROL_C                      = 0x40010005
	DBG_CONTROL_BREAK                  = 0x40010008

	// MS_VC_EXCEPTION is raised by SetThreadName-style code to tell an
	// attached debugger the name of a thread.
	MS_VC_EXCEPTION = 0x406D1388
)

// ExceptionName returns the symbolic name of an exception code.
func ExceptionName(code uint32) string {
	switch code {
	case EXCEPTION_ACCESS_VIOLATION:
		return "EXCEPTION_ACCESS_VIOLATION"
	case EXCEPTION_NONCONTINUABLE_EXCEPTION:
		return "EXCEPTION_NONCONTINUABLE_EXCEPTION"
	case EXCEPTION_ILLEGAL_INSTRUCTION:
		return "EXCEPTION_ILLEGAL_INSTRUCTION"
	case EXCEPTION_FLT_DENORMAL_OPERAND:
		return "EXCEPTION_FLT_DENORMAL_OPERAND"
	case EXCEPTION_FLT_DIVIDE_BY_ZERO:
		return "EXCEPTION_FLT_DIVIDE_BY_ZERO"
	case EXCEPTION_FLT_INEXACT_RESULT:
		return "EXCEPTION_FLT_INEXACT_RESULT"
	case EXCEPTION_FLT_INVALID_OPERATION:
		return "EXCEPTION_FLT_INVALID_OPERATION"
	case EXCEPTION_FLT_OVERFLOW:
		return "EXCEPTION_FLT_OVERFLOW"
	case EXCEPTION_FLT_STACK_CHECK:
		return "EXCEPTION_FLT_STACK_CHECK"
	case EXCEPTION_FLT_UNDERFLOW:
		return "EXCEPTION_FLT_UNDERFLOW"
	case EXCEPTION_INT_DIVIDE_BY_ZERO:
		return "EXCEPTION_INT_DIVIDE_BY_ZERO"
	case EXCEPTION_INT_OVERFLOW:
		return "EXCEPTION_INT_OVERFLOW"
	case EXCEPTION_PRIV_INSTRUCTION:
		return "EXCEPTION_PRIV_INSTRUCTION"
	case STATUS_STACK_OVERFLOW:
		return "STATUS_STACK_OVERFLOW"
	case EXCEPTION_BREAKPOINT:
		return "EXCEPTION_BREAKPOINT"
	case EXCEPTION_SINGLE_STEP:
		return "EXCEPTION_SINGLE_STEP"
	case STATUS_WX86_SINGLE_STEP:
		return "STATUS_WX86_SINGLE_STEP"
	case STATUS_WX86_BREAKPOINT:
		return "STATUS_WX86_BREAKPOINT"
	case DBG_CONTROL_C:
		return "DBG_CONTROL_C"
	case DBG_CONTROL_BREAK:
		return "DBG_CONTROL_BREAK"
	case MS_VC_EXCEPTION:
		return "MS_VC_EXCEPTION"
	}
	return fmt.Sprintf("exception %#08x", code)
}
