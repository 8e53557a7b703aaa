package target

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
)

// Registers is a copy of one thread's register file. It holds either the
// native amd64 layout or, for WOW64 processes, the x86 layout; the other
// one is unused.
type Registers struct {
	wow64  bool
	native winapi.Context
	x86    winapi.Wow64Context
}

// DebugRegisters are the hardware breakpoint registers.
type DebugRegisters struct {
	Addr    [4]uint64 // DR0-DR3
	Status  uint64    // DR6
	Control uint64    // DR7
}

var (
	nativeGeneral = []string{
		"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
		"rip", "eflags", "segcs", "segss", "segds", "seges", "segfs", "seggs",
	}
	x86General = []string{
		"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp",
		"eip", "eflags", "segcs", "segss", "segds", "seges", "segfs", "seggs",
	}
)

// Wow64 reports whether r holds the x86 layout.
func (r *Registers) Wow64() bool {
	return r.wow64
}

// Native returns the amd64 layout, or nil for a WOW64 thread.
func (r *Registers) Native() *winapi.Context {
	if r.wow64 {
		return nil
	}
	return &r.native
}

// X86 returns the WOW64 layout, or nil for a native thread.
func (r *Registers) X86() *winapi.Wow64Context {
	if !r.wow64 {
		return nil
	}
	return &r.x86
}

func (r *Registers) PC() uint64 {
	if r.wow64 {
		return uint64(r.x86.Eip)
	}
	return r.native.Rip
}

func (r *Registers) SetPC(pc uint64) {
	if r.wow64 {
		r.x86.Eip = uint32(pc)
		return
	}
	r.native.Rip = pc
}

func (r *Registers) SP() uint64 {
	if r.wow64 {
		return uint64(r.x86.Esp)
	}
	return r.native.Rsp
}

func (r *Registers) Flags() uint32 {
	if r.wow64 {
		return r.x86.EFlags
	}
	return r.native.EFlags
}

func (r *Registers) SetFlags(flags uint32) {
	if r.wow64 {
		r.x86.EFlags = flags
		return
	}
	r.native.EFlags = flags
}

// DebugRegisters returns DR0-DR3, DR6 and DR7.
func (r *Registers) DebugRegisters() DebugRegisters {
	if r.wow64 {
		c := &r.x86
		return DebugRegisters{
			Addr:    [4]uint64{uint64(c.Dr0), uint64(c.Dr1), uint64(c.Dr2), uint64(c.Dr3)},
			Status:  uint64(c.Dr6),
			Control: uint64(c.Dr7),
		}
	}
	c := &r.native
	return DebugRegisters{
		Addr:    [4]uint64{c.Dr0, c.Dr1, c.Dr2, c.Dr3},
		Status:  c.Dr6,
		Control: c.Dr7,
	}
}

func (r *Registers) setDebugRegisters(d DebugRegisters) {
	if r.wow64 {
		c := &r.x86
		c.Dr0, c.Dr1, c.Dr2, c.Dr3 = uint32(d.Addr[0]), uint32(d.Addr[1]), uint32(d.Addr[2]), uint32(d.Addr[3])
		c.Dr6, c.Dr7 = uint32(d.Status), uint32(d.Control)
		return
	}
	c := &r.native
	c.Dr0, c.Dr1, c.Dr2, c.Dr3 = d.Addr[0], d.Addr[1], d.Addr[2], d.Addr[3]
	c.Dr6, c.Dr7 = d.Status, d.Control
}

// Names returns the general purpose register names of the live layout.
func (r *Registers) Names() []string {
	if r.wow64 {
		return x86General
	}
	return nativeGeneral
}

// pcName is the register name of the program counter.
func (r *Registers) pcName() string {
	if r.wow64 {
		return "eip"
	}
	return "rip"
}

func (r *Registers) layout() reflect.Value {
	if r.wow64 {
		return reflect.ValueOf(&r.x86).Elem()
	}
	return reflect.ValueOf(&r.native).Elem()
}

// lookup finds the unsigned integer field called name, ignoring case.
func (r *Registers) lookup(name string) (reflect.Value, error) {
	rv := r.layout()
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() || !strings.EqualFold(f.Name, name) {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return rv.Field(i), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("invalid register name: %s", name)
}

// Get returns the value of the register called name.
func (r *Registers) Get(name string) (uint64, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	return v.Uint(), nil
}

// Set assigns value to the register called name.
func (r *Registers) Set(name string, value uint64) error {
	v, err := r.lookup(name)
	if err != nil {
		return err
	}
	if v.OverflowUint(value) {
		return fmt.Errorf("value %#x overflows register %s", value, name)
	}
	v.SetUint(value)
	return nil
}

// requestAll sets the ContextFlags that select every register.
func (r *Registers) requestAll() {
	if r.wow64 {
		r.x86.ContextFlags = winapi.WOW64_CONTEXT_ALL
		return
	}
	r.native.ContextFlags = winapi.CONTEXT_ALL
}
