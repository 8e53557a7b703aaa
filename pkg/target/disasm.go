package target

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// maxInstLen is the longest x86 instruction.
const maxInstLen = 15

// Instruction 反汇编得到的一条指令
type Instruction struct {
	Addr  uint64
	Bytes []byte
	Asm   string
}

// Disassemble 反汇编地址addr处的max条指令. Bytes patched by our
// breakpoints are shown as the original instructions.
func (p *Process) Disassemble(addr uint64, max int, syntax string) ([]Instruction, error) {
	// 指令数据
	dat := make([]byte, max*maxInstLen)
	n, err := p.ReadMemory(addr, dat)
	if n == 0 {
		return nil, fmt.Errorf("peek text error: %v, bytes: %d", err, n)
	}
	dat = dat[:n]

	for _, bp := range p.breakpoints {
		if bp.Addr >= addr && bp.Addr < addr+uint64(n) {
			dat[bp.Addr-addr] = bp.Orig
		}
	}

	mode := 64
	if p.Wow64 {
		mode = 32
	}

	// 反汇编这里的指令数据
	var insts []Instruction
	offset := 0
	for len(insts) < max && offset < len(dat) {
		inst, err := x86asm.Decode(dat[offset:], mode)
		if err != nil {
			if len(insts) == 0 {
				return nil, fmt.Errorf("x86asm decode error: %v", err)
			}
			break
		}

		pc := addr + uint64(offset)
		asm, err := instSyntax(inst, pc, syntax)
		if err != nil {
			return nil, err
		}

		end := offset + inst.Len
		insts = append(insts, Instruction{
			Addr:  pc,
			Bytes: dat[offset:end:end],
			Asm:   asm,
		})
		offset = end
	}
	return insts, nil
}

func instSyntax(inst x86asm.Inst, pc uint64, syntax string) (string, error) {
	asm := ""
	switch syntax {
	case "go":
		asm = x86asm.GoSyntax(inst, pc, nil)
	case "gnu":
		asm = x86asm.GNUSyntax(inst, pc, nil)
	case "intel":
		asm = x86asm.IntelSyntax(inst, pc, nil)
	default:
		return "", fmt.Errorf("invalid asm syntax %q, supported: go, gnu, intel", syntax)
	}
	return asm, nil
}
