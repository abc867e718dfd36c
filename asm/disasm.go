package asm

import (
	"fmt"
	"strings"

	"github.com/petrel-lang/petrel/bytecode"
)

// Disassemble renders a validated program as assembler source: mnemonics
// where they exist, `.word` directives for reserved tags, and a trailing
// index comment per line for chasing jump targets. A program ending in
// HALT assembles back to byte-identical wire code.
func Disassemble(prog *bytecode.Program) string {
	return disassemble(prog, nil)
}

// DisassembleAnnotated is Disassemble plus source positions from a listing
// sidecar. A sidecar that does not hash-match the program is ignored.
func DisassembleAnnotated(prog *bytecode.Program, l *Listing) string {
	if l == nil || !l.Matches(prog.Bytes()) {
		l = nil
	}
	return disassemble(prog, l)
}

func disassemble(prog *bytecode.Program, l *Listing) string {
	var sb strings.Builder
	count := prog.InstructionCount()
	sb.WriteString(fmt.Sprintf("; %d instructions\n", count))
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("%-32s; %d", DisassembleInstruction(prog.At(i)), i))
		if l != nil && i < len(l.Instructions) {
			if e := l.Instructions[i]; e.Line > 0 {
				sb.WriteString(fmt.Sprintf("  %s:%d", l.Source, e.Line))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DisassembleInstruction renders one instruction as one source line.
func DisassembleInstruction(in bytecode.Instruction) string {
	info := bytecode.GetOpcodeInfo(in.Op)
	if info.Reserved || info.Name == "" {
		return fmt.Sprintf(".word %#x %#x", uint64(in.Op), in.Operand)
	}
	switch info.Operand {
	case bytecode.OperandNone:
		return info.Name
	case bytecode.OperandImmediate:
		return fmt.Sprintf("%s %s", info.Name, FormatImmediate(in.Operand))
	default:
		return fmt.Sprintf("%s %d", info.Name, in.Operand)
	}
}
