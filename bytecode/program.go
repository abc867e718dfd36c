package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Instruction is one decoded 16-byte record: an opcode tag word and an
// operand word. The operand's meaning depends on the opcode's OperandKind;
// for OperandNone opcodes it is carried but ignored.
type Instruction struct {
	Op      Opcode
	Operand uint64
}

func (in Instruction) String() string {
	info := GetOpcodeInfo(in.Op)
	if info.Reserved || info.Name == "" || info.Operand == OperandNone {
		return in.Op.String()
	}
	if info.Operand == OperandImmediate {
		return fmt.Sprintf("%s %#x", info.Name, in.Operand)
	}
	return fmt.Sprintf("%s %d", info.Name, in.Operand)
}

// Program is a validated bytecode buffer. The underlying bytes belong to
// whatever region the loader placed them in and must not be written after
// construction; the region manager seals them.
type Program struct {
	code []byte
}

// NewProgram validates a raw buffer and wraps it. The buffer is rejected
// unless its length is a positive multiple of InstructionSize and every
// opcode word is in the vocabulary.
func NewProgram(code []byte) (*Program, error) {
	if err := Validate(code); err != nil {
		return nil, err
	}
	return &Program{code: code}, nil
}

// Len returns the program length in bytes.
func (p *Program) Len() int {
	return len(p.code)
}

// InstructionCount returns the number of 16-byte instructions.
func (p *Program) InstructionCount() int {
	return len(p.code) / InstructionSize
}

// At decodes the instruction at the given index. The index must be in
// [0, InstructionCount); the engine checks jump targets before coming here.
func (p *Program) At(i int) Instruction {
	off := i * InstructionSize
	return Instruction{
		Op:      Opcode(binary.LittleEndian.Uint64(p.code[off:])),
		Operand: binary.LittleEndian.Uint64(p.code[off+OperandOffset:]),
	}
}

// Instructions decodes the whole program. Tools use this; the engine decodes
// lazily with At.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, p.InstructionCount())
	for i := range out {
		out[i] = p.At(i)
	}
	return out
}

// Bytes exposes the raw encoded program, for hashing and re-emission.
// Callers must treat it as read-only.
func (p *Program) Bytes() []byte {
	return p.code
}

// AppendInstruction appends one encoded instruction to dst and returns the
// extended slice, in the manner of strconv.AppendInt.
func AppendInstruction(dst []byte, op Opcode, operand uint64) []byte {
	var rec [InstructionSize]byte
	binary.LittleEndian.PutUint64(rec[:], uint64(op))
	binary.LittleEndian.PutUint64(rec[OperandOffset:], operand)
	return append(dst, rec[:]...)
}

// Encode serializes a sequence of instructions to the wire format.
func Encode(instrs []Instruction) []byte {
	out := make([]byte, 0, len(instrs)*InstructionSize)
	for _, in := range instrs {
		out = AppendInstruction(out, in.Op, in.Operand)
	}
	return out
}
