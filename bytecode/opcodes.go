package bytecode

import (
	"fmt"
	"sort"
)

// Opcode is the 64-bit tag word that begins every instruction. The tags are
// hex-spelled mnemonics rather than small integers, so membership in the
// vocabulary is a table lookup, not a range check.
type Opcode uint64

// InstructionSize is the fixed width of one instruction on the wire:
// an opcode word followed by an operand word, both little-endian.
const (
	InstructionSize = 16
	OperandOffset   = 8
)

const (
	// ========================================================================
	// Constants and control flow
	// ========================================================================

	OpLoad      Opcode = 0x10AD000 // Push the operand word as-is (pre-tagged immediate)
	OpJump      Opcode = 0x70AD000 // Jump to absolute instruction index
	OpJumpFalse Opcode = 0x0CA7000 // Pop; jump to absolute instruction index if #f
	OpHalt      Opcode = 0xD0D0000 // Stop; result is top of stack, or unspecified

	// ========================================================================
	// Stack manipulation
	// ========================================================================

	OpGet    Opcode = 0x09E7000 // Push a copy of the word N slots below the top
	OpForget Opcode = 0x49E7000 // Pop and discard one word
	OpFall   Opcode = 0xFA11000 // Pop the top, discard N words beneath it, push it back

	// ========================================================================
	// Integer arithmetic
	// ========================================================================

	OpAdd1 Opcode = 0xADD1000 // Pop integer, push integer+1
	OpSub1 Opcode = 0x50B1000 // Pop integer, push integer-1
	OpAdd  Opcode = 0x0ADD000 // Pop N integers, push their sum
	OpSub  Opcode = 0x050B000 // Pop N integers, push a1-a2-...-aN (N=1 negates)
	OpMul  Opcode = 0x0A55000 // Pop N integers, push their product

	// ========================================================================
	// Comparison and predicates
	// ========================================================================

	OpLess      Opcode = 0x1700000 // Pop N integers, push #t iff strictly increasing
	OpNumEq     Opcode = 0xE3E3000 // Pop N integers, push #t iff all equal
	OpIdentical Opcode = 0x3E3E000 // Pop N words, push #t iff all bit-identical
	OpIsZero    Opcode = 0xEEEE000 // Pop integer, push #t iff zero
	OpIsInteger Opcode = 0x1234000 // Pop word, push #t iff integer-tagged
	OpIsBoolean Opcode = 0xB001000 // Pop word, push #t iff #t or #f
	OpIsChar    Opcode = 0xCACA000 // Pop word, push #t iff character-tagged
	OpIsNull    Opcode = 0x4321000 // Pop word, push #t iff the empty list
	OpNot       Opcode = 0x7777000 // Pop word, push #t iff it was #f

	// ========================================================================
	// Conversions
	// ========================================================================

	OpIntToChar Opcode = 0x170C000 // Pop integer, push character with that code
	OpCharToInt Opcode = 0xC701000 // Pop character, push its code as integer

	// ========================================================================
	// Pairs
	// ========================================================================

	OpCons Opcode = 0xC0C0000 // Pop cdr, pop car, push freshly allocated pair
	OpCar  Opcode = 0xCA00000 // Pop pair, push its car
	OpCdr  Opcode = 0xCD00000 // Pop pair, push its cdr

	// ========================================================================
	// Strings
	// ========================================================================

	OpString       Opcode = 0x571F000 // Pop N characters (last on top), push new string
	OpStringRef    Opcode = 0x571E000 // Pop index, pop string, push character at index
	OpStringSet    Opcode = 0x5715000 // Pop char, pop index, pop string, store, push unspecified
	OpStringAppend Opcode = 0x571A000 // Pop N strings (last on top), push concatenation

	// ========================================================================
	// Reserved tags from older streams. The validator accepts them so old
	// programs still load; executing one is an engine fault.
	// ========================================================================

	OpReserved1001 Opcode = 0x1001000
	OpReservedC001 Opcode = 0xC001000
)

// OperandKind says how the engine and assembler interpret the operand word.
type OperandKind int

const (
	OperandNone      OperandKind = iota // Operand word ignored (assembler writes zero)
	OperandImmediate                    // Pre-tagged value word
	OperandTarget                       // Absolute instruction index
	OperandCount                        // Number of stack words consumed
	OperandDepth                        // Distance below the top of the stack
)

func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandImmediate:
		return "immediate"
	case OperandTarget:
		return "target"
	case OperandCount:
		return "count"
	case OperandDepth:
		return "depth"
	}
	return fmt.Sprintf("OperandKind(%d)", int(k))
}

// OpcodeInfo provides metadata about each opcode for the assembler,
// disassembler, validator, and engine.
type OpcodeInfo struct {
	Name      string      // Assembler mnemonic ("" for reserved tags)
	Operand   OperandKind // How the operand word is interpreted
	StackPop  int         // Words popped (-1 = operand-dependent)
	StackPush int         // Words pushed
	Reserved  bool        // Vocabulary member with no executable semantics
}

// opcodeInfoTable maps every vocabulary member to its metadata. This table is
// the single source of truth: the validator accepts exactly its keys.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpLoad:      {Name: "LOAD", Operand: OperandImmediate, StackPop: 0, StackPush: 1},
	OpJump:      {Name: "JUMP", Operand: OperandTarget, StackPop: 0, StackPush: 0},
	OpJumpFalse: {Name: "CJUMP", Operand: OperandTarget, StackPop: 1, StackPush: 0},
	OpHalt:      {Name: "HALT", Operand: OperandNone, StackPop: 0, StackPush: 0},

	OpGet:    {Name: "GET", Operand: OperandDepth, StackPop: 0, StackPush: 1},
	OpForget: {Name: "FORGET", Operand: OperandNone, StackPop: 1, StackPush: 0},
	OpFall:   {Name: "FALL", Operand: OperandCount, StackPop: -1, StackPush: 1},

	OpAdd1: {Name: "ADD1", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpSub1: {Name: "SUB1", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpAdd:  {Name: "ADD", Operand: OperandCount, StackPop: -1, StackPush: 1},
	OpSub:  {Name: "SUB", Operand: OperandCount, StackPop: -1, StackPush: 1},
	OpMul:  {Name: "MUL", Operand: OperandCount, StackPop: -1, StackPush: 1},

	OpLess:      {Name: "LT", Operand: OperandCount, StackPop: -1, StackPush: 1},
	OpNumEq:     {Name: "EQ", Operand: OperandCount, StackPop: -1, StackPush: 1},
	OpIdentical: {Name: "EQP", Operand: OperandCount, StackPop: -1, StackPush: 1},
	OpIsZero:    {Name: "ZEROP", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpIsInteger: {Name: "INTEGERP", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpIsBoolean: {Name: "BOOLEANP", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpIsChar:    {Name: "CHARP", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpIsNull:    {Name: "NULLP", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpNot:       {Name: "NOT", Operand: OperandNone, StackPop: 1, StackPush: 1},

	OpIntToChar: {Name: "INTTOCHAR", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpCharToInt: {Name: "CHARTOINT", Operand: OperandNone, StackPop: 1, StackPush: 1},

	OpCons: {Name: "CONS", Operand: OperandNone, StackPop: 2, StackPush: 1},
	OpCar:  {Name: "CAR", Operand: OperandNone, StackPop: 1, StackPush: 1},
	OpCdr:  {Name: "CDR", Operand: OperandNone, StackPop: 1, StackPush: 1},

	OpString:       {Name: "STRING", Operand: OperandCount, StackPop: -1, StackPush: 1},
	OpStringRef:    {Name: "STRINGREF", Operand: OperandNone, StackPop: 2, StackPush: 1},
	OpStringSet:    {Name: "STRINGSET", Operand: OperandNone, StackPop: 3, StackPush: 1},
	OpStringAppend: {Name: "STRINGAPPEND", Operand: OperandCount, StackPop: -1, StackPush: 1},

	OpReserved1001: {Reserved: true},
	OpReservedC001: {Reserved: true},
}

// mnemonicIndex maps assembler mnemonics back to opcodes. Reserved tags have
// no mnemonic and cannot be written in assembly source.
var mnemonicIndex = func() map[string]Opcode {
	index := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		if info.Name != "" {
			index[info.Name] = op
		}
	}
	return index
}()

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the tag is not in the
// vocabulary.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(%#x)", uint64(op))}
}

// IsValid reports whether the tag is a member of the opcode vocabulary.
// Reserved tags are valid; the engine, not the validator, rejects them.
func (op Opcode) IsValid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the assembler mnemonic, or a hex rendering for tags the
// assembler cannot express.
func (op Opcode) String() string {
	info, ok := opcodeInfoTable[op]
	if !ok {
		return fmt.Sprintf("UNKNOWN(%#x)", uint64(op))
	}
	if info.Reserved {
		return fmt.Sprintf("RESERVED(%#x)", uint64(op))
	}
	return info.Name
}

// ByMnemonic resolves an assembler mnemonic to its opcode.
func ByMnemonic(name string) (Opcode, bool) {
	op, ok := mnemonicIndex[name]
	return op, ok
}

// AllOpcodes returns a slice of all vocabulary members.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// Mnemonics returns every assembler-writable mnemonic in sorted order, for
// completion and documentation surfaces.
func Mnemonics() []string {
	names := make([]string, 0, len(mnemonicIndex))
	for name := range mnemonicIndex {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpcodeCount returns the number of vocabulary members.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
