package bytecode

import (
	"strings"
	"testing"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Reserved {
			continue
		}
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("Opcode %#x has no metadata", uint64(op))
		}
	}
}

func TestOpcodeCount(t *testing.T) {
	if count := OpcodeCount(); count != 32 {
		t.Errorf("OpcodeCount() = %d, want 32", count)
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpLoad, "LOAD"},
		{OpJump, "JUMP"},
		{OpJumpFalse, "CJUMP"},
		{OpHalt, "HALT"},
		{OpGet, "GET"},
		{OpForget, "FORGET"},
		{OpFall, "FALL"},
		{OpAdd1, "ADD1"},
		{OpSub1, "SUB1"},
		{OpAdd, "ADD"},
		{OpSub, "SUB"},
		{OpMul, "MUL"},
		{OpLess, "LT"},
		{OpNumEq, "EQ"},
		{OpIdentical, "EQP"},
		{OpIsZero, "ZEROP"},
		{OpIsInteger, "INTEGERP"},
		{OpIsBoolean, "BOOLEANP"},
		{OpIsChar, "CHARP"},
		{OpIsNull, "NULLP"},
		{OpNot, "NOT"},
		{OpIntToChar, "INTTOCHAR"},
		{OpCharToInt, "CHARTOINT"},
		{OpCons, "CONS"},
		{OpCar, "CAR"},
		{OpCdr, "CDR"},
		{OpString, "STRING"},
		{OpStringRef, "STRINGREF"},
		{OpStringSet, "STRINGSET"},
		{OpStringAppend, "STRINGAPPEND"},
	}

	for _, tt := range tests {
		got := tt.op.String()
		if got != tt.want {
			t.Errorf("Opcode(%#x).String() = %q, want %q", uint64(tt.op), got, tt.want)
		}
	}
}

func TestReservedOpcodeString(t *testing.T) {
	if got := OpReserved1001.String(); got != "RESERVED(0x1001000)" {
		t.Errorf("OpReserved1001.String() = %q, want RESERVED(0x1001000)", got)
	}
	if got := OpReservedC001.String(); got != "RESERVED(0xc001000)" {
		t.Errorf("OpReservedC001.String() = %q, want RESERVED(0xc001000)", got)
	}
}

func TestUnknownOpcodeString(t *testing.T) {
	got := Opcode(0xEE).String()
	if !strings.HasPrefix(got, "UNKNOWN") {
		t.Errorf("Unknown opcode should return UNKNOWN, got %q", got)
	}
}

func TestOpcodeIsValid(t *testing.T) {
	for _, op := range AllOpcodes() {
		if !op.IsValid() {
			t.Errorf("%v.IsValid() = false, want true", op)
		}
	}

	invalid := []Opcode{0, 1, 0xEE, 0x10AD001, 0xD0D0001, 0xFFFFFFFFFFFFFFFF}
	for _, op := range invalid {
		if op.IsValid() {
			t.Errorf("Opcode(%#x).IsValid() = true, want false", uint64(op))
		}
	}
}

func TestReservedOpcodesAreValid(t *testing.T) {
	// Reserved tags pass validation; only execution rejects them.
	for _, op := range []Opcode{OpReserved1001, OpReservedC001} {
		if !op.IsValid() {
			t.Errorf("%v.IsValid() = false, want true", op)
		}
		if !GetOpcodeInfo(op).Reserved {
			t.Errorf("%v should carry the Reserved flag", op)
		}
	}
}

func TestByMnemonic(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" {
			continue
		}
		got, ok := ByMnemonic(info.Name)
		if !ok {
			t.Errorf("ByMnemonic(%q) not found", info.Name)
			continue
		}
		if got != op {
			t.Errorf("ByMnemonic(%q) = %#x, want %#x", info.Name, uint64(got), uint64(op))
		}
	}

	if _, ok := ByMnemonic("NOPE"); ok {
		t.Error("ByMnemonic(\"NOPE\") should not resolve")
	}
	// Mnemonics are upper-case only.
	if _, ok := ByMnemonic("load"); ok {
		t.Error("ByMnemonic(\"load\") should not resolve")
	}
}

func TestMnemonicsSortedAndComplete(t *testing.T) {
	names := Mnemonics()
	if len(names) != 30 {
		t.Errorf("len(Mnemonics()) = %d, want 30", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Mnemonics() not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestOperandKinds(t *testing.T) {
	tests := []struct {
		op   Opcode
		want OperandKind
	}{
		{OpLoad, OperandImmediate},
		{OpJump, OperandTarget},
		{OpJumpFalse, OperandTarget},
		{OpHalt, OperandNone},
		{OpGet, OperandDepth},
		{OpFall, OperandCount},
		{OpAdd, OperandCount},
		{OpString, OperandCount},
		{OpStringRef, OperandNone},
		{OpCons, OperandNone},
	}

	for _, tt := range tests {
		if got := GetOpcodeInfo(tt.op).Operand; got != tt.want {
			t.Errorf("%v operand kind = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestStackEffects(t *testing.T) {
	tests := []struct {
		op   Opcode
		pop  int
		push int
	}{
		{OpLoad, 0, 1},
		{OpHalt, 0, 0},
		{OpForget, 1, 0},
		{OpAdd1, 1, 1},
		{OpAdd, -1, 1},
		{OpCons, 2, 1},
		{OpStringRef, 2, 1},
		{OpStringSet, 3, 1},
	}

	for _, tt := range tests {
		info := GetOpcodeInfo(tt.op)
		if info.StackPop != tt.pop {
			t.Errorf("%v.StackPop = %d, want %d", tt.op, info.StackPop, tt.pop)
		}
		if info.StackPush != tt.push {
			t.Errorf("%v.StackPush = %d, want %d", tt.op, info.StackPush, tt.push)
		}
	}
}

func TestOperandKindString(t *testing.T) {
	tests := []struct {
		kind OperandKind
		want string
	}{
		{OperandNone, "none"},
		{OperandImmediate, "immediate"},
		{OperandTarget, "target"},
		{OperandCount, "count"},
		{OperandDepth, "depth"},
		{OperandKind(99), "OperandKind(99)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("OperandKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
