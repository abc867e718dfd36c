package asm

import (
	"strings"
	"testing"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/vm"
)

func mustAssemble(t *testing.T, src string) *Result {
	t.Helper()
	res, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return res
}

func instructions(t *testing.T, res *Result) []bytecode.Instruction {
	t.Helper()
	prog, err := bytecode.NewProgram(res.Code)
	if err != nil {
		t.Fatalf("assembled code does not validate: %v", err)
	}
	return prog.Instructions()
}

// ---------------------------------------------------------------------------
// Basic assembly
// ---------------------------------------------------------------------------

func TestAssembleSimpleProgram(t *testing.T) {
	res := mustAssemble(t, "LOAD 1\nLOAD 2\nADD 2\nHALT\n")

	got := instructions(t, res)
	want := []bytecode.Instruction{
		{Op: bytecode.OpLoad, Operand: uint64(vm.FromInt(1))},
		{Op: bytecode.OpLoad, Operand: uint64(vm.FromInt(2))},
		{Op: bytecode.OpAdd, Operand: 2},
		{Op: bytecode.OpHalt, Operand: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d instructions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAssembleAppendsHalt(t *testing.T) {
	res := mustAssemble(t, "LOAD 7\n")

	got := instructions(t, res)
	if len(got) != 2 {
		t.Fatalf("got %d instructions, want 2", len(got))
	}
	if got[1].Op != bytecode.OpHalt {
		t.Errorf("final instruction is %v, want HALT", got[1].Op)
	}
	if !res.Entries[1].Synthetic {
		t.Error("appended HALT should be marked synthetic")
	}
	if res.Entries[1].Line != 0 {
		t.Errorf("synthetic HALT line = %d, want 0", res.Entries[1].Line)
	}
}

func TestAssembleKeepsExplicitHalt(t *testing.T) {
	res := mustAssemble(t, "LOAD 7\nHALT\n")
	if len(res.Entries) != 2 {
		t.Fatalf("got %d instructions, want 2", len(res.Entries))
	}
	if res.Entries[1].Synthetic {
		t.Error("explicit HALT should not be marked synthetic")
	}
}

func TestAssembleEmptySource(t *testing.T) {
	// Nothing but a HALT: the smallest program there is.
	res := mustAssemble(t, "")
	got := instructions(t, res)
	if len(got) != 1 || got[0].Op != bytecode.OpHalt {
		t.Fatalf("empty source should assemble to a lone HALT, got %v", got)
	}
}

func TestAssembleCommentsAndBlankLines(t *testing.T) {
	src := strings.Join([]string{
		"; stack warm-up",
		"",
		"LOAD 1      ; the first",
		"   ",
		"LOAD 2;second",
		"ADD 2",
		"HALT",
	}, "\n")

	res := mustAssemble(t, src)
	if len(res.Entries) != 4 {
		t.Fatalf("got %d instructions, want 4", len(res.Entries))
	}
	if res.Entries[0].Line != 3 {
		t.Errorf("first instruction line = %d, want 3", res.Entries[0].Line)
	}
	if res.Entries[0].Text != "LOAD 1" {
		t.Errorf("first instruction text = %q, want %q", res.Entries[0].Text, "LOAD 1")
	}
	if res.Entries[1].Line != 5 {
		t.Errorf("second instruction line = %d, want 5", res.Entries[1].Line)
	}
}

func TestAssembleEntryIndexes(t *testing.T) {
	res := mustAssemble(t, "LOAD 1\nFORGET\n")
	for i, e := range res.Entries {
		if e.Index != i {
			t.Errorf("entry %d has index %d", i, e.Index)
		}
	}
}

// ---------------------------------------------------------------------------
// Immediate forms
// ---------------------------------------------------------------------------

func TestAssembleImmediates(t *testing.T) {
	tests := []struct {
		src  string
		want uint64
	}{
		{"LOAD 0", uint64(vm.FromInt(0))},
		{"LOAD 42", uint64(vm.FromInt(42))},
		{"LOAD -1", uint64(vm.FromInt(-1))},
		{"LOAD -2305843009213693952", uint64(vm.FromInt(vm.MinInt))},
		{"LOAD 2305843009213693951", uint64(vm.FromInt(vm.MaxInt))},
		{"LOAD #t", uint64(vm.True)},
		{"LOAD #T", uint64(vm.True)},
		{"LOAD #f", uint64(vm.False)},
		{"LOAD #F", uint64(vm.False)},
		{"LOAD NULL", uint64(vm.Null)},
		{"LOAD UNSPECIFIED", uint64(vm.Unspecified)},
		{`LOAD #\A`, uint64(vm.FromChar('A'))},
		{`LOAD #\x41`, uint64(vm.FromChar('A'))},
		{`LOAD #\x`, uint64(vm.FromChar('x'))},
		{`LOAD #\x0a`, uint64(vm.FromChar('\n'))},
		{`LOAD #\xFF`, uint64(vm.FromChar(0xFF))},
		{"LOAD 0x9f", uint64(vm.True)},
		{"LOAD 0xFFFFFFFFFFFFFFFF", uint64(vm.Unspecified)},
	}

	for _, tt := range tests {
		res := mustAssemble(t, tt.src)
		if got := res.Entries[0].Operand; got != tt.want {
			t.Errorf("%q operand = %#x, want %#x", tt.src, got, tt.want)
		}
	}
}

func TestAssembleNumericOperands(t *testing.T) {
	// Targets, counts, and depths are written verbatim, not tagged.
	res := mustAssemble(t, "JUMP 3\nGET 1\nFALL 2\nADD 0\nHALT\n")
	wantOperands := []uint64{3, 1, 2, 0, 0}
	for i, want := range wantOperands {
		if got := res.Entries[i].Operand; got != want {
			t.Errorf("instruction %d operand = %d, want %d", i, got, want)
		}
	}
}

func TestAssembleWordDirective(t *testing.T) {
	res := mustAssemble(t, ".word 0x1001000 0x0\nHALT\n")
	got := instructions(t, res)
	if got[0].Op != bytecode.OpReserved1001 {
		t.Errorf("directive tag = %#x, want reserved 0x1001000", uint64(got[0].Op))
	}
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string // substring of the diagnostic
	}{
		{"FROB", "unknown mnemonic"},
		{"load 1", "unknown mnemonic"},
		{"CAR 1", "takes no operand"},
		{"LOAD", "requires exactly one"},
		{"JUMP", "requires exactly one"},
		{"JUMP 1 2", "requires exactly one"},
		{"LOAD 2305843009213693952", "out of range"},
		{"LOAD -2305843009213693953", "out of range"},
		{"LOAD zebra", "bad immediate"},
		{`LOAD #\abc`, "bad character literal"},
		{`LOAD #\xZZ`, "bad character literal"},
		{"LOAD 0xGG", "bad raw word"},
		{"JUMP -1", "bad target operand"},
		{"GET eleven", "bad depth operand"},
		{".word 0x1001000", ".word requires"},
	}

	for _, tt := range tests {
		_, err := Assemble(tt.src)
		if err == nil {
			t.Errorf("Assemble(%q) should fail", tt.src)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Assemble(%q) error = %q, want it to mention %q", tt.src, err, tt.want)
		}
	}
}

func TestCheckCollectsAllDiagnostics(t *testing.T) {
	src := "FROB\nLOAD 1\nCAR 1\n\nLOAD\n"
	errs := Check(src)
	if len(errs) != 3 {
		t.Fatalf("Check returned %d diagnostics, want 3", len(errs))
	}

	wantLines := []int{1, 3, 5}
	for i, want := range wantLines {
		if errs[i].Line != want {
			t.Errorf("diagnostic %d on line %d, want %d", i, errs[i].Line, want)
		}
	}
	if got := errs[0].Error(); !strings.HasPrefix(got, "line 1: ") {
		t.Errorf("Error() = %q, want line prefix", got)
	}
}

func TestCheckCleanSource(t *testing.T) {
	if errs := Check("LOAD 1\nHALT\n"); len(errs) != 0 {
		t.Errorf("Check of clean source returned %v", errs)
	}
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestAssembleAndRun(t *testing.T) {
	src := `
; add up three numbers, branch on the result
LOAD 10
LOAD 20
LOAD 12
ADD 3
ZEROP
CJUMP 8
LOAD #t
HALT
LOAD #f
HALT
`
	res := mustAssemble(t, src)
	prog, err := bytecode.NewProgram(res.Code)
	if err != nil {
		t.Fatalf("NewProgram failed: %v", err)
	}

	m := vm.NewMachine(prog, vm.Options{StackBytes: 1024, HeapBytes: 1024})
	got, err := m.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// 42 is not zero, so ZEROP pushes #f and CJUMP takes the branch.
	if got != vm.False {
		t.Errorf("result = %#x, want #f", uint64(got))
	}
}
