// Package asm translates between assembler source and wire bytecode.
//
// The source format is one instruction per line: an upper-case mnemonic
// followed by at most one operand. `;` starts a comment, blank lines are
// skipped, and jump targets are absolute instruction indexes (there are no
// labels). A program that does not end in HALT gets one appended.
package asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/petrel-lang/petrel/bytecode"
)

// SyntaxError is one assembler diagnostic, tied to its 1-based source line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Entry records where one encoded instruction came from. The listing
// sidecar is built from these.
type Entry struct {
	Index     int    // instruction index in the encoded program
	Line      int    // 1-based source line, 0 for synthetic instructions
	Text      string // source text with comments stripped
	Op        bytecode.Opcode
	Operand   uint64
	Synthetic bool // appended by the assembler, not written in the source
}

// Result is a successful assembly: the wire bytes plus one Entry per
// instruction.
type Result struct {
	Code    []byte
	Entries []Entry
}

// Assemble translates source text to wire bytecode. All diagnostics are
// collected before failing, joined into one error; Check exposes them
// individually.
func Assemble(src string) (*Result, error) {
	entries, errs := scan(src)
	if len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, errors.Join(joined...)
	}

	code := make([]byte, 0, len(entries)*bytecode.InstructionSize)
	for _, e := range entries {
		code = bytecode.AppendInstruction(code, e.Op, e.Operand)
	}
	commonlog.GetLogger("petrel.asm").Debugf("assembled %d instructions (%d bytes)", len(entries), len(code))
	return &Result{Code: code, Entries: entries}, nil
}

// Check parses the source and returns every diagnostic, without encoding.
func Check(src string) []*SyntaxError {
	_, errs := scan(src)
	return errs
}

func scan(src string) ([]Entry, []*SyntaxError) {
	var entries []Entry
	var errs []*SyntaxError

	for i, line := range strings.Split(src, "\n") {
		lineno := i + 1
		text := line
		if idx := strings.IndexByte(text, ';'); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		op, operand, err := parseLine(text)
		if err != nil {
			errs = append(errs, &SyntaxError{Line: lineno, Msg: err.Error()})
			continue
		}
		entries = append(entries, Entry{
			Index:   len(entries),
			Line:    lineno,
			Text:    text,
			Op:      op,
			Operand: operand,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	// Every program ends in HALT; write it for sources that left it off.
	if n := len(entries); n == 0 || entries[n-1].Op != bytecode.OpHalt {
		entries = append(entries, Entry{
			Index:     len(entries),
			Text:      "HALT",
			Op:        bytecode.OpHalt,
			Synthetic: true,
		})
	}
	return entries, nil
}

// parseLine parses one comment-stripped, non-blank source line.
func parseLine(text string) (bytecode.Opcode, uint64, error) {
	fields := strings.Fields(text)

	if fields[0] == ".word" {
		return parseWordDirective(fields)
	}

	op, ok := bytecode.ByMnemonic(fields[0])
	if !ok {
		return 0, 0, fmt.Errorf("unknown mnemonic %q", fields[0])
	}
	info := bytecode.GetOpcodeInfo(op)

	if info.Operand == bytecode.OperandNone {
		if len(fields) != 1 {
			return 0, 0, fmt.Errorf("%s takes no operand", info.Name)
		}
		return op, 0, nil
	}

	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%s requires exactly one %s operand", info.Name, info.Operand)
	}

	if info.Operand == bytecode.OperandImmediate {
		word, err := ParseImmediate(fields[1])
		if err != nil {
			return 0, 0, err
		}
		return op, word, nil
	}

	n, err := parseRawNumber(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad %s operand %q", info.Operand, fields[1])
	}
	return op, n, nil
}

// parseWordDirective handles `.word <tag> <operand>`, the escape hatch for
// instructions with no mnemonic (reserved tags). The words are emitted
// verbatim; validation happens when the program is loaded.
func parseWordDirective(fields []string) (bytecode.Opcode, uint64, error) {
	if len(fields) != 3 {
		return 0, 0, errors.New(".word requires a tag word and an operand word")
	}
	tag, err := parseRawNumber(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad .word tag %q", fields[1])
	}
	operand, err := parseRawNumber(fields[2])
	if err != nil {
		return 0, 0, fmt.Errorf("bad .word operand %q", fields[2])
	}
	return bytecode.Opcode(tag), operand, nil
}
