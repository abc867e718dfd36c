package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed classifies every validator rejection. The concrete errors
// below unwrap to it, so callers can map any of them to one exit path with
// errors.Is.
var ErrMalformed = errors.New("malformed bytecode")

// InvalidSizeError reports a buffer whose length is not a positive multiple
// of the instruction size. A zero-length stream is rejected too: a program
// with nothing to execute is not a program.
type InvalidSizeError struct {
	Size int
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("invalid bytecode size %d", e.Size)
}

func (e *InvalidSizeError) Unwrap() error {
	return ErrMalformed
}

// InvalidOpcodeError reports the first instruction whose tag word is outside
// the opcode vocabulary. The tag is rendered in hex; these tags are
// hex-spelled mnemonics, so hex is the readable form.
type InvalidOpcodeError struct {
	Tag   uint64
	Index int
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode %#x at instruction %d", e.Tag, e.Index)
}

func (e *InvalidOpcodeError) Unwrap() error {
	return ErrMalformed
}

// Validate checks a raw buffer against the two structural rules: the length
// must be a positive multiple of InstructionSize, and every opcode word must
// be a vocabulary member. Operand words are never inspected; operand
// legality is the engine's concern.
func Validate(code []byte) error {
	if len(code) == 0 || len(code)%InstructionSize != 0 {
		return &InvalidSizeError{Size: len(code)}
	}
	for i := 0; i < len(code); i += InstructionSize {
		tag := binary.LittleEndian.Uint64(code[i:])
		if !Opcode(tag).IsValid() {
			return &InvalidOpcodeError{Tag: tag, Index: i / InstructionSize}
		}
	}
	return nil
}
