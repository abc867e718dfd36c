package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/petrel-lang/petrel/vm"
)

// ParseImmediate parses a LOAD operand token into its tagged word. The
// forms are signed decimal integers, #t/#f (either case), NULL,
// UNSPECIFIED, character literals #\c and #\xNN, and a raw 0x word
// written into the operand verbatim.
func ParseImmediate(tok string) (uint64, error) {
	switch tok {
	case "#t", "#T":
		return uint64(vm.True), nil
	case "#f", "#F":
		return uint64(vm.False), nil
	case "NULL":
		return uint64(vm.Null), nil
	case "UNSPECIFIED":
		return uint64(vm.Unspecified), nil
	}

	if strings.HasPrefix(tok, `#\`) {
		return parseCharLiteral(tok)
	}

	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		word, err := strconv.ParseUint(tok[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("bad raw word %q", tok)
		}
		return word, nil
	}

	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad immediate %q", tok)
	}
	v, ok := vm.TryFromInt(n)
	if !ok {
		return 0, fmt.Errorf("integer %d out of range", n)
	}
	return uint64(v), nil
}

// parseCharLiteral parses #\c (one byte, which makes #\x the letter x) and
// #\xNN (exactly two hex digits).
func parseCharLiteral(tok string) (uint64, error) {
	body := tok[2:]
	switch {
	case len(body) == 1:
		return uint64(vm.FromChar(body[0])), nil
	case len(body) == 3 && (body[0] == 'x' || body[0] == 'X'):
		code, err := strconv.ParseUint(body[1:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("bad character literal %q", tok)
		}
		return uint64(vm.FromChar(byte(code))), nil
	}
	return 0, fmt.Errorf("bad character literal %q", tok)
}

// FormatImmediate renders a tagged word in the form ParseImmediate reads
// back. Words with no source form come out as raw hex.
func FormatImmediate(word uint64) string {
	v := vm.Value(word)
	switch v.Kind() {
	case vm.KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case vm.KindBool:
		if v == vm.True {
			return "#t"
		}
		return "#f"
	case vm.KindChar:
		c := v.CharByte()
		// ';' must render in hex or the re-read would eat it as a comment.
		if c > 0x20 && c < 0x7F && c != ';' {
			return `#\` + string([]byte{c})
		}
		return fmt.Sprintf(`#\x%02x`, c)
	case vm.KindNull:
		return "NULL"
	case vm.KindUnspecified:
		return "UNSPECIFIED"
	}
	return fmt.Sprintf("%#x", word)
}

// parseRawNumber parses an unsigned operand, decimal or 0x-prefixed hex.
func parseRawNumber(tok string) (uint64, error) {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		return strconv.ParseUint(tok[2:], 16, 64)
	}
	return strconv.ParseUint(tok, 10, 64)
}
