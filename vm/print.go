package vm

import (
	"fmt"
	"io"
	"strconv"
)

// MalformedValueError reports a word that decodes to no shape. The printer
// treats it as fatal; the word itself is carried for the diagnostic.
type MalformedValueError struct {
	Word Value
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("value is malformed: %#x", uint64(e.Word))
}

// Printer renders values in canonical surface syntax:
//
//	integers    signed decimal
//	booleans    #t / #f
//	characters  #\ followed by the raw byte
//	empty list  '()
//	pairs       (car . cdr), always dotted, never flattened into list syntax
//	strings     "raw bytes", no escaping
//	vectors     #(elem elem ...), space separated
//	unspecified nothing at all
//
// Output is written incrementally, so when a malformed word turns up inside
// a structure, everything printed before it has already reached the stream.
// The diagnostic then goes to the same stream, completing what the reader
// sees, and the error reports the offending word.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes the canonical rendering of v. On a malformed word it writes
// the diagnostic line and returns a MalformedValueError; other errors come
// from the underlying writer.
func (p *Printer) Print(v Value) error {
	if err := p.print(v); err != nil {
		if malformed, ok := err.(*MalformedValueError); ok {
			fmt.Fprintf(p.w, "value is malformed: %#x\n", uint64(malformed.Word))
		}
		return err
	}
	return nil
}

// Println is Print followed by a newline. The newline is written even when
// the value rendered nothing, so unspecified results still end the line;
// it is not written after a malformed diagnostic.
func (p *Printer) Println(v Value) error {
	if err := p.Print(v); err != nil {
		return err
	}
	return p.ws("\n")
}

func (p *Printer) print(v Value) error {
	switch v.Kind() {
	case KindInt:
		return p.ws(strconv.FormatInt(v.Int(), 10))
	case KindBool:
		if v == True {
			return p.ws("#t")
		}
		return p.ws("#f")
	case KindChar:
		if err := p.ws(`#\`); err != nil {
			return err
		}
		return p.ws(string([]byte{v.CharByte()}))
	case KindNull:
		return p.ws("'()")
	case KindPair:
		if err := p.ws("("); err != nil {
			return err
		}
		if err := p.print(v.Car()); err != nil {
			return err
		}
		if err := p.ws(" . "); err != nil {
			return err
		}
		if err := p.print(v.Cdr()); err != nil {
			return err
		}
		return p.ws(")")
	case KindString:
		if err := p.ws(`"`); err != nil {
			return err
		}
		if _, err := p.w.Write(v.StringBytes()); err != nil {
			return err
		}
		return p.ws(`"`)
	case KindVector:
		if err := p.ws("#("); err != nil {
			return err
		}
		n := v.VectorLen()
		for i := 0; i < n; i++ {
			if i > 0 {
				if err := p.ws(" "); err != nil {
					return err
				}
			}
			if err := p.print(v.VectorAt(i)); err != nil {
				return err
			}
		}
		return p.ws(")")
	case KindUnspecified:
		return nil
	case KindMalformed:
		return &MalformedValueError{Word: v}
	}
	return &MalformedValueError{Word: v}
}

func (p *Printer) ws(s string) error {
	_, err := io.WriteString(p.w, s)
	return err
}
