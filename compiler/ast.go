package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Datums: parsed s-expressions
// ---------------------------------------------------------------------------

// Datum is the interface implemented by all parsed s-expressions.
type Datum interface {
	Pos() Position
	datum() // marker method
}

// IntDatum is an integer literal.
type IntDatum struct {
	PosVal Position
	Value  int64
}

func (d *IntDatum) Pos() Position  { return d.PosVal }
func (d *IntDatum) datum()         {}
func (d *IntDatum) String() string { return fmt.Sprintf("%d", d.Value) }

// BoolDatum is a #t or #f literal.
type BoolDatum struct {
	PosVal Position
	Value  bool
}

func (d *BoolDatum) Pos() Position { return d.PosVal }
func (d *BoolDatum) datum()        {}
func (d *BoolDatum) String() string {
	if d.Value {
		return "#t"
	}
	return "#f"
}

// CharDatum is a character literal; Code is the byte code.
type CharDatum struct {
	PosVal Position
	Code   byte
}

func (d *CharDatum) Pos() Position  { return d.PosVal }
func (d *CharDatum) datum()         {}
func (d *CharDatum) String() string { return fmt.Sprintf(`#\x%02x`, d.Code) }

// StringDatum is a string literal.
type StringDatum struct {
	PosVal Position
	Value  string
}

func (d *StringDatum) Pos() Position  { return d.PosVal }
func (d *StringDatum) datum()         {}
func (d *StringDatum) String() string { return fmt.Sprintf("%q", d.Value) }

// SymbolDatum is a symbol reference.
type SymbolDatum struct {
	PosVal Position
	Name   string
}

func (d *SymbolDatum) Pos() Position  { return d.PosVal }
func (d *SymbolDatum) datum()         {}
func (d *SymbolDatum) String() string { return d.Name }

// NullDatum is the '() empty-list literal.
type NullDatum struct {
	PosVal Position
}

func (d *NullDatum) Pos() Position  { return d.PosVal }
func (d *NullDatum) datum()         {}
func (d *NullDatum) String() string { return "'()" }

// FormDatum is a parenthesized form: an operator followed by arguments.
type FormDatum struct {
	PosVal Position
	Items  []Datum
}

func (d *FormDatum) Pos() Position { return d.PosVal }
func (d *FormDatum) datum()        {}
func (d *FormDatum) String() string {
	parts := make([]string, len(d.Items))
	for i, item := range d.Items {
		parts[i] = fmt.Sprintf("%v", item)
	}
	return "(" + strings.Join(parts, " ") + ")"
}
