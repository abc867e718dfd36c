package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/petrel-lang/petrel/asm"
	"github.com/petrel-lang/petrel/vm"
)

// ---------------------------------------------------------------------------
// Lowering: datums to assembler source
// ---------------------------------------------------------------------------

// instr is one pending assembly line.
type instr struct {
	op      string
	operand string // "" when the opcode takes none
}

// builtin describes a symbol that lowers to a single opcode after its
// arguments.
type builtin struct {
	mnemonic string
	arity    int  // exact argument count; -1 means variadic
	minArgs  int  // minimum argument count for variadic builtins
	counted  bool // operand carries the argument count
}

var builtins = map[string]builtin{
	"add1":          {mnemonic: "ADD1", arity: 1},
	"sub1":          {mnemonic: "SUB1", arity: 1},
	"+":             {mnemonic: "ADD", arity: -1, counted: true},
	"-":             {mnemonic: "SUB", arity: -1, minArgs: 1, counted: true},
	"*":             {mnemonic: "MUL", arity: -1, counted: true},
	"<":             {mnemonic: "LT", arity: -1, counted: true},
	"=":             {mnemonic: "EQ", arity: -1, counted: true},
	"eq?":           {mnemonic: "EQP", arity: -1, counted: true},
	"zero?":         {mnemonic: "ZEROP", arity: 1},
	"integer?":      {mnemonic: "INTEGERP", arity: 1},
	"boolean?":      {mnemonic: "BOOLEANP", arity: 1},
	"char?":         {mnemonic: "CHARP", arity: 1},
	"null?":         {mnemonic: "NULLP", arity: 1},
	"not":           {mnemonic: "NOT", arity: 1},
	"char->integer": {mnemonic: "CHARTOINT", arity: 1},
	"integer->char": {mnemonic: "INTTOCHAR", arity: 1},
	"cons":          {mnemonic: "CONS", arity: 2},
	"car":           {mnemonic: "CAR", arity: 1},
	"cdr":           {mnemonic: "CDR", arity: 1},
	"string":        {mnemonic: "STRING", arity: -1, counted: true},
	"string-ref":    {mnemonic: "STRINGREF", arity: 2},
	"string-set!":   {mnemonic: "STRINGSET", arity: 3},
	"string-append": {mnemonic: "STRINGAPPEND", arity: -1, counted: true},
}

// binding is one let-bound name and the stack slot its value lives in,
// counted from the bottom of the virtual operand stack.
type binding struct {
	name string
	slot int
}

// Lowerer turns parsed datums into assembler source. It tracks the virtual
// stack depth so let-bound variables lower to GET with the right distance,
// and patches forward jump targets once both arms of an `if` are placed.
type Lowerer struct {
	instrs []instr
	depth  int // values on the virtual operand stack
	scope  []binding
	errors []string
}

// NewLowerer creates an empty lowerer.
func NewLowerer() *Lowerer {
	return &Lowerer{}
}

// Errors returns accumulated lowering errors.
func (c *Lowerer) Errors() []string {
	return c.errors
}

// errorfAt records a lowering error at a source position.
func (c *Lowerer) errorfAt(pos Position, format string, args ...interface{}) {
	msg := fmt.Sprintf("line %d:%d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...))
	c.errors = append(c.errors, msg)
}

// Lower lowers a sequence of top-level datums. Each leaves its value on
// the stack; the last one is what HALT hands to the printer.
func (c *Lowerer) Lower(datums []Datum) {
	for _, d := range datums {
		c.lowerExpr(d)
	}
}

// Asm renders the lowered instructions as assembler source. The final
// HALT is the assembler's job.
func (c *Lowerer) Asm() string {
	var sb strings.Builder
	for _, in := range c.instrs {
		sb.WriteString(in.op)
		if in.operand != "" {
			sb.WriteByte(' ')
			sb.WriteString(in.operand)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

func (c *Lowerer) emit(op string) {
	c.instrs = append(c.instrs, instr{op: op})
}

func (c *Lowerer) emitCount(op string, n int) {
	c.instrs = append(c.instrs, instr{op: op, operand: strconv.Itoa(n)})
}

// emitLoad pushes one immediate; the operand text is what the assembler
// parses back.
func (c *Lowerer) emitLoad(word uint64) {
	c.instrs = append(c.instrs, instr{op: "LOAD", operand: asm.FormatImmediate(word)})
	c.depth++
}

// label is a forward reference to an instruction index.
type label struct {
	resolved bool
	position int   // target instruction index once resolved
	refs     []int // instruction indexes awaiting the target
}

// newLabel creates an unresolved label.
func (c *Lowerer) newLabel() *label {
	return &label{refs: make([]int, 0, 2)}
}

// mark resolves a label to the current position and patches all forward
// references.
func (c *Lowerer) mark(l *label) {
	if l.resolved {
		panic("label already resolved")
	}
	l.resolved = true
	l.position = len(c.instrs)
	for _, ref := range l.refs {
		c.instrs[ref].operand = strconv.Itoa(l.position)
	}
	l.refs = nil
}

// emitJump emits a jump to a label; targets are absolute instruction
// indexes, written now for resolved labels and patched later otherwise.
func (c *Lowerer) emitJump(op string, l *label) {
	if l.resolved {
		c.instrs = append(c.instrs, instr{op: op, operand: strconv.Itoa(l.position)})
		return
	}
	l.refs = append(l.refs, len(c.instrs))
	c.instrs = append(c.instrs, instr{op: op, operand: "0"})
}

// ---------------------------------------------------------------------------
// Expression lowering
// ---------------------------------------------------------------------------

func (c *Lowerer) lowerExpr(d Datum) {
	switch d := d.(type) {
	case *IntDatum:
		c.emitLoad(uint64(vm.FromInt(d.Value)))
	case *BoolDatum:
		c.emitLoad(uint64(vm.FromBool(d.Value)))
	case *CharDatum:
		c.emitLoad(uint64(vm.FromChar(d.Code)))
	case *NullDatum:
		c.emitLoad(uint64(vm.Null))
	case *StringDatum:
		c.lowerString(d)
	case *SymbolDatum:
		c.lowerSymbol(d)
	case *FormDatum:
		c.lowerForm(d)
	}
}

// lowerString pushes the characters in order, so the last one is on top
// where STRING wants it.
func (c *Lowerer) lowerString(d *StringDatum) {
	for i := 0; i < len(d.Value); i++ {
		c.emitLoad(uint64(vm.FromChar(d.Value[i])))
	}
	c.emitCount("STRING", len(d.Value))
	c.depth -= len(d.Value)
	c.depth++
}

func (c *Lowerer) lowerSymbol(d *SymbolDatum) {
	for i := len(c.scope) - 1; i >= 0; i-- {
		if c.scope[i].name == d.Name {
			c.emitCount("GET", c.depth-1-c.scope[i].slot)
			c.depth++
			return
		}
	}
	c.errorfAt(d.Pos(), "unbound variable %q", d.Name)
	c.emitLoad(uint64(vm.Unspecified))
}

func (c *Lowerer) lowerForm(d *FormDatum) {
	if len(d.Items) == 0 {
		c.errorfAt(d.Pos(), "empty form")
		c.emitLoad(uint64(vm.Unspecified))
		return
	}
	head, ok := d.Items[0].(*SymbolDatum)
	if !ok {
		c.errorfAt(d.Items[0].Pos(), "operator must be a symbol, got %v", d.Items[0])
		c.emitLoad(uint64(vm.Unspecified))
		return
	}

	switch head.Name {
	case "if":
		c.lowerIf(d)
	case "let":
		c.lowerLet(d)
	default:
		c.lowerCall(d, head)
	}
}

// lowerIf lowers (if cond then) and (if cond then else). CJUMP branches
// when the condition is #f; a missing else arm yields unspecified.
func (c *Lowerer) lowerIf(d *FormDatum) {
	if len(d.Items) != 3 && len(d.Items) != 4 {
		c.errorfAt(d.Pos(), "wrong number of arguments to if: got %d, want 2 or 3", len(d.Items)-1)
		c.emitLoad(uint64(vm.Unspecified))
		return
	}

	c.lowerExpr(d.Items[1])
	elseLabel := c.newLabel()
	endLabel := c.newLabel()

	c.emitJump("CJUMP", elseLabel)
	c.depth-- // CJUMP consumes the condition
	base := c.depth

	c.lowerExpr(d.Items[2])
	c.emitJump("JUMP", endLabel)

	c.mark(elseLabel)
	c.depth = base // the else arm starts from the same stack
	if len(d.Items) == 4 {
		c.lowerExpr(d.Items[3])
	} else {
		c.emitLoad(uint64(vm.Unspecified))
	}
	c.mark(endLabel)
}

// lowerLet lowers (let ((name value)...) body...). Inits are evaluated in
// the enclosing scope and become stack slots; the body result rides over
// them with FALL.
func (c *Lowerer) lowerLet(d *FormDatum) {
	if len(d.Items) < 3 {
		c.errorfAt(d.Pos(), "let requires a binding list and a body")
		c.emitLoad(uint64(vm.Unspecified))
		return
	}
	bindingsForm, ok := d.Items[1].(*FormDatum)
	if !ok {
		c.errorfAt(d.Items[1].Pos(), "let bindings must be a list")
		c.emitLoad(uint64(vm.Unspecified))
		return
	}

	var bound []binding
	for _, b := range bindingsForm.Items {
		pair, ok := b.(*FormDatum)
		if !ok || len(pair.Items) != 2 {
			c.errorfAt(b.Pos(), "let binding must be a (name value) pair")
			continue
		}
		name, ok := pair.Items[0].(*SymbolDatum)
		if !ok {
			c.errorfAt(pair.Items[0].Pos(), "let binding name must be a symbol")
			continue
		}
		c.lowerExpr(pair.Items[1])
		bound = append(bound, binding{name: name.Name, slot: c.depth - 1})
	}
	c.scope = append(c.scope, bound...)

	body := d.Items[2:]
	for i, e := range body {
		c.lowerExpr(e)
		if i < len(body)-1 {
			c.emit("FORGET")
			c.depth--
		}
	}

	c.scope = c.scope[:len(c.scope)-len(bound)]
	if n := len(bound); n > 0 {
		c.emitCount("FALL", n)
		c.depth -= n
	}
}

// lowerCall lowers a builtin call: arguments left to right, then the
// operation.
func (c *Lowerer) lowerCall(d *FormDatum, head *SymbolDatum) {
	b, ok := builtins[head.Name]
	if !ok {
		c.errorfAt(head.Pos(), "unknown operator %q", head.Name)
		c.emitLoad(uint64(vm.Unspecified))
		return
	}

	args := d.Items[1:]
	for _, a := range args {
		c.lowerExpr(a)
	}

	n := len(args)
	if b.arity >= 0 && n != b.arity {
		c.errorfAt(d.Pos(), "wrong number of arguments to %s: got %d, want %d", head.Name, n, b.arity)
	} else if b.arity < 0 && n < b.minArgs {
		c.errorfAt(d.Pos(), "wrong number of arguments to %s: got %d, want at least %d", head.Name, n, b.minArgs)
	}

	if b.counted {
		c.emitCount(b.mnemonic, n)
	} else {
		c.emit(b.mnemonic)
	}
	c.depth -= n
	c.depth++
}
