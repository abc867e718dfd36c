package vm

import (
	"fmt"
	"os"

	"github.com/petrel-lang/petrel/bytecode"
)

// Fault is a fatal execution error: a type mismatch, stack misuse, bad jump
// target, reserved opcode, or exhausted heap. Every fault names the
// instruction index and opcode it occurred at.
type Fault struct {
	Index int
	Op    bytecode.Opcode
	Msg   string
	Err   error // underlying cause, when one exists
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("engine fault at instruction %d (%s): %v", f.Index, f.Op, f.Err)
	}
	return fmt.Sprintf("engine fault at instruction %d (%s): %s", f.Index, f.Op, f.Msg)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Run executes the program to completion and returns the final value: the
// top of the stack when HALT fires, or unspecified if the stack is empty.
// Running past the last instruction behaves like HALT.
func (m *Machine) Run() (Value, error) {
	count := m.prog.InstructionCount()
	ip := 0

	for ip < count {
		in := m.prog.At(ip)

		if m.trace {
			fmt.Fprintf(os.Stderr, "[%04d] %-20s depth=%d\n", ip, in.String(), m.stack.Depth())
		}

		switch in.Op {
		// ============ Constants and control flow ============
		case bytecode.OpLoad:
			if f := m.push(ip, in.Op, Value(in.Operand)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpJump:
			target, f := m.target(ip, in, count)
			if f != nil {
				return Unspecified, f
			}
			ip = target
			continue

		case bytecode.OpJumpFalse:
			v, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if !v.IsTruthy() {
				target, f := m.target(ip, in, count)
				if f != nil {
					return Unspecified, f
				}
				ip = target
				continue
			}

		case bytecode.OpHalt:
			return m.result(), nil

		// ============ Stack manipulation ============
		case bytecode.OpGet:
			if in.Operand >= uint64(m.stack.Depth()) {
				return Unspecified, &Fault{Index: ip, Op: in.Op,
					Msg: fmt.Sprintf("no stack word at depth %d (stack depth %d)", in.Operand, m.stack.Depth())}
			}
			v, _ := m.stack.Pick(int(in.Operand))
			if f := m.push(ip, in.Op, v); f != nil {
				return Unspecified, f
			}

		case bytecode.OpForget:
			if _, f := m.pop(ip, in.Op); f != nil {
				return Unspecified, f
			}

		case bytecode.OpFall:
			top, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			m.stack.Drop(n)
			if f := m.push(ip, in.Op, top); f != nil {
				return Unspecified, f
			}

		// ============ Integer arithmetic ============
		case bytecode.OpAdd1:
			x, f := m.popInt(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, wrapInt(x+1)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpSub1:
			x, f := m.popInt(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, wrapInt(x-1)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpAdd:
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			var sum int64
			for i := 0; i < n; i++ {
				x, f := m.popInt(ip, in.Op)
				if f != nil {
					return Unspecified, f
				}
				sum += x
			}
			if f := m.push(ip, in.Op, wrapInt(sum)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpSub:
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			if n == 0 {
				return Unspecified, &Fault{Index: ip, Op: in.Op, Msg: "operand count must be at least 1"}
			}
			var rest int64
			for i := 0; i < n-1; i++ {
				x, f := m.popInt(ip, in.Op)
				if f != nil {
					return Unspecified, f
				}
				rest += x
			}
			first, f := m.popInt(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			result := first - rest
			if n == 1 {
				result = -first
			}
			if f := m.push(ip, in.Op, wrapInt(result)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpMul:
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			product := int64(1)
			for i := 0; i < n; i++ {
				x, f := m.popInt(ip, in.Op)
				if f != nil {
					return Unspecified, f
				}
				product *= x
			}
			if f := m.push(ip, in.Op, wrapInt(product)); f != nil {
				return Unspecified, f
			}

		// ============ Comparison and predicates ============
		case bytecode.OpLess:
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			increasing := true
			if n > 0 {
				prev, f := m.popInt(ip, in.Op)
				if f != nil {
					return Unspecified, f
				}
				for i := 1; i < n; i++ {
					cur, f := m.popInt(ip, in.Op)
					if f != nil {
						return Unspecified, f
					}
					if cur >= prev {
						increasing = false
					}
					prev = cur
				}
			}
			if f := m.push(ip, in.Op, FromBool(increasing)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpNumEq:
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			equal := true
			if n > 0 {
				first, f := m.popInt(ip, in.Op)
				if f != nil {
					return Unspecified, f
				}
				for i := 1; i < n; i++ {
					x, f := m.popInt(ip, in.Op)
					if f != nil {
						return Unspecified, f
					}
					if x != first {
						equal = false
					}
				}
			}
			if f := m.push(ip, in.Op, FromBool(equal)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpIdentical:
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			identical := true
			if n > 0 {
				first, f := m.pop(ip, in.Op)
				if f != nil {
					return Unspecified, f
				}
				for i := 1; i < n; i++ {
					v, f := m.pop(ip, in.Op)
					if f != nil {
						return Unspecified, f
					}
					if v != first {
						identical = false
					}
				}
			}
			if f := m.push(ip, in.Op, FromBool(identical)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpIsZero:
			x, f := m.popInt(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, FromBool(x == 0)); f != nil {
				return Unspecified, f
			}

		case bytecode.OpIsInteger:
			v, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, FromBool(v.IsInt())); f != nil {
				return Unspecified, f
			}

		case bytecode.OpIsBoolean:
			v, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, FromBool(v.IsBool())); f != nil {
				return Unspecified, f
			}

		case bytecode.OpIsChar:
			v, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, FromBool(v.IsChar())); f != nil {
				return Unspecified, f
			}

		case bytecode.OpIsNull:
			v, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, FromBool(v.IsNull())); f != nil {
				return Unspecified, f
			}

		case bytecode.OpNot:
			v, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, FromBool(v == False)); f != nil {
				return Unspecified, f
			}

		// ============ Conversions ============
		case bytecode.OpIntToChar:
			x, f := m.popInt(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if x < 0 || x > 255 {
				return Unspecified, &Fault{Index: ip, Op: in.Op,
					Msg: fmt.Sprintf("character code %d out of range", x)}
			}
			if f := m.push(ip, in.Op, FromChar(byte(x))); f != nil {
				return Unspecified, f
			}

		case bytecode.OpCharToInt:
			c, f := m.popChar(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, FromInt(int64(c))); f != nil {
				return Unspecified, f
			}

		// ============ Pairs ============
		case bytecode.OpCons:
			cdr, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			car, f := m.pop(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			pair, err := m.heap.NewPair(car, cdr)
			if err != nil {
				return Unspecified, &Fault{Index: ip, Op: in.Op, Err: err}
			}
			if f := m.push(ip, in.Op, pair); f != nil {
				return Unspecified, f
			}

		case bytecode.OpCar:
			v, f := m.popPair(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, v.Car()); f != nil {
				return Unspecified, f
			}

		case bytecode.OpCdr:
			v, f := m.popPair(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if f := m.push(ip, in.Op, v.Cdr()); f != nil {
				return Unspecified, f
			}

		// ============ Strings ============
		case bytecode.OpString:
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			buf := make([]byte, n)
			for i := n - 1; i >= 0; i-- {
				c, f := m.popChar(ip, in.Op)
				if f != nil {
					return Unspecified, f
				}
				buf[i] = c
			}
			s, err := m.heap.NewString(buf)
			if err != nil {
				return Unspecified, &Fault{Index: ip, Op: in.Op, Err: err}
			}
			if f := m.push(ip, in.Op, s); f != nil {
				return Unspecified, f
			}

		case bytecode.OpStringRef:
			idx, f := m.popInt(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			s, f := m.popString(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if idx < 0 || idx >= int64(s.StringLen()) {
				return Unspecified, &Fault{Index: ip, Op: in.Op,
					Msg: fmt.Sprintf("string index %d out of range (length %d)", idx, s.StringLen())}
			}
			if f := m.push(ip, in.Op, FromChar(s.StringBytes()[idx])); f != nil {
				return Unspecified, f
			}

		case bytecode.OpStringSet:
			c, f := m.popChar(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			idx, f := m.popInt(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			s, f := m.popString(ip, in.Op)
			if f != nil {
				return Unspecified, f
			}
			if idx < 0 || idx >= int64(s.StringLen()) {
				return Unspecified, &Fault{Index: ip, Op: in.Op,
					Msg: fmt.Sprintf("string index %d out of range (length %d)", idx, s.StringLen())}
			}
			storeByteAt(uintptr(s)+5+uintptr(idx), c)
			if f := m.push(ip, in.Op, Unspecified); f != nil {
				return Unspecified, f
			}

		case bytecode.OpStringAppend:
			n, f := m.argCount(ip, in)
			if f != nil {
				return Unspecified, f
			}
			parts := make([]Value, n)
			total := 0
			for i := n - 1; i >= 0; i-- {
				s, f := m.popString(ip, in.Op)
				if f != nil {
					return Unspecified, f
				}
				parts[i] = s
				total += s.StringLen()
			}
			buf := make([]byte, 0, total)
			for _, s := range parts {
				buf = append(buf, s.StringBytes()...)
			}
			joined, err := m.heap.NewString(buf)
			if err != nil {
				return Unspecified, &Fault{Index: ip, Op: in.Op, Err: err}
			}
			if f := m.push(ip, in.Op, joined); f != nil {
				return Unspecified, f
			}

		// ============ Reserved ============
		case bytecode.OpReserved1001, bytecode.OpReservedC001:
			return Unspecified, &Fault{Index: ip, Op: in.Op, Msg: "reserved opcode"}

		default:
			// Unreachable once the program has been validated.
			return Unspecified, &Fault{Index: ip, Op: in.Op, Msg: "unknown opcode"}
		}

		ip++
	}

	return m.result(), nil
}

// result is the value HALT hands to the printer: the top of the stack, or
// unspecified when nothing is there.
func (m *Machine) result() Value {
	if v, ok := m.stack.Peek(); ok {
		return v
	}
	return Unspecified
}

func (m *Machine) push(ip int, op bytecode.Opcode, v Value) *Fault {
	if !m.stack.Push(v) {
		return &Fault{Index: ip, Op: op, Msg: "stack overflow"}
	}
	return nil
}

func (m *Machine) pop(ip int, op bytecode.Opcode) (Value, *Fault) {
	v, ok := m.stack.Pop()
	if !ok {
		return Unspecified, &Fault{Index: ip, Op: op, Msg: "stack underflow"}
	}
	return v, nil
}

func (m *Machine) popInt(ip int, op bytecode.Opcode) (int64, *Fault) {
	v, f := m.pop(ip, op)
	if f != nil {
		return 0, f
	}
	if !v.IsInt() {
		return 0, &Fault{Index: ip, Op: op, Msg: fmt.Sprintf("expected integer, got %s", v.Kind())}
	}
	return v.Int(), nil
}

func (m *Machine) popChar(ip int, op bytecode.Opcode) (byte, *Fault) {
	v, f := m.pop(ip, op)
	if f != nil {
		return 0, f
	}
	if !v.IsChar() {
		return 0, &Fault{Index: ip, Op: op, Msg: fmt.Sprintf("expected character, got %s", v.Kind())}
	}
	return v.CharByte(), nil
}

func (m *Machine) popString(ip int, op bytecode.Opcode) (Value, *Fault) {
	v, f := m.pop(ip, op)
	if f != nil {
		return Unspecified, f
	}
	if !v.IsString() {
		return Unspecified, &Fault{Index: ip, Op: op, Msg: fmt.Sprintf("expected string, got %s", v.Kind())}
	}
	return v, nil
}

func (m *Machine) popPair(ip int, op bytecode.Opcode) (Value, *Fault) {
	v, f := m.pop(ip, op)
	if f != nil {
		return Unspecified, f
	}
	if !v.IsPair() {
		return Unspecified, &Fault{Index: ip, Op: op, Msg: fmt.Sprintf("expected pair, got %s", v.Kind())}
	}
	return v, nil
}

// argCount reads a count operand and checks the stack can satisfy it.
func (m *Machine) argCount(ip int, in bytecode.Instruction) (int, *Fault) {
	if in.Operand > uint64(m.stack.Depth()) {
		return 0, &Fault{Index: ip, Op: in.Op,
			Msg: fmt.Sprintf("operand count %d exceeds stack depth %d", in.Operand, m.stack.Depth())}
	}
	return int(in.Operand), nil
}

// target reads a jump operand. Targets inside the program are instruction
// indexes; a target equal to the instruction count jumps to the end, which
// behaves like HALT.
func (m *Machine) target(ip int, in bytecode.Instruction, count int) (int, *Fault) {
	if in.Operand > uint64(count) {
		return 0, &Fault{Index: ip, Op: in.Op,
			Msg: fmt.Sprintf("jump target %d outside program (%d instructions)", in.Operand, count)}
	}
	return int(in.Operand), nil
}
