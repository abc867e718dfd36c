package vm

import (
	"fmt"
	"unsafe"
)

// Value represents a Petrel value as one tagged 64-bit word.
//
// The low bits of the word discriminate the shape; immediate shapes carry
// their payload in the upper bits, heap shapes carry the address of an
// 8-aligned allocation offset by their tag suffix.
//
// Encoding scheme:
//   - Integer: low two bits 00, signed 62-bit payload in the upper bits
//   - Character: low byte 0x0F, code in bits 8-15
//   - True/False/Null/Unspecified: fixed sentinel words
//   - Pair: low three bits 001, car word at address value-1
//   - String: low three bits 011, length word at address value-3
//   - Vector: low three bits 010, length word at address value-2
//
// Any other bit pattern is malformed. Malformed is a first-class variant:
// decoding never fails, it classifies.
type Value uint64

// Tag constants
const (
	intMask   uint64 = 0b11
	intSuffix uint64 = 0b00
	intShift         = 2

	charMask   uint64 = 0xFF
	charSuffix uint64 = 0x0F
	charShift         = 8

	heapMask     uint64 = 0b111
	pairSuffix   uint64 = 0b001
	vectorSuffix uint64 = 0b010
	stringSuffix uint64 = 0b011
)

// Pre-defined sentinel values
const (
	True        Value = 0x9F
	False       Value = 0x1F
	Null        Value = 0x2F
	Unspecified Value = 0xFFFFFFFFFFFFFFFF
)

// Integer range (62-bit signed)
const (
	MaxInt int64 = 1<<61 - 1  // 2305843009213693951
	MinInt int64 = -(1 << 61) // -2305843009213693952
)

// Kind is the closed set of decoded shapes. Decoders switch on it
// exhaustively; a new shape means a new case, not a silent fallthrough.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindChar
	KindNull
	KindPair
	KindString
	KindVector
	KindUnspecified
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	case KindChar:
		return "character"
	case KindNull:
		return "null"
	case KindPair:
		return "pair"
	case KindString:
		return "string"
	case KindVector:
		return "vector"
	case KindUnspecified:
		return "unspecified"
	case KindMalformed:
		return "malformed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kind classifies the word. The checks are mutually exclusive, so the order
// only mirrors the traditional decode sequence.
func (v Value) Kind() Kind {
	switch {
	case uint64(v)&intMask == intSuffix:
		return KindInt
	case v == True || v == False:
		return KindBool
	case uint64(v)&charMask == charSuffix:
		return KindChar
	case v == Null:
		return KindNull
	case uint64(v)&heapMask == pairSuffix:
		return KindPair
	case uint64(v)&heapMask == stringSuffix:
		return KindString
	case uint64(v)&heapMask == vectorSuffix:
		return KindVector
	case v == Unspecified:
		return KindUnspecified
	}
	return KindMalformed
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsInt returns true if v is integer-tagged.
func (v Value) IsInt() bool {
	return uint64(v)&intMask == intSuffix
}

// IsBool returns true if v is #t or #f.
func (v Value) IsBool() bool {
	return v == True || v == False
}

// IsChar returns true if v is character-tagged.
func (v Value) IsChar() bool {
	return uint64(v)&charMask == charSuffix
}

// IsNull returns true if v is the empty list.
func (v Value) IsNull() bool {
	return v == Null
}

// IsPair returns true if v is pair-tagged.
func (v Value) IsPair() bool {
	return uint64(v)&heapMask == pairSuffix
}

// IsString returns true if v is string-tagged.
func (v Value) IsString() bool {
	return uint64(v)&heapMask == stringSuffix
}

// IsVector returns true if v is vector-tagged.
func (v Value) IsVector() bool {
	return uint64(v)&heapMask == vectorSuffix
}

// IsUnspecified returns true if v is the unspecified value.
func (v Value) IsUnspecified() bool {
	return v == Unspecified
}

// IsMalformed returns true if no shape claims the word.
func (v Value) IsMalformed() bool {
	return v.Kind() == KindMalformed
}

// IsTruthy returns true for every value except #f.
func (v Value) IsTruthy() bool {
	return v != False
}

// ---------------------------------------------------------------------------
// Integer operations
// ---------------------------------------------------------------------------

// Int returns the signed integer payload: the word shifted right two bits,
// re-centered into the signed range when the 62-bit field overflows it.
// Panics if v is not integer-tagged.
func (v Value) Int() int64 {
	if !v.IsInt() {
		panic(fmt.Sprintf("Value.Int: not an integer: %#016x", uint64(v)))
	}
	field := uint64(v) >> intShift
	if field >= 1<<61 {
		return int64(field) - (1 << 62)
	}
	return int64(field)
}

// FromInt creates an integer value.
// Panics if n is outside the 62-bit signed range.
func FromInt(n int64) Value {
	if n > MaxInt || n < MinInt {
		panic(fmt.Sprintf("FromInt: %d out of range", n))
	}
	return Value(uint64(n) << intShift)
}

// TryFromInt creates an integer value, returning false if out of range.
func TryFromInt(n int64) (Value, bool) {
	if n > MaxInt || n < MinInt {
		return Unspecified, false
	}
	return Value(uint64(n) << intShift), true
}

// wrapInt encodes n modulo 2^62, the way the arithmetic opcodes overflow.
func wrapInt(n int64) Value {
	return Value(uint64(n) << intShift)
}

// ---------------------------------------------------------------------------
// Boolean and character operations
// ---------------------------------------------------------------------------

// FromBool returns #t or #f.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// CharByte returns the character code.
// Panics if v is not character-tagged.
func (v Value) CharByte() byte {
	if !v.IsChar() {
		panic(fmt.Sprintf("Value.CharByte: not a character: %#016x", uint64(v)))
	}
	return byte(uint64(v) >> charShift)
}

// FromChar creates a character value from a byte code.
func FromChar(c byte) Value {
	return Value(uint64(c)<<charShift | charSuffix)
}

// ---------------------------------------------------------------------------
// Heap shape access
//
// These read raw memory through the address embedded in the word. There is
// no bounds check here: the heap only hands out addresses of live,
// well-formed allocations, and the arena must stay reachable for as long as
// values derived from it are in use.
// ---------------------------------------------------------------------------

func loadWord(addr uintptr) Value {
	return *(*Value)(unsafe.Pointer(addr))
}

func storeByteAt(addr uintptr, b byte) {
	*(*byte)(unsafe.Pointer(addr)) = b
}

// Car returns the first word of a pair.
// Panics if v is not pair-tagged.
func (v Value) Car() Value {
	if !v.IsPair() {
		panic(fmt.Sprintf("Value.Car: not a pair: %#016x", uint64(v)))
	}
	return loadWord(uintptr(v) - 1)
}

// Cdr returns the second word of a pair.
// Panics if v is not pair-tagged.
func (v Value) Cdr() Value {
	if !v.IsPair() {
		panic(fmt.Sprintf("Value.Cdr: not a pair: %#016x", uint64(v)))
	}
	return loadWord(uintptr(v) - 1 + 8)
}

// StringLen returns the byte length of a string.
// Panics if v is not string-tagged.
func (v Value) StringLen() int {
	if !v.IsString() {
		panic(fmt.Sprintf("Value.StringLen: not a string: %#016x", uint64(v)))
	}
	return int(loadWord(uintptr(v) - 3))
}

// StringBytes returns the string's backing bytes. The slice aliases the
// heap; writing to it is writing to the string.
// Panics if v is not string-tagged.
func (v Value) StringBytes() []byte {
	n := v.StringLen()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(v)+5)), n)
}

// VectorLen returns the element count of a vector.
// Panics if v is not vector-tagged.
func (v Value) VectorLen() int {
	if !v.IsVector() {
		panic(fmt.Sprintf("Value.VectorLen: not a vector: %#016x", uint64(v)))
	}
	return int(loadWord(uintptr(v) - 2))
}

// VectorAt returns the i-th element of a vector.
// Panics if v is not vector-tagged or i is out of range.
func (v Value) VectorAt(i int) Value {
	n := v.VectorLen()
	if i < 0 || i >= n {
		panic(fmt.Sprintf("Value.VectorAt: index %d out of range (len %d)", i, n))
	}
	return loadWord(uintptr(v) - 2 + 8 + uintptr(i)*8)
}
