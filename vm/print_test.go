package vm

import (
	"bytes"
	"errors"
	"runtime"
	"testing"
)

func render(t *testing.T, v Value) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewPrinter(&buf).Print(v); err != nil {
		t.Fatalf("Print(%#x) failed: %v", uint64(v), err)
	}
	return buf.String()
}

// ---------------------------------------------------------------------------
// Immediate values
// ---------------------------------------------------------------------------

func TestPrintImmediates(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{FromInt(0), "0"},
		{FromInt(42), "42"},
		{FromInt(-7), "-7"},
		{FromInt(MaxInt), "2305843009213693951"},
		{FromInt(MinInt), "-2305843009213693952"},
		{True, "#t"},
		{False, "#f"},
		{FromChar('A'), `#\A`},
		{FromChar(' '), `#\ `},
		{FromChar('\n'), "#\\\n"},
		{Null, "'()"},
		{Unspecified, ""},
	}

	for _, tt := range tests {
		if got := render(t, tt.v); got != tt.want {
			t.Errorf("Print(%#x) wrote %q, want %q", uint64(tt.v), got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Heap values
// ---------------------------------------------------------------------------

func TestPrintPairs(t *testing.T) {
	h := NewHeap(1024)
	pair := func(car, cdr Value) Value {
		t.Helper()
		p, err := h.NewPair(car, cdr)
		if err != nil {
			t.Fatalf("NewPair failed: %v", err)
		}
		return p
	}

	tests := []struct {
		v    Value
		want string
	}{
		{pair(FromInt(1), FromInt(2)), "(1 . 2)"},
		{pair(pair(FromInt(1), FromInt(2)), FromInt(3)), "((1 . 2) . 3)"},
		{pair(True, Null), "(#t . '())"},
		// A proper list still prints dotted, never in list syntax.
		{pair(FromInt(1), pair(FromInt(2), Null)), "(1 . (2 . '()))"},
	}

	for _, tt := range tests {
		if got := render(t, tt.v); got != tt.want {
			t.Errorf("Print wrote %q, want %q", got, tt.want)
		}
	}
	runtime.KeepAlive(h)
}

func TestPrintStrings(t *testing.T) {
	h := NewHeap(1024)
	str := func(s string) Value {
		t.Helper()
		v, err := h.NewString([]byte(s))
		if err != nil {
			t.Fatalf("NewString failed: %v", err)
		}
		return v
	}

	tests := []struct {
		v    Value
		want string
	}{
		{str("abc"), `"abc"`},
		{str(""), `""`},
		// Bytes pass through raw: no escaping, not even of quotes.
		{str(`a"b`), `"a"b"`},
		{str("tab\there"), "\"tab\there\""},
	}

	for _, tt := range tests {
		if got := render(t, tt.v); got != tt.want {
			t.Errorf("Print wrote %q, want %q", got, tt.want)
		}
	}
	runtime.KeepAlive(h)
}

func TestPrintVectors(t *testing.T) {
	h := NewHeap(1024)

	empty, err := h.NewVector(nil)
	if err != nil {
		t.Fatalf("NewVector failed: %v", err)
	}
	if got := render(t, empty); got != "#()" {
		t.Errorf("empty vector wrote %q, want %q", got, "#()")
	}

	nums, err := h.NewVector([]Value{FromInt(1), FromInt(2), FromInt(3)})
	if err != nil {
		t.Fatalf("NewVector failed: %v", err)
	}
	if got := render(t, nums); got != "#(1 2 3)" {
		t.Errorf("vector wrote %q, want %q", got, "#(1 2 3)")
	}

	s, err := h.NewString([]byte("c"))
	if err != nil {
		t.Fatalf("NewString failed: %v", err)
	}
	mixed, err := h.NewVector([]Value{FromInt(1), FromChar('b'), s})
	if err != nil {
		t.Fatalf("NewVector failed: %v", err)
	}
	if got := render(t, mixed); got != `#(1 #\b "c")` {
		t.Errorf("mixed vector wrote %q, want %q", got, `#(1 #\b "c")`)
	}
	runtime.KeepAlive(h)
}

// ---------------------------------------------------------------------------
// Malformed words
// ---------------------------------------------------------------------------

func TestPrintMalformed(t *testing.T) {
	var buf bytes.Buffer
	err := NewPrinter(&buf).Print(Value(0x7))
	if err == nil {
		t.Fatal("Print of a malformed word should fail")
	}
	var mv *MalformedValueError
	if !errors.As(err, &mv) {
		t.Fatalf("error is %T, want *MalformedValueError", err)
	}
	if mv.Word != Value(0x7) {
		t.Errorf("MalformedValueError.Word = %#x, want 0x7", uint64(mv.Word))
	}
	if got := buf.String(); got != "value is malformed: 0x7\n" {
		t.Errorf("diagnostic = %q, want %q", got, "value is malformed: 0x7\n")
	}
}

func TestPrintMalformedInsideStructure(t *testing.T) {
	// Rendering is incremental, so everything before the bad word has
	// already been written when the diagnostic appears.
	h := NewHeap(1024)
	p, err := h.NewPair(FromInt(1), Value(0x7))
	if err != nil {
		t.Fatalf("NewPair failed: %v", err)
	}

	var buf bytes.Buffer
	if err := NewPrinter(&buf).Print(p); err == nil {
		t.Fatal("Print should fail on a pair holding a malformed word")
	}
	want := "(1 . value is malformed: 0x7\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	runtime.KeepAlive(h)
}

// ---------------------------------------------------------------------------
// Println
// ---------------------------------------------------------------------------

func TestPrintln(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf).Println(FromInt(42)); err != nil {
		t.Fatalf("Println failed: %v", err)
	}
	if got := buf.String(); got != "42\n" {
		t.Errorf("Println wrote %q, want %q", got, "42\n")
	}
}

func TestPrintlnUnspecified(t *testing.T) {
	// The value renders nothing but the line still ends.
	var buf bytes.Buffer
	if err := NewPrinter(&buf).Println(Unspecified); err != nil {
		t.Fatalf("Println failed: %v", err)
	}
	if got := buf.String(); got != "\n" {
		t.Errorf("Println wrote %q, want %q", got, "\n")
	}
}

func TestPrintlnMalformedNoTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf).Println(Value(0x7)); err == nil {
		t.Fatal("Println of a malformed word should fail")
	}
	if got := buf.String(); got != "value is malformed: 0x7\n" {
		t.Errorf("output = %q, want %q", got, "value is malformed: 0x7\n")
	}
}
