package vm

import (
	"github.com/tliron/commonlog"

	"github.com/petrel-lang/petrel/bytecode"
)

// Default region sizes.
const (
	DefaultStackBytes = 1 << 20  // 1 MiB
	DefaultHeapBytes  = 16 << 20 // 16 MiB
)

// Options sizes the machine's writable regions and toggles tracing.
// Zero fields mean defaults.
type Options struct {
	StackBytes int
	HeapBytes  int
	Trace      bool
}

// Machine owns one program's execution state: a validated program in its
// sealed code region, the operand stack, and the heap. The stack pointer
// starts at the stack's high end, the heap's allocation pointer at its
// base, and instruction dispatch at index zero.
//
// A Machine is single-use and not safe for concurrent access.
type Machine struct {
	prog  *bytecode.Program
	stack *Stack
	heap  *Heap
	trace bool
	log   commonlog.Logger
}

// NewMachine sets up the writable regions for prog and returns a machine
// ready to Run. The program's bytes must already be validated and sealed;
// the machine never writes to them.
func NewMachine(prog *bytecode.Program, opts Options) *Machine {
	stackBytes := opts.StackBytes
	if stackBytes <= 0 {
		stackBytes = DefaultStackBytes
	}
	heapBytes := opts.HeapBytes
	if heapBytes <= 0 {
		heapBytes = DefaultHeapBytes
	}

	m := &Machine{
		prog:  prog,
		stack: NewStack(stackBytes / 8),
		heap:  NewHeap(heapBytes),
		trace: opts.Trace,
		log:   commonlog.GetLogger("petrel.vm"),
	}
	m.log.Debugf("machine ready: %d instructions, stack %d bytes, heap %d bytes",
		prog.InstructionCount(), stackBytes, heapBytes)
	return m
}

// Heap exposes the machine's heap. Values returned by Run point into it, so
// it must stay reachable while they are used.
func (m *Machine) Heap() *Heap {
	return m.heap
}
