package vm

import (
	"fmt"
	"unsafe"
)

// Heap is the arena backing pairs, strings, and vectors. Allocation bumps a
// pointer from the base toward the top; nothing is ever freed before the
// heap itself goes away.
//
// The backing store is a []uint64, so the base is 8-aligned, and every
// allocation size is rounded up to a whole number of words. That keeps the
// low three bits of every object address clear for tag suffixes.
//
// Tagged values carry raw addresses into the arena, which the garbage
// collector cannot see. The Heap must therefore stay reachable for as long
// as any Value derived from it is in use (runtime.KeepAlive at the use
// boundary when in doubt).
type Heap struct {
	words []uint64
	base  uintptr
	next  uintptr // bump offset in bytes from base
}

// AllocError reports heap exhaustion.
type AllocError struct {
	Need int
	Free int
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("heap exhausted: need %d bytes, %d free", e.Need, e.Free)
}

// NewHeap creates a heap of the given size in bytes, rounded up to whole
// words, minimum one word.
func NewHeap(size int) *Heap {
	if size < 8 {
		size = 8
	}
	words := make([]uint64, (size+7)/8)
	return &Heap{
		words: words,
		base:  uintptr(unsafe.Pointer(&words[0])),
	}
}

// Size returns the arena capacity in bytes.
func (h *Heap) Size() int {
	return len(h.words) * 8
}

// Used returns the number of bytes allocated so far.
func (h *Heap) Used() int {
	return int(h.next)
}

// Free returns the number of bytes still available.
func (h *Heap) Free() int {
	return h.Size() - h.Used()
}

// alloc reserves size bytes rounded up to a word boundary and returns the
// address of the reservation.
func (h *Heap) alloc(size int) (uintptr, error) {
	rounded := (size + 7) &^ 7
	if rounded > h.Free() {
		return 0, &AllocError{Need: rounded, Free: h.Free()}
	}
	addr := h.base + h.next
	h.next += uintptr(rounded)
	return addr, nil
}

// NewPair allocates a pair and returns its tagged value.
func (h *Heap) NewPair(car, cdr Value) (Value, error) {
	addr, err := h.alloc(16)
	if err != nil {
		return Unspecified, err
	}
	*(*Value)(unsafe.Pointer(addr)) = car
	*(*Value)(unsafe.Pointer(addr + 8)) = cdr
	return Value(uint64(addr) | pairSuffix), nil
}

// NewString allocates a string initialized with the given bytes.
func (h *Heap) NewString(b []byte) (Value, error) {
	addr, err := h.alloc(8 + len(b))
	if err != nil {
		return Unspecified, err
	}
	*(*uint64)(unsafe.Pointer(addr)) = uint64(len(b))
	if len(b) > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(addr+8)), len(b)), b)
	}
	return Value(uint64(addr) | stringSuffix), nil
}

// NewVector allocates a vector initialized with the given elements.
func (h *Heap) NewVector(elems []Value) (Value, error) {
	addr, err := h.alloc(8 + 8*len(elems))
	if err != nil {
		return Unspecified, err
	}
	*(*uint64)(unsafe.Pointer(addr)) = uint64(len(elems))
	for i, e := range elems {
		*(*Value)(unsafe.Pointer(addr + 8 + uintptr(i)*8)) = e
	}
	return Value(uint64(addr) | vectorSuffix), nil
}
