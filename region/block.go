// Package region acquires and seals the memory the VM runs a program in.
//
// The loader fills a code Block from a byte stream, growing it by a
// declared policy; after validation the block is sealed read-only. Blocks
// are either slice-backed (portable) or page-mapped (linux), and only the
// growth mechanics differ between the two.
package region

import (
	"errors"
	"fmt"
)

// ErrAlloc classifies failures to acquire, grow, or protect region memory,
// as opposed to failures reading the input stream.
var ErrAlloc = errors.New("region allocation failed")

// AllocFailure wraps one such failure with the operation that hit it.
type AllocFailure struct {
	Op  string
	Err error
}

func (e *AllocFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AllocFailure) Unwrap() []error {
	return []error{ErrAlloc, e.Err}
}

// Block is one contiguous memory region holding a loaded program.
type Block struct {
	data   []byte // live bytes; raw[:n] for page-mapped blocks
	raw    []byte // whole mapping including the unfilled tail; nil when slice-backed
	sealed bool
}

// Bytes returns the block's live contents. After Seal, callers must treat
// the slice as read-only; for page-mapped blocks the MMU enforces that.
func (b *Block) Bytes() []byte {
	return b.data
}

// Len returns the exact number of bytes loaded.
func (b *Block) Len() int {
	return len(b.data)
}

// Sealed reports whether the block has been made read-only.
func (b *Block) Sealed() bool {
	return b.sealed
}

// Seal makes the block read-only. Page-mapped blocks lose write permission
// at the MMU; slice-backed blocks record the seal and rely on nothing
// handing out writable references afterwards.
func (b *Block) Seal() error {
	if b.sealed {
		return nil
	}
	if b.raw != nil {
		if err := protectRead(b.raw); err != nil {
			return &AllocFailure{Op: "sealing code region", Err: err}
		}
	}
	b.sealed = true
	return nil
}

// Release returns page-mapped memory to the system and empties the block.
// Slice-backed blocks are left to the garbage collector.
func (b *Block) Release() error {
	if b.raw == nil {
		b.data = nil
		return nil
	}
	raw := b.raw
	b.raw, b.data = nil, nil
	return unmap(raw)
}
