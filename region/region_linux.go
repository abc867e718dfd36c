//go:build linux

package region

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PageLoader reads into an anonymous mapping and grows it one page at a
// time at the fixed adjacent address, so the block never moves while
// loading. Sealing the block drops write permission on the whole mapping.
type PageLoader struct{}

func newPageLoader() (Loader, error) {
	return &PageLoader{}, nil
}

// Load reads r to EOF into page-mapped memory.
func (l *PageLoader) Load(r io.Reader) (*Block, error) {
	pagesize := os.Getpagesize()
	raw, err := unix.Mmap(-1, 0, pagesize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, &AllocFailure{Op: "mapping code region", Err: err}
	}
	filled := 0
	for {
		if filled == len(raw) {
			grown, err := extendMapping(raw)
			if err != nil {
				unix.Munmap(raw)
				return nil, &AllocFailure{Op: "growing code region", Err: err}
			}
			raw = grown
		}
		n, err := r.Read(raw[filled:])
		filled += n
		if err == io.EOF {
			break
		}
		if err != nil {
			unix.Munmap(raw)
			return nil, fmt.Errorf("reading bytecode: %w", err)
		}
	}
	return &Block{data: raw[:filled], raw: raw}, nil
}

// extendMapping maps one more page immediately after the current mapping.
// Kernels that lack MAP_FIXED_NOREPLACE treat the address as a hint, and a
// page landing anywhere else is useless for in-place growth, so that case
// is unmapped and reported as a failure.
func extendMapping(raw []byte) ([]byte, error) {
	pagesize := os.Getpagesize()
	base := uintptr(unsafe.Pointer(&raw[0]))
	want := base + uintptr(len(raw))
	addr, _, errno := unix.Syscall6(unix.SYS_MMAP,
		want,
		uintptr(pagesize),
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_ANON|unix.MAP_PRIVATE|unix.MAP_FIXED_NOREPLACE),
		^uintptr(0), // no backing fd
		0)
	if errno != 0 {
		return nil, errno
	}
	if addr != want {
		unix.Syscall(unix.SYS_MUNMAP, addr, uintptr(pagesize), 0)
		return nil, unix.EEXIST
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), len(raw)+pagesize), nil
}

func protectRead(raw []byte) error {
	return unix.Mprotect(raw, unix.PROT_READ)
}

func unmap(raw []byte) error {
	return unix.Munmap(raw)
}
