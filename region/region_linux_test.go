//go:build linux

package region

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"testing/iotest"
)

func TestPageLoadWithinOnePage(t *testing.T) {
	want := pattern(os.Getpagesize() / 2)

	block, err := (&PageLoader{}).Load(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer block.Release()

	if block.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", block.Len(), len(want))
	}
	if !bytes.Equal(block.Bytes(), want) {
		t.Error("loaded bytes differ from input")
	}
}

func TestPageLoadShortReads(t *testing.T) {
	want := pattern(100)

	block, err := (&PageLoader{}).Load(iotest.OneByteReader(bytes.NewReader(want)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer block.Release()

	if !bytes.Equal(block.Bytes(), want) {
		t.Error("loaded bytes differ from input")
	}
}

func TestPageLoadGrowth(t *testing.T) {
	// Growth needs the page after the mapping to be free. The address
	// space may deny that; the contract is then a classified allocation
	// failure, never silent corruption.
	want := pattern(2*os.Getpagesize() + os.Getpagesize()/2)

	block, err := (&PageLoader{}).Load(bytes.NewReader(want))
	if err != nil {
		if !errors.Is(err, ErrAlloc) {
			t.Fatalf("growth failure = %v, want to classify as ErrAlloc", err)
		}
		t.Skipf("address space denied adjacent growth: %v", err)
	}
	defer block.Release()

	if block.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", block.Len(), len(want))
	}
	if !bytes.Equal(block.Bytes(), want) {
		t.Error("growth lost or reordered bytes")
	}
}

func TestPageBlockSealAndRead(t *testing.T) {
	want := pattern(64)

	block, err := (&PageLoader{}).Load(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer block.Release()

	if err := block.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if !block.Sealed() {
		t.Error("Sealed() should be true after Seal")
	}
	// The mapping is read-only now; reads must still see the program.
	if !bytes.Equal(block.Bytes(), want) {
		t.Error("sealed bytes differ from input")
	}
}

func TestPageBlockRelease(t *testing.T) {
	block, err := (&PageLoader{}).Load(bytes.NewReader(pattern(16)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := block.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if block.Len() != 0 {
		t.Errorf("Len() after Release = %d, want 0", block.Len())
	}
	// Releasing twice is a no-op.
	if err := block.Release(); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
}

func TestPageLoadReadError(t *testing.T) {
	_, err := (&PageLoader{}).Load(iotest.TimeoutReader(bytes.NewReader(pattern(10))))
	if err == nil {
		t.Fatal("Load should propagate read errors")
	}
	if errors.Is(err, ErrAlloc) {
		t.Error("a read error must not classify as an allocation failure")
	}
}
