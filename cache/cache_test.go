package cache

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGetRoundTrip(t *testing.T) {
	c := openTemp(t)

	key := Key([]byte("(add1 41)"), "-b")
	code := []byte{0x10, 0x20, 0x30}
	listing := []byte{0xA1, 0x01}

	if err := c.Put(key, code, listing); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	e, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(e.Code, code) {
		t.Errorf("Code = %x, want %x", e.Code, code)
	}
	if !bytes.Equal(e.Listing, listing) {
		t.Errorf("Listing = %x, want %x", e.Listing, listing)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestGetMiss(t *testing.T) {
	c := openTemp(t)

	_, err := c.Get(Key([]byte("never stored"), ""))
	if !errors.Is(err, ErrMiss) {
		t.Errorf("Get() error = %v, want ErrMiss", err)
	}
}

func TestPutNilListing(t *testing.T) {
	c := openTemp(t)

	key := Key([]byte("source"), "")
	if err := c.Put(key, []byte{1}, nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	e, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(e.Listing) != 0 {
		t.Errorf("Listing = %x, want empty", e.Listing)
	}
}

func TestPutReplaces(t *testing.T) {
	c := openTemp(t)

	key := Key([]byte("source"), "")
	if err := c.Put(key, []byte{1}, nil); err != nil {
		t.Fatalf("first Put() error: %v", err)
	}
	if err := c.Put(key, []byte{2, 3}, nil); err != nil {
		t.Fatalf("second Put() error: %v", err)
	}

	e, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(e.Code, []byte{2, 3}) {
		t.Errorf("Code = %x, want %x", e.Code, []byte{2, 3})
	}
}

func TestKey(t *testing.T) {
	base := Key([]byte("(add1 41)"), "-b")

	if got := Key([]byte("(add1 41)"), "-b"); got != base {
		t.Error("same inputs produced different keys")
	}
	if got := Key([]byte("(add1 42)"), "-b"); got == base {
		t.Error("different source produced the same key")
	}
	if got := Key([]byte("(add1 41)"), "-b -listing"); got == base {
		t.Error("different options produced the same key")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	key := Key([]byte("source"), "")

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := c.Put(key, []byte{7, 8, 9}, nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	c, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer c.Close()

	e, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if !bytes.Equal(e.Code, []byte{7, 8, 9}) {
		t.Errorf("Code = %x, want %x", e.Code, []byte{7, 8, 9})
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "cache.db")

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	c.Close()
}

func TestPrune(t *testing.T) {
	c := openTemp(t)

	key := Key([]byte("source"), "")
	if err := c.Put(key, []byte{1}, nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	n, err := c.Prune(time.Hour)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if n != 0 {
		t.Errorf("Prune(1h) removed %d entries, want 0", n)
	}
	if _, err := c.Get(key); err != nil {
		t.Errorf("Get() after no-op prune error: %v", err)
	}

	n, err = c.Prune(0)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune(0) removed %d entries, want 1", n)
	}
	if _, err := c.Get(key); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() after prune error = %v, want ErrMiss", err)
	}
}
