// Package cache memoizes compilation results in a local SQLite database,
// keyed by the content hash of the source and the options that shaped the
// output.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

// ErrMiss indicates the requested artifact is not cached.
var ErrMiss = errors.New("cache miss")

// Cache is a content-addressed store of compiled artifacts.
type Cache struct {
	db     *sql.DB
	dbPath string
	log    commonlog.Logger
	mu     sync.Mutex
}

// Entry is one cached compilation result.
type Entry struct {
	Code      []byte
	Listing   []byte // optional CBOR sidecar, nil if none was stored
	CreatedAt time.Time
}

// Key identifies one compilation: the source text plus the toolchain
// options that shape its output.
func Key(source []byte, options string) [32]byte {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(options))
	var k [32]byte
	copy(k[:], h.Sum(nil))
	return k
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		hash TEXT PRIMARY KEY,
		code BLOB NOT NULL,
		listing BLOB,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating artifacts table: %w", err)
	}

	return &Cache{db: db, dbPath: path, log: commonlog.GetLogger("petrel.cache")}, nil
}

// DefaultPath returns the per-user cache database path.
func DefaultPath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache dir: %w", err)
	}
	return filepath.Join(base, "petrel", "cache.db"), nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Put stores an artifact, replacing any previous entry for the key.
// listing may be nil.
func (c *Cache) Put(key [32]byte, code, listing []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO artifacts (hash, code, listing, created_at) VALUES (?, ?, ?, ?)",
		hex.EncodeToString(key[:]), code, listing, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storing artifact: %w", err)
	}
	return nil
}

// Get retrieves the artifact for key, or ErrMiss.
func (c *Cache) Get(key [32]byte) (*Entry, error) {
	var e Entry
	var createdAt int64
	hash := hex.EncodeToString(key[:])
	err := c.db.QueryRow(
		"SELECT code, listing, created_at FROM artifacts WHERE hash = ?",
		hash,
	).Scan(&e.Code, &e.Listing, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.log.Debugf("miss %s", hash)
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("querying artifact: %w", err)
	}
	c.log.Debugf("hit %s (%d bytes)", hash, len(e.Code))
	e.CreatedAt = time.Unix(createdAt, 0)
	return &e, nil
}

// Prune deletes artifacts older than the given age and returns how many
// were removed.
func (c *Cache) Prune(olderThan time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := c.db.Exec("DELETE FROM artifacts WHERE created_at <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning artifacts: %w", err)
	}
	return res.RowsAffected()
}
