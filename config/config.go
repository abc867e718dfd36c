// Package config handles petrel.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/petrel-lang/petrel/region"
	"github.com/petrel-lang/petrel/vm"
)

// FileName is the configuration file searched for in the working
// directory and its parents.
const FileName = "petrel.toml"

// EnvConfig names the environment variable that overrides the search
// with an explicit file path.
const EnvConfig = "PETREL_CONFIG"

// Config represents a petrel.toml runtime configuration.
type Config struct {
	Regions Regions `toml:"regions"`
	Loader  Loader  `toml:"loader"`
	Trace   Trace   `toml:"trace"`

	// Path is the file the values came from ("" for built-in defaults).
	Path string `toml:"-"`
}

// Regions sizes the machine's writable regions.
type Regions struct {
	StackSize ByteSize `toml:"stack-size"`
	HeapSize  ByteSize `toml:"heap-size"`
}

// Loader selects the bytecode loading strategy.
type Loader struct {
	Strategy   string `toml:"strategy"`
	ChunkBytes int    `toml:"chunk-bytes"`
}

// Trace toggles instruction tracing.
type Trace struct {
	Enabled bool `toml:"enabled"`
}

// ByteSize is a region size: a plain byte count or a string with a
// KiB/MiB suffix ("64KiB", "16MiB").
type ByteSize int

// UnmarshalTOML accepts both integer and suffixed string forms.
func (s *ByteSize) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case int64:
		if v < 0 {
			return fmt.Errorf("size must be non-negative, got %d", v)
		}
		*s = ByteSize(v)
		return nil
	case string:
		n, err := ParseByteSize(v)
		if err != nil {
			return err
		}
		*s = n
		return nil
	}
	return fmt.Errorf("size must be a byte count or a string like \"16MiB\", got %T", v)
}

// ParseByteSize parses "4096", "64KiB", or "16MiB".
func ParseByteSize(s string) (ByteSize, error) {
	t := strings.TrimSpace(s)
	mult := 1
	switch {
	case strings.HasSuffix(t, "KiB"):
		mult = 1 << 10
		t = strings.TrimSuffix(t, "KiB")
	case strings.HasSuffix(t, "MiB"):
		mult = 1 << 20
		t = strings.TrimSuffix(t, "MiB")
	}
	n, err := strconv.Atoi(strings.TrimSpace(t))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad size %q", s)
	}
	return ByteSize(n * mult), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Regions: Regions{
			StackSize: ByteSize(vm.DefaultStackBytes),
			HeapSize:  ByteSize(vm.DefaultHeapBytes),
		},
		Loader: Loader{
			Strategy:   region.StrategyChunk,
			ChunkBytes: region.DefaultChunkBytes,
		},
	}
}

// Load parses a petrel.toml file. Keys absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad locates the configuration for startDir: the EnvConfig
// override if set, otherwise the nearest petrel.toml in startDir or any
// parent. No file means built-in defaults.
func FindAndLoad(startDir string) (*Config, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return Load(path)
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	switch c.Loader.Strategy {
	case "", region.StrategyChunk, region.StrategyPage:
	default:
		return fmt.Errorf("unknown loader strategy %q", c.Loader.Strategy)
	}
	if c.Loader.ChunkBytes < 0 {
		return fmt.Errorf("chunk-bytes must be non-negative, got %d", c.Loader.ChunkBytes)
	}
	return nil
}

// MachineOptions returns the vm options this configuration selects.
func (c *Config) MachineOptions() vm.Options {
	return vm.Options{
		StackBytes: int(c.Regions.StackSize),
		HeapBytes:  int(c.Regions.HeapSize),
		Trace:      c.Trace.Enabled,
	}
}

// NewLoader builds the configured bytecode loader.
func (c *Config) NewLoader() (region.Loader, error) {
	return region.NewLoader(c.Loader.Strategy, c.Loader.ChunkBytes)
}
