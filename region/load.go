package region

import (
	"fmt"
	"io"
)

// DefaultChunkBytes is the growth step for the chunked strategy, sized for
// 64 instructions per step.
const DefaultChunkBytes = 1024

// Loader strategy names as they appear in configuration.
const (
	StrategyChunk = "chunk"
	StrategyPage  = "page"
)

// Loader reads an entire bytecode stream into a fresh code block, counting
// every byte that arrives. Implementations differ only in how the block
// grows while the stream is still coming in.
type Loader interface {
	Load(r io.Reader) (*Block, error)
}

// NewLoader returns the loader for a configured strategy name. The empty
// string selects the chunked strategy.
func NewLoader(strategy string, chunkBytes int) (Loader, error) {
	switch strategy {
	case "", StrategyChunk:
		return &ChunkLoader{ChunkBytes: chunkBytes}, nil
	case StrategyPage:
		return newPageLoader()
	}
	return nil, fmt.Errorf("unknown loader strategy %q", strategy)
}

// ChunkLoader grows a slice-backed block a fixed number of bytes at a time.
// It works on every platform and the block may move while growing.
type ChunkLoader struct {
	ChunkBytes int
}

// Load reads r to EOF. Short reads are fine; the byte count stays exact
// even when the stream ends mid-instruction, so validation can reject the
// truncated program afterwards.
func (l *ChunkLoader) Load(r io.Reader) (*Block, error) {
	chunk := l.ChunkBytes
	if chunk <= 0 {
		chunk = DefaultChunkBytes
	}
	buf := make([]byte, 0, chunk)
	for {
		if len(buf) == cap(buf) {
			grown := make([]byte, len(buf), cap(buf)+chunk)
			copy(grown, buf)
			buf = grown
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading bytecode: %w", err)
		}
	}
	return &Block{data: buf}, nil
}
