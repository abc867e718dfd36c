// Petrel compiler - compiles s-expression source to assembly text or bytecode
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/petrel-lang/petrel/asm"
	"github.com/petrel-lang/petrel/cache"
	"github.com/petrel-lang/petrel/compiler"

	_ "github.com/tliron/commonlog/simple"
)

var (
	outPath  = flag.String("o", "", "output path (default stdout)")
	emitCode = flag.Bool("b", false, "emit bytecode instead of assembly text")
	cacheDir = flag.String("cache", "", "cache directory (default per-user cache)")
	noCache  = flag.Bool("no-cache", false, "compile without consulting the cache")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: petrelc [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles s-expression source (from file or stdin) to assembly text.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  petrelc prog.pscm -o prog.pasm     # compile to assembly\n")
		fmt.Fprintf(os.Stderr, "  petrelc -b prog.pscm -o prog.pbc   # compile to bytecode\n")
		fmt.Fprintf(os.Stderr, "  petrelc -b prog.pscm | petrel      # compile and run\n")
	}
	flag.Parse()

	src, err := readInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !*emitCode {
		text, err := compiler.Compile(string(src))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := writeOutput([]byte(text)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	code, err := compileBytecode(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeOutput(code); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// compileBytecode compiles and assembles src, consulting the build cache
// unless -no-cache is set. Cache trouble degrades to a plain compile.
func compileBytecode(src []byte) ([]byte, error) {
	c := openCache()
	if c != nil {
		defer c.Close()
	}

	key := cache.Key(src, "b")
	if c != nil {
		e, err := c.Get(key)
		if err == nil {
			return e.Code, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	text, err := compiler.Compile(string(src))
	if err != nil {
		return nil, err
	}
	res, err := asm.Assemble(text)
	if err != nil {
		return nil, err
	}

	if c != nil {
		if err := c.Put(key, res.Code, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	return res.Code, nil
}

// openCache opens the build cache, or returns nil when caching is off or
// unavailable.
func openCache() *cache.Cache {
	if *noCache {
		return nil
	}

	var path string
	if *cacheDir != "" {
		path = filepath.Join(*cacheDir, "cache.db")
	} else {
		p, err := cache.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			return nil
		}
		path = p
	}

	c, err := cache.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return nil
	}
	return c
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	return os.ReadFile(path)
}

func writeOutput(data []byte) error {
	if *outPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(*outPath, data, 0644)
}
