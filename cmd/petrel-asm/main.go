// Petrel assembler - turns assembly text into bytecode, turns bytecode back
// into text, and serves editor tooling over LSP
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/petrel-lang/petrel/asm"
	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/server"

	_ "github.com/tliron/commonlog/simple"
)

var (
	outPath     = flag.String("o", "", "output path (default stdout)")
	listingPath = flag.String("listing", "", "listing sidecar path (written when assembling, read when disassembling)")
	disMode     = flag.Bool("d", false, "disassemble bytecode instead of assembling")
	lspMode     = flag.Bool("lsp", false, "serve the Language Server Protocol on stdio")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: petrel-asm [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Assembles .pasm text (from file or stdin) into a bytecode stream.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  petrel-asm prog.pasm -o prog.pbc                   # assemble\n")
		fmt.Fprintf(os.Stderr, "  petrel-asm prog.pasm -o prog.pbc -listing prog.pbc.plst\n")
		fmt.Fprintf(os.Stderr, "  petrel-asm -d prog.pbc                             # disassemble\n")
		fmt.Fprintf(os.Stderr, "  petrel-asm -lsp                                    # editor tooling\n")
	}
	flag.Parse()

	if *lspMode {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	input, name, err := readInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *disMode {
		runDisassemble(input, name)
	} else {
		runAssemble(input, name)
	}
}

// readInput returns the input bytes and a name for diagnostics and sidecar
// discovery.
func readInput(path string) ([]byte, string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return data, "<stdin>", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, path, nil
}

func runAssemble(src []byte, name string) {
	res, err := asm.Assemble(string(src))
	if err != nil {
		// One diagnostic per line, all of them
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *listingPath != "" {
		blob, err := asm.MarshalListing(asm.NewListing(name, res))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*listingPath, blob, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := writeOutput(res.Code); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDisassemble(code []byte, name string) {
	prog, err := bytecode.NewProgram(code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var text string
	if l := findListing(name); l != nil {
		text = asm.DisassembleAnnotated(prog, l)
	} else {
		text = asm.Disassemble(prog)
	}

	if err := writeOutput([]byte(text)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// findListing loads the sidecar named by -listing, or the <input>.plst file
// next to a file input. A missing or unreadable implicit sidecar is not an
// error; an explicit one is.
func findListing(inputName string) *asm.Listing {
	path := *listingPath
	implicit := path == ""
	if implicit {
		if inputName == "<stdin>" {
			return nil
		}
		path = inputName + ".plst"
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		if implicit {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	l, err := asm.UnmarshalListing(blob)
	if err != nil {
		if implicit {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return l
}

func writeOutput(data []byte) error {
	if *outPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(*outPath, data, 0644)
}
