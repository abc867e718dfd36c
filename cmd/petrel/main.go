// Petrel VM - runs a bytecode stream from stdin and prints the final value
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/config"
	"github.com/petrel-lang/petrel/region"
	"github.com/petrel-lang/petrel/vm"

	_ "github.com/tliron/commonlog/simple"
)

// Exit codes, one per failure class.
const (
	exitOK        = 0
	exitMalformed = 1 // validator rejected the stream
	exitInput     = 2 // stdin read failure or bad configuration
	exitAlloc     = 3 // region setup or heap exhaustion
	exitBadValue  = 4 // printer hit an undecodable word
	exitFault     = 5 // engine fault
)

var (
	configPath = flag.String("config", "", "path to petrel.toml (overrides the search)")
	trace      = flag.Bool("trace", false, "log every instruction as it executes")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: petrel [options] < program.pbc\n\n")
		fmt.Fprintf(os.Stderr, "Reads a bytecode stream from stdin, runs it, and prints the final value.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	os.Exit(run())
}

func run() int {
	// Once execution starts, the result or a fault is the only way out.
	signal.Ignore(os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInput
	}
	if *trace {
		cfg.Trace.Enabled = true
	}

	loader, err := cfg.NewLoader()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInput
	}

	block, err := loader.Load(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, region.ErrAlloc) {
			return exitAlloc
		}
		return exitInput
	}
	defer block.Release()

	prog, err := bytecode.NewProgram(block.Bytes())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitMalformed
	}

	// The code region is read-only from here on.
	if err := block.Seal(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitAlloc
	}

	machine := vm.NewMachine(prog, cfg.MachineOptions())
	result, err := machine.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var alloc *vm.AllocError
		if errors.As(err, &alloc) || errors.Is(err, region.ErrAlloc) {
			return exitAlloc
		}
		return exitFault
	}

	printer := vm.NewPrinter(os.Stdout)
	if err := printer.Println(result); err != nil {
		// The malformed diagnostic already reached stdout, completing
		// that stream; only the exit code distinguishes it.
		var malformed *vm.MalformedValueError
		if errors.As(err, &malformed) {
			return exitBadValue
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInput
	}

	return exitOK
}

// loadConfig resolves configuration from the -config flag or the petrel.toml
// search starting in the working directory.
func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.Load(*configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	return config.FindAndLoad(wd)
}
