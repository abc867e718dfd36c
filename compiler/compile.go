// Package compiler translates s-expression source into assembler source.
//
// The pipeline is lexer, parser, lowerer: source text becomes datums,
// datums become assembly lines ready for asm.Assemble. Diagnostics carry
// line:column positions and are all collected before a phase fails.
package compiler

import "errors"

// Compile translates source text into assembler source. Parse errors stop
// the pipeline before lowering; either way every diagnostic for the failed
// phase is in the returned error.
func Compile(src string) (string, error) {
	p := NewParser(src)
	datums := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return "", joinDiagnostics(errs)
	}

	low := NewLowerer()
	low.Lower(datums)
	if errs := low.Errors(); len(errs) > 0 {
		return "", joinDiagnostics(errs)
	}
	return low.Asm(), nil
}

// Check returns every diagnostic for the source: parse errors when there
// are any, lowering errors otherwise, nil for a clean compile.
func Check(src string) []string {
	p := NewParser(src)
	datums := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return errs
	}

	low := NewLowerer()
	low.Lower(datums)
	return low.Errors()
}

func joinDiagnostics(msgs []string) error {
	errs := make([]error, len(msgs))
	for i, m := range msgs {
		errs[i] = errors.New(m)
	}
	return errors.Join(errs...)
}
