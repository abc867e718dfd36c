// Package vm implements the Petrel virtual machine.
//
// This package contains:
//   - Tagged 64-bit value representation and codec
//   - Bump-allocating heap for pairs, strings, and vectors
//   - Downward-growing operand stack
//   - Bytecode interpreter
//   - Canonical value printer
package vm
