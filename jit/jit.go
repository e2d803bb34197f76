// Package jit provides the optional template JIT described in the
// core's design notes: a JITCompiler that maps an executable page per
// bytecode Function and runs the function by calling back into the
// interpreter's own per-opcode helpers through Runtime.StepOpcode, one
// call per opcode, rather than reimplementing opcode semantics in
// machine code. The page holds only a minimal landing pad; the
// per-opcode calls are made from Go, not from generated code.
// Installing it never changes results; a Runtime with no JIT installed
// runs identically through the interpreter.
package jit

import "errors"

// ErrUnsupported is returned by NewCompiler on architectures with no
// concrete JIT backend.
var ErrUnsupported = errors.New("jit: no compiler available for this architecture")
