//go:build !(amd64 && linux)

package jit

import "github.com/linguine-lang/linguine"

// NewCompiler reports ErrUnsupported on every platform except
// amd64/linux, so there is no compiler to pass to Runtime.EnableJIT. A
// Runtime with no JIT installed runs every function through the
// interpreter, so this is a capability gap, not a correctness one.
func NewCompiler() (linguine.JITCompiler, error) {
	return nil, ErrUnsupported
}
