package linguine

import (
	"encoding/binary"
	"errors"
)

var errTruncated = errors.New("truncated operand")
var errBadJump = errors.New("jump target out of range")
var errUnterminatedString = errors.New("unterminated inline string operand")

// cursor is a bounds-checked big-endian reader over a function's
// bytecode array (§4.4.1: all multi-byte operands are big-endian). It
// carries no Runtime reference so it can be reused by both the
// interpreter (which wraps its plain errors into BrokenBytecode
// failures) and the disassembler (which renders them as placeholders
// instead of aborting).
type cursor struct {
	code []byte
	pos  int
}

func (c *cursor) done() bool { return c.pos >= len(c.code) }

func (c *cursor) u8() (byte, error) {
	if c.pos+1 > len(c.code) {
		return 0, errTruncated
	}
	b := c.code[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) u16() (uint16, error) {
	if c.pos+2 > len(c.code) {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint16(c.code[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if c.pos+4 > len(c.code) {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint32(c.code[c.pos:])
	c.pos += 4
	return v, nil
}

// cstr reads a nul-terminated inline string operand.
func (c *cursor) cstr() (string, error) {
	start := c.pos
	for c.pos < len(c.code) {
		if c.code[c.pos] == 0 {
			s := string(c.code[start:c.pos])
			c.pos++
			return s, nil
		}
		c.pos++
	}
	return "", errUnterminatedString
}

// jumpTo validates and applies an absolute jump target. Per the
// resolved Open Question in SPEC_FULL.md, a target exactly equal to
// len(code) is legal (a jump to the implicit end of the function,
// equivalent to falling off the end), so the bound check is <=, not <.
func (c *cursor) jumpTo(target uint32) error {
	if int(target) > len(c.code) {
		return errBadJump
	}
	c.pos = int(target)
	return nil
}

// decodeFail wraps a cursor decoding error into the runtime's
// BrokenBytecode failure, recording file/line via the normal fail()
// choke point.
func (rt *Runtime) decodeFail(err error, offset int) error {
	return rt.fail(ErrBrokenBytecode, "%v at offset %d", err, offset)
}

// The cu8/cu16/cu32/ccstr/cjump wrappers are what the interpreter
// calls instead of cursor's raw methods: they turn a plain decoding
// error into the runtime's recorded BrokenBytecode failure at the
// offset where decoding stopped.

func (rt *Runtime) cu8(c *cursor) (byte, error) {
	start := c.pos
	v, err := c.u8()
	if err != nil {
		return 0, rt.decodeFail(err, start)
	}
	return v, nil
}

func (rt *Runtime) cu16(c *cursor) (uint16, error) {
	start := c.pos
	v, err := c.u16()
	if err != nil {
		return 0, rt.decodeFail(err, start)
	}
	return v, nil
}

func (rt *Runtime) cu32(c *cursor) (uint32, error) {
	start := c.pos
	v, err := c.u32()
	if err != nil {
		return 0, rt.decodeFail(err, start)
	}
	return v, nil
}

func (rt *Runtime) ccstr(c *cursor) (string, error) {
	start := c.pos
	v, err := c.cstr()
	if err != nil {
		return "", rt.decodeFail(err, start)
	}
	return v, nil
}

func (rt *Runtime) cjump(c *cursor, target uint32) error {
	if err := c.jumpTo(target); err != nil {
		return rt.decodeFail(err, c.pos)
	}
	return nil
}
