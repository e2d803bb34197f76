package linguine

import (
	"fmt"
	"strings"

	"github.com/linguine-lang/linguine/ascii"
)

// Disassemble renders fn's bytecode as a human-readable listing, one
// instruction per line: offset, mnemonic, and decoded operands. It
// never panics on malformed bytecode -- decoding errors are rendered
// inline as a placeholder so a corrupt function can still be
// inspected, the way a disassembler should behave even on garbage
// input.
func Disassemble(fn *Function) string {
	return disassemble(fn, false)
}

// DisassembleColor is Disassemble with ANSI highlighting from the
// ascii package's DefaultTheme, in the style of a HighlightPrettyString
// helper.
func DisassembleColor(fn *Function) string {
	return disassemble(fn, true)
}

func disassemble(fn *Function, color bool) string {
	var sb strings.Builder
	if fn.IsNative() {
		fmt.Fprintf(&sb, "%s: <native>\n", fn.name)
		return sb.String()
	}

	c := cursor{code: fn.bytecode}
	for !c.done() {
		start := c.pos
		opByte, err := c.u8()
		if err != nil {
			fmt.Fprintf(&sb, "%04x: <truncated>\n", start)
			break
		}
		op := opcode(opByte)
		if !op.valid() {
			fmt.Fprintf(&sb, "%04x: <bad opcode %d>\n", start, opByte)
			break
		}
		mnemonic := op.String()
		operands, err := decodeOperandsForDisasm(&c, op)
		if color {
			mnemonic = ascii.Color(ascii.DefaultTheme.Operator, "%s", mnemonic)
		}
		if err != nil {
			fmt.Fprintf(&sb, "%04x: %s <bad operand>\n", start, mnemonic)
			break
		}
		if color && operands != "" {
			operands = ascii.Color(ascii.DefaultTheme.Operand, "%s", operands)
		}
		if operands == "" {
			fmt.Fprintf(&sb, "%04x: %s\n", start, mnemonic)
		} else {
			fmt.Fprintf(&sb, "%04x: %s %s\n", start, mnemonic, operands)
		}
	}
	return sb.String()
}

// decodeOperandsForDisasm re-decodes one instruction's operands
// purely for display, advancing c exactly as the interpreter would.
// It deliberately duplicates the operand *shapes* from vm.go's step()
// rather than sharing code with it, since the two have different
// failure behavior (the interpreter aborts the frame; the
// disassembler renders a placeholder and stops at that instruction).
func decodeOperandsForDisasm(c *cursor, op opcode) (string, error) {
	switch op {
	case opNop:
		return "", nil
	case opLineInfo:
		v, err := c.u32()
		return fmt.Sprintf("%d", v), err
	case opGetDictKeyByIndex, opGetDictValByIndex:
		a, b, cc, err := decode3Disasm(c)
		return fmt.Sprintf("t%d, t%d, t%d", a, b, cc), err
	case opAssign, opNeg, opLen:
		a, b, err := decode2Disasm(c)
		return fmt.Sprintf("t%d, t%d", a, b), err
	case opIConst, opFConst:
		a, err := c.u16()
		if err != nil {
			return "", err
		}
		v, err := c.u32()
		return fmt.Sprintf("t%d, %d", a, v), err
	case opSConst:
		a, err := c.u16()
		if err != nil {
			return "", err
		}
		s, err := c.cstr()
		return fmt.Sprintf("t%d, %q", a, s), err
	case opAConst, opDConst, opInc:
		a, err := c.u16()
		return fmt.Sprintf("t%d", a), err
	case opAdd, opSub, opMul, opDiv, opMod, opAnd, opOr, opXor,
		opLt, opLte, opGt, opGte, opEq, opNeq, opEqI,
		opLoadArray, opStoreArray:
		a, b, cc, err := decode3Disasm(c)
		return fmt.Sprintf("t%d, t%d, t%d", a, b, cc), err
	case opLoadSymbol:
		a, err := c.u16()
		if err != nil {
			return "", err
		}
		s, err := c.cstr()
		return fmt.Sprintf("t%d, %q", a, s), err
	case opStoreSymbol:
		s, err := c.cstr()
		if err != nil {
			return "", err
		}
		a, err := c.u16()
		return fmt.Sprintf("%q, t%d", s, a), err
	case opLoadDot:
		a, b, err := decode2Disasm(c)
		if err != nil {
			return "", err
		}
		s, err := c.cstr()
		return fmt.Sprintf("t%d, t%d, %q", a, b, s), err
	case opStoreDot:
		a, err := c.u16()
		if err != nil {
			return "", err
		}
		s, err := c.cstr()
		if err != nil {
			return "", err
		}
		b, err := c.u16()
		return fmt.Sprintf("t%d, %q, t%d", a, s, b), err
	case opCall:
		dst, fnv, err := decode2Disasm(c)
		if err != nil {
			return "", err
		}
		return formatArgList(c, fmt.Sprintf("t%d, t%d", dst, fnv))
	case opThisCall:
		dst, obj, err := decode2Disasm(c)
		if err != nil {
			return "", err
		}
		s, err := c.cstr()
		if err != nil {
			return "", err
		}
		return formatArgList(c, fmt.Sprintf("t%d, t%d, %q", dst, obj, s))
	case opJmp:
		v, err := c.u32()
		return fmt.Sprintf("%04x", v), err
	case opJmpIfTrue, opJmpIfFalse, opJmpIfEq:
		a, err := c.u16()
		if err != nil {
			return "", err
		}
		v, err := c.u32()
		return fmt.Sprintf("t%d, %04x", a, v), err
	default:
		return "", nil
	}
}

func decode2Disasm(c *cursor) (uint16, uint16, error) {
	a, err := c.u16()
	if err != nil {
		return 0, 0, err
	}
	b, err := c.u16()
	return a, b, err
}

func decode3Disasm(c *cursor) (uint16, uint16, uint16, error) {
	a, b, err := decode2Disasm(c)
	if err != nil {
		return 0, 0, 0, err
	}
	cc, err := c.u16()
	return a, b, cc, err
}

func formatArgList(c *cursor, prefix string) (string, error) {
	argc, err := c.u8()
	if err != nil {
		return "", err
	}
	parts := []string{prefix, fmt.Sprintf("argc=%d", argc)}
	for i := 0; i < int(argc); i++ {
		a, err := c.u16()
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("t%d", a))
	}
	return strings.Join(parts, ", "), nil
}
