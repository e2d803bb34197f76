package linguine

import (
	"fmt"
	"math"
)

// StepOpcode executes exactly one instruction starting at byte offset
// pc in fr's function and returns the offset of the next instruction.
// It is the seam the jit package's NativeCode.Run calls back into
// (§9 Design Notes, Template JIT), once per opcode, so that JIT-run
// functions use the identical per-opcode helpers the interpreter loop
// uses instead of reimplementing opcode semantics in machine code.
func (rt *Runtime) StepOpcode(fr *Frame, pc int) (int, error) {
	c := cursor{code: fr.fn.bytecode, pos: pc}
	opByte, err := rt.cu8(&c)
	if err != nil {
		return 0, err
	}
	op := opcode(opByte)
	if !op.valid() {
		return 0, rt.fail(ErrBrokenBytecode, "unknown opcode %d at offset %d", opByte, c.pos-1)
	}
	if err := rt.step(fr, &c, op); err != nil {
		return 0, err
	}
	return c.pos, nil
}

// run executes a bytecode function's instructions against fr until it
// falls off the end of the code or an opcode helper fails (§4.4.5).
// The JIT path (Function.jitCode) bypasses this loop entirely and
// calls the same per-opcode helpers directly; this loop is the
// reference semantics both paths must agree with.
func (rt *Runtime) run(fr *Frame) error {
	c := cursor{code: fr.fn.bytecode}
	for !c.done() {
		opByte, err := rt.cu8(&c)
		if err != nil {
			return err
		}
		op := opcode(opByte)
		if !op.valid() {
			return rt.fail(ErrBrokenBytecode, "unknown opcode %d at offset %d", opByte, c.pos-1)
		}
		if err := rt.step(fr, &c, op); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Runtime) step(fr *Frame, c *cursor, op opcode) error {
	switch op {
	case opNop:
		return nil

	case opLineInfo:
		line, err := rt.cu32(c)
		if err != nil {
			return err
		}
		rt.curLine = int(line)
		return nil

	case opAssign:
		dst, src, err := rt.decode2(c)
		if err != nil {
			return err
		}
		v, err := rt.tmpAt(fr, src)
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, v)

	case opIConst:
		dst, err := rt.cu16(c)
		if err != nil {
			return err
		}
		imm, err := rt.cu32(c)
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, IntValue(int32(imm)))

	case opFConst:
		dst, err := rt.cu16(c)
		if err != nil {
			return err
		}
		imm, err := rt.cu32(c)
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, FloatValue(math.Float32frombits(imm)))

	case opSConst:
		dst, err := rt.cu16(c)
		if err != nil {
			return err
		}
		s, err := rt.ccstr(c)
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, rt.MakeString(s))

	case opAConst:
		dst, err := rt.cu16(c)
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, rt.MakeEmptyArray())

	case opDConst:
		dst, err := rt.cu16(c)
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, rt.MakeEmptyDict())

	case opInc:
		dst, err := rt.cu16(c)
		if err != nil {
			return err
		}
		v, err := rt.tmpAt(fr, dst)
		if err != nil {
			return err
		}
		if v.Kind() != KindInt {
			return rt.fail(ErrBrokenBytecode, "INC on non-Int tmpvar")
		}
		return rt.setTmpAt(fr, dst, IntValue(v.Int()+1))

	case opAdd, opSub, opMul, opDiv, opMod:
		return rt.stepArith(fr, c, op)

	case opAnd, opOr, opXor:
		return rt.stepBitwise(fr, c, op)

	case opNeg:
		dst, src, err := rt.decode2(c)
		if err != nil {
			return err
		}
		v, err := rt.tmpAt(fr, src)
		if err != nil {
			return err
		}
		if v.Kind() != KindInt {
			return rt.fail(ErrTypeError, "NEG requires an Int operand, got %s", v.Kind())
		}
		return rt.setTmpAt(fr, dst, IntValue(^v.Int()))

	case opLt, opLte, opGt, opGte, opEq, opNeq, opEqI:
		return rt.stepCompare(fr, c, op)

	case opLoadArray:
		return rt.stepLoadArray(fr, c)

	case opStoreArray:
		return rt.stepStoreArray(fr, c)

	case opLen:
		return rt.stepLen(fr, c)

	case opGetDictKeyByIndex:
		return rt.stepDictByIndex(fr, c, true)

	case opGetDictValByIndex:
		return rt.stepDictByIndex(fr, c, false)

	case opLoadSymbol:
		return rt.stepLoadSymbol(fr, c)

	case opStoreSymbol:
		return rt.stepStoreSymbol(fr, c)

	case opLoadDot:
		return rt.stepLoadDot(fr, c)

	case opStoreDot:
		return rt.stepStoreDot(fr, c)

	case opCall:
		return rt.stepCall(fr, c)

	case opThisCall:
		return rt.stepThisCall(fr, c)

	case opJmp:
		target, err := rt.cu32(c)
		if err != nil {
			return err
		}
		return rt.cjump(c, target)

	case opJmpIfTrue, opJmpIfEq:
		return rt.stepBranch(fr, c, true)

	case opJmpIfFalse:
		return rt.stepBranch(fr, c, false)

	default:
		return rt.fail(ErrBrokenBytecode, "unimplemented opcode %s", op)
	}
}

func (rt *Runtime) decode2(c *cursor) (dst, src uint16, err error) {
	dst, err = rt.cu16(c)
	if err != nil {
		return 0, 0, err
	}
	src, err = rt.cu16(c)
	if err != nil {
		return 0, 0, err
	}
	return dst, src, nil
}

func (rt *Runtime) decode3(c *cursor) (a, b, cc uint16, err error) {
	a, err = rt.cu16(c)
	if err != nil {
		return 0, 0, 0, err
	}
	b, err = rt.cu16(c)
	if err != nil {
		return 0, 0, 0, err
	}
	cc, err = rt.cu16(c)
	if err != nil {
		return 0, 0, 0, err
	}
	return a, b, cc, nil
}

// stepArith implements §4.4.3's arithmetic type-promotion table for
// ADD/SUB/MUL/DIV/MOD, including ADD's String-concatenation overload.
func (rt *Runtime) stepArith(fr *Frame, c *cursor, op opcode) error {
	dst, s1, s2, err := rt.decode3(c)
	if err != nil {
		return err
	}
	a, err := rt.tmpAt(fr, s1)
	if err != nil {
		return err
	}
	b, err := rt.tmpAt(fr, s2)
	if err != nil {
		return err
	}

	if op == opAdd && (a.Kind() == KindString || b.Kind() == KindString) {
		v, err := rt.stringConcat(a, b)
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, v)
	}

	if a.Kind() == KindInt && b.Kind() == KindInt {
		r, err := intArith(rt, op, a.Int(), b.Int())
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, r)
	}

	if op == opMod {
		return rt.fail(ErrTypeError, "MOD requires Int operands, got %s and %s", a.Kind(), b.Kind())
	}

	af, ok1 := asFloat(a)
	bf, ok2 := asFloat(b)
	if !ok1 || !ok2 {
		return rt.fail(ErrTypeError, "arithmetic requires numeric operands, got %s and %s", a.Kind(), b.Kind())
	}
	r, err := floatArith(rt, op, af, bf)
	if err != nil {
		return err
	}
	return rt.setTmpAt(fr, dst, r)
}

func asFloat(v Value) (float32, bool) {
	switch v.Kind() {
	case KindInt:
		return float32(v.Int()), true
	case KindFloat:
		return v.Float(), true
	default:
		return 0, false
	}
}

func intArith(rt *Runtime, op opcode, a, b int32) (Value, error) {
	switch op {
	case opAdd:
		return IntValue(a + b), nil
	case opSub:
		return IntValue(a - b), nil
	case opMul:
		return IntValue(a * b), nil
	case opDiv:
		if b == 0 {
			return Value{}, rt.fail(ErrDivisionByZero, "integer division by zero")
		}
		return IntValue(a / b), nil
	case opMod:
		if b == 0 {
			return Value{}, rt.fail(ErrDivisionByZero, "integer modulo by zero")
		}
		return IntValue(a % b), nil
	}
	return Value{}, rt.fail(ErrBrokenBytecode, "not an arithmetic opcode")
}

func floatArith(rt *Runtime, op opcode, a, b float32) (Value, error) {
	switch op {
	case opAdd:
		return FloatValue(a + b), nil
	case opSub:
		return FloatValue(a - b), nil
	case opMul:
		return FloatValue(a * b), nil
	case opDiv:
		if b == 0 {
			return Value{}, rt.fail(ErrDivisionByZero, "float division by zero")
		}
		return FloatValue(a / b), nil
	}
	return Value{}, rt.fail(ErrBrokenBytecode, "not a float arithmetic opcode")
}

func (rt *Runtime) stringConcat(a, b Value) (Value, error) {
	as, err := rt.formatOperand(a)
	if err != nil {
		return Value{}, err
	}
	bs, err := rt.formatOperand(b)
	if err != nil {
		return Value{}, err
	}
	return rt.MakeString(as + bs), nil
}

func (rt *Runtime) formatOperand(v Value) (string, error) {
	switch v.Kind() {
	case KindString:
		return string(rt.StringBytes(v)), nil
	case KindInt:
		return fmt.Sprintf("%d", v.Int()), nil
	case KindFloat:
		return fmt.Sprintf("%f", v.Float()), nil
	default:
		return "", rt.fail(ErrTypeError, "cannot concatenate a %s onto a string", v.Kind())
	}
}

func (rt *Runtime) stepBitwise(fr *Frame, c *cursor, op opcode) error {
	dst, s1, s2, err := rt.decode3(c)
	if err != nil {
		return err
	}
	a, err := rt.tmpAt(fr, s1)
	if err != nil {
		return err
	}
	b, err := rt.tmpAt(fr, s2)
	if err != nil {
		return err
	}
	if a.Kind() != KindInt || b.Kind() != KindInt {
		return rt.fail(ErrTypeError, "bitwise op requires Int operands, got %s and %s", a.Kind(), b.Kind())
	}
	var r int32
	switch op {
	case opAnd:
		r = a.Int() & b.Int()
	case opOr:
		r = a.Int() | b.Int()
	case opXor:
		r = a.Int() ^ b.Int()
	}
	return rt.setTmpAt(fr, dst, IntValue(r))
}

// stepCompare implements §4.4.3's comparison rules. The result slot's
// tag follows the dominant operand kind for numeric pairs (Int only
// if both operands are Int, else Float with payload 0.0/1.0);
// String-vs-String always yields Int, since there is no numeric
// "dominant kind" to follow there.
func (rt *Runtime) stepCompare(fr *Frame, c *cursor, op opcode) error {
	dst, s1, s2, err := rt.decode3(c)
	if err != nil {
		return err
	}
	a, err := rt.tmpAt(fr, s1)
	if err != nil {
		return err
	}
	b, err := rt.tmpAt(fr, s2)
	if err != nil {
		return err
	}

	cmpOp := op
	if cmpOp == opEqI {
		cmpOp = opEq
	}

	switch {
	case a.Kind() == KindString && b.Kind() == KindString:
		result := compareStrings(cmpOp, string(rt.StringBytes(a)), string(rt.StringBytes(b)))
		return rt.setTmpAt(fr, dst, IntValue(boolToInt32(result)))
	case (a.Kind() == KindInt || a.Kind() == KindFloat) && (b.Kind() == KindInt || b.Kind() == KindFloat):
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		result := compareFloats(cmpOp, af, bf)
		if a.Kind() == KindInt && b.Kind() == KindInt {
			return rt.setTmpAt(fr, dst, IntValue(boolToInt32(result)))
		}
		return rt.setTmpAt(fr, dst, FloatValue(boolToFloat32(result)))
	default:
		return rt.fail(ErrTypeError, "cannot compare %s and %s", a.Kind(), b.Kind())
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func boolToFloat32(b bool) float32 {
	if b {
		return 1.0
	}
	return 0.0
}

func compareFloats(op opcode, a, b float32) bool {
	switch op {
	case opLt:
		return a < b
	case opLte:
		return a <= b
	case opGt:
		return a > b
	case opGte:
		return a >= b
	case opEq:
		return a == b
	case opNeq:
		return a != b
	}
	return false
}

func compareStrings(op opcode, a, b string) bool {
	switch op {
	case opLt:
		return a < b
	case opLte:
		return a <= b
	case opGt:
		return a > b
	case opGte:
		return a >= b
	case opEq:
		return a == b
	case opNeq:
		return a != b
	}
	return false
}

// stepLoadArray implements LOADARRAY's array-or-dict dispatch: an Int
// subscript targets an Array, a String subscript targets a Dict.
func (rt *Runtime) stepLoadArray(fr *Frame, c *cursor) error {
	dst, container, sub, err := rt.decode3(c)
	if err != nil {
		return err
	}
	cv, err := rt.tmpAt(fr, container)
	if err != nil {
		return err
	}
	sv, err := rt.tmpAt(fr, sub)
	if err != nil {
		return err
	}
	switch cv.Kind() {
	case KindArray:
		if sv.Kind() != KindInt {
			return rt.fail(ErrTypeError, "array subscript must be Int, got %s", sv.Kind())
		}
		v, err := rt.ArrayGet(cv, int(sv.Int()))
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, v)
	case KindDict:
		if sv.Kind() != KindString {
			return rt.fail(ErrTypeError, "dict subscript must be String, got %s", sv.Kind())
		}
		v, err := rt.DictGet(cv, string(rt.StringBytes(sv)))
		if err != nil {
			return err
		}
		return rt.setTmpAt(fr, dst, v)
	default:
		return rt.fail(ErrTypeError, "LOADARRAY requires an Array or Dict, got %s", cv.Kind())
	}
}

func (rt *Runtime) stepStoreArray(fr *Frame, c *cursor) error {
	container, sub, src, err := rt.decode3(c)
	if err != nil {
		return err
	}
	cv, err := rt.tmpAt(fr, container)
	if err != nil {
		return err
	}
	sv, err := rt.tmpAt(fr, sub)
	if err != nil {
		return err
	}
	val, err := rt.tmpAt(fr, src)
	if err != nil {
		return err
	}
	switch cv.Kind() {
	case KindArray:
		if sv.Kind() != KindInt {
			return rt.fail(ErrTypeError, "array subscript must be Int, got %s", sv.Kind())
		}
		return rt.ArraySet(cv, int(sv.Int()), val)
	case KindDict:
		if sv.Kind() != KindString {
			return rt.fail(ErrTypeError, "dict subscript must be String, got %s", sv.Kind())
		}
		return rt.DictSet(cv, string(rt.StringBytes(sv)), val)
	default:
		return rt.fail(ErrTypeError, "STOREARRAY requires an Array or Dict, got %s", cv.Kind())
	}
}

func (rt *Runtime) stepLen(fr *Frame, c *cursor) error {
	dst, src, err := rt.decode2(c)
	if err != nil {
		return err
	}
	v, err := rt.tmpAt(fr, src)
	if err != nil {
		return err
	}
	n, err := rt.lenOf(v)
	if err != nil {
		return err
	}
	return rt.setTmpAt(fr, dst, IntValue(int32(n)))
}

func (rt *Runtime) lenOf(v Value) (int, error) {
	switch v.Kind() {
	case KindString:
		return rt.StringLen(v), nil
	case KindArray:
		return rt.ArrayLen(v), nil
	case KindDict:
		return rt.DictLen(v), nil
	default:
		return 0, rt.fail(ErrTypeError, "LEN requires a String, Array, or Dict, got %s", v.Kind())
	}
}

func (rt *Runtime) stepDictByIndex(fr *Frame, c *cursor, byKey bool) error {
	dst, dict, idx, err := rt.decode3(c)
	if err != nil {
		return err
	}
	dv, err := rt.tmpAt(fr, dict)
	if err != nil {
		return err
	}
	if dv.Kind() != KindDict {
		return rt.fail(ErrTypeError, "expected a Dict, got %s", dv.Kind())
	}
	iv, err := rt.tmpAt(fr, idx)
	if err != nil {
		return err
	}
	if iv.Kind() != KindInt {
		return rt.fail(ErrTypeError, "dict ordinal index must be Int, got %s", iv.Kind())
	}
	var v Value
	if byKey {
		v, err = rt.DictKeyByIndex(dv, int(iv.Int()))
	} else {
		v, err = rt.DictValByIndex(dv, int(iv.Int()))
	}
	if err != nil {
		return err
	}
	return rt.setTmpAt(fr, dst, v)
}

func (rt *Runtime) stepLoadSymbol(fr *Frame, c *cursor) error {
	dst, err := rt.cu16(c)
	if err != nil {
		return err
	}
	name, err := rt.ccstr(c)
	if err != nil {
		return err
	}
	if l, ok := fr.findLocal(name); ok {
		return rt.setTmpAt(fr, dst, l.val)
	}
	if g, ok := rt.findGlobal(name); ok {
		return rt.setTmpAt(fr, dst, g.val)
	}
	return rt.fail(ErrSymbolNotFound, "symbol %q not found", name)
}

// stepStoreSymbol implements STORESYMBOL's three-way precedence:
// update an existing local, else update an existing global, else bind
// a new local. It never creates a new global.
func (rt *Runtime) stepStoreSymbol(fr *Frame, c *cursor) error {
	name, err := rt.ccstr(c)
	if err != nil {
		return err
	}
	src, err := rt.cu16(c)
	if err != nil {
		return err
	}
	v, err := rt.tmpAt(fr, src)
	if err != nil {
		return err
	}
	if l, ok := fr.findLocal(name); ok {
		l.val = v
		return nil
	}
	if rt.updateGlobal(name, v) {
		return nil
	}
	fr.bindLocal(name, v)
	return nil
}

func (rt *Runtime) stepLoadDot(fr *Frame, c *cursor) error {
	dst, obj, err := rt.decode2(c)
	if err != nil {
		return err
	}
	key, err := rt.ccstr(c)
	if err != nil {
		return err
	}
	ov, err := rt.tmpAt(fr, obj)
	if err != nil {
		return err
	}
	if ov.Kind() != KindDict {
		return rt.fail(ErrTypeError, "LOADDOT requires a Dict, got %s", ov.Kind())
	}
	v, err := rt.DictGet(ov, key)
	if err != nil {
		return err
	}
	return rt.setTmpAt(fr, dst, v)
}

func (rt *Runtime) stepStoreDot(fr *Frame, c *cursor) error {
	obj, err := rt.cu16(c)
	if err != nil {
		return err
	}
	key, err := rt.ccstr(c)
	if err != nil {
		return err
	}
	src, err := rt.cu16(c)
	if err != nil {
		return err
	}
	ov, err := rt.tmpAt(fr, obj)
	if err != nil {
		return err
	}
	if ov.Kind() != KindDict {
		return rt.fail(ErrTypeError, "STOREDOT requires a Dict, got %s", ov.Kind())
	}
	val, err := rt.tmpAt(fr, src)
	if err != nil {
		return err
	}
	return rt.DictSet(ov, key, val)
}

func (rt *Runtime) readArgs(fr *Frame, c *cursor) ([]Value, error) {
	argc, err := rt.cu8(c)
	if err != nil {
		return nil, err
	}
	if int(argc) > maxArity {
		return nil, rt.fail(ErrCallError, "call passes %d arguments, max is %d", argc, maxArity)
	}
	args := make([]Value, argc)
	for i := range args {
		idx, err := rt.cu16(c)
		if err != nil {
			return nil, err
		}
		v, err := rt.tmpAt(fr, idx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (rt *Runtime) stepCall(fr *Frame, c *cursor) error {
	dst, fnSlot, err := rt.decode2(c)
	if err != nil {
		return err
	}
	fv, err := rt.tmpAt(fr, fnSlot)
	if err != nil {
		return err
	}
	args, err := rt.readArgs(fr, c)
	if err != nil {
		return err
	}
	if fv.Kind() != KindFunc {
		return rt.fail(ErrCallError, "CALL target is not a function, got %s", fv.Kind())
	}
	ret, err := rt.Call(rt.functionAt(fv.idx), nil, args)
	if err != nil {
		return err
	}
	return rt.setTmpAt(fr, dst, ret)
}

func (rt *Runtime) stepThisCall(fr *Frame, c *cursor) error {
	dst, obj, err := rt.decode2(c)
	if err != nil {
		return err
	}
	method, err := rt.ccstr(c)
	if err != nil {
		return err
	}
	args, err := rt.readArgs(fr, c)
	if err != nil {
		return err
	}
	ov, err := rt.tmpAt(fr, obj)
	if err != nil {
		return err
	}
	if ov.Kind() != KindDict {
		return rt.fail(ErrCallError, "THISCALL requires a Dict receiver, got %s", ov.Kind())
	}
	fv, err := rt.DictGet(ov, method)
	if err != nil {
		return rt.fail(ErrTypeError, "method %q not found on dict", method)
	}
	if fv.Kind() != KindFunc {
		return rt.fail(ErrTypeError, "method %q is not a function, got %s", method, fv.Kind())
	}
	ret, err := rt.Call(rt.functionAt(fv.idx), &ov, args)
	if err != nil {
		return err
	}
	return rt.setTmpAt(fr, dst, ret)
}

func (rt *Runtime) stepBranch(fr *Frame, c *cursor, wantTrue bool) error {
	src, err := rt.cu16(c)
	if err != nil {
		return err
	}
	target, err := rt.cu32(c)
	if err != nil {
		return err
	}
	v, err := rt.tmpAt(fr, src)
	if err != nil {
		return err
	}
	if v.Kind() != KindInt || (v.Int() != 0 && v.Int() != 1) {
		return rt.fail(ErrBrokenBytecode, "branch predicate must be Int 0 or 1, got %s", v)
	}
	taken := (v.Int() == 1) == wantTrue
	if taken {
		return rt.cjump(c, target)
	}
	return nil
}
